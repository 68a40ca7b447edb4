package roadgraph

import "fmt"

// Intner 随机整数源
type Intner interface {
	Intn(n int) int
}

// RandomFarNodes 随机选取一对通行时间足够长的起终点
// 功能：为新生成的车辆挑选起终点与路径
// 参数：rng-随机源，minSeconds-最短路通行时间下限，maxTries-每轮最大尝试次数
// 返回：起点、终点与路径；两轮都失败时返回ErrNoPath
// 算法说明：
// 1. 第一轮拒绝采样：随机起终点，最短路通行时间不低于minSeconds时接受
// 2. 第二轮放宽：接受任意可达的起终点
// 3. 起终点相同或不可达的样本跳过
func RandomFarNodes(g *Graph, rng Intner, minSeconds float64, maxTries int) (int64, int64, []int64, error) {
	nodes := g.Nodes()
	if len(nodes) < 2 {
		return 0, 0, nil, fmt.Errorf("%w: graph has %d nodes", ErrNoPath, len(nodes))
	}
	for _, long := range []bool{true, false} {
		for i := 0; i < maxTries; i++ {
			o := nodes[rng.Intn(len(nodes))]
			d := nodes[rng.Intn(len(nodes))]
			if o == d {
				continue
			}
			p, tt, err := g.ShortestPath(o, d)
			if err != nil {
				continue
			}
			if !long || tt >= minSeconds {
				return o, d, p, nil
			}
		}
	}
	return 0, 0, nil, fmt.Errorf("%w: no valid origin/destination after %d tries", ErrNoPath, 2*maxTries)
}
