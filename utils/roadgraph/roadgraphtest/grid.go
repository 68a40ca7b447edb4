// 测试用的固定路网：3行4列共12个节点的网格，双向边
// 说明：前两行节点1~8自成一个连通的8节点路网，第三行9~12提供额外的绕行路线；
// 端到端场景（包括基本运行场景）统一使用完整的12节点网格
package roadgraphtest

import (
	"github.com/tsinghua-fib-lab/mixedtraffic-sim/utils/roadgraph"
)

type gridEdge struct {
	u, v       int64
	travelTime float64
	highway    string
}

// 每条边长100米，反向边属性相同
var gridEdges = []gridEdge{
	// 横向
	{1, 2, 10, "primary"},
	{2, 3, 10, "secondary"},
	{3, 4, 12, "primary"},
	{5, 6, 8, "primary"},
	{6, 7, 10, "secondary"},
	{7, 8, 15, "tertiary"},
	{9, 10, 12, "residential"},
	{10, 11, 10, "primary"},
	{11, 12, 14, "secondary"},
	// 纵向
	{1, 5, 15, "tertiary"},
	{2, 6, 8, "primary"},
	{3, 7, 12, "secondary"},
	{4, 8, 10, "primary"},
	{5, 9, 18, "residential"},
	{6, 10, 10, "secondary"},
	{7, 11, 12, "primary"},
	{8, 12, 16, "tertiary"},
}

// GridNetwork 网格路网数据，节点i位于((i-1)%4*100, (i-1)/4*100)
func GridNetwork() roadgraph.Network {
	n := roadgraph.Network{}
	for i := int64(1); i <= 12; i++ {
		n.Nodes = append(n.Nodes, roadgraph.NodeData{
			ID: i,
			X:  float64((i-1)%4) * 100,
			Y:  float64((i-1)/4) * 100,
		})
	}
	for _, e := range gridEdges {
		for _, uv := range [][2]int64{{e.u, e.v}, {e.v, e.u}} {
			n.Edges = append(n.Edges, roadgraph.EdgeData{
				U:          uv[0],
				V:          uv[1],
				Length:     100,
				TravelTime: e.travelTime,
				Highway:    e.highway,
			})
		}
	}
	return n
}

// Grid 网格路网
func Grid() *roadgraph.Graph {
	g, err := roadgraph.New(GridNetwork())
	if err != nil {
		panic(err)
	}
	return g
}
