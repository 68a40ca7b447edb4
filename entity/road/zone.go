package road

import (
	"slices"

	"github.com/tsinghua-fib-lab/mixedtraffic-sim/utils/roadgraph"
	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/traverse"
)

// groupAdjacentEdges 将共享端点的边合并为连通分组
// 算法说明：以边为顶点、共享端点为无向边建图，广度优先遍历求连通分量
// 返回：分组列表，组内与组间均按边ID顺序排列
func groupAdjacentEdges(edges []roadgraph.EdgeID) [][]roadgraph.EdgeID {
	if len(edges) == 0 {
		return nil
	}
	g := simple.NewUndirectedGraph()
	byEndpoint := make(map[int64][]int64)
	for i, e := range edges {
		g.AddNode(simple.Node(i))
		byEndpoint[e.U] = append(byEndpoint[e.U], int64(i))
		byEndpoint[e.V] = append(byEndpoint[e.V], int64(i))
	}
	for _, ids := range byEndpoint {
		for _, j := range ids[1:] {
			if ids[0] != j {
				g.SetEdge(simple.Edge{F: simple.Node(ids[0]), T: simple.Node(j)})
			}
		}
	}

	var groups [][]roadgraph.EdgeID
	bf := traverse.BreadthFirst{}
	for i := range edges {
		n := simple.Node(i)
		if bf.Visited(n) {
			continue
		}
		var group []roadgraph.EdgeID
		bf.Walk(g, n, func(v graph.Node, _ int) bool {
			group = append(group, edges[v.ID()])
			return false
		})
		slices.SortFunc(group, roadgraph.CompareEdgeID)
		groups = append(groups, group)
	}
	return groups
}

