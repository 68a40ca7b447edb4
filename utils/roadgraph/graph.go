// 路网图适配层：在gonum有向带权图之上提供节点/边属性查询、最短路与随机起终点
package roadgraph

import (
	"cmp"
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"gonum.org/v1/gonum/graph/path"
	"gonum.org/v1/gonum/graph/simple"
)

var (
	// ErrNoPath 起终点之间不可达
	ErrNoPath = errors.New("roadgraph: no path")
	// ErrNodeNotFound 节点不存在
	ErrNodeNotFound = errors.New("roadgraph: node not found")
)

const (
	// DefaultTravelTime 缺少通行时间的边使用的默认值（秒）
	DefaultTravelTime = 4.0
	// tieBreak 按边序号叠加的微小权重，使等长路径的选择与遍历顺序无关
	tieBreak = 1e-9
)

// Graph 只读路网
// 功能：封装gonum有向带权图，保存节点坐标与边属性；权重为通行时间
// 说明：创建后不再修改；派生状态（路况、封闭等）由各管理器以EdgeID为键另行保存
type Graph struct {
	g       *simple.WeightedDirectedGraph
	nodes   map[int64]NodeData
	edges   map[EdgeID]EdgeData
	nodeIDs []int64  // 升序
	edgeIDs []EdgeID // 按(U, V)升序
}

// New 由路网数据建图
// 功能：校验并构建路网图
// 参数：n-路网数据
// 返回：路网图；节点重复或边引用不存在的节点时返回error
// 算法说明：
// 1. 平行边只保留通行时间最小的一条
// 2. 通行时间缺失（非正）的边使用DefaultTravelTime
// 3. 自环不参与路径搜索
func New(n Network) (*Graph, error) {
	g := &Graph{
		g:     simple.NewWeightedDirectedGraph(0, math.Inf(1)),
		nodes: make(map[int64]NodeData, len(n.Nodes)),
		edges: make(map[EdgeID]EdgeData, len(n.Edges)),
	}
	for _, nd := range n.Nodes {
		if _, ok := g.nodes[nd.ID]; ok {
			return nil, fmt.Errorf("duplicate node %d", nd.ID)
		}
		g.nodes[nd.ID] = nd
	}
	for _, e := range n.Edges {
		if _, ok := g.nodes[e.U]; !ok {
			return nil, fmt.Errorf("edge %v: %w: %d", e.ID(), ErrNodeNotFound, e.U)
		}
		if _, ok := g.nodes[e.V]; !ok {
			return nil, fmt.Errorf("edge %v: %w: %d", e.ID(), ErrNodeNotFound, e.V)
		}
		if e.TravelTime <= 0 {
			e.TravelTime = DefaultTravelTime
		}
		if old, ok := g.edges[e.ID()]; ok && old.TravelTime <= e.TravelTime {
			continue
		}
		g.edges[e.ID()] = e
	}
	g.build()
	return g, nil
}

func (g *Graph) build() {
	g.nodeIDs = make([]int64, 0, len(g.nodes))
	for id := range g.nodes {
		g.nodeIDs = append(g.nodeIDs, id)
	}
	slices.Sort(g.nodeIDs)
	for _, id := range g.nodeIDs {
		g.g.AddNode(simple.Node(id))
	}
	g.edgeIDs = make([]EdgeID, 0, len(g.edges))
	for id := range g.edges {
		g.edgeIDs = append(g.edgeIDs, id)
	}
	slices.SortFunc(g.edgeIDs, CompareEdgeID)
	for rank, id := range g.edgeIDs {
		if id.U == id.V {
			continue
		}
		w := g.edges[id].TravelTime + float64(rank)*tieBreak
		g.g.SetWeightedEdge(g.g.NewWeightedEdge(simple.Node(id.U), simple.Node(id.V), w))
	}
}

// CompareEdgeID 边ID的全序，先比较起点再比较终点
func CompareEdgeID(a, b EdgeID) int {
	return cmp.Or(cmp.Compare(a.U, b.U), cmp.Compare(a.V, b.V))
}

// Without 去掉指定边后的路网副本
// 说明：用于绕行计算；原图不受影响
func (g *Graph) Without(blocked map[EdgeID]bool) *Graph {
	ng := &Graph{
		g:     simple.NewWeightedDirectedGraph(0, math.Inf(1)),
		nodes: g.nodes,
		edges: make(map[EdgeID]EdgeData, len(g.edges)),
	}
	for id, e := range g.edges {
		if !blocked[id] {
			ng.edges[id] = e
		}
	}
	ng.build()
	return ng
}

// NumNodes 节点数
func (g *Graph) NumNodes() int { return len(g.nodeIDs) }

// NumEdges 边数
func (g *Graph) NumEdges() int { return len(g.edgeIDs) }

// Nodes 全部节点ID（升序，调用方不得修改）
func (g *Graph) Nodes() []int64 { return g.nodeIDs }

// Edges 全部边ID（升序，调用方不得修改）
func (g *Graph) Edges() []EdgeID { return g.edgeIDs }

// Node 查询节点
func (g *Graph) Node(id int64) (NodeData, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// Edge 查询边
func (g *Graph) Edge(id EdgeID) (EdgeData, bool) {
	e, ok := g.edges[id]
	return e, ok
}

// HasEdge 边是否存在
func (g *Graph) HasEdge(id EdgeID) bool {
	_, ok := g.edges[id]
	return ok
}

// Point 节点坐标，节点不存在时返回原点
func (g *Graph) Point(id int64) orb.Point {
	n := g.nodes[id]
	return orb.Point{n.X, n.Y}
}

// Midpoint 边的中点
func (g *Graph) Midpoint(id EdgeID) orb.Point {
	a, b := g.Point(id.U), g.Point(id.V)
	return orb.Point{(a[0] + b[0]) / 2, (a[1] + b[1]) / 2}
}

// Bound 路网包围盒
func (g *Graph) Bound() orb.Bound {
	mp := make(orb.MultiPoint, 0, len(g.nodeIDs))
	for _, id := range g.nodeIDs {
		mp = append(mp, g.Point(id))
	}
	return mp.Bound()
}

// EdgesNear 中点落在p周围radius米内的边
// 参数：limit-最多返回的边数，非正表示不限
// 返回：按边ID顺序的结果
func (g *Graph) EdgesNear(p orb.Point, radius float64, limit int) []EdgeID {
	res := make([]EdgeID, 0)
	for _, id := range g.edgeIDs {
		if limit > 0 && len(res) >= limit {
			break
		}
		if planar.Distance(p, g.Midpoint(id)) <= radius {
			res = append(res, id)
		}
	}
	return res
}

// ShortestPath 按通行时间的最短路
// 返回：节点序列与总通行时间；起点或终点不存在返回ErrNodeNotFound，不可达返回ErrNoPath
func (g *Graph) ShortestPath(o, d int64) ([]int64, float64, error) {
	if _, ok := g.nodes[o]; !ok {
		return nil, 0, fmt.Errorf("%w: %d", ErrNodeNotFound, o)
	}
	if _, ok := g.nodes[d]; !ok {
		return nil, 0, fmt.Errorf("%w: %d", ErrNodeNotFound, d)
	}
	if o == d {
		return []int64{o}, 0, nil
	}
	nodes, w := path.DijkstraFrom(g.g.Node(o), g.g).To(d)
	if len(nodes) == 0 || math.IsInf(w, 1) {
		return nil, 0, fmt.Errorf("%w: %d->%d", ErrNoPath, o, d)
	}
	res := make([]int64, len(nodes))
	for i, n := range nodes {
		res[i] = n.ID()
	}
	return res, g.PathTravelTime(res), nil
}

// PathTravelTime 路径总通行时间，不存在的边按DefaultTravelTime计
func (g *Graph) PathTravelTime(p []int64) float64 {
	total := 0.
	for _, e := range PathEdges(p) {
		if ed, ok := g.edges[e]; ok {
			total += ed.TravelTime
		} else {
			total += DefaultTravelTime
		}
	}
	return total
}

// PathEdges 节点序列转为边序列
func PathEdges(p []int64) []EdgeID {
	if len(p) < 2 {
		return nil
	}
	res := make([]EdgeID, len(p)-1)
	for i := range res {
		res[i] = EdgeID{U: p[i], V: p[i+1]}
	}
	return res
}
