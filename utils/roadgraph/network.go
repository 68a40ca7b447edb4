package roadgraph

import "fmt"

// EdgeID 有向边标识（起点, 终点）
// 说明：平行边在建图时已合并，因此(U, V)唯一确定一条边
type EdgeID struct {
	U int64 `json:"u" yaml:"u" bson:"u"`
	V int64 `json:"v" yaml:"v" bson:"v"`
}

func (e EdgeID) String() string {
	return fmt.Sprintf("%d->%d", e.U, e.V)
}

// Reverse 反向边
func (e EdgeID) Reverse() EdgeID {
	return EdgeID{U: e.V, V: e.U}
}

// NodeData 路网节点（投影坐标，米）
type NodeData struct {
	ID int64   `json:"id" yaml:"id" bson:"id"`
	X  float64 `json:"x" yaml:"x" bson:"x"`
	Y  float64 `json:"y" yaml:"y" bson:"y"`
}

// EdgeData 路网边属性
// 说明：除长度、通行时间与道路等级外均为可选的OSM标签
type EdgeData struct {
	U          int64   `json:"u" yaml:"u" bson:"u"`
	V          int64   `json:"v" yaml:"v" bson:"v"`
	Length     float64 `json:"length" yaml:"length" bson:"length"`                // 米
	TravelTime float64 `json:"travel_time" yaml:"travel_time" bson:"travel_time"` // 自由流通行时间（秒）
	Highway    string  `json:"highway" yaml:"highway" bson:"highway"`             // 道路等级

	Surface      string  `json:"surface,omitempty" yaml:"surface,omitempty" bson:"surface,omitempty"`
	Condition    string  `json:"condition,omitempty" yaml:"condition,omitempty" bson:"condition,omitempty"`
	StartDate    string  `json:"start_date,omitempty" yaml:"start_date,omitempty" bson:"start_date,omitempty"` // 建成年份或日期
	Construction string  `json:"construction,omitempty" yaml:"construction,omitempty" bson:"construction,omitempty"`
	Temporary    bool    `json:"temporary,omitempty" yaml:"temporary,omitempty" bson:"temporary,omitempty"`
	Access       string  `json:"access,omitempty" yaml:"access,omitempty" bson:"access,omitempty"`
	Name         string  `json:"name,omitempty" yaml:"name,omitempty" bson:"name,omitempty"`
	Lanes        int     `json:"lanes,omitempty" yaml:"lanes,omitempty" bson:"lanes,omitempty"`
	Width        float64 `json:"width,omitempty" yaml:"width,omitempty" bson:"width,omitempty"` // 米
}

// ID 边标识
func (e EdgeData) ID() EdgeID {
	return EdgeID{U: e.U, V: e.V}
}

// Network 路网的可序列化表示
type Network struct {
	Nodes []NodeData `json:"nodes" yaml:"nodes" bson:"nodes"`
	Edges []EdgeData `json:"edges" yaml:"edges" bson:"edges"`
}
