package types

import "git.fiblab.net/general/common/v2/geometry"

// Position 对外输出的三维坐标
type Position struct {
	X float64 `json:"x" msgpack:"x"`
	Y float64 `json:"y" msgpack:"y"`
	Z float64 `json:"z" msgpack:"z"`
}

// NewPosition 由几何点构造
func NewPosition(p geometry.Point) Position {
	return Position{X: p.X, Y: p.Y, Z: p.Z}
}

// Point 转换为几何点
func (p Position) Point() geometry.Point {
	return geometry.Point{X: p.X, Y: p.Y, Z: p.Z}
}
