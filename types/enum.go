// 枚举类型的名称表，序列化时统一使用大写名称
package types

import "fmt"

// nameTable 枚举值与名称的双向映射
type nameTable[T ~int32] struct {
	kind   string
	names  map[T]string
	values map[string]T
}

func newNameTable[T ~int32](kind string, names map[T]string) nameTable[T] {
	values := make(map[string]T, len(names))
	for v, n := range names {
		values[n] = v
	}
	return nameTable[T]{kind: kind, names: names, values: values}
}

func (t nameTable[T]) name(v T) string {
	if n, ok := t.names[v]; ok {
		return n
	}
	return fmt.Sprintf("%s(%d)", t.kind, int32(v))
}

func (t nameTable[T]) parse(s string) (T, error) {
	if v, ok := t.values[s]; ok {
		return v, nil
	}
	return 0, fmt.Errorf("unknown %s %q", t.kind, s)
}
