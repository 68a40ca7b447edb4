package container

// 元素不在数组中时的索引
const (
	indexPending  = -1 // 已登记添加，尚未生效
	indexDetached = -2 // 已删除或添加被撤销
)

// IIncrementalItem 可放入增量数组的元素，需要记录自己在数组中的位置
type IIncrementalItem interface {
	Index() int
	SetIndex(index int)
}

// IncrementalItemBase 嵌入即可实现IIncrementalItem
type IncrementalItemBase struct {
	index int
}

func (b *IncrementalItemBase) Index() int {
	return b.index
}

func (b *IncrementalItemBase) SetIndex(index int) {
	b.index = index
}

// IncrementalArray 延迟增删的数组
// 功能：Add/Remove只登记，Prepare时统一生效，两次Prepare之间Data()保持不变
// 说明：删除时用末尾元素填补空位，不保持元素顺序；只能在仿真主循环中使用
type IncrementalArray[T IIncrementalItem] struct {
	data   []T
	add    []T
	remove []T
}

// NewIncrementalArray 创建空的增量数组
func NewIncrementalArray[T IIncrementalItem]() *IncrementalArray[T] {
	return &IncrementalArray[T]{}
}

// Len 已生效的元素数
func (a *IncrementalArray[T]) Len() int {
	return len(a.data)
}

// Data 已生效的元素，调用方不得修改
func (a *IncrementalArray[T]) Data() []T {
	return a.data
}

// Pending 尚未生效的添加与删除数
func (a *IncrementalArray[T]) Pending() (int, int) {
	return len(a.add), len(a.remove)
}

// Add 登记添加，Prepare时生效
func (a *IncrementalArray[T]) Add(value T) {
	value.SetIndex(indexPending)
	a.add = append(a.add, value)
}

// Remove 登记删除，Prepare时生效
func (a *IncrementalArray[T]) Remove(value T) {
	a.remove = append(a.remove, value)
}

// Prepare 执行登记的增删
// 算法说明：
// 1. 先删除：已在数组中的元素与末尾元素交换后截断；尚未生效的添加直接撤销
// 2. 再添加：跳过已撤销的元素，其余追加到末尾
// 3. 每次移动都同步更新元素索引
func (a *IncrementalArray[T]) Prepare() {
	for _, x := range a.remove {
		i := x.Index()
		if i >= 0 && i < len(a.data) {
			last := len(a.data) - 1
			if i != last {
				a.data[i] = a.data[last]
				a.data[i].SetIndex(i)
			}
			a.data = a.data[:last]
		}
		x.SetIndex(indexDetached)
	}
	for _, x := range a.add {
		if x.Index() != indexPending {
			continue
		}
		x.SetIndex(len(a.data))
		a.data = append(a.data, x)
	}
	a.add = a.add[:0]
	a.remove = a.remove[:0]
}
