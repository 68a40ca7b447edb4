package container

import "container/heap"

// item 优先队列中单个元素
type item[T any] struct {
	Value    T       // 元素的值
	Priority float64 // 优先级（越小越优先）
	seq      uint64  // 入队序号，同优先级按入队顺序出队
	index    int     // 项在堆中的索引，由heap.Interface维护
}

// priorityQueue 实现heap.Interface的最小堆
type priorityQueue[T any] []*item[T]

func (pq priorityQueue[T]) Len() int { return len(pq) }

func (pq priorityQueue[T]) Less(i, j int) bool {
	if pq[i].Priority != pq[j].Priority {
		return pq[i].Priority < pq[j].Priority
	}
	return pq[i].seq < pq[j].seq
}

func (pq priorityQueue[T]) Swap(i, j int) {
	pq[i], pq[j] = pq[j], pq[i]
	pq[i].index = i
	pq[j].index = j
}

func (pq *priorityQueue[T]) Push(x any) {
	it := x.(*item[T])
	it.index = len(*pq)
	*pq = append(*pq, it)
}

func (pq *priorityQueue[T]) Pop() any {
	old := *pq
	n := len(old)
	it := old[n-1]
	old[n-1] = nil
	it.index = -1
	*pq = old[0 : n-1]
	return it
}

// PriorityQueue 稳定优先队列
// 功能：按优先级从小到大出队，优先级相同的元素严格按入队顺序出队
// 说明：事件调度依赖该稳定性保证同一时刻事件的执行顺序可复现
type PriorityQueue[T any] struct {
	queue priorityQueue[T]
	seq   uint64
}

// NewPriorityQueue 创建优先队列
func NewPriorityQueue[T any]() *PriorityQueue[T] {
	return &PriorityQueue[T]{queue: make(priorityQueue[T], 0)}
}

// Len 获取当前队列长度
func (q *PriorityQueue[T]) Len() int {
	return len(q.queue)
}

// First 查看队首元素（不移除），队列为空时panic
func (q *PriorityQueue[T]) First() (value T, priority float64) {
	return q.queue[0].Value, q.queue[0].Priority
}

// Push 加入元素但不维护堆结构，批量加入后需调用Heapify
func (q *PriorityQueue[T]) Push(value T, priority float64) {
	q.queue = append(q.queue, q.newItem(value, priority))
}

// Heapify 重新构建堆
func (q *PriorityQueue[T]) Heapify() {
	heap.Init(&q.queue)
}

// HeapPush 加入元素并维护堆结构
func (q *PriorityQueue[T]) HeapPush(value T, priority float64) {
	heap.Push(&q.queue, q.newItem(value, priority))
}

// HeapPop 弹出优先级最高（数值最小）的元素
func (q *PriorityQueue[T]) HeapPop() (value T, priority float64) {
	it := heap.Pop(&q.queue).(*item[T])
	return it.Value, it.Priority
}

func (q *PriorityQueue[T]) newItem(value T, priority float64) *item[T] {
	q.seq++
	return &item[T]{Value: value, Priority: priority, seq: q.seq}
}
