package container

import "container/heap"

type item[T any] struct {
	value    T
	priority float64
}

// itemHeap 以priority为键的最小堆，实现heap.Interface
type itemHeap[T any] []item[T]

func (h itemHeap[T]) Len() int           { return len(h) }
func (h itemHeap[T]) Less(i, j int) bool { return h[i].priority < h[j].priority }
func (h itemHeap[T]) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }

func (h *itemHeap[T]) Push(x any) {
	*h = append(*h, x.(item[T]))
}

func (h *itemHeap[T]) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	old[n-1] = item[T]{}
	*h = old[:n-1]
	return x
}

// PriorityQueue 最小优先队列
// 功能：路网搜索按距离由近到远展开车道，priority为车道最近点到搜索起点的距离
type PriorityQueue[T any] struct {
	h itemHeap[T]
}

func NewPriorityQueue[T any]() *PriorityQueue[T] {
	return &PriorityQueue[T]{h: make(itemHeap[T], 0)}
}

func (q *PriorityQueue[T]) Len() int {
	return q.h.Len()
}

// First 优先级数值最小的元素（不弹出），队列为空时panic
func (q *PriorityQueue[T]) First() T {
	if q.h.Len() == 0 {
		log.Panic("first of empty priority queue")
	}
	return q.h[0].value
}

// HeapPush 加入元素
func (q *PriorityQueue[T]) HeapPush(value T, priority float64) {
	heap.Push(&q.h, item[T]{value: value, priority: priority})
}

// HeapPop 弹出优先级数值最小的元素，队列为空时panic
func (q *PriorityQueue[T]) HeapPop() (value T, priority float64) {
	if q.h.Len() == 0 {
		log.Panic("pop from empty priority queue")
	}
	x := heap.Pop(&q.h).(item[T])
	return x.value, x.priority
}
