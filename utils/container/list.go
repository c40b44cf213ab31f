package container

import (
	"cmp"
	"fmt"
	"slices"
)

// IHasLength 链表元素需要提供自身长度，用于由车头位置换算车尾位置
type IHasLength interface {
	Length() float64
}

// ListNode 有序双向链表中的节点
// 说明：S为车头在车道上的位置，链表按S升序；S只在Prepare阶段之外修改，修改后由PopUnsorted与Merge恢复有序
type ListNode[T IHasLength] struct {
	parent     *List[T]
	prev, next *ListNode[T]
	S          float64
	Value      T
}

func (n *ListNode[T]) String() string {
	return fmt.Sprintf("Node{S:%v, Value:%v}", n.S, n.Value)
}

// Prev 位置更小的相邻节点，没有时为nil
func (n *ListNode[T]) Prev() *ListNode[T] {
	return n.prev
}

// Next 位置更大的相邻节点，没有时为nil
func (n *ListNode[T]) Next() *ListNode[T] {
	return n.next
}

// Parent 节点所在的链表，不在链表中时为nil
func (n *ListNode[T]) Parent() *List[T] {
	return n.parent
}

// L 元素长度
func (n *ListNode[T]) L() float64 {
	return n.Value.Length()
}

// InsertBefore 在节点前插入新节点
// 说明：调用方负责保证插入后仍然有序
func (n *ListNode[T]) InsertBefore(add *ListNode[T]) {
	if add.parent != nil {
		log.Panicf("insert node %v which is already in %v", add, add.parent)
	}
	add.parent = n.parent
	add.next = n
	add.prev = n.prev
	n.prev = add
	if add.prev != nil {
		add.prev.next = add
	} else {
		add.parent.head = add
	}
	n.parent.length++
}

// InsertAfter 在节点后插入新节点
// 说明：调用方负责保证插入后仍然有序
func (n *ListNode[T]) InsertAfter(add *ListNode[T]) {
	if add.parent != nil {
		log.Panicf("insert node %v which is already in %v", add, add.parent)
	}
	add.parent = n.parent
	add.prev = n
	add.next = n.next
	n.next = add
	if add.next != nil {
		add.next.prev = add
	} else {
		add.parent.tail = add
	}
	n.parent.length++
}

// List 按位置升序排列的双向链表
// 功能：保存一条车道上的车辆，支持从任意位置向上游或下游扫描
type List[T IHasLength] struct {
	ID         string
	head, tail *ListNode[T]
	length     int
}

func (l *List[T]) String() string {
	return fmt.Sprintf("List{ID:%v}", l.ID)
}

// Keys 所有节点的位置，按链表顺序
func (l *List[T]) Keys() []float64 {
	keys := make([]float64, 0, l.length)
	for node := l.head; node != nil; node = node.next {
		keys = append(keys, node.S)
	}
	return keys
}

func (l *List[T]) Len() int {
	return l.length
}

// PushFront 插入到链表头部
func (l *List[T]) PushFront(add *ListNode[T]) {
	if l.head == nil {
		l.pushEmpty(add)
		return
	}
	l.head.InsertBefore(add)
}

// PushBack 插入到链表尾部
func (l *List[T]) PushBack(add *ListNode[T]) {
	if l.tail == nil {
		l.pushEmpty(add)
		return
	}
	l.tail.InsertAfter(add)
}

func (l *List[T]) pushEmpty(add *ListNode[T]) {
	if add.parent != nil {
		log.Panicf("insert node %v which is already in %v", add, add.parent)
	}
	add.parent = l
	add.prev, add.next = nil, nil
	l.head, l.tail = add, add
	l.length = 1
}

// Remove 从链表中移除节点
func (l *List[T]) Remove(node *ListNode[T]) {
	if node.parent != l {
		log.Panicf("remove node %v from wrong list %v (parent=%v)", node, l, node.parent)
	}
	if node.prev != nil {
		node.prev.next = node.next
	} else {
		l.head = node.next
	}
	if node.next != nil {
		node.next.prev = node.prev
	} else {
		l.tail = node.prev
	}
	node.prev, node.next, node.parent = nil, nil, nil
	l.length--
}

// First 位置最小的节点，链表为空时为nil
func (l *List[T]) First() *ListNode[T] {
	return l.head
}

// Last 位置最大的节点，链表为空时为nil
func (l *List[T]) Last() *ListNode[T] {
	return l.tail
}

// FirstAtOrAfter 第一个位置不小于s的节点，沿Next向下游扫描的起点
func (l *List[T]) FirstAtOrAfter(s float64) *ListNode[T] {
	node := l.head
	for node != nil && node.S < s {
		node = node.next
	}
	return node
}

// LastAtOrBefore 最后一个位置不大于s的节点，沿Prev向上游扫描的起点
func (l *List[T]) LastAtOrBefore(s float64) *ListNode[T] {
	node := l.tail
	for node != nil && node.S > s {
		node = node.prev
	}
	return node
}

// PopUnsorted 移除位置小于前驱的节点
// 说明：车辆在同一车道上前进后链表可能局部逆序，移除的节点随后由Merge重新插入
func (l *List[T]) PopUnsorted() (unsorted []*ListNode[T]) {
	for node := l.head; node != nil; {
		next := node.next
		if node.prev != nil && node.prev.S > node.S {
			l.Remove(node)
			unsorted = append(unsorted, node)
		}
		node = next
	}
	return unsorted
}

// Merge 批量插入节点并保持有序
// 算法说明：
// 1. 按位置稳定排序待插入节点
// 2. 与链表做一次归并，位置相同时新节点排在已有节点之前
func (l *List[T]) Merge(adds []*ListNode[T]) {
	slices.SortStableFunc(adds, func(a, b *ListNode[T]) int {
		return cmp.Compare(a.S, b.S)
	})
	node := l.head
	for _, add := range adds {
		for node != nil && node.S < add.S {
			node = node.next
		}
		if node != nil {
			node.InsertBefore(add)
		} else {
			l.PushBack(add)
		}
	}
}
