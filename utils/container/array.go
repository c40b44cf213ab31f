package container

import "sync"

// IIncrementalItem 可放入增量数组的元素，元素自己记录在数组中的下标
type IIncrementalItem interface {
	Index() int
	SetIndex(index int)
}

// IncrementalItemBase 嵌入后即实现IIncrementalItem
type IncrementalItemBase struct {
	index int
}

func (b *IncrementalItemBase) Index() int {
	return b.index
}

func (b *IncrementalItemBase) SetIndex(index int) {
	b.index = index
}

// IncrementalArray 增量数组
// 功能：更新阶段并发登记增删，Prepare时统一生效，因此更新阶段遍历Data()得到的始终是本步开始时的元素
// 说明：删除时用末尾元素填补空位，元素顺序不稳定
type IncrementalArray[T IIncrementalItem] struct {
	data   []T
	mtx    sync.Mutex
	add    []T
	remove []T
}

func NewIncrementalArray[T IIncrementalItem]() *IncrementalArray[T] {
	return &IncrementalArray[T]{
		data:   make([]T, 0),
		add:    make([]T, 0),
		remove: make([]T, 0),
	}
}

func (a *IncrementalArray[T]) Len() int {
	return len(a.data)
}

// Data 已生效的元素，调用方不应修改返回的切片
func (a *IncrementalArray[T]) Data() []T {
	return a.data
}

// Add 登记加入（Prepare后生效）
func (a *IncrementalArray[T]) Add(value T) {
	a.mtx.Lock()
	defer a.mtx.Unlock()
	a.add = append(a.add, value)
}

// Remove 登记删除（Prepare后生效）
func (a *IncrementalArray[T]) Remove(value T) {
	a.mtx.Lock()
	defer a.mtx.Unlock()
	a.remove = append(a.remove, value)
}

// Prepare 应用登记的增删
// 算法说明：
// 1. 先追加新元素，使同一步内加入又删除的元素也能正确删除
// 2. 删除时把末尾元素移到被删除元素的位置并更新其下标
// 3. 被删除元素的下标置为-1，重复删除会被发现
func (a *IncrementalArray[T]) Prepare() {
	a.mtx.Lock()
	defer a.mtx.Unlock()
	for _, x := range a.add {
		x.SetIndex(len(a.data))
		a.data = append(a.data, x)
	}
	for _, x := range a.remove {
		i := x.Index()
		if i < 0 || i >= len(a.data) || any(a.data[i]) != any(x) {
			log.Panicf("remove %v which is not in the array (index %d)", x, i)
		}
		last := len(a.data) - 1
		a.data[i] = a.data[last]
		a.data[i].SetIndex(i)
		var zero T
		a.data[last] = zero
		a.data = a.data[:last]
		x.SetIndex(-1)
	}
	a.add = a.add[:0]
	a.remove = a.remove[:0]
}
