package container_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tsinghua-fib-lab/agentsociety-perception/utils/container"
)

type car struct {
	id     string
	length float64
}

func (c car) Length() float64 {
	return c.length
}

func node(id string, s float64) *container.ListNode[car] {
	return &container.ListNode[car]{S: s, Value: car{id: id, length: 4.5}}
}

func ids(l *container.List[car]) []string {
	result := make([]string, 0, l.Len())
	for n := l.First(); n != nil; n = n.Next() {
		result = append(result, n.Value.id)
	}
	return result
}

func TestListInit(t *testing.T) {
	l := &container.List[car]{ID: "empty"}
	assert.Nil(t, l.First())
	assert.Nil(t, l.Last())
	assert.Nil(t, l.FirstAtOrAfter(0))
	assert.Nil(t, l.LastAtOrBefore(0))
	assert.Equal(t, 0, l.Len())
	assert.Empty(t, l.Keys())
}

func TestListOperation(t *testing.T) {
	l := &container.List[car]{ID: "lane"}
	n1, n2, n3, n4 := node("a", 1), node("b", 2), node("c", 3), node("d", 4)

	// a
	l.PushBack(n1)
	// b, a
	l.PushFront(n2)
	// c, b, a
	n2.InsertBefore(n3)
	// c, b, a, d
	n1.InsertAfter(n4)
	assert.Equal(t, 4, l.Len())
	assert.Equal(t, []string{"c", "b", "a", "d"}, ids(l))
	assert.Same(t, n3, l.First())
	assert.Same(t, n4, l.Last())
	assert.Same(t, n1, n1.Next().Prev())
	assert.Same(t, n1, n1.Prev().Next())
	assert.Same(t, l, n1.Parent())
	assert.Equal(t, 4.5, n1.L())

	assert.Panics(t, func() { l.PushBack(n1) })
	assert.Panics(t, func() { (&container.List[car]{}).Remove(n1) })

	// 车辆前进后局部逆序：0, 3, 2, 1, 4
	n0 := node("z", 0)
	l.PushFront(n0)
	unsorted := l.PopUnsorted()
	assert.ElementsMatch(t, []*container.ListNode[car]{n2, n1}, unsorted)
	assert.Equal(t, 3, l.Len())
	for _, n := range unsorted {
		assert.Nil(t, n.Parent())
	}

	l.Merge(unsorted)
	assert.Equal(t, []float64{0, 1, 2, 3, 4}, l.Keys())
	assert.Equal(t, []string{"z", "a", "b", "c", "d"}, ids(l))

	l.Remove(n4)
	assert.Same(t, n3, l.Last())
	assert.Equal(t, 4, l.Len())
	l.Remove(n0)
	assert.Same(t, n1, l.First())
	assert.Nil(t, n1.Prev())
}

func TestListMergeTies(t *testing.T) {
	l := &container.List[car]{}
	old := node("old", 10)
	l.PushBack(old)
	l.Merge([]*container.ListNode[car]{node("y", 20), node("x", 10), node("w", 5)})
	// 位置相同时新节点在前
	assert.Equal(t, []string{"w", "x", "old", "y"}, ids(l))
}

func TestListSeek(t *testing.T) {
	l := &container.List[car]{}
	l.Merge([]*container.ListNode[car]{node("a", 10), node("b", 20), node("c", 30)})

	n := l.FirstAtOrAfter(20)
	require.NotNil(t, n)
	assert.Equal(t, "b", n.Value.id)
	assert.Equal(t, "c", l.FirstAtOrAfter(20.5).Value.id)
	assert.Equal(t, "a", l.FirstAtOrAfter(-5).Value.id)
	assert.Nil(t, l.FirstAtOrAfter(31))

	n = l.LastAtOrBefore(20)
	require.NotNil(t, n)
	assert.Equal(t, "b", n.Value.id)
	assert.Equal(t, "a", l.LastAtOrBefore(19.5).Value.id)
	assert.Equal(t, "c", l.LastAtOrBefore(100).Value.id)
	assert.Nil(t, l.LastAtOrBefore(9))
}
