package container_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tsinghua-fib-lab/agentsociety-perception/utils/container"
	"github.com/tsinghua-fib-lab/agentsociety-perception/utils/randengine"
)

func TestPriorityQueue(t *testing.T) {
	pq := container.NewPriorityQueue[string]()
	assert.Equal(t, 0, pq.Len())
	assert.Panics(t, func() { pq.HeapPop() })
	assert.Panics(t, func() { pq.First() })

	pq.HeapPush("c", 30)
	pq.HeapPush("a", 10)
	pq.HeapPush("d", 40)
	pq.HeapPush("b", 20)
	assert.Equal(t, 4, pq.Len())
	assert.Equal(t, "a", pq.First())

	got := make([]string, 0)
	priorities := make([]float64, 0)
	for pq.Len() > 0 {
		v, p := pq.HeapPop()
		got = append(got, v)
		priorities = append(priorities, p)
	}
	assert.Equal(t, []string{"a", "b", "c", "d"}, got)
	assert.Equal(t, []float64{10, 20, 30, 40}, priorities)
}

func TestPriorityQueueRandom(t *testing.T) {
	engine := randengine.New(7)
	pq := container.NewPriorityQueue[int]()
	for i := 0; i < 200; i++ {
		pq.HeapPush(i, engine.Float64()*100)
	}
	last := -1.
	for pq.Len() > 0 {
		_, p := pq.HeapPop()
		assert.GreaterOrEqual(t, p, last)
		last = p
	}
}
