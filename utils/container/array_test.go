package container_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tsinghua-fib-lab/agentsociety-perception/utils/container"
)

type entry struct {
	container.IncrementalItemBase
	id string
}

func entryIDs(a *container.IncrementalArray[*entry]) []string {
	result := make([]string, 0, a.Len())
	for i, e := range a.Data() {
		if e.Index() != i {
			panic("index out of sync")
		}
		result = append(result, e.id)
	}
	return result
}

func TestIncrementalArray(t *testing.T) {
	a := container.NewIncrementalArray[*entry]()
	x, y, z := &entry{id: "x"}, &entry{id: "y"}, &entry{id: "z"}
	a.Add(x)
	a.Add(y)
	a.Add(z)
	assert.Equal(t, 0, a.Len())
	a.Prepare()
	assert.Equal(t, []string{"x", "y", "z"}, entryIDs(a))

	// 末尾元素填补空位
	a.Remove(x)
	assert.Equal(t, 3, a.Len())
	a.Prepare()
	assert.Equal(t, []string{"z", "y"}, entryIDs(a))
	assert.Equal(t, -1, x.Index())

	// 同一步内加入又删除
	w := &entry{id: "w"}
	a.Add(w)
	a.Remove(w)
	a.Remove(y)
	a.Prepare()
	assert.Equal(t, []string{"z"}, entryIDs(a))

	a.Remove(y)
	assert.Panics(t, a.Prepare)
}
