package randengine_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tsinghua-fib-lab/agentsociety-perception/utils/randengine"
)

func TestReproducible(t *testing.T) {
	a := randengine.New(42)
	b := randengine.New(42)
	for i := 0; i < 10; i++ {
		assert.Equal(t, a.Float64(), b.Float64Safe())
	}
}

func TestTruncNormal(t *testing.T) {
	e := randengine.New(7)
	for i := 0; i < 1000; i++ {
		x := e.TruncNormalSafe(1, .5, .5, 1.5)
		assert.GreaterOrEqual(t, x, .5)
		assert.LessOrEqual(t, x, 1.5)
	}
	assert.Equal(t, 1.5, e.TruncNormal(3, 0, .5, 1.5))
	assert.Equal(t, 1.0, e.TruncNormal(1, 0, .5, 1.5))
}
