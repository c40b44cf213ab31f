package parameter_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tsinghua-fib-lab/agentsociety-perception/model/parameter"
	"github.com/tsinghua-fib-lab/agentsociety-perception/utils/errs"
)

func TestSetRange(t *testing.T) {
	p := parameter.NewSet()
	assert.NoError(t, p.Set(parameter.DLEFT, -0.5))
	assert.True(t, errors.Is(p.Set(parameter.DLEFT, 1.5), errs.ErrInvalidArgument))
	assert.True(t, errors.Is(p.Set(parameter.SOCIO, -0.1), errs.ErrInvalidArgument))

	v, err := p.Get(parameter.DLEFT)
	require.NoError(t, err)
	assert.Equal(t, -0.5, v)

	_, err = p.Get(parameter.DRIGHT)
	assert.True(t, errors.Is(err, parameter.ErrMissing))
	_, ok := p.GetOptional(parameter.DRIGHT)
	assert.False(t, ok)
}

func TestCopyIsDetached(t *testing.T) {
	p := parameter.NewSet()
	require.NoError(t, p.Set(parameter.T, 1.2))
	c := p.Copy()
	require.NoError(t, p.Set(parameter.T, 2))
	require.NoError(t, p.Set(parameter.S0, 3))

	v, err := c.Get(parameter.T)
	require.NoError(t, err)
	assert.Equal(t, 1.2, v)
	assert.False(t, c.Contains(parameter.S0))
	assert.Equal(t, 1, c.Len())
}

func TestFromMap(t *testing.T) {
	p, err := parameter.FromMap(map[string]float64{"a": 1.25, "socio": 0.5})
	require.NoError(t, err)
	assert.Equal(t, 2, p.Len())

	_, err = parameter.FromMap(map[string]float64{"unknown": 1})
	assert.True(t, errors.Is(err, errs.ErrInvalidArgument))

	_, err = parameter.FromMap(map[string]float64{"socio": 2})
	assert.True(t, errors.Is(err, errs.ErrInvalidArgument))
}
