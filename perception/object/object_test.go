package object_test

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tsinghua-fib-lab/agentsociety-perception/perception/kinematics"
	"github.com/tsinghua-fib-lab/agentsociety-perception/perception/object"
	"github.com/tsinghua-fib-lab/agentsociety-perception/utils/errs"
)

func TestDistanceObject(t *testing.T) {
	ahead, err := object.Distance(12)
	require.NoError(t, err)
	assert.Equal(t, object.DistanceID, ahead.ID())
	assert.Equal(t, object.TypeDistance, ahead.ObjectType())
	assert.True(t, ahead.ObjectType().IsDistance())
	assert.Zero(t, ahead.Length())
	assert.True(t, ahead.Kinematics().Overlap().IsAhead())
	assert.Equal(t, 12., ahead.Kinematics().Distance())
	static, err := kinematics.StaticAhead(12)
	require.NoError(t, err)
	same, err := object.NewObject(object.DistanceID, object.TypeDistance, 0, static)
	require.NoError(t, err)
	assert.True(t, ahead == same)

	behind, err := object.Distance(-7)
	require.NoError(t, err)
	assert.True(t, behind.Kinematics().Overlap().IsBehind())
	assert.Equal(t, 7., behind.Kinematics().Distance())

	again, err := object.Distance(12)
	require.NoError(t, err)
	assert.Equal(t, ahead, again)
	assert.NotEqual(t, ahead, behind)

	seen := map[object.Object]int{ahead: 1, behind: 2}
	assert.Equal(t, 1, seen[again])
	assert.Len(t, seen, 2)
}

func TestNewObject(t *testing.T) {
	k, err := kinematics.StaticAhead(3)
	require.NoError(t, err)

	o, err := object.NewObject("stop", object.TypeStopLine, 0, k)
	require.NoError(t, err)
	assert.Equal(t, "stop", o.ID())
	assert.True(t, o.ObjectType().IsStopLine())
	assert.Contains(t, o.String(), "stop")

	for _, c := range []struct {
		name   string
		id     string
		typ    object.ObjectType
		length float64
	}{
		{"empty id", "", object.TypeObject, 1},
		{"unknown type", "x", object.ObjectType(0), 1},
		{"negative length", "x", object.TypeObject, -1},
		{"nan length", "x", object.TypeObject, math.NaN()},
	} {
		t.Run(c.name, func(t *testing.T) {
			_, err := object.NewObject(c.id, c.typ, c.length, k)
			assert.True(t, errors.Is(err, errs.ErrInvalidArgument))
		})
	}
}

func TestObjectType(t *testing.T) {
	types := []object.ObjectType{
		object.TypeGtu, object.TypeTrafficLight, object.TypeObject, object.TypeDistance,
		object.TypeConflict, object.TypeStopLine, object.TypeBusStop,
	}
	names := map[string]bool{}
	for _, typ := range types {
		assert.True(t, typ.IsValid())
		names[typ.String()] = true
		flags := []bool{
			typ.IsGtu(), typ.IsTrafficLight(), typ.IsObject(), typ.IsDistance(),
			typ.IsConflict(), typ.IsStopLine(), typ.IsBusStop(),
		}
		n := 0
		for _, f := range flags {
			if f {
				n++
			}
		}
		assert.Equal(t, 1, n, "%v", typ)
	}
	assert.Len(t, names, len(types))
	assert.Equal(t, "DISTANCEONLY", object.TypeDistance.String())
	assert.False(t, object.ObjectType(0).IsValid())
}

func TestOfLaneObject(t *testing.T) {
	ctx := newWorld(t, crossingConfig())
	stops := ctx.LaneManager().Get(1).Objects()
	require.Len(t, stops, 1)

	k, err := kinematics.StaticAhead(45)
	require.NoError(t, err)
	o, err := object.OfLaneObject(stops[0], k)
	require.NoError(t, err)
	assert.Equal(t, "stop1", o.ID())
	assert.Equal(t, object.TypeStopLine, o.ObjectType())
	assert.Equal(t, k, o.Kinematics())
}
