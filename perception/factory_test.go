package perception_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tsinghua-fib-lab/agentsociety-perception/entity"
	"github.com/tsinghua-fib-lab/agentsociety-perception/entity/vehicle"
	"github.com/tsinghua-fib-lab/agentsociety-perception/model/assumption"
	"github.com/tsinghua-fib-lab/agentsociety-perception/perception"
	"github.com/tsinghua-fib-lab/agentsociety-perception/perception/object"
	"github.com/tsinghua-fib-lab/agentsociety-perception/utils/errs"
	"github.com/tsinghua-fib-lab/agentsociety-perception/utils/randengine"
)

var (
	ahead  = object.Relation{Ahead: true, Distance: 20, ReferenceLength: 4.5, FacingSameDirection: true}
	behind = object.Relation{Ahead: false, Distance: 20, ReferenceLength: 4.5, FacingSameDirection: true}
)

func TestPerfect(t *testing.T) {
	ctx := newWorld(t, corridorConfig())
	a := getVehicle(t, ctx, "a")
	f := perception.Perfect{}
	assert.False(t, f.Decoupled())
	assert.Equal(t, 3., f.Time(3))
	g, err := f.Perceive(a, ahead)
	require.NoError(t, err)
	assert.Equal(t, 20., g.Kinematics().Distance())
	assert.Equal(t, 10., g.Kinematics().Speed())
}

func TestDelayed(t *testing.T) {
	ctx := newWorld(t, corridorConfig())
	lane11 := ctx.LaneManager().Get(11)
	advance(t, ctx, map[string]vehicle.State{
		"a": {Lane: lane11, S: 62, V: 14, A: 4, Indicator: entity.IndicatorLeft},
	})
	a := getVehicle(t, ctx, "a")
	f := perception.Delayed{Delay: 1}
	assert.True(t, f.Decoupled())
	assert.Equal(t, 0., f.Time(ctx.Clock().Now()))

	// 一秒前a位于50，前方车辆感知到的距离更近
	g, err := f.Perceive(a, ahead)
	require.NoError(t, err)
	assert.InDelta(t, 8, g.Kinematics().Distance(), 1e-9)
	assert.Equal(t, 10., g.Kinematics().Speed())
	assert.Zero(t, g.Kinematics().Acceleration())
	assert.Equal(t, entity.IndicatorNone, g.Signals().TurnIndicatorStatus())

	g, err = f.Perceive(a, behind)
	require.NoError(t, err)
	assert.InDelta(t, 32, g.Kinematics().Distance(), 1e-9)

	// 延迟修正不超过两车总长
	g, err = f.Perceive(a, object.Relation{Ahead: true, Distance: 1, ReferenceLength: 4.5, FacingSameDirection: true})
	require.NoError(t, err)
	assert.InDelta(t, -9, g.Kinematics().Distance(), 1e-9)
	assert.True(t, g.Kinematics().Overlap().IsParallel())
}

func TestDelayedAcrossLanes(t *testing.T) {
	ctx := newWorld(t, corridorConfig())
	advance(t, ctx, map[string]vehicle.State{
		"a": {Lane: ctx.LaneManager().Get(12), S: 5, V: 12, Indicator: entity.IndicatorNone},
	})
	a := getVehicle(t, ctx, "a")
	g, err := perception.Delayed{Delay: 1}.Perceive(a, ahead)
	require.NoError(t, err)
	// 跨车道时按平均速度估计行驶距离 (10+12)/2*1
	assert.InDelta(t, 9, g.Kinematics().Distance(), 1e-9)
}

func TestAssumed(t *testing.T) {
	c := corridorConfig()
	ctx := newWorld(t, c)
	a, err := assumption.FromConfig(c.Assumptions)
	require.NoError(t, err)
	f := &perception.Assumed{Assumptions: a}
	assert.True(t, f.Decoupled())

	g, err := f.Perceive(getVehicle(t, ctx, "a"), ahead)
	require.NoError(t, err)
	assert.Equal(t, 20., g.Kinematics().Distance())
	v0, err := g.Behavior().DesiredSpeed()
	require.NoError(t, err)
	assert.Equal(t, 12., v0)

	truck := vehicleConfig("truck", 10, 20, 5)
	truck.GtuType = "truck"
	c.Scenario.Vehicles = append(c.Scenario.Vehicles, truck)
	ctx = newWorld(t, c)
	_, err = f.Perceive(getVehicle(t, ctx, "truck"), ahead)
	assert.True(t, errors.Is(err, errs.ErrInvalidArgument))
}

func TestEstimated(t *testing.T) {
	for _, c := range []struct {
		estimation perception.Estimation
		std        float64
		factor     float64
	}{
		{perception.EstimationNone, 0.3, 1},
		{perception.EstimationUnder, 0.2, 0.8},
		{perception.EstimationUnder, 0, 0.9},
		{perception.EstimationUnder, 0.9, 0.5},
		{perception.EstimationOver, 0.2, 1.2},
		{perception.EstimationOver, 0.8, 1.5},
	} {
		e, err := perception.NewEstimated(c.estimation, c.std, nil)
		require.NoError(t, err)
		assert.InDelta(t, c.factor, e.Factor, 1e-12, "%v %v", c.estimation, c.std)
	}

	_, err := perception.NewEstimated(perception.EstimationFactor, 0.1, nil)
	assert.True(t, errors.Is(err, errs.ErrInvalidArgument))
	_, err = perception.NewEstimated("guess", 0.1, nil)
	assert.True(t, errors.Is(err, errs.ErrInvalidArgument))

	e1, err := perception.NewEstimated(perception.EstimationFactor, 0.2, randengine.New(42))
	require.NoError(t, err)
	e2, err := perception.NewEstimated(perception.EstimationFactor, 0.2, randengine.New(42))
	require.NoError(t, err)
	assert.Equal(t, e1.Factor, e2.Factor)
	assert.GreaterOrEqual(t, e1.Factor, 0.5)
	assert.LessOrEqual(t, e1.Factor, 1.5)
}

func TestEstimatedPerceive(t *testing.T) {
	ctx := newWorld(t, corridorConfig())
	a := getVehicle(t, ctx, "a")
	e, err := perception.NewEstimated(perception.EstimationUnder, 0.2, nil)
	require.NoError(t, err)
	assert.True(t, e.Decoupled())
	g, err := e.Perceive(a, ahead)
	require.NoError(t, err)
	assert.InDelta(t, 16, g.Kinematics().Distance(), 1e-9)
	assert.InDelta(t, 8, g.Kinematics().Speed(), 1e-9)

	// 已重叠的距离不缩放
	g, err = e.Perceive(a, object.Relation{Ahead: true, Distance: -2, ReferenceLength: 4.5, FacingSameDirection: true})
	require.NoError(t, err)
	assert.Equal(t, -2., g.Kinematics().Distance())
}
