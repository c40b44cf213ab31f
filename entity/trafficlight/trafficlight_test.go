package trafficlight_test

import (
	"testing"

	"git.fiblab.net/general/common/v2/mathutil"
	geov2 "git.fiblab.net/sim/protos/v2/go/city/geo/v2"
	mapv2 "git.fiblab.net/sim/protos/v2/go/city/map/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tsinghua-fib-lab/agentsociety-perception/clock"
	"github.com/tsinghua-fib-lab/agentsociety-perception/entity"
	"github.com/tsinghua-fib-lab/agentsociety-perception/entity/lane"
	"github.com/tsinghua-fib-lab/agentsociety-perception/entity/trafficlight"
	"github.com/tsinghua-fib-lab/agentsociety-perception/utils/config"
	"github.com/tsinghua-fib-lab/agentsociety-perception/utils/errs"
)

const (
	green  = mapv2.LightState_LIGHT_STATE_GREEN
	yellow = mapv2.LightState_LIGHT_STATE_YELLOW
	red    = mapv2.LightState_LIGHT_STATE_RED
)

// program 两个方向的信号灯程序：下标0为本方向，下标1为对向
func program() *mapv2.TrafficLight {
	return &mapv2.TrafficLight{Phases: []*mapv2.Phase{
		{Duration: 30, States: []mapv2.LightState{green, red}},
		{Duration: 3, States: []mapv2.LightState{yellow, red}},
		{Duration: 30, States: []mapv2.LightState{red, green}},
		{Duration: 3, States: []mapv2.LightState{red, yellow}},
	}}
}

func newLane(t *testing.T) *lane.Lane {
	t.Helper()
	m := lane.NewManager()
	require.NoError(t, m.Init([]*mapv2.Lane{{
		Id: 1, Width: 3.5, MaxSpeed: 15,
		CenterLine: &geov2.Polyline{Nodes: []*geov2.XYPosition{{X: 0}, {X: 100}}},
	}}))
	return m.Get(1)
}

func TestStateAt(t *testing.T) {
	clk := clock.New(config.ControlStep{Start: 0, Total: 1000, Interval: 1})
	l := newLane(t)
	light, err := trafficlight.New(clk, "tl", l, 90, program(), 0, 0, false)
	require.NoError(t, err)
	assert.Equal(t, entity.TrafficLightObject, light.Kind())
	assert.Equal(t, 0., light.Length())
	assert.Equal(t, []entity.ILaneBasedObject{light}, l.Objects())

	cases := []struct {
		t         float64
		state     mapv2.LightState
		remaining float64
	}{
		{0, green, 30},
		{29, green, 1},
		{31, yellow, 2},
		{40, red, 26},
		// 红灯跨越最后两个相位
		{64, red, 2},
		{66, green, 30},
		{-1, red, 1},
	}
	for _, c := range cases {
		state, remaining := light.StateAt(c.t)
		assert.Equal(t, c.state, state, "t=%v", c.t)
		assert.InDelta(t, c.remaining, remaining, 1e-9, "t=%v", c.t)
	}
	assert.Equal(t, green, light.LightState())
	assert.Equal(t, red, light.LightStateAt(100))
}

func TestOffsetAndOpposite(t *testing.T) {
	clk := clock.New(config.ControlStep{Start: 0, Total: 1000, Interval: 1})
	l := newLane(t)
	shifted, err := trafficlight.New(clk, "a", l, 50, program(), 0, 33, false)
	require.NoError(t, err)
	opposite, err := trafficlight.New(clk, "b", l, 60, program(), 1, 0, true)
	require.NoError(t, err)
	assert.True(t, opposite.TurnOnRed())
	for _, tt := range []float64{0, 10, 40, 65} {
		assert.Equal(t, shifted.LightStateAt(tt), opposite.LightStateAt(tt), "t=%v", tt)
	}
}

func TestSetAndUnset(t *testing.T) {
	clk := clock.New(config.ControlStep{Start: 0, Total: 1000, Interval: 1})
	l := newLane(t)
	light, err := trafficlight.New(clk, "tl", l, 90, program(), 0, 0, false)
	require.NoError(t, err)

	light.Unset()
	state, remaining := light.StateAt(40)
	assert.Equal(t, green, state)
	assert.Equal(t, mathutil.INF, remaining)

	allRed := &mapv2.TrafficLight{Phases: []*mapv2.Phase{{Duration: 10, States: []mapv2.LightState{red}}}}
	require.NoError(t, light.Set(allRed))
	state, remaining = light.StateAt(3)
	assert.Equal(t, red, state)
	assert.Equal(t, mathutil.INF, remaining)

	bad := map[string]*mapv2.TrafficLight{
		"nil":           nil,
		"no phases":     {},
		"missing index": {Phases: []*mapv2.Phase{{Duration: 10}}},
		"negative":      {Phases: []*mapv2.Phase{{Duration: -1, States: []mapv2.LightState{red}}}},
		"zero cycle":    {Phases: []*mapv2.Phase{{Duration: 0, States: []mapv2.LightState{red}}}},
	}
	for name, tl := range bad {
		t.Run(name, func(t *testing.T) {
			assert.ErrorIs(t, light.Set(tl), errs.ErrInvalidArgument)
		})
	}
	_, err = trafficlight.New(clk, "far", l, 120, program(), 0, 0, false)
	assert.ErrorIs(t, err, errs.ErrInvalidArgument)
}
