package vehicle_test

import (
	"testing"

	geov2 "git.fiblab.net/sim/protos/v2/go/city/geo/v2"
	mapv2 "git.fiblab.net/sim/protos/v2/go/city/map/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tsinghua-fib-lab/agentsociety-perception/clock"
	"github.com/tsinghua-fib-lab/agentsociety-perception/entity"
	"github.com/tsinghua-fib-lab/agentsociety-perception/entity/lane"
	"github.com/tsinghua-fib-lab/agentsociety-perception/entity/vehicle"
	"github.com/tsinghua-fib-lab/agentsociety-perception/model/following"
	"github.com/tsinghua-fib-lab/agentsociety-perception/utils/config"
	"github.com/tsinghua-fib-lab/agentsociety-perception/utils/errs"
)

// world 两条首尾相接的100米车道
func world(t *testing.T) (*clock.Clock, *lane.Manager, *vehicle.Manager) {
	t.Helper()
	line := func(x0, x1 float64) *geov2.Polyline {
		return &geov2.Polyline{Nodes: []*geov2.XYPosition{{X: x0}, {X: x1}}}
	}
	lm := lane.NewManager()
	require.NoError(t, lm.Init([]*mapv2.Lane{
		{Id: 1, Width: 3.5, MaxSpeed: 15, CenterLine: line(0, 100)},
		{Id: 2, Width: 3.5, MaxSpeed: 15, CenterLine: line(100, 200), Predecessors: []*mapv2.LaneConnection{{Id: 1}}},
	}))
	clk := clock.New(config.ControlStep{Start: 0, Total: 100, Interval: 1})
	return clk, lm, vehicle.NewManager(clk)
}

func base(id string) vehicle.Base {
	return vehicle.Base{ID: id, GtuType: "car", Length: 4.5, Width: 2, MaxSpeed: 30, Model: following.IDM{}}
}

func TestNewErrors(t *testing.T) {
	clk, _, _ := world(t)
	cases := map[string]func(b *vehicle.Base){
		"empty id":     func(b *vehicle.Base) { b.ID = "" },
		"zero length":  func(b *vehicle.Base) { b.Length = 0 },
		"zero width":   func(b *vehicle.Base) { b.Width = 0 },
		"no following": func(b *vehicle.Base) { b.Model = nil },
	}
	for name, modify := range cases {
		t.Run(name, func(t *testing.T) {
			b := base("v")
			modify(&b)
			_, err := vehicle.New(b, clk)
			assert.ErrorIs(t, err, errs.ErrInvalidArgument)
		})
	}
	v, err := vehicle.New(base("v"), clk)
	require.NoError(t, err)
	assert.NotNil(t, v.Parameters())
	_, ok := v.Route()
	assert.False(t, ok)
}

func TestRecordValidation(t *testing.T) {
	clk, lm, _ := world(t)
	v, err := vehicle.New(base("v"), clk)
	require.NoError(t, err)
	l := lm.Get(1)
	ok := vehicle.State{Lane: l, S: 10, V: 5, Indicator: entity.IndicatorNone}

	bad := map[string]func(st *vehicle.State){
		"no lane":           func(st *vehicle.State) { st.Lane = nil },
		"negative s":        func(st *vehicle.State) { st.S = -1 },
		"past lane end":     func(st *vehicle.State) { st.S = 101 },
		"unknown indicator": func(st *vehicle.State) { st.Indicator = entity.IndicatorUnknown },
	}
	for name, modify := range bad {
		t.Run(name, func(t *testing.T) {
			st := ok
			modify(&st)
			assert.ErrorIs(t, v.Record(st), errs.ErrInvalidArgument)
		})
	}
	require.NoError(t, v.Record(ok))
}

func TestHistory(t *testing.T) {
	clk, lm, vm := world(t)
	l1, l2 := lm.Get(1), lm.Get(2)
	v, err := vm.Add(base("v"), vehicle.State{Lane: l1, S: 90, V: 10, Indicator: entity.IndicatorNone})
	require.NoError(t, err)
	lm.Prepare()
	vm.Prepare()
	require.Len(t, vm.Vehicles(), 1)
	assert.Equal(t, v, l1.Vehicles().First().Value)
	oldNode := v.Node()

	clk.Next()
	require.NoError(t, v.Record(vehicle.State{
		Lane: l2, S: 3, V: 12, A: 2, Indicator: entity.IndicatorLeft, Braking: true,
		LaneChange: entity.LatLeft, Deviation: 0.5,
	}))
	lm.Prepare()

	// 换道使用新节点
	assert.NotSame(t, oldNode, v.Node())
	assert.Nil(t, l1.Vehicles().First())
	assert.Equal(t, v, l2.Vehicles().First().Value)

	assert.Equal(t, entity.ILane(l2), v.Lane())
	assert.Equal(t, 3., v.S())
	assert.Equal(t, 12., v.V())
	lane, s := v.PositionAt(0)
	assert.Equal(t, entity.ILane(l1), lane)
	assert.Equal(t, 90., s)
	assert.Equal(t, 10., v.SpeedAt(0.5))
	assert.Equal(t, 2., v.AccelerationAt(1))
	assert.Equal(t, entity.IndicatorLeft, v.TurnIndicatorAt(1))
	assert.Equal(t, entity.IndicatorNone, v.TurnIndicatorAt(0))
	assert.True(t, v.BrakingLightsAt(1))
	assert.Equal(t, entity.LatLeft, v.LaneChangeDirectionAt(1))
	assert.Equal(t, 0.5, v.DeviationAt(1))
	// 出现之前视为在出现位置
	assert.Equal(t, 10., v.SpeedAt(-3))

	// 同一时刻重复记录时覆盖
	require.NoError(t, v.Record(vehicle.State{Lane: l2, S: 4, V: 11, Indicator: entity.IndicatorNone}))
	assert.Equal(t, 11., v.V())
	assert.Equal(t, 10., v.SpeedAt(0))
}

func TestHistoryLength(t *testing.T) {
	clk, lm, vm := world(t)
	l := lm.Get(1)
	v, err := vm.Add(base("v"), vehicle.State{Lane: l, S: 0, V: 1, Indicator: entity.IndicatorNone})
	require.NoError(t, err)
	v.SetHistoryLength(2)
	for i := 1; i <= 5; i++ {
		clk.Next()
		require.NoError(t, v.Record(vehicle.State{Lane: l, S: float64(i), V: float64(i + 1), Indicator: entity.IndicatorNone}))
	}
	// t=5，保留截止时刻3之前的最后一条
	assert.Equal(t, 4., v.SpeedAt(3))
	assert.Equal(t, 6., v.V())
	// 更早的记录已丢弃，回退到最早保留的一条
	assert.Equal(t, 4., v.SpeedAt(0))
}

func TestManager(t *testing.T) {
	_, lm, vm := world(t)
	l := lm.Get(1)
	st := vehicle.State{Lane: l, S: 20, Indicator: entity.IndicatorNone}
	a, err := vm.Add(base("a"), st)
	require.NoError(t, err)
	_, err = vm.Add(base("a"), st)
	assert.Error(t, err)
	_, err = vm.Add(base("b"), vehicle.State{Lane: l, S: 200, Indicator: entity.IndicatorNone})
	assert.ErrorIs(t, err, errs.ErrInvalidArgument)

	// 增删在Prepare后生效
	assert.Empty(t, vm.Vehicles())
	lm.Prepare()
	vm.Prepare()
	assert.Len(t, vm.Vehicles(), 1)

	got, err := vm.GetOrError("a")
	require.NoError(t, err)
	assert.Same(t, a, got)

	vm.Remove(a)
	_, err = vm.GetOrError("a")
	assert.Error(t, err)
	assert.Len(t, vm.Vehicles(), 1)
	lm.Prepare()
	vm.Prepare()
	assert.Empty(t, vm.Vehicles())
	assert.Nil(t, l.Vehicles().First())
}
