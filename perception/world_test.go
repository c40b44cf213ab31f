package perception_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tsinghua-fib-lab/agentsociety-perception/entity"
	"github.com/tsinghua-fib-lab/agentsociety-perception/entity/vehicle"
	"github.com/tsinghua-fib-lab/agentsociety-perception/task"
	"github.com/tsinghua-fib-lab/agentsociety-perception/utils/config"
)

func vehicleConfig(id string, lane int32, s, v float64) config.ScenarioVehicle {
	return config.ScenarioVehicle{
		ID: id, GtuType: "car", Lane: lane, S: s, V: v,
		Length: 4.5, Width: 1.8, MaxSpeed: 30,
		Model: "idm",
		Parameters: map[string]float64{
			"a": 1.25, "b": 2.09, "s0": 3, "t": 1.2, "fSpeed": 1.1,
		},
	}
}

// corridorConfig 三条首尾相接的车道 10 -> 11 -> 12，每条长100米
// 自车位于车道11的30米处，前车a(11/50)、b(12/20)，后车f(11/10)、g(10/90)
func corridorConfig() config.Config {
	return config.Config{
		Control: config.Control{Step: config.ControlStep{Start: 0, Total: 100, Interval: 1}},
		Perception: config.Perception{
			Mode:       "perfect",
			Visibility: 100,
			LookAhead:  200,
			LookBack:   100,
		},
		Assumptions: []config.GtuAssumption{{
			GtuType:    "car",
			Model:      "idm",
			Parameters: map[string]float64{"a": 1, "b": 2, "s0": 2, "t": 1, "fSpeed": 1},
			LaneSpeeds: map[string]float64{"LANE_TYPE_DRIVING": 12},
		}},
		Scenario: config.Scenario{
			Ego: "ego",
			Lanes: []config.ScenarioLane{
				{ID: 10, Type: "LANE_TYPE_DRIVING", Width: 3.5, SpeedLimit: 15, Line: [][2]float64{{0, 0}, {100, 0}}},
				{ID: 11, Type: "LANE_TYPE_DRIVING", Width: 3.5, SpeedLimit: 15, Line: [][2]float64{{100, 0}, {200, 0}}, Predecessors: []int32{10}},
				{ID: 12, Type: "LANE_TYPE_DRIVING", Width: 3.5, SpeedLimit: 15, Line: [][2]float64{{200, 0}, {300, 0}}, Predecessors: []int32{11}},
			},
			Lights: []config.ScenarioLight{{
				ID: "light", Lane: 11, S: 80,
				Phases: []config.LightPhase{{State: "LIGHT_STATE_GREEN", Duration: 20}, {State: "LIGHT_STATE_RED", Duration: 20}},
			}},
			StopLines: []config.ScenarioStopLine{{ID: "stop", Lane: 12, S: 50}},
			Vehicles: []config.ScenarioVehicle{
				vehicleConfig("ego", 11, 30, 10),
				vehicleConfig("a", 11, 50, 10),
				vehicleConfig("b", 12, 20, 10),
				vehicleConfig("f", 11, 10, 10),
				vehicleConfig("g", 10, 90, 10),
			},
		},
	}
}

// crossingConfig 车道1自西向东，车道2自南向北，在(100,0)处交叉；自车位于车道1的50米处
func crossingConfig() config.Config {
	return config.Config{
		Control: config.Control{Step: config.ControlStep{Start: 0, Total: 100, Interval: 1}},
		Perception: config.Perception{
			Mode:       "perfect",
			Visibility: 100,
			LookAhead:  200,
			LookBack:   100,
		},
		Scenario: config.Scenario{
			Ego: "ego",
			Lanes: []config.ScenarioLane{
				{ID: 1, Type: "LANE_TYPE_DRIVING", Width: 3.5, SpeedLimit: 15, Line: [][2]float64{{0, 0}, {200, 0}}},
				{ID: 2, Type: "LANE_TYPE_DRIVING", Width: 3.5, SpeedLimit: 10, Line: [][2]float64{{100, -100}, {100, 100}}},
			},
			Conflicts: []config.ScenarioConflict{{
				Type: "crossing", Rule: "fixed", PriorityLane: 1,
				Lane1: 1, S1: 98, Length1: 4,
				Lane2: 2, S2: 98, Length2: 4,
			}},
			Vehicles: []config.ScenarioVehicle{
				vehicleConfig("ego", 1, 50, 10),
				vehicleConfig("v1", 2, 58, 8),
			},
		},
	}
}

func newWorld(t *testing.T, c config.Config) *task.Context {
	ctx, err := task.NewContext(c)
	require.NoError(t, err)
	require.NoError(t, ctx.Init())
	return ctx
}

func getVehicle(t *testing.T, ctx *task.Context, id string) *vehicle.Vehicle {
	v, err := ctx.VehicleManager().GetOrError(id)
	require.NoError(t, err)
	return v
}

// advance 推进一步并按给定状态记录车辆，未给出的车辆保持原状态
func advance(t *testing.T, ctx *task.Context, states map[string]vehicle.State) {
	ctx.Clock().Next()
	for _, v := range ctx.VehicleManager().Vehicles() {
		st, ok := states[v.ID()]
		if !ok {
			now := v.Now()
			lane, s := v.PositionAt(now)
			st = vehicle.State{Lane: lane, S: s, V: v.SpeedAt(now), Indicator: entity.IndicatorNone}
		}
		require.NoError(t, v.Record(st))
	}
	ctx.LaneManager().Prepare()
	ctx.VehicleManager().Prepare()
}
