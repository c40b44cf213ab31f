package object_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tsinghua-fib-lab/agentsociety-perception/task"
	"github.com/tsinghua-fib-lab/agentsociety-perception/utils/config"
)

var idmParams = map[string]float64{
	"a":      1.25,
	"b":      2.09,
	"s0":     3,
	"t":      1.2,
	"fSpeed": 1.1,
}

// crossingConfig 两条垂直相交的车道：车道1自西向东，车道2自南向北，在(100,0)处交叉
func crossingConfig() config.Config {
	return config.Config{
		Control: config.Control{Step: config.ControlStep{Start: 0, Total: 100, Interval: 0.5}},
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
				{ID: 1, Type: "LANE_TYPE_DRIVING", Parent: 100, Width: 3.5, SpeedLimit: 15, Line: [][2]float64{{0, 0}, {200, 0}}},
				{ID: 2, Type: "LANE_TYPE_DRIVING", Parent: 200, Width: 3.5, SpeedLimit: 10, Line: [][2]float64{{100, -100}, {100, 100}}},
			},
			StopLines: []config.ScenarioStopLine{
				{ID: "stop1", Lane: 1, S: 95},
				{ID: "stop2", Lane: 2, S: 94},
			},
			Conflicts: []config.ScenarioConflict{{
				Type: "crossing", Rule: "fixed", PriorityLane: 1,
				Lane1: 1, S1: 98, Length1: 4, StopLine1: "stop1",
				Lane2: 2, S2: 98, Length2: 4, StopLine2: "stop2",
			}},
			Vehicles: []config.ScenarioVehicle{
				vehicleConfig("ego", 1, 50, 10),
				vehicleConfig("v1", 2, 58, 8),
			},
		},
	}
}

func vehicleConfig(id string, lane int32, s, v float64) config.ScenarioVehicle {
	return config.ScenarioVehicle{
		ID: id, GtuType: "car", Lane: lane, S: s, V: v,
		Length: 4.5, Width: 1.8, MaxSpeed: 30,
		Model: "idm", Parameters: idmParams,
	}
}

func newWorld(t *testing.T, c config.Config) *task.Context {
	ctx, err := task.NewContext(c)
	require.NoError(t, err)
	require.NoError(t, ctx.Init())
	return ctx
}
