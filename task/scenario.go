package task

import (
	"fmt"
	"math"

	geov2 "git.fiblab.net/sim/protos/v2/go/city/geo/v2"
	mapv2 "git.fiblab.net/sim/protos/v2/go/city/map/v2"
	"github.com/samber/lo"
	"github.com/tsinghua-fib-lab/agentsociety-perception/entity"
	"github.com/tsinghua-fib-lab/agentsociety-perception/entity/conflict"
	"github.com/tsinghua-fib-lab/agentsociety-perception/entity/lane"
	"github.com/tsinghua-fib-lab/agentsociety-perception/entity/trafficlight"
	"github.com/tsinghua-fib-lab/agentsociety-perception/entity/vehicle"
	"github.com/tsinghua-fib-lab/agentsociety-perception/model/following"
	"github.com/tsinghua-fib-lab/agentsociety-perception/model/parameter"
	"github.com/tsinghua-fib-lab/agentsociety-perception/utils/config"
	"github.com/tsinghua-fib-lab/agentsociety-perception/utils/errs"
)

const (
	minHistoryLength = 10 // 车辆状态历史的最短保留时长（秒）
)

var (
	indicators = map[string]entity.TurnIndicatorStatus{
		"":       entity.IndicatorNone,
		"none":   entity.IndicatorNone,
		"left":   entity.IndicatorLeft,
		"right":  entity.IndicatorRight,
		"hazard": entity.IndicatorHazard,
	}
	conflictTypes = map[string]entity.ConflictType{
		"crossing": entity.ConflictCrossing,
		"merge":    entity.ConflictMerge,
		"split":    entity.ConflictSplit,
	}
)

// lanePb 将场景车道转换为地图车道
func lanePb(c config.ScenarioLane) (*mapv2.Lane, error) {
	typ, ok := mapv2.LaneType_value[c.Type]
	if !ok {
		return nil, errs.InvalidArgument("lane %d: unknown lane type %q", c.ID, c.Type)
	}
	var turn int32
	if c.Turn != "" {
		if turn, ok = mapv2.LaneTurn_value[c.Turn]; !ok {
			return nil, errs.InvalidArgument("lane %d: unknown lane turn %q", c.ID, c.Turn)
		}
	}
	return &mapv2.Lane{
		Id:       c.ID,
		Type:     mapv2.LaneType(typ),
		Turn:     mapv2.LaneTurn(turn),
		MaxSpeed: c.SpeedLimit,
		Width:    c.Width,
		ParentId: c.Parent,
		CenterLine: &geov2.Polyline{
			Nodes: lo.Map(c.Line, func(p [2]float64, _ int) *geov2.XYPosition {
				return &geov2.XYPosition{X: p[0], Y: p[1]}
			}),
		},
		Predecessors: lo.Map(c.Predecessors, func(id int32, _ int) *mapv2.LaneConnection {
			return &mapv2.LaneConnection{Id: id}
		}),
	}, nil
}

// initLanes 创建车道并设置宽度与分车型限速
func (ctx *Context) initLanes(cs []config.ScenarioLane) error {
	pbs := make([]*mapv2.Lane, 0, len(cs))
	for _, c := range cs {
		pb, err := lanePb(c)
		if err != nil {
			return err
		}
		pbs = append(pbs, pb)
	}
	if err := ctx.laneManager.Init(pbs); err != nil {
		return err
	}
	for _, c := range cs {
		l := ctx.laneManager.Get(c.ID)
		if c.EndWidth > 0 {
			if err := l.SetWidthWhenInit(c.Width, c.EndWidth); err != nil {
				return err
			}
		}
		for gtuType, v := range c.GtuSpeedLimits {
			l.SetGtuSpeedLimitWhenInit(entity.GtuType(gtuType), v)
		}
	}
	return nil
}

// initLights 创建固定配时信号灯，每个信号灯使用单灯程序
func (ctx *Context) initLights(cs []config.ScenarioLight) error {
	for _, c := range cs {
		l, err := ctx.laneManager.GetOrError(c.Lane)
		if err != nil {
			return fmt.Errorf("light %s: %w", c.ID, err)
		}
		phases := make([]*mapv2.Phase, 0, len(c.Phases))
		for _, p := range c.Phases {
			state, ok := mapv2.LightState_value[p.State]
			if !ok {
				return errs.InvalidArgument("light %s: unknown light state %q", c.ID, p.State)
			}
			phases = append(phases, &mapv2.Phase{
				Duration: p.Duration,
				States:   []mapv2.LightState{mapv2.LightState(state)},
			})
		}
		light, err := trafficlight.New(ctx.clock, c.ID, l, c.S, &mapv2.TrafficLight{Phases: phases}, 0, c.Offset, c.TurnOnRed)
		if err != nil {
			return err
		}
		ctx.lights[c.ID] = light
	}
	return nil
}

func (ctx *Context) initStopLines(cs []config.ScenarioStopLine) error {
	for _, c := range cs {
		l, err := ctx.laneManager.GetOrError(c.Lane)
		if err != nil {
			return fmt.Errorf("stop line %s: %w", c.ID, err)
		}
		obj, err := lane.NewObject(c.ID, entity.StopLineObject, l, c.S, 0)
		if err != nil {
			return err
		}
		ctx.stopLines[c.ID] = obj
	}
	return nil
}

// initConflicts 生成冲突区对并设置停止线
func (ctx *Context) initConflicts(cs []config.ScenarioConflict) error {
	for i, c := range cs {
		typ, ok := conflictTypes[c.Type]
		if !ok {
			return errs.InvalidArgument("conflict %d: unknown type %q", i, c.Type)
		}
		rule, ok := conflict.RuleByName(c.Rule, c.PriorityLane, c.Stop)
		if !ok {
			return errs.InvalidArgument("conflict %d: unknown rule %q", i, c.Rule)
		}
		lane1, err := ctx.laneManager.GetOrError(c.Lane1)
		if err != nil {
			return fmt.Errorf("conflict %d: %w", i, err)
		}
		lane2, err := ctx.laneManager.GetOrError(c.Lane2)
		if err != nil {
			return fmt.Errorf("conflict %d: %w", i, err)
		}
		c1, c2, err := conflict.GeneratePair(typ, rule, c.Permitted, lane1, c.S1, c.Length1, lane2, c.S2, c.Length2)
		if err != nil {
			return fmt.Errorf("conflict %d: %w", i, err)
		}
		for _, side := range []struct {
			c    *conflict.Conflict
			stop string
		}{{c1, c.StopLine1}, {c2, c.StopLine2}} {
			if side.stop == "" {
				continue
			}
			obj, ok := ctx.stopLines[side.stop]
			if !ok {
				return errs.InvalidArgument("conflict %d: unknown stop line %q", i, side.stop)
			}
			if err := side.c.SetStopLine(obj); err != nil {
				return err
			}
		}
		ctx.conflicts = append(ctx.conflicts, c1, c2)
	}
	return nil
}

// initVehicles 创建车辆并记录初始状态
func (ctx *Context) initVehicles(cs []config.ScenarioVehicle) error {
	historyLength := math.Max(minHistoryLength, ctx.runtimeConfig.P.Delay+2*ctx.clock.DT)
	for _, c := range cs {
		l, err := ctx.laneManager.GetOrError(c.Lane)
		if err != nil {
			return fmt.Errorf("vehicle %s: %w", c.ID, err)
		}
		model, err := following.ByName(c.Model)
		if err != nil {
			return fmt.Errorf("vehicle %s: %w", c.ID, err)
		}
		params, err := parameter.FromMap(c.Parameters)
		if err != nil {
			return fmt.Errorf("vehicle %s: %w", c.ID, err)
		}
		indicator, ok := indicators[c.Indicator]
		if !ok {
			return errs.InvalidArgument("vehicle %s: unknown indicator %q", c.ID, c.Indicator)
		}
		base := vehicle.Base{
			ID:         c.ID,
			GtuType:    entity.GtuType(c.GtuType),
			Length:     c.Length,
			Width:      c.Width,
			MaxSpeed:   c.MaxSpeed,
			Model:      model,
			Parameters: params,
		}
		if len(c.Route) > 0 {
			if _, failed := ctx.laneManager.Find(c.Route); len(failed) > 0 {
				return errs.InvalidArgument("vehicle %s: unknown route lanes %v", c.ID, failed)
			}
			base.Route = &entity.Route{ID: c.ID, LaneIDs: c.Route}
		}
		v, err := ctx.vehicleManager.Add(base, vehicle.State{
			Lane:      l,
			S:         c.S,
			V:         c.V,
			A:         c.A,
			Indicator: indicator,
			Braking:   c.Braking,
		})
		if err != nil {
			return err
		}
		v.SetHistoryLength(historyLength)
	}
	return nil
}
