package conflict

import (
	mapv2 "git.fiblab.net/sim/protos/v2/go/city/map/v2"
	"github.com/tsinghua-fib-lab/agentsociety-perception/entity"
)

// turnOnRedSearchDistance 判断红灯右转时向上游查找信号灯的距离（米）
const turnOnRedSearchDistance = 50

// Rule 冲突规则，决定冲突区某一侧的优先级
// 说明：stateOf给出信号灯在求值时刻的灯色，与信号灯无关的规则忽略它
type Rule interface {
	Name() string
	DeterminePriority(c entity.IConflict, stateOf func(entity.ITrafficLight) mapv2.LightState) entity.ConflictPriority
}

// FixedRule 固定优先规则：优先车道上的一侧优先通行，另一侧让行或停车让行
type FixedRule struct {
	PriorityLane int32 // 优先车道ID
	Stop         bool  // 次要方向是否需要停车
}

func (FixedRule) Name() string {
	return "fixed"
}

func (r FixedRule) DeterminePriority(c entity.IConflict, _ func(entity.ITrafficLight) mapv2.LightState) entity.ConflictPriority {
	if c.ConflictType().IsSplit() {
		return entity.PrioritySplit
	}
	if c.Lane().ID() == r.PriorityLane {
		return entity.PriorityPriority
	}
	if r.Stop {
		return entity.PriorityStop
	}
	return entity.PriorityYield
}

// AllStopRule 全向停车规则
type AllStopRule struct{}

func (AllStopRule) Name() string {
	return "all_stop"
}

func (AllStopRule) DeterminePriority(c entity.IConflict, _ func(entity.ITrafficLight) mapv2.LightState) entity.ConflictPriority {
	if c.ConflictType().IsSplit() {
		return entity.PrioritySplit
	}
	return entity.PriorityAllStop
}

// TrafficLightRule 信号灯控制规则：通行权由信号灯决定，冲突区本身视为优先；
// 允许红灯右转的灯处于红灯时，本侧须让行
type TrafficLightRule struct{}

func (TrafficLightRule) Name() string {
	return "traffic_light"
}

func (TrafficLightRule) DeterminePriority(c entity.IConflict, stateOf func(entity.ITrafficLight) mapv2.LightState) entity.ConflictPriority {
	if c.ConflictType().IsSplit() {
		return entity.PrioritySplit
	}
	if light, _, ok := c.UpstreamTrafficLight(turnOnRedSearchDistance); ok &&
		light.TurnOnRed() && stateOf(light) == mapv2.LightState_LIGHT_STATE_RED {
		return entity.PriorityTurnOnRed
	}
	return entity.PriorityPriority
}

// RuleByName 根据名称创建冲突规则（用于配置文件）
func RuleByName(name string, priorityLane int32, stop bool) (Rule, bool) {
	switch name {
	case "fixed":
		return FixedRule{PriorityLane: priorityLane, Stop: stop}, true
	case "all_stop":
		return AllStopRule{}, true
	case "traffic_light":
		return TrafficLightRule{}, true
	default:
		return nil, false
	}
}
