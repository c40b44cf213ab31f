package entity

import "fmt"

// 横向方向
type LateralDirectionality int8

const (
	LatNone  LateralDirectionality = iota // 无方向
	LatLeft                               // 左侧
	LatRight                              // 右侧
)

func (d LateralDirectionality) IsLeft() bool {
	return d == LatLeft
}

func (d LateralDirectionality) IsRight() bool {
	return d == LatRight
}

func (d LateralDirectionality) IsNone() bool {
	return d == LatNone
}

func (d LateralDirectionality) String() string {
	switch d {
	case LatNone:
		return "NONE"
	case LatLeft:
		return "LEFT"
	case LatRight:
		return "RIGHT"
	default:
		return fmt.Sprintf("LateralDirectionality(%d)", int8(d))
	}
}

// 转向灯状态，零值表示未知（缺失）
type TurnIndicatorStatus int8

const (
	IndicatorUnknown TurnIndicatorStatus = iota // 未知，不是合法的观测值
	IndicatorNone                               // 未开启
	IndicatorLeft                               // 左转向灯
	IndicatorRight                              // 右转向灯
	IndicatorHazard                             // 双闪
)

// IsValid 是否为合法的观测值
func (s TurnIndicatorStatus) IsValid() bool {
	return s >= IndicatorNone && s <= IndicatorHazard
}

// IsLeft 左侧转向灯是否亮（双闪时两侧都亮）
func (s TurnIndicatorStatus) IsLeft() bool {
	return s == IndicatorLeft || s == IndicatorHazard
}

// IsRight 右侧转向灯是否亮（双闪时两侧都亮）
func (s TurnIndicatorStatus) IsRight() bool {
	return s == IndicatorRight || s == IndicatorHazard
}

func (s TurnIndicatorStatus) String() string {
	switch s {
	case IndicatorUnknown:
		return "UNKNOWN"
	case IndicatorNone:
		return "NONE"
	case IndicatorLeft:
		return "LEFT"
	case IndicatorRight:
		return "RIGHT"
	case IndicatorHazard:
		return "HAZARD"
	default:
		return fmt.Sprintf("TurnIndicatorStatus(%d)", int8(s))
	}
}

// 冲突类型
type ConflictType int8

const (
	ConflictCrossing ConflictType = iota + 1 // 交叉
	ConflictMerge                            // 合流
	ConflictSplit                            // 分流
)

func (t ConflictType) IsCrossing() bool {
	return t == ConflictCrossing
}

func (t ConflictType) IsMerge() bool {
	return t == ConflictMerge
}

func (t ConflictType) IsSplit() bool {
	return t == ConflictSplit
}

func (t ConflictType) String() string {
	switch t {
	case ConflictCrossing:
		return "CROSSING"
	case ConflictMerge:
		return "MERGE"
	case ConflictSplit:
		return "SPLIT"
	default:
		return fmt.Sprintf("ConflictType(%d)", int8(t))
	}
}

// 冲突优先级
type ConflictPriority int8

const (
	PriorityPriority  ConflictPriority = iota + 1 // 优先通行
	PriorityTurnOnRed                             // 红灯转弯（需让行）
	PriorityYield                                 // 让行
	PriorityStop                                  // 停车让行
	PriorityAllStop                               // 全向停车
	PrioritySplit                                 // 分流（无需让行）
)

func (p ConflictPriority) IsPriority() bool {
	return p == PriorityPriority
}

func (p ConflictPriority) IsTurnOnRed() bool {
	return p == PriorityTurnOnRed
}

// IsGiveWay 是否需要让行（让行或红灯转弯）
func (p ConflictPriority) IsGiveWay() bool {
	return p == PriorityYield || p == PriorityTurnOnRed
}

func (p ConflictPriority) IsStop() bool {
	return p == PriorityStop
}

func (p ConflictPriority) IsAllStop() bool {
	return p == PriorityAllStop
}

func (p ConflictPriority) IsSplit() bool {
	return p == PrioritySplit
}

func (p ConflictPriority) String() string {
	switch p {
	case PriorityPriority:
		return "PRIORITY"
	case PriorityTurnOnRed:
		return "TURN_ON_RED"
	case PriorityYield:
		return "YIELD"
	case PriorityStop:
		return "STOP"
	case PriorityAllStop:
		return "ALL_STOP"
	case PrioritySplit:
		return "SPLIT"
	default:
		return fmt.Sprintf("ConflictPriority(%d)", int8(p))
	}
}
