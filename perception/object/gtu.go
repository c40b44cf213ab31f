package object

import (
	"fmt"
	"math"

	"github.com/tsinghua-fib-lab/agentsociety-perception/entity"
	"github.com/tsinghua-fib-lab/agentsociety-perception/model/assumption"
	"github.com/tsinghua-fib-lab/agentsociety-perception/perception/kinematics"
	"github.com/tsinghua-fib-lab/agentsociety-perception/utils/errs"
)

// Signals 车辆灯光信号
type Signals struct {
	indicator entity.TurnIndicatorStatus
	braking   bool
}

// NewSignals 创建灯光信号
// 返回：转向灯状态缺失或未知时返回ErrInvalidArgument
func NewSignals(indicator entity.TurnIndicatorStatus, braking bool) (Signals, error) {
	if !indicator.IsValid() {
		return Signals{}, errs.InvalidArgument("turn indicator status %v is not an observation", indicator)
	}
	return Signals{indicator: indicator, braking: braking}, nil
}

func (s Signals) TurnIndicatorStatus() entity.TurnIndicatorStatus {
	return s.indicator
}

// IsIndicatorOn 指定侧的转向灯是否亮
// 返回：lat为无方向时返回ErrInvalidArgument
func (s Signals) IsIndicatorOn(lat entity.LateralDirectionality) (bool, error) {
	switch lat {
	case entity.LatLeft:
		return s.indicator.IsLeft(), nil
	case entity.LatRight:
		return s.indicator.IsRight(), nil
	default:
		return false, errs.InvalidArgument("indicator side must be LEFT or RIGHT, got %v", lat)
	}
}

func (s Signals) IsBrakingLightsOn() bool {
	return s.braking
}

// Maneuver 车辆横向机动状态
type Maneuver struct {
	changingLeft  bool
	changingRight bool
	deviation     float64 // 相对车道中心线的横向偏移，左正右负
}

// NewManeuver 创建横向机动状态
// 返回：同时向左右变道或横向偏移为NaN时返回ErrInvalidArgument
func NewManeuver(changingLeft, changingRight bool, deviation float64) (Maneuver, error) {
	if changingLeft && changingRight {
		return Maneuver{}, errs.InvalidArgument("maneuver cannot change left and right at once")
	}
	if math.IsNaN(deviation) {
		return Maneuver{}, errs.InvalidArgument("maneuver deviation is NaN")
	}
	return Maneuver{changingLeft: changingLeft, changingRight: changingRight, deviation: deviation}, nil
}

func (m Maneuver) IsChangingLeft() bool {
	return m.changingLeft
}

func (m Maneuver) IsChangingRight() bool {
	return m.changingRight
}

func (m Maneuver) IsChangingLane() bool {
	return m.changingLeft || m.changingRight
}

// LaneChangeDirection 变道方向，未变道时为LatNone
func (m Maneuver) LaneChangeDirection() entity.LateralDirectionality {
	switch {
	case m.changingLeft:
		return entity.LatLeft
	case m.changingRight:
		return entity.LatRight
	default:
		return entity.LatNone
	}
}

func (m Maneuver) Deviation() float64 {
	return m.deviation
}

var _ PerceivedObject = (*Gtu)(nil)

// Gtu 感知到的车辆
// 功能：在感知对象的基础上增加车型、宽度、灯光信号、横向机动与行为
// 说明：构造后不可变，Behavior内部的惰性缓存见Behavior说明
type Gtu struct {
	Object
	gtuType  entity.GtuType
	width    float64
	signals  Signals
	maneuver Maneuver
	behavior *Behavior
}

// OfGtu 感知车辆当前时刻的状态
func OfGtu(v entity.IVehicle, k kinematics.Kinematics) (*Gtu, error) {
	return OfGtuAt(v, k, v.Now())
}

// OfGtuAt 感知车辆t时刻的状态（用于感知延迟）
func OfGtuAt(v entity.IVehicle, k kinematics.Kinematics, t float64) (*Gtu, error) {
	return newGtu(v, k, t, ActualBehavior(v, t))
}

// OfGtuAssumed 感知车辆t时刻的状态，行为按车型假设给出
func OfGtuAssumed(v entity.IVehicle, k kinematics.Kinematics, t float64, a *assumption.Assumptions) (*Gtu, error) {
	b, err := AssumedBehavior(v, t, a)
	if err != nil {
		return nil, err
	}
	return newGtu(v, k, t, b)
}

func newGtu(v entity.IVehicle, k kinematics.Kinematics, t float64, b *Behavior) (*Gtu, error) {
	o, err := NewObject(v.ID(), TypeGtu, v.Length(), k)
	if err != nil {
		return nil, err
	}
	signals, err := NewSignals(v.TurnIndicatorAt(t), v.BrakingLightsAt(t))
	if err != nil {
		return nil, fmt.Errorf("%v: %w", v, err)
	}
	dir := v.LaneChangeDirectionAt(t)
	maneuver, err := NewManeuver(dir.IsLeft(), dir.IsRight(), v.DeviationAt(t))
	if err != nil {
		return nil, fmt.Errorf("%v: %w", v, err)
	}
	return NewGtu(o, v.GtuType(), v.Width(), signals, maneuver, b)
}

// NewGtu 由各部分直接组装感知车辆（用于合成或分析场景）
// 返回：对象类别不是车辆、宽度非法或缺少行为时返回ErrInvalidArgument
func NewGtu(o Object, gtuType entity.GtuType, width float64, signals Signals, maneuver Maneuver, b *Behavior) (*Gtu, error) {
	if !o.ObjectType().IsGtu() {
		return nil, errs.InvalidArgument("perceived gtu %s: object type %v", o.ID(), o.ObjectType())
	}
	if width <= 0 || math.IsNaN(width) {
		return nil, errs.InvalidArgument("perceived gtu %s: bad width %v", o.ID(), width)
	}
	if b == nil {
		return nil, errs.InvalidArgument("perceived gtu %s: no behavior", o.ID())
	}
	return &Gtu{
		Object:   o,
		gtuType:  gtuType,
		width:    width,
		signals:  signals,
		maneuver: maneuver,
		behavior: b,
	}, nil
}

func (g *Gtu) GtuType() entity.GtuType {
	return g.gtuType
}

func (g *Gtu) Width() float64 {
	return g.width
}

func (g *Gtu) Signals() Signals {
	return g.signals
}

func (g *Gtu) Maneuver() Maneuver {
	return g.maneuver
}

func (g *Gtu) Behavior() *Behavior {
	return g.behavior
}

// Moved 替换距离、速度与加速度后的新感知车辆，其余字段不变
// 返回：当前与自车并行时返回ErrInvalidState
func (g *Gtu) Moved(distance, speed, acceleration float64) (*Gtu, error) {
	k, err := g.kinematics.WithMotion(distance, speed, acceleration)
	if err != nil {
		return nil, fmt.Errorf("gtu %s moved in perception: %w", g.id, err)
	}
	moved := *g
	moved.kinematics = k
	return &moved, nil
}

func (g *Gtu) String() string {
	return fmt.Sprintf("%v %s [%v] indicator=%v braking=%v", g.objectType, g.id, g.kinematics, g.signals.indicator, g.signals.braking)
}
