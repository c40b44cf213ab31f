package object

import (
	"fmt"

	mapv2 "git.fiblab.net/sim/protos/v2/go/city/map/v2"
	"github.com/tsinghua-fib-lab/agentsociety-perception/entity"
	"github.com/tsinghua-fib-lab/agentsociety-perception/perception/kinematics"
	"github.com/tsinghua-fib-lab/agentsociety-perception/utils/errs"
)

var (
	_ Conflict = (*LiveConflict)(nil)
	_ Conflict = (*ConflictSnapshot)(nil)
)

// LiveConflict 实时包装的感知冲突区
// 功能：除构造时预计算的宽度、方向与限速外，每个访问器都在调用时从冲突区实体重新计算
// 说明：只适用于完美感知，延迟或假设感知应使用ConflictSnapshot
type LiveConflict struct {
	conflictBase
}

// NewLiveConflict 创建实时包装的感知冲突区
// 参数：c-自车一侧的冲突区，k-冲突区相对自车的运动学，env-可见距离、车型与对侧车辆感知方式
func NewLiveConflict(c entity.IConflict, k kinematics.Kinematics, env ConflictEnv) (*LiveConflict, error) {
	base, err := newConflictBase(c, k, env)
	if err != nil {
		return nil, err
	}
	return &LiveConflict{conflictBase: base}, nil
}

func (l *LiveConflict) ConflictPriority() entity.ConflictPriority {
	return l.conflict.ConflictPriority()
}

func (l *LiveConflict) UpstreamConflictingGtus() ([]*Gtu, error) {
	return l.upstreamGtus()
}

func (l *LiveConflict) DownstreamConflictingGtus() ([]*Gtu, error) {
	return l.downstreamGtus()
}

func (l *LiveConflict) StopLine() (Object, bool) {
	return l.stopLine()
}

func (l *LiveConflict) ConflictingStopLine() (Object, bool) {
	return l.conflictingStopLine()
}

func (l *LiveConflict) ConflictingTrafficLightDistance() (float64, bool) {
	d, _, ok := l.currentTrafficLight()
	return d, ok
}

func (l *LiveConflict) IsPermitted() bool {
	_, permitted, _ := l.currentTrafficLight()
	return permitted
}

func (l *LiveConflict) currentTrafficLight() (float64, bool, bool) {
	return conflictingTrafficLight(l.other, l.visibility, func(light entity.ITrafficLight) mapv2.LightState {
		return light.LightState()
	})
}

func (l *LiveConflict) String() string {
	return fmt.Sprintf("live %v", l.Object)
}

// ConflictSnapshot 完全物化的感知冲突区
// 功能：构造时冻结所有值，之后与冲突区实体的变化无关
// 说明：对侧信号灯信息在构造后由感知层通过SetConflictingTrafficLight设置，且只能设置一次
type ConflictSnapshot struct {
	conflictBase

	priority   entity.ConflictPriority
	upstream   []*Gtu
	downstream []*Gtu
	ownStop    *Object
	otherStop  *Object

	lightSet       bool // 对侧信号灯已设置（存在）
	lightDistance  float64
	lightPermitted bool
}

// NewConflictSnapshot 创建并冻结感知冲突区
// 参数：t-感知时刻，优先级按信号灯在该时刻的灯色求值，与对侧信号灯的放行状态一致
// 说明：对侧车辆由env.Perceive在构造时一次性生成，延迟或估计等感知误差由其负责
func NewConflictSnapshot(c entity.IConflict, k kinematics.Kinematics, env ConflictEnv, t float64) (*ConflictSnapshot, error) {
	base, err := newConflictBase(c, k, env)
	if err != nil {
		return nil, err
	}
	s := &ConflictSnapshot{
		conflictBase: base,
		priority:     c.ConflictPriorityAt(t),
	}
	if s.upstream, err = base.upstreamGtus(); err != nil {
		return nil, err
	}
	if s.downstream, err = base.downstreamGtus(); err != nil {
		return nil, err
	}
	if o, ok := base.stopLine(); ok {
		s.ownStop = &o
	}
	if o, ok := base.conflictingStopLine(); ok {
		s.otherStop = &o
	}
	return s, nil
}

// SetConflictingTrafficLight 设置对侧上游信号灯
// 参数：distance-信号灯到对侧冲突区的距离，permitted-是否放行对侧车流
// 返回：重复设置时返回ErrInvalidState
func (s *ConflictSnapshot) SetConflictingTrafficLight(distance float64, permitted bool) error {
	if s.lightSet {
		return errs.InvalidState("%v: conflicting traffic light already set", s)
	}
	if distance < 0 {
		return errs.InvalidArgument("%v: negative traffic light distance %v", s, distance)
	}
	s.lightSet = true
	s.lightDistance = distance
	s.lightPermitted = permitted
	return nil
}

func (s *ConflictSnapshot) ConflictPriority() entity.ConflictPriority {
	return s.priority
}

// UpstreamConflictingGtus 冻结的对侧上游车辆（副本）
func (s *ConflictSnapshot) UpstreamConflictingGtus() ([]*Gtu, error) {
	return append([]*Gtu(nil), s.upstream...), nil
}

// DownstreamConflictingGtus 冻结的对侧下游车辆（副本）
func (s *ConflictSnapshot) DownstreamConflictingGtus() ([]*Gtu, error) {
	return append([]*Gtu(nil), s.downstream...), nil
}

func (s *ConflictSnapshot) StopLine() (Object, bool) {
	if s.ownStop == nil {
		return Object{}, false
	}
	return *s.ownStop, true
}

func (s *ConflictSnapshot) ConflictingStopLine() (Object, bool) {
	if s.otherStop == nil {
		return Object{}, false
	}
	return *s.otherStop, true
}

func (s *ConflictSnapshot) ConflictingTrafficLightDistance() (float64, bool) {
	return s.lightDistance, s.lightSet
}

func (s *ConflictSnapshot) IsPermitted() bool {
	return s.lightPermitted
}

func (s *ConflictSnapshot) String() string {
	return fmt.Sprintf("snapshot %v", s.Object)
}
