package object

import (
	"errors"
	"fmt"

	"github.com/tsinghua-fib-lab/agentsociety-perception/entity"
	"github.com/tsinghua-fib-lab/agentsociety-perception/model/assumption"
	"github.com/tsinghua-fib-lab/agentsociety-perception/model/following"
	"github.com/tsinghua-fib-lab/agentsociety-perception/model/parameter"
	"github.com/tsinghua-fib-lab/agentsociety-perception/model/speedlimit"
)

// Behavior 感知到的车辆行为
// 功能：跟驰模型、行为参数快照、限速信息、期望速度、路径以及变道意愿和社会压力
// 说明：限速信息与期望速度在首次读取时计算并缓存，缓存没有加锁，
// 同一个Behavior只能由一个goroutine读取（每个感知主体每步各自构造，不跨goroutine共享）
type Behavior struct {
	gtuType  entity.GtuType
	maxSpeed float64
	lane     entity.ILane // 感知时刻车辆所在车道

	model  following.Model
	params *parameter.Set // 拷贝，不与车辆共享
	route  *entity.Route

	dLeft  float64
	dRight float64
	socio  float64

	// 车道限速来源：实际车辆取车道对该车型的限速，假设车型取车道类型的假设限速
	laneSpeed func() (float64, error)

	sli          *speedlimit.Info
	desiredSpeed *float64
}

// ActualBehavior 车辆t时刻的实际行为
// 说明：行为参数不是历史量，取的是当前参数的拷贝
func ActualBehavior(v entity.IVehicle, t float64) *Behavior {
	b := newBehavior(v, t)
	b.model = v.CarFollowingModel()
	b.laneSpeed = func() (float64, error) {
		return b.lane.SpeedLimit(b.gtuType)
	}
	return b
}

// AssumedBehavior 按车型假设得到的行为
// 功能：跟驰模型、行为参数与车道限速取自车型假设表，而不是被观察车辆本身
// 返回：假设表中没有该车型时返回ErrInvalidArgument
func AssumedBehavior(v entity.IVehicle, t float64, a *assumption.Assumptions) (*Behavior, error) {
	b := newBehavior(v, t)
	var err error
	if b.model, err = a.CarFollowingModel(b.gtuType); err != nil {
		return nil, err
	}
	if b.params, err = a.Parameters(b.gtuType); err != nil {
		return nil, err
	}
	b.laneSpeed = func() (float64, error) {
		return a.LaneTypeMaxSpeed(b.gtuType, b.lane.Type())
	}
	return b, nil
}

func newBehavior(v entity.IVehicle, t float64) *Behavior {
	lane, _ := v.PositionAt(t)
	own := v.Parameters().Copy()
	b := &Behavior{
		gtuType:  v.GtuType(),
		maxSpeed: v.MaxSpeed(),
		lane:     lane,
		dLeft:    optional(own, parameter.DLEFT),
		dRight:   optional(own, parameter.DRIGHT),
		socio:    optional(own, parameter.SOCIO),
		params:   own,
	}
	if route, ok := v.Route(); ok {
		route.LaneIDs = append([]int32(nil), route.LaneIDs...)
		b.route = &route
	}
	return b
}

func optional(params *parameter.Set, t parameter.Type) float64 {
	v, ok := params.GetOptional(t)
	if !ok {
		return 0
	}
	return v
}

func (b *Behavior) CarFollowingModel() following.Model {
	return b.model
}

// Parameters 行为参数（副本）
func (b *Behavior) Parameters() *parameter.Set {
	return b.params.Copy()
}

// Route 路径，可能不存在
func (b *Behavior) Route() (entity.Route, bool) {
	if b.route == nil {
		return entity.Route{}, false
	}
	return *b.route, true
}

// LeftLaneChangeDesire 左变道意愿[-1,1]，未设置时为0
func (b *Behavior) LeftLaneChangeDesire() float64 {
	return b.dLeft
}

// RightLaneChangeDesire 右变道意愿[-1,1]，未设置时为0
func (b *Behavior) RightLaneChangeDesire() float64 {
	return b.dRight
}

// SocialPressure 社会压力[0,1]，未设置时为0
func (b *Behavior) SocialPressure() float64 {
	return b.socio
}

// SpeedLimitInfo 限速信息（首次调用时计算）
// 返回：车道没有可用限速时返回错误，且不缓存
func (b *Behavior) SpeedLimitInfo() (speedlimit.Info, error) {
	if b.sli != nil {
		return *b.sli, nil
	}
	sign, err := b.laneSpeed()
	if err != nil {
		return speedlimit.Info{}, fmt.Errorf("speed limit of %v for %v: %w", b.lane, b.gtuType, err)
	}
	sli := speedlimit.Info{}.
		With(speedlimit.MaxVehicleSpeed, b.maxSpeed).
		With(speedlimit.FixedSign, sign)
	b.sli = &sli
	return sli, nil
}

// DesiredSpeed 期望速度（首次调用时计算）
// 算法说明：
// 1. 由跟驰模型根据参数与限速信息计算
// 2. 缺少参数时退化为车道对该车型的限速
func (b *Behavior) DesiredSpeed() (float64, error) {
	if b.desiredSpeed != nil {
		return *b.desiredSpeed, nil
	}
	sli, err := b.SpeedLimitInfo()
	if err != nil {
		return 0, err
	}
	v, err := b.model.DesiredSpeed(b.params, sli)
	if errors.Is(err, parameter.ErrMissing) {
		log.Debugf("desired speed of %v falls back to lane speed limit: %v", b.gtuType, err)
		v, err = b.lane.SpeedLimit(b.gtuType)
	}
	if err != nil {
		return 0, err
	}
	b.desiredSpeed = &v
	return v, nil
}
