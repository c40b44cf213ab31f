// 跟驰模型：感知层只使用其期望速度，决策层（不在本模块内）使用完整接口
package following

import (
	"fmt"
	"math"

	"git.fiblab.net/general/common/v2/mathutil"
	"github.com/tsinghua-fib-lab/agentsociety-perception/model/parameter"
	"github.com/tsinghua-fib-lab/agentsociety-perception/model/speedlimit"
	"github.com/tsinghua-fib-lab/agentsociety-perception/utils/errs"
)

// Model 跟驰模型
type Model interface {
	// 模型名称
	Name() string
	// 期望速度（米/秒），缺少参数时返回包装parameter.ErrMissing的错误
	DesiredSpeed(params *parameter.Set, sli speedlimit.Info) (float64, error)
	// 期望车头间距（米）
	DesiredHeadway(params *parameter.Set, speed float64) (float64, error)
	// 跟驰加速度（米/秒²），leaderDistance为到前车的净距，无前车时传入mathutil.INF
	FollowingAcceleration(params *parameter.Set, speed float64, sli speedlimit.Info, leaderDistance, leaderSpeed float64) (float64, error)
}

// ByName 根据名称获取跟驰模型
func ByName(name string) (Model, error) {
	switch name {
	case "idm", "IDM":
		return IDM{}, nil
	default:
		return nil, errs.InvalidArgument("unknown car-following model %q", name)
	}
}

// IDM 智能驾驶模型
// https://en.wikipedia.org/wiki/Intelligent_driver_model
type IDM struct{}

// Name 模型名称
func (IDM) Name() string {
	return "IDM"
}

// DesiredSpeed 期望速度
// 功能：期望速度 = min(fSpeed * 车道限速, 车辆最高速度)
// 说明：任一限速缺失时视为不受该项约束
func (IDM) DesiredSpeed(params *parameter.Set, sli speedlimit.Info) (float64, error) {
	fSpeed, err := params.Get(parameter.FSPEED)
	if err != nil {
		return 0, err
	}
	v := mathutil.INF
	if sign, ok := sli.Speed(speedlimit.FixedSign); ok {
		v = fSpeed * sign
	}
	if vMax, ok := sli.Speed(speedlimit.MaxVehicleSpeed); ok {
		v = math.Min(v, vMax)
	}
	if v >= mathutil.INF {
		return 0, fmt.Errorf("IDM: no speed limit to derive desired speed from: %w", errs.ErrInvalidArgument)
	}
	return v, nil
}

// DesiredHeadway 期望车头间距 s0 + v*T
func (IDM) DesiredHeadway(params *parameter.Set, speed float64) (float64, error) {
	s0, err := params.Get(parameter.S0)
	if err != nil {
		return 0, err
	}
	t, err := params.Get(parameter.T)
	if err != nil {
		return 0, err
	}
	return s0 + speed*t, nil
}

// FollowingAcceleration 跟驰加速度
// 算法说明：
// 1. 已经发生碰撞（距离小于等于0）时返回负无穷，表示紧急制动
// 2. 期望车距 s* = s0 + max(0, v*T + v*(v-v_leader)/(2*sqrt(a*b)))
// 3. 加速度 a = a_max * (1 - (v/v0)^delta - (s*/s)^2)
func (m IDM) FollowingAcceleration(
	params *parameter.Set, speed float64, sli speedlimit.Info, leaderDistance, leaderSpeed float64,
) (float64, error) {
	v0, err := m.DesiredSpeed(params, sli)
	if err != nil {
		return 0, err
	}
	a, err := params.Get(parameter.A)
	if err != nil {
		return 0, err
	}
	b, err := params.Get(parameter.B)
	if err != nil {
		return 0, err
	}
	s0, err := params.Get(parameter.S0)
	if err != nil {
		return 0, err
	}
	t, err := params.Get(parameter.T)
	if err != nil {
		return 0, err
	}
	delta, ok := params.GetOptional(parameter.DELTA)
	if !ok {
		delta = 4
	}
	if leaderDistance <= 0 {
		return -mathutil.INF, nil
	}
	free := 1 - math.Pow(speed/v0, delta)
	if leaderDistance >= mathutil.INF {
		return a * free, nil
	}
	sStar := s0 + math.Max(0, speed*t+speed*(speed-leaderSpeed)/2/math.Sqrt(a*b))
	return a * (free - math.Pow(sStar/leaderDistance, 2)), nil
}
