package perception

import (
	"fmt"
	"math"

	"github.com/tsinghua-fib-lab/agentsociety-perception/entity"
	"github.com/tsinghua-fib-lab/agentsociety-perception/model/assumption"
	"github.com/tsinghua-fib-lab/agentsociety-perception/perception/object"
	"github.com/tsinghua-fib-lab/agentsociety-perception/utils/config"
	"github.com/tsinghua-fib-lab/agentsociety-perception/utils/errs"
	"github.com/tsinghua-fib-lab/agentsociety-perception/utils/randengine"
)

// GtuFactory 感知保真度：决定被感知车辆以何种方式、何时刻的状态呈现给感知主体
type GtuFactory interface {
	// 名称
	Name() string
	// 感知时刻（now为当前模拟时间）
	Time(now float64) float64
	// 由实时几何关系生成感知车辆
	Perceive(v entity.IVehicle, rel object.Relation) (*object.Gtu, error)
	// 生成的感知结果是否需要与实时实体解耦（冲突区使用快照形式）
	Decoupled() bool
}

var (
	_ GtuFactory = Perfect{}
	_ GtuFactory = Delayed{}
	_ GtuFactory = (*Assumed)(nil)
	_ GtuFactory = Estimated{}
)

// Perfect 完美感知：当前时刻的精确状态
type Perfect struct{}

func (Perfect) Name() string {
	return "perfect"
}

func (Perfect) Time(now float64) float64 {
	return now
}

func (Perfect) Decoupled() bool {
	return false
}

func (Perfect) Perceive(v entity.IVehicle, rel object.Relation) (*object.Gtu, error) {
	now := v.Now()
	k, err := rel.Kinematics(v.SpeedAt(now), v.AccelerationAt(now), v.Length())
	if err != nil {
		return nil, fmt.Errorf("perceive %v: %w", v, err)
	}
	return object.OfGtu(v, k)
}

// Delayed 延迟感知：感知到的是delay秒之前的状态
type Delayed struct {
	Delay float64 // 延迟（秒）
}

func (Delayed) Name() string {
	return "delayed"
}

func (d Delayed) Time(now float64) float64 {
	return now - d.Delay
}

func (Delayed) Decoupled() bool {
	return true
}

// Perceive 延迟感知
// 算法说明：
// 1. 取延迟时刻的速度、加速度、灯光与机动状态
// 2. 估计车辆在延迟期间行驶的距离：同一车道时取位置差，否则取平均速度乘以延迟
// 3. 将实时距离修正为延迟时刻的距离（前方车辆更近，后方车辆更远），并截断到两车总长的下限
func (d Delayed) Perceive(v entity.IVehicle, rel object.Relation) (*object.Gtu, error) {
	now := v.Now()
	t := d.Time(now)
	laneT, sT := v.PositionAt(t)
	laneNow, sNow := v.PositionAt(now)
	vT := v.SpeedAt(t)
	var travelled float64
	if laneT == laneNow {
		travelled = sNow - sT
	} else {
		travelled = (vT + v.SpeedAt(now)) / 2 * d.Delay
	}
	if rel.Ahead {
		rel.Distance -= travelled
	} else {
		rel.Distance += travelled
	}
	rel.Distance = math.Max(rel.Distance, -(v.Length() + rel.ReferenceLength))
	k, err := rel.Kinematics(vT, v.AccelerationAt(t), v.Length())
	if err != nil {
		return nil, fmt.Errorf("perceive %v delayed by %vs: %w", v, d.Delay, err)
	}
	return object.OfGtuAt(v, k, t)
}

// Assumed 假设感知：位置与速度精确，行为（跟驰模型、参数、限速）按车型假设
type Assumed struct {
	Assumptions *assumption.Assumptions
}

func (*Assumed) Name() string {
	return "assumed"
}

func (*Assumed) Time(now float64) float64 {
	return now
}

func (*Assumed) Decoupled() bool {
	return true
}

func (a *Assumed) Perceive(v entity.IVehicle, rel object.Relation) (*object.Gtu, error) {
	now := v.Now()
	k, err := rel.Kinematics(v.SpeedAt(now), v.AccelerationAt(now), v.Length())
	if err != nil {
		return nil, fmt.Errorf("perceive %v: %w", v, err)
	}
	return object.OfGtuAssumed(v, k, now, a.Assumptions)
}

// Estimation 距离与速度的估计误差类型
type Estimation string

const (
	EstimationNone  Estimation = "none"
	EstimationUnder Estimation = "underestimation"
	EstimationOver  Estimation = "overestimation"
	// 按驾驶员个体的随机系数估计
	EstimationFactor Estimation = "factor"
)

const (
	defaultEstimationStd = 0.1
	minEstimationFactor  = 0.5
	maxEstimationFactor  = 1.5
)

// Estimated 估计感知：距离与速度乘以估计系数，系数小于1表示低估
type Estimated struct {
	Estimation Estimation
	Factor     float64
}

// NewEstimated 创建估计感知
// 参数：estimation-估计误差类型，std-误差幅度（低估/高估为固定偏差，factor为标准差），engine-factor模式下的随机数引擎
// 说明：factor模式的系数在创建时对该驾驶员采样一次，此后保持不变
func NewEstimated(estimation Estimation, std float64, engine *randengine.Engine) (Estimated, error) {
	if std <= 0 {
		std = defaultEstimationStd
	}
	e := Estimated{Estimation: estimation}
	switch estimation {
	case EstimationNone, "":
		e.Estimation = EstimationNone
		e.Factor = 1
	case EstimationUnder:
		e.Factor = math.Max(minEstimationFactor, 1-std)
	case EstimationOver:
		e.Factor = math.Min(maxEstimationFactor, 1+std)
	case EstimationFactor:
		if engine == nil {
			return Estimated{}, errs.InvalidArgument("factor estimation needs a random engine")
		}
		e.Factor = engine.TruncNormalSafe(1, std, minEstimationFactor, maxEstimationFactor)
	default:
		return Estimated{}, errs.InvalidArgument("unknown estimation %q", estimation)
	}
	return e, nil
}

func (Estimated) Name() string {
	return "estimated"
}

func (Estimated) Time(now float64) float64 {
	return now
}

func (Estimated) Decoupled() bool {
	return true
}

// Perceive 估计感知
// 说明：只缩放非负距离，已经重叠的关系保持实际值
func (e Estimated) Perceive(v entity.IVehicle, rel object.Relation) (*object.Gtu, error) {
	now := v.Now()
	if rel.Distance > 0 {
		rel.Distance *= e.Factor
	}
	k, err := rel.Kinematics(v.SpeedAt(now)*e.Factor, v.AccelerationAt(now), v.Length())
	if err != nil {
		return nil, fmt.Errorf("perceive %v estimated by %v: %w", v, e.Factor, err)
	}
	return object.OfGtu(v, k)
}

// NewFactory 根据感知配置创建感知保真度
// 参数：p-感知配置，a-车型假设表（assumed模式必需），engine-随机数引擎（estimated/factor模式必需）
func NewFactory(p config.Perception, a *assumption.Assumptions, engine *randengine.Engine) (GtuFactory, error) {
	switch p.Mode {
	case "perfect", "":
		return Perfect{}, nil
	case "delayed":
		return Delayed{Delay: p.Delay}, nil
	case "assumed":
		if a == nil {
			return nil, errs.InvalidArgument("assumed perception needs gtu type assumptions")
		}
		return &Assumed{Assumptions: a}, nil
	case "estimated":
		return NewEstimated(Estimation(p.Estimation), p.EstimationStd, engine)
	default:
		return nil, errs.InvalidArgument("unknown perception mode %q", p.Mode)
	}
}
