package object

import (
	"fmt"
	"math"

	"git.fiblab.net/general/common/v2/mathutil"
	mapv2 "git.fiblab.net/sim/protos/v2/go/city/map/v2"
	"github.com/tsinghua-fib-lab/agentsociety-perception/entity"
	"github.com/tsinghua-fib-lab/agentsociety-perception/perception/kinematics"
	"github.com/tsinghua-fib-lab/agentsociety-perception/utils/errs"
)

const (
	// 两侧冲突区相交检查：每侧中心线的取样段数与距离容差（米）
	extentSampleCount = 8
	overlapTolerance  = 1e-6
	// 判断冲突方向时沿对侧车道向上游回退的距离（米）
	directionLookBack = 10
)

// Conflict 感知到的冲突区（自车一侧）
// 说明：实时包装（LiveConflict）与快照（ConflictSnapshot）两种实现对使用方完全等价
type Conflict interface {
	PerceivedObject

	ConflictType() entity.ConflictType
	IsCrossing() bool
	IsMerge() bool
	IsSplit() bool
	ConflictPriority() entity.ConflictPriority
	ConflictRuleType() string

	// 对侧冲突区长度
	ConflictingLength() float64
	// 对侧冲突区上游可见范围内的车辆，按距离升序，运动学相对对侧冲突区
	UpstreamConflictingGtus() ([]*Gtu, error)
	// 对侧冲突区内及下游可见范围内的车辆，按距离升序，运动学相对对侧冲突区
	DownstreamConflictingGtus() ([]*Gtu, error)
	// 对侧可见距离
	ConflictingVisibility() float64
	// 对侧车道对自车车型的限速
	ConflictingSpeedLimit() float64
	// 对侧车道所属道路
	ConflictingLink() int32
	// 对侧交通从自车的哪一侧驶来
	ConflictingDirection() entity.LateralDirectionality

	// 本侧停止线，运动学相对自车
	StopLine() (Object, bool)
	// 对侧停止线，运动学相对对侧冲突区（位于其后方）
	ConflictingStopLine() (Object, bool)

	// 对侧上游信号灯到对侧冲突区的距离，没有信号灯时返回false
	ConflictingTrafficLightDistance() (float64, bool)
	// 对侧信号灯当前是否放行对侧车流
	IsPermitted() bool

	Width() Width
	WidthAtFraction(f float64) (float64, error)
}

// ConflictEnv 构造感知冲突区的环境
type ConflictEnv struct {
	Visibility float64        // 对侧可见距离
	GtuType    entity.GtuType // 自车车型，用于读取对侧车道限速
	Perceive   GtuPerceiver   // 对侧车辆的感知方式
}

// conflictBase 两种实现共享的部分，构造时一次性计算
type conflictBase struct {
	Object
	conflict   entity.IConflict
	other      entity.IConflict
	visibility float64
	speedLimit float64
	direction  entity.LateralDirectionality
	width      Width
	perceive   GtuPerceiver
}

// newConflictBase 校验对侧冲突区并预计算宽度、方向与限速
// 返回：参数非法时返回ErrInvalidArgument，对侧冲突区与本侧不一致时返回ErrInvalidState
func newConflictBase(c entity.IConflict, k kinematics.Kinematics, env ConflictEnv) (conflictBase, error) {
	if c == nil {
		return conflictBase{}, errs.InvalidArgument("perceived conflict: conflict is nil")
	}
	if env.Perceive == nil {
		return conflictBase{}, errs.InvalidArgument("perceived conflict %s: no gtu perceiver", c.ID())
	}
	if env.Visibility < 0 || math.IsNaN(env.Visibility) {
		return conflictBase{}, errs.InvalidArgument("perceived conflict %s: bad visibility %v", c.ID(), env.Visibility)
	}
	o, err := NewObject(c.ID(), TypeConflict, c.Length(), k)
	if err != nil {
		return conflictBase{}, err
	}
	other, err := checkCounterpart(c)
	if err != nil {
		return conflictBase{}, err
	}
	width, err := conflictWidth(c, other)
	if err != nil {
		return conflictBase{}, err
	}
	speedLimit, err := other.Lane().SpeedLimit(env.GtuType)
	if err != nil {
		log.Debugf("%v: no speed limit on conflicting %v for %v, treated as unlimited", c, other.Lane(), env.GtuType)
		speedLimit = mathutil.INF
	}
	return conflictBase{
		Object:     o,
		conflict:   c,
		other:      other,
		visibility: env.Visibility,
		speedLimit: speedLimit,
		direction:  conflictingDirection(c, other),
		width:      width,
		perceive:   env.Perceive,
	}, nil
}

// checkCounterpart 校验两侧冲突区描述同一物理区域
// 算法说明：
// 1. 对侧的对侧必须是本侧
// 2. 两侧冲突类型一致
// 3. 两侧冲突区在平面上相交：沿两侧中心线等距取点，最近点对的距离不超过两侧半宽之和（另加半个取点间隔）
func checkCounterpart(c entity.IConflict) (entity.IConflict, error) {
	other := c.OtherConflict()
	if other == nil {
		return nil, errs.InvalidState("%v has no counterpart", c)
	}
	if other.OtherConflict() != c {
		return nil, errs.InvalidState("%v: counterpart %v is not linked back", c, other)
	}
	if other.ConflictType() != c.ConflictType() {
		return nil, errs.InvalidState("%v: counterpart type %v differs from %v", c, other.ConflictType(), c.ConflictType())
	}
	mine, theirs := extentSamples(c), extentSamples(other)
	gap := math.Inf(1)
	for _, p := range mine {
		for _, q := range theirs {
			d := math.Hypot(p.X-q.X, p.Y-q.Y) - (p.w+q.w)/2
			gap = math.Min(gap, d)
		}
	}
	step := math.Max(c.Length(), other.Length()) / extentSampleCount
	if gap > step/2+overlapTolerance {
		return nil, errs.InvalidState("%v: counterpart %v is %.3fm away", c, other, gap)
	}
	return other, nil
}

type extentSample struct {
	X, Y float64
	w    float64
}

// extentSamples 冲突区中心线上的等距取样点及该处车道宽度
func extentSamples(c entity.IConflict) []extentSample {
	result := make([]extentSample, 0, extentSampleCount+1)
	for i := 0; i <= extentSampleCount; i++ {
		s := c.S() + c.Length()*float64(i)/extentSampleCount
		p := c.Lane().GetPositionByS(s)
		result = append(result, extentSample{X: p.X, Y: p.Y, w: c.Lane().WidthAt(s)})
	}
	return result
}

// conflictWidth 冲突区宽度剖面
// 算法说明：在两侧冲突区的起点与终点分别取两条车道中心线的距离，加上两侧车道半宽
func conflictWidth(c, other entity.IConflict) (Width, error) {
	at := func(s, otherS float64) float64 {
		p := c.Lane().GetPositionByS(s)
		q := other.Lane().GetPositionByS(otherS)
		return math.Hypot(p.X-q.X, p.Y-q.Y) + c.Lane().WidthAt(s)/2 + other.Lane().WidthAt(otherS)/2
	}
	w, err := LinearWidth(at(c.S(), other.S()), at(c.S()+c.Length(), other.S()+other.Length()))
	if err != nil {
		return Width{}, errs.InvalidState("%v: %v", c, err)
	}
	return w, nil
}

// conflictingDirection 对侧交通从自车的哪一侧驶来
// 算法说明：
// 1. 两车道在冲突区起点的行驶方向不平行时，对侧方向相对本侧逆时针旋转说明从右侧驶来
// 2. 平行（汇入、分流）时取对侧上游一点，按其位于本侧行驶方向的左右判断
func conflictingDirection(c, other entity.IConflict) entity.LateralDirectionality {
	mine := c.Lane().GetDirectionByS(c.S()).Direction
	theirs := other.Lane().GetDirectionByS(other.S()).Direction
	if cross := math.Sin(theirs - mine); math.Abs(cross) > 1e-6 {
		if cross > 0 {
			return entity.LatRight
		}
		return entity.LatLeft
	}
	p := c.Lane().GetPositionByS(c.S())
	q := other.Lane().GetPositionByS(math.Max(0, other.S()-directionLookBack))
	if cross := math.Cos(mine)*(q.Y-p.Y) - math.Sin(mine)*(q.X-p.X); cross > 0 {
		return entity.LatLeft
	} else if cross < 0 {
		return entity.LatRight
	}
	return entity.LatNone
}

func (b *conflictBase) ConflictType() entity.ConflictType {
	return b.conflict.ConflictType()
}

func (b *conflictBase) IsCrossing() bool {
	return b.ConflictType().IsCrossing()
}

func (b *conflictBase) IsMerge() bool {
	return b.ConflictType().IsMerge()
}

func (b *conflictBase) IsSplit() bool {
	return b.ConflictType().IsSplit()
}

func (b *conflictBase) ConflictRuleType() string {
	return b.conflict.ConflictRuleType()
}

func (b *conflictBase) ConflictingLength() float64 {
	return b.other.Length()
}

func (b *conflictBase) ConflictingVisibility() float64 {
	return b.visibility
}

func (b *conflictBase) ConflictingSpeedLimit() float64 {
	return b.speedLimit
}

func (b *conflictBase) ConflictingLink() int32 {
	return b.other.Lane().ParentID()
}

func (b *conflictBase) ConflictingDirection() entity.LateralDirectionality {
	return b.direction
}

func (b *conflictBase) Width() Width {
	return b.width
}

func (b *conflictBase) WidthAtFraction(f float64) (float64, error) {
	return b.width.At(f)
}

// upstreamGtus 对侧上游车辆
func (b *conflictBase) upstreamGtus() ([]*Gtu, error) {
	vds := b.other.UpstreamVehicles(b.visibility)
	result := make([]*Gtu, 0, len(vds))
	for _, vd := range vds {
		g, err := b.perceive(vd.Vehicle, Relation{
			Ahead:               false,
			Distance:            vd.Distance,
			ReferenceLength:     b.other.Length(),
			FacingSameDirection: true,
		})
		if err != nil {
			return nil, fmt.Errorf("upstream of %v: %w", b.other, err)
		}
		result = append(result, g)
	}
	return result, nil
}

// downstreamGtus 对侧冲突区内及下游车辆
// 说明：距离为对侧冲突区终点到车尾，车辆仍在冲突区内时为负
func (b *conflictBase) downstreamGtus() ([]*Gtu, error) {
	vds := b.other.DownstreamVehicles(b.visibility)
	result := make([]*Gtu, 0, len(vds))
	for _, vd := range vds {
		g, err := b.perceive(vd.Vehicle, Relation{
			Ahead:               true,
			Distance:            vd.Distance - b.other.Length(),
			ReferenceLength:     b.other.Length(),
			FacingSameDirection: true,
		})
		if err != nil {
			return nil, fmt.Errorf("downstream of %v: %w", b.other, err)
		}
		result = append(result, g)
	}
	return result, nil
}

// stopLine 本侧停止线，运动学相对自车
func (b *conflictBase) stopLine() (Object, bool) {
	obj, ok := b.conflict.StopLine()
	if !ok {
		return Object{}, false
	}
	d := b.kinematics.Distance() - (b.conflict.S() - obj.S())
	return b.staticObject(obj, d)
}

// conflictingStopLine 对侧停止线，运动学相对对侧冲突区
func (b *conflictBase) conflictingStopLine() (Object, bool) {
	obj, ok := b.other.StopLine()
	if !ok {
		return Object{}, false
	}
	return b.staticObject(obj, -(b.other.S() - obj.S()))
}

func (b *conflictBase) staticObject(obj entity.ILaneBasedObject, d float64) (Object, bool) {
	var (
		k   kinematics.Kinematics
		err error
	)
	if d >= 0 {
		k, err = kinematics.StaticAhead(d)
	} else {
		k, err = kinematics.StaticBehind(-d)
	}
	if err == nil {
		var o Object
		if o, err = OfLaneObject(obj, k); err == nil {
			return o, true
		}
	}
	log.Warnf("%v: skip stop line %s: %v", b.conflict, obj.ID(), err)
	return Object{}, false
}

// ConflictingTrafficLightAt 对侧上游信号灯到对侧冲突区的距离，以及t时刻是否放行对侧车流
// 返回：距离、是否放行、是否存在信号灯
// 说明：只有信控中允许冲突的冲突区，对侧绿灯（黄灯）时才视为放行
func ConflictingTrafficLightAt(other entity.IConflict, maxDistance, t float64) (float64, bool, bool) {
	return conflictingTrafficLight(other, maxDistance, func(l entity.ITrafficLight) mapv2.LightState {
		return l.LightStateAt(t)
	})
}

func conflictingTrafficLight(
	other entity.IConflict, maxDistance float64, stateOf func(entity.ITrafficLight) mapv2.LightState,
) (float64, bool, bool) {
	light, d, ok := other.UpstreamTrafficLight(maxDistance)
	if !ok {
		return 0, false, false
	}
	state := stateOf(light)
	pass := state == greenLight || state == yellowLight
	return d, other.IsPermitted() && pass, true
}
