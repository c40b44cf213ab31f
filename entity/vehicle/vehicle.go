package vehicle

import (
	"fmt"
	"math"
	"sort"

	"github.com/tsinghua-fib-lab/agentsociety-perception/clock"
	"github.com/tsinghua-fib-lab/agentsociety-perception/entity"
	"github.com/tsinghua-fib-lab/agentsociety-perception/model/following"
	"github.com/tsinghua-fib-lab/agentsociety-perception/model/parameter"
	"github.com/tsinghua-fib-lab/agentsociety-perception/utils/container"
	"github.com/tsinghua-fib-lab/agentsociety-perception/utils/errs"
)

const (
	defaultHistoryLength = 10 // 默认保留的历史状态时长（秒）
)

// State 车辆在某一时刻的状态
type State struct {
	Lane       entity.ILane                 // 所在车道
	S          float64                      // 车头在车道上的位置
	V          float64                      // 速度
	A          float64                      // 加速度
	Indicator  entity.TurnIndicatorStatus   // 转向灯
	Braking    bool                         // 刹车灯
	LaneChange entity.LateralDirectionality // 正在进行的变道方向
	Deviation  float64                      // 相对车道中心线的横向偏移，左正右负
}

type record struct {
	State
	t float64
}

// Base 车辆的静态属性
type Base struct {
	ID         string
	GtuType    entity.GtuType
	Length     float64
	Width      float64
	MaxSpeed   float64
	Model      following.Model
	Parameters *parameter.Set
	Route      *entity.Route // 可为空
}

var _ entity.IVehicle = (*Vehicle)(nil)

// Vehicle 车辆实体
// 功能：保存车辆的静态属性与按时间排列的状态历史，所有查询都针对指定时刻回答
// 说明：状态只在模拟更新阶段由Record写入，感知阶段只读
type Vehicle struct {
	container.IncrementalItemBase

	clock *clock.Clock

	id       string
	gtuType  entity.GtuType
	length   float64
	width    float64
	maxSpeed float64
	model    following.Model
	params   *parameter.Set
	route    *entity.Route

	history       []record // 按时间升序
	historyLength float64  // 历史状态保留时长（秒）

	node *entity.VehicleNode // 车道链表节点
}

// New 创建车辆
// 返回：ID为空、尺寸非正或缺少跟驰模型时返回ErrInvalidArgument
func New(base Base, clk *clock.Clock) (*Vehicle, error) {
	if base.ID == "" {
		return nil, errs.InvalidArgument("vehicle id is empty")
	}
	if base.Length <= 0 || base.Width <= 0 {
		return nil, errs.InvalidArgument("vehicle %s: non-positive size %vx%v", base.ID, base.Length, base.Width)
	}
	if base.Model == nil {
		return nil, errs.InvalidArgument("vehicle %s: no car-following model", base.ID)
	}
	params := base.Parameters
	if params == nil {
		params = parameter.NewSet()
	}
	v := &Vehicle{
		clock:         clk,
		id:            base.ID,
		gtuType:       base.GtuType,
		length:        base.Length,
		width:         base.Width,
		maxSpeed:      base.MaxSpeed,
		model:         base.Model,
		params:        params,
		route:         base.Route,
		history:       make([]record, 0),
		historyLength: defaultHistoryLength,
	}
	v.node = &entity.VehicleNode{Value: v}
	return v, nil
}

// SetHistoryLength 设置历史状态保留时长，应不小于最大的感知延迟
func (v *Vehicle) SetHistoryLength(seconds float64) {
	v.historyLength = seconds
}

// Record 记录当前时刻的状态
// 功能：校验并追加一条状态记录，同步维护车道链表
// 参数：st-当前时刻的状态
// 返回：状态非法时返回ErrInvalidArgument
// 算法说明：
// 1. 校验车道、位置、转向灯与横向偏移
// 2. 同一时刻重复记录时覆盖上一条
// 3. 车道变化时从旧车道链表移除，并以新节点加入新车道链表（Prepare后生效）
// 4. 丢弃超出保留时长的历史，但保留截止时刻前的最后一条
func (v *Vehicle) Record(st State) error {
	if st.Lane == nil {
		return errs.InvalidArgument("vehicle %s: no lane", v.id)
	}
	if st.S < 0 || st.S > st.Lane.Length() {
		return errs.InvalidArgument("vehicle %s: s=%v out of %v", v.id, st.S, st.Lane)
	}
	if !st.Indicator.IsValid() {
		return errs.InvalidArgument("vehicle %s: missing turn indicator status", v.id)
	}
	if math.IsNaN(st.Deviation) || math.IsNaN(st.V) || math.IsNaN(st.A) {
		return errs.InvalidArgument("vehicle %s: NaN in state %+v", v.id, st)
	}
	now := v.clock.Now()
	var oldLane entity.ILane
	if n := len(v.history); n > 0 {
		last := v.history[n-1]
		if now < last.t {
			return errs.InvalidState("vehicle %s: record at %v before last record %v", v.id, now, last.t)
		}
		oldLane = last.Lane
		if now == last.t {
			v.history = v.history[:n-1]
		}
	}
	v.history = append(v.history, record{State: st, t: now})
	if oldLane != st.Lane {
		// 旧节点的移除在Prepare时才生效，新车道使用新节点
		if oldLane != nil {
			oldLane.RemoveVehicle(v.node)
			v.node = &entity.VehicleNode{Value: v}
		}
		v.node.S = st.S
		st.Lane.AddVehicle(v.node)
	} else {
		v.node.S = st.S
	}
	cutoff := now - v.historyLength
	if i := sort.Search(len(v.history), func(i int) bool { return v.history[i].t > cutoff }); i > 1 {
		v.history = v.history[i-1:]
	}
	return nil
}

// stateAt 查询t时刻的状态
// 说明：早于最早记录的时刻返回最早记录（车辆出现之前视为静止在出现位置）
func (v *Vehicle) stateAt(t float64) record {
	if len(v.history) == 0 {
		log.Panicf("vehicle %s: state queried before any record", v.id)
	}
	i := sort.Search(len(v.history), func(i int) bool { return v.history[i].t > t })
	if i == 0 {
		log.Debugf("vehicle %s: state at %v before first record %v", v.id, t, v.history[0].t)
		return v.history[0]
	}
	return v.history[i-1]
}

func (v *Vehicle) String() string {
	return fmt.Sprintf("Vehicle %s", v.id)
}

// 静态属性

func (v *Vehicle) ID() string {
	return v.id
}

func (v *Vehicle) GtuType() entity.GtuType {
	return v.gtuType
}

func (v *Vehicle) Length() float64 {
	return v.length
}

func (v *Vehicle) Width() float64 {
	return v.width
}

func (v *Vehicle) MaxSpeed() float64 {
	return v.maxSpeed
}

func (v *Vehicle) CarFollowingModel() following.Model {
	return v.model
}

// Parameters 行为参数（实时，调用方需自行拷贝）
func (v *Vehicle) Parameters() *parameter.Set {
	return v.params
}

func (v *Vehicle) Route() (entity.Route, bool) {
	if v.route == nil {
		return entity.Route{}, false
	}
	return *v.route, true
}

// 当前状态

func (v *Vehicle) Now() float64 {
	return v.clock.Now()
}

func (v *Vehicle) V() float64 {
	return v.stateAt(v.clock.Now()).V
}

func (v *Vehicle) Lane() entity.ILane {
	return v.stateAt(v.clock.Now()).Lane
}

func (v *Vehicle) S() float64 {
	return v.stateAt(v.clock.Now()).S
}

// Node 车道链表节点
func (v *Vehicle) Node() *entity.VehicleNode {
	return v.node
}

// 按时刻查询

func (v *Vehicle) PositionAt(t float64) (entity.ILane, float64) {
	r := v.stateAt(t)
	return r.Lane, r.S
}

func (v *Vehicle) SpeedAt(t float64) float64 {
	return v.stateAt(t).V
}

func (v *Vehicle) AccelerationAt(t float64) float64 {
	return v.stateAt(t).A
}

func (v *Vehicle) TurnIndicatorAt(t float64) entity.TurnIndicatorStatus {
	return v.stateAt(t).Indicator
}

func (v *Vehicle) BrakingLightsAt(t float64) bool {
	return v.stateAt(t).Braking
}

func (v *Vehicle) LaneChangeDirectionAt(t float64) entity.LateralDirectionality {
	return v.stateAt(t).LaneChange
}

func (v *Vehicle) DeviationAt(t float64) float64 {
	return v.stateAt(t).Deviation
}
