package trafficlight

import (
	"fmt"
	"math"

	"git.fiblab.net/general/common/v2/mathutil"
	mapv2 "git.fiblab.net/sim/protos/v2/go/city/map/v2"
	"github.com/samber/lo"
	"github.com/tsinghua-fib-lab/agentsociety-perception/clock"
	"github.com/tsinghua-fib-lab/agentsociety-perception/entity"
	"github.com/tsinghua-fib-lab/agentsociety-perception/utils/errs"
)

var _ entity.ITrafficLight = (*TrafficLight)(nil)

// TrafficLight 固定配时信号灯
// 功能：按照预设的相位顺序和时长循环切换，灯色是时间的纯函数，因此可以回答任意时刻的灯色（用于延迟感知）
// 说明：程序为空或被取消时保持绿灯
type TrafficLight struct {
	clock *clock.Clock

	id         string
	lane       entity.ILane
	s          float64
	tl         *mapv2.TrafficLight // 信号灯程序
	stateIndex int                 // 本灯在相位States中的下标
	offset     float64             // 相位偏移（秒）
	cycle      float64             // 周期时长
	turnOnRed  bool
}

// New 创建固定配时信号灯并登记到车道上
// 参数：id-信号灯ID，lane-所在车道，s-位置，tl-信号灯程序，stateIndex-本灯在相位中的下标，offset-相位偏移，turnOnRed-是否允许红灯右转
// 返回：位置不在车道上或程序非法时返回ErrInvalidArgument
func New(
	clk *clock.Clock, id string, lane entity.ILane, s float64,
	tl *mapv2.TrafficLight, stateIndex int, offset float64, turnOnRed bool,
) (*TrafficLight, error) {
	if s < 0 || s > lane.Length() {
		return nil, errs.InvalidArgument("traffic light %s: s=%v out of %v", id, s, lane)
	}
	l := &TrafficLight{
		clock:      clk,
		id:         id,
		lane:       lane,
		s:          s,
		stateIndex: stateIndex,
		offset:     offset,
		turnOnRed:  turnOnRed,
	}
	if err := l.Set(tl); err != nil {
		return nil, err
	}
	lane.AddObject(l)
	return l, nil
}

// Set 设置信号灯程序
// 返回：程序为空、相位缺少本灯状态或周期非正时返回ErrInvalidArgument
func (l *TrafficLight) Set(tl *mapv2.TrafficLight) error {
	if tl == nil || len(tl.Phases) == 0 {
		return errs.InvalidArgument("traffic light %s: set with empty program", l.id)
	}
	for i, p := range tl.Phases {
		if len(p.States) <= l.stateIndex {
			return errs.InvalidArgument("traffic light %s: phase %d has %d states, need index %d", l.id, i, len(p.States), l.stateIndex)
		}
		if p.Duration < 0 {
			return errs.InvalidArgument("traffic light %s: phase %d has negative duration", l.id, i)
		}
	}
	cycle := lo.SumBy(tl.Phases, func(p *mapv2.Phase) float64 { return p.Duration })
	if cycle <= 0 {
		return errs.InvalidArgument("traffic light %s: non-positive cycle", l.id)
	}
	l.tl = tl
	l.cycle = cycle
	return nil
}

// Unset 取消信号灯程序，信号灯变为常绿
func (l *TrafficLight) Unset() {
	l.tl = nil
	l.cycle = 0
}

// StateAt 查询t时刻的灯色与剩余时间
// 算法说明：
// 1. 计算t在周期内的位置
// 2. 顺序遍历相位，找到所在相位
// 3. 剩余时间累加后续灯色相同的相位
func (l *TrafficLight) StateAt(t float64) (mapv2.LightState, float64) {
	if l.tl == nil {
		return mapv2.LightState_LIGHT_STATE_GREEN, mathutil.INF
	}
	tau := math.Mod(t+l.offset, l.cycle)
	if tau < 0 {
		tau += l.cycle
	}
	n := len(l.tl.Phases)
	for i, p := range l.tl.Phases {
		if tau < p.Duration {
			state := p.States[l.stateIndex]
			remaining := p.Duration - tau
			for j := 1; j < n; j++ {
				next := l.tl.Phases[(i+j)%n]
				if next.States[l.stateIndex] != state {
					return state, remaining
				}
				remaining += next.Duration
			}
			// 所有相位灯色相同
			return state, mathutil.INF
		}
		tau -= p.Duration
	}
	// 浮点误差落到周期末尾
	return l.tl.Phases[n-1].States[l.stateIndex], 0
}

func (l *TrafficLight) String() string {
	return fmt.Sprintf("TrafficLight %s", l.id)
}

func (l *TrafficLight) ID() string {
	return l.id
}

func (l *TrafficLight) Kind() entity.LaneObjectKind {
	return entity.TrafficLightObject
}

func (l *TrafficLight) Lane() entity.ILane {
	return l.lane
}

func (l *TrafficLight) S() float64 {
	return l.s
}

// Length 信号灯没有长度
func (l *TrafficLight) Length() float64 {
	return 0
}

// LightState 当前灯色
func (l *TrafficLight) LightState() mapv2.LightState {
	state, _ := l.StateAt(l.clock.Now())
	return state
}

// LightStateAt 指定时刻的灯色
func (l *TrafficLight) LightStateAt(t float64) mapv2.LightState {
	state, _ := l.StateAt(t)
	return state
}

func (l *TrafficLight) TurnOnRed() bool {
	return l.turnOnRed
}
