package task

import (
	"flag"
	"fmt"
	"math"
	"sync"

	"git.fiblab.net/general/common/v2/mathutil"
	"git.fiblab.net/general/common/v2/parallel"
	"github.com/samber/lo"
	"github.com/tsinghua-fib-lab/agentsociety-perception/entity"
	"github.com/tsinghua-fib-lab/agentsociety-perception/entity/vehicle"
	"github.com/tsinghua-fib-lab/agentsociety-perception/perception"
	"github.com/tsinghua-fib-lab/agentsociety-perception/perception/object"
)

const (
	maxBraking = -9 // 最大制动减速度（米/秒²）
)

var (
	heartBeatInterval = flag.Int("log.heartbeat_interval", 100, "心跳日志间隔步数")
)

// step 一辆车在本步的更新结果
type step struct {
	v     *vehicle.Vehicle
	state vehicle.State
	exit  bool // 驶出路网
	err   error
}

// prepare 准备阶段，每步执行一次
// 算法说明：
// 1. 更新时钟
// 2. 心跳日志：定期输出当前时间与车辆数
// 3. 并行准备：车道链表与车辆列表的缓冲区生效
func (ctx *Context) prepare() {
	ctx.clock.Next()
	if ctx.clock.Step%int32(*heartBeatInterval) == 0 {
		hour, minute, second := ctx.clock.GetHourMinuteSecond()
		log.Infof(
			"STEP: %d(%d:%d:%.2f) vehicles: %d",
			ctx.clock.Step,
			hour, minute, second,
			len(ctx.vehicleManager.Vehicles()),
		)
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		ctx.laneManager.Prepare() // lane
	}()
	wg.Add(1)
	go func() {
		defer wg.Done()
		ctx.vehicleManager.Prepare() // vehicle
	}()
	wg.Wait()
}

// update 更新阶段，每步执行一次
// 算法说明：
// 1. 感知主体输出本步的感知结果
// 2. 并行计算：每辆车基于自身的车道感知（前车与前方红灯）按跟驰模型计算新状态，期间路网只读
// 3. 串行写入：记录新状态或移除驶出路网的车辆（Prepare后生效）
func (ctx *Context) update() error {
	if err := ctx.logEgo(); err != nil {
		return err
	}
	steps := parallel.GoMap(ctx.vehicleManager.Vehicles(), ctx.drive)
	for _, s := range steps {
		if s.err != nil {
			return fmt.Errorf("%v: %w", s.v, s.err)
		}
		if s.exit {
			log.Debugf("%v leaves the network", s.v)
			ctx.vehicleManager.Remove(s.v)
			continue
		}
		if err := s.v.Record(s.state); err != nil {
			return err
		}
	}
	return nil
}

// drive 计算一辆车在本步的新状态
func (ctx *Context) drive(v *vehicle.Vehicle) step {
	p, err := ctx.Perception(v.ID())
	if err != nil {
		return step{v: v, err: err}
	}
	gap, leaderSpeed, err := ctx.obstacle(p)
	if err != nil {
		return step{v: v, err: err}
	}
	now, dt := ctx.clock.Now(), ctx.clock.DT
	sli, err := object.ActualBehavior(v, now).SpeedLimitInfo()
	if err != nil {
		return step{v: v, err: err}
	}
	acc, err := v.CarFollowingModel().FollowingAcceleration(v.Parameters(), v.V(), sli, gap, leaderSpeed)
	if err != nil {
		return step{v: v, err: err}
	}
	acc = math.Max(acc, maxBraking)
	speed := math.Max(0, v.V()+acc*dt)
	s := v.S() + (v.V()+speed)/2*dt
	lane := v.Lane()
	for s > lane.Length() {
		next, ok := nextLane(v, lane)
		if !ok {
			return step{v: v, exit: true}
		}
		s -= lane.Length()
		lane = next
	}
	return step{v: v, state: vehicle.State{
		Lane:      lane,
		S:         s,
		V:         speed,
		A:         acc,
		Indicator: v.TurnIndicatorAt(now),
		Braking:   acc < 0,
	}}
}

// obstacle 最近的障碍：前车或前方不可通行的信号灯
// 返回：净距（无障碍时为mathutil.INF）与障碍速度
func (ctx *Context) obstacle(p *perception.LanePerception) (float64, float64, error) {
	gap, speed := mathutil.INF, 0.
	leader, ok, err := p.Leader()
	if err != nil {
		return 0, 0, err
	}
	if ok {
		gap, speed = leader.Kinematics().Distance(), leader.Kinematics().Speed()
	}
	lights, err := p.TrafficLights()
	if err != nil {
		return 0, 0, err
	}
	if light, ok := lo.Find(lights, func(l object.TrafficLight) bool { return !l.CanPass() }); ok {
		if d := light.Kinematics().Distance(); d < gap {
			gap, speed = d, 0
		}
	}
	return gap, speed, nil
}

// nextLane 车辆驶出当前车道后进入的车道，优先选择路径上的后继车道
func nextLane(v entity.IVehicle, lane entity.ILane) (entity.ILane, bool) {
	successors := lane.Successors()
	if len(successors) == 0 {
		return nil, false
	}
	if route, ok := v.Route(); ok {
		if next, ok := lo.Find(successors, func(l entity.ILane) bool { return route.Contains(l.ID()) }); ok {
			return next, true
		}
	}
	return successors[0], true
}

// logEgo 输出感知主体的感知结果
func (ctx *Context) logEgo() error {
	if ctx.ego == "" {
		return nil
	}
	if _, err := ctx.vehicleManager.GetOrError(ctx.ego); err != nil {
		// 已驶出路网
		return nil
	}
	p, err := ctx.Perception(ctx.ego)
	if err != nil {
		return err
	}
	snap, err := p.Perceive()
	if err != nil {
		return err
	}
	log.Infof(
		"[%v] %s perceived by %s: %d leaders, %d followers, %d objects, %d lights, %d conflicts",
		ctx.clock, ctx.ego, p.Factory().Name(),
		len(snap.Leaders), len(snap.Followers), len(snap.Objects), len(snap.TrafficLights), len(snap.Conflicts),
	)
	for _, g := range snap.Leaders {
		log.Debugf("  leader %v", g)
	}
	for _, c := range snap.Conflicts {
		log.Debugf("  conflict %v", c)
	}
	return nil
}

// Run 运行
func (ctx *Context) Run() error {
	if err := ctx.Init(); err != nil {
		return err
	}
	for ctx.clock.Step+1 < ctx.clock.END_STEP {
		ctx.prepare()
		if err := ctx.update(); err != nil {
			return err
		}
		log.Debugf("step %d: update complete", ctx.clock.Step)
	}
	log.Infof("engine complete")
	return nil
}
