package task

import (
	"fmt"

	"github.com/tsinghua-fib-lab/agentsociety-perception/clock"
	"github.com/tsinghua-fib-lab/agentsociety-perception/entity/conflict"
	"github.com/tsinghua-fib-lab/agentsociety-perception/entity/lane"
	"github.com/tsinghua-fib-lab/agentsociety-perception/entity/trafficlight"
	"github.com/tsinghua-fib-lab/agentsociety-perception/entity/vehicle"
	"github.com/tsinghua-fib-lab/agentsociety-perception/model/assumption"
	"github.com/tsinghua-fib-lab/agentsociety-perception/perception"
	"github.com/tsinghua-fib-lab/agentsociety-perception/utils/config"
	"github.com/tsinghua-fib-lab/agentsociety-perception/utils/randengine"
)

// Context 演示任务上下文
// 功能：包含一次演示任务的所有变量和状态：时钟、路网、车辆与各车的感知保真度
// 说明：感知阶段只读，更新阶段写入，两阶段由Run串行调度
type Context struct {
	// 时钟
	clock *clock.Clock
	// 运行时配置文件
	runtimeConfig *config.RuntimeConfig

	// Lane管理器
	laneManager *lane.Manager
	// 车辆管理器
	vehicleManager *vehicle.Manager

	lights    map[string]*trafficlight.TrafficLight
	stopLines map[string]*lane.Object
	conflicts []*conflict.Conflict

	// 行为假设表，assumed模式使用
	assumptions *assumption.Assumptions
	// 随机数引擎，estimated/factor模式为每个驾驶员采样估计系数
	engine *randengine.Engine
	// 每辆车的感知保真度
	factories map[string]perception.GtuFactory

	// 感知主体车辆ID，为空时不输出感知结果
	ego string
}

// NewContext 创建新的演示任务上下文
// 功能：校验配置并创建时钟、管理器与行为假设表
// 参数：c-配置对象
// 返回：配置非法时返回错误
func NewContext(c config.Config) (*Context, error) {
	rc, err := config.NewRuntimeConfig(c)
	if err != nil {
		return nil, err
	}
	a, err := assumption.FromConfig(c.Assumptions)
	if err != nil {
		return nil, err
	}
	ctx := &Context{
		runtimeConfig: rc,
		laneManager:   lane.NewManager(),
		lights:        make(map[string]*trafficlight.TrafficLight),
		stopLines:     make(map[string]*lane.Object),
		conflicts:     make([]*conflict.Conflict, 0),
		assumptions:   a,
		engine:        randengine.New(rc.P.Seed),
		factories:     make(map[string]perception.GtuFactory),
		ego:           c.Scenario.Ego,
	}
	ctx.clock = clock.New(c.Control.Step)
	ctx.vehicleManager = vehicle.NewManager(ctx.clock)
	return ctx, nil
}

func (ctx *Context) Clock() *clock.Clock {
	return ctx.clock
}

func (ctx *Context) LaneManager() *lane.Manager {
	return ctx.laneManager
}

func (ctx *Context) VehicleManager() *vehicle.Manager {
	return ctx.vehicleManager
}

func (ctx *Context) RuntimeConfig() *config.RuntimeConfig {
	return ctx.runtimeConfig
}

func (ctx *Context) Conflicts() []*conflict.Conflict {
	return ctx.conflicts
}

// Init 按场景构建路网与车辆
// 算法说明：
// 1. 车道（含宽度与分车型限速）
// 2. 信号灯、停止线
// 3. 冲突区对（依赖停止线）
// 4. 车辆及其感知保真度
// 5. 执行一次Prepare使初始车辆进入车道链表
func (ctx *Context) Init() error {
	ctx.clock.Init()
	s := ctx.runtimeConfig.All.Scenario

	log.Infof("Lane: %v", len(s.Lanes))
	log.Infof("Light: %v", len(s.Lights))
	log.Infof("Conflict: %v", len(s.Conflicts))
	log.Infof("Vehicle: %v", len(s.Vehicles))

	if err := ctx.initLanes(s.Lanes); err != nil {
		return err
	}
	if err := ctx.initLights(s.Lights); err != nil {
		return err
	}
	if err := ctx.initStopLines(s.StopLines); err != nil {
		return err
	}
	if err := ctx.initConflicts(s.Conflicts); err != nil {
		return err
	}
	if err := ctx.initVehicles(s.Vehicles); err != nil {
		return err
	}
	for _, c := range s.Vehicles {
		f, err := perception.NewFactory(ctx.runtimeConfig.P, ctx.assumptions, ctx.engine)
		if err != nil {
			return err
		}
		ctx.factories[c.ID] = f
	}
	if ctx.ego != "" {
		if _, err := ctx.vehicleManager.GetOrError(ctx.ego); err != nil {
			return fmt.Errorf("ego: %w", err)
		}
	}
	ctx.laneManager.Prepare()
	ctx.vehicleManager.Prepare()
	return nil
}

// Perception 指定车辆当前时刻的车道感知
func (ctx *Context) Perception(id string) (*perception.LanePerception, error) {
	v, err := ctx.vehicleManager.GetOrError(id)
	if err != nil {
		return nil, err
	}
	f, ok := ctx.factories[id]
	if !ok {
		return nil, fmt.Errorf("no perception factory for vehicle %s", id)
	}
	return perception.New(v, f, ctx.runtimeConfig.P), nil
}
