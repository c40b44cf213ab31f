// 车道感知：在每个决策步为一辆车（感知主体）生成周围车辆、车道物体、信号灯与冲突区的感知结果
package perception

import (
	"fmt"
	"slices"

	"github.com/tsinghua-fib-lab/agentsociety-perception/entity"
	"github.com/tsinghua-fib-lab/agentsociety-perception/perception/kinematics"
	"github.com/tsinghua-fib-lab/agentsociety-perception/perception/object"
	"github.com/tsinghua-fib-lab/agentsociety-perception/utils/config"
	"github.com/tsinghua-fib-lab/agentsociety-perception/utils/errs"
)

// LanePerception 一辆车在一个决策步内的车道感知
// 功能：扫描实时路网，按感知保真度生成前车、后车、车道物体、信号灯与冲突区
// 说明：只读取路网与车辆状态，调用方需保证感知期间没有实体被修改（感知与更新分阶段进行）；
// 结果只在本决策步内有效
type LanePerception struct {
	ego     entity.IVehicle
	factory GtuFactory
	cfg     config.Perception
}

// New 创建车道感知
// 参数：ego-感知主体，factory-感知保真度，cfg-感知配置（可视距离、前向与后向感知距离）
func New(ego entity.IVehicle, factory GtuFactory, cfg config.Perception) *LanePerception {
	return &LanePerception{ego: ego, factory: factory, cfg: cfg}
}

func (p *LanePerception) Ego() entity.IVehicle {
	return p.ego
}

func (p *LanePerception) Factory() GtuFactory {
	return p.factory
}

func (p *LanePerception) route() *entity.Route {
	if r, ok := p.ego.Route(); ok {
		return &r
	}
	return nil
}

func (p *LanePerception) isEgo(v entity.IVehicle) bool {
	return v.ID() == p.ego.ID()
}

// Leaders 前向感知距离内的前车，按距离升序
// 说明：距离为自车车头到前车车尾，前车车头超过自车车头但车尾未超过时为并行关系
func (p *LanePerception) Leaders() ([]*object.Gtu, error) {
	lane, s := p.ego.Lane(), p.ego.S()
	result := make([]*object.Gtu, 0)
	var err error
	walkDownstream(lane, s, p.cfg.LookAhead, p.route(), func(dl downstreamLane) bool {
		node := dl.lane.Vehicles().First()
		if dl.lane == lane {
			node = dl.lane.Vehicles().FirstAtOrAfter(dl.lower)
		}
		for ; node != nil && err == nil; node = node.Next() {
			if (dl.lane == lane && node.S == dl.lower) || p.isEgo(node.Value) {
				continue
			}
			d := dl.offset + node.S - node.L()
			if d > p.cfg.LookAhead {
				continue
			}
			var g *object.Gtu
			g, err = p.factory.Perceive(node.Value, object.Relation{
				Ahead:               true,
				Distance:            d,
				ReferenceLength:     p.ego.Length(),
				FacingSameDirection: true,
			})
			if err == nil {
				result = append(result, g)
			}
		}
		return err == nil
	})
	if err != nil {
		return nil, fmt.Errorf("leaders of %v: %w", p.ego, err)
	}
	sortByKinematics(result)
	return result, nil
}

// Leader 最近的前车
func (p *LanePerception) Leader() (*object.Gtu, bool, error) {
	leaders, err := p.Leaders()
	if err != nil || len(leaders) == 0 {
		return nil, false, err
	}
	return leaders[0], true, nil
}

// Followers 后向感知距离内的后车，按距离升序
// 说明：距离为后车车头到自车车尾
func (p *LanePerception) Followers() ([]*object.Gtu, error) {
	lane, s := p.ego.Lane(), p.ego.S()
	result := make([]*object.Gtu, 0)
	var err error
	walkUpstream(lane, s-p.ego.Length(), s, p.cfg.LookBack, func(ul upstreamLane) bool {
		for node := ul.lane.Vehicles().LastAtOrBefore(ul.upper); node != nil && err == nil; node = node.Prev() {
			if p.isEgo(node.Value) {
				continue
			}
			d := ul.offset - node.S
			if d > p.cfg.LookBack {
				break
			}
			var g *object.Gtu
			g, err = p.factory.Perceive(node.Value, object.Relation{
				Ahead:               false,
				Distance:            d,
				ReferenceLength:     p.ego.Length(),
				FacingSameDirection: true,
			})
			if err == nil {
				result = append(result, g)
			}
		}
		return err == nil
	})
	if err != nil {
		return nil, fmt.Errorf("followers of %v: %w", p.ego, err)
	}
	sortByKinematics(result)
	return result, nil
}

// laneObjectsAhead 前向感知距离内的车道物体及其距离
func (p *LanePerception) laneObjectsAhead(accept func(obj entity.ILaneBasedObject) bool) ([]entity.ILaneBasedObject, []float64) {
	lane, s := p.ego.Lane(), p.ego.S()
	objects, distances := make([]entity.ILaneBasedObject, 0), make([]float64, 0)
	walkDownstream(lane, s, p.cfg.LookAhead, p.route(), func(dl downstreamLane) bool {
		for _, obj := range dl.lane.Objects() {
			if obj.S() < dl.lower || !accept(obj) {
				continue
			}
			if d := dl.offset + obj.S(); d <= p.cfg.LookAhead {
				objects = append(objects, obj)
				distances = append(distances, d)
			}
		}
		return true
	})
	return objects, distances
}

// Objects 前方的停止线、公交站与一般物体，按距离升序
func (p *LanePerception) Objects() ([]object.Object, error) {
	objects, distances := p.laneObjectsAhead(func(obj entity.ILaneBasedObject) bool {
		return obj.Kind() != entity.TrafficLightObject
	})
	result := make([]object.Object, 0, len(objects))
	for i, obj := range objects {
		k, err := kinematics.StaticAhead(distances[i])
		if err != nil {
			return nil, err
		}
		o, err := object.OfLaneObject(obj, k)
		if err != nil {
			return nil, err
		}
		result = append(result, o)
	}
	sortByKinematics(result)
	return result, nil
}

// TrafficLights 前方的信号灯，灯色为感知时刻的灯色，按距离升序
func (p *LanePerception) TrafficLights() ([]object.TrafficLight, error) {
	objects, distances := p.laneObjectsAhead(func(obj entity.ILaneBasedObject) bool {
		return obj.Kind() == entity.TrafficLightObject
	})
	t := p.factory.Time(p.ego.Now())
	result := make([]object.TrafficLight, 0, len(objects))
	for i, obj := range objects {
		light, ok := obj.(entity.ITrafficLight)
		if !ok {
			log.Panicf("object %s has traffic light kind but is %T", obj.ID(), obj)
		}
		k, err := kinematics.StaticAhead(distances[i])
		if err != nil {
			return nil, err
		}
		l, err := object.OfTrafficLight(light, k, t)
		if err != nil {
			return nil, err
		}
		result = append(result, l)
	}
	sortByKinematics(result)
	return result, nil
}

// Conflicts 前向感知距离内尚未完全驶过的冲突区，按距离升序
// 算法说明：
// 1. 沿下游车道收集冲突区，自车车道上只保留终点在自车车尾之前的冲突区
// 2. 车尾仍在前驱车道上时，同样收集前驱车道上终点在车尾之前的冲突区
// 3. 冲突区相对自车的距离为自车车头到冲突区起点，自车已进入冲突区时为并行关系
// 4. 完美感知且未要求快照时使用实时包装，否则使用快照并按感知时刻设置对侧信号灯
func (p *LanePerception) Conflicts() ([]object.Conflict, error) {
	lane, s := p.ego.Lane(), p.ego.S()
	rear := s - p.ego.Length()
	type found struct {
		conflict entity.IConflict
		distance float64
	}
	founds := make([]found, 0)
	walkDownstream(lane, s, p.cfg.LookAhead, p.route(), func(dl downstreamLane) bool {
		for _, c := range dl.lane.Conflicts() {
			if dl.lane == lane && c.S()+c.Length() <= rear {
				continue
			}
			if d := dl.offset + c.S(); d <= p.cfg.LookAhead {
				founds = append(founds, found{conflict: c, distance: d})
			}
		}
		return true
	})
	// 只展开与车身重叠的前驱车道
	walkUpstream(lane, rear, rear, 0, func(ul upstreamLane) bool {
		if ul.lane == lane {
			return true
		}
		for _, c := range ul.lane.Conflicts() {
			if ul.offset-(c.S()+c.Length()) >= 0 {
				continue
			}
			founds = append(founds, found{conflict: c, distance: c.S() - ul.offset - p.ego.Length()})
		}
		return true
	})
	env := object.ConflictEnv{
		Visibility: p.cfg.Visibility,
		GtuType:    p.ego.GtuType(),
		Perceive:   p.factory.Perceive,
	}
	snapshot := p.factory.Decoupled() || p.cfg.ConflictSnapshot
	t := p.factory.Time(p.ego.Now())
	result := make([]object.Conflict, 0, len(founds))
	for _, f := range founds {
		k, err := kinematics.DynamicAhead(f.distance, 0, 0, true, f.conflict.Length(), p.ego.Length())
		if err != nil {
			return nil, fmt.Errorf("%v: %w", f.conflict, err)
		}
		if !snapshot {
			c, err := object.NewLiveConflict(f.conflict, k, env)
			if err != nil {
				return nil, err
			}
			result = append(result, c)
			continue
		}
		c, err := object.NewConflictSnapshot(f.conflict, k, env, t)
		if err != nil {
			return nil, err
		}
		if d, permitted, ok := object.ConflictingTrafficLightAt(f.conflict.OtherConflict(), p.cfg.Visibility, t); ok {
			if err := c.SetConflictingTrafficLight(d, permitted); err != nil {
				return nil, err
			}
		}
		result = append(result, c)
	}
	sortByKinematics(result)
	return result, nil
}

// Snapshot 一次完整的感知结果
type Snapshot struct {
	Time          float64
	Leaders       []*object.Gtu
	Followers     []*object.Gtu
	Objects       []object.Object
	TrafficLights []object.TrafficLight
	Conflicts     []object.Conflict
}

// Perceive 执行一次完整的感知
// 返回：任一部分失败时返回错误，本次感知作废
func (p *LanePerception) Perceive() (*Snapshot, error) {
	if p.ego.Lane() == nil {
		return nil, errs.InvalidState("%v is not on any lane", p.ego)
	}
	snap := &Snapshot{Time: p.factory.Time(p.ego.Now())}
	var err error
	if snap.Leaders, err = p.Leaders(); err != nil {
		return nil, err
	}
	if snap.Followers, err = p.Followers(); err != nil {
		return nil, err
	}
	if snap.Objects, err = p.Objects(); err != nil {
		return nil, err
	}
	if snap.TrafficLights, err = p.TrafficLights(); err != nil {
		return nil, err
	}
	if snap.Conflicts, err = p.Conflicts(); err != nil {
		return nil, err
	}
	return snap, nil
}

func sortByKinematics[T object.PerceivedObject](objects []T) {
	slices.SortStableFunc(objects, func(a, b T) int {
		return kinematics.Compare(a.Kinematics(), b.Kinematics())
	})
}
