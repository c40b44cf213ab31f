package conflict

import (
	"cmp"
	"fmt"
	"math"
	"slices"

	mapv2 "git.fiblab.net/sim/protos/v2/go/city/map/v2"
	"github.com/google/uuid"
	"github.com/tsinghua-fib-lab/agentsociety-perception/entity"
	"github.com/tsinghua-fib-lab/agentsociety-perception/utils/container"
	"github.com/tsinghua-fib-lab/agentsociety-perception/utils/errs"
)

var _ entity.IConflict = (*Conflict)(nil)

// Conflict 冲突区
// 功能：描述两条车道几何相交的区域在其中一条车道上的部分，两侧冲突区互为对侧
// 说明：创建后只读，所有查询均根据当前车道链表即时计算
type Conflict struct {
	id        string
	lane      entity.ILane
	s         float64
	length    float64
	typ       entity.ConflictType
	rule      Rule
	permitted bool
	other     *Conflict
	stopLine  entity.ILaneBasedObject
}

// GeneratePair 生成一对互为对侧的冲突区并登记到各自车道上
// 参数：typ-冲突类型，rule-冲突规则，permitted-信控中是否为允许冲突，
// lane1/s1/length1-第一侧的车道、起点与长度，lane2/s2/length2-第二侧
// 返回：两侧冲突区，类型非法、缺少规则或冲突区超出车道范围时返回ErrInvalidArgument
func GeneratePair(
	typ entity.ConflictType, rule Rule, permitted bool,
	lane1 entity.ILane, s1, length1 float64,
	lane2 entity.ILane, s2, length2 float64,
) (*Conflict, *Conflict, error) {
	switch typ {
	case entity.ConflictCrossing, entity.ConflictMerge, entity.ConflictSplit:
	default:
		return nil, nil, errs.InvalidArgument("bad conflict type %v", typ)
	}
	if rule == nil {
		return nil, nil, errs.InvalidArgument("conflict rule is nil")
	}
	if err := checkOnLane(lane1, s1, length1); err != nil {
		return nil, nil, err
	}
	if err := checkOnLane(lane2, s2, length2); err != nil {
		return nil, nil, err
	}
	c1 := &Conflict{
		id: uuid.NewString(), lane: lane1, s: s1, length: length1,
		typ: typ, rule: rule, permitted: permitted,
	}
	c2 := &Conflict{
		id: uuid.NewString(), lane: lane2, s: s2, length: length2,
		typ: typ, rule: rule, permitted: permitted,
	}
	c1.other = c2
	c2.other = c1
	lane1.AddConflict(c1)
	lane2.AddConflict(c2)
	log.Debugf("conflict pair %v generated: %v <-> %v", typ, c1, c2)
	return c1, c2, nil
}

func checkOnLane(lane entity.ILane, s, length float64) error {
	if lane == nil {
		return errs.InvalidArgument("conflict lane is nil")
	}
	if math.IsNaN(s) || math.IsNaN(length) || length < 0 || s < 0 || s+length > lane.Length() {
		return errs.InvalidArgument("conflict [%v, %v] out of %v (length %v)", s, s+length, lane, lane.Length())
	}
	return nil
}

// SetStopLine 设置本侧停止线
// 返回：停止线不在本车道、种类不对或位于冲突区下游时返回ErrInvalidArgument
func (c *Conflict) SetStopLine(obj entity.ILaneBasedObject) error {
	if obj.Kind() != entity.StopLineObject {
		return errs.InvalidArgument("%v is not a stop line", obj.ID())
	}
	if obj.Lane() != c.lane || obj.S() > c.s {
		return errs.InvalidArgument("stop line %v not upstream of %v", obj.ID(), c)
	}
	c.stopLine = obj
	return nil
}

func (c *Conflict) String() string {
	return fmt.Sprintf("Conflict %s (%v, %v@%.2f+%.2f)", c.id, c.typ, c.lane, c.s, c.length)
}

func (c *Conflict) ID() string {
	return c.id
}

func (c *Conflict) Lane() entity.ILane {
	return c.lane
}

func (c *Conflict) S() float64 {
	return c.s
}

func (c *Conflict) Length() float64 {
	return c.length
}

func (c *Conflict) ConflictType() entity.ConflictType {
	return c.typ
}

// ConflictPriority 本侧当前的优先级，由冲突规则决定
func (c *Conflict) ConflictPriority() entity.ConflictPriority {
	return c.rule.DeterminePriority(c, entity.ITrafficLight.LightState)
}

// ConflictPriorityAt 按信号灯在t时刻的灯色求本侧优先级（用于延迟感知）
func (c *Conflict) ConflictPriorityAt(t float64) entity.ConflictPriority {
	return c.rule.DeterminePriority(c, func(l entity.ITrafficLight) mapv2.LightState {
		return l.LightStateAt(t)
	})
}

func (c *Conflict) ConflictRuleType() string {
	return c.rule.Name()
}

// IsPermitted 信控中是否为允许冲突
// 说明：允许冲突的两侧可能同时绿灯，因此信号灯上游的车辆不能被忽略
func (c *Conflict) IsPermitted() bool {
	return c.permitted
}

func (c *Conflict) OtherConflict() entity.IConflict {
	return c.other
}

func (c *Conflict) StopLine() (entity.ILaneBasedObject, bool) {
	return c.stopLine, c.stopLine != nil
}

// upstreamLane 上游搜索中的一条车道
// 说明：车道上位置x到冲突区起点的距离为offset-x，upper为该车道上参与搜索的最大位置
type upstreamLane struct {
	lane   entity.ILane
	offset float64
	upper  float64
}

// walkUpstream 从冲突区起点沿前驱车道向上游按距离由近到远遍历
// 参数：maxDistance-最大搜索距离，visit-访问函数，返回false时不再展开该车道的前驱
// 算法说明：
// 1. 以本车道为起点，距离偏移量为冲突区起点
// 2. 使用优先队列按车道最近点的距离弹出
// 3. 前驱车道的偏移量为当前偏移量加上前驱车道长度
// 4. 最近点距离超过maxDistance的车道不再展开
func (c *Conflict) walkUpstream(maxDistance float64, visit func(ul upstreamLane) bool) {
	pq := container.NewPriorityQueue[upstreamLane]()
	pq.HeapPush(upstreamLane{lane: c.lane, offset: c.s, upper: c.s}, 0)
	visited := map[entity.ILane]bool{}
	for pq.Len() > 0 {
		ul, _ := pq.HeapPop()
		if visited[ul.lane] {
			continue
		}
		visited[ul.lane] = true
		if !visit(ul) {
			continue
		}
		for _, pre := range ul.lane.Predecessors() {
			if visited[pre] {
				continue
			}
			// 前驱车道的终点即为其最近点
			next := ul.offset
			if next > maxDistance {
				continue
			}
			pq.HeapPush(upstreamLane{lane: pre, offset: ul.offset + pre.Length(), upper: pre.Length()}, next)
		}
	}
}

// UpstreamVehicles 冲突区起点上游visibility范围内的车辆
// 返回：按距离升序的车辆，距离为冲突区起点减去车头位置
func (c *Conflict) UpstreamVehicles(visibility float64) []entity.VehicleDistance {
	result := make([]entity.VehicleDistance, 0)
	c.walkUpstream(visibility, func(ul upstreamLane) bool {
		// 车道链表按位置升序，从最接近冲突区的车辆开始
		for node := ul.lane.Vehicles().LastAtOrBefore(ul.upper); node != nil; node = node.Prev() {
			d := ul.offset - node.S
			if d > visibility {
				break
			}
			result = append(result, entity.VehicleDistance{Vehicle: node.Value, Distance: d})
		}
		return true
	})
	sortByDistance(result)
	return result
}

// downstreamLane 下游搜索中的一条车道
// 说明：车道上位置x到冲突区起点的距离为offset+x，lower为该车道上参与搜索的最小位置
type downstreamLane struct {
	lane   entity.ILane
	offset float64
	lower  float64
}

// walkDownstream 从冲突区起点沿后继车道向下游按距离由近到远遍历
// 算法说明：
// 1. 以本车道为起点，偏移量为负的冲突区起点
// 2. 后继车道的偏移量为当前偏移量加上当前车道长度，即冲突区起点到后继车道起点的距离
// 3. 起点距离超过maxDistance的车道不再展开
func (c *Conflict) walkDownstream(maxDistance float64, visit func(dl downstreamLane)) {
	pq := container.NewPriorityQueue[downstreamLane]()
	pq.HeapPush(downstreamLane{lane: c.lane, offset: -c.s, lower: c.s}, 0)
	visited := map[entity.ILane]bool{}
	for pq.Len() > 0 {
		dl, _ := pq.HeapPop()
		if visited[dl.lane] {
			continue
		}
		visited[dl.lane] = true
		visit(dl)
		next := dl.offset + dl.lane.Length()
		if next > maxDistance {
			continue
		}
		for _, suc := range dl.lane.Successors() {
			if !visited[suc] {
				pq.HeapPush(downstreamLane{lane: suc, offset: next}, next)
			}
		}
	}
}

// DownstreamVehicles 车头已越过冲突区起点的车辆，包括已驶入下游车道的车辆
// 返回：按距离升序的车辆，距离为车尾位置减去冲突区起点，车辆跨越起点时为负
func (c *Conflict) DownstreamVehicles(visibility float64) []entity.VehicleDistance {
	result := make([]entity.VehicleDistance, 0)
	c.walkDownstream(visibility, func(dl downstreamLane) {
		for node := dl.lane.Vehicles().FirstAtOrAfter(dl.lower); node != nil; node = node.Next() {
			d := dl.offset + node.S - node.L()
			if d > visibility {
				continue
			}
			result = append(result, entity.VehicleDistance{Vehicle: node.Value, Distance: d})
		}
	})
	sortByDistance(result)
	return result
}

// UpstreamTrafficLight 上游maxDistance内最近的信号灯
// 说明：找到信号灯的车道不再向上游展开
func (c *Conflict) UpstreamTrafficLight(maxDistance float64) (entity.ITrafficLight, float64, bool) {
	var best entity.ITrafficLight
	bestDistance := math.Inf(1)
	c.walkUpstream(maxDistance, func(ul upstreamLane) bool {
		if ul.offset-ul.upper >= bestDistance {
			return false
		}
		objects := ul.lane.Objects()
		for i := len(objects) - 1; i >= 0; i-- {
			obj := objects[i]
			if obj.Kind() != entity.TrafficLightObject || obj.S() > ul.upper {
				continue
			}
			light, ok := obj.(entity.ITrafficLight)
			if !ok {
				log.Panicf("%v: object %s has traffic light kind but is %T", c, obj.ID(), obj)
			}
			if d := ul.offset - obj.S(); d <= maxDistance && d < bestDistance {
				best, bestDistance = light, d
			}
			return false
		}
		return true
	})
	if best == nil {
		return nil, 0, false
	}
	return best, bestDistance, true
}

func sortByDistance(vds []entity.VehicleDistance) {
	slices.SortStableFunc(vds, func(a, b entity.VehicleDistance) int {
		return cmp.Compare(a.Distance, b.Distance)
	})
}
