package lane

import (
	"fmt"
	"sort"
	"sync"

	"git.fiblab.net/general/common/v2/geometry"
	geov2 "git.fiblab.net/sim/protos/v2/go/city/geo/v2"
	mapv2 "git.fiblab.net/sim/protos/v2/go/city/map/v2"
	"github.com/samber/lo"
	"github.com/tsinghua-fib-lab/agentsociety-perception/entity"
	"github.com/tsinghua-fib-lab/agentsociety-perception/utils/errs"
)

var _ entity.ILane = (*Lane)(nil)

// Lane 车道实体
// 功能：表示地图中的车道，提供几何信息、限速、车辆链表以及车道上的物体与冲突区
type Lane struct {
	id int32

	// 初始化临时变量

	initPredecessors []*mapv2.LaneConnection
	initSuccessors   []*mapv2.LaneConnection

	typ            mapv2.LaneType               // 车道类型
	turn           mapv2.LaneTurn               // 转向类型
	parentID       int32                        // 所在道路/路口ID
	maxV           float64                      // 车道限速
	gtuMaxV        map[entity.GtuType]float64   // 针对特定类别的限速
	predecessors   []entity.ILane               // 前驱车道
	successors     []entity.ILane               // 后继车道
	lineLengths    []float64                    // 中心线折线点对应的的长度列表
	length         float64                      // 以中心线的长度为车道长度
	widths         [2]float64                   // 起点与终点的车道宽度，中间线性变化
	lineDirections []geometry.PolylineDirection // 中心线折线段每一段的方向（atan2）
	line           []geometry.Point             // 转成Point的中心线折线

	vehicles *vehicleList

	objects   []entity.ILaneBasedObject // 车道上的物体（按位置升序）
	conflicts []entity.IConflict        // 车道上的冲突区（按起点升序）
	addMutex  sync.Mutex                // objects与conflicts的写互斥锁
}

// New 创建并初始化一个新的Lane实例
// 功能：根据基础数据创建Lane对象，初始化几何信息与车辆链表
// 参数：base-基础Lane数据
// 返回：初始化完成的Lane实例，中心线少于两个点或宽度非正时返回ErrInvalidArgument
// 说明：前驱后继关系需要在所有Lane创建后由Manager建立
func New(base *mapv2.Lane) (*Lane, error) {
	if base.CenterLine == nil || len(base.CenterLine.Nodes) < 2 {
		return nil, errs.InvalidArgument("lane %d: center line needs at least 2 nodes", base.Id)
	}
	if base.Width <= 0 {
		return nil, errs.InvalidArgument("lane %d: non-positive width %v", base.Id, base.Width)
	}
	l := &Lane{
		id:               base.Id,
		initPredecessors: base.Predecessors,
		initSuccessors:   base.Successors,
		typ:              base.Type,
		turn:             base.Turn,
		parentID:         base.ParentId,
		maxV:             base.MaxSpeed,
		gtuMaxV:          make(map[entity.GtuType]float64),
		predecessors:     make([]entity.ILane, 0),
		successors:       make([]entity.ILane, 0),
		widths:           [2]float64{base.Width, base.Width},
		vehicles:         newVehicleList(fmt.Sprintf("lane %d vehicles", base.Id)),
		objects:          make([]entity.ILaneBasedObject, 0),
		conflicts:        make([]entity.IConflict, 0),
	}
	l.line = lo.Map(base.CenterLine.Nodes, func(node *geov2.XYPosition, _ int) geometry.Point {
		return geometry.NewPointFromPb(node)
	})
	l.lineLengths = geometry.GetPolylineLengths2D(l.line)
	l.length = l.lineLengths[len(l.lineLengths)-1]
	l.lineDirections = geometry.GetPolylineDirections(l.line)
	if l.length <= 0 {
		return nil, errs.InvalidArgument("lane %d: zero length center line", base.Id)
	}
	log.Debugf("lane %d created, length=%.2f width=%.2f", l.id, l.length, base.Width)
	return l, nil
}

// initWithManager 在管理器初始化后建立Lane的连接关系
// 说明：同时登记前驱与后继，任意一侧声明的连接都会双向生效
func (l *Lane) initWithManager(m *Manager) error {
	for _, conn := range l.initPredecessors {
		pre, err := m.GetOrError(conn.Id)
		if err != nil {
			return fmt.Errorf("lane %d predecessor: %w", l.id, err)
		}
		l.addPredecessor(pre)
		pre.addSuccessor(l)
	}
	for _, conn := range l.initSuccessors {
		suc, err := m.GetOrError(conn.Id)
		if err != nil {
			return fmt.Errorf("lane %d successor: %w", l.id, err)
		}
		l.addSuccessor(suc)
		suc.addPredecessor(l)
	}
	l.initPredecessors = nil
	l.initSuccessors = nil
	return nil
}

func (l *Lane) addPredecessor(pre *Lane) {
	if !lo.Contains(l.predecessors, entity.ILane(pre)) {
		l.predecessors = append(l.predecessors, pre)
	}
}

func (l *Lane) addSuccessor(suc *Lane) {
	if !lo.Contains(l.successors, entity.ILane(suc)) {
		l.successors = append(l.successors, suc)
	}
}

// prepare 准备阶段，维护车辆链表
// 说明：使用缓冲区机制，感知阶段只读不写
func (l *Lane) prepare() {
	l.vehicles.prepare()
}

// 数据初始化

// SetWidthWhenInit 设置起点与终点宽度，中间线性变化
func (l *Lane) SetWidthWhenInit(start, end float64) error {
	if start <= 0 || end <= 0 {
		return errs.InvalidArgument("lane %d: non-positive width %v/%v", l.id, start, end)
	}
	l.widths = [2]float64{start, end}
	return nil
}

// SetGtuSpeedLimitWhenInit 设置针对特定类别的限速
func (l *Lane) SetGtuSpeedLimitWhenInit(gtuType entity.GtuType, v float64) {
	l.gtuMaxV[gtuType] = v
}

// AddObject 注册车道物体，保持按位置升序
func (l *Lane) AddObject(obj entity.ILaneBasedObject) {
	l.addMutex.Lock()
	defer l.addMutex.Unlock()
	i := sort.Search(len(l.objects), func(i int) bool { return l.objects[i].S() > obj.S() })
	l.objects = append(l.objects, nil)
	copy(l.objects[i+1:], l.objects[i:])
	l.objects[i] = obj
}

// AddConflict 注册冲突区，保持按起点升序
func (l *Lane) AddConflict(c entity.IConflict) {
	l.addMutex.Lock()
	defer l.addMutex.Unlock()
	i := sort.Search(len(l.conflicts), func(i int) bool { return l.conflicts[i].S() > c.S() })
	l.conflicts = append(l.conflicts, nil)
	copy(l.conflicts[i+1:], l.conflicts[i:])
	l.conflicts[i] = c
}

// 静态数据

func (l *Lane) String() string {
	return fmt.Sprintf("Lane %d", l.id)
}

// 获取Lane ID
func (l *Lane) ID() int32 {
	if l == nil {
		return -1
	}
	return l.id
}

// 获取Lane长度
func (l *Lane) Length() float64 {
	return l.length
}

// 获取Lane类型
func (l *Lane) Type() mapv2.LaneType {
	return l.typ
}

// 获取Lane转向类型
func (l *Lane) Turn() mapv2.LaneTurn {
	return l.turn
}

// 获取Lane的父对象(road/junction)的ID
func (l *Lane) ParentID() int32 {
	return l.parentID
}

// 获取Lane的所有前驱Lane
func (l *Lane) Predecessors() []entity.ILane {
	return l.predecessors
}

// 获取Lane的所有后继Lane
func (l *Lane) Successors() []entity.ILane {
	return l.successors
}

// WidthAt 获取s处的车道宽度
func (l *Lane) WidthAt(s float64) float64 {
	k := lo.Clamp(s/l.length, 0, 1)
	return l.widths[0] + (l.widths[1]-l.widths[0])*k
}

// SpeedLimit 获取对指定类别的限速
// 返回：车道未设置限速时返回ErrInvalidState
func (l *Lane) SpeedLimit(gtuType entity.GtuType) (float64, error) {
	if v, ok := l.gtuMaxV[gtuType]; ok {
		return v, nil
	}
	if l.maxV <= 0 {
		return 0, errs.InvalidState("lane %d has no speed limit", l.id)
	}
	return l.maxV, nil
}

// segmentAt s所在的中心线折线段下标与段内比例
// 说明：s超出车道范围时按最近的端点处理
func (l *Lane) segmentAt(s float64) (int, float64) {
	if s < 0 || s > l.length {
		log.Debugf("%v: s=%v out of [0, %v], clamped", l, s, l.length)
		s = lo.Clamp(s, 0, l.length)
	}
	// lineLengths[i-1] < s <= lineLengths[i]
	i := sort.SearchFloat64s(l.lineLengths, s)
	if i == 0 {
		return 0, 0
	}
	sLow, sHigh := l.lineLengths[i-1], l.lineLengths[i]
	return i - 1, (s - sLow) / (sHigh - sLow)
}

// GetDirectionByS s处中心线的切向方向
func (l *Lane) GetDirectionByS(s float64) geometry.PolylineDirection {
	i, _ := l.segmentAt(s)
	return l.lineDirections[i]
}

// GetPositionByS s处中心线上的坐标
func (l *Lane) GetPositionByS(s float64) geometry.Point {
	i, k := l.segmentAt(s)
	return geometry.Blend(l.line[i], l.line[i+1], k)
}

// 车道物体与车辆

// 获取车道上的物体
func (l *Lane) Objects() []entity.ILaneBasedObject {
	return l.objects
}

// 获取车道上的冲突区
func (l *Lane) Conflicts() []entity.IConflict {
	return l.conflicts
}

// 获取车道上的车辆
func (l *Lane) Vehicles() *entity.VehicleList {
	return l.vehicles.list
}

// 向Lane链表中添加车辆（Prepare后生效）
func (l *Lane) AddVehicle(node *entity.VehicleNode) {
	l.vehicles.add(node)
}

// 从Lane链表中移除车辆（Prepare后生效）
func (l *Lane) RemoveVehicle(node *entity.VehicleNode) {
	l.vehicles.remove(node)
}
