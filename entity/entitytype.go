package entity

import (
	"fmt"

	"git.fiblab.net/general/common/v2/geometry"
	mapv2 "git.fiblab.net/sim/protos/v2/go/city/map/v2"
	"github.com/samber/lo"
	"github.com/tsinghua-fib-lab/agentsociety-perception/model/following"
	"github.com/tsinghua-fib-lab/agentsociety-perception/model/parameter"
	"github.com/tsinghua-fib-lab/agentsociety-perception/utils/container"
)

// GtuType 交通参与者类别（car、truck、bus、pedestrian……）
type GtuType string

// 车辆链表节点类型
type VehicleNode = container.ListNode[IVehicle]

// 车辆链表类型
type VehicleList = container.List[IVehicle]

// 导航路线（假定路线），按行驶顺序记录经过的Lane
type Route struct {
	ID      string
	LaneIDs []int32
}

// Contains 路线是否经过指定Lane
func (r Route) Contains(laneID int32) bool {
	return lo.Contains(r.LaneIDs, laneID)
}

func (r Route) String() string {
	return fmt.Sprintf("Route{ID=%v, Lanes=%v}", r.ID, r.LaneIDs)
}

// entity/lane/lane.go的依赖倒置
type ILane interface {
	String() string

	ID() int32                                            // 获取Lane ID
	Length() float64                                      // 获取Lane长度
	Type() mapv2.LaneType                                 // 获取Lane类型
	Turn() mapv2.LaneTurn                                 // 获取Lane转向类型
	ParentID() int32                                      // 获取Lane所在道路/路口的ID
	WidthAt(s float64) float64                            // 获取s处的车道宽度
	GetPositionByS(s float64) geometry.Point              // 将车道s坐标转换为xy坐标
	GetDirectionByS(s float64) geometry.PolylineDirection // 根据车道s坐标计算切向角度
	SpeedLimit(gtuType GtuType) (float64, error)          // 获取对指定类别的限速

	Predecessors() []ILane // 前驱车道
	Successors() []ILane   // 后继车道

	Vehicles() *VehicleList           // 车道上的车辆（按车头位置升序）
	Objects() []ILaneBasedObject      // 车道上的物体（按位置升序）
	Conflicts() []IConflict           // 车道上的冲突区（按起点升序）
	AddVehicle(node *VehicleNode)     // 向Lane链表中添加车辆（Prepare后生效）
	RemoveVehicle(node *VehicleNode)  // 从Lane链表中移除车辆（Prepare后生效）
	AddObject(obj ILaneBasedObject)   // 注册车道物体
	AddConflict(conflict IConflict)   // 注册冲突区
}

// 车道物体种类
type LaneObjectKind int8

const (
	TrafficLightObject LaneObjectKind = iota + 1 // 信号灯
	StopLineObject                               // 停止线
	BusStopObject                                // 公交站
	GenericObject                                // 其他物体
)

func (k LaneObjectKind) String() string {
	switch k {
	case TrafficLightObject:
		return "TRAFFIC_LIGHT"
	case StopLineObject:
		return "STOP_LINE"
	case BusStopObject:
		return "BUS_STOP"
	case GenericObject:
		return "OBJECT"
	default:
		return fmt.Sprintf("LaneObjectKind(%d)", int8(k))
	}
}

// 车道上的物体（信号灯、停止线、公交站等）
type ILaneBasedObject interface {
	ID() string
	Kind() LaneObjectKind
	Lane() ILane
	S() float64      // 在Lane上的位置
	Length() float64 // 沿车道方向的长度
}

// entity/trafficlight的依赖倒置
type ITrafficLight interface {
	ILaneBasedObject

	LightState() mapv2.LightState             // 当前灯色
	LightStateAt(t float64) mapv2.LightState  // 指定时刻的灯色（用于延迟感知）
	TurnOnRed() bool                          // 是否允许红灯右转
}

// entity/vehicle的依赖倒置
// 说明：所有按时刻查询的方法只回答该时刻的状态，不替感知层缓存任何结果
type IVehicle interface {
	String() string

	ID() string          // 车辆ID
	GtuType() GtuType    // 交通参与者类别
	Length() float64     // 车长
	Width() float64      // 车宽
	MaxSpeed() float64   // 最高车速
	Now() float64        // 当前仿真时间
	V() float64          // 当前速度
	Lane() ILane         // 当前车道
	S() float64          // 当前车头在车道上的位置

	PositionAt(t float64) (ILane, float64)                  // 指定时刻的车道与车头位置
	SpeedAt(t float64) float64                              // 指定时刻的速度
	AccelerationAt(t float64) float64                       // 指定时刻的加速度
	TurnIndicatorAt(t float64) TurnIndicatorStatus          // 指定时刻的转向灯
	BrakingLightsAt(t float64) bool                         // 指定时刻的刹车灯
	LaneChangeDirectionAt(t float64) LateralDirectionality  // 指定时刻的变道方向
	DeviationAt(t float64) float64                          // 指定时刻相对车道中心线的横向偏移，左正右负

	CarFollowingModel() following.Model // 跟驰模型
	Parameters() *parameter.Set         // 行为参数（实时，调用方需自行拷贝）
	Route() (Route, bool)               // 导航路线
}

// 车辆及其到参考位置的距离
type VehicleDistance struct {
	Vehicle  IVehicle
	Distance float64
}

// entity/conflict的依赖倒置
type IConflict interface {
	String() string

	ID() string
	Lane() ILane
	S() float64      // 冲突区在Lane上的起点
	Length() float64 // 冲突区沿车道中心线的长度

	ConflictType() ConflictType                    // 冲突类型
	ConflictPriority() ConflictPriority            // 本侧的优先级
	ConflictPriorityAt(t float64) ConflictPriority // 信号灯处于t时刻灯色时本侧的优先级
	ConflictRuleType() string                      // 冲突规则名称
	IsPermitted() bool                             // 信控中是否为允许冲突（两侧可能同时绿灯）
	OtherConflict() IConflict                      // 对侧冲突区
	StopLine() (ILaneBasedObject, bool)            // 本侧停止线

	// 冲突区起点上游visibility范围内的车辆，距离为冲突区起点减去车头位置
	UpstreamVehicles(visibility float64) []VehicleDistance
	// 已越过冲突区起点的车辆（visibility范围内），距离为车尾位置减去冲突区起点
	DownstreamVehicles(visibility float64) []VehicleDistance
	// 上游maxDistance内最近的信号灯及其距离
	UpstreamTrafficLight(maxDistance float64) (ITrafficLight, float64, bool)
}
