// 感知对象：某一感知时刻对周围实体“已知信息”的不可变快照
package object

import (
	"fmt"
	"math"

	"github.com/tsinghua-fib-lab/agentsociety-perception/entity"
	"github.com/tsinghua-fib-lab/agentsociety-perception/perception/kinematics"
	"github.com/tsinghua-fib-lab/agentsociety-perception/utils/errs"
)

// PerceivedObject 感知对象的公共接口
type PerceivedObject interface {
	ID() string
	ObjectType() ObjectType
	Length() float64
	Kinematics() kinematics.Kinematics
}

var _ PerceivedObject = Object{}

// Object 感知对象基础值
// 功能：ID、类别、长度与运动学，构造后不可变
// 说明：结构体可比较，相等性与作为map键的哈希都按这四个字段计算
type Object struct {
	id         string
	objectType ObjectType
	length     float64
	kinematics kinematics.Kinematics
}

// DistanceID 仅有距离的虚拟对象的ID
const DistanceID = "distance"

// NewObject 创建感知对象
// 返回：ID为空、类别未知或长度非法时返回ErrInvalidArgument
func NewObject(id string, objectType ObjectType, length float64, k kinematics.Kinematics) (Object, error) {
	if id == "" {
		return Object{}, errs.InvalidArgument("perceived object id is empty")
	}
	if !objectType.IsValid() {
		return Object{}, errs.InvalidArgument("perceived object %s: unknown type %v", id, objectType)
	}
	if length < 0 || math.IsNaN(length) {
		return Object{}, errs.InvalidArgument("perceived object %s: bad length %v", id, length)
	}
	return Object{id: id, objectType: objectType, length: length, kinematics: k}, nil
}

// Distance 仅有距离的虚拟对象，用于表示“前方/后方某处”
// 参数：distance-正值在前方，负值在后方
func Distance(distance float64) (Object, error) {
	var (
		k   kinematics.Kinematics
		err error
	)
	if distance >= 0 {
		k, err = kinematics.StaticAhead(distance)
	} else {
		k, err = kinematics.StaticBehind(-distance)
	}
	if err != nil {
		return Object{}, err
	}
	return NewObject(DistanceID, TypeDistance, 0, k)
}

// OfLaneObject 由车道上的静态物体创建感知对象
// 说明：信号灯应使用OfTrafficLight
func OfLaneObject(obj entity.ILaneBasedObject, k kinematics.Kinematics) (Object, error) {
	var typ ObjectType
	switch obj.Kind() {
	case entity.StopLineObject:
		typ = TypeStopLine
	case entity.BusStopObject:
		typ = TypeBusStop
	case entity.GenericObject:
		typ = TypeObject
	default:
		return Object{}, errs.InvalidArgument("lane object %s: kind %v is not a static object", obj.ID(), obj.Kind())
	}
	return NewObject(obj.ID(), typ, obj.Length(), k)
}

func (o Object) ID() string {
	return o.id
}

func (o Object) ObjectType() ObjectType {
	return o.objectType
}

func (o Object) Length() float64 {
	return o.length
}

func (o Object) Kinematics() kinematics.Kinematics {
	return o.kinematics
}

func (o Object) String() string {
	return fmt.Sprintf("%v %s [%v]", o.objectType, o.id, o.kinematics)
}
