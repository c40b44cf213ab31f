package object

import "fmt"

// ObjectType 感知对象类别（封闭集合）
type ObjectType int8

const (
	TypeGtu          ObjectType = iota + 1 // 车辆
	TypeTrafficLight                       // 信号灯
	TypeObject                             // 一般物体
	TypeDistance                           // 仅有距离的虚拟对象
	TypeConflict                           // 冲突区
	TypeStopLine                           // 停止线
	TypeBusStop                            // 公交站
)

// IsValid 是否为已知类别
func (t ObjectType) IsValid() bool {
	return t >= TypeGtu && t <= TypeBusStop
}

func (t ObjectType) IsGtu() bool {
	return t == TypeGtu
}

func (t ObjectType) IsTrafficLight() bool {
	return t == TypeTrafficLight
}

func (t ObjectType) IsObject() bool {
	return t == TypeObject
}

func (t ObjectType) IsDistance() bool {
	return t == TypeDistance
}

func (t ObjectType) IsConflict() bool {
	return t == TypeConflict
}

func (t ObjectType) IsStopLine() bool {
	return t == TypeStopLine
}

func (t ObjectType) IsBusStop() bool {
	return t == TypeBusStop
}

func (t ObjectType) String() string {
	switch t {
	case TypeGtu:
		return "GTU"
	case TypeTrafficLight:
		return "TRAFFICLIGHT"
	case TypeObject:
		return "OBJECT"
	case TypeDistance:
		return "DISTANCEONLY"
	case TypeConflict:
		return "CONFLICT"
	case TypeStopLine:
		return "STOPLINE"
	case TypeBusStop:
		return "BUSSTOP"
	default:
		return fmt.Sprintf("ObjectType(%d)", int8(t))
	}
}
