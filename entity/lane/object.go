package lane

import (
	"fmt"

	"github.com/tsinghua-fib-lab/agentsociety-perception/entity"
	"github.com/tsinghua-fib-lab/agentsociety-perception/utils/errs"
)

var _ entity.ILaneBasedObject = (*Object)(nil)

// Object 车道上的静态物体（停止线、公交站等）
type Object struct {
	id     string
	kind   entity.LaneObjectKind
	lane   entity.ILane
	s      float64
	length float64
}

// NewObject 创建车道物体并登记到车道上
// 返回：ID为空、信号灯种类（应使用trafficlight包）或位置不在车道上时返回ErrInvalidArgument
func NewObject(id string, kind entity.LaneObjectKind, lane entity.ILane, s, length float64) (*Object, error) {
	if id == "" {
		return nil, errs.InvalidArgument("lane object id is empty")
	}
	switch kind {
	case entity.StopLineObject, entity.BusStopObject, entity.GenericObject:
	default:
		return nil, errs.InvalidArgument("lane object %s: unsupported kind %v", id, kind)
	}
	if length < 0 || s < 0 || s+length > lane.Length() {
		return nil, errs.InvalidArgument("lane object %s: [%v, %v] out of %v", id, s, s+length, lane)
	}
	o := &Object{id: id, kind: kind, lane: lane, s: s, length: length}
	lane.AddObject(o)
	return o, nil
}

func (o *Object) String() string {
	return fmt.Sprintf("%v %s", o.kind, o.id)
}

func (o *Object) ID() string {
	return o.id
}

func (o *Object) Kind() entity.LaneObjectKind {
	return o.kind
}

func (o *Object) Lane() entity.ILane {
	return o.lane
}

func (o *Object) S() float64 {
	return o.s
}

func (o *Object) Length() float64 {
	return o.length
}
