package object

import (
	"github.com/tsinghua-fib-lab/agentsociety-perception/entity"
	"github.com/tsinghua-fib-lab/agentsociety-perception/perception/kinematics"
)

// Relation 被感知车辆相对参考物（自车或冲突区）的实时纵向几何关系
type Relation struct {
	Ahead               bool    // 在参考物前方（距离为参考物前端到车尾），否则在后方（距离为车头到参考物后端）
	Distance            float64 // 距离，负值表示部分重叠
	ReferenceLength     float64 // 参考物长度
	FacingSameDirection bool
}

// Kinematics 按关系构造动态运动学
func (r Relation) Kinematics(speed, acceleration, objectLength float64) (kinematics.Kinematics, error) {
	if r.Ahead {
		return kinematics.DynamicAhead(r.Distance, speed, acceleration, r.FacingSameDirection, objectLength, r.ReferenceLength)
	}
	return kinematics.DynamicBehind(r.Distance, speed, acceleration, r.FacingSameDirection, objectLength, r.ReferenceLength)
}

// GtuPerceiver 由实时几何关系生成感知车辆，不同感知保真度（延迟、估计、假设）各自实现
type GtuPerceiver func(v entity.IVehicle, rel Relation) (*Gtu, error)
