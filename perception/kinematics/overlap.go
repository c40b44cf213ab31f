package kinematics

import (
	"fmt"
	"math"

	"github.com/tsinghua-fib-lab/agentsociety-perception/utils/errs"
)

// Overlap 两个有长度物体沿同一纵向轴的重叠关系
// 功能：要么“分离”（恰好在前方或后方之一，且没有重叠量），要么“并行”（三个重叠量都存在，且既不在前也不在后）
// 说明：零值不是合法的Overlap，只能通过构造函数获得
type Overlap struct {
	ahead    bool
	behind   bool
	parallel bool
	overlap  float64 // 重叠总长度
	front    float64 // 前端重叠量：对象前端相对参考前端的位置，正值表示对象前端超出参考前端
	rear     float64 // 后端重叠量：对象后端相对参考后端的位置，正值表示对象后端在参考后端之前
}

var (
	// OverlapAhead 对象完全位于参考物体前方
	OverlapAhead = Overlap{ahead: true}
	// OverlapBehind 对象完全位于参考物体后方
	OverlapBehind = Overlap{behind: true}
)

// NewOverlap 按“二选一”不变量构造Overlap
// 功能：overlap/front/rear为nil表示缺失；三者要么全部缺失且ahead、behind恰有一个为true，
// 要么全部存在且ahead、behind均为false
// 返回：合法的Overlap，否则返回ErrInvalidArgument
func NewOverlap(ahead, behind bool, overlap, front, rear *float64) (Overlap, error) {
	present := 0
	for _, v := range []*float64{overlap, front, rear} {
		if v != nil {
			if math.IsNaN(*v) || math.IsInf(*v, 0) {
				return Overlap{}, errs.InvalidArgument("overlap values must be finite")
			}
			present++
		}
	}
	switch present {
	case 0:
		if ahead == behind {
			return Overlap{}, errs.InvalidArgument("exactly one of ahead and behind must be true for a clear overlap")
		}
		if ahead {
			return OverlapAhead, nil
		}
		return OverlapBehind, nil
	case 3:
		if ahead || behind {
			return Overlap{}, errs.InvalidArgument("a parallel overlap can be neither ahead nor behind")
		}
		return Overlap{parallel: true, overlap: *overlap, front: *front, rear: *rear}, nil
	default:
		return Overlap{}, errs.InvalidArgument("overlap, front and rear must be all present or all absent, got %d present", present)
	}
}

// NewParallelOverlap 构造并行的Overlap
func NewParallelOverlap(overlap, front, rear float64) (Overlap, error) {
	return NewOverlap(false, false, &overlap, &front, &rear)
}

// IsAhead 对象是否完全在前方
func (o Overlap) IsAhead() bool {
	return o.ahead
}

// IsBehind 对象是否完全在后方
func (o Overlap) IsBehind() bool {
	return o.behind
}

// IsParallel 对象是否与参考物体并行（存在纵向重叠）
func (o Overlap) IsParallel() bool {
	return o.parallel
}

// Overlap 重叠总长度，非并行时不存在
func (o Overlap) Overlap() (float64, bool) {
	return o.overlap, o.parallel
}

// OverlapFront 前端重叠量，非并行时不存在
func (o Overlap) OverlapFront() (float64, bool) {
	return o.front, o.parallel
}

// OverlapRear 后端重叠量，非并行时不存在
func (o Overlap) OverlapRear() (float64, bool) {
	return o.rear, o.parallel
}

func (o Overlap) String() string {
	switch {
	case o.ahead:
		return "Overlap{AHEAD}"
	case o.behind:
		return "Overlap{BEHIND}"
	default:
		return fmt.Sprintf("Overlap{overlap=%v, front=%v, rear=%v}", o.overlap, o.front, o.rear)
	}
}
