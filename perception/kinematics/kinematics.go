// 感知对象相对自车的运动学描述：距离、速度、加速度与纵向重叠
package kinematics

import (
	"fmt"
	"math"

	"github.com/tsinghua-fib-lab/agentsociety-perception/utils/errs"
)

// Kinematics 感知对象相对自车的运动学量
// 功能：距离、速度、加速度、是否同向以及重叠关系，构造后不可变
// 说明：结构体可比较，可直接作为map的键，相等性即逐字段相等；
// 不记录构造方式，构造方式不同但各量相同的两个值相等
type Kinematics struct {
	distance            float64 // 距离（米），负值表示已经部分重叠
	speed               float64 // 速度（米/秒）
	acceleration        float64 // 加速度（米/秒²）
	facingSameDirection bool    // 是否与自车同向
	overlap             Overlap
}

// StaticAhead 前方静止物体
// 参数：distance-到物体的距离，必须非负
func StaticAhead(distance float64) (Kinematics, error) {
	if err := checkStaticDistance(distance); err != nil {
		return Kinematics{}, err
	}
	return Kinematics{
		distance:            distance,
		facingSameDirection: true,
		overlap:             OverlapAhead,
	}, nil
}

// StaticBehind 后方静止物体
// 参数：distance-到物体的距离，必须非负
func StaticBehind(distance float64) (Kinematics, error) {
	if err := checkStaticDistance(distance); err != nil {
		return Kinematics{}, err
	}
	return Kinematics{
		distance:            distance,
		facingSameDirection: true,
		overlap:             OverlapBehind,
	}, nil
}

func checkStaticDistance(distance float64) error {
	if math.IsNaN(distance) || distance < 0 {
		return errs.InvalidArgument("static distance %v must be non-negative", distance)
	}
	return nil
}

// DynamicAhead 前方运动物体
// 功能：distance为自车前端到对象后端的距离，负值表示已经重叠，最小为-(objectLength+referenceLength)
// 参数：distance-距离，speed-速度，acceleration-加速度，facingSameDirection-是否同向，
// objectLength-对象长度，referenceLength-参考物体（自车）长度
// 算法说明：
// 1. 距离非负时为前方分离关系
// 2. 否则为并行关系：以-distance为原始穿透量，再减去任一物体仍伸出对方之外的部分
// 3. 前端重叠量 = distance + objectLength，后端重叠量 = distance + referenceLength，
// 两者之差恒为 objectLength - referenceLength
func DynamicAhead(
	distance, speed, acceleration float64, facingSameDirection bool,
	objectLength, referenceLength float64,
) (Kinematics, error) {
	if err := checkDynamic(distance, speed, acceleration, objectLength, referenceLength); err != nil {
		return Kinematics{}, err
	}
	o := OverlapAhead
	if distance < 0 {
		front := distance + objectLength
		rear := distance + referenceLength
		o = parallel(distance, front, rear, objectLength, referenceLength)
	}
	return Kinematics{
		distance:            distance,
		speed:               speed,
		acceleration:        acceleration,
		facingSameDirection: facingSameDirection,
		overlap:             o,
	}, nil
}

// DynamicBehind 后方运动物体
// 功能：distance为对象前端到自车后端的距离，负值表示已经重叠，最小为-(objectLength+referenceLength)
// 说明：前端重叠量 = -(distance + referenceLength)，后端重叠量 = -(distance + objectLength)，
// 两者之差同样为 objectLength - referenceLength
func DynamicBehind(
	distance, speed, acceleration float64, facingSameDirection bool,
	objectLength, referenceLength float64,
) (Kinematics, error) {
	if err := checkDynamic(distance, speed, acceleration, objectLength, referenceLength); err != nil {
		return Kinematics{}, err
	}
	o := OverlapBehind
	if distance < 0 {
		front := -(distance + referenceLength)
		rear := -(distance + objectLength)
		o = parallel(distance, front, rear, objectLength, referenceLength)
	}
	return Kinematics{
		distance:            distance,
		speed:               speed,
		acceleration:        acceleration,
		facingSameDirection: facingSameDirection,
		overlap:             o,
	}, nil
}

// parallel 由原始穿透量和两端伸出量计算重叠
// 说明：-distance为原始穿透量；若对象另一端尚未越过参考物体的近端（distance+objectLength<0），
// 或参考物体另一端尚未越过对象的近端（distance+referenceLength<0），则扣除对应部分。
// 前后两族在各自的镜像坐标下公式相同
func parallel(distance, front, rear, objectLength, referenceLength float64) Overlap {
	overlap := -distance
	if d := distance + objectLength; d < 0 {
		overlap += d
	}
	if d := distance + referenceLength; d < 0 {
		overlap += d
	}
	return Overlap{parallel: true, overlap: overlap, front: front, rear: rear}
}

func checkDynamic(distance, speed, acceleration, objectLength, referenceLength float64) error {
	for _, v := range []float64{distance, speed, acceleration, objectLength, referenceLength} {
		if math.IsNaN(v) {
			return errs.InvalidArgument("kinematics values must not be NaN")
		}
	}
	if objectLength < 0 || referenceLength < 0 {
		return errs.InvalidArgument("lengths must be non-negative, got object %v and reference %v", objectLength, referenceLength)
	}
	if distance < 0 && -distance > objectLength+referenceLength {
		return errs.InvalidArgument(
			"distance %v exceeds combined physical extents %v", distance, objectLength+referenceLength,
		)
	}
	return nil
}

// WithMotion 整体替换距离、速度与加速度
// 功能：保持朝向与重叠关系不变，仅替换三个量
// 返回：当前为并行关系时返回ErrInvalidState，并行关系无法用单一带符号距离表达
func (k Kinematics) WithMotion(distance, speed, acceleration float64) (Kinematics, error) {
	if k.overlap.parallel {
		return Kinematics{}, errs.InvalidState("parallel kinematics cannot be moved")
	}
	if math.IsNaN(distance) || math.IsNaN(speed) || math.IsNaN(acceleration) {
		return Kinematics{}, errs.InvalidArgument("kinematics values must not be NaN")
	}
	return Kinematics{
		distance:            distance,
		speed:               speed,
		acceleration:        acceleration,
		facingSameDirection: k.facingSameDirection,
		overlap:             k.overlap,
	}, nil
}

// Distance 距离（米）
func (k Kinematics) Distance() float64 {
	return k.distance
}

// Speed 速度（米/秒）
func (k Kinematics) Speed() float64 {
	return k.speed
}

// Acceleration 加速度（米/秒²）
func (k Kinematics) Acceleration() float64 {
	return k.acceleration
}

// IsFacingSameDirection 是否与自车同向
func (k Kinematics) IsFacingSameDirection() bool {
	return k.facingSameDirection
}

// Overlap 重叠关系
func (k Kinematics) Overlap() Overlap {
	return k.overlap
}

func (k Kinematics) String() string {
	return fmt.Sprintf("Kinematics{distance=%v, speed=%v, acceleration=%v, sameDirection=%v, %v}",
		k.distance, k.speed, k.acceleration, k.facingSameDirection, k.overlap)
}
