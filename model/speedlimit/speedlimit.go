// 限速信息
package speedlimit

import (
	"fmt"

	"github.com/samber/lo"
)

// Type 限速来源
type Type int8

const (
	// MaxVehicleSpeed 车辆自身最高速度
	MaxVehicleSpeed Type = iota + 1
	// FixedSign 车道（标志）限速
	FixedSign
)

func (t Type) String() string {
	switch t {
	case MaxVehicleSpeed:
		return "MAX_VEHICLE_SPEED"
	case FixedSign:
		return "FIXED_SIGN"
	default:
		return fmt.Sprintf("Type(%d)", int8(t))
	}
}

// Info 限速信息集合，不可变
type Info struct {
	speeds map[Type]float64
}

// With 返回增加（或覆盖）一条限速后的新集合
func (i Info) With(t Type, speed float64) Info {
	speeds := lo.Assign(i.speeds)
	speeds[t] = speed
	return Info{speeds: speeds}
}

// Speed 获取限速（米/秒）
func (i Info) Speed(t Type) (float64, bool) {
	v, ok := i.speeds[t]
	return v, ok
}

// Contains 是否包含该类限速
func (i Info) Contains(t Type) bool {
	_, ok := i.speeds[t]
	return ok
}

func (i Info) String() string {
	return fmt.Sprintf("SpeedLimitInfo%v", i.speeds)
}
