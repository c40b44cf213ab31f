package clock

import (
	"fmt"

	"github.com/tsinghua-fib-lab/agentsociety-perception/utils/config"
)

// Clock 仿真时钟
// 功能：管理仿真时间的推进，为实体的状态记录与感知提供统一的当前时间
// 说明：时钟只由宿主仿真循环推进，感知过程中只读
type Clock struct {
	DT         float64 // 每个模拟步时间间隔（秒）
	START_STEP int32   // 起始步
	END_STEP   int32   // 结束步，模拟区间[START, END)

	T    float64 // 当前时间（秒）
	Step int32   // 当前步数
}

// New 根据配置创建新的时钟实例
// 参数：stepConfig-控制步配置，包含时间间隔、起始步与总步数
// 返回：初始化完成的时钟实例
func New(stepConfig config.ControlStep) *Clock {
	c := &Clock{
		DT:         stepConfig.Interval,
		START_STEP: stepConfig.Start,
		END_STEP:   stepConfig.Start + stepConfig.Total,
	}
	c.Init()
	return c
}

// Init 重置时钟到起始步
func (c *Clock) Init() {
	c.Step = c.START_STEP
	c.T = float64(c.Step) * c.DT
}

// Now 当前仿真时间（秒）
func (c *Clock) Now() float64 {
	return c.T
}

// Next 推进一步
// 返回：推进后是否仍在模拟区间内
func (c *Clock) Next() bool {
	c.Step++
	c.T = float64(c.Step) * c.DT
	return c.Step < c.END_STEP
}

// Done 模拟是否已结束
func (c *Clock) Done() bool {
	return c.Step >= c.END_STEP
}

// String 获取时钟的字符串表示
// 返回：格式化的时间字符串（HH:MM:SS）
// 算法说明：
// 1. 将总秒数转换为小时、分钟、秒
// 2. 格式化为标准时间格式
func (c *Clock) String() string {
	t := c.T
	h := int(t / 3600)
	t -= float64(h * 3600)
	m := int(t / 60)
	t -= float64(m * 60)
	s := int(t)
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

// GetHourMinuteSecond 获取当前时间的小时、分钟、秒
// 返回：小时、分钟、秒（秒为浮点数，支持亚秒级精度）
func (c *Clock) GetHourMinuteSecond() (int, int, float64) {
	hour := int(c.T) / 3600
	minute := int(c.T) % 3600 / 60
	second := c.T - float64(hour*3600+minute*60)
	return hour, minute, second
}
