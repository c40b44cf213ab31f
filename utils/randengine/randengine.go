// 随机数引擎，包装了golang.org/x/exp/rand，为感知误差等随机量提供可复现的采样
package randengine

import (
	"flag"
	"math"
	"sync"

	"golang.org/x/exp/rand"
)

var (
	seedOffset = flag.Uint64("rand.seed_offset", 0, "seed offset") // 种子偏移量，用于在不改配置的情况下调整随机序列
)

// Engine 随机数引擎
// 功能：提供可复现的随机数采样，带Safe后缀的方法可并发调用
type Engine struct {
	*rand.Rand            // 底层随机数生成器
	mtx        sync.Mutex // 互斥锁，用于线程安全操作
}

// New 创建随机数引擎
// 参数：seed-随机数种子（会叠加命令行给出的种子偏移量）
func New(seed uint64) *Engine {
	return &Engine{Rand: rand.New(rand.NewSource(seed + *seedOffset))}
}

// PTrue 以指定概率返回true（非线程安全）
func (e *Engine) PTrue(p float64) bool {
	return e.Float64() < p
}

// Float64Safe 随机生成[0,1)浮点数（线程安全）
func (e *Engine) Float64Safe() float64 {
	e.mtx.Lock()
	defer e.mtx.Unlock()
	return e.Float64()
}

// TruncNormal 截断正态分布采样（非线程安全）
// 功能：从N(mean, std²)中采样并截断到[low, high]
// 参数：mean-均值，std-标准差，low/high-截断上下界
// 返回：采样值
// 说明：std<=0时直接返回截断后的均值；采用拒绝采样，超过重试次数则截断最后一次采样
func (e *Engine) TruncNormal(mean, std, low, high float64) float64 {
	if std <= 0 || math.IsNaN(std) {
		return math.Max(low, math.Min(high, mean))
	}
	const maxTries = 16
	var x float64
	for i := 0; i < maxTries; i++ {
		x = mean + std*e.NormFloat64()
		if x >= low && x <= high {
			return x
		}
	}
	return math.Max(low, math.Min(high, x))
}

// TruncNormalSafe 截断正态分布采样（线程安全）
func (e *Engine) TruncNormalSafe(mean, std, low, high float64) float64 {
	e.mtx.Lock()
	defer e.mtx.Unlock()
	return e.TruncNormal(mean, std, low, high)
}
