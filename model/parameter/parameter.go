// 驾驶行为参数集合，供跟驰模型与感知层读取
package parameter

import (
	"errors"
	"fmt"
	"math"

	"git.fiblab.net/general/common/v2/mathutil"
	"github.com/samber/lo"
	"github.com/tsinghua-fib-lab/agentsociety-perception/utils/errs"
)

// ErrMissing 参数未设置
var ErrMissing = errors.New("parameter not set")

// Type 参数类型
// 功能：参数的唯一标识、说明与取值范围，可比较，作为参数集合的键
type Type struct {
	id   string
	desc string
	min  float64
	max  float64
}

// 已知参数类型
var (
	A      = register("a", "最大加速度（米/秒²）", 0, mathutil.INF)
	B      = register("b", "舒适减速度（米/秒²）", 0, mathutil.INF)
	S0     = register("s0", "静止时的最小车距（米）", 0, mathutil.INF)
	T      = register("t", "期望车头时距（秒）", 0, mathutil.INF)
	DELTA  = register("delta", "IDM自由流加速度指数", 0, mathutil.INF)
	FSPEED = register("fSpeed", "期望速度相对限速的比例", 0, mathutil.INF)
	DLEFT  = register("dLeft", "左变道意愿", -1, 1)
	DRIGHT = register("dRight", "右变道意愿", -1, 1)
	SOCIO  = register("socio", "社会压力", 0, 1)
)

var registry = map[string]Type{}

func register(id, desc string, min, max float64) Type {
	t := Type{id: id, desc: desc, min: min, max: max}
	registry[id] = t
	return t
}

// TypeByID 根据参数ID查找参数类型（用于配置文件）
func TypeByID(id string) (Type, bool) {
	t, ok := registry[id]
	return t, ok
}

// ID 参数ID
func (t Type) ID() string {
	return t.id
}

// Description 参数说明
func (t Type) Description() string {
	return t.desc
}

func (t Type) String() string {
	return t.id
}

// Set 参数集合
// 说明：集合本身可变，跨感知步骤传递时应使用Copy得到的副本
type Set struct {
	values map[Type]float64
}

// NewSet 创建空的参数集合
func NewSet() *Set {
	return &Set{values: make(map[Type]float64)}
}

// Set 设置参数值
// 返回：值不在参数取值范围内时返回ErrInvalidArgument
func (s *Set) Set(t Type, v float64) error {
	if math.IsNaN(v) || v < t.min || v > t.max {
		return errs.InvalidArgument("parameter %s=%v out of range [%v, %v]", t.id, v, t.min, t.max)
	}
	s.values[t] = v
	return nil
}

// Get 读取参数值
// 返回：未设置时返回包装ErrMissing的错误
func (s *Set) Get(t Type) (float64, error) {
	v, ok := s.values[t]
	if !ok {
		return 0, fmt.Errorf("parameter %s: %w", t.id, ErrMissing)
	}
	return v, nil
}

// GetOptional 读取可选参数值
func (s *Set) GetOptional(t Type) (float64, bool) {
	v, ok := s.values[t]
	return v, ok
}

// Contains 参数是否已设置
func (s *Set) Contains(t Type) bool {
	_, ok := s.values[t]
	return ok
}

// Len 已设置参数数量
func (s *Set) Len() int {
	return len(s.values)
}

// Copy 深拷贝参数集合
// 功能：返回与原集合不共享存储的副本，之后对任何一方的修改都不会影响另一方
func (s *Set) Copy() *Set {
	return &Set{values: lo.Assign(s.values)}
}

func (s *Set) String() string {
	return fmt.Sprintf("Parameters%v", s.values)
}

// FromMap 根据参数ID到取值的映射构建参数集合（用于配置文件）
// 返回：出现未知参数ID或取值越界时返回ErrInvalidArgument
func FromMap(values map[string]float64) (*Set, error) {
	s := NewSet()
	for id, v := range values {
		t, ok := TypeByID(id)
		if !ok {
			return nil, errs.InvalidArgument("unknown parameter %q", id)
		}
		if err := s.Set(t, v); err != nil {
			return nil, err
		}
	}
	return s, nil
}
