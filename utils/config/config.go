package config

import (
	"os"

	"github.com/samber/lo"
	"github.com/tsinghua-fib-lab/agentsociety-perception/utils/errs"
	"gopkg.in/yaml.v2"
)

var (
	perceptionModes = []string{"perfect", "delayed", "assumed", "estimated"}
	estimations     = []string{"", "none", "underestimation", "overestimation", "factor"}
)

// RuntimeConfig 运行时配置
// 功能：存储校验后的配置信息
type RuntimeConfig struct {
	All Config     // 全部配置
	C   Control    // 全局控制配置
	P   Perception // 感知配置
}

// NewRuntimeConfig 根据配置初始化运行时配置
// 功能：校验配置并补全默认值
// 参数：config-原始配置对象
// 返回：初始化的运行时配置指针，配置非法时返回ErrInvalidArgument
// 算法说明：
// 1. 未指定感知模式时默认为perfect
// 2. 校验感知模式与估计误差类型
// 3. 校验延迟、可视距离、感知距离非负
func NewRuntimeConfig(config Config) (*RuntimeConfig, error) {
	p := config.Perception
	if p.Mode == "" {
		p.Mode = "perfect"
	}
	if !lo.Contains(perceptionModes, p.Mode) {
		return nil, errs.InvalidArgument("unknown perception mode %q", p.Mode)
	}
	if !lo.Contains(estimations, p.Estimation) {
		return nil, errs.InvalidArgument("unknown estimation %q", p.Estimation)
	}
	if p.Delay < 0 || p.Visibility < 0 || p.LookAhead < 0 || p.LookBack < 0 || p.EstimationStd < 0 {
		return nil, errs.InvalidArgument("negative perception setting %+v", p)
	}
	if config.Control.Step.Interval <= 0 {
		return nil, errs.InvalidArgument("non-positive step interval %v", config.Control.Step.Interval)
	}
	config.Perception = p
	return &RuntimeConfig{
		All: config,
		C:   config.Control,
		P:   p,
	}, nil
}

// Parse 解析YAML配置
// 说明：使用严格模式，出现未知字段时报错
func Parse(data []byte) (*RuntimeConfig, error) {
	var c Config
	if err := yaml.UnmarshalStrict(data, &c); err != nil {
		return nil, errs.InvalidArgument("config parse err: %v", err)
	}
	return NewRuntimeConfig(c)
}

// Load 读取并解析YAML配置文件
func Load(path string) (*RuntimeConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}
