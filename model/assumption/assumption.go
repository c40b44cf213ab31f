// 按交通参与者类别给出的行为假设：当具体车辆的跟驰模型、参数或限速不可感知时，
// 用“这一类车通常如何”代替“这辆车实际如何”
package assumption

import (
	"fmt"

	mapv2 "git.fiblab.net/sim/protos/v2/go/city/map/v2"
	"github.com/samber/lo"
	"github.com/tsinghua-fib-lab/agentsociety-perception/entity"
	"github.com/tsinghua-fib-lab/agentsociety-perception/model/following"
	"github.com/tsinghua-fib-lab/agentsociety-perception/model/parameter"
	"github.com/tsinghua-fib-lab/agentsociety-perception/utils/config"
	"github.com/tsinghua-fib-lab/agentsociety-perception/utils/errs"
)

type entry struct {
	model      following.Model
	params     *parameter.Set
	laneSpeeds map[mapv2.LaneType]float64
}

// Assumptions 行为假设表
// 说明：初始化完成后只读，可在多个感知步骤间共享
type Assumptions struct {
	entries map[entity.GtuType]entry
}

// New 创建空的行为假设表
func New() *Assumptions {
	return &Assumptions{entries: make(map[entity.GtuType]entry)}
}

// Set 设置某一类别的行为假设
// 参数：gtuType-类别，model-跟驰模型，params-参数（内部保存副本），laneSpeeds-各车道类型的假定限速
func (a *Assumptions) Set(
	gtuType entity.GtuType, model following.Model, params *parameter.Set, laneSpeeds map[mapv2.LaneType]float64,
) {
	a.entries[gtuType] = entry{
		model:      model,
		params:     params.Copy(),
		laneSpeeds: lo.Assign(laneSpeeds),
	}
}

func (a *Assumptions) get(gtuType entity.GtuType) (entry, error) {
	e, ok := a.entries[gtuType]
	if !ok {
		return entry{}, errs.InvalidArgument("no assumption for gtu type %q", gtuType)
	}
	return e, nil
}

// CarFollowingModel 假定的跟驰模型
func (a *Assumptions) CarFollowingModel(gtuType entity.GtuType) (following.Model, error) {
	e, err := a.get(gtuType)
	if err != nil {
		return nil, err
	}
	return e.model, nil
}

// Parameters 假定的行为参数（返回副本）
func (a *Assumptions) Parameters(gtuType entity.GtuType) (*parameter.Set, error) {
	e, err := a.get(gtuType)
	if err != nil {
		return nil, err
	}
	return e.params.Copy(), nil
}

// LaneTypeMaxSpeed 假定的车道类型限速
func (a *Assumptions) LaneTypeMaxSpeed(gtuType entity.GtuType, laneType mapv2.LaneType) (float64, error) {
	e, err := a.get(gtuType)
	if err != nil {
		return 0, err
	}
	v, ok := e.laneSpeeds[laneType]
	if !ok {
		return 0, errs.InvalidArgument("no assumed speed for %v on %v", gtuType, laneType)
	}
	return v, nil
}

// GtuTypes 已配置的类别
func (a *Assumptions) GtuTypes() []entity.GtuType {
	return lo.Keys(a.entries)
}

// FromConfig 根据配置构建行为假设表
// 算法说明：
// 1. 根据名称查找跟驰模型
// 2. 根据参数ID查找参数类型并做取值范围检查
// 3. 根据LaneType名称解析车道类型
func FromConfig(cfgs []config.GtuAssumption) (*Assumptions, error) {
	a := New()
	for _, c := range cfgs {
		model, err := following.ByName(c.Model)
		if err != nil {
			return nil, fmt.Errorf("assumption %v: %w", c.GtuType, err)
		}
		params, err := parameter.FromMap(c.Parameters)
		if err != nil {
			return nil, fmt.Errorf("assumption %v: %w", c.GtuType, err)
		}
		laneSpeeds := make(map[mapv2.LaneType]float64, len(c.LaneSpeeds))
		for name, v := range c.LaneSpeeds {
			t, ok := mapv2.LaneType_value[name]
			if !ok {
				return nil, errs.InvalidArgument("assumption %v: unknown lane type %q", c.GtuType, name)
			}
			laneSpeeds[mapv2.LaneType(t)] = v
		}
		a.Set(entity.GtuType(c.GtuType), model, params, laneSpeeds)
	}
	return a, nil
}
