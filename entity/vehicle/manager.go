package vehicle

import (
	"fmt"
	"sync"

	"github.com/tsinghua-fib-lab/agentsociety-perception/clock"
	"github.com/tsinghua-fib-lab/agentsociety-perception/utils/container"
)

// Manager 车辆管理器
// 功能：管理所有车辆，增删操作在Prepare时统一生效
type Manager struct {
	clock *clock.Clock

	vehicles *container.IncrementalArray[*Vehicle]
	data     map[string]*Vehicle
	mtx      sync.Mutex
}

// NewManager 创建车辆管理器
func NewManager(clk *clock.Clock) *Manager {
	return &Manager{
		clock:    clk,
		vehicles: container.NewIncrementalArray[*Vehicle](),
		data:     make(map[string]*Vehicle),
	}
}

// Add 创建并登记车辆，初始状态立即写入历史
func (m *Manager) Add(base Base, initial State) (*Vehicle, error) {
	v, err := New(base, m.clock)
	if err != nil {
		return nil, err
	}
	m.mtx.Lock()
	defer m.mtx.Unlock()
	if _, ok := m.data[v.id]; ok {
		return nil, fmt.Errorf("duplicate vehicle id %s", v.id)
	}
	if err := v.Record(initial); err != nil {
		return nil, err
	}
	m.data[v.id] = v
	m.vehicles.Add(v)
	log.Debugf("%v added on %v at s=%.2f", v, initial.Lane, initial.S)
	return v, nil
}

// Remove 移除车辆（Prepare后生效）
func (m *Manager) Remove(v *Vehicle) {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	delete(m.data, v.id)
	m.vehicles.Remove(v)
	if lane := v.Lane(); lane != nil {
		lane.RemoveVehicle(v.node)
	}
}

// GetOrError 根据ID获取车辆
func (m *Manager) GetOrError(id string) (*Vehicle, error) {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	if v, ok := m.data[id]; ok {
		return v, nil
	}
	return nil, fmt.Errorf("no id %s in vehicle data", id)
}

// Vehicles 已生效的所有车辆
func (m *Manager) Vehicles() []*Vehicle {
	return m.vehicles.Data()
}

// Prepare 执行缓冲的增删
func (m *Manager) Prepare() {
	m.vehicles.Prepare()
}
