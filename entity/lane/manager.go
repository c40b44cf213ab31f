package lane

import (
	"fmt"

	"git.fiblab.net/general/common/v2/parallel"
	mapv2 "git.fiblab.net/sim/protos/v2/go/city/map/v2"
	"github.com/samber/lo"
)

// Manager Lane管理器
// 功能：管理所有Lane实体，提供创建、查找、初始化与每步的链表维护
type Manager struct {
	data  map[int32]*Lane
	lanes []*Lane
}

// NewManager 创建Lane管理器实例
func NewManager() *Manager {
	return &Manager{
		data:  make(map[int32]*Lane),
		lanes: make([]*Lane, 0),
	}
}

// Init 初始化所有Lane
// 功能：根据protobuf数据初始化所有Lane对象，建立ID映射关系和连接关系
// 参数：pbs-Lane的protobuf数据列表
// 说明：使用并行处理创建对象，连接关系因需双向登记而串行建立
func (m *Manager) Init(pbs []*mapv2.Lane) error {
	type result struct {
		lane *Lane
		err  error
	}
	results := parallel.GoMap(pbs, func(pb *mapv2.Lane) result {
		l, err := New(pb)
		return result{lane: l, err: err}
	})
	for _, r := range results {
		if r.err != nil {
			return r.err
		}
		if _, ok := m.data[r.lane.id]; ok {
			return fmt.Errorf("duplicate lane id %d", r.lane.id)
		}
		m.data[r.lane.id] = r.lane
	}
	m.lanes = lo.Map(results, func(r result, _ int) *Lane { return r.lane })
	for _, l := range m.lanes {
		if err := l.initWithManager(m); err != nil {
			return err
		}
	}
	log.Infof("%d lanes initialized", len(m.lanes))
	return nil
}

// Get 根据ID获取Lane实例，如果不存在则panic
func (m *Manager) Get(id int32) *Lane {
	if lane, ok := m.data[id]; !ok {
		log.Panicf("no id %d in lane data", id)
		return nil
	} else {
		return lane
	}
}

// GetOrError 根据ID获取Lane实例（带错误处理）
func (m *Manager) GetOrError(id int32) (*Lane, error) {
	if lane, ok := m.data[id]; !ok {
		return nil, fmt.Errorf("no id %d in lane data", id)
	} else {
		return lane, nil
	}
}

// Find 找出ID对应的Lane
// 返回：okLanes-按ids顺序找到的Lane，failedIDs-不存在的ID；ids为空时返回所有Lane
func (m *Manager) Find(ids []int32) (okLanes []*Lane, failedIDs []int32) {
	if len(ids) == 0 {
		return m.lanes, nil
	}
	okLanes = make([]*Lane, 0, len(ids))
	failedIDs = make([]int32, 0)
	for _, id := range ids {
		if l, ok := m.data[id]; ok {
			okLanes = append(okLanes, l)
		} else {
			failedIDs = append(failedIDs, id)
		}
	}
	return
}

// Lanes 所有Lane
func (m *Manager) Lanes() []*Lane {
	return m.lanes
}

// Prepare 准备阶段，处理所有Lane的车辆链表缓冲区
// 说明：使用并行处理提高性能，必须在感知阶段之外调用
func (m *Manager) Prepare() {
	parallel.GoFor(m.lanes, func(l *Lane) { l.prepare() })
}
