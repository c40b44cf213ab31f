package lane

import (
	"sync"

	"github.com/tsinghua-fib-lab/agentsociety-perception/entity"
)

// vehicleList 车道上的车辆链表
// 功能：车辆在更新阶段并发地登记增删，Prepare时统一写入链表，感知阶段只读链表
type vehicleList struct {
	list *entity.VehicleList

	mtx          sync.Mutex
	addBuffer    []*entity.VehicleNode
	removeBuffer []*entity.VehicleNode
}

func newVehicleList(id string) *vehicleList {
	return &vehicleList{
		list:         &entity.VehicleList{ID: id},
		addBuffer:    make([]*entity.VehicleNode, 0),
		removeBuffer: make([]*entity.VehicleNode, 0),
	}
}

// prepare 应用缓冲的增删
// 算法说明：
// 1. 移除离开本车道的车辆
// 2. 取出因车辆前进而逆序的节点
// 3. 与新加入的节点一起归并回链表
func (l *vehicleList) prepare() {
	l.mtx.Lock()
	defer l.mtx.Unlock()
	for _, node := range l.removeBuffer {
		l.list.Remove(node)
	}
	unsorted := l.list.PopUnsorted()
	l.list.Merge(append(l.addBuffer, unsorted...))
	l.removeBuffer = l.removeBuffer[:0]
	l.addBuffer = l.addBuffer[:0]
}

// add 登记加入的节点，节点不能已在某个链表中
func (l *vehicleList) add(node *entity.VehicleNode) {
	if node.Parent() != nil {
		log.Panicf("%v: add %v which is already in %v", l.list, node, node.Parent())
	}
	l.mtx.Lock()
	defer l.mtx.Unlock()
	l.addBuffer = append(l.addBuffer, node)
}

// remove 登记移除的节点，节点必须在本链表中
func (l *vehicleList) remove(node *entity.VehicleNode) {
	if node.Parent() != l.list {
		log.Panicf("%v: remove %v from wrong list (parent=%v)", l.list, node, node.Parent())
	}
	l.mtx.Lock()
	defer l.mtx.Unlock()
	l.removeBuffer = append(l.removeBuffer, node)
}
