package perception

import (
	"github.com/tsinghua-fib-lab/agentsociety-perception/entity"
	"github.com/tsinghua-fib-lab/agentsociety-perception/utils/container"
)

// downstreamLane 下游搜索中的一条车道
// 说明：车道上位置x到自车车头的距离为offset+x，lower为该车道上参与搜索的最小位置
type downstreamLane struct {
	lane   entity.ILane
	offset float64
	lower  float64
}

// upstreamLane 上游搜索中的一条车道
// 说明：车道上位置x到自车车尾的距离为offset-x，upper为该车道上参与搜索的最大位置
type upstreamLane struct {
	lane   entity.ILane
	offset float64
	upper  float64
}

// walkDownstream 从自车车头沿后继车道向下游按距离由近到远遍历
// 参数：lane/s-自车车道与车头位置，maxDistance-最大搜索距离，route-路径（可为空），visit-访问函数，返回false时不再展开该车道的后继
// 说明：有路径时只沿路径上的后继车道展开，路径上没有后继时退化为全部后继
func walkDownstream(lane entity.ILane, s, maxDistance float64, route *entity.Route, visit func(dl downstreamLane) bool) {
	pq := container.NewPriorityQueue[downstreamLane]()
	pq.HeapPush(downstreamLane{lane: lane, offset: -s, lower: s}, 0)
	visited := map[entity.ILane]bool{}
	for pq.Len() > 0 {
		dl, _ := pq.HeapPop()
		if visited[dl.lane] {
			continue
		}
		visited[dl.lane] = true
		if !visit(dl) {
			continue
		}
		// 后继车道的起点即为其最近点
		next := dl.offset + dl.lane.Length()
		if next > maxDistance {
			continue
		}
		for _, suc := range successorsOnRoute(dl.lane, route) {
			if !visited[suc] {
				pq.HeapPush(downstreamLane{lane: suc, offset: next, lower: 0}, next)
			}
		}
	}
}

func successorsOnRoute(lane entity.ILane, route *entity.Route) []entity.ILane {
	successors := lane.Successors()
	if route == nil {
		return successors
	}
	onRoute := make([]entity.ILane, 0, len(successors))
	for _, suc := range successors {
		if route.Contains(suc.ID()) {
			onRoute = append(onRoute, suc)
		}
	}
	if len(onRoute) == 0 {
		return successors
	}
	return onRoute
}

// walkUpstream 从自车车尾沿前驱车道向上游按距离由近到远遍历
// 参数：lane/rear-自车车道与车尾位置（可为负，表示车尾仍在前驱车道上），upper-自车车道上参与搜索的最大位置，
// maxDistance-最大搜索距离，visit-访问函数
func walkUpstream(lane entity.ILane, rear, upper, maxDistance float64, visit func(ul upstreamLane) bool) {
	pq := container.NewPriorityQueue[upstreamLane]()
	pq.HeapPush(upstreamLane{lane: lane, offset: rear, upper: upper}, 0)
	visited := map[entity.ILane]bool{}
	for pq.Len() > 0 {
		ul, _ := pq.HeapPop()
		if visited[ul.lane] {
			continue
		}
		visited[ul.lane] = true
		if !visit(ul) {
			continue
		}
		// 前驱车道的终点即为其最近点
		next := ul.offset
		if next > maxDistance {
			continue
		}
		for _, pre := range ul.lane.Predecessors() {
			if !visited[pre] {
				pq.HeapPush(upstreamLane{lane: pre, offset: ul.offset + pre.Length(), upper: pre.Length()}, next)
			}
		}
	}
}
