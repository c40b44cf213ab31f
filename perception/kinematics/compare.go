package kinematics

import "cmp"

// Compare 感知对象的排序
// 功能：返回-1/0/1，用于slices.SortFunc
// 算法说明：
// 1. 非并行（有确定距离）的对象总是排在并行对象之前
// 2. 两者都有确定距离时按距离排序
// 3. 两者都并行时按前端重叠量排序
func Compare(a, b Kinematics) int {
	switch pa, pb := a.overlap.parallel, b.overlap.parallel; {
	case !pa && !pb:
		return cmp.Compare(a.distance, b.distance)
	case !pa:
		return -1
	case !pb:
		return 1
	default:
		return cmp.Compare(a.overlap.front, b.overlap.front)
	}
}
