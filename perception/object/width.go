package object

import (
	"fmt"
	"math"
	"slices"

	"github.com/tsinghua-fib-lab/agentsociety-perception/utils/errs"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/interp"
)

// Width 冲突区宽度沿长度方向的分段线性剖面
// 功能：给出冲突区在长度比例f处的物理宽度
// 说明：至少两个点，比例严格递增且首尾为0和1，构造后不可变
type Width struct {
	fractions []float64
	widths    []float64
	pl        interp.PiecewiseLinear
}

// NewWidth 创建宽度剖面
// 参数：fractions-长度比例，widths-对应的宽度
// 返回：点数不足、长度不一致、比例非严格递增、首尾不是0和1或宽度非法时返回ErrInvalidArgument
func NewWidth(fractions, widths []float64) (Width, error) {
	if len(fractions) < 2 {
		return Width{}, errs.InvalidArgument("width needs at least 2 points, got %d", len(fractions))
	}
	if len(fractions) != len(widths) {
		return Width{}, errs.InvalidArgument("width has %d fractions but %d widths", len(fractions), len(widths))
	}
	if floats.HasNaN(fractions) || floats.HasNaN(widths) {
		return Width{}, errs.InvalidArgument("width contains NaN")
	}
	if fractions[0] != 0 || fractions[len(fractions)-1] != 1 {
		return Width{}, errs.InvalidArgument("width fractions must span [0, 1], got [%v, %v]", fractions[0], fractions[len(fractions)-1])
	}
	for i := 1; i < len(fractions); i++ {
		if fractions[i] <= fractions[i-1] {
			return Width{}, errs.InvalidArgument("width fractions not strictly increasing at %d", i)
		}
	}
	if floats.Min(widths) < 0 || math.IsInf(floats.Max(widths), 1) {
		return Width{}, errs.InvalidArgument("width values out of range: %v", widths)
	}
	w := Width{
		fractions: slices.Clone(fractions),
		widths:    slices.Clone(widths),
	}
	if err := w.pl.Fit(w.fractions, w.widths); err != nil {
		return Width{}, errs.InvalidArgument("width fit: %v", err)
	}
	return w, nil
}

// LinearWidth 两点宽度剖面
func LinearWidth(start, end float64) (Width, error) {
	return NewWidth([]float64{0, 1}, []float64{start, end})
}

// At 长度比例f处的宽度
// 返回：f不在[0,1]内时返回ErrInvalidArgument
// 说明：插值没有落在任何区间内说明剖面本身已损坏，直接panic
func (w Width) At(f float64) (float64, error) {
	if !(f >= 0 && f <= 1) {
		return 0, errs.InvalidArgument("width fraction %v out of [0, 1]", f)
	}
	if len(w.fractions) < 2 {
		log.Panicf("width queried on an unconstructed profile")
	}
	i, found := slices.BinarySearch(w.fractions, f)
	switch {
	case found:
		return w.widths[i], nil
	case i > 0 && i < len(w.fractions):
		return w.pl.Predict(f), nil
	}
	log.Panicf("width interpolation found no segment for fraction %v in %v", f, w.fractions)
	return 0, nil
}

// Fractions 长度比例（副本）
func (w Width) Fractions() []float64 {
	return slices.Clone(w.fractions)
}

// Widths 宽度（副本）
func (w Width) Widths() []float64 {
	return slices.Clone(w.widths)
}

func (w Width) String() string {
	return fmt.Sprintf("Width%v@%v", w.widths, w.fractions)
}
