// 感知层的错误分类，所有可由调用方定位的错误都包装这里的哨兵错误
package errs

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidArgument 参数非法（构造不变量被破坏，或请求超出定义域）
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrInvalidState 对象当前状态不允许该操作
	ErrInvalidState = errors.New("invalid state")
)

// InvalidArgument 构造包装ErrInvalidArgument的错误
// 功能：格式化错误信息并包装为参数非法错误，调用方可以用errors.Is判断
func InvalidArgument(format string, args ...any) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrInvalidArgument)
}

// InvalidState 构造包装ErrInvalidState的错误
func InvalidState(format string, args ...any) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrInvalidState)
}
