// Package errors 定义工位业务错误的分类哨兵。
//
// 具体错误通过 fmt.Errorf("%w: ...", 分类) 包装分类，
// 调用方既可以 errors.Is 到具体错误，也可以 errors.Is 到分类。
package errors

import "errors"

var (
	// ErrStateForbidden 状态机不允许的转换；任何字段都未被修改
	ErrStateForbidden = errors.New("当前工位状态不允许该操作")
	// ErrNotFound 产品、员工或生产方案不存在
	ErrNotFound = errors.New("记录不存在")
	// ErrAssemblyRejected 组件装配前置条件不满足
	ErrAssemblyRejected = errors.New("组件装配被拒绝")
	// ErrExternalService 外部服务（存储、录像、发布）调用失败或超时
	ErrExternalService = errors.New("外部服务调用失败")
)

// Is 转发到标准库，避免调用方同时导入两个 errors 包
func Is(err, target error) bool {
	return errors.Is(err, target)
}
