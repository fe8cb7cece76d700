package service

import (
	"errors"
	"fmt"

	pkgerrors "feecc-workbench/pkg/errors"
)

// ── 工位业务错误 ──

var (
	ErrUnitNotFound     = fmt.Errorf("%w: 产品不存在", pkgerrors.ErrNotFound)
	ErrEmployeeNotFound = fmt.Errorf("%w: 员工不存在", pkgerrors.ErrNotFound)
	ErrSchemaNotFound   = fmt.Errorf("%w: 生产方案不存在", pkgerrors.ErrNotFound)

	ErrNotGatheringComponents = fmt.Errorf("%w: 工位未处于组件装配状态", pkgerrors.ErrStateForbidden)
	ErrNoUnitAssigned         = fmt.Errorf("%w: 工位未分配产品", pkgerrors.ErrStateForbidden)
	ErrNoEmployeeLoggedIn     = fmt.Errorf("%w: 工位没有已登录的员工", pkgerrors.ErrStateForbidden)
	ErrOperationOngoing       = fmt.Errorf("%w: 工序进行中", pkgerrors.ErrStateForbidden)
	ErrCreateUnitForbidden    = fmt.Errorf("%w: 仅在员工已登录且未分配产品时可以创建产品", pkgerrors.ErrStateForbidden)

	ErrPersistence = fmt.Errorf("%w: 保存产品失败", pkgerrors.ErrExternalService)

	ErrUnknownDevice = errors.New("未知的扫码设备")
)

// forbidden 构造迁移表拒绝的错误
func forbidden(from, to State) error {
	return fmt.Errorf("%w: %s → %s", pkgerrors.ErrStateForbidden, from, to)
}

func persistenceError(err error) error {
	return fmt.Errorf("%w: %v", ErrPersistence, err)
}
