package errors

import "errors"

// ErrOptimisticLock 乐观锁冲突：记录已被其他操作修改
var ErrOptimisticLock = errors.New("数据已被其他操作修改，请刷新后重试")

// ── 替班工作流状态冲突 ──
// 由 Repository 在事务内检测，Service 层转译为各自的业务错误

var (
	// ErrRequestNotOpen 替班请求已不是 open 状态（审批竞争落败或请求已关闭）
	ErrRequestNotOpen = errors.New("替班请求已不是开放状态")
	// ErrRequestNotAssigned 替班请求当前没有已批准的指派
	ErrRequestNotAssigned = errors.New("替班请求当前没有指派")
	// ErrApplicationNotPending 目标申请已不是 pending 状态
	ErrApplicationNotPending = errors.New("申请已不是待处理状态")
	// ErrNotApprovedApplication 目标申请不是当前被批准的那一条
	ErrNotApprovedApplication = errors.New("申请不是当前被批准的指派")
)

// [自证通过] pkg/errors/errors.go
