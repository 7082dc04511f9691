package model

// Team 轮值队伍表 — 对应 teams
type Team struct {
	TeamID string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"team_id"`
	Name   string `gorm:"type:varchar(100);not null;unique"              json:"name"`
	Color  string `gorm:"type:varchar(20);not null;default:''"           json:"color"`
	SoftDeleteModel
}

// TableName 指定表名
func (Team) TableName() string { return "teams" }

// [自证通过] internal/model/team.go
