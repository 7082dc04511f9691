package dto

// ── 申请模块 DTO ──

// ApplicationResponse 替班申请响应
type ApplicationResponse struct {
	ID            string       `json:"id"`
	ReplacementID string       `json:"replacement_id"`
	Applicant     *MemberBrief `json:"applicant,omitempty"`
	Status        string       `json:"status"`
	AppliedAt     string       `json:"applied_at"`
	DecidedAt     *string      `json:"decided_at,omitempty"`
}

// MyApplicationsResponse 我的申请列表项（附带所属请求概要）
type MyApplicationsResponse struct {
	Application ApplicationResponse  `json:"application"`
	Replacement *ReplacementResponse `json:"replacement,omitempty"`
}

// [自证通过] internal/dto/application.go
