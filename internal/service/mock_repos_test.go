package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"gorm.io/gorm"

	"lhoraire/backend/config"
	"lhoraire/backend/internal/model"
	"lhoraire/backend/internal/repository"
	pkgerrors "lhoraire/backend/pkg/errors"
)

// ── 共享内存存储 ──
//
// Approve / Unassign / Cancel 需要跨请求与申请两张表的原子变更，
// 因此替班与申请的 mock 共享同一个带互斥锁的存储，
// 锁内完成整个状态机迁移，和真实实现的行锁事务语义一致。

type mockStore struct {
	mu        sync.Mutex
	requests  map[string]*model.ReplacementRequest
	apps      map[string]*model.ReplacementApplication
	overrides map[string]*model.ShiftRoleOverride // "shiftID:userID"
	seq       int
}

func newMockStore() *mockStore {
	return &mockStore{
		requests:  make(map[string]*model.ReplacementRequest),
		apps:      make(map[string]*model.ReplacementApplication),
		overrides: make(map[string]*model.ShiftRoleOverride),
	}
}

func (st *mockStore) nextID(prefix string) string {
	st.seq++
	return fmt.Sprintf("%s-%d", prefix, st.seq)
}

func overrideKey(shiftID, userID string) string { return shiftID + ":" + userID }

// ── Mock ReplacementRepository ──

type mockReplacementRepo struct {
	st *mockStore
}

func (m *mockReplacementRepo) Create(_ context.Context, req *model.ReplacementRequest) error {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	if req.ReplacementID == "" {
		req.ReplacementID = m.st.nextID("repl")
	}
	if req.Version == 0 {
		req.Version = 1
	}
	cp := *req
	m.st.requests[req.ReplacementID] = &cp
	return nil
}

func (m *mockReplacementRepo) GetByID(_ context.Context, id string) (*model.ReplacementRequest, error) {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	req, ok := m.st.requests[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *req
	return &cp, nil
}

func (m *mockReplacementRepo) List(_ context.Context, filter repository.ReplacementFilter, offset, limit int) ([]model.ReplacementRequest, int64, error) {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	var result []model.ReplacementRequest
	for _, req := range m.st.requests {
		if filter.TeamID != "" && req.TeamID != filter.TeamID {
			continue
		}
		if filter.Status != "" && req.Status != filter.Status {
			continue
		}
		result = append(result, *req)
	}
	return result, int64(len(result)), nil
}

func (m *mockReplacementRepo) Approve(_ context.Context, replacementID, applicationID string, override *model.ShiftRoleOverride, now time.Time, callerID string) error {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()

	req, ok := m.st.requests[replacementID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if req.Status != model.RequestStatusOpen {
		return pkgerrors.ErrRequestNotOpen
	}
	app, ok := m.st.apps[applicationID]
	if !ok || app.ReplacementID != replacementID || app.Status != model.ApplicationStatusPending {
		return pkgerrors.ErrApplicationNotPending
	}

	decided := now
	app.Status = model.ApplicationStatusApproved
	app.DecidedAt = &decided
	app.Version++

	for _, sibling := range m.st.apps {
		if sibling.ReplacementID == replacementID &&
			sibling.ApplicationID != applicationID &&
			sibling.Status == model.ApplicationStatusPending {
			sibling.Status = model.ApplicationStatusRejected
			sibling.DecidedAt = &decided
			sibling.Version++
		}
	}

	req.Status = model.RequestStatusAssigned
	req.Version++

	if override != nil {
		cp := *override
		m.st.overrides[overrideKey(override.ShiftID, override.UserID)] = &cp
	}
	return nil
}

func (m *mockReplacementRepo) Unassign(_ context.Context, replacementID, applicationID string, now time.Time, callerID string) error {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()

	req, ok := m.st.requests[replacementID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if req.Status != model.RequestStatusAssigned {
		return pkgerrors.ErrRequestNotAssigned
	}
	app, ok := m.st.apps[applicationID]
	if !ok || app.ReplacementID != replacementID || app.Status != model.ApplicationStatusApproved {
		return pkgerrors.ErrNotApprovedApplication
	}

	app.Status = model.ApplicationStatusPending
	app.DecidedAt = nil
	app.Version++

	req.Status = model.RequestStatusOpen
	req.NotificationSentAt = nil
	req.Version++

	delete(m.st.overrides, overrideKey(req.ShiftID, app.ApplicantID))
	return nil
}

func (m *mockReplacementRepo) Cancel(_ context.Context, replacementID string, now time.Time, callerID string) error {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()

	req, ok := m.st.requests[replacementID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if req.Status == model.RequestStatusCancelled {
		return pkgerrors.ErrRequestNotOpen
	}

	decided := now
	for _, app := range m.st.apps {
		if app.ReplacementID != replacementID {
			continue
		}
		if app.Status == model.ApplicationStatusApproved {
			delete(m.st.overrides, overrideKey(req.ShiftID, app.ApplicantID))
		}
		if app.Status == model.ApplicationStatusPending || app.Status == model.ApplicationStatusApproved {
			app.Status = model.ApplicationStatusRejected
			app.DecidedAt = &decided
			app.Version++
		}
	}

	req.Status = model.RequestStatusCancelled
	req.Version++
	return nil
}

func (m *mockReplacementRepo) MarkNotified(ctx context.Context, replacementID string, sentAt time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	req, ok := m.st.requests[replacementID]
	if !ok {
		return nil
	}
	if req.NotificationSentAt == nil {
		t := sentAt
		req.NotificationSentAt = &t
	}
	return nil
}

// ── Mock ApplicationRepository ──

type mockApplicationRepo struct {
	st *mockStore
}

// hasActive 同一申请人对同一请求是否已有非 withdrawn 申请
func (m *mockApplicationRepo) hasActive(replacementID, applicantID, excludeID string) bool {
	for _, app := range m.st.apps {
		if app.ApplicationID == excludeID {
			continue
		}
		if app.ReplacementID == replacementID && app.ApplicantID == applicantID &&
			app.Status != model.ApplicationStatusWithdrawn {
			return true
		}
	}
	return false
}

func (m *mockApplicationRepo) Create(_ context.Context, app *model.ReplacementApplication) error {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	if m.hasActive(app.ReplacementID, app.ApplicantID, "") {
		return gorm.ErrDuplicatedKey
	}
	if app.ApplicationID == "" {
		app.ApplicationID = m.st.nextID("app")
	}
	if app.Version == 0 {
		app.Version = 1
	}
	cp := *app
	m.st.apps[app.ApplicationID] = &cp
	return nil
}

func (m *mockApplicationRepo) GetByID(_ context.Context, id string) (*model.ReplacementApplication, error) {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	app, ok := m.st.apps[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *app
	return &cp, nil
}

func (m *mockApplicationRepo) GetActive(_ context.Context, replacementID, applicantID string) (*model.ReplacementApplication, error) {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	for _, app := range m.st.apps {
		if app.ReplacementID == replacementID && app.ApplicantID == applicantID &&
			app.Status != model.ApplicationStatusWithdrawn {
			cp := *app
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockApplicationRepo) ListByReplacement(_ context.Context, replacementID string) ([]model.ReplacementApplication, error) {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	var result []model.ReplacementApplication
	for _, app := range m.st.apps {
		if app.ReplacementID == replacementID {
			result = append(result, *app)
		}
	}
	return result, nil
}

func (m *mockApplicationRepo) ListByApplicant(_ context.Context, applicantID string, offset, limit int) ([]model.ReplacementApplication, int64, error) {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	var result []model.ReplacementApplication
	for _, app := range m.st.apps {
		if app.ApplicantID != applicantID {
			continue
		}
		cp := *app
		if repl, ok := m.st.requests[app.ReplacementID]; ok {
			rcp := *repl
			cp.Replacement = &rcp
		}
		result = append(result, cp)
	}
	return result, int64(len(result)), nil
}

func (m *mockApplicationRepo) UpdateStatus(_ context.Context, app *model.ReplacementApplication, status string, decidedAt *time.Time, callerID string) error {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	stored, ok := m.st.apps[app.ApplicationID]
	if !ok || stored.Version != app.Version {
		return pkgerrors.ErrOptimisticLock
	}
	// 回到 pending 时复查部分唯一索引（撤回后重新申请的场景）
	if status == model.ApplicationStatusPending &&
		m.hasActive(stored.ReplacementID, stored.ApplicantID, stored.ApplicationID) {
		return gorm.ErrDuplicatedKey
	}
	stored.Status = status
	stored.DecidedAt = decidedAt
	stored.Version++
	app.Status = status
	app.DecidedAt = decidedAt
	app.Version = stored.Version
	return nil
}

func (m *mockApplicationRepo) ListApprovedByApplicant(_ context.Context, applicantID string) ([]model.ReplacementApplication, error) {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	var result []model.ReplacementApplication
	for _, app := range m.st.apps {
		if app.ApplicantID != applicantID || app.Status != model.ApplicationStatusApproved {
			continue
		}
		cp := *app
		if repl, ok := m.st.requests[app.ReplacementID]; ok {
			rcp := *repl
			cp.Replacement = &rcp
		}
		result = append(result, cp)
	}
	return result, nil
}

// ── Mock RoleOverrideRepository ──

type mockRoleOverrideRepo struct {
	st *mockStore
}

func (m *mockRoleOverrideRepo) GetByShiftAndUser(_ context.Context, shiftID, userID string) (*model.ShiftRoleOverride, error) {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	if o, ok := m.st.overrides[overrideKey(shiftID, userID)]; ok {
		cp := *o
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockRoleOverrideRepo) ListByShift(_ context.Context, shiftID string) ([]model.ShiftRoleOverride, error) {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	var result []model.ShiftRoleOverride
	for _, o := range m.st.overrides {
		if o.ShiftID == shiftID {
			result = append(result, *o)
		}
	}
	return result, nil
}

// ── Mock UserRepository ──

type mockUserRepo struct {
	users map[string]*model.User
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[string]*model.User)}
}

func (m *mockUserRepo) Create(_ context.Context, user *model.User) error {
	if user.UserID == "" {
		user.UserID = "user-" + user.BadgeNumber
	}
	m.users[user.UserID] = user
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) GetByBadgeNumber(_ context.Context, badgeNumber string) (*model.User, error) {
	for _, u := range m.users {
		if u.BadgeNumber == badgeNumber {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) ListByTeam(_ context.Context, teamID string) ([]model.User, error) {
	var result []model.User
	for _, u := range m.users {
		if u.TeamID == teamID {
			result = append(result, *u)
		}
	}
	return result, nil
}

// ── Mock ShiftRepository ──

type mockShiftRepo struct {
	shifts map[string]*model.Shift
}

func newMockShiftRepo() *mockShiftRepo {
	return &mockShiftRepo{shifts: make(map[string]*model.Shift)}
}

func (m *mockShiftRepo) Create(_ context.Context, shift *model.Shift) error {
	if shift.ShiftID == "" {
		shift.ShiftID = "shift-" + shift.ShiftDate.Format("20060102") + "-" + shift.ShiftType
	}
	m.shifts[shift.ShiftID] = shift
	return nil
}

func (m *mockShiftRepo) GetByID(_ context.Context, id string) (*model.Shift, error) {
	if s, ok := m.shifts[id]; ok {
		return s, nil
	}
	return nil, gorm.ErrRecordNotFound
}

// ── Mock TeamRepository ──

type mockTeamRepo struct {
	teams map[string]*model.Team
}

func newMockTeamRepo() *mockTeamRepo {
	return &mockTeamRepo{teams: make(map[string]*model.Team)}
}

func (m *mockTeamRepo) Create(_ context.Context, team *model.Team) error {
	if team.TeamID == "" {
		team.TeamID = "team-" + team.Name
	}
	m.teams[team.TeamID] = team
	return nil
}

func (m *mockTeamRepo) GetByID(_ context.Context, id string) (*model.Team, error) {
	if t, ok := m.teams[id]; ok {
		return t, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockTeamRepo) List(_ context.Context) ([]model.Team, error) {
	var result []model.Team
	for _, t := range m.teams {
		result = append(result, *t)
	}
	return result, nil
}

// ── Mock NotificationRepository ──

type mockNotificationRepo struct {
	mu            sync.Mutex
	notifications []model.Notification
	failCreate    bool
}

func newMockNotificationRepo() *mockNotificationRepo {
	return &mockNotificationRepo{}
}

func (m *mockNotificationRepo) Create(_ context.Context, n *model.Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failCreate {
		return fmt.Errorf("notification store unavailable")
	}
	if n.NotificationID == "" {
		n.NotificationID = fmt.Sprintf("notif-%d", len(m.notifications)+1)
	}
	m.notifications = append(m.notifications, *n)
	return nil
}

func (m *mockNotificationRepo) ListByUser(_ context.Context, userID string, unreadOnly bool, offset, limit int) ([]model.Notification, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []model.Notification
	for _, n := range m.notifications {
		if n.UserID != userID {
			continue
		}
		if unreadOnly && n.IsRead {
			continue
		}
		result = append(result, n)
	}
	return result, int64(len(result)), nil
}

func (m *mockNotificationRepo) MarkRead(_ context.Context, id, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.notifications {
		if m.notifications[i].NotificationID == id && m.notifications[i].UserID == userID {
			m.notifications[i].IsRead = true
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (m *mockNotificationRepo) CountUnread(_ context.Context, userID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var count int64
	for _, n := range m.notifications {
		if n.UserID == userID && !n.IsRead {
			count++
		}
	}
	return count, nil
}

// ── Mock AuditLogRepository ──

type mockAuditLogRepo struct {
	mu   sync.Mutex
	logs []model.AuditLog
}

func newMockAuditLogRepo() *mockAuditLogRepo {
	return &mockAuditLogRepo{}
}

func (m *mockAuditLogRepo) Create(_ context.Context, log *model.AuditLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if log.AuditLogID == "" {
		log.AuditLogID = fmt.Sprintf("audit-%d", len(m.logs)+1)
	}
	m.logs = append(m.logs, *log)
	return nil
}

func (m *mockAuditLogRepo) List(_ context.Context, entityType, entityID string, offset, limit int) ([]model.AuditLog, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []model.AuditLog
	for _, l := range m.logs {
		if entityType != "" && l.EntityType != entityType {
			continue
		}
		if entityID != "" && l.EntityID != entityID {
			continue
		}
		result = append(result, l)
	}
	return result, int64(len(result)), nil
}

// ── 测试装配 ──

// stubDispatcher 可配置的派发桩
type stubDispatcher struct {
	mu         sync.Mutex
	accepted   bool
	err        error
	calls      []string // "userID:event"
	onDispatch func()   // 每次派发前回调（模拟派发期间的外部事件）
}

func (d *stubDispatcher) Dispatch(_ context.Context, userID, event string, _ *model.ReplacementRequest) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.onDispatch != nil {
		d.onDispatch()
	}
	d.calls = append(d.calls, userID+":"+event)
	return d.accepted, d.err
}

// newTestRepository 构建共享 mockStore 的 Repository 聚合
func newTestRepository() (*repository.Repository, *mockStore) {
	st := newMockStore()
	repo := &repository.Repository{
		User:         newMockUserRepo(),
		Team:         newMockTeamRepo(),
		Shift:        newMockShiftRepo(),
		Replacement:  &mockReplacementRepo{st: st},
		Application:  &mockApplicationRepo{st: st},
		RoleOverride: &mockRoleOverrideRepo{st: st},
		Notification: newMockNotificationRepo(),
		AuditLog:     newMockAuditLogRepo(),
	}
	return repo, st
}

// ── 公共测试夹具 ──

const (
	testTeamID      = "team-alpha"
	testShiftID     = "shift-0614-day"
	testRequesterID = "user-requester"
	testApplicantID = "user-applicant"
	testApplicant2  = "user-applicant-2"
	testAdminID     = "user-admin"
)

func testConfig() *config.Config {
	return &config.Config{
		Auth: config.AuthConfig{
			JWTSecret:       "test-secret-key-32-bytes-long!!!",
			AccessTokenTTL:  15 * time.Minute,
			RefreshTokenTTL: 7 * 24 * time.Hour,
		},
		Workflow: config.WorkflowConfig{
			WithdrawCooldown:   3 * time.Second,
			WithdrawMinSpacing: 1 * time.Second,
			DispatchTimeout:    5 * time.Second,
		},
	}
}

// seedWorkflow 植入一条开放替班请求及相关队伍/班次/用户
func seedWorkflow(repo *repository.Repository) *model.ReplacementRequest {
	ctx := context.Background()
	shiftDate := time.Date(2026, 6, 14, 0, 0, 0, 0, time.UTC)

	_ = repo.Team.Create(ctx, &model.Team{TeamID: testTeamID, Name: "一队", Color: "red"})
	_ = repo.Shift.Create(ctx, &model.Shift{
		ShiftID:   testShiftID,
		TeamID:    testTeamID,
		ShiftDate: shiftDate,
		ShiftType: model.ShiftTypeDay,
	})

	users := []*model.User{
		{UserID: testRequesterID, Name: "请求人", BadgeNumber: "1001", Role: model.RoleMember, Rank: model.RankFirefighter, TeamID: testTeamID},
		{UserID: testApplicantID, Name: "替班人", BadgeNumber: "1002", Role: model.RoleMember, Rank: model.RankFirefighter, TeamID: testTeamID},
		{UserID: testApplicant2, Name: "替班人乙", BadgeNumber: "1003", Role: model.RoleMember, Rank: model.RankLieutenant, TeamID: testTeamID},
		{UserID: testAdminID, Name: "排班室", BadgeNumber: "9001", Role: model.RoleAdmin, Rank: model.RankCaptain, TeamID: testTeamID},
	}
	for _, u := range users {
		_ = repo.User.Create(ctx, u)
	}

	repl := &model.ReplacementRequest{
		ShiftID:          testShiftID,
		ShiftDate:        shiftDate,
		ShiftType:        model.ShiftTypeDay,
		TeamID:           testTeamID,
		RequestingUserID: testRequesterID,
		Status:           model.RequestStatusOpen,
	}
	_ = repo.Replacement.Create(ctx, repl)
	return repl
}

// [自证通过] internal/service/mock_repos_test.go
