// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Leo Qin

package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/leoqin/mediabot/internal/adapter"
	"github.com/leoqin/mediabot/internal/logger"
	"github.com/leoqin/mediabot/internal/scheduler"
	"github.com/leoqin/mediabot/internal/store"
	"github.com/leoqin/mediabot/models"
)

const reminderPageSize = 10

const reminderRunDateLayout = "2006-01-02 15:04:05"

// reminderSystemPrompt instructs the model to turn a free-form reminder
// request into a schedule. Weekday numbering follows standard cron where 0
// is Sunday.
const reminderSystemPrompt = `你是一个提醒助手。根据用户的提醒请求和当前时间，生成一个 JSON 对象描述提醒计划。

输出格式：
{"remind_content": "提醒内容", "trigger": "date", "run_date": "YYYY-MM-DD HH:MM:SS"}
或
{"remind_content": "提醒内容", "trigger": "cron", "cron": {"minute": "0", "hour": "9", "day": "*", "month": "*", "day_of_week": "*"}}

规则：
1. 一次性提醒用 "date"，重复提醒用 "cron"。
2. cron 字段使用标准 cron 语义，day_of_week 取 0-6，0 表示周日。
3. 未提及的 cron 字段填 "*"。
4. 只输出 JSON，不要输出其他内容。`

// reminderPlan is the JSON document the AI provider returns for a remind
// request.
type reminderPlan struct {
	RemindContent string `json:"remind_content"`
	Trigger       string `json:"trigger"`
	RunDate       string `json:"run_date"`
	Cron          *struct {
		Minute    string `json:"minute"`
		Hour      string `json:"hour"`
		Day       string `json:"day"`
		Month     string `json:"month"`
		DayOfWeek string `json:"day_of_week"`
	} `json:"cron"`
}

type reminderService struct {
	reminders store.ReminderRepository
	configs   ConfigService
	ai        adapter.AIChatClient
	scheduler scheduler.Scheduler
	audit     *auditor
	location  *time.Location
	logger    *logger.Logger
}

// NewReminderService constructs the reminder facade. location is the
// timezone run dates are interpreted in.
func NewReminderService(reminders store.ReminderRepository, configs ConfigService, ai adapter.AIChatClient, sched scheduler.Scheduler, audit *auditor, location *time.Location, log *logger.Logger) ReminderService {
	if location == nil {
		location = time.Local
	}
	return &reminderService{
		reminders: reminders,
		configs:   configs,
		ai:        ai,
		scheduler: sched,
		audit:     audit,
		location:  location,
		logger:    log,
	}
}

// Remind implements [ReminderService].
func (s *reminderService) Remind(ctx context.Context, user models.User, text string) (ReminderReceipt, error) {
	conn, err := s.configs.DefaultAIConnection(ctx, user)
	if err != nil {
		return ReminderReceipt{}, err
	}

	now := time.Now().In(s.location)
	prompt := fmt.Sprintf("当前时间：%s（%s）\n提醒请求：%s",
		now.Format(reminderRunDateLayout), now.Weekday(), text)

	reply, err := s.ai.Chat(ctx, conn, reminderSystemPrompt, prompt)
	if err != nil {
		return ReminderReceipt{}, fmt.Errorf("chat completion: %w", err)
	}

	plan, err := parseReminderPlan(reply)
	if err != nil {
		s.logger.Warn().Err(err).Str("reply", reply).Msg("unusable reminder plan")
		return ReminderReceipt{}, err
	}

	job, err := s.schedule(ctx, user, plan)
	if err != nil {
		return ReminderReceipt{}, err
	}

	link, err := s.reminders.CreateLink(ctx, models.ReminderLink{
		UserID:      user.UserID,
		JobID:       job.JobID,
		Description: text,
	})
	if err != nil {
		// The job fires without a list entry until the next sweep run.
		s.logger.Error().Err(err).Str("job_id", job.JobID).Msg("failed to create reminder link")
	}

	s.audit.record(ctx, user.UserID, models.OperationCreate, link.TableName(), job.JobID,
		fmt.Sprintf("用户%d - %s 创建提醒 %s", user.TgID, user.Username, plan.RemindContent))

	receipt := ReminderReceipt{
		JobID:    job.JobID,
		Content:  job.Content,
		Trigger:  job.Trigger,
		CronSpec: job.CronSpec,
		NextFire: job.NextFire,
	}
	if job.RunAt != nil {
		receipt.RunAt = *job.RunAt
	}

	return receipt, nil
}

func (s *reminderService) schedule(ctx context.Context, user models.User, plan reminderPlan) (models.ReminderJob, error) {
	switch plan.Trigger {
	case string(models.TriggerDate):
		runAt, err := time.ParseInLocation(reminderRunDateLayout, plan.RunDate, s.location)
		if err != nil {
			return models.ReminderJob{}, fmt.Errorf("%w: bad run_date %q", ErrReminderUnparseable, plan.RunDate)
		}
		return s.scheduler.ScheduleDate(ctx, user.UserID, user.ChatID, plan.RemindContent, runAt)

	case string(models.TriggerCron):
		spec := fmt.Sprintf("%s %s %s %s %s",
			cronField(plan.Cron.Minute), cronField(plan.Cron.Hour), cronField(plan.Cron.Day),
			cronField(plan.Cron.Month), cronField(plan.Cron.DayOfWeek))
		job, err := s.scheduler.ScheduleCron(ctx, user.UserID, user.ChatID, plan.RemindContent, spec)
		if err != nil {
			if errors.Is(err, scheduler.ErrInvalidCronSpec) {
				return models.ReminderJob{}, fmt.Errorf("%w: %w", ErrReminderUnparseable, err)
			}
			return models.ReminderJob{}, err
		}
		return job, nil

	default:
		return models.ReminderJob{}, fmt.Errorf("%w: unknown trigger %q", ErrReminderUnparseable, plan.Trigger)
	}
}

func (s *reminderService) ListJobs(ctx context.Context, user models.User, page int) (ReminderPage, error) {
	if page < 1 {
		page = 1
	}

	links, total, err := s.reminders.ListUserLinks(ctx, user.UserID, (page-1)*reminderPageSize, reminderPageSize)
	if err != nil {
		return ReminderPage{}, err
	}

	return ReminderPage{
		Links:      links,
		Page:       page,
		TotalPages: int((total + reminderPageSize - 1) / reminderPageSize),
		Total:      total,
	}, nil
}

// DeleteJob implements [ReminderService].
func (s *reminderService) DeleteJob(ctx context.Context, user models.User, jobID string) error {
	link, err := s.reminders.GetLink(ctx, jobID)
	if err != nil {
		return err
	}
	if link.UserID != user.UserID && !user.AtLeast(models.RoleAdmin) {
		return ErrJobNotOwned
	}

	// The job may already be gone when a fired one-shot outran the sweep.
	if err := s.scheduler.Cancel(ctx, jobID); err != nil && !errors.Is(err, store.ErrJobNotFound) {
		return err
	}
	if err := s.reminders.SoftDeleteLink(ctx, jobID); err != nil {
		return err
	}

	s.audit.record(ctx, user.UserID, models.OperationDelete, link.TableName(), jobID,
		fmt.Sprintf("用户%d - %s 删除提醒 %s", user.TgID, user.Username, jobID))

	return nil
}

func parseReminderPlan(reply string) (reminderPlan, error) {
	var plan reminderPlan
	if err := json.Unmarshal([]byte(stripCodeFences(reply)), &plan); err != nil {
		return reminderPlan{}, fmt.Errorf("%w: %w", ErrReminderUnparseable, err)
	}
	if plan.RemindContent == "" {
		return reminderPlan{}, fmt.Errorf("%w: empty remind_content", ErrReminderUnparseable)
	}
	if plan.Trigger == string(models.TriggerCron) && plan.Cron == nil {
		return reminderPlan{}, fmt.Errorf("%w: cron trigger without cron fields", ErrReminderUnparseable)
	}
	return plan, nil
}

// stripCodeFences removes a surrounding markdown code fence some providers
// wrap JSON replies in.
func stripCodeFences(reply string) string {
	trimmed := strings.TrimSpace(reply)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}

	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")

	return strings.TrimSpace(trimmed)
}

func cronField(field string) string {
	if field == "" {
		return "*"
	}
	return field
}
