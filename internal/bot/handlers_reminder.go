// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Leo Qin

package bot

import (
	"context"
	"fmt"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/leoqin/mediabot/models"
)

func (b *Bot) handleRemind(ctx context.Context, user models.User, chatID int64, args string) error {
	if args == "" {
		b.send(chatID, "用法：/remind <提醒内容>，例如：/remind 明天下午三点提醒我开会")
		return nil
	}

	receipt, err := b.services.Reminders.Remind(ctx, user, args)
	if err != nil {
		return err
	}

	b.send(chatID, formatReminderReceipt(receipt))
	return nil
}

func (b *Bot) handleListJobs(ctx context.Context, user models.User, chatID int64, _ string) error {
	return b.sendJobsPage(ctx, user, chatID, 1)
}

// handleListJobsPage serves the next-page button of the reminder list.
func (b *Bot) handleListJobsPage(ctx context.Context, user models.User, chatID int64, payload string) error {
	page, err := strconv.Atoi(payload)
	if err != nil || page < 1 {
		return nil
	}
	return b.sendJobsPage(ctx, user, chatID, page)
}

func (b *Bot) sendJobsPage(ctx context.Context, user models.User, chatID int64, page int) error {
	jobs, err := b.services.Reminders.ListJobs(ctx, user, page)
	if err != nil {
		return err
	}

	text := formatReminderPage(jobs)
	if len(jobs.Links) == 0 {
		b.send(chatID, text)
		return nil
	}

	var rows [][]tgbotapi.InlineKeyboardButton
	for _, link := range jobs.Links {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🗑 "+truncate(link.Description, 30), "delete_job:"+link.JobID),
		))
	}
	if jobs.Page < jobs.TotalPages {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("➡️ 下一页", fmt.Sprintf("list_my_job:%d", jobs.Page+1)),
		))
	}

	b.sendWithKeyboard(chatID, text, tgbotapi.NewInlineKeyboardMarkup(rows...))
	return nil
}

func (b *Bot) handleDeleteJob(ctx context.Context, user models.User, chatID int64, args string) error {
	if args == "" {
		b.send(chatID, "用法：/delete_job <任务 ID>")
		return nil
	}
	return b.deleteJob(ctx, user, chatID, args)
}

func (b *Bot) handleDeleteJobCallback(ctx context.Context, user models.User, chatID int64, payload string) error {
	return b.deleteJob(ctx, user, chatID, payload)
}

func (b *Bot) deleteJob(ctx context.Context, user models.User, chatID int64, jobID string) error {
	if err := b.services.Reminders.DeleteJob(ctx, user, jobID); err != nil {
		return err
	}
	b.send(chatID, fmt.Sprintf("删除任务 %s 成功", jobID))
	return nil
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "…"
}
