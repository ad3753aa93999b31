// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Leo Qin

package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/leoqin/mediabot/internal/adapter"
	"github.com/leoqin/mediabot/internal/service"
	"github.com/leoqin/mediabot/models"
)

func (b *Bot) handleQASTasks(ctx context.Context, user models.User, chatID int64, _ string) error {
	tasks, err := b.services.QAS.Tasks(ctx, user)
	if err != nil {
		return err
	}
	b.send(chatID, formatQASTasks(tasks))
	return nil
}

func (b *Bot) handleQASAdd(ctx context.Context, user models.User, chatID int64, _ string) error {
	cfg, err := b.services.Configs.GetQAS(ctx, user)
	if err != nil {
		return err
	}

	reply, err := b.flows.Start(user.UserID, chatID, flowQASTaskAdd, &qasAddScratch{user: user, cfg: cfg})
	if err != nil {
		return err
	}
	b.sendFlowReply(chatID, reply)
	return nil
}

func (b *Bot) handleQASUpdate(ctx context.Context, user models.User, chatID int64, args string) error {
	index, task, err := b.taskAt(ctx, user, args)
	if err != nil {
		return err
	}
	if index < 0 {
		b.send(chatID, "用法：/qas_update <任务序号>，序号见 /qas。")
		return nil
	}

	cfg, err := b.services.Configs.GetQAS(ctx, user)
	if err != nil {
		return err
	}

	scratch := &qasUpdateScratch{user: user, cfg: cfg, index: index, task: task}
	reply, err := b.flows.Start(user.UserID, chatID, flowQASTaskUpdate, scratch)
	if err != nil {
		return err
	}
	b.sendFlowReply(chatID, reply)
	return nil
}

func (b *Bot) handleQASDelete(ctx context.Context, user models.User, chatID int64, args string) error {
	index, task, err := b.taskAt(ctx, user, args)
	if err != nil {
		return err
	}
	if index < 0 {
		b.send(chatID, "用法：/qas_delete <任务序号>，序号见 /qas。")
		return nil
	}

	keyboard := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🗑 确认删除", fmt.Sprintf("qas_delete:%d", index)),
		),
	)
	b.sendWithKeyboard(chatID, fmt.Sprintf("确定要删除任务 <b>%s</b> 吗？", escape(task.TaskName)), keyboard)
	return nil
}

func (b *Bot) handleQASDeleteCallback(ctx context.Context, user models.User, chatID int64, payload string) error {
	index, err := strconv.Atoi(payload)
	if err != nil {
		return err
	}

	if err := b.services.QAS.DeleteTask(ctx, user, index); err != nil {
		return err
	}
	b.send(chatID, "删除任务成功。")
	return nil
}

// handleQASRun runs the auto-save script, for all tasks or for the 1-based
// indexes given as arguments.
func (b *Bot) handleQASRun(ctx context.Context, user models.User, chatID int64, args string) error {
	var taskList []int
	for _, field := range strings.Fields(args) {
		n, err := strconv.Atoi(field)
		if err != nil || n < 1 {
			b.send(chatID, "用法：/qas_run [任务序号...]，序号见 /qas。")
			return nil
		}
		taskList = append(taskList, n-1)
	}

	output, err := b.services.QAS.RunScript(ctx, user, taskList)
	if err != nil {
		return err
	}
	if strings.TrimSpace(output) == "" {
		b.send(chatID, "脚本执行完成。")
		return nil
	}
	b.send(chatID, "<pre>"+escape(output)+"</pre>")
	return nil
}

func (b *Bot) handleQASPreview(ctx context.Context, user models.User, chatID int64, args string) error {
	index, task, err := b.taskAt(ctx, user, args)
	if err != nil {
		return err
	}
	if index < 0 {
		b.send(chatID, "用法：/qas_preview <任务序号>，序号见 /qas。")
		return nil
	}

	entries, err := b.services.QAS.PreviewPattern(ctx, user, task)
	if err != nil {
		return err
	}
	b.send(chatID, formatSharePreview(entries))
	return nil
}

func (b *Bot) handleQASConfig(ctx context.Context, user models.User, chatID int64, _ string) error {
	reply, err := b.flows.Start(user.UserID, chatID, flowQASConfig, &qasConfigScratch{user: user})
	if err != nil {
		return err
	}
	b.sendFlowReply(chatID, reply)
	return nil
}

func (b *Bot) handleEmbyConfig(ctx context.Context, user models.User, chatID int64, _ string) error {
	reply, err := b.flows.Start(user.UserID, chatID, flowEmbyConfig, &embyConfigScratch{user: user})
	if err != nil {
		return err
	}
	b.sendFlowReply(chatID, reply)
	return nil
}

func (b *Bot) handleAIConfig(ctx context.Context, user models.User, chatID int64, _ string) error {
	reply, err := b.flows.Start(user.UserID, chatID, flowAIConfig, &aiConfigScratch{user: user})
	if err != nil {
		return err
	}
	b.sendFlowReply(chatID, reply)
	return nil
}

func (b *Bot) handleQASTagStartFiles(ctx context.Context, user models.User, chatID int64, _ string) error {
	tagged, err := b.services.QAS.TagStartFiles(ctx, user)
	if err != nil {
		return err
	}
	b.send(chatID, fmt.Sprintf("已为 %d 个任务标记起始文件。", tagged))
	return nil
}

// taskAt resolves a 1-based index argument to a stored task. A -1 index
// means the argument was missing or malformed and the caller should reply
// with usage.
func (b *Bot) taskAt(ctx context.Context, user models.User, args string) (int, adapter.QASTask, error) {
	n, err := strconv.Atoi(strings.TrimSpace(args))
	if err != nil || n < 1 {
		return -1, adapter.QASTask{}, nil
	}

	tasks, err := b.services.QAS.Tasks(ctx, user)
	if err != nil {
		return 0, adapter.QASTask{}, err
	}
	if n > len(tasks) {
		return 0, adapter.QASTask{}, fmt.Errorf("task %d: %w", n, service.ErrTaskNotFound)
	}

	return n - 1, tasks[n-1], nil
}
