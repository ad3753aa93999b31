// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Leo Qin

package service

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/leoqin/mediabot/internal/adapter"
	"github.com/leoqin/mediabot/internal/logger"
	"github.com/leoqin/mediabot/models"
)

// Preview verdicts for share files.
const (
	verdictWillSave = "将会转存"
	verdictSkipped  = "不会转存"
)

// patternSystemPrompt asks the model for a filename pattern and rename
// template. The quark-auto-save instance evaluates them with Python regex
// semantics, so backreferences use backslashes.
const patternSystemPrompt = `你是一个正则表达式助手。根据用户对文件命名的描述，生成用于匹配网盘文件名的正则表达式和重命名模板。

输出格式：
{"pattern": "匹配文件名的正则表达式", "replace": "重命名模板"}

规则：
1. 重命名模板中用 \1、\2 引用捕获组。
2. 只输出 JSON，不要输出其他内容。`

type qasService struct {
	qas     adapter.QASClient
	quark   adapter.QuarkClient
	ai      adapter.AIChatClient
	configs ConfigService
	audit   *auditor
	logger  *logger.Logger
}

// NewQASService constructs the quark-auto-save task service.
func NewQASService(qas adapter.QASClient, quark adapter.QuarkClient, ai adapter.AIChatClient, configs ConfigService, audit *auditor, log *logger.Logger) QASService {
	return &qasService{
		qas:     qas,
		quark:   quark,
		ai:      ai,
		configs: configs,
		audit:   audit,
		logger:  log,
	}
}

func (s *qasService) Tasks(ctx context.Context, user models.User) ([]adapter.QASTask, error) {
	conn, _, err := s.configs.QASConnection(ctx, user)
	if err != nil {
		return nil, err
	}

	data, err := s.qas.Data(ctx, conn)
	if err != nil {
		return nil, err
	}

	return data.TaskList, nil
}

// AddTask implements [QASService]. The add endpoint ignores the
// ignore_extension field, so the stored task is patched in a follow-up
// read-modify-write when the flag is set.
func (s *qasService) AddTask(ctx context.Context, user models.User, task adapter.QASTask) error {
	conn, _, err := s.configs.QASConnection(ctx, user)
	if err != nil {
		return err
	}

	if err := s.qas.AddTask(ctx, conn, task); err != nil {
		return fmt.Errorf("add task: %w", err)
	}

	if task.IgnoreExtension {
		if err := s.markIgnoreExtension(ctx, conn, task.TaskName); err != nil {
			s.logger.Warn().Err(err).Str("task", task.TaskName).Msg("failed to set ignore_extension on new task")
		}
	}

	s.audit.record(ctx, user.UserID, models.OperationCreate, "qas_tasks", task.TaskName,
		fmt.Sprintf("用户%d - %s 创建转存任务 %s", user.TgID, user.Username, task.TaskName))

	return nil
}

func (s *qasService) markIgnoreExtension(ctx context.Context, conn adapter.QASConnection, taskName string) error {
	data, err := s.qas.Data(ctx, conn)
	if err != nil {
		return err
	}

	// The new task lands at the end; match by name from the back in case
	// of duplicates.
	for i := len(data.TaskList) - 1; i >= 0; i-- {
		if data.TaskList[i].TaskName == taskName {
			data.TaskList[i].IgnoreExtension = true
			return s.qas.UpdateData(ctx, conn, data)
		}
	}

	return ErrTaskNotFound
}

// UpdateTask implements [QASService]. The start fid is cleared so the next
// run rescans the whole share with the new pattern.
func (s *qasService) UpdateTask(ctx context.Context, user models.User, index int, patch QASTaskPatch) (adapter.QASTask, error) {
	conn, _, err := s.configs.QASConnection(ctx, user)
	if err != nil {
		return adapter.QASTask{}, err
	}

	data, err := s.qas.Data(ctx, conn)
	if err != nil {
		return adapter.QASTask{}, err
	}
	if index < 0 || index >= len(data.TaskList) {
		return adapter.QASTask{}, ErrTaskNotFound
	}

	task := data.TaskList[index]
	if patch.ShareURL != nil {
		task.ShareURL = *patch.ShareURL
	}
	if patch.Pattern != nil {
		task.Pattern = *patch.Pattern
	}
	if patch.Replace != nil {
		task.Replace = *patch.Replace
	}
	if patch.Aria2 != nil {
		task.SetAria2AutoDownload(*patch.Aria2)
	}
	task.StartFID = ""
	data.TaskList[index] = task

	if err := s.qas.UpdateData(ctx, conn, data); err != nil {
		return adapter.QASTask{}, fmt.Errorf("update task: %w", err)
	}

	s.audit.record(ctx, user.UserID, models.OperationUpdate, "qas_tasks", strconv.Itoa(index),
		fmt.Sprintf("用户%d - %s 更新转存任务 %s", user.TgID, user.Username, task.TaskName))

	return task, nil
}

func (s *qasService) DeleteTask(ctx context.Context, user models.User, index int) error {
	conn, _, err := s.configs.QASConnection(ctx, user)
	if err != nil {
		return err
	}

	data, err := s.qas.Data(ctx, conn)
	if err != nil {
		return err
	}
	if index < 0 || index >= len(data.TaskList) {
		return ErrTaskNotFound
	}

	name := data.TaskList[index].TaskName
	data.TaskList = slices.Delete(data.TaskList, index, index+1)

	if err := s.qas.UpdateData(ctx, conn, data); err != nil {
		return fmt.Errorf("delete task: %w", err)
	}

	s.audit.record(ctx, user.UserID, models.OperationDelete, "qas_tasks", strconv.Itoa(index),
		fmt.Sprintf("用户%d - %s 删除转存任务 %s", user.TgID, user.Username, name))

	return nil
}

func (s *qasService) RunScript(ctx context.Context, user models.User, taskList []int) (string, error) {
	conn, _, err := s.configs.QASConnection(ctx, user)
	if err != nil {
		return "", err
	}

	output, err := s.qas.RunScript(ctx, conn, taskList)
	if err != nil {
		return "", err
	}

	s.audit.record(ctx, user.UserID, models.OperationUpdate, "qas_tasks", "",
		fmt.Sprintf("用户%d - %s 运行转存脚本", user.TgID, user.Username))

	return output, nil
}

// PreviewPattern implements [QASService]. Files the pattern matched come
// back with a renamed file name; everything else would be skipped.
func (s *qasService) PreviewPattern(ctx context.Context, user models.User, task adapter.QASTask) ([]SharePreviewEntry, error) {
	conn, _, err := s.configs.QASConnection(ctx, user)
	if err != nil {
		return nil, err
	}

	files, err := s.qas.GetShareDetail(ctx, conn, task)
	if err != nil {
		return nil, err
	}

	entries := make([]SharePreviewEntry, 0, len(files))
	for _, f := range files {
		if f.Dir {
			continue
		}
		verdict := verdictSkipped
		if f.FileNameRe != "" {
			verdict = verdictWillSave
		}
		entries = append(entries, SharePreviewEntry{FileName: f.FileName, Verdict: verdict})
	}

	return entries, nil
}

func (s *qasService) ShareTree(ctx context.Context, shareURL string) (map[string][]adapter.ShareFile, error) {
	return s.quark.ShareFileTree(ctx, shareURL)
}

// GeneratePattern implements [QASService]. Backreference dollars some models
// emit despite the prompt are converted to the backslash form the instance
// expects.
func (s *qasService) GeneratePattern(ctx context.Context, user models.User, description string) (string, string, error) {
	conn, err := s.configs.DefaultAIConnection(ctx, user)
	if err != nil {
		return "", "", err
	}

	reply, err := s.ai.Chat(ctx, conn, patternSystemPrompt, description)
	if err != nil {
		return "", "", fmt.Errorf("chat completion: %w", err)
	}

	var generated struct {
		Pattern string `json:"pattern"`
		Replace string `json:"replace"`
	}
	if err := json.Unmarshal([]byte(stripCodeFences(reply)), &generated); err != nil {
		return "", "", fmt.Errorf("unmarshal generated pattern: %w", err)
	}
	if generated.Pattern == "" {
		return "", "", fmt.Errorf("empty generated pattern")
	}

	return generated.Pattern, strings.ReplaceAll(generated.Replace, "$", "\\"), nil
}

// TagStartFiles implements [QASService]. Tasks whose share cannot be listed
// are skipped with a warning, not failed, so one dead share does not block
// the rest.
func (s *qasService) TagStartFiles(ctx context.Context, user models.User) (int, error) {
	conn, _, err := s.configs.QASConnection(ctx, user)
	if err != nil {
		return 0, err
	}

	data, err := s.qas.Data(ctx, conn)
	if err != nil {
		return 0, err
	}

	tagged := 0
	for i, task := range data.TaskList {
		files, err := s.quark.ShareFiles(ctx, task.ShareURL, false)
		if err != nil {
			s.logger.Warn().Err(err).Str("task", task.TaskName).Msg("failed to list share files")
			continue
		}
		if len(files) == 0 {
			continue
		}

		newest := files[0]
		for _, f := range files[1:] {
			if f.LastUpdateAtMs > newest.LastUpdateAtMs {
				newest = f
			}
		}
		data.TaskList[i].StartFID = newest.FID
		tagged++
	}

	if tagged > 0 {
		if err := s.qas.UpdateData(ctx, conn, data); err != nil {
			return 0, fmt.Errorf("save tagged tasks: %w", err)
		}
	}

	s.audit.record(ctx, user.UserID, models.OperationUpdate, "qas_tasks", "",
		fmt.Sprintf("用户%d - %s 标记 %d 个任务的起始文件", user.TgID, user.Username, tagged))

	return tagged, nil
}
