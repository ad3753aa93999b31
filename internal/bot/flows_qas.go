// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Leo Qin

package bot

import (
	"context"
	"fmt"
	"path"
	"sort"
	"strconv"
	"strings"

	"github.com/leoqin/mediabot/internal/adapter"
	"github.com/leoqin/mediabot/internal/bot/conversation"
	"github.com/leoqin/mediabot/internal/service"
	"github.com/leoqin/mediabot/models"
)

const shareRootKey = "root__0"

// maxNameCandidates caps how many TMDB matches the naming step offers.
const maxNameCandidates = 5

type qasAddScratch struct {
	user models.User
	cfg  models.QASConfig

	task       adapter.QASTask
	tree       map[string][]adapter.ShareFile
	folders    []string
	folderKey  string
	candidates []adapter.TMDBResult
	typedName  string
	movie      bool
	aria2      bool
}

// qasTaskAddFlow walks through creating a transfer task: share link, target
// folder, series or movie, name (with TMDB suggestions), filename pattern
// and the aria2 toggle.
func qasTaskAddFlow(services *service.Services) conversation.Flow {
	return conversation.Flow{
		Name:  flowQASTaskAdd,
		Start: "share",
		States: map[conversation.StateID]conversation.State{
			"share": {
				Prompt: prompt("请发送夸克网盘分享链接。"),
				OnText: func(ctx context.Context, s *conversation.Session, text string) (conversation.Transition, error) {
					sc := s.Scratch.(*qasAddScratch)
					text = strings.TrimSpace(text)
					if _, _, err := adapter.ExtractQuarkShareInfo(text); err != nil {
						return conversation.Transition{
							Next:  "share",
							Reply: &conversation.Reply{Text: "链接无效，请重新发送夸克网盘分享链接。"},
						}, nil
					}

					tree, err := services.QAS.ShareTree(ctx, text)
					if err != nil {
						return conversation.Transition{}, err
					}
					sc.task.ShareURL = text
					sc.tree = tree
					sc.folders = folderKeys(tree)

					return conversation.Transition{Next: "folder"}, nil
				},
			},
			"folder": {
				Prompt: func(s *conversation.Session) conversation.Reply {
					return folderReply(s.Scratch.(*qasAddScratch))
				},
				OnChoice: func(ctx context.Context, s *conversation.Session, data string) (conversation.Transition, error) {
					sc := s.Scratch.(*qasAddScratch)
					payload, ok := strings.CutPrefix(data, "folder:")
					if !ok {
						return conversation.Transition{}, conversation.ErrWrongInput
					}

					if payload == "root" {
						sc.folderKey = shareRootKey
					} else {
						idx, err := strconv.Atoi(payload)
						if err != nil || idx < 0 || idx >= len(sc.folders) {
							return conversation.Transition{}, conversation.ErrWrongInput
						}
						sc.folderKey = sc.folders[idx]
						name, fid := splitFolderKey(sc.folderKey)
						// Dashes in the name would shift the fid the
						// URL parser extracts.
						name = strings.ReplaceAll(name, "-", "_")
						sc.task.ShareURL = strings.TrimRight(sc.task.ShareURL, "/") + "/" + fid + "-" + name
					}

					return conversation.Transition{Next: "type"}, nil
				},
			},
			"type": {
				Prompt: func(*conversation.Session) conversation.Reply {
					return conversation.Reply{
						Text: "转存的是剧集还是电影？",
						Buttons: [][]conversation.Button{{
							{Label: "剧集", Data: "type:tv"},
							{Label: "电影", Data: "type:movie"},
						}},
					}
				},
				OnChoice: func(ctx context.Context, s *conversation.Session, data string) (conversation.Transition, error) {
					sc := s.Scratch.(*qasAddScratch)
					switch data {
					case "type:tv":
						sc.movie = false
					case "type:movie":
						sc.movie = true
					default:
						return conversation.Transition{}, conversation.ErrWrongInput
					}
					return conversation.Transition{Next: "name"}, nil
				},
			},
			"name": {
				Prompt: prompt("请输入影片名称，将用于搜索 TMDB 并命名保存目录。"),
				OnText: func(ctx context.Context, s *conversation.Session, text string) (conversation.Transition, error) {
					sc := s.Scratch.(*qasAddScratch)
					sc.typedName = strings.TrimSpace(text)

					search := services.Media.SearchTMDBTV
					if sc.movie {
						search = services.Media.SearchTMDBMovie
					}
					// TMDB being down should not block task creation.
					candidates, err := search(ctx, sc.user, sc.typedName)
					if err != nil || len(candidates) == 0 {
						applyTaskName(sc, sc.typedName)
						return conversation.Transition{Next: "pattern"}, nil
					}
					if len(candidates) > maxNameCandidates {
						candidates = candidates[:maxNameCandidates]
					}
					sc.candidates = candidates

					return conversation.Transition{Next: "name_pick"}, nil
				},
			},
			"name_pick": {
				Prompt: func(s *conversation.Session) conversation.Reply {
					return namePickReply(s.Scratch.(*qasAddScratch))
				},
				OnChoice: func(ctx context.Context, s *conversation.Session, data string) (conversation.Transition, error) {
					sc := s.Scratch.(*qasAddScratch)
					payload, ok := strings.CutPrefix(data, "name:")
					if !ok {
						return conversation.Transition{}, conversation.ErrWrongInput
					}

					name := sc.typedName
					if payload != "manual" {
						idx, err := strconv.Atoi(payload)
						if err != nil || idx < 0 || idx >= len(sc.candidates) {
							return conversation.Transition{}, conversation.ErrWrongInput
						}
						name = sc.candidates[idx].Name
					}
					applyTaskName(sc, name)

					return conversation.Transition{Next: "pattern"}, nil
				},
			},
			"pattern": {
				Prompt: func(s *conversation.Session) conversation.Reply {
					sc := s.Scratch.(*qasAddScratch)
					return conversation.Reply{
						Text: fmt.Sprintf("请选择文件名正则，或直接输入自定义正则。\n默认：<code>%s</code>", escape(sc.cfg.Pattern)),
						Buttons: [][]conversation.Button{{
							{Label: "AI 生成", Data: "pattern:ai"},
							{Label: "使用默认", Data: "pattern:default"},
						}},
					}
				},
				OnChoice: func(ctx context.Context, s *conversation.Session, data string) (conversation.Transition, error) {
					sc := s.Scratch.(*qasAddScratch)
					switch data {
					case "pattern:default":
						sc.task.Pattern = sc.cfg.Pattern
						sc.task.Replace = sc.cfg.Replace
						return conversation.Transition{Next: "aria2"}, nil
					case "pattern:ai":
						pattern, replace, err := services.QAS.GeneratePattern(ctx, sc.user, folderFileList(sc))
						if err != nil {
							return conversation.Transition{}, err
						}
						sc.task.Pattern = pattern
						sc.task.Replace = replace
						return conversation.Transition{
							Next: "aria2",
							Reply: &conversation.Reply{
								Text:    fmt.Sprintf("已生成正则：<code>%s</code>\n重命名模板：<code>%s</code>\n\n是否开启 aria2 自动下载？", escape(pattern), escape(replace)),
								Buttons: aria2Buttons(),
							},
						}, nil
					default:
						return conversation.Transition{}, conversation.ErrWrongInput
					}
				},
				OnText: func(ctx context.Context, s *conversation.Session, text string) (conversation.Transition, error) {
					sc := s.Scratch.(*qasAddScratch)
					sc.task.Pattern = strings.TrimSpace(text)
					return conversation.Transition{Next: "replace"}, nil
				},
			},
			"replace": {
				Prompt: prompt("请输入重命名模板（用 \\1 引用捕获组），输入 - 使用默认。"),
				OnText: func(ctx context.Context, s *conversation.Session, text string) (conversation.Transition, error) {
					sc := s.Scratch.(*qasAddScratch)
					sc.task.Replace = strings.TrimSpace(text)
					if sc.task.Replace == skipMarker {
						sc.task.Replace = sc.cfg.Replace
					}
					return conversation.Transition{Next: "aria2"}, nil
				},
			},
			"aria2": {
				Prompt: func(*conversation.Session) conversation.Reply {
					return conversation.Reply{Text: "是否开启 aria2 自动下载？", Buttons: aria2Buttons()}
				},
				OnChoice: func(ctx context.Context, s *conversation.Session, data string) (conversation.Transition, error) {
					sc := s.Scratch.(*qasAddScratch)
					switch data {
					case "aria2:on":
						sc.aria2 = true
					case "aria2:off":
						sc.aria2 = false
					default:
						return conversation.Transition{}, conversation.ErrWrongInput
					}
					return conversation.Transition{Next: "confirm"}, nil
				},
			},
			"confirm": {
				Prompt: func(s *conversation.Session) conversation.Reply {
					return confirmReply(s.Scratch.(*qasAddScratch))
				},
				OnChoice: func(ctx context.Context, s *conversation.Session, data string) (conversation.Transition, error) {
					if data != "confirm" {
						return conversation.Transition{}, conversation.ErrWrongInput
					}
					sc := s.Scratch.(*qasAddScratch)
					sc.task.IgnoreExtension = sc.movie
					sc.task.SetAria2AutoDownload(sc.aria2)

					if err := services.QAS.AddTask(ctx, sc.user, sc.task); err != nil {
						return conversation.Transition{}, err
					}
					return done(fmt.Sprintf("任务 <b>%s</b> 创建成功。", escape(sc.task.TaskName))), nil
				},
			},
		},
	}
}

func folderKeys(tree map[string][]adapter.ShareFile) []string {
	keys := make([]string, 0, len(tree))
	for key := range tree {
		if key == shareRootKey {
			continue
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func splitFolderKey(key string) (name, fid string) {
	if i := strings.LastIndex(key, "__"); i >= 0 {
		return key[:i], key[i+2:]
	}
	return key, ""
}

func folderReply(sc *qasAddScratch) conversation.Reply {
	buttons := [][]conversation.Button{{{Label: "分享根目录", Data: "folder:root"}}}
	for i, key := range sc.folders {
		name, _ := splitFolderKey(key)
		buttons = append(buttons, []conversation.Button{
			{Label: "📁 " + name, Data: "folder:" + strconv.Itoa(i)},
		})
	}
	return conversation.Reply{Text: "请选择要转存的目录。", Buttons: buttons}
}

func namePickReply(sc *qasAddScratch) conversation.Reply {
	buttons := make([][]conversation.Button, 0, len(sc.candidates)+1)
	for i, c := range sc.candidates {
		label := c.Name
		if c.FirstAirDate != "" {
			label = fmt.Sprintf("%s（%s）", c.Name, c.FirstAirDate)
		}
		buttons = append(buttons, []conversation.Button{
			{Label: label, Data: "name:" + strconv.Itoa(i)},
		})
	}
	buttons = append(buttons, []conversation.Button{
		{Label: "使用输入的名称", Data: "name:manual"},
	})
	return conversation.Reply{Text: "在 TMDB 上找到以下结果，请选择任务名称。", Buttons: buttons}
}

func applyTaskName(sc *qasAddScratch, name string) {
	sc.task.TaskName = name
	prefix := sc.cfg.SavePathPrefix
	if sc.movie {
		prefix = sc.cfg.MovieSavePathPrefix
	}
	sc.task.SavePath = path.Join(prefix, name)
}

// folderFileList describes the selected folder's contents for pattern
// generation.
func folderFileList(sc *qasAddScratch) string {
	key := sc.folderKey
	if key == "" {
		key = shareRootKey
	}

	var names []string
	for _, f := range sc.tree[key] {
		if f.Dir {
			continue
		}
		names = append(names, f.FileName)
		if len(names) == 10 {
			break
		}
	}
	return "文件列表：\n" + strings.Join(names, "\n")
}

func aria2Buttons() [][]conversation.Button {
	return [][]conversation.Button{{
		{Label: "开启", Data: "aria2:on"},
		{Label: "关闭", Data: "aria2:off"},
	}}
}

func confirmReply(sc *qasAddScratch) conversation.Reply {
	aria2 := "关"
	if sc.aria2 {
		aria2 = "开"
	}
	text := fmt.Sprintf(
		"请确认任务信息：\n任务名：<b>%s</b>\n保存路径：<code>%s</code>\n正则：<code>%s</code>\n重命名：<code>%s</code>\naria2 下载：%s",
		escape(sc.task.TaskName), escape(sc.task.SavePath),
		escape(sc.task.Pattern), escape(sc.task.Replace), aria2,
	)
	return conversation.Reply{
		Text:    text,
		Buttons: [][]conversation.Button{{{Label: "✅ 确认创建", Data: "confirm"}}},
	}
}

type qasUpdateScratch struct {
	user  models.User
	cfg   models.QASConfig
	index int
	task  adapter.QASTask
	patch service.QASTaskPatch
}

// qasTaskUpdateFlow edits an existing task field by field and commits the
// accumulated patch in one go.
func qasTaskUpdateFlow(services *service.Services) conversation.Flow {
	return conversation.Flow{
		Name:  flowQASTaskUpdate,
		Start: "menu",
		States: map[conversation.StateID]conversation.State{
			"menu": {
				Prompt: func(s *conversation.Session) conversation.Reply {
					return updateMenuReply(s.Scratch.(*qasUpdateScratch))
				},
				OnChoice: func(ctx context.Context, s *conversation.Session, data string) (conversation.Transition, error) {
					sc := s.Scratch.(*qasUpdateScratch)
					switch data {
					case "edit:share":
						return conversation.Transition{Next: "share"}, nil
					case "edit:pattern":
						return conversation.Transition{Next: "pattern"}, nil
					case "edit:replace":
						return conversation.Transition{Next: "replace"}, nil
					case "edit:aria2":
						return conversation.Transition{Next: "aria2"}, nil
					case "commit":
						task, err := services.QAS.UpdateTask(ctx, sc.user, sc.index, sc.patch)
						if err != nil {
							return conversation.Transition{}, err
						}
						return done(fmt.Sprintf("任务 <b>%s</b> 更新成功，下次运行将重新扫描分享。", escape(task.TaskName))), nil
					default:
						return conversation.Transition{}, conversation.ErrWrongInput
					}
				},
			},
			"share": {
				Prompt: prompt("请发送新的分享链接。"),
				OnText: func(ctx context.Context, s *conversation.Session, text string) (conversation.Transition, error) {
					sc := s.Scratch.(*qasUpdateScratch)
					text = strings.TrimSpace(text)
					if _, _, err := adapter.ExtractQuarkShareInfo(text); err != nil {
						return conversation.Transition{
							Next:  "share",
							Reply: &conversation.Reply{Text: "链接无效，请重新发送夸克网盘分享链接。"},
						}, nil
					}
					sc.patch.ShareURL = &text
					return backToMenu(sc, "已记录新的分享链接。"), nil
				},
			},
			"pattern": {
				Prompt: func(s *conversation.Session) conversation.Reply {
					sc := s.Scratch.(*qasUpdateScratch)
					return conversation.Reply{
						Text: fmt.Sprintf("当前正则：<code>%s</code>\n请选择来源，或直接输入自定义正则。", escape(sc.task.Pattern)),
						Buttons: [][]conversation.Button{{
							{Label: "AI 生成", Data: "pattern:ai"},
							{Label: "使用默认", Data: "pattern:default"},
						}},
					}
				},
				OnChoice: func(ctx context.Context, s *conversation.Session, data string) (conversation.Transition, error) {
					sc := s.Scratch.(*qasUpdateScratch)
					switch data {
					case "pattern:default":
						pattern, replace := sc.cfg.Pattern, sc.cfg.Replace
						sc.patch.Pattern = &pattern
						sc.patch.Replace = &replace
						return backToMenu(sc, "已改用默认正则。"), nil
					case "pattern:ai":
						return conversation.Transition{Next: "pattern_ai"}, nil
					default:
						return conversation.Transition{}, conversation.ErrWrongInput
					}
				},
				OnText: func(ctx context.Context, s *conversation.Session, text string) (conversation.Transition, error) {
					sc := s.Scratch.(*qasUpdateScratch)
					text = strings.TrimSpace(text)
					sc.patch.Pattern = &text
					return backToMenu(sc, "已记录新的正则。"), nil
				},
			},
			"pattern_ai": {
				Prompt: prompt("请描述文件命名规则（例如：匹配所有 mp4，并重命名为 S01EXX 格式）。"),
				OnText: func(ctx context.Context, s *conversation.Session, text string) (conversation.Transition, error) {
					sc := s.Scratch.(*qasUpdateScratch)
					pattern, replace, err := services.QAS.GeneratePattern(ctx, sc.user, text)
					if err != nil {
						return conversation.Transition{}, err
					}
					sc.patch.Pattern = &pattern
					sc.patch.Replace = &replace
					return backToMenu(sc, fmt.Sprintf("已生成正则：<code>%s</code>，重命名模板：<code>%s</code>。", escape(pattern), escape(replace))), nil
				},
			},
			"replace": {
				Prompt: prompt("请输入新的重命名模板（用 \\1 引用捕获组）。"),
				OnText: func(ctx context.Context, s *conversation.Session, text string) (conversation.Transition, error) {
					sc := s.Scratch.(*qasUpdateScratch)
					text = strings.TrimSpace(text)
					sc.patch.Replace = &text
					return backToMenu(sc, "已记录新的重命名模板。"), nil
				},
			},
			"aria2": {
				Prompt: func(*conversation.Session) conversation.Reply {
					return conversation.Reply{Text: "是否开启 aria2 自动下载？", Buttons: aria2Buttons()}
				},
				OnChoice: func(ctx context.Context, s *conversation.Session, data string) (conversation.Transition, error) {
					sc := s.Scratch.(*qasUpdateScratch)
					var enable bool
					switch data {
					case "aria2:on":
						enable = true
					case "aria2:off":
						enable = false
					default:
						return conversation.Transition{}, conversation.ErrWrongInput
					}
					sc.patch.Aria2 = &enable
					return backToMenu(sc, "已记录 aria2 设置。"), nil
				},
			},
		},
	}
}

func updateMenuReply(sc *qasUpdateScratch) conversation.Reply {
	return conversation.Reply{
		Text: fmt.Sprintf("正在编辑任务 <b>%s</b>，请选择要修改的项。", escape(sc.task.TaskName)),
		Buttons: [][]conversation.Button{
			{
				{Label: "分享链接", Data: "edit:share"},
				{Label: "正则", Data: "edit:pattern"},
				{Label: "重命名模板", Data: "edit:replace"},
			},
			{
				{Label: "aria2 下载", Data: "edit:aria2"},
				{Label: "✅ 提交", Data: "commit"},
			},
		},
	}
}

// backToMenu returns to the field menu with a note about what was staged.
func backToMenu(sc *qasUpdateScratch, note string) conversation.Transition {
	menu := updateMenuReply(sc)
	menu.Text = note + "\n" + menu.Text
	return conversation.Transition{Next: "menu", Reply: &menu}
}
