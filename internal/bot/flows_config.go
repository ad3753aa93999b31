// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Leo Qin

package bot

import (
	"context"
	"fmt"

	"github.com/leoqin/mediabot/internal/bot/conversation"
	"github.com/leoqin/mediabot/internal/service"
	"github.com/leoqin/mediabot/models"
)

type embyConfigScratch struct {
	user   models.User
	update models.EmbyConfigUpdate
}

// embyConfigFlow walks host, API token, username and password, committing
// once at the end. Skipped fields keep their stored values.
func embyConfigFlow(services *service.Services) conversation.Flow {
	return conversation.Flow{
		Name:  flowEmbyConfig,
		Start: "host",
		States: map[conversation.StateID]conversation.State{
			"host": {
				Prompt: prompt("请输入 Emby 服务器地址（例如 http://emby.example.com:8096），输入 - 保留当前值。"),
				OnText: func(_ context.Context, s *conversation.Session, text string) (conversation.Transition, error) {
					s.Scratch.(*embyConfigScratch).update.Host = textOrNil(text)
					return conversation.Transition{Next: "api_token"}, nil
				},
			},
			"api_token": {
				Prompt: prompt("请输入 API Token，输入 - 保留当前值。"),
				OnText: func(_ context.Context, s *conversation.Session, text string) (conversation.Transition, error) {
					s.Scratch.(*embyConfigScratch).update.APIToken = textOrNil(text)
					return conversation.Transition{Next: "username"}, nil
				},
			},
			"username": {
				Prompt: prompt("请输入 Emby 用户名，输入 - 保留当前值。"),
				OnText: func(_ context.Context, s *conversation.Session, text string) (conversation.Transition, error) {
					s.Scratch.(*embyConfigScratch).update.Username = textOrNil(text)
					return conversation.Transition{Next: "password"}, nil
				},
			},
			"password": {
				Prompt: prompt("请输入 Emby 密码，输入 - 保留当前值。"),
				OnText: func(ctx context.Context, s *conversation.Session, text string) (conversation.Transition, error) {
					scratch := s.Scratch.(*embyConfigScratch)
					scratch.update.Password = textOrNil(text)

					if _, err := services.Configs.UpsertEmby(ctx, scratch.user, scratch.update); err != nil {
						return conversation.Transition{}, err
					}
					return done("Emby 配置已保存。"), nil
				},
			},
		},
	}
}

type qasConfigScratch struct {
	user   models.User
	update models.QASConfigUpdate
}

// qasConfigFlow walks the quark-auto-save settings with the defaults shown
// in each prompt.
func qasConfigFlow(services *service.Services) conversation.Flow {
	return conversation.Flow{
		Name:  flowQASConfig,
		Start: "host",
		States: map[conversation.StateID]conversation.State{
			"host": {
				Prompt: prompt("请输入 quark-auto-save 地址（例如 http://qas.example.com:5005），输入 - 保留当前值。"),
				OnText: func(_ context.Context, s *conversation.Session, text string) (conversation.Transition, error) {
					s.Scratch.(*qasConfigScratch).update.Host = textOrNil(text)
					return conversation.Transition{Next: "api_token"}, nil
				},
			},
			"api_token": {
				Prompt: prompt("请输入 API Token，输入 - 保留当前值。"),
				OnText: func(_ context.Context, s *conversation.Session, text string) (conversation.Transition, error) {
					s.Scratch.(*qasConfigScratch).update.APIToken = textOrNil(text)
					return conversation.Transition{Next: "save_path"}, nil
				},
			},
			"save_path": {
				Prompt: prompt(fmt.Sprintf("请输入剧集保存路径前缀（默认 %s），输入 - 保留当前值。", models.DefaultQASSavePathPrefix)),
				OnText: func(_ context.Context, s *conversation.Session, text string) (conversation.Transition, error) {
					s.Scratch.(*qasConfigScratch).update.SavePathPrefix = textOrNil(text)
					return conversation.Transition{Next: "movie_save_path"}, nil
				},
			},
			"movie_save_path": {
				Prompt: prompt(fmt.Sprintf("请输入电影保存路径前缀（默认 %s），输入 - 保留当前值。", models.DefaultQASSavePathPrefix)),
				OnText: func(_ context.Context, s *conversation.Session, text string) (conversation.Transition, error) {
					s.Scratch.(*qasConfigScratch).update.MovieSavePathPrefix = textOrNil(text)
					return conversation.Transition{Next: "pattern"}, nil
				},
			},
			"pattern": {
				Prompt: prompt(fmt.Sprintf("请输入默认文件匹配正则（默认 %s），输入 - 保留当前值。", models.DefaultQASPattern)),
				OnText: func(_ context.Context, s *conversation.Session, text string) (conversation.Transition, error) {
					s.Scratch.(*qasConfigScratch).update.Pattern = textOrNil(text)
					return conversation.Transition{Next: "replace"}, nil
				},
			},
			"replace": {
				Prompt: prompt(fmt.Sprintf("请输入默认重命名模板（默认 %s），输入 - 保留当前值。", models.DefaultQASReplace)),
				OnText: func(ctx context.Context, s *conversation.Session, text string) (conversation.Transition, error) {
					scratch := s.Scratch.(*qasConfigScratch)
					scratch.update.Replace = textOrNil(text)

					if _, err := services.Configs.UpsertQAS(ctx, scratch.user, scratch.update); err != nil {
						return conversation.Transition{}, err
					}
					return done("quark-auto-save 配置已保存。"), nil
				},
			},
		},
	}
}

type aiConfigScratch struct {
	user     models.User
	provider string
}

// aiConfigFlow is a field-select-edit dialog: pick a provider, then edit one
// field per input. Every edit commits immediately.
func aiConfigFlow(services *service.Services) conversation.Flow {
	fieldInput := func(apply func(update *models.AIProviderConfigUpdate, text string)) func(context.Context, *conversation.Session, string) (conversation.Transition, error) {
		return func(ctx context.Context, s *conversation.Session, text string) (conversation.Transition, error) {
			scratch := s.Scratch.(*aiConfigScratch)

			var update models.AIProviderConfigUpdate
			apply(&update, text)
			if _, err := services.Configs.UpsertAIProvider(ctx, scratch.user, scratch.provider, update); err != nil {
				return conversation.Transition{}, err
			}

			reply := aiFieldMenu(scratch.provider)
			reply.Text = "已保存。\n" + reply.Text
			return conversation.Transition{Next: "menu", Reply: &reply}, nil
		}
	}

	return conversation.Flow{
		Name:  flowAIConfig,
		Start: "provider",
		States: map[conversation.StateID]conversation.State{
			"provider": {
				Prompt: func(*conversation.Session) conversation.Reply {
					var row []conversation.Button
					for _, name := range models.AIProviders {
						row = append(row, conversation.Button{Label: name, Data: "provider:" + name})
					}
					return conversation.Reply{Text: "请选择 AI 提供商。", Buttons: [][]conversation.Button{row}}
				},
				OnChoice: func(_ context.Context, s *conversation.Session, data string) (conversation.Transition, error) {
					for _, name := range models.AIProviders {
						if data == "provider:"+name {
							s.Scratch.(*aiConfigScratch).provider = name
							return conversation.Transition{Next: "menu"}, nil
						}
					}
					return conversation.Transition{Next: "provider"}, nil
				},
			},
			"menu": {
				Prompt: func(s *conversation.Session) conversation.Reply {
					return aiFieldMenu(s.Scratch.(*aiConfigScratch).provider)
				},
				OnChoice: func(ctx context.Context, s *conversation.Session, data string) (conversation.Transition, error) {
					scratch := s.Scratch.(*aiConfigScratch)
					switch data {
					case "field:api_key":
						return conversation.Transition{Next: "input_api_key"}, nil
					case "field:host":
						return conversation.Transition{Next: "input_host"}, nil
					case "field:model":
						return conversation.Transition{Next: "input_model"}, nil
					case "set_default":
						if err := services.Configs.SetDefaultAIProvider(ctx, scratch.user, scratch.provider); err != nil {
							return conversation.Transition{}, err
						}
						reply := aiFieldMenu(scratch.provider)
						reply.Text = fmt.Sprintf("已将 %s 设为默认提供商。\n", scratch.provider) + reply.Text
						return conversation.Transition{Next: "menu", Reply: &reply}, nil
					case "finish":
						return done("AI 配置完成。"), nil
					}
					return conversation.Transition{Next: "menu"}, nil
				},
			},
			"input_api_key": {
				Prompt: prompt("请输入 API Key。"),
				OnText: fieldInput(func(u *models.AIProviderConfigUpdate, text string) { u.APIKey = &text }),
			},
			"input_host": {
				Prompt: prompt("请输入接口地址（例如 https://api.deepseek.com/v1）。"),
				OnText: fieldInput(func(u *models.AIProviderConfigUpdate, text string) { u.Host = &text }),
			},
			"input_model": {
				Prompt: prompt("请输入模型名（例如 deepseek-chat）。"),
				OnText: fieldInput(func(u *models.AIProviderConfigUpdate, text string) { u.Model = &text }),
			},
		},
	}
}

func aiFieldMenu(provider string) conversation.Reply {
	return conversation.Reply{
		Text: fmt.Sprintf("正在配置 <b>%s</b>，请选择要编辑的项。", provider),
		Buttons: [][]conversation.Button{
			{
				{Label: "API Key", Data: "field:api_key"},
				{Label: "接口地址", Data: "field:host"},
				{Label: "模型", Data: "field:model"},
			},
			{
				{Label: "设为默认", Data: "set_default"},
				{Label: "完成", Data: "finish"},
			},
		},
	}
}

// prompt wraps a fixed question as a state prompt.
func prompt(text string) func(*conversation.Session) conversation.Reply {
	return func(*conversation.Session) conversation.Reply {
		return conversation.Reply{Text: text}
	}
}

// done builds the terminal transition with a closing message.
func done(text string) conversation.Transition {
	return conversation.Transition{
		Next:  conversation.StateDone,
		Reply: &conversation.Reply{Text: text},
	}
}
