package bot

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/leoqin/mediabot/models"
)

// menuCommand is one /command with its menu description and the minimum role
// that may run it.
type menuCommand struct {
	name        string
	description string
	minRole     models.RoleName
}

// menuCommands drives both the per-chat command menu and the role gate. The
// register command is absent: it is the one command that works without an
// account.
var menuCommands = []menuCommand{
	{"my_info", "我的账户信息", models.RoleUser},
	{"search", "搜索网盘资源", models.RoleUser},
	{"remind", "创建提醒", models.RoleAdmin},
	{"list_my_job", "我的提醒列表", models.RoleAdmin},
	{"delete_job", "删除提醒", models.RoleAdmin},
	{"settings", "偏好设置", models.RoleUser},
	{"emby", "搜索 Emby 剧集", models.RoleUser},
	{"emby_notify", "Emby 通知管理", models.RoleUser},
	{"emby_config", "配置 Emby", models.RoleUser},
	{"tv", "TMDB 剧集查询", models.RoleUser},
	{"movie", "TMDB 电影查询", models.RoleUser},
	{"qas", "转存任务列表", models.RoleUser},
	{"qas_add", "添加转存任务", models.RoleUser},
	{"qas_update", "修改转存任务", models.RoleUser},
	{"qas_delete", "删除转存任务", models.RoleUser},
	{"qas_run", "运行转存脚本", models.RoleUser},
	{"qas_preview", "预览任务转存结果", models.RoleUser},
	{"qas_config", "配置 quark-auto-save", models.RoleUser},
	{"ai_config", "配置 AI 提供商", models.RoleUser},
	{"cancel", "取消当前操作", models.RoleUser},
	{"set_admin", "设置管理员", models.RoleOwner},
	{"qas_tag_start_file", "标记任务起始文件", models.RoleOwner},
}

// syncMenu pushes the commands the user's role allows into their chat menu.
// Best effort: a failure is logged by the caller and never blocks the
// command being handled.
func (b *Bot) syncMenu(user models.User) error {
	var visible []tgbotapi.BotCommand
	for _, cmd := range menuCommands {
		if user.AtLeast(cmd.minRole) {
			visible = append(visible, tgbotapi.BotCommand{Command: cmd.name, Description: cmd.description})
		}
	}

	scope := tgbotapi.NewBotCommandScopeChat(user.ChatID)
	_, err := b.api.Request(tgbotapi.NewSetMyCommandsWithScope(scope, visible...))
	return err
}
