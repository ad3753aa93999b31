// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Leo Qin

package bot

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/leoqin/mediabot/internal/store"
	"github.com/leoqin/mediabot/models"
)

// settingsCloudChoices are the buckets offered in the settings menu.
var settingsCloudChoices = []string{
	models.CloudTypeQuark,
	models.CloudTypeAliyun,
	models.CloudType123Pan,
	models.CloudTypeXunlei,
	models.CloudTypeBaidu,
	models.CloudTypeUC,
}

func (b *Bot) handleRegister(ctx context.Context, msg *tgbotapi.Message) {
	user, err := b.services.Users.Register(ctx, msg.From.ID, msg.Chat.ID, msg.From.UserName)
	if err != nil {
		if errors.Is(err, store.ErrUserAlreadyExists) {
			b.send(msg.Chat.ID, "你已经注册过了。")
			return
		}
		b.logger.Error().Err(err).Int64("tg_id", msg.From.ID).Msg("registration failed")
		b.send(msg.Chat.ID, genericErrorReply)
		return
	}

	if err := b.syncMenu(user); err != nil {
		b.logger.Warn().Err(err).Int64("tg_id", user.TgID).Msg("failed to sync command menu")
	}

	b.send(msg.Chat.ID, fmt.Sprintf("注册成功，%s。你的角色是 %s。", escape(user.Username), roleLabels[user.Role]))
}

func (b *Bot) handleMyInfo(ctx context.Context, user models.User, chatID int64, _ string) error {
	info, err := b.services.Users.MyInfo(ctx, user)
	if err != nil {
		return err
	}
	b.send(chatID, formatAccountInfo(info))
	return nil
}

// handleSetAdmin promotes the space-separated Telegram ids in args.
func (b *Bot) handleSetAdmin(ctx context.Context, user models.User, chatID int64, args string) error {
	if args == "" {
		b.send(chatID, "用法：/set_admin <tg_id> [tg_id ...]")
		return nil
	}

	var tgIDs []int64
	for _, field := range strings.Fields(args) {
		id, err := strconv.ParseInt(field, 10, 64)
		if err != nil {
			b.send(chatID, fmt.Sprintf("无效的用户 ID：%s", escape(field)))
			return nil
		}
		tgIDs = append(tgIDs, id)
	}

	promoted, err := b.services.Users.SetAdmins(ctx, user, tgIDs)
	if err != nil {
		return err
	}
	if len(promoted) == 0 {
		b.send(chatID, "没有可提升的用户（未注册或已是拥有者）。")
		return nil
	}

	names := make([]string, 0, len(promoted))
	for _, p := range promoted {
		names = append(names, escape(p.Username))
	}
	b.send(chatID, fmt.Sprintf("已将 %s 设置为管理员。", strings.Join(names, ", ")))
	return nil
}

func (b *Bot) handleSettings(ctx context.Context, user models.User, chatID int64, _ string) error {
	b.sendWithKeyboard(chatID, "⚙️ <b>偏好设置</b>\n点击切换选项。", settingsKeyboard(user.Settings))
	return nil
}

// handleSettingsCallback toggles one setting and re-renders the menu. Every
// toggle commits immediately.
func (b *Bot) handleSettingsCallback(ctx context.Context, user models.User, chatID int64, payload string) error {
	settings := user.Settings

	switch {
	case strings.HasPrefix(payload, "cloud:"):
		cloudType := strings.TrimPrefix(payload, "cloud:")
		if !slices.Contains(settingsCloudChoices, cloudType) {
			return nil
		}
		selected := settings.EffectiveCloudTypes()
		if slices.Contains(selected, cloudType) {
			selected = slices.DeleteFunc(slices.Clone(selected), func(t string) bool { return t == cloudType })
		} else {
			selected = append(slices.Clone(selected), cloudType)
		}
		settings.PreferredCloudTypes = selected
	case payload == "space":
		settings.SaveSpaceMode = !settings.SaveSpaceMode
	default:
		return nil
	}

	updated, err := b.services.Users.UpdateSettings(ctx, user, settings)
	if err != nil {
		return err
	}

	b.sendWithKeyboard(chatID, "⚙️ <b>偏好设置</b>\n点击切换选项。", settingsKeyboard(updated.Settings))
	return nil
}

func settingsKeyboard(settings models.UserSettings) tgbotapi.InlineKeyboardMarkup {
	selected := settings.EffectiveCloudTypes()

	var rows [][]tgbotapi.InlineKeyboardButton
	for _, cloudType := range settingsCloudChoices {
		label := cloudType
		if slices.Contains(selected, cloudType) {
			label = "✅ " + cloudType
		}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(label, "settings:cloud:"+cloudType),
		))
	}

	spaceLabel := "省空间模式：关"
	if settings.SaveSpaceMode {
		spaceLabel = "省空间模式：开"
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData(spaceLabel, "settings:space"),
	))

	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}
