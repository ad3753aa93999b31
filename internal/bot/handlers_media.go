package bot

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/leoqin/mediabot/models"
)

// Emby webhook events the notification menu can toggle.
var embyNotifyEvents = []string{"library.new", "playback.start", "playback.stop"}

func (b *Bot) handleEmby(ctx context.Context, user models.User, chatID int64, args string) error {
	if args == "" {
		b.send(chatID, "用法：/emby <剧集名>")
		return nil
	}

	series, err := b.services.Media.EmbySeries(ctx, user, args)
	if err != nil {
		return err
	}
	if len(series) == 0 {
		b.send(chatID, "媒体库中没有匹配的剧集。")
		return nil
	}

	for _, info := range series {
		keyboard := tgbotapi.NewInlineKeyboardMarkup(tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🔄 刷新元数据", "emby_refresh:"+info.Item.ID),
		))
		b.sendWithKeyboard(chatID, formatSeries(info), keyboard)
	}
	return nil
}

func (b *Bot) handleEmbyRefreshCallback(ctx context.Context, user models.User, chatID int64, payload string) error {
	if err := b.services.Media.RefreshEmbyItem(ctx, user, payload); err != nil {
		return err
	}
	b.send(chatID, "已触发刷新。")
	return nil
}

// handleEmbyNotify lists the configured notification services with one
// toggle button per known event.
func (b *Bot) handleEmbyNotify(ctx context.Context, user models.User, chatID int64, _ string) error {
	notifications, err := b.services.Media.ListEmbyNotifications(ctx, user)
	if err != nil {
		return err
	}
	if len(notifications) == 0 {
		b.send(chatID, "Emby 中没有配置通知服务。")
		return nil
	}

	for _, n := range notifications {
		var rows [][]tgbotapi.InlineKeyboardButton
		for _, event := range embyNotifyEvents {
			enabled := false
			for _, id := range n.EventIDs {
				if id == event {
					enabled = true
					break
				}
			}

			label := event + "：关"
			action := "on"
			if enabled {
				label = event + "：开"
				action = "off"
			}
			rows = append(rows, tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData(label, fmt.Sprintf("emby_notify:%s|%s|%s", n.ID, event, action)),
			))
		}

		b.sendWithKeyboard(chatID, fmt.Sprintf("🔔 <b>%s</b>", escape(n.FriendlyName)), tgbotapi.NewInlineKeyboardMarkup(rows...))
	}
	return nil
}

func (b *Bot) handleEmbyNotifyCallback(ctx context.Context, user models.User, chatID int64, payload string) error {
	parts := strings.SplitN(payload, "|", 3)
	if len(parts) != 3 {
		return nil
	}
	notificationID, eventID, action := parts[0], parts[1], parts[2]

	if err := b.services.Media.ToggleEmbyNotification(ctx, user, notificationID, eventID, action == "on"); err != nil {
		return err
	}

	state := "已开启"
	if action != "on" {
		state = "已关闭"
	}
	b.send(chatID, fmt.Sprintf("%s %s", state, eventID))
	return nil
}

func (b *Bot) handleTMDBTV(ctx context.Context, user models.User, chatID int64, args string) error {
	if args == "" {
		b.send(chatID, "用法：/tv <剧集名>")
		return nil
	}

	results, err := b.services.Media.SearchTMDBTV(ctx, user, args)
	if err != nil {
		return err
	}
	b.send(chatID, formatTMDBResults(results))
	return nil
}

func (b *Bot) handleTMDBMovie(ctx context.Context, user models.User, chatID int64, args string) error {
	if args == "" {
		b.send(chatID, "用法：/movie <电影名>")
		return nil
	}

	results, err := b.services.Media.SearchTMDBMovie(ctx, user, args)
	if err != nil {
		return err
	}
	b.send(chatID, formatTMDBResults(results))
	return nil
}
