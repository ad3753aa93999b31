// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Leo Qin

package bot

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/leoqin/mediabot/internal/bot/conversation"
	"github.com/leoqin/mediabot/internal/logger"
	"github.com/leoqin/mediabot/internal/service"
	"github.com/leoqin/mediabot/models"
)

const defaultPollTimeout = 30 * time.Second

type commandHandler func(ctx context.Context, user models.User, chatID int64, args string) error

type callbackRoute struct {
	prefix  string
	minRole models.RoleName
	handler func(ctx context.Context, user models.User, chatID int64, payload string) error
}

// Bot is the Telegram transport. It also delivers fired reminders, so it
// satisfies the scheduler's Notifier.
type Bot struct {
	api         Sender
	poller      *tgbotapi.BotAPI
	services    *service.Services
	flows       *conversation.Engine
	pollTimeout time.Duration
	logger      *logger.Logger

	handlers  map[string]commandHandler
	roles     map[string]models.RoleName
	callbacks []callbackRoute

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New constructs the bot over a live Telegram API connection.
func New(api *tgbotapi.BotAPI, services *service.Services, flows *conversation.Engine, pollTimeout time.Duration, log *logger.Logger) *Bot {
	b := newBot(api, services, flows, log)
	b.poller = api
	if pollTimeout > 0 {
		b.pollTimeout = pollTimeout
	}
	return b
}

// newBot wires the routing tables. Tests call it directly with a recording
// sender and no poller.
func newBot(api Sender, services *service.Services, flows *conversation.Engine, log *logger.Logger) *Bot {
	b := &Bot{
		api:         api,
		services:    services,
		flows:       flows,
		pollTimeout: defaultPollTimeout,
		logger:      log,
	}

	b.handlers = map[string]commandHandler{
		"my_info":            b.handleMyInfo,
		"set_admin":          b.handleSetAdmin,
		"settings":           b.handleSettings,
		"search":             b.handleSearch,
		"remind":             b.handleRemind,
		"list_my_job":        b.handleListJobs,
		"delete_job":         b.handleDeleteJob,
		"emby":               b.handleEmby,
		"emby_notify":        b.handleEmbyNotify,
		"emby_config":        b.handleEmbyConfig,
		"tv":                 b.handleTMDBTV,
		"movie":              b.handleTMDBMovie,
		"qas":                b.handleQASTasks,
		"qas_add":            b.handleQASAdd,
		"qas_update":         b.handleQASUpdate,
		"qas_delete":         b.handleQASDelete,
		"qas_run":            b.handleQASRun,
		"qas_preview":        b.handleQASPreview,
		"qas_config":         b.handleQASConfig,
		"ai_config":          b.handleAIConfig,
		"qas_tag_start_file": b.handleQASTagStartFiles,
	}

	b.roles = make(map[string]models.RoleName, len(menuCommands))
	for _, cmd := range menuCommands {
		b.roles[cmd.name] = cmd.minRole
	}

	b.callbacks = []callbackRoute{
		{"list_my_job:", models.RoleAdmin, b.handleListJobsPage},
		{"delete_job:", models.RoleAdmin, b.handleDeleteJobCallback},
		{"settings:", models.RoleUser, b.handleSettingsCallback},
		{"emby_refresh:", models.RoleUser, b.handleEmbyRefreshCallback},
		{"emby_notify:", models.RoleUser, b.handleEmbyNotifyCallback},
		{"qas_delete:", models.RoleUser, b.handleQASDeleteCallback},
	}

	return b
}

// Start launches the long-poll loop. Calling Start again restarts it.
func (b *Bot) Start(ctx context.Context) {
	if b.poller == nil {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.cancel != nil {
		b.cancel()
		b.wg.Wait()
	}

	ctx, cancel := context.WithCancel(ctx)
	b.cancel = cancel

	b.wg.Add(1)
	go b.poll(ctx)
}

// Stop cancels the poll loop and blocks until it has exited.
func (b *Bot) Stop() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.cancel == nil {
		return
	}
	b.cancel()
	b.cancel = nil
	b.wg.Wait()
}

func (b *Bot) poll(ctx context.Context) {
	defer b.wg.Done()

	cfg := tgbotapi.NewUpdate(0)
	cfg.Timeout = int(b.pollTimeout.Seconds())
	updates := b.poller.GetUpdatesChan(cfg)

	b.logger.Info().Msg("telegram polling started")

	for {
		select {
		case <-ctx.Done():
			b.poller.StopReceivingUpdates()
			b.logger.Info().Msg("telegram polling stopped")
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			b.dispatch(ctx, update)
		}
	}
}

func (b *Bot) dispatch(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.Message != nil:
		b.handleMessage(ctx, update.Message)
	case update.CallbackQuery != nil:
		b.handleCallbackQuery(ctx, update.CallbackQuery)
	}
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.From == nil {
		return
	}

	if msg.IsCommand() {
		b.handleCommand(ctx, msg)
		return
	}
	b.handleText(ctx, msg)
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	name := msg.Command()
	args := strings.TrimSpace(msg.CommandArguments())
	chatID := msg.Chat.ID

	switch name {
	case "start", "help":
		b.send(chatID, "欢迎使用 mediabot。使用 /register 注册后即可搜索资源、创建提醒和管理媒体服务。")
		return
	case "register":
		b.handleRegister(ctx, msg)
		return
	}

	user, err := b.services.Users.ResolveUser(ctx, msg.From.ID)
	if err != nil {
		if errors.Is(err, service.ErrNotRegistered) {
			b.send(chatID, notRegisteredReply)
			return
		}
		b.logger.Error().Err(err).Int64("tg_id", msg.From.ID).Msg("failed to resolve user")
		b.send(chatID, genericErrorReply)
		return
	}

	// Menu sync rides on every guarded command so role changes show up
	// without a restart. Failures never block the command.
	if err := b.syncMenu(user); err != nil {
		b.logger.Warn().Err(err).Int64("tg_id", user.TgID).Msg("failed to sync command menu")
	}

	if name == "cancel" {
		reply, ok := b.flows.Cancel(user.UserID)
		if !ok {
			b.send(chatID, "当前没有进行中的操作。")
			return
		}
		b.sendFlowReply(chatID, reply)
		return
	}

	handler, ok := b.handlers[name]
	if !ok {
		b.send(chatID, "未知命令，使用 /help 查看帮助。")
		return
	}
	if !user.AtLeast(b.roles[name]) {
		b.send(chatID, deniedReply)
		return
	}

	if err := handler(ctx, user, chatID, args); err != nil {
		b.logger.Error().Err(err).Str("command", name).Int64("tg_id", user.TgID).Msg("command failed")
		b.send(chatID, userFacingError(err))
	}
}

// handleText feeds non-command messages into the user's active conversation.
// Text from users without an account or without an active flow is ignored.
func (b *Bot) handleText(ctx context.Context, msg *tgbotapi.Message) {
	user, err := b.services.Users.ResolveUser(ctx, msg.From.ID)
	if err != nil {
		return
	}

	reply, _, err := b.flows.HandleText(ctx, user.UserID, msg.Text)
	if err != nil {
		switch {
		case errors.Is(err, conversation.ErrNoActiveFlow):
			return
		case errors.Is(err, conversation.ErrWrongInput):
			b.send(msg.Chat.ID, "请使用下方按钮进行选择。")
		default:
			b.logger.Error().Err(err).Int64("tg_id", user.TgID).Msg("conversation step failed")
			b.send(msg.Chat.ID, userFacingError(err))
		}
		return
	}

	b.sendFlowReply(msg.Chat.ID, reply)
}

func (b *Bot) handleCallbackQuery(ctx context.Context, query *tgbotapi.CallbackQuery) {
	if _, err := b.api.Request(tgbotapi.NewCallback(query.ID, "")); err != nil {
		b.logger.Debug().Err(err).Msg("failed to answer callback query")
	}
	if query.Message == nil {
		return
	}
	chatID := query.Message.Chat.ID

	user, err := b.services.Users.ResolveUser(ctx, query.From.ID)
	if err != nil {
		if errors.Is(err, service.ErrNotRegistered) {
			b.send(chatID, notRegisteredReply)
		}
		return
	}

	for _, route := range b.callbacks {
		if payload, ok := strings.CutPrefix(query.Data, route.prefix); ok {
			if !user.AtLeast(route.minRole) {
				b.send(chatID, deniedReply)
				return
			}
			if err := route.handler(ctx, user, chatID, payload); err != nil {
				b.logger.Error().Err(err).Str("callback", route.prefix).Int64("tg_id", user.TgID).Msg("callback failed")
				b.send(chatID, userFacingError(err))
			}
			return
		}
	}

	// Unprefixed payloads belong to the active conversation.
	reply, _, err := b.flows.HandleChoice(ctx, user.UserID, query.Data)
	if err != nil {
		if errors.Is(err, conversation.ErrNoActiveFlow) {
			// A wizard button outlived its session.
			b.send(chatID, flowExpiredReply)
			return
		}
		if errors.Is(err, conversation.ErrWrongInput) {
			return
		}
		b.logger.Error().Err(err).Int64("tg_id", user.TgID).Msg("conversation step failed")
		b.send(chatID, userFacingError(err))
		return
	}

	b.sendFlowReply(chatID, reply)
}

// Notify delivers a fired reminder. Implements the scheduler's Notifier.
func (b *Bot) Notify(_ context.Context, chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, "⏰ "+escape(text))
	msg.ParseMode = tgbotapi.ModeHTML
	_, err := b.api.Send(msg)
	return err
}

func (b *Bot) send(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	if _, err := b.api.Send(msg); err != nil {
		b.logger.Error().Err(err).Int64("chat_id", chatID).Msg("failed to send message")
	}
}

func (b *Bot) sendWithKeyboard(chatID int64, text string, keyboard tgbotapi.InlineKeyboardMarkup) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = keyboard
	if _, err := b.api.Send(msg); err != nil {
		b.logger.Error().Err(err).Int64("chat_id", chatID).Msg("failed to send message")
	}
}

func (b *Bot) sendFlowReply(chatID int64, reply conversation.Reply) {
	if reply.Text == "" {
		return
	}
	if len(reply.Buttons) == 0 {
		b.send(chatID, reply.Text)
		return
	}

	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(reply.Buttons))
	for _, row := range reply.Buttons {
		buttons := make([]tgbotapi.InlineKeyboardButton, 0, len(row))
		for _, btn := range row {
			buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonData(btn.Label, btn.Data))
		}
		rows = append(rows, buttons)
	}
	b.sendWithKeyboard(chatID, reply.Text, tgbotapi.NewInlineKeyboardMarkup(rows...))
}
