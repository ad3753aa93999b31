package bot

import (
	"errors"

	"github.com/leoqin/mediabot/internal/service"
	"github.com/leoqin/mediabot/internal/store"
)

// User-facing reply strings.
const (
	deniedReply        = "你没有权限执行此操作。"
	notRegisteredReply = "请先使用 /register 注册。"
	genericErrorReply  = "操作失败，请稍后再试。"
	flowExpiredReply   = "操作已过期，请重新发起。"
)

// userFacingError maps service failures to reply strings. Unknown errors get
// the generic reply; the caller logs the original.
func userFacingError(err error) string {
	switch {
	case errors.Is(err, service.ErrNotRegistered):
		return notRegisteredReply
	case errors.Is(err, service.ErrNoDefaultProvider):
		return "请先配置默认 AI 提供商（/ai_config）。"
	case errors.Is(err, service.ErrCredentialReset):
		return "保存的凭据无法读取，请重新配置。"
	case errors.Is(err, service.ErrReminderUnparseable):
		return "无法理解这个提醒请求，请换个说法。"
	case errors.Is(err, service.ErrJobNotOwned):
		return "权限不足"
	case errors.Is(err, service.ErrAllBackendsFailed):
		return "搜索服务暂时不可用，请稍后再试。"
	case errors.Is(err, service.ErrTaskNotFound):
		return "此任务不存在"
	case errors.Is(err, store.ErrLinkNotFound), errors.Is(err, store.ErrJobNotFound):
		return "此任务不存在"
	case errors.Is(err, store.ErrConfigNotFound):
		return "请先完成相关配置。"
	case errors.Is(err, store.ErrUserAlreadyExists):
		return "你已经注册过了。"
	default:
		return genericErrorReply
	}
}
