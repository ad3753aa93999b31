package bot

import (
	"github.com/leoqin/mediabot/internal/bot/conversation"
	"github.com/leoqin/mediabot/internal/logger"
	"github.com/leoqin/mediabot/internal/service"
)

// Flow names. Doubling as the command names that start them keeps the
// routing obvious.
const (
	flowEmbyConfig    = "emby_config"
	flowQASConfig     = "qas_config"
	flowAIConfig      = "ai_config"
	flowQASTaskAdd    = "qas_add"
	flowQASTaskUpdate = "qas_update"
)

// skipMarker lets the user keep a field's stored or default value in the
// linear wizards.
const skipMarker = "-"

// NewFlowEngine builds the conversation engine over every wizard.
func NewFlowEngine(services *service.Services, log *logger.Logger) (*conversation.Engine, error) {
	flows := []conversation.Flow{
		embyConfigFlow(services),
		qasConfigFlow(services),
		aiConfigFlow(services),
		qasTaskAddFlow(services),
		qasTaskUpdateFlow(services),
	}
	return conversation.NewEngine(flows, 0, log)
}

// textOrNil turns wizard input into a partial-update field. The skip marker
// keeps the stored value.
func textOrNil(text string) *string {
	if text == skipMarker {
		return nil
	}
	return &text
}
