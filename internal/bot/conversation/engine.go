// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Leo Qin

package conversation

import (
	"context"
	"fmt"
	"time"

	"github.com/leoqin/mediabot/internal/logger"
)

// cancelledReply is sent whenever a flow is aborted.
const cancelledReply = "操作已取消"

// Engine owns the registered flows and the session store.
type Engine struct {
	flows  map[string]Flow
	store  *sessionStore
	logger *logger.Logger
}

// NewEngine constructs an engine over the given flows. A ttl of zero selects
// the default 30 minute session lifetime.
func NewEngine(flows []Flow, ttl time.Duration, log *logger.Logger) (*Engine, error) {
	byName := make(map[string]Flow, len(flows))
	for _, flow := range flows {
		if _, ok := flow.States[flow.Start]; !ok {
			return nil, fmt.Errorf("%w: flow %s start %s", ErrInvalidState, flow.Name, flow.Start)
		}
		byName[flow.Name] = flow
	}

	return &Engine{
		flows:  byName,
		store:  newSessionStore(ttl),
		logger: log,
	}, nil
}

// Start opens a flow for the user, replacing any session left over from an
// abandoned dialog, and returns the first prompt.
func (e *Engine) Start(userID, chatID int64, flowName string, scratch any) (Reply, error) {
	flow, ok := e.flows[flowName]
	if !ok {
		return Reply{}, fmt.Errorf("%w: %s", ErrUnknownFlow, flowName)
	}

	session := &Session{
		UserID:  userID,
		ChatID:  chatID,
		Flow:    flowName,
		Current: flow.Start,
		Scratch: scratch,
	}
	e.store.put(session)

	return flow.States[flow.Start].Prompt(session), nil
}

// Active reports whether the user is mid-flow.
func (e *Engine) Active(userID int64) bool {
	_, ok := e.store.get(userID)
	return ok
}

// HandleText feeds a text message into the user's active flow. done reports
// that the flow finished and the session was cleared.
func (e *Engine) HandleText(ctx context.Context, userID int64, text string) (reply Reply, done bool, err error) {
	return e.handle(ctx, userID, func(ctx context.Context, state State, session *Session) (Transition, error) {
		if state.OnText == nil {
			return Transition{}, ErrWrongInput
		}
		return state.OnText(ctx, session, text)
	})
}

// HandleChoice feeds an inline button payload into the user's active flow.
func (e *Engine) HandleChoice(ctx context.Context, userID int64, data string) (reply Reply, done bool, err error) {
	return e.handle(ctx, userID, func(ctx context.Context, state State, session *Session) (Transition, error) {
		if state.OnChoice == nil {
			return Transition{}, ErrWrongInput
		}
		return state.OnChoice(ctx, session, data)
	})
}

func (e *Engine) handle(ctx context.Context, userID int64, invoke func(context.Context, State, *Session) (Transition, error)) (Reply, bool, error) {
	session, ok := e.store.get(userID)
	if !ok {
		return Reply{}, false, ErrNoActiveFlow
	}

	flow := e.flows[session.Flow]
	state, ok := flow.States[session.Current]
	if !ok {
		e.store.drop(userID)
		return Reply{}, false, fmt.Errorf("%w: flow %s state %s", ErrInvalidState, session.Flow, session.Current)
	}

	transition, err := invoke(ctx, state, session)
	if err != nil {
		// The session survives so the user can retry the step.
		return Reply{}, false, err
	}

	if transition.Next == StateDone {
		e.store.drop(userID)
		if transition.Reply == nil {
			return Reply{}, true, nil
		}
		return *transition.Reply, true, nil
	}

	next, ok := flow.States[transition.Next]
	if !ok {
		e.store.drop(userID)
		return Reply{}, false, fmt.Errorf("%w: flow %s state %s", ErrInvalidState, session.Flow, transition.Next)
	}

	session.Current = transition.Next
	e.store.put(session)

	if transition.Reply != nil {
		return *transition.Reply, false, nil
	}
	return next.Prompt(session), false, nil
}

// Cancel aborts the user's active flow from any state. The reply is empty
// when there was nothing to cancel.
func (e *Engine) Cancel(userID int64) (Reply, bool) {
	if !e.store.drop(userID) {
		return Reply{}, false
	}
	return Reply{Text: cancelledReply}, true
}
