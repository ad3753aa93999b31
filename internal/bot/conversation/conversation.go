// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Leo Qin

// Package conversation implements the multi-step dialog engine behind the
// configuration wizards. A Flow is a table of states; each state prompts the
// user and reacts to either free text or an inline button press with a
// transition to the next state. Collected answers live in a per-user scratch
// session that expires after 30 minutes of inactivity.
//
// Persistence happens inside state handlers. A handler returning an error
// keeps the session (and its scratch) alive so the user can retry the step;
// only a transition to [StateDone] clears it.
package conversation

import "context"

// StateID names one state of a flow.
type StateID string

// StateDone is the terminal pseudo-state. Transitioning to it ends the flow
// and clears the session.
const StateDone StateID = "done"

// Button is one inline keyboard button. Data is the callback payload routed
// back to the flow.
type Button struct {
	Label string
	Data  string
}

// Reply is what the engine asks the transport to send: a text (HTML) and an
// optional inline keyboard.
type Reply struct {
	Text    string
	Buttons [][]Button
}

// Transition is the outcome of a state handler.
type Transition struct {
	// Next is the state to enter. StateDone ends the flow.
	Next StateID

	// Reply overrides the next state's prompt when set. Required for
	// transitions to StateDone, which has no prompt.
	Reply *Reply
}

// State is one step of a flow. Prompt renders the question when the state is
// entered. At least one of OnText and OnChoice must be set; input of the
// other kind is rejected with a repeat of the prompt.
type State struct {
	Prompt   func(s *Session) Reply
	OnText   func(ctx context.Context, s *Session, text string) (Transition, error)
	OnChoice func(ctx context.Context, s *Session, data string) (Transition, error)
}

// Flow is a complete dialog: a named state table with an entry point.
type Flow struct {
	Name  string
	Start StateID

	States map[StateID]State
}
