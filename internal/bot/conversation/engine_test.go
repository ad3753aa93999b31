// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Leo Qin

package conversation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leoqin/mediabot/internal/logger"
)

type nameScratch struct {
	First string
	Last  string
}

// testFlow collects a first and last name over two text steps and finishes
// through a confirm button.
func testFlow(saved *[]nameScratch, saveErr *error) Flow {
	return Flow{
		Name:  "name",
		Start: "ask_first",
		States: map[StateID]State{
			"ask_first": {
				Prompt: func(*Session) Reply { return Reply{Text: "first?"} },
				OnText: func(_ context.Context, s *Session, text string) (Transition, error) {
					s.Scratch.(*nameScratch).First = text
					return Transition{Next: "ask_last"}, nil
				},
			},
			"ask_last": {
				Prompt: func(*Session) Reply { return Reply{Text: "last?"} },
				OnText: func(_ context.Context, s *Session, text string) (Transition, error) {
					s.Scratch.(*nameScratch).Last = text
					return Transition{Next: "confirm"}, nil
				},
			},
			"confirm": {
				Prompt: func(*Session) Reply {
					return Reply{Text: "save?", Buttons: [][]Button{{{Label: "OK", Data: "ok"}}}}
				},
				OnChoice: func(_ context.Context, s *Session, data string) (Transition, error) {
					if *saveErr != nil {
						return Transition{}, *saveErr
					}
					*saved = append(*saved, *s.Scratch.(*nameScratch))
					return Transition{Next: StateDone, Reply: &Reply{Text: "saved"}}, nil
				},
			},
		},
	}
}

func newTestEngine(t *testing.T, saved *[]nameScratch, saveErr *error) *Engine {
	t.Helper()

	engine, err := NewEngine([]Flow{testFlow(saved, saveErr)}, 0, logger.Nop())
	require.NoError(t, err)
	return engine
}

func TestEngine_FullWalkThrough(t *testing.T) {
	var (
		saved   []nameScratch
		saveErr error
	)
	engine := newTestEngine(t, &saved, &saveErr)
	ctx := context.Background()

	reply, err := engine.Start(1, 1, "name", &nameScratch{})
	require.NoError(t, err)
	assert.Equal(t, "first?", reply.Text)
	assert.True(t, engine.Active(1))

	reply, done, err := engine.HandleText(ctx, 1, "Leo")
	require.NoError(t, err)
	assert.False(t, done)
	assert.Equal(t, "last?", reply.Text)

	reply, done, err = engine.HandleText(ctx, 1, "Qin")
	require.NoError(t, err)
	assert.False(t, done)
	assert.Equal(t, "save?", reply.Text)
	require.Len(t, reply.Buttons, 1)

	reply, done, err = engine.HandleChoice(ctx, 1, "ok")
	require.NoError(t, err)
	assert.True(t, done)
	assert.Equal(t, "saved", reply.Text)

	require.Len(t, saved, 1)
	assert.Equal(t, nameScratch{First: "Leo", Last: "Qin"}, saved[0])
	assert.False(t, engine.Active(1))
}

func TestEngine_FailedFinishKeepsSession(t *testing.T) {
	var (
		saved   []nameScratch
		saveErr error
	)
	engine := newTestEngine(t, &saved, &saveErr)
	ctx := context.Background()

	_, err := engine.Start(1, 1, "name", &nameScratch{})
	require.NoError(t, err)
	_, _, err = engine.HandleText(ctx, 1, "Leo")
	require.NoError(t, err)
	_, _, err = engine.HandleText(ctx, 1, "Qin")
	require.NoError(t, err)

	saveErr = errors.New("database is locked")
	_, _, err = engine.HandleChoice(ctx, 1, "ok")
	require.Error(t, err)

	// The session and its answers survive for a retry.
	assert.True(t, engine.Active(1))
	saveErr = nil
	reply, done, err := engine.HandleChoice(ctx, 1, "ok")
	require.NoError(t, err)
	assert.True(t, done)
	assert.Equal(t, "saved", reply.Text)
	assert.Equal(t, nameScratch{First: "Leo", Last: "Qin"}, saved[0])
}

func TestEngine_CancelFromAnyState(t *testing.T) {
	var (
		saved   []nameScratch
		saveErr error
	)
	engine := newTestEngine(t, &saved, &saveErr)
	ctx := context.Background()

	_, err := engine.Start(1, 1, "name", &nameScratch{})
	require.NoError(t, err)
	_, _, err = engine.HandleText(ctx, 1, "Leo")
	require.NoError(t, err)

	reply, ok := engine.Cancel(1)
	assert.True(t, ok)
	assert.Equal(t, "操作已取消", reply.Text)

	assert.Empty(t, saved)
	assert.False(t, engine.Active(1))
	_, _, err = engine.HandleText(ctx, 1, "Qin")
	assert.ErrorIs(t, err, ErrNoActiveFlow)
}

func TestEngine_CancelWithoutFlow(t *testing.T) {
	var (
		saved   []nameScratch
		saveErr error
	)
	engine := newTestEngine(t, &saved, &saveErr)

	_, ok := engine.Cancel(1)
	assert.False(t, ok)
}

func TestEngine_RejectsWrongInputKind(t *testing.T) {
	var (
		saved   []nameScratch
		saveErr error
	)
	engine := newTestEngine(t, &saved, &saveErr)

	_, err := engine.Start(1, 1, "name", &nameScratch{})
	require.NoError(t, err)

	_, _, err = engine.HandleChoice(context.Background(), 1, "ok")
	assert.ErrorIs(t, err, ErrWrongInput)
	assert.True(t, engine.Active(1))
}

func TestEngine_UnknownFlow(t *testing.T) {
	var (
		saved   []nameScratch
		saveErr error
	)
	engine := newTestEngine(t, &saved, &saveErr)

	_, err := engine.Start(1, 1, "enroll", nil)
	assert.ErrorIs(t, err, ErrUnknownFlow)
}

func TestSessionStore_Expiry(t *testing.T) {
	store := newSessionStore(defaultSessionTTL)
	now := time.Now()
	store.now = func() time.Time { return now }

	store.put(&Session{UserID: 1, Flow: "name", Current: "ask_first"})

	_, ok := store.get(1)
	assert.True(t, ok)

	now = now.Add(defaultSessionTTL + time.Minute)
	_, ok = store.get(1)
	assert.False(t, ok)
}

func TestSessionStore_AccessRefreshesTTL(t *testing.T) {
	store := newSessionStore(defaultSessionTTL)
	now := time.Now()
	store.now = func() time.Time { return now }

	store.put(&Session{UserID: 1, Flow: "name", Current: "ask_first"})

	now = now.Add(20 * time.Minute)
	_, ok := store.get(1)
	require.True(t, ok)

	now = now.Add(20 * time.Minute)
	_, ok = store.get(1)
	assert.True(t, ok)
}
