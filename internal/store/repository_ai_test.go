package store

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/leoqin/mediabot/internal/logger"
	"github.com/leoqin/mediabot/models"
)

func newTestAIRepo(t *testing.T) (*aiProviderConfigRepository, sqlmock.Sqlmock, *sql.DB) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	l := logger.Nop()
	repo := &aiProviderConfigRepository{
		db:     &DB{DB: db, logger: l},
		logger: l,
	}
	return repo, mock, db
}

func aiRows(userID int64, provider, apiKey, host, model string, isDefault bool) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.
		NewRows([]string{"config_id", "user_id", "provider_name", "api_key", "host", "model", "is_default", "created_at", "updated_at"}).
		AddRow(1, userID, provider, apiKey, host, model, isDefault, now, now)
}

func TestAIUpsert_InsertsWhenMissing(t *testing.T) {
	repo, mock, db := newTestAIRepo(t)
	defer db.Close()

	mock.ExpectQuery("SELECT (.+) FROM ai_provider_configs").
		WithArgs(int64(7), "deepseek").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectExec("INSERT INTO ai_provider_configs").
		WithArgs(int64(7), "deepseek", "enc-key", "", "", false).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectQuery("SELECT (.+) FROM ai_provider_configs").
		WithArgs(int64(7), "deepseek").
		WillReturnRows(aiRows(7, "deepseek", "enc-key", "", "", false))

	key := "enc-key"
	cfg, err := repo.Upsert(context.Background(), 7, "deepseek", models.AIProviderConfigUpdate{APIKey: &key})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.APIKey != "enc-key" || cfg.Host != "" {
		t.Errorf("unexpected config: %+v", cfg)
	}
}

func TestAIUpsert_SingleFieldUpdate(t *testing.T) {
	repo, mock, db := newTestAIRepo(t)
	defer db.Close()

	mock.ExpectQuery("SELECT (.+) FROM ai_provider_configs").
		WithArgs(int64(7), "deepseek").
		WillReturnRows(aiRows(7, "deepseek", "enc-key", "https://api.deepseek.com", "", false))
	mock.ExpectExec("UPDATE ai_provider_configs SET").
		WithArgs("deepseek-chat", "deepseek", int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("SELECT (.+) FROM ai_provider_configs").
		WithArgs(int64(7), "deepseek").
		WillReturnRows(aiRows(7, "deepseek", "enc-key", "https://api.deepseek.com", "deepseek-chat", false))

	model := "deepseek-chat"
	cfg, err := repo.Upsert(context.Background(), 7, "deepseek", models.AIProviderConfigUpdate{Model: &model})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Model != "deepseek-chat" || cfg.APIKey != "enc-key" {
		t.Errorf("expected untouched fields to survive, got %+v", cfg)
	}
}

func TestAISetDefault_ClearsThenMarks(t *testing.T) {
	repo, mock, db := newTestAIRepo(t)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE ai_provider_configs SET is_default").
		WithArgs(int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec("UPDATE ai_provider_configs SET is_default").
		WithArgs(int64(7), "kimi").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	if err := repo.SetDefault(context.Background(), 7, "kimi"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestAISetDefault_UnknownProviderRollsBack(t *testing.T) {
	repo, mock, db := newTestAIRepo(t)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE ai_provider_configs SET is_default").
		WithArgs(int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE ai_provider_configs SET is_default").
		WithArgs(int64(7), "missing").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := repo.SetDefault(context.Background(), 7, "missing")
	if !errors.Is(err, ErrConfigNotFound) {
		t.Fatalf("expected ErrConfigNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestAIDelete_NotFound(t *testing.T) {
	repo, mock, db := newTestAIRepo(t)
	defer db.Close()

	mock.ExpectExec("DELETE FROM ai_provider_configs").
		WithArgs(int64(7), "openai").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Delete(context.Background(), 7, "openai")
	if !errors.Is(err, ErrConfigNotFound) {
		t.Fatalf("expected ErrConfigNotFound, got %v", err)
	}
}
