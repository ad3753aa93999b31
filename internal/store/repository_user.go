package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/mattn/go-sqlite3"

	"github.com/leoqin/mediabot/internal/logger"
	"github.com/leoqin/mediabot/models"
)

// userRepository is the SQLite-backed implementation of [UserRepository].
// It handles account creation and lookup against the "users" table.
//
// All methods obtain a context-scoped logger via [logger.FromContext] for
// structured, update-level tracing of database interactions.
type userRepository struct {
	logger *logger.Logger
	db     *DB
}

// NewUserRepository constructs a [UserRepository] backed by the provided
// database connection and logger.
//
// A debug-level log message is emitted at construction time to aid
// application startup diagnostics.
func NewUserRepository(db *DB, logger *logger.Logger) UserRepository {
	logger.Debug().Msg("creating user repository")
	return &userRepository{
		db:     db,
		logger: logger,
	}
}

// CreateUser persists a new account and returns the fully populated
// [models.User] with server-assigned fields (UserID, CreatedAt).
//
// The INSERT uses the [createUser] query which returns all columns via a
// RETURNING clause, so the caller receives the canonical database
// representation of the newly created account.
//
// Error handling:
//   - SQLite unique constraint violation → [ErrUserAlreadyExists].
//   - Any other driver-level error → wrapped as "unexpected DB error".
//   - Scan failure → returned directly.
func (r *userRepository) CreateUser(ctx context.Context, user models.User) (models.User, error) {
	log := logger.FromContext(ctx)

	settings, err := json.Marshal(user.Settings)
	if err != nil {
		return models.User{}, fmt.Errorf("marshal settings: %w", err)
	}

	row := r.db.QueryRowContext(ctx, createUser, user.TgID, user.ChatID, user.Username, string(user.Role), string(settings))

	var created models.User
	var rawSettings string
	if err := row.Scan(&created.UserID, &created.TgID, &created.ChatID, &created.Username, &created.Role, &rawSettings, &created.CreatedAt, &created.UpdatedAt); err != nil {
		log.Err(err).Str("func", "*userRepository.CreateUser").Msg("error: scanning error")
		if isUniqueViolation(err) {
			return models.User{}, ErrUserAlreadyExists
		}
		return models.User{}, fmt.Errorf("unexpected DB error: %w", err)
	}

	if err := json.Unmarshal([]byte(rawSettings), &created.Settings); err != nil {
		return models.User{}, fmt.Errorf("unmarshal settings: %w", err)
	}

	return created, nil
}

// FindUserByTgID retrieves the account whose Telegram id matches tgID.
//
// Error handling:
//   - sql.ErrNoRows → [ErrNoUserWasFound].
//   - Any other driver-level error → wrapped as "unexpected DB error".
func (r *userRepository) FindUserByTgID(ctx context.Context, tgID int64) (models.User, error) {
	log := logger.FromContext(ctx)

	var found models.User
	var rawSettings string
	row := r.db.QueryRowContext(ctx, findUserByTgID, tgID)

	if err := row.Scan(&found.UserID, &found.TgID, &found.ChatID, &found.Username, &found.Role, &rawSettings, &found.CreatedAt, &found.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.User{}, ErrNoUserWasFound
		}
		log.Err(err).Str("func", "*userRepository.FindUserByTgID").Msg("error: scanning error")
		return models.User{}, fmt.Errorf("unexpected DB error: %w", err)
	}

	if err := json.Unmarshal([]byte(rawSettings), &found.Settings); err != nil {
		return models.User{}, fmt.Errorf("unmarshal settings: %w", err)
	}

	return found, nil
}

// CountUsers returns the total number of registered accounts. Used by
// registration to decide whether the registrant is the first user.
func (r *userRepository) CountUsers(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.QueryRowContext(ctx, countUsers).Scan(&count); err != nil {
		return 0, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	return count, nil
}

// ListUsersByTgIDs returns the accounts matching any of tgIDs. Unknown ids
// are silently absent from the result.
func (r *userRepository) ListUsersByTgIDs(ctx context.Context, tgIDs []int64) ([]models.User, error) {
	log := logger.FromContext(ctx)

	query, args, err := sq.
		Select("user_id", "tg_id", "chat_id", "username", "role", "settings", "created_at", "updated_at").
		From("users").
		Where(sq.Eq{"tg_id": tgIDs}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Err(err).Str("func", "*userRepository.ListUsersByTgIDs").Msg("error: query error")
		return nil, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		var u models.User
		var rawSettings string
		if err := rows.Scan(&u.UserID, &u.TgID, &u.ChatID, &u.Username, &u.Role, &rawSettings, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrScanningRows, err)
		}
		if err := json.Unmarshal([]byte(rawSettings), &u.Settings); err != nil {
			return nil, fmt.Errorf("unmarshal settings: %w", err)
		}
		users = append(users, u)
	}

	return users, rows.Err()
}

// UpdateUserRole changes the permission tier of the account with tgID.
// Returns [ErrNoUserWasFound] when no row matches.
func (r *userRepository) UpdateUserRole(ctx context.Context, tgID int64, role models.RoleName) error {
	res, err := r.db.ExecContext(ctx, updateUserRole, string(role), tgID)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}
	if affected == 0 {
		return ErrNoUserWasFound
	}

	return nil
}

// UpdateUserSettings replaces the settings JSON of the account with userID.
func (r *userRepository) UpdateUserSettings(ctx context.Context, userID int64, settings models.UserSettings) error {
	raw, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	res, err := r.db.ExecContext(ctx, updateUserSettings, string(raw), userID)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}
	if affected == 0 {
		return ErrNoUserWasFound
	}

	return nil
}

// isUniqueViolation reports whether err is a SQLite unique constraint
// failure.
func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}
