package session

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/ozimiz/ozimiz-telegram-bot/internal/domain"
	"github.com/ozimiz/ozimiz-telegram-bot/internal/repositories"
	"github.com/ozimiz/ozimiz-telegram-bot/pkg/logger"
)

type PgxRepository struct {
	pool   *pgxpool.Pool
	logger logger.Logger
}

func NewPgxRepository(pool *pgxpool.Pool, logger logger.Logger) *PgxRepository {
	return &PgxRepository{
		pool:   pool,
		logger: logger.WithComponent("SessionRepo"),
	}
}

var _ Repository = (*PgxRepository)(nil)

func (r *PgxRepository) Get(ctx context.Context, chatID int64) (*domain.Session, error) {
	query, args, err := repositories.SqBuilder.
		Select("chat_id", "access_token", "refresh_token", "user_snapshot", "language", "created_at", "updated_at").
		From("sessions").
		Where(sq.Eq{"chat_id": chatID}).
		ToSql()
	if err != nil {
		return nil, repositories.ErrBadQuery
	}

	var (
		chat                      int64
		accessToken, refreshToken string
		snapshot                  []byte
		language                  string
		createdAt, updatedAt      time.Time
	)
	row := r.pool.QueryRow(ctx, query, args...)
	if err := row.Scan(&chat, &accessToken, &refreshToken, &snapshot,
		&language, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	var user *domain.User
	if len(snapshot) > 0 {
		user = &domain.User{}
		if err := json.Unmarshal(snapshot, user); err != nil {
			return nil, err
		}
	}

	sess := domain.NewSession(chat, accessToken, refreshToken, user)
	sess.Language = language
	sess.CreatedAt = createdAt
	sess.UpdatedAt = updatedAt
	return sess, nil
}

// Save upserts the chat's session. The conflict clause replaces the previous
// token pair, keeping exactly one live session per chat.
func (r *PgxRepository) Save(ctx context.Context, sess *domain.Session) error {
	snapshot, err := json.Marshal(sess.User)
	if err != nil {
		return err
	}

	accessToken, refreshToken := sess.Tokens()
	query, args, err := repositories.SqBuilder.
		Insert("sessions").
		Columns("chat_id", "access_token", "refresh_token", "user_snapshot", "language", "updated_at").
		Values(sess.ChatID, accessToken, refreshToken, snapshot, sess.Language, sq.Expr("now()")).
		Suffix(`ON CONFLICT (chat_id) DO UPDATE SET
			access_token = EXCLUDED.access_token,
			refresh_token = EXCLUDED.refresh_token,
			user_snapshot = EXCLUDED.user_snapshot,
			language = EXCLUDED.language,
			updated_at = now()`).
		ToSql()
	if err != nil {
		return repositories.ErrBadQuery
	}

	_, err = r.pool.Exec(ctx, query, args...)
	return err
}

func (r *PgxRepository) SaveTokens(ctx context.Context, chatID int64, accessToken, refreshToken string) error {
	query, args, err := repositories.SqBuilder.
		Update("sessions").
		Set("access_token", accessToken).
		Set("refresh_token", refreshToken).
		Set("updated_at", sq.Expr("now()")).
		Where(sq.Eq{"chat_id": chatID}).
		ToSql()
	if err != nil {
		return repositories.ErrBadQuery
	}

	result, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PgxRepository) SaveLanguage(ctx context.Context, chatID int64, language string) error {
	query, args, err := repositories.SqBuilder.
		Update("sessions").
		Set("language", language).
		Set("updated_at", sq.Expr("now()")).
		Where(sq.Eq{"chat_id": chatID}).
		ToSql()
	if err != nil {
		return repositories.ErrBadQuery
	}

	result, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PgxRepository) Delete(ctx context.Context, chatID int64) error {
	query, args, err := repositories.SqBuilder.
		Delete("sessions").
		Where(sq.Eq{"chat_id": chatID}).
		ToSql()
	if err != nil {
		return repositories.ErrBadQuery
	}

	_, err = r.pool.Exec(ctx, query, args...)
	return err
}

func (r *PgxRepository) DeleteIdleBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	query, args, err := repositories.SqBuilder.
		Delete("sessions").
		Where(sq.Lt{"updated_at": cutoff}).
		ToSql()
	if err != nil {
		return 0, repositories.ErrBadQuery
	}

	result, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}
