package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/carlosnatalino/simple-flask-blog/internal/model"
)

// PostgresTokenRepo はPostgreSQLを使用したトークンリポジトリ。
type PostgresTokenRepo struct {
	db *sql.DB
}

// NewPostgresTokenRepo はPostgresTokenRepoを生成する。
func NewPostgresTokenRepo(db *sql.DB) *PostgresTokenRepo {
	return &PostgresTokenRepo{db: db}
}

// Create はトークンを保存する。
// tokens.tokenの一意制約違反はmodel.ErrDuplicateTokenに変換する。
func (r *PostgresTokenRepo) Create(ctx context.Context, token *model.Token) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO tokens (id, token, user_id, expires_at, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		token.ID, token.Value, token.UserID, token.ExpiresAt, token.CreatedAt,
	)
	if isUniqueViolation(err) {
		return model.ErrDuplicateToken
	}
	if err != nil {
		return fmt.Errorf("failed to create token: %w", err)
	}
	return nil
}

// FindByValue はトークン文字列でトークンを取得する。
// セッションと異なり、期限切れでもSQL側では除外しない。
func (r *PostgresTokenRepo) FindByValue(ctx context.Context, value string) (*model.Token, error) {
	token := &model.Token{}
	var revokedAt sql.NullTime
	err := r.db.QueryRowContext(ctx,
		`SELECT id, token, user_id, expires_at, revoked_at, created_at
		 FROM tokens
		 WHERE token = $1`,
		value,
	).Scan(&token.ID, &token.Value, &token.UserID, &token.ExpiresAt, &revokedAt, &token.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find token: %w", err)
	}
	if revokedAt.Valid {
		token.RevokedAt = &revokedAt.Time
	}

	return token, nil
}

// Revoke は指定トークンを失効させる。
func (r *PostgresTokenRepo) Revoke(ctx context.Context, id string, at time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE tokens SET revoked_at = $2 WHERE id = $1 AND revoked_at IS NULL`,
		id, at,
	)
	if err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}
	return nil
}

// DeleteExpiredBefore はexpires_atがcutoffより前のトークンを削除する。
func (r *PostgresTokenRepo) DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM tokens WHERE expires_at < $1`,
		cutoff,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired tokens: %w", err)
	}
	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return deleted, nil
}

// compile-time interface check
var _ TokenRepository = (*PostgresTokenRepo)(nil)
