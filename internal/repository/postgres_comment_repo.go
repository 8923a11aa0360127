package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/carlosnatalino/simple-flask-blog/internal/model"
)

// PostgresCommentRepo はPostgreSQLを使用したコメントリポジトリ。
type PostgresCommentRepo struct {
	db *sql.DB
}

// NewPostgresCommentRepo はPostgresCommentRepoを生成する。
func NewPostgresCommentRepo(db *sql.DB) *PostgresCommentRepo {
	return &PostgresCommentRepo{db: db}
}

// ListByPost は投稿のコメントをdate_posted降順で返す。
func (r *PostgresCommentRepo) ListByPost(ctx context.Context, postID string) ([]*model.Comment, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT c.id, c.content, c.date_posted, c.user_id, c.post_id,
		        u.id, u.username, u.email, u.image_file
		 FROM comments c
		 JOIN users u ON u.id = c.user_id
		 WHERE c.post_id = $1
		 ORDER BY c.date_posted DESC, c.id`,
		postID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}
	defer rows.Close()

	comments := make([]*model.Comment, 0)
	for rows.Next() {
		c := &model.Comment{Author: &model.Author{}}
		if err := rows.Scan(
			&c.ID, &c.Content, &c.DatePosted, &c.UserID, &c.PostID,
			&c.Author.ID, &c.Author.Username, &c.Author.Email, &c.Author.ImageFile,
		); err != nil {
			return nil, fmt.Errorf("failed to scan comment: %w", err)
		}
		comments = append(comments, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate comments: %w", err)
	}
	return comments, nil
}

// Create はコメントを作成する。
func (r *PostgresCommentRepo) Create(ctx context.Context, comment *model.Comment) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO comments (id, content, date_posted, user_id, post_id)
		 VALUES ($1, $2, $3, $4, $5)`,
		comment.ID, comment.Content, comment.DatePosted, comment.UserID, comment.PostID,
	)
	if err != nil {
		return fmt.Errorf("failed to create comment: %w", err)
	}
	return nil
}

// compile-time interface check
var _ CommentRepository = (*PostgresCommentRepo)(nil)
