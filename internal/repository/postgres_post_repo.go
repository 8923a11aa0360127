package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/carlosnatalino/simple-flask-blog/internal/model"
)

// PostgresPostRepo はPostgreSQLを使用した投稿リポジトリ。
type PostgresPostRepo struct {
	db *sql.DB
}

// NewPostgresPostRepo はPostgresPostRepoを生成する。
func NewPostgresPostRepo(db *sql.DB) *PostgresPostRepo {
	return &PostgresPostRepo{db: db}
}

const postSelect = `SELECT p.id, p.title, p.content, p.content_type, p.date_posted, p.user_id,
        u.id, u.username, u.email, u.image_file
 FROM posts p
 JOIN users u ON u.id = p.user_id`

// rowScanner は*sql.Rowと*sql.Rowsの共通部分。
type rowScanner interface {
	Scan(dest ...any) error
}

func scanPost(s rowScanner) (*model.Post, error) {
	post := &model.Post{Author: &model.Author{}}
	var contentType string
	err := s.Scan(
		&post.ID, &post.Title, &post.Content, &contentType, &post.DatePosted, &post.UserID,
		&post.Author.ID, &post.Author.Username, &post.Author.Email, &post.Author.ImageFile,
	)
	if err != nil {
		return nil, err
	}
	post.ContentType = model.ContentType(contentType)
	return post, nil
}

// buildPostListQuery は絞り込み条件からWHERE句と引数を組み立てる。
func buildPostListQuery(filter model.PostFilter) (string, []any) {
	var conds []string
	var args []any

	if filter.Keyword != "" {
		args = append(args, "%"+escapeLike(filter.Keyword)+"%")
		conds = append(conds, fmt.Sprintf("p.title ILIKE $%d", len(args)))
	}
	if !filter.From.IsZero() {
		args = append(args, filter.From)
		conds = append(conds, fmt.Sprintf("p.date_posted >= $%d", len(args)))
	}
	if !filter.To.IsZero() {
		args = append(args, filter.To)
		conds = append(conds, fmt.Sprintf("p.date_posted < $%d", len(args)))
	}
	if filter.UserID != "" {
		args = append(args, filter.UserID)
		conds = append(conds, fmt.Sprintf("p.user_id = $%d", len(args)))
	}

	query := postSelect
	if len(conds) > 0 {
		query += "\n WHERE " + strings.Join(conds, " AND ")
	}
	query += "\n ORDER BY p.date_posted DESC, p.id"
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf("\n LIMIT $%d", len(args))
	}
	return query, args
}

// escapeLike はLIKEパターンのメタ文字をエスケープする。
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

// List は条件に合う投稿をdate_posted降順で返す。
func (r *PostgresPostRepo) List(ctx context.Context, filter model.PostFilter) ([]*model.Post, error) {
	query, args := buildPostListQuery(filter)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}
	defer rows.Close()

	posts := make([]*model.Post, 0)
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan post: %w", err)
		}
		posts = append(posts, post)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate posts: %w", err)
	}
	return posts, nil
}

// FindByID は指定IDの投稿を取得する。見つからない場合はnilを返す。
func (r *PostgresPostRepo) FindByID(ctx context.Context, id string) (*model.Post, error) {
	post, err := scanPost(r.db.QueryRowContext(ctx, postSelect+"\n WHERE p.id = $1", id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find post: %w", err)
	}
	return post, nil
}

// Create は投稿を作成する。
func (r *PostgresPostRepo) Create(ctx context.Context, post *model.Post) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO posts (id, title, content, content_type, date_posted, user_id)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		post.ID, post.Title, post.Content, string(post.ContentType), post.DatePosted, post.UserID,
	)
	if err != nil {
		return fmt.Errorf("failed to create post: %w", err)
	}
	return nil
}

// Update はtitle、content_type、contentを上書きする。
func (r *PostgresPostRepo) Update(ctx context.Context, post *model.Post) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE posts SET title = $2, content_type = $3, content = $4 WHERE id = $1`,
		post.ID, post.Title, string(post.ContentType), post.Content,
	)
	if err != nil {
		return fmt.Errorf("failed to update post: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("post not found: %s", post.ID)
	}
	return nil
}

// DeleteWithComments はコメント→投稿の順に同一トランザクションで削除する。
// 外部キーのCASCADEには依存しない。
func (r *PostgresPostRepo) DeleteWithComments(ctx context.Context, id string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM comments WHERE post_id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete comments: %w", err)
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM posts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete post: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("post not found: %s", id)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// compile-time interface check
var _ PostRepository = (*PostgresPostRepo)(nil)
