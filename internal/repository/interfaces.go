// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"time"

	"github.com/carlosnatalino/simple-flask-blog/internal/model"
)

// UserRepository はユーザーデータ（認証情報ストア）の永続化インターフェース。
type UserRepository interface {
	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.User, error)

	// FindByEmail はメールアドレスでユーザーを取得する。見つからない場合はnilを返す。
	FindByEmail(ctx context.Context, email string) (*model.User, error)

	// Create はユーザーを作成する。
	// usernameまたはemailが重複する場合はmodel.ErrDuplicateUserを返す。
	Create(ctx context.Context, user *model.User) error

	// Update はusername、email、image_fileを更新する。
	// 重複する場合はmodel.ErrDuplicateUserを返す。
	Update(ctx context.Context, user *model.User) error
}

// TokenRepository はBearerトークンの永続化インターフェース。
type TokenRepository interface {
	// Create はトークンを保存する。
	// トークン文字列が既存と衝突した場合はmodel.ErrDuplicateTokenを返す。
	Create(ctx context.Context, token *model.Token) error

	// FindByValue はトークン文字列でトークンを取得する。
	// 期限切れ・失効済みでもそのまま返し、判定は呼び出し側で行う。
	// 見つからない場合はnilを返す。
	FindByValue(ctx context.Context, value string) (*model.Token, error)

	// Revoke は指定トークンを失効させる。既に失効済みの場合は何もしない。
	Revoke(ctx context.Context, id string, at time.Time) error

	// DeleteExpiredBefore はexpires_atがcutoffより前のトークンを削除し、削除件数を返す。
	DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// PostRepository は投稿データの永続化インターフェース。
type PostRepository interface {
	// List は条件に合う投稿をdate_posted降順で返す。Authorを含む。
	List(ctx context.Context, filter model.PostFilter) ([]*model.Post, error)

	// FindByID は指定IDの投稿をAuthor付きで取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Post, error)

	// Create は投稿を作成する。
	Create(ctx context.Context, post *model.Post) error

	// Update はtitle、content_type、contentを上書きする。
	Update(ctx context.Context, post *model.Post) error

	// DeleteWithComments は投稿のコメントと投稿本体を同一トランザクションで削除する。
	DeleteWithComments(ctx context.Context, id string) error
}

// CommentRepository はコメントデータの永続化インターフェース。
type CommentRepository interface {
	// ListByPost は投稿のコメントをdate_posted降順でAuthor付きで返す。
	ListByPost(ctx context.Context, postID string) ([]*model.Comment, error)

	// Create はコメントを作成する。
	Create(ctx context.Context, comment *model.Comment) error
}
