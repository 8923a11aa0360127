// Package post は投稿とコメントのドメインロジックを提供する。
// 変更系の操作は 存在確認 → 所有者確認 → 入力検証 → 更新 の順に判定する。
package post

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/carlosnatalino/simple-flask-blog/internal/model"
	"github.com/carlosnatalino/simple-flask-blog/internal/repository"
)

// DefaultListLimit はフィルタで件数指定がない場合の一覧の上限。
const DefaultListLimit = 100

// Service は投稿管理のサービス層。
type Service struct {
	postRepo    repository.PostRepository
	commentRepo repository.CommentRepository
	now         func() time.Time
}

// Option はServiceの任意設定。
type Option func(*Service)

// WithClock は投稿日時に使う時刻関数を差し替える。
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(postRepo repository.PostRepository, commentRepo repository.CommentRepository, opts ...Option) *Service {
	s := &Service{
		postRepo:    postRepo,
		commentRepo: commentRepo,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// List は条件に合う投稿を新しい順に返す。
func (s *Service) List(ctx context.Context, filter model.PostFilter) ([]*model.Post, error) {
	if filter.Limit <= 0 {
		filter.Limit = DefaultListLimit
	}
	posts, err := s.postRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("投稿一覧の取得に失敗しました: %w", err)
	}
	return posts, nil
}

// Get は投稿を1件取得する。
func (s *Service) Get(ctx context.Context, id string) (*model.Post, error) {
	return s.find(ctx, id)
}

// Create は新しい投稿を作成する。作成者はトークンのユーザー。
func (s *Service) Create(ctx context.Context, userID string, in Input) (*model.Post, error) {
	if err := in.ValidateFull(); err != nil {
		return nil, model.NewInvalidRequestError(err.Error())
	}

	post := &model.Post{
		ID:          uuid.New().String(),
		DatePosted:  s.now().UTC(),
		UserID:      userID,
		Title:       *in.Title,
		ContentType: model.ContentType(*in.ContentType),
		Content:     *in.Content,
	}
	if err := s.postRepo.Create(ctx, post); err != nil {
		return nil, fmt.Errorf("投稿の作成に失敗しました: %w", err)
	}

	// Author付きで返す
	return s.find(ctx, post.ID)
}

// Replace は投稿の3項目をすべて置き換える（PUT）。
func (s *Service) Replace(ctx context.Context, userID, id string, in Input) (*model.Post, error) {
	post, err := s.findOwned(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if err := in.ValidateFull(); err != nil {
		return nil, model.NewInvalidRequestError(err.Error())
	}
	return s.update(ctx, post, in.Patch())
}

// Patch は指定された項目だけを上書きする（PATCH）。
func (s *Service) Patch(ctx context.Context, userID, id string, in Input) (*model.Post, error) {
	post, err := s.findOwned(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if err := in.ValidatePartial(); err != nil {
		return nil, model.NewInvalidRequestError(err.Error())
	}
	return s.update(ctx, post, in.Patch())
}

// Delete は投稿とそのコメントを削除する。
func (s *Service) Delete(ctx context.Context, userID, id string) error {
	if _, err := s.findOwned(ctx, userID, id); err != nil {
		return err
	}
	if err := s.postRepo.DeleteWithComments(ctx, id); err != nil {
		return fmt.Errorf("投稿の削除に失敗しました: %w", err)
	}
	return nil
}

// ListComments は投稿のコメントを新しい順に返す。
func (s *Service) ListComments(ctx context.Context, postID string) ([]*model.Comment, error) {
	if _, err := s.find(ctx, postID); err != nil {
		return nil, err
	}
	comments, err := s.commentRepo.ListByPost(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("コメント一覧の取得に失敗しました: %w", err)
	}
	return comments, nil
}

// CreateComment は投稿にコメントを追加する。投稿者以外も可能。
func (s *Service) CreateComment(ctx context.Context, userID, postID string, in CommentInput) (*model.Comment, error) {
	if _, err := s.find(ctx, postID); err != nil {
		return nil, err
	}
	if err := in.Validate(); err != nil {
		return nil, model.NewInvalidRequestError(err.Error())
	}

	comment := &model.Comment{
		ID:         uuid.New().String(),
		Content:    in.Content,
		DatePosted: s.now().UTC(),
		UserID:     userID,
		PostID:     postID,
	}
	if err := s.commentRepo.Create(ctx, comment); err != nil {
		return nil, fmt.Errorf("コメントの作成に失敗しました: %w", err)
	}
	return comment, nil
}

// find は投稿を取得する。UUIDとして解釈できないIDは存在しないものとして扱う。
func (s *Service) find(ctx context.Context, id string) (*model.Post, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, model.NewPostNotFoundError(id)
	}
	post, err := s.postRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("投稿の取得に失敗しました: %w", err)
	}
	if post == nil {
		return nil, model.NewPostNotFoundError(id)
	}
	return post, nil
}

func (s *Service) findOwned(ctx context.Context, userID, id string) (*model.Post, error) {
	post, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if post.UserID != userID {
		return nil, model.NewNotPostOwnerError(id)
	}
	return post, nil
}

func (s *Service) update(ctx context.Context, post *model.Post, patch model.PostPatch) (*model.Post, error) {
	patch.Apply(post)
	if err := s.postRepo.Update(ctx, post); err != nil {
		return nil, fmt.Errorf("投稿の更新に失敗しました: %w", err)
	}
	return post, nil
}
