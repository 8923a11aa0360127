// Package seed はデモ用のユーザー・投稿・コメントを投入する。
package seed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/carlosnatalino/simple-flask-blog/internal/model"
	"github.com/carlosnatalino/simple-flask-blog/internal/repository"
	"github.com/carlosnatalino/simple-flask-blog/internal/user"
)

// ErrAlreadySeeded はデモユーザーが既に登録済みの場合に返される。
var ErrAlreadySeeded = errors.New("seed users already exist")

// DemoUser は投入するユーザーと、投稿を作るかどうか。
type DemoUser struct {
	Registration user.Registration
	ImageFile    string
	WithPosts    bool
}

// DefaultUsers はseedコマンドで投入するユーザー。
var DefaultUsers = []DemoUser{
	{
		Registration: user.Registration{Username: "Default", Email: "default@test.com", Password: "testing"},
		ImageFile:    "another_pic.jpeg",
		WithPosts:    true,
	},
	{
		Registration: user.Registration{Username: "Default Second", Email: "second@test.com", Password: "testing2"},
		ImageFile:    "7798432669b8b3ac.jpg",
		WithPosts:    true,
	},
	{
		Registration: user.Registration{Username: "Default Third", Email: "third@test.com", Password: "testing3"},
	},
}

// UserRegistrar はユーザー登録とプロフィール更新を行う。user.Serviceが満たす。
type UserRegistrar interface {
	Register(ctx context.Context, reg user.Registration) (*model.User, error)
	UpdateMe(ctx context.Context, userID string, upd user.AccountUpdate) (*model.User, error)
}

// Result は投入件数。
type Result struct {
	Users    int
	Posts    int
	Comments int
}

// Seeder はデモデータを投入する。
// 投稿とコメントは過去の日付で作るため、サービスを通さずリポジトリに直接書き込む。
type Seeder struct {
	users    UserRegistrar
	posts    repository.PostRepository
	comments repository.CommentRepository
	logger   *slog.Logger
	rng      *rand.Rand
	now      func() time.Time
}

// NewSeeder はSeederを生成する。rngがnilの場合は時刻から初期化する。
func NewSeeder(
	users UserRegistrar,
	posts repository.PostRepository,
	comments repository.CommentRepository,
	logger *slog.Logger,
	rng *rand.Rand,
) *Seeder {
	if rng == nil {
		seed := uint64(time.Now().UnixNano())
		rng = rand.New(rand.NewPCG(seed, seed>>1))
	}
	return &Seeder{
		users:    users,
		posts:    posts,
		comments: comments,
		logger:   logger,
		rng:      rng,
		now:      time.Now,
	}
}

// Run はdemoの各ユーザーを登録し、WithPostsのユーザーに3〜6件の投稿、
// 各投稿に全ユーザーからランダムに2〜5件のコメントを作成する。
// 最初のユーザーが既に存在する場合はErrAlreadySeededを返す。
func (s *Seeder) Run(ctx context.Context, demo []DemoUser) (Result, error) {
	var res Result

	created := make([]*model.User, 0, len(demo))
	for i, d := range demo {
		u, err := s.users.Register(ctx, d.Registration)
		if err != nil {
			var apiErr *model.APIError
			if i == 0 && errors.As(err, &apiErr) && apiErr.Code == model.ErrCodeUserConflict {
				return res, ErrAlreadySeeded
			}
			return res, fmt.Errorf("ユーザー %s の登録に失敗しました: %w", d.Registration.Email, err)
		}
		if d.ImageFile != "" {
			img := d.ImageFile
			if u, err = s.users.UpdateMe(ctx, u.ID, user.AccountUpdate{ImageFile: &img}); err != nil {
				return res, fmt.Errorf("ユーザー %s の画像設定に失敗しました: %w", d.Registration.Email, err)
			}
		}
		created = append(created, u)
		res.Users++
	}

	for i, d := range demo {
		if !d.WithPosts {
			continue
		}
		for range s.between(3, 6) {
			p, err := s.createPost(ctx, created[i])
			if err != nil {
				return res, err
			}
			res.Posts++

			for range s.between(2, 5) {
				author := created[s.rng.IntN(len(created))]
				if err := s.createComment(ctx, p, author); err != nil {
					return res, err
				}
				res.Comments++
			}
		}
	}

	s.logger.Info("demo data seeded",
		slog.Int("users", res.Users),
		slog.Int("posts", res.Posts),
		slog.Int("comments", res.Comments),
	)
	return res, nil
}

func (s *Seeder) createPost(ctx context.Context, owner *model.User) (*model.Post, error) {
	age := time.Duration(s.between(1, 90))*24*time.Hour +
		time.Duration(s.between(1, 23))*time.Hour +
		time.Duration(s.between(1, 59))*time.Minute

	p := &model.Post{
		ID:          uuid.New().String(),
		Title:       s.words(s.between(3, 7)),
		ContentType: model.ContentTypeMarkdown,
		Content:     s.paragraphs(s.between(1, 3)),
		DatePosted:  s.now().UTC().Add(-age),
		UserID:      owner.ID,
	}
	if err := s.posts.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("投稿の作成に失敗しました: %w", err)
	}
	return p, nil
}

// createComment は投稿日時から現在までのランダムな日時でコメントを作成する。
func (s *Seeder) createComment(ctx context.Context, p *model.Post, author *model.User) error {
	now := s.now().UTC()
	span := now.Sub(p.DatePosted)
	offset := time.Duration(s.rng.Int64N(int64(span)) + 1)

	c := &model.Comment{
		ID:         uuid.New().String(),
		Content:    s.words(s.between(10, 15)),
		DatePosted: now.Add(-offset),
		UserID:     author.ID,
		PostID:     p.ID,
	}
	if err := s.comments.Create(ctx, c); err != nil {
		return fmt.Errorf("コメントの作成に失敗しました: %w", err)
	}
	return nil
}

// between は[lo, hi]の一様乱数を返す。
func (s *Seeder) between(lo, hi int) int {
	return lo + s.rng.IntN(hi-lo+1)
}

var loremWords = strings.Fields(`lorem ipsum dolor sit amet consectetur adipiscing elit sed do
eiusmod tempor incididunt ut labore et dolore magna aliqua enim ad minim veniam quis
nostrud exercitation ullamco laboris nisi aliquip ex ea commodo consequat duis aute irure
in reprehenderit voluptate velit esse cillum fugiat nulla pariatur excepteur sint occaecat
cupidatat non proident sunt culpa qui officia deserunt mollit anim id est laborum`)

func (s *Seeder) words(n int) string {
	w := make([]string, n)
	for i := range w {
		w[i] = loremWords[s.rng.IntN(len(loremWords))]
	}
	out := strings.Join(w, " ")
	return strings.ToUpper(out[:1]) + out[1:]
}

func (s *Seeder) paragraphs(n int) string {
	ps := make([]string, n)
	for i := range ps {
		sentences := make([]string, s.between(3, 6))
		for j := range sentences {
			sentences[j] = s.words(s.between(6, 12)) + "."
		}
		ps[i] = strings.Join(sentences, " ")
	}
	return strings.Join(ps, "\n\n")
}
