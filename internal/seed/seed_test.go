package seed

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/carlosnatalino/simple-flask-blog/internal/model"
	"github.com/carlosnatalino/simple-flask-blog/internal/user"
)

type fakeRegistrar struct {
	users       map[string]*model.User
	registerErr error
}

func newFakeRegistrar() *fakeRegistrar {
	return &fakeRegistrar{users: make(map[string]*model.User)}
}

func (f *fakeRegistrar) Register(ctx context.Context, reg user.Registration) (*model.User, error) {
	if f.registerErr != nil {
		return nil, f.registerErr
	}
	for _, u := range f.users {
		if u.Email == reg.Email {
			return nil, model.NewUserConflictError()
		}
	}
	u := &model.User{ID: "user-" + reg.Email, Username: reg.Username, Email: reg.Email, ImageFile: model.DefaultImageFile}
	f.users[u.ID] = u
	return u, nil
}

func (f *fakeRegistrar) UpdateMe(ctx context.Context, userID string, upd user.AccountUpdate) (*model.User, error) {
	u := f.users[userID]
	model.UserPatch{Username: upd.Username, Email: upd.Email, ImageFile: upd.ImageFile}.Apply(u)
	return u, nil
}

type recordingPostRepo struct {
	created []*model.Post
	err     error
}

func (r *recordingPostRepo) List(ctx context.Context, filter model.PostFilter) ([]*model.Post, error) {
	return r.created, nil
}
func (r *recordingPostRepo) FindByID(ctx context.Context, id string) (*model.Post, error) {
	return nil, nil
}
func (r *recordingPostRepo) Create(ctx context.Context, p *model.Post) error {
	if r.err != nil {
		return r.err
	}
	r.created = append(r.created, p)
	return nil
}
func (r *recordingPostRepo) Update(ctx context.Context, p *model.Post) error  { return nil }
func (r *recordingPostRepo) DeleteWithComments(ctx context.Context, id string) error { return nil }

type recordingCommentRepo struct {
	created []*model.Comment
}

func (r *recordingCommentRepo) ListByPost(ctx context.Context, postID string) ([]*model.Comment, error) {
	return nil, nil
}
func (r *recordingCommentRepo) Create(ctx context.Context, c *model.Comment) error {
	r.created = append(r.created, c)
	return nil
}

var fixedNow = time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)

func newTestSeeder(reg UserRegistrar, posts *recordingPostRepo, comments *recordingCommentRepo) (*Seeder, *bytes.Buffer) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	s := NewSeeder(reg, posts, comments, logger, rand.New(rand.NewPCG(1, 2)))
	s.now = func() time.Time { return fixedNow }
	return s, &buf
}

func TestSeeder_Run_CreatesDemoData(t *testing.T) {
	reg := newFakeRegistrar()
	posts := &recordingPostRepo{}
	comments := &recordingCommentRepo{}
	s, _ := newTestSeeder(reg, posts, comments)

	res, err := s.Run(context.Background(), DefaultUsers)
	if err != nil {
		t.Fatalf("Run() returned error: %v", err)
	}

	if res.Users != 3 || len(reg.users) != 3 {
		t.Errorf("users = %d (stored %d), want 3", res.Users, len(reg.users))
	}
	if res.Posts != len(posts.created) || res.Comments != len(comments.created) {
		t.Errorf("result %+v does not match stored posts=%d comments=%d", res, len(posts.created), len(comments.created))
	}

	perOwner := map[string]int{}
	for _, p := range posts.created {
		perOwner[p.UserID]++
		if p.ContentType != model.ContentTypeMarkdown {
			t.Errorf("content type = %q, want markdown", p.ContentType)
		}
		if p.Title == "" || len(p.Title) > 100 {
			t.Errorf("title length out of range: %q", p.Title)
		}
		if !p.DatePosted.Before(fixedNow) || p.DatePosted.Before(fixedNow.Add(-92*24*time.Hour)) {
			t.Errorf("date_posted = %v, want within the last 91 days", p.DatePosted)
		}
	}
	for _, email := range []string{"default@test.com", "second@test.com"} {
		n := perOwner["user-"+email]
		if n < 3 || n > 6 {
			t.Errorf("%s posts = %d, want 3..6", email, n)
		}
	}
	if perOwner["user-third@test.com"] != 0 {
		t.Errorf("third user should have no posts")
	}

	postsByID := map[string]*model.Post{}
	perPost := map[string]int{}
	for _, p := range posts.created {
		postsByID[p.ID] = p
	}
	for _, c := range comments.created {
		perPost[c.PostID]++
		p := postsByID[c.PostID]
		if p == nil {
			t.Fatalf("comment %s refers to unknown post", c.ID)
		}
		if c.DatePosted.Before(p.DatePosted) || c.DatePosted.After(fixedNow) {
			t.Errorf("comment date %v outside [%v, %v]", c.DatePosted, p.DatePosted, fixedNow)
		}
	}
	for id, n := range perPost {
		if n < 2 || n > 5 {
			t.Errorf("post %s comments = %d, want 2..5", id, n)
		}
	}

	if got := reg.users["user-second@test.com"].ImageFile; got != "7798432669b8b3ac.jpg" {
		t.Errorf("second user image = %q", got)
	}
	if got := reg.users["user-third@test.com"].ImageFile; got != model.DefaultImageFile {
		t.Errorf("third user image = %q, want default", got)
	}
}

func TestSeeder_Run_AlreadySeeded(t *testing.T) {
	reg := newFakeRegistrar()
	posts := &recordingPostRepo{}
	s, _ := newTestSeeder(reg, posts, &recordingCommentRepo{})

	if _, err := s.Run(context.Background(), DefaultUsers); err != nil {
		t.Fatalf("first Run() returned error: %v", err)
	}
	before := len(posts.created)

	_, err := s.Run(context.Background(), DefaultUsers)
	if !errors.Is(err, ErrAlreadySeeded) {
		t.Errorf("err = %v, want ErrAlreadySeeded", err)
	}
	if len(posts.created) != before {
		t.Errorf("posts created on second run: %d", len(posts.created)-before)
	}
}

func TestSeeder_Run_StoreError(t *testing.T) {
	reg := newFakeRegistrar()
	posts := &recordingPostRepo{err: errors.New("db down")}
	s, _ := newTestSeeder(reg, posts, &recordingCommentRepo{})

	_, err := s.Run(context.Background(), DefaultUsers)
	if err == nil {
		t.Fatal("Run() should return error")
	}
	if errors.Is(err, ErrAlreadySeeded) {
		t.Error("store failure must not look like already seeded")
	}
}

func TestSeeder_Run_RegisterFailure(t *testing.T) {
	reg := newFakeRegistrar()
	reg.registerErr = errors.New("hash failure")
	s, _ := newTestSeeder(reg, &recordingPostRepo{}, &recordingCommentRepo{})

	if _, err := s.Run(context.Background(), DefaultUsers); err == nil {
		t.Fatal("Run() should return error")
	}
}
