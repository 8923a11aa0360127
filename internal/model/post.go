package model

import "time"

// ContentType は投稿本文の形式を表す。
type ContentType string

const (
	// ContentTypePlain はプレーンテキスト形式。
	ContentTypePlain ContentType = "plain"
	// ContentTypeMarkdown はMarkdown形式。
	ContentTypeMarkdown ContentType = "markdown"
)

// Author は投稿・コメントのレスポンスに埋め込む作成者情報。
type Author struct {
	ID        string
	Username  string
	Email     string
	ImageFile string
}

// Post はブログ投稿を表す。
// Authorは読み取り系クエリでのみ埋められる。
type Post struct {
	ID          string
	Title       string
	Content     string
	ContentType ContentType
	DatePosted  time.Time
	UserID      string
	Author      *Author
}

// Comment は投稿へのコメントを表す。
type Comment struct {
	ID         string
	Content    string
	DatePosted time.Time
	UserID     string
	PostID     string
	Author     *Author
}

// PostFilter は投稿一覧の絞り込み条件。
// ゼロ値のフィールドは条件に含めない。
type PostFilter struct {
	Keyword string    // タイトルの部分一致
	From    time.Time // date_posted >= From
	To      time.Time // date_posted < To
	UserID  string
	Limit   int
}

// PostPatch は投稿の部分更新内容。
// nilのフィールドは変更しない。
type PostPatch struct {
	Title       *string
	ContentType *ContentType
	Content     *string
}

// IsEmpty は更新対象フィールドが1つもないかを返す。
func (p PostPatch) IsEmpty() bool {
	return p.Title == nil && p.ContentType == nil && p.Content == nil
}

// Apply はnilでないフィールドを投稿に上書きする。
func (p PostPatch) Apply(post *Post) {
	if p.Title != nil {
		post.Title = *p.Title
	}
	if p.ContentType != nil {
		post.ContentType = *p.ContentType
	}
	if p.Content != nil {
		post.Content = *p.Content
	}
}

// UserPatch はアカウント情報の部分更新内容。
type UserPatch struct {
	Username  *string
	Email     *string
	ImageFile *string
}

// Apply はnilでないフィールドをユーザーに上書きする。
func (p UserPatch) Apply(u *User) {
	if p.Username != nil {
		u.Username = *p.Username
	}
	if p.Email != nil {
		u.Email = *p.Email
	}
	if p.ImageFile != nil {
		u.ImageFile = *p.ImageFile
	}
}
