package post

import (
	"errors"

	validation "github.com/go-ozzo/ozzo-validation"

	"github.com/carlosnatalino/simple-flask-blog/internal/model"
)

// 投稿フィールドの最大長。usersテーブルと同じくDBの列長に合わせる。
const (
	maxTitleLength   = 100
	maxCommentLength = 10000
)

// errEmptyPatch はPATCHで更新項目が1つもない場合のエラー。
var errEmptyPatch = errors.New("title, content_type, content のいずれかを指定してください")

var contentTypes = []any{string(model.ContentTypePlain), string(model.ContentTypeMarkdown)}

// Input は投稿の作成・更新リクエストの内容。
// nilは「指定なし」を表し、PATCHでは変更しない。
// 未知のキー（旧クライアントが送るuserなど）は無視する。
type Input struct {
	Title       *string `json:"title"`
	ContentType *string `json:"content_type"`
	Content     *string `json:"content"`
}

// ValidateFull は作成・全置換（PUT）用の検証。3項目すべて必須。
func (in Input) ValidateFull() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Title, validation.Required, validation.Length(1, maxTitleLength)),
		validation.Field(&in.ContentType, validation.Required, validation.In(contentTypes...)),
		validation.Field(&in.Content, validation.Required),
	)
}

// ValidatePartial は部分更新（PATCH）用の検証。
// 1項目以上の指定が必要で、指定された項目は空にできない。
func (in Input) ValidatePartial() error {
	if in.Title == nil && in.ContentType == nil && in.Content == nil {
		return errEmptyPatch
	}
	return validation.ValidateStruct(&in,
		validation.Field(&in.Title, validation.NilOrNotEmpty, validation.Length(1, maxTitleLength)),
		validation.Field(&in.ContentType, validation.NilOrNotEmpty, validation.In(contentTypes...)),
		validation.Field(&in.Content, validation.NilOrNotEmpty),
	)
}

// Patch は指定された項目だけを持つmodel.PostPatchに変換する。
func (in Input) Patch() model.PostPatch {
	p := model.PostPatch{Title: in.Title, Content: in.Content}
	if in.ContentType != nil {
		ct := model.ContentType(*in.ContentType)
		p.ContentType = &ct
	}
	return p
}

// CommentInput はコメント作成リクエストの内容。
type CommentInput struct {
	Content string `json:"content"`
}

// Validate はコメント本文を検証する。
func (in CommentInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Content, validation.Required, validation.Length(1, maxCommentLength)),
	)
}
