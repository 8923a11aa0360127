package security

import (
	"html"
	"strings"

	"github.com/carlosnatalino/simple-flask-blog/internal/model"
	"github.com/microcosm-cc/bluemonday"
)

// ContentSanitizerService は投稿本文を公開フィード用の安全なHTMLに変換する。
type ContentSanitizerService interface {
	// Sanitize はHTMLを許可リストでサニタイズする。同一入力には同一出力を返す。
	Sanitize(rawHTML string) string

	// StripTags はすべてのタグを除去したテキストを返す。タイトル用。
	StripTags(raw string) string

	// RenderPost は本文形式に応じて投稿本文をHTML化する。
	// plainはHTMLエスケープし、markdownは埋め込みHTMLをサニタイズする。
	// 空行区切りの段落を<p>で囲み、段落内の改行は<br>にする。
	RenderPost(contentType model.ContentType, content string) string
}

type contentSanitizer struct {
	policy *bluemonday.Policy
	strict *bluemonday.Policy
}

// NewContentSanitizer はbluemondayの許可リストポリシーを構築する。
//   - 許可タグ: p, br, a, ul, ol, li, blockquote, pre, code, strong, em, h1-h6, img
//   - URLはhttpsのみ（a, img共通）
//   - aには target="_blank" と rel="noopener noreferrer" を付与
func NewContentSanitizer() *contentSanitizer {
	p := bluemonday.NewPolicy()

	p.AllowElements(
		"p", "br", "ul", "ol", "li",
		"blockquote", "pre", "code",
		"strong", "em",
		"h1", "h2", "h3", "h4", "h5", "h6",
	)

	p.AllowAttrs("href").OnElements("a")
	p.AllowRelativeURLs(false)
	p.AddTargetBlankToFullyQualifiedLinks(true)
	p.RequireNoReferrerOnLinks(true)

	p.AllowAttrs("src", "alt").OnElements("img")
	p.AllowURLSchemes("https")

	return &contentSanitizer{
		policy: p,
		strict: bluemonday.StrictPolicy(),
	}
}

func (s *contentSanitizer) Sanitize(rawHTML string) string {
	return s.policy.Sanitize(rawHTML)
}

func (s *contentSanitizer) StripTags(raw string) string {
	return html.UnescapeString(s.strict.Sanitize(raw))
}

func (s *contentSanitizer) RenderPost(contentType model.ContentType, content string) string {
	if strings.TrimSpace(content) == "" {
		return ""
	}

	normalized := strings.ReplaceAll(content, "\r\n", "\n")
	var b strings.Builder
	for _, para := range strings.Split(normalized, "\n\n") {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}
		var body string
		if contentType == model.ContentTypeMarkdown {
			body = s.policy.Sanitize(para)
		} else {
			body = html.EscapeString(para)
		}
		b.WriteString("<p>")
		b.WriteString(strings.ReplaceAll(body, "\n", "<br>"))
		b.WriteString("</p>")
	}
	return b.String()
}

// compile-time interface check
var _ ContentSanitizerService = (*contentSanitizer)(nil)
