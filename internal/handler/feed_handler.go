package handler

import (
	"encoding/xml"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/carlosnatalino/simple-flask-blog/internal/model"
	"github.com/carlosnatalino/simple-flask-blog/internal/security"
)

// feedEntryLimit は公開フィードに載せる投稿数。
const feedEntryLimit = 20

const atomNamespace = "http://www.w3.org/2005/Atom"

// FeedHandler は公開Atomフィードを配信するHTTPハンドラー。
// 投稿本文はサニタイズ済みのHTMLとして埋め込む。
type FeedHandler struct {
	posts     PostServiceInterface
	sanitizer security.ContentSanitizerService
	baseURL   string
	title     string
}

// NewFeedHandler はFeedHandlerを生成する。baseURLはリンクとIDの生成に使う。
func NewFeedHandler(posts PostServiceInterface, sanitizer security.ContentSanitizerService, baseURL string) *FeedHandler {
	return &FeedHandler{
		posts:     posts,
		sanitizer: sanitizer,
		baseURL:   strings.TrimRight(baseURL, "/"),
		title:     "Flask Blog",
	}
}

type atomLink struct {
	Href string `xml:"href,attr"`
	Rel  string `xml:"rel,attr,omitempty"`
}

type atomPerson struct {
	Name  string `xml:"name"`
	Email string `xml:"email,omitempty"`
}

type atomText struct {
	Type string `xml:"type,attr"`
	Body string `xml:",chardata"`
}

type atomEntry struct {
	Title     string      `xml:"title"`
	ID        string      `xml:"id"`
	Link      atomLink    `xml:"link"`
	Published string      `xml:"published"`
	Updated   string      `xml:"updated"`
	Author    *atomPerson `xml:"author,omitempty"`
	Content   atomText    `xml:"content"`
}

type atomFeed struct {
	XMLName xml.Name    `xml:"feed"`
	Xmlns   string      `xml:"xmlns,attr"`
	Title   string      `xml:"title"`
	ID      string      `xml:"id"`
	Updated string      `xml:"updated"`
	Links   []atomLink  `xml:"link"`
	Entries []atomEntry `xml:"entry"`
}

// ServeAtom は新しい投稿のAtomフィードを返す。
// GET /feed.atom
func (h *FeedHandler) ServeAtom(w http.ResponseWriter, r *http.Request) {
	posts, err := h.posts.List(r.Context(), model.PostFilter{Limit: feedEntryLimit})
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	feed := h.buildFeed(posts)

	out, err := xml.MarshalIndent(feed, "", "  ")
	if err != nil {
		slog.Error("failed to encode atom feed", slog.String("error", err.Error()))
		handleServiceError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/atom+xml; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(xml.Header))
	w.Write(out)
}

func (h *FeedHandler) buildFeed(posts []*model.Post) atomFeed {
	self := h.baseURL + "/feed.atom"
	feed := atomFeed{
		Xmlns: atomNamespace,
		Title: h.title,
		ID:    self,
		Links: []atomLink{
			{Href: self, Rel: "self"},
			{Href: h.baseURL + "/"},
		},
		Entries: make([]atomEntry, 0, len(posts)),
	}

	// 一覧は新しい順なので先頭が最終更新
	updated := time.Unix(0, 0).UTC()
	if len(posts) > 0 {
		updated = posts[0].DatePosted.UTC()
	}
	feed.Updated = updated.Format(time.RFC3339)

	for _, p := range posts {
		posted := p.DatePosted.UTC().Format(time.RFC3339)
		entry := atomEntry{
			Title:     h.sanitizer.StripTags(p.Title),
			ID:        "urn:uuid:" + p.ID,
			Link:      atomLink{Href: h.baseURL + "/api/post/" + p.ID, Rel: "alternate"},
			Published: posted,
			Updated:   posted,
			Content: atomText{
				Type: "html",
				Body: h.sanitizer.RenderPost(p.ContentType, p.Content),
			},
		}
		if p.Author != nil {
			entry.Author = &atomPerson{Name: p.Author.Username}
		}
		feed.Entries = append(feed.Entries, entry)
	}
	return feed
}
