// Package ui provides the Bubble Tea TUI for Texy.
package ui

import (
	"github.com/texyhq/texy/internal/chat"
	"github.com/texyhq/texy/internal/highlight"
	"github.com/texyhq/texy/internal/model"
)

// ArticlesLoaded is sent when the collection has been read.
type ArticlesLoaded struct {
	Articles []model.Article
	Err      error
}

// HighlightsLoaded is sent when the stored highlights of an article arrive.
type HighlightsLoaded struct {
	ArticleID  string
	Highlights []highlight.Highlight
	Err        error
}

// HighlightSaved is sent when a new highlight has been persisted.
type HighlightSaved struct {
	Highlight highlight.Highlight
	Err       error
}

// HighlightDeleted is sent when a highlight has been removed.
type HighlightDeleted struct {
	ID  string
	Err error
}

// ChatReplied is sent when the relay call finishes. Conversation is stamped
// by the App when the request is sent.
type ChatReplied struct {
	Conversation int
	Reply        chat.Reply
	Err          error
}

// RefreshDone is sent when a background refresh has stored new articles.
type RefreshDone struct {
	NewArticles int
	Err         error
}
