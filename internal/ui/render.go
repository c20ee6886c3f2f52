package ui

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"

	"github.com/texyhq/texy/internal/highlight"
	"github.com/texyhq/texy/internal/model"
)

// renderFeed draws category tabs, the current page and trending keywords.
func (a App) renderFeed() string {
	var b strings.Builder

	var tabs []string
	for i, cat := range a.view.Categories {
		if i == a.categoryIdx {
			tabs = append(tabs, ActiveTab.Render(cat))
		} else {
			tabs = append(tabs, CategoryTab.Render(cat))
		}
	}
	header := lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
	if a.view.Discovery != "" {
		header += DiscoveryLabel.Render("★ " + a.view.Discovery)
	}
	b.WriteString(header)
	b.WriteString("\n")

	if a.focus == focusSearch || a.search.Value() != "" {
		count := FilterBarCount.Render(fmt.Sprintf(" %d matches", a.view.Total))
		b.WriteString(FilterBar.Width(a.width).Render(a.search.View() + count))
		b.WriteString("\n")
	}

	if len(a.view.Articles) == 0 {
		if a.loading {
			b.WriteString(HelpStyle.Render("Loading articles..."))
		} else {
			b.WriteString(HelpStyle.Render("No articles to display. Press 'r' to reload."))
		}
		b.WriteString("\n")
	}
	for i, d := range a.view.Articles {
		b.WriteString(renderArticleLine(d, i == a.cursor, a.width))
		b.WriteString("\n")
	}

	if len(a.view.Keywords) > 0 {
		var tags []string
		for _, kw := range a.view.Keywords {
			tags = append(tags, KeywordTag.Render(fmt.Sprintf("%s (%d)", kw.Tag, kw.Count)))
		}
		b.WriteString("\n")
		b.WriteString(StatusBarText.Render("Trending: "))
		b.WriteString(strings.Join(tags, ""))
		b.WriteString("\n")
	}

	return b.String()
}

// renderArticleLine renders a single article line.
func renderArticleLine(d model.DisplayArticle, selected bool, width int) string {
	badge := SourceBadge.Render(d.Source)
	meta := MetaText.Render(strings.TrimSpace(d.Time + "  " + d.Category))

	titleWidth := width - lipgloss.Width(badge) - lipgloss.Width(meta) - 8
	if titleWidth < 20 {
		titleWidth = 20
	}
	title := truncate(d.Title, titleWidth)

	style := NormalItem
	if selected {
		style = SelectedItem
	}
	return fmt.Sprintf("%s %s%s %s", SentimentMark(d.Sentiment), badge, style.Render(title), meta)
}

// renderReader draws the open article with its highlights applied.
func (a App) renderReader() string {
	d := model.ToDisplay(a.article)
	width := a.width - 4
	if width < 20 {
		width = 20
	}

	var b strings.Builder
	b.WriteString(ReaderTitle.Width(width).Render(d.Title))
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("%s %s %s",
		SentimentMark(d.Sentiment),
		SourceBadge.Render(d.Source),
		MetaText.Render(strings.TrimSpace(d.Time+"  "+d.Category))))
	b.WriteString("\n")
	if len(d.Tags) > 0 {
		b.WriteString(MetaText.Render(strings.Join(d.Tags, " · ")))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	var fragments []highlight.Fragment
	if a.highlights != nil {
		fragments = a.highlights.Render(readerText(a.article))
	} else {
		fragments = highlight.Render(readerText(a.article), nil)
	}
	b.WriteString(lipgloss.NewStyle().Width(width).Render(renderFragments(fragments)))
	b.WriteString("\n\n")

	if a.focus == focusSelection {
		b.WriteString(FilterBar.Width(a.width).Render(a.selection.View()))
		b.WriteString("\n")
	}

	if a.highlights != nil && a.highlights.Len() > 0 {
		b.WriteString(StatusBarKey.Render(fmt.Sprintf("Highlights (%d)", a.highlights.Len())))
		b.WriteString("\n")
		for i, h := range a.highlights.List() {
			line := HighlightStyle(h.Color).Render(truncate(h.Text, width-6))
			if h.Note != "" {
				line += " " + NoteText.Render(h.Note)
			}
			prefix := "  "
			if i == a.hlCursor {
				prefix = "▸ "
			}
			b.WriteString(prefix + line + "\n")
		}
	}

	return b.String()
}

// readerText is the body shown in the reader and matched by highlights.
func readerText(a model.Article) string {
	if a.Content.LongDescription != "" {
		return a.Content.LongDescription
	}
	return a.Content.ShortDescription
}

func renderFragments(fragments []highlight.Fragment) string {
	var b strings.Builder
	for _, f := range fragments {
		if f.IsHighlight() {
			b.WriteString(HighlightStyle(f.Highlight.Color).Render(f.Text))
			continue
		}
		b.WriteString(ReaderBody.Render(f.Text))
	}
	return b.String()
}

// renderStatusBar renders the key hints and page position.
func (a App) renderStatusBar() string {
	var hints [][2]string
	switch {
	case a.focus == focusChat:
		hints = [][2]string{{"enter", "send"}, {"esc", "close"}}
	case a.focus != focusNone:
		hints = [][2]string{{"enter", "confirm"}, {"esc", "cancel"}}
	case a.screen == screenReader:
		hints = [][2]string{{"h", "highlight"}, {"tab", "next"}, {"x", "delete"}, {"a", "ask"}, {"esc", "back"}}
	default:
		hints = [][2]string{{"c", "category"}, {"d", "discover"}, {"/", "search"}, {"n/p", "page"}, {"a", "ask"}, {"D", "debug"}, {"q", "quit"}}
	}

	var parts []string
	for _, h := range hints {
		parts = append(parts, StatusBarKey.Render(h[0])+" "+StatusBarText.Render(h[1]))
	}

	position := ""
	if a.screen == screenFeed && a.view.Pages > 0 {
		position = fmt.Sprintf("page %d/%d · %d articles  ", a.view.Page, a.view.Pages, a.view.Total)
	}
	if a.loading {
		position = "loading...  " + position
	}
	return StatusBar.Width(a.width).Render(position + strings.Join(parts, "  "))
}

// truncate shortens s to maxLen runes, ending in "...".
func truncate(s string, maxLen int) string {
	if maxLen < 4 || utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	runes := []rune(s)
	return string(runes[:maxLen-3]) + "..."
}
