package ui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/texyhq/texy/internal/model"
)

// Colors used in the application.
var (
	colorPrimary   = lipgloss.Color("62")  // Purple
	colorSecondary = lipgloss.Color("241") // Gray
	colorMuted     = lipgloss.Color("240") // Darker gray
	colorHighlight = lipgloss.Color("212") // Pink
	colorSuccess   = lipgloss.Color("78")  // Green
	colorDanger    = lipgloss.Color("196") // Red
)

// SelectedItem style for the item under the cursor.
var SelectedItem = lipgloss.NewStyle().
	Bold(true).
	Foreground(lipgloss.Color("255")).
	Background(colorPrimary).
	Padding(0, 1)

// NormalItem style for unselected items.
var NormalItem = lipgloss.NewStyle().
	Foreground(lipgloss.Color("255")).
	Padding(0, 1)

// SourceBadge style for source name badges.
var SourceBadge = lipgloss.NewStyle().
	Foreground(colorPrimary).
	Background(lipgloss.Color("236")).
	Padding(0, 1).
	MarginRight(1)

// MetaText style for times and categories next to a title.
var MetaText = lipgloss.NewStyle().
	Foreground(colorMuted)

// CategoryTab style for an inactive category selector.
var CategoryTab = lipgloss.NewStyle().
	Foreground(colorSecondary).
	Padding(0, 1)

// ActiveTab style for the selected category.
var ActiveTab = lipgloss.NewStyle().
	Bold(true).
	Foreground(lipgloss.Color("255")).
	Background(colorPrimary).
	Padding(0, 1)

// DiscoveryLabel style for the active discovery mode.
var DiscoveryLabel = lipgloss.NewStyle().
	Bold(true).
	Foreground(colorHighlight).
	Padding(0, 1)

// KeywordTag style for trending keyword hashtags.
var KeywordTag = lipgloss.NewStyle().
	Foreground(colorHighlight).
	MarginRight(1)

// StatusBar style for the bottom status bar.
var StatusBar = lipgloss.NewStyle().
	Foreground(lipgloss.Color("255")).
	Background(lipgloss.Color("236")).
	Padding(0, 1)

// StatusBarKey style for key hints in status bar.
var StatusBarKey = lipgloss.NewStyle().
	Foreground(colorHighlight).
	Bold(true)

// StatusBarText style for descriptive text in status bar.
var StatusBarText = lipgloss.NewStyle().
	Foreground(colorSecondary)

// ErrorStyle for displaying errors.
var ErrorStyle = lipgloss.NewStyle().
	Foreground(colorDanger).
	Bold(true).
	Padding(0, 1)

// HelpStyle for help text.
var HelpStyle = lipgloss.NewStyle().
	Foreground(colorMuted).
	Padding(1, 2)

// FilterBar style for the search input bar.
var FilterBar = lipgloss.NewStyle().
	Foreground(lipgloss.Color("255")).
	Background(lipgloss.Color("240")).
	Padding(0, 1)

// FilterBarCount style for the filtered count.
var FilterBarCount = lipgloss.NewStyle().
	Foreground(colorSecondary)

// ReaderTitle style for the article headline.
var ReaderTitle = lipgloss.NewStyle().
	Bold(true).
	Foreground(lipgloss.Color("255")).
	MarginBottom(1)

// ReaderBody style for article text.
var ReaderBody = lipgloss.NewStyle().
	Foreground(lipgloss.Color("252"))

// NoteText style for highlight notes.
var NoteText = lipgloss.NewStyle().
	Foreground(colorSecondary).
	Italic(true)

// ChatBox style for the chat panel frame.
var ChatBox = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(colorPrimary).
	Padding(0, 1)

// ChatUser style for the user's messages.
var ChatUser = lipgloss.NewStyle().
	Foreground(colorSuccess).
	Bold(true)

// ChatAssistant style for the assistant's messages.
var ChatAssistant = lipgloss.NewStyle().
	Foreground(colorHighlight).
	Bold(true)

var sentimentMarks = map[model.Sentiment]string{
	model.SentimentPositive: lipgloss.NewStyle().Foreground(colorSuccess).Render("▲"),
	model.SentimentNeutral:  lipgloss.NewStyle().Foreground(colorSecondary).Render("•"),
	model.SentimentCritical: lipgloss.NewStyle().Foreground(colorDanger).Render("▼"),
}

// SentimentMark is the colored marker for a sentiment bucket.
func SentimentMark(s model.Sentiment) string {
	if m, ok := sentimentMarks[s]; ok {
		return m
	}
	return sentimentMarks[model.SentimentNeutral]
}

var highlightColors = map[string]lipgloss.Color{
	"yellow": lipgloss.Color("226"),
	"green":  lipgloss.Color("120"),
	"blue":   lipgloss.Color("117"),
	"pink":   lipgloss.Color("218"),
}

// HighlightStyle renders highlighted text in its highlight color. Unknown
// colors fall back to yellow.
func HighlightStyle(color string) lipgloss.Style {
	bg, ok := highlightColors[color]
	if !ok {
		bg = highlightColors["yellow"]
	}
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color("16")).
		Background(bg)
}
