package ui

import (
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/texyhq/texy/internal/chat"
	"github.com/texyhq/texy/internal/feed"
	"github.com/texyhq/texy/internal/highlight"
	"github.com/texyhq/texy/internal/model"
	"github.com/texyhq/texy/internal/otel"
	"github.com/texyhq/texy/internal/ranking"
)

type screen int

const (
	screenFeed screen = iota
	screenReader
)

// focus is the text input currently receiving keys, if any.
type focus int

const (
	focusNone focus = iota
	focusSearch
	focusSelection
	focusChat
)

// Deps are the side-effecting commands the App may run. Any of them may be
// nil; the App then keeps the change in memory only.
type Deps struct {
	LoadArticles    func() tea.Cmd
	LoadHighlights  func(articleID string) tea.Cmd
	AddHighlight    func(articleID, text, note string) tea.Cmd
	DeleteHighlight func(id string) tea.Cmd
	SendChat        func(req chat.Request) tea.Cmd

	// Ring backs the debug overlay. May be nil.
	Ring *otel.RingBuffer
}

// App is the root Bubble Tea model.
// App does NOT hold the store or the relay. It receives data via messages.
type App struct {
	deps Deps

	// feed state
	articles     []model.Article
	view         feed.View
	categoryIdx  int
	discoveryIdx int // 0 = plain list, otherwise ranking.All()[i-1]
	page         int
	cursor       int
	search       textinput.Model

	// reader state
	screen     screen
	article    model.Article
	highlights *highlight.Set
	hlCursor   int
	selection  textinput.Model

	chat  chatPanel
	focus focus
	debug bool

	err     error
	width   int
	height  int
	ready   bool
	loading bool
}

// NewApp creates a new App with the given command functions.
func NewApp(deps Deps) App {
	search := textinput.New()
	search.Prompt = "/ "
	search.Placeholder = "Search articles..."
	search.CharLimit = 128

	selection := textinput.New()
	selection.Prompt = "highlight: "
	selection.Placeholder = "exact text from the article"
	selection.CharLimit = 512

	a := App{
		deps:      deps,
		page:      1,
		search:    search,
		selection: selection,
		chat:      newChatPanel(),
	}
	a.rebuild()
	return a
}

// Init initializes the App by loading articles.
func (a App) Init() tea.Cmd {
	if a.deps.LoadArticles != nil {
		return a.deps.LoadArticles()
	}
	return nil
}

// Update handles messages and returns the updated model and any commands.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return a.handleKeyMsg(msg)

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.ready = true
		a.search.Width = msg.Width - 10
		a.selection.Width = msg.Width - 16
		a.chat.setWidth(msg.Width)
		return a, nil

	case ArticlesLoaded:
		a.loading = false
		if msg.Err != nil {
			a.err = msg.Err
			return a, nil
		}
		a.articles = msg.Articles
		a.err = nil
		a.rebuild()
		return a, nil

	case RefreshDone:
		if msg.Err != nil {
			a.err = msg.Err
			return a, nil
		}
		if msg.NewArticles > 0 && a.deps.LoadArticles != nil {
			a.loading = true
			return a, a.deps.LoadArticles()
		}
		return a, nil

	case HighlightsLoaded:
		if msg.Err != nil {
			a.err = msg.Err
			return a, nil
		}
		if msg.ArticleID == a.article.ID {
			a.highlights = highlight.NewSet(msg.ArticleID, msg.Highlights...)
			a.hlCursor = 0
		}
		return a, nil

	case HighlightSaved:
		if msg.Err != nil {
			a.err = msg.Err
			return a, nil
		}
		if a.highlights != nil && msg.Highlight.ArticleID == a.highlights.ArticleID() {
			a.highlights = highlight.NewSet(a.highlights.ArticleID(), append(a.highlights.List(), msg.Highlight)...)
			a.hlCursor = a.highlights.Len() - 1
		}
		return a, nil

	case HighlightDeleted:
		if msg.Err != nil {
			a.err = msg.Err
			return a, nil
		}
		a.removeHighlight(msg.ID)
		return a, nil

	case ChatReplied:
		if !a.chat.receive(msg) {
			return a, nil
		}
		if a.focus == focusChat {
			return a, a.chat.input.Focus()
		}
		return a, nil

	case spinner.TickMsg:
		return a, a.chat.tick(msg)
	}

	return a, nil
}

// handleKeyMsg processes keyboard input.
func (a App) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return a, tea.Quit
	}

	// Clear any existing error on key press
	a.err = nil

	switch a.focus {
	case focusSearch:
		return a.handleSearchKey(msg)
	case focusSelection:
		return a.handleSelectionKey(msg)
	case focusChat:
		return a.handleChatKey(msg)
	}

	if msg.String() == "D" {
		a.debug = !a.debug
		return a, nil
	}
	if a.debug {
		if msg.String() == "esc" {
			a.debug = false
		}
		return a, nil
	}

	if a.screen == screenReader {
		return a.handleReaderKey(msg)
	}
	return a.handleFeedKey(msg)
}

func (a App) handleFeedKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return a, tea.Quit

	case "j", "down":
		if a.cursor < len(a.view.Articles)-1 {
			a.cursor++
		}

	case "k", "up":
		if a.cursor > 0 {
			a.cursor--
		}

	case "g", "home":
		a.cursor = 0

	case "G", "end":
		if len(a.view.Articles) > 0 {
			a.cursor = len(a.view.Articles) - 1
		}

	case "c", "tab":
		a.categoryIdx = cycle(a.categoryIdx, len(a.view.Categories), 1)
		a.page = 1
		a.rebuild()

	case "C", "shift+tab":
		a.categoryIdx = cycle(a.categoryIdx, len(a.view.Categories), -1)
		a.page = 1
		a.rebuild()

	case "d":
		a.discoveryIdx = cycle(a.discoveryIdx, len(ranking.All())+1, 1)
		a.page = 1
		a.rebuild()

	case "n", "right":
		if a.page < a.view.Pages {
			a.page++
			a.rebuild()
		}

	case "p", "left":
		if a.page > 1 {
			a.page--
			a.rebuild()
		}

	case "/":
		a.focus = focusSearch
		return a, a.search.Focus()

	case "enter":
		if a.cursor < len(a.view.Articles) {
			return a.openReader(a.view.Articles[a.cursor].ID)
		}

	case "a":
		context := ""
		if a.cursor < len(a.view.Articles) {
			if art, ok := a.find(a.view.Articles[a.cursor].ID); ok {
				context = articleContext(art)
			}
		}
		return a.openChat(context)

	case "r":
		if a.deps.LoadArticles != nil {
			a.loading = true
			return a, a.deps.LoadArticles()
		}
	}

	return a, nil
}

func (a App) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		a.focus = focusNone
		a.search.Blur()
		return a, nil
	case tea.KeyEsc:
		a.focus = focusNone
		a.search.Blur()
		a.search.SetValue("")
		a.page = 1
		a.rebuild()
		return a, nil
	}

	var cmd tea.Cmd
	a.search, cmd = a.search.Update(msg)
	a.page = 1
	a.rebuild()
	return a, cmd
}

func (a App) handleReaderKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "esc", "backspace":
		a.screen = screenFeed
		a.highlights = nil
		return a, nil

	case "h":
		a.focus = focusSelection
		a.selection.SetValue("")
		return a, a.selection.Focus()

	case "tab", "j", "down":
		if a.highlights != nil && a.highlights.Len() > 0 {
			a.hlCursor = cycle(a.hlCursor, a.highlights.Len(), 1)
		}

	case "shift+tab", "k", "up":
		if a.highlights != nil && a.highlights.Len() > 0 {
			a.hlCursor = cycle(a.hlCursor, a.highlights.Len(), -1)
		}

	case "x":
		if a.highlights == nil || a.highlights.Len() == 0 {
			return a, nil
		}
		id := a.highlights.List()[a.hlCursor].ID
		if a.deps.DeleteHighlight != nil {
			return a, a.deps.DeleteHighlight(id)
		}
		a.removeHighlight(id)

	case "a":
		return a.openChat(articleContext(a.article))
	}
	return a, nil
}

func (a App) handleSelectionKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		a.focus = focusNone
		a.selection.Blur()
		return a, nil
	case tea.KeyEnter:
		text := a.selection.Value()
		a.focus = focusNone
		a.selection.Blur()
		a.selection.SetValue("")
		return a.addHighlight(text)
	}

	var cmd tea.Cmd
	a.selection, cmd = a.selection.Update(msg)
	return a, cmd
}

func (a App) handleChatKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		a.focus = focusNone
		a.chat.close()
		return a, nil
	case tea.KeyEnter:
		return a.sendChat()
	}

	// Input is disabled while a reply is outstanding.
	if a.chat.pending {
		return a, nil
	}
	var cmd tea.Cmd
	a.chat.input, cmd = a.chat.input.Update(msg)
	return a, cmd
}

func (a App) openReader(id string) (tea.Model, tea.Cmd) {
	art, ok := a.find(id)
	if !ok {
		return a, nil
	}
	a.screen = screenReader
	a.article = art
	a.highlights = highlight.NewSet(art.ID)
	a.hlCursor = 0
	if a.deps.LoadHighlights != nil {
		return a, a.deps.LoadHighlights(art.ID)
	}
	return a, nil
}

func (a App) addHighlight(text string) (tea.Model, tea.Cmd) {
	if a.highlights == nil {
		return a, nil
	}
	if a.deps.AddHighlight != nil {
		if text == "" {
			a.err = highlight.ErrEmptySelection
			return a, nil
		}
		return a, a.deps.AddHighlight(a.article.ID, text, "")
	}
	if _, err := a.highlights.Add(text, ""); err != nil {
		a.err = err
		return a, nil
	}
	a.hlCursor = a.highlights.Len() - 1
	return a, nil
}

func (a *App) removeHighlight(id string) {
	if a.highlights == nil {
		return
	}
	if err := a.highlights.Delete(id); err != nil {
		return
	}
	if a.hlCursor >= a.highlights.Len() {
		a.hlCursor = a.highlights.Len() - 1
	}
	if a.hlCursor < 0 {
		a.hlCursor = 0
	}
}

func (a App) openChat(context string) (tea.Model, tea.Cmd) {
	a.chat.open(context)
	a.focus = focusChat
	if a.chat.pending {
		return a, nil
	}
	return a, a.chat.input.Focus()
}

func (a App) sendChat() (tea.Model, tea.Cmd) {
	req, ok := a.chat.submit()
	if !ok {
		return a, nil
	}
	if a.deps.SendChat == nil {
		a.chat.receive(ChatReplied{Conversation: a.chat.conversation, Err: chat.ErrMissingAPIKey})
		return a, a.chat.input.Focus()
	}
	return a, tea.Batch(stampConversation(a.deps.SendChat(req), a.chat.conversation), a.chat.spinner.Tick)
}

// stampConversation tags the reply produced by cmd with conversation.
func stampConversation(cmd tea.Cmd, conversation int) tea.Cmd {
	if cmd == nil {
		return nil
	}
	return func() tea.Msg {
		msg := cmd()
		if r, ok := msg.(ChatReplied); ok {
			r.Conversation = conversation
			return r
		}
		return msg
	}
}

// rebuild re-runs the feed pipeline over the current inputs.
func (a *App) rebuild() {
	params := feed.Params{
		Query: a.search.Value(),
		Page:  a.page,
	}
	if a.categoryIdx > 0 && a.categoryIdx < len(a.view.Categories) {
		params.Category = a.view.Categories[a.categoryIdx]
	}
	if a.discoveryIdx > 0 {
		params.Discovery = ranking.All()[a.discoveryIdx-1].Name()
	}

	view, err := feed.Build(a.articles, params)
	if err != nil {
		a.err = err
		return
	}
	a.view = view

	// The category list may shrink after a reload.
	if a.categoryIdx >= len(a.view.Categories) {
		a.categoryIdx = 0
	}
	if a.cursor >= len(a.view.Articles) {
		a.cursor = len(a.view.Articles) - 1
	}
	if a.cursor < 0 {
		a.cursor = 0
	}
}

func (a App) find(id string) (model.Article, bool) {
	for _, art := range a.articles {
		if art.ID == id {
			return art, true
		}
	}
	return model.Article{}, false
}

// articleContext is the text handed to the chat relay for an article.
func articleContext(a model.Article) string {
	ctx := "Title: " + a.Title
	if a.Content.ShortDescription != "" {
		ctx += "\nSummary: " + a.Content.ShortDescription
	}
	if a.Content.LongDescription != "" {
		ctx += "\n\n" + a.Content.LongDescription
	}
	return ctx
}

func cycle(i, n, step int) int {
	if n <= 0 {
		return 0
	}
	return ((i+step)%n + n) % n
}

// View renders the UI.
func (a App) View() string {
	if !a.ready {
		return "Loading..."
	}
	if a.debug {
		if overlay := debugOverlay(a.deps.Ring, a.width, a.height-1); overlay != "" {
			return lipgloss.JoinVertical(lipgloss.Left, overlay, debugStatusBar(a.width))
		}
	}

	var body string
	if a.screen == screenReader {
		body = a.renderReader()
	} else {
		body = a.renderFeed()
	}

	sections := []string{body}
	if a.chat.visible {
		sections = append(sections, a.chat.View())
	}
	if a.err != nil {
		sections = append(sections, ErrorStyle.Width(a.width).Render("Error: "+a.err.Error()+" (press any key to dismiss)"))
	}
	sections = append(sections, a.renderStatusBar())
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// Cursor returns the current cursor position (for testing).
func (a App) Cursor() int {
	return a.cursor
}

// FeedView returns the current pipeline output (for testing).
func (a App) FeedView() feed.View {
	return a.view
}

// Highlights returns the open article's highlights (for testing).
func (a App) Highlights() []highlight.Highlight {
	if a.highlights == nil {
		return nil
	}
	return a.highlights.List()
}
