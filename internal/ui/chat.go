package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/texyhq/texy/internal/brain"
	"github.com/texyhq/texy/internal/chat"
)

// Chat panel copy.
const (
	chatGreeting = "I've analyzed this article. I can help you summarize the impact, explain technical details, or suggest remediation steps."
	chatFailed   = "Sorry, I encountered an error. Please try again."
	chatEmpty    = "Sorry, I encountered an error."
)

// chatTranscriptLines is how many wrapped transcript lines the panel shows.
const chatTranscriptLines = 12

// chatPanel is the Copilot conversation. The greeting is shown but never
// sent; messages holds only what goes over the wire. conversation counts
// context switches so replies to an abandoned conversation can be dropped.
type chatPanel struct {
	visible      bool
	context      string
	conversation int
	messages     []brain.Message
	input        textinput.Model
	spinner      spinner.Model
	pending      bool
	width        int
}

func newChatPanel() chatPanel {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Ask about this article..."
	ti.CharLimit = 2000

	s := spinner.New()
	s.Spinner = spinner.Dot

	return chatPanel{input: ti, spinner: s, width: 80}
}

// open shows the panel. A new context starts a new conversation.
func (c *chatPanel) open(context string) {
	if context != c.context {
		c.context = context
		c.conversation++
		c.messages = nil
		c.pending = false
	}
	c.visible = true
}

func (c *chatPanel) close() {
	c.visible = false
	c.input.Blur()
}

func (c *chatPanel) setWidth(w int) {
	c.width = w
	c.input.Width = w - 8
}

// submit moves the input into the transcript and returns the request to
// send. It refuses while a reply is outstanding or the input is blank.
func (c *chatPanel) submit() (chat.Request, bool) {
	text := strings.TrimSpace(c.input.Value())
	if c.pending || text == "" {
		return chat.Request{}, false
	}

	c.messages = append(c.messages, brain.Message{Role: brain.RoleUser, Content: text})
	c.input.SetValue("")
	c.input.Blur()
	c.pending = true

	msgs := make([]brain.Message, len(c.messages))
	copy(msgs, c.messages)
	return chat.Request{Messages: msgs, Context: c.context}, true
}

// receive appends the reply, or the failure text, and re-enables input.
// It reports false for a reply that belongs to an earlier conversation.
func (c *chatPanel) receive(msg ChatReplied) bool {
	if msg.Conversation != c.conversation {
		return false
	}
	c.pending = false

	content := chatFailed
	if msg.Err == nil {
		switch {
		case msg.Reply.Message != "":
			content = msg.Reply.Message
		case msg.Reply.Content != "":
			content = msg.Reply.Content
		default:
			content = chatEmpty
		}
	}
	c.messages = append(c.messages, brain.Message{Role: brain.RoleAssistant, Content: content})
	return true
}

func (c *chatPanel) tick(msg spinner.TickMsg) tea.Cmd {
	if !c.pending {
		return nil
	}
	var cmd tea.Cmd
	c.spinner, cmd = c.spinner.Update(msg)
	return cmd
}

// View renders the transcript tail and the input line.
func (c chatPanel) View() string {
	inner := c.width - 4
	if inner < 20 {
		inner = 20
	}
	wrap := lipgloss.NewStyle().Width(inner - 2)

	var lines []string
	add := func(label lipgloss.Style, who, text string) {
		block := wrap.Render(label.Render(who+":") + " " + text)
		lines = append(lines, strings.Split(block, "\n")...)
	}

	add(ChatAssistant, "Copilot", chatGreeting)
	for _, m := range c.messages {
		if m.Role == brain.RoleUser {
			add(ChatUser, "You", m.Content)
		} else {
			add(ChatAssistant, "Copilot", m.Content)
		}
	}
	if len(lines) > chatTranscriptLines {
		lines = lines[len(lines)-chatTranscriptLines:]
	}

	prompt := c.input.View()
	if c.pending {
		prompt = c.spinner.View() + " " + StatusBarText.Render("Copilot is thinking...")
	}

	return ChatBox.Width(inner).Render(strings.Join(lines, "\n") + "\n\n" + prompt)
}
