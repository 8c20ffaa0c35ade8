package ui

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"streamchat/internal/chat"
	"streamchat/internal/domain"
)

var (
	userLabel      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	assistantLabel = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))
	systemLabel    = lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("8"))
	errorBanner    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
	dimText        = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// Console dibuja el estado en una terminal. OnChange se usa como Listener
// del store y escribe los fragmentos a medida que llegan.
type Console struct {
	mu       sync.Mutex
	out      io.Writer
	markdown *glamour.TermRenderer

	streamID string
	printed  string
}

// NewConsole crea la consola. Si glamour no puede inicializarse, el
// historial se imprime como texto plano.
func NewConsole(out io.Writer, width int) *Console {
	if width <= 0 {
		width = 80
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		r = nil
	}
	return &Console{out: out, markdown: r}
}

// OnChange imprime el delta entre dos snapshots.
func (c *Console) OnChange(prev, next chat.State) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if next.Error != "" && next.Error != prev.Error {
		fmt.Fprintln(c.out, errorBanner.Render("error: "+next.Error))
	}
	if prev.Model != next.Model {
		fmt.Fprintln(c.out, dimText.Render("model: "+modelName(next.Model)))
	}

	last, ok := next.LastMessage()
	switch {
	case !ok:
		c.streamID, c.printed = "", ""
	case last.Role == domain.RoleAssistant && chat.MessagesChanged(prev, next):
		if last.ID != c.streamID {
			c.streamID, c.printed = last.ID, ""
			fmt.Fprint(c.out, assistantLabel.Render("assistant")+" > ")
		}
		if strings.HasPrefix(last.Content, c.printed) {
			fmt.Fprint(c.out, last.Content[len(c.printed):])
		} else {
			fmt.Fprint(c.out, "\n"+dimText.Render(last.Content))
		}
		c.printed = last.Content
	}

	if prev.IsLoading && !next.IsLoading {
		fmt.Fprintln(c.out)
		fmt.Fprint(c.out, userLabel.Render("you")+" > ")
	}
}

// Transcript imprime la conversacion completa, con markdown para el asistente.
func (c *Console) Transcript(msgs []domain.Message) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(msgs) == 0 {
		fmt.Fprintln(c.out, dimText.Render("(no messages)"))
		return
	}
	for _, m := range msgs {
		ts := dimText.Render(m.Timestamp.Local().Format("03:04 PM"))
		switch m.Role {
		case domain.RoleUser:
			fmt.Fprintf(c.out, "%s %s > %s\n", ts, userLabel.Render("you"), m.Content)
		case domain.RoleSystem:
			fmt.Fprintf(c.out, "%s %s\n", ts, systemLabel.Render(m.Content))
		default:
			fmt.Fprintf(c.out, "%s %s >\n%s\n", ts, assistantLabel.Render("assistant"), c.render(m.Content))
		}
	}
}

// Models lista el catalogo marcando el modelo actual.
func (c *Console) Models(current domain.ModelType) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, m := range domain.Models {
		mark := " "
		if m.ID == current {
			mark = "*"
		}
		fmt.Fprintf(c.out, "%s %-14s %s %s\n", mark, m.ID, m.Name, dimText.Render(m.Description))
	}
}

// Info imprime una linea de estado atenuada.
func (c *Console) Info(format string, args ...any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintln(c.out, dimText.Render(fmt.Sprintf(format, args...)))
}

// Prompt imprime el prompt de entrada.
func (c *Console) Prompt() {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprint(c.out, userLabel.Render("you")+" > ")
}

func (c *Console) render(md string) string {
	if c.markdown == nil || strings.TrimSpace(md) == "" {
		return md
	}
	out, err := c.markdown.Render(md)
	if err != nil {
		return md
	}
	return strings.TrimRight(out, "\n")
}

func modelName(id domain.ModelType) string {
	if m, ok := domain.LookupModel(string(id)); ok {
		return m.Name
	}
	return string(id)
}
