// Package tui is the terminal front-end: it renders engine views and turns
// key presses into engine commands.
package tui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/napolitain/clicker/internal/engine"
	"github.com/napolitain/clicker/internal/models"
)

// RefreshInterval is how often the screen redraws without engine events
const RefreshInterval = 100 * time.Millisecond

// Game is the part of the engine the UI drives
type Game interface {
	View() engine.View
	Click() float64
	Purchase(id models.ItemID) bool
	Reset()
}

// Subscriber delivers engine events
type Subscriber interface {
	Subscribe(obs engine.Observer) (cancel func())
}

// SaveFunc persists the current game
type SaveFunc func() error

// EventMsg carries an engine event into the update loop
type EventMsg engine.Event

type refreshMsg time.Time

type savedMsg struct{ err error }

// Model is the bubbletea model for the game screen
type Model struct {
	game   Game
	save   SaveFunc
	styles Styles
	log    *zap.Logger

	view   engine.View
	items  []engine.ItemView // visible items, in catalog order
	cursor int

	confirmReset bool
	status       string
	width        int
}

// New creates the game screen. save may be nil when saving is disabled.
func New(game Game, save SaveFunc, logger *zap.Logger) Model {
	if logger == nil {
		logger = zap.NewNop()
	}
	m := Model{game: game, save: save, styles: DefaultStyles(), log: logger}
	m.refresh()
	return m
}

// Forward subscribes to engine events and forwards them to send. Sends run
// on their own goroutine because observers are called synchronously, from
// inside Update when the purchase came from a key press.
func Forward(sub Subscriber, send func(tea.Msg)) (cancel func()) {
	return sub.Subscribe(func(ev engine.Event) error {
		go send(EventMsg(ev))
		return nil
	})
}

// Init implements tea.Model
func (m Model) Init() tea.Cmd {
	return refreshTick()
}

func refreshTick() tea.Cmd {
	return tea.Tick(RefreshInterval, func(t time.Time) tea.Msg {
		return refreshMsg(t)
	})
}

// Update implements tea.Model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case refreshMsg:
		m.refresh()
		return m, refreshTick()

	case EventMsg:
		m.refresh()
		if msg.Type == engine.EventLoad {
			m.status = "Save loaded"
		}
		return m, nil

	case savedMsg:
		if msg.err != nil {
			m.log.Warn("Manual save failed", zap.Error(msg.err))
			m.status = "Save failed: " + msg.err.Error()
		} else {
			m.status = "Game saved"
		}
		return m, nil
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	if m.confirmReset {
		m.confirmReset = false
		if key == "y" || key == "Y" {
			m.game.Reset()
			m.cursor = 0
			m.status = "Game reset"
		} else {
			m.status = "Reset cancelled"
		}
		m.refresh()
		return m, nil
	}

	switch key {
	case "q", "ctrl+c":
		return m, tea.Quit

	case " ", "space":
		m.game.Click()
		m.refresh()

	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}

	case "down", "j":
		if m.cursor < len(m.items)-1 {
			m.cursor++
		}

	case "enter":
		if item, ok := m.selected(); ok {
			if m.game.Purchase(item.ID) {
				m.status = fmt.Sprintf("Bought %s", item.Name)
			} else {
				m.status = fmt.Sprintf("Cannot buy %s", item.Name)
			}
			m.refresh()
		}

	case "r":
		m.confirmReset = true

	case "s":
		if m.save == nil {
			m.status = "Saving is disabled"
			return m, nil
		}
		save := m.save
		return m, func() tea.Msg {
			return savedMsg{err: save()}
		}
	}

	return m, nil
}

func (m *Model) refresh() {
	var selectedID models.ItemID
	if item, ok := m.selected(); ok {
		selectedID = item.ID
	}

	m.view = m.game.View()
	items := make([]engine.ItemView, 0, len(m.view.Items))
	for _, it := range m.view.Items {
		if it.Visible {
			items = append(items, it)
		}
	}
	m.items = items

	// Keep the cursor on the same item when the list changes around it
	m.cursor = min(m.cursor, max(len(m.items)-1, 0))
	for i, it := range m.items {
		if it.ID == selectedID {
			m.cursor = i
			break
		}
	}
}

func (m Model) selected() (engine.ItemView, bool) {
	if m.cursor < 0 || m.cursor >= len(m.items) {
		return engine.ItemView{}, false
	}
	return m.items[m.cursor], true
}

// View implements tea.Model
func (m Model) View() string {
	var b strings.Builder
	s := m.styles
	bal := m.view.Balance

	b.WriteString(s.Header.Render("Clicker"))
	b.WriteString("\n\n")

	stat := func(label, value string) string {
		return s.Stat.Render(label+" ") + s.StatValue.Render(value)
	}
	b.WriteString("  " + stat("Balance", FormatAmount(bal.Current)) +
		"   " + stat("Per second", FormatAmount(m.view.TotalYield)) +
		"   " + stat("Per click", FormatAmount(m.view.ClickValue)))
	b.WriteString("\n")
	b.WriteString("  " + stat("Clicks", fmt.Sprintf("%d", bal.Clicks)) +
		"   " + stat("Earned", FormatAmount(bal.TotalEarned)) +
		"   " + stat("Passive", FormatAmount(bal.TotalPassive)) +
		"   " + stat("Global", fmt.Sprintf("x%.2f", m.view.GlobalMultiplier)))
	b.WriteString("\n\n")

	for i, it := range m.items {
		b.WriteString(m.renderItem(i == m.cursor, it))
		b.WriteString("\n")
	}
	if len(m.items) == 0 {
		b.WriteString(s.Muted.Render("  Nothing to buy yet"))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	switch {
	case m.confirmReset:
		b.WriteString(s.Warning.Render("Reset the game? All progress is lost. (y/n)"))
		b.WriteString("\n")
	case m.status != "":
		b.WriteString(s.Status.Render(m.status))
		b.WriteString("\n")
	}

	b.WriteString(s.Footer.Render("space click • ↑/↓ select • enter buy • s save • r reset • q quit"))
	return b.String()
}

func (m Model) renderItem(selected bool, it engine.ItemView) string {
	s := m.styles

	pointer := "  "
	if selected {
		pointer = s.Selected.Render("> ")
	}

	name := it.Name
	if it.Icon != "" {
		name = it.Icon + " " + name
	}

	owned := fmt.Sprintf("%d", it.Count)
	if it.MaxPurchases > 0 {
		owned = fmt.Sprintf("%d/%d", it.Count, it.MaxPurchases)
	}

	var detail string
	if it.Generator {
		detail = fmt.Sprintf("+%s/s each", FormatAmount(it.Value))
	} else {
		detail = describeUpgrade(it)
	}

	line := fmt.Sprintf("%-32s %7s  %12s  %s", name, owned, FormatAmount(it.Cost), detail)
	switch {
	case it.AtLimit:
		line = s.Maxed.Render(line)
	case it.Affordable:
		line = s.Affordable.Render(line)
	default:
		line = s.Expensive.Render(line)
	}
	return pointer + line
}

func describeUpgrade(it engine.ItemView) string {
	switch it.Kind {
	case models.KindClickMultiplier:
		return fmt.Sprintf("click +%gx", it.Value)
	case models.KindGlobalMultiplier:
		return fmt.Sprintf("all yield x%g", it.Value)
	case models.KindGeneratorMultiplier:
		return fmt.Sprintf("%s x%g", it.Target, it.Value)
	default:
		return it.Description
	}
}

// FormatAmount renders currency with a short suffix above a thousand
func FormatAmount(v float64) string {
	suffixes := []string{"", "K", "M", "B", "T", "Qa", "Qi"}
	i := 0
	for v >= 1000 && i < len(suffixes)-1 {
		v /= 1000
		i++
	}
	if i == 0 {
		return fmt.Sprintf("%.2f", v)
	}
	return fmt.Sprintf("%.2f%s", v, suffixes[i])
}
