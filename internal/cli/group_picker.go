package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/andresjosehr/dollarspy/internal/model"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

// ErrPickerCanceled is returned when the user leaves the picker without confirming.
var ErrPickerCanceled = errors.New("group selection canceled")

// PickerKeyMap holds the group picker bindings.
type PickerKeyMap struct {
	Up        key.Binding
	Down      key.Binding
	Toggle    key.Binding
	SelectAll key.Binding
	Confirm   key.Binding
	Cancel    key.Binding
}

// DefaultPickerKeyMap returns the default picker bindings.
func DefaultPickerKeyMap() PickerKeyMap {
	return PickerKeyMap{
		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("↓/j", "down"),
		),
		Toggle: key.NewBinding(
			key.WithKeys(" "),
			key.WithHelp("space", "toggle"),
		),
		SelectAll: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "all/none"),
		),
		Confirm: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "save"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("q", "esc", "ctrl+c"),
			key.WithHelp("q/esc", "cancel"),
		),
	}
}

// GroupPickerModel is a checkbox list over the groups the account belongs to.
type GroupPickerModel struct {
	keys      PickerKeyMap
	groups    []model.Group
	selected  map[string]bool
	cursor    int
	height    int
	confirmed bool
	canceled  bool
}

// NewGroupPickerModel creates a picker. Groups already monitored start checked.
func NewGroupPickerModel(groups []model.Group, monitored []model.Group) GroupPickerModel {
	selected := make(map[string]bool, len(monitored))
	for _, g := range monitored {
		selected[g.ID] = true
	}
	return GroupPickerModel{
		keys:     DefaultPickerKeyMap(),
		groups:   groups,
		selected: selected,
	}
}

// Init implements tea.Model.
func (m GroupPickerModel) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m GroupPickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Cancel):
			m.canceled = true
			return m, tea.Quit

		case key.Matches(msg, m.keys.Confirm):
			m.confirmed = true
			return m, tea.Quit

		case key.Matches(msg, m.keys.Up):
			if m.cursor > 0 {
				m.cursor--
			}

		case key.Matches(msg, m.keys.Down):
			if m.cursor < len(m.groups)-1 {
				m.cursor++
			}

		case key.Matches(msg, m.keys.Toggle):
			if len(m.groups) > 0 {
				id := m.groups[m.cursor].ID
				m.selected[id] = !m.selected[id]
			}

		case key.Matches(msg, m.keys.SelectAll):
			all := m.allSelected()
			for _, g := range m.groups {
				m.selected[g.ID] = !all
			}
		}

	case tea.WindowSizeMsg:
		m.height = msg.Height
	}

	return m, nil
}

// View implements tea.Model.
func (m GroupPickerModel) View() string {
	if m.confirmed || m.canceled {
		return ""
	}

	var b strings.Builder
	b.WriteString(FormatTitle("Select the groups to monitor"))
	b.WriteString("\n")

	start, end := m.window()
	for i := start; i < end; i++ {
		g := m.groups[i]
		check := "[ ]"
		if m.selected[g.ID] {
			check = "[x]"
		}
		line := fmt.Sprintf("%s %s", check, displayName(g))
		if i == m.cursor {
			b.WriteString(SelectedStyle.Render("> " + line))
		} else {
			b.WriteString("  " + line)
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(SubtleStyle.Render(fmt.Sprintf("%d of %d selected", m.selectedCount(), len(m.groups))))
	b.WriteString("\n")
	b.WriteString(SubtleStyle.Render("[↑↓] Move | [Space] Toggle | [a] All | [Enter] Save | [q] Cancel"))
	b.WriteString("\n")
	return b.String()
}

// Selected returns the checked groups in list order.
func (m GroupPickerModel) Selected() []model.Group {
	out := make([]model.Group, 0, len(m.groups))
	for _, g := range m.groups {
		if m.selected[g.ID] {
			out = append(out, g)
		}
	}
	return out
}

// Confirmed reports whether the user saved the selection.
func (m GroupPickerModel) Confirmed() bool {
	return m.confirmed
}

// Canceled reports whether the user left without saving.
func (m GroupPickerModel) Canceled() bool {
	return m.canceled
}

func (m GroupPickerModel) allSelected() bool {
	for _, g := range m.groups {
		if !m.selected[g.ID] {
			return false
		}
	}
	return len(m.groups) > 0
}

func (m GroupPickerModel) selectedCount() int {
	n := 0
	for _, g := range m.groups {
		if m.selected[g.ID] {
			n++
		}
	}
	return n
}

// window keeps the cursor visible when the terminal is shorter than the list.
func (m GroupPickerModel) window() (int, int) {
	visible := m.height - 6
	if m.height == 0 || visible >= len(m.groups) || visible < 1 {
		return 0, len(m.groups)
	}
	start := m.cursor - visible/2
	if start < 0 {
		start = 0
	}
	if start+visible > len(m.groups) {
		start = len(m.groups) - visible
	}
	return start, start + visible
}

func displayName(g model.Group) string {
	name := g.Name
	if name == "" {
		name = g.ID
	}
	return name
}

// PickGroups runs the picker on the given terminal streams and returns the
// confirmed selection.
func PickGroups(ctx context.Context, in io.Reader, out io.Writer, groups, monitored []model.Group) ([]model.Group, error) {
	program := tea.NewProgram(
		NewGroupPickerModel(groups, monitored),
		tea.WithContext(ctx),
		tea.WithInput(in),
		tea.WithOutput(out),
	)

	final, err := program.Run()
	if err != nil {
		return nil, fmt.Errorf("group picker failed: %w", err)
	}

	picker, ok := final.(GroupPickerModel)
	if !ok || !picker.Confirmed() {
		return nil, ErrPickerCanceled
	}
	return picker.Selected(), nil
}
