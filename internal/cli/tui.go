package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/bedplan/pkg/garden"
)

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
)

// =============================================================================
// PlantPickerModel - Interactive plant selection
// =============================================================================

// PlantPickerModel is the bubbletea model for choosing which catalogue
// plants to plan.
type PlantPickerModel struct {
	Plants    []garden.PlantType
	Checked   []bool
	Cursor    int
	Height    int
	Offset    int
	Confirmed bool
}

// NewPlantPickerModel creates a picker with the given plants pre-checked.
func NewPlantPickerModel(plants []garden.PlantType, preselect ...string) PlantPickerModel {
	m := PlantPickerModel{
		Plants:  plants,
		Checked: make([]bool, len(plants)),
		Height:  15,
	}
	for i, p := range plants {
		for _, id := range preselect {
			if p.ID == id {
				m.Checked[i] = true
			}
		}
	}
	return m
}

// Selected returns the checked plants in list order.
func (m PlantPickerModel) Selected() []garden.PlantType {
	var out []garden.PlantType
	for i, p := range m.Plants {
		if m.Checked[i] {
			out = append(out, p)
		}
	}
	return out
}

func (m PlantPickerModel) Init() tea.Cmd {
	return nil
}

func (m PlantPickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.Cursor > 0 {
				m.Cursor--
				if m.Cursor < m.Offset {
					m.Offset = m.Cursor
				}
			}
		case "down", "j":
			if m.Cursor < len(m.Plants)-1 {
				m.Cursor++
				if m.Cursor >= m.Offset+m.Height {
					m.Offset = m.Cursor - m.Height + 1
				}
			}
		case " ", "x":
			if len(m.Plants) > 0 {
				m.Checked = append([]bool(nil), m.Checked...)
				m.Checked[m.Cursor] = !m.Checked[m.Cursor]
			}
		case "a":
			all := true
			for _, c := range m.Checked {
				all = all && c
			}
			m.Checked = make([]bool, len(m.Plants))
			for i := range m.Checked {
				m.Checked[i] = !all
			}
		case "enter":
			if len(m.Selected()) == 0 {
				return m, nil
			}
			m.Confirmed = true
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.Height = max(msg.Height-7, 5)
	}
	return m, nil
}

func (m PlantPickerModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Select Plants"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  space toggle  a all  ⏎ plan  q quit"))
	b.WriteString("\n\n")

	end := min(m.Offset+m.Height, len(m.Plants))
	rows := [][]string{}
	for i := m.Offset; i < end; i++ {
		p := m.Plants[i]
		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}
		box := "[ ]"
		if m.Checked[i] {
			box = "[x]"
		}
		cat := string(p.Category)
		if cat == "" {
			cat = "—"
		}
		rows = append(rows, []string{cursor + box, p.ID, p.DisplayName(), string(p.Light), cat})
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "ID", "Plant", "Light", "Category").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			idx := m.Offset + row
			switch {
			case idx == m.Cursor:
				return listSelectedStyle
			case idx < len(m.Checked) && m.Checked[idx]:
				return lipgloss.NewStyle().Foreground(colorGreen)
			}
			return listDimStyle
		})

	b.WriteString(t.Render())
	b.WriteString("\n\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  %d selected · [%d/%d]", len(m.Selected()), m.Cursor+1, len(m.Plants))))
	return b.String()
}

// pickPlants runs the picker and returns the chosen plants, or nil if the
// user quit.
func pickPlants(plants []garden.PlantType, preselect ...string) ([]garden.PlantType, error) {
	final, err := tea.NewProgram(NewPlantPickerModel(plants, preselect...)).Run()
	if err != nil {
		return nil, fmt.Errorf("plant picker: %w", err)
	}
	m := final.(PlantPickerModel)
	if !m.Confirmed {
		return nil, nil
	}
	return m.Selected(), nil
}
