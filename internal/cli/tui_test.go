package cli

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/matzehuels/bedplan/pkg/garden"
)

var pickerPlants = []garden.PlantType{
	{ID: "TOM", Name: "Tomato", Light: garden.LightHigh, Category: garden.CategoryVegetable},
	{ID: "BAS", Name: "Basil", Light: garden.LightHigh, Category: garden.CategoryHerb},
	{ID: "LET", Name: "Lettuce", Light: garden.LightLow},
}

func press(m PlantPickerModel, keys ...string) (PlantPickerModel, tea.Cmd) {
	var cmd tea.Cmd
	for _, k := range keys {
		var msg tea.KeyMsg
		switch k {
		case "down":
			msg = tea.KeyMsg{Type: tea.KeyDown}
		case "up":
			msg = tea.KeyMsg{Type: tea.KeyUp}
		case "enter":
			msg = tea.KeyMsg{Type: tea.KeyEnter}
		case " ":
			msg = tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
		}
		var next tea.Model
		next, cmd = m.Update(msg)
		m = next.(PlantPickerModel)
	}
	return m, cmd
}

func TestPlantPickerPreselect(t *testing.T) {
	m := NewPlantPickerModel(pickerPlants, "BAS", "XYZ")
	got := m.Selected()
	if len(got) != 1 || got[0].ID != "BAS" {
		t.Errorf("Selected() = %v, want [BAS]", got)
	}
}

func TestPlantPickerToggle(t *testing.T) {
	m, _ := press(NewPlantPickerModel(pickerPlants), " ", "down", "down", "x")
	var ids []string
	for _, p := range m.Selected() {
		ids = append(ids, p.ID)
	}
	if strings.Join(ids, ",") != "TOM,LET" {
		t.Errorf("Selected() = %v, want TOM,LET", ids)
	}

	m, _ = press(m, " ")
	if len(m.Selected()) != 1 {
		t.Errorf("toggling again should uncheck, got %d selected", len(m.Selected()))
	}
}

func TestPlantPickerSelectAll(t *testing.T) {
	m, _ := press(NewPlantPickerModel(pickerPlants), "a")
	if len(m.Selected()) != 3 {
		t.Fatalf("a should select all, got %d", len(m.Selected()))
	}
	m, _ = press(m, "a")
	if len(m.Selected()) != 0 {
		t.Errorf("a with all selected should clear, got %d", len(m.Selected()))
	}
}

func TestPlantPickerCursorBounds(t *testing.T) {
	m, _ := press(NewPlantPickerModel(pickerPlants), "up", "k")
	if m.Cursor != 0 {
		t.Errorf("cursor = %d, want 0", m.Cursor)
	}
	m, _ = press(m, "down", "down", "down", "j")
	if m.Cursor != 2 {
		t.Errorf("cursor = %d, want 2", m.Cursor)
	}
}

func TestPlantPickerScrolls(t *testing.T) {
	m := NewPlantPickerModel(pickerPlants)
	m.Height = 2
	m, _ = press(m, "down", "down")
	if m.Offset != 1 {
		t.Errorf("offset = %d, want 1", m.Offset)
	}
	m, _ = press(m, "up", "up")
	if m.Offset != 0 {
		t.Errorf("offset = %d, want 0", m.Offset)
	}
}

func TestPlantPickerConfirm(t *testing.T) {
	m, cmd := press(NewPlantPickerModel(pickerPlants), "enter")
	if m.Confirmed || cmd != nil {
		t.Error("enter with nothing selected should be ignored")
	}

	m, cmd = press(m, " ", "enter")
	if !m.Confirmed {
		t.Error("enter with a selection should confirm")
	}
	if cmd == nil {
		t.Error("confirm should quit")
	}
}

func TestPlantPickerQuit(t *testing.T) {
	for _, key := range []string{"q", "esc"} {
		var m PlantPickerModel
		var cmd tea.Cmd
		if key == "esc" {
			next, c := NewPlantPickerModel(pickerPlants).Update(tea.KeyMsg{Type: tea.KeyEsc})
			m, cmd = next.(PlantPickerModel), c
		} else {
			m, cmd = press(NewPlantPickerModel(pickerPlants), " ", key)
		}
		if m.Confirmed {
			t.Errorf("%s should not confirm", key)
		}
		if cmd == nil {
			t.Errorf("%s should quit", key)
		}
	}
}

func TestPlantPickerView(t *testing.T) {
	m, _ := press(NewPlantPickerModel(pickerPlants), "down", " ")
	v := m.View()
	for _, want := range []string{"Select Plants", "Tomato", "[x]", "1 selected", "[2/3]"} {
		if !strings.Contains(v, want) {
			t.Errorf("View() missing %q:\n%s", want, v)
		}
	}
}
