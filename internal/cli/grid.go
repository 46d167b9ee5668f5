package cli

import (
	"fmt"
	"hash/fnv"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/bedplan/pkg/core/alloc"
	"github.com/matzehuels/bedplan/pkg/core/specimen"
	"github.com/matzehuels/bedplan/pkg/garden"
)

// plantPalette colours plant cells. A plant keeps its colour across runs.
var plantPalette = []lipgloss.Color{
	"29", "64", "94", "130", "133", "167", "172", "31", "97", "100", "136", "166",
}

var (
	styleEmptyCell = lipgloss.NewStyle().Foreground(colorDim)
	styleBedFrame  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(colorDim).Padding(0, 1)
	styleHeader    = lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	styleTable     = lipgloss.NewStyle().Foreground(colorDim)
)

func plantStyle(id string) lipgloss.Style {
	h := fnv.New32a()
	h.Write([]byte(id))
	c := plantPalette[int(h.Sum32()%uint32(len(plantPalette)))]
	return lipgloss.NewStyle().Background(c).Foreground(colorWhite)
}

// renderBed draws a bed as a coloured grid under a one-line title.
func renderBed(i int, b *garden.Bed) string {
	title := fmt.Sprintf("bed %d", i)
	if b.Name() != "" {
		title += " " + b.Name()
	}
	title = StyleTitle.Render(title) + StyleDim.Render(fmt.Sprintf("  %dx%d · %s light", b.Rows(), b.Cols(), b.Light()))
	if b.Restricted() {
		cats := make([]string, 0)
		for _, c := range b.AllowedCategories() {
			cats = append(cats, string(c))
		}
		title += StyleDim.Render(" · " + strings.Join(cats, ", ") + " only")
	}

	width := 3
	for _, id := range b.Cells() {
		width = max(width, len(id))
	}
	var rows []string
	for _, row := range b.Grid() {
		cells := make([]string, len(row))
		for j, id := range row {
			if id == garden.Empty {
				cells[j] = styleEmptyCell.Render(center("·", width))
				continue
			}
			cells[j] = plantStyle(id).Render(center(id, width))
		}
		rows = append(rows, strings.Join(cells, " "))
	}
	return title + "\n" + styleBedFrame.Render(strings.Join(rows, "\n"))
}

// renderGarden draws every bed followed by a legend.
func renderGarden(g *garden.Garden, lookup garden.Lookup) string {
	var parts []string
	if g.Name() != "" {
		parts = append(parts, StyleTitle.Render(g.Name()))
	}
	for i, b := range g.Beds() {
		parts = append(parts, renderBed(i, b))
	}
	if legend := renderLegend(g, lookup); legend != "" {
		parts = append(parts, legend)
	}
	return strings.Join(parts, "\n")
}

func renderLegend(g *garden.Garden, lookup garden.Lookup) string {
	var items []string
	for _, pc := range g.Census() {
		name := pc.ID
		if lookup != nil {
			if p, ok := lookup(pc.ID); ok {
				name = p.DisplayName()
			}
		}
		items = append(items, plantStyle(pc.ID).Render(" "+pc.ID+" ")+" "+StyleDim.Render(fmt.Sprintf("%s (%d)", name, pc.Cells)))
	}
	return strings.Join(items, "  ")
}

func center(s string, w int) string {
	pad := w - len(s)
	if pad <= 0 {
		return s
	}
	left := pad / 2
	return strings.Repeat(" ", left) + s + strings.Repeat(" ", pad-left)
}

// =============================================================================
// Tables
// =============================================================================

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(styleTable).
		Headers(headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return styleHeader.Padding(0, 1)
			}
			return lipgloss.NewStyle().Padding(0, 1)
		})
}

// placementTable lists each plant's target, cells and position.
func placementTable(plan *alloc.Plan) string {
	t := newTable("Plant", "Target", "Cells", "Bed", "Placement")
	for _, pm := range plan.Placements {
		bed, where := "—", "—"
		switch {
		case pm.Clustered():
			bed = strconv.Itoa(pm.Bed)
			where = pm.Rect.String()
		case len(pm.Scattered) > 0:
			where = fmt.Sprintf("scattered over %d cells", len(pm.Scattered))
		}
		t.Row(pm.PlantID, strconv.Itoa(pm.Target), strconv.Itoa(pm.Cells), bed, where)
	}
	return t.Render()
}

// regionTable lists the specimen regions of every bed.
func regionTable(beds [][]specimen.Region) string {
	t := newTable("Bed", "Plant", "Cells", "Specimen", "Instances", "Unclaimed")
	for i, regions := range beds {
		for _, r := range regions {
			unclaimed := "0"
			if r.Incomplete {
				unclaimed = StyleWarning.Render(strconv.Itoa(len(r.Unclaimed)))
			}
			t.Row(strconv.Itoa(i), r.PlantID, strconv.Itoa(r.Size()), strconv.Itoa(r.SpecimenSize),
				strconv.Itoa(len(r.Instances)), unclaimed)
		}
	}
	return t.Render()
}

// catalogTable lists plant types.
func catalogTable(plants []garden.PlantType) string {
	t := newTable("ID", "Name", "Light", "Category", "Per cell", "Cells each")
	for _, p := range plants {
		perCell, each := "—", "1"
		if p.IsSprawling() {
			each = strconv.Itoa(p.SpecimenCells())
		} else if p.SpacingFactor > 0 {
			perCell = strconv.FormatFloat(p.SpacingFactor, 'g', -1, 64)
		}
		cat := string(p.Category)
		if cat == "" {
			cat = "—"
		}
		t.Row(plantStyle(p.ID).Render(" "+p.ID+" "), p.DisplayName(), string(p.Light), cat, perCell, each)
	}
	return t.Render()
}
