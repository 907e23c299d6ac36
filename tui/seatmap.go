package tui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"meetflix-cli/model"
	"meetflix-cli/selection"
)

var (
	seatAvailableStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	seatSelectedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	seatReservedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).Strikethrough(true)
	seatRowLabelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("5")).Bold(true)
	screenStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// seatGrid lays seats out by row for cursor navigation. Rows are ordered by
// their leading letters, seats within a row by numeric column.
type seatGrid struct {
	rows [][]model.Seat
	row  int
	col  int
}

func buildSeatGrid(seats []model.Seat) seatGrid {
	byRow := make(map[string][]model.Seat)
	var rowLabels []string
	for _, seat := range seats {
		row, _ := model.SplitSeatLabel(seat.Label)
		if _, ok := byRow[row]; !ok {
			rowLabels = append(rowLabels, row)
		}
		byRow[row] = append(byRow[row], seat)
	}
	sort.Strings(rowLabels)

	grid := seatGrid{rows: make([][]model.Seat, 0, len(rowLabels))}
	for _, label := range rowLabels {
		row := byRow[label]
		sort.SliceStable(row, func(a, b int) bool {
			_, colA := model.SplitSeatLabel(row[a].Label)
			_, colB := model.SplitSeatLabel(row[b].Label)
			return colA < colB
		})
		grid.rows = append(grid.rows, row)
	}
	return grid
}

func (g seatGrid) empty() bool {
	return len(g.rows) == 0
}

func (g *seatGrid) move(dx, dy int) {
	if g.empty() {
		return
	}
	g.row += dy
	if g.row < 0 {
		g.row = 0
	}
	if g.row > len(g.rows)-1 {
		g.row = len(g.rows) - 1
	}
	g.col += dx
	if g.col < 0 {
		g.col = 0
	}
	if g.col > len(g.rows[g.row])-1 {
		g.col = len(g.rows[g.row]) - 1
	}
}

func (g seatGrid) current() (model.Seat, bool) {
	if g.empty() {
		return model.Seat{}, false
	}
	row := g.rows[g.row]
	col := g.col
	if col > len(row)-1 {
		col = len(row) - 1
	}
	return row[col], true
}

// render draws the auditorium with the screen edge on top, one line per row,
// and the current selection highlighted.
func (g seatGrid) render(sel selection.State) string {
	if g.empty() {
		return "No seats available for this combination.\n\nPress r to refresh or esc to pick another theater."
	}

	width := 0
	for _, row := range g.rows {
		w := len(row)*5 + 4
		if w > width {
			width = w
		}
	}

	var b strings.Builder
	b.WriteString(screenStyle.Render(centerText("S C R E E N", width)))
	b.WriteString("\n")
	b.WriteString(screenStyle.Render(strings.Repeat("─", width)))
	b.WriteString("\n\n")

	for rowIdx, row := range g.rows {
		label, _ := model.SplitSeatLabel(row[0].Label)
		b.WriteString(seatRowLabelStyle.Render(fmt.Sprintf("%-3s", label)))
		for colIdx, seat := range row {
			cell := g.renderSeat(seat, sel, rowIdx == g.row && colIdx == g.col)
			b.WriteString(cell)
			b.WriteString(" ")
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(seatAvailableStyle.Render("[  ] available") + "  " +
		seatSelectedStyle.Render("[◉ ] selected") + "  " +
		seatReservedStyle.Render("[██] taken"))
	return b.String()
}

func (g seatGrid) renderSeat(seat model.Seat, sel selection.State, underCursor bool) string {
	_, col := model.SplitSeatLabel(seat.Label)
	cell := fmt.Sprintf("[%2d]", col)

	var style lipgloss.Style
	switch {
	case seat.IsReserved:
		style = seatReservedStyle
		cell = "[██]"
	case sel.HasSeat(seat.Id):
		style = seatSelectedStyle
	default:
		style = seatAvailableStyle
	}
	if underCursor {
		style = style.Reverse(true)
	}
	return style.Render(cell)
}

func centerText(text string, width int) string {
	if len(text) >= width {
		return text
	}
	pad := (width - len(text)) / 2
	return strings.Repeat(" ", pad) + text
}
