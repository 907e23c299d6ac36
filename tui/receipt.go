package tui

import tea "github.com/charmbracelet/bubbletea"

// Receipt is the confirmed-order summary the caller can print after the
// program exits.
type Receipt struct {
	OrderId  int
	Movie    string
	Theater  string
	Room     string
	Showtime string
	Seats    []string
	Customer string
}

// FinalReceipt extracts the receipt from the model returned by
// tea.Program.Run. The second return is false when no order was placed.
func FinalReceipt(m tea.Model) (Receipt, bool) {
	app, ok := m.(appModel)
	if !ok || app.receipt == nil {
		return Receipt{}, false
	}
	return *app.receipt, true
}
