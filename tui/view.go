package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("5")).Bold(true)
	crumbStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	noticeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("3")).Bold(true)
	errStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	hintStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

func (m appModel) View() string {
	var body string
	switch m.state {
	case stateLoadingMovies:
		body = m.spinner.View() + " Loading movies..."
	case stateSelectMovie:
		body = m.movieList.View()
	case stateSelectDate:
		body = m.dateList.View()
	case stateLoadingTheaters:
		body = m.spinner.View() + " Loading showtimes..."
	case stateSelectShowtime:
		body = m.showtimeList.View()
	case stateSelectTheater:
		body = m.theaterList.View()
	case stateLoadingSeats:
		body = m.spinner.View() + " Loading seats..."
	case stateSelectSeats:
		body = m.seatsView()
	case stateCheckout:
		body = m.checkoutView()
	case stateSubmitting:
		body = m.spinner.View() + " Placing your order..."
	case stateConfirmed:
		body = m.confirmedView()
	case stateError:
		body = m.errorView()
	}
	return m.headerView() + "\n" + body + "\n"
}

func (m appModel) headerView() string {
	crumbs := []string{"Meetflix"}
	if m.movie.Name != "" {
		crumbs = append(crumbs, m.movie.Name)
	}
	if !m.sel.Date.IsZero() {
		crumbs = append(crumbs, m.sel.Date.Format("Jan 2"))
	}
	if m.sel.Showtime != nil {
		crumbs = append(crumbs, m.sel.Showtime.StartTime.Format("15:04"))
	}
	if m.sel.Theater != nil {
		crumbs = append(crumbs, m.sel.Theater.Name)
	}
	header := titleStyle.Render(crumbs[0])
	if len(crumbs) > 1 {
		header += crumbStyle.Render(" › " + strings.Join(crumbs[1:], " › "))
	}
	return header + "\n"
}

func (m appModel) seatsView() string {
	var b strings.Builder
	b.WriteString(m.grid.render(m.sel))
	b.WriteString("\n\n")

	if len(m.sel.Seats) > 0 {
		b.WriteString(fmt.Sprintf("Selected (%d): %s\n", len(m.sel.Seats), strings.Join(m.sel.SeatLabels(), ", ")))
	} else {
		b.WriteString("No seats selected yet.\n")
	}

	if m.notice != "" {
		b.WriteString(noticeStyle.Render(m.notice))
		b.WriteString("\n")
	}

	b.WriteString(hintStyle.Render("arrows move • space toggle • r refresh • enter continue • esc back"))
	return b.String()
}

func (m appModel) confirmedView() string {
	if m.receipt == nil {
		return okStyle.Render("Order confirmed!")
	}
	var b strings.Builder
	b.WriteString(okStyle.Render(fmt.Sprintf("Order #%d confirmed!", m.receipt.OrderId)))
	b.WriteString("\n\n")
	lines := []string{
		"Movie:    " + m.receipt.Movie,
		"Theater:  " + m.receipt.Theater,
		"Room:     " + m.receipt.Room,
		"Showtime: " + m.receipt.Showtime,
		"Seats:    " + strings.Join(m.receipt.Seats, ", "),
	}
	if m.receipt.Customer != "" {
		lines = append(lines, "Customer: "+m.receipt.Customer)
	}
	b.WriteString(strings.Join(lines, "\n"))
	b.WriteString("\n\n")
	b.WriteString(hintStyle.Render("enter/q quit • n book another"))
	return b.String()
}

func (m appModel) errorView() string {
	msg := "something went wrong"
	if m.err != nil {
		msg = m.err.Error()
	}
	return errStyle.Render("Error: "+msg) + "\n\n" +
		hintStyle.Render("r/enter retry • esc back • q quit")
}
