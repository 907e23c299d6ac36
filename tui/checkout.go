package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"meetflix-cli/order"
	"meetflix-cli/store"
)

const (
	fieldName = iota
	fieldPhone
	fieldEmail
	fieldCount
)

var (
	checkoutLabelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("5")).Bold(true)
	checkoutErrStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	checkoutDimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

type checkoutForm struct {
	inputs [fieldCount]textinput.Model
	focus  int
	terms  bool
	errMsg string
}

func newCheckoutForm() checkoutForm {
	var f checkoutForm
	for i := range f.inputs {
		input := textinput.New()
		input.CharLimit = 80
		input.Width = 40
		f.inputs[i] = input
	}
	f.inputs[fieldName].Placeholder = "Full name"
	f.inputs[fieldPhone].Placeholder = "Phone number"
	f.inputs[fieldEmail].Placeholder = "Email"
	f.focusField(fieldName)
	return f
}

// prefill fills only fields the user has not typed into yet.
func (f *checkoutForm) prefill(contact store.Contact) {
	values := [fieldCount]string{contact.FullName, contact.PhoneNumber, contact.Email}
	for i := range f.inputs {
		if f.inputs[i].Value() == "" && values[i] != "" {
			f.inputs[i].SetValue(values[i])
		}
	}
}

func (f *checkoutForm) focusField(index int) {
	f.focus = index
	for i := range f.inputs {
		if i == index {
			f.inputs[i].Focus()
		} else {
			f.inputs[i].Blur()
		}
	}
}

func (f *checkoutForm) focusCmd() tea.Cmd {
	return textinput.Blink
}

func (f *checkoutForm) reset() {
	f.errMsg = ""
	f.focusField(fieldName)
}

func (f *checkoutForm) fail(message string) {
	f.errMsg = message
}

func (f checkoutForm) contact() order.Contact {
	return order.Contact{
		FullName:    strings.TrimSpace(f.inputs[fieldName].Value()),
		PhoneNumber: strings.TrimSpace(f.inputs[fieldPhone].Value()),
		Email:       strings.TrimSpace(f.inputs[fieldEmail].Value()),
	}
}

// updateCheckout owns every key press while the checkout step is visible.
// Enter confirms; while a submission is in flight all input is ignored so a
// second order can never start.
func (m appModel) updateCheckout(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.submitting {
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		return m, nil
	}

	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "esc":
		next, cmd := m.goBack()
		return next, cmd
	case "tab", "down":
		m.checkout.focusField((m.checkout.focus + 1) % fieldCount)
		return m, nil
	case "shift+tab", "up":
		m.checkout.focusField((m.checkout.focus + fieldCount - 1) % fieldCount)
		return m, nil
	case "ctrl+t":
		m.checkout.terms = !m.checkout.terms
		return m, nil
	case "enter":
		return m.submitOrder()
	}

	var cmd tea.Cmd
	m.checkout.inputs[m.checkout.focus], cmd = m.checkout.inputs[m.checkout.focus].Update(msg)
	return m, cmd
}

// submitOrder validates locally first; a draft that fails validation never
// reaches the network.
func (m appModel) submitOrder() (tea.Model, tea.Cmd) {
	draft, err := order.Build(m.sel, m.movie, m.checkout.contact(), m.checkout.terms)
	if err != nil {
		m.checkout.fail(err.Error())
		return m, nil
	}

	m.checkout.errMsg = ""
	m.submitting = true
	m.state = stateSubmitting
	return m, tea.Batch(m.submitOrderCmd(draft.Payload()), m.spinner.Tick)
}

func (m appModel) checkoutView() string {
	var b strings.Builder
	b.WriteString(checkoutLabelStyle.Render("Checkout"))
	b.WriteString("\n\n")
	b.WriteString(m.orderSummary())
	b.WriteString("\n\n")

	labels := [fieldCount]string{"Name ", "Phone", "Email"}
	for i := range m.checkout.inputs {
		b.WriteString(labels[i] + " " + m.checkout.inputs[i].View())
		b.WriteString("\n")
	}

	b.WriteString("\n")
	check := "[ ]"
	if m.checkout.terms {
		check = "[x]"
	}
	b.WriteString(check + " I accept the terms and conditions (ctrl+t)")
	b.WriteString("\n")

	if m.checkout.errMsg != "" {
		b.WriteString("\n")
		b.WriteString(checkoutErrStyle.Render(m.checkout.errMsg))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(checkoutDimStyle.Render("enter confirm • tab next field • esc back to seats"))
	return b.String()
}

func (m appModel) orderSummary() string {
	lines := []string{
		"Movie:    " + m.movie.Name,
		"Theater:  " + theaterName(m.sel),
		"Room:     " + roomName(m.sel),
		"Showtime: " + showtimeLabel(m.sel),
		"Seats:    " + strings.Join(m.sel.SeatLabels(), ", "),
	}
	return checkoutDimStyle.Render(strings.Join(lines, "\n"))
}
