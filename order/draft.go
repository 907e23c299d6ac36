// Package order assembles the final submission from the wizard's selections.
// A Draft is a read-only projection of the selection state, built only at
// submission time; validation happens locally before any network call.
package order

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"meetflix-cli/model"
	"meetflix-cli/selection"
)

// Contact is the customer information collected at checkout.
type Contact struct {
	FullName    string
	PhoneNumber string
	Email       string
}

// ValidationError names the first field that blocks submission. Submission
// with a validation error makes no network call.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Draft is the assembled order, ready for a single submission attempt.
type Draft struct {
	Movie    model.Movie
	Showtime model.Showtime
	Theater  model.Theater
	Seats    []model.Seat
	Contact  Contact
}

// Build validates the selections and contact fields and assembles a Draft.
// Every required field is checked before submission is allowed: showtime,
// theater, at least one seat, a customer name and accepted terms.
func Build(sel selection.State, movie model.Movie, contact Contact, termsAccepted bool) (Draft, error) {
	switch {
	case sel.Showtime == nil:
		return Draft{}, &ValidationError{Field: "showtime", Message: "select a showtime before confirming"}
	case sel.Theater == nil:
		return Draft{}, &ValidationError{Field: "theater", Message: "select a theater before confirming"}
	case len(sel.Seats) == 0:
		return Draft{}, &ValidationError{Field: "seats", Message: "select at least one seat"}
	case strings.TrimSpace(contact.FullName) == "":
		return Draft{}, &ValidationError{Field: "name", Message: "enter the customer name"}
	case !termsAccepted:
		return Draft{}, &ValidationError{Field: "terms", Message: "accept the terms to continue"}
	}

	return Draft{
		Movie:    movie,
		Showtime: *sel.Showtime,
		Theater:  *sel.Theater,
		Seats:    sel.DisplaySeats(),
		Contact: Contact{
			FullName:    strings.TrimSpace(contact.FullName),
			PhoneNumber: strings.TrimSpace(contact.PhoneNumber),
			Email:       strings.TrimSpace(contact.Email),
		},
	}, nil
}

// Payload converts the draft into the wire shape for the one atomic
// createOrder request. Each call mints a fresh client reference.
func (d Draft) Payload() model.OrderPayload {
	seats := make([]string, 0, len(d.Seats))
	for _, seat := range d.Seats {
		seats = append(seats, seat.Label)
	}
	roomName := d.Showtime.RoomName
	if roomName == "" && d.Showtime.ProjectionRoom.Name != "" {
		roomName = d.Showtime.ProjectionRoom.Name
	}
	return model.OrderPayload{
		Reference:        uuid.NewString(),
		MovieId:          d.Movie.Id,
		MovieName:        d.Movie.Name,
		TheaterId:        d.Theater.Id,
		TheaterName:      d.Theater.Name,
		ProjectionRoomId: d.Showtime.ProjectionRoom.Id,
		RoomName:         roomName,
		Showtime:         d.Showtime.StartTime.Wire(),
		Seats:            seats,
		CustomerName:     d.Contact.FullName,
		PhoneNumber:      d.Contact.PhoneNumber,
		Email:            d.Contact.Email,
	}
}
