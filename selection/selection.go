// Package selection holds the booking wizard's working set as an immutable
// value plus pure reducers for each transition. The TUI owns one State at a
// time and replaces it wholesale on every user action, so the step-dependency
// invariants live here and can be tested without a rendering layer.
package selection

import (
	"errors"
	"sort"
	"time"

	"meetflix-cli/model"
)

// ErrSeatReserved is returned when the user tries to toggle a seat the
// server already marked as reserved. The selection set is unchanged.
var ErrSeatReserved = errors.New("seat is already reserved")

// Step is how far the wizard has progressed. Confirmed is not a Step: it is
// a terminal flow state owned by the caller, reachable only from SeatsChosen.
type Step int

const (
	Idle Step = iota
	DateChosen
	ShowtimeChosen
	TheaterChosen
	SeatsChosen
)

// State is the wizard's current selections. Seats keep insertion order;
// identity is the seat id. Theater is only meaningful once Showtime is set,
// and seats are scoped to the (showtime, theater) pair, which is why every
// upstream change clears everything downstream of it.
type State struct {
	Date     time.Time
	Showtime *model.Showtime
	Theater  *model.Theater
	Seats    []model.Seat
}

// Step reports the furthest step whose prerequisites are all satisfied.
func (s State) Step() Step {
	switch {
	case s.Date.IsZero():
		return Idle
	case s.Showtime == nil:
		return DateChosen
	case s.Theater == nil:
		return ShowtimeChosen
	case len(s.Seats) == 0:
		return TheaterChosen
	default:
		return SeatsChosen
	}
}

// WithDate selects a calendar date. The showtime list is only valid per
// date, so showtime, theater and seats are all reset.
func (s State) WithDate(date time.Time) State {
	return State{Date: date}
}

// WithShowtime selects a showtime, resetting theater and seats.
func (s State) WithShowtime(showtime model.Showtime) State {
	return State{Date: s.Date, Showtime: &showtime}
}

// WithTheater selects a theater. Seat identities are scoped to the
// (showtime, theater) pair, so the seat set is reset.
func (s State) WithTheater(theater model.Theater) State {
	return State{Date: s.Date, Showtime: s.Showtime, Theater: &theater}
}

// ClearSeats drops the seat set but keeps the upstream selections, used when
// a fresh seat map replaces the one the seats were picked from.
func (s State) ClearSeats() State {
	return State{Date: s.Date, Showtime: s.Showtime, Theater: s.Theater}
}

// ToggleSeat adds the seat if absent or removes it if present. Reserved
// seats are rejected with ErrSeatReserved and the state is returned
// unchanged. Toggling twice always restores the original set.
func (s State) ToggleSeat(seat model.Seat) (State, error) {
	if seat.IsReserved {
		return s, ErrSeatReserved
	}

	next := State{Date: s.Date, Showtime: s.Showtime, Theater: s.Theater}
	removed := false
	for _, existing := range s.Seats {
		if existing.Id == seat.Id {
			removed = true
			continue
		}
		next.Seats = append(next.Seats, existing)
	}
	if !removed {
		next.Seats = append(append([]model.Seat{}, s.Seats...), seat)
	}
	return next, nil
}

// HasSeat reports whether the seat id is currently selected.
func (s State) HasSeat(seatID int) bool {
	for _, seat := range s.Seats {
		if seat.Id == seatID {
			return true
		}
	}
	return false
}

// DisplaySeats returns the selected seats ordered for summaries: by row
// letters, then by numeric column ("A2" before "A10" before "B1"). The order
// is cosmetic; insertion order and the submission payload are untouched.
func (s State) DisplaySeats() []model.Seat {
	sorted := append([]model.Seat{}, s.Seats...)
	sort.SliceStable(sorted, func(i, j int) bool {
		leftRow, leftCol := model.SplitSeatLabel(sorted[i].Label)
		rightRow, rightCol := model.SplitSeatLabel(sorted[j].Label)
		if leftRow != rightRow {
			return leftRow < rightRow
		}
		return leftCol < rightCol
	})
	return sorted
}

// SeatLabels returns the selected seat labels in display order.
func (s State) SeatLabels() []string {
	seats := s.DisplaySeats()
	labels := make([]string, 0, len(seats))
	for _, seat := range seats {
		labels = append(labels, seat.Label)
	}
	return labels
}
