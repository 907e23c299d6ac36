package model

import (
	"strconv"
	"strings"
)

// Seat is a single seat of a projection room for one specific showtime.
// The same physical seat on another showtime is a different entity with a
// different id. IsReserved is owned by the server and never mutated here.
type Seat struct {
	Id         int    `json:"id"`
	Label      string `json:"label"`
	IsReserved bool   `json:"isReserved"`
}

type SeatMap struct {
	AllSeats []Seat `json:"allSeats"`
}

// SeatQuery identifies the seat map of one (showtime, room, movie, theater)
// tuple. Showtime carries the start timestamp in wire format.
type SeatQuery struct {
	Showtime         string
	ProjectionRoomId int
	MovieId          int
	TheaterId        int
}

// SplitSeatLabel breaks a label like "A12" into its row letters and numeric
// column. Labels without a numeric part report column 0.
func SplitSeatLabel(label string) (row string, column int) {
	trimmed := strings.TrimSpace(label)
	i := 0
	for i < len(trimmed) && !isDigit(trimmed[i]) {
		i++
	}
	row = strings.ToUpper(strings.TrimSpace(trimmed[:i]))
	digits := trimmed[i:]
	for j := 0; j < len(digits); j++ {
		if !isDigit(digits[j]) {
			digits = digits[:j]
			break
		}
	}
	column, _ = strconv.Atoi(digits)
	return row, column
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}
