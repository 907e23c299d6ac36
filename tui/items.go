package tui

import (
	"fmt"
	"sort"
	"time"

	"github.com/charmbracelet/bubbles/list"
	"meetflix-cli/model"
)

// datePickerDays is how far ahead the date step offers showings.
const datePickerDays = 7

type movieItem struct {
	movie model.Movie
}

func (i movieItem) Title() string { return i.movie.Name }

func (i movieItem) Description() string {
	desc := i.movie.Category
	if i.movie.Duration > 0 {
		if desc != "" {
			desc += " • "
		}
		desc += fmt.Sprintf("%d min", i.movie.Duration)
	}
	if i.movie.Rating != "" {
		if desc != "" {
			desc += " • "
		}
		desc += i.movie.Rating
	}
	return desc
}

func (i movieItem) FilterValue() string { return i.movie.Name }

type dateItem struct {
	date time.Time
}

func (i dateItem) Title() string {
	return i.date.Format("Monday, Jan 2")
}

func (i dateItem) Description() string {
	today := truncateDate(time.Now())
	switch {
	case i.date.Equal(today):
		return "Today"
	case i.date.Equal(today.AddDate(0, 0, 1)):
		return "Tomorrow"
	default:
		return i.date.Format(time.DateOnly)
	}
}

func (i dateItem) FilterValue() string { return i.Title() }

type showtimeItem struct {
	showtime model.Showtime
}

func (i showtimeItem) Title() string {
	return i.showtime.StartTime.Format("15:04")
}

func (i showtimeItem) Description() string {
	room := i.showtime.RoomName
	if room == "" {
		room = i.showtime.ProjectionRoom.Name
	}
	if room == "" {
		return i.showtime.StartTime.Format("Monday, Jan 2")
	}
	return room
}

func (i showtimeItem) FilterValue() string { return i.Title() }

type theaterItem struct {
	theater model.Theater
}

func (i theaterItem) Title() string       { return i.theater.Name }
func (i theaterItem) Description() string { return i.theater.Address }
func (i theaterItem) FilterValue() string { return i.theater.Name }

func buildMovieItems(movies []model.Movie) []list.Item {
	items := make([]list.Item, 0, len(movies))
	for _, movie := range movies {
		items = append(items, movieItem{movie: movie})
	}
	return items
}

func buildDateItems(from time.Time) []list.Item {
	start := truncateDate(from)
	items := make([]list.Item, 0, datePickerDays)
	for day := 0; day < datePickerDays; day++ {
		items = append(items, dateItem{date: start.AddDate(0, 0, day)})
	}
	return items
}

func buildShowtimeItems(showtimes []model.Showtime) []list.Item {
	items := make([]list.Item, 0, len(showtimes))
	for _, showtime := range showtimes {
		items = append(items, showtimeItem{showtime: showtime})
	}
	return items
}

func buildTheaterItems(theaters []model.Theater) []list.Item {
	items := make([]list.Item, 0, len(theaters))
	for _, theater := range theaters {
		items = append(items, theaterItem{theater: theater})
	}
	return items
}

// flattenShowtimes collects the showtimes of every theater, deduplicated by
// id and ordered by start time.
func flattenShowtimes(theaters []model.Theater) []model.Showtime {
	seen := make(map[int]bool)
	var showtimes []model.Showtime
	for _, theater := range theaters {
		for _, showtime := range theater.ShowTimes {
			if seen[showtime.Id] {
				continue
			}
			seen[showtime.Id] = true
			showtimes = append(showtimes, showtime)
		}
	}
	sort.SliceStable(showtimes, func(a, b int) bool {
		return showtimes[a].StartTime.Before(showtimes[b].StartTime.Time)
	})
	return showtimes
}

// theatersForShowtime keeps only theaters that actually screen the chosen
// showtime.
func theatersForShowtime(theaters []model.Theater, showtimeID int) []model.Theater {
	var out []model.Theater
	for _, theater := range theaters {
		for _, showtime := range theater.ShowTimes {
			if showtime.Id == showtimeID {
				out = append(out, theater)
				break
			}
		}
	}
	return out
}
