package tui

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"meetflix-cli/model"
	"meetflix-cli/selection"
)

type fakeAPI struct {
	mu          sync.Mutex
	seatMaps    map[seatMapKey][]model.Seat
	seatErr     error
	theaters    []model.Theater
	theatersErr error
	orders      []model.OrderPayload
	orderID     int
	orderErr    error
}

func (f *fakeAPI) GetMovies(ctx context.Context) ([]model.Movie, error) {
	return []model.Movie{{Id: 1, Name: "Arrival"}}, nil
}

func (f *fakeAPI) GetMovieByID(ctx context.Context, movieID int) (model.Movie, error) {
	return model.Movie{Id: movieID, Name: "Arrival"}, nil
}

func (f *fakeAPI) ListTheatersWithShowtimes(ctx context.Context, movieID int, date time.Time) ([]model.Theater, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.theaters, f.theatersErr
}

func (f *fakeAPI) GetSeatMap(ctx context.Context, query model.SeatQuery) (model.SeatMap, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.seatErr != nil {
		return model.SeatMap{}, f.seatErr
	}
	key := seatMapKey{TheaterId: query.TheaterId}
	return model.SeatMap{AllSeats: f.seatMaps[key]}, nil
}

func (f *fakeAPI) CreateOrder(ctx context.Context, payload model.OrderPayload) (model.OrderResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.orders = append(f.orders, payload)
	if f.orderErr != nil {
		return model.OrderResult{}, f.orderErr
	}
	return model.OrderResult{OrderId: f.orderID}, nil
}

func (f *fakeAPI) GetUser(ctx context.Context, userID int) (model.User, error) {
	return model.User{Id: userID, FullName: "Ada Lovelace"}, nil
}

func startTime(t *testing.T) model.LocalTime {
	t.Helper()
	parsed, err := time.ParseInLocation(model.WireTimeLayout, "2026-08-28T20:30:00", time.Local)
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	return model.LocalTime{Time: parsed}
}

func selectedState(t *testing.T, theaterID int) selection.State {
	t.Helper()
	s := selection.State{}.WithDate(time.Date(2026, 8, 28, 0, 0, 0, 0, time.Local))
	s = s.WithShowtime(model.Showtime{
		Id:             9,
		StartTime:      startTime(t),
		MovieId:        1,
		ProjectionRoom: model.ProjectionRoom{Id: 4, Name: "IMAX"},
	})
	return s.WithTheater(model.Theater{Id: theaterID, Name: "Downtown"})
}

func update(t *testing.T, m appModel, msg tea.Msg) (appModel, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	app, ok := next.(appModel)
	if !ok {
		t.Fatalf("unexpected model type %T", next)
	}
	return app, cmd
}

// collectMsgs executes a command tree depth-first and returns every message
// it produces, so batched commands can be replayed against Update.
func collectMsgs(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var msgs []tea.Msg
		for _, sub := range batch {
			msgs = append(msgs, collectMsgs(sub)...)
		}
		return msgs
	}
	return []tea.Msg{msg}
}

func TestSeatMap_StaleResponseDiscarded(t *testing.T) {
	m := newModel(&fakeAPI{}, Options{})
	m.movie = model.Movie{Id: 1, Name: "Arrival"}
	m.sel = selectedState(t, 2)
	m.seatKey = seatMapKey{ShowtimeId: 9, TheaterId: 2}
	m.state = stateLoadingSeats

	// a slow response for the previously selected theater arrives first
	m, _ = update(t, m, seatMapMsg{
		key:   seatMapKey{ShowtimeId: 9, TheaterId: 1},
		seats: []model.Seat{{Id: 99, Label: "Z9"}},
	})
	if m.state != stateLoadingSeats {
		t.Fatalf("expected to keep loading, got state %v", m.state)
	}
	if !m.grid.empty() {
		t.Fatalf("expected stale seats discarded, got %+v", m.grid.rows)
	}

	m, _ = update(t, m, seatMapMsg{
		key:   seatMapKey{ShowtimeId: 9, TheaterId: 2},
		seats: []model.Seat{{Id: 10, Label: "A2"}},
	})
	if m.state != stateSelectSeats {
		t.Fatalf("expected seat selection, got state %v", m.state)
	}
	seat, ok := m.grid.current()
	if !ok || seat.Label != "A2" {
		t.Fatalf("expected current seat A2, got %+v", seat)
	}
}

func TestSeatMap_FetchFailureDegradesToEmpty(t *testing.T) {
	fake := &fakeAPI{seatErr: errors.New("backend down")}
	m := newModel(fake, Options{})
	m.movie = model.Movie{Id: 1, Name: "Arrival"}
	m.sel = selectedState(t, 2)
	key := seatMapKey{ShowtimeId: 9, TheaterId: 2}
	m.seatKey = key
	m.state = stateLoadingSeats

	msg := m.fetchSeatMapCmd(key, model.SeatQuery{
		Showtime:         m.sel.Showtime.StartTime.Wire(),
		ProjectionRoomId: 4,
		MovieId:          1,
		TheaterId:        2,
	})()
	seatMsg, ok := msg.(seatMapMsg)
	if !ok {
		t.Fatalf("expected seatMapMsg, got %T", msg)
	}
	if seatMsg.key != key || len(seatMsg.seats) != 0 {
		t.Fatalf("expected empty seats for current key, got %+v", seatMsg)
	}

	m, _ = update(t, m, seatMsg)
	if m.state != stateSelectSeats {
		t.Fatalf("expected seat selection, got state %v", m.state)
	}
	if !m.grid.empty() {
		t.Fatalf("expected empty grid, got %+v", m.grid.rows)
	}
	view := m.View()
	if !strings.Contains(view, "No seats available") {
		t.Fatalf("expected empty-seat message, got %q", view)
	}
	if !strings.Contains(view, "r to refresh") {
		t.Fatalf("expected refresh hint, got %q", view)
	}
}

func TestTheaterList_FetchFailureIsRetryable(t *testing.T) {
	root := t.TempDir()
	t.Setenv("HOME", root)
	t.Setenv("XDG_CONFIG_HOME", root)
	t.Setenv("XDG_CACHE_HOME", root)

	fake := &fakeAPI{theatersErr: errors.New("backend down")}
	m := newModel(fake, Options{})
	m.movie = model.Movie{Id: 1, Name: "Arrival"}
	m.sel = selection.State{}.WithDate(time.Date(2026, 8, 28, 0, 0, 0, 0, time.Local))
	m.state = stateLoadingTheaters
	dateKey := m.sel.Date.Format(time.DateOnly)

	m, cmd := update(t, m, theatersMsg{movieID: 1, date: dateKey, err: fake.theatersErr})
	for _, msg := range collectMsgs(cmd) {
		if failure, ok := msg.(errMsg); ok {
			m, _ = update(t, m, failure)
		}
	}
	if m.state != stateError {
		t.Fatalf("expected error state, got %v", m.state)
	}
	if m.lastState != stateSelectDate {
		t.Fatalf("expected to recover to date step, got %v", m.lastState)
	}

	fake.mu.Lock()
	fake.theatersErr = nil
	fake.theaters = []model.Theater{{
		Id:        2,
		Name:      "Downtown",
		ShowTimes: []model.Showtime{{Id: 9, StartTime: startTime(t), MovieId: 1}},
	}}
	fake.mu.Unlock()

	m, cmd = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("r")})
	if m.state != stateLoadingTheaters {
		t.Fatalf("expected a reissued fetch, got state %v", m.state)
	}
	for _, msg := range collectMsgs(cmd) {
		if theaters, ok := msg.(theatersMsg); ok {
			m, _ = update(t, m, theaters)
		}
	}
	if m.state != stateSelectShowtime {
		t.Fatalf("expected showtime step after retry, got state %v", m.state)
	}
	if len(m.showtimeList.Items()) != 1 {
		t.Fatalf("expected 1 showtime, got %d", len(m.showtimeList.Items()))
	}
}

func TestTheaterList_StaleResponseDiscarded(t *testing.T) {
	m := newModel(&fakeAPI{}, Options{})
	m.movie = model.Movie{Id: 1, Name: "Arrival"}
	m.sel = selection.State{}.WithDate(time.Date(2026, 8, 28, 0, 0, 0, 0, time.Local))
	m.state = stateLoadingTheaters

	stale := []model.Theater{{
		Id:        3,
		Name:      "Uptown",
		ShowTimes: []model.Showtime{{Id: 8, StartTime: startTime(t)}},
	}}

	// response for a movie the user already navigated away from
	m, _ = update(t, m, theatersMsg{movieID: 2, date: "2026-08-28", theaters: stale})
	if m.state != stateLoadingTheaters {
		t.Fatalf("expected to keep loading, got state %v", m.state)
	}
	if len(m.showtimeList.Items()) != 0 {
		t.Fatalf("expected stale theaters discarded, got %d items", len(m.showtimeList.Items()))
	}

	// response for another date
	m, _ = update(t, m, theatersMsg{movieID: 1, date: "2026-08-29", theaters: stale})
	if m.state != stateLoadingTheaters {
		t.Fatalf("expected to keep loading, got state %v", m.state)
	}
	if len(m.theaters) != 0 {
		t.Fatalf("expected stale theaters discarded, got %+v", m.theaters)
	}
}

func TestSeatSelection_ReservedSeatNotice(t *testing.T) {
	m := newModel(&fakeAPI{}, Options{})
	m.sel = selectedState(t, 2)
	m.state = stateSelectSeats
	m.grid = buildSeatGrid([]model.Seat{
		{Id: 10, Label: "A1", IsReserved: true},
		{Id: 11, Label: "A2"},
	})

	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("x")})
	if len(m.sel.Seats) != 0 {
		t.Fatalf("expected no selection, got %+v", m.sel.Seats)
	}
	if !strings.Contains(m.notice, "A1") {
		t.Fatalf("expected notice naming the seat, got %q", m.notice)
	}
	if cmd == nil {
		t.Fatal("expected a notice expiry command")
	}

	// an expiry for an older notice must not clear the current one
	m, _ = update(t, m, noticeExpiredMsg{seq: m.noticeSeq - 1})
	if m.notice == "" {
		t.Fatal("expected notice to survive stale expiry")
	}
	m, _ = update(t, m, noticeExpiredMsg{seq: m.noticeSeq})
	if m.notice != "" {
		t.Fatalf("expected notice cleared, got %q", m.notice)
	}
}

func TestSeatSelection_ToggleAndContinue(t *testing.T) {
	m := newModel(&fakeAPI{}, Options{})
	m.sel = selectedState(t, 2)
	m.state = stateSelectSeats
	m.grid = buildSeatGrid([]model.Seat{
		{Id: 10, Label: "A1"},
		{Id: 11, Label: "A2"},
	})

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("x")})
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyRight})
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("x")})
	if got := strings.Join(m.sel.SeatLabels(), ","); got != "A1,A2" {
		t.Fatalf("expected A1,A2 selected, got %s", got)
	}

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if m.state != stateCheckout {
		t.Fatalf("expected checkout, got state %v", m.state)
	}
}

func TestCheckout_SubmitsExactlyOnce(t *testing.T) {
	fake := &fakeAPI{orderID: 77}
	m := newModel(fake, Options{})
	m.movie = model.Movie{Id: 1, Name: "Arrival"}
	m.sel = selectedState(t, 2)
	m.sel, _ = m.sel.ToggleSeat(model.Seat{Id: 11, Label: "B1"})
	m.sel, _ = m.sel.ToggleSeat(model.Seat{Id: 10, Label: "A2"})
	m.state = stateCheckout
	m.checkout.inputs[fieldName].SetValue("Ada Lovelace")
	m.checkout.terms = true

	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if m.state != stateSubmitting || !m.submitting {
		t.Fatalf("expected submitting, got state %v", m.state)
	}

	// enter while in flight must not start a second order
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	var orderResult tea.Msg
	for _, msg := range collectMsgs(cmd) {
		if _, ok := msg.(orderMsg); ok {
			orderResult = msg
		}
	}
	if orderResult == nil {
		t.Fatal("expected an order result")
	}
	m, _ = update(t, m, orderResult)

	if len(fake.orders) != 1 {
		t.Fatalf("expected exactly 1 order, got %d", len(fake.orders))
	}
	payload := fake.orders[0]
	if len(payload.Seats) != 2 || payload.Seats[0] != "A2" || payload.Seats[1] != "B1" {
		t.Fatalf("unexpected seats: %+v", payload.Seats)
	}
	if payload.Reference == "" || payload.CustomerName != "Ada Lovelace" {
		t.Fatalf("unexpected payload: %+v", payload)
	}

	if m.state != stateConfirmed {
		t.Fatalf("expected confirmation, got state %v", m.state)
	}
	if m.receipt == nil || m.receipt.OrderId != 77 {
		t.Fatalf("unexpected receipt: %+v", m.receipt)
	}
	if len(m.sel.Seats) != 0 {
		t.Fatalf("expected selection cleared, got %+v", m.sel.Seats)
	}
}

func TestCheckout_ValidationBlocksNetworkCall(t *testing.T) {
	fake := &fakeAPI{orderID: 77}
	m := newModel(fake, Options{})
	m.movie = model.Movie{Id: 1, Name: "Arrival"}
	m.sel = selectedState(t, 2)
	m.sel, _ = m.sel.ToggleSeat(model.Seat{Id: 10, Label: "A2"})
	m.state = stateCheckout
	m.checkout.terms = true
	// name left empty

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if m.state != stateCheckout {
		t.Fatalf("expected to stay on checkout, got state %v", m.state)
	}
	if m.checkout.errMsg == "" {
		t.Fatal("expected a validation message")
	}
	if len(fake.orders) != 0 {
		t.Fatalf("expected no order submitted, got %d", len(fake.orders))
	}
}

func TestCheckout_FailureKeepsSelection(t *testing.T) {
	m := newModel(&fakeAPI{}, Options{})
	m.movie = model.Movie{Id: 1, Name: "Arrival"}
	m.sel = selectedState(t, 2)
	m.sel, _ = m.sel.ToggleSeat(model.Seat{Id: 10, Label: "A2"})
	m.state = stateSubmitting
	m.submitting = true

	m, _ = update(t, m, orderMsg{err: context.DeadlineExceeded})
	if m.state != stateCheckout {
		t.Fatalf("expected back on checkout, got state %v", m.state)
	}
	if m.submitting {
		t.Fatal("expected submission flag cleared")
	}
	if len(m.sel.Seats) != 1 {
		t.Fatalf("expected selection kept, got %+v", m.sel.Seats)
	}
	if m.checkout.errMsg == "" {
		t.Fatal("expected a failure message")
	}
}

func TestGoBack_CollapsesDownstreamSelections(t *testing.T) {
	m := newModel(&fakeAPI{}, Options{})
	m.movie = model.Movie{Id: 1, Name: "Arrival"}
	m.sel = selectedState(t, 2)
	m.state = stateSelectTheater

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	if m.state != stateSelectShowtime {
		t.Fatalf("expected showtime step, got state %v", m.state)
	}
	if m.sel.Showtime != nil || m.sel.Theater != nil {
		t.Fatalf("expected downstream collapse, got %+v", m.sel)
	}
	if m.sel.Date.IsZero() {
		t.Fatal("expected date kept")
	}
}

type filterItem struct {
	value string
}

func (i filterItem) Title() string       { return i.value }
func (i filterItem) Description() string { return "" }
func (i filterItem) FilterValue() string { return strings.ToLower(i.value) }

func TestHandleFilterInput_AppendsAndBackspaces(t *testing.T) {
	m := newModel(&fakeAPI{}, Options{})
	m.state = stateSelectMovie
	m.movieList.SetItems([]list.Item{filterItem{value: "Arrival"}, filterItem{value: "Dune"}})

	if !m.handleFilterInput(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("a")}) {
		t.Fatal("expected filter input to be handled")
	}
	if !m.handleFilterInput(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("r")}) {
		t.Fatal("expected filter input to be handled")
	}
	if got := m.movieList.FilterValue(); got != "ar" {
		t.Fatalf("expected filter %q, got %q", "ar", got)
	}

	if !m.handleFilterInput(tea.KeyMsg{Type: tea.KeyBackspace}) {
		t.Fatal("expected backspace to be handled")
	}
	if got := m.movieList.FilterValue(); got != "a" {
		t.Fatalf("expected filter %q, got %q", "a", got)
	}
}

func TestFlattenShowtimes_DedupesAndSorts(t *testing.T) {
	late := model.Showtime{Id: 9, StartTime: startTime(t)}
	earlyTime, _ := time.ParseInLocation(model.WireTimeLayout, "2026-08-28T18:00:00", time.Local)
	early := model.Showtime{Id: 8, StartTime: model.LocalTime{Time: earlyTime}}

	theaters := []model.Theater{
		{Id: 2, ShowTimes: []model.Showtime{late, early}},
		{Id: 3, ShowTimes: []model.Showtime{late}},
	}
	showtimes := flattenShowtimes(theaters)
	if len(showtimes) != 2 {
		t.Fatalf("expected 2 showtimes, got %d", len(showtimes))
	}
	if showtimes[0].Id != 8 || showtimes[1].Id != 9 {
		t.Fatalf("expected sorted showtimes, got %+v", showtimes)
	}

	matching := theatersForShowtime(theaters, 8)
	if len(matching) != 1 || matching[0].Id != 2 {
		t.Fatalf("expected only theater 2, got %+v", matching)
	}
}
