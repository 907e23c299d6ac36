package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"
	"meetflix-cli/model"
	"meetflix-cli/selection"
	"meetflix-cli/service"
	"meetflix-cli/store"
)

// noticeTTL is how long the transient reserved-seat notice stays visible.
const noticeTTL = 2 * time.Second

type appState int

const (
	stateLoadingMovies appState = iota
	stateSelectMovie
	stateSelectDate
	stateLoadingTheaters
	stateSelectShowtime
	stateSelectTheater
	stateLoadingSeats
	stateSelectSeats
	stateCheckout
	stateSubmitting
	stateConfirmed
	stateError
)

// api is the slice of the storefront backend the wizard consumes. The
// concrete implementation is service.Client; tests substitute a fake.
type api interface {
	GetMovies(ctx context.Context) ([]model.Movie, error)
	GetMovieByID(ctx context.Context, movieID int) (model.Movie, error)
	ListTheatersWithShowtimes(ctx context.Context, movieID int, date time.Time) ([]model.Theater, error)
	GetSeatMap(ctx context.Context, query model.SeatQuery) (model.SeatMap, error)
	CreateOrder(ctx context.Context, payload model.OrderPayload) (model.OrderResult, error)
	GetUser(ctx context.Context, userID int) (model.User, error)
}

// Options tune the wizard's starting point.
type Options struct {
	MovieID int       // jump straight to date selection for this movie
	Date    time.Time // preselect the calendar date
	UserID  int       // customer whose profile prefills checkout
	Logger  *zap.Logger
}

// seatMapKey identifies which (showtime, theater) pair a seat-map fetch was
// issued for. A response whose key no longer matches the current selection
// is stale and must be discarded, never applied.
type seatMapKey struct {
	ShowtimeId int
	TheaterId  int
}

type appModel struct {
	client api
	logger *zap.Logger
	opts   Options

	state     appState
	lastState appState
	err       error

	width  int
	height int

	movies   []model.Movie
	movie    model.Movie
	theaters []model.Theater

	sel selection.State

	movieList    list.Model
	dateList     list.Model
	showtimeList list.Model
	theaterList  list.Model

	spinner spinner.Model

	seatKey   seatMapKey
	grid      seatGrid
	notice    string
	noticeSeq int

	checkout   checkoutForm
	submitting bool

	receipt *Receipt
}

type errMsg struct {
	err            error
	returnState    appState
	returnStateSet bool
}

type moviesMsg struct {
	movies []model.Movie
	err    error
}

type movieMsg struct {
	movie model.Movie
	err   error
}

type theatersMsg struct {
	movieID  int
	date     string
	theaters []model.Theater
	err      error
}

type seatMapMsg struct {
	key   seatMapKey
	seats []model.Seat
}

type contactMsg struct {
	contact store.Contact
}

type orderMsg struct {
	result model.OrderResult
	err    error
}

type noticeExpiredMsg struct {
	seq int
}

// New builds the wizard around a live API client.
func New(client *service.Client, opts Options) tea.Model {
	return newModel(client, opts)
}

func newModel(client api, opts Options) appModel {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	m := appModel{
		client: client,
		logger: opts.Logger,
		opts:   opts,
		state:  stateLoadingMovies,
	}

	m.movieList = newList("Select Movie")
	m.dateList = newList("Select Date")
	m.showtimeList = newList("Select Showtime")
	m.theaterList = newList("Select Theater")
	m.checkout = newCheckoutForm()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("5"))
	m.spinner = sp

	return m
}

func (m appModel) Init() tea.Cmd {
	if m.opts.MovieID > 0 {
		return tea.Batch(m.fetchMovieCmd(m.opts.MovieID), m.spinner.Tick)
	}
	return tea.Batch(m.fetchMoviesCmd(), m.spinner.Tick)
}

func (m appModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resizeLists()
		return m, nil

	case tea.KeyMsg:
		if m.state == stateCheckout {
			return m.updateCheckout(msg)
		}
		if m.handleFilterInput(msg) {
			return m, nil
		}
		if next, cmd, handled := m.handleKey(msg); handled {
			return next, cmd
		}
		// unhandled keys drive the focused list below

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		if m.isLoadingState() {
			return m, cmd
		}
		return m, nil

	case errMsg:
		m.err = msg.err
		if msg.returnStateSet {
			m.lastState = msg.returnState
		} else {
			m.lastState = recoverStateFrom(m.state)
		}
		m.state = stateError
		return m, nil

	case moviesMsg:
		if msg.err != nil {
			return m, errCmd(msg.err)
		}
		m.movies = msg.movies
		m.movieList.SetItems(buildMovieItems(msg.movies))
		m.state = stateSelectMovie
		return m, nil

	case movieMsg:
		if msg.err != nil {
			// fall back to picking from the catalog
			m.state = stateLoadingMovies
			return m, tea.Batch(m.fetchMoviesCmd(), m.spinner.Tick)
		}
		m.movie = msg.movie
		m.sel = selection.State{}
		if !m.opts.Date.IsZero() {
			m.sel = m.sel.WithDate(truncateDate(m.opts.Date))
			m.state = stateLoadingTheaters
			return m, tea.Batch(m.fetchTheatersCmd(m.movie.Id, m.sel.Date), m.spinner.Tick)
		}
		m.openDatePicker()
		return m, nil

	case theatersMsg:
		if msg.movieID != m.movie.Id || msg.date != m.sel.Date.Format(time.DateOnly) {
			// superseded by a newer movie/date selection
			m.logger.Debug("discarding stale theater list", zap.Int("movieId", msg.movieID), zap.String("date", msg.date))
			return m, nil
		}
		if msg.err != nil {
			return m, errWithOptionsCmd(msg.err, stateSelectDate)
		}
		m.theaters = msg.theaters
		showtimes := flattenShowtimes(msg.theaters)
		if len(showtimes) == 0 {
			return m, errWithOptionsCmd(
				fmt.Errorf("no showtimes found for %s on %s", m.movie.Name, m.sel.Date.Format(time.DateOnly)),
				stateSelectDate,
			)
		}
		m.showtimeList.Title = fmt.Sprintf("Select Showtime • %s", m.movie.Name)
		m.showtimeList.SetItems(buildShowtimeItems(showtimes))
		m.state = stateSelectShowtime
		return m, nil

	case seatMapMsg:
		if msg.key != m.seatKey {
			// a slow response for a pair the user already navigated away from
			m.logger.Debug("discarding stale seat map",
				zap.Int("showtimeId", msg.key.ShowtimeId), zap.Int("theaterId", msg.key.TheaterId))
			return m, nil
		}
		m.grid = buildSeatGrid(msg.seats)
		m.state = stateSelectSeats
		return m, nil

	case contactMsg:
		m.checkout.prefill(msg.contact)
		return m, nil

	case orderMsg:
		return m.applyOrderResult(msg)

	case noticeExpiredMsg:
		if msg.seq == m.noticeSeq {
			m.notice = ""
		}
		return m, nil
	}

	var cmd tea.Cmd
	switch m.state {
	case stateSelectMovie:
		m.movieList, cmd = m.movieList.Update(msg)
	case stateSelectDate:
		m.dateList, cmd = m.dateList.Update(msg)
	case stateSelectShowtime:
		m.showtimeList, cmd = m.showtimeList.Update(msg)
	case stateSelectTheater:
		m.theaterList, cmd = m.theaterList.Update(msg)
	}
	return m, cmd
}

func (m appModel) handleKey(msg tea.KeyMsg) (appModel, tea.Cmd, bool) {
	switch msg.String() {
	case "ctrl+c", "q":
		return m, tea.Quit, true
	case "esc":
		if listPtr := m.activeList(); listPtr != nil {
			if listPtr.SettingFilter() || listPtr.IsFiltered() {
				listPtr.ResetFilter()
				return m, nil, true
			}
		}
		next, cmd := m.goBack()
		return next, cmd, true
	case "up", "k":
		if m.state == stateSelectSeats {
			m.grid.move(0, -1)
			return m, nil, true
		}
	case "down", "j":
		if m.state == stateSelectSeats {
			m.grid.move(0, 1)
			return m, nil, true
		}
	case "left", "h":
		if m.state == stateSelectSeats {
			m.grid.move(-1, 0)
			return m, nil, true
		}
	case "right", "l":
		if m.state == stateSelectSeats {
			m.grid.move(1, 0)
			return m, nil, true
		}
	case " ", "x":
		if m.state == stateSelectSeats {
			return m.toggleSeatUnderCursor()
		}
	case "r":
		if m.state == stateSelectSeats {
			return m.refetchSeats()
		}
		if m.state == stateError {
			return m.retryFromError()
		}
	case "n":
		if m.state == stateConfirmed {
			return m.startOver()
		}
	}

	if msg.Type == tea.KeyEnter {
		switch m.state {
		case stateSelectMovie:
			item, ok := m.movieList.SelectedItem().(movieItem)
			if !ok {
				return m, nil, true
			}
			m.movie = item.movie
			m.sel = selection.State{}
			m.openDatePicker()
			return m, nil, true

		case stateSelectDate:
			item, ok := m.dateList.SelectedItem().(dateItem)
			if !ok {
				return m, nil, true
			}
			m.sel = m.sel.WithDate(item.date)
			m.state = stateLoadingTheaters
			return m, tea.Batch(m.fetchTheatersCmd(m.movie.Id, m.sel.Date), m.spinner.Tick), true

		case stateSelectShowtime:
			item, ok := m.showtimeList.SelectedItem().(showtimeItem)
			if !ok {
				return m, nil, true
			}
			m.sel = m.sel.WithShowtime(item.showtime)
			theaters := theatersForShowtime(m.theaters, item.showtime.Id)
			m.theaterList.SetItems(buildTheaterItems(theaters))
			m.state = stateSelectTheater
			return m, nil, true

		case stateSelectTheater:
			item, ok := m.theaterList.SelectedItem().(theaterItem)
			if !ok {
				return m, nil, true
			}
			m.sel = m.sel.WithTheater(item.theater)
			return m.startSeatMapFetch()

		case stateSelectSeats:
			if len(m.sel.Seats) == 0 {
				m.notice = "Select at least one seat to continue."
				m.noticeSeq++
				return m, m.noticeTimeoutCmd(m.noticeSeq), true
			}
			m.state = stateCheckout
			m.checkout.reset()
			return m, tea.Batch(m.checkout.focusCmd(), m.fetchContactCmd()), true

		case stateConfirmed:
			return m, tea.Quit, true

		case stateError:
			return m.retryFromError()
		}
	}
	return m, nil, false
}

func (m appModel) goBack() (appModel, tea.Cmd) {
	switch m.state {
	case stateSelectDate:
		m.sel = selection.State{}
		if len(m.movieList.Items()) == 0 {
			m.state = stateLoadingMovies
			return m, tea.Batch(m.fetchMoviesCmd(), m.spinner.Tick)
		}
		m.state = stateSelectMovie
	case stateSelectShowtime:
		// dropping the showtime collapses everything below it
		m.sel = selection.State{}.WithDate(m.sel.Date)
		m.state = stateSelectDate
	case stateSelectTheater:
		m.sel = selection.State{}.WithDate(m.sel.Date)
		m.state = stateSelectShowtime
	case stateSelectSeats:
		if m.sel.Showtime != nil {
			m.sel = m.sel.WithShowtime(*m.sel.Showtime)
		}
		m.state = stateSelectTheater
	case stateCheckout:
		m.state = stateSelectSeats
	case stateConfirmed:
		return m, tea.Quit
	case stateError:
		m.state = m.lastState
	default:
		return m, nil
	}
	return m, nil
}

func (m appModel) toggleSeatUnderCursor() (appModel, tea.Cmd, bool) {
	seat, ok := m.grid.current()
	if !ok {
		return m, nil, true
	}
	next, err := m.sel.ToggleSeat(seat)
	if err != nil {
		if errors.Is(err, selection.ErrSeatReserved) {
			m.notice = fmt.Sprintf("Seat %s is already reserved.", seat.Label)
			m.noticeSeq++
			return m, m.noticeTimeoutCmd(m.noticeSeq), true
		}
		return m, errCmd(err), true
	}
	m.sel = next
	return m, nil, true
}

// startSeatMapFetch re-keys and re-fetches the seat map for the currently
// selected (showtime, theater) pair. Any earlier in-flight fetch is
// superseded the moment the key changes.
func (m appModel) startSeatMapFetch() (appModel, tea.Cmd, bool) {
	if m.sel.Showtime == nil || m.sel.Theater == nil {
		return m, nil, true
	}
	key := seatMapKey{ShowtimeId: m.sel.Showtime.Id, TheaterId: m.sel.Theater.Id}
	m.seatKey = key
	m.grid = seatGrid{}
	m.state = stateLoadingSeats
	query := model.SeatQuery{
		Showtime:         m.sel.Showtime.StartTime.Wire(),
		ProjectionRoomId: m.sel.Showtime.ProjectionRoom.Id,
		MovieId:          m.movie.Id,
		TheaterId:        m.sel.Theater.Id,
	}
	return m, tea.Batch(m.fetchSeatMapCmd(key, query), m.spinner.Tick), true
}

func (m appModel) refetchSeats() (appModel, tea.Cmd, bool) {
	next, cmd, handled := m.startSeatMapFetch()
	if handled && cmd != nil {
		// picks made against the stale map are no longer trustworthy
		next.sel = next.sel.ClearSeats()
	}
	return next, cmd, handled
}

func (m appModel) retryFromError() (appModel, tea.Cmd, bool) {
	target := m.lastState
	m.err = nil
	switch target {
	case stateSelectMovie:
		m.state = stateLoadingMovies
		return m, tea.Batch(m.fetchMoviesCmd(), m.spinner.Tick), true
	case stateSelectDate, stateSelectShowtime:
		if !m.sel.Date.IsZero() {
			m.state = stateLoadingTheaters
			return m, tea.Batch(m.fetchTheatersCmd(m.movie.Id, m.sel.Date), m.spinner.Tick), true
		}
	case stateSelectSeats:
		return m.startSeatMapFetch()
	}
	m.state = target
	return m, nil, true
}

func (m appModel) startOver() (appModel, tea.Cmd, bool) {
	m.sel = selection.State{}
	m.receipt = nil
	m.checkout = newCheckoutForm()
	if len(m.movieList.Items()) == 0 {
		m.state = stateLoadingMovies
		return m, tea.Batch(m.fetchMoviesCmd(), m.spinner.Tick), true
	}
	m.state = stateSelectMovie
	return m, nil, true
}

func (m appModel) applyOrderResult(msg orderMsg) (tea.Model, tea.Cmd) {
	m.submitting = false
	if msg.err != nil {
		// the selection survives a rejected order so the user can adjust
		// seats and resubmit
		m.state = stateCheckout
		if service.IsConflict(msg.err) {
			m.checkout.fail("Some of your seats were just taken. Go back, adjust your seats and try again.")
		} else {
			m.checkout.fail(msg.err.Error())
		}
		return m, nil
	}

	contact := m.checkout.contact()
	_ = store.RememberContact(store.Contact{
		FullName:    contact.FullName,
		PhoneNumber: contact.PhoneNumber,
		Email:       contact.Email,
	})

	receipt := Receipt{
		OrderId:  msg.result.OrderId,
		Movie:    m.movie.Name,
		Theater:  theaterName(m.sel),
		Room:     roomName(m.sel),
		Showtime: showtimeLabel(m.sel),
		Seats:    m.sel.SeatLabels(),
		Customer: contact.FullName,
	}
	m.receipt = &receipt
	m.sel = selection.State{}
	m.state = stateConfirmed
	return m, nil
}

func (m *appModel) openDatePicker() {
	m.dateList.SetItems(buildDateItems(time.Now()))
	m.state = stateSelectDate
}

func (m appModel) noticeTimeoutCmd(seq int) tea.Cmd {
	return tea.Tick(noticeTTL, func(time.Time) tea.Msg {
		return noticeExpiredMsg{seq: seq}
	})
}

func (m appModel) fetchMoviesCmd() tea.Cmd {
	client := m.client
	return func() tea.Msg {
		if cached, fresh, err := store.LoadMovieCache(); err == nil && fresh && len(cached) > 0 {
			return moviesMsg{movies: cached}
		}
		ctx := context.Background()
		movies, err := client.GetMovies(ctx)
		if err == nil && len(movies) > 0 {
			_ = store.SaveMovieCache(movies)
		}
		return moviesMsg{movies: movies, err: err}
	}
}

func (m appModel) fetchMovieCmd(movieID int) tea.Cmd {
	client := m.client
	return func() tea.Msg {
		ctx := context.Background()
		movie, err := client.GetMovieByID(ctx, movieID)
		return movieMsg{movie: movie, err: err}
	}
}

func (m appModel) fetchTheatersCmd(movieID int, date time.Time) tea.Cmd {
	client := m.client
	dateKey := date.Format(time.DateOnly)
	return func() tea.Msg {
		if cached, fresh, err := store.LoadTheaterCache(movieID, dateKey); err == nil && fresh && len(cached) > 0 {
			return theatersMsg{movieID: movieID, date: dateKey, theaters: cached}
		}
		ctx := context.Background()
		theaters, err := client.ListTheatersWithShowtimes(ctx, movieID, date)
		if err != nil {
			if service.IsNotFound(err) {
				return theatersMsg{movieID: movieID, date: dateKey}
			}
			return theatersMsg{movieID: movieID, date: dateKey, err: err}
		}
		if len(theaters) > 0 {
			_ = store.SaveTheaterCache(movieID, dateKey, theaters)
		}
		return theatersMsg{movieID: movieID, date: dateKey, theaters: theaters}
	}
}

// fetchSeatMapCmd loads the seat map for one key. Failures degrade to an
// empty seat collection so the step renders "no seats" instead of breaking
// navigation.
func (m appModel) fetchSeatMapCmd(key seatMapKey, query model.SeatQuery) tea.Cmd {
	client := m.client
	logger := m.logger
	return func() tea.Msg {
		ctx := context.Background()
		seatMap, err := client.GetSeatMap(ctx, query)
		if err != nil {
			logger.Warn("seat map fetch failed",
				zap.Int("showtimeId", key.ShowtimeId), zap.Int("theaterId", key.TheaterId), zap.Error(err))
			return seatMapMsg{key: key}
		}
		return seatMapMsg{key: key, seats: seatMap.AllSeats}
	}
}

// fetchContactCmd resolves the checkout prefill: the user profile when a
// user id is configured, otherwise whatever contact was remembered locally.
// Prefill is best effort and never surfaces an error.
func (m appModel) fetchContactCmd() tea.Cmd {
	client := m.client
	logger := m.logger
	userID := m.opts.UserID
	return func() tea.Msg {
		if userID > 0 {
			ctx := context.Background()
			user, err := client.GetUser(ctx, userID)
			if err == nil {
				return contactMsg{contact: store.Contact{
					FullName:    user.FullName,
					PhoneNumber: user.PhoneNumber,
					Email:       user.Email,
				}}
			}
			logger.Warn("user lookup failed", zap.Int("userId", userID), zap.Error(err))
		}
		contact, _ := store.LoadContact()
		return contactMsg{contact: contact}
	}
}

func (m appModel) submitOrderCmd(payload model.OrderPayload) tea.Cmd {
	client := m.client
	return func() tea.Msg {
		ctx := context.Background()
		result, err := client.CreateOrder(ctx, payload)
		return orderMsg{result: result, err: err}
	}
}

func (m *appModel) handleFilterInput(msg tea.KeyMsg) bool {
	listPtr := m.activeList()
	if listPtr == nil {
		return false
	}
	if !listPtr.FilteringEnabled() {
		return false
	}
	switch msg.Type {
	case tea.KeyRunes:
		if len(msg.Runes) == 0 {
			return false
		}
		m.appendFilter(listPtr, string(msg.Runes))
		return true
	case tea.KeySpace:
		m.appendFilter(listPtr, " ")
		return true
	case tea.KeyBackspace, tea.KeyDelete:
		if listPtr.FilterValue() == "" {
			return false
		}
		m.popFilter(listPtr)
		return true
	default:
		return false
	}
}

func (m *appModel) appendFilter(listPtr *list.Model, value string) {
	if value == "" {
		return
	}
	current := listPtr.FilterValue()
	listPtr.SetFilterText(current + value)
}

func (m *appModel) popFilter(listPtr *list.Model) {
	value := listPtr.FilterValue()
	if value == "" {
		return
	}
	value = trimLastRune(value)
	if value == "" {
		listPtr.ResetFilter()
		return
	}
	listPtr.SetFilterText(value)
}

func trimLastRune(value string) string {
	runes := []rune(value)
	if len(runes) <= 1 {
		return ""
	}
	return string(runes[:len(runes)-1])
}

func (m *appModel) activeList() *list.Model {
	switch m.state {
	case stateSelectMovie:
		return &m.movieList
	case stateSelectShowtime:
		return &m.showtimeList
	case stateSelectTheater:
		return &m.theaterList
	default:
		return nil
	}
}

func (m appModel) isLoadingState() bool {
	return m.state == stateLoadingMovies ||
		m.state == stateLoadingTheaters ||
		m.state == stateLoadingSeats ||
		m.state == stateSubmitting
}

func (m *appModel) resizeLists() {
	if m.width == 0 || m.height == 0 {
		return
	}
	h := m.height - 6
	if h < 6 {
		h = 6
	}
	m.movieList.SetSize(m.width, h)
	m.dateList.SetSize(m.width, h)
	m.showtimeList.SetSize(m.width, h)
	m.theaterList.SetSize(m.width, h)
}

func newList(title string) list.Model {
	delegate := list.NewDefaultDelegate()
	delegate.ShowDescription = true
	l := list.New([]list.Item{}, delegate, 0, 0)
	l.Title = title
	l.Filter = caseInsensitiveFilter
	l.SetFilteringEnabled(true)
	l.SetShowFilter(true)
	l.SetShowStatusBar(false)
	l.SetShowHelp(false)
	return l
}

func caseInsensitiveFilter(term string, targets []string) []list.Rank {
	term = strings.ToLower(term)
	lower := make([]string, len(targets))
	for i, t := range targets {
		lower[i] = strings.ToLower(t)
	}
	return list.DefaultFilter(term, lower)
}

func errCmd(err error) tea.Cmd {
	return func() tea.Msg {
		return errMsg{err: err}
	}
}

func errWithOptionsCmd(err error, returnState appState) tea.Cmd {
	return func() tea.Msg {
		return errMsg{err: err, returnState: returnState, returnStateSet: true}
	}
}

func recoverStateFrom(state appState) appState {
	switch state {
	case stateLoadingMovies:
		return stateSelectMovie
	case stateLoadingTheaters:
		return stateSelectDate
	case stateLoadingSeats:
		return stateSelectTheater
	case stateSubmitting:
		return stateCheckout
	default:
		return state
	}
}

func truncateDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func theaterName(sel selection.State) string {
	if sel.Theater == nil {
		return ""
	}
	return sel.Theater.Name
}

func roomName(sel selection.State) string {
	if sel.Showtime == nil {
		return ""
	}
	if sel.Showtime.RoomName != "" {
		return sel.Showtime.RoomName
	}
	return sel.Showtime.ProjectionRoom.Name
}

func showtimeLabel(sel selection.State) string {
	if sel.Showtime == nil || sel.Showtime.StartTime.IsZero() {
		return ""
	}
	return sel.Showtime.StartTime.Format("2006-01-02 15:04")
}
