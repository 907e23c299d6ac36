package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"meetflix-cli/model"
)

const (
	defaultBaseURL     = "http://localhost:8080/api/v1"
	defaultMaxAttempts = 3
	defaultRetryBase   = 200 * time.Millisecond
	defaultRetryCap    = 1200 * time.Millisecond
)

// Client wraps HTTP access to the Meetflix storefront API.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	logger      *zap.Logger
	maxAttempts int
	retryBase   time.Duration
	retryCap    time.Duration
}

// APIError is returned when the Meetflix API responds with a non-2xx status.
type APIError struct {
	StatusCode int
	Status     string
	Endpoint   string
	Body       string
}

func (e *APIError) Error() string {
	if e == nil {
		return "meetflix api error"
	}
	return fmt.Sprintf("meetflix api error: %s: %s", e.Status, e.Body)
}

// IsNotFound reports whether the error represents a 404 from the API.
func IsNotFound(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusNotFound
	}
	return false
}

// IsConflict reports whether the error represents a 409 from the API, the
// status the booking backend uses when a requested seat was already taken.
func IsConflict(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusConflict
	}
	return false
}

// NewClient creates a new API client. Nil arguments fall back to a default
// HTTP client and a no-op logger.
func NewClient(httpClient *http.Client, logger *zap.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 12 * time.Second}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		httpClient:  httpClient,
		baseURL:     defaultBaseURL,
		logger:      logger,
		maxAttempts: defaultMaxAttempts,
		retryBase:   defaultRetryBase,
		retryCap:    defaultRetryCap,
	}
}

// SetBaseURL overrides the API base URL, trimming any trailing slash.
func (c *Client) SetBaseURL(base string) {
	trimmed := strings.TrimRight(strings.TrimSpace(base), "/")
	if trimmed != "" {
		c.baseURL = trimmed
	}
}

// GetMovies returns the movie catalog.
func (c *Client) GetMovies(ctx context.Context) ([]model.Movie, error) {
	endpoint := fmt.Sprintf("%s/movie", c.baseURL)

	var movies []model.Movie
	if err := c.getJSON(ctx, endpoint, &movies); err != nil {
		return nil, err
	}
	return movies, nil
}

// GetMovieByID fetches a single movie.
func (c *Client) GetMovieByID(ctx context.Context, movieID int) (model.Movie, error) {
	if movieID <= 0 {
		return model.Movie{}, errors.New("movie id is required")
	}
	endpoint := fmt.Sprintf("%s/movie/%d", c.baseURL, movieID)

	var movie model.Movie
	if err := c.getJSON(ctx, endpoint, &movie); err != nil {
		return model.Movie{}, err
	}
	return movie, nil
}

// ListTheatersWithShowtimes returns the theaters that screen the movie on the
// given date, each nesting its showtimes. A missing movie id or zero date is
// not an error: the wizard step is simply not reachable yet, so the lookup is
// a no-op yielding an empty list.
func (c *Client) ListTheatersWithShowtimes(ctx context.Context, movieID int, date time.Time) ([]model.Theater, error) {
	if movieID <= 0 || date.IsZero() {
		return nil, nil
	}
	endpoint := fmt.Sprintf("%s/theater/showtime?movieId=%d&date=%s",
		c.baseURL, movieID, date.Format(time.DateOnly))

	var theaters []model.Theater
	if err := c.getJSON(ctx, endpoint, &theaters); err != nil {
		return nil, err
	}
	return theaters, nil
}

// GetSeatMap fetches the full seat map for one (showtime, room, movie,
// theater) tuple. The map is always fetched whole; the caller replaces any
// previous map rather than patching it.
func (c *Client) GetSeatMap(ctx context.Context, query model.SeatQuery) (model.SeatMap, error) {
	if query.Showtime == "" || query.ProjectionRoomId <= 0 || query.MovieId <= 0 || query.TheaterId <= 0 {
		return model.SeatMap{}, errors.New("showtime, projection room, movie and theater are required")
	}
	params := url.Values{}
	params.Set("showtime", query.Showtime)
	params.Set("projectionRoomId", strconv.Itoa(query.ProjectionRoomId))
	params.Set("movieId", strconv.Itoa(query.MovieId))
	params.Set("theaterId", strconv.Itoa(query.TheaterId))
	endpoint := fmt.Sprintf("%s/seat?%s", c.baseURL, params.Encode())

	var seats model.SeatMap
	if err := c.getJSON(ctx, endpoint, &seats); err != nil {
		return model.SeatMap{}, err
	}
	return seats, nil
}

// CreateOrder submits the assembled order exactly once. The request is never
// retried: the backend is the sole authority on seat conflicts and a replay
// could double-book. The response, success or failure, is final truth.
func (c *Client) CreateOrder(ctx context.Context, payload model.OrderPayload) (model.OrderResult, error) {
	if len(payload.Seats) == 0 {
		return model.OrderResult{}, errors.New("order needs at least one seat")
	}
	endpoint := fmt.Sprintf("%s/order", c.baseURL)

	var result model.OrderResult
	if err := c.postJSON(ctx, endpoint, payload, &result); err != nil {
		return model.OrderResult{}, err
	}
	return result, nil
}

// GetUser fetches the customer profile used to prefill checkout contact
// fields.
func (c *Client) GetUser(ctx context.Context, userID int) (model.User, error) {
	if userID <= 0 {
		return model.User{}, errors.New("user id is required")
	}
	endpoint := fmt.Sprintf("%s/user/%d", c.baseURL, userID)

	var user model.User
	if err := c.getJSON(ctx, endpoint, &user); err != nil {
		return model.User{}, err
	}
	return user, nil
}

func (c *Client) getJSON(ctx context.Context, endpoint string, out any) error {
	maxAttempts := c.maxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Accept", "application/json")

		res, err := c.httpClient.Do(req)
		if err != nil {
			if c.shouldRetryNetworkError(err) && attempt < maxAttempts {
				c.logger.Debug("retrying request", zap.String("endpoint", endpoint), zap.Int("attempt", attempt), zap.Error(err))
				if waitErr := c.waitRetry(ctx, attempt); waitErr != nil {
					return waitErr
				}
				continue
			}
			return fmt.Errorf("request failed: %w", err)
		}

		if res.StatusCode < http.StatusOK || res.StatusCode >= http.StatusMultipleChoices {
			apiErr := readAPIError(res, endpoint)
			if c.shouldRetryStatus(res.StatusCode) && attempt < maxAttempts {
				c.logger.Debug("retrying request", zap.String("endpoint", endpoint), zap.Int("status", res.StatusCode), zap.Int("attempt", attempt))
				if waitErr := c.waitRetry(ctx, attempt); waitErr != nil {
					return waitErr
				}
				continue
			}
			return apiErr
		}

		dec := json.NewDecoder(res.Body)
		err = dec.Decode(out)
		_ = res.Body.Close()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("decode response from %s: %w", endpoint, err)
		}
		return nil
	}

	return errors.New("request failed after retries")
}

// postJSON sends a body and decodes the response. Unlike getJSON it makes a
// single attempt: POSTs here create orders and are not idempotent.
func (c *Client) postJSON(ctx context.Context, endpoint string, body any, out any) error {
	encoded, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(encoded))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")

	res, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}

	if res.StatusCode < http.StatusOK || res.StatusCode >= http.StatusMultipleChoices {
		return readAPIError(res, endpoint)
	}

	dec := json.NewDecoder(res.Body)
	err = dec.Decode(out)
	_ = res.Body.Close()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("decode response from %s: %w", endpoint, err)
	}
	return nil
}

func readAPIError(res *http.Response, endpoint string) *APIError {
	snippet, _ := io.ReadAll(io.LimitReader(res.Body, 8<<10))
	_ = res.Body.Close()
	return &APIError{
		StatusCode: res.StatusCode,
		Status:     res.Status,
		Endpoint:   endpoint,
		Body:       strings.TrimSpace(string(snippet)),
	}
}

func (c *Client) shouldRetryStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}

func (c *Client) shouldRetryNetworkError(err error) bool {
	if err == nil {
		return false
	}
	return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
}

func (c *Client) waitRetry(ctx context.Context, attempt int) error {
	delay := c.retryDelay(attempt)
	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (c *Client) retryDelay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	base := c.retryBase
	if base <= 0 {
		base = defaultRetryBase
	}
	cap := c.retryCap
	if cap <= 0 {
		cap = defaultRetryCap
	}

	delay := base
	for i := 1; i < attempt; i++ {
		if delay >= cap/2 {
			return cap
		}
		delay *= 2
	}
	if delay > cap {
		return cap
	}
	return delay
}
