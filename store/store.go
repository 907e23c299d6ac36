// Package store keeps small JSON files under the user's cache and config
// dirs: a movie-catalog cache, a short-lived cache of theaters-with-showtimes
// per (movie, date), and the last contact details entered at checkout. Seat
// maps and order drafts are deliberately never cached; they must always
// reflect live server state.
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"meetflix-cli/model"
)

const (
	movieCacheTTL   = 6 * time.Hour
	theaterCacheTTL = 5 * time.Minute
)

type cacheEnvelope[T any] struct {
	UpdatedAt time.Time `json:"updated_at"`
	Data      T         `json:"data"`
}

// Contact mirrors the checkout contact fields and is used as a prefill
// fallback when the user lookup fails.
type Contact struct {
	FullName    string `json:"full_name"`
	PhoneNumber string `json:"phone_number"`
	Email       string `json:"email"`
}

func LoadMovieCache() ([]model.Movie, bool, error) {
	path, err := cachePath("movies.json")
	if err != nil {
		return nil, false, err
	}
	cache, err := loadCache[[]model.Movie](path)
	if err != nil {
		return nil, false, err
	}
	return cache.Data, time.Since(cache.UpdatedAt) <= movieCacheTTL, nil
}

func SaveMovieCache(movies []model.Movie) error {
	path, err := cachePath("movies.json")
	if err != nil {
		return err
	}
	return saveCache(path, movies)
}

func LoadTheaterCache(movieID int, date string) ([]model.Theater, bool, error) {
	path, err := cachePath(fmt.Sprintf("theaters_%d_%s.json", movieID, date))
	if err != nil {
		return nil, false, err
	}
	cache, err := loadCache[[]model.Theater](path)
	if err != nil {
		return nil, false, err
	}
	return cache.Data, time.Since(cache.UpdatedAt) <= theaterCacheTTL, nil
}

func SaveTheaterCache(movieID int, date string, theaters []model.Theater) error {
	path, err := cachePath(fmt.Sprintf("theaters_%d_%s.json", movieID, date))
	if err != nil {
		return err
	}
	return saveCache(path, theaters)
}

func LoadContact() (Contact, error) {
	path, err := configPath("contact.json")
	if err != nil {
		return Contact{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Contact{}, nil
		}
		return Contact{}, err
	}

	var contact Contact
	if err := json.Unmarshal(data, &contact); err != nil {
		return Contact{}, fmt.Errorf("invalid contact format: %w", err)
	}
	return contact, nil
}

func RememberContact(contact Contact) error {
	if strings.TrimSpace(contact.FullName) == "" {
		return nil
	}
	path, err := configPath("contact.json")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	payload, err := json.MarshalIndent(contact, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, payload, 0o644)
}

func loadCache[T any](path string) (cacheEnvelope[T], error) {
	var cache cacheEnvelope[T]
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cache, nil
		}
		return cache, err
	}
	if err := json.Unmarshal(data, &cache); err != nil {
		return cache, err
	}
	return cache, nil
}

func saveCache[T any](path string, data T) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	cache := cacheEnvelope[T]{
		UpdatedAt: time.Now(),
		Data:      data,
	}
	payload, err := json.MarshalIndent(cache, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, payload, 0o644)
}

func configPath(name string) (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "meetflix-cli", name), nil
}

func cachePath(name string) (string, error) {
	dir, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "meetflix-cli", name), nil
}
