package screener

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/trogers1052/stock-insights/internal/models"
	"github.com/trogers1052/stock-insights/internal/session"
	"golang.org/x/sync/singleflight"
)

// Service logs users into the upstream site and fetches screening results on
// their behalf, keeping upstream cookies in a session store.
type Service struct {
	client   *Client
	sessions session.Store
	group    singleflight.Group
}

func NewService(client *Client, sessions session.Store) *Service {
	return &Service{
		client:   client,
		sessions: sessions,
	}
}

// Login authenticates against the upstream site and returns a new session id
func (s *Service) Login(ctx context.Context, username, password string) (string, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return "", ErrMissingCredentials
	}

	cookie, err := s.client.Login(ctx, username, password)
	if err != nil {
		log.Warn().Err(err).Str("username", username).Msg("Screener login failed")
		return "", err
	}

	id, err := session.NewID()
	if err != nil {
		return "", err
	}
	if err := s.sessions.Put(ctx, session.Entry{
		ID:        id,
		Cookie:    cookie,
		Username:  username,
		CreatedAt: time.Now(),
	}); err != nil {
		return "", fmt.Errorf("failed to store session: %w", err)
	}

	log.Info().Str("username", username).Msg("Screener login succeeded")
	return id, nil
}

// Fetch runs the screen described by criteria for the given session.
// Identical concurrent fetches for the same session share one upstream request.
func (s *Service) Fetch(ctx context.Context, sessionID string, criteria models.FilterCriteria) ([]models.ScreenedStock, error) {
	entry, err := s.lookup(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	query := BuildQuery(criteria)
	key := sessionID + "?" + query.Encode()

	// The shared request runs detached from any one caller so a caller that
	// goes away does not fail the others; the client timeout still bounds it.
	ch := s.group.DoChan(key, func() (interface{}, error) {
		body, err := s.client.FetchResults(context.WithoutCancel(ctx), entry.Cookie, query)
		if err != nil {
			return nil, err
		}
		result := ParseResults(bytes.NewReader(body), s.client.BaseURL())
		if !result.OK() {
			return nil, result.Err
		}
		return result.Stocks, nil
	})

	var res singleflight.Result
	select {
	case res = <-ch:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	v, err, shared := res.Val, res.Err, res.Shared
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			if delErr := s.sessions.Delete(ctx, sessionID); delErr != nil {
				log.Warn().Err(delErr).Msg("Failed to drop expired screener session")
			}
		}
		if errors.Is(err, ErrParse) {
			log.Error().Err(err).Str("query", query.Encode()).Msg("Failed to parse screener results")
		}
		return nil, err
	}

	stocks := v.([]models.ScreenedStock)
	log.Debug().
		Int("count", len(stocks)).
		Bool("shared", shared).
		Str("query", query.Encode()).
		Msg("Fetched screener results")

	if shared {
		out := make([]models.ScreenedStock, len(stocks))
		copy(out, stocks)
		return out, nil
	}
	return stocks, nil
}

// FetchPredefined runs one of the built-in filters
func (s *Service) FetchPredefined(ctx context.Context, sessionID, key string) ([]models.ScreenedStock, error) {
	criteria, err := LookupFilter(key)
	if err != nil {
		return nil, err
	}
	return s.Fetch(ctx, sessionID, criteria)
}

// Logout forgets the session. Unknown ids are not an error.
func (s *Service) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	if err := s.sessions.Delete(ctx, sessionID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// Filters lists the built-in filters
func (s *Service) Filters() []PredefinedFilter {
	return PredefinedFilters()
}

func (s *Service) lookup(ctx context.Context, sessionID string) (session.Entry, error) {
	if sessionID == "" {
		return session.Entry{}, ErrSessionNotFound
	}
	entry, err := s.sessions.Get(ctx, sessionID)
	if errors.Is(err, session.ErrNotFound) {
		return session.Entry{}, ErrSessionNotFound
	}
	if err != nil {
		return session.Entry{}, fmt.Errorf("failed to read session: %w", err)
	}
	return entry, nil
}
