// Package client calls the rentiful API on behalf of a browsing user.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"github.com/CyberPidgi/rentiful/internal/apperr"
	"github.com/CyberPidgi/rentiful/internal/compose"
	"github.com/CyberPidgi/rentiful/internal/config"
	"github.com/CyberPidgi/rentiful/internal/filters"
	"github.com/CyberPidgi/rentiful/internal/models"
)

// ErrSuperseded is returned for a search answered after a newer one started
var ErrSuperseded = errors.New("search superseded by a newer request")

// Client is an API client. The bearer token comes from the external
// identity provider; an empty token browses anonymously.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

func New(cfg config.ClientConfig, token string) *Client {
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: cfg.GetTimeout()},
	}
}

// FavoriteResult is the server's answer to a favorite mutation
type FavoriteResult struct {
	Message     string `json:"message"`
	Changed     bool   `json:"changed"`
	FavoriteIDs []uint `json:"favoriteIds"`
}

// SearchListings runs the listing search for criteria
func (c *Client) SearchListings(ctx context.Context, criteria filters.Criteria) ([]compose.Listing, error) {
	listings := []compose.Listing{}
	path := "/properties"
	if q := filters.Canonical(criteria); q != "" {
		path += "?" + q
	}
	if err := c.do(ctx, http.MethodGet, path, &listings); err != nil {
		return nil, err
	}
	return listings, nil
}

func (c *Client) GetTenant(ctx context.Context, cognitoID string) (*models.Tenant, error) {
	var tenant models.Tenant
	if err := c.do(ctx, http.MethodGet, "/tenants/"+url.PathEscape(cognitoID), &tenant); err != nil {
		return nil, err
	}
	return &tenant, nil
}

func (c *Client) AddFavorite(ctx context.Context, cognitoID string, propertyID uint) (FavoriteResult, error) {
	return c.favorite(ctx, http.MethodPost, cognitoID, propertyID)
}

func (c *Client) RemoveFavorite(ctx context.Context, cognitoID string, propertyID uint) (FavoriteResult, error) {
	return c.favorite(ctx, http.MethodDelete, cognitoID, propertyID)
}

func (c *Client) favorite(ctx context.Context, method, cognitoID string, propertyID uint) (FavoriteResult, error) {
	var res FavoriteResult
	path := fmt.Sprintf("/tenants/%s/favorites/%d", url.PathEscape(cognitoID), propertyID)
	err := c.do(ctx, method, path, &res)
	return res, err
}

func (c *Client) do(ctx context.Context, method, path string, dest interface{}) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return decodeError(resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

// decodeError rebuilds the classified error from an error response
func decodeError(resp *http.Response) error {
	var body struct {
		Error string `json:"error"`
		Field string `json:"field"`
	}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err := json.Unmarshal(raw, &body); err != nil || body.Error == "" {
		body.Error = "status " + strconv.Itoa(resp.StatusCode)
	}
	return &apperr.Error{Kind: kindForStatus(resp.StatusCode), Field: body.Field, Message: body.Error}
}

func kindForStatus(status int) apperr.Kind {
	switch status {
	case http.StatusBadRequest:
		return apperr.KindValidation
	case http.StatusUnauthorized:
		return apperr.KindUnauthorized
	case http.StatusForbidden:
		return apperr.KindForbidden
	case http.StatusNotFound:
		return apperr.KindNotFound
	case http.StatusConflict:
		return apperr.KindConflict
	default:
		return apperr.KindInternal
	}
}

// Searcher runs a listing search
type Searcher interface {
	SearchListings(ctx context.Context, criteria filters.Criteria) ([]compose.Listing, error)
}

// LatestSearch numbers every search and only delivers the response to the
// most recent one. Starting a search cancels the one in flight.
type LatestSearch struct {
	searcher Searcher

	mu     sync.Mutex
	seq    uint64
	cancel context.CancelFunc
}

func NewLatestSearch(s Searcher) *LatestSearch {
	return &LatestSearch{searcher: s}
}

// Search returns ErrSuperseded when another search started before this one
// was answered
func (l *LatestSearch) Search(ctx context.Context, criteria filters.Criteria) ([]compose.Listing, uint64, error) {
	l.mu.Lock()
	l.seq++
	seq := l.seq
	if l.cancel != nil {
		l.cancel()
	}
	ctx, cancel := context.WithCancel(ctx)
	l.cancel = cancel
	l.mu.Unlock()
	defer cancel()

	listings, err := l.searcher.SearchListings(ctx, criteria)

	l.mu.Lock()
	current := seq == l.seq
	l.mu.Unlock()
	if !current {
		return nil, seq, ErrSuperseded
	}
	return listings, seq, err
}
