package view

import (
	"context"
	"errors"
	"sync"

	"github.com/CyberPidgi/rentiful/internal/apperr"
	"github.com/CyberPidgi/rentiful/internal/client"
	"github.com/CyberPidgi/rentiful/internal/compose"
)

// ErrToggleInFlight is returned while a previous toggle of the same listing
// is unanswered
var ErrToggleInFlight = errors.New("favorite change already in progress")

// FavoriteAPI performs favorite mutations on the server
type FavoriteAPI interface {
	AddFavorite(ctx context.Context, cognitoID string, propertyID uint) (client.FavoriteResult, error)
	RemoveFavorite(ctx context.Context, cognitoID string, propertyID uint) (client.FavoriteResult, error)
}

// FavoriteToggle holds the last server-confirmed favorite set. The
// displayed state only changes once the server answers; a failed call
// leaves it untouched.
type FavoriteToggle struct {
	api       FavoriteAPI
	cognitoID string

	mu        sync.Mutex
	confirmed compose.FavoriteSet
	pending   map[uint]bool
}

func NewFavoriteToggle(api FavoriteAPI, tenantCognitoID string, confirmed []uint) *FavoriteToggle {
	return &FavoriteToggle{
		api:       api,
		cognitoID: tenantCognitoID,
		confirmed: compose.NewFavoriteSet(confirmed),
		pending:   make(map[uint]bool),
	}
}

func (t *FavoriteToggle) IsFavorite(propertyID uint) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.confirmed.Has(propertyID)
}

// Toggle flips the favorite state of propertyID on the server and returns
// the confirmed state afterwards
func (t *FavoriteToggle) Toggle(ctx context.Context, propertyID uint) (bool, error) {
	if t.cognitoID == "" {
		return false, apperr.Unauthorized("sign in as a tenant to keep favorites")
	}

	t.mu.Lock()
	if t.pending[propertyID] {
		t.mu.Unlock()
		return t.IsFavorite(propertyID), ErrToggleInFlight
	}
	t.pending[propertyID] = true
	wasFavorite := t.confirmed.Has(propertyID)
	t.mu.Unlock()

	var (
		res client.FavoriteResult
		err error
	)
	if wasFavorite {
		res, err = t.api.RemoveFavorite(ctx, t.cognitoID, propertyID)
	} else {
		res, err = t.api.AddFavorite(ctx, t.cognitoID, propertyID)
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.pending, propertyID)
	if err != nil {
		return wasFavorite, err
	}
	t.confirmed = compose.NewFavoriteSet(res.FavoriteIDs)
	return t.confirmed.Has(propertyID), nil
}

// Apply sets IsFavorite on listings from the confirmed set
func (t *FavoriteToggle) Apply(listings []compose.Listing) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i := range listings {
		fav := t.confirmed.Has(listings[i].ID)
		listings[i].IsFavorite = &fav
	}
}
