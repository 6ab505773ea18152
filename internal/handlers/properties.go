package handlers

import (
	"context"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/CyberPidgi/rentiful/internal/apperr"
	"github.com/CyberPidgi/rentiful/internal/cache"
	"github.com/CyberPidgi/rentiful/internal/compose"
	"github.com/CyberPidgi/rentiful/internal/database"
	"github.com/CyberPidgi/rentiful/internal/filters"
	"github.com/CyberPidgi/rentiful/internal/geo"
	"github.com/CyberPidgi/rentiful/internal/middleware"
	"github.com/CyberPidgi/rentiful/internal/models"
	"github.com/CyberPidgi/rentiful/internal/search"
)

// listingCachePrefix namespaces cached search rows
const listingCachePrefix = "listings"

const defaultKeywordLimit = 20

// ListingStore is the persistence used by the property routes
type ListingStore interface {
	SearchListings(ctx context.Context, q search.Query) ([]database.ListingRow, error)
	GetPropertyByID(ctx context.Context, id uint) (*models.Property, error)
	CreateProperty(ctx context.Context, p *models.Property) error
	FavoriteIDs(ctx context.Context, tenantCognitoID string) ([]uint, error)
}

// KeywordIndex is the full-text listing index
type KeywordIndex interface {
	KeywordSearch(ctx context.Context, text string, preds []search.Predicate, limit int64) ([]uint, error)
	IndexListings(properties []models.Property) error
}

// RowCache stores search rows by query key. Favorites are applied after
// the cache so entries are shared across callers.
type RowCache interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}) error
	Flush(ctx context.Context, prefix string) error
}

// PropertyHandler serves listing search, lookup and creation
type PropertyHandler struct {
	store    ListingStore
	index    KeywordIndex
	cache    RowCache
	radiusKm float64
}

// NewPropertyHandler creates a property handler. index and cache may be nil.
func NewPropertyHandler(store ListingStore, index KeywordIndex, rows RowCache) *PropertyHandler {
	return &PropertyHandler{store: store, index: index, cache: rows}
}

// SetRadiusKm overrides the radius of the coordinates filter
func (h *PropertyHandler) SetRadiusKm(km float64) {
	h.radiusKm = km
}

func (h *PropertyHandler) params(c filters.Criteria) search.Params {
	p := search.FromCriteria(c)
	if h.radiusKm > 0 {
		p.RadiusKm = h.radiusKm
	}
	return p
}

// Search returns the listings matching the filter query parameters
func (h *PropertyHandler) Search(c *gin.Context) {
	start := time.Now()
	ctx := c.Request.Context()

	criteria, err := filters.Decode(c.Request.URL.Query())
	if err != nil {
		respondError(c, err)
		return
	}
	q, err := search.Build(h.params(criteria))
	if err != nil {
		respondError(c, err)
		return
	}

	key := cache.QueryKey(listingCachePrefix, filters.Canonical(criteria))
	rows, cached := h.cachedRows(ctx, key)
	if !cached {
		rows, err = h.store.SearchListings(ctx, q)
		if err != nil {
			respondError(c, err)
			return
		}
		h.storeRows(ctx, key, rows)
	}

	favorites, err := h.favoritesFor(c)
	if err != nil {
		respondError(c, err)
		return
	}
	listings, err := compose.Compose(rows, favorites)
	if err != nil {
		respondError(c, err)
		return
	}

	log.Printf("[Search API] duration_ms=%d total=%d cached=%v filters=%d",
		time.Since(start).Milliseconds(), len(listings), cached, len(q.Args))
	c.JSON(http.StatusOK, listings)
}

// KeywordSearch ranks listings by the q parameter through the keyword index
// and applies the same filters as Search
func (h *PropertyHandler) KeywordSearch(c *gin.Context) {
	if h.index == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "keyword search is not enabled"})
		return
	}
	start := time.Now()
	ctx := c.Request.Context()

	text := strings.TrimSpace(c.Query("q"))
	limit := int64(defaultKeywordLimit)
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || n <= 0 || n > 100 {
			respondError(c, apperr.Validation("limit", "must be between 1 and 100"))
			return
		}
		limit = n
	}

	criteria, err := filters.Decode(c.Request.URL.Query())
	if err != nil {
		respondError(c, err)
		return
	}
	preds := search.Predicates(h.params(criteria))

	ids, err := h.index.KeywordSearch(ctx, text, search.Indexable(preds), limit)
	if err != nil {
		log.Printf("[Search API] keyword search failed q=%q err=%v", text, err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "keyword search failed"})
		return
	}
	if len(ids) == 0 {
		c.JSON(http.StatusOK, []compose.Listing{})
		return
	}

	// the index only pre-filters; the database applies every predicate
	q, err := search.Compile(append(preds, search.IDPredicates(ids)...))
	if err != nil {
		respondError(c, err)
		return
	}
	rows, err := h.store.SearchListings(ctx, q)
	if err != nil {
		respondError(c, err)
		return
	}

	favorites, err := h.favoritesFor(c)
	if err != nil {
		respondError(c, err)
		return
	}
	listings, err := compose.Compose(rankRows(rows, ids), favorites)
	if err != nil {
		respondError(c, err)
		return
	}

	log.Printf("[Search API] keyword duration_ms=%d q=%q hits=%d total=%d",
		time.Since(start).Milliseconds(), text, len(ids), len(listings))
	c.JSON(http.StatusOK, listings)
}

// Get returns one listing
func (h *PropertyHandler) Get(c *gin.Context) {
	id, err := uintParam(c, "id")
	if err != nil {
		respondError(c, err)
		return
	}
	property, err := h.store.GetPropertyByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	favorites, err := h.favoritesFor(c)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, compose.FromProperty(property, favorites))
}

// Create stores a new listing owned by the calling manager
func (h *PropertyHandler) Create(c *gin.Context) {
	ctx := c.Request.Context()
	caller, _ := middleware.CurrentIdentity(c)

	var req createPropertyRequest
	if err := bindJSON(c, &req); err != nil {
		respondError(c, err)
		return
	}
	if err := req.validate(); err != nil {
		respondError(c, err)
		return
	}
	property := req.property(caller.ID)

	if err := h.store.CreateProperty(ctx, &property); err != nil {
		respondError(c, err)
		return
	}

	if h.index != nil {
		if err := h.index.IndexListings([]models.Property{property}); err != nil {
			log.Printf("[Search API] index listing failed id=%d err=%v", property.ID, err)
		}
	}
	h.flushRows(ctx)

	c.JSON(http.StatusCreated, compose.FromProperty(&property, nil))
}

type coordinatesRequest struct {
	Longitude *float64 `json:"longitude"`
	Latitude  *float64 `json:"latitude"`
}

type locationRequest struct {
	Address     string              `json:"address"`
	City        string              `json:"city"`
	State       string              `json:"state"`
	Country     string              `json:"country"`
	PostalCode  string              `json:"postalCode"`
	Coordinates *coordinatesRequest `json:"coordinates"`
}

// createPropertyRequest is the POST /properties body. Coordinates are
// pointers so an omitted position is told apart from POINT(0 0).
type createPropertyRequest struct {
	Name              string              `json:"name" binding:"required"`
	Description       string              `json:"description"`
	PricePerMonth     float64             `json:"pricePerMonth"`
	SecurityDeposit   float64             `json:"securityDeposit"`
	ApplicationFee    float64             `json:"applicationFee"`
	PhotoURLs         []string            `json:"photoUrls"`
	Amenities         []string            `json:"amenities"`
	Highlights        []string            `json:"highlights"`
	IsPetsAllowed     bool                `json:"isPetsAllowed"`
	IsParkingIncluded bool                `json:"isParkingIncluded"`
	Beds              int                 `json:"beds"`
	Baths             float64             `json:"baths"`
	SquareFeet        int                 `json:"squareFeet"`
	PropertyType      models.PropertyType `json:"propertyType"`
	Location          locationRequest     `json:"location"`
}

func (r *createPropertyRequest) validate() error {
	if r.PropertyType == "" {
		return apperr.Validation("propertyType", "is required")
	}
	if !r.PropertyType.Valid() {
		return apperr.Validation("propertyType", "unknown property type")
	}
	for _, a := range r.Amenities {
		if !models.Amenity(a).Valid() {
			return apperr.Validation("amenities", "unknown amenity "+a)
		}
	}
	coords := r.Location.Coordinates
	if coords == nil || coords.Longitude == nil || coords.Latitude == nil {
		return apperr.Validation("location.coordinates", "longitude and latitude are required")
	}
	return nil
}

func (r *createPropertyRequest) property(managerCognitoID string) models.Property {
	coords := r.Location.Coordinates
	return models.Property{
		Name:              r.Name,
		Description:       r.Description,
		PricePerMonth:     r.PricePerMonth,
		SecurityDeposit:   r.SecurityDeposit,
		ApplicationFee:    r.ApplicationFee,
		PhotoURLs:         r.PhotoURLs,
		Amenities:         r.Amenities,
		Highlights:        r.Highlights,
		IsPetsAllowed:     r.IsPetsAllowed,
		IsParkingIncluded: r.IsParkingIncluded,
		Beds:              r.Beds,
		Baths:             r.Baths,
		SquareFeet:        r.SquareFeet,
		PropertyType:      r.PropertyType,
		ManagerCognitoID:  managerCognitoID,
		Location: models.Location{
			Address:     r.Location.Address,
			City:        r.Location.City,
			State:       r.Location.State,
			Country:     r.Location.Country,
			PostalCode:  r.Location.PostalCode,
			Coordinates: geo.Point{Longitude: *coords.Longitude, Latitude: *coords.Latitude},
		},
	}
}

// favoritesFor returns the caller's favorite set, or nil for anyone but a
// tenant
func (h *PropertyHandler) favoritesFor(c *gin.Context) (compose.FavoriteSet, error) {
	caller, ok := middleware.CurrentIdentity(c)
	if !ok || !caller.IsTenant() {
		return nil, nil
	}
	ids, err := h.store.FavoriteIDs(c.Request.Context(), caller.ID)
	if err != nil {
		return nil, err
	}
	return compose.NewFavoriteSet(ids), nil
}

func (h *PropertyHandler) cachedRows(ctx context.Context, key string) ([]database.ListingRow, bool) {
	if h.cache == nil {
		return nil, false
	}
	var rows []database.ListingRow
	found, err := h.cache.Get(ctx, key, &rows)
	if err != nil {
		log.Printf("[Cache] get failed key=%s err=%v", key, err)
		return nil, false
	}
	return rows, found
}

func (h *PropertyHandler) storeRows(ctx context.Context, key string, rows []database.ListingRow) {
	if h.cache == nil {
		return
	}
	if err := h.cache.Set(ctx, key, rows); err != nil {
		log.Printf("[Cache] set failed key=%s err=%v", key, err)
	}
}

func (h *PropertyHandler) flushRows(ctx context.Context) {
	flushListings(ctx, h.cache)
}

// flushListings drops every cached search result. Called whenever a write
// can change which rows a filter matches.
func flushListings(ctx context.Context, rows RowCache) {
	if rows == nil {
		return
	}
	if err := rows.Flush(ctx, listingCachePrefix); err != nil {
		log.Printf("[Cache] flush failed err=%v", err)
	}
}

// rankRows orders rows by their position in ids
func rankRows(rows []database.ListingRow, ids []uint) []database.ListingRow {
	byID := make(map[uint]database.ListingRow, len(rows))
	for _, r := range rows {
		byID[r.ID] = r
	}
	ranked := make([]database.ListingRow, 0, len(rows))
	for _, id := range ids {
		if r, ok := byID[id]; ok {
			ranked = append(ranked, r)
			delete(byID, id)
		}
	}
	return ranked
}
