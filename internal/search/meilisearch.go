package search

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/meilisearch/meilisearch-go"

	"github.com/CyberPidgi/rentiful/internal/apperr"
	"github.com/CyberPidgi/rentiful/internal/models"
)

type SearchClient struct {
	client *meilisearch.Client
	index  string
}

func NewSearchClient(host, apiKey, index string) *SearchClient {
	client := meilisearch.NewClient(meilisearch.ClientConfig{
		Host:   host,
		APIKey: apiKey,
	})

	if index == "" {
		index = "listings"
	}
	return &SearchClient{
		client: client,
		index:  index,
	}
}

// ListingDocument is the indexed form of a listing
type ListingDocument struct {
	ID            uint        `json:"id"`
	Name          string      `json:"name"`
	Description   string      `json:"description"`
	Address       string      `json:"address"`
	City          string      `json:"city"`
	State         string      `json:"state"`
	PropertyType  string      `json:"propertyType"`
	Amenities     []string    `json:"amenities"`
	Highlights    []string    `json:"highlights"`
	PricePerMonth float64     `json:"pricePerMonth"`
	SquareFeet    int         `json:"squareFeet"`
	Beds          int         `json:"beds"`
	Baths         float64     `json:"baths"`
	Geo           GeoLocation `json:"_geo"`
}

// GeoLocation is the reserved _geo attribute
type GeoLocation struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// NewListingDocument flattens a property and its location
func NewListingDocument(p *models.Property) ListingDocument {
	return ListingDocument{
		ID:            p.ID,
		Name:          p.Name,
		Description:   p.Description,
		Address:       p.Location.Address,
		City:          p.Location.City,
		State:         p.Location.State,
		PropertyType:  string(p.PropertyType),
		Amenities:     []string(p.Amenities),
		Highlights:    []string(p.Highlights),
		PricePerMonth: p.PricePerMonth,
		SquareFeet:    p.SquareFeet,
		Beds:          p.Beds,
		Baths:         p.Baths,
		Geo: GeoLocation{
			Lat: p.Location.Coordinates.Latitude,
			Lng: p.Location.Coordinates.Longitude,
		},
	}
}

// InitIndex initializes the Meilisearch index
func (s *SearchClient) InitIndex() error {
	// Create index if it doesn't exist
	_, err := s.client.CreateIndex(&meilisearch.IndexConfig{
		Uid:        s.index,
		PrimaryKey: "id",
	})
	if err != nil && !strings.Contains(err.Error(), "index_already_exists") {
		return fmt.Errorf("create index %s: %w", s.index, err)
	}

	idx := s.client.Index(s.index)
	if _, err = idx.UpdateSearchableAttributes(&[]string{
		"name",
		"description",
		"address",
		"city",
		"highlights",
	}); err != nil {
		return err
	}

	if _, err = idx.UpdateFilterableAttributes(&[]string{
		"id",
		"pricePerMonth",
		"squareFeet",
		"beds",
		"baths",
		"propertyType",
		"amenities",
		"_geo",
	}); err != nil {
		return err
	}

	_, err = idx.UpdateSortableAttributes(&[]string{
		"pricePerMonth",
		"squareFeet",
		"_geo",
	})
	return err
}

// IndexListings adds or replaces documents for properties
func (s *SearchClient) IndexListings(properties []models.Property) error {
	if len(properties) == 0 {
		return nil
	}
	docs := make([]ListingDocument, len(properties))
	for i := range properties {
		docs[i] = NewListingDocument(&properties[i])
	}
	_, err := s.client.Index(s.index).AddDocuments(docs, "id")
	return err
}

// KeywordSearch returns the ids of listings matching text and preds, best
// match first
func (s *SearchClient) KeywordSearch(ctx context.Context, text string, preds []Predicate, limit int64) ([]uint, error) {
	filter, err := Meili(preds)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 20
	}

	req := &meilisearch.SearchRequest{
		Limit:                limit,
		AttributesToRetrieve: []string{"id"},
	}
	if filter != "" {
		req.Filter = filter
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	res, err := s.client.Index(s.index).Search(text, req)
	if err != nil {
		return nil, err
	}

	ids := make([]uint, 0, len(res.Hits))
	for _, hit := range res.Hits {
		m, ok := hit.(map[string]interface{})
		if !ok {
			continue
		}
		if id, ok := m["id"].(float64); ok {
			ids = append(ids, uint(id))
		}
	}
	return ids, nil
}

// Indexable drops predicates the keyword index cannot evaluate. The SQL
// query still applies them.
func Indexable(preds []Predicate) []Predicate {
	out := make([]Predicate, 0, len(preds))
	for _, p := range preds {
		if p.Op != OpExistsOnOrBefore {
			out = append(out, p)
		}
	}
	return out
}

// Meili compiles preds into a Meilisearch filter expression
func Meili(preds []Predicate) (string, error) {
	parts := make([]string, 0, len(preds))
	for _, pred := range preds {
		part, err := meiliClause(pred)
		if err != nil {
			return "", err
		}
		parts = append(parts, part)
	}
	return strings.Join(parts, " AND "), nil
}

func meiliClause(pred Predicate) (string, error) {
	attr := string(pred.Field)

	switch pred.Op {
	case OpGTE, OpLTE:
		f, ok := pred.Value.(float64)
		if !ok {
			return "", invalidValue(pred)
		}
		return fmt.Sprintf("%s %s %s", attr, pred.Op, strconv.FormatFloat(f, 'f', -1, 64)), nil

	case OpEq:
		str, ok := pred.Value.(string)
		if !ok {
			return "", invalidValue(pred)
		}
		return fmt.Sprintf("%s = %s", attr, quote(str)), nil

	case OpContains:
		values, ok := pred.Value.([]string)
		if !ok || len(values) == 0 {
			return "", invalidValue(pred)
		}
		terms := make([]string, len(values))
		for i, v := range values {
			terms[i] = fmt.Sprintf("%s = %s", attr, quote(v))
		}
		return "(" + strings.Join(terms, " AND ") + ")", nil

	case OpIn:
		ids, ok := pred.Value.([]uint)
		if !ok || len(ids) == 0 {
			return "", invalidValue(pred)
		}
		items := make([]string, len(ids))
		for i, id := range ids {
			items[i] = strconv.FormatUint(uint64(id), 10)
		}
		return fmt.Sprintf("%s IN [%s]", attr, strings.Join(items, ", ")), nil

	case OpWithinRadius:
		r, ok := pred.Value.(Radius)
		if !ok {
			return "", invalidValue(pred)
		}
		meters := strconv.FormatFloat(r.Km*1000, 'f', 0, 64)
		return fmt.Sprintf("_geoRadius(%s, %s, %s)",
			strconv.FormatFloat(r.Center.Latitude, 'f', -1, 64),
			strconv.FormatFloat(r.Center.Longitude, 'f', -1, 64),
			meters,
		), nil
	}

	return "", apperr.Validation(string(pred.Field), fmt.Sprintf("%s is not supported by keyword search", pred.Op))
}

// quote renders s as a double-quoted filter string
func quote(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	return `"` + s + `"`
}
