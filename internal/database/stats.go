package database

import (
	"context"
	"fmt"
	"math"

	"github.com/CyberPidgi/rentiful/internal/models"
)

// Stats is the admin overview
type Stats struct {
	Properties   int64            `json:"properties"`
	Managers     int64            `json:"managers"`
	Tenants      int64            `json:"tenants"`
	Leases       int64            `json:"leases"`
	Applications map[string]int64 `json:"applications"`
	ByType       []TypeCount      `json:"byPropertyType"`
}

// TypeCount is the number of listings of one property type
type TypeCount struct {
	PropertyType string `json:"propertyType"`
	Count        int64  `json:"count"`
}

// PriceBucket counts listings with min <= pricePerMonth < max
type PriceBucket struct {
	Label string  `json:"label"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Count int64   `json:"count"`
}

// PriceBuckets are the monthly rent ranges of the price distribution
var PriceBuckets = []PriceBucket{
	{Label: "< $1,000", Min: 0, Max: 1000},
	{Label: "$1,000 - $2,000", Min: 1000, Max: 2000},
	{Label: "$2,000 - $3,000", Min: 2000, Max: 3000},
	{Label: "$3,000 - $5,000", Min: 3000, Max: 5000},
	{Label: "$5,000+", Min: 5000, Max: math.MaxFloat64},
}

// GetStats returns system statistics
func (db *DB) GetStats(ctx context.Context) (*Stats, error) {
	g := db.gorm.WithContext(ctx)
	stats := &Stats{Applications: make(map[string]int64)}

	counts := []struct {
		model interface{}
		dest  *int64
	}{
		{&models.Property{}, &stats.Properties},
		{&models.Manager{}, &stats.Managers},
		{&models.Tenant{}, &stats.Tenants},
		{&models.Lease{}, &stats.Leases},
	}
	for _, c := range counts {
		if err := g.Model(c.model).Count(c.dest).Error; err != nil {
			return nil, fmt.Errorf("count: %w", err)
		}
	}

	var byStatus []struct {
		Status string
		Count  int64
	}
	err := g.Model(&models.Application{}).
		Select("status, count(*) as count").
		Group("status").
		Scan(&byStatus).Error
	if err != nil {
		return nil, fmt.Errorf("applications by status: %w", err)
	}
	for _, s := range byStatus {
		stats.Applications[s.Status] = s.Count
	}

	stats.ByType = []TypeCount{}
	err = g.Model(&models.Property{}).
		Select("property_type, count(*) as count").
		Group("property_type").
		Order("count DESC").
		Scan(&stats.ByType).Error
	if err != nil {
		return nil, fmt.Errorf("properties by type: %w", err)
	}

	return stats, nil
}

// GetPriceDistribution counts listings per PriceBuckets range
func (db *DB) GetPriceDistribution(ctx context.Context) ([]PriceBucket, error) {
	buckets := make([]PriceBucket, len(PriceBuckets))
	copy(buckets, PriceBuckets)

	for i := range buckets {
		q := db.gorm.WithContext(ctx).Model(&models.Property{}).
			Where("price_per_month >= ?", buckets[i].Min)
		if buckets[i].Max != math.MaxFloat64 {
			q = q.Where("price_per_month < ?", buckets[i].Max)
		}
		if err := q.Count(&buckets[i].Count).Error; err != nil {
			return nil, fmt.Errorf("price distribution: %w", err)
		}
	}
	return buckets, nil
}
