package services

import (
	"gorm.io/gorm"

	"github.com/julianjca/op-portfolio-tracker/internal/config"
)

// NewSyncServiceFromConfig builds the clients, throttle and job runner from configuration
func NewSyncServiceFromConfig(cfg *config.Config, db *gorm.DB) *SyncService {
	catalog := NewCatalogClient(
		WithCatalogBaseURL(cfg.Catalog.BaseURL),
		WithCatalogTimeout(config.Duration(cfg.Catalog.Timeout)),
	)

	prices := NewPriceChartingClient(cfg.Pricing.APIKey,
		WithPriceChartingBaseURL(cfg.Pricing.BaseURL),
		WithPriceChartingTimeout(config.Duration(cfg.Pricing.Timeout)),
		WithSearchCacheSize(cfg.Pricing.CacheSize),
	)

	return NewSyncService(SyncServiceConfig{
		DB:                db,
		Catalog:           catalog,
		Prices:            prices,
		Throttle:          NewIntervalThrottle(config.Duration(cfg.Pricing.RequestInterval)),
		MaxReportedErrors: cfg.Jobs.MaxReportedErrors,
		SlabDefaultLimit:  cfg.Jobs.SlabDefaultLimit,
	})
}

// PriceSourceConfigured reports whether graded price jobs can run
func (s *SyncService) PriceSourceConfigured() bool {
	return s.prices.Configured()
}
