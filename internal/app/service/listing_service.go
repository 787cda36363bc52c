package service

import (
	"context"
	"strings"
	"time"

	"token_screener/internal/app/port"
	"token_screener/internal/entity"
	"token_screener/internal/pkg/metrics"
	"token_screener/internal/pkg/utils"
)

// ListingConfig holds the paging settings of the listing service.
type ListingConfig struct {
	PageSize       int
	InterPageDelay time.Duration
}

// listingServiceImpl implements port.ListingSource
type listingServiceImpl struct {
	client  port.TokenListClient
	cache   port.TokenCache
	cfg     ListingConfig
	logger  port.Logger
	metrics *metrics.Metrics
}

// NewListingService creates a new instance of listingServiceImpl.
func NewListingService(client port.TokenListClient, cache port.TokenCache, cfg ListingConfig, l port.Logger, m *metrics.Metrics) port.ListingSource {
	if cfg.PageSize <= 0 {
		cfg.PageSize = 50
	}
	return &listingServiceImpl{
		client:  client,
		cache:   cache,
		cfg:     cfg,
		logger:  l.With("component", "ListingService"),
		metrics: m,
	}
}

// FetchAll implements port.ListingSource.
func (s *listingServiceImpl) FetchAll(ctx context.Context, total int, useCache bool) []entity.BirdeyeToken {
	if useCache && s.cache != nil {
		cached, ok := s.cache.Load()
		s.metrics.ObserveCache(ok)
		if ok {
			s.logger.Info("Using cached token list", "count", len(cached))
			return cached
		}
	}

	start := time.Now()
	collected := make([]entity.BirdeyeToken, 0, total)

	for offset := 0; offset < total; offset += s.cfg.PageSize {
		if offset > 0 {
			if err := utils.SleepContext(ctx, s.cfg.InterPageDelay); err != nil {
				s.logger.Warn("Token list paging interrupted", "offset", offset, "error", err)
				break
			}
		}
		if wait := s.client.BudgetWait(); wait > 0 {
			s.logger.Warn("Request budget exhausted, waiting", "waitTime", wait)
			if err := utils.SleepContext(ctx, wait); err != nil {
				s.logger.Warn("Token list paging interrupted", "offset", offset, "error", err)
				break
			}
		}

		s.logger.Debug("Fetching token page", "offset", offset, "limit", s.cfg.PageSize)
		page, err := s.client.GetTokenList(ctx, offset, s.cfg.PageSize)
		if err != nil {
			s.logger.Warn("Token page failed, keeping what was collected", "offset", offset, "collected", len(collected), "error", err)
			break
		}

		for _, token := range page {
			if strings.TrimSpace(token.Address) == "" {
				s.logger.Debug("Skipping token without address", "offset", offset, "symbol", token.Symbol)
				continue
			}
			collected = append(collected, token)
		}
		// Page length is judged on what the upstream sent, before filtering.
		if len(page) < s.cfg.PageSize {
			s.logger.Debug("Short page, end of data", "offset", offset, "received", len(page))
			break
		}
	}

	if len(collected) > total {
		collected = collected[:total]
	}

	s.logger.Info("Fetched token list", "count", len(collected), "took", time.Since(start).String())

	if ctx.Err() != nil {
		s.logger.Warn("Token list fetch cancelled, not caching partial result", "count", len(collected))
		return collected
	}
	if len(collected) > 0 && s.cache != nil {
		if err := s.cache.Save(collected); err != nil {
			s.logger.Warn("Failed to write token cache", "error", err)
		}
	}
	return collected
}
