package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"token_screener/internal/app/port"
	domain "token_screener/internal/domain/entity"
	"token_screener/internal/pkg/metrics"
)

// ErrNoRecords is returned by Refresh when the listing came back empty. The previously
// published snapshot stays in place.
var ErrNoRecords = errors.New("refresh aborted: no token records fetched")

// SnapshotConfig holds the settings of a refresh cycle.
type SnapshotConfig struct {
	TotalTokens      int
	SuspiciousSuffix string
}

// snapshotServiceImpl implements port.SnapshotService. It is the only writer of the
// published snapshot; readers load it without locking.
type snapshotServiceImpl struct {
	listing    port.ListingSource
	enrichment port.EnrichmentSource
	cfg        SnapshotConfig
	logger     port.Logger
	metrics    *metrics.Metrics
	now        func() time.Time

	current atomic.Pointer[domain.Snapshot]
	cycleMu sync.Mutex
	group   singleflight.Group
}

// NewSnapshotService creates a new instance of snapshotServiceImpl.
func NewSnapshotService(
	listing port.ListingSource,
	enrichment port.EnrichmentSource,
	cfg SnapshotConfig,
	l port.Logger,
	m *metrics.Metrics,
) port.SnapshotService {
	return &snapshotServiceImpl{
		listing:    listing,
		enrichment: enrichment,
		cfg:        cfg,
		logger:     l.With("component", "SnapshotService"),
		metrics:    m,
		now:        time.Now,
	}
}

// Refresh implements port.Refresher. Concurrent calls with the same force flag share one
// cycle; cycles never overlap.
func (s *snapshotServiceImpl) Refresh(ctx context.Context, force bool) error {
	key := "cached"
	if force {
		key = "forced"
	}
	_, err, shared := s.group.Do(key, func() (any, error) {
		return nil, s.runCycle(ctx, force)
	})
	if shared {
		s.logger.Debug("Joined an in-flight refresh", "force", force)
	}
	return err
}

func (s *snapshotServiceImpl) runCycle(ctx context.Context, force bool) error {
	s.cycleMu.Lock()
	defer s.cycleMu.Unlock()

	start := s.now()
	s.logger.Info("Refresh cycle started", "force", force)

	records := s.listing.FetchAll(ctx, s.cfg.TotalTokens, !force)
	if len(records) == 0 {
		s.logger.Warn("Refresh cycle aborted, keeping previous snapshot", "force", force, "previousTokens", s.current.Load().Len())
		s.metrics.ObserveRefresh("aborted", s.now().Sub(start))
		return ErrNoRecords
	}

	processed := ProcessTokenList(records, s.cfg.SuspiciousSuffix)
	tokens := DedupeByAddress(processed)

	addresses := make([]string, len(tokens))
	for i, t := range tokens {
		addresses[i] = t.Address
	}
	enrichment := s.enrichment.Enrich(ctx, addresses)
	enriched := ApplyEnrichment(tokens, enrichment)

	snap := &domain.Snapshot{Tokens: tokens, PublishedAt: s.now()}
	s.current.Store(snap)

	took := s.now().Sub(start)
	s.metrics.ObserveRefresh("ok", took)
	s.metrics.SetSnapshot(len(tokens), snap.PublishedAt)
	s.logger.Info("Snapshot published",
		"tokens", len(tokens),
		"duplicatesDropped", len(processed)-len(tokens),
		"enriched", enriched,
		"took", took.String())
	return nil
}

// Snapshot implements port.SnapshotReader; nil before the first publish.
func (s *snapshotServiceImpl) Snapshot() *domain.Snapshot {
	return s.current.Load()
}

// State implements port.SnapshotReader.
func (s *snapshotServiceImpl) State() domain.SnapshotState {
	if s.current.Load().Len() > 0 {
		return domain.SnapshotReady
	}
	return domain.SnapshotStale
}

// Tokens implements port.SnapshotReader.
func (s *snapshotServiceImpl) Tokens() []domain.ProcessedToken {
	snap := s.current.Load()
	if snap == nil {
		return []domain.ProcessedToken{}
	}
	return snap.Tokens
}

// Compare implements port.SnapshotReader.
func (s *snapshotServiceImpl) Compare(addresses []string) []domain.ProcessedToken {
	wanted := make(map[string]struct{}, len(addresses))
	for _, addr := range addresses {
		wanted[addr] = struct{}{}
	}

	out := make([]domain.ProcessedToken, 0, len(addresses))
	for _, t := range s.Tokens() {
		if _, ok := wanted[t.Address]; ok {
			out = append(out, t)
		}
	}
	return out
}
