package indexer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/catalogchat/internal/domain"
	"github.com/kailas-cloud/catalogchat/internal/domain/catalog"
	"github.com/kailas-cloud/catalogchat/internal/metrics"
)

// Build sources reported in metrics.
const (
	sourceMemory   = "memory"
	sourceSnapshot = "snapshot"
	sourceCatalog  = "catalog"
)

// BuildOptions controls BuildIndex.
type BuildOptions struct {
	ForceRebuild bool // skip the in-memory index and the persisted snapshot
	Persist      bool // save a freshly built index
}

// BuildReport summarizes a full rebuild.
type BuildReport struct {
	CatalogItems int           `json:"catalogItems"`
	Indexed      int           `json:"indexed"`
	Skipped      int           `json:"skipped"`
	Dimensions   int           `json:"dimensions"`
	Duration     time.Duration `json:"-"`
	DurationMS   int64         `json:"durationMs"`
	Location     string        `json:"location,omitempty"`
	Persisted    bool          `json:"persisted"`
}

// Service owns the process-wide catalog index.
// Readers get either the previous or the next snapshot, never a partial one.
type Service struct {
	source    CatalogSource
	snapshots SnapshotStore
	embedder  Embedder
	logger    *zap.Logger

	current atomic.Pointer[catalog.Index]
	buildMu sync.Mutex
	now     func() time.Time
}

// New creates an indexer. snapshots may be nil to disable persistence.
func New(source CatalogSource, snapshots SnapshotStore, embedder Embedder, logger *zap.Logger) *Service {
	return &Service{
		source:    source,
		snapshots: snapshots,
		embedder:  embedder,
		logger:    logger,
		now:       time.Now,
	}
}

// Ready reports whether an index is currently published.
func (s *Service) Ready() bool {
	return s.current.Load() != nil
}

// Current returns the published index, if any.
func (s *Service) Current() (catalog.Index, bool) {
	if idx := s.current.Load(); idx != nil {
		return *idx, true
	}
	return catalog.Index{}, false
}

// BuildIndex returns the in-memory index, the persisted snapshot or a fresh build, in that order.
func (s *Service) BuildIndex(ctx context.Context, opts BuildOptions) (catalog.Index, error) {
	if !opts.ForceRebuild {
		if idx, ok := s.Current(); ok {
			metrics.IndexBuildsTotal.WithLabelValues(sourceMemory, "ok").Inc()
			return idx, nil
		}
	}

	s.buildMu.Lock()
	defer s.buildMu.Unlock()

	if !opts.ForceRebuild {
		// Another caller may have published while we waited for the lock.
		if idx, ok := s.Current(); ok {
			metrics.IndexBuildsTotal.WithLabelValues(sourceMemory, "ok").Inc()
			return idx, nil
		}
		if idx, ok := s.loadSnapshot(ctx); ok {
			metrics.IndexBuildsTotal.WithLabelValues(sourceSnapshot, "ok").Inc()
			s.publish(idx)
			return idx, nil
		}
	}

	idx, report, err := s.rebuild(ctx, opts.Persist)
	if err != nil {
		return catalog.Index{}, err
	}

	s.logger.Info("Catalog index built",
		zap.Int("catalog_items", report.CatalogItems),
		zap.Int("indexed", report.Indexed),
		zap.Int("skipped", report.Skipped),
		zap.Duration("duration", report.Duration),
		zap.Bool("persisted", report.Persisted),
	)
	return idx, nil
}

// Reseed rebuilds from the catalog source and persists the result.
// The previous index keeps serving readers until the new one is published.
func (s *Service) Reseed(ctx context.Context) (BuildReport, error) {
	s.buildMu.Lock()
	defer s.buildMu.Unlock()

	_, report, err := s.rebuild(ctx, s.snapshots != nil)
	if err != nil {
		return BuildReport{}, err
	}

	s.logger.Info("Catalog reseeded",
		zap.Int("catalog_items", report.CatalogItems),
		zap.Int("indexed", report.Indexed),
		zap.Int("skipped", report.Skipped),
		zap.Duration("duration", report.Duration),
		zap.String("location", report.Location),
	)
	return report, nil
}

// ClearCache drops the in-memory index. Persisted snapshots are left untouched.
func (s *Service) ClearCache() {
	s.current.Store(nil)
	metrics.IndexEntries.Set(0)
}

// SaveIndex persists index explicitly.
func (s *Service) SaveIndex(ctx context.Context, index catalog.Index) error {
	if s.snapshots == nil {
		return fmt.Errorf("index persistence is not configured: %w", domain.ErrInvalidRequest)
	}
	if err := s.snapshots.Save(ctx, index); err != nil {
		return fmt.Errorf("save index: %w", err)
	}
	return nil
}

// Location returns where snapshots are persisted, empty when persistence is disabled.
func (s *Service) Location() string {
	if s.snapshots == nil {
		return ""
	}
	return s.snapshots.Location()
}

// loadSnapshot treats every failure as "no snapshot"; only unexpected ones are logged.
func (s *Service) loadSnapshot(ctx context.Context) (catalog.Index, bool) {
	if s.snapshots == nil {
		return catalog.Index{}, false
	}
	idx, err := s.snapshots.Load(ctx)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			s.logger.Warn("Ignoring unreadable index snapshot",
				zap.String("location", s.snapshots.Location()),
				zap.Error(err),
			)
		}
		return catalog.Index{}, false
	}

	s.logger.Info("Catalog index loaded from snapshot",
		zap.String("location", s.snapshots.Location()),
		zap.Int("entries", idx.Len()),
	)
	return idx, true
}

// rebuild embeds every catalog item and publishes the result. Callers hold buildMu.
func (s *Service) rebuild(ctx context.Context, persist bool) (catalog.Index, BuildReport, error) {
	start := s.now()

	idx, report, err := s.embedCatalog(ctx)
	if err != nil {
		metrics.IndexBuildsTotal.WithLabelValues(sourceCatalog, "error").Inc()
		return catalog.Index{}, BuildReport{}, err
	}

	s.publish(idx)

	if persist && s.snapshots != nil {
		if err := s.snapshots.Save(ctx, idx); err != nil {
			metrics.IndexBuildsTotal.WithLabelValues(sourceCatalog, "error").Inc()
			return catalog.Index{}, BuildReport{}, fmt.Errorf("persist index: %w", err)
		}
		report.Persisted = true
		report.Location = s.snapshots.Location()
	}

	report.Duration = s.now().Sub(start)
	report.DurationMS = report.Duration.Milliseconds()
	metrics.IndexBuildsTotal.WithLabelValues(sourceCatalog, "ok").Inc()
	metrics.IndexBuildDuration.Observe(report.Duration.Seconds())
	return idx, report, nil
}

func (s *Service) embedCatalog(ctx context.Context) (catalog.Index, BuildReport, error) {
	doc, err := s.source.Read(ctx)
	if err != nil {
		return catalog.Index{}, BuildReport{}, fmt.Errorf("read catalog: %w", err)
	}

	report := BuildReport{CatalogItems: len(doc.Items)}
	entries := make([]catalog.Entry, 0, len(doc.Items))

	for _, item := range doc.Items {
		text := catalog.ItemText(item)
		if text == "" {
			report.Skipped++
			continue
		}
		if err := ctx.Err(); err != nil {
			return catalog.Index{}, BuildReport{}, fmt.Errorf("build index: %w", err)
		}

		result, err := s.embedder.Embed(ctx, text)
		if err != nil {
			return catalog.Index{}, BuildReport{}, fmt.Errorf("embed item %q: %w", item.Key(), err)
		}
		entries = append(entries, catalog.NewEntry(item, result.Embedding))
	}

	idx := catalog.NewIndex(entries)
	report.Indexed = idx.Len()
	report.Dimensions = idx.Dimensions()
	return idx, report, nil
}

func (s *Service) publish(idx catalog.Index) {
	s.current.Store(&idx)
	metrics.IndexEntries.Set(float64(idx.Len()))
}
