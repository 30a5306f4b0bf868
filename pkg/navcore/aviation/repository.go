package aviation

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/airnav/navcore/pkg/navcore/log"
	"github.com/airnav/navcore/pkg/navcore/util"
	"golang.org/x/sync/errgroup"
)

const cacheKeyCurrent = "current"

// DefaultCacheValidityWindow is the fallback validity period applied when
// a loaded snapshot carries no ValidityWindow of its own (e.g. restored
// from a cache written before a source started publishing one).
const DefaultCacheValidityWindow = 28 * 24 * time.Hour

// Stats is the repository's read-only accessor: per-entity-kind counts
// and per-source load metadata, useful for startup diagnostics and the
// CLI's summary output when no route is given.
type Stats struct {
	Airports, Navaids, Fixes, Airways, Procedures, MORACells int
	SourceMetadata                                           map[string]FileMetadata
	LastLoaded                                               time.Time
	AuthoritativeDegraded                                    bool // true when the authoritative source failed and only the fallback loaded
}

// ProgressFunc receives a short status label at each major milestone of
// a Load call, for a caller (the CLI, a future UI) that wants to show
// progress during what can be a slow network fetch. May be nil.
type ProgressFunc func(status string)

func reportProgress(fn ProgressFunc, status string) {
	if fn != nil {
		fn(status)
	}
}

// Repository owns the merged entity stores, the MORA cell list, and the
// persistent cache, and is the query engine's sole read dependency.
// Loading is parallelized across the authoritative source, the fallback
// source, and the MORA source using errgroup, following mmp-vice's
// db.go init pattern (there built on a bare sync.WaitGroup over eight
// goroutines). Each task reports its own outcome through a channel or a
// captured error and always returns nil to the group, so Wait only
// serves to block until every task is done.
type Repository struct {
	mu sync.RWMutex

	authoritative DataSource
	fallback      DataSource
	mora          *MORASource
	cache         *Cache

	merged    MergedStore
	moraCells []MORACell
	validity  *ValidityWindow
	stats     Stats
	diags     util.Diagnostics

	logger *log.Logger
}

func NewRepository(authoritative, fallback DataSource, mora *MORASource, cache *Cache, logger *log.Logger) *Repository {
	return &Repository{
		authoritative: authoritative,
		fallback:      fallback,
		mora:          mora,
		cache:         cache,
		merged:        newMergedStore(),
		logger:        logger,
	}
}

// sourceOutcome is the per-task result reported back from each parallel
// load goroutine, so a partial failure can be logged and folded into
// Stats without aborting the other tasks: Load awaits all three and
// proceeds once each has either succeeded or failed.
type sourceOutcome struct {
	tag      string
	store    ParsedStore
	meta     FileMetadata
	raw      []byte
	validity *ValidityWindow
	moraRaw  []MORACell
	err      error
}

// Load fetches, parses, validates, and merges both aviation data sources
// and the MORA source in parallel, then writes the resulting snapshot to
// the cache. A total failure of the authoritative source alone degrades
// to fallback-only operation with a warning; a total failure of both
// sources is returned as a fatal error. progress, if non-nil, is called
// with a short status label at each major milestone.
func (r *Repository) Load(ctx context.Context, progress ProgressFunc) error {
	reportProgress(progress, "fetching sources")

	g, gctx := errgroup.WithContext(ctx)

	results := make(chan sourceOutcome, 3)

	g.Go(func() error {
		results <- loadSource(gctx, r.authoritative)
		return nil
	})
	g.Go(func() error {
		results <- loadSource(gctx, r.fallback)
		return nil
	})

	var moraCells []MORACell
	var moraErr error
	if r.mora != nil {
		g.Go(func() error {
			raw, err := r.mora.Fetch(gctx)
			if err != nil {
				moraErr = err
				return nil
			}
			cells, err := r.mora.Parse(raw)
			if err != nil {
				moraErr = err
				return nil
			}
			moraCells = cells
			return nil
		})
	}

	// errgroup.Wait itself never returns an error here since each
	// goroutine reports failures through sourceOutcome.err/moraErr
	// instead of returning them, by design: one source's network
	// failure must not cancel the sibling tasks.
	_ = g.Wait()
	close(results)

	outcomes := make(map[string]sourceOutcome)
	for o := range results {
		outcomes[o.tag] = o
	}

	authOutcome := outcomes[r.authoritative.Tag()]
	fallbackOutcome := outcomes[r.fallback.Tag()]

	var diags util.Diagnostics

	if authOutcome.err != nil && fallbackOutcome.err != nil {
		diags.Addf(util.StageData, util.KindDataError, "both-sources-failed", nil,
			"authoritative: %v, fallback: %v", authOutcome.err, fallbackOutcome.err)
		r.mu.Lock()
		r.diags = diags
		r.mu.Unlock()
		return fmt.Errorf("repository: both sources failed: authoritative: %v, fallback: %v", authOutcome.err, fallbackOutcome.err)
	}

	degraded := authOutcome.err != nil
	if degraded {
		diags.Addf(util.StageData, util.KindDataError, "authoritative-fetch-failed", nil,
			"authoritative source %q failed, continuing with fallback only: %v", r.authoritative.Tag(), authOutcome.err)
		r.logger.Warnf("authoritative source %q failed, continuing with fallback only: %v", r.authoritative.Tag(), authOutcome.err)
	}
	if fallbackOutcome.err != nil {
		diags.Addf(util.StageData, util.KindDataError, "fallback-fetch-failed", nil,
			"fallback source %q failed: %v", r.fallback.Tag(), fallbackOutcome.err)
		r.logger.Warnf("fallback source %q failed: %v", r.fallback.Tag(), fallbackOutcome.err)
	}
	if moraErr != nil {
		diags.Addf(util.StageData, util.KindDataError, "mora-fetch-failed", nil, "mora source failed: %v", moraErr)
		r.logger.Warnf("mora source failed: %v", moraErr)
	}

	reportProgress(progress, "merging sources")
	merged := Merge(authOutcome.store, fallbackOutcome.store)

	validity := authOutcome.validity
	if validity == nil {
		validity = fallbackOutcome.validity
	}

	r.mu.Lock()
	r.merged = merged
	r.moraCells = moraCells
	r.validity = validity
	r.diags = diags
	r.stats = Stats{
		Airports:              len(merged.Airports),
		Navaids:               len(merged.Navaids),
		Fixes:                 len(merged.Fixes),
		Airways:               len(merged.Airways),
		Procedures:            len(merged.Procedures),
		MORACells:             len(moraCells),
		LastLoaded:            time.Now(),
		AuthoritativeDegraded: degraded,
		SourceMetadata: map[string]FileMetadata{
			r.authoritative.Tag(): authOutcome.meta,
			r.fallback.Tag():      fallbackOutcome.meta,
		},
	}
	r.mu.Unlock()

	if r.cache != nil {
		reportProgress(progress, "writing snapshot to cache")
		snap := Snapshot{
			Merged:    merged,
			MORACells: moraCells,
			Validity:  validity,
			RawBundles: map[string][]byte{
				r.authoritative.Tag(): authOutcome.raw,
				r.fallback.Tag():      fallbackOutcome.raw,
			},
		}
		if err := r.cache.Save(cacheKeyCurrent, snap); err != nil {
			r.logger.Errorf("failed to persist snapshot to cache: %v", err)
		}
	}

	reportProgress(progress, "done")
	return nil
}

func loadSource(ctx context.Context, src DataSource) sourceOutcome {
	fr, err := src.Fetch(ctx)
	if err != nil {
		return sourceOutcome{tag: src.Tag(), err: err}
	}
	store, meta, err := src.Parse(fr.Raw)
	if err != nil {
		return sourceOutcome{tag: src.Tag(), err: err}
	}
	if err := src.Validate(store); err != nil {
		return sourceOutcome{tag: src.Tag(), err: err}
	}
	return sourceOutcome{tag: src.Tag(), store: store, meta: meta, raw: fr.Raw, validity: fr.Validity}
}

// CacheValid reports whether the currently loaded snapshot is still
// within its validity window as of now: the authoritative source's own
// recorded expiry date when one was stored, otherwise
// DefaultCacheValidityWindow measured from Stats.LastLoaded.
// LoadFromCache sets LastLoaded to the time of the cache read, so for a
// restored snapshot without a validity window the default window counts
// from that read, not from when the snapshot was written. A repository
// with nothing loaded yet is never valid.
func (r *Repository) CacheValid(now time.Time) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.validity != nil {
		return now.Before(r.validity.Expiry)
	}
	if r.stats.LastLoaded.IsZero() {
		return false
	}
	return now.Before(r.stats.LastLoaded.Add(DefaultCacheValidityWindow))
}

// isIntegrityFailure reports whether err came from Cache.Load rejecting a
// snapshot outright (checksum mismatch or an unrecognized schema
// version), as opposed to there simply being no snapshot yet.
func isIntegrityFailure(err error) bool {
	return errors.Is(err, ErrChecksumMismatch) || errors.Is(err, ErrUnknownSchemaVersion)
}

// LoadFromCache restores the repository's state from the persistent
// cache without touching the network, for fast startup when a prior
// snapshot exists and reindexing was not requested. A checksum or schema
// version failure is treated as a corrupt cache rather than a merely
// absent one: the stored snapshot is purged and the failure is recorded
// as a cache diagnostic, so the caller's usual "fall back to Load" path
// is guaranteed to hit the network instead of silently reusing garbage.
func (r *Repository) LoadFromCache() error {
	if r.cache == nil {
		return fmt.Errorf("repository: no cache configured")
	}
	snap, err := r.cache.Load(cacheKeyCurrent)
	if err != nil {
		if isIntegrityFailure(err) {
			var diags util.Diagnostics
			diags.Addf(util.StageCache, util.KindCacheError, "snapshot-integrity-failure", nil,
				"cached snapshot failed integrity check, purging and forcing reload: %v", err)
			r.mu.Lock()
			r.diags = diags
			r.mu.Unlock()
			if clearErr := r.cache.Clear(); clearErr != nil {
				r.logger.Errorf("failed to purge corrupted cache snapshot: %v", clearErr)
			}
		}
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.merged = snap.Merged
	r.moraCells = snap.MORACells
	r.validity = snap.Validity
	r.stats = Stats{
		Airports:   len(snap.Merged.Airports),
		Navaids:    len(snap.Merged.Navaids),
		Fixes:      len(snap.Merged.Fixes),
		Airways:    len(snap.Merged.Airways),
		Procedures: len(snap.Merged.Procedures),
		MORACells:  len(snap.MORACells),
		LastLoaded: time.Now(),
	}
	return nil
}

// Reindex re-parses and re-merges the retained raw source bundles from
// the cache and writes a fresh snapshot, without any network fetch. Used
// by navplan's "-reindex" flag after a schema or merge-policy change.
// This is the one path that decompresses and verifies the raw bundle
// (LoadRawBundles); a raw-bundle checksum failure here is recorded as a
// cache diagnostic and aborts the reindex, since there is no network
// fetch to fall back to.
func (r *Repository) Reindex(ctx context.Context) error {
	if r.cache == nil {
		return fmt.Errorf("repository: no cache configured")
	}
	snap, err := r.cache.Load(cacheKeyCurrent)
	if err != nil {
		return fmt.Errorf("repository: reindex: no indexed snapshot to rebuild from: %w", err)
	}

	rawBundles, err := r.cache.LoadRawBundles(cacheKeyCurrent)
	if err != nil {
		var diags util.Diagnostics
		diags.Addf(util.StageCache, util.KindCacheError, "raw-bundle-integrity-failure", nil,
			"raw source bundle failed integrity check, reindex aborted: %v", err)
		r.mu.Lock()
		r.diags = diags
		r.mu.Unlock()
		return fmt.Errorf("repository: reindex: raw bundle: %w", err)
	}

	authRaw := rawBundles[r.authoritative.Tag()]
	fallbackRaw := rawBundles[r.fallback.Tag()]

	authStore, authMeta, err := r.authoritative.Parse(authRaw)
	if err != nil {
		return fmt.Errorf("repository: reindex: authoritative parse: %w", err)
	}
	fallbackStore, fallbackMeta, err := r.fallback.Parse(fallbackRaw)
	if err != nil {
		return fmt.Errorf("repository: reindex: fallback parse: %w", err)
	}

	merged := Merge(authStore, fallbackStore)

	r.mu.Lock()
	r.merged = merged
	r.validity = snap.Validity
	r.stats = Stats{
		Airports:   len(merged.Airports),
		Navaids:    len(merged.Navaids),
		Fixes:      len(merged.Fixes),
		Airways:    len(merged.Airways),
		Procedures: len(merged.Procedures),
		MORACells:  len(r.moraCells),
		LastLoaded: time.Now(),
		SourceMetadata: map[string]FileMetadata{
			r.authoritative.Tag(): authMeta,
			r.fallback.Tag():      fallbackMeta,
		},
	}
	r.mu.Unlock()

	return r.cache.Save(cacheKeyCurrent, Snapshot{Merged: merged, MORACells: r.moraCells, Validity: snap.Validity, RawBundles: rawBundles})
}

// Clear discards the repository's in-memory state and the persistent
// cache's stored snapshot.
func (r *Repository) Clear() error {
	r.mu.Lock()
	r.merged = newMergedStore()
	r.moraCells = nil
	r.validity = nil
	r.stats = Stats{}
	r.diags = util.Diagnostics{}
	r.mu.Unlock()
	if r.cache != nil {
		return r.cache.Clear()
	}
	return nil
}

func (r *Repository) Stats() Stats {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.stats
}

// Diagnostics returns the cache/source diagnostics accumulated by the
// most recent Load, LoadFromCache, or Reindex call.
func (r *Repository) Diagnostics() util.Diagnostics {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.diags
}

func (r *Repository) Airport(id string) (Airport, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.merged.Airports[id]
	return a, ok
}

func (r *Repository) Navaid(id string) (Navaid, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n, ok := r.merged.Navaids[id]
	return n, ok
}

func (r *Repository) Fix(id string) (Fix, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.merged.Fixes[id]
	return f, ok
}

func (r *Repository) Airway(id string) (Airway, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.merged.Airways[id]
	return a, ok
}

func (r *Repository) Procedure(code string) (Procedure, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.merged.Procedures[code]
	return p, ok
}

func (r *Repository) Frequencies(airportID string) []Frequency {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.merged.Frequencies[airportID]
}

func (r *Repository) Runways(airportID string) []Runway {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.merged.Runways[airportID]
}

// Snapshot returns a read reference to the whole merged store, for the
// query engine's index builders.
func (r *Repository) Snapshot() MergedStore {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.merged
}

// MORACells returns a read reference to the loaded MORA cell list, for
// the terrain package's grid builder.
func (r *Repository) MORACells() []MORACell {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.moraCells
}
