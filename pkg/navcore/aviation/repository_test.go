package aviation

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/airnav/navcore/pkg/navcore/util"
	"github.com/stretchr/testify/require"
)

// fakeSource is a scripted DataSource used to exercise Repository.Load's
// partial-failure and fatal-failure paths without any network access.
type fakeSource struct {
	tag       string
	fetchErr  error
	parseErr  error
	validErr  error
	raw       []byte
	airportID string
	validity  *ValidityWindow
}

func (f *fakeSource) Tag() string { return f.tag }

func (f *fakeSource) Fetch(ctx context.Context) (FetchResult, error) {
	if f.fetchErr != nil {
		return FetchResult{}, f.fetchErr
	}
	return FetchResult{Raw: f.raw, Validity: f.validity}, nil
}

func (f *fakeSource) Parse(raw []byte) (ParsedStore, FileMetadata, error) {
	if f.parseErr != nil {
		return ParsedStore{}, FileMetadata{}, f.parseErr
	}
	store := newParsedStore()
	if f.airportID != "" {
		store.Airports[f.airportID] = Airport{ID: f.airportID, Source: f.tag}
	}
	return store, FileMetadata{RecordCount: len(store.Airports)}, nil
}

func (f *fakeSource) Validate(p ParsedStore) error { return f.validErr }

func newTestRepository(t *testing.T, auth, fallback DataSource) (*Repository, *Cache) {
	t.Helper()
	cache, err := OpenCache(filepath.Join(t.TempDir(), "repo.sqlite"))
	require.NoError(t, err)
	t.Cleanup(func() { cache.Close() })
	return NewRepository(auth, fallback, nil, cache, nil), cache
}

func TestRepositoryLoadMergesBothSources(t *testing.T) {
	auth := &fakeSource{tag: "auth", airportID: "KJFK"}
	fallback := &fakeSource{tag: "fallback", airportID: "KORD"}
	repo, _ := newTestRepository(t, auth, fallback)

	require.NoError(t, repo.Load(context.Background(), nil))

	_, ok := repo.Airport("KJFK")
	require.True(t, ok)
	_, ok = repo.Airport("KORD")
	require.True(t, ok)

	stats := repo.Stats()
	require.Equal(t, 2, stats.Airports)
	require.False(t, stats.AuthoritativeDegraded)
}

func TestRepositoryLoadReportsProgress(t *testing.T) {
	auth := &fakeSource{tag: "auth", airportID: "KJFK"}
	fallback := &fakeSource{tag: "fallback", airportID: "KORD"}
	repo, _ := newTestRepository(t, auth, fallback)

	var statuses []string
	require.NoError(t, repo.Load(context.Background(), func(status string) {
		statuses = append(statuses, status)
	}))

	require.NotEmpty(t, statuses)
	require.Equal(t, "fetching sources", statuses[0])
	require.Equal(t, "done", statuses[len(statuses)-1])
}

func TestRepositoryLoadDegradesToFallbackWhenAuthoritativeFails(t *testing.T) {
	auth := &fakeSource{tag: "auth", fetchErr: errors.New("network down")}
	fallback := &fakeSource{tag: "fallback", airportID: "KORD"}
	repo, _ := newTestRepository(t, auth, fallback)

	require.NoError(t, repo.Load(context.Background(), nil))

	stats := repo.Stats()
	require.True(t, stats.AuthoritativeDegraded)
	_, ok := repo.Airport("KORD")
	require.True(t, ok)

	dataErrs := repo.Diagnostics().OfKind(util.KindDataError)
	require.NotEmpty(t, dataErrs)
}

func TestRepositoryLoadFailsWhenBothSourcesFail(t *testing.T) {
	auth := &fakeSource{tag: "auth", fetchErr: errors.New("auth down")}
	fallback := &fakeSource{tag: "fallback", fetchErr: errors.New("fallback down")}
	repo, _ := newTestRepository(t, auth, fallback)

	err := repo.Load(context.Background(), nil)
	require.Error(t, err)
	require.NotEmpty(t, repo.Diagnostics().OfKind(util.KindDataError))
}

func TestRepositoryLoadFailsWhenValidateRejects(t *testing.T) {
	auth := &fakeSource{tag: "auth", validErr: errors.New("invalid")}
	fallback := &fakeSource{tag: "fallback", validErr: errors.New("invalid")}
	repo, _ := newTestRepository(t, auth, fallback)

	err := repo.Load(context.Background(), nil)
	require.Error(t, err)
}

func TestRepositoryLoadUsesAuthoritativeValidityWindow(t *testing.T) {
	expiry := time.Now().Add(48 * time.Hour)
	auth := &fakeSource{tag: "auth", airportID: "KJFK", validity: &ValidityWindow{Effective: time.Now(), Expiry: expiry}}
	fallback := &fakeSource{tag: "fallback", airportID: "KORD"}
	repo, _ := newTestRepository(t, auth, fallback)

	require.NoError(t, repo.Load(context.Background(), nil))

	require.True(t, repo.CacheValid(expiry.Add(-time.Hour)))
	require.False(t, repo.CacheValid(expiry.Add(time.Hour)))
}

func TestRepositoryCacheValidFallsBackToDefaultWindowWithoutValidity(t *testing.T) {
	auth := &fakeSource{tag: "auth", airportID: "KJFK"}
	fallback := &fakeSource{tag: "fallback", airportID: "KORD"}
	repo, _ := newTestRepository(t, auth, fallback)

	require.NoError(t, repo.Load(context.Background(), nil))

	require.True(t, repo.CacheValid(time.Now().Add(time.Hour)))
	require.False(t, repo.CacheValid(time.Now().Add(DefaultCacheValidityWindow+time.Hour)))
}

func TestRepositoryLoadFromCacheRestoresState(t *testing.T) {
	auth := &fakeSource{tag: "auth", airportID: "KJFK"}
	fallback := &fakeSource{tag: "fallback", airportID: "KORD"}
	repo, cache := newTestRepository(t, auth, fallback)
	require.NoError(t, repo.Load(context.Background(), nil))

	restored := NewRepository(auth, fallback, nil, cache, nil)
	require.NoError(t, restored.LoadFromCache())

	_, ok := restored.Airport("KJFK")
	require.True(t, ok)
	require.Equal(t, 2, restored.Stats().Airports)
}

func TestRepositoryLoadFromCacheErrorsWithoutPriorSnapshot(t *testing.T) {
	repo, _ := newTestRepository(t, &fakeSource{tag: "auth"}, &fakeSource{tag: "fallback"})
	require.Error(t, repo.LoadFromCache())
}

func TestRepositoryLoadFromCachePurgesCorruptedSnapshot(t *testing.T) {
	auth := &fakeSource{tag: "auth", airportID: "KJFK"}
	fallback := &fakeSource{tag: "fallback", airportID: "KORD"}
	repo, cache := newTestRepository(t, auth, fallback)
	require.NoError(t, repo.Load(context.Background(), nil))

	_, err := cache.db.Exec(`UPDATE snapshots SET indexed_checksum = 'deadbeef' WHERE key = 'current'`)
	require.NoError(t, err)

	restored := NewRepository(auth, fallback, nil, cache, nil)
	require.Error(t, restored.LoadFromCache())

	cacheErrs := restored.Diagnostics().OfKind(util.KindCacheError)
	require.NotEmpty(t, cacheErrs)

	// The corrupted row must be gone, forcing any subsequent
	// LoadFromCache to fail with "no snapshot" rather than re-reading
	// the same corruption.
	_, err = cache.Load(cacheKeyCurrent)
	require.Error(t, err)
	require.False(t, errors.Is(err, ErrChecksumMismatch))
}

func TestRepositoryReindexRebuildsFromRetainedRawBundles(t *testing.T) {
	auth := &fakeSource{tag: "auth", airportID: "KJFK"}
	fallback := &fakeSource{tag: "fallback", airportID: "KORD"}
	repo, _ := newTestRepository(t, auth, fallback)
	require.NoError(t, repo.Load(context.Background(), nil))

	require.NoError(t, repo.Reindex(context.Background()))

	_, ok := repo.Airport("KJFK")
	require.True(t, ok)
	require.Equal(t, 2, repo.Stats().Airports)
}

func TestRepositoryReindexFailsOnRawBundleCorruption(t *testing.T) {
	auth := &fakeSource{tag: "auth", airportID: "KJFK"}
	fallback := &fakeSource{tag: "fallback", airportID: "KORD"}
	repo, cache := newTestRepository(t, auth, fallback)
	require.NoError(t, repo.Load(context.Background(), nil))

	_, err := cache.db.Exec(`UPDATE snapshots SET raw_checksum = 'deadbeef' WHERE key = 'current'`)
	require.NoError(t, err)

	err = repo.Reindex(context.Background())
	require.Error(t, err)
	require.NotEmpty(t, repo.Diagnostics().OfKind(util.KindCacheError))
}

func TestRepositoryClearResetsStateAndCache(t *testing.T) {
	auth := &fakeSource{tag: "auth", airportID: "KJFK"}
	fallback := &fakeSource{tag: "fallback", airportID: "KORD"}
	repo, _ := newTestRepository(t, auth, fallback)
	require.NoError(t, repo.Load(context.Background(), nil))

	require.NoError(t, repo.Clear())

	_, ok := repo.Airport("KJFK")
	require.False(t, ok)
	require.Equal(t, Stats{}, repo.Stats())
	require.Error(t, repo.LoadFromCache())
}
