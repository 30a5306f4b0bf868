package aviation

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// GCSClient is a minimal Google Cloud Storage object-download client,
// grounded directly on mmp-vice's util/gcs.go GCSClient: an
// unauthenticated client when no service-account credentials are
// supplied, or an OAuth2 JWT-authenticated one (read-only storage
// scope) when they are. This lets the authoritative source be fetched
// from a private bucket mirror instead of the public NASR endpoint
// without changing DataSource.Fetch's contract.
type GCSClient struct {
	httpClient *http.Client
	bucket     string
}

// NewGCSClient builds a client for bucket. credentials is optional
// service-account JSON; when nil the client makes unauthenticated
// requests, which works for any publicly readable bucket.
func NewGCSClient(ctx context.Context, bucket string, credentials []byte, timeout time.Duration) (*GCSClient, error) {
	if bucket == "" {
		return nil, fmt.Errorf("gcs: bucket name cannot be empty")
	}
	if timeout == 0 {
		timeout = FetchTimeout
	}

	if credentials == nil {
		return &GCSClient{httpClient: &http.Client{Timeout: timeout}, bucket: bucket}, nil
	}

	jwtConfig, err := google.JWTConfigFromJSON(credentials, "https://www.googleapis.com/auth/devstorage.read_only")
	if err != nil {
		return nil, fmt.Errorf("gcs: parsing service account credentials: %w", err)
	}
	httpClient := oauth2.NewClient(ctx, jwtConfig.TokenSource(ctx))
	httpClient.Timeout = timeout

	return &GCSClient{httpClient: httpClient, bucket: bucket}, nil
}

// GetReader downloads objectName from the bucket via the GCS JSON API's
// media endpoint.
func (g *GCSClient) GetReader(ctx context.Context, objectName string) (io.ReadCloser, error) {
	apiURL := fmt.Sprintf("https://storage.googleapis.com/storage/v1/b/%s/o/%s?alt=media",
		g.bucket, url.QueryEscape(objectName))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return nil, fmt.Errorf("gcs: building request: %w", err)
	}
	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gcs: fetching %s: %w", objectName, err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("gcs: fetching %s from %s: status %d", objectName, g.bucket, resp.StatusCode)
	}
	return resp.Body, nil
}

// GCSNASRSource adapts GCSClient to DataSource by fetching the same
// four NASR-style CSV objects NASRSource fetches over plain HTTP, then
// reusing NASRSource's Parse/Validate. Selected when a bucket mirror is
// configured instead of the public NASR endpoint.
type GCSNASRSource struct {
	Client  *GCSClient
	Objects [4]string // airports, fixes, navaids, airways object names, same order as nasrBundle
	inner   NASRSource
}

func NewGCSNASRSource(client *GCSClient, objects [4]string) *GCSNASRSource {
	return &GCSNASRSource{Client: client, Objects: objects}
}

func (s *GCSNASRSource) Tag() string { return s.inner.Tag() }

func (s *GCSNASRSource) Fetch(ctx context.Context) (FetchResult, error) {
	var bundle nasrBundle
	fields := []*[]byte{&bundle.Airports, &bundle.Fixes, &bundle.Navaids, &bundle.Airways}
	for i, name := range s.Objects {
		r, err := s.Client.GetReader(ctx, name)
		if err != nil {
			return FetchResult{}, fmt.Errorf("gcs nasr source: %s: %w", name, err)
		}
		b, err := io.ReadAll(r)
		r.Close()
		if err != nil {
			return FetchResult{}, fmt.Errorf("gcs nasr source: reading %s: %w", name, err)
		}
		*fields[i] = b
	}
	return FetchResult{Raw: encodeBundle(bundle)}, nil
}

func (s *GCSNASRSource) Parse(raw []byte) (ParsedStore, FileMetadata, error) {
	return s.inner.Parse(raw)
}

func (s *GCSNASRSource) Validate(p ParsedStore) error {
	return s.inner.Validate(p)
}
