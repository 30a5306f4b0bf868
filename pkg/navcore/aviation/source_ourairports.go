package aviation

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/airnav/navcore/pkg/navcore/geo"
)

// OurAirportsSource is the fallback data source: a
// world-wide, loosely-maintained airport CSV extract that fills in
// identifiers the authoritative source is missing. Grounded directly on
// mmp-vice's pkg/aviation/db.go:parseAirports, which reads the same
// ourairports.com "airports.csv" column layout (gps_code/local_code
// preferred-identifier selection, "type == closed" filtering, US-takes-
// priority-on-conflict merge rule) via its mungeCSV helper; this source
// reuses the same field-projection technique (see mungeCSV in
// source_nasr.go) against a CSV fetched over HTTP rather than an embedded
// resource.
type OurAirportsSource struct {
	URL        string
	HTTPClient *http.Client
}

func NewOurAirportsSource(url string) *OurAirportsSource {
	return &OurAirportsSource{URL: url, HTTPClient: &http.Client{Timeout: FetchTimeout}}
}

func (s *OurAirportsSource) Tag() string { return "ourairports" }

func (s *OurAirportsSource) Fetch(ctx context.Context) (FetchResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL, nil)
	if err != nil {
		return FetchResult{}, err
	}
	resp, err := s.HTTPClient.Do(req)
	if err != nil {
		return FetchResult{}, fmt.Errorf("ourairports: fetch: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return FetchResult{}, fmt.Errorf("ourairports: fetch: status %s", resp.Status)
	}
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return FetchResult{}, err
	}
	// This extract carries no explicit effective/expiry dates; treat it
	// as perpetually valid until the authoritative source's window
	// forces a reindex.
	return FetchResult{Raw: raw}, nil
}

func (s *OurAirportsSource) Parse(raw []byte) (ParsedStore, FileMetadata, error) {
	start := time.Now()
	store := newParsedStore()
	recordCount := 0

	mungeCSV(bytes.NewReader(raw),
		[]string{"latitude_deg", "longitude_deg", "elevation_ft", "gps_code", "local_code", "name", "iso_country", "type"},
		func(f []string) {
			if f[7] == "closed" {
				return
			}

			id := f[3]
			if id == "" {
				id = f[4]
			}
			if id == "" || (len(id) != 3 && len(id) != 4) {
				return
			}

			elev := 0
			if f[2] != "" && f[2] != "NA" {
				elev = int(atofOrZero(f[2]))
			}

			ap := Airport{
				ID:          id,
				Name:        f[5],
				Country:     strings.ToUpper(f[6]),
				Location:    geo.NewPoint(atofOrZero(f[0]), atofOrZero(f[1])),
				ElevationFt: elev,
				Type:        airportTypeFromOurAirports(f[7]),
				Source:      "ourairports",
			}

			// US-based takes priority in case of a duplicate identifier,
			// matching mmp-vice's merge rule for this same source.
			if existing, ok := store.Airports[id]; !ok || ap.Country == "US" {
				if !ok || existing.Country != "US" || ap.Country == "US" {
					store.Airports[id] = ap
				}
			}
			recordCount++
		})

	return store, FileMetadata{RecordCount: recordCount, Bytes: len(raw), LoadTime: time.Since(start)}, nil
}

func (s *OurAirportsSource) Validate(p ParsedStore) error {
	if len(p.Airports) == 0 {
		return fmt.Errorf("ourairports: parsed store has no airports")
	}
	return nil
}

func airportTypeFromOurAirports(t string) AirportType {
	switch t {
	case "large_airport":
		return AirportLarge
	case "medium_airport":
		return AirportMedium
	case "small_airport":
		return AirportSmall
	case "heliport":
		return AirportHeliport
	case "seaplane_base":
		return AirportSeaplane
	case "closed":
		return AirportClosed
	default:
		return AirportSmall
	}
}
