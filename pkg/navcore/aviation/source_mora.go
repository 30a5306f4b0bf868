package aviation

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
)

// MORACell is one 1x1 degree minimum-off-route-altitude cell, keyed by its
// southwest corner (floor(lat), floor(lon)). Source tags the value's
// origin ("authoritative" or "terrain-derived") as given in the source
// row; MORASource.Parse defaults it to "authoritative".
type MORACell struct {
	SWLat, SWLon int
	FeetMSL      int
	Source       string
}

// MORASource fetches and parses the global MORA cell map. It does not
// implement DataSource (its output is a flat cell slice, not an entity
// ParsedStore) since the MORA grid is consumed directly by the terrain
// package rather than merged with the aviation entity stores; this
// mirrors mmp-vice's own separation of MVA data (pkg/aviation/db.go's
// parseMVAs) from the FAAAirport/Navaid/Fix stores it loads alongside it
// in the same parallel init (mmp-vice's db.go Init, using sync.WaitGroup;
// this module's repository uses errgroup for the equivalent fan-out).
type MORASource struct {
	URL        string
	HTTPClient *http.Client
}

func NewMORASource(url string) *MORASource {
	return &MORASource{URL: url, HTTPClient: &http.Client{Timeout: FetchTimeout}}
}

func (s *MORASource) Tag() string { return "mora" }

func (s *MORASource) Fetch(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("mora: fetch: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("mora: fetch: status %s", resp.Status)
	}
	return io.ReadAll(resp.Body)
}

// Parse reads a "sw_lat,sw_lon,feet_msl,source" CSV (no header) into a
// flat cell list. Malformed rows are skipped rather than aborting the
// whole load, matching the degrade-gracefully posture of the entity
// sources in source_nasr.go/source_ourairports.go.
func (s *MORASource) Parse(raw []byte) ([]MORACell, error) {
	cells := make([]MORACell, 0, 1024)
	sc := bufio.NewScanner(bytes.NewReader(raw))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		parts := strings.Split(line, ",")
		if len(parts) < 3 {
			continue
		}
		lat, err1 := strconv.Atoi(strings.TrimSpace(parts[0]))
		lon, err2 := strconv.Atoi(strings.TrimSpace(parts[1]))
		feet, err3 := strconv.Atoi(strings.TrimSpace(parts[2]))
		if err1 != nil || err2 != nil || err3 != nil {
			continue
		}
		source := "authoritative"
		if len(parts) >= 4 && strings.TrimSpace(parts[3]) != "" {
			source = strings.TrimSpace(parts[3])
		}
		cells = append(cells, MORACell{SWLat: lat, SWLon: lon, FeetMSL: feet, Source: source})
	}
	if len(cells) == 0 {
		return nil, fmt.Errorf("mora: parsed cell list is empty")
	}
	return cells, nil
}
