package aviation

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/airnav/navcore/pkg/navcore/geo"
)

// NASRSource is the authoritative data source: the FAA's 28-day NASR
// subscription, re-expressed here as CSV extracts (FIX.csv, NAV.csv,
// AWY.csv, APT.csv) matching the file grouping of the FAA's own NASR
// distribution (grounded on unklstewy-ads-bscope's NASR importer, which
// imports the same four files in the same order: airports, fixes,
// navaids, airways). The exact byte-level record layout is a pluggable,
// source-specific concern; this source reads a simplified CSV rendering
// of the same fields.
type NASRSource struct {
	BaseURL    string // e.g. "https://nfdc.faa.gov/nasr" (one URL per file, joined below)
	HTTPClient *http.Client
}

func NewNASRSource(baseURL string) *NASRSource {
	return &NASRSource{
		BaseURL:    baseURL,
		HTTPClient: &http.Client{Timeout: FetchTimeout},
	}
}

func (s *NASRSource) Tag() string { return "nasr" }

// nasrBundle is the raw-source-bundle shape retained for reindexing: the
// four NASR files concatenated with a simple length-prefixed framing so
// Parse can split them back apart without re-fetching.
type nasrBundle struct {
	Airports []byte
	Fixes    []byte
	Navaids  []byte
	Airways  []byte
}

func (s *NASRSource) Fetch(ctx context.Context) (FetchResult, error) {
	get := func(name string) ([]byte, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.BaseURL+"/"+name, nil)
		if err != nil {
			return nil, err
		}
		resp, err := s.HTTPClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("nasr: fetch %s: %w", name, err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("nasr: fetch %s: status %s", name, resp.Status)
		}
		return io.ReadAll(resp.Body)
	}

	var b nasrBundle
	var err error
	if b.Airports, err = get("APT.csv"); err != nil {
		return FetchResult{}, err
	}
	if b.Fixes, err = get("FIX.csv"); err != nil {
		return FetchResult{}, err
	}
	if b.Navaids, err = get("NAV.csv"); err != nil {
		return FetchResult{}, err
	}
	if b.Airways, err = get("AWY.csv"); err != nil {
		return FetchResult{}, err
	}

	raw := encodeBundle(b)

	// NASR publishes 28-day subscription cycles; absent a parsed
	// effective date from the data itself, assume a cycle starting now.
	now := time.Now()
	validity := &ValidityWindow{Effective: now, Expiry: now.Add(28 * 24 * time.Hour)}

	return FetchResult{Raw: raw, Validity: validity}, nil
}

func (s *NASRSource) Parse(raw []byte) (ParsedStore, FileMetadata, error) {
	start := time.Now()
	b, err := decodeBundle(raw)
	if err != nil {
		return ParsedStore{}, FileMetadata{}, err
	}

	store := newParsedStore()
	recordCount := 0

	mungeCSV(bytes.NewReader(b.Airports), []string{"icao", "name", "lat", "lon", "elevation_ft", "municipality", "country", "type"},
		func(f []string) {
			lat, lon := atofOrZero(f[2]), atofOrZero(f[3])
			elev, _ := strconv.Atoi(f[4])
			store.Airports[f[0]] = Airport{
				ID: f[0], Name: f[1], Location: geo.NewPoint(lat, lon),
				ElevationFt: elev, Municipality: f[5], Country: f[6],
				Type: AirportType(f[7]), Source: "nasr",
			}
			recordCount++
		})

	mungeCSV(bytes.NewReader(b.Fixes), []string{"id", "lat", "lon", "reporting", "state", "country"},
		func(f []string) {
			store.Fixes[f[0]] = Fix{
				ID: f[0], Location: geo.NewPoint(atofOrZero(f[1]), atofOrZero(f[2])),
				IsReportingFix: f[3] == "Y" || f[3] == "true", State: f[4], Country: f[5],
			}
			recordCount++
		})

	mungeCSV(bytes.NewReader(b.Navaids), []string{"id", "name", "lat", "lon", "type", "freq", "country"},
		func(f []string) {
			store.Navaids[f[0]] = Navaid{
				ID: f[0], Name: f[1], Location: geo.NewPoint(atofOrZero(f[2]), atofOrZero(f[3])),
				Type: f[4], Frequency: atofOrZero(f[5]), Country: f[6],
			}
			recordCount++
		})

	mungeCSV(bytes.NewReader(b.Airways), []string{"id", "fixes"},
		func(f []string) {
			fixes := strings.Split(f[1], "|")
			store.Airways[f[0]] = Airway{ID: f[0], FixSequence: fixes}
			recordCount++
		})

	return store, FileMetadata{RecordCount: recordCount, Bytes: len(raw), LoadTime: time.Since(start)}, nil
}

func (s *NASRSource) Validate(p ParsedStore) error {
	if len(p.Fixes) == 0 && len(p.Navaids) == 0 && len(p.Airports) == 0 {
		return fmt.Errorf("nasr: parsed store is empty")
	}
	return nil
}

// mungeCSV reads a header row followed by data rows, projecting each row
// onto the requested field names in order and invoking callback with the
// projected values. Grounded directly on mmp-vice's
// pkg/aviation/db.go:mungeCSV, generalized from a panic-on-error helper
// (fine for mmp-vice's embedded, build-time-verified resources) to one
// that is tolerant of a single source's malformed rows, since this module
// must degrade gracefully on network-fetched data.
func mungeCSV(r io.Reader, fields []string, callback func([]string)) {
	cr := csv.NewReader(r)
	cr.ReuseRecord = true

	header, err := cr.Read()
	if err != nil {
		return
	}
	indices := make([]int, 0, len(fields))
	for _, f := range fields {
		idx := -1
		for hi, h := range header {
			if strings.TrimSpace(h) == f {
				idx = hi
				break
			}
		}
		indices = append(indices, idx)
	}

	for {
		record, err := cr.Read()
		if err == io.EOF {
			return
		} else if err != nil {
			continue
		}
		row := make([]string, len(indices))
		ok := true
		for i, idx := range indices {
			if idx < 0 || idx >= len(record) {
				ok = false
				break
			}
			row[i] = record[idx]
		}
		if ok {
			callback(row)
		}
	}
}

func atofOrZero(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return v
}

func encodeBundle(b nasrBundle) []byte {
	var buf bytes.Buffer
	for _, part := range [][]byte{b.Airports, b.Fixes, b.Navaids, b.Airways} {
		writeUint32(&buf, uint32(len(part)))
		buf.Write(part)
	}
	return buf.Bytes()
}

func decodeBundle(raw []byte) (nasrBundle, error) {
	var b nasrBundle
	parts := make([][]byte, 0, 4)
	off := 0
	for i := 0; i < 4; i++ {
		if off+4 > len(raw) {
			return nasrBundle{}, fmt.Errorf("nasr: truncated bundle")
		}
		n := readUint32(raw[off:])
		off += 4
		if off+int(n) > len(raw) {
			return nasrBundle{}, fmt.Errorf("nasr: truncated bundle part")
		}
		parts = append(parts, raw[off:off+int(n)])
		off += int(n)
	}
	b.Airports, b.Fixes, b.Navaids, b.Airways = parts[0], parts[1], parts[2], parts[3]
	return b, nil
}

func writeUint32(buf *bytes.Buffer, v uint32) {
	buf.WriteByte(byte(v >> 24))
	buf.WriteByte(byte(v >> 16))
	buf.WriteByte(byte(v >> 8))
	buf.WriteByte(byte(v))
}

func readUint32(b []byte) uint32 {
	return uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
}
