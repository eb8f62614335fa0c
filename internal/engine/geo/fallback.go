package geo

import (
	"embed"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
)

//go:embed geodata/fallback_cities.csv
var fallbackFS embed.FS

var embeddedFallback = mustLoadEmbeddedFallback()

func mustLoadEmbeddedFallback() map[string]orb.Point {
	f, err := fallbackFS.Open("geodata/fallback_cities.csv")
	if err != nil {
		panic(fmt.Sprintf("reading embedded fallback table: %v", err))
	}
	defer f.Close()

	table, err := ReadFallbackCSV(f)
	if err != nil {
		panic(fmt.Sprintf("parsing embedded fallback table: %v", err))
	}
	return table
}

// LoadFallbackFile reads an id,lat,lon CSV from disk.
func LoadFallbackFile(path string) (map[string]orb.Point, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening fallback table: %w", err)
	}
	defer f.Close()
	return ReadFallbackCSV(f)
}

// ReadFallbackCSV parses a CSV with at least the columns id, lat and lon.
// Rows with unparsable or out-of-range coordinates are skipped.
func ReadFallbackCSV(r io.Reader) (map[string]orb.Point, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("reading CSV header: %w", err)
	}

	cols := make(map[string]int)
	for i, col := range header {
		cols[strings.ToLower(strings.TrimSpace(col))] = i
	}
	for _, col := range []string{"id", "lat", "lon"} {
		if _, ok := cols[col]; !ok {
			return nil, fmt.Errorf("missing required column: %s", col)
		}
	}

	table := make(map[string]orb.Point)
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading CSV row: %w", err)
		}
		if len(record) <= cols["id"] || len(record) <= cols["lat"] || len(record) <= cols["lon"] {
			continue
		}

		id := strings.TrimSpace(record[cols["id"]])
		lat, errLat := strconv.ParseFloat(strings.TrimSpace(record[cols["lat"]]), 64)
		lon, errLon := strconv.ParseFloat(strings.TrimSpace(record[cols["lon"]]), 64)
		if id == "" || errLat != nil || errLon != nil || !ValidCoordinate(lat, lon) {
			continue
		}
		table[id] = orb.Point{lon, lat}
	}
	return table, nil
}

// WriteFallbackCSV writes rows in the format ReadFallbackCSV accepts.
func WriteFallbackCSV(w io.Writer, rows []FallbackRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"id", "name", "state", "lat", "lon"}); err != nil {
		return err
	}
	for _, r := range rows {
		err := cw.Write([]string{
			r.ID, r.Name, r.State,
			strconv.FormatFloat(r.Point.Lat(), 'f', 4, 64),
			strconv.FormatFloat(r.Point.Lon(), 'f', 4, 64),
		})
		if err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// FallbackRow is one line of a fallback table.
type FallbackRow struct {
	ID    string
	Name  string
	State string
	Point orb.Point
}
