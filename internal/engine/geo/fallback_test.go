package geo

import (
	"bytes"
	"strings"
	"testing"

	"github.com/paulmach/orb"
)

func TestEmbeddedFallbackTable(t *testing.T) {
	for _, id := range []string{"NYC", "LAX", "CHI", "ANC", "HNL"} {
		p, ok := embeddedFallback[id]
		if !ok {
			t.Errorf("%s missing from embedded table", id)
			continue
		}
		if _, ok := UnitProject(p); !ok {
			t.Errorf("%s at %v does not project", id, p)
		}
	}
}

func TestReadFallbackCSV(t *testing.T) {
	in := "ID,Lat,Lon,name\n" +
		"AAA,40.5,-100.25,Alpha\n" +
		"BAD,abc,-100,Broken\n" +
		"OUT,95,-100,Out of range\n" +
		",40,-100,No id\n" +
		"SHORT,40\n" +
		"BBB, 35 , -90 ,Beta\n"
	table, err := ReadFallbackCSV(strings.NewReader(in))
	if err != nil {
		t.Fatalf("ReadFallbackCSV: %v", err)
	}
	if len(table) != 2 {
		t.Fatalf("rows = %d, want 2: %v", len(table), table)
	}
	if table["AAA"] != (orb.Point{-100.25, 40.5}) {
		t.Errorf("AAA = %v", table["AAA"])
	}
	if table["BBB"] != (orb.Point{-90, 35}) {
		t.Errorf("BBB = %v", table["BBB"])
	}
}

func TestReadFallbackCSVMissingColumn(t *testing.T) {
	_, err := ReadFallbackCSV(strings.NewReader("id,lat\nX,1\n"))
	if err == nil || !strings.Contains(err.Error(), "lon") {
		t.Errorf("err = %v, want missing lon", err)
	}
}

func TestWriteFallbackCSVIsReadable(t *testing.T) {
	rows := []FallbackRow{
		{ID: "BOI", Name: "Boise", State: "ID", Point: orb.Point{-116.2023, 43.615}},
		{ID: "CDA", Name: "Coeur d'Alene, North", State: "ID", Point: orb.Point{-116.78, 47.68}},
	}
	var buf bytes.Buffer
	if err := WriteFallbackCSV(&buf, rows); err != nil {
		t.Fatalf("WriteFallbackCSV: %v", err)
	}
	table, err := ReadFallbackCSV(&buf)
	if err != nil {
		t.Fatalf("ReadFallbackCSV: %v", err)
	}
	if table["CDA"] != (orb.Point{-116.78, 47.68}) {
		t.Errorf("CDA = %v", table["CDA"])
	}

	r := NewResolver(table)
	if r.Fallback["BOI"] != (orb.Point{-116.2023, 43.615}) {
		t.Error("extra table not merged into resolver")
	}
	if _, ok := r.Fallback["NYC"]; !ok {
		t.Error("embedded entries lost when merging")
	}
}
