package series

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestReadCSVWithHeader(t *testing.T) {
	in := "open_time,open,high,low,close,volume\n" +
		"1000,100,101,99,100.5,250\n" +
		"2000,100.5,102,100,101,300\n"

	bars, err := ReadCSV(strings.NewReader(in))
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}
	if len(bars) != 2 {
		t.Fatalf("got %d bars, want 2", len(bars))
	}
	if bars[0].OpenTime != 1000 || bars[0].High != 101 || bars[0].Volume != 250 {
		t.Errorf("first bar parsed wrong: %+v", bars[0])
	}
	if bars[1].Close != 101 {
		t.Errorf("second bar close = %g, want 101", bars[1].Close)
	}
}

func TestReadCSVWithoutHeader(t *testing.T) {
	in := "1000,100,101,99,100.5,250\n"

	bars, err := ReadCSV(strings.NewReader(in))
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}
	if len(bars) != 1 {
		t.Fatalf("got %d bars, want 1", len(bars))
	}
}

func TestReadCSVBadField(t *testing.T) {
	in := "open_time,open,high,low,close,volume\n" +
		"1000,100,abc,99,100.5,250\n"

	if _, err := ReadCSV(strings.NewReader(in)); err == nil {
		t.Fatal("expected error for non-numeric field")
	}
}

func TestReadCSVWrongColumnCount(t *testing.T) {
	in := "1000,100,101,99\n"

	if _, err := ReadCSV(strings.NewReader(in)); err == nil {
		t.Fatal("expected error for short record")
	}
}

func TestLoadCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bars.csv")
	content := "open_time,open,high,low,close,volume\n" +
		"1000,100,101,99,100.5,250\n" +
		"2000,100.5,102,100,101,300\n" +
		"3000,101,103,100.5,102,100\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	s, err := LoadCSV(path)
	if err != nil {
		t.Fatalf("LoadCSV: %v", err)
	}
	if s.Len() != 3 {
		t.Fatalf("Len = %d, want 3", s.Len())
	}

	if _, err := LoadCSV(filepath.Join(t.TempDir(), "missing.csv")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
