package telemetry

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func testSnapshot() *Snapshot {
	return &Snapshot{
		Version:     SnapshotVersion,
		RunID:       "run-1",
		RNGSeed:     42,
		WorldWidth:  4096,
		WorldHeight: 4096,
		Tick:        1000,
		Entities: []EntityState{
			{ID: 1, Species: "producer", X: 10, Y: 20, Behavior: "Growing", Health: 10, Age: 3},
			{ID: 2, Species: "herbivore", X: 150, Y: 250, Behavior: "Hunting", Health: 50, Energy: 42.5, Age: 12, Target: 1},
			{ID: 3, Species: "predator", X: 300, Y: 90, Behavior: "Idle", Health: 100, Energy: 80, Age: 40},
		},
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	tests := []struct {
		format Format
		ext    string
	}{
		{FormatJSON, ".json"},
		{FormatMsgpack, ".msgpack"},
	}
	for _, tt := range tests {
		t.Run(string(tt.format), func(t *testing.T) {
			dir := t.TempDir()
			orig := testSnapshot()

			path, err := SaveSnapshot(orig, dir, tt.format)
			if err != nil {
				t.Fatalf("SaveSnapshot: %v", err)
			}
			if filepath.Ext(path) != tt.ext {
				t.Errorf("path %s, want extension %s", path, tt.ext)
			}

			loaded, err := LoadSnapshot(path)
			if err != nil {
				t.Fatalf("LoadSnapshot: %v", err)
			}
			if loaded.Tick != orig.Tick || loaded.RunID != orig.RunID || len(loaded.Entities) != 3 {
				t.Fatalf("header mismatch: %+v", loaded)
			}
			for i := range orig.Entities {
				if loaded.Entities[i] != orig.Entities[i] {
					t.Errorf("entity %d = %+v, want %+v", i, loaded.Entities[i], orig.Entities[i])
				}
			}
		})
	}
}

func TestSnapshotBookmarkName(t *testing.T) {
	snap := testSnapshot()
	snap.Bookmark = &Bookmark{Type: BookmarkExtinction, Tick: 1000}
	path, err := SaveSnapshot(snap, t.TempDir(), FormatJSON)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(filepath.Base(path), "extinction") {
		t.Errorf("bookmark type missing from %s", path)
	}
}

func TestSnapshotCounts(t *testing.T) {
	counts := testSnapshot().Counts()
	if counts["producer"] != 1 || counts["herbivore"] != 1 || counts["predator"] != 1 {
		t.Errorf("Counts = %v", counts)
	}
}

func TestLoadSnapshotErrors(t *testing.T) {
	dir := t.TempDir()
	if _, err := LoadSnapshot(filepath.Join(dir, "missing.json")); err == nil {
		t.Error("expected error for missing file")
	}

	bad := filepath.Join(dir, "bad.json")
	if err := os.WriteFile(bad, []byte(`{"version": 99}`), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadSnapshot(bad); err == nil || !strings.Contains(err.Error(), "version") {
		t.Errorf("LoadSnapshot(version 99) = %v, want version error", err)
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"json", FormatJSON, false},
		{"MSGPACK", FormatMsgpack, false},
		{"", FormatJSON, false},
		{"xml", "", true},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseFormat(%q) = %q, %v", tt.in, got, err)
		}
	}
}
