package telemetry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/vmihailenco/msgpack/v5"
)

// SnapshotVersion is incremented when the format changes.
const SnapshotVersion = 1

// Format selects the snapshot encoding.
type Format string

const (
	FormatJSON    Format = "json"
	FormatMsgpack Format = "msgpack"
)

// ParseFormat validates a configured snapshot format.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatJSON, FormatMsgpack:
		return f, nil
	case "":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("unknown snapshot format %q", s)
	}
}

// Snapshot holds the complete world state at one tick.
type Snapshot struct {
	Version int    `json:"version" msgpack:"version"`
	RunID   string `json:"run_id" msgpack:"run_id"`
	RNGSeed int64  `json:"rng_seed" msgpack:"rng_seed"`

	WorldWidth  float32 `json:"world_width" msgpack:"world_width"`
	WorldHeight float32 `json:"world_height" msgpack:"world_height"`

	Tick int32 `json:"tick" msgpack:"tick"`

	Entities []EntityState `json:"entities" msgpack:"entities"`

	Bookmark *Bookmark `json:"bookmark,omitempty" msgpack:"bookmark,omitempty"`
}

// EntityState holds one entity's observable state.
type EntityState struct {
	ID       uint32  `json:"id" msgpack:"id"`
	Species  string  `json:"species" msgpack:"species"`
	X        float32 `json:"x" msgpack:"x"`
	Y        float32 `json:"y" msgpack:"y"`
	Behavior string  `json:"behavior" msgpack:"behavior"`
	Health   float32 `json:"health" msgpack:"health"`
	Energy   float32 `json:"energy,omitempty" msgpack:"energy,omitempty"`
	Age      float32 `json:"age" msgpack:"age"`
	Target   uint32  `json:"target,omitempty" msgpack:"target,omitempty"` // organism ID of prey or mate
}

// Counts returns the number of entities per species name.
func (s *Snapshot) Counts() map[string]int {
	counts := make(map[string]int)
	for _, e := range s.Entities {
		counts[e.Species]++
	}
	return counts
}

// SaveSnapshot writes a snapshot to dir in the given format.
// Returns the filepath where it was saved.
func SaveSnapshot(snapshot *Snapshot, dir string, format Format) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create snapshot dir: %w", err)
	}

	name := fmt.Sprintf("snapshot_%d", snapshot.Tick)
	if snapshot.Bookmark != nil {
		name = fmt.Sprintf("snapshot_%d_%s", snapshot.Tick, strings.ReplaceAll(string(snapshot.Bookmark.Type), " ", "_"))
	}

	var (
		data []byte
		err  error
	)
	switch format {
	case FormatMsgpack:
		name += ".msgpack"
		data, err = msgpack.Marshal(snapshot)
	default:
		name += ".json"
		data, err = json.MarshalIndent(snapshot, "", "  ")
	}
	if err != nil {
		return "", fmt.Errorf("marshal snapshot: %w", err)
	}

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("write snapshot: %w", err)
	}
	return path, nil
}

// LoadSnapshot reads a snapshot from disk, picking the decoder by extension.
func LoadSnapshot(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}

	var snapshot Snapshot
	if filepath.Ext(path) == ".msgpack" {
		err = msgpack.Unmarshal(data, &snapshot)
	} else {
		err = json.Unmarshal(data, &snapshot)
	}
	if err != nil {
		return nil, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	if snapshot.Version != SnapshotVersion {
		return nil, fmt.Errorf("snapshot version %d, want %d", snapshot.Version, SnapshotVersion)
	}
	return &snapshot, nil
}
