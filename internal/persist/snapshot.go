package persist

import (
	"fmt"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/mstamatakis/drachma/internal/store"
)

// snapshotVersion guards against decoding archives written by an
// incompatible layout.
const snapshotVersion = 1

// Snapshot is the binary archive payload used for backups.
type Snapshot struct {
	Version   int                 `msgpack:"version"`
	CreatedAt time.Time           `msgpack:"created_at"`
	Tables    []store.TableBuffer `msgpack:"tables"`
}

// EncodeSnapshot packs exported table buffers into a compact binary blob.
func EncodeSnapshot(buffers []store.TableBuffer) ([]byte, error) {
	snap := Snapshot{
		Version:   snapshotVersion,
		CreatedAt: time.Now().UTC(),
		Tables:    buffers,
	}
	data, err := msgpack.Marshal(&snap)
	if err != nil {
		return nil, fmt.Errorf("failed to encode snapshot: %w", err)
	}
	return data, nil
}

// DecodeSnapshot unpacks a blob produced by EncodeSnapshot.
func DecodeSnapshot(data []byte) ([]store.TableBuffer, error) {
	var snap Snapshot
	if err := msgpack.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	if snap.Version != snapshotVersion {
		return nil, fmt.Errorf("unsupported snapshot version %d", snap.Version)
	}
	return snap.Tables, nil
}
