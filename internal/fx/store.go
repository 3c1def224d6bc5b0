package fx

import (
    "context"
    "encoding/json"
    "os"
)

// Record is the persisted last-known-good rate. At is epoch milliseconds of
// the refresh that produced it.
type Record struct {
    Rate float64 `json:"rate"`
    At   int64   `json:"at"`
}

// A Store durably holds a single Record so a fresh process can serve a rate
// before making any network call. Absence or corruption of the record is
// "no cached rate", never an error.
type Store interface {
    Load(ctx context.Context) (Record, bool)
    Save(ctx context.Context, rec Record) error
}

// FileStore keeps the record as a small JSON file.
type FileStore struct {
    Path string
}

func (s *FileStore) Load(_ context.Context) (Record, bool) {
    b, err := os.ReadFile(s.Path)
    if err != nil {
        return Record{}, false
    }
    var rec Record
    if err := json.Unmarshal(b, &rec); err != nil || rec.Rate <= 0 {
        return Record{}, false
    }
    return rec, true
}

func (s *FileStore) Save(_ context.Context, rec Record) error {
    b, err := json.Marshal(rec)
    if err != nil {
        return err
    }
    return os.WriteFile(s.Path, b, 0o644)
}
