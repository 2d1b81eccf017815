package ledger

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// File keeps every entry in one JSON array on disk. Each Record reads,
// appends and rewrites the whole file under a mutex; fine for a scoreboard,
// not for a high-volume log.
type File struct {
	mu   sync.Mutex
	path string
}

func NewFile(path string) (*File, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, errors.Wrapf(err, "mkdir %s", dir)
		}
	}
	return &File{path: path}, nil
}

func (f *File) Record(_ context.Context, e Entry) error {
	if e.Time.IsZero() {
		e.Time = time.Now()
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	all, err := f.readLocked()
	if err != nil {
		return err
	}
	all = append(all, e)
	b, err := json.MarshalIndent(all, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encode scoreboard")
	}

	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return errors.Wrap(err, "write scoreboard")
	}
	return errors.Wrap(os.Rename(tmp, f.path), "replace scoreboard")
}

func (f *File) Recent(_ context.Context, limit int) ([]Entry, error) {
	f.mu.Lock()
	all, err := f.readLocked()
	f.mu.Unlock()
	if err != nil {
		return nil, err
	}

	limit = clampLimit(limit)
	out := make([]Entry, 0, limit)
	for i := len(all) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, all[i])
	}
	return out, nil
}

func (f *File) Close() error { return nil }

func (f *File) readLocked() ([]Entry, error) {
	b, err := os.ReadFile(f.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "read scoreboard")
	}
	if len(b) == 0 {
		return nil, nil
	}
	var all []Entry
	if err := json.Unmarshal(b, &all); err != nil {
		return nil, errors.Wrapf(err, "decode scoreboard %s", f.path)
	}
	return all, nil
}
