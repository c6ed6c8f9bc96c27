package eventstore

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/icn-network/icn-node/internal/codes"
)

// File is a JSON-lines append-only log persisted to disk, replayed fully
// into memory on open. Mirrors the append-then-read-back shape of
// _examples/orbas1-Synnergy/synnergy-network/core/ledger.go's WAL, narrowed
// to pure event append (no compaction: the mana ledger and governance
// engine both want the full event history retained, not pruned).
type File[E any] struct {
	mu     sync.Mutex
	f      *os.File
	w      *bufio.Writer
	events []E
}

// OpenFile opens (creating if absent) a JSON-lines log at path and replays
// its contents.
func OpenFile[E any](path string) (*File[E], error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, codes.Wrap(codes.Storage, "mkdir eventstore dir", err)
	}
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, codes.Wrap(codes.Storage, "open eventstore file", err)
	}

	fs := &File[E]{f: f}
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 64*1024), 16*1024*1024)
	for sc.Scan() {
		line := sc.Bytes()
		if len(line) == 0 {
			continue
		}
		var e E
		if err := json.Unmarshal(line, &e); err != nil {
			f.Close()
			return nil, codes.Wrap(codes.Storage, "eventstore: corrupt record", err)
		}
		fs.events = append(fs.events, e)
	}
	if err := sc.Err(); err != nil {
		f.Close()
		return nil, codes.Wrap(codes.Storage, "eventstore: scan failed", err)
	}
	if _, err := f.Seek(0, os.SEEK_END); err != nil {
		f.Close()
		return nil, codes.Wrap(codes.Storage, "eventstore: seek end", err)
	}
	fs.w = bufio.NewWriter(f)
	return fs, nil
}

func (fs *File[E]) Append(_ context.Context, e E) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	line, err := json.Marshal(e)
	if err != nil {
		return codes.Wrap(codes.Storage, "encode event", err)
	}
	if _, err := fs.w.Write(line); err != nil {
		return codes.Wrap(codes.Storage, "write event", err)
	}
	if err := fs.w.WriteByte('\n'); err != nil {
		return codes.Wrap(codes.Storage, "write event newline", err)
	}
	if err := fs.w.Flush(); err != nil {
		return codes.Wrap(codes.Storage, "flush eventstore", err)
	}
	if err := fs.f.Sync(); err != nil {
		return codes.Wrap(codes.Storage, "sync eventstore", err)
	}
	fs.events = append(fs.events, e)
	return nil
}

func (fs *File[E]) Query(_ context.Context) ([]E, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	out := make([]E, len(fs.events))
	copy(out, fs.events)
	return out, nil
}

func (fs *File[E]) Close() error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	if err := fs.w.Flush(); err != nil {
		return codes.Wrap(codes.Storage, "flush eventstore on close", err)
	}
	return fs.f.Close()
}

var _ Store[int] = (*File[int])(nil)
