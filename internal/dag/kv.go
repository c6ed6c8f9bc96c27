package dag

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/sirupsen/logrus"
	"go.uber.org/multierr"

	icid "github.com/icn-network/icn-node/internal/cid"
	"github.com/icn-network/icn-node/internal/codes"
)

// walRecord mirrors the teacher's WAL entry shape in
// core/ledger.go (op tag + JSON payload, one record per line), adapted from
// block-chain append entries to DAG store mutations.
type walRecord struct {
	Op       string  `json:"op"` // "put", "delete", "ttl", "pin", "unpin"
	Block    *Block  `json:"block,omitempty"`
	CID      string  `json:"cid,omitempty"`
	Deadline *uint64 `json:"deadline,omitempty"`
}

// KVStore is a persistent, write-ahead-logged DAG store: every mutation is
// appended as a JSON line to a WAL file before the in-memory index is
// updated, so a crash mid-write never corrupts already-committed state.
// Grounded on the append-then-apply structure of
// _examples/orbas1-Synnergy/synnergy-network/core/ledger.go's AppendBlock/
// applyBlock split.
type KVStore struct {
	mu   sync.Mutex
	path string
	f    *os.File
	w    *bufio.Writer
	mem  *Memory
}

// OpenKVStore opens (creating if absent) a WAL file at path and replays it
// into an in-memory index.
func OpenKVStore(path string) (*KVStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, codes.Wrap(codes.Storage, "mkdir dag wal dir", err)
	}
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, codes.Wrap(codes.Storage, "open dag wal", err)
	}
	mem := NewMemory()
	if err := replayWAL(f, mem); err != nil {
		f.Close()
		return nil, err
	}
	if _, err := f.Seek(0, os.SEEK_END); err != nil {
		f.Close()
		return nil, codes.Wrap(codes.Storage, "seek dag wal end", err)
	}
	return &KVStore{
		path: path,
		f:    f,
		w:    bufio.NewWriter(f),
		mem:  mem,
	}, nil
}

func replayWAL(f *os.File, mem *Memory) error {
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 64*1024), 16*1024*1024)
	for sc.Scan() {
		line := sc.Bytes()
		if len(line) == 0 {
			continue
		}
		var rec walRecord
		if err := json.Unmarshal(line, &rec); err != nil {
			return codes.Wrap(codes.Storage, "dag wal: corrupt record", err)
		}
		if err := applyRecord(mem, rec); err != nil {
			return err
		}
	}
	return sc.Err()
}

func applyRecord(mem *Memory, rec walRecord) error {
	switch rec.Op {
	case "put":
		return mem.Put(*rec.Block)
	case "delete":
		c, err := icid.ParseString(rec.CID)
		if err != nil {
			return err
		}
		return mem.Delete(c)
	case "ttl":
		c, err := icid.ParseString(rec.CID)
		if err != nil {
			return err
		}
		return mem.SetTTL(c, rec.Deadline)
	case "pin":
		c, err := icid.ParseString(rec.CID)
		if err != nil {
			return err
		}
		return mem.PinBlock(c)
	case "unpin":
		c, err := icid.ParseString(rec.CID)
		if err != nil {
			return err
		}
		return mem.UnpinBlock(c)
	default:
		return codes.New(codes.Storage, fmt.Sprintf("dag wal: unknown op %q", rec.Op))
	}
}

func (s *KVStore) append(rec walRecord) error {
	line, err := json.Marshal(rec)
	if err != nil {
		return codes.Wrap(codes.Storage, "encode dag wal record", err)
	}
	if _, err := s.w.Write(line); err != nil {
		return codes.Wrap(codes.Storage, "write dag wal record", err)
	}
	if err := s.w.WriteByte('\n'); err != nil {
		return codes.Wrap(codes.Storage, "write dag wal newline", err)
	}
	if err := s.w.Flush(); err != nil {
		return codes.Wrap(codes.Storage, "flush dag wal", err)
	}
	return s.f.Sync()
}

func (s *KVStore) Put(ctx context.Context, b Block) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if ok, _ := s.mem.Contains(b.CID); ok {
		return nil
	}
	if err := s.append(walRecord{Op: "put", Block: &b}); err != nil {
		return err
	}
	return s.mem.Put(b)
}

func (s *KVStore) Get(ctx context.Context, c icid.CID) (Block, bool, error) {
	if err := ctx.Err(); err != nil {
		return Block{}, false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mem.Get(c)
}

func (s *KVStore) Contains(ctx context.Context, c icid.CID) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mem.Contains(c)
}

func (s *KVStore) Delete(ctx context.Context, c icid.CID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.append(walRecord{Op: "delete", CID: c.String()}); err != nil {
		return err
	}
	return s.mem.Delete(c)
}

func (s *KVStore) ListBlocks(ctx context.Context) ([]Block, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mem.ListBlocks()
}

func (s *KVStore) SetTTL(ctx context.Context, c icid.CID, deadline *uint64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.append(walRecord{Op: "ttl", CID: c.String(), Deadline: deadline}); err != nil {
		return err
	}
	return s.mem.SetTTL(c, deadline)
}

func (s *KVStore) PinBlock(ctx context.Context, c icid.CID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.append(walRecord{Op: "pin", CID: c.String()}); err != nil {
		return err
	}
	return s.mem.PinBlock(c)
}

func (s *KVStore) UnpinBlock(ctx context.Context, c icid.CID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.append(walRecord{Op: "unpin", CID: c.String()}); err != nil {
		return err
	}
	return s.mem.UnpinBlock(c)
}

// PruneExpired removes expired, unpinned blocks from memory and appends one
// "delete" WAL record per removed CID, so replay reproduces the removal;
// WAL append failures are aggregated with multierr and returned alongside
// the removed CIDs.
func (s *KVStore) PruneExpired(ctx context.Context, now uint64) ([]icid.CID, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	removed, err := s.mem.PruneExpired(now)
	if err != nil {
		return nil, err
	}
	var walErrs error
	for _, c := range removed {
		if err := s.append(walRecord{Op: "delete", CID: c.String()}); err != nil {
			walErrs = multierr.Append(walErrs, err)
		}
	}
	if walErrs != nil {
		logrus.WithError(walErrs).Error("dag: failed to log some prune removals to wal")
	}
	return removed, walErrs
}

func (s *KVStore) Traverse(ctx context.Context, start icid.CID) ([]icid.CID, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mem.Traverse(start)
}

// Close flushes and releases the underlying WAL file.
func (s *KVStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.w.Flush(); err != nil {
		return codes.Wrap(codes.Storage, "flush dag wal on close", err)
	}
	return s.f.Close()
}

var _ SuspendingStore = (*KVStore)(nil)
