package dag

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "modernc.org/sqlite" // pure-Go driver, named per SPEC_FULL.md §3 (ungrounded ecosystem dep)

	icid "github.com/icn-network/icn-node/internal/cid"
	"github.com/icn-network/icn-node/internal/codes"
)

// SQLStore is a DAG store backend on top of an embedded SQLite database: one
// row per block, with pin/ttl as columns and an adjacency table for
// Traverse. Intended for single-node deployments that want query access to
// the DAG (e.g. an explorer) without running a separate KV engine.
type SQLStore struct {
	db *sql.DB
}

// OpenSQLStore opens (creating if absent) a SQLite-backed store at path.
func OpenSQLStore(path string) (*SQLStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, codes.Wrap(codes.Storage, "open dag sqlite db", err)
	}
	if err := migrateSQL(db); err != nil {
		db.Close()
		return nil, err
	}
	return &SQLStore{db: db}, nil
}

func migrateSQL(db *sql.DB) error {
	const schema = `
CREATE TABLE IF NOT EXISTS blocks (
	cid        TEXT PRIMARY KEY,
	data       BLOB NOT NULL,
	links_json TEXT NOT NULL,
	timestamp  INTEGER NOT NULL,
	author_did TEXT NOT NULL,
	signature  BLOB,
	scope      TEXT NOT NULL,
	pinned     INTEGER NOT NULL DEFAULT 0,
	ttl        INTEGER
);
CREATE TABLE IF NOT EXISTS adjacency (
	parent_cid TEXT NOT NULL,
	child_cid  TEXT NOT NULL,
	position   INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_adjacency_parent ON adjacency(parent_cid, position);
`
	if _, err := db.Exec(schema); err != nil {
		return codes.Wrap(codes.Storage, "migrate dag sqlite schema", err)
	}
	return nil
}

func (s *SQLStore) Put(ctx context.Context, b Block) error {
	if err := VerifyIntegrity(b); err != nil {
		return codes.Wrap(codes.InvalidBlock, "put block", err)
	}
	linksJSON, err := json.Marshal(b.Links)
	if err != nil {
		return codes.Wrap(codes.Storage, "marshal links", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return codes.Wrap(codes.Storage, "begin tx", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
INSERT OR IGNORE INTO blocks (cid, data, links_json, timestamp, author_did, signature, scope)
VALUES (?, ?, ?, ?, ?, ?, ?)`,
		b.CID.String(), b.Data, string(linksJSON), b.Timestamp, b.AuthorDID, b.Signature, b.Scope)
	if err != nil {
		return codes.Wrap(codes.Storage, "insert block", err)
	}
	for i, l := range b.Links {
		_, err = tx.ExecContext(ctx, `INSERT INTO adjacency (parent_cid, child_cid, position) VALUES (?, ?, ?)`,
			b.CID.String(), l.CID.String(), i)
		if err != nil {
			return codes.Wrap(codes.Storage, "insert adjacency", err)
		}
	}
	return tx.Commit()
}

func (s *SQLStore) scanBlock(row *sql.Row) (Block, bool, error) {
	var (
		cidStr, linksJSON, authorDID, scope string
		data, sig                           []byte
		ts                                  uint64
	)
	if err := row.Scan(&cidStr, &data, &linksJSON, &ts, &authorDID, &sig, &scope); err != nil {
		if err == sql.ErrNoRows {
			return Block{}, false, nil
		}
		return Block{}, false, codes.Wrap(codes.Storage, "scan block", err)
	}
	var links []icid.DagLink
	if err := json.Unmarshal([]byte(linksJSON), &links); err != nil {
		return Block{}, false, codes.Wrap(codes.Storage, "unmarshal links", err)
	}
	c, err := icid.ParseString(cidStr)
	if err != nil {
		return Block{}, false, err
	}
	return Block{CID: c, Data: data, Links: links, Timestamp: ts, AuthorDID: authorDID, Signature: sig, Scope: scope}, true, nil
}

func (s *SQLStore) Get(ctx context.Context, c icid.CID) (Block, bool, error) {
	row := s.db.QueryRowContext(ctx, `SELECT cid, data, links_json, timestamp, author_did, signature, scope FROM blocks WHERE cid = ?`, c.String())
	return s.scanBlock(row)
}

func (s *SQLStore) Contains(ctx context.Context, c icid.CID) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM blocks WHERE cid = ?`, c.String()).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, codes.Wrap(codes.Storage, "contains query", err)
	}
	return true, nil
}

func (s *SQLStore) Delete(ctx context.Context, c icid.CID) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM blocks WHERE cid = ?`, c.String()); err != nil {
		return codes.Wrap(codes.Storage, "delete block", err)
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM adjacency WHERE parent_cid = ?`, c.String()); err != nil {
		return codes.Wrap(codes.Storage, "delete adjacency", err)
	}
	return nil
}

func (s *SQLStore) ListBlocks(ctx context.Context) ([]Block, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT cid, data, links_json, timestamp, author_did, signature, scope FROM blocks ORDER BY cid`)
	if err != nil {
		return nil, codes.Wrap(codes.Storage, "list blocks", err)
	}
	defer rows.Close()

	var out []Block
	for rows.Next() {
		var (
			cidStr, linksJSON, authorDID, scope string
			data, sig                           []byte
			ts                                  uint64
		)
		if err := rows.Scan(&cidStr, &data, &linksJSON, &ts, &authorDID, &sig, &scope); err != nil {
			return nil, codes.Wrap(codes.Storage, "scan block row", err)
		}
		var links []icid.DagLink
		if err := json.Unmarshal([]byte(linksJSON), &links); err != nil {
			return nil, codes.Wrap(codes.Storage, "unmarshal links", err)
		}
		c, err := icid.ParseString(cidStr)
		if err != nil {
			return nil, err
		}
		out = append(out, Block{CID: c, Data: data, Links: links, Timestamp: ts, AuthorDID: authorDID, Signature: sig, Scope: scope})
	}
	return out, rows.Err()
}

func (s *SQLStore) SetTTL(ctx context.Context, c icid.CID, deadline *uint64) error {
	_, err := s.db.ExecContext(ctx, `UPDATE blocks SET ttl = ? WHERE cid = ?`, deadline, c.String())
	if err != nil {
		return codes.Wrap(codes.Storage, "set ttl", err)
	}
	return nil
}

func (s *SQLStore) PinBlock(ctx context.Context, c icid.CID) error {
	res, err := s.db.ExecContext(ctx, `UPDATE blocks SET pinned = 1 WHERE cid = ?`, c.String())
	return checkAffected(res, err, "pin_block", c)
}

func (s *SQLStore) UnpinBlock(ctx context.Context, c icid.CID) error {
	res, err := s.db.ExecContext(ctx, `UPDATE blocks SET pinned = 0 WHERE cid = ?`, c.String())
	return checkAffected(res, err, "unpin_block", c)
}

func checkAffected(res sql.Result, err error, op string, c icid.CID) error {
	if err != nil {
		return codes.Wrap(codes.Storage, op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return codes.Wrap(codes.Storage, op, err)
	}
	if n == 0 {
		return codes.New(codes.NotFound, fmt.Sprintf("%s: block not found: %s", op, c))
	}
	return nil
}

func (s *SQLStore) PruneExpired(ctx context.Context, now uint64) ([]icid.CID, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT cid FROM blocks WHERE pinned = 0 AND ttl IS NOT NULL AND ttl < ?`, now)
	if err != nil {
		return nil, codes.Wrap(codes.Storage, "query expired blocks", err)
	}
	var removed []icid.CID
	for rows.Next() {
		var cidStr string
		if err := rows.Scan(&cidStr); err != nil {
			rows.Close()
			return nil, codes.Wrap(codes.Storage, "scan expired cid", err)
		}
		c, err := icid.ParseString(cidStr)
		if err != nil {
			rows.Close()
			return nil, err
		}
		removed = append(removed, c)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for _, c := range removed {
		if err := s.Delete(ctx, c); err != nil {
			return nil, err
		}
	}
	if removed == nil {
		removed = []icid.CID{}
	}
	return removed, nil
}

func (s *SQLStore) Traverse(ctx context.Context, start icid.CID) ([]icid.CID, error) {
	if ok, err := s.Contains(ctx, start); err != nil {
		return nil, err
	} else if !ok {
		return nil, codes.New(codes.NotFound, "traverse: start block not found: "+start.String())
	}

	visited := map[string]bool{}
	var order []icid.CID
	var walk func(c icid.CID) error
	walk = func(c icid.CID) error {
		key := c.String()
		if visited[key] {
			return nil
		}
		visited[key] = true
		order = append(order, c)

		rows, err := s.db.QueryContext(ctx, `SELECT child_cid FROM adjacency WHERE parent_cid = ? ORDER BY position`, key)
		if err != nil {
			return codes.Wrap(codes.Storage, "query adjacency", err)
		}
		var children []string
		for rows.Next() {
			var child string
			if err := rows.Scan(&child); err != nil {
				rows.Close()
				return codes.Wrap(codes.Storage, "scan adjacency row", err)
			}
			children = append(children, child)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return err
		}
		for _, childStr := range children {
			childCID, err := icid.ParseString(childStr)
			if err != nil {
				return err
			}
			if err := walk(childCID); err != nil {
				return err
			}
		}
		return nil
	}
	if err := walk(start); err != nil {
		return nil, err
	}
	return order, nil
}

// Close releases the underlying database handle.
func (s *SQLStore) Close() error { return s.db.Close() }

var _ SuspendingStore = (*SQLStore)(nil)
