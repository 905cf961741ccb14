package vectorindex

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	_ "modernc.org/sqlite"

	"github.com/mohammad-safakhou/campusbot/models"
	"github.com/mohammad-safakhou/campusbot/tools/embedding"
)

const schema = `
CREATE TABLE meta (key TEXT PRIMARY KEY, value TEXT NOT NULL);
CREATE TABLE chunks (
	pos       INTEGER PRIMARY KEY,
	id        TEXT NOT NULL,
	text      TEXT NOT NULL,
	source    TEXT NOT NULL,
	page      INTEGER NOT NULL,
	idx       INTEGER NOT NULL,
	embedding BLOB NOT NULL
);`

// Persist writes the index to path, replacing any previous file only once the new one is complete.
func (ix *Index) Persist(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create index dir: %w", err)
		}
	}
	tmp := fmt.Sprintf("%s.tmp-%d", path, os.Getpid())
	_ = os.Remove(tmp)

	if err := ix.writeSQLite(tmp); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replace index file: %w", err)
	}
	return nil
}

func (ix *Index) writeSQLite(path string) error {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("open index db: %w", err)
	}
	defer db.Close()

	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	meta := map[string]string{
		"model":      ix.model,
		"dimension":  strconv.Itoa(ix.dim),
		"count":      strconv.Itoa(len(ix.chunks)),
		"created_at": ix.createdAt.Format(time.RFC3339Nano),
	}
	for k, v := range meta {
		if _, err := tx.Exec(`INSERT INTO meta(key, value) VALUES (?, ?)`, k, v); err != nil {
			return fmt.Errorf("write meta: %w", err)
		}
	}

	stmt, err := tx.Prepare(`INSERT INTO chunks(pos, id, text, source, page, idx, embedding) VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for i, c := range ix.chunks {
		if _, err := stmt.Exec(i, c.ID, c.Text, c.Source, c.Page, c.Index, embedding.EncodeVector(ix.vectors[i])); err != nil {
			return fmt.Errorf("write chunk %s: %w", c.ID, err)
		}
	}
	return tx.Commit()
}

// Load reads a persisted index. A missing, unreadable or inconsistent file yields an error
// wrapping ErrIndexNotFound. So does an index built with a different embedding model.
func Load(ctx context.Context, path string, embedder embedding.Embedder) (*Index, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIndexNotFound, err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("%w: open: %v", ErrIndexNotFound, err)
	}
	defer db.Close()

	meta, err := readMeta(ctx, db)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIndexNotFound, err)
	}
	if want := modelOf(embedder); want != "" && meta["model"] != "" && meta["model"] != want {
		return nil, fmt.Errorf("%w: built with model %q, current model is %q", ErrIndexNotFound, meta["model"], want)
	}
	createdAt, _ := time.Parse(time.RFC3339Nano, meta["created_at"])

	rows, err := db.QueryContext(ctx, `SELECT id, text, source, page, idx, embedding FROM chunks ORDER BY pos`)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIndexNotFound, err)
	}
	defer rows.Close()

	var chunks []models.Chunk
	var vecs [][]float32
	for rows.Next() {
		var c models.Chunk
		var blob []byte
		if err := rows.Scan(&c.ID, &c.Text, &c.Source, &c.Page, &c.Index, &blob); err != nil {
			return nil, fmt.Errorf("%w: scan: %v", ErrIndexNotFound, err)
		}
		v, err := embedding.DecodeVector(blob)
		if err != nil {
			return nil, fmt.Errorf("%w: chunk %s: %v", ErrIndexNotFound, c.ID, err)
		}
		chunks = append(chunks, c)
		vecs = append(vecs, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIndexNotFound, err)
	}
	if n, err := strconv.Atoi(meta["count"]); err == nil && n != len(chunks) {
		return nil, fmt.Errorf("%w: expected %d chunks, found %d", ErrIndexNotFound, n, len(chunks))
	}

	ix, err := newIndex(ctx, embedder, chunks, vecs, meta["model"], createdAt)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIndexNotFound, err)
	}
	return ix, nil
}

func readMeta(ctx context.Context, db *sql.DB) (map[string]string, error) {
	rows, err := db.QueryContext(ctx, `SELECT key, value FROM meta`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	meta := map[string]string{}
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, err
		}
		meta[k] = v
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(meta) == 0 {
		return nil, errors.New("index metadata missing")
	}
	return meta, nil
}
