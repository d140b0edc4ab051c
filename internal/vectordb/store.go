// Package vectordb is the per-brand index of site pages used to find
// internal-link candidates. Pages live in SQLite and are ranked with
// vec_distance_cosine over their embeddings.
package vectordb

import (
	"context"
	"crypto/md5"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"unicode"

	"github.com/jonathan/seo-content-machine/internal/embedding"
	"github.com/jonathan/seo-content-machine/internal/logging"
	"github.com/jonathan/seo-content-machine/internal/types"
)

const driverName = "sqlite3_vec"

// DefaultPath is the database file used when none is configured.
const DefaultPath = "data/vectors.db"

// DefaultResults is the number of pages QuerySimilar returns by default.
const DefaultResults = 5

const schema = `
CREATE TABLE IF NOT EXISTS collections (
	name       TEXT PRIMARY KEY,
	brand      TEXT NOT NULL,
	embedder   TEXT NOT NULL,
	dimensions INTEGER NOT NULL,
	created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS pages (
	collection TEXT NOT NULL REFERENCES collections(name) ON DELETE CASCADE,
	url        TEXT NOT NULL,
	title      TEXT NOT NULL,
	document   TEXT NOT NULL,
	metadata   TEXT NOT NULL DEFAULT '{}',
	embedding  BLOB NOT NULL,
	updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
	PRIMARY KEY (collection, url)
);
`

// Store is a SQLite-backed page index.
type Store struct {
	db       *sql.DB
	embedder embedding.Embedder
}

// Open opens (creating if needed) the index at path. ":memory:" gives a
// throwaway index.
func Open(ctx context.Context, path string, embedder embedding.Embedder) (*Store, error) {
	if embedder == nil {
		return nil, &Error{Message: "embedder is required"}
	}
	if path == "" {
		path = DefaultPath
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, &Error{Message: "failed to create database directory", Cause: err}
		}
	}

	db, err := sql.Open(driverName, path+"?_foreign_keys=on")
	if err != nil {
		return nil, &Error{Message: "failed to open database", Cause: err}
	}
	// SQLite serialises writers; one connection also keeps :memory: coherent.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, &Error{Message: "failed to create schema", Cause: err}
	}

	logging.Component("vectordb").Debug().Str("path", path).Str("embedder", embedder.Name()).Msg("vector store opened")
	return &Store{db: db, embedder: embedder}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

var unsafeNameChars = regexp.MustCompile(`[^a-zA-Z0-9_-]`)

// CollectionName maps a brand name to a stable ASCII collection name.
// Names with fewer than three ASCII characters left become brand_<md5 prefix>.
func CollectionName(brand string) string {
	name := unsafeNameChars.ReplaceAllString(brand, "")
	if len(name) < 3 {
		sum := md5.Sum([]byte(brand))
		name = "brand_" + hex.EncodeToString(sum[:])[:8]
	}
	if len(name) > 50 {
		name = name[:50]
	}
	if !isAlnum(name[0]) {
		name = "p" + name
	}
	if !isAlnum(name[len(name)-1]) {
		name += "0"
	}
	return strings.ToLower(name)
}

func isAlnum(b byte) bool {
	return unicode.IsLetter(rune(b)) || unicode.IsDigit(rune(b))
}

type pageMetadata struct {
	URL   string `json:"url"`
	Title string `json:"title"`
}

// AddPages embeds and upserts pages keyed by URL. The embedded document is
// the title and H1; pages where both are blank are skipped. It returns the
// number of pages written.
func (s *Store) AddPages(ctx context.Context, brand string, pages []types.Page) (int, error) {
	collection := CollectionName(brand)

	var (
		docs []string
		kept []types.Page
	)
	for _, p := range pages {
		doc := p.Title + " " + p.H1
		if strings.TrimSpace(doc) == "" {
			continue
		}
		docs = append(docs, doc)
		kept = append(kept, p)
	}
	if len(docs) == 0 {
		return 0, nil
	}

	vectors, err := s.embedder.EmbedBatch(ctx, docs)
	if err != nil {
		return 0, &Error{Collection: collection, Message: "failed to embed pages", Cause: err}
	}
	if len(vectors) != len(docs) {
		return 0, &Error{Collection: collection, Message: fmt.Sprintf("embedder returned %d vectors for %d pages", len(vectors), len(docs))}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, &Error{Collection: collection, Message: "failed to begin transaction", Cause: err}
	}
	defer func() { _ = tx.Rollback() }()

	if err := s.ensureCollection(ctx, tx, collection, brand); err != nil {
		return 0, err
	}

	for i, p := range kept {
		meta, err := json.Marshal(pageMetadata{URL: p.URL, Title: p.Title})
		if err != nil {
			return 0, &Error{Collection: collection, Message: "failed to encode metadata", Cause: err}
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO pages (collection, url, title, document, metadata, embedding)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT (collection, url) DO UPDATE SET
				title = excluded.title,
				document = excluded.document,
				metadata = excluded.metadata,
				embedding = excluded.embedding,
				updated_at = CURRENT_TIMESTAMP`,
			collection, p.URL, p.Title, docs[i], string(meta), encodeVector(vectors[i]))
		if err != nil {
			return 0, &Error{Collection: collection, Message: "failed to upsert page " + p.URL, Cause: err}
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, &Error{Collection: collection, Message: "failed to commit pages", Cause: err}
	}

	logging.Component("vectordb").Info().Str("collection", collection).Int("pages", len(kept)).Msg("pages indexed")
	return len(kept), nil
}

func (s *Store) ensureCollection(ctx context.Context, tx *sql.Tx, collection, brand string) error {
	var dims int
	err := tx.QueryRowContext(ctx, `SELECT dimensions FROM collections WHERE name = ?`, collection).Scan(&dims)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		_, err = tx.ExecContext(ctx,
			`INSERT INTO collections (name, brand, embedder, dimensions) VALUES (?, ?, ?, ?)`,
			collection, brand, s.embedder.Name(), s.embedder.Dimensions())
		if err != nil {
			return &Error{Collection: collection, Message: "failed to create collection", Cause: err}
		}
		return nil
	case err != nil:
		return &Error{Collection: collection, Message: "failed to read collection", Cause: err}
	case dims != s.embedder.Dimensions():
		return &Error{Collection: collection, Message: fmt.Sprintf(
			"collection has %d-dimensional vectors, embedder produces %d", dims, s.embedder.Dimensions())}
	}
	return nil
}

// QuerySimilar returns up to n pages closest to query, nearest first.
// n <= 0 uses DefaultResults. An unknown brand yields no pages.
func (s *Store) QuerySimilar(ctx context.Context, brand, query string, n int) ([]types.PageRef, error) {
	if n <= 0 {
		n = DefaultResults
	}
	collection := CollectionName(brand)

	count, err := s.count(ctx, collection)
	if err != nil {
		return nil, err
	}
	if count == 0 {
		return []types.PageRef{}, nil
	}

	vector, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, &Error{Collection: collection, Message: "failed to embed query", Cause: err}
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT url, title, vec_distance_cosine(embedding, ?) AS distance
		FROM pages
		WHERE collection = ?
		ORDER BY distance ASC
		LIMIT ?`,
		encodeVector(vector), collection, n)
	if err != nil {
		return nil, &Error{Collection: collection, Message: "similarity query failed", Cause: err}
	}
	defer func() { _ = rows.Close() }()

	refs := []types.PageRef{}
	for rows.Next() {
		var (
			ref      types.PageRef
			distance float64
		)
		if err := rows.Scan(&ref.URL, &ref.Title, &distance); err != nil {
			return nil, &Error{Collection: collection, Message: "failed to scan page", Cause: err}
		}
		ref.Similarity = 1 - distance
		refs = append(refs, ref)
	}
	if err := rows.Err(); err != nil {
		return nil, &Error{Collection: collection, Message: "similarity query failed", Cause: err}
	}
	return refs, nil
}

// GetAllPages returns every indexed page of a brand in insertion order.
func (s *Store) GetAllPages(ctx context.Context, brand string) ([]types.PageRef, error) {
	collection := CollectionName(brand)
	rows, err := s.db.QueryContext(ctx,
		`SELECT url, title FROM pages WHERE collection = ? ORDER BY rowid`, collection)
	if err != nil {
		return nil, &Error{Collection: collection, Message: "failed to list pages", Cause: err}
	}
	defer func() { _ = rows.Close() }()

	refs := []types.PageRef{}
	for rows.Next() {
		var ref types.PageRef
		if err := rows.Scan(&ref.URL, &ref.Title); err != nil {
			return nil, &Error{Collection: collection, Message: "failed to scan page", Cause: err}
		}
		refs = append(refs, ref)
	}
	if err := rows.Err(); err != nil {
		return nil, &Error{Collection: collection, Message: "failed to list pages", Cause: err}
	}
	return refs, nil
}

// Count returns the number of pages indexed for a brand.
func (s *Store) Count(ctx context.Context, brand string) (int, error) {
	return s.count(ctx, CollectionName(brand))
}

func (s *Store) count(ctx context.Context, collection string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM pages WHERE collection = ?`, collection).Scan(&n)
	if err != nil {
		return 0, &Error{Collection: collection, Message: "failed to count pages", Cause: err}
	}
	return n, nil
}

// DeleteCollection removes a brand's index. Deleting a missing collection is
// not an error.
func (s *Store) DeleteCollection(ctx context.Context, brand string) error {
	collection := CollectionName(brand)
	if _, err := s.db.ExecContext(ctx, `DELETE FROM collections WHERE name = ?`, collection); err != nil {
		return &Error{Collection: collection, Message: "failed to delete collection", Cause: err}
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM pages WHERE collection = ?`, collection); err != nil {
		return &Error{Collection: collection, Message: "failed to delete pages", Cause: err}
	}
	logging.Component("vectordb").Info().Str("collection", collection).Msg("collection deleted")
	return nil
}
