package retrieval

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"math"
	"sort"

	"github.com/viant/sqlite-vec/engine"
	"github.com/viant/sqlite-vec/vec"
	"github.com/viant/sqlite-vec/vector"
	_ "modernc.org/sqlite" // pure Go sqlite driver

	"github.com/redlinehq/redline/db/sqliteutil"
	"github.com/redlinehq/redline/embeddings"
)

// ScoredChunk is a retrieved chunk with its similarity score and the version
// it was indexed from.
type ScoredChunk struct {
	Chunk
	VersionID string  `json:"version_id"`
	Score     float32 `json:"score"`
}

// Index is a sqlite-vec backed context index. Each manuscript is a dataset;
// rows hold one chunk of one indexed version.
type Index struct {
	db            *sql.DB
	dsn           string
	vtable        string
	shadow        string
	embedder      embeddings.Embedder
	chunker       *Chunker
	embedBatch    int
	ensureSchema  bool
	logf          func(format string, args ...any)
	openedLocally bool
}

// IndexOption configures the index.
type IndexOption func(*Index)

// WithDB sets an existing *sql.DB to use.
func WithDB(db *sql.DB) IndexOption {
	return func(i *Index) { i.db = db }
}

// WithDSN sets the SQLite DSN to open.
func WithDSN(dsn string) IndexOption {
	return func(i *Index) { i.dsn = dsn }
}

// WithVTable sets the vec virtual table name (default: ctx_chunks).
func WithVTable(name string) IndexOption {
	return func(i *Index) { i.vtable = name }
}

// WithEmbedder sets the embedder used for chunks and queries.
func WithEmbedder(e embeddings.Embedder) IndexOption {
	return func(i *Index) { i.embedder = e }
}

// WithChunker overrides the default chunker.
func WithChunker(c *Chunker) IndexOption {
	return func(i *Index) { i.chunker = c }
}

// WithEmbedBatchSize sets the embedding batch size for indexing.
func WithEmbedBatchSize(size int) IndexOption {
	return func(i *Index) { i.embedBatch = size }
}

// WithLogf sets a log sink.
func WithLogf(logf func(format string, args ...any)) IndexOption {
	return func(i *Index) { i.logf = logf }
}

// NewIndex opens/initializes a context index.
func NewIndex(opts ...IndexOption) (*Index, error) {
	i := &Index{
		vtable:       "ctx_chunks",
		ensureSchema: true,
		embedBatch:   64,
		chunker:      NewChunker(),
	}
	for _, opt := range opts {
		opt(i)
	}
	if i.embedder == nil {
		return nil, fmt.Errorf("retrieval: embedder required")
	}
	if i.vtable == "" {
		i.vtable = "ctx_chunks"
	}
	i.shadow = "_vec_" + i.vtable

	if i.db == nil {
		if i.dsn == "" {
			return nil, fmt.Errorf("retrieval: dsn required")
		}
		db, err := engine.Open(sqliteutil.EnsurePragmas(i.dsn, true, 5000))
		if err != nil {
			return nil, err
		}
		i.db = db
		i.db.SetMaxOpenConns(4)
		i.db.SetMaxIdleConns(4)
		i.openedLocally = true
	}
	if err := vec.Register(i.db); err != nil {
		return nil, err
	}
	if i.ensureSchema {
		if err := i.ensureSchemaDDL(context.Background()); err != nil {
			return nil, err
		}
	}
	return i, nil
}

// Close closes the underlying DB if Index opened it.
func (i *Index) Close() error {
	if i.openedLocally && i.db != nil {
		return i.db.Close()
	}
	return nil
}

func (i *Index) ensureSchemaDDL(ctx context.Context) error {
	stmts := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			dataset_id       TEXT NOT NULL,
			id               TEXT NOT NULL,
			asset_id         TEXT NOT NULL,
			content          TEXT,
			meta             TEXT,
			embedding        BLOB,
			embedding_model  TEXT,
			scn              INTEGER NOT NULL,
			archived         INTEGER NOT NULL DEFAULT 0,
			PRIMARY KEY (dataset_id, id)
		);`, i.shadow),
		fmt.Sprintf(`CREATE VIRTUAL TABLE IF NOT EXISTS %s USING vec(doc_id);`, i.vtable),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_%s_asset ON %s(dataset_id, asset_id);`, i.vtable, i.shadow),
	}
	for _, stmt := range stmts {
		if _, err := i.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

type chunkMeta struct {
	VersionID string `json:"version_id"`
	Index     int    `json:"index"`
	Start     int    `json:"start"`
	End       int    `json:"end"`
	Chapter   string `json:"chapter,omitempty"`
}

// IndexVersion chunks and embeds one version's content, replacing whatever was
// previously indexed for the manuscript. Returns the chunk count.
func (i *Index) IndexVersion(ctx context.Context, manuscriptID, versionID, content string) (int, error) {
	chunks := i.chunker.Split(content)
	vecs, err := i.embedChunks(ctx, chunks)
	if err != nil {
		return 0, err
	}
	tx, err := i.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()
	if _, err := tx.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s WHERE dataset_id = ?`, i.shadow), manuscriptID); err != nil {
		return 0, err
	}
	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf(`INSERT INTO %s(dataset_id, id, asset_id, content, meta, embedding, embedding_model, scn, archived)
VALUES(?,?,?,?,?,?,?,0,0)`, i.shadow))
	if err != nil {
		return 0, err
	}
	defer stmt.Close()
	for n, chunk := range chunks {
		blob, err := vector.EncodeEmbedding(vecs[n])
		if err != nil {
			return 0, err
		}
		metaJSON, err := json.Marshal(chunkMeta{
			VersionID: versionID,
			Index:     chunk.Index,
			Start:     chunk.Start,
			End:       chunk.End,
			Chapter:   chunk.Chapter,
		})
		if err != nil {
			return 0, err
		}
		id := fmt.Sprintf("%s:%d-%d", versionID, chunk.Start, chunk.End)
		if _, err := stmt.ExecContext(ctx, manuscriptID, id, versionID, chunk.Text, string(metaJSON), blob, ""); err != nil {
			return 0, err
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	// Refresh the in-memory vec index after a bulk rewrite.
	_, _ = i.db.ExecContext(ctx, `SELECT vec_invalidate(?, ?)`, i.shadow, manuscriptID)
	if i.logf != nil {
		i.logf("index manuscript=%s version=%s chunks=%d", manuscriptID, versionID, len(chunks))
	}
	return len(chunks), nil
}

func (i *Index) embedChunks(ctx context.Context, chunks []Chunk) ([][]float32, error) {
	batchSize := i.embedBatch
	if batchSize <= 0 {
		batchSize = 64
	}
	out := make([][]float32, 0, len(chunks))
	for from := 0; from < len(chunks); from += batchSize {
		to := from + batchSize
		if to > len(chunks) {
			to = len(chunks)
		}
		texts := make([]string, to-from)
		for j := from; j < to; j++ {
			texts[j-from] = chunks[j].Text
		}
		vecs, err := i.embedder.EmbedDocuments(ctx, texts)
		if err != nil {
			return nil, err
		}
		if len(vecs) != len(texts) {
			return nil, fmt.Errorf("retrieval: embedder returned %d vectors for %d chunks", len(vecs), len(texts))
		}
		out = append(out, vecs...)
	}
	return out, nil
}

// Retrieve returns the k chunks nearest to query for the manuscript, best
// first. A vec MATCH query is attempted first; on failure it degrades to a
// full cosine scan over the shadow table.
func (i *Index) Retrieve(ctx context.Context, manuscriptID, query string, k int) ([]ScoredChunk, error) {
	if k <= 0 {
		k = 6
	}
	qvec, err := i.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, err
	}
	out, err := i.retrieveMatch(ctx, manuscriptID, qvec, k)
	if err == nil {
		return out, nil
	}
	if i.logf != nil {
		i.logf("retrieve manuscript=%s match query failed, scanning: %v", manuscriptID, err)
	}
	return i.retrieveScan(ctx, manuscriptID, qvec, k)
}

func (i *Index) retrieveMatch(ctx context.Context, manuscriptID string, qvec []float32, k int) ([]ScoredChunk, error) {
	blob, err := vector.EncodeEmbedding(qvec)
	if err != nil {
		return nil, err
	}
	query := fmt.Sprintf(`SELECT d.content, d.meta, v.match_score
FROM %s v
JOIN %s d ON d.dataset_id = v.dataset_id AND d.id = v.doc_id
WHERE v.dataset_id = ?
  AND v.doc_id MATCH ?
  AND d.archived = 0
ORDER BY v.match_score DESC
LIMIT ?`, i.vtable, i.shadow)
	rows, err := i.db.QueryContext(ctx, query, manuscriptID, blob, k)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []ScoredChunk
	for rows.Next() {
		var content, metaJSON string
		var score float64
		if err := rows.Scan(&content, &metaJSON, &score); err != nil {
			return nil, err
		}
		out = append(out, scoredChunk(content, metaJSON, float32(score)))
	}
	return out, rows.Err()
}

func (i *Index) retrieveScan(ctx context.Context, manuscriptID string, qvec []float32, k int) ([]ScoredChunk, error) {
	rows, err := i.db.QueryContext(ctx,
		fmt.Sprintf(`SELECT content, meta, embedding FROM %s WHERE dataset_id = ? AND archived = 0`, i.shadow), manuscriptID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []ScoredChunk
	for rows.Next() {
		var content, metaJSON string
		var blob []byte
		if err := rows.Scan(&content, &metaJSON, &blob); err != nil {
			return nil, err
		}
		emb, err := vector.DecodeEmbedding(blob)
		if err != nil {
			return nil, err
		}
		out = append(out, scoredChunk(content, metaJSON, cosine(qvec, emb)))
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	sort.SliceStable(out, func(a, b int) bool { return out[a].Score > out[b].Score })
	if len(out) > k {
		out = out[:k]
	}
	return out, nil
}

func scoredChunk(content, metaJSON string, score float32) ScoredChunk {
	var meta chunkMeta
	_ = json.Unmarshal([]byte(metaJSON), &meta)
	return ScoredChunk{
		Chunk: Chunk{
			Index:   meta.Index,
			Start:   meta.Start,
			End:     meta.End,
			Text:    content,
			Chapter: meta.Chapter,
		},
		VersionID: meta.VersionID,
		Score:     score,
	}
}

func cosine(a, b []float32) float32 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(na) * math.Sqrt(nb)))
}
