package vectorstore

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/extra/bundebug"

	"pdf-rag/internal/config"
)

// ChunkRecord is one stored chunk row. The vector size in the column
// type must match the configured embedding model's dimensionality.
type ChunkRecord struct {
	bun.BaseModel `bun:"table:chunks,alias:c"`
	ID            int64     `bun:"id,pk,autoincrement"`
	Collection    string    `bun:"collection,notnull"`
	ChunkID       string    `bun:"chunk_id,notnull"`
	Content       string    `bun:"content,notnull"`
	Embedding     []float32 `bun:"embedding,notnull,type:vector(768)"`
	Distance      float64   `bun:"distance,scanonly"`
}

// Postgres is a Store backed by Postgres with the pgvector extension.
type Postgres struct {
	db *bun.DB
}

// NewPostgres connects to the configured database and creates the
// chunks table if it does not exist.
func NewPostgres(ctx context.Context, cfg *config.StoreConfig) (*Postgres, error) {
	sqldb := sql.OpenDB(pgdriver.NewConnector(
		pgdriver.WithDSN(cfg.DSN),
		pgdriver.WithPassword(cfg.Password),
	))
	db := bun.NewDB(sqldb, pgdialect.New())
	if cfg.Debug {
		db.AddQueryHook(bundebug.NewQueryHook(bundebug.WithVerbose(true)))
	}

	if _, err := db.NewCreateTable().Model((*ChunkRecord)(nil)).IfNotExists().Exec(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize chunks table: %w", err)
	}
	return &Postgres{db: db}, nil
}

func (s *Postgres) Replace(ctx context.Context, collection string, entries []Entry) error {
	// Delete and insert run in one transaction, so queries see either
	// the old chunk set or the new one, never a mix.
	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewDelete().
			Model((*ChunkRecord)(nil)).
			Where("collection = ?", collection).
			Exec(ctx); err != nil {
			return fmt.Errorf("failed to clear collection %s: %w", collection, err)
		}

		if len(entries) == 0 {
			return nil
		}

		records := make([]ChunkRecord, len(entries))
		for i, e := range entries {
			records[i] = ChunkRecord{
				Collection: collection,
				ChunkID:    e.ID,
				Content:    e.Text,
				Embedding:  e.Embedding,
			}
		}
		if _, err := tx.NewInsert().Model(&records).Exec(ctx); err != nil {
			return fmt.Errorf("failed to store chunks: %w", err)
		}
		return nil
	})
}

func (s *Postgres) Query(ctx context.Context, collection string, embedding []float32, topK int) ([]Result, error) {
	if topK <= 0 {
		return nil, nil
	}

	var records []ChunkRecord
	err := s.db.NewSelect().
		Model(&records).
		Column("content").
		ColumnExpr("embedding <-> ? AS distance", embedding).
		Where("collection = ?", collection).
		OrderExpr("embedding <-> ?", embedding).
		Limit(topK).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to query collection %s: %w", collection, err)
	}

	out := make([]Result, len(records))
	for i, r := range records {
		// pgvector reports distance; negate so higher still means closer.
		out[i] = Result{Text: r.Content, Similarity: float32(-r.Distance)}
	}
	return out, nil
}

func (s *Postgres) Exists(ctx context.Context, collection string) (bool, error) {
	count, err := s.db.NewSelect().
		Model((*ChunkRecord)(nil)).
		Where("collection = ?", collection).
		Count(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to count collection %s: %w", collection, err)
	}
	return count > 0, nil
}

func (s *Postgres) Close() error { return s.db.Close() }
