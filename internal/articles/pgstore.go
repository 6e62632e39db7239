package articles

import (
	"context" // Request contexts

	"srq_assessment/internal/domain" // Domain models

	"github.com/jackc/pgx/v4" // Postgres driver
)

const upsertArticleSQL = `
INSERT INTO articles (title, author, article, date, category, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, now(), now())
ON CONFLICT (title) DO UPDATE
SET author = EXCLUDED.author,
    article = EXCLUDED.article,
    date = EXCLUDED.date,
    category = EXCLUDED.category,
    updated_at = now()
RETURNING id, (xmax = 0) AS inserted
`

// PgxStore upserts with raw SQL inside an explicit pgx transaction.
type PgxStore struct {
	Tx pgx.Tx
}

func (s PgxStore) Upsert(ctx context.Context, a *domain.Article) (bool, error) {
	var inserted bool
	err := s.Tx.QueryRow(ctx, upsertArticleSQL, a.Title, a.Author, a.Article, a.Date, a.Category).Scan(&a.ID, &inserted)
	return inserted, err
}
