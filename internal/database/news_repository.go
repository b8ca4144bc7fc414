package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/sectorpulse/sectorpulse/internal/models"
)

// PostgresNewsRepository persists collected news items.
type PostgresNewsRepository struct {
	db *sql.DB
}

// NewPostgresNewsRepository creates a news repository backed by PostgreSQL.
func NewPostgresNewsRepository(db *sql.DB) *PostgresNewsRepository {
	return &PostgresNewsRepository{db: db}
}

// ExistsByURL reports whether an item with the given source URL is already
// stored. This is a pre-insert optimization: the unique constraint on
// source_url remains the authoritative dedup invariant.
func (r *PostgresNewsRepository) ExistsByURL(ctx context.Context, sourceURL string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		"SELECT EXISTS (SELECT 1 FROM industry_news WHERE source_url = $1)",
		sourceURL,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check news existence: %w", err)
	}
	return exists, nil
}

// InsertBatch stores a batch of items in one transaction. Conflicts on the
// source_url unique constraint are resolved as no-ops; the returned count is
// the number of rows actually inserted.
func (r *PostgresNewsRepository) InsertBatch(ctx context.Context, items []models.NewsItem) (int, error) {
	if len(items) == 0 {
		return 0, nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	const query = `
		INSERT INTO industry_news (
			id, industry_id, title, content, source, source_url,
			category, department, publish_time, keyword, collected_at, is_read, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, FALSE, NOW())
		ON CONFLICT (source_url) DO NOTHING
	`

	inserted := 0
	for _, item := range items {
		res, err := tx.ExecContext(ctx, query,
			item.ID,
			item.IndustryID,
			item.Title,
			item.Content,
			item.Source,
			item.SourceURL,
			string(item.Category),
			item.Department,
			item.PublishTime,
			item.Keyword,
			item.CollectedAt,
		)
		if err != nil {
			return 0, fmt.Errorf("failed to insert news item: %w", err)
		}
		if n, err := res.RowsAffected(); err == nil {
			inserted += int(n)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit news batch: %w", err)
	}
	return inserted, nil
}

// List returns items matching the query ordered by collection time
// descending, plus the total count matching the filters.
func (r *PostgresNewsRepository) List(ctx context.Context, q models.NewsQuery) ([]models.NewsItem, int, error) {
	where := "WHERE 1=1"
	args := []interface{}{}

	if q.IndustryID != "" {
		args = append(args, q.IndustryID)
		where += fmt.Sprintf(" AND industry_id = $%d", len(args))
	}
	if q.Category != "" {
		args = append(args, string(q.Category))
		where += fmt.Sprintf(" AND category = $%d", len(args))
	}

	var total int
	countQuery := "SELECT COUNT(*) FROM industry_news " + where
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count news: %w", err)
	}

	limit := q.Limit
	if limit <= 0 {
		limit = 20
	}
	args = append(args, limit, q.Offset)
	listQuery := fmt.Sprintf(`
		SELECT id, industry_id, title, content, source, source_url,
		       category, department, publish_time, keyword, collected_at, is_read, created_at
		FROM industry_news %s
		ORDER BY collected_at DESC
		LIMIT $%d OFFSET $%d
	`, where, len(args)-1, len(args))

	rows, err := r.db.QueryContext(ctx, listQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list news: %w", err)
	}
	defer rows.Close()

	items := make([]models.NewsItem, 0, limit)
	for rows.Next() {
		var (
			item        models.NewsItem
			content     sql.NullString
			source      sql.NullString
			category    string
			department  sql.NullString
			publishTime sql.NullTime
			keyword     sql.NullString
		)
		if err := rows.Scan(
			&item.ID, &item.IndustryID, &item.Title, &content, &source, &item.SourceURL,
			&category, &department, &publishTime, &keyword, &item.CollectedAt, &item.IsRead, &item.CreatedAt,
		); err != nil {
			return nil, 0, fmt.Errorf("failed to scan news row: %w", err)
		}
		item.Content = content.String
		item.Source = source.String
		item.Category = models.NewsCategory(category)
		item.Keyword = keyword.String
		if department.Valid {
			d := department.String
			item.Department = &d
		}
		if publishTime.Valid {
			t := publishTime.Time
			item.PublishTime = &t
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to read news rows: %w", err)
	}

	return items, total, nil
}

// Stats aggregates totals, a per-category breakdown and a rolling 24h
// counter, optionally scoped to one industry.
func (r *PostgresNewsRepository) Stats(ctx context.Context, industryID string) (models.NewsStats, error) {
	stats := models.NewsStats{ByCategory: make(map[string]int)}

	where := ""
	args := []interface{}{}
	if industryID != "" {
		where = " WHERE industry_id = $1"
		args = append(args, industryID)
	}

	if err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM industry_news"+where, args...,
	).Scan(&stats.Total); err != nil {
		return models.NewsStats{}, fmt.Errorf("failed to count news: %w", err)
	}

	rows, err := r.db.QueryContext(ctx,
		"SELECT category, COUNT(*) FROM industry_news"+where+" GROUP BY category", args...,
	)
	if err != nil {
		return models.NewsStats{}, fmt.Errorf("failed to group news by category: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var category string
		var count int
		if err := rows.Scan(&category, &count); err != nil {
			return models.NewsStats{}, fmt.Errorf("failed to scan category row: %w", err)
		}
		if category != "" {
			stats.ByCategory[category] = count
		}
	}
	if err := rows.Err(); err != nil {
		return models.NewsStats{}, fmt.Errorf("failed to read category rows: %w", err)
	}

	cutoff := time.Now().Add(-24 * time.Hour)
	recentArgs := append([]interface{}{}, args...)
	recentArgs = append(recentArgs, cutoff)
	recentQuery := fmt.Sprintf(
		"SELECT COUNT(*) FROM industry_news%s", where,
	)
	if where == "" {
		recentQuery += fmt.Sprintf(" WHERE collected_at >= $%d", len(recentArgs))
	} else {
		recentQuery += fmt.Sprintf(" AND collected_at >= $%d", len(recentArgs))
	}
	if err := r.db.QueryRowContext(ctx, recentQuery, recentArgs...).Scan(&stats.Recent24h); err != nil {
		return models.NewsStats{}, fmt.Errorf("failed to count recent news: %w", err)
	}

	return stats, nil
}

// Count returns the total number of stored news items.
func (r *PostgresNewsRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM industry_news").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count news: %w", err)
	}
	return count, nil
}

// MarkRead flags one item as read.
func (r *PostgresNewsRepository) MarkRead(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE industry_news SET is_read = TRUE WHERE id = $1", id,
	)
	if err != nil {
		return fmt.Errorf("failed to mark news read: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
