package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/sectorpulse/sectorpulse/internal/models"
)

// PostgresBiddingRepository persists collected bidding notices.
type PostgresBiddingRepository struct {
	db *sql.DB
}

// NewPostgresBiddingRepository creates a bidding repository backed by PostgreSQL.
func NewPostgresBiddingRepository(db *sql.DB) *PostgresBiddingRepository {
	return &PostgresBiddingRepository{db: db}
}

// ExistsByBidID reports whether a notice with the given provider-assigned id
// is already stored. The unique constraint on bid_id remains the
// authoritative dedup invariant.
func (r *PostgresBiddingRepository) ExistsByBidID(ctx context.Context, bidID string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		"SELECT EXISTS (SELECT 1 FROM bidding_notices WHERE bid_id = $1)",
		bidID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check bidding existence: %w", err)
	}
	return exists, nil
}

// InsertBatch stores a batch of notices in one transaction. Conflicts on the
// bid_id unique constraint are resolved as no-ops; the returned count is the
// number of rows actually inserted.
func (r *PostgresBiddingRepository) InsertBatch(ctx context.Context, notices []models.BiddingNotice) (int, error) {
	if len(notices) == 0 {
		return 0, nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	const query = `
		INSERT INTO bidding_notices (
			id, industry_id, bid_id, title, notice_type, province, city,
			publish_time, source, collected_at, is_read, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, FALSE, NOW())
		ON CONFLICT (bid_id) DO NOTHING
	`

	inserted := 0
	for _, notice := range notices {
		res, err := tx.ExecContext(ctx, query,
			notice.ID,
			notice.IndustryID,
			notice.BidID,
			notice.Title,
			notice.NoticeType,
			notice.Province,
			notice.City,
			notice.PublishTime,
			notice.Source,
			notice.CollectedAt,
		)
		if err != nil {
			return 0, fmt.Errorf("failed to insert bidding notice: %w", err)
		}
		if n, err := res.RowsAffected(); err == nil {
			inserted += int(n)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit bidding batch: %w", err)
	}
	return inserted, nil
}

// List returns notices matching the query ordered by collection time
// descending, plus the total count matching the filters. A notice_type of
// "tender" or "award" matches fuzzily by substring group; any other
// non-empty value matches exactly.
func (r *PostgresBiddingRepository) List(ctx context.Context, q models.BiddingQuery) ([]models.BiddingNotice, int, error) {
	where := "WHERE 1=1"
	args := []interface{}{}

	if q.IndustryID != "" {
		args = append(args, q.IndustryID)
		where += fmt.Sprintf(" AND industry_id = $%d", len(args))
	}
	if q.NoticeType != "" {
		if subs := models.NoticeGroupSubstrings(models.NoticeGroup(q.NoticeType)); len(subs) > 0 {
			clause := ""
			for i, sub := range subs {
				args = append(args, "%"+sub+"%")
				if i > 0 {
					clause += " OR "
				}
				clause += fmt.Sprintf("notice_type LIKE $%d", len(args))
			}
			where += " AND (" + clause + ")"
		} else {
			args = append(args, q.NoticeType)
			where += fmt.Sprintf(" AND notice_type = $%d", len(args))
		}
	}
	if q.Province != "" {
		args = append(args, q.Province)
		where += fmt.Sprintf(" AND province = $%d", len(args))
	}

	var total int
	countQuery := "SELECT COUNT(*) FROM bidding_notices " + where
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count bidding notices: %w", err)
	}

	limit := q.Limit
	if limit <= 0 {
		limit = 20
	}
	args = append(args, limit, q.Offset)
	listQuery := fmt.Sprintf(`
		SELECT id, industry_id, bid_id, title, notice_type, province, city,
		       publish_time, source, collected_at, is_read, created_at
		FROM bidding_notices %s
		ORDER BY collected_at DESC
		LIMIT $%d OFFSET $%d
	`, where, len(args)-1, len(args))

	rows, err := r.db.QueryContext(ctx, listQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list bidding notices: %w", err)
	}
	defer rows.Close()

	notices := make([]models.BiddingNotice, 0, limit)
	for rows.Next() {
		var (
			notice      models.BiddingNotice
			noticeType  sql.NullString
			province    sql.NullString
			city        sql.NullString
			publishTime sql.NullTime
		)
		if err := rows.Scan(
			&notice.ID, &notice.IndustryID, &notice.BidID, &notice.Title,
			&noticeType, &province, &city, &publishTime, &notice.Source,
			&notice.CollectedAt, &notice.IsRead, &notice.CreatedAt,
		); err != nil {
			return nil, 0, fmt.Errorf("failed to scan bidding row: %w", err)
		}
		notice.NoticeType = noticeType.String
		notice.Province = province.String
		notice.City = city.String
		if publishTime.Valid {
			t := publishTime.Time
			notice.PublishTime = &t
		}
		notices = append(notices, notice)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to read bidding rows: %w", err)
	}

	return notices, total, nil
}

// Stats aggregates totals, a raw per-type breakdown, the fuzzy tender/award
// group counts, and a top-10 per-province breakdown, optionally scoped to
// one industry.
func (r *PostgresBiddingRepository) Stats(ctx context.Context, industryID string) (models.BiddingStats, error) {
	stats := models.BiddingStats{
		ByType:     make(map[string]int),
		ByProvince: make(map[string]int),
	}

	where := ""
	args := []interface{}{}
	if industryID != "" {
		where = " WHERE industry_id = $1"
		args = append(args, industryID)
	}

	if err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM bidding_notices"+where, args...,
	).Scan(&stats.Total); err != nil {
		return models.BiddingStats{}, fmt.Errorf("failed to count bidding notices: %w", err)
	}

	typeRows, err := r.db.QueryContext(ctx,
		"SELECT notice_type, COUNT(*) FROM bidding_notices"+where+" GROUP BY notice_type", args...,
	)
	if err != nil {
		return models.BiddingStats{}, fmt.Errorf("failed to group bidding by type: %w", err)
	}
	defer typeRows.Close()

	for typeRows.Next() {
		var noticeType sql.NullString
		var count int
		if err := typeRows.Scan(&noticeType, &count); err != nil {
			return models.BiddingStats{}, fmt.Errorf("failed to scan type row: %w", err)
		}
		if !noticeType.Valid || noticeType.String == "" {
			continue
		}
		stats.ByType[noticeType.String] = count
		if group, ok := models.GroupForNoticeType(noticeType.String); ok {
			switch group {
			case models.NoticeGroupAward:
				stats.AwardCount += count
			case models.NoticeGroupTender:
				stats.TenderCount += count
			}
		}
	}
	if err := typeRows.Err(); err != nil {
		return models.BiddingStats{}, fmt.Errorf("failed to read type rows: %w", err)
	}

	provinceRows, err := r.db.QueryContext(ctx,
		"SELECT province, COUNT(*) AS c FROM bidding_notices"+where+
			" GROUP BY province ORDER BY c DESC LIMIT 10", args...,
	)
	if err != nil {
		return models.BiddingStats{}, fmt.Errorf("failed to group bidding by province: %w", err)
	}
	defer provinceRows.Close()

	for provinceRows.Next() {
		var province sql.NullString
		var count int
		if err := provinceRows.Scan(&province, &count); err != nil {
			return models.BiddingStats{}, fmt.Errorf("failed to scan province row: %w", err)
		}
		if province.Valid && province.String != "" {
			stats.ByProvince[province.String] = count
		}
	}
	if err := provinceRows.Err(); err != nil {
		return models.BiddingStats{}, fmt.Errorf("failed to read province rows: %w", err)
	}

	return stats, nil
}

// Count returns the total number of stored bidding notices.
func (r *PostgresBiddingRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM bidding_notices").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count bidding notices: %w", err)
	}
	return count, nil
}

// MarkRead flags one notice as read.
func (r *PostgresBiddingRepository) MarkRead(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE bidding_notices SET is_read = TRUE WHERE id = $1", id,
	)
	if err != nil {
		return fmt.Errorf("failed to mark bidding notice read: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
