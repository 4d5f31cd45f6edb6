package queries

import (
	"context"
	"database/sql"
	"time"

	"github.com/OldStager01/resource-autoscaler/pkg/models"
)

type UsageSampleRepository struct {
	db *sql.DB
}

func NewUsageSampleRepository(db *sql.DB) *UsageSampleRepository {
	return &UsageSampleRepository{db: db}
}

// Insert stores one row per SKU of the sample inside a transaction so a
// snapshot is either fully recorded or not at all.
func (r *UsageSampleRepository) Insert(ctx context.Context, usage models.ClusterUsage, sampledAt time.Time) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO usage_samples (cluster_id, sku_id, idle_count, total_count, sampled_at)
		VALUES ($1, $2, $3, $4, $5)`

	for _, u := range usage.Usages {
		if _, err := tx.ExecContext(ctx, query,
			usage.ClusterID, u.Def.SkuID, u.IdleCount, u.TotalCount, sampledAt,
		); err != nil {
			tx.Rollback()
			return err
		}
	}

	return tx.Commit()
}

// UsageSampleRecord is one stored per-SKU usage row.
type UsageSampleRecord struct {
	ClusterID  string    `json:"cluster_id"`
	SkuID      string    `json:"sku_id"`
	IdleCount  int       `json:"idle_count"`
	TotalCount int       `json:"total_count"`
	SampledAt  time.Time `json:"sampled_at"`
}

func (r *UsageSampleRepository) ListRecent(ctx context.Context, clusterID string, limit int) ([]UsageSampleRecord, error) {
	if limit <= 0 {
		limit = 100
	}

	query := `
		SELECT cluster_id, sku_id, idle_count, total_count, sampled_at
		FROM usage_samples
		WHERE cluster_id = $1
		ORDER BY sampled_at DESC
		LIMIT $2`

	rows, err := r.db.QueryContext(ctx, query, clusterID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []UsageSampleRecord
	for rows.Next() {
		var record UsageSampleRecord
		if err := rows.Scan(
			&record.ClusterID,
			&record.SkuID,
			&record.IdleCount,
			&record.TotalCount,
			&record.SampledAt,
		); err != nil {
			return nil, err
		}
		records = append(records, record)
	}

	return records, rows.Err()
}
