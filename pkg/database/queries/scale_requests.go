package queries

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/OldStager01/resource-autoscaler/pkg/models"
)

type ScaleRequestRepository struct {
	db *sql.DB
}

func NewScaleRequestRepository(db *sql.DB) *ScaleRequestRepository {
	return &ScaleRequestRepository{db: db}
}

// ScaleRequestRecord is one dispatched scale request as stored.
type ScaleRequestRecord struct {
	ID            int64     `json:"id"`
	ClusterID     string    `json:"cluster_id"`
	SkuID         string    `json:"sku_id"`
	DesireSize    int       `json:"desire_size"`
	IdleInstances []string  `json:"idle_instances,omitempty"`
	DispatchedAt  time.Time `json:"dispatched_at"`
}

func (r *ScaleRequestRepository) Insert(ctx context.Context, req models.ScaleResourceRequest, dispatchedAt time.Time) error {
	var idleJSON interface{}
	if req.IdleInstances != nil {
		data, err := json.Marshal(req.IdleInstances)
		if err != nil {
			return err
		}
		idleJSON = data
	}

	query := `
		INSERT INTO scale_requests (cluster_id, sku_id, desire_size, idle_instances, dispatched_at)
		VALUES ($1, $2, $3, $4, $5)`

	_, err := r.db.ExecContext(ctx, query,
		req.ClusterID, req.SkuID, req.DesireSize, idleJSON, dispatchedAt,
	)
	return err
}

func (r *ScaleRequestRepository) ListRecent(ctx context.Context, clusterID string, limit int) ([]ScaleRequestRecord, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT id, cluster_id, sku_id, desire_size, idle_instances, dispatched_at
		FROM scale_requests
		WHERE cluster_id = $1
		ORDER BY dispatched_at DESC
		LIMIT $2`

	rows, err := r.db.QueryContext(ctx, query, clusterID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []ScaleRequestRecord
	for rows.Next() {
		var record ScaleRequestRecord
		var idleJSON []byte
		if err := rows.Scan(
			&record.ID,
			&record.ClusterID,
			&record.SkuID,
			&record.DesireSize,
			&idleJSON,
			&record.DispatchedAt,
		); err != nil {
			return nil, err
		}
		if len(idleJSON) > 0 {
			if err := json.Unmarshal(idleJSON, &record.IdleInstances); err != nil {
				return nil, err
			}
		}
		records = append(records, record)
	}

	return records, rows.Err()
}
