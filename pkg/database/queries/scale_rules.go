package queries

import (
	"context"
	"database/sql"
	"errors"

	"github.com/OldStager01/resource-autoscaler/pkg/models"
)

var ErrRuleNotFound = errors.New("scale rule not found")

type ScaleRuleRepository struct {
	db *sql.DB
}

func NewScaleRuleRepository(db *sql.DB) *ScaleRuleRepository {
	return &ScaleRuleRepository{db: db}
}

func (r *ScaleRuleRepository) ListByCluster(ctx context.Context, clusterID string) ([]models.ScaleSpec, error) {
	query := `
		SELECT cluster_id, sku_id, min_size, max_size, min_idle_to_keep, max_idle_to_keep, cool_down_secs
		FROM scale_rules
		WHERE cluster_id = $1
		ORDER BY sku_id`

	rows, err := r.db.QueryContext(ctx, query, clusterID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var specs []models.ScaleSpec
	for rows.Next() {
		var spec models.ScaleSpec
		if err := rows.Scan(
			&spec.ClusterID,
			&spec.SkuID,
			&spec.MinSize,
			&spec.MaxSize,
			&spec.MinIdleToKeep,
			&spec.MaxIdleToKeep,
			&spec.CoolDownSecs,
		); err != nil {
			return nil, err
		}
		specs = append(specs, spec)
	}

	return specs, rows.Err()
}

func (r *ScaleRuleRepository) Get(ctx context.Context, clusterID, skuID string) (*models.ScaleSpec, error) {
	query := `
		SELECT cluster_id, sku_id, min_size, max_size, min_idle_to_keep, max_idle_to_keep, cool_down_secs
		FROM scale_rules
		WHERE cluster_id = $1 AND sku_id = $2`

	var spec models.ScaleSpec
	err := r.db.QueryRowContext(ctx, query, clusterID, skuID).Scan(
		&spec.ClusterID,
		&spec.SkuID,
		&spec.MinSize,
		&spec.MaxSize,
		&spec.MinIdleToKeep,
		&spec.MaxIdleToKeep,
		&spec.CoolDownSecs,
	)
	if err == sql.ErrNoRows {
		return nil, ErrRuleNotFound
	}
	if err != nil {
		return nil, err
	}
	return &spec, nil
}

func (r *ScaleRuleRepository) Upsert(ctx context.Context, spec models.ScaleSpec) error {
	query := `
		INSERT INTO scale_rules
			(cluster_id, sku_id, min_size, max_size, min_idle_to_keep, max_idle_to_keep, cool_down_secs, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
		ON CONFLICT (cluster_id, sku_id) DO UPDATE SET
			min_size = EXCLUDED.min_size,
			max_size = EXCLUDED.max_size,
			min_idle_to_keep = EXCLUDED.min_idle_to_keep,
			max_idle_to_keep = EXCLUDED.max_idle_to_keep,
			cool_down_secs = EXCLUDED.cool_down_secs,
			updated_at = NOW()`

	_, err := r.db.ExecContext(ctx, query,
		spec.ClusterID,
		spec.SkuID,
		spec.MinSize,
		spec.MaxSize,
		spec.MinIdleToKeep,
		spec.MaxIdleToKeep,
		spec.CoolDownSecs,
	)
	return err
}

func (r *ScaleRuleRepository) Delete(ctx context.Context, clusterID, skuID string) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM scale_rules WHERE cluster_id = $1 AND sku_id = $2`,
		clusterID, skuID,
	)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrRuleNotFound
	}
	return nil
}
