package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/samber/mo"

	// necessary import to wire up the postgres driver
	_ "github.com/lib/pq"

	dbtx "mmjira/db/tx"
	"mmjira/models"
)

type PostgresMappingsRepository struct {
	db     *sqlx.DB
	schema string
}

// Column names for channel_project_mappings table
var mappingsColumns = []string{
	"id",
	"channel_id",
	"channel_name",
	"project_key",
	"created_at",
	"updated_at",
}

func NewPostgresMappingsRepository(db *sqlx.DB, schema string) *PostgresMappingsRepository {
	return &PostgresMappingsRepository{db: db, schema: schema}
}

// UpsertMapping inserts or rebinds the mapping for mapping.ChannelID. The row
// keeps its original id and created_at when it already exists.
func (r *PostgresMappingsRepository) UpsertMapping(ctx context.Context, mapping *models.ChannelProjectMapping) error {
	db := dbtx.GetTransactional(ctx, r.db)
	columnsStr := strings.Join(mappingsColumns, ", ")

	query := fmt.Sprintf(`
		INSERT INTO %s.channel_project_mappings (%s)
		VALUES ($1, $2, $3, $4, NOW(), NOW())
		ON CONFLICT (channel_id)
		DO UPDATE SET
			channel_name = EXCLUDED.channel_name,
			project_key = EXCLUDED.project_key,
			updated_at = NOW()
		RETURNING %s`, r.schema, columnsStr, columnsStr)

	err := db.QueryRowxContext(ctx, query,
		mapping.ID,
		mapping.ChannelID,
		mapping.ChannelName,
		mapping.ProjectKey).
		StructScan(mapping)
	if err != nil {
		return fmt.Errorf("failed to upsert channel mapping: %w", err)
	}

	return nil
}

// CreateMapping inserts a mapping and reports false when the channel is already bound.
func (r *PostgresMappingsRepository) CreateMapping(ctx context.Context, mapping *models.ChannelProjectMapping) (bool, error) {
	db := dbtx.GetTransactional(ctx, r.db)
	columnsStr := strings.Join(mappingsColumns, ", ")

	query := fmt.Sprintf(`
		INSERT INTO %s.channel_project_mappings (%s)
		VALUES ($1, $2, $3, $4, NOW(), NOW())
		ON CONFLICT (channel_id) DO NOTHING
		RETURNING %s`, r.schema, columnsStr, columnsStr)

	err := db.QueryRowxContext(ctx, query,
		mapping.ID,
		mapping.ChannelID,
		mapping.ChannelName,
		mapping.ProjectKey).
		StructScan(mapping)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("failed to create channel mapping: %w", err)
	}

	return true, nil
}

func (r *PostgresMappingsRepository) GetMappingByChannelID(
	ctx context.Context,
	channelID string,
) (mo.Option[*models.ChannelProjectMapping], error) {
	db := dbtx.GetTransactional(ctx, r.db)
	columnsStr := strings.Join(mappingsColumns, ", ")
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s.channel_project_mappings
		WHERE channel_id = $1`, columnsStr, r.schema)

	mapping := &models.ChannelProjectMapping{}
	err := db.GetContext(ctx, mapping, query, channelID)
	if err != nil {
		if err == sql.ErrNoRows {
			return mo.None[*models.ChannelProjectMapping](), nil
		}
		return mo.None[*models.ChannelProjectMapping](), fmt.Errorf("failed to get channel mapping: %w", err)
	}

	return mo.Some(mapping), nil
}

func (r *PostgresMappingsRepository) GetMappingByID(
	ctx context.Context,
	id string,
) (mo.Option[*models.ChannelProjectMapping], error) {
	db := dbtx.GetTransactional(ctx, r.db)
	columnsStr := strings.Join(mappingsColumns, ", ")
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s.channel_project_mappings
		WHERE id = $1`, columnsStr, r.schema)

	mapping := &models.ChannelProjectMapping{}
	err := db.GetContext(ctx, mapping, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return mo.None[*models.ChannelProjectMapping](), nil
		}
		return mo.None[*models.ChannelProjectMapping](), fmt.Errorf("failed to get channel mapping by id: %w", err)
	}

	return mo.Some(mapping), nil
}

func (r *PostgresMappingsRepository) ListMappings(ctx context.Context) ([]*models.ChannelProjectMapping, error) {
	db := dbtx.GetTransactional(ctx, r.db)
	columnsStr := strings.Join(mappingsColumns, ", ")
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s.channel_project_mappings
		ORDER BY channel_name ASC, created_at ASC`, columnsStr, r.schema)

	var mappings []*models.ChannelProjectMapping
	if err := db.SelectContext(ctx, &mappings, query); err != nil {
		return nil, fmt.Errorf("failed to list channel mappings: %w", err)
	}

	return mappings, nil
}

// DeleteMappingByChannelID returns false when no mapping existed.
func (r *PostgresMappingsRepository) DeleteMappingByChannelID(ctx context.Context, channelID string) (bool, error) {
	db := dbtx.GetTransactional(ctx, r.db)
	query := fmt.Sprintf(`DELETE FROM %s.channel_project_mappings WHERE channel_id = $1`, r.schema)

	result, err := db.ExecContext(ctx, query, channelID)
	if err != nil {
		return false, fmt.Errorf("failed to delete channel mapping: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rowsAffected > 0, nil
}

func (r *PostgresMappingsRepository) DeleteMappingByID(ctx context.Context, id string) (bool, error) {
	db := dbtx.GetTransactional(ctx, r.db)
	query := fmt.Sprintf(`DELETE FROM %s.channel_project_mappings WHERE id = $1`, r.schema)

	result, err := db.ExecContext(ctx, query, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete channel mapping by id: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rowsAffected > 0, nil
}
