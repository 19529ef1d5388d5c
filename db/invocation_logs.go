package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/samber/mo"

	dbtx "mmjira/db/tx"
	"mmjira/models"
)

type PostgresInvocationLogsRepository struct {
	db     *sqlx.DB
	schema string
}

// Column names for invocation_logs table
var invocationLogsColumns = []string{
	"id",
	"timestamp",
	"channel_id",
	"channel_name",
	"user_name",
	"command_text",
	"request_payload",
	"response_payload",
	"response_code",
	"execution_time",
	"status",
	"error_message",
}

func NewPostgresInvocationLogsRepository(db *sqlx.DB, schema string) *PostgresInvocationLogsRepository {
	return &PostgresInvocationLogsRepository{db: db, schema: schema}
}

func (r *PostgresInvocationLogsRepository) AppendLog(ctx context.Context, entry *models.InvocationLogEntry) error {
	db := dbtx.GetTransactional(ctx, r.db)
	columnsStr := strings.Join(invocationLogsColumns, ", ")

	query := fmt.Sprintf(`
		INSERT INTO %s.invocation_logs (%s)
		VALUES ($1, NOW(), $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING %s`, r.schema, columnsStr, columnsStr)

	err := db.QueryRowxContext(ctx, query,
		entry.ID,
		entry.ChannelID,
		entry.ChannelName,
		entry.UserName,
		entry.CommandText,
		entry.RequestPayload,
		entry.ResponsePayload,
		entry.ResponseCode,
		entry.ExecutionTime,
		entry.Status,
		entry.ErrorMessage).
		StructScan(entry)
	if err != nil {
		return fmt.Errorf("failed to append invocation log: %w", err)
	}

	return nil
}

func (r *PostgresInvocationLogsRepository) GetLogByID(
	ctx context.Context,
	id string,
) (mo.Option[*models.InvocationLogEntry], error) {
	db := dbtx.GetTransactional(ctx, r.db)
	columnsStr := strings.Join(invocationLogsColumns, ", ")
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s.invocation_logs
		WHERE id = $1`, columnsStr, r.schema)

	entry := &models.InvocationLogEntry{}
	err := db.GetContext(ctx, entry, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return mo.None[*models.InvocationLogEntry](), nil
		}
		return mo.None[*models.InvocationLogEntry](), fmt.Errorf("failed to get invocation log: %w", err)
	}

	return mo.Some(entry), nil
}

// QueryLogs returns one page (1-based) of entries, newest first.
func (r *PostgresInvocationLogsRepository) QueryLogs(
	ctx context.Context,
	filters models.LogFilters,
	page int,
	pageSize int,
) (*models.LogPage, error) {
	db := dbtx.GetTransactional(ctx, r.db)
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}

	where, args := buildLogFilters(filters)

	var total int
	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM %s.invocation_logs %s`, r.schema, where)
	if err := db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, fmt.Errorf("failed to count invocation logs: %w", err)
	}

	columnsStr := strings.Join(invocationLogsColumns, ", ")
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s.invocation_logs
		%s
		ORDER BY timestamp DESC, id DESC
		LIMIT $%d OFFSET $%d`, columnsStr, r.schema, where, len(args)+1, len(args)+2)

	logs := []*models.InvocationLogEntry{}
	queryArgs := append(args, pageSize, (page-1)*pageSize)
	if err := db.SelectContext(ctx, &logs, query, queryArgs...); err != nil {
		return nil, fmt.Errorf("failed to query invocation logs: %w", err)
	}

	return &models.LogPage{
		Logs:        logs,
		Total:       total,
		Pages:       (total + pageSize - 1) / pageSize,
		CurrentPage: page,
	}, nil
}

func buildLogFilters(filters models.LogFilters) (string, []any) {
	var conditions []string
	var args []any

	if filters.ChannelID != "" {
		args = append(args, filters.ChannelID)
		conditions = append(conditions, fmt.Sprintf("channel_id = $%d", len(args)))
	}
	if filters.UserName != "" {
		args = append(args, "%"+filters.UserName+"%")
		conditions = append(conditions, fmt.Sprintf("user_name ILIKE $%d", len(args)))
	}
	if filters.Status != "" {
		args = append(args, filters.Status)
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}

	if len(conditions) == 0 {
		return "", args
	}
	return "WHERE " + strings.Join(conditions, " AND "), args
}

func (r *PostgresInvocationLogsRepository) DeleteAllLogs(ctx context.Context) (int64, error) {
	db := dbtx.GetTransactional(ctx, r.db)
	query := fmt.Sprintf(`DELETE FROM %s.invocation_logs`, r.schema)

	result, err := db.ExecContext(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("failed to delete invocation logs: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rowsAffected, nil
}

func (r *PostgresInvocationLogsRepository) DeleteLogsOlderThan(ctx context.Context, days int) (int64, error) {
	db := dbtx.GetTransactional(ctx, r.db)
	query := fmt.Sprintf(`
		DELETE FROM %s.invocation_logs
		WHERE timestamp < NOW() - make_interval(days => $1)`, r.schema)

	result, err := db.ExecContext(ctx, query, days)
	if err != nil {
		return 0, fmt.Errorf("failed to delete old invocation logs: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rowsAffected, nil
}

func (r *PostgresInvocationLogsRepository) GetStatistics(ctx context.Context) (*models.LogStatistics, error) {
	db := dbtx.GetTransactional(ctx, r.db)
	stats := &models.LogStatistics{
		ByStatus:  []models.CountByKey{},
		ByChannel: []models.CountByKey{},
		ByUser:    []models.CountByKey{},
	}

	totalQuery := fmt.Sprintf(`SELECT COUNT(*) FROM %s.invocation_logs`, r.schema)
	if err := db.GetContext(ctx, &stats.Total, totalQuery); err != nil {
		return nil, fmt.Errorf("failed to count invocation logs: %w", err)
	}

	byStatusQuery := fmt.Sprintf(`
		SELECT status AS key, COUNT(*) AS count
		FROM %s.invocation_logs
		GROUP BY status
		ORDER BY count DESC`, r.schema)
	if err := db.SelectContext(ctx, &stats.ByStatus, byStatusQuery); err != nil {
		return nil, fmt.Errorf("failed to group invocation logs by status: %w", err)
	}

	byChannelQuery := fmt.Sprintf(`
		SELECT channel_name AS key, COUNT(*) AS count
		FROM %s.invocation_logs
		GROUP BY channel_name
		ORDER BY count DESC
		LIMIT 10`, r.schema)
	if err := db.SelectContext(ctx, &stats.ByChannel, byChannelQuery); err != nil {
		return nil, fmt.Errorf("failed to group invocation logs by channel: %w", err)
	}

	byUserQuery := fmt.Sprintf(`
		SELECT user_name AS key, COUNT(*) AS count
		FROM %s.invocation_logs
		GROUP BY user_name
		ORDER BY count DESC
		LIMIT 10`, r.schema)
	if err := db.SelectContext(ctx, &stats.ByUser, byUserQuery); err != nil {
		return nil, fmt.Errorf("failed to group invocation logs by user: %w", err)
	}

	recentQuery := fmt.Sprintf(`
		SELECT COUNT(*)
		FROM %s.invocation_logs
		WHERE timestamp >= NOW() - INTERVAL '7 days'`, r.schema)
	if err := db.GetContext(ctx, &stats.Recent, recentQuery); err != nil {
		return nil, fmt.Errorf("failed to count recent invocation logs: %w", err)
	}

	return stats, nil
}

// GetChannelActivity summarises successful slash command usage for one channel.
func (r *PostgresInvocationLogsRepository) GetChannelActivity(
	ctx context.Context,
	channelID string,
) (*models.ChannelActivity, error) {
	db := dbtx.GetTransactional(ctx, r.db)
	query := fmt.Sprintf(`
		SELECT
			COUNT(*) FILTER (WHERE status = 'success' AND command_text ~* '^(create|bug|task|story)( |$)') AS issues_created,
			COUNT(*) FILTER (WHERE timestamp >= NOW() - INTERVAL '7 days') AS recent_commands,
			MAX(timestamp) AS last_activity
		FROM %s.invocation_logs
		WHERE channel_id = $1`, r.schema)

	activity := &models.ChannelActivity{}
	if err := db.GetContext(ctx, activity, query, channelID); err != nil {
		return nil, fmt.Errorf("failed to get channel activity: %w", err)
	}

	return activity, nil
}
