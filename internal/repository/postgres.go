package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/neurowatch-systems/neurowatch/internal/models"
)

// PostgresRepository implements Repository using PostgreSQL
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL repository
func NewPostgresRepository(ctx context.Context, connString string) (*PostgresRepository, error) {
	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}

	config.MaxConns = 25
	config.MinConns = 5
	config.MaxConnLifetime = 5 * time.Minute
	config.MaxConnIdleTime = 1 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresRepository{pool: pool}, nil
}

func (r *PostgresRepository) CreateUser(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (id, username, password_hash, is_admin, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (username) DO NOTHING
	`

	result, err := r.pool.Exec(ctx, query,
		user.ID, user.Username, user.PasswordHash, user.IsAdmin, user.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrUserExists
	}

	return nil
}

func (r *PostgresRepository) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	query := `
		SELECT id, username, password_hash, is_admin, created_at
		FROM users
		WHERE username = $1
	`

	u := &models.User{}
	err := r.pool.QueryRow(ctx, query, username).Scan(
		&u.ID, &u.Username, &u.PasswordHash, &u.IsAdmin, &u.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return u, nil
}

func (r *PostgresRepository) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	query := `
		SELECT id, username, password_hash, is_admin, created_at
		FROM users
		WHERE id = $1
	`

	u := &models.User{}
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&u.ID, &u.Username, &u.PasswordHash, &u.IsAdmin, &u.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return u, nil
}

func (r *PostgresRepository) ListUsers(ctx context.Context) ([]*models.User, error) {
	query := `
		SELECT id, username, password_hash, is_admin, created_at
		FROM users
		ORDER BY created_at
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	users := []*models.User{}
	for rows.Next() {
		u := &models.User{}
		if err := rows.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.IsAdmin, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return users, nil
}

func (r *PostgresRepository) CreateDevice(ctx context.Context, device *models.Device) error {
	query := `
		INSERT INTO devices (device_id, owner_id, label, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (device_id) DO NOTHING
	`

	result, err := r.pool.Exec(ctx, query,
		device.DeviceID, device.OwnerID, device.Label, device.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create device: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrDeviceExists
	}

	return nil
}

func (r *PostgresRepository) GetDevice(ctx context.Context, deviceID string) (*models.Device, error) {
	query := `
		SELECT device_id, owner_id, label, created_at
		FROM devices
		WHERE device_id = $1
	`

	d := &models.Device{}
	err := r.pool.QueryRow(ctx, query, deviceID).Scan(
		&d.DeviceID, &d.OwnerID, &d.Label, &d.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrDeviceNotFound
		}
		return nil, fmt.Errorf("failed to get device: %w", err)
	}

	return d, nil
}

func (r *PostgresRepository) ListDevicesByOwner(ctx context.Context, userID string) ([]*models.Device, error) {
	query := `
		SELECT device_id, owner_id, label, created_at
		FROM devices
		WHERE owner_id = $1
		ORDER BY created_at
	`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list devices: %w", err)
	}
	defer rows.Close()

	devices := []*models.Device{}
	for rows.Next() {
		d := &models.Device{}
		if err := rows.Scan(&d.DeviceID, &d.OwnerID, &d.Label, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan device: %w", err)
		}
		devices = append(devices, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return devices, nil
}

func (r *PostgresRepository) UpdateDeviceLabel(ctx context.Context, deviceID, label string) error {
	result, err := r.pool.Exec(ctx,
		`UPDATE devices SET label = $1 WHERE device_id = $2`, label, deviceID)
	if err != nil {
		return fmt.Errorf("failed to update device: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrDeviceNotFound
	}

	return nil
}

func (r *PostgresRepository) DeleteDevice(ctx context.Context, deviceID string) error {
	result, err := r.pool.Exec(ctx,
		`DELETE FROM devices WHERE device_id = $1`, deviceID)
	if err != nil {
		return fmt.Errorf("failed to delete device: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrDeviceNotFound
	}

	return nil
}

func (r *PostgresRepository) InsertTelemetry(ctx context.Context, event *models.TelemetryEvent) error {
	attrs, err := json.Marshal(event.Attributes)
	if err != nil {
		return fmt.Errorf("failed to marshal attributes: %w", err)
	}

	query := `
		INSERT INTO telemetry (id, device_id, observed_at, seizure_flag, attributes)
		VALUES ($1, $2, $3, $4, $5)
	`

	if _, err := r.pool.Exec(ctx, query,
		event.ID, event.DeviceID, event.ObservedAt, event.SeizureFlag, attrs,
	); err != nil {
		return fmt.Errorf("failed to insert telemetry: %w", err)
	}

	return nil
}

func (r *PostgresRepository) QueryAbnormal(ctx context.Context, deviceIDs []string, from, to time.Time) ([]*models.TelemetryEvent, error) {
	if len(deviceIDs) == 0 {
		return []*models.TelemetryEvent{}, nil
	}

	query := `
		SELECT id, device_id, observed_at, seizure_flag, attributes
		FROM telemetry
		WHERE device_id = ANY($1)
		  AND seizure_flag
		  AND observed_at >= $2
		  AND observed_at <= $3
	`

	rows, err := r.pool.Query(ctx, query, deviceIDs, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to query abnormal telemetry: %w", err)
	}
	defer rows.Close()

	return scanTelemetryRows(rows)
}

func (r *PostgresRepository) ListTelemetryByDevice(ctx context.Context, deviceID string, limit int) ([]*models.TelemetryEvent, error) {
	query := `
		SELECT id, device_id, observed_at, seizure_flag, attributes
		FROM telemetry
		WHERE device_id = $1
		ORDER BY observed_at DESC
		LIMIT $2
	`

	rows, err := r.pool.Query(ctx, query, deviceID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list telemetry: %w", err)
	}
	defer rows.Close()

	return scanTelemetryRows(rows)
}

func scanTelemetryRows(rows pgx.Rows) ([]*models.TelemetryEvent, error) {
	events := []*models.TelemetryEvent{}
	for rows.Next() {
		e := &models.TelemetryEvent{}
		var attrs []byte
		if err := rows.Scan(&e.ID, &e.DeviceID, &e.ObservedAt, &e.SeizureFlag, &attrs); err != nil {
			return nil, fmt.Errorf("failed to scan telemetry: %w", err)
		}
		if len(attrs) > 0 {
			if err := json.Unmarshal(attrs, &e.Attributes); err != nil {
				return nil, fmt.Errorf("failed to unmarshal attributes: %w", err)
			}
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return events, nil
}

func (r *PostgresRepository) InsertCorrelatedEvent(ctx context.Context, event *models.CorrelatedEvent) error {
	query := `
		INSERT INTO correlated_events (id, user_id, triggered_at, device_ids)
		VALUES ($1, $2, $3, $4)
	`

	if _, err := r.pool.Exec(ctx, query,
		event.ID, event.UserID, event.TriggeredAt, event.DeviceIDs,
	); err != nil {
		return fmt.Errorf("failed to insert correlated event: %w", err)
	}

	return nil
}

func (r *PostgresRepository) FindRecentCorrelatedEvent(ctx context.Context, userID string, from, to time.Time) (*models.CorrelatedEvent, error) {
	query := `
		SELECT id, user_id, triggered_at, device_ids
		FROM correlated_events
		WHERE user_id = $1
		  AND triggered_at >= $2
		  AND triggered_at <= $3
		ORDER BY triggered_at DESC
		LIMIT 1
	`

	e := &models.CorrelatedEvent{}
	err := r.pool.QueryRow(ctx, query, userID, from, to).Scan(
		&e.ID, &e.UserID, &e.TriggeredAt, &e.DeviceIDs,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find recent correlated event: %w", err)
	}

	return e, nil
}

func (r *PostgresRepository) ListCorrelatedEvents(ctx context.Context, userID string) ([]*models.CorrelatedEvent, error) {
	query := `
		SELECT id, user_id, triggered_at, device_ids
		FROM correlated_events
		WHERE user_id = $1
		ORDER BY triggered_at DESC
	`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list correlated events: %w", err)
	}
	defer rows.Close()

	events := []*models.CorrelatedEvent{}
	for rows.Next() {
		e := &models.CorrelatedEvent{}
		if err := rows.Scan(&e.ID, &e.UserID, &e.TriggeredAt, &e.DeviceIDs); err != nil {
			return nil, fmt.Errorf("failed to scan correlated event: %w", err)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return events, nil
}

func (r *PostgresRepository) LatestCorrelatedEvent(ctx context.Context, userID string) (*models.CorrelatedEvent, error) {
	query := `
		SELECT id, user_id, triggered_at, device_ids
		FROM correlated_events
		WHERE user_id = $1
		ORDER BY triggered_at DESC
		LIMIT 1
	`

	e := &models.CorrelatedEvent{}
	err := r.pool.QueryRow(ctx, query, userID).Scan(
		&e.ID, &e.UserID, &e.TriggeredAt, &e.DeviceIDs,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get latest correlated event: %w", err)
	}

	return e, nil
}

// Close closes the database connection pool
func (r *PostgresRepository) Close() error {
	r.pool.Close()
	return nil
}
