package repository

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/neurowatch-systems/neurowatch/internal/models"
)

// setupTestDatabase creates a PostgreSQL testcontainer and runs migrations
func setupTestDatabase(t *testing.T) (*PostgresRepository, func()) {
	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"postgres:17-alpine",
		postgres.WithDatabase("neurowatch_test"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	if err != nil {
		t.Fatalf("Failed to start PostgreSQL container: %v", err)
	}

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("Failed to get connection string: %v", err)
	}

	if err := runMigrations(connStr); err != nil {
		container.Terminate(ctx)
		t.Fatalf("Failed to run migrations: %v", err)
	}

	repo, err := NewPostgresRepository(ctx, connStr)
	if err != nil {
		container.Terminate(ctx)
		t.Fatalf("Failed to create repository: %v", err)
	}

	cleanup := func() {
		repo.Close()
		if err := container.Terminate(ctx); err != nil {
			t.Logf("Failed to terminate container: %v", err)
		}
	}

	return repo, cleanup
}

func runMigrations(connStr string) error {
	db, err := sql.Open("pgx", connStr)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	migrationPath := filepath.Join("..", "..", "migrations", "001_init.up.sql")
	migrationSQL, err := os.ReadFile(migrationPath)
	if err != nil {
		return fmt.Errorf("failed to read migration file: %w", err)
	}

	if _, err := db.Exec(string(migrationSQL)); err != nil {
		return fmt.Errorf("failed to execute migration: %w", err)
	}

	return nil
}

func seedUser(t *testing.T, repo *PostgresRepository, id, username string) {
	t.Helper()
	err := repo.CreateUser(context.Background(), &models.User{
		ID:           id,
		Username:     username,
		PasswordHash: "hashed_password",
		CreatedAt:    time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("Failed to seed user: %v", err)
	}
}

func seedDevice(t *testing.T, repo *PostgresRepository, deviceID, ownerID string) {
	t.Helper()
	err := repo.CreateDevice(context.Background(), &models.Device{
		DeviceID:  deviceID,
		OwnerID:   ownerID,
		Label:     deviceID,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("Failed to seed device: %v", err)
	}
}

const (
	testUserID  = "11111111-1111-1111-1111-111111111111"
	otherUserID = "22222222-2222-2222-2222-222222222222"
)

func TestPostgresUsers(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping testcontainers test in short mode")
	}

	repo, cleanup := setupTestDatabase(t)
	defer cleanup()
	ctx := context.Background()

	seedUser(t, repo, testUserID, "alice")

	t.Run("duplicate username", func(t *testing.T) {
		err := repo.CreateUser(ctx, &models.User{
			ID:           otherUserID,
			Username:     "alice",
			PasswordHash: "other_hash",
			CreatedAt:    time.Now().UTC(),
		})
		if err != ErrUserExists {
			t.Errorf("CreateUser() error = %v, want ErrUserExists", err)
		}
	})

	t.Run("get by username", func(t *testing.T) {
		user, err := repo.GetUserByUsername(ctx, "alice")
		if err != nil {
			t.Fatalf("GetUserByUsername() error = %v", err)
		}
		if user.ID != testUserID {
			t.Errorf("user.ID = %q, want %q", user.ID, testUserID)
		}
	})

	t.Run("get by id", func(t *testing.T) {
		user, err := repo.GetUserByID(ctx, testUserID)
		if err != nil {
			t.Fatalf("GetUserByID() error = %v", err)
		}
		if user.Username != "alice" {
			t.Errorf("user.Username = %q, want %q", user.Username, "alice")
		}
	})

	t.Run("unknown user", func(t *testing.T) {
		if _, err := repo.GetUserByUsername(ctx, "nobody"); err != ErrUserNotFound {
			t.Errorf("GetUserByUsername() error = %v, want ErrUserNotFound", err)
		}
	})
}

func TestPostgresDevices(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping testcontainers test in short mode")
	}

	repo, cleanup := setupTestDatabase(t)
	defer cleanup()
	ctx := context.Background()

	seedUser(t, repo, testUserID, "alice")
	seedDevice(t, repo, "d1", testUserID)
	seedDevice(t, repo, "d2", testUserID)

	t.Run("duplicate device id", func(t *testing.T) {
		err := repo.CreateDevice(ctx, &models.Device{
			DeviceID: "d1", OwnerID: testUserID, Label: "dup", CreatedAt: time.Now().UTC(),
		})
		if err != ErrDeviceExists {
			t.Errorf("CreateDevice() error = %v, want ErrDeviceExists", err)
		}
	})

	t.Run("list by owner", func(t *testing.T) {
		devices, err := repo.ListDevicesByOwner(ctx, testUserID)
		if err != nil {
			t.Fatalf("ListDevicesByOwner() error = %v", err)
		}
		if len(devices) != 2 {
			t.Errorf("len(devices) = %d, want 2", len(devices))
		}
	})

	t.Run("update label", func(t *testing.T) {
		if err := repo.UpdateDeviceLabel(ctx, "d1", "renamed"); err != nil {
			t.Fatalf("UpdateDeviceLabel() error = %v", err)
		}
		device, err := repo.GetDevice(ctx, "d1")
		if err != nil {
			t.Fatalf("GetDevice() error = %v", err)
		}
		if device.Label != "renamed" {
			t.Errorf("device.Label = %q, want %q", device.Label, "renamed")
		}
	})

	t.Run("delete", func(t *testing.T) {
		if err := repo.DeleteDevice(ctx, "d2"); err != nil {
			t.Fatalf("DeleteDevice() error = %v", err)
		}
		if _, err := repo.GetDevice(ctx, "d2"); err != ErrDeviceNotFound {
			t.Errorf("GetDevice() error = %v, want ErrDeviceNotFound", err)
		}
	})
}

func TestPostgresTelemetry(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping testcontainers test in short mode")
	}

	repo, cleanup := setupTestDatabase(t)
	defer cleanup()
	ctx := context.Background()

	seedUser(t, repo, testUserID, "alice")
	for _, d := range []string{"d1", "d2", "d3"} {
		seedDevice(t, repo, d, testUserID)
	}

	base := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	insert := func(id, deviceID string, at time.Time, abnormal bool) {
		t.Helper()
		err := repo.InsertTelemetry(ctx, &models.TelemetryEvent{
			ID:          id,
			DeviceID:    deviceID,
			ObservedAt:  at,
			SeizureFlag: abnormal,
			Attributes:  map[string]interface{}{"heart_rate": 88},
		})
		if err != nil {
			t.Fatalf("InsertTelemetry() error = %v", err)
		}
	}

	insert("33333333-3333-3333-3333-333333333331", "d1", base.Add(-10*time.Second), true)
	insert("33333333-3333-3333-3333-333333333332", "d1", base.Add(-5*time.Second), true)
	insert("33333333-3333-3333-3333-333333333333", "d2", base.Add(-2*time.Second), true)
	insert("33333333-3333-3333-3333-333333333334", "d3", base, false)

	t.Run("query abnormal with inclusive bounds", func(t *testing.T) {
		events, err := repo.QueryAbnormal(ctx, []string{"d1", "d2", "d3"}, base.Add(-5*time.Second), base)
		if err != nil {
			t.Fatalf("QueryAbnormal() error = %v", err)
		}
		// The -10s reading is out of range; d3's reading is not abnormal.
		// The -5s reading sits exactly on the lower bound and counts.
		if len(events) != 2 {
			t.Fatalf("len(events) = %d, want 2", len(events))
		}
	})

	t.Run("query abnormal filters devices", func(t *testing.T) {
		events, err := repo.QueryAbnormal(ctx, []string{"d2"}, base.Add(-time.Minute), base)
		if err != nil {
			t.Fatalf("QueryAbnormal() error = %v", err)
		}
		if len(events) != 1 {
			t.Fatalf("len(events) = %d, want 1", len(events))
		}
		if events[0].DeviceID != "d2" {
			t.Errorf("events[0].DeviceID = %q, want %q", events[0].DeviceID, "d2")
		}
	})

	t.Run("history newest first", func(t *testing.T) {
		events, err := repo.ListTelemetryByDevice(ctx, "d1", 10)
		if err != nil {
			t.Fatalf("ListTelemetryByDevice() error = %v", err)
		}
		if len(events) != 2 {
			t.Fatalf("len(events) = %d, want 2", len(events))
		}
		if events[0].ObservedAt.Before(events[1].ObservedAt) {
			t.Error("history should be ordered newest first")
		}
		if events[0].Attributes["heart_rate"] == nil {
			t.Error("attributes should round-trip through JSONB")
		}
	})
}

func TestPostgresCorrelatedEvents(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping testcontainers test in short mode")
	}

	repo, cleanup := setupTestDatabase(t)
	defer cleanup()
	ctx := context.Background()

	seedUser(t, repo, testUserID, "alice")

	base := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	insert := func(id string, at time.Time) {
		t.Helper()
		err := repo.InsertCorrelatedEvent(ctx, &models.CorrelatedEvent{
			ID:          id,
			UserID:      testUserID,
			TriggeredAt: at,
			DeviceIDs:   []string{"d1", "d2", "d3"},
		})
		if err != nil {
			t.Fatalf("InsertCorrelatedEvent() error = %v", err)
		}
	}

	t.Run("find recent when none", func(t *testing.T) {
		event, err := repo.FindRecentCorrelatedEvent(ctx, testUserID, base.Add(-5*time.Second), base)
		if err != nil {
			t.Fatalf("FindRecentCorrelatedEvent() error = %v", err)
		}
		if event != nil {
			t.Errorf("expected nil event, got %+v", event)
		}
	})

	insert("44444444-4444-4444-4444-444444444441", base.Add(-time.Hour))
	insert("44444444-4444-4444-4444-444444444442", base.Add(-3*time.Second))

	t.Run("find recent inside window", func(t *testing.T) {
		event, err := repo.FindRecentCorrelatedEvent(ctx, testUserID, base.Add(-5*time.Second), base)
		if err != nil {
			t.Fatalf("FindRecentCorrelatedEvent() error = %v", err)
		}
		if event == nil {
			t.Fatal("expected an event inside the window")
		}
		if event.ID != "44444444-4444-4444-4444-444444444442" {
			t.Errorf("event.ID = %q, want the in-window event", event.ID)
		}
	})

	t.Run("list newest first", func(t *testing.T) {
		events, err := repo.ListCorrelatedEvents(ctx, testUserID)
		if err != nil {
			t.Fatalf("ListCorrelatedEvents() error = %v", err)
		}
		if len(events) != 2 {
			t.Fatalf("len(events) = %d, want 2", len(events))
		}
		if events[0].ID != "44444444-4444-4444-4444-444444444442" {
			t.Error("events should be ordered newest first")
		}
		if len(events[0].DeviceIDs) != 3 {
			t.Errorf("device_ids should round-trip, got %v", events[0].DeviceIDs)
		}
	})

	t.Run("latest", func(t *testing.T) {
		event, err := repo.LatestCorrelatedEvent(ctx, testUserID)
		if err != nil {
			t.Fatalf("LatestCorrelatedEvent() error = %v", err)
		}
		if event == nil || event.ID != "44444444-4444-4444-4444-444444444442" {
			t.Errorf("LatestCorrelatedEvent() = %+v, want the newest event", event)
		}
	})

	t.Run("latest for user with no events", func(t *testing.T) {
		seedUser(t, repo, otherUserID, "bob")
		event, err := repo.LatestCorrelatedEvent(ctx, otherUserID)
		if err != nil {
			t.Fatalf("LatestCorrelatedEvent() error = %v", err)
		}
		if event != nil {
			t.Errorf("expected nil event, got %+v", event)
		}
	})
}
