package database

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"strings"
	"time"

	"github.com/fenilmodi00/stock-api/config"
	"github.com/fenilmodi00/stock-api/models"
	"github.com/fenilmodi00/stock-api/shared"
	"github.com/google/uuid"
	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"
)

//go:embed schema.sql
var schemaSQL string

// Connect opens a Postgres pool with the given configuration and pings it
func Connect(dbURL string, cfg config.DatabaseConfig) (*sql.DB, error) {
	db, err := sql.Open("postgres", dbURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.PingTimeout)
	defer cancel()

	if err = db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"max_open_conns":     cfg.MaxOpenConns,
		"max_idle_conns":     cfg.MaxIdleConns,
		"conn_max_lifetime":  cfg.ConnMaxLifetime,
		"conn_max_idle_time": cfg.ConnMaxIdleTime,
	}).Info("Connected to database successfully")

	return db, nil
}

// Migrate applies the embedded schema. Failed statements are logged and skipped.
func Migrate(ctx context.Context, db *sql.DB) error {
	if db == nil {
		return fmt.Errorf("database connection not established")
	}

	for _, stmt := range parseSQLStatements(schemaSQL) {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			logrus.Warnf("Migration statement failed (continuing): %v", err)
		}
	}

	logrus.Info("Database migration completed successfully")
	return nil
}

// parseSQLStatements splits SQL content on statement-ending semicolons, skipping comment lines
func parseSQLStatements(content string) []string {
	var statements []string
	var currentStatement strings.Builder

	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)

		if line == "" || strings.HasPrefix(line, "--") {
			continue
		}

		if currentStatement.Len() > 0 {
			currentStatement.WriteString(" ")
		}
		currentStatement.WriteString(line)

		if strings.HasSuffix(line, ";") {
			stmt := strings.TrimSpace(strings.TrimSuffix(currentStatement.String(), ";"))
			if stmt != "" {
				statements = append(statements, stmt)
			}
			currentStatement.Reset()
		}
	}

	if stmt := strings.TrimSpace(currentStatement.String()); stmt != "" {
		statements = append(statements, stmt)
	}

	return statements
}

// RefreshEventStore persists refresh events to the refresh_events table
type RefreshEventStore struct {
	DB           *sql.DB
	writeTimeout time.Duration
}

func NewRefreshEventStore(db *sql.DB) *RefreshEventStore {
	return &RefreshEventStore{DB: db, writeTimeout: 5 * time.Second}
}

// RecordRefreshEvent inserts event; duplicate IDs are ignored
func (s *RefreshEventStore) RecordRefreshEvent(ctx context.Context, event models.RefreshEvent) error {
	ctx, cancel := context.WithTimeout(ctx, s.writeTimeout)
	defer cancel()

	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}

	query := `
		INSERT INTO refresh_events (
			id, cycle_id, collection, success, records,
			error_kind, error_message, duration_ms, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO NOTHING
	`

	_, err := s.DB.ExecContext(ctx, query,
		event.ID, event.CycleID, string(event.Collection), event.Success, event.Records,
		nullString(event.ErrorKind), nullString(event.ErrorMessage),
		event.Duration.Milliseconds(), event.Timestamp,
	)
	if err != nil {
		return shared.WrapError(err, shared.ErrorCategoryDatabase, "INSERT_FAILED", "RefreshEventStore", "RecordRefreshEvent", true)
	}
	return nil
}

// RecentEvents returns the latest events for collection, newest first
func (s *RefreshEventStore) RecentEvents(ctx context.Context, collection models.CollectionName, limit int) ([]models.RefreshEvent, error) {
	query := `
		SELECT id, cycle_id, collection, success, records,
		       COALESCE(error_kind, ''), COALESCE(error_message, ''), duration_ms, created_at
		FROM refresh_events
		WHERE collection = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := s.DB.QueryContext(ctx, query, string(collection), limit)
	if err != nil {
		return nil, shared.WrapError(err, shared.ErrorCategoryDatabase, "QUERY_FAILED", "RefreshEventStore", "RecentEvents", true)
	}
	defer rows.Close()

	var events []models.RefreshEvent
	for rows.Next() {
		var event models.RefreshEvent
		var name string
		var durationMS int64
		if err := rows.Scan(&event.ID, &event.CycleID, &name, &event.Success, &event.Records,
			&event.ErrorKind, &event.ErrorMessage, &durationMS, &event.Timestamp); err != nil {
			return nil, err
		}
		event.Collection = models.CollectionName(name)
		event.Duration = time.Duration(durationMS) * time.Millisecond
		events = append(events, event)
	}
	return events, rows.Err()
}

// HealthCheck pings the database with a short timeout
func (s *RefreshEventStore) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := s.DB.PingContext(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}
	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
