package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"propsearch/internal/model"
)

var procNamePattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*(\.[a-zA-Z_][a-zA-Z0-9_]*)?$`)

// PostgresRepository handles database operations
type PostgresRepository struct {
	db        *sqlx.DB
	adminProc string
	guestProc string
}

// Procedures names the two search procedures.
type Procedures struct {
	Admin string
	Guest string
}

// connect opens and pings the pool. The DSN is passed to lib/pq as given,
// in either key=value or URL form.
var connect = sqlx.Connect

// NewPostgresRepository creates a new PostgreSQL repository
func NewPostgresRepository(dsn string, maxConn, maxIdleConn int, procs Procedures) (*PostgresRepository, error) {
	for _, name := range []string{procs.Admin, procs.Guest} {
		if !procNamePattern.MatchString(name) {
			return nil, fmt.Errorf("invalid procedure name %q", name)
		}
	}

	db, err := connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(maxConn)
	db.SetMaxIdleConns(maxIdleConn)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(2 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return NewPostgresRepositoryFromDB(db, procs), nil
}

// NewPostgresRepositoryFromDB wraps an open connection pool.
func NewPostgresRepositoryFromDB(db *sqlx.DB, procs Procedures) *PostgresRepository {
	return &PostgresRepository{db: db, adminProc: procs.Admin, guestProc: procs.Guest}
}

// Close closes the database connection
func (r *PostgresRepository) Close() error {
	return r.db.Close()
}

// Ping checks database connectivity
func (r *PostgresRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// callQuery builds "SELECT * FROM proc($1, ..., $n)".
func callQuery(proc string, n int) string {
	var sb strings.Builder
	sb.WriteString("SELECT * FROM ")
	sb.WriteString(proc)
	sb.WriteByte('(')
	for i := 1; i <= n; i++ {
		if i > 1 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(&sb, "$%d", i)
	}
	sb.WriteByte(')')
	return sb.String()
}

// SearchGuest calls the guest search procedure with positional arguments.
func (r *PostgresRepository) SearchGuest(ctx context.Context, args []any) ([]model.Property, error) {
	var rows []model.Property
	// Procedures may return more columns than Property maps.
	if err := r.db.Unsafe().SelectContext(ctx, &rows, callQuery(r.guestProc, len(args)), args...); err != nil {
		return nil, fmt.Errorf("call %s: %w", r.guestProc, err)
	}
	return rows, nil
}

// SearchAdmin calls the admin search procedure. The total count comes from
// the procedure's total_count column, or the row count when absent.
func (r *PostgresRepository) SearchAdmin(ctx context.Context, args []any) ([]model.Property, int64, error) {
	var rows []model.Property
	if err := r.db.Unsafe().SelectContext(ctx, &rows, callQuery(r.adminProc, len(args)), args...); err != nil {
		return nil, 0, fmt.Errorf("call %s: %w", r.adminProc, err)
	}
	total := int64(len(rows))
	if len(rows) > 0 && rows[0].TotalCount != nil {
		total = *rows[0].TotalCount
	}
	return rows, total, nil
}

// LogSearch records a search for analytics and feedback attribution
func (r *PostgresRepository) LogSearch(ctx context.Context, entry model.SearchLog) error {
	constraints, err := json.Marshal(entry.Constraints)
	if err != nil {
		return fmt.Errorf("failed to encode constraints: %w", err)
	}

	logQuery := `
		INSERT INTO search_logs (search_id, query, constraints, endpoint, result_count, returned_property_ids, response_time_ms)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err = r.db.ExecContext(ctx, logQuery,
		entry.SearchID, entry.Query, constraints, entry.Endpoint,
		entry.ResultCount, pq.Array(entry.PropertyIDs), entry.ResponseTimeMs,
	)
	if err != nil {
		return fmt.Errorf("failed to log search: %w", err)
	}
	return nil
}

// LogFeedback logs user feedback/action
func (r *PostgresRepository) LogFeedback(ctx context.Context, searchID string, propertyID int64, action string) error {
	query := `
		UPDATE search_logs
		SET clicked_property_id = $2, action = $3
		WHERE search_id = $1
	`
	_, err := r.db.ExecContext(ctx, query, searchID, propertyID, action)
	if err != nil {
		return fmt.Errorf("failed to log feedback: %w", err)
	}
	return nil
}
