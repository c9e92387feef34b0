package gateway

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/microsoft/go-mssqldb"

	"lead-reconciliation/internal/domain"
)

const (
	listUsernamesQuery = `SELECT username FROM users WHERE username IS NOT NULL`

	countsBySchoolQuery = `SELECT school, COUNT(*), COUNT(last_login)
FROM users
WHERE school IS NOT NULL AND school <> ''
GROUP BY school
ORDER BY school`
)

// PostgresConfig configures the PostgreSQL account store.
type PostgresConfig struct {
	URL             string
	MaxConnections  int32
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// PostgresAccountStore implements the AccountRepository interface on the
// learning platform's PostgreSQL users table.
type PostgresAccountStore struct {
	pool *pgxpool.Pool
}

// NewPostgresAccountStore opens a pool and verifies it with a ping.
func NewPostgresAccountStore(ctx context.Context, cfg PostgresConfig) (*PostgresAccountStore, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	poolCfg.MaxConns = 25
	if cfg.MaxConnections > 0 {
		poolCfg.MaxConns = cfg.MaxConnections
	}
	poolCfg.MaxConnLifetime = time.Hour
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	poolCfg.MaxConnIdleTime = 30 * time.Minute
	if cfg.MaxConnIdleTime > 0 {
		poolCfg.MaxConnIdleTime = cfg.MaxConnIdleTime
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return &PostgresAccountStore{pool: pool}, nil
}

// ListUsernames returns every issued username.
func (s *PostgresAccountStore) ListUsernames(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx, listUsernamesQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to query usernames: %w", err)
	}
	defer rows.Close()

	var usernames []string
	for rows.Next() {
		var u string
		if err := rows.Scan(&u); err != nil {
			return nil, fmt.Errorf("failed to scan username: %w", err)
		}
		usernames = append(usernames, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating usernames: %w", err)
	}
	return usernames, nil
}

// CountsBySchool returns issued and logged-in account counts per school label.
func (s *PostgresAccountStore) CountsBySchool(ctx context.Context) ([]domain.SchoolAccountCount, error) {
	rows, err := s.pool.Query(ctx, countsBySchoolQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to query account counts: %w", err)
	}
	defer rows.Close()

	var counts []domain.SchoolAccountCount
	for rows.Next() {
		var c domain.SchoolAccountCount
		if err := rows.Scan(&c.School, &c.Issued, &c.LoggedIn); err != nil {
			return nil, fmt.Errorf("failed to scan account count: %w", err)
		}
		counts = append(counts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating account counts: %w", err)
	}
	return counts, nil
}

// Close releases the pool.
func (s *PostgresAccountStore) Close() {
	s.pool.Close()
}

// SQLServerConfig configures the SQL Server account store.
type SQLServerConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	Encrypt  string
}

// DSN builds a sqlserver:// connection string.
func (cfg SQLServerConfig) DSN() string {
	query := url.Values{}
	query.Set("database", cfg.Database)
	if cfg.Encrypt != "" {
		query.Set("encrypt", cfg.Encrypt)
	}
	port := cfg.Port
	if port == 0 {
		port = 1433
	}
	return fmt.Sprintf("sqlserver://%s:%s@%s:%d?%s",
		url.QueryEscape(cfg.User),
		url.QueryEscape(cfg.Password),
		cfg.Host,
		port,
		query.Encode(),
	)
}

// SQLServerAccountStore implements the AccountRepository interface for
// platforms that keep users in SQL Server.
type SQLServerAccountStore struct {
	db *sql.DB
}

// NewSQLServerAccountStore opens a connection and verifies it with a ping.
func NewSQLServerAccountStore(ctx context.Context, cfg SQLServerConfig) (*SQLServerAccountStore, error) {
	db, err := sql.Open("sqlserver", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("open SQL Server connection: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping SQL Server: %w", err)
	}
	return &SQLServerAccountStore{db: db}, nil
}

// ListUsernames returns every issued username.
func (s *SQLServerAccountStore) ListUsernames(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, listUsernamesQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to query usernames: %w", err)
	}
	defer rows.Close()

	var usernames []string
	for rows.Next() {
		var u string
		if err := rows.Scan(&u); err != nil {
			return nil, fmt.Errorf("failed to scan username: %w", err)
		}
		usernames = append(usernames, u)
	}
	return usernames, rows.Err()
}

// CountsBySchool returns issued and logged-in account counts per school label.
func (s *SQLServerAccountStore) CountsBySchool(ctx context.Context) ([]domain.SchoolAccountCount, error) {
	rows, err := s.db.QueryContext(ctx, countsBySchoolQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to query account counts: %w", err)
	}
	defer rows.Close()

	var counts []domain.SchoolAccountCount
	for rows.Next() {
		var c domain.SchoolAccountCount
		if err := rows.Scan(&c.School, &c.Issued, &c.LoggedIn); err != nil {
			return nil, fmt.Errorf("failed to scan account count: %w", err)
		}
		counts = append(counts, c)
	}
	return counts, rows.Err()
}

// Close closes the underlying connection pool.
func (s *SQLServerAccountStore) Close() error {
	return s.db.Close()
}

// OfflineAccountStore stands in for an account store that is not configured
// or could not be reached. Every call fails with Err, which callers treat as
// "no issued accounts".
type OfflineAccountStore struct {
	Err error
}

// ListUsernames always fails with s.Err.
func (s OfflineAccountStore) ListUsernames(ctx context.Context) ([]string, error) {
	return nil, s.Err
}

// CountsBySchool always fails with s.Err.
func (s OfflineAccountStore) CountsBySchool(ctx context.Context) ([]domain.SchoolAccountCount, error) {
	return nil, s.Err
}
