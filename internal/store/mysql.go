package store

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"

	"github.com/abbensid2/alltheplaces/internal/models"
	"github.com/abbensid2/alltheplaces/pkg/config"
	errs "github.com/abbensid2/alltheplaces/pkg/errors"
)

const createLocationsTable = `CREATE TABLE IF NOT EXISTS locations (
    id             VARCHAR(255) NOT NULL PRIMARY KEY,
    adapter        VARCHAR(128) NOT NULL,
    ref            VARCHAR(255) NOT NULL,
    name           VARCHAR(512) NULL,
    brand          VARCHAR(255) NULL,
    brand_wikidata VARCHAR(32)  NULL,
    addr_full      VARCHAR(512) NULL,
    city           VARCHAR(255) NULL,
    state          VARCHAR(255) NULL,
    postcode       VARCHAR(32)  NULL,
    country        VARCHAR(64)  NULL,
    lat            DOUBLE       NULL,
    lon            DOUBLE       NULL,
    phone          VARCHAR(64)  NULL,
    website        TEXT         NULL,
    opening_hours  TEXT         NULL,
    updated_at     TIMESTAMP    NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
    KEY idx_locations_country (country)
)`

const upsertLocation = `INSERT INTO locations
    (id, adapter, ref, name, brand, brand_wikidata, addr_full, city, state, postcode,
     country, lat, lon, phone, website, opening_hours)
    VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
    ON DUPLICATE KEY UPDATE
     name = VALUES(name), brand = VALUES(brand), brand_wikidata = VALUES(brand_wikidata),
     addr_full = VALUES(addr_full), city = VALUES(city), state = VALUES(state),
     postcode = VALUES(postcode), country = VALUES(country), lat = VALUES(lat),
     lon = VALUES(lon), phone = VALUES(phone), website = VALUES(website),
     opening_hours = VALUES(opening_hours)`

// execer is the part of *sql.DB the sink uses.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// MySQLSink upserts records into the locations table, keyed by adapter/ref.
type MySQLSink struct {
	db           execer
	conn         *sql.DB
	writeTimeout time.Duration
}

// NewMySQLSink opens the database described by cfg.DatabaseURL (a
// go-sql-driver DSN), applies the pool settings and creates the table.
func NewMySQLSink(ctx context.Context, cfg *config.Config) (*MySQLSink, error) {
	const op = "store.NewMySQLSink"

	dsn, err := mysql.ParseDSN(cfg.DatabaseURL)
	if err != nil {
		return nil, errs.NewValidation(op, "invalid DATABASE_URL", err)
	}
	dsn.ParseTime = true

	conn, err := sql.Open("mysql", dsn.FormatDSN())
	if err != nil {
		return nil, errs.NewDB(op, "failed to open database", err)
	}
	conn.SetMaxOpenConns(cfg.DBMaxOpenConns)
	conn.SetMaxIdleConns(cfg.DBMaxIdleConns)
	conn.SetConnMaxLifetime(time.Duration(cfg.DBConnMaxLifetime) * time.Minute)
	conn.SetConnMaxIdleTime(time.Duration(cfg.DBConnMaxIdleTime) * time.Minute)

	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, errs.NewDB(op, "failed to connect", err)
	}

	s := newMySQLSink(conn, cfg.DBWriteTimeout)
	s.conn = conn
	if err := s.migrate(ctx); err != nil {
		conn.Close()
		return nil, err
	}
	return s, nil
}

func newMySQLSink(db execer, writeTimeout time.Duration) *MySQLSink {
	if writeTimeout <= 0 {
		writeTimeout = 6 * time.Second
	}
	return &MySQLSink{db: db, writeTimeout: writeTimeout}
}

func (s *MySQLSink) migrate(ctx context.Context) error {
	ctx, cancel := s.withWriteTimeout(ctx)
	defer cancel()
	if _, err := s.db.ExecContext(ctx, createLocationsTable); err != nil {
		return errs.NewDB("store.MySQLSink.migrate", "failed to create locations table", err)
	}
	return nil
}

// withWriteTimeout creates a context with the configured write timeout.
func (s *MySQLSink) withWriteTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithTimeout(ctx, s.writeTimeout)
}

func (s *MySQLSink) Write(ctx context.Context, adapter string, loc *models.Location) error {
	ctx, cancel := s.withWriteTimeout(ctx)
	defer cancel()

	_, err := s.db.ExecContext(ctx, upsertLocation,
		memberID(adapter, loc), adapter, loc.Ref,
		nullString(loc.Name), nullString(loc.Brand), nullString(loc.BrandWikidata),
		nullString(loc.AddrFull), nullString(loc.City), nullString(loc.State),
		nullString(loc.Postcode), nullString(loc.Country),
		nullFloat(loc.Lat), nullFloat(loc.Lon),
		nullString(loc.Phone), nullString(loc.Website), nullString(loc.OpeningHours),
	)
	if err != nil {
		msg := "failed to upsert " + memberID(adapter, loc)
		var myErr *mysql.MySQLError
		if stderrors.As(err, &myErr) {
			msg = fmt.Sprintf("%s (mysql error %d)", msg, myErr.Number)
		}
		return errs.NewDB("store.MySQLSink.Write", msg, err)
	}
	return nil
}

// Ping checks the database connection. A sink built without a pool always
// reports healthy.
func (s *MySQLSink) Ping(ctx context.Context) error {
	if s.conn == nil {
		return nil
	}
	if err := s.conn.PingContext(ctx); err != nil {
		return errs.NewDB("store.MySQLSink.Ping", "database ping failed", err)
	}
	return nil
}

func (s *MySQLSink) Close() error {
	if s.conn == nil {
		return nil
	}
	return s.conn.Close()
}

func nullString(p *string) sql.NullString {
	if p == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *p, Valid: true}
}

func nullFloat(p *float64) sql.NullFloat64 {
	if p == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *p, Valid: true}
}
