package iodb

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strconv"

	"github.com/idrop/idb/pkg/config"
	"github.com/idrop/idb/pkg/spatial"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// userTables lists tables of the public schema that do not belong to an
// extension, such as spatial_ref_sys of PostGIS.
const userTables = `
	SELECT tablename
	FROM pg_tables
	WHERE schemaname = 'public'
	AND tablename NOT IN (
		SELECT c.relname
		FROM pg_depend d
		JOIN pg_class c ON c.oid = d.objid
		WHERE d.deptype = 'e'
	)`

// PostGISOperator implements db.Operator for PostgreSQL with PostGIS.
// Connections are pooled by pgxpool, GORM works on top of the pool.
type PostGISOperator struct {
	pool  *pgxpool.Pool
	sqlDB *sql.DB
	db    *gorm.DB
}

// NewPostGIS creates a PostGIS operator (without connecting).
func NewPostGIS() *PostGISOperator {
	return &PostGISOperator{}
}

// Connect establishes a connection pool to PostgreSQL and checks that
// PostGIS can be enabled.
func (p *PostGISOperator) Connect(
	ctx context.Context,
	cfg *config.DatabaseConfig,
) error {
	poolConfig, err := pgxpool.ParseConfig(postgisDSN(cfg))
	if err != nil {
		return ConnectionError(cfg, err)
	}

	poolConfig.MaxConns = 10
	poolConfig.MinConns = 1

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return ConnectionError(cfg, err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return ConnectionError(cfg, err)
	}

	var available bool
	q := `SELECT EXISTS (
		SELECT FROM pg_available_extensions WHERE name = 'postgis'
	)`
	if err := pool.QueryRow(ctx, q).Scan(&available); err != nil {
		pool.Close()
		return ConnectionError(cfg, err)
	}
	if !available {
		pool.Close()
		return SpatialExtensionError(
			config.DriverPostGIS,
			fmt.Errorf("postgis is not installed on %s", cfg.Host),
		)
	}

	sqlDB := stdlib.OpenDBFromPool(pool)
	gormDB, err := gorm.Open(
		postgres.New(postgres.Config{Conn: sqlDB}),
		&gorm.Config{Logger: newGormLogger()},
	)
	if err != nil {
		_ = sqlDB.Close()
		pool.Close()
		return ConnectionError(cfg, err)
	}

	p.pool = pool
	p.sqlDB = sqlDB
	p.db = gormDB
	return nil
}

// Close releases all database connections.
func (p *PostGISOperator) Close() error {
	var err error
	if p.sqlDB != nil {
		err = p.sqlDB.Close()
	}
	if p.pool != nil {
		p.pool.Close()
	}
	p.pool, p.sqlDB, p.db = nil, nil, nil
	return err
}

// DB returns the GORM handle.
func (p *PostGISOperator) DB() *gorm.DB {
	return p.db
}

// Dialect returns the PostGIS dialect.
func (p *PostGISOperator) Dialect() spatial.Dialect {
	return spatial.PostGIS{}
}

// TableExists checks if a table exists in the public schema.
func (p *PostGISOperator) TableExists(
	ctx context.Context,
	tableName string,
) (bool, error) {
	if p.pool == nil {
		return false, NotConnectedError()
	}

	query := `
		SELECT EXISTS (
			SELECT FROM information_schema.tables
			WHERE table_schema = 'public'
			AND table_name = $1
		)`

	var exists bool
	err := p.pool.QueryRow(ctx, query, tableName).Scan(&exists)
	if err != nil {
		return false, TableExistsCheckError(tableName, err)
	}

	return exists, nil
}

// HasTables checks if the public schema has tables other than those of
// extensions.
func (p *PostGISOperator) HasTables(ctx context.Context) (bool, error) {
	if p.pool == nil {
		return false, NotConnectedError()
	}

	var hasTables bool
	query := "SELECT EXISTS (" + userTables + ")"
	if err := p.pool.QueryRow(ctx, query).Scan(&hasTables); err != nil {
		return false, TableCheckError(err)
	}

	return hasTables, nil
}

// DropAllTables drops all tables of the public schema except those of
// extensions.
func (p *PostGISOperator) DropAllTables(ctx context.Context) error {
	if p.pool == nil {
		return NotConnectedError()
	}

	rows, err := p.pool.Query(ctx, userTables)
	if err != nil {
		return QueryTablesError(err)
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var tableName string
		if err := rows.Scan(&tableName); err != nil {
			return ScanTableError(err)
		}
		tables = append(tables, tableName)
	}

	if err := rows.Err(); err != nil {
		return ScanTableError(err)
	}

	d := p.Dialect()
	for _, table := range tables {
		if _, err := p.pool.Exec(ctx, d.DropTable(table)); err != nil {
			return DropTableError(table, err)
		}
	}

	return nil
}

func postgisDSN(cfg *config.DatabaseConfig) string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(cfg.User, cfg.Password),
		Host:   cfg.Host + ":" + strconv.Itoa(cfg.Port),
		Path:   "/" + cfg.Database,
	}
	if cfg.SSLMode != "" {
		u.RawQuery = url.Values{"sslmode": {cfg.SSLMode}}.Encode()
	}
	return u.String()
}
