package store

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strings"
)

// PostgresDialect implements Dialect for PostgreSQL via pgx/stdlib.
type PostgresDialect struct{}

func (d *PostgresDialect) Name() string       { return "postgres" }
func (d *PostgresDialect) DriverName() string { return "pgx" }

func (d *PostgresDialect) NewParamBuilder() ParamBuilder {
	return &pgParamBuilder{}
}

func (d *PostgresDialect) NowExpr() string    { return "NOW()" }
func (d *PostgresDialect) NeedsBoolFix() bool { return false }

func (d *PostgresDialect) ColumnType(fieldType string) string {
	switch fieldType {
	case "string", "text":
		return "TEXT"
	case "int":
		return "INTEGER"
	case "float":
		return "DOUBLE PRECISION"
	case "boolean":
		return "BOOLEAN"
	case "uuid":
		return "UUID"
	case "timestamp":
		return "TIMESTAMPTZ"
	default:
		return "TEXT"
	}
}

func (d *PostgresDialect) TableExists(ctx context.Context, db *sql.DB, tableName string) (bool, error) {
	var exists bool
	err := db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM information_schema.tables WHERE table_name = $1 AND table_schema = 'public')`,
		tableName,
	).Scan(&exists)
	return exists, err
}

func (d *PostgresDialect) GetColumns(ctx context.Context, db *sql.DB, tableName string) (map[string]string, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT column_name, data_type FROM information_schema.columns WHERE table_name = $1 AND table_schema = 'public'`,
		tableName,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cols := make(map[string]string)
	for rows.Next() {
		var name, dataType string
		if err := rows.Scan(&name, &dataType); err != nil {
			return nil, err
		}
		cols[name] = dataType
	}
	return cols, rows.Err()
}

// pgConstraintRe matches the quoted constraint name in messages like
//
//	duplicate key value violates unique constraint "idx_users_email"
var pgConstraintRe = regexp.MustCompile(`unique constraint "([^"]+)"`)

func (d *PostgresDialect) MapError(err error) error {
	if err == nil {
		return nil
	}
	// With pgx/stdlib the underlying error message includes the PG code
	errStr := err.Error()
	if strings.Contains(errStr, "23505") || strings.Contains(errStr, "unique constraint") || strings.Contains(errStr, "duplicate key") {
		ue := &UniqueError{cause: err}
		if m := pgConstraintRe.FindStringSubmatch(errStr); m != nil {
			ue.Constraint = m[1]
			ue.Table, ue.Field = splitConstraintName(m[1])
		}
		return ue
	}
	if strings.Contains(errStr, "23503") || strings.Contains(errStr, "foreign key constraint") ||
		strings.Contains(errStr, "23502") || strings.Contains(errStr, "not-null constraint") {
		return fmt.Errorf("%w: %w", ErrIntegrity, err)
	}
	return err
}

// splitConstraintName recovers (table, field) from constraint names the
// migrator generates: "idx_<table>_<field>". Postgres default names
// ("<table>_<field>_key") are handled as well.
func splitConstraintName(name string) (string, string) {
	if rest, ok := strings.CutPrefix(name, "idx_"); ok {
		if i := strings.Index(rest, "_"); i > 0 {
			return rest[:i], rest[i+1:]
		}
		return "", rest
	}
	if rest, ok := strings.CutSuffix(name, "_key"); ok {
		if i := strings.Index(rest, "_"); i > 0 {
			return rest[:i], rest[i+1:]
		}
	}
	return "", ""
}
