package store

import (
	"context"
	"fmt"
	"strings"

	"autobridge/internal/metadata"
)

// EnsureSchema makes storage match the discovered descriptors before the
// server accepts traffic: creates missing tables, adds missing columns and
// creates unique indexes. Existing columns are never altered or dropped.
func (s *Store) EnsureSchema(ctx context.Context, entities []*metadata.Entity) error {
	for _, e := range entities {
		if err := s.migrate(ctx, e); err != nil {
			return fmt.Errorf("ensure schema for %s: %w", e.Name, err)
		}
	}
	return nil
}

func (s *Store) migrate(ctx context.Context, entity *metadata.Entity) error {
	exists, err := s.Dialect.TableExists(ctx, s.DB, entity.Table)
	if err != nil {
		return fmt.Errorf("check table exists: %w", err)
	}

	if !exists {
		if err := s.createTable(ctx, entity); err != nil {
			return err
		}
	} else if err := s.alterTable(ctx, entity); err != nil {
		return err
	}

	return s.createIndexes(ctx, entity)
}

func (s *Store) createTable(ctx context.Context, entity *metadata.Entity) error {
	var cols []string
	for i := range entity.Fields {
		cols = append(cols, s.buildColumnDef(entity, &entity.Fields[i]))
	}

	sqlStr := fmt.Sprintf("CREATE TABLE %s (\n  %s\n)", entity.Table, strings.Join(cols, ",\n  "))
	if _, err := s.DB.ExecContext(ctx, sqlStr); err != nil {
		return fmt.Errorf("create table %s: %w", entity.Table, err)
	}
	return nil
}

func (s *Store) alterTable(ctx context.Context, entity *metadata.Entity) error {
	existing, err := s.Dialect.GetColumns(ctx, s.DB, entity.Table)
	if err != nil {
		return fmt.Errorf("get columns for %s: %w", entity.Table, err)
	}

	for _, f := range entity.Fields {
		if _, ok := existing[f.Name]; ok {
			continue
		}
		sqlStr := fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s",
			entity.Table, f.Name, s.Dialect.ColumnType(f.Type))
		if _, err := s.DB.ExecContext(ctx, sqlStr); err != nil {
			return fmt.Errorf("add column %s.%s: %w", entity.Table, f.Name, err)
		}
	}
	return nil
}

func (s *Store) buildColumnDef(entity *metadata.Entity, f *metadata.Field) string {
	col := f.Name + " " + s.Dialect.ColumnType(f.Type)

	if f.Name == entity.PrimaryKey.Field {
		return col + " PRIMARY KEY"
	}
	if f.IsServerManaged() {
		// stamped database-side for rows written past the engine
		return col + " DEFAULT " + s.Dialect.NowExpr()
	}
	if !f.Nullable && !f.HasDefault() {
		col += " NOT NULL"
	}
	return col
}

// createIndexes creates one unique index per unique field, named
// idx_<table>_<field>. MapError parses the field back out of that name when
// a constraint collides.
func (s *Store) createIndexes(ctx context.Context, entity *metadata.Entity) error {
	for _, f := range entity.Fields {
		if !f.Unique {
			continue
		}
		sqlStr := fmt.Sprintf("CREATE UNIQUE INDEX IF NOT EXISTS idx_%s_%s ON %s (%s)",
			entity.Table, f.Name, entity.Table, f.Name)
		if _, err := s.DB.ExecContext(ctx, sqlStr); err != nil {
			return fmt.Errorf("create unique index on %s.%s: %w", entity.Table, f.Name, err)
		}
	}
	return nil
}
