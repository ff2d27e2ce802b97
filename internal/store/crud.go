package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"autobridge/internal/metadata"
)

// The methods in this file implement the persistence contract the generic
// handlers consume: insert, query, getById, update, delete. Records travel
// as map[field]value; descriptors drive column lists and value binding.

// Insert persists a new record and returns it re-read from storage.
func (s *Store) Insert(ctx context.Context, entity *metadata.Entity, record map[string]any) (map[string]any, error) {
	pb := s.Dialect.NewParamBuilder()
	var cols, placeholders []string
	for _, f := range entity.Fields {
		v, ok := record[f.Name]
		if !ok {
			continue
		}
		cols = append(cols, f.Name)
		placeholders = append(placeholders, pb.Add(s.bindValue(&f, v)))
	}

	sqlStr := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		entity.Table, strings.Join(cols, ", "), strings.Join(placeholders, ", "))

	if _, err := Exec(ctx, s.DB, sqlStr, pb.Params()...); err != nil {
		return nil, s.mapEntityError(entity, err)
	}

	return s.GetByID(ctx, entity, record[entity.PrimaryKey.Field])
}

// Query returns a page of records in primary-key order.
func (s *Store) Query(ctx context.Context, entity *metadata.Entity, skip, limit int) ([]map[string]any, error) {
	pb := s.Dialect.NewParamBuilder()
	sqlStr := fmt.Sprintf("SELECT %s FROM %s ORDER BY %s LIMIT %s OFFSET %s",
		strings.Join(entity.FieldNames(), ", "), entity.Table, entity.PrimaryKey.Field,
		pb.Add(limit), pb.Add(skip))

	rows, err := QueryRows(ctx, s.DB, sqlStr, pb.Params()...)
	if err != nil {
		return nil, err
	}
	s.fixBooleans(entity, rows)
	return rows, nil
}

// GetByID returns the record with the given primary key, or ErrNotFound.
func (s *Store) GetByID(ctx context.Context, entity *metadata.Entity, id any) (map[string]any, error) {
	pb := s.Dialect.NewParamBuilder()
	sqlStr := fmt.Sprintf("SELECT %s FROM %s WHERE %s = %s",
		strings.Join(entity.FieldNames(), ", "), entity.Table, entity.PrimaryKey.Field, pb.Add(id))

	row, err := QueryRow(ctx, s.DB, sqlStr, pb.Params()...)
	if err != nil {
		return nil, err
	}
	s.fixBooleans(entity, []map[string]any{row})
	return row, nil
}

// Update applies the given fields to an existing record and returns the
// updated record, or ErrNotFound when no row matched.
func (s *Store) Update(ctx context.Context, entity *metadata.Entity, id any, fields map[string]any) (map[string]any, error) {
	if len(fields) == 0 {
		return s.GetByID(ctx, entity, id)
	}

	pb := s.Dialect.NewParamBuilder()
	var sets []string
	for _, f := range entity.Fields {
		v, ok := fields[f.Name]
		if !ok {
			continue
		}
		sets = append(sets, fmt.Sprintf("%s = %s", f.Name, pb.Add(s.bindValue(&f, v))))
	}

	sqlStr := fmt.Sprintf("UPDATE %s SET %s WHERE %s = %s",
		entity.Table, strings.Join(sets, ", "), entity.PrimaryKey.Field, pb.Add(id))

	affected, err := Exec(ctx, s.DB, sqlStr, pb.Params()...)
	if err != nil {
		return nil, s.mapEntityError(entity, err)
	}
	if affected == 0 {
		return nil, ErrNotFound
	}

	return s.GetByID(ctx, entity, id)
}

// Delete removes a record, reporting whether a row existed.
func (s *Store) Delete(ctx context.Context, entity *metadata.Entity, id any) (bool, error) {
	pb := s.Dialect.NewParamBuilder()
	sqlStr := fmt.Sprintf("DELETE FROM %s WHERE %s = %s",
		entity.Table, entity.PrimaryKey.Field, pb.Add(id))

	affected, err := Exec(ctx, s.DB, sqlStr, pb.Params()...)
	if err != nil {
		return false, s.mapEntityError(entity, err)
	}
	return affected > 0, nil
}

// mapEntityError maps driver errors to sentinels and, for unique violations,
// resolves the colliding field against the entity's own field names when the
// constraint name alone was ambiguous (tables with underscores).
func (s *Store) mapEntityError(entity *metadata.Entity, err error) error {
	mapped := s.Dialect.MapError(err)

	ue, ok := mapped.(*UniqueError)
	if !ok {
		return mapped
	}
	if ue.Field != "" && entity.HasField(ue.Field) {
		return ue
	}
	for _, f := range entity.Fields {
		if !f.Unique {
			continue
		}
		if strings.HasSuffix(ue.Constraint, "_"+f.Name) || ue.Field == f.Name {
			ue.Table = entity.Table
			ue.Field = f.Name
			return ue
		}
	}
	return ue
}

// bindValue converts a record value into a form the driver accepts.
func (s *Store) bindValue(f *metadata.Field, v any) any {
	if v == nil {
		return nil
	}
	if !s.Dialect.NeedsBoolFix() {
		return v
	}
	// SQLite: booleans as 0/1, timestamps as ISO8601 text
	switch val := v.(type) {
	case bool:
		if val {
			return int64(1)
		}
		return int64(0)
	case time.Time:
		return val.UTC().Format("2006-01-02 15:04:05")
	}
	return v
}

func (s *Store) fixBooleans(entity *metadata.Entity, rows []map[string]any) {
	if !s.Dialect.NeedsBoolFix() {
		return
	}
	var boolFields []string
	for _, f := range entity.Fields {
		if f.Type == metadata.TypeBoolean {
			boolFields = append(boolFields, f.Name)
		}
	}
	normalizeBooleans(rows, boolFields)
}
