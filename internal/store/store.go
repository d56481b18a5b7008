// Package store implements the in-memory relational store for the tracker.
// Tables hold open field-bag records; all mutation goes through validated
// operations that enforce required fields, foreign keys, uniqueness and
// double-entry account balances. Each operation is atomic: on failure the
// tables are left exactly as they were.
//
// The store is owned by a single logical session and performs no internal
// locking. Callers that share one instance across goroutines must serialize
// access at their own boundary.
package store

import (
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"
)

// Store holds all tables and the relationship registry.
type Store struct {
	log        zerolog.Logger
	defs       map[string]TableDef
	tableOrder []string
	records    map[string]map[string]Record
	insertion  map[string][]string
	ids        *idGenerator
	now        func() time.Time
}

// New creates a store with the default schema and empty tables.
func New(log zerolog.Logger) *Store {
	return NewWithSchema(DefaultSchema(), log)
}

// NewWithSchema creates a store over an explicit table registry.
func NewWithSchema(schema []TableDef, log zerolog.Logger) *Store {
	s := &Store{
		log:       log.With().Str("component", "store").Logger(),
		defs:      make(map[string]TableDef, len(schema)),
		records:   make(map[string]map[string]Record, len(schema)),
		insertion: make(map[string][]string, len(schema)),
		ids:       newIDGenerator(),
		now:       time.Now,
	}
	for _, def := range schema {
		s.defs[def.Name] = def
		s.tableOrder = append(s.tableOrder, def.Name)
		s.records[def.Name] = make(map[string]Record)
		s.insertion[def.Name] = nil
	}
	return s
}

// Tables returns the table names in registry order.
func (s *Store) Tables() []string {
	out := make([]string, len(s.tableOrder))
	copy(out, s.tableOrder)
	return out
}

// Count returns the number of records in a table.
func (s *Store) Count(table string) int {
	return len(s.records[table])
}

// Get returns a copy of one record.
func (s *Store) Get(table, id string) (Record, bool) {
	rec, ok := s.records[table][id]
	if !ok {
		return nil, false
	}
	return rec.Clone(), true
}

// List returns copies of all records in a table in insertion order.
func (s *Store) List(table string) []Record {
	ids := s.insertion[table]
	out := make([]Record, 0, len(ids))
	for _, id := range ids {
		if rec, ok := s.records[table][id]; ok {
			out = append(out, rec.Clone())
		}
	}
	return out
}

// ListActive returns records whose isActive flag is not false.
func (s *Store) ListActive(table string) []Record {
	var out []Record
	for _, rec := range s.List(table) {
		if v, ok := rec[FieldIsActive]; ok && v != nil && !rec.GetBool(FieldIsActive) {
			continue
		}
		out = append(out, rec)
	}
	return out
}

// insert validates data against the table definition, assigns a fresh id and
// createdAt, and stores the record. No table is touched until validation has
// fully passed.
func (s *Store) insert(table string, data Record) (Record, error) {
	def, ok := s.defs[table]
	if !ok {
		return nil, fmt.Errorf("unknown table %q", table)
	}

	rec := data.Clone()
	if err := s.validateRequired(def, rec); err != nil {
		return nil, err
	}
	if err := s.validateForeignKeys(def, rec); err != nil {
		return nil, err
	}
	if err := s.validateUnique(def, rec, ""); err != nil {
		return nil, err
	}

	rec[FieldID] = s.ids.Next(def.IDPrefix)
	rec[FieldCreatedAt] = s.now().UTC().Format(time.RFC3339)
	if _, ok := rec[FieldIsActive]; !ok {
		rec[FieldIsActive] = true
	}

	id := rec.ID()
	s.records[table][id] = rec
	s.insertion[table] = append(s.insertion[table], id)
	s.log.Debug().Str("table", table).Str("id", id).Msg("Record inserted")
	return rec.Clone(), nil
}

// update merges patch onto the stored record, preserving id and createdAt,
// and re-validates changed foreign keys and unique fields before mutating.
func (s *Store) update(table, id string, patch Record) (Record, error) {
	def, ok := s.defs[table]
	if !ok {
		return nil, fmt.Errorf("unknown table %q", table)
	}
	existing, ok := s.records[table][id]
	if !ok {
		return nil, &NotFoundError{Table: table, ID: id}
	}

	merged := existing.Clone()
	for k, v := range patch {
		if k == FieldID || k == FieldCreatedAt {
			continue
		}
		merged[k] = v
	}

	if err := s.validateRequired(def, merged); err != nil {
		return nil, err
	}
	if err := s.validateForeignKeys(def, merged); err != nil {
		return nil, err
	}
	if err := s.validateUnique(def, merged, id); err != nil {
		return nil, err
	}

	s.records[table][id] = merged
	s.log.Debug().Str("table", table).Str("id", id).Msg("Record updated")
	return merged.Clone(), nil
}

// deleteRecord removes a record after verifying that no non-optional foreign
// key anywhere in the registry still points at it.
func (s *Store) deleteRecord(table, id string) error {
	if _, ok := s.defs[table]; !ok {
		return fmt.Errorf("unknown table %q", table)
	}
	if _, ok := s.records[table][id]; !ok {
		return &NotFoundError{Table: table, ID: id}
	}
	if err := s.checkDependents(table, id); err != nil {
		return err
	}
	s.removeUnchecked(table, id)
	return nil
}

// removeUnchecked drops a record without a dependent scan. Internal use only,
// after checks have passed.
func (s *Store) removeUnchecked(table, id string) {
	delete(s.records[table], id)
	ids := s.insertion[table]
	for i, existing := range ids {
		if existing == id {
			s.insertion[table] = append(ids[:i], ids[i+1:]...)
			break
		}
	}
	s.log.Debug().Str("table", table).Str("id", id).Msg("Record deleted")
}

// checkDependents scans every table with a non-optional constraint pointing
// at this record.
func (s *Store) checkDependents(table, id string) error {
	for _, sourceName := range s.tableOrder {
		def := s.defs[sourceName]
		for _, fk := range def.ForeignKeys {
			if fk.TargetTable != table || fk.Optional {
				continue
			}
			count := 0
			for _, rec := range s.records[sourceName] {
				if rec.GetString(fk.SourceField) == id {
					count++
				}
			}
			if count > 0 {
				return &ReferentialIntegrityError{
					Table:          table,
					ID:             id,
					DependentTable: sourceName,
					DependentField: fk.SourceField,
					Dependents:     count,
				}
			}
		}
	}
	return nil
}

func (s *Store) validateRequired(def TableDef, rec Record) error {
	for _, field := range def.Required {
		if rec.IsBlank(field) {
			return &ValidationError{Table: def.Name, Field: field, Reason: "required field is missing or empty"}
		}
	}
	return nil
}

func (s *Store) validateForeignKeys(def TableDef, rec Record) error {
	for _, fk := range def.ForeignKeys {
		value := rec.GetString(fk.SourceField)
		if value == "" {
			if fk.Optional {
				continue
			}
			return &ValidationError{Table: def.Name, Field: fk.SourceField, Reason: "required reference is missing"}
		}
		target, ok := s.records[fk.TargetTable]
		if !ok {
			return fmt.Errorf("constraint targets unknown table %q", fk.TargetTable)
		}
		if _, ok := target[value]; !ok {
			return &InvalidReferenceError{
				Table:       def.Name,
				Field:       fk.SourceField,
				Value:       value,
				TargetTable: fk.TargetTable,
			}
		}
	}
	return nil
}

func (s *Store) validateUnique(def TableDef, rec Record, excludeID string) error {
	for _, field := range def.Unique {
		value := rec.GetString(field)
		if value == "" {
			continue
		}
		for id, existing := range s.records[def.Name] {
			if id == excludeID {
				continue
			}
			if existing.GetString(field) == value {
				return &DuplicateKeyError{Table: def.Name, Field: field, Value: value}
			}
		}
	}
	return nil
}

// TableBuffer is the row-per-record, column-per-field shape exchanged with
// the persistence collaborator. The store is agnostic to the container the
// collaborator writes it into.
type TableBuffer struct {
	Name    string   `msgpack:"name" json:"name"`
	Columns []string `msgpack:"columns" json:"columns"`
	Rows    [][]any  `msgpack:"rows" json:"rows"`
}

// ExportTables produces one buffer per table in registry order. Columns are
// sorted for stable output; rows follow insertion order.
func (s *Store) ExportTables() []TableBuffer {
	out := make([]TableBuffer, 0, len(s.tableOrder))
	for _, table := range s.tableOrder {
		columns := map[string]bool{}
		for _, rec := range s.records[table] {
			for field := range rec {
				columns[field] = true
			}
		}
		sorted := make([]string, 0, len(columns))
		for field := range columns {
			sorted = append(sorted, field)
		}
		sort.Strings(sorted)

		buf := TableBuffer{Name: table, Columns: sorted}
		for _, id := range s.insertion[table] {
			rec := s.records[table][id]
			row := make([]any, len(sorted))
			for i, field := range sorted {
				row[i] = rec[field]
			}
			buf.Rows = append(buf.Rows, row)
		}
		out = append(out, buf)
	}
	return out
}

// SeedTables loads exported buffers into empty tables, bypassing per-record
// validation. Intended for restoring a snapshot written by ExportTables; the
// id generator is resynced so subsequent inserts stay collision-free.
func (s *Store) SeedTables(buffers []TableBuffer) error {
	for _, buf := range buffers {
		def, ok := s.defs[buf.Name]
		if !ok {
			return fmt.Errorf("snapshot contains unknown table %q", buf.Name)
		}
		if len(s.records[buf.Name]) > 0 {
			return fmt.Errorf("cannot seed table %q: table is not empty", buf.Name)
		}
		for _, row := range buf.Rows {
			if len(row) != len(buf.Columns) {
				return fmt.Errorf("snapshot row in %q has %d cells, want %d", buf.Name, len(row), len(buf.Columns))
			}
			rec := make(Record, len(buf.Columns))
			for i, field := range buf.Columns {
				if row[i] != nil {
					rec[field] = row[i]
				}
			}
			id := rec.ID()
			if id == "" {
				return fmt.Errorf("snapshot row in %q has no id", buf.Name)
			}
			s.records[buf.Name][id] = rec
			s.insertion[buf.Name] = append(s.insertion[buf.Name], id)
			s.ids.Observe(def.IDPrefix, id)
		}
	}
	s.log.Info().Int("tables", len(buffers)).Msg("Store seeded from snapshot")
	return nil
}
