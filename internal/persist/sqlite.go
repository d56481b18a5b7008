// Package persist implements the persistence collaborator boundary: it
// receives the store's row-per-record tabular buffers and writes them to a
// concrete container. The store stays agnostic of the container format.
package persist

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/mstamatakis/drachma/internal/store"
)

// SQLitePersister saves and loads table buffers in a single sqlite file,
// one database table per store table. Cell values are JSON-encoded so the
// open field-bag shape survives the round trip.
type SQLitePersister struct {
	db   *sql.DB
	path string
	log  zerolog.Logger
}

// NewSQLitePersister opens (or creates) the snapshot database.
func NewSQLitePersister(path string, log zerolog.Logger) (*SQLitePersister, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("failed to open snapshot database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping snapshot database: %w", err)
	}
	return &SQLitePersister{
		db:   db,
		path: path,
		log:  log.With().Str("component", "persister").Logger(),
	}, nil
}

// Close releases the database handle.
func (p *SQLitePersister) Close() error {
	return p.db.Close()
}

// Save replaces the persisted snapshot with the given buffers in one
// transaction.
func (p *SQLitePersister) Save(buffers []store.TableBuffer) error {
	tx, err := p.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin snapshot transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, buf := range buffers {
		if _, err := tx.Exec(fmt.Sprintf(`DROP TABLE IF EXISTS %q`, buf.Name)); err != nil {
			return fmt.Errorf("failed to drop table %s: %w", buf.Name, err)
		}
		if len(buf.Columns) == 0 {
			continue
		}

		quoted := make([]string, len(buf.Columns))
		placeholders := make([]string, len(buf.Columns))
		for i, col := range buf.Columns {
			quoted[i] = fmt.Sprintf("%q TEXT", col)
			placeholders[i] = "?"
		}
		createStmt := fmt.Sprintf(`CREATE TABLE %q (%s)`, buf.Name, strings.Join(quoted, ", "))
		if _, err := tx.Exec(createStmt); err != nil {
			return fmt.Errorf("failed to create table %s: %w", buf.Name, err)
		}

		insertStmt := fmt.Sprintf(`INSERT INTO %q VALUES (%s)`, buf.Name, strings.Join(placeholders, ", "))
		stmt, err := tx.Prepare(insertStmt)
		if err != nil {
			return fmt.Errorf("failed to prepare insert for %s: %w", buf.Name, err)
		}
		for _, row := range buf.Rows {
			cells := make([]any, len(row))
			for i, value := range row {
				encoded, err := json.Marshal(value)
				if err != nil {
					stmt.Close()
					return fmt.Errorf("failed to encode cell in %s: %w", buf.Name, err)
				}
				cells[i] = string(encoded)
			}
			if _, err := stmt.Exec(cells...); err != nil {
				stmt.Close()
				return fmt.Errorf("failed to insert row into %s: %w", buf.Name, err)
			}
		}
		stmt.Close()
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit snapshot: %w", err)
	}
	p.log.Info().Int("tables", len(buffers)).Str("path", p.path).Msg("Snapshot saved")
	return nil
}

// Load reads all persisted tables back into buffers. Only the tables named
// are loaded; unknown tables in the file are ignored.
func (p *SQLitePersister) Load(tables []string) ([]store.TableBuffer, error) {
	var out []store.TableBuffer
	for _, table := range tables {
		buf, ok, err := p.loadTable(table)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, buf)
		}
	}
	return out, nil
}

func (p *SQLitePersister) loadTable(table string) (store.TableBuffer, bool, error) {
	var name string
	err := p.db.QueryRow(
		`SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`, table,
	).Scan(&name)
	if err == sql.ErrNoRows {
		return store.TableBuffer{}, false, nil
	}
	if err != nil {
		return store.TableBuffer{}, false, fmt.Errorf("failed to inspect table %s: %w", table, err)
	}

	rows, err := p.db.Query(fmt.Sprintf(`SELECT * FROM %q`, table))
	if err != nil {
		return store.TableBuffer{}, false, fmt.Errorf("failed to read table %s: %w", table, err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return store.TableBuffer{}, false, fmt.Errorf("failed to read columns of %s: %w", table, err)
	}

	buf := store.TableBuffer{Name: table, Columns: columns}
	for rows.Next() {
		raw := make([]sql.NullString, len(columns))
		scan := make([]any, len(columns))
		for i := range raw {
			scan[i] = &raw[i]
		}
		if err := rows.Scan(scan...); err != nil {
			return store.TableBuffer{}, false, fmt.Errorf("failed to scan row of %s: %w", table, err)
		}
		row := make([]any, len(columns))
		for i, cell := range raw {
			if !cell.Valid || cell.String == "" {
				continue
			}
			var value any
			if err := json.Unmarshal([]byte(cell.String), &value); err != nil {
				return store.TableBuffer{}, false, fmt.Errorf("failed to decode cell of %s: %w", table, err)
			}
			row[i] = value
		}
		buf.Rows = append(buf.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return store.TableBuffer{}, false, fmt.Errorf("failed to iterate table %s: %w", table, err)
	}
	return buf, true, nil
}
