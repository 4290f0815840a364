/*
Copyright (C) 2024  DataCode Authors

	This program is free software: you can redistribute it and/or modify
	it under the terms of the GNU General Public License as published by
	the Free Software Foundation, either version 3 of the License, or
	(at your option) any later version.

	This program is distributed in the hope that it will be useful,
	but WITHOUT ANY WARRANTY; without even the implied warranty of
	MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
	GNU General Public License for more details.

	You should have received a copy of the GNU General Public License
	along with this program.  If not, see <https://www.gnu.org/licenses/>.
*/

// Package sqliteexport implements the --build_model SQLite export of spec
// §6.4: one SQLite table per global Table value, plus the
// _datacode_variables/_datacode_relations metadata tables, FK
// auto-detection, and per-FK indexes. mattn/go-sqlite3 is the only SQL
// driver anywhere in the corpus this module was grounded on, so this is the
// one package in the tree that talks directly to database/sql rather than
// memcp's own hand-rolled storage engine (storage/*.go), which has no
// SQLite concept at all.
package sqliteexport

import (
	"database/sql"
	"fmt"
	"reflect"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/dcscript/datacode/eval"
	"github.com/dcscript/datacode/value"
)

const variablesDDL = `CREATE TABLE IF NOT EXISTS _datacode_variables (
	variable_name TEXT PRIMARY KEY,
	variable_type TEXT,
	table_name TEXT,
	row_count INTEGER,
	column_count INTEGER,
	created_at TEXT,
	description TEXT,
	value TEXT
)`

const relationsDDL = `CREATE TABLE IF NOT EXISTS _datacode_relations (
	from_table TEXT,
	from_column TEXT,
	to_table TEXT,
	to_column TEXT,
	relation_type TEXT,
	created_at TEXT
)`

// columnOwner identifies which Table/Column a relate()'d Array came from.
type columnOwner struct {
	tableName string
	colName   string
}

// Export writes every Table-valued global in in.Globals() into a fresh
// SQLite database at path, per spec §6.4's layout.
func Export(in *eval.Interpreter, path string) error {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return err
	}
	defer db.Close()

	if _, err := db.Exec(variablesDDL); err != nil {
		return err
	}
	if _, err := db.Exec(relationsDDL); err != nil {
		return err
	}

	now := time.Now().UTC().Format(time.RFC3339)
	owners := make(map[uintptr]columnOwner)

	for name, v := range in.Globals() {
		tbl, ok := v.(*value.Table)
		if !ok {
			continue
		}
		tableName := sanitizeIdent(name)
		if err := createAndFillTable(db, tableName, tbl); err != nil {
			return fmt.Errorf("exporting %s: %w", name, err)
		}
		if _, err := db.Exec(
			`INSERT OR REPLACE INTO _datacode_variables
			 (variable_name, variable_type, table_name, row_count, column_count, created_at, description, value)
			 VALUES (?, 'Table', ?, ?, ?, ?, '', '')`,
			name, tableName, tbl.RowCount, len(tbl.Headers), now,
		); err != nil {
			return err
		}
		for _, c := range tbl.Columns {
			owners[sliceIdentity(c.Values)] = columnOwner{tableName: tableName, colName: c.Name}
			if err := maybeAutoFK(db, tableName, c.Name, now); err != nil {
				return err
			}
		}
	}

	for _, pair := range in.Relations() {
		from, ok1 := owners[sliceIdentity(pair[0].Elements)]
		to, ok2 := owners[sliceIdentity(pair[1].Elements)]
		if !ok1 || !ok2 {
			continue
		}
		if _, err := db.Exec(
			`INSERT INTO _datacode_relations (from_table, from_column, to_table, to_column, relation_type, created_at)
			 VALUES (?, ?, ?, ?, 'explicit', ?)`,
			from.tableName, from.colName, to.tableName, to.colName, now,
		); err != nil {
			return err
		}
	}
	return nil
}

// maybeAutoFK auto-detects a foreign key by the `*_id` column-naming
// convention of spec §6.4 and records both the relation and its index.
func maybeAutoFK(db *sql.DB, tableName, colName, now string) error {
	if !strings.HasSuffix(colName, "_id") || colName == "id" {
		return nil
	}
	target := sanitizeIdent(strings.TrimSuffix(colName, "_id"))
	if _, err := db.Exec(
		`INSERT INTO _datacode_relations (from_table, from_column, to_table, to_column, relation_type, created_at)
		 VALUES (?, ?, ?, 'id', 'foreign_key', ?)`,
		tableName, colName, target, now,
	); err != nil {
		return err
	}
	idxName := fmt.Sprintf("idx_%s_%s", tableName, sanitizeIdent(colName))
	_, err := db.Exec(fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %q ON %q(%q)`, idxName, tableName, colName))
	return err
}

func createAndFillTable(db *sql.DB, tableName string, tbl *value.Table) error {
	if _, err := db.Exec(fmt.Sprintf(`DROP TABLE IF EXISTS %q`, tableName)); err != nil {
		return err
	}
	cols := make([]string, len(tbl.Columns))
	for i, c := range tbl.Columns {
		cols[i] = fmt.Sprintf("%q %s", c.Name, sqliteType(c.InferredType))
	}
	if _, err := db.Exec(fmt.Sprintf(`CREATE TABLE %q (%s)`, tableName, strings.Join(cols, ", "))); err != nil {
		return err
	}
	if tbl.RowCount == 0 {
		return nil
	}
	placeholders := make([]string, len(tbl.Columns))
	for i := range placeholders {
		placeholders[i] = "?"
	}
	stmt, err := db.Prepare(fmt.Sprintf(`INSERT INTO %q VALUES (%s)`, tableName, strings.Join(placeholders, ", ")))
	if err != nil {
		return err
	}
	defer stmt.Close()
	for r := 0; r < tbl.RowCount; r++ {
		args := make([]any, len(tbl.Columns))
		for c, col := range tbl.Columns {
			args[c] = sqlValue(col.Values[r])
		}
		if _, err := stmt.Exec(args...); err != nil {
			return err
		}
	}
	return nil
}

// sqliteType implements spec §6.4's type mapping.
func sqliteType(t value.ColumnType) string {
	switch t {
	case value.ColInt, value.ColBool:
		return "INTEGER"
	case value.ColReal, value.ColCurrency:
		return "REAL"
	default:
		return "TEXT"
	}
}

func sqlValue(v value.Value) any {
	switch x := v.(type) {
	case value.Null:
		return nil
	case value.Int:
		return int64(x)
	case value.Real:
		return float64(x)
	case value.String:
		return string(x)
	case value.Bool:
		if x {
			return int64(1)
		}
		return int64(0)
	case value.Date:
		return x.T.Format(time.RFC3339)
	case value.Currency:
		return x.Amount
	}
	return v.String()
}

// sanitizeIdent defuses SQL-injection-by-identifier: variable/column names
// come from DataCode source and are spliced directly into DDL text (Go's
// database/sql has no parameter binding for identifiers), so anything not
// alphanumeric/underscore is replaced and a leading digit is prefixed.
func sanitizeIdent(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	out := b.String()
	if out == "" {
		return "_"
	}
	if out[0] >= '0' && out[0] <= '9' {
		out = "_" + out
	}
	return out
}

// sliceIdentity returns the backing array's address, used to match a
// relate()'d Array back to the Column it was read from: table/field
// indexing (eval's evalIndex/evalField) hands back value.NewArray(col.
// Values...), and passing an existing slice with "..." to a variadic
// parameter reuses its backing array rather than copying it, so the
// pointer survives the round trip.
func sliceIdentity(s []value.Value) uintptr {
	if len(s) == 0 {
		return 0
	}
	return reflect.ValueOf(s).Pointer()
}
