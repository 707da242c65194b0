package gtfsfilter

import (
	"crawshaw.io/sqlite"
	"crawshaw.io/sqlite/sqlitex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"strings"
)

// A feed stored in SQLite has one TEXT table per GTFS file, with empty values stored
// as NULL. Bookkeeping tables are prefixed with __gtfsfilter.
const (
	otherFilesTable = "__gtfsfilter_other_files"
	emptyFilesTable = "__gtfsfilter_empty_files"
)

var importPragmas = map[string]string{
	"synchronous": "OFF",
}

var sqlitexNoop = func(stmt *sqlite.Stmt) error { return nil }

func WriteSQLite(feed *Feed, outputPath string) error {
	if outputPath == "" {
		panic("Missing outputPath")
	}

	slog.Info(fmt.Sprintf("Writing %s", outputPath))

	err := os.Remove(outputPath)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}

	db, err := sqlite.OpenConn(outputPath, 0)
	if err != nil {
		return err
	}
	defer func() {
		if db != nil {
			_ = db.Close()
		}
	}()

	for pragma, value := range importPragmas {
		err = sqlitex.Exec(db, "PRAGMA "+pragma+" = "+value, sqlitexNoop)
		if err != nil {
			return err
		}
	}

	if err := writeFeedIn(db, feed); err != nil {
		return err
	}

	err = db.Close()
	db = nil
	if err != nil {
		return err
	}

	slog.Info(fmt.Sprintf("Wrote %s", outputPath))
	return nil
}

func writeFeedIn(db *sqlite.Conn, feed *Feed) (err error) {
	defer sqlitex.Save(db)(&err)

	for _, name := range feed.TableNames() {
		t := feed.Tables[name]
		if t.Header == nil {
			if err := recordEmptyFile(db, name); err != nil {
				return err
			}
			continue
		}
		if err := createTable(db, t); err != nil {
			return err
		}
		if err := insertRows(db, t); err != nil {
			return err
		}
	}

	for _, name := range feed.FileNames() {
		if err := sqlitex.Exec(db, "CREATE TABLE IF NOT EXISTS "+otherFilesTable+" (name TEXT, contents BLOB)", sqlitexNoop); err != nil {
			return err
		}
		if err := sqlitex.Exec(db, "INSERT INTO "+otherFilesTable+" (name, contents) VALUES (?, ?)", sqlitexNoop, name, feed.Files[name]); err != nil {
			return err
		}
	}
	return nil
}

func recordEmptyFile(db *sqlite.Conn, table string) error {
	if err := sqlitex.Exec(db, "CREATE TABLE IF NOT EXISTS "+emptyFilesTable+" (tableName TEXT)", sqlitexNoop); err != nil {
		return err
	}
	return sqlitex.Exec(db, "INSERT INTO "+emptyFilesTable+" (tableName) VALUES (?)", sqlitexNoop, table)
}

func createTable(db *sqlite.Conn, t *Table) error {
	var columnFragments []string
	for _, column := range t.Header {
		columnFragments = append(columnFragments, quoteIdent(column)+" TEXT")
	}
	query := fmt.Sprintf("CREATE TABLE %s (%s)", quoteIdent(t.Name), strings.Join(columnFragments, ", "))
	return sqlitex.ExecTransient(db, query, sqlitexNoop)
}

func insertRows(db *sqlite.Conn, t *Table) error {
	var columnFragments, argFragments []string
	for i, column := range t.Header {
		columnFragments = append(columnFragments, quoteIdent(column))
		argFragments = append(argFragments, fmt.Sprintf("?%d", i+1))
	}
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		quoteIdent(t.Name), strings.Join(columnFragments, ", "), strings.Join(argFragments, ", "))
	insertStmt, err := db.Prepare(query)
	if err != nil {
		return err
	}

	for _, row := range t.Rows {
		if err := insertStmt.Reset(); err != nil {
			return err
		}
		if err := insertStmt.ClearBindings(); err != nil {
			return err
		}

		for i, v := range row {
			if i >= len(t.Header) {
				break
			}
			param := i + 1
			if v == "" {
				insertStmt.BindNull(param)
			} else {
				insertStmt.BindText(param, v)
			}
		}

		for {
			rowReturned, err := insertStmt.Step()
			if err != nil {
				return err
			}
			if !rowReturned {
				break
			}
		}
	}
	slog.Info(fmt.Sprintf("Wrote %d rows to %s", t.Len(), t.Name))
	return nil
}

func ReadSQLite(inputPath string) (*Feed, error) {
	if inputPath == "" {
		panic("Missing inputPath")
	}

	slog.Info(fmt.Sprintf("Reading %s", inputPath))

	db, err := sqlite.OpenConn(inputPath, sqlite.SQLITE_OPEN_READONLY)
	if err != nil {
		return nil, err
	}
	defer func() { _ = db.Close() }()

	var tables []string
	err = sqlitex.Exec(db, "SELECT name FROM sqlite_master WHERE type = 'table' ORDER BY name", func(stmt *sqlite.Stmt) error {
		tables = append(tables, stmt.GetText("name"))
		return nil
	})
	if err != nil {
		return nil, err
	}

	feed := NewFeed()

	if slices.Contains(tables, otherFilesTable) {
		if err := readOtherFiles(db, feed); err != nil {
			return nil, err
		}
	}

	if slices.Contains(tables, emptyFilesTable) {
		err = sqlitex.Exec(db, "SELECT tableName FROM "+emptyFilesTable, func(stmt *sqlite.Stmt) error {
			feed.AddTable(NewTable(stmt.GetText("tableName"), nil, nil))
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	for _, table := range tables {
		if strings.HasPrefix(table, "__gtfsfilter") {
			continue
		}
		t, err := readTableFrom(db, table)
		if err != nil {
			return nil, fmt.Errorf("read table %s: %w", table, err)
		}
		feed.AddTable(t)
	}
	return feed, nil
}

func readTableFrom(db *sqlite.Conn, table string) (*Table, error) {
	var header []string
	err := sqlitex.Exec(db, "SELECT name FROM pragma_table_info(?) ORDER BY cid", func(stmt *sqlite.Stmt) error {
		header = append(header, stmt.GetText("name"))
		return nil
	}, table)
	if err != nil {
		return nil, err
	}

	var rows []Row
	err = sqlitex.ExecTransient(db, "SELECT * FROM "+quoteIdent(table)+" ORDER BY rowid", func(stmt *sqlite.Stmt) error {
		row := make(Row, stmt.ColumnCount())
		for i := range row {
			row[i] = stmt.ColumnText(i)
		}
		rows = append(rows, row)
		return nil
	})
	if err != nil {
		return nil, err
	}
	slog.Info(fmt.Sprintf("Read %d rows from %s", len(rows), table))

	return NewTable(table, header, rows), nil
}

func readOtherFiles(db *sqlite.Conn, feed *Feed) error {
	return sqlitex.ExecTransient(db, "SELECT name, contents FROM "+otherFilesTable, func(stmt *sqlite.Stmt) error {
		name := stmt.GetText("name")
		contents, err := io.ReadAll(stmt.GetReader("contents"))
		if err != nil {
			return err
		}
		feed.AddFile(name, contents)
		slog.Info(fmt.Sprintf("Read other file %s (%d bytes)", name, len(contents)))
		return nil
	})
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
