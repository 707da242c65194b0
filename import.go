package gtfsfilter

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"github.com/klauspost/compress/zip"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Open reads a feed from a zip archive, a database written by WriteSQLite (.db), or
// a directory holding the extracted files.
func Open(inputPath string) (*Feed, error) {
	info, err := os.Stat(inputPath)
	if err != nil {
		return nil, err
	}
	switch {
	case info.IsDir():
		return ReadDir(inputPath)
	case strings.HasSuffix(inputPath, ".db"):
		return ReadSQLite(inputPath)
	default:
		return ReadArchive(inputPath)
	}
}

func ReadArchive(inputPath string) (*Feed, error) {
	if inputPath == "" {
		panic("Missing inputPath")
	}

	slog.Info(fmt.Sprintf("Reading %s", inputPath))

	inputZip, err := zip.OpenReader(inputPath)
	if err != nil {
		return nil, err
	}
	defer func() { _ = inputZip.Close() }()

	feed := NewFeed()
	for _, file := range inputZip.File {
		if file.FileInfo().IsDir() {
			continue
		}
		if err := readMemberIn(feed, file.Name, file.Open); err != nil {
			return nil, fmt.Errorf("read %s: %w", file.Name, err)
		}
	}
	return feed, nil
}

func ReadDir(inputPath string) (*Feed, error) {
	slog.Info(fmt.Sprintf("Reading %s", inputPath))

	entries, err := os.ReadDir(inputPath)
	if err != nil {
		return nil, err
	}

	feed := NewFeed()
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		path := filepath.Join(inputPath, entry.Name())
		open := func() (io.ReadCloser, error) { return os.Open(path) }
		if err := readMemberIn(feed, entry.Name(), open); err != nil {
			return nil, fmt.Errorf("read %s: %w", entry.Name(), err)
		}
	}
	return feed, nil
}

func readMemberIn(feed *Feed, filename string, open func() (io.ReadCloser, error)) error {
	inputF, err := open()
	if err != nil {
		return err
	}
	defer func() { _ = inputF.Close() }()

	table, isTable := tableNameOf(filename)
	if !isTable {
		slog.Info("Reading other file " + filename)

		contents, err := io.ReadAll(inputF)
		if err != nil {
			return err
		}
		feed.AddFile(filename, contents)
		return nil
	}

	t, err := readTable(table, inputF)
	if err != nil {
		return err
	}
	feed.AddTable(t)
	return nil
}

func readTable(name string, r io.Reader) (*Table, error) {
	input := bufio.NewReader(r)
	if prefix, err := input.Peek(len(utf8BOM)); err == nil && bytes.Equal(prefix, utf8BOM) {
		_, _ = input.Discard(len(utf8BOM))
	}

	inputCSV := csv.NewReader(input)
	inputCSV.FieldsPerRecord = -1 // Allow variable numbers of fields

	// Header

	header, err := inputCSV.Read()
	if errors.Is(err, io.EOF) {
		slog.Info(fmt.Sprintf("Read empty file %s.txt", name))
		return NewTable(name, nil, nil), nil
	} else if err != nil {
		return nil, err
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	// Rows

	var rows []Row
	for {
		row, err := inputCSV.Read()
		if errors.Is(err, io.EOF) {
			break
		} else if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	slog.Info(fmt.Sprintf("Read %d rows from %s.txt: %s", len(rows), name, strings.Join(header, ",")))

	return NewTable(name, header, rows), nil
}
