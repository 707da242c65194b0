package gtfsfilter

import (
	"encoding/csv"
	"fmt"
	"github.com/klauspost/compress/zip"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Save writes feed as a SQLite database if outputPath ends in .db, and as a zip
// archive otherwise.
func Save(feed *Feed, outputPath string) error {
	if strings.HasSuffix(outputPath, ".db") {
		return WriteSQLite(feed, outputPath)
	}
	return WriteArchive(feed, outputPath)
}

// WriteArchive writes feed to a zip archive at outputPath. The archive is assembled
// in a temporary file and only renamed into place once complete.
func WriteArchive(feed *Feed, outputPath string) (err error) {
	if outputPath == "" {
		panic("Missing outputPath")
	}

	slog.Info(fmt.Sprintf("Writing %s", outputPath))

	outputF, err := os.CreateTemp(filepath.Dir(outputPath), ".gtfsfilter-*.zip")
	if err != nil {
		return err
	}
	tmpPath := outputF.Name()
	outputZip := zip.NewWriter(outputF)
	defer func() {
		_ = outputZip.Close()
		_ = outputF.Close()
		if err != nil {
			_ = os.Remove(tmpPath)
		}
	}()

	for _, name := range feed.TableNames() {
		if err := exportTableIn(outputZip, feed.Tables[name]); err != nil {
			return err
		}
	}

	for _, name := range feed.FileNames() {
		fileW, err := outputZip.Create(name)
		if err != nil {
			return err
		}
		byteLen, err := fileW.Write(feed.Files[name])
		if err != nil {
			return err
		}
		slog.Info(fmt.Sprintf("Wrote other file %s (%d bytes)", name, byteLen))
	}

	if err := outputZip.Close(); err != nil {
		return err
	}
	if err := outputF.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmpPath, outputPath); err != nil {
		return err
	}

	slog.Info(fmt.Sprintf("Wrote %s", outputPath))
	return nil
}

func exportTableIn(outputZip *zip.Writer, t *Table) error {
	outputName := t.FileName()
	outputF, err := outputZip.Create(outputName)
	if err != nil {
		return err
	}
	if t.Header == nil {
		slog.Info(fmt.Sprintf("Wrote empty file %s", outputName))
		return nil
	}

	outputCSV := csv.NewWriter(outputF)
	if err := outputCSV.Write(t.Header); err != nil {
		return err
	}
	for _, row := range t.Rows {
		if err := outputCSV.Write(row); err != nil {
			return err
		}
	}
	slog.Info(fmt.Sprintf("Wrote %d rows to %s", t.Len(), outputName))

	outputCSV.Flush()
	return outputCSV.Error()
}
