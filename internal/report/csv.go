package report

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"go.uber.org/multierr"

	"github.com/jpalmerr/clusterstats"
)

// FileName returns the CSV file name for a run finished at now.
func FileName(now time.Time) string {
	return strconv.FormatInt(now.UnixMilli(), 10) + ".csv"
}

// WriteCSV writes table to dir/<unix-millis>.csv and returns the path.
//
// The file is created exclusively, so an existing report is never
// overwritten. A close error is reported together with any write error.
func WriteCSV(dir string, table *clusterstats.Table, now time.Time) (path string, err error) {
	if table == nil {
		return "", errors.New("no table to write")
	}

	path = filepath.Join(dir, FileName(now))
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("failed to create report file: %w", err)
	}
	defer func() {
		err = multierr.Append(err, f.Close())
		if err != nil {
			_ = os.Remove(path)
			path = ""
		}
	}()

	if err := EncodeCSV(f, table); err != nil {
		return path, fmt.Errorf("failed to write report file: %w", err)
	}
	return path, nil
}

// EncodeCSV writes a header of the group-by fields followed by the aggregate
// field, then one record per row.
func EncodeCSV(w io.Writer, table *clusterstats.Table) error {
	cw := csv.NewWriter(w)

	header := make([]string, 0, len(table.GroupBy)+1)
	header = append(header, table.GroupBy...)
	header = append(header, table.Field)
	if err := cw.Write(header); err != nil {
		return err
	}

	for _, row := range table.Rows {
		record := make([]string, 0, len(row.Key)+1)
		record = append(record, row.Key...)
		record = append(record, row.Value.String())
		if err := cw.Write(record); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}
