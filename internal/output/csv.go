package output

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"github.com/gofrs/flock"

	"github.com/torosent/loadcli/internal/metrics"
)

// WriteCSV writes one row per status code under the header
// status,requests,min,max,mean,std,p90,p99. Latencies are milliseconds with
// three decimals.
func WriteCSV(w io.Writer, rows []metrics.StatusStats) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(StatusHeaders); err != nil {
		return err
	}
	for _, row := range rows {
		if err := cw.Write(statusRecord(row)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteCSVFile replaces path with the CSV statistics. An advisory lock on
// path+".lock" serializes concurrent runs writing the same file.
func WriteCSVFile(path string, rows []metrics.StatusStats) (err error) {
	lock := flock.New(path + ".lock")
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("lock %s: %w", path, err)
	}
	defer func() {
		if uerr := lock.Unlock(); uerr != nil && err == nil {
			err = fmt.Errorf("unlock %s: %w", path, uerr)
		}
	}()

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := WriteCSV(f, rows); err != nil {
		_ = f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}
