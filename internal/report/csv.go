package report

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pratik-anurag/openport/internal/model"
)

// ErrPersistenceFailed wraps any failure to write a report file.
var ErrPersistenceFailed = errors.New("report persistence failed")

// DefaultCSVPattern is expanded with the scan time.
const DefaultCSVPattern = "open_ports_20060102_150405.csv"

// Columns is the fixed CSV column order.
var Columns = []string{
	"protocol",
	"local_address",
	"local_port",
	"remote_address",
	"remote_port",
	"status",
	"owning_process_id",
	"service_name",
	"security_status",
	"remediation_text",
	"firewall_command",
}

// WriteCSV writes a header and one row per record, in order.
func WriteCSV(w io.Writer, recs []model.AnnotatedRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Columns); err != nil {
		return fmt.Errorf("%w: %v", ErrPersistenceFailed, err)
	}
	for _, r := range recs {
		if err := cw.Write(row(r)); err != nil {
			return fmt.Errorf("%w: %v", ErrPersistenceFailed, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("%w: %v", ErrPersistenceFailed, err)
	}
	return nil
}

func row(r model.AnnotatedRecord) []string {
	return []string{
		string(r.Protocol),
		r.LocalAddress,
		r.LocalPort.String(),
		r.RemoteAddress,
		r.RemotePort.String(),
		r.Status,
		r.PID.String(),
		r.ServiceName,
		r.Security.String(),
		r.Remediation,
		r.FirewallCommand,
	}
}

// SaveCSV writes recs to path atomically: the file only appears once fully
// written. Errors wrap ErrPersistenceFailed.
func SaveCSV(path string, recs []model.AnnotatedRecord) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".openport-*.csv")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPersistenceFailed, err)
	}
	defer os.Remove(tmp.Name())

	if err := WriteCSV(tmp, recs); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: %v", ErrPersistenceFailed, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: %v", ErrPersistenceFailed, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("%w: %v", ErrPersistenceFailed, err)
	}
	return nil
}

// ExpandPath applies t to a path containing a Go time layout such as
// DefaultCSVPattern. Paths without layout digits are returned unchanged.
func ExpandPath(pattern string, t time.Time) string {
	if !strings.Contains(pattern, "2006") {
		return pattern
	}
	dir, file := filepath.Split(pattern)
	return dir + t.Format(file)
}
