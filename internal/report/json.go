package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/pratik-anurag/openport/internal/model"
)

// Document is the machine-readable form of one scan.
type Document struct {
	ScanID    string                  `json:"scan_id"`
	Timestamp time.Time               `json:"timestamp"`
	OSFamily  string                  `json:"os_family"`
	Outcome   string                  `json:"outcome"`
	Error     string                  `json:"error,omitempty"`
	Summary   Summary                 `json:"summary"`
	Records   []model.AnnotatedRecord `json:"records"`
}

// Summary counts what a scan saw.
type Summary struct {
	Total     int `json:"total"`
	Risky     int `json:"risky"`
	TCP       int `json:"tcp"`
	UDP       int `json:"udp"`
	Malformed int `json:"malformed"`
}

// Summarize counts records; malformed is supplied by the collector.
func Summarize(recs []model.AnnotatedRecord, malformed int) Summary {
	s := Summary{Total: len(recs), Malformed: malformed}
	for _, r := range recs {
		if r.Security.IsRisky() {
			s.Risky++
		}
		switch r.Protocol {
		case model.TCP:
			s.TCP++
		case model.UDP:
			s.UDP++
		}
	}
	return s
}

func WriteJSON(w io.Writer, doc Document) error {
	if doc.Records == nil {
		doc.Records = []model.AnnotatedRecord{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("%w: %v", ErrPersistenceFailed, err)
	}
	return nil
}

// SaveJSON writes doc to path. Errors wrap ErrPersistenceFailed.
func SaveJSON(path string, doc Document) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPersistenceFailed, err)
	}
	if err := WriteJSON(f, doc); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("%w: %v", ErrPersistenceFailed, err)
	}
	return nil
}
