// Package auditlog appends structured session records to a hashdb
// directory's log.xml: the durable audit trail distinct from the
// operational zerolog stream in pkg/log. Every writer session appends
// one <session> element holding its command string, timing, and final
// changes report; every rebuild_bloom/create_hashdb call appends one
// holding its command string only.
package auditlog

import (
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// fileName is the audit log's fixed name within a hashdb directory
// (spec §6 directory layout).
const fileName = "log.xml"

// Session is one appended audit record.
type Session struct {
	XMLName       xml.Name `xml:"session"`
	SessionID     string   `xml:"session_id"`
	Command       string   `xml:"command"`
	StartedAt     string   `xml:"started_at"`
	FinishedAt    string   `xml:"finished_at"`
	DurationMS    int64    `xml:"duration_ms"`
	Fatal         bool     `xml:"fatal,omitempty"`
	FatalMessage  string   `xml:"fatal_message,omitempty"`
	ChangesReport any      `xml:"changes_report"`
}

// Append marshals s as one XML element and appends it to dir/log.xml,
// creating the file (with a root-less, streamed sequence of <session>
// elements) if it does not exist. The file is opened in append mode so
// a crash mid-write never corrupts previously committed sessions.
func Append(dir string, s Session) error {
	path := filepath.Join(dir, fileName)
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("auditlog: open %s: %w", path, err)
	}
	defer f.Close()

	if s.SessionID == "" {
		s.SessionID = uuid.New().String()
	}

	data, err := xml.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("auditlog: marshal: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("auditlog: write: %w", err)
	}
	if _, err := f.Write([]byte("\n")); err != nil {
		return fmt.Errorf("auditlog: write: %w", err)
	}
	return nil
}
