package hashdb

import (
	"fmt"
	"time"

	"github.com/dfir-forensics/hashdb/pkg/auditlog"
	"github.com/dfir-forensics/hashdb/pkg/changes"
	"github.com/dfir-forensics/hashdb/pkg/metrics"
	"github.com/dfir-forensics/hashdb/pkg/types"
)

// ImportSession is the writer session import_manager exposes. Callers
// keep at most one open against a directory at a time (spec §5);
// NewImportSession takes no lock and does not prevent a second one.
type ImportSession struct {
	h             *Hashdb
	commandString string
	startedAt     time.Time
	changes       changes.Report
}

// NewImportSession opens a writer session. Callers must call Close
// exactly once; an ImportSession dropped without Close leaves no record
// in log.xml, and Open does not detect or report it.
func (h *Hashdb) NewImportSession(commandString string) *ImportSession {
	metrics.ImportSessionsTotal.Inc()
	return &ImportSession{h: h, commandString: commandString, startedAt: time.Now()}
}

// InsertSourceID assigns (or looks up) the dense source id for fileHash.
func (s *ImportSession) InsertSourceID(fileHash types.FileHash) (isNew bool, id types.SourceID, err error) {
	return s.h.sourceID.Insert(fileHash, &s.changes)
}

// InsertSourceName records one (repository_name, filename) pair.
func (s *ImportSession) InsertSourceName(sourceID types.SourceID, repositoryName, filename string) error {
	return s.h.sourceName.Insert(sourceID, repositoryName, filename, &s.changes)
}

// InsertSourceData records the per-source metadata tuple.
func (s *ImportSession) InsertSourceData(sourceID types.SourceID, data types.SourceData) error {
	return s.h.sourceData.Insert(sourceID, data, &s.changes)
}

// InsertHash records one sighting of blockHash in sourceID, updating the
// hash-data store, the prefilter, and the Bloom filter together so I4
// holds (the prefilters never lag the authoritative store).
func (s *ImportSession) InsertHash(blockHash types.BlockHash, kEntropy uint64, blockLabel string, sourceID types.SourceID) (totalCount uint64, err error) {
	totalCount, err = s.h.hashData.Insert(blockHash, kEntropy, blockLabel, sourceID, &s.changes)
	if err != nil {
		return 0, err
	}
	if err := s.h.prefilter.Insert(blockHash, totalCount, &s.changes); err != nil {
		return totalCount, err
	}
	s.h.bloomFilt.Add(blockHash)
	return totalCount, nil
}

// MergeHash is the merge() counterpart of InsertHash, used when
// rebuilding one hashdb from another: subCount is set directly rather
// than incremented.
func (s *ImportSession) MergeHash(blockHash types.BlockHash, kEntropy uint64, blockLabel string, sourceID types.SourceID, subCount uint64) (totalCount uint64, err error) {
	totalCount, err = s.h.hashData.Merge(blockHash, kEntropy, blockLabel, sourceID, subCount, &s.changes)
	if err != nil {
		return 0, err
	}
	if err := s.h.prefilter.Insert(blockHash, totalCount, &s.changes); err != nil {
		return totalCount, err
	}
	s.h.bloomFilt.Add(blockHash)
	return totalCount, nil
}

// Changes returns the session's changes report so far.
func (s *ImportSession) Changes() changes.Report {
	return s.changes
}

// Close appends the session's command string, timing, and final changes
// report to the audit log. Required before the process exits; a session
// that is never closed leaves log.xml without a record of its work.
func (s *ImportSession) Close() error {
	finishedAt := time.Now()
	metrics.ImportSessionDuration.Observe(finishedAt.Sub(s.startedAt).Seconds())

	report := s.changes
	if err := auditlog.Append(s.h.dir, auditlog.Session{
		Command:       s.commandString,
		StartedAt:     s.startedAt.UTC().Format(time.RFC3339),
		FinishedAt:    finishedAt.UTC().Format(time.RFC3339),
		DurationMS:    finishedAt.Sub(s.startedAt).Milliseconds(),
		ChangesReport: &report,
	}); err != nil {
		return fmt.Errorf("import session close: %w", err)
	}
	return nil
}
