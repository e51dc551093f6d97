// Package scanstream parallelises block-hash membership queries for
// high-throughput scans. A fixed pool of worker goroutines drains a
// shared queue of input batches, each a concatenation of fixed-width
// (hash, label) records, and produces scanned batches of variable-length
// result records. Workers poll the queue rather than being signaled, to
// keep the scheduling model simple and portable.
package scanstream

import (
	"encoding/binary"
	"runtime"
	"sync"
	"time"

	"github.com/dfir-forensics/hashdb/pkg/log"
	"github.com/dfir-forensics/hashdb/pkg/metrics"
)

// LookupFunc answers one block-hash membership query, returning the JSON
// text to embed in the result record (empty means "no match, drop this
// record").
type LookupFunc func(hash, label []byte) (jsonText string)

// Stream is the scan-stream scheduler.
type Stream struct {
	hashWidth  int
	labelWidth int
	lookup     LookupFunc

	mu        sync.Mutex
	pending   [][]byte // submitted, unscanned input batches
	scanned   [][]byte // completed result batches awaiting Get
	submitted uint64
	completed uint64

	shouldClose bool
	wg          sync.WaitGroup
}

// New spawns runtime.NumCPU() workers, each pulling input batches from a
// shared queue and producing result batches via lookup.
func New(hashWidth, labelWidth int, lookup LookupFunc) *Stream {
	s := &Stream{hashWidth: hashWidth, labelWidth: labelWidth, lookup: lookup}
	n := runtime.NumCPU()
	metrics.ScanWorkersActive.Set(float64(n))
	for i := 0; i < n; i++ {
		s.wg.Add(1)
		go s.worker()
	}
	return s
}

// recordWidth is the fixed width of one input record: hash + label.
func (s *Stream) recordWidth() int { return s.hashWidth + s.labelWidth }

// Put submits one input batch. If its length is not a multiple of the
// fixed record width, the partial remainder is a caller contract
// violation: the whole batch is dropped and a diagnostic logged, rather
// than treated as fatal.
func (s *Stream) Put(batch []byte) {
	width := s.recordWidth()
	if width == 0 || len(batch)%width != 0 {
		log.Logger.Warn().
			Int("batch_len", len(batch)).
			Int("record_width", width).
			Msg("scan batch length is not a multiple of the record width, dropping batch")
		return
	}

	s.mu.Lock()
	s.pending = append(s.pending, batch)
	s.submitted++
	s.mu.Unlock()
	metrics.ScanBatchesSubmitted.Inc()
}

// Get returns one scanned result batch, or nil if none is available yet.
// Non-blocking, per spec.
func (s *Stream) Get() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.scanned) == 0 {
		return nil
	}
	batch := s.scanned[0]
	s.scanned = s.scanned[1:]
	return batch
}

// Finish signals that no further batches will be submitted. Idempotent;
// safe to call more than once.
func (s *Stream) Finish() {
	s.mu.Lock()
	s.shouldClose = true
	s.mu.Unlock()
	s.wg.Wait()
}

// busy reports whether an unscanned batch is pending, or the
// submitted/completed counters disagree (a worker is mid-batch).
func (s *Stream) busy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending) > 0 || s.submitted != s.completed
}

func (s *Stream) worker() {
	defer s.wg.Done()
	for {
		s.mu.Lock()
		if len(s.pending) == 0 {
			closing := s.shouldClose
			s.mu.Unlock()
			if closing && !s.busy() {
				return
			}
			s.cooperativeYield()
			continue
		}
		batch := s.pending[0]
		s.pending = s.pending[1:]
		s.mu.Unlock()

		result := s.scan(batch)

		s.mu.Lock()
		if len(result) > 0 {
			s.scanned = append(s.scanned, result)
		}
		s.completed++
		s.mu.Unlock()
		metrics.ScanBatchesScanned.Inc()
	}
}

// cooperativeYield is the one blocking point inside a worker when its
// queue is empty: a short sleep instead of a spin, matching the original
// engine's cooperative_yield suspension point.
func (s *Stream) cooperativeYield() {
	time.Sleep(time.Millisecond)
}

func (s *Stream) scan(batch []byte) []byte {
	width := s.recordWidth()
	var out []byte
	for off := 0; off+width <= len(batch); off += width {
		hash := batch[off : off+s.hashWidth]
		label := batch[off+s.hashWidth : off+width]

		timer := metrics.NewTimer()
		jsonText := s.lookup(hash, label)
		timer.ObserveDuration(metrics.ScanLookupDuration)
		metrics.ScanLookupsTotal.Inc()

		if jsonText == "" {
			continue
		}
		out = appendResultRecord(out, hash, label, jsonText)
	}
	return out
}

// appendResultRecord appends one (record_size_u64, hash, label,
// json_text) result record.
func appendResultRecord(buf, hash, label []byte, jsonText string) []byte {
	body := make([]byte, 0, len(hash)+len(label)+len(jsonText))
	body = append(body, hash...)
	body = append(body, label...)
	body = append(body, jsonText...)

	var sizeField [8]byte
	binary.LittleEndian.PutUint64(sizeField[:], uint64(len(body)))
	buf = append(buf, sizeField[:]...)
	return append(buf, body...)
}
