package hashdata

import (
	bolt "go.etcd.io/bbolt"

	"github.com/dfir-forensics/hashdb/pkg/changes"
	"github.com/dfir-forensics/hashdb/pkg/log"
	"github.com/dfir-forensics/hashdb/pkg/metrics"
	"github.com/dfir-forensics/hashdb/pkg/types"
)

// Insert increments the posting for sourceID by one and returns the
// hash's new total_count. An empty blockHash is rejected: it mutates
// nothing and returns 0.
func (s *Store) Insert(blockHash types.BlockHash, kEntropy uint64, blockLabel string, sourceID types.SourceID, ch *changes.Report) (uint64, error) {
	return s.upsert(blockHash, kEntropy, blockLabel, sourceID, 1, false, ch)
}

// Merge records sourceID with the supplied sub_count rather than
// incrementing by one, for rebuilding one hashdb from another. If
// sourceID already has a posting under blockHash, that posting is left
// unchanged: an equal value counts hash_data_merged_same, a different
// one (larger or smaller) counts hash_data_mismatched_sub_count_detected,
// so a merge never decreases a stored sub_count.
func (s *Store) Merge(blockHash types.BlockHash, kEntropy uint64, blockLabel string, sourceID types.SourceID, subCount uint64, ch *changes.Report) (uint64, error) {
	return s.upsert(blockHash, kEntropy, blockLabel, sourceID, subCount, true, ch)
}

func (s *Store) upsert(blockHash types.BlockHash, kEntropy uint64, blockLabel string, sourceID types.SourceID, subCount uint64, isMerge bool, ch *changes.Report) (uint64, error) {
	if len(blockHash) == 0 {
		log.Logger.Warn().Msg("insert: empty block_hash, skipped")
		ch.HashDataEmptyHashRejected++
		return 0, nil
	}

	truncated := false
	if len(blockLabel) > types.MaxBlockLabelLen {
		blockLabel = blockLabel[:types.MaxBlockLabelLen]
		truncated = true
	}

	timer := metrics.NewTimer()
	var newTotal uint64
	wasAbsent := false
	err := s.st.Update(func(b *bolt.Bucket) error {
		existing, ok := decode(b.Get(blockHash))
		if !ok {
			wasAbsent = true
			rec := record{
				kEntropy:   kEntropy,
				blockLabel: blockLabel,
				postings:   []types.Posting{{SourceID: sourceID, SubCount: clipSubCount(subCount, ch)}},
			}
			newTotal = rec.totalCount()
			return b.Put(blockHash, encode(rec))
		}

		if existing.kEntropy != kEntropy || existing.blockLabel != blockLabel {
			ch.HashDataMismatchedDataDetected++
			// first writer wins: keep existing attributes.
		}

		idx := -1
		for i, p := range existing.postings {
			if p.SourceID == sourceID {
				idx = i
				break
			}
		}

		if idx < 0 {
			// New source for a hash that already existed.
			existing.postings = append(existing.postings, types.Posting{
				SourceID: sourceID,
				SubCount: clipSubCount(subCount, ch),
			})
			if isMerge {
				ch.HashDataMerged++
			} else {
				ch.HashDataSourceAdded++
			}
		} else if isMerge {
			if uint64(existing.postings[idx].SubCount) == subCount {
				ch.HashDataMergedSame++
			} else {
				ch.HashDataMismatchedSubCountDetected++
				// merge keeps the existing value on mismatch.
			}
		} else {
			existing.postings[idx].SubCount = clipSubCount(uint64(existing.postings[idx].SubCount)+subCount, ch)
			ch.HashDataCountIncremented++
		}

		newTotal = existing.totalCount()
		return b.Put(blockHash, encode(existing))
	})
	timer.ObserveDuration(metrics.HashDataInsertDuration)
	if isMerge {
		metrics.HashDataMergesTotal.Inc()
	} else {
		metrics.HashDataInsertsTotal.Inc()
	}
	if truncated {
		ch.HashDataLabelTruncated++
	}
	if err == nil && wasAbsent {
		ch.HashDataInserted++
	}
	return newTotal, err
}

// clipSubCount clamps a per-source sub_count to the 16-bit on-disk limit,
// counting the clip.
func clipSubCount(v uint64, ch *changes.Report) uint32 {
	if v > types.MaxSubCount {
		ch.HashDataSubCountClipped++
		return types.MaxSubCount
	}
	return uint32(v)
}

// Find returns the full decoded record for blockHash, or ok=false if
// absent.
func (s *Store) Find(blockHash types.BlockHash) (types.HashRecord, bool, error) {
	timer := metrics.NewTimer()
	defer timer.ObserveDuration(metrics.HashDataFindDuration)

	var rec types.HashRecord
	found := false
	err := s.st.View(func(b *bolt.Bucket) error {
		r, ok := decode(b.Get(blockHash))
		if !ok {
			return nil
		}
		found = true
		rec = types.HashRecord{
			KEntropy:   r.kEntropy,
			BlockLabel: r.blockLabel,
			TotalCount: r.totalCount(),
			Postings:   append([]types.Posting(nil), r.postings...),
		}
		return nil
	})
	return rec, found, err
}

// FindCount returns just the total_count for blockHash, reading it
// straight out of the stored header rather than decoding the label and
// walking every Type-3 follower.
func (s *Store) FindCount(blockHash types.BlockHash) (uint64, bool, error) {
	var total uint64
	found := false
	err := s.st.View(func(b *bolt.Bucket) error {
		total, found = peekTotalCount(b.Get(blockHash))
		return nil
	})
	return total, found, err
}

// FirstHash returns the lexicographically first block hash in the store.
func (s *Store) FirstHash() (types.BlockHash, bool, error) {
	return s.adjacent(nil)
}

// NextHash returns the block hash following prev in substrate order.
// NextHash("") behaves like FirstHash.
func (s *Store) NextHash(prev types.BlockHash) (types.BlockHash, bool, error) {
	if len(prev) == 0 {
		return s.FirstHash()
	}
	return s.adjacent(prev)
}

func (s *Store) adjacent(prev types.BlockHash) (types.BlockHash, bool, error) {
	sess, err := s.st.Begin()
	if err != nil {
		return nil, false, err
	}
	defer sess.Close()

	c := sess.Cursor()
	var k []byte
	if prev == nil {
		k, _ = c.First()
	} else {
		found, _ := c.Seek(prev)
		if found != nil {
			k, _ = c.Next()
		}
	}
	if k == nil {
		return nil, false, nil
	}
	out := make([]byte, len(k))
	copy(out, k)
	return types.BlockHash(out), true, nil
}

// Count returns the number of distinct block hashes currently stored.
func (s *Store) Count() (int, error) {
	return s.st.Count()
}
