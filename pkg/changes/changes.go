// Package changes holds the writer-session counters every writing
// operation mutates and every writer session reports on close (spec §6
// "Changes report"). It is passed by pointer into every writing
// operation rather than kept as package-global state (spec §9).
package changes

// Report accumulates the counters spec §6 requires at minimum, plus two
// fields the spec is silent on: HashDataSourceAdded and
// HashDataCountIncremented separate insert()-driven posting-list
// mutation from true merge()-driven mutation, so hash_data_merged only
// ever reflects a merge() call. Field names match the snake_case names
// in the spec with Go capitalization; JSON marshaling restores the
// snake_case form via struct tags.
type Report struct {
	HashDataInserted                   uint64 `json:"hash_data_inserted"`
	HashDataSourceAdded                uint64 `json:"hash_data_source_added"`
	HashDataCountIncremented           uint64 `json:"hash_data_count_incremented"`
	HashDataMerged                     uint64 `json:"hash_data_merged"`
	HashDataMergedSame                 uint64 `json:"hash_data_merged_same"`
	HashDataMismatchedDataDetected     uint64 `json:"hash_data_mismatched_data_detected"`
	HashDataMismatchedSubCountDetected uint64 `json:"hash_data_mismatched_sub_count_detected"`
	HashDataLabelTruncated             uint64 `json:"hash_data_label_truncated"`
	HashDataSubCountClipped            uint64 `json:"hash_data_sub_count_clipped"`
	HashDataTotalCountClipped          uint64 `json:"hash_data_total_count_clipped"`
	HashDataEmptyHashRejected          uint64 `json:"hash_data_empty_hash_rejected"`

	HashPrefixInserted uint64 `json:"hash_prefix_inserted"`
	HashSuffixInserted uint64 `json:"hash_suffix_inserted"`
	HashCountChanged   uint64 `json:"hash_count_changed"`
	HashNotChanged     uint64 `json:"hash_not_changed"`

	SourceIDInserted       uint64 `json:"source_id_inserted"`
	SourceIDAlreadyPresent uint64 `json:"source_id_already_present"`

	SourceDataInserted uint64 `json:"source_data_inserted"`
	SourceDataChanged  uint64 `json:"source_data_changed"`
	SourceDataSame     uint64 `json:"source_data_same"`

	SourceNameInserted       uint64 `json:"source_name_inserted"`
	SourceNameAlreadyPresent uint64 `json:"source_name_already_present"`
}

// Merge folds other's counters into r by adding each field, so one
// combined report can be accumulated from several per-session reports.
func (r *Report) Merge(other *Report) {
	r.HashDataInserted += other.HashDataInserted
	r.HashDataSourceAdded += other.HashDataSourceAdded
	r.HashDataCountIncremented += other.HashDataCountIncremented
	r.HashDataMerged += other.HashDataMerged
	r.HashDataMergedSame += other.HashDataMergedSame
	r.HashDataMismatchedDataDetected += other.HashDataMismatchedDataDetected
	r.HashDataMismatchedSubCountDetected += other.HashDataMismatchedSubCountDetected
	r.HashDataLabelTruncated += other.HashDataLabelTruncated
	r.HashDataSubCountClipped += other.HashDataSubCountClipped
	r.HashDataTotalCountClipped += other.HashDataTotalCountClipped
	r.HashDataEmptyHashRejected += other.HashDataEmptyHashRejected
	r.HashPrefixInserted += other.HashPrefixInserted
	r.HashSuffixInserted += other.HashSuffixInserted
	r.HashCountChanged += other.HashCountChanged
	r.HashNotChanged += other.HashNotChanged
	r.SourceIDInserted += other.SourceIDInserted
	r.SourceIDAlreadyPresent += other.SourceIDAlreadyPresent
	r.SourceDataInserted += other.SourceDataInserted
	r.SourceDataChanged += other.SourceDataChanged
	r.SourceDataSame += other.SourceDataSame
	r.SourceNameInserted += other.SourceNameInserted
	r.SourceNameAlreadyPresent += other.SourceNameAlreadyPresent
}
