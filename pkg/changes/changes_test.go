package changes

import "testing"

func TestMergeFoldsCountersAdditively(t *testing.T) {
	r := Report{HashDataInserted: 1, SourceIDInserted: 2}
	other := Report{HashDataInserted: 4, HashDataMerged: 5, SourceNameInserted: 1}

	r.Merge(&other)

	if r.HashDataInserted != 5 {
		t.Fatalf("HashDataInserted = %d, want 5", r.HashDataInserted)
	}
	if r.HashDataMerged != 5 {
		t.Fatalf("HashDataMerged = %d, want 5", r.HashDataMerged)
	}
	if r.SourceIDInserted != 2 {
		t.Fatalf("SourceIDInserted = %d, want 2 (untouched by other)", r.SourceIDInserted)
	}
	if r.SourceNameInserted != 1 {
		t.Fatalf("SourceNameInserted = %d, want 1", r.SourceNameInserted)
	}
}

func TestMergeOfZeroValueIsNoOp(t *testing.T) {
	r := Report{HashDataInserted: 3}
	r.Merge(&Report{})
	if r.HashDataInserted != 3 {
		t.Fatalf("HashDataInserted = %d, want 3", r.HashDataInserted)
	}
}
