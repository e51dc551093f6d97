package scanstream

import (
	"encoding/binary"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testHashWidth  = 4
	testLabelWidth = 2
)

func record(hash byte, label uint16) []byte {
	var buf [testHashWidth + testLabelWidth]byte
	buf[0] = hash
	binary.LittleEndian.PutUint16(buf[testHashWidth:], label)
	return buf[:]
}

func TestPutGetRoundTrip(t *testing.T) {
	s := New(testHashWidth, testLabelWidth, func(hash, label []byte) string {
		return fmt.Sprintf(`{"hash":%d}`, hash[0])
	})
	defer s.Finish()

	batch := append(record(1, 10), record(2, 20)...)
	s.Put(batch)

	var result []byte
	require.Eventually(t, func() bool {
		result = s.Get()
		return result != nil
	}, time.Second, time.Millisecond, "expected a scanned result batch")

	assert.NotEmpty(t, result)
}

func TestEmptyResultsDropped(t *testing.T) {
	s := New(testHashWidth, testLabelWidth, func(hash, label []byte) string {
		return "" // never matches
	})
	defer s.Finish()

	s.Put(record(1, 10))
	s.Finish()

	assert.Nil(t, s.Get())
}

func TestMisalignedBatchDropped(t *testing.T) {
	s := New(testHashWidth, testLabelWidth, func(hash, label []byte) string {
		t.Fatal("lookup must not be called for a misaligned batch")
		return ""
	})
	defer s.Finish()

	s.Put([]byte{0x01, 0x02, 0x03}) // not a multiple of recordWidth
	s.Finish()

	assert.Nil(t, s.Get())
}

func TestFinishIsIdempotent(t *testing.T) {
	s := New(testHashWidth, testLabelWidth, func(hash, label []byte) string { return "" })
	s.Finish()
	assert.NotPanics(t, func() { s.Finish() })
}

func TestGetNonBlockingWhenEmpty(t *testing.T) {
	s := New(testHashWidth, testLabelWidth, func(hash, label []byte) string { return "" })
	defer s.Finish()

	done := make(chan struct{})
	go func() {
		s.Get()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Get() blocked on an empty queue")
	}
}
