package frame

import (
	"bytes"
	"crypto/rand"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadLatestBeforeAccept(t *testing.T) {
	s := NewStore()

	_, err := s.ReadLatest()
	require.ErrorIs(t, err, ErrAbsent)
	assert.Equal(t, uint64(0), s.Stats())
	assert.False(t, s.Snapshot().HasFrame)
}

func TestAcceptEmptyPayload(t *testing.T) {
	var observed atomic.Int32
	s := NewStore(WithObserver(ObserverFunc(func(Observation) { observed.Add(1) })))

	require.NoError(t, s.Accept("data:image/jpeg;base64,AAAA", time.UnixMilli(1)))

	err := s.Accept("", time.UnixMilli(2))
	require.ErrorIs(t, err, ErrInvalidInput)

	assert.Equal(t, uint64(1), s.Stats(), "failed accept must not count")
	assert.Equal(t, int32(1), observed.Load(), "failed accept must not be observed")

	f, err := s.ReadLatest()
	require.NoError(t, err)
	assert.Equal(t, []byte{0, 0, 0}, f.Data)
	assert.Equal(t, time.UnixMilli(1), f.Timestamp)
}

func TestAcceptDataURIScenario(t *testing.T) {
	s := NewStore()

	require.NoError(t, s.Accept("data:image/jpeg;base64,AAAA", time.UnixMilli(1700000000000)))

	f, err := s.ReadLatest()
	require.NoError(t, err)
	assert.Equal(t, []byte{0x00, 0x00, 0x00}, f.Data)
	assert.Equal(t, uint64(1), f.Seq)
	assert.Equal(t, "image/jpeg", ContentType)
}

func TestLastWriteWins(t *testing.T) {
	s := NewStore()

	var last []byte
	for i := 0; i < 50; i++ {
		last = []byte(fmt.Sprintf("frame-%02d", i))
		// Timestamps run backwards: ordering is by arrival only.
		ts := time.UnixMilli(int64(1000 - i))
		require.NoError(t, s.Accept(EncodeDataURI("image/jpeg", last), ts))
	}

	f, err := s.ReadLatest()
	require.NoError(t, err)
	assert.Equal(t, last, f.Data)
	assert.Equal(t, uint64(50), f.Seq)
	assert.Equal(t, uint64(50), s.Stats())
}

func TestRoundTripBinary(t *testing.T) {
	img := make([]byte, 64*1024)
	_, err := rand.Read(img)
	require.NoError(t, err)

	s := NewStore()
	require.NoError(t, s.Accept(EncodeDataURI("image/png", img), time.Time{}))

	f, err := s.ReadLatest()
	require.NoError(t, err)
	assert.True(t, bytes.Equal(img, f.Data), "decoded frame differs from original")
}

func TestReadLatestDecodeError(t *testing.T) {
	s := NewStore()
	require.NoError(t, s.Accept("data:image/jpeg;base64,!!!not-base64!!!", time.Time{}))

	_, err := s.ReadLatest()
	require.ErrorIs(t, err, ErrDecode)
	assert.NotErrorIs(t, err, ErrAbsent)

	// The bad frame still counts as accepted.
	assert.Equal(t, uint64(1), s.Stats())
}

func TestProgressObservedEveryTenth(t *testing.T) {
	var counts []uint64
	var mu sync.Mutex
	obs := EveryN(10, ObserverFunc(func(o Observation) {
		mu.Lock()
		counts = append(counts, o.Count)
		mu.Unlock()
	}))

	s := NewStore(WithObserver(obs))
	for i := 0; i < 25; i++ {
		require.NoError(t, s.Accept("AAAA", time.Now()))
	}

	assert.Equal(t, uint64(25), s.Stats())
	assert.Equal(t, []uint64{10, 20}, counts)
}

func TestConcurrentAccept(t *testing.T) {
	const writers = 64

	s := NewStore()
	submitted := make(map[string]bool, writers)
	payloads := make([]string, writers)
	for i := range payloads {
		// Distinct lengths make a torn write easy to spot.
		data := bytes.Repeat([]byte{byte(i)}, 100+i*7)
		payloads[i] = EncodeDataURI("image/jpeg", data)
		submitted[string(data)] = true
	}

	var wg sync.WaitGroup
	start := make(chan struct{})
	for _, p := range payloads {
		wg.Add(1)
		go func(p string) {
			defer wg.Done()
			<-start
			_ = s.Accept(p, time.Now())
			_, _ = s.ReadLatest()
		}(p)
	}
	close(start)
	wg.Wait()

	f, err := s.ReadLatest()
	require.NoError(t, err)
	assert.True(t, submitted[string(f.Data)], "latest frame is not one of the submitted payloads")
	assert.Equal(t, uint64(writers), s.Stats())
	assert.LessOrEqual(t, f.Seq, uint64(writers))
}

func TestSnapshot(t *testing.T) {
	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	s := NewStore(WithClock(func() time.Time { return fixed }))

	ts := time.UnixMilli(1700000000123)
	require.NoError(t, s.Accept("AAAA", ts))

	st := s.Snapshot()
	assert.Equal(t, Status{
		Accepted:       1,
		HasFrame:       true,
		LastTimestamp:  ts,
		LastReceivedAt: fixed,
	}, st)
}
