// Package frame holds the latest-frame store: a single overwrite-on-write
// slot for the most recent encoded image plus a running count of accepted
// writes.
//
// There is no queue. A frame that is overwritten before anyone reads it is
// simply gone, which is what a live camera feed wants.
package frame

import (
	"sync"
	"time"
)

// ContentType is the media type frames are served as.
const ContentType = "image/jpeg"

// Frame is a decoded read of the store.
type Frame struct {
	// Data is the raw image.
	Data []byte

	// Seq is the accepted count at the time this frame was written.
	Seq uint64

	// Timestamp is the advisory client timestamp sent with the frame.
	Timestamp time.Time

	// ReceivedAt is when the store applied the write.
	ReceivedAt time.Time
}

// Status is a point-in-time view of the store for health reporting.
type Status struct {
	Accepted       uint64    `json:"accepted"`
	HasFrame       bool      `json:"has_frame"`
	LastTimestamp  time.Time `json:"last_timestamp,omitzero"`
	LastReceivedAt time.Time `json:"last_received_at,omitzero"`
}

// Store holds zero or one encoded frame and the accepted-write count.
// The zero value is not usable; call NewStore.
type Store struct {
	mu         sync.Mutex
	payload    string
	seq        uint64 // count when payload was written
	timestamp  time.Time
	receivedAt time.Time
	count      uint64

	observer Observer
	now      func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithObserver sets the progress observer. The default is Nop.
func WithObserver(o Observer) Option {
	return func(s *Store) {
		if o != nil {
			s.observer = o
		}
	}
}

// WithClock overrides the clock used for ReceivedAt.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// NewStore creates an empty store.
func NewStore(opts ...Option) *Store {
	s := &Store{
		observer: Nop,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Accept replaces the stored frame with payload and bumps the count.
// An empty payload returns ErrInvalidInput and leaves the store untouched.
// timestamp is advisory; writes are ordered by arrival, never by timestamp.
func (s *Store) Accept(payload string, timestamp time.Time) error {
	if payload == "" {
		return ErrInvalidInput
	}

	received := s.now()

	s.mu.Lock()
	s.count++
	s.payload = payload
	s.seq = s.count
	s.timestamp = timestamp
	s.receivedAt = received
	count := s.count
	s.mu.Unlock()

	s.observer.Observe(Observation{
		Count:      count,
		Timestamp:  timestamp,
		ReceivedAt: received,
		Size:       len(payload),
	})
	return nil
}

// ReadLatest returns the most recently accepted frame, decoded.
// It returns ErrAbsent if nothing has been accepted yet, and an error
// wrapping ErrDecode if the stored payload is not valid base64.
func (s *Store) ReadLatest() (Frame, error) {
	s.mu.Lock()
	payload := s.payload
	f := Frame{
		Seq:        s.seq,
		Timestamp:  s.timestamp,
		ReceivedAt: s.receivedAt,
	}
	s.mu.Unlock()

	if payload == "" {
		return Frame{}, ErrAbsent
	}

	data, err := DecodePayload(payload)
	if err != nil {
		return Frame{}, err
	}
	f.Data = data
	return f, nil
}

// Stats returns the number of accepted writes since the store was created.
func (s *Store) Stats() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.count
}

// Snapshot returns the current status without decoding the payload.
func (s *Store) Snapshot() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Status{
		Accepted:       s.count,
		HasFrame:       s.payload != "",
		LastTimestamp:  s.timestamp,
		LastReceivedAt: s.receivedAt,
	}
}
