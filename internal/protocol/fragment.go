package protocol

import "time"

// DefaultReassemblyExpiry bounds how long a partial message waits for its
// missing fragments before being dropped.
const DefaultReassemblyExpiry = 5 * time.Second

// reassemblyKey identifies one in-flight multi-fragment message. The
// glasses scope fragment groups by sequence number and service.
type reassemblyKey struct {
	seq     byte
	service ServiceID
}

// partialMessage buffers the fragments received so far for one key.
type partialMessage struct {
	fragments map[byte][]byte
	total     byte
	started   time.Time
}

// Reassembler rebuilds messages split across multiple frames. Fragments may
// arrive in any order; a duplicate index overwrites the earlier copy.
// Partial messages that do not complete within the expiry window are
// discarded on the next Ingest call, so an interrupted transfer cannot pin
// memory indefinitely.
//
// Not safe for concurrent use; the session's notification path owns it.
type Reassembler struct {
	pending map[reassemblyKey]*partialMessage
	expiry  time.Duration

	now func() time.Time
}

// NewReassembler returns a Reassembler that drops partial messages after
// expiry. Non-positive values fall back to DefaultReassemblyExpiry.
func NewReassembler(expiry time.Duration) *Reassembler {
	if expiry <= 0 {
		expiry = DefaultReassemblyExpiry
	}
	return &Reassembler{
		pending: make(map[reassemblyKey]*partialMessage),
		expiry:  expiry,
		now:     time.Now,
	}
}

// Ingest feeds one parsed frame into the reassembler.
//
// Unfragmented frames pass straight through. Fragments are buffered until
// every index 1..fragTotal has arrived, then the concatenated message is
// returned as a single frame with the fragment counters collapsed to 1/1.
// Fragments with an index of zero or beyond fragTotal are dropped.
//
// Returns:
//   - The complete frame once all fragments have arrived
//   - nil while fragments are still outstanding or the fragment was invalid
func (r *Reassembler) Ingest(frame *Frame) *Frame {
	r.expire()

	if frame.FragTotal <= 1 {
		return frame
	}
	if frame.FragIndex == 0 || frame.FragIndex > frame.FragTotal {
		return nil
	}

	key := reassemblyKey{seq: frame.Sequence, service: frame.Service}
	partial, ok := r.pending[key]
	if !ok || partial.total != frame.FragTotal {
		// Either a fresh message or the sequence number was reused with a
		// different fragment count; the stale entry can never complete.
		partial = &partialMessage{
			fragments: make(map[byte][]byte, frame.FragTotal),
			total:     frame.FragTotal,
			started:   r.now(),
		}
		r.pending[key] = partial
	}

	// The transport reuses its notification buffer, so keep our own copy.
	buf := make([]byte, len(frame.Payload))
	copy(buf, frame.Payload)
	partial.fragments[frame.FragIndex] = buf

	if len(partial.fragments) < int(partial.total) {
		return nil
	}

	size := 0
	for _, fragment := range partial.fragments {
		size += len(fragment)
	}
	payload := make([]byte, 0, size)
	for i := byte(1); i <= partial.total; i++ {
		payload = append(payload, partial.fragments[i]...)
	}
	delete(r.pending, key)

	return &Frame{
		Type:      frame.Type,
		Sequence:  frame.Sequence,
		FragTotal: 1,
		FragIndex: 1,
		Service:   frame.Service,
		Payload:   payload,
	}
}

// Pending reports how many partial messages are currently buffered.
func (r *Reassembler) Pending() int {
	return len(r.pending)
}

// Reset drops every partial message, for use when the link goes down.
func (r *Reassembler) Reset() {
	clear(r.pending)
}

// expire drops partial messages older than the expiry window.
func (r *Reassembler) expire() {
	if len(r.pending) == 0 {
		return
	}
	cutoff := r.now().Add(-r.expiry)
	for key, partial := range r.pending {
		if partial.started.Before(cutoff) {
			delete(r.pending, key)
		}
	}
}
