// Package codec frames a store snapshot inside a fixed-size shared buffer.
//
// Buffer layout:
//
//	[0:4)     little-endian uint32 L, the payload length
//	[4:4+L)   payload
//	[4+L:]    stale bytes, never read
//
// Payload layout:
//
//	[0]       format version
//	[1:5)     little-endian CRC-32 (IEEE) of the body
//	[5:]      JSON body of domain.Snapshot
package codec

import (
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"

	"github.com/bytedance/sonic"

	"restaurant-shm/internal/domain"
)

const (
	DefaultCapacity = 20 * 1024
	DefaultMargin   = 100
	DefaultRetain   = 50

	Version = 1

	lengthSize = 4
	headerSize = 5
)

var (
	ErrCorruptSnapshot  = errors.New("corrupt snapshot")
	ErrCapacityExceeded = errors.New("snapshot exceeds buffer capacity")
)

// Codec is safe for concurrent use; it holds configuration only.
type Codec struct {
	Capacity int // total buffer size, length prefix included
	Margin   int // headroom below Capacity that triggers eviction
	Retain   int // orders kept when eviction triggers
}

func New(capacity int) *Codec {
	return &Codec{Capacity: capacity, Margin: DefaultMargin, Retain: DefaultRetain}
}

// Encode returns the payload for s. When the payload would leave less than
// Margin bytes of headroom, only the newest Retain orders are kept; the
// eviction is silent and the stats are left untouched.
func (c *Codec) Encode(s domain.Snapshot) ([]byte, error) {
	payload, err := c.encode(s)
	if err != nil {
		return nil, err
	}
	if len(payload) > c.Capacity-c.Margin && len(s.Orders) > c.Retain {
		kept := make([]domain.Order, c.Retain)
		copy(kept, s.Orders[len(s.Orders)-c.Retain:])
		s.Orders = kept
		if payload, err = c.encode(s); err != nil {
			return nil, err
		}
	}
	if lengthSize+len(payload) > c.Capacity {
		return nil, fmt.Errorf("%w: %d bytes, capacity %d", ErrCapacityExceeded, lengthSize+len(payload), c.Capacity)
	}
	return payload, nil
}

func (c *Codec) encode(s domain.Snapshot) ([]byte, error) {
	if s.Orders == nil {
		s.Orders = []domain.Order{}
	}
	body, err := sonic.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("marshal snapshot: %w", err)
	}
	payload := make([]byte, headerSize+len(body))
	payload[0] = Version
	binary.LittleEndian.PutUint32(payload[1:headerSize], crc32.ChecksumIEEE(body))
	copy(payload[headerSize:], body)
	return payload, nil
}

// Write frames payload into buf. The length is cleared first and set last so
// a writer that dies mid-copy leaves a frame that reads as empty or corrupt.
func (c *Codec) Write(buf, payload []byte) error {
	if len(buf) < lengthSize+len(payload) {
		return fmt.Errorf("%w: %d bytes, buffer %d", ErrCapacityExceeded, lengthSize+len(payload), len(buf))
	}
	binary.LittleEndian.PutUint32(buf[:lengthSize], 0)
	copy(buf[lengthSize:], payload)
	binary.LittleEndian.PutUint32(buf[:lengthSize], uint32(len(payload)))
	return nil
}

// WriteSnapshot encodes s and frames it into buf.
func (c *Codec) WriteSnapshot(buf []byte, s domain.Snapshot) error {
	payload, err := c.Encode(s)
	if err != nil {
		return err
	}
	return c.Write(buf, payload)
}

// DecodeStrict reads the frame in buf. An unset or out-of-range length is the
// bootstrap state and yields an empty snapshot; a payload that fails its
// version, checksum or JSON check yields ErrCorruptSnapshot.
func (c *Codec) DecodeStrict(buf []byte) (domain.Snapshot, error) {
	if len(buf) < lengthSize {
		return domain.EmptySnapshot(), nil
	}
	n := int(binary.LittleEndian.Uint32(buf[:lengthSize]))
	if n == 0 || n > len(buf)-lengthSize || n > c.Capacity-lengthSize {
		return domain.EmptySnapshot(), nil
	}
	payload := buf[lengthSize : lengthSize+n]
	if n < headerSize {
		return domain.EmptySnapshot(), fmt.Errorf("%w: payload of %d bytes", ErrCorruptSnapshot, n)
	}
	if payload[0] != Version {
		return domain.EmptySnapshot(), fmt.Errorf("%w: unknown version %d", ErrCorruptSnapshot, payload[0])
	}
	body := payload[headerSize:]
	if crc32.ChecksumIEEE(body) != binary.LittleEndian.Uint32(payload[1:headerSize]) {
		return domain.EmptySnapshot(), fmt.Errorf("%w: checksum mismatch", ErrCorruptSnapshot)
	}

	var s domain.Snapshot
	if err := sonic.Unmarshal(body, &s); err != nil {
		return domain.EmptySnapshot(), fmt.Errorf("%w: %v", ErrCorruptSnapshot, err)
	}
	if s.Orders == nil {
		s.Orders = []domain.Order{}
	}
	return s, nil
}

// Decode never fails: anything DecodeStrict rejects degrades to the empty
// snapshot.
func (c *Codec) Decode(buf []byte) domain.Snapshot {
	s, err := c.DecodeStrict(buf)
	if err != nil {
		return domain.EmptySnapshot()
	}
	return s
}
