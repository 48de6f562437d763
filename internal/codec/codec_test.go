package codec

import (
	"encoding/binary"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"restaurant-shm/internal/domain"
)

func testOrders(n int) []domain.Order {
	base := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	orders := make([]domain.Order, 0, n)
	for i := 1; i <= n; i++ {
		id, _ := domain.NewOrderID(1+i%3, int64(i))
		o := domain.Order{
			ID:         id,
			Table:      1 + i%20,
			Item:       "Mushroom Risotto",
			CreatedAt:  base.Add(time.Duration(i) * time.Millisecond),
			Status:     domain.StatusPending,
			ProducerID: 1 + i%3,
			ConsumerID: domain.UnassignedConsumer,
		}
		if i%4 == 0 {
			o.Status = domain.StatusInPreparation
			o.ConsumerID = 7
		}
		orders = append(orders, o)
	}
	return orders
}

func TestRoundTrip(t *testing.T) {
	c := New(DefaultCapacity)
	buf := make([]byte, DefaultCapacity)

	in := domain.Snapshot{
		Orders: testOrders(20),
		Stats:  domain.Statistics{TotalCreated: 20, TotalProcessed: 3, InQueue: 15},
	}
	require.NoError(t, c.WriteSnapshot(buf, in))

	out, err := c.DecodeStrict(buf)
	require.NoError(t, err)
	assert.Equal(t, in, out)
	assert.Equal(t, in, c.Decode(buf))
}

func TestDecodeBootstrap(t *testing.T) {
	c := New(DefaultCapacity)

	t.Run("zeroed buffer", func(t *testing.T) {
		s, err := c.DecodeStrict(make([]byte, DefaultCapacity))
		require.NoError(t, err)
		assert.Equal(t, domain.EmptySnapshot(), s)
	})

	t.Run("length beyond capacity", func(t *testing.T) {
		buf := make([]byte, DefaultCapacity)
		binary.LittleEndian.PutUint32(buf, DefaultCapacity+1)
		s, err := c.DecodeStrict(buf)
		require.NoError(t, err)
		assert.Empty(t, s.Orders)
		assert.Zero(t, s.Stats)
	})

	t.Run("short buffer", func(t *testing.T) {
		assert.Equal(t, domain.EmptySnapshot(), c.Decode([]byte{1, 2}))
	})
}

func TestDecodeCorrupt(t *testing.T) {
	c := New(DefaultCapacity)

	write := func(t *testing.T) []byte {
		buf := make([]byte, DefaultCapacity)
		require.NoError(t, c.WriteSnapshot(buf, domain.Snapshot{Orders: testOrders(3)}))
		return buf
	}

	tests := map[string]func(buf []byte){
		"flipped body byte": func(buf []byte) { buf[lengthSize+headerSize+2] ^= 0xff },
		"unknown version":   func(buf []byte) { buf[lengthSize] = 9 },
		"short payload":     func(buf []byte) { binary.LittleEndian.PutUint32(buf, 3) },
	}
	for name, corrupt := range tests {
		t.Run(name, func(t *testing.T) {
			buf := write(t)
			corrupt(buf)

			_, err := c.DecodeStrict(buf)
			assert.ErrorIs(t, err, ErrCorruptSnapshot)
			assert.Equal(t, domain.EmptySnapshot(), c.Decode(buf))
		})
	}
}

func TestStaleTailIgnored(t *testing.T) {
	c := New(DefaultCapacity)
	buf := make([]byte, DefaultCapacity)

	require.NoError(t, c.WriteSnapshot(buf, domain.Snapshot{Orders: testOrders(40)}))
	small := domain.Snapshot{Orders: testOrders(1), Stats: domain.Statistics{TotalCreated: 1}}
	require.NoError(t, c.WriteSnapshot(buf, small))

	out, err := c.DecodeStrict(buf)
	require.NoError(t, err)
	assert.Equal(t, small, out)
}

func TestEvictionKeepsNewestFifty(t *testing.T) {
	c := New(DefaultCapacity)
	buf := make([]byte, DefaultCapacity)

	orders := testOrders(200)
	stats := domain.Statistics{TotalCreated: 200, TotalProcessed: 10, InQueue: 150}

	full, err := c.encode(domain.Snapshot{Orders: orders, Stats: stats})
	require.NoError(t, err)
	require.Greater(t, len(full), DefaultCapacity, "fixture must overflow the buffer")

	require.NoError(t, c.WriteSnapshot(buf, domain.Snapshot{Orders: orders, Stats: stats}))
	out, err := c.DecodeStrict(buf)
	require.NoError(t, err)

	require.Len(t, out.Orders, DefaultRetain)
	assert.Equal(t, orders[len(orders)-DefaultRetain:], out.Orders)
	assert.Equal(t, stats, out.Stats)
	assert.Len(t, orders, 200, "caller slice must not be modified")
}

func TestNoEvictionWhenItFits(t *testing.T) {
	c := New(DefaultCapacity)
	buf := make([]byte, DefaultCapacity)

	orders := testOrders(60)
	require.NoError(t, c.WriteSnapshot(buf, domain.Snapshot{Orders: orders}))

	out, err := c.DecodeStrict(buf)
	require.NoError(t, err)
	assert.Len(t, out.Orders, 60)
}

func TestCapacityExceeded(t *testing.T) {
	c := New(256)
	buf := make([]byte, 256)
	binary.LittleEndian.PutUint32(buf, 0xdead)

	err := c.WriteSnapshot(buf, domain.Snapshot{Orders: testOrders(5)})
	assert.ErrorIs(t, err, ErrCapacityExceeded)
	assert.Equal(t, uint32(0xdead), binary.LittleEndian.Uint32(buf), "nothing may be written")
}

func TestWriteRejectsShortBuffer(t *testing.T) {
	c := New(DefaultCapacity)
	payload, err := c.Encode(domain.Snapshot{Orders: testOrders(2)})
	require.NoError(t, err)

	assert.ErrorIs(t, c.Write(make([]byte, 8), payload), ErrCapacityExceeded)
}
