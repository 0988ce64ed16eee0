package stream

import (
	"math"
	"math/bits"
)

const (
	// halveAt is the sample count at which a context's statistics are halved,
	// so the code order follows recent values.
	halveAt  = 64
	maxOrder = 62
)

// context is the adaptive state of one class of coded numbers.
type context struct {
	sum   uint64
	count uint64
	k     uint
}

func (c *context) update(v uint64) {
	if s := c.sum + v; s >= c.sum {
		c.sum = s
	} else {
		c.sum = math.MaxUint64
	}
	c.count++
	if c.count >= halveAt {
		c.sum >>= 1
		c.count >>= 1
	}
	mean := c.sum / c.count
	if mean == 0 {
		c.k = 0
		return
	}
	c.k = min(uint(bits.Len64(mean)-1), maxOrder)
}

// writeCode writes v with the exp-Golomb code of order c.k and adapts c.
func (b *bitWriter) writeCode(c *context, v uint64) {
	k := c.k
	q := v >> k
	// Elias gamma of q+1, which needs 65 bits when q is the maximum.
	x, carry := bits.Add64(q, 1, 0)
	if carry != 0 {
		b.writeBits(0, 64)
		b.writeBits(1, 1)
		b.writeBits(0, 64)
	} else {
		z := uint(bits.Len64(x) - 1)
		b.writeBits(0, z)
		b.writeBits(x, z+1)
	}
	b.writeBits(v, k)
	c.update(v)
}

// readCode reads one value coded by writeCode with the same context state.
func (b *bitReader) readCode(c *context) (uint64, error) {
	off := b.off
	k := c.k
	var z uint
	for {
		bit, err := b.readBit()
		if err != nil {
			return 0, err
		}
		if bit {
			break
		}
		z++
		if z > 64 {
			return 0, malformed(off, "code prefix longer than 64 bits")
		}
	}
	var q uint64
	if z == 64 {
		rest, err := b.readBits(64)
		if err != nil {
			return 0, err
		}
		if rest != 0 {
			return 0, malformed(off, "code overflows 64 bits")
		}
		q = math.MaxUint64
	} else {
		rest, err := b.readBits(z)
		if err != nil {
			return 0, err
		}
		q = (1<<z | rest) - 1
	}
	if q > math.MaxUint64>>k {
		return 0, malformed(off, "code overflows 64 bits")
	}
	low, err := b.readBits(k)
	if err != nil {
		return 0, err
	}
	v := q<<k | low
	c.update(v)
	return v, nil
}
