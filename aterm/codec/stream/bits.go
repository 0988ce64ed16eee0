package stream

import (
	"bufio"
	"io"
)

// bitWriter packs bits most significant first.
type bitWriter struct {
	w   *bufio.Writer
	acc uint64
	n   uint // bits held in acc, always < 8 between calls
	err error
}

func newBitWriter(w io.Writer) *bitWriter { return &bitWriter{w: bufio.NewWriter(w)} }

func (b *bitWriter) writeBit(bit bool) {
	if bit {
		b.writeBits(1, 1)
	} else {
		b.writeBits(0, 1)
	}
}

// writeBits writes the low n bits of v, n <= 64.
func (b *bitWriter) writeBits(v uint64, n uint) {
	for n > 32 {
		n -= 32
		b.writeBits(v>>n, 32)
	}
	if n == 0 {
		return
	}
	b.acc = b.acc<<n | v&(1<<n-1)
	b.n += n
	for b.n >= 8 {
		b.n -= 8
		b.emit(byte(b.acc >> b.n))
	}
	b.acc &= 1<<b.n - 1
}

func (b *bitWriter) writeBytes(p []byte) {
	for _, c := range p {
		b.writeBits(uint64(c), 8)
	}
}

func (b *bitWriter) emit(c byte) {
	if b.err == nil {
		b.err = b.w.WriteByte(c)
	}
}

// flush pads the final byte with zeros and flushes the buffer.
func (b *bitWriter) flush() error {
	if b.n > 0 {
		b.emit(byte(b.acc << (8 - b.n)))
		b.acc, b.n = 0, 0
	}
	if b.err != nil {
		return b.err
	}
	return b.w.Flush()
}

// bitReader unpacks bits most significant first.
type bitReader struct {
	r   io.ByteReader
	acc byte
	n   uint // unread bits in acc
	off int  // bytes consumed
}

func newBitReader(r io.Reader) *bitReader {
	br, ok := r.(io.ByteReader)
	if !ok {
		br = bufio.NewReader(r)
	}
	return &bitReader{r: br}
}

func (b *bitReader) readBit() (bool, error) {
	if b.n == 0 {
		c, err := b.r.ReadByte()
		if err != nil {
			return false, truncated(b.off, err)
		}
		b.acc, b.n = c, 8
		b.off++
	}
	b.n--
	return b.acc>>b.n&1 == 1, nil
}

// readBits reads n <= 64 bits.
func (b *bitReader) readBits(n uint) (uint64, error) {
	var v uint64
	for range n {
		bit, err := b.readBit()
		if err != nil {
			return 0, err
		}
		v <<= 1
		if bit {
			v |= 1
		}
	}
	return v, nil
}

func (b *bitReader) readBytes(n int) ([]byte, error) {
	out := make([]byte, 0, min(n, 1<<16))
	for range n {
		v, err := b.readBits(8)
		if err != nil {
			return nil, err
		}
		out = append(out, byte(v))
	}
	return out, nil
}

// readRaw reads whole bytes; the reader must be byte aligned.
func (b *bitReader) readRaw(n int) ([]byte, error) {
	out := make([]byte, n)
	for i := range out {
		c, err := b.r.ReadByte()
		if err != nil {
			return nil, truncated(b.off, err)
		}
		out[i] = c
		b.off++
	}
	return out, nil
}
