package formats

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

const (
	maxElements  = 1 << 24
	maxStringLen = 1 << 16
)

// reader wraps a bytes.Reader and keeps the first error, so a parse
// routine can read a whole block and check once.
type reader struct {
	r   *bytes.Reader
	err error
}

func newReader(data []byte) *reader {
	return &reader{r: bytes.NewReader(data)}
}

func (r *reader) read(v any) {
	if r.err != nil {
		return
	}
	if err := binary.Read(r.r, binary.LittleEndian, v); err != nil {
		r.err = ErrTruncated
	}
}

func (r *reader) fail(err error) {
	if r.err == nil {
		r.err = err
	}
}

func (r *reader) u8() uint8 {
	var v uint8
	r.read(&v)
	return v
}

func (r *reader) boolean() bool {
	return r.u8() != 0
}

func (r *reader) u16() uint16 {
	var v uint16
	r.read(&v)
	return v
}

func (r *reader) u32() uint32 {
	var v uint32
	r.read(&v)
	return v
}

func (r *reader) i32() int32 {
	var v int32
	r.read(&v)
	return v
}

func (r *reader) f32() float32 {
	var v float32
	r.read(&v)
	return v
}

func (r *reader) vec3() [3]float32 {
	var v [3]float32
	r.read(&v)
	return v
}

func (r *reader) vec4() [4]float32 {
	var v [4]float32
	r.read(&v)
	return v
}

// count reads an element count and rejects values that cannot fit in the
// remaining data, given a minimum element size in bytes.
func (r *reader) count(field string, elemSize int) int {
	n := r.u32()
	if r.err != nil {
		return 0
	}
	if n > maxElements || int(n)*max(elemSize, 1) > r.r.Len() {
		r.fail(fmt.Errorf("%w: %s=%d", ErrInvalidCount, field, n))
		return 0
	}
	return int(n)
}

func (r *reader) bytes(n int) []byte {
	if r.err != nil {
		return nil
	}
	if n > r.r.Len() {
		r.fail(ErrTruncated)
		return nil
	}
	buf := make([]byte, n)
	r.r.Read(buf)
	return buf
}

func (r *reader) blob(field string) []byte {
	n := r.count(field, 1)
	return r.bytes(n)
}

func (r *reader) str() string {
	n := r.u32()
	if r.err != nil {
		return ""
	}
	if n > maxStringLen {
		r.fail(fmt.Errorf("%w: string length %d", ErrInvalidCount, n))
		return ""
	}
	return string(r.bytes(int(n)))
}

func (r *reader) strs(field string) []string {
	n := r.count(field, 4)
	if n == 0 {
		return nil
	}
	out := make([]string, n)
	for i := range out {
		out[i] = r.str()
	}
	return out
}

// header validates the magic and returns the file version.
func (r *reader) header(magic string) (Version, error) {
	if r.r.Len() < 6 {
		return Version{}, ErrTruncated
	}
	got := r.bytes(4)
	if string(got) != magic {
		return Version{}, fmt.Errorf("%w: expected %q, got %q", ErrInvalidMagic, magic, got)
	}
	v := Version{Major: r.u8(), Minor: r.u8()}
	if v.Major != 1 {
		return v, fmt.Errorf("%w: %s", ErrUnsupportedVersion, v)
	}
	return v, nil
}

// record reads a length-prefixed record and parses it with fn using a
// sub-reader. A failure inside the record does not affect the outer reader.
func (r *reader) record(fn func(sub *reader) error) error {
	data := r.blob("record")
	if r.err != nil {
		return r.err
	}
	sub := newReader(data)
	if err := fn(sub); err != nil {
		return err
	}
	return sub.err
}
