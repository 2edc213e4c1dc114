package vertex

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// ErrIndexWidth is returned for index widths other than 1, 2, 4 or 8.
var ErrIndexWidth = errors.New("unsupported index width")

// DecodeIndices decodes an index buffer of the given width in bytes.
// 64-bit indices are down-cast to 32 bits. Trailing bytes that do not form
// a whole index are ignored.
func DecodeIndices(buf []byte, width int) ([]uint32, error) {
	if !validWidth(width) {
		return nil, fmt.Errorf("%w: %d", ErrIndexWidth, width)
	}

	le := binary.LittleEndian
	out := make([]uint32, len(buf)/width)
	for i := range out {
		p := buf[i*width:]
		switch width {
		case 1:
			out[i] = uint32(p[0])
		case 2:
			out[i] = uint32(le.Uint16(p))
		case 4:
			out[i] = le.Uint32(p)
		case 8:
			out[i] = uint32(le.Uint64(p))
		}
	}
	return out, nil
}

// DecodeIndices16 decodes a 1- or 2-byte index buffer into 16-bit indices.
func DecodeIndices16(buf []byte, width int) ([]uint16, error) {
	if width != 1 && width != 2 {
		return nil, fmt.Errorf("%w: %d for 16-bit output", ErrIndexWidth, width)
	}

	out := make([]uint16, len(buf)/width)
	for i := range out {
		if width == 1 {
			out[i] = uint16(buf[i])
		} else {
			out[i] = binary.LittleEndian.Uint16(buf[i*2:])
		}
	}
	return out, nil
}

func validWidth(width int) bool {
	return width == 1 || width == 2 || width == 4 || width == 8
}
