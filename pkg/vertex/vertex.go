// Package vertex decodes typed, strided vertex streams and variable-width
// index buffers into flat numeric arrays.
package vertex

import (
	"encoding/binary"
	"fmt"
	"math"
)

// AttributeType is the element type tag of a vertex attribute.
type AttributeType uint32

const (
	TypeRGBA8Unorm  AttributeType = 20 // 4 x u8, normalized to [0,1]
	TypeRGBA8Uint   AttributeType = 22 // 4 x u8
	TypeR32Uint     AttributeType = 36 // 1 x u32
	TypeR32Int      AttributeType = 37 // 1 x i32
	TypeRGBA16Unorm AttributeType = 39 // 4 x u16, normalized to [0,1]
	TypeRGBA16Float AttributeType = 43 // 4 x half float
	TypeRG32Float   AttributeType = 48 // 2 x float32
	TypeRGB32Float  AttributeType = 51 // 3 x float32
	TypeRGBA32Float AttributeType = 54 // 4 x float32
)

// UnknownComponents is the component count reported for unknown types.
const UnknownComponents = 4

// Known reports whether t is a supported element type.
func (t AttributeType) Known() bool {
	return t.Size() != 0
}

// Size returns the natural size of one element in bytes, or 0 if unknown.
func (t AttributeType) Size() int {
	switch t {
	case TypeRGBA8Unorm, TypeRGBA8Uint, TypeR32Uint, TypeR32Int:
		return 4
	case TypeRGBA16Unorm, TypeRGBA16Float, TypeRG32Float:
		return 8
	case TypeRGB32Float:
		return 12
	case TypeRGBA32Float:
		return 16
	default:
		return 0
	}
}

// Components returns the number of numeric components per element.
func (t AttributeType) Components() int {
	switch t {
	case TypeR32Uint, TypeR32Int:
		return 1
	case TypeRG32Float:
		return 2
	case TypeRGB32Float:
		return 3
	default:
		return UnknownComponents
	}
}

// String returns a human-readable type name.
func (t AttributeType) String() string {
	switch t {
	case TypeRGBA8Unorm:
		return "RGBA8Unorm"
	case TypeRGBA8Uint:
		return "RGBA8Uint"
	case TypeR32Uint:
		return "R32Uint"
	case TypeR32Int:
		return "R32Int"
	case TypeRGBA16Unorm:
		return "RGBA16Unorm"
	case TypeRGBA16Float:
		return "RGBA16Float"
	case TypeRG32Float:
		return "RG32Float"
	case TypeRGB32Float:
		return "RGB32Float"
	case TypeRGBA32Float:
		return "RGBA32Float"
	default:
		return fmt.Sprintf("Unknown(%d)", uint32(t))
	}
}

// DecodeAttribute decodes count elements of type t starting at offset, one
// element every stride bytes. A zero stride means tightly packed elements.
//
// The result always has count*t.Components() values. Elements that fall
// outside buf are left zero. An unknown type yields a zero-filled array of
// count*UnknownComponents values and ok == false.
func DecodeAttribute(buf []byte, t AttributeType, offset, stride, count int) (values []float32, ok bool) {
	comps := t.Components()
	values = make([]float32, count*comps)
	size := t.Size()
	if size == 0 {
		return values, false
	}
	if stride == 0 {
		stride = size
	}

	for i := 0; i < count; i++ {
		base := offset + i*stride
		if base < 0 || base+size > len(buf) {
			continue
		}
		decodeElement(buf[base:base+size], t, values[i*comps:(i+1)*comps])
	}
	return values, true
}

// decodeElement decodes one element from src into dst.
func decodeElement(src []byte, t AttributeType, dst []float32) {
	le := binary.LittleEndian
	switch t {
	case TypeRGBA8Unorm:
		for j := range dst {
			dst[j] = float32(src[j]) / 255
		}
	case TypeRGBA8Uint:
		for j := range dst {
			dst[j] = float32(src[j])
		}
	case TypeR32Uint:
		dst[0] = float32(le.Uint32(src))
	case TypeR32Int:
		dst[0] = float32(int32(le.Uint32(src)))
	case TypeRGBA16Unorm:
		for j := range dst {
			dst[j] = float32(le.Uint16(src[j*2:])) / 65535
		}
	case TypeRGBA16Float:
		for j := range dst {
			dst[j] = HalfToFloat32(le.Uint16(src[j*2:]))
		}
	case TypeRG32Float, TypeRGB32Float, TypeRGBA32Float:
		for j := range dst {
			dst[j] = math.Float32frombits(le.Uint32(src[j*4:]))
		}
	}
}
