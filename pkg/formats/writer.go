package formats

import (
	"bytes"
	"encoding/binary"
)

// writer is the encoding counterpart of reader.
type writer struct {
	buf bytes.Buffer
}

func (w *writer) write(v any) {
	// bytes.Buffer writes cannot fail.
	_ = binary.Write(&w.buf, binary.LittleEndian, v)
}

func (w *writer) u8(v uint8)        { w.buf.WriteByte(v) }
func (w *writer) u16(v uint16)      { w.write(v) }
func (w *writer) u32(v uint32)      { w.write(v) }
func (w *writer) i32(v int32)       { w.write(v) }
func (w *writer) f32(v float32)     { w.write(v) }
func (w *writer) vec3(v [3]float32) { w.write(v) }
func (w *writer) vec4(v [4]float32) { w.write(v) }

func (w *writer) boolean(v bool) {
	if v {
		w.u8(1)
	} else {
		w.u8(0)
	}
}

func (w *writer) str(s string) {
	w.u32(uint32(len(s)))
	w.buf.WriteString(s)
}

func (w *writer) strs(list []string) {
	w.u32(uint32(len(list)))
	for _, s := range list {
		w.str(s)
	}
}

func (w *writer) blob(b []byte) {
	w.u32(uint32(len(b)))
	w.buf.Write(b)
}

func (w *writer) header(magic string, v Version) {
	w.buf.WriteString(magic)
	w.u8(v.Major)
	w.u8(v.Minor)
}

// record writes the output of fn as a length-prefixed block.
func (w *writer) record(fn func(sub *writer)) {
	var sub writer
	fn(&sub)
	w.blob(sub.buf.Bytes())
}

func (w *writer) bytes() []byte {
	return w.buf.Bytes()
}

func versionOr(v Version) Version {
	if v.Major == 0 {
		return CurrentVersion
	}
	return v
}
