package anim

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/Faultbox/rigkit/pkg/formats"
	gomath "github.com/Faultbox/rigkit/pkg/math"
)

func packed(q gomath.Quat) [3]uint16 {
	x, y, z := gomath.PackQuat48(q)
	return [3]uint16{x, y, z}
}

func TestTrackDecoder_Vector(t *testing.T) {
	dec := NewTrackDecoder(nil)

	tests := []struct {
		name    string
		payload formats.TrackPayload
		want    formats.TrackTag
	}{
		{"constant", formats.TrackPayload{Tag: formats.TrackConstant, Vectors: [][3]float32{{1, 2, 3}}}, formats.TrackConstant},
		{"dense", formats.TrackPayload{Tag: formats.TrackDense, Vectors: [][3]float32{{0, 0, 0}, {1, 1, 1}}}, formats.TrackDense},
		{"sparse16", formats.TrackPayload{Tag: formats.TrackSparse16, Frames16: []uint16{0, 9}, Vectors: [][3]float32{{0, 0, 0}, {1, 1, 1}}}, formats.TrackSparse16},
		{"sparse8", formats.TrackPayload{Tag: formats.TrackSparse8, Frames8: []uint8{0, 9}, Vectors: [][3]float32{{0, 0, 0}, {1, 1, 1}}}, formats.TrackSparse8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			track := dec.Vector(tt.payload)
			if track == nil {
				t.Fatal("expected a track")
			}
			if track.Encoding() != tt.want {
				t.Errorf("Encoding() = %v, want %v", track.Encoding(), tt.want)
			}
			if track.Len() != len(tt.payload.Vectors) {
				t.Errorf("Len() = %d, want %d", track.Len(), len(tt.payload.Vectors))
			}
		})
	}
}

func TestTrackDecoder_Rotation(t *testing.T) {
	q0 := gomath.QuatFromEuler(0.2, 0.4, -0.1)
	q1 := gomath.QuatFromEuler(-1.0, 0.1, 0.5)

	track := NewTrackDecoder(nil).Rotation(formats.TrackPayload{
		Tag:       formats.TrackDense,
		Rotations: [][3]uint16{packed(q0), packed(q1)},
	})
	if track == nil {
		t.Fatal("expected a track")
	}
	if got := track.Evaluate(0); !got.ApproxEqual(q0, 1e-4) {
		t.Errorf("frame 0 = %+v, want %+v", got, q0)
	}
	if got := track.Evaluate(1); !got.ApproxEqual(q1, 1e-4) {
		t.Errorf("frame 1 = %+v, want %+v", got, q1)
	}
}

func TestTrackDecoder_Bool(t *testing.T) {
	track := NewTrackDecoder(nil).Bool(formats.TrackPayload{
		Tag:   formats.TrackDense,
		Bools: []bool{false, true},
	})
	if track == nil {
		t.Fatal("expected a track")
	}
	if track.Evaluate(0) || !track.Evaluate(1) || track.Evaluate(2) {
		t.Error("dense bool track decoded wrong")
	}
}

func TestTrackDecoder_SkipsUnusable(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	dec := NewTrackDecoder(zap.New(core))

	if track := dec.Vector(formats.TrackPayload{Tag: formats.TrackNone}); track != nil {
		t.Error("absent channel should decode to nil")
	}
	if track := dec.Vector(formats.TrackPayload{Tag: formats.TrackDense}); track != nil {
		t.Error("empty channel should decode to nil")
	}
	if logs.Len() != 0 {
		t.Errorf("absent and empty channels should not warn, got %d entries", logs.Len())
	}

	if track := dec.Rotation(formats.TrackPayload{Tag: formats.TrackTag(9), Raw: []byte{1, 2, 3}}); track != nil {
		t.Error("unknown encoding should decode to nil")
	}
	if logs.FilterMessage("unknown track encoding, channel skipped").Len() != 1 {
		t.Errorf("expected one unknown-encoding warning, got %v", logs.All())
	}
}

func TestTrackDecoder_SparseMismatch(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	dec := NewTrackDecoder(zap.New(core)).With(zap.String("bone", "arm"))

	track := dec.Vector(formats.TrackPayload{
		Tag:     formats.TrackSparse8,
		Frames8: []uint8{0, 4, 8},
		Vectors: [][3]float32{{0, 0, 0}, {4, 4, 4}},
	})
	if track == nil {
		t.Fatal("expected a track")
	}
	if track.Len() != 2 {
		t.Errorf("Len() = %d, want 2", track.Len())
	}
	if got := track.Evaluate(100); got != vec(4, 4, 4) {
		t.Errorf("last usable key = %+v", got)
	}

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("expected one warning, got %d", len(entries))
	}
	if entries[0].ContextMap()["bone"] != "arm" {
		t.Errorf("warning missing bone field: %v", entries[0].ContextMap())
	}
}
