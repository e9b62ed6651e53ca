package graph

import (
	"bytes"
	"encoding/binary"
	"math"
	"testing"

	"github.com/Frobeniusnorm/Flint-sub000/dtype"
)

func TestTensorRoundTrip(t *testing.T) {
	shape := Shape{2, 3}
	vals := []float32{1, 2, 3, 4, 5, 6}
	data := make([]byte, 4*len(vals))
	for i, v := range vals {
		binary.LittleEndian.PutUint32(data[i*4:], math.Float32bits(v))
	}

	encoded, err := SerializeTensor(shape, dtype.F32, data)
	if err != nil {
		t.Fatalf("SerializeTensor failed: %v", err)
	}
	if !bytes.HasPrefix(encoded, []byte("FLNT")) {
		t.Fatalf("missing magic prefix, got %x", encoded[:4])
	}

	gotShape, gotType, gotData, err := DeserializeTensor(encoded)
	if err != nil {
		t.Fatalf("DeserializeTensor failed: %v", err)
	}
	if !gotShape.Equal(shape) {
		t.Errorf("shape = %v, want %v", gotShape, shape)
	}
	if gotType != dtype.F32 {
		t.Errorf("dtype = %v, want f32", gotType)
	}
	if !bytes.Equal(gotData, data) {
		t.Errorf("data mismatch after round-trip")
	}
}

func TestDeserializeRejectsBadMagic(t *testing.T) {
	bad := []byte("XXXX\x00\x00\x00\x00\x00")
	if _, _, _, err := DeserializeTensor(bad); err == nil {
		t.Error("expected error for bad magic")
	}
}
