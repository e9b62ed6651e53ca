package graph

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/Frobeniusnorm/Flint-sub000/dtype"
	"github.com/Frobeniusnorm/Flint-sub000/ferr"
)

var tensorMagic = [4]byte{'F', 'L', 'N', 'T'}

// SerializeTensor encodes a single materialized tensor per spec.md §6:
// magic "FLNT", dtype tag, big-endian dim count, big-endian shape, then
// element data in row-major order at native endianness.
func SerializeTensor(shape Shape, t dtype.Type, data []byte) ([]byte, error) {
	buf := &bytes.Buffer{}
	buf.Write(tensorMagic[:])
	if err := buf.WriteByte(byte(t)); err != nil {
		return nil, ferr.Wrap(ferr.IoError, err, "writing dtype tag")
	}
	if err := binary.Write(buf, binary.BigEndian, int32(len(shape))); err != nil {
		return nil, ferr.Wrap(ferr.IoError, err, "writing dimension count")
	}
	for _, d := range shape {
		if err := binary.Write(buf, binary.BigEndian, d); err != nil {
			return nil, ferr.Wrap(ferr.IoError, err, "writing shape dimension")
		}
	}
	want := int(shape.NumElements()) * t.Size()
	if len(data) != want {
		return nil, ferr.New(ferr.InternalError, "tensor data length %d does not match shape/dtype expectation %d", len(data), want)
	}
	buf.Write(data)
	return buf.Bytes(), nil
}

// DeserializeTensor is the inverse of SerializeTensor; round-trips exactly.
func DeserializeTensor(b []byte) (Shape, dtype.Type, []byte, error) {
	r := bytes.NewReader(b)
	var magic [4]byte
	if _, err := r.Read(magic[:]); err != nil {
		return nil, 0, nil, ferr.Wrap(ferr.IoError, err, "reading magic")
	}
	if magic != tensorMagic {
		return nil, 0, nil, ferr.New(ferr.IoError, "invalid tensor magic %q", magic)
	}
	tb, err := r.ReadByte()
	if err != nil {
		return nil, 0, nil, ferr.Wrap(ferr.IoError, err, "reading dtype tag")
	}
	t := dtype.Type(tb)
	if t > dtype.F64 {
		return nil, 0, nil, ferr.New(ferr.WrongType, "unknown dtype tag %d", tb)
	}
	var ndim int32
	if err := binary.Read(r, binary.BigEndian, &ndim); err != nil {
		return nil, 0, nil, ferr.Wrap(ferr.IoError, err, "reading dimension count")
	}
	if ndim < 0 {
		return nil, 0, nil, ferr.New(ferr.IllegalDimensionality, "negative dimension count %d", ndim)
	}
	shape := make(Shape, ndim)
	for i := range shape {
		if err := binary.Read(r, binary.BigEndian, &shape[i]); err != nil {
			return nil, 0, nil, ferr.Wrap(ferr.IoError, err, "reading shape dimension %d", i)
		}
	}
	want := int(shape.NumElements()) * t.Size()
	data := make([]byte, want)
	n, err := r.Read(data)
	if err != nil && n != want {
		return nil, 0, nil, ferr.Wrap(ferr.IoError, err, "reading element data")
	}
	if n != want {
		return nil, 0, nil, fmt.Errorf("flint: truncated tensor data: got %d bytes, want %d", n, want)
	}
	return shape, t, data, nil
}
