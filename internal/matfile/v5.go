package matfile

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"unicode/utf16"
	"unicode/utf8"
)

// Level 5 data element types.
const (
	miINT8       = 1
	miUINT8      = 2
	miINT16      = 3
	miUINT16     = 4
	miINT32      = 5
	miUINT32     = 6
	miSINGLE     = 7
	miDOUBLE     = 9
	miINT64      = 12
	miUINT64     = 13
	miMATRIX     = 14
	miCOMPRESSED = 15
	miUTF8       = 16
	miUTF16      = 17
	miUTF32      = 18
)

const (
	headerLen     = 128
	level5Version = 0x0100
	hdf5Version   = 0x0200
)

// Level5 decodes the modern (v5 to v7) serialization.
type Level5 struct{}

// Name implements Decoder.
func (Level5) Name() string { return "level5" }

// Decode implements Decoder.
func (Level5) Decode(data []byte) (*File, error) {
	if len(data) < headerLen {
		return nil, ErrNotMatFile
	}

	var order binary.ByteOrder
	switch string(data[126:128]) {
	case "IM":
		order = binary.LittleEndian
	case "MI":
		order = binary.BigEndian
	default:
		return nil, ErrNotMatFile
	}

	switch v := order.Uint16(data[124:126]); v {
	case level5Version:
	case hdf5Version:
		return nil, errors.New("v7.3 container: HDF5 payload is read by the hdf5 decoder")
	default:
		return nil, fmt.Errorf("unsupported version 0x%04x", v)
	}

	f := &File{Format: "level5", Vars: make(map[string]Variable)}
	if err := readElements(data[headerLen:], order, f); err != nil {
		return nil, err
	}
	return f, nil
}

func readElements(buf []byte, order binary.ByteOrder, f *File) error {
	r := &elementReader{buf: buf, order: order}
	for r.more() {
		typ, payload, err := r.next()
		if err != nil {
			return err
		}
		switch typ {
		case miCOMPRESSED:
			inner, err := inflate(payload)
			if err != nil {
				return err
			}
			if err := readElements(inner, order, f); err != nil {
				return err
			}
		case miMATRIX:
			v, err := parseMatrix(payload, order)
			if err != nil {
				return err
			}
			if v.Name != "" {
				f.Vars[v.Name] = v
			}
		}
	}
	return nil
}

func inflate(payload []byte) ([]byte, error) {
	zr, err := zlib.NewReader(bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("compressed element: %w", err)
	}
	defer zr.Close()

	out, err := io.ReadAll(zr)
	if err != nil {
		return nil, fmt.Errorf("compressed element: %w", err)
	}
	return out, nil
}

type elementReader struct {
	buf   []byte
	order binary.ByteOrder
}

// more reports whether a full tag remains. Trailing padding is ignored.
func (r *elementReader) more() bool { return len(r.buf) >= 8 }

func (r *elementReader) next() (uint32, []byte, error) {
	if len(r.buf) < 8 {
		return 0, nil, io.ErrUnexpectedEOF
	}
	first := r.order.Uint32(r.buf[0:4])

	// Small data element: size in the upper half, payload in bytes 4..8.
	if n := first >> 16; n != 0 {
		if n > 4 {
			return 0, nil, fmt.Errorf("small element of %d bytes", n)
		}
		payload := r.buf[4 : 4+n]
		r.buf = r.buf[8:]
		return first & 0xffff, payload, nil
	}

	typ := first
	n := int(r.order.Uint32(r.buf[4:8]))
	if n > len(r.buf)-8 {
		return 0, nil, fmt.Errorf("element type %d: %w", typ, io.ErrUnexpectedEOF)
	}
	payload := r.buf[8 : 8+n]

	adv := 8 + n
	if typ != miCOMPRESSED {
		adv = 8 + pad8(n)
	}
	r.buf = r.buf[min(adv, len(r.buf)):]
	return typ, payload, nil
}

func pad8(n int) int {
	return (n + 7) &^ 7
}

func parseMatrix(payload []byte, order binary.ByteOrder) (Variable, error) {
	var v Variable
	if len(payload) == 0 {
		return v, nil
	}
	r := &elementReader{buf: payload, order: order}

	typ, flags, err := r.next()
	if err != nil {
		return v, fmt.Errorf("array flags: %w", err)
	}
	if typ != miUINT32 || len(flags) < 4 {
		return v, fmt.Errorf("array flags: unexpected element type %d", typ)
	}
	v.Class = Class(order.Uint32(flags[0:4]) & 0xff)

	typ, dims, err := r.next()
	if err != nil {
		return v, fmt.Errorf("dimensions: %w", err)
	}
	dimVals, err := toFloats(typ, dims, order)
	if err != nil {
		return v, fmt.Errorf("dimensions: %w", err)
	}
	v.Dims = make([]int, len(dimVals))
	for i, d := range dimVals {
		if d < 0 || d > math.MaxInt32 || math.IsNaN(d) {
			return v, fmt.Errorf("dimensions: invalid extent %g", d)
		}
		v.Dims[i] = int(d)
	}

	_, name, err := r.next()
	if err != nil {
		return v, fmt.Errorf("array name: %w", err)
	}
	v.Name = string(name)

	switch {
	case v.Class == ClassCell:
		// Every element carries at least an 8-byte tag.
		n, err := elementCount(v.Dims, len(r.buf)/8)
		if err != nil {
			return v, fmt.Errorf("%s: cell: %w", v.Name, err)
		}
		v.Cells = make([]Variable, 0, n)
		for range n {
			typ, sub, err := r.next()
			if err != nil {
				return v, fmt.Errorf("%s: cell element: %w", v.Name, err)
			}
			if typ != miMATRIX {
				return v, fmt.Errorf("%s: cell element of type %d", v.Name, typ)
			}
			cell, err := parseMatrix(sub, order)
			if err != nil {
				return v, fmt.Errorf("%s: %w", v.Name, err)
			}
			v.Cells = append(v.Cells, cell)
		}
	case v.Class == ClassChar || v.Class.Numeric():
		if !r.more() {
			return v, nil
		}
		typ, data, err := r.next()
		if err != nil {
			return v, fmt.Errorf("%s: real part: %w", v.Name, err)
		}
		v.Real, err = toFloats(typ, data, order)
		if err != nil {
			return v, fmt.Errorf("%s: real part: %w", v.Name, err)
		}
	}
	// Structs, objects and sparse arrays keep only their header.
	return v, nil
}

func toFloats(typ uint32, b []byte, order binary.ByteOrder) ([]float64, error) {
	width, ok := elementWidth(typ)
	if !ok {
		return nil, fmt.Errorf("unsupported element type %d", typ)
	}

	switch typ {
	case miUTF8:
		out := make([]float64, 0, utf8.RuneCount(b))
		for _, r := range string(b) {
			out = append(out, float64(r))
		}
		return out, nil
	case miUTF16:
		units := make([]uint16, len(b)/2)
		for i := range units {
			units[i] = order.Uint16(b[2*i:])
		}
		runes := utf16.Decode(units)
		out := make([]float64, len(runes))
		for i, r := range runes {
			out[i] = float64(r)
		}
		return out, nil
	}

	n := len(b) / width
	out := make([]float64, n)
	for i := range n {
		p := b[i*width:]
		switch typ {
		case miINT8:
			out[i] = float64(int8(p[0]))
		case miUINT8:
			out[i] = float64(p[0])
		case miINT16:
			out[i] = float64(int16(order.Uint16(p)))
		case miUINT16:
			out[i] = float64(order.Uint16(p))
		case miINT32:
			out[i] = float64(int32(order.Uint32(p)))
		case miUINT32, miUTF32:
			out[i] = float64(order.Uint32(p))
		case miSINGLE:
			out[i] = float64(math.Float32frombits(order.Uint32(p)))
		case miDOUBLE:
			out[i] = math.Float64frombits(order.Uint64(p))
		case miINT64:
			out[i] = float64(int64(order.Uint64(p)))
		case miUINT64:
			out[i] = float64(order.Uint64(p))
		}
	}
	return out, nil
}

func elementWidth(typ uint32) (int, bool) {
	switch typ {
	case miINT8, miUINT8, miUTF8:
		return 1, true
	case miINT16, miUINT16, miUTF16:
		return 2, true
	case miINT32, miUINT32, miSINGLE, miUTF32:
		return 4, true
	case miDOUBLE, miINT64, miUINT64:
		return 8, true
	default:
		return 0, false
	}
}
