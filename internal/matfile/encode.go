package matfile

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"fmt"
	"math"
)

const headerText = "MATLAB 5.0 MAT-file, Platform: GLNXA64, Created by: arctic-profile-etl"

// EncodeLevel5 serializes vars little-endian in the modern format. With
// compress set, every variable is wrapped in a zlib-compressed element.
func EncodeLevel5(vars []Variable, compress bool) ([]byte, error) {
	var out bytes.Buffer
	header := bytes.Repeat([]byte{' '}, 116)
	copy(header, headerText)
	out.Write(header)
	out.Write(make([]byte, 8))
	_ = binary.Write(&out, binary.LittleEndian, uint16(level5Version))
	out.WriteString("IM")

	for _, v := range vars {
		if v.Name == "" {
			return nil, fmt.Errorf("variable without a name")
		}
		elem, err := matrixElement(v)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", v.Name, err)
		}
		if !compress {
			out.Write(elem)
			continue
		}
		var z bytes.Buffer
		zw := zlib.NewWriter(&z)
		if _, err := zw.Write(elem); err != nil {
			return nil, err
		}
		if err := zw.Close(); err != nil {
			return nil, err
		}
		writeTag(&out, miCOMPRESSED, z.Len())
		out.Write(z.Bytes())
	}
	return out.Bytes(), nil
}

func matrixElement(v Variable) ([]byte, error) {
	var body bytes.Buffer

	flags := make([]byte, 8)
	binary.LittleEndian.PutUint32(flags, uint32(v.Class))
	writeElement(&body, miUINT32, flags)

	dims := v.Dims
	if len(dims) == 0 {
		dims = []int{1, v.Len()}
	}
	db := make([]byte, 4*len(dims))
	for i, d := range dims {
		binary.LittleEndian.PutUint32(db[4*i:], uint32(int32(d)))
	}
	writeElement(&body, miINT32, db)
	writeElement(&body, miINT8, []byte(v.Name))

	switch {
	case v.Class == ClassCell:
		for _, c := range v.Cells {
			sub, err := matrixElement(c)
			if err != nil {
				return nil, err
			}
			body.Write(sub)
		}
	case v.Class == ClassChar:
		b := make([]byte, 2*len(v.Real))
		for i, r := range v.Real {
			binary.LittleEndian.PutUint16(b[2*i:], uint16(r))
		}
		writeElement(&body, miUINT16, b)
	case v.Class.Numeric():
		b := make([]byte, 8*len(v.Real))
		for i, f := range v.Real {
			binary.LittleEndian.PutUint64(b[8*i:], math.Float64bits(f))
		}
		writeElement(&body, miDOUBLE, b)
	default:
		return nil, fmt.Errorf("cannot encode class %d", v.Class)
	}

	var out bytes.Buffer
	writeTag(&out, miMATRIX, body.Len())
	out.Write(body.Bytes())
	return out.Bytes(), nil
}

func writeTag(buf *bytes.Buffer, typ uint32, n int) {
	var tag [8]byte
	binary.LittleEndian.PutUint32(tag[0:], typ)
	binary.LittleEndian.PutUint32(tag[4:], uint32(n))
	buf.Write(tag[:])
}

func writeElement(buf *bytes.Buffer, typ uint32, data []byte) {
	writeTag(buf, typ, len(data))
	buf.Write(data)
	buf.Write(make([]byte, pad8(len(data))-len(data)))
}

// EncodeLevel4 serializes numeric and char variables little-endian in the
// legacy format. Cell arrays have no legacy representation.
func EncodeLevel4(vars []Variable) ([]byte, error) {
	var out bytes.Buffer
	for _, v := range vars {
		var mopt uint32
		switch {
		case v.Class == ClassChar:
			mopt = 1
		case v.Class.Numeric():
		default:
			return nil, fmt.Errorf("%s: class %d has no legacy encoding", v.Name, v.Class)
		}

		rows, cols := len(v.Real), 1
		if len(v.Dims) == 2 && v.Dims[0]*v.Dims[1] == len(v.Real) {
			rows, cols = v.Dims[0], v.Dims[1]
		}
		name := append([]byte(v.Name), 0)

		for _, x := range []uint32{mopt, uint32(rows), uint32(cols), 0, uint32(len(name))} {
			_ = binary.Write(&out, binary.LittleEndian, x)
		}
		out.Write(name)
		for _, f := range v.Real {
			_ = binary.Write(&out, binary.LittleEndian, f)
		}
	}
	return out.Bytes(), nil
}
