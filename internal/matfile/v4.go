package matfile

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

const level4HeaderLen = 20

// Level4 decodes the legacy serialization: a sequence of 20-byte headers
// (type, mrows, ncols, imagf, namlen), each followed by the NUL-terminated
// name and column-major data.
type Level4 struct{}

// Name implements Decoder.
func (Level4) Name() string { return "level4" }

// Decode implements Decoder.
func (Level4) Decode(data []byte) (*File, error) {
	if len(data) < level4HeaderLen {
		return nil, ErrNotMatFile
	}

	f := &File{Format: "level4", Vars: make(map[string]Variable)}
	for off := 0; off < len(data); {
		v, n, err := readLevel4Var(data[off:])
		if err != nil {
			if off == 0 {
				return nil, err
			}
			return nil, fmt.Errorf("variable at offset %d: %w", off, err)
		}
		if v.Name != "" {
			f.Vars[v.Name] = v
		}
		off += n
	}
	return f, nil
}

type level4Type struct {
	order     binary.ByteOrder
	precision int
	text      bool
	sparse    bool
}

// parseLevel4Type decodes the MOPT field. M selects byte order (only IEEE
// little and big endian are supported), O is always zero, P the precision
// and T the matrix kind.
func parseLevel4Type(mopt uint32) (level4Type, bool) {
	if mopt > 4052 {
		return level4Type{}, false
	}
	m, o, p, t := mopt/1000, (mopt/100)%10, (mopt/10)%10, mopt%10
	if o != 0 || p > 5 || t > 2 {
		return level4Type{}, false
	}
	var lt level4Type
	switch m {
	case 0:
		lt.order = binary.LittleEndian
	case 1:
		lt.order = binary.BigEndian
	default:
		return level4Type{}, false
	}
	lt.precision = int(p)
	lt.text = t == 1
	lt.sparse = t == 2
	return lt, true
}

var level4Widths = [...]int{8, 4, 4, 2, 2, 1}

func readLevel4Var(b []byte) (Variable, int, error) {
	if len(b) < level4HeaderLen {
		return Variable{}, 0, ErrNotMatFile
	}

	// The header is written in the machine order M describes, so try both.
	var lt level4Type
	ok := false
	for _, order := range []binary.ByteOrder{binary.LittleEndian, binary.BigEndian} {
		if cand, valid := parseLevel4Type(order.Uint32(b[0:4])); valid && cand.order == order {
			lt, ok = cand, true
			break
		}
	}
	if !ok {
		return Variable{}, 0, ErrNotMatFile
	}

	mrows := int(int32(lt.order.Uint32(b[4:8])))
	ncols := int(int32(lt.order.Uint32(b[8:12])))
	imagf := lt.order.Uint32(b[12:16])
	namlen := int(int32(lt.order.Uint32(b[16:20])))
	if mrows < 0 || ncols < 0 || namlen < 1 || imagf > 1 {
		return Variable{}, 0, ErrNotMatFile
	}

	off := level4HeaderLen
	if namlen > len(b)-off {
		return Variable{}, 0, errors.New("truncated name")
	}
	name := b[off : off+namlen]
	if i := bytes.IndexByte(name, 0); i >= 0 {
		name = name[:i]
	}
	off += namlen

	width := level4Widths[lt.precision]
	parts := 1
	if imagf == 1 {
		parts = 2
	}
	count, err := elementCount([]int{mrows, ncols}, (len(b)-off)/(width*parts))
	if err != nil {
		return Variable{}, 0, fmt.Errorf("truncated data: %w", err)
	}
	need := count * width * parts

	v := Variable{Name: string(name), Dims: []int{mrows, ncols}}
	switch {
	case lt.sparse:
		v.Class = ClassSparse
	case lt.text:
		v.Class = ClassChar
	default:
		v.Class = ClassDouble
	}
	if !lt.sparse {
		v.Real = level4Floats(b[off:off+count*width], lt, count)
	}
	return v, off + need, nil
}

func level4Floats(b []byte, lt level4Type, count int) []float64 {
	width := level4Widths[lt.precision]
	out := make([]float64, count)
	for i := range count {
		p := b[i*width:]
		switch lt.precision {
		case 0:
			out[i] = math.Float64frombits(lt.order.Uint64(p))
		case 1:
			out[i] = float64(math.Float32frombits(lt.order.Uint32(p)))
		case 2:
			out[i] = float64(int32(lt.order.Uint32(p)))
		case 3:
			out[i] = float64(int16(lt.order.Uint16(p)))
		case 4:
			out[i] = float64(lt.order.Uint16(p))
		case 5:
			out[i] = float64(p[0])
		}
	}
	return out
}

