// Package matfile reads the MATLAB containers ITP "cormat" profiles are
// distributed in. Three serializer generations are in circulation, so
// decoding goes through an ordered Chain: the HDF5-based v7.3 decoder first,
// then Level 5, then the legacy Level 4 decoder. The first decoder to
// succeed wins.
package matfile

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotMatFile means the data is not in the format a decoder understands.
var ErrNotMatFile = errors.New("not a MAT-file")

// Class is the MATLAB array class.
type Class uint8

const (
	ClassCell   Class = 1
	ClassStruct Class = 2
	ClassObject Class = 3
	ClassChar   Class = 4
	ClassSparse Class = 5
	ClassDouble Class = 6
	ClassSingle Class = 7
	ClassInt8   Class = 8
	ClassUint8  Class = 9
	ClassInt16  Class = 10
	ClassUint16 Class = 11
	ClassInt32  Class = 12
	ClassUint32 Class = 13
	ClassInt64  Class = 14
	ClassUint64 Class = 15
)

// Numeric reports whether the class holds numbers.
func (c Class) Numeric() bool { return c >= ClassDouble && c <= ClassUint64 }

// Variable is one named array. Numeric and char data live in Real in
// column-major order; char data holds code points. Cell arrays hold their
// elements in Cells.
type Variable struct {
	Name  string
	Class Class
	Dims  []int
	Real  []float64
	Cells []Variable
}

// Len returns the number of elements.
func (v Variable) Len() int {
	if v.Class == ClassCell {
		return len(v.Cells)
	}
	return len(v.Real)
}

// unwrap returns the sole element of a length-1 cell array, or v itself.
func (v Variable) unwrap() Variable {
	for v.Class == ClassCell && len(v.Cells) == 1 {
		v = v.Cells[0]
	}
	return v
}

// Text returns a char array as a string, unwrapping a length-1 cell array.
// Multi-row char arrays return their first row.
func (v Variable) Text() (string, bool) {
	v = v.unwrap()
	if v.Class != ClassChar {
		return "", false
	}
	rows := 1
	if len(v.Dims) > 0 && v.Dims[0] > 0 {
		rows = v.Dims[0]
	}
	var b strings.Builder
	for i := 0; i < len(v.Real); i += rows {
		b.WriteRune(rune(v.Real[i]))
	}
	return b.String(), true
}

// Scalar returns the first element of a numeric array, unwrapping a
// length-1 cell array.
func (v Variable) Scalar() (float64, bool) {
	v = v.unwrap()
	if !v.Class.Numeric() || len(v.Real) == 0 {
		return 0, false
	}
	return v.Real[0], true
}

// Floats returns the numeric data flattened to one sequence.
func (v Variable) Floats() ([]float64, bool) {
	v = v.unwrap()
	if !v.Class.Numeric() {
		return nil, false
	}
	return v.Real, true
}

// File is a decoded container.
type File struct {
	Format string
	Vars   map[string]Variable
}

// Get looks up a variable by name.
func (f *File) Get(name string) (Variable, bool) {
	v, ok := f.Vars[name]
	return v, ok
}

// Has reports whether every named variable is present.
func (f *File) Has(names ...string) bool {
	for _, n := range names {
		if _, ok := f.Vars[n]; !ok {
			return false
		}
	}
	return true
}

// Decoder turns raw container bytes into a File.
type Decoder interface {
	Name() string
	Decode(data []byte) (*File, error)
}

// Chain tries decoders in order; the first success wins.
type Chain []Decoder

// DefaultChain is v7.3, then Level 5, then Level 4.
func DefaultChain() Chain {
	return Chain{HDF5{}, Level5{}, Level4{}}
}

// Decode returns the first successful decoding, or every decoder's error.
func (c Chain) Decode(data []byte) (*File, error) {
	if len(c) == 0 {
		return nil, errors.New("matfile: empty decoder chain")
	}
	errs := make([]error, 0, len(c))
	for _, d := range c {
		f, err := d.Decode(data)
		if err == nil {
			return f, nil
		}
		errs = append(errs, fmt.Errorf("%s: %w", d.Name(), err))
	}
	return nil, errors.Join(errs...)
}

// Decode decodes data with the default chain.
func Decode(data []byte) (*File, error) {
	return DefaultChain().Decode(data)
}

// Float64s builds a double array. With no dims it is a column vector.
func Float64s(name string, values []float64, dims ...int) Variable {
	if len(dims) == 0 {
		dims = []int{len(values), 1}
	}
	return Variable{Name: name, Class: ClassDouble, Dims: dims, Real: values}
}

// Scalar builds a 1x1 double.
func Scalar(name string, v float64) Variable {
	return Variable{Name: name, Class: ClassDouble, Dims: []int{1, 1}, Real: []float64{v}}
}

// Char builds a 1xN char array.
func Char(name, text string) Variable {
	runes := []rune(text)
	vals := make([]float64, len(runes))
	for i, r := range runes {
		vals[i] = float64(r)
	}
	return Variable{Name: name, Class: ClassChar, Dims: []int{1, len(runes)}, Real: vals}
}

// Cell builds a 1xN cell array.
func Cell(name string, elems ...Variable) Variable {
	return Variable{Name: name, Class: ClassCell, Dims: []int{1, len(elems)}, Cells: elems}
}

// errDimensions means a header declares more elements than the data can hold.
var errDimensions = errors.New("dimensions exceed payload")

// elementCount multiplies dims, failing on a negative dimension or when the
// product would exceed limit. The product never overflows.
func elementCount(dims []int, limit int) (int, error) {
	if len(dims) == 0 {
		return 0, nil
	}
	for _, d := range dims {
		if d < 0 {
			return 0, fmt.Errorf("negative dimension %d", d)
		}
		if d == 0 {
			return 0, nil
		}
	}
	n := 1
	for _, d := range dims {
		if limit <= 0 || d > limit/n {
			return 0, errDimensions
		}
		n *= d
	}
	return n, nil
}
