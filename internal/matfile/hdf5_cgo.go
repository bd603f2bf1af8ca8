//go:build cgo

package matfile

import (
	"fmt"
	"os"
	"strings"

	"gonum.org/v1/hdf5"
)

// decodeHDF5 spools data to a temporary file, since libhdf5 opens by path.
func decodeHDF5(data []byte) (*File, error) {
	tmp, err := os.CreateTemp("", "cormat-*.mat")
	if err != nil {
		return nil, err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return nil, err
	}
	if err := tmp.Close(); err != nil {
		return nil, err
	}
	return readHDF5(tmp.Name())
}

func readHDF5(path string) (*File, error) {
	h, err := hdf5.OpenFile(path, hdf5.F_ACC_RDONLY)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	defer h.Close()

	n, err := h.NumObjects()
	if err != nil {
		return nil, fmt.Errorf("list root group: %w", err)
	}

	f := &File{Format: "hdf5", Vars: make(map[string]Variable)}
	for i := range n {
		name, err := h.ObjectNameByIndex(i)
		if err != nil {
			return nil, fmt.Errorf("object %d: %w", i, err)
		}
		typ, err := h.ObjectTypeByIndex(i)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		// MATLAB keeps cell contents and bookkeeping under "#refs#" and "#subsystem#".
		if typ != hdf5.H5G_DATASET || strings.HasPrefix(name, "#") {
			continue
		}

		ds, err := h.OpenDataset(name)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		v, ok, err := readDataset(ds, name)
		ds.Close()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		if ok {
			f.Vars[name] = v
		}
	}
	return f, nil
}

// readDataset converts one dataset. HDF5 stores MATLAB arrays with their
// dimensions reversed, so the row-major payload is already column-major in
// MATLAB terms. MATLAB writes char arrays as uint16.
func readDataset(ds *hdf5.Dataset, name string) (Variable, bool, error) {
	space := ds.Space()
	dims, _, err := space.SimpleExtentDims()
	count := space.SimpleExtentNPoints()
	space.Close()
	if err != nil {
		return Variable{}, false, err
	}

	dtype, err := ds.Datatype()
	if err != nil {
		return Variable{}, false, err
	}
	class, size := dtype.Class(), dtype.Size()
	dtype.Close()

	v := Variable{Name: name, Dims: make([]int, len(dims))}
	for i, d := range dims {
		v.Dims[len(dims)-1-i] = int(d)
	}

	switch {
	case class == hdf5.T_FLOAT && size == 8:
		v.Class = ClassDouble
		v.Real, err = readAs[float64](ds, count)
	case class == hdf5.T_FLOAT && size == 4:
		v.Class = ClassSingle
		v.Real, err = readAs[float32](ds, count)
	case class == hdf5.T_INTEGER && size == 1:
		v.Class = ClassUint8
		v.Real, err = readAs[uint8](ds, count)
	case class == hdf5.T_INTEGER && size == 2:
		v.Class = ClassChar
		v.Real, err = readAs[uint16](ds, count)
	case class == hdf5.T_INTEGER && size == 4:
		v.Class = ClassInt32
		v.Real, err = readAs[int32](ds, count)
	case class == hdf5.T_INTEGER && size == 8:
		v.Class = ClassInt64
		v.Real, err = readAs[int64](ds, count)
	default:
		return Variable{}, false, nil
	}
	return v, err == nil, err
}

func readAs[T float32 | float64 | uint8 | uint16 | int32 | int64](ds *hdf5.Dataset, count int) ([]float64, error) {
	buf := make([]T, count)
	if count > 0 {
		if err := ds.Read(&buf); err != nil {
			return nil, err
		}
	}
	out := make([]float64, count)
	for i, x := range buf {
		out[i] = float64(x)
	}
	return out, nil
}
