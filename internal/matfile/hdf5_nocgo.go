//go:build !cgo

package matfile

import "errors"

func decodeHDF5([]byte) (*File, error) {
	return nil, errors.New("v7.3 containers need a cgo build with libhdf5")
}
