package matfile

import "bytes"

// hdf5Signature opens the HDF5 superblock. MATLAB v7.3 files put it after a
// 512-byte userblock carrying the usual text header; HDF5 allows the
// superblock at 0 or any power of two from 512 up.
var hdf5Signature = []byte("\x89HDF\r\n\x1a\n")

// HDF5 decodes v7.3 containers. Top-level numeric and char datasets become
// variables; groups, references and structs are not read.
type HDF5 struct{}

// Name implements Decoder.
func (HDF5) Name() string { return "hdf5" }

// Decode implements Decoder.
func (HDF5) Decode(data []byte) (*File, error) {
	if !IsHDF5(data) {
		return nil, ErrNotMatFile
	}
	return decodeHDF5(data)
}

// IsHDF5 reports whether data carries an HDF5 superblock signature at one
// of the offsets HDF5 searches.
func IsHDF5(data []byte) bool {
	for off := 0; off+len(hdf5Signature) <= len(data); {
		if bytes.Equal(data[off:off+len(hdf5Signature)], hdf5Signature) {
			return true
		}
		if off == 0 {
			off = 512
		} else {
			off *= 2
		}
	}
	return false
}
