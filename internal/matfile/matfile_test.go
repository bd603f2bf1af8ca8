package matfile

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cormatVars() []Variable {
	return []Variable{
		Cell("psdate", Char("", "08/15/05")),
		Cell("pstart", Char("", "06:00:03")),
		Scalar("longitude", -150.25),
		Scalar("latitude", 78.5),
		Float64s("te_adj", []float64{-1.2, -1.3, -1.4}),
		Float64s("sa_adj", []float64{30.1, 30.2, math.NaN()}),
		Float64s("pr_filt", []float64{10, 20, 30}),
	}
}

func TestLevel5_RoundTrip(t *testing.T) {
	for _, compress := range []bool{false, true} {
		name := "plain"
		if compress {
			name = "compressed"
		}
		t.Run(name, func(t *testing.T) {
			data, err := EncodeLevel5(cormatVars(), compress)
			require.NoError(t, err)

			f, err := Level5{}.Decode(data)
			require.NoError(t, err)
			assert.Equal(t, "level5", f.Format)
			assert.True(t, f.Has("psdate", "pstart", "longitude", "latitude", "te_adj", "sa_adj", "pr_filt"))

			date, ok := f.Vars["psdate"].Text()
			require.True(t, ok)
			assert.Equal(t, "08/15/05", date)

			lon, ok := f.Vars["longitude"].Scalar()
			require.True(t, ok)
			assert.Equal(t, -150.25, lon)

			pres, ok := f.Vars["pr_filt"].Floats()
			require.True(t, ok)
			assert.Equal(t, []float64{10, 20, 30}, pres)
			assert.Equal(t, []int{3, 1}, f.Vars["pr_filt"].Dims)

			sal, _ := f.Vars["sa_adj"].Floats()
			assert.True(t, math.IsNaN(sal[2]))
		})
	}
}

func TestLevel5_RejectsOtherData(t *testing.T) {
	_, err := Level5{}.Decode([]byte("short"))
	require.ErrorIs(t, err, ErrNotMatFile)

	data, err := EncodeLevel4(cormatVars()[2:])
	require.NoError(t, err)
	_, err = Level5{}.Decode(data)
	assert.Error(t, err)
}

func TestLevel5_RejectsHDF5(t *testing.T) {
	data, err := EncodeLevel5(nil, false)
	require.NoError(t, err)
	binary.LittleEndian.PutUint16(data[124:], hdf5Version)

	_, err = Level5{}.Decode(data)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "v7.3")
}

func TestLevel5_SmallDataElement(t *testing.T) {
	data, err := EncodeLevel5(nil, false)
	require.NoError(t, err)

	// A 1x1 int8 array "x" holding 7, with name and data packed into small elements.
	var body []byte
	body = append(body, tagBytes(miUINT32, 8)...)
	body = append(body, le32(uint32(ClassInt8))...)
	body = append(body, le32(0)...)
	body = append(body, tagBytes(miINT32, 8)...)
	body = append(body, le32(1)...)
	body = append(body, le32(1)...)
	body = append(body, le32(1<<16|miINT8)...)
	body = append(body, 'x', 0, 0, 0)
	body = append(body, le32(1<<16|miINT8)...)
	body = append(body, 7, 0, 0, 0)

	data = append(data, tagBytes(miMATRIX, len(body))...)
	data = append(data, body...)

	f, err := Level5{}.Decode(data)
	require.NoError(t, err)
	x, ok := f.Vars["x"].Scalar()
	require.True(t, ok)
	assert.Equal(t, 7.0, x)
}

// cellElement builds a cell array "c" whose dimensions element is dimType
// holding dims, with no cell payload following.
func cellElement(dimType uint32, dims ...uint32) []byte {
	var body []byte
	body = append(body, tagBytes(miUINT32, 8)...)
	body = append(body, le32(uint32(ClassCell))...)
	body = append(body, le32(0)...)
	body = append(body, tagBytes(dimType, 4*len(dims))...)
	for _, d := range dims {
		body = append(body, le32(d)...)
	}
	body = append(body, le32(1<<16|miINT8)...)
	body = append(body, 'c', 0, 0, 0)
	return append(tagBytes(miMATRIX, len(body)), body...)
}

func TestLevel5_CorruptCellDimensions(t *testing.T) {
	tests := []struct {
		name    string
		dimType uint32
		dims    []uint32
	}{
		{"negative extent", miINT32, []uint32{0xFFFFFFFF, 1}},
		{"extent beyond int32", miUINT32, []uint32{0xFFFFFFFF, 1}},
		{"more cells than bytes", miINT32, []uint32{1_000_000, 1_000}},
		{"product overflow", miINT32, []uint32{0x7FFFFFFF, 0x7FFFFFFF, 0x7FFFFFFF}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := EncodeLevel5(nil, false)
			require.NoError(t, err)
			data = append(data, cellElement(tt.dimType, tt.dims...)...)

			assert.NotPanics(t, func() {
				_, err = Level5{}.Decode(data)
			})
			assert.Error(t, err)
		})
	}
}

func TestLevel4_RoundTrip(t *testing.T) {
	vars := []Variable{
		Char("psdate", "08/15/05"),
		Scalar("longitude", -150.25),
		Float64s("pr_filt", []float64{10, 20, 30}),
	}
	data, err := EncodeLevel4(vars)
	require.NoError(t, err)

	f, err := Level4{}.Decode(data)
	require.NoError(t, err)
	assert.Equal(t, "level4", f.Format)

	date, ok := f.Vars["psdate"].Text()
	require.True(t, ok)
	assert.Equal(t, "08/15/05", date)

	pres, ok := f.Vars["pr_filt"].Floats()
	require.True(t, ok)
	assert.Equal(t, []float64{10, 20, 30}, pres)
}

func TestLevel4_CorruptDimensions(t *testing.T) {
	tests := []struct {
		name         string
		mrows, ncols uint32
		imagf        uint32
	}{
		{"overflowing complex matrix", 0x7FFFFFFF, 0x7FFFFFFF, 1},
		{"rows beyond payload", 0x7FFFFFFF, 1, 0},
		{"columns beyond payload", 2, 1 << 20, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var data []byte
			for _, x := range []uint32{0, tt.mrows, tt.ncols, tt.imagf, 2} {
				data = append(data, le32(x)...)
			}
			data = append(data, 'x', 0)
			data = append(data, make([]byte, 32)...)

			var err error
			assert.NotPanics(t, func() {
				_, err = Level4{}.Decode(data)
			})
			assert.Error(t, err)
		})
	}
}

func TestLevel4_RejectsCells(t *testing.T) {
	_, err := EncodeLevel4([]Variable{Cell("c", Scalar("", 1))})
	assert.Error(t, err)
}

func TestLevel4_RejectsLevel5(t *testing.T) {
	data, err := EncodeLevel5(cormatVars(), false)
	require.NoError(t, err)
	_, err = Level4{}.Decode(data)
	assert.ErrorIs(t, err, ErrNotMatFile)
}

func TestChain_FallsBackToLegacy(t *testing.T) {
	data, err := EncodeLevel4([]Variable{Scalar("latitude", 80)})
	require.NoError(t, err)

	f, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, "level4", f.Format)
}

func TestChain_PrefersModern(t *testing.T) {
	data, err := EncodeLevel5(cormatVars(), true)
	require.NoError(t, err)

	f, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, "level5", f.Format)
}

func TestChain_AllFail(t *testing.T) {
	_, err := Decode([]byte("definitely not a MAT-file, just some text that is long enough"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotMatFile)
	assert.Contains(t, err.Error(), "hdf5")
	assert.Contains(t, err.Error(), "level5")
	assert.Contains(t, err.Error(), "level4")

	_, err = Chain{}.Decode(nil)
	assert.Error(t, err)
}

func TestVariable_Accessors(t *testing.T) {
	c := Cell("v", Cell("", Scalar("", 3)))
	x, ok := c.Scalar()
	require.True(t, ok)
	assert.Equal(t, 3.0, x)

	_, ok = Char("s", "abc").Scalar()
	assert.False(t, ok)
	_, ok = Scalar("n", 1).Text()
	assert.False(t, ok)

	multi := Cell("m", Scalar("", 1), Scalar("", 2))
	_, ok = multi.Floats()
	assert.False(t, ok, "cells with more than one element are not unwrapped")
	assert.Equal(t, 2, multi.Len())
}

func tagBytes(typ uint32, n int) []byte {
	return append(le32(typ), le32(uint32(n))...)
}

func le32(v uint32) []byte {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, v)
	return b
}
