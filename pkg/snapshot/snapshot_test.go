/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: snapshot_test.go
Description: Tests for snapshot loading, decompression and address parsing.
*/

package snapshot

import (
	"bytes"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dumpBytes() []byte {
	data := make([]byte, 4096)
	for i := range data {
		data[i] = byte(i * 7)
	}
	return data
}

func gzipped(t *testing.T, data []byte) []byte {
	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	_, err := w.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func zstded(t *testing.T, data []byte) []byte {
	enc, err := zstd.NewWriter(nil)
	require.NoError(t, err)
	defer enc.Close()
	return enc.EncodeAll(data, nil)
}

func TestLoadRawAndCompressed(t *testing.T) {
	fs := afero.NewMemMapFs()
	data := dumpBytes()
	require.NoError(t, afero.WriteFile(fs, "/dumps/raw.bin", data, 0644))
	require.NoError(t, afero.WriteFile(fs, "/dumps/dump.bin.gz", gzipped(t, data), 0644))
	require.NoError(t, afero.WriteFile(fs, "/dumps/dump.bin.zst", zstded(t, data), 0644))

	loader := NewLoader(fs)
	want := map[string]string{
		"/dumps/raw.bin":      "none",
		"/dumps/dump.bin.gz":  "gzip",
		"/dumps/dump.bin.zst": "zstd",
	}

	var first *Snapshot
	for path, compression := range want {
		snap, err := loader.Load(path, 0x02000000)
		require.NoError(t, err, path)
		assert.Equal(t, compression, snap.Compression)
		assert.Equal(t, data, snap.Data())
		assert.Equal(t, 4096, snap.Size)
		assert.Equal(t, "4.0 KiB", snap.HumanSize())

		buf := snap.Buffer()
		assert.Equal(t, uint64(0x02000000), buf.BaseAddress)
		assert.Equal(t, snap.Name, buf.Name)

		if first != nil {
			assert.True(t, first.SameContent(snap))
		}
		first = snap
	}
}

func TestLoadErrors(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/empty.bin", nil, 0644))
	require.NoError(t, afero.WriteFile(fs, "/big.bin", make([]byte, 2048), 0644))
	require.NoError(t, afero.WriteFile(fs, "/bad.gz", []byte{0x1f, 0x8b, 0x00}, 0644))

	loader := NewLoader(fs)

	_, err := loader.Load("/missing.bin", 0)
	assert.Error(t, err)

	_, err = loader.Load("/empty.bin", 0)
	assert.ErrorContains(t, err, "empty")

	_, err = loader.Load("/bad.gz", 0)
	assert.Error(t, err)

	loader.MaxSize = 1024
	_, err = loader.Load("/big.bin", 0)
	assert.ErrorContains(t, err, "exceeds limit")
}

func TestLoadPair(t *testing.T) {
	fs := afero.NewMemMapFs()
	a := dumpBytes()
	b := dumpBytes()
	b[100] ^= 0xff
	require.NoError(t, afero.WriteFile(fs, "a.bin", a, 0644))
	require.NoError(t, afero.WriteFile(fs, "b.bin", b, 0644))

	snapA, snapB, err := NewLoader(fs).LoadPair("a.bin", "b.bin", 0x03000000)
	require.NoError(t, err)
	assert.False(t, snapA.SameContent(snapB))
	assert.NotEqual(t, snapA.Digest, snapB.Digest)

	_, _, err = NewLoader(fs).LoadPair("a.bin", "c.bin", 0)
	assert.Error(t, err)
}

func TestParseAddress(t *testing.T) {
	tests := []struct {
		in   string
		want uint64
		ok   bool
	}{
		{"0x02000000", 0x02000000, true},
		{"0X0300ABCD", 0x0300ABCD, true},
		{" 4096 ", 4096, true},
		{"0", 0, true},
		{"", 0, false},
		{"0xZZ", 0, false},
		{"-1", 0, false},
	}
	for _, tt := range tests {
		got, err := ParseAddress(tt.in)
		if !tt.ok {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}
}
