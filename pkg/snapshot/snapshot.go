/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: snapshot.go
Description: Memory snapshot loading. Reads raw dumps from any afero filesystem, decodes
gzip and zstd compressed dumps transparently, and fingerprints each snapshot so identical
captures can be spotted before a consistency check.
*/

package snapshot

import (
	"bytes"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/dustin/go-humanize"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/spf13/afero"

	"github.com/kleascm/stridefinder/pkg/inference"
)

// DefaultMaxSize caps decoded snapshots; GBA work RAM is 256 KiB, full dumps a few MiB
const DefaultMaxSize = 256 << 20

var (
	gzipMagic = []byte{0x1f, 0x8b}
	zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}
)

// Snapshot is a loaded dump and its metadata
type Snapshot struct {
	Path        string `json:"path"`
	Name        string `json:"name"`
	BaseAddress uint64 `json:"base_address"`
	Size        int    `json:"size"`
	Compression string `json:"compression"`
	Digest      uint64 `json:"digest"`

	data []byte
}

// Data returns the decoded bytes. Callers must not modify them.
func (s *Snapshot) Data() []byte { return s.data }

// Buffer returns the view used by the inference engine
func (s *Snapshot) Buffer() inference.Snapshot {
	return inference.Snapshot{Name: s.Name, Data: s.data, BaseAddress: s.BaseAddress}
}

// HumanSize returns the decoded size for display
func (s *Snapshot) HumanSize() string {
	return humanize.IBytes(uint64(s.Size))
}

// SameContent reports whether two snapshots hold identical bytes
func (s *Snapshot) SameContent(other *Snapshot) bool {
	return s.Digest == other.Digest && bytes.Equal(s.data, other.data)
}

// Loader reads snapshots from a filesystem
type Loader struct {
	Fs      afero.Fs
	MaxSize int64
}

// NewLoader creates a loader over fs; a nil fs means the OS filesystem
func NewLoader(fs afero.Fs) *Loader {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &Loader{Fs: fs, MaxSize: DefaultMaxSize}
}

// Load reads the dump at path and maps its first byte to base
func (l *Loader) Load(path string, base uint64) (*Snapshot, error) {
	raw, err := afero.ReadFile(l.Fs, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}

	data, compression, err := l.decode(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to decode snapshot %s: %w", path, err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("snapshot %s is empty", path)
	}

	return &Snapshot{
		Path:        path,
		Name:        filepath.Base(path),
		BaseAddress: base,
		Size:        len(data),
		Compression: compression,
		Digest:      xxhash.Sum64(data),
		data:        data,
	}, nil
}

// LoadPair loads the two captures compared by a consistency check
func (l *Loader) LoadPair(pathA, pathB string, base uint64) (*Snapshot, *Snapshot, error) {
	a, err := l.Load(pathA, base)
	if err != nil {
		return nil, nil, err
	}
	b, err := l.Load(pathB, base)
	if err != nil {
		return nil, nil, err
	}
	return a, b, nil
}

func (l *Loader) decode(raw []byte) ([]byte, string, error) {
	var (
		r           io.Reader
		compression string
	)

	switch {
	case bytes.HasPrefix(raw, zstdMagic):
		dec, err := zstd.NewReader(bytes.NewReader(raw))
		if err != nil {
			return nil, "", err
		}
		defer dec.Close()
		r, compression = dec, "zstd"
	case bytes.HasPrefix(raw, gzipMagic):
		dec, err := gzip.NewReader(bytes.NewReader(raw))
		if err != nil {
			return nil, "", err
		}
		defer dec.Close()
		r, compression = dec, "gzip"
	default:
		if l.MaxSize > 0 && int64(len(raw)) > l.MaxSize {
			return nil, "", fmt.Errorf("size %s exceeds limit %s", humanize.IBytes(uint64(len(raw))), humanize.IBytes(uint64(l.MaxSize)))
		}
		return raw, "none", nil
	}

	limit := l.MaxSize
	if limit <= 0 {
		limit = DefaultMaxSize
	}
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, "", err
	}
	if int64(len(data)) > limit {
		return nil, "", fmt.Errorf("decoded size exceeds limit %s", humanize.IBytes(uint64(limit)))
	}
	return data, compression, nil
}

// ParseAddress parses a base address given as hex (0x02000000) or decimal
func ParseAddress(s string) (uint64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty address")
	}

	var (
		v   uint64
		err error
	)
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		v, err = strconv.ParseUint(s[2:], 16, 64)
	} else {
		v, err = strconv.ParseUint(s, 10, 64)
	}
	if err != nil {
		return 0, fmt.Errorf("invalid address %q: %w", s, err)
	}
	return v, nil
}
