// Package digest provides the content digest used to narrow duplicate
// candidates before an exact comparison.
//
// A 64-bit digest is a filter, never an identity: two different contents may
// share a digest, so callers must confirm candidates byte for byte.
package digest

import (
	"encoding/binary"
	"fmt"
	"io"
	"sort"

	"github.com/cespare/xxhash/v2"
	"github.com/zeebo/blake3"
)

// DefaultBufferSize is the read buffer used for a digest pass.
const DefaultBufferSize = 64 * 1024

// Digester computes a 64-bit digest of a stream in one pass.
type Digester interface {
	Sum64(r io.Reader) (uint64, error)
}

// Func adapts a function to the Digester interface.
type Func func(r io.Reader) (uint64, error)

// Sum64 implements Digester.
func (f Func) Sum64(r io.Reader) (uint64, error) {
	return f(r)
}

// XXH64 returns a Digester computing XXH64 with seed zero.
func XXH64() Digester {
	d := &xxh64{h: xxhash.New(), buf: make([]byte, DefaultBufferSize)}
	return d
}

type xxh64 struct {
	h   *xxhash.Digest
	buf []byte
}

func (d *xxh64) Sum64(r io.Reader) (uint64, error) {
	d.h.Reset()
	if _, err := io.CopyBuffer(d.h, r, d.buf); err != nil {
		return 0, err
	}
	return d.h.Sum64(), nil
}

// BLAKE3 returns a Digester reporting the first eight bytes of the BLAKE3-256
// hash, read as a little-endian integer.
func BLAKE3() Digester {
	return &blake3Digester{buf: make([]byte, DefaultBufferSize)}
}

type blake3Digester struct {
	buf []byte
}

func (d *blake3Digester) Sum64(r io.Reader) (uint64, error) {
	h := blake3.New()
	if _, err := io.CopyBuffer(h, r, d.buf); err != nil {
		return 0, err
	}
	var sum [32]byte
	h.Sum(sum[:0])
	return binary.LittleEndian.Uint64(sum[:8]), nil
}

var registry = map[string]func() Digester{
	"xxh64":  XXH64,
	"blake3": BLAKE3,
}

// Default is the name of the digester used when none is configured.
const Default = "xxh64"

// ByName returns a new Digester for a registered algorithm name.
func ByName(name string) (Digester, error) {
	ctor, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown digest %q (known: %v)", name, Names())
	}
	return ctor(), nil
}

// Names returns the registered algorithm names in sorted order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
