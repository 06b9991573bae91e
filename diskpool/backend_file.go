/*
Copyright (C) 2026  Carl-Philip Hänsch

    This program is free software: you can redistribute it and/or modify
    it under the terms of the GNU General Public License as published by
    the Free Software Foundation, either version 3 of the License, or
    (at your option) any later version.

    This program is distributed in the hope that it will be useful,
    but WITHOUT ANY WARRANTY; without even the implied warranty of
    MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
    GNU General Public License for more details.

    You should have received a copy of the GNU General Public License
    along with this program.  If not, see <https://www.gnu.org/licenses/>.
*/
package diskpool

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/pierrec/lz4/v4"
)

// FileBackend is the reference disk-slot backend: one flat file of
// NumSlots * SlotBytes bytes (spec.md §6 "Persisted state"). Each slot's
// payload is LZ4-framed before being written, since §6 allows
// BytesPerExample to be "optional; variable-length allowed otherwise" —
// compression buys back the padding a fixed slot size would otherwise
// waste on short batches.
type FileBackend struct {
	path     string
	slotSize int64 // fixed on-disk footprint per slot, post-compression headroom included

	mu sync.Mutex
	f  *os.File
}

// NewFileBackend opens (creating if needed) a flat slot file at path sized
// for numSlots slots of slotSize bytes each.
func NewFileBackend(path string, numSlots uint32, slotSize int64) (*FileBackend, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0640)
	if err != nil {
		return nil, fmt.Errorf("diskpool: open slot file %s: %w", path, err)
	}
	total := int64(numSlots) * slotSize
	if err := f.Truncate(total); err != nil {
		f.Close()
		return nil, fmt.Errorf("diskpool: size slot file %s: %w", path, err)
	}
	return &FileBackend{path: path, slotSize: slotSize, f: f}, nil
}

// WriteSlot LZ4-compresses payload and writes it at slot id's fixed offset,
// prefixed with a 4-byte little-endian compressed length.
func (b *FileBackend) WriteSlot(id SlotID, payload []byte) error {
	var compressed bytes.Buffer
	zw := lz4.NewWriter(&compressed)
	if _, err := zw.Write(payload); err != nil {
		return fmt.Errorf("diskpool: compress slot %d: %w", id, err)
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("diskpool: flush compressed slot %d: %w", id, err)
	}
	if int64(compressed.Len())+4 > b.slotSize {
		return fmt.Errorf("diskpool: slot %d payload %d bytes exceeds slot size %d", id, compressed.Len(), b.slotSize)
	}

	block := make([]byte, b.slotSize)
	putUint32LE(block, uint32(compressed.Len()))
	copy(block[4:], compressed.Bytes())

	b.mu.Lock()
	defer b.mu.Unlock()
	_, err := b.f.WriteAt(block, int64(id)*b.slotSize)
	return err
}

// ReadSlot reads slot id's fixed-offset block and decompresses it.
func (b *FileBackend) ReadSlot(id SlotID) ([]byte, error) {
	block := make([]byte, b.slotSize)

	b.mu.Lock()
	_, err := b.f.ReadAt(block, int64(id)*b.slotSize)
	b.mu.Unlock()
	if err != nil && err != io.EOF {
		return nil, err
	}

	n := getUint32LE(block)
	if int64(n)+4 > b.slotSize {
		return nil, fmt.Errorf("diskpool: slot %d has corrupt length header", id)
	}
	zr := lz4.NewReader(bytes.NewReader(block[4 : 4+n]))
	var out bytes.Buffer
	if _, err := io.Copy(&out, zr); err != nil {
		return nil, fmt.Errorf("diskpool: decompress slot %d: %w", id, err)
	}
	return out.Bytes(), nil
}

// Close releases the underlying file handle.
func (b *FileBackend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.f.Close()
}

// Path returns the slot file's path, for the fsnotify watchdog.
func (b *FileBackend) Path() string { return b.path }

func putUint32LE(b []byte, v uint32) {
	b[0] = byte(v)
	b[1] = byte(v >> 8)
	b[2] = byte(v >> 16)
	b[3] = byte(v >> 24)
}

func getUint32LE(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}
