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

// Package stratum implements spec.md §4.2: one stratum per active weight
// bucket, wrapping an in-queue, an out-queue, and the disk slots it owns.
package stratum

import (
	"bytes"
	"encoding/gob"
	"fmt"

	"github.com/launix-de/sparrow/model"
)

// Codec turns a batch of examples into the opaque on-disk slot payload and
// back. Per-example encoding is explicitly delegated by spec.md §6 ("the
// core receives [a serializer] at startup") — the core never hardcodes a
// wire format.
type Codec interface {
	EncodeBatch(examples []model.ScoredExample) ([]byte, error)
	DecodeBatch(data []byte) ([]model.ScoredExample, error)
}

// GobCodec is the reference Codec. encoding/gob is used here rather than a
// third-party serializer: the teacher's own on-disk encoding
// (storage/storage-int.go et al.) is a bit-packed column format wired
// tightly to its SQL value types and isn't reusable for a flat example
// struct, and no example repo in the retrieval pack carries a
// general-purpose binary serialization library (protobuf, msgpack,
// flatbuffers) — gob is the standard-library answer to exactly this
// problem and needs no schema.
type GobCodec struct{}

func (GobCodec) EncodeBatch(examples []model.ScoredExample) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(examples); err != nil {
		return nil, fmt.Errorf("stratum: encoding batch: %w", err)
	}
	return buf.Bytes(), nil
}

func (GobCodec) DecodeBatch(data []byte) ([]model.ScoredExample, error) {
	var examples []model.ScoredExample
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&examples); err != nil {
		return nil, fmt.Errorf("stratum: decoding batch: %w", err)
	}
	return examples, nil
}
