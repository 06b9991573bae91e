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

package serial

import (
	"bufio"
	"bytes"
	"context"
	"encoding/base64"
	"encoding/gob"
	"fmt"
	"io"
	"os"

	"github.com/launix-de/sparrow/model"
)

// FileStorage is the reference SerialStorage backend: one gob-encoded,
// base64-wrapped LabeledData per line. Plain text so a test set can be
// inspected or diffed without tooling, matching the Codec split of
// stratum.GobCodec (one record encoding, trivially line-delimited here
// since a test set is read sequentially rather than slot-packed).
type FileStorage struct {
	path string

	f       *os.File
	scanner *bufio.Scanner
}

// NewFileStorage prepares a reader of test examples at path without opening
// it. The file need not exist yet; Rewind opens it and surfaces the error.
func NewFileStorage(path string) *FileStorage {
	return &FileStorage{path: path}
}

func (s *FileStorage) Rewind(ctx context.Context) error {
	if s.f != nil {
		_ = s.f.Close()
	}
	f, err := os.Open(s.path)
	if err != nil {
		return err
	}
	s.f = f
	s.scanner = bufio.NewScanner(f)
	s.scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	return nil
}

func (s *FileStorage) Next(ctx context.Context) (model.LabeledData, bool, error) {
	if s.scanner == nil {
		return model.LabeledData{}, false, fmt.Errorf("serial: FileStorage.Next called before Rewind")
	}
	if !s.scanner.Scan() {
		return model.LabeledData{}, false, s.scanner.Err()
	}
	ex, err := decodeLine(s.scanner.Bytes())
	if err != nil {
		return model.LabeledData{}, false, err
	}
	return ex, true, nil
}

func (s *FileStorage) Close() error {
	if s.f == nil {
		return nil
	}
	return s.f.Close()
}

// WriteFileStorage appends examples to path, creating it if absent. Used to
// build test sets; validate.Run never writes through SerialStorage itself.
func WriteFileStorage(path string, examples []model.LabeledData) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return err
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	for _, ex := range examples {
		line, err := encodeLine(ex)
		if err != nil {
			return err
		}
		if _, err := w.Write(line); err != nil {
			return err
		}
		if err := w.WriteByte('\n'); err != nil {
			return err
		}
	}
	return w.Flush()
}

func encodeLine(ex model.LabeledData) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(ex); err != nil {
		return nil, err
	}
	enc := base64.StdEncoding.EncodeToString(buf.Bytes())
	return []byte(enc), nil
}

func decodeLine(line []byte) (model.LabeledData, error) {
	raw, err := base64.StdEncoding.DecodeString(string(line))
	if err != nil {
		return model.LabeledData{}, err
	}
	var ex model.LabeledData
	if err := gob.NewDecoder(bytes.NewReader(raw)).Decode(&ex); err != nil {
		if err == io.EOF {
			return model.LabeledData{}, fmt.Errorf("serial: truncated record")
		}
		return model.LabeledData{}, err
	}
	return ex, nil
}
