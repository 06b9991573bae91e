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
package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/natefinch/atomic"
)

// checkpointFile mirrors the teacher's database.save() schema.json layout,
// but for a Model instead of a table schema.
type checkpointFile struct {
	Trees []Tree `json:"trees"`
}

// SaveCheckpoint persists m to path via a rename-based atomic write, so a
// crash mid-write never leaves a torn model snapshot on disk (the teacher
// rescues a schema.json.old copy instead; here we avoid the torn write in
// the first place).
func SaveCheckpoint(path string, m Model) error {
	jsonBytes, err := json.MarshalIndent(checkpointFile{Trees: m.Trees}, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling model checkpoint: %w", err)
	}
	if err := atomic.WriteFile(path, bytes.NewReader(jsonBytes)); err != nil {
		return fmt.Errorf("writing model checkpoint %s: %w", path, err)
	}
	return nil
}

// LoadCheckpoint restores a Model previously written by SaveCheckpoint. A
// missing file is not an error: training starts from the empty model.
func LoadCheckpoint(path string) (Model, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return Model{}, nil
	}
	if err != nil {
		return Model{}, fmt.Errorf("reading model checkpoint %s: %w", path, err)
	}
	var cp checkpointFile
	if err := json.Unmarshal(data, &cp); err != nil {
		return Model{}, fmt.Errorf("invalid model checkpoint %s: %w", path, err)
	}
	return Model{Trees: cp.Trees}, nil
}
