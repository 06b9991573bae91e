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
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"

	"github.com/launix-de/sparrow/model"
)

// MySQLStorage reads one table's rows as a test set: a configurable list
// of feature columns plus one label column (any column whose value is > 0
// is Positive, else Negative).
type MySQLStorage struct {
	host, user, password string
	port                 int
	database, table       string
	featureCols          []string
	labelCol             string

	db   *sql.DB
	rows *sql.Rows
}

// MySQLConfig bundles connection and schema parameters.
type MySQLConfig struct {
	Host, User, Password string
	Port                 int
	Database, Table      string
	FeatureColumns       []string
	LabelColumn          string
}

// NewMySQLStorage builds a MySQLStorage from cfg. The connection is opened
// lazily on the first Rewind.
func NewMySQLStorage(cfg MySQLConfig) *MySQLStorage {
	return &MySQLStorage{
		host:         cfg.Host,
		user:         cfg.User,
		password:     cfg.Password,
		port:         cfg.Port,
		database:     cfg.Database,
		table:        cfg.Table,
		featureCols:  cfg.FeatureColumns,
		labelCol:     cfg.LabelColumn,
	}
}

func (s *MySQLStorage) dsn() string {
	addr := s.host + ":" + strconv.Itoa(s.port)
	dsn := s.user
	if s.password != "" {
		dsn += ":" + s.password
	}
	dsn += "@tcp(" + addr + ")/" + s.database + "?parseTime=true&interpolateParams=true"
	return dsn
}

func (s *MySQLStorage) Rewind(ctx context.Context) error {
	if s.rows != nil {
		_ = s.rows.Close()
		s.rows = nil
	}
	if s.db == nil {
		db, err := sql.Open("mysql", s.dsn())
		if err != nil {
			return err
		}
		db.SetConnMaxLifetime(30 * time.Minute)
		db.SetMaxOpenConns(4)
		if err := db.PingContext(ctx); err != nil {
			_ = db.Close()
			return err
		}
		s.db = db
	}

	cols := make([]string, 0, len(s.featureCols)+1)
	for _, c := range s.featureCols {
		cols = append(cols, "`"+strings.ReplaceAll(c, "`", "``")+"`")
	}
	cols = append(cols, "`"+strings.ReplaceAll(s.labelCol, "`", "``")+"`")
	query := fmt.Sprintf("SELECT %s FROM `%s`", strings.Join(cols, ","), strings.ReplaceAll(s.table, "`", "``"))

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return err
	}
	s.rows = rows
	return nil
}

func (s *MySQLStorage) Next(ctx context.Context) (model.LabeledData, bool, error) {
	if s.rows == nil {
		return model.LabeledData{}, false, fmt.Errorf("serial: MySQLStorage.Next called before Rewind")
	}
	if !s.rows.Next() {
		return model.LabeledData{}, false, s.rows.Err()
	}

	n := len(s.featureCols) + 1
	raw := make([]float64, n)
	ptrs := make([]any, n)
	for i := range raw {
		ptrs[i] = &raw[i]
	}
	if err := s.rows.Scan(ptrs...); err != nil {
		return model.LabeledData{}, false, err
	}

	features := make([]float32, len(s.featureCols))
	for i := range features {
		features[i] = float32(raw[i])
	}
	label := model.Negative
	if raw[n-1] > 0 {
		label = model.Positive
	}
	return model.LabeledData{Features: features, Label: label}, true, nil
}

func (s *MySQLStorage) Close() error {
	if s.rows != nil {
		_ = s.rows.Close()
	}
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
