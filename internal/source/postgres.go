package source

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/wonny/mdhealth/internal/contracts"
	"github.com/wonny/mdhealth/pkg/database"
	"github.com/wonny/mdhealth/pkg/logger"
)

// undefinedTable is the SQLSTATE for a missing relation
const undefinedTable = "42P01"

// PostgresSource reads master data tables from one Postgres schema.
// Dataset "Time Profiles" lives in table time_profiles.
type PostgresSource struct {
	db     *database.DB
	logger *logger.Logger
}

// NewPostgres creates a Postgres source
func NewPostgres(db *database.DB, log *logger.Logger) *PostgresSource {
	if log == nil {
		log = logger.NewNop()
	}
	return &PostgresSource{db: db, logger: log.WithField("module", "postgres_source")}
}

func (s *PostgresSource) Name() string { return "postgres" }

// TableName maps a dataset type to its snake_case table name
func TableName(dataType string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(dataType)), " ", "_")
}

// TableNames maps dataset types to table names, preserving order
func TableNames(types []string) []string {
	out := make([]string, len(types))
	for i, t := range types {
		out[i] = TableName(t)
	}
	return out
}

// Load reads every requested table. Missing tables are absent; other query errors fail the load.
func (s *PostgresSource) Load(ctx context.Context, types []string) (map[string]*contracts.Table, error) {
	out := make(map[string]*contracts.Table, len(types))
	for _, t := range types {
		tbl, err := s.loadTable(ctx, t)
		if err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == undefinedTable {
				s.logger.WithDataset(t).Warn("Table not found, dataset treated as absent")
				continue
			}
			return nil, fmt.Errorf("load %s: %w", t, err)
		}
		out[t] = tbl
	}
	return out, nil
}

func (s *PostgresSource) loadTable(ctx context.Context, dataType string) (*contracts.Table, error) {
	query := "SELECT * FROM " + s.db.QualifiedName(TableName(dataType))

	rows, err := s.db.Pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	columns := make([]contracts.Column, len(fields))
	for i, f := range fields {
		columns[i] = contracts.Column{Name: f.Name, Type: columnType(f.DataTypeOID)}
	}

	var data [][]any
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		row := make([]any, len(values))
		for i, v := range values {
			row[i] = cellValue(columns[i].Type, v)
		}
		data = append(data, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	s.logger.WithDataset(dataType).WithField("rows", len(data)).Debug("Table loaded")
	return contracts.NewTable(columns, data)
}

// columnType maps a Postgres type OID to a column type
func columnType(oid uint32) contracts.ColumnType {
	switch oid {
	case pgtype.Int2OID, pgtype.Int4OID, pgtype.Int8OID,
		pgtype.Float4OID, pgtype.Float8OID, pgtype.NumericOID:
		return contracts.ColumnNumeric
	case pgtype.BoolOID:
		return contracts.ColumnBoolean
	case pgtype.DateOID, pgtype.TimestampOID, pgtype.TimestamptzOID:
		return contracts.ColumnDatetime
	}
	return contracts.ColumnText
}

// cellValue converts a decoded pgx value into a table cell of the column's type
func cellValue(ct contracts.ColumnType, v any) any {
	if v == nil {
		return nil
	}

	switch ct {
	case contracts.ColumnNumeric:
		if n, ok := v.(pgtype.Numeric); ok {
			f, err := n.Float64Value()
			if err != nil || !f.Valid || math.IsNaN(f.Float64) {
				return nil
			}
			return f.Float64
		}
		if f, ok := contracts.AsFloat(v); ok {
			return f
		}
		return nil
	case contracts.ColumnBoolean:
		if b, ok := v.(bool); ok {
			return b
		}
		return nil
	case contracts.ColumnDatetime:
		if ts, ok := v.(time.Time); ok {
			return ts
		}
		return nil // infinity
	}

	switch x := v.(type) {
	case string:
		return x
	case []byte:
		return string(x)
	case [16]byte:
		return uuid.UUID(x).String()
	case map[string]any, []any:
		if b, err := json.Marshal(x); err == nil {
			return string(b)
		}
	case fmt.Stringer:
		return x.String()
	}
	return fmt.Sprint(v)
}

// Status reports existence and row count of each dataset's table
func (s *PostgresSource) Status(ctx context.Context, types []string) ([]database.TableInfo, error) {
	return s.db.TableStatus(ctx, TableNames(types))
}

