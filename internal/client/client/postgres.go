package client

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/dmitrijs2005/gopanel/internal/client/models"
	"github.com/dmitrijs2005/gopanel/internal/dbx"
	_ "github.com/jackc/pgx/v5/stdlib"
)

var ErrEmptyPatch = errors.New("update requires at least one field")

// PostgresTables is a TableClient that talks to the project's database
// directly, bypassing PostgREST. Row-level security does not apply, so it
// is meant for operators holding database credentials.
type PostgresTables struct {
	db *sql.DB
}

func NewPostgresTables(db *sql.DB) *PostgresTables {
	return &PostgresTables{db: db}
}

// OpenPostgres connects with the pgx stdlib driver and pings the server.
func OpenPostgres(ctx context.Context, dsn string) (*PostgresTables, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return NewPostgresTables(db), nil
}

func (p *PostgresTables) Close() error {
	return p.db.Close()
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// sortedColumns returns rec's keys in a stable order so statements are
// deterministic.
func sortedColumns(rec models.Record) []string {
	cols := make([]string, 0, len(rec))
	for k := range rec {
		cols = append(cols, k)
	}
	slices.Sort(cols)
	return cols
}

// sqlArg converts decoded JSON values into driver-friendly arguments.
func sqlArg(v any) (any, error) {
	switch val := v.(type) {
	case json.Number:
		if i, err := val.Int64(); err == nil {
			return i, nil
		}
		return val.Float64()
	case map[string]any, []any:
		b, err := json.Marshal(val)
		if err != nil {
			return nil, err
		}
		return string(b), nil
	default:
		return v, nil
	}
}

func scanRecords(rows *sql.Rows) ([]models.Record, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var result []models.Record
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		rec := make(models.Record, len(cols))
		for i, col := range cols {
			if b, ok := values[i].([]byte); ok {
				rec[col] = string(b)
				continue
			}
			rec[col] = values[i]
		}
		result = append(result, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func queryRecords(ctx context.Context, db dbx.DBTX, query string, args ...any) ([]models.Record, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRecords(rows)
}

func (p *PostgresTables) Select(ctx context.Context, table string) ([]models.Record, error) {
	if err := ValidateTableName(table); err != nil {
		return nil, err
	}
	rows, err := queryRecords(ctx, p.db, "SELECT * FROM "+quoteIdent(table))
	if err != nil {
		return nil, fmt.Errorf("failed to select %s: %w", table, err)
	}
	return rows, nil
}

func (p *PostgresTables) Insert(ctx context.Context, table string, rec models.Record) (models.Record, error) {
	if err := ValidateTableName(table); err != nil {
		return nil, err
	}

	var query string
	var args []any
	if len(rec) == 0 {
		query = fmt.Sprintf("INSERT INTO %s DEFAULT VALUES RETURNING *", quoteIdent(table))
	} else {
		cols := sortedColumns(rec)
		quoted := make([]string, len(cols))
		placeholders := make([]string, len(cols))
		for i, col := range cols {
			arg, err := sqlArg(rec[col])
			if err != nil {
				return nil, fmt.Errorf("column %s: %w", col, err)
			}
			quoted[i] = quoteIdent(col)
			placeholders[i] = fmt.Sprintf("$%d", i+1)
			args = append(args, arg)
		}
		query = fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) RETURNING *",
			quoteIdent(table), strings.Join(quoted, ", "), strings.Join(placeholders, ", "))
	}

	rows, err := queryRecords(ctx, p.db, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to insert into %s: %w", table, err)
	}
	return single(rows)
}

// Update patches the row with the given id. The statement runs in a
// transaction that is rolled back unless exactly one row changed.
func (p *PostgresTables) Update(ctx context.Context, table string, id any, patch models.Record) (models.Record, error) {
	if err := ValidateTableName(table); err != nil {
		return nil, err
	}

	changes := patch.Clone()
	delete(changes, models.IDField)
	if len(changes) == 0 {
		return nil, ErrEmptyPatch
	}

	cols := sortedColumns(changes)
	sets := make([]string, len(cols))
	args := make([]any, 0, len(cols)+1)
	for i, col := range cols {
		arg, err := sqlArg(changes[col])
		if err != nil {
			return nil, fmt.Errorf("column %s: %w", col, err)
		}
		sets[i] = fmt.Sprintf("%s = $%d", quoteIdent(col), i+1)
		args = append(args, arg)
	}
	idArg, err := sqlArg(id)
	if err != nil {
		return nil, err
	}
	args = append(args, idArg)

	query := fmt.Sprintf("UPDATE %s SET %s WHERE %s = $%d RETURNING *",
		quoteIdent(table), strings.Join(sets, ", "), quoteIdent(models.IDField), len(args))

	var updated models.Record
	err = dbx.WithTx(ctx, p.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		rows, err := queryRecords(ctx, tx, query, args...)
		if err != nil {
			return fmt.Errorf("failed to update %s: %w", table, err)
		}
		updated, err = single(rows)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (p *PostgresTables) Delete(ctx context.Context, table string, id any) error {
	if err := ValidateTableName(table); err != nil {
		return err
	}
	idArg, err := sqlArg(id)
	if err != nil {
		return err
	}
	query := fmt.Sprintf("DELETE FROM %s WHERE %s = $1", quoteIdent(table), quoteIdent(models.IDField))
	res, err := p.db.ExecContext(ctx, query, idArg)
	if err != nil {
		return fmt.Errorf("failed to delete from %s: %w", table, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete from %s: %w", table, err)
	}
	if n == 0 {
		return fmt.Errorf("%s id=%v: %w", table, id, ErrNotFound)
	}
	return nil
}
