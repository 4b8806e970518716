package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"

	"github.com/dmitrijs2005/gopanel/internal/client/models"
)

var ErrUsage = errors.New("usage")

func usage(s string) error {
	return fmt.Errorf("%w: %s", ErrUsage, s)
}

// List fetches and prints a table, the configured crud table by default.
func (a *App) List(ctx context.Context, args []string) error {
	table := a.config.CrudTable
	if len(args) > 0 {
		table = args[0]
	}
	c, err := a.collection(table)
	if err != nil {
		return err
	}
	if err := c.FetchAll(ctx); err != nil {
		return err
	}
	return printRecords(a.out, c.Items())
}

func (a *App) Create(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return usage("create <table> k=v...")
	}
	c, err := a.collection(args[0])
	if err != nil {
		return err
	}
	rec, err := ParseAssignments(args[1:])
	if err != nil {
		return err
	}
	created, err := c.Create(ctx, rec)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Created %s %s\n", args[0], models.IDString(created.ID()))
	return printRecord(a.out, created)
}

func (a *App) Update(ctx context.Context, args []string) error {
	if len(args) < 3 {
		return usage("update <table> <id> k=v...")
	}
	c, err := a.collection(args[0])
	if err != nil {
		return err
	}
	patch, err := ParseAssignments(args[2:])
	if err != nil {
		return err
	}
	updated, err := c.Update(ctx, args[1], patch)
	if err != nil {
		return err
	}
	return printRecord(a.out, updated)
}

func (a *App) Delete(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return usage("delete <table> <id>")
	}
	c, err := a.collection(args[0])
	if err != nil {
		return err
	}
	if err := c.Remove(ctx, args[1]); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Deleted %s %s\n", args[0], args[1])
	return nil
}

// columns returns the union of keys, id first and the rest sorted.
func columns(rows []models.Record) []string {
	seen := map[string]bool{}
	var cols []string
	for _, r := range rows {
		for k := range r {
			if !seen[k] && k != models.IDField {
				seen[k] = true
				cols = append(cols, k)
			}
		}
	}
	slices.Sort(cols)
	return append([]string{models.IDField}, cols...)
}

func formatValue(v any) string {
	if v == nil {
		return ""
	}
	return models.IDString(v)
}

func printRecords(w io.Writer, rows []models.Record) error {
	if len(rows) == 0 {
		_, err := fmt.Fprintln(w, "(no records)")
		return err
	}
	cols := columns(rows)

	body := make([][]string, 0, len(rows))
	for _, r := range rows {
		vals := make([]string, len(cols))
		for i, c := range cols {
			vals[i] = formatValue(r[c])
		}
		body = append(body, vals)
	}
	return renderTable(w, cols, body)
}

// printRecord shows one record as field/value pairs.
func printRecord(w io.Writer, r models.Record) error {
	cols := columns([]models.Record{r})
	body := make([][]string, 0, len(cols))
	for _, c := range cols {
		body = append(body, []string{c, formatValue(r[c])})
	}
	return renderTable(w, []string{"field", "value"}, body)
}
