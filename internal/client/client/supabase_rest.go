package client

import (
	"context"
	"net/http"
	"net/url"

	"github.com/dmitrijs2005/gopanel/internal/client/models"
)

const preferRepresentation = "return=representation"

func restPath(table string) []string {
	return []string{"rest", "v1", table}
}

func idFilter(id any) url.Values {
	return url.Values{
		models.IDField: {"eq." + models.IDString(id)},
		"select":       {"*"},
	}
}

func single(rows []models.Record) (models.Record, error) {
	if len(rows) != 1 {
		return nil, errSingleRow(len(rows))
	}
	return rows[0], nil
}

func (c *SupabaseClient) Select(ctx context.Context, table string) ([]models.Record, error) {
	if err := ValidateTableName(table); err != nil {
		return nil, err
	}
	var rows []models.Record
	err := c.authorized(ctx, request{
		method: http.MethodGet,
		path:   restPath(table),
		query:  url.Values{"select": {"*"}},
	}, &rows)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (c *SupabaseClient) Insert(ctx context.Context, table string, rec models.Record) (models.Record, error) {
	if err := ValidateTableName(table); err != nil {
		return nil, err
	}
	var rows []models.Record
	err := c.authorized(ctx, request{
		method:  http.MethodPost,
		path:    restPath(table),
		query:   url.Values{"select": {"*"}},
		body:    rec,
		headers: map[string]string{"Prefer": preferRepresentation},
	}, &rows)
	if err != nil {
		return nil, err
	}
	return single(rows)
}

func (c *SupabaseClient) Update(ctx context.Context, table string, id any, patch models.Record) (models.Record, error) {
	if err := ValidateTableName(table); err != nil {
		return nil, err
	}
	var rows []models.Record
	err := c.authorized(ctx, request{
		method:  http.MethodPatch,
		path:    restPath(table),
		query:   idFilter(id),
		body:    patch,
		headers: map[string]string{"Prefer": preferRepresentation},
	}, &rows)
	if err != nil {
		return nil, err
	}
	return single(rows)
}

func (c *SupabaseClient) Delete(ctx context.Context, table string, id any) error {
	if err := ValidateTableName(table); err != nil {
		return err
	}
	q := url.Values{models.IDField: {"eq." + models.IDString(id)}}
	return c.authorized(ctx, request{
		method: http.MethodDelete,
		path:   restPath(table),
		query:  q,
	}, nil)
}
