package cli

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"slices"

	"github.com/dmitrijs2005/gopanel/internal/client/attachments"
	"github.com/dmitrijs2005/gopanel/internal/client/client"
	"github.com/dmitrijs2005/gopanel/internal/client/models"
)

// attachmentsColumn is the record field that collects attachment keys.
const attachmentsColumn = "attachments"

// Attach uploads a local file and appends its object key to the record's
// attachments field. The record is re-read from the backend first so keys
// added elsewhere are kept.
func (a *App) Attach(ctx context.Context, args []string) error {
	if len(args) != 3 {
		return usage("attach <table> <id> <file>")
	}
	if a.files == nil {
		return attachments.ErrNotConfigured
	}
	table, id, path := args[0], args[1], args[2]

	c, err := a.collection(table)
	if err != nil {
		return err
	}
	if err := c.FetchAll(ctx); err != nil {
		return err
	}
	i := slices.IndexFunc(c.Items(), func(r models.Record) bool { return models.SameID(r.ID(), id) })
	if i < 0 {
		return fmt.Errorf("%s %s: %w", table, id, client.ErrNotFound)
	}
	keys := attachmentKeys(c.Items()[i][attachmentsColumn])

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	key := attachments.ObjectKey(table, id, path)
	if err := a.files.Upload(ctx, key, f, mime.TypeByExtension(filepath.Ext(path))); err != nil {
		return err
	}

	keys = append(keys, key)
	if _, err := c.Update(ctx, id, models.Record{attachmentsColumn: keys}); err != nil {
		return errors.Join(fmt.Errorf("uploaded %s but could not link it", key), err)
	}

	fmt.Fprintln(a.out, "Attached", key)
	return nil
}

// attachmentKeys copies the keys held in an attachments value. Anything
// other than a list of keys counts as none.
func attachmentKeys(v any) []any {
	switch keys := v.(type) {
	case []any:
		return slices.Clone(keys)
	case []string:
		out := make([]any, len(keys))
		for i, k := range keys {
			out[i] = k
		}
		return out
	}
	return nil
}

// URL prints a presigned download link for an attachment key, or with
// "put" an upload link that other tools can PUT the file to.
func (a *App) URL(ctx context.Context, args []string) error {
	presign := a.presignGet
	switch {
	case len(args) == 2 && args[0] == "put":
		presign, args = a.presignPut, args[1:]
	case len(args) != 1:
		return usage("url [put] <key>")
	}
	if a.files == nil {
		return attachments.ErrNotConfigured
	}
	u, err := presign(ctx, args[0])
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, u)
	return nil
}

func (a *App) presignGet(ctx context.Context, key string) (string, error) {
	return a.files.PresignGet(ctx, key)
}

func (a *App) presignPut(ctx context.Context, key string) (string, error) {
	return a.files.PresignPut(ctx, key)
}
