package cli

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/dmitrijs2005/gopanel/internal/client/models"
	"github.com/dmitrijs2005/gopanel/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetSimpleText(t *testing.T) {
	in := bufio.NewReader(strings.NewReader("hello world\n"))
	var out bytes.Buffer
	got, err := GetSimpleText(in, "Name?", &out)
	if err != nil || got != "hello world" {
		t.Fatalf("got %q, err=%v", got, err)
	}
	assert.Equal(t, "Name?\n> ", out.String())
}

func TestGetSimpleTextEOF(t *testing.T) {
	in := bufio.NewReader(strings.NewReader("lastline"))
	var out bytes.Buffer
	got, err := GetSimpleText(in, "Name?", &out)
	if err != nil || got != "lastline" {
		t.Fatalf("got %q, err=%v", got, err)
	}

	_, err = GetSimpleText(bufio.NewReader(strings.NewReader("")), "Name?", &out)
	require.Error(t, err)
}

func TestGetPassword(t *testing.T) {
	old := readPassword
	defer func() { readPassword = old }()

	readPassword = func(int) ([]byte, error) { return []byte("s3cret"), nil }
	var out bytes.Buffer
	pw, err := GetPassword(&out)
	require.NoError(t, err)
	assert.Equal(t, "s3cret", string(pw))
	assert.Equal(t, "Enter password: \n", out.String())

	readPassword = func(int) ([]byte, error) { return nil, errors.New("boom") }
	_, err = GetPassword(&out)
	require.Error(t, err)
}

func TestParseAssignments(t *testing.T) {
	rec, err := ParseAssignments([]string{
		"name=Desk lamp",
		"price=19.5",
		"qty=3",
		"active=true",
		"note=null",
		`code="007"`,
		`tags=["a","b"]`,
		`dims={"w":1}`,
		"expr=1 2",
		"empty=",
		"formula=a=b",
	})
	require.NoError(t, err)

	assert.Equal(t, models.Record{
		"name":    "Desk lamp",
		"price":   json.Number("19.5"),
		"qty":     json.Number("3"),
		"active":  true,
		"note":    nil,
		"code":    "007",
		"tags":    []any{"a", "b"},
		"dims":    map[string]any{"w": json.Number("1")},
		"expr":    "1 2",
		"empty":   "",
		"formula": "a=b",
	}, rec)
}

func TestParseAssignments_Errors(t *testing.T) {
	for _, arg := range []string{"novalue", "=x"} {
		_, err := ParseAssignments([]string{arg})
		require.ErrorIs(t, err, common.ErrIncorrectAssignment, arg)
	}

	rec, err := ParseAssignments(nil)
	require.NoError(t, err)
	assert.Empty(t, rec)
}
