package sheets

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bblibapp/bblib-server/internal/errors"
	"github.com/bblibapp/bblib-server/internal/logger"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Config{Writer: io.Discard, Level: slog.LevelError})
}

func TestFetchInventory(t *testing.T) {
	var gotReq *http.Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotReq = r.Clone(context.Background())
		w.Write([]byte("ID,TITLE,CLASS,GENRE\n1,Song A,Pop,Rock\n2,Song B,Jazz,\n"))
	}))
	defer srv.Close()

	c := NewClient(testLogger())
	inv, err := c.FetchInventory(context.Background(), srv.URL)
	require.NoError(t, err)

	require.Len(t, inv.Items, 2)
	assert.Equal(t, []string{"ID", "TITLE", "CLASS", "GENRE"}, inv.Columns)
	assert.Equal(t, "Song A", inv.Items[0].Title)
	assert.Equal(t, "Unknown", inv.Items[1].Genre)
	assert.NotEmpty(t, inv.Text)

	require.NotNil(t, gotReq)
	assert.NotEmpty(t, gotReq.URL.Query().Get("t"), "cache-buster param missing")
	assert.Equal(t, "no-cache", gotReq.Header.Get("Cache-Control"))
}

func TestFetchResponses(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("TS,EMAIL,ID,CHOICE,COMMENT\n2026-01-02,Alice@Example.com,1,WANT,\n"))
	}))
	defer srv.Close()

	c := NewClient(testLogger())
	log, err := c.FetchResponses(context.Background(), srv.URL)
	require.NoError(t, err)

	require.Len(t, log.Responses, 1)
	assert.Equal(t, "alice@example.com", log.Responses[0].Email)
	assert.Equal(t, "WANT", log.Responses[0].Choice)
}

func TestFetchRoles(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("email,role\nBoss@Example.com,Admin\n,member\n"))
	}))
	defer srv.Close()

	c := NewClient(testLogger())
	rs, err := c.FetchRoles(context.Background(), srv.URL)
	require.NoError(t, err)

	assert.Equal(t, map[string]string{"boss@example.com": "admin"}, rs.Roles)
}

func TestFetch_HTMLBodyMeansNotPublic(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<!DOCTYPE html><html><body>Sign in</body></html>"))
	}))
	defer srv.Close()

	c := NewClient(testLogger())
	_, err := c.FetchInventory(context.Background(), srv.URL)

	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrNotPublic))
}

func TestFetch_NonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewClient(testLogger())
	_, err := c.FetchResponses(context.Background(), srv.URL)

	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrFetchFailed))
	assert.Contains(t, err.Error(), "404")
}

func TestFetch_InvalidURL(t *testing.T) {
	c := NewClient(testLogger())
	_, err := c.FetchInventory(context.Background(), "http://bad url with spaces")

	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrValidation))
}

func TestIsProbablyHTML(t *testing.T) {
	for _, html := range []string{
		"<!DOCTYPE html><html>",
		"  \n<html lang=\"en\">",
		"<HEAD><title>x</title>",
		"<body>oops</body>",
	} {
		assert.True(t, isProbablyHTML(html), html)
	}

	for _, csv := range []string{
		"ID,TITLE\n1,Song A\n",
		"",
		"ID,NOTES\n1,\"mentions <b>bold</b> markup\"\n",
	} {
		assert.False(t, isProbablyHTML(csv), csv)
	}
}
