package handler

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fieldmap-service/internal/config"
	"fieldmap-service/internal/embed"
	"fieldmap-service/internal/mapping/model"
	"fieldmap-service/internal/mapping/service"
	"fieldmap-service/internal/schema"
)

func newTestEngine(t *testing.T) *service.Engine {
	t.Helper()
	m, err := embed.Load(0)
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.Close() })
	eng, err := service.New(schema.Default(), m, model.DefaultOptions())
	require.NoError(t, err)
	return eng
}

func multipartCSV(t *testing.T, filename, content string, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = fw.Write([]byte(content))
	require.NoError(t, err)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestMapHandler(t *testing.T) {
	cfg := config.Load()
	eng := newTestEngine(t)
	h := Map(cfg, zerolog.Nop(), eng)

	csv := "FirstName,LastName,WorkEmails,xyz_code\nAda,Lovelace,ada@x.com||ada@y.com,q1\n"
	body, ctype := multipartCSV(t, "export.csv", csv, map[string]string{"include_rows": "1"})

	req := httptest.NewRequest(http.MethodPost, "/map", body)
	req.Header.Set("Content-Type", ctype)
	rec := httptest.NewRecorder()
	h(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		Assignments []struct {
			Source     string  `json:"source"`
			Target     string  `json:"target"`
			Confidence float64 `json:"confidence"`
			Method     string  `json:"method"`
		} `json:"assignments"`
		UnmappedSources []string         `json:"unmapped_sources"`
		Encoding        string           `json:"encoding"`
		Delimiter       string           `json:"delimiter"`
		Rows            []map[string]any `json:"rows"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	require.Len(t, resp.Assignments, 3)
	assert.Equal(t, "utf-8", resp.Encoding)
	assert.Equal(t, ",", resp.Delimiter)
	assert.Contains(t, resp.UnmappedSources, "xyz_code")

	targets := map[string]string{}
	for _, a := range resp.Assignments {
		targets[a.Target] = a.Method
		assert.GreaterOrEqual(t, a.Confidence, 0.95)
	}
	assert.Equal(t, "exact", targets["FIRST_NAME"])
	assert.Equal(t, "exact", targets["LAST_NAME"])
	assert.Equal(t, "alias", targets["EMAIL"])

	require.Len(t, resp.Rows, 1)
	assert.Equal(t, "Ada", resp.Rows[0]["FIRST_NAME"])
	assert.Equal(t, []any{"ada@x.com", "ada@y.com"}, resp.Rows[0]["EMAIL"])
}

func TestMapHandlerMissingFile(t *testing.T) {
	cfg := config.Load()
	eng := newTestEngine(t)
	h := Map(cfg, zerolog.Nop(), eng)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/map", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	h(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSchemaHandler(t *testing.T) {
	eng := newTestEngine(t)
	rec := httptest.NewRecorder()
	Schema(eng)(rec, httptest.NewRequest(http.MethodGet, "/schema", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Fields []struct {
			Name string `json:"name"`
		} `json:"fields"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Fields)
}
