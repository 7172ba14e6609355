package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pratik-mahalle/opsguard/internal/config"
	"github.com/pratik-mahalle/opsguard/internal/pkg/validator"
	"github.com/pratik-mahalle/opsguard/internal/services"
	"github.com/pratik-mahalle/opsguard/internal/testutil"
)

func newBackupRouter(t *testing.T) http.Handler {
	t.Helper()
	root := t.TempDir()
	dbPath := filepath.Join(root, "app.db")
	testutil.NewFileDB(t, dbPath)

	log := testutil.NewTestLogger()
	svc, err := services.NewBackupService(config.BackupConfig{
		Dir:           filepath.Join(root, "backups"),
		RetentionDays: 30,
		Engine:        "sqlite",
		DBPath:        dbPath,
	}, nil, nil, log)
	require.NoError(t, err)

	h := NewBackupHandler(svc, log, validator.New())
	r := chi.NewRouter()
	r.Get("/backups", h.List)
	r.Post("/backups", h.Create)
	r.Get("/backups/{type}/{name}/download", h.Download)
	r.Post("/backups/{type}/{name}/restore", h.Restore)
	r.Delete("/backups/{type}/{name}", h.Delete)
	return r
}

func serve(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	return rr
}

func TestBackupHandler_Flow(t *testing.T) {
	r := newBackupRouter(t)

	rr := serve(r, http.MethodPost, "/backups", `{"type":"database","name":"manual"}`)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	rr = serve(r, http.MethodPost, "/backups", `{"type":"database","name":"manual"}`)
	require.Equal(t, http.StatusConflict, rr.Code, rr.Body.String())
	assert.Contains(t, rr.Body.String(), "already exists")

	rr = serve(r, http.MethodGet, "/backups?type=database", "")
	require.Equal(t, http.StatusOK, rr.Code)
	var list struct {
		Data []struct {
			Name string `json:"name"`
			Size string `json:"size"`
		} `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&list))
	require.Len(t, list.Data, 1)
	assert.Equal(t, "manual", list.Data[0].Name)
	assert.NotEmpty(t, list.Data[0].Size)

	rr = serve(r, http.MethodGet, "/backups/database/manual/download", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Header().Get("Content-Disposition"), "manual.sql.gz")
	assert.NotZero(t, rr.Body.Len())

	rr = serve(r, http.MethodPost, "/backups/database/manual/restore", "")
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = serve(r, http.MethodDelete, "/backups/database/manual", "")
	assert.Equal(t, http.StatusNoContent, rr.Code)

	rr = serve(r, http.MethodDelete, "/backups/database/manual", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestBackupHandler_Rejects(t *testing.T) {
	r := newBackupRouter(t)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		status int
	}{
		{"unknown type", http.MethodPost, "/backups", `{"type":"everything"}`, http.StatusBadRequest},
		{"name with slash", http.MethodPost, "/backups", `{"type":"files","name":"a/b"}`, http.StatusBadRequest},
		{"restore files backup", http.MethodPost, "/backups/files/x/restore", "", http.StatusBadRequest},
		{"restore missing", http.MethodPost, "/backups/database/missing/restore", "", http.StatusNotFound},
		{"download missing", http.MethodGet, "/backups/full/missing/download", "", http.StatusNotFound},
		{"list bad type", http.MethodGet, "/backups?type=weekly", "", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := serve(r, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.status, rr.Code, rr.Body.String())
		})
	}
}
