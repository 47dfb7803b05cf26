package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"

	"github.com/albapepper/courtstats/internal/api/respond"
	"github.com/albapepper/courtstats/internal/cache"
	"github.com/albapepper/courtstats/internal/schema"
	"github.com/albapepper/courtstats/internal/storage"
)

const uploadField = "file"

// CreateTable creates a table from an uploaded file's inferred schema.
// @Summary Create table from file
// @Description Samples the uploaded CSV, infers column types and runs CREATE TABLE IF NOT EXISTS. The table name defaults to the file's base name.
// @Tags tables
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "CSV file with a header row"
// @Param table formData string false "Table name"
// @Param demo query bool false "Use the demo database"
// @Success 201 {object} ingest.CreateResult
// @Failure 400 {object} respond.ErrorResponse
// @Router /api/v1/tables [post]
func (h *Handler) CreateTable(w http.ResponseWriter, r *http.Request) {
	repo, demo, err := h.store(r)
	if err != nil {
		h.writeErr(w, err)
		return
	}
	path, table, cleanup, err := h.saveUpload(w, r)
	if err != nil {
		h.writeErr(w, err)
		return
	}
	defer cleanup()

	res, err := h.loader(repo).CreateTable(r.Context(), path, table)
	if err != nil {
		h.writeErr(w, err)
		return
	}
	h.invalidate(res.Table.Name, demo)
	respond.WriteJSONObject(w, http.StatusCreated, res)
}

// LoadRows bulk-loads an uploaded file into an existing table.
// @Summary Bulk load rows
// @Description Streams the uploaded CSV into the table in one transaction. Any bad row rolls back the whole load.
// @Tags tables
// @Accept multipart/form-data
// @Produce json
// @Param table path string true "Table name"
// @Param file formData file true "CSV file whose header names the table's columns"
// @Param demo query bool false "Use the demo database"
// @Success 200 {object} ingest.LoadResult
// @Failure 404 {object} respond.ErrorResponse
// @Failure 422 {object} respond.ErrorResponse
// @Router /api/v1/tables/{table}/rows [post]
func (h *Handler) LoadRows(w http.ResponseWriter, r *http.Request) {
	repo, demo, err := h.store(r)
	if err != nil {
		h.writeErr(w, err)
		return
	}
	file, _, err := h.openUpload(w, r)
	if err != nil {
		h.writeErr(w, err)
		return
	}
	defer file.Close()

	table := chi.URLParam(r, "table")
	res, err := h.loader(repo).Load(r.Context(), file, table)
	if err != nil {
		h.writeErr(w, err)
		return
	}
	h.invalidate(res.Table, demo)
	respond.WriteJSONObject(w, http.StatusOK, res)
}

// Import creates a table from an uploaded file and loads it.
// @Summary Import file
// @Description Create-from-file followed by a bulk load. The phases commit separately.
// @Tags tables
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "CSV file with a header row"
// @Param table formData string false "Table name"
// @Param demo query bool false "Use the demo database"
// @Success 201 {object} ingest.ImportResult
// @Failure 422 {object} respond.ErrorResponse
// @Router /api/v1/imports [post]
func (h *Handler) Import(w http.ResponseWriter, r *http.Request) {
	repo, demo, err := h.store(r)
	if err != nil {
		h.writeErr(w, err)
		return
	}
	path, table, cleanup, err := h.saveUpload(w, r)
	if err != nil {
		h.writeErr(w, err)
		return
	}
	defer cleanup()

	res, err := h.loader(repo).Import(r.Context(), path, table)
	if res.Created.Table.Name != "" {
		h.invalidate(res.Created.Table.Name, demo)
	}
	if err != nil {
		h.writeErr(w, err)
		return
	}
	respond.WriteJSONObject(w, http.StatusCreated, res)
}

// GetColumns returns a table's introspected column layout.
// @Summary Table columns
// @Tags tables
// @Produce json
// @Param table path string true "Table name"
// @Param demo query bool false "Use the demo database"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} respond.ErrorResponse
// @Router /api/v1/tables/{table}/columns [get]
func (h *Handler) GetColumns(w http.ResponseWriter, r *http.Request) {
	repo, demo, err := h.store(r)
	if err != nil {
		h.writeErr(w, err)
		return
	}
	table := schema.SanitizeIdentifier(chi.URLParam(r, "table"))

	h.writeCached(w, r, cacheKey(cache.ColumnsKey(table), demo), cache.TTLColumns, func() ([]byte, error) {
		cols, err := h.loader(repo).Columns(r.Context(), table)
		if err != nil {
			return nil, err
		}
		if len(cols) == 0 {
			return nil, fmt.Errorf("%w: %s", storage.ErrNoSuchTable, table)
		}
		return json.Marshal(map[string]any{"table": table, "columns": cols})
	})
}

func (h *Handler) invalidate(table string, demo bool) {
	h.Cache.InvalidatePrefix(cacheKey(cache.ColumnsKey(table), demo))
	h.Cache.InvalidatePrefix(cacheKey(cache.HistoryKeyPrefix(table), demo))
}

var errNoUpload = errors.New("multipart field \"file\" is required")

func (h *Handler) openUpload(w http.ResponseWriter, r *http.Request) (multipart.File, *multipart.FileHeader, error) {
	maxBytes := int64(h.cfg.MaxUploadMB) << 20
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		return nil, nil, fmt.Errorf("%w: %w", errNoUpload, err)
	}
	file, header, err := r.FormFile(uploadField)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", errNoUpload, err)
	}
	return file, header, nil
}

// saveUpload copies the uploaded file into UploadDir, since create-from-file
// reads the file twice (sample, then load). The table name comes from the
// form, falling back to the uploaded file's base name.
func (h *Handler) saveUpload(w http.ResponseWriter, r *http.Request) (path, table string, cleanup func(), err error) {
	file, header, err := h.openUpload(w, r)
	if err != nil {
		return "", "", nil, err
	}
	defer file.Close()

	table = r.FormValue("table")
	if table == "" {
		table = schema.TableNameFromPath(header.Filename)
	}

	tmp, err := os.CreateTemp(h.cfg.UploadDir, "upload-*.csv")
	if err != nil {
		return "", "", nil, fmt.Errorf("stage upload: %w", err)
	}
	cleanup = func() { _ = os.Remove(tmp.Name()) }

	if _, err := io.Copy(tmp, file); err != nil {
		tmp.Close()
		cleanup()
		return "", "", nil, fmt.Errorf("stage upload: %w", err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return "", "", nil, fmt.Errorf("stage upload: %w", err)
	}
	return tmp.Name(), table, cleanup, nil
}
