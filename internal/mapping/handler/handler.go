package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"fieldmap-service/internal/config"
	"fieldmap-service/internal/fileio"
	"fieldmap-service/internal/mapping/model"
	"fieldmap-service/internal/mapping/service"
	"fieldmap-service/internal/middleware"
)

// mapResponse is the wire shape of one mapping run.
type mapResponse struct {
	model.MappingResult
	SourceFields []model.SourceField `json:"source_fields"`
	Rows         []map[string]any    `json:"rows,omitempty"`
	Elapsed      string              `json:"elapsed"`
}

// Map returns the POST /map handler: multipart upload in, MappingResult
// out. Matching never fails a request for a single field; only an
// unreadable upload produces a 4xx.
func Map(cfg config.Config, logger zerolog.Logger, eng *service.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		log := logger
		if reqID := middleware.GetRequestID(r); reqID != "" {
			log = logger.With().Str("req_id", reqID).Logger()
		}

		defer r.Body.Close()
		if err := r.ParseMultipartForm(int64(cfg.MaxUploadMB) << 20); err != nil {
			httpError(w, "bad multipart form: "+err.Error(), http.StatusBadRequest)
			return
		}

		file, header, err := r.FormFile("file")
		if err != nil {
			httpError(w, "missing file: "+err.Error(), http.StatusBadRequest)
			return
		}
		defer file.Close()

		table, meta, err := fileio.ReadAny(file, header.Filename)
		if err != nil {
			httpError(w, "failed to read file: "+err.Error(), http.StatusBadRequest)
			return
		}

		opt := eng.Options()
		opt.Threshold = toFloat(r.FormValue("threshold"), opt.Threshold)
		if d := r.FormValue("multi_delim"); d != "" {
			opt.MultiDelim = d
		}

		profiles := ingestProfiles(table)
		sources := service.SourceFields(profiles)

		res, err := eng.Map(r.Context(), sources, opt)
		if err != nil {
			if errors.Is(err, r.Context().Err()) {
				return // client went away mid-request
			}
			httpError(w, "mapping failed: "+err.Error(), http.StatusInternalServerError)
			return
		}

		res.Encoding = meta.Encoding
		res.Delimiter = meta.Delimiter
		res.SkippedRows = meta.SkippedRows
		res.Warnings = append(res.Warnings, meta.Warnings...)

		resp := mapResponse{
			MappingResult: res,
			SourceFields:  sources,
			Elapsed:       time.Since(start).String(),
		}
		if toBool(r.FormValue("include_rows"), false) {
			resp.Rows = eng.ApplyRows(res, table, sources, opt.MultiDelim)
		}

		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.Header().Set("Cache-Control", "no-store")
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(resp); err != nil {
			log.Error().Err(err).Msg("write json")
			return
		}

		log.Info().
			Str("file", header.Filename).
			Int("columns", len(sources)).
			Int("rows", len(table.Rows)).
			Int("assigned", len(res.Assignments)).
			Int("unmapped_sources", len(res.UnmappedSources)).
			Float64("confidence", res.Confidence).
			Dur("elapsed", time.Since(start)).
			Msg("mapping done")
	}
}

// Schema returns the GET /schema handler echoing the loaded target schema.
func Schema(eng *service.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"fields": eng.Schema().Fields,
		})
	}
}

func httpError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
