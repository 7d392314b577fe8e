package web

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/sqlcourse/internal/core"
)

// multipartOverhead is allowed on top of the file size for form fields and boundaries.
const multipartOverhead = 1 << 20

// maxQueryBody bounds the JSON body of an execute request.
const maxQueryBody = 1 << 20

// handleImport accepts a multipart form with name, description and file
// fields, and responds once the dataset is queryable.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	maxSize := s.cfg.Import.MaxFileSize
	r.Body = http.MaxBytesReader(w, r.Body, maxSize+multipartOverhead)

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.respondError(w, r, errFileTooLarge)
			return
		}
		s.respondError(w, r, errNoFile)
		return
	}
	defer r.MultipartForm.RemoveAll() //nolint:errcheck // temp files only

	file, header, err := r.FormFile("file")
	if err != nil {
		s.respondError(w, r, errNoFile)
		return
	}
	defer file.Close()

	if header.Size > maxSize {
		s.respondError(w, r, errFileTooLarge)
		return
	}

	data, err := io.ReadAll(io.LimitReader(file, maxSize+1))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if int64(len(data)) > maxSize {
		s.respondError(w, r, errFileTooLarge)
		return
	}

	summary, err := s.service.Import(r.Context(), core.ImportRequest{
		Name:        r.FormValue("name"),
		Description: r.FormValue("description"),
		CSV:         data,
	})
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	s.respond(w, r, http.StatusOK, summary)
}

// handleListDatasets returns every registered dataset in import order.
func (s *Server) handleListDatasets(w http.ResponseWriter, r *http.Request) {
	s.respond(w, r, http.StatusOK, s.service.List())
}

// datasetDetail is the public view of a dataset. Connection details stay server-side.
type datasetDetail struct {
	ID          string                  `json:"id"`
	Name        string                  `json:"name"`
	Description string                  `json:"description"`
	Backend     string                  `json:"backend"`
	Columns     []core.ColumnDescriptor `json:"columns"`
	RowCount    int64                   `json:"rowCount"`
	Status      core.DatasetStatus      `json:"status"`
	CreatedAt   time.Time               `json:"createdAt"`
}

func (s *Server) handleGetDataset(w http.ResponseWriter, r *http.Request) {
	ds, err := s.service.Get(chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	s.respond(w, r, http.StatusOK, datasetDetail{
		ID:          ds.ID,
		Name:        ds.Name,
		Description: ds.Description,
		Backend:     ds.Backend,
		Columns:     ds.Columns,
		RowCount:    ds.RowCount,
		Status:      ds.Status,
		CreatedAt:   ds.CreatedAt,
	})
}

type executeRequest struct {
	Query string `json:"query"`
}

// handleExecute runs {"query": "..."} against a dataset and responds with
// the rows as an array of objects. With ?envelope=true the full result,
// including column order and rows affected, is returned instead.
func (s *Server) handleExecute(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req executeRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxQueryBody)).Decode(&req); err != nil {
		s.respondError(w, r, errInvalidRequest)
		return
	}

	result, err := s.service.Execute(r.Context(), id, req.Query)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	if r.URL.Query().Get("envelope") == "true" {
		s.respond(w, r, http.StatusOK, result)
		return
	}
	s.respond(w, r, http.StatusOK, result.Rows)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.respond(w, r, http.StatusOK, statusResponse{
		Backend:  s.service.BackendName(),
		Datasets: len(s.service.List()),
		Imports:  s.service.ImportStatus(),
		Time:     time.Now().UTC(),
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok"))
}
