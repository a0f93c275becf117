package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/avisingh/tradescan/internal/analysis"
	"github.com/avisingh/tradescan/internal/dataset"
	"github.com/avisingh/tradescan/internal/model"
	"github.com/avisingh/tradescan/internal/observability"
	"github.com/avisingh/tradescan/internal/pipeline"
)

const previewRows = 20

// Category is one entry of the fixed catalog the UI scrapes from. The ID
// is URL-safe; Query is the marketplace search phrase.
type Category struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Query   string `json:"query"`
	Samples bool   `json:"sample_data_available"`
}

var categoryCatalog = []Category{
	{ID: "industrial_machinery", Name: "Industrial Machinery", Query: "industrial machinery", Samples: true},
	{ID: "electronic_components", Name: "Electronic Components", Query: "electronic components", Samples: true},
	{ID: "textile_fabrics", Name: "Textile Fabrics", Query: "textile fabrics", Samples: true},
	{ID: "plastic_raw_materials", Name: "Plastic Raw Materials", Query: "plastic raw materials", Samples: true},
	{ID: "safety_equipment", Name: "Safety Equipment", Query: "safety equipment", Samples: true},
}

func (s *Server) handleListSources(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"sources": s.registry.List(),
	})
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success":    true,
		"categories": categoryCatalog,
	})
}

type scrapeRequest struct {
	Categories          []string `json:"categories"`
	Sources             []string `json:"sources"`
	ProductsPerCategory int      `json:"products_per_category"`
}

func (s *Server) handleScrape(w http.ResponseWriter, r *http.Request) {
	var req scrapeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if len(req.Categories) == 0 {
		respondError(w, http.StatusBadRequest, "No categories specified")
		return
	}

	categories := make([]string, 0, len(req.Categories))
	for _, id := range req.Categories {
		categories = append(categories, categoryQuery(id))
	}

	sources, sampleCount := s.resolveSources(req.Sources)

	err := s.controller.Start(pipeline.RunRequest{
		Categories:   categories,
		Sources:      sources,
		MaxPerSource: req.ProductsPerCategory,
		SampleCount:  sampleCount,
	})
	if err == pipeline.ErrRunInProgress {
		respondError(w, http.StatusConflict, "Scraping already in progress")
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Scraping started",
	})
}

// resolveSources splits the "sample" pseudo-source from real registry ids.
// Empty input means all active sources plus synthetic backfill.
func (s *Server) resolveSources(requested []string) ([]string, int) {
	if len(requested) == 0 {
		var ids []string
		for _, src := range s.registry.List() {
			if src.Status == "active" {
				ids = append(ids, src.ID)
			}
		}
		return ids, s.sampleCount
	}

	var ids []string
	sampleCount := 0
	for _, id := range requested {
		if id == "sample" {
			sampleCount = s.sampleCount
			continue
		}
		ids = append(ids, id)
	}
	return ids, sampleCount
}

// categoryQuery maps a catalog id to its search phrase; unknown ids fall
// back to the underscore-to-space form so ad-hoc categories still work.
func categoryQuery(id string) string {
	for _, c := range categoryCatalog {
		if c.ID == id {
			return c.Query
		}
	}
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(id)), "_", " ")
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	st := s.controller.Tracker().Snapshot()
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"status":  st,
	})
}

func (s *Server) handleListDatasets(w http.ResponseWriter, r *http.Request) {
	files, err := s.reader.List()
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to list datasets: "+err.Error())
		return
	}
	if files == nil {
		files = []dataset.FileInfo{}
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success":  true,
		"datasets": files,
	})
}

func (s *Server) handleDataPreview(w http.ResponseWriter, r *http.Request) {
	filename := chi.URLParam(r, "filename")
	records, err := s.reader.Load(filename)
	if err != nil {
		respondError(w, http.StatusNotFound, "Dataset not found: "+filename)
		return
	}

	categories := make(map[string]int)
	for _, rec := range records {
		categories[rec.Category]++
	}

	preview := records
	if len(preview) > previewRows {
		preview = preview[:previewRows]
	}
	if preview == nil {
		preview = []model.Record{}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success":    true,
		"filename":   filename,
		"total_rows": len(records),
		"categories": categories,
		"records":    preview,
	})
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	filename := chi.URLParam(r, "filename")
	path, err := s.reader.Resolve(filename)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid filename")
		return
	}

	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	http.ServeFile(w, r, path)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	latest, err := s.reader.Latest(".json")
	if err == nil && latest == "" {
		latest, err = s.reader.Latest(".csv")
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to find datasets: "+err.Error())
		return
	}

	var report analysis.Report
	if latest != "" {
		records, err := s.reader.Load(latest)
		if err != nil {
			respondError(w, http.StatusInternalServerError, "Failed to load dataset: "+err.Error())
			return
		}
		report = analysis.Build(records)
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success":  true,
		"filename": latest,
		"stats":    report,
	})
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"metrics": observability.Snapshot(),
	})
}
