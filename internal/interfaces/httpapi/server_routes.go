package httpapi

import "net/http"

func registerSystemRoutes(mux *http.ServeMux, handler *Handler, swaggerEnabled bool) {
	mux.HandleFunc("GET /healthz", handler.Healthz)
	if !swaggerEnabled {
		return
	}

	mux.HandleFunc("GET /openapi.yaml", handler.OpenAPI)
	mux.HandleFunc("GET /docs", handler.SwaggerUI)
	mux.HandleFunc("GET /docs/", handler.SwaggerUI)
}

func registerPublicDomainRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("POST /v1/documents", handler.UploadDocument)
	mux.HandleFunc("GET /v1/documents/{documentID}", handler.GetDocument)
	mux.HandleFunc("POST /v1/documents/{documentID}/extract", handler.ExtractDocument)
	mux.HandleFunc("POST /v1/documents/{documentID}/parse", handler.ParseDocument)
	mux.HandleFunc("POST /v1/documents/{documentID}/ingest", handler.IngestDocument)
	mux.HandleFunc("POST /v1/stats/rebuild", handler.RebuildStats)
	mux.HandleFunc("GET /v1/matches/{matchKey}/documents", handler.ListDocumentsByMatchKey)
	mux.HandleFunc("GET /v1/matches/{matchKey}/stats", handler.ListMatchStats)
	mux.HandleFunc("GET /v1/competitions/{competitionID}/fixtures", handler.ListFixturesByCompetition)
}

func registerInternalJobRoutes(mux *http.ServeMux, handler *Handler, internalJobToken string) {
	mux.Handle("POST /v1/internal/sync/fixtures", RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.SyncFixtures)))
	mux.Handle("POST /v1/internal/athletes", RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.UpsertAthletes)))
	mux.Handle("GET /v1/internal/athletes", RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.ListAthletes)))
	mux.Handle("GET /v1/internal/runs", RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.ListRuns)))
	mux.Handle("GET /v1/internal/runs/stale", RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.ListStaleRuns)))
	mux.Handle("GET /v1/internal/runs/{runID}", RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.GetRun)))
}
