package httpapi

import (
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	sonic "github.com/bytedance/sonic"

	"github.com/clubedata/matchsheet/internal/infrastructure/repository/memory"
	"github.com/clubedata/matchsheet/internal/platform/id"
	"github.com/clubedata/matchsheet/internal/platform/logging"
	"github.com/clubedata/matchsheet/internal/platform/objstore"
	"github.com/clubedata/matchsheet/internal/usecase"
)

const testJobToken = "test-job-token"

const testSheet = `FEDERACAO PAULISTA DE FUTEBOL
SAO PAULO FC 2 x 1 GUARANI
TITULARES MANDANTE
1 ROGERIO CENI (GK) (C)
9 LUIS FABIANO
TITULARES VISITANTE
1 JEFFERSON (GK)
10 FULANO (C)
RESERVAS MANDANTE
17 JO
EVENTOS
GOL 1T 23 MANDANTE 9 LUIS FABIANO
GOL PENALTI 2T 10 VISITANTE 10 FULANO
SUBSTITUICAO 2T 15 MANDANTE SAI 9 LUIS FABIANO ENTRA 17 JO`

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()

	docs := memory.NewDocumentRepository()
	events := memory.NewMatchEventRepository()
	stats := memory.NewAthleteStatRepository()
	runs := memory.NewRunLedgerRepository()
	athletes := memory.NewAthleteRepository(nil)
	store := objstore.NewFilesystemStore(t.TempDir())
	ids := id.NewRandomGenerator()
	logger := logging.NewNop()

	extract := func(data []byte) (string, error) {
		return string(data), nil
	}

	documentService := usecase.NewDocumentService(docs, store, extract, ids, "matchsheets", logger)
	ingestService := usecase.NewIngestionService(docs, events, athletes, runs, ids, logger)
	statsService := usecase.NewStatsService(events, stats, docs, runs, ids, logger)
	athleteService := usecase.NewAthleteService(athletes, ids)
	runService := usecase.NewRunService(runs)

	handler := NewHandler(documentService, ingestService, statsService, athleteService, nil, runService, logger)
	return NewRouter(handler, logger, false, nil, testJobToken)
}

func doJSON(t *testing.T, router http.Handler, method string, target string, body string) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder, out any) {
	t.Helper()

	envelope := struct {
		Data any `json:"data"`
	}{Data: out}
	if err := sonic.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode response envelope: %v", err)
	}
}

func TestRouter_DocumentPipeline(t *testing.T) {
	router := newTestRouter(t)

	encoded := base64.StdEncoding.EncodeToString([]byte(testSheet))
	uploadBody := `{"scope":"PROD","match_id":"789","file_name":"sumula.pdf","data_base64":"` + encoded + `"}`

	rec := doJSON(t, router, http.MethodPost, "/v1/documents", uploadBody)
	if rec.Code != http.StatusCreated {
		t.Fatalf("upload: expected 201, got %d body=%s", rec.Code, rec.Body.String())
	}

	var doc documentDTO
	decodeData(t, rec, &doc)
	if doc.ID == "" || doc.MatchKey != "PROD:789" || doc.Status != "UPLOADED" {
		t.Fatalf("unexpected uploaded document: %+v", doc)
	}

	rec = doJSON(t, router, http.MethodPost, "/v1/documents/"+doc.ID+"/extract", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("extract: expected 200, got %d body=%s", rec.Code, rec.Body.String())
	}
	decodeData(t, rec, &doc)
	if doc.Status != "PARSED_RAW" || !doc.HasRawText {
		t.Fatalf("unexpected document after extract: %+v", doc)
	}

	rec = doJSON(t, router, http.MethodPost, "/v1/documents/"+doc.ID+"/parse", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("parse: expected 200, got %d body=%s", rec.Code, rec.Body.String())
	}
	decodeData(t, rec, &doc)
	if doc.Status != "CANONICAL" || !doc.HasCanonical || doc.ParserVersion == "" {
		t.Fatalf("unexpected document after parse: %+v", doc)
	}

	rec = doJSON(t, router, http.MethodPost, "/v1/documents/"+doc.ID+"/ingest", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("ingest: expected 200, got %d body=%s", rec.Code, rec.Body.String())
	}
	var ingest ingestResultDTO
	decodeData(t, rec, &ingest)
	if ingest.MatchKey != "PROD:789" || ingest.Dropped != 0 {
		t.Fatalf("unexpected ingest result: %+v", ingest)
	}
	if ingest.Inserted["lineups"] == 0 || ingest.Inserted["goals"] == 0 {
		t.Fatalf("expected lineups and goals inserted: %+v", ingest.Inserted)
	}

	rec = doJSON(t, router, http.MethodPost, "/v1/stats/rebuild", `{"match_key":"PROD:789"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("rebuild: expected 200, got %d body=%s", rec.Code, rec.Body.String())
	}
	var rebuild rebuildResultDTO
	decodeData(t, rec, &rebuild)
	if rebuild.Athletes == 0 {
		t.Fatalf("expected rebuilt athletes, got %+v", rebuild)
	}

	rec = doJSON(t, router, http.MethodGet, "/v1/matches/PROD:789/stats", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("list stats: expected 200, got %d body=%s", rec.Code, rec.Body.String())
	}
	var rows []athleteStatDTO
	decodeData(t, rec, &rows)
	if len(rows) != rebuild.Athletes {
		t.Fatalf("expected %d stat rows, got %d", rebuild.Athletes, len(rows))
	}
	for _, row := range rows {
		if row.Source != "DERIVED" {
			t.Fatalf("expected DERIVED source, got %+v", row)
		}
	}
}

func TestRouter_UploadRejectsBadScope(t *testing.T) {
	router := newTestRouter(t)

	encoded := base64.StdEncoding.EncodeToString([]byte("x"))
	body := `{"scope":"STAGING","match_id":"1","data_base64":"` + encoded + `"}`

	rec := doJSON(t, router, http.MethodPost, "/v1/documents", body)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d body=%s", rec.Code, rec.Body.String())
	}
}

func TestRouter_ParseBeforeExtractConflicts(t *testing.T) {
	router := newTestRouter(t)

	encoded := base64.StdEncoding.EncodeToString([]byte(testSheet))
	body := `{"scope":"SANDBOX","sandbox_match_id":"55","data_base64":"` + encoded + `"}`

	rec := doJSON(t, router, http.MethodPost, "/v1/documents", body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("upload: expected 201, got %d", rec.Code)
	}
	var doc documentDTO
	decodeData(t, rec, &doc)

	rec = doJSON(t, router, http.MethodPost, "/v1/documents/"+doc.ID+"/parse", "")
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d body=%s", rec.Code, rec.Body.String())
	}
}

func TestRouter_InternalRunsRequireToken(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/v1/internal/runs", "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/v1/internal/runs", nil)
	req.Header.Set("X-Internal-Job-Token", testJobToken)
	authed := httptest.NewRecorder()
	router.ServeHTTP(authed, req)
	if authed.Code != http.StatusOK {
		t.Fatalf("expected 200 with token, got %d body=%s", authed.Code, authed.Body.String())
	}
}

func TestRouter_InternalAthleteRoster(t *testing.T) {
	router := newTestRouter(t)

	body := `{"athletes":[{"team":"sao paulo fc","name":"ROGERIO CENI","shirt_number":1}]}`
	req := httptest.NewRequest(http.MethodPost, "/v1/internal/athletes", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Internal-Job-Token", testJobToken)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("upsert athletes: expected 200, got %d body=%s", rec.Code, rec.Body.String())
	}
	var upserted map[string]int
	decodeData(t, rec, &upserted)
	if upserted["upserted"] != 1 {
		t.Fatalf("unexpected upsert count: %+v", upserted)
	}

	req = httptest.NewRequest(http.MethodGet, "/v1/internal/athletes?teams=sao+paulo+fc", nil)
	req.Header.Set("X-Internal-Job-Token", testJobToken)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("list athletes: expected 200, got %d body=%s", rec.Code, rec.Body.String())
	}
	var roster []athleteDTO
	decodeData(t, rec, &roster)
	if len(roster) != 1 || roster[0].Name != "ROGERIO CENI" || roster[0].ID == "" {
		t.Fatalf("unexpected roster: %+v", roster)
	}
}

func TestRouter_MissingDocumentIs404(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/v1/documents/nope", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d body=%s", rec.Code, rec.Body.String())
	}
}
