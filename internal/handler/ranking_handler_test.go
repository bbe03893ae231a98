package handler

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/campushub/admissions-agent-api/internal/service"
	"github.com/campushub/admissions-agent-api/pkg/storage"
)

func newRankingRouter(t *testing.T, withExports bool) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	var exports *service.ExportService
	if withExports {
		files, err := storage.NewLocalStorage(t.TempDir())
		if err != nil {
			t.Fatalf("storage: %v", err)
		}
		signer := storage.NewSignedURLSigner("test-secret", time.Minute)
		exports = service.NewExportService(files, signer, service.ExportConfig{}, nil, nil, nil)
	}
	h := NewRankingHandler(exports)

	r := gin.New()
	inst := r.Group("/institutions/:institutionId")
	inst.POST("/rankings/classify", h.Classify)
	inst.POST("/rankings/export", h.Export)
	r.GET("/rankings/download/:token", h.Download)
	return r
}

func TestRankingHandlerClassify(t *testing.T) {
	r := newRankingRouter(t, false)

	recorder := performJSON(t, r, http.MethodPost, "/institutions/inst-1/rankings/classify",
		`{"applicants":[{"name":"A","apsScore":90},{"name":"B","apsScore":80},{"name":"C","apsScore":70}],"intakeLimit":2}`)

	if recorder.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", recorder.Code, recorder.Body.String())
	}
	var envelope struct {
		Data struct {
			AutoAccept []struct {
				Rank          int    `json:"rank"`
				ApplicantName string `json:"applicantName"`
			} `json:"autoAccept"`
			Waitlist  []json.RawMessage `json:"waitlist"`
			Rejected  []json.RawMessage `json:"rejected"`
			CutoffAPS float64           `json:"cutoffAps"`
		} `json:"data"`
	}
	if err := json.Unmarshal(recorder.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(envelope.Data.AutoAccept) != 2 {
		t.Fatalf("autoAccept = %d, want 2", len(envelope.Data.AutoAccept))
	}
	if envelope.Data.AutoAccept[0].ApplicantName != "A" || envelope.Data.AutoAccept[0].Rank != 1 {
		t.Fatalf("unexpected top entry: %+v", envelope.Data.AutoAccept[0])
	}
	if envelope.Data.CutoffAPS != 80 {
		t.Fatalf("cutoff = %v, want 80", envelope.Data.CutoffAPS)
	}
}

func TestRankingHandlerClassifyRejectsMissingFields(t *testing.T) {
	r := newRankingRouter(t, false)

	recorder := performJSON(t, r, http.MethodPost, "/institutions/inst-1/rankings/classify",
		`{"applicants":[{"name":"A","apsScore":90}]}`)
	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400 for missing intakeLimit", recorder.Code)
	}
}

func TestRankingHandlerExportRequiresCourse(t *testing.T) {
	r := newRankingRouter(t, true)

	recorder := performJSON(t, r, http.MethodPost, "/institutions/inst-1/rankings/export?format=csv",
		`{"applicants":[{"name":"A","apsScore":90}],"intakeLimit":1}`)
	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400 without courseId", recorder.Code)
	}
}

func TestRankingHandlerExportRejectsUnknownFormat(t *testing.T) {
	r := newRankingRouter(t, true)

	recorder := performJSON(t, r, http.MethodPost, "/institutions/inst-1/rankings/export?courseId=course-1&format=xlsx",
		`{"applicants":[{"name":"A","apsScore":90}],"intakeLimit":1}`)
	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400 for xlsx", recorder.Code)
	}
}

func TestRankingHandlerExportAndDownloadRoundTrip(t *testing.T) {
	r := newRankingRouter(t, true)

	recorder := performJSON(t, r, http.MethodPost, "/institutions/inst-1/rankings/export?courseId=course-1&format=csv",
		`{"applicants":[{"name":"A","apsScore":90},{"name":"B","apsScore":70}],"intakeLimit":1}`)
	if recorder.Code != http.StatusOK {
		t.Fatalf("export status = %d, body = %s", recorder.Code, recorder.Body.String())
	}
	var envelope struct {
		Data struct {
			Token string `json:"Token"`
			URL   string `json:"URL"`
		} `json:"data"`
	}
	if err := json.Unmarshal(recorder.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if envelope.Data.Token == "" {
		t.Fatalf("missing download token in %s", recorder.Body.String())
	}

	download := performJSON(t, r, http.MethodGet, "/rankings/download/"+envelope.Data.Token, "")
	if download.Code != http.StatusOK {
		t.Fatalf("download status = %d", download.Code)
	}
	if body := download.Body.String(); body == "" {
		t.Fatalf("empty download body")
	}
}

func TestRankingHandlerDownloadRejectsBadToken(t *testing.T) {
	r := newRankingRouter(t, true)

	recorder := performJSON(t, r, http.MethodGet, "/rankings/download/not-a-token", "")
	if recorder.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", recorder.Code)
	}
}
