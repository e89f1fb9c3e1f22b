package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"spms_backend/internal/pipeline/domain"
	"spms_backend/internal/pipeline/gates"
	"spms_backend/internal/pipeline/repository"
	"spms_backend/internal/pipeline/service"
	"spms_backend/platform/apperr"
	"spms_backend/platform/logger"
	"spms_backend/platform/validator"

	"github.com/gin-gonic/gin"
)

type stubRepo struct {
	deal     repository.Deal
	analysis map[string]string
}

func (s *stubRepo) Create(_ context.Context, _ repository.CreateDealParams) (repository.Deal, error) {
	return s.deal, nil
}

func (s *stubRepo) GetByID(_ context.Context, id int) (repository.Deal, error) {
	if id != s.deal.ID {
		return repository.Deal{}, apperr.NotFound("deal not found")
	}
	return s.deal, nil
}

func (s *stubRepo) List(_ context.Context) ([]repository.Deal, error) {
	return []repository.Deal{s.deal}, nil
}

func (s *stubRepo) ListByStages(_ context.Context, _ []string) ([]repository.Deal, error) {
	return nil, nil
}

func (s *stubRepo) UpdateStage(_ context.Context, _ int, stage string) (repository.Deal, error) {
	s.deal.Stage = stage
	s.deal.StageChangedAt = time.Now()
	return s.deal, nil
}

func (s *stubRepo) FindOrCreate(_ context.Context, _, _, _ string) (repository.Deal, error) {
	return s.deal, nil
}

func (s *stubRepo) GetAnalysis(_ context.Context, _ int) (repository.Analysis, error) {
	return repository.Analysis{}, apperr.NotFound("analysis not found")
}

func (s *stubRepo) SaveAnalysis(_ context.Context, _ repository.Analysis) error { return nil }

func (s *stubRepo) AnalysisFields(_ context.Context, _ int) (map[string]string, error) {
	if s.analysis == nil {
		return map[string]string{}, nil
	}
	return s.analysis, nil
}

var gateRules = gates.Rules{
	"L7": {
		{Field: "metrics", Label: "Metrics"},
		{Field: "champion", Label: "Champion"},
	},
}

func newTestRouter(repo *stubRepo) *gin.Engine {
	gin.SetMode(gin.TestMode)
	svc := service.New(repo, gates.NewEvaluator(gateRules, repo), nil, logger.New("test"))
	h := New(svc, validator.New())

	engine := gin.New()
	h.RegisterRoutes(engine.Group("/api/v1/deals"))
	return engine
}

func doTransition(t *testing.T, engine *gin.Engine, dealID string, body any) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/deals/"+dealID+"/transition", bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	return rec
}

func reviewDeal() *stubRepo {
	return &stubRepo{deal: repository.Deal{
		ID:             1,
		Name:           "ERP rollout",
		Stage:          domain.StageReview,
		StageChangedAt: time.Now(),
		Priority:       "Medium",
		CreatedAt:      time.Now(),
		UpdatedAt:      time.Now(),
	}}
}

func TestTransitionGateBlockedMapsTo422(t *testing.T) {
	repo := reviewDeal()
	repo.analysis = map[string]string{"metrics": "20% cost reduction"}
	engine := newTestRouter(repo)

	rec := doTransition(t, engine, "1", gin.H{"targetStage": "L7"})

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422 (body: %s)", rec.Code, rec.Body.String())
	}

	var resp struct {
		Details struct {
			MissingFields []string `json:"missingFields"`
		} `json:"details"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Details.MissingFields) != 1 || resp.Details.MissingFields[0] != "Champion" {
		t.Errorf("missingFields = %v, want [Champion]", resp.Details.MissingFields)
	}
}

func TestTransitionIllegalTargetMapsTo409(t *testing.T) {
	engine := newTestRouter(reviewDeal())

	rec := doTransition(t, engine, "1", gin.H{"targetStage": "L2"})

	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409 (body: %s)", rec.Code, rec.Body.String())
	}

	var resp struct {
		Details struct {
			CurrentStage  string   `json:"currentStage"`
			AllowedStages []string `json:"allowedStages"`
		} `json:"details"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Details.CurrentStage != domain.StageReview {
		t.Errorf("currentStage = %s, want %s", resp.Details.CurrentStage, domain.StageReview)
	}
	want := []string{domain.StageSigned, domain.StageLost, domain.StageOnHold}
	if len(resp.Details.AllowedStages) != len(want) {
		t.Errorf("allowedStages = %v, want %v", resp.Details.AllowedStages, want)
	}
}

func TestTransitionForcedSigningReturnsPostSaleDeal(t *testing.T) {
	engine := newTestRouter(reviewDeal())

	rec := doTransition(t, engine, "1", gin.H{"targetStage": "L7", "force": true})

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body: %s)", rec.Code, rec.Body.String())
	}

	var resp struct {
		Stage string `json:"stage"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Stage != domain.StagePlanning {
		t.Errorf("stage = %s, want %s after signing chain", resp.Stage, domain.StagePlanning)
	}
}

func TestTransitionUnknownDealMapsTo404(t *testing.T) {
	engine := newTestRouter(reviewDeal())

	rec := doTransition(t, engine, "99", gin.H{"targetStage": "L7", "force": true})

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestTransitionInvalidDealIDMapsTo400(t *testing.T) {
	engine := newTestRouter(reviewDeal())

	rec := doTransition(t, engine, "abc", gin.H{"targetStage": "L7"})

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}
