package optimize

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"

	opt "github.com/bneidlinger/cam-whisperer/pkg/optimize"
	"github.com/bneidlinger/cam-whisperer/pkg/pipeline"
	"github.com/bneidlinger/cam-whisperer/pkg/settings"
	"github.com/bneidlinger/cam-whisperer/server/route/optimize/interfaces"
)

func testRouter(t *testing.T) *mux.Router {
	t.Helper()

	fallback := opt.NewFallbackProvider()
	p := &pipeline.Pipeline{
		Orchestrator: opt.NewOrchestrator(fallback, fallback),
	}

	r := mux.NewRouter()
	if err := CreateRoutes(r.PathPrefix("/optimize").Subrouter(), p); err != nil {
		t.Fatalf("CreateRoutes failed: %v", err)
	}
	return r
}

func postOptimize(t *testing.T, r *mux.Router, req interfaces.OptimizeRequest) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(req)
	if err != nil {
		t.Fatalf("Failed to serialize request: %v", err)
	}

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/optimize", bytes.NewBuffer(body)))
	return rec
}

func TestPostOptimize_ReturnsRecommendation(t *testing.T) {
	r := testRouter(t)

	rec := postOptimize(t, r, interfaces.OptimizeRequest{
		Camera: settings.CameraContext{
			ID:      "cam-01",
			Scene:   settings.SceneEntrance,
			Purpose: settings.PurposeFacial,
		},
	})

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	resp := interfaces.OptimizeResponse{}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to de-serialize response: %v", err)
	}
	if resp.Result == nil || !resp.Result.Settings.Complete() {
		t.Errorf("Expected a complete recommendation, got %+v", resp.Result)
	}
	if resp.Result.Provider != opt.FallbackProviderName {
		t.Errorf("Expected the fallback provider, got %s", resp.Result.Provider)
	}
}

func TestPostOptimize_InputErrorsYield400(t *testing.T) {
	r := testRouter(t)

	// Missing scene classification.
	rec := postOptimize(t, r, interfaces.OptimizeRequest{
		Camera: settings.CameraContext{ID: "cam-01", Purpose: settings.PurposeFacial},
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for a missing scene, got %d", rec.Code)
	}

	// Out-of-range bandwidth limit.
	rec = postOptimize(t, r, interfaces.OptimizeRequest{
		Camera: settings.CameraContext{
			ID:      "cam-01",
			Scene:   settings.SceneEntrance,
			Purpose: settings.PurposeFacial,
		},
		Optimization: settings.OptimizationContext{BandwidthLimitMbps: -4},
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for a negative bandwidth limit, got %d", rec.Code)
	}
}

func TestPostOptimize_MalformedBodyYields400(t *testing.T) {
	r := testRouter(t)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/optimize", bytes.NewBufferString("{not json")))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for a malformed body, got %d", rec.Code)
	}
}
