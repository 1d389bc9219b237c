package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"goldcast/internal/config"
	"goldcast/internal/errs"
	"goldcast/internal/scaler"
	"goldcast/internal/service"
	"goldcast/models"
)

type stubSource struct {
	bars []models.Bar
	err  error
}

func (s *stubSource) GetDailyBars(ctx context.Context) ([]models.Bar, error) {
	return s.bars, s.err
}

type stubModel struct {
	value float64
}

func (m *stubModel) Infer(window [][]float64) (float64, error) {
	return m.value, nil
}

func generateTestBars(n int) []models.Bar {
	bars := make([]models.Bar, n)
	for i := 0; i < n; i++ {
		c := 2600 + float64(i)*0.5
		bars[i] = models.Bar{Open: c, High: c + 3, Low: c - 3, Close: c}
	}
	return bars
}

func readyService(t *testing.T, source models.BarSource, predicted float64) *service.Service {
	t.Helper()
	svc := service.New(&config.Config{}, source)

	identity := func(cols int) *scaler.MinMax {
		p := scaler.Params{
			DataMin:      make([]float64, cols),
			DataMax:      make([]float64, cols),
			FeatureRange: [2]float64{0, 1},
		}
		for i := 0; i < cols; i++ {
			p.DataMax[i] = 1
		}
		m, err := scaler.New(p, cols)
		if err != nil {
			t.Fatalf("building identity scaler: %v", err)
		}
		return m
	}
	svc.SetArtifacts(&stubModel{value: predicted}, identity(models.FeatureCount), identity(1))
	return svc
}

func TestHealth(t *testing.T) {
	t.Run("not ready", func(t *testing.T) {
		svc := service.New(&config.Config{}, &stubSource{})
		router := NewRouter(svc)

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

		if rec.Code != http.StatusServiceUnavailable {
			t.Errorf("status = %d, want %d", rec.Code, http.StatusServiceUnavailable)
		}
	})

	t.Run("ready", func(t *testing.T) {
		svc := readyService(t, &stubSource{bars: generateTestBars(49)}, 2650)
		router := NewRouter(svc)

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

		if rec.Code != http.StatusOK {
			t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
		}
		if !strings.Contains(rec.Body.String(), `"ready":true`) {
			t.Errorf("body = %s, want ready:true", rec.Body.String())
		}
	})
}

func TestRoot(t *testing.T) {
	svc := readyService(t, &stubSource{bars: generateTestBars(49)}, 2650)
	router := NewRouter(svc)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if !strings.Contains(rec.Body.String(), "/api/predict") {
		t.Errorf("root payload should list the predict endpoint, got %s", rec.Body.String())
	}
}

func TestPredictSuccess(t *testing.T) {
	bars := generateTestBars(49)
	svc := readyService(t, &stubSource{bars: bars}, 2650)
	router := NewRouter(svc)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/predict", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d, body %s", rec.Code, http.StatusOK, rec.Body.String())
	}

	var result models.PredictionResult
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if result.CurrentPrice != bars[48].Close {
		t.Errorf("current_price = %v, want %v", result.CurrentPrice, bars[48].Close)
	}
	if result.PredictedPrice != 2650 {
		t.Errorf("predicted_price = %v, want 2650", result.PredictedPrice)
	}
	if result.Status != "success" {
		t.Errorf("status = %q, want success", result.Status)
	}
}

func TestPredictErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		source     models.BarSource
		wantStatus int
		wantKind   errs.Kind
	}{
		{
			name:       "insufficient history",
			source:     &stubSource{bars: generateTestBars(30)},
			wantStatus: http.StatusUnprocessableEntity,
			wantKind:   errs.KindInsufficientHistory,
		},
		{
			name:       "transient upstream failure",
			source:     &stubSource{err: errs.New(errs.KindTransient, "upstream unavailable")},
			wantStatus: http.StatusServiceUnavailable,
			wantKind:   errs.KindTransient,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := readyService(t, tt.source, 2650)
			router := NewRouter(svc)

			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/predict", nil))

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}

			var payload struct {
				Status  string `json:"status"`
				Kind    string `json:"kind"`
				Message string `json:"message"`
			}
			if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
				t.Fatalf("decoding error payload: %v", err)
			}
			if payload.Status != "error" {
				t.Errorf("payload status = %q, want error", payload.Status)
			}
			if payload.Kind != string(tt.wantKind) {
				t.Errorf("payload kind = %q, want %q", payload.Kind, tt.wantKind)
			}
			if payload.Message == "" {
				t.Error("payload message is empty")
			}
		})
	}
}

func TestPredictNotReady(t *testing.T) {
	svc := service.New(&config.Config{}, &stubSource{bars: generateTestBars(49)})
	router := NewRouter(svc)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/predict", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusServiceUnavailable)
	}
}

// writeTestArtifacts persists a zero-weight model (whose output is its
// dense bias) together with identity scalers.
func writeTestArtifacts(t *testing.T, denseBias float64) (modelPath, scalerXPath, scalerYPath string) {
	t.Helper()
	dir := t.TempDir()

	model := fmt.Sprintf(`{"input_size":7,"hidden_size":1,`+
		`"kernel":[[0,0,0,0],[0,0,0,0],[0,0,0,0],[0,0,0,0],[0,0,0,0],[0,0,0,0],[0,0,0,0]],`+
		`"recurrent_kernel":[[0,0,0,0]],"bias":[0,0,0,0],"dense_weights":[0],"dense_bias":%v}`, denseBias)
	scalerX := `{"data_min":[0,0,0,0,0,0,0],"data_max":[1,1,1,1,1,1,1],"feature_range":[0,1]}`
	scalerY := `{"data_min":[0],"data_max":[1],"feature_range":[0,1]}`

	modelPath = filepath.Join(dir, "model.json")
	scalerXPath = filepath.Join(dir, "scaler_x.json")
	scalerYPath = filepath.Join(dir, "scaler_y.json")
	for path, content := range map[string]string{
		modelPath:   model,
		scalerXPath: scalerX,
		scalerYPath: scalerY,
	} {
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return modelPath, scalerXPath, scalerYPath
}

func predictRequest(t *testing.T, body string) *http.Request {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/predict", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestPredictMissingArtifactOverride(t *testing.T) {
	svc := readyService(t, &stubSource{bars: generateTestBars(49)}, 2650)
	router := NewRouter(svc)

	body := fmt.Sprintf(`{"model_path":%q}`, filepath.Join(t.TempDir(), "missing.json"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, predictRequest(t, body))

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}

	var payload struct {
		Status string `json:"status"`
		Kind   string `json:"kind"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decoding error payload: %v", err)
	}
	if payload.Status != "error" {
		t.Errorf("payload status = %q, want error", payload.Status)
	}
	if payload.Kind != string(errs.KindConfiguration) {
		t.Errorf("payload kind = %q, want %q", payload.Kind, errs.KindConfiguration)
	}
}

func TestPredictFullOverrideWhileStarting(t *testing.T) {
	// Default artifacts never load, but a request overriding all three
	// paths carries its own and must succeed anyway.
	bars := generateTestBars(49)
	svc := service.New(&config.Config{}, &stubSource{bars: bars})
	router := NewRouter(svc)

	modelPath, scalerXPath, scalerYPath := writeTestArtifacts(t, 2650)
	body := fmt.Sprintf(`{"model_path":%q,"scaler_x_path":%q,"scaler_y_path":%q}`,
		modelPath, scalerXPath, scalerYPath)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, predictRequest(t, body))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d, body %s", rec.Code, http.StatusOK, rec.Body.String())
	}

	var result models.PredictionResult
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if result.PredictedPrice != 2650 {
		t.Errorf("predicted_price = %v, want 2650", result.PredictedPrice)
	}
	if result.CurrentPrice != bars[48].Close {
		t.Errorf("current_price = %v, want %v", result.CurrentPrice, bars[48].Close)
	}
}

func TestPredictChunkedBodyBindsOverrides(t *testing.T) {
	svc := readyService(t, &stubSource{bars: generateTestBars(49)}, 2650)
	router := NewRouter(svc)

	// A chunked body reports ContentLength -1; the override inside it
	// must still bind rather than be silently dropped.
	body := fmt.Sprintf(`{"model_path":%q}`, filepath.Join(t.TempDir(), "missing.json"))
	req := predictRequest(t, body)
	req.ContentLength = -1
	req.TransferEncoding = []string{"chunked"}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d (override ignored?)", rec.Code, http.StatusNotFound)
	}
}

func TestPredictBadBody(t *testing.T) {
	svc := readyService(t, &stubSource{bars: generateTestBars(49)}, 2650)
	router := NewRouter(svc)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/predict", strings.NewReader("{not json"))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}
