package main

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sells-group/ecobuild/internal/blueprint"
	"github.com/sells-group/ecobuild/internal/classifier"
	"github.com/sells-group/ecobuild/internal/config"
	"github.com/sells-group/ecobuild/internal/engine"
	"github.com/sells-group/ecobuild/internal/model"
	"github.com/sells-group/ecobuild/internal/refdata"
	"github.com/sells-group/ecobuild/internal/resilience"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

func testServerConfig() config.ServerConfig {
	return config.ServerConfig{
		Port:           8000,
		AllowedOrigins: []string{"*"},
		MaxUploadMB:    1,
	}
}

func testEngine(clf *classifier.Adapter) *engine.Engine {
	store := refdata.NewSnapshot(
		[]model.CityRecord{
			{Name: "Delhi", Latitude: 28.6139, Longitude: 77.2090, PM25: 153, NO2: 58, SO2: 12, CO: 1.9, O3: 35},
			{Name: "Mumbai", Latitude: 19.0760, Longitude: 72.8777, PM25: 73, NO2: 39, SO2: 9, CO: 1.1, O3: 28},
		},
		[]model.SensitiveZone{
			{Name: "Mahim Nature Park", Category: "Wetland", Latitude: 19.0900, Longitude: 72.8750},
		},
	)
	return engine.New(store, config.DefaultEngine(), clf)
}

func testRouter(clf *classifier.Adapter) http.Handler {
	return newRouter(testEngine(clf), testServerConfig())
}

const delhiOfficeJSON = `{
  "city": "Delhi",
  "project_type": "Commercial",
  "land_area_m2": 5000,
  "built_up_area_m2": 12000,
  "floors": 8,
  "daily_water_m3": 90,
  "daily_waste_kg": 400,
  "hazardous_waste_kg_per_month": 3,
  "vehicles_per_day": 600,
  "fuel_consumption_l_per_day": 40,
  "dg_hours_per_day": 2,
  "distance_to_residential_m": 120,
  "distance_to_water_body_km": 1.4,
  "vegetation_removed_percent": 25,
  "green_area_percent": 15,
  "has_rainwater_harvesting": 0,
  "has_solar": 1,
  "energy_efficient_lighting": 0,
  "waste_segregation": 0,
  "stp_present": 1
}`

func do(h http.Handler, method, target string, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestHealthEndpoint(t *testing.T) {
	rr := do(testRouter(nil), http.MethodGet, "/api/health", "")

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Header().Get("Content-Type"), "application/json")
	assert.NotEmpty(t, rr.Header().Get(requestIDHeader))

	var body map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "online", body["status"])
	assert.Equal(t, "EIA EcoBuild Engine", body["system"])
	assert.Equal(t, "none", body["classifier"])
	assert.Equal(t, false, body["classifier_available"])
	assert.NotContains(t, body, "circuit")
}

func TestHealthEndpoint_RemoteCircuit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	remote := classifier.NewRemote(classifier.RemoteOptions{
		URL:     srv.URL,
		Retry:   resilience.RetryConfig{MaxAttempts: 1, InitialBackoff: time.Millisecond, MaxBackoff: time.Millisecond},
		Circuit: resilience.CircuitBreakerConfig{FailureThreshold: 1, ResetTimeout: time.Hour},
	})
	h := testRouter(classifier.NewAdapter(remote))

	health := func() map[string]any {
		rr := do(h, http.MethodGet, "/api/health", "")
		require.Equal(t, http.StatusOK, rr.Code)
		var body map[string]any
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
		return body
	}

	body := health()
	assert.Equal(t, true, body["classifier_available"])
	assert.Equal(t, "closed", body["circuit"])

	rr := do(h, http.MethodPost, "/predict-impact-ml", delhiOfficeJSON)
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)

	assert.Equal(t, "open", health()["circuit"])
}

func TestCalculateImpact(t *testing.T) {
	rr := do(testRouter(nil), http.MethodPost, "/calculate-impact", delhiOfficeJSON)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var res map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &res))
	assert.Equal(t, 39.8, res["overall_score"])
	assert.Equal(t, "Moderate", res["impact_class"])

	breakdown := res["breakdown"].(map[string]any)
	assert.Equal(t, 69.6, breakdown["Air Impact"])
	assert.Equal(t, 0.0, breakdown["Water Impact"])
	assert.Equal(t, 25.0, breakdown["Land Impact"])
	assert.Equal(t, 66.0, breakdown["Waste Impact"])
	assert.Equal(t, 40.0, breakdown["Noise Impact"])

	final := res["final_pollution"].(map[string]any)
	assert.Equal(t, 172.0, final["PM2.5"])
	assert.Equal(t, 104.0, final["NO2"])
	assert.Len(t, res["recommendations"], 2)
}

func TestCalculateImpact_InvalidInput(t *testing.T) {
	body := strings.Replace(delhiOfficeJSON, `"daily_water_m3": 90`, `"daily_water_m3": -5`, 1)
	rr := do(testRouter(nil), http.MethodPost, "/calculate-impact", body)

	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	assert.Contains(t, rr.Body.String(), "daily_water_m3 must be >= 0")
}

func TestCalculateImpact_MalformedJSON(t *testing.T) {
	rr := do(testRouter(nil), http.MethodPost, "/calculate-impact", "not json")

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "invalid request body")
}

func TestCalculateImpact_WrongMethod(t *testing.T) {
	rr := do(testRouter(nil), http.MethodGet, "/calculate-impact", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}

func TestPredictImpactML_Unavailable(t *testing.T) {
	rr := do(testRouter(nil), http.MethodPost, "/predict-impact-ml", delhiOfficeJSON)

	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "ML Model not loaded", body["detail"])
}

func TestPredictImpactML(t *testing.T) {
	forest := &classifier.Forest{
		NFeatures: classifier.FeatureCount,
		Classes:   []int{0, 1, 2},
		Trees: []classifier.Tree{{
			ChildrenLeft:  []int{-1},
			ChildrenRight: []int{-1},
			Feature:       []int{-2},
			Threshold:     []float64{-2},
			Value:         [][]float64{{70, 20, 10}},
		}},
	}
	rr := do(testRouter(classifier.NewAdapter(forest)), http.MethodPost, "/predict-impact-ml", delhiOfficeJSON)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var pred model.ClassifierPrediction
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &pred))
	assert.Equal(t, model.ClassifierPrediction{PredictedClass: 0, Label: "Low", Confidence: 70}, pred)
}

func TestPredictImpactML_InvalidBeforeUnavailable(t *testing.T) {
	body := strings.Replace(delhiOfficeJSON, `"dg_hours_per_day": 2`, `"dg_hours_per_day": 30`, 1)
	rr := do(testRouter(nil), http.MethodPost, "/predict-impact-ml", body)

	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	assert.Contains(t, rr.Body.String(), "dg_hours_per_day must be <= 24")
}

func TestAnalyzeLocation(t *testing.T) {
	tests := []struct {
		name     string
		target   string
		code     int
		location string
		risk     string
	}{
		{"known city", "/analyze-location?city=mumbai", http.StatusOK, "Mahim Nature Park", model.RiskHigh},
		{"unknown city", "/analyze-location?city=Atlantis", http.StatusOK, engine.LocationNotFound, model.RiskUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := do(testRouter(nil), http.MethodGet, tt.target, "")
			require.Equal(t, tt.code, rr.Code)

			var rep model.ProximityReport
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &rep))
			assert.Equal(t, tt.location, rep.NearestLocation)
			assert.Equal(t, tt.risk, rep.Risk)
		})
	}
}

func TestAnalyzeLocation_MissingCity(t *testing.T) {
	rr := do(testRouter(nil), http.MethodGet, "/analyze-location", "")
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
}

func TestAnalyzeLocation_Degraded(t *testing.T) {
	h := newRouter(engine.New(refdata.Degraded{Reason: "missing"}, config.DefaultEngine(), nil), testServerConfig())
	rr := do(h, http.MethodGet, "/analyze-location?city=Delhi", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"nearest_location":"Unknown","distance_km":0,"risk":"Unknown"}`, rr.Body.String())
}

func uploadRequest(t *testing.T, filename, content string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = fw.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/analyze-blueprint", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

const squareDXF = "0\nSECTION\n2\nENTITIES\n" +
	"0\nLINE\n10\n0\n20\n0\n11\n12\n21\n0\n" +
	"0\nLINE\n10\n12\n20\n0\n11\n12\n21\n8\n" +
	"0\nENDSEC\n0\nEOF\n"

func TestAnalyzeBlueprint(t *testing.T) {
	rr := httptest.NewRecorder()
	testRouter(nil).ServeHTTP(rr, uploadRequest(t, "plan.DXF", squareDXF))
	require.Equal(t, http.StatusOK, rr.Code)

	var body struct {
		Success bool           `json:"success"`
		Message string         `json:"message"`
		Data    map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.True(t, body.Success)
	assert.Equal(t, blueprint.MsgSuccess, body.Message)
	assert.Equal(t, 12.0, body.Data["estimated_width_m"])
	assert.Equal(t, 8.0, body.Data["estimated_height_m"])
	assert.Equal(t, 96.0, body.Data["estimated_area_m2"])
	assert.Equal(t, 2.0, body.Data["total_entities"])
	assert.Equal(t, true, body.Data["success"])
}

func TestAnalyzeBlueprint_Rejections(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		content  string
		message  string
		hasData  bool
	}{
		{"dwg", "plan.dwg", "binary", blueprint.ErrDWG.Error(), false},
		{"pdf", "plan.pdf", "%PDF", blueprint.ErrNotDXF.Error(), false},
		{"corrupt dxf", "plan.dxf", "garbage\n", blueprint.MsgCorrupt, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			testRouter(nil).ServeHTTP(rr, uploadRequest(t, tt.filename, tt.content))
			require.Equal(t, http.StatusOK, rr.Code)

			var body map[string]any
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
			assert.Equal(t, false, body["success"])
			assert.Equal(t, tt.message, body["message"])
			if tt.hasData {
				data := body["data"].(map[string]any)
				assert.NotContains(t, data, "entity_counts")
			} else {
				assert.Nil(t, body["data"])
			}
		})
	}
}

func TestAnalyzeBlueprint_MissingFile(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/analyze-blueprint", strings.NewReader(""))
	req.Header.Set("Content-Type", "multipart/form-data; boundary=x")
	rr := httptest.NewRecorder()
	testRouter(nil).ServeHTTP(rr, req)
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
}

func TestCORSPreflight(t *testing.T) {
	req := httptest.NewRequest(http.MethodOptions, "/calculate-impact", nil)
	req.Header.Set("Origin", "http://localhost:5500")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rr := httptest.NewRecorder()
	testRouter(nil).ServeHTTP(rr, req)

	assert.Less(t, rr.Code, 300)
	assert.NotEmpty(t, rr.Header().Get("Access-Control-Allow-Origin"))
}
