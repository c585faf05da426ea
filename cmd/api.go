package main

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/ecobuild/internal/blueprint"
	"github.com/sells-group/ecobuild/internal/classifier"
	"github.com/sells-group/ecobuild/internal/config"
	"github.com/sells-group/ecobuild/internal/engine"
	"github.com/sells-group/ecobuild/internal/model"
)

// maxProjectBytes bounds a project JSON body.
const maxProjectBytes = 1 << 20

// api serves the engine operations over HTTP.
type api struct {
	eng *engine.Engine
	cfg config.ServerConfig
}

// newRouter builds the HTTP handler with its middleware stack.
func newRouter(eng *engine.Engine, sc config.ServerConfig) http.Handler {
	a := &api{eng: eng, cfg: sc}

	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(accessLog)
	r.Use(recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   sc.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{requestIDHeader},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	if sc.RateLimit > 0 {
		r.Use(rateLimit(sc.RateLimit, sc.RateBurst))
	}

	r.Get("/api/health", a.health)
	r.Post("/calculate-impact", a.calculateImpact)
	r.Post("/predict-impact-ml", a.predictImpactML)
	r.Get("/analyze-location", a.analyzeLocation)
	r.Post("/analyze-blueprint", a.analyzeBlueprint)

	return r
}

type healthResponse struct {
	Status              string `json:"status"`
	System              string `json:"system"`
	Classifier          string `json:"classifier"`
	ClassifierAvailable bool   `json:"classifier_available"`
	Circuit             string `json:"circuit,omitempty"`
}

func (a *api) health(w http.ResponseWriter, _ *http.Request) {
	clf := a.eng.Classifier()
	writeResponse(w, http.StatusOK, healthResponse{
		Status:              "online",
		System:              "EIA EcoBuild Engine",
		Classifier:          clf.Backend(),
		ClassifierAvailable: clf.Available(),
		Circuit:             clf.Circuit(),
	})
}

func (a *api) calculateImpact(w http.ResponseWriter, r *http.Request) {
	raw, ok := decodeProject(w, r)
	if !ok {
		return
	}

	res, err := a.eng.ComputeImpact(raw)
	if err != nil {
		writeEngineError(w, r, err)
		return
	}
	writeResponse(w, http.StatusOK, res)
}

func (a *api) predictImpactML(w http.ResponseWriter, r *http.Request) {
	raw, ok := decodeProject(w, r)
	if !ok {
		return
	}

	pred, err := a.eng.PredictImpactML(r.Context(), raw)
	if err != nil {
		writeEngineError(w, r, err)
		return
	}
	writeResponse(w, http.StatusOK, pred)
}

func (a *api) analyzeLocation(w http.ResponseWriter, r *http.Request) {
	city := r.URL.Query().Get("city")
	if city == "" {
		writeDetail(w, http.StatusUnprocessableEntity, "city query parameter is required")
		return
	}
	writeResponse(w, http.StatusOK, a.eng.ResolveCityProximity(city))
}

// blueprintResponse wraps an analysis the way the upload form expects it.
type blueprintResponse struct {
	Success bool              `json:"success"`
	Data    *blueprint.Report `json:"data"`
	Message string            `json:"message"`
}

func (a *api) analyzeBlueprint(w http.ResponseWriter, r *http.Request) {
	maxBytes := int64(a.cfg.MaxUploadMB) << 20
	if maxBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeDetail(w, http.StatusRequestEntityTooLarge, "upload exceeds size limit")
			return
		}
		writeDetail(w, http.StatusUnprocessableEntity, "multipart field \"file\" is required")
		return
	}
	defer file.Close() //nolint:errcheck

	if err := blueprint.CheckFilename(header.Filename); err != nil {
		writeResponse(w, http.StatusOK, blueprintResponse{Message: err.Error()})
		return
	}

	rep := blueprint.Analyze(file)
	zap.L().Info("blueprint analysed",
		zap.String("request_id", requestIDFrom(r.Context())),
		zap.String("filename", header.Filename),
		zap.Int64("size", header.Size),
		zap.Bool("success", rep.Success),
	)
	writeResponse(w, http.StatusOK, blueprintResponse{Success: rep.Success, Data: &rep, Message: rep.Message})
}

// decodeProject reads the project body. It writes the error response itself
// and reports whether the handler should continue.
func decodeProject(w http.ResponseWriter, r *http.Request) (model.RawProjectInput, bool) {
	var raw model.RawProjectInput
	if err := json.NewDecoder(io.LimitReader(r.Body, maxProjectBytes)).Decode(&raw); err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return raw, false
	}
	return raw, true
}

// writeEngineError maps engine errors to status codes.
func writeEngineError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case eris.Is(err, model.ErrInvalidInput):
		writeDetail(w, http.StatusUnprocessableEntity, err.Error())
	case eris.Is(err, classifier.ErrUnavailable):
		zap.L().Warn("classifier unavailable",
			zap.String("request_id", requestIDFrom(r.Context())),
			zap.Error(err),
		)
		writeDetail(w, http.StatusServiceUnavailable, classifier.ErrUnavailable.Error())
	default:
		zap.L().Error("request failed",
			zap.String("request_id", requestIDFrom(r.Context())),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		writeDetail(w, http.StatusInternalServerError, "internal error")
	}
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeResponse(w, status, map[string]string{"detail": detail})
}

func writeResponse(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Debug("write response failed", zap.Error(err))
	}
}
