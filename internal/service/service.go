// Package service orchestrates one prediction request end to end:
// fetch bars, compute indicators, build the window, scale, infer,
// inverse-scale, assemble the result. Every failure path terminates
// with a classified error and no partial result.
package service

import (
	"context"
	"math"
	"sync"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"goldcast/internal/config"
	"goldcast/internal/errs"
	"goldcast/internal/feature"
	"goldcast/internal/indicator"
	"goldcast/internal/predictor"
	"goldcast/internal/scaler"
	"goldcast/models"
)

// artifacts bundles the model and scalers one request infers with.
type artifacts struct {
	model   models.SequenceModel
	scalerX *scaler.MinMax
	scalerY *scaler.MinMax
}

// Service holds the read-only shared state (loaded model, fitted
// scalers) and runs each request's pipeline independently.
type Service struct {
	cfg    *config.Config
	source models.BarSource
	logger zerolog.Logger

	mu       sync.RWMutex
	defaults *artifacts
}

// New creates a prediction service. Artifacts are not loaded yet;
// call LoadArtifacts (or SetArtifacts) before serving predictions.
func New(cfg *config.Config, source models.BarSource) *Service {
	return &Service{
		cfg:    cfg,
		source: source,
		logger: log.With().Str("component", "service").Logger(),
	}
}

// LoadArtifacts eagerly loads the default model and scalers from the
// configured paths. This is the slow, cold-start part of service life.
func (s *Service) LoadArtifacts() error {
	a, err := loadArtifacts(s.cfg.ModelPath, s.cfg.ScalerXPath, s.cfg.ScalerYPath)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.defaults = a
	s.mu.Unlock()

	s.logger.Info().
		Str("model", s.cfg.ModelPath).
		Str("scaler_x", s.cfg.ScalerXPath).
		Str("scaler_y", s.cfg.ScalerYPath).
		Msg("Artifacts loaded, service ready")
	return nil
}

// SetArtifacts installs pre-built artifacts, bypassing file loading.
func (s *Service) SetArtifacts(model models.SequenceModel, scalerX, scalerY *scaler.MinMax) {
	s.mu.Lock()
	s.defaults = &artifacts{model: model, scalerX: scalerX, scalerY: scalerY}
	s.mu.Unlock()
}

// Ready reports whether the default artifacts are loaded.
func (s *Service) Ready() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.defaults != nil
}

func loadArtifacts(modelPath, scalerXPath, scalerYPath string) (*artifacts, error) {
	model, err := predictor.Load(modelPath)
	if err != nil {
		return nil, err
	}
	scalerX, err := scaler.Load(scalerXPath, models.FeatureCount)
	if err != nil {
		return nil, err
	}
	scalerY, err := scaler.Load(scalerYPath, 1)
	if err != nil {
		return nil, err
	}
	return &artifacts{model: model, scalerX: scalerX, scalerY: scalerY}, nil
}

// resolveArtifacts picks the artifact set for one request. Overridden
// paths are loaded fresh for that request only; everything else reuses
// the defaults loaded at start.
func (s *Service) resolveArtifacts(req models.PredictionRequest) (*artifacts, error) {
	s.mu.RLock()
	defaults := s.defaults
	s.mu.RUnlock()

	if req.ModelPath == "" && req.ScalerXPath == "" && req.ScalerYPath == "" {
		if defaults == nil {
			return nil, errs.New(errs.KindTransient, "service is still loading its model and scalers")
		}
		return defaults, nil
	}

	fullOverride := req.ModelPath != "" && req.ScalerXPath != "" && req.ScalerYPath != ""
	if defaults == nil && !fullOverride {
		return nil, errs.New(errs.KindTransient, "service is still loading its model and scalers")
	}

	a := &artifacts{}
	if req.ModelPath != "" {
		model, err := predictor.Load(req.ModelPath)
		if err != nil {
			return nil, err
		}
		a.model = model
	} else {
		a.model = defaults.model
	}
	if req.ScalerXPath != "" {
		scalerX, err := scaler.Load(req.ScalerXPath, models.FeatureCount)
		if err != nil {
			return nil, err
		}
		a.scalerX = scalerX
	} else {
		a.scalerX = defaults.scalerX
	}
	if req.ScalerYPath != "" {
		scalerY, err := scaler.Load(req.ScalerYPath, 1)
		if err != nil {
			return nil, err
		}
		a.scalerY = scalerY
	} else {
		a.scalerY = defaults.scalerY
	}
	return a, nil
}

// Predict runs the full pipeline once for this request. It returns a
// complete PredictionResult or a classified error, never both.
func (s *Service) Predict(ctx context.Context, req models.PredictionRequest) (*models.PredictionResult, error) {
	arts, err := s.resolveArtifacts(req)
	if err != nil {
		return nil, err
	}

	bars, err := s.source.GetDailyBars(ctx)
	if err != nil {
		return nil, errs.Wrap(errs.KindTransient, err)
	}
	s.logger.Debug().Int("bars", len(bars)).Msg("Fetched market data")

	points := indicator.Compute(bars)

	window, err := feature.BuildWindow(bars, points)
	if err != nil {
		return nil, errs.Wrap(errs.KindInsufficientHistory, err)
	}

	scaled, err := arts.scalerX.TransformWindow(window)
	if err != nil {
		return nil, err
	}

	normalized, err := arts.model.Infer(scaled)
	if err != nil {
		return nil, errs.Wrap(errs.KindInference, err)
	}

	currentPrice := window.LastClose()
	predictedPrice := arts.scalerY.InverseScalar(normalized)
	change := predictedPrice - currentPrice

	direction := models.DirectionBearish
	if change >= 0 {
		direction = models.DirectionBullish
	}

	s.logger.Info().
		Float64("current", currentPrice).
		Float64("predicted", predictedPrice).
		Str("direction", direction).
		Msg("Prediction complete")

	return &models.PredictionResult{
		CurrentPrice:   round2(currentPrice),
		PredictedPrice: round2(predictedPrice),
		PriceChange:    round2(change),
		Direction:      direction,
		Status:         "success",
	}, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
