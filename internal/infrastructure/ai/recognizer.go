// Package ai selects the image labeler used by food scans
package ai

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/nutrimom/api/internal/domain/detection"
	"github.com/nutrimom/api/internal/infrastructure/ai/rekognition"
	"github.com/nutrimom/api/internal/infrastructure/config"
	"github.com/nutrimom/api/internal/ports/outbound"
)

const (
	ProviderStub        = "stub"
	ProviderRekognition = "rekognition"
)

// StubRecognizer returns a fixed guess list for local development
type StubRecognizer struct {
	labels []detection.Label
}

var _ outbound.LabelRecognizer = (*StubRecognizer)(nil)

// NewStubRecognizer creates a stub that always answers with labels. With no
// labels it answers with a chicken and potato guess.
func NewStubRecognizer(labels ...detection.Label) *StubRecognizer {
	if len(labels) == 0 {
		labels = []detection.Label{
			{Label: "ayam", Confidence: 0.82},
			{Label: "kentang", Confidence: 0.61},
		}
	}
	return &StubRecognizer{labels: labels}
}

// Recognize ignores the image
func (s *StubRecognizer) Recognize(ctx context.Context, image []byte) ([]detection.Label, error) {
	out := make([]detection.Label, len(s.labels))
	copy(out, s.labels)
	return out, nil
}

// NewRecognizer builds the recognizer named by cfg.Provider
func NewRecognizer(cfg config.RecognitionConfig, logger *zap.Logger) (outbound.LabelRecognizer, error) {
	switch cfg.Provider {
	case "", ProviderStub:
		logger.Info("Using stub food recognizer")
		return NewStubRecognizer(), nil
	case ProviderRekognition:
		return rekognition.NewClient(cfg, logger)
	default:
		return nil, fmt.Errorf("unknown recognition provider %q", cfg.Provider)
	}
}
