package ai

import (
	"context"

	"go.uber.org/zap"

	"github.com/nutrimom/api/internal/domain/detection"
	"github.com/nutrimom/api/internal/ports/outbound"
	"github.com/nutrimom/api/pkg/healthcheck"
)

// BreakerRecognizer stops calling a failing recognizer for a while. Scans
// degrade to label-free results during that window.
type BreakerRecognizer struct {
	next    outbound.LabelRecognizer
	breaker *healthcheck.CircuitBreaker
}

var _ outbound.LabelRecognizer = (*BreakerRecognizer)(nil)

// NewBreakerRecognizer wraps next with breaker
func NewBreakerRecognizer(next outbound.LabelRecognizer, breaker *healthcheck.CircuitBreaker) *BreakerRecognizer {
	return &BreakerRecognizer{next: next, breaker: breaker}
}

// NewRecognizerBreaker creates the breaker used for the recognizer and logs
// its transitions
func NewRecognizerBreaker(logger *zap.Logger) *healthcheck.CircuitBreaker {
	return healthcheck.NewCircuitBreaker("recognizer", healthcheck.CircuitBreakerConfig{
		FailureThreshold: 5,
		OnStateChange: func(name string, from, to healthcheck.CircuitBreakerState) {
			logger.Warn("Circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})
}

// Recognize calls the wrapped recognizer through the breaker
func (b *BreakerRecognizer) Recognize(ctx context.Context, image []byte) ([]detection.Label, error) {
	var labels []detection.Label
	err := b.breaker.Call(func() error {
		var err error
		labels, err = b.next.Recognize(ctx, image)
		return err
	})
	return labels, err
}
