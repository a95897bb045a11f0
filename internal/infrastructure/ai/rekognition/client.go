// Package rekognition labels food photos with Amazon Rekognition
package rekognition

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/rekognition"
	"github.com/aws/aws-sdk-go/service/rekognition/rekognitioniface"
	"go.uber.org/zap"

	"github.com/nutrimom/api/internal/domain/detection"
	"github.com/nutrimom/api/internal/infrastructure/config"
	"github.com/nutrimom/api/internal/ports/outbound"
)

// Client implements outbound.LabelRecognizer with DetectLabels
type Client struct {
	api           rekognitioniface.RekognitionAPI
	maxLabels     int64
	minConfidence float64
	timeout       time.Duration
	logger        *zap.Logger
}

var _ outbound.LabelRecognizer = (*Client)(nil)

// NewClient creates a Rekognition client. Static credentials are used when
// configured, otherwise the default AWS credential chain applies.
func NewClient(cfg config.RecognitionConfig, logger *zap.Logger) (*Client, error) {
	awsCfg := aws.NewConfig().WithRegion(cfg.Region)
	if cfg.AccessKeyID != "" {
		awsCfg = awsCfg.WithCredentials(credentials.NewStaticCredentials(cfg.AccessKeyID, cfg.SecretAccessKey, ""))
	}
	if cfg.Endpoint != "" {
		awsCfg = awsCfg.WithEndpoint(cfg.Endpoint)
	}

	sess, err := session.NewSession(awsCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}

	logger.Info("Rekognition client initialized", zap.String("region", cfg.Region))

	return NewWithAPI(rekognition.New(sess), cfg, logger), nil
}

// NewWithAPI wraps an existing Rekognition API implementation
func NewWithAPI(api rekognitioniface.RekognitionAPI, cfg config.RecognitionConfig, logger *zap.Logger) *Client {
	return &Client{
		api:           api,
		maxLabels:     cfg.MaxLabels,
		minConfidence: cfg.MinConfidence,
		timeout:       cfg.Timeout,
		logger:        logger.Named("rekognition"),
	}
}

// Recognize returns labels with confidence scaled from percent to [0,1]
func (c *Client) Recognize(ctx context.Context, image []byte) ([]detection.Label, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	input := &rekognition.DetectLabelsInput{
		Image: &rekognition.Image{Bytes: image},
	}
	if c.maxLabels > 0 {
		input.MaxLabels = aws.Int64(c.maxLabels)
	}
	if c.minConfidence > 0 {
		input.MinConfidence = aws.Float64(c.minConfidence)
	}

	start := time.Now()
	out, err := c.api.DetectLabelsWithContext(ctx, input)
	if err != nil {
		c.logger.Warn("DetectLabels failed", zap.Error(err), zap.Duration("duration", time.Since(start)))
		return nil, fmt.Errorf("detect labels: %w", err)
	}

	labels := make([]detection.Label, 0, len(out.Labels))
	for _, l := range out.Labels {
		name := aws.StringValue(l.Name)
		if name == "" {
			continue
		}
		labels = append(labels, detection.Label{
			Label:      name,
			Confidence: detection.ClampConfidence(aws.Float64Value(l.Confidence) / 100),
		})
	}

	c.logger.Debug("Labels detected",
		zap.Int("count", len(labels)),
		zap.Duration("duration", time.Since(start)),
	)

	return labels, nil
}
