package rekognition

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/rekognition"
	"github.com/aws/aws-sdk-go/service/rekognition/rekognitioniface"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/nutrimom/api/internal/domain/detection"
	"github.com/nutrimom/api/internal/infrastructure/config"
)

type fakeRekognition struct {
	rekognitioniface.RekognitionAPI
	input *rekognition.DetectLabelsInput
	out   *rekognition.DetectLabelsOutput
	err   error
}

func (f *fakeRekognition) DetectLabelsWithContext(_ aws.Context, in *rekognition.DetectLabelsInput, _ ...request.Option) (*rekognition.DetectLabelsOutput, error) {
	f.input = in
	return f.out, f.err
}

func TestClient_Recognize(t *testing.T) {
	cfg := config.RecognitionConfig{MaxLabels: 10, MinConfidence: 60}

	t.Run("ScalesConfidence", func(t *testing.T) {
		// Arrange
		fake := &fakeRekognition{out: &rekognition.DetectLabelsOutput{Labels: []*rekognition.Label{
			{Name: aws.String("Chicken"), Confidence: aws.Float64(91.5)},
			{Name: aws.String(""), Confidence: aws.Float64(99)},
			{Name: aws.String("Rice"), Confidence: aws.Float64(150)},
		}}}
		client := NewWithAPI(fake, cfg, zap.NewNop())

		// Act
		labels, err := client.Recognize(context.Background(), []byte{0xff, 0xd8})

		// Assert
		require.NoError(t, err)
		assert.Equal(t, []detection.Label{
			{Label: "Chicken", Confidence: 0.915},
			{Label: "Rice", Confidence: 1},
		}, labels)
		assert.Equal(t, int64(10), aws.Int64Value(fake.input.MaxLabels))
		assert.Equal(t, 60.0, aws.Float64Value(fake.input.MinConfidence))
		assert.Equal(t, []byte{0xff, 0xd8}, fake.input.Image.Bytes)
	})

	t.Run("ZeroLimits_ShouldLeaveDefaults", func(t *testing.T) {
		fake := &fakeRekognition{out: &rekognition.DetectLabelsOutput{}}
		client := NewWithAPI(fake, config.RecognitionConfig{}, zap.NewNop())

		labels, err := client.Recognize(context.Background(), []byte{1})

		require.NoError(t, err)
		assert.Empty(t, labels)
		assert.Nil(t, fake.input.MaxLabels)
		assert.Nil(t, fake.input.MinConfidence)
	})

	t.Run("APIError_ShouldWrap", func(t *testing.T) {
		boom := errors.New("throttled")
		client := NewWithAPI(&fakeRekognition{err: boom}, cfg, zap.NewNop())

		_, err := client.Recognize(context.Background(), []byte{1})

		assert.ErrorIs(t, err, boom)
	})
}
