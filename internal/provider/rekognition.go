package provider

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/rekognition"
	"github.com/aws/aws-sdk-go-v2/service/rekognition/types"
)

// Detection limits.
const (
	DefaultMaxLabels     = 10
	DefaultMinConfidence = 70
)

// DetectLabelsAPI is the subset of *rekognition.Client used by Rekognition.
type DetectLabelsAPI interface {
	DetectLabels(ctx context.Context, params *rekognition.DetectLabelsInput, optFns ...func(*rekognition.Options)) (*rekognition.DetectLabelsOutput, error)
}

// Rekognition detects labels with Amazon Rekognition.
type Rekognition struct {
	client  DetectLabelsAPI
	timeout time.Duration
}

// NewRekognition creates a label detector.
func NewRekognition(client DetectLabelsAPI, timeout time.Duration) *Rekognition {
	return &Rekognition{client: client, timeout: timeout}
}

// DetectLabels returns up to DefaultMaxLabels labels with a confidence of
// at least DefaultMinConfidence percent, confidence scaled to 0..1.
func (r *Rekognition) DetectLabels(ctx context.Context, image []byte) ([]Label, error) {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	out, err := r.client.DetectLabels(ctx, &rekognition.DetectLabelsInput{
		Image:         &types.Image{Bytes: image},
		MaxLabels:     aws.Int32(DefaultMaxLabels),
		MinConfidence: aws.Float32(DefaultMinConfidence),
	})
	if err != nil {
		return nil, failure("rekognition detect labels", err)
	}

	labels := make([]Label, 0, len(out.Labels))
	for _, l := range out.Labels {
		name := aws.ToString(l.Name)
		if name == "" {
			continue
		}
		labels = append(labels, Label{
			Name:       name,
			Confidence: float64(aws.ToFloat32(l.Confidence)) / 100,
		})
	}
	return labels, nil
}
