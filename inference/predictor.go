package inference

import (
	"context"
	"image"

	"github.com/pkg/errors"
	"github.com/vkuznet/recyclehub/imaging"
)

// ErrOutputSize is returned when classifier output does not match label set
var ErrOutputSize = errors.New("classifier output size does not match labels")

// Predictor binds classifier outputs to ordered label set
type Predictor struct {
	classifier Classifier
	labels     []string
}

// NewPredictor creates new predictor for given classifier and labels. If model
// metadata is provided its classes should match labels in order.
func NewPredictor(classifier Classifier, labels []string, meta *Metadata) (*Predictor, error) {
	if classifier == nil {
		return nil, errors.New("classifier is not provided")
	}
	if len(labels) == 0 {
		return nil, errors.New("empty label set")
	}
	if meta != nil {
		if err := meta.CheckClasses(labels); err != nil {
			return nil, errors.Wrap(err, "model metadata does not match labels")
		}
	}
	lbls := make([]string, len(labels))
	copy(lbls, labels)
	return &Predictor{classifier: classifier, labels: lbls}, nil
}

// Labels returns predictor labels
func (p *Predictor) Labels() []string {
	out := make([]string, len(p.labels))
	copy(out, p.labels)
	return out
}

// Probabilities preprocesses given image bytes and returns classifier
// probability vector. Decode failures are reported with imaging.ErrDecode.
func (p *Predictor) Probabilities(ctx context.Context, data []byte) ([]float32, error) {
	tensor, err := imaging.Preprocess(data)
	if err != nil {
		return nil, err
	}
	return p.ProbabilitiesFor(ctx, tensor)
}

// ProbabilitiesFor runs classifier on already preprocessed tensor
func (p *Predictor) ProbabilitiesFor(ctx context.Context, tensor *imaging.Tensor) ([]float32, error) {
	probs, err := p.classifier.Predict(ctx, tensor)
	if err != nil {
		return nil, err
	}
	if len(probs) != len(p.labels) {
		return nil, errors.Wrapf(ErrOutputSize, "got %d values for %d labels", len(probs), len(p.labels))
	}
	return probs, nil
}

// Classify returns top k predictions for given image bytes
func (p *Predictor) Classify(ctx context.Context, data []byte, k int) ([]Prediction, error) {
	probs, err := p.Probabilities(ctx, data)
	if err != nil {
		return nil, err
	}
	return p.Top(probs, k), nil
}

// ClassifyImage returns top k predictions for already decoded image
func (p *Predictor) ClassifyImage(ctx context.Context, img image.Image, k int) ([]Prediction, error) {
	if img == nil {
		return nil, errors.Wrap(imaging.ErrDecode, "no image")
	}
	probs, err := p.ProbabilitiesFor(ctx, imaging.FromImage(img))
	if err != nil {
		return nil, err
	}
	return p.Top(probs, k), nil
}

// Top converts probability vector into k best predictions
func (p *Predictor) Top(probs []float32, k int) []Prediction {
	var preds []Prediction
	for _, idx := range TopK(probs, k) {
		preds = append(preds, Prediction{Label: p.labels[idx], Confidence: probs[idx]})
	}
	return preds
}

// Close closes underlying classifier
func (p *Predictor) Close() error {
	return p.classifier.Close()
}
