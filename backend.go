package main

// backend module provides inference backends used by HTTP handlers
//
// Copyright (c) 2025 - Valentin Kuznetsov <vkuznet@gmail.com>
//

import (
	"context"
	"errors"
	"image"
	"log"
	"time"

	"github.com/vkuznet/recyclehub/catalog"
	"github.com/vkuznet/recyclehub/imaging"
	"github.com/vkuznet/recyclehub/inference"
)

// Backend represents inference backend of the front-end. It receives
// image already decoded by the front-end.
type Backend interface {
	Predict(ctx context.Context, fname string, img image.Image) ([]PredictionRecord, error)
	Name() string
}

// LocalBackend runs classifier within server process
type LocalBackend struct {
	Predictor *inference.Predictor
	K         int // number of predictions to return
}

// Predict implements Backend interface
func (b *LocalBackend) Predict(ctx context.Context, fname string, img image.Image) ([]PredictionRecord, error) {
	return runClassifier(ctx, func(ctx context.Context) ([]inference.Prediction, error) {
		return b.Predictor.ClassifyImage(ctx, img, b.K)
	})
}

// Name implements Backend interface
func (b *LocalBackend) Name() string {
	return BackendLocal
}

// helper function to load classifier artifact and bind it to catalog labels
func loadPredictor() (*inference.Predictor, error) {
	labels := catalog.Labels()
	var meta *inference.Metadata
	if Config.ModelMetadata != "" {
		m, err := inference.LoadMetadata(Config.ModelMetadata)
		if err != nil {
			return nil, err
		}
		meta = m
	}
	classifier, err := inference.NewONNXClassifier(inference.Config{
		ModelPath:    Config.ModelFile,
		LibraryPath:  Config.OnnxLibrary,
		InputName:    Config.InputName,
		OutputName:   Config.OutputName,
		NumClasses:   len(labels),
		ApplySoftmax: Config.ApplySoftmax,
		Threads:      Config.Threads,
		Verbose:      Config.Verbose,
	})
	if err != nil {
		return nil, err
	}
	predictor, err := inference.NewPredictor(classifier, labels, meta)
	if err != nil {
		classifier.Close()
		return nil, err
	}
	log.Printf("loaded model %s with labels %v", Config.ModelFile, labels)
	return predictor, nil
}

// helper function to create inference context with optional timeout
func inferenceContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if Config.InferenceTimeout > 0 {
		return context.WithTimeout(ctx, time.Duration(Config.InferenceTimeout)*time.Second)
	}
	return context.WithCancel(ctx)
}

// helper function to run image bytes through predictor and enrich
// predictions with recommendations
func classify(ctx context.Context, predictor *inference.Predictor, data []byte, k int) ([]PredictionRecord, error) {
	return runClassifier(ctx, func(ctx context.Context) ([]inference.Prediction, error) {
		return predictor.Classify(ctx, data, k)
	})
}

// helper function to run classification with inference timeout and metrics
func runClassifier(ctx context.Context, run func(context.Context) ([]inference.Prediction, error)) ([]PredictionRecord, error) {
	ctx, cancel := inferenceContext(ctx)
	defer cancel()

	start := time.Now()
	preds, err := run(ctx)
	inferenceDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		if errors.Is(err, imaging.ErrDecode) {
			predictionErrors.WithLabelValues("decode").Inc()
		} else {
			predictionErrors.WithLabelValues("inference").Inc()
		}
		return nil, err
	}
	if len(preds) > 0 {
		predictionsTotal.WithLabelValues(preds[0].Label).Inc()
	}
	return enrich(preds), nil
}

// helper function to attach recommendations to predictions
func enrich(preds []inference.Prediction) []PredictionRecord {
	records := []PredictionRecord{}
	for _, p := range preds {
		records = append(records, PredictionRecord{
			Label:           p.Label,
			Confidence:      p.Confidence,
			Recommendations: catalog.Recommendations(p.Label),
		})
	}
	return records
}
