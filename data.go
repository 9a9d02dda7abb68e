package main

// data module holds all data representations used in our package
//
// Copyright (c) 2025 - Valentin Kuznetsov <vkuznet@gmail.com>
//

import (
	"fmt"

	"github.com/vkuznet/recyclehub/catalog"
)

// StatusResponse represents liveness probe response
type StatusResponse struct {
	Status string `json:"status"`
}

// PredictionRecord represents single prediction enriched with recommendations
type PredictionRecord struct {
	Label           string   `json:"label"`           // material label
	Confidence      float32  `json:"confidence"`      // confidence in [0,1]
	Recommendations []string `json:"recommendations"` // recycling tips
}

// Percent returns confidence in percent form used by web pages
func (p PredictionRecord) Percent() string {
	return fmt.Sprintf("%.2f%%", p.Confidence*100)
}

// Title returns display form of prediction label
func (p PredictionRecord) Title() string {
	return catalog.Title(p.Label)
}

// Steps returns numbered recycling steps
func (p PredictionRecord) Steps() []string {
	recs := p.Recommendations
	if len(recs) == 0 {
		recs = []string{catalog.FallbackRecommendation}
	}
	var steps []string
	for i, r := range recs {
		steps = append(steps, fmt.Sprintf("Step %d: %s", i+1, r))
	}
	return steps
}

// PredictResponse represents response of prediction API
type PredictResponse struct {
	TopPredictions []PredictionRecord `json:"top_predictions"`
}
