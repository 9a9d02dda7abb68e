package main

// metrics module
//
// Copyright (c) 2025 - Valentin Kuznetsov <vkuznet@gmail.com>
//

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	predictionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recyclehub_predictions_total",
			Help: "Total number of predictions by top label",
		},
		[]string{"label"},
	)

	predictionErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recyclehub_prediction_errors_total",
			Help: "Total number of failed predictions",
		},
		[]string{"kind"},
	)

	inferenceDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "recyclehub_inference_duration_seconds",
			Help:    "Duration of image preprocessing and inference in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)
)
