package main

// client functions for inference service
//
// Copyright (c) 2025 - Valentin Kuznetsov <vkuznet@gmail.com>
//

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"image"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"github.com/vkuznet/recyclehub/catalog"
	"github.com/vkuznet/recyclehub/imaging"
)

// APIError represents non successful response of inference service
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("⚠️ API error — received %d.", e.StatusCode)
}

// ConnectionError represents failure to reach inference service
type ConnectionError struct {
	Err error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("Connection error: %v", e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// RemoteBackend obtains predictions from inference service
type RemoteBackend struct {
	URI    string       // inference service URI, e.g. http://localhost:8000
	Client *http.Client // HTTP client
}

// NewRemoteBackend creates remote backend for given service URI, https
// services are verified against our root CAs
func NewRemoteBackend(uri string, timeout time.Duration) *RemoteBackend {
	client := &http.Client{Timeout: timeout}
	if strings.HasPrefix(uri, "https://") && Config.RootCAs != "" {
		transport := http.DefaultTransport.(*http.Transport).Clone()
		transport.TLSClientConfig = &tls.Config{RootCAs: RootCAs()}
		client.Transport = transport
	}
	return &RemoteBackend{URI: uri, Client: client}
}

// Name implements Backend interface
func (b *RemoteBackend) Name() string {
	return BackendRemote
}

// Predict implements Backend interface. The uploaded image is re-encoded
// to PNG and sent as multipart form to /predict API of inference service.
func (b *RemoteBackend) Predict(ctx context.Context, fname string, img image.Image) ([]PredictionRecord, error) {
	if img == nil {
		return nil, fmt.Errorf("no image: %w", imaging.ErrDecode)
	}
	pngData, err := imaging.EncodePNG(img)
	if err != nil {
		return nil, err
	}

	// new multipart writer with file part
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="file"; filename="image.png"`)
	header.Set("Content-Type", "image/png")
	fw, err := writer.CreatePart(header)
	if err != nil {
		return nil, err
	}
	if _, err := fw.Write(pngData); err != nil {
		return nil, err
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}

	rurl := b.URI + "/predict"
	if Config.Verbose > 0 {
		log.Printf("POST request to %s with %s (%d bytes)", rurl, fname, len(pngData))
	}
	req, err := http.NewRequestWithContext(ctx, "POST", rurl, bytes.NewReader(body.Bytes()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Accept", "application/json")
	rsp, err := b.Client.Do(req)
	if err != nil {
		return nil, &ConnectionError{Err: err}
	}
	defer rsp.Body.Close()
	rdata, err := io.ReadAll(rsp.Body)
	if err != nil {
		return nil, &ConnectionError{Err: err}
	}
	if rsp.StatusCode != http.StatusOK {
		log.Printf("Request failed with response code: %d", rsp.StatusCode)
		return nil, &APIError{StatusCode: rsp.StatusCode, Body: string(rdata)}
	}

	var result PredictResponse
	if err := json.Unmarshal(rdata, &result); err != nil {
		return nil, fmt.Errorf("unable to parse inference service response: %w", err)
	}
	for i, rec := range result.TopPredictions {
		if rec.Recommendations == nil {
			result.TopPredictions[i].Recommendations = []string{catalog.FallbackRecommendation}
		}
	}
	return result.TopPredictions, nil
}
