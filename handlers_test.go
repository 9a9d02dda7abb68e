package main

import (
	"context"
	"encoding/json"
	"errors"
	"image"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vkuznet/recyclehub/catalog"
)

// helper function to POST file to given router
func postFile(t *testing.T, h http.Handler, path, fname string, data []byte, values map[string]string) *httptest.ResponseRecorder {
	body, ctype := multipartBody(t, "file", fname, data, values)
	req := httptest.NewRequest("POST", path, body)
	req.Header.Set("Content-Type", ctype)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

// helper function to GET given path
func getPath(t *testing.T, h http.Handler, path string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest("GET", path, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

// TestStatusHandler
func TestStatusHandler(t *testing.T) {
	initTestConfig(t)
	router := serviceRouter(newTestHub(t, testProbs, nil))

	rr := getPath(t, router, "/", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rr.Body.String())
	assert.NotEmpty(t, rr.Header().Get(requestIDHeader))
	assert.NotEmpty(t, rr.Header().Get("X-RateLimit-Limit"))

	// client request id is preserved
	rr = getPath(t, router, "/", map[string]string{requestIDHeader: "abc"})
	assert.Equal(t, "abc", rr.Header().Get(requestIDHeader))
}

// TestPredictHandler checks top 3 predictions of inference service
func TestPredictHandler(t *testing.T) {
	initTestConfig(t)
	router := serviceRouter(newTestHub(t, testProbs, nil))

	rr := postFile(t, router, "/predict", "sample.jpg", testJPEG(t, 224, 224), nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))

	var rsp PredictResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &rsp))
	preds := rsp.TopPredictions
	require.Len(t, preds, 3)
	assert.Equal(t, "plastic", preds[0].Label)
	assert.Equal(t, "metal", preds[1].Label)
	assert.Equal(t, "paper", preds[2].Label)
	for i, p := range preds {
		assert.GreaterOrEqual(t, p.Confidence, float32(0))
		assert.LessOrEqual(t, p.Confidence, float32(1))
		assert.GreaterOrEqual(t, preds[0].Confidence, p.Confidence)
		assert.Equal(t, catalog.Recommendations(p.Label), p.Recommendations, "prediction %d", i)
	}
	assert.InDelta(t, 0.5, preds[0].Confidence, 1e-6)
}

// TestPredictHandlerAnySize checks that image size does not matter
func TestPredictHandlerAnySize(t *testing.T) {
	initTestConfig(t)
	router := serviceRouter(newTestHub(t, testProbs, nil))
	rr := postFile(t, router, "/predict", "large.jpg", testJPEG(t, 640, 333), nil)
	assert.Equal(t, http.StatusOK, rr.Code)
}

// TestPredictHandlerNotImage checks that non image payload is a client error
func TestPredictHandlerNotImage(t *testing.T) {
	initTestConfig(t)
	router := serviceRouter(newTestHub(t, testProbs, nil))

	rr := postFile(t, router, "/predict", "notes.txt", []byte("plain text, not an image"), nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	var herr HTTPError
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &herr))
	assert.Equal(t, DecodeError, herr.Code)
	assert.Equal(t, http.StatusBadRequest, herr.HTTPCode)
	assert.Contains(t, herr.Error, "unable to decode image")

	// service keeps working after bad request
	rr = postFile(t, router, "/predict", "sample.jpg", testJPEG(t, 32, 32), nil)
	assert.Equal(t, http.StatusOK, rr.Code)
}

// TestPredictHandlerBadForm checks missing file field and non multipart body
func TestPredictHandlerBadForm(t *testing.T) {
	initTestConfig(t)
	router := serviceRouter(newTestHub(t, testProbs, nil))

	body, ctype := multipartBody(t, "image", "sample.jpg", testJPEG(t, 32, 32), nil)
	req := httptest.NewRequest("POST", "/predict", body)
	req.Header.Set("Content-Type", ctype)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	req = httptest.NewRequest("POST", "/predict", strings.NewReader(`{"image":[]}`))
	req.Header.Set("Content-Type", "application/json")
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

// TestPredictHandlerTooLarge checks upload size limit
func TestPredictHandlerTooLarge(t *testing.T) {
	initTestConfig(t)
	Config.MaxUpload = 1
	router := serviceRouter(newTestHub(t, testProbs, nil))
	data := make([]byte, 2<<20)
	rr := postFile(t, router, "/predict", "large.jpg", data, nil)
	require.Equal(t, http.StatusRequestEntityTooLarge, rr.Code)
	var herr HTTPError
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &herr))
	assert.Equal(t, TooLarge, herr.Code)
	assert.Equal(t, http.StatusRequestEntityTooLarge, herr.HTTPCode)
}

// TestPredictHandlerHugeImage checks that image declaring huge size in its
// header is rejected without decoding pixels
func TestPredictHandlerHugeImage(t *testing.T) {
	initTestConfig(t)
	router := serviceRouter(newTestHub(t, testProbs, nil))

	data := declaredSizePNG(t, 15000, 15000)
	rr := postFile(t, router, "/predict", "huge.png", data, nil)
	require.Equal(t, http.StatusBadRequest, rr.Code)
	var herr HTTPError
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &herr))
	assert.Equal(t, DecodeError, herr.Code)
	assert.Contains(t, herr.Error, "too large")

	Config.Role = RoleWeb
	web := webRouter(newTestHub(t, testProbs, nil))
	rr = postFile(t, web, "/analyze", "huge.png", data, nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "too large")
}

// TestPredictHandlerInferenceError checks classifier failure
func TestPredictHandlerInferenceError(t *testing.T) {
	initTestConfig(t)
	router := serviceRouter(newTestHub(t, nil, errors.New("session failure")))

	rr := postFile(t, router, "/predict", "sample.jpg", testJPEG(t, 32, 32), nil)
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	var herr HTTPError
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &herr))
	assert.Equal(t, InferenceError, herr.Code)
}

// TestMetrics checks prometheus end-point
func TestMetrics(t *testing.T) {
	initTestConfig(t)
	router := serviceRouter(newTestHub(t, testProbs, nil))
	postFile(t, router, "/predict", "sample.jpg", testJPEG(t, 32, 32), nil)

	rr := getPath(t, router, "/metrics", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()
	assert.Contains(t, body, "recyclehub_inference_duration_seconds")
	assert.Contains(t, body, `recyclehub_predictions_total{label="plastic"}`)
}

// TestBasePath checks routes under base path
func TestBasePath(t *testing.T) {
	initTestConfig(t)
	Config.Base = "/recycle"
	defer func() { Config.Base = "" }()
	router := serviceRouter(newTestHub(t, testProbs, nil))
	rr := getPath(t, router, "/recycle/", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rr.Body.String())
}

// TestIndexHandler checks upload page
func TestIndexHandler(t *testing.T) {
	initTestConfig(t)
	Config.Role = RoleWeb
	router := webRouter(newTestHub(t, testProbs, nil))

	rr := getPath(t, router, "/", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()
	for _, country := range catalog.Countries() {
		assert.Contains(t, body, `<option value="`+country+`"`)
	}
	assert.Contains(t, body, `accept=".jpg,.jpeg,.png"`)
	assert.Contains(t, body, `data-stage="Idle"`)
	assert.Contains(t, body, "Last updated: October 2025")

	rr = getPath(t, router, "/css/main.css", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
}

// TestAnalyzeLocal checks direct inference front-end
func TestAnalyzeLocal(t *testing.T) {
	initTestConfig(t)
	Config.Role = RoleWeb
	router := webRouter(newTestHub(t, testProbs, nil))

	rr := postFile(t, router, "/analyze", "bottle.jpg", testJPEG(t, 300, 200), map[string]string{"country": "Kenya"})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	body := rr.Body.String()
	assert.Contains(t, body, `data-stage="ResultsShown"`)
	assert.Contains(t, body, "<b>Plastic</b> (50.00% confidence)")
	assert.Contains(t, body, "Step 1: Clean and remove labels or caps.")
	assert.Contains(t, body, "Step 3: Make eco-bricks with clean soft plastics.")
	assert.NotContains(t, body, "Step 1: Rinse cans and avoid mixing metals.")
	assert.Contains(t, body, "Kenya Green Solutions")
	assert.Contains(t, body, `href="https://mrgreenafrica.com"`)
	assert.Contains(t, body, `name="country" value="Kenya"`)
	assert.Contains(t, body, "data:image/jpeg;base64,")
}

// TestAnalyzeUnknownCountry checks that unlisted countries get global resources
func TestAnalyzeUnknownCountry(t *testing.T) {
	initTestConfig(t)
	Config.Role = RoleWeb
	router := webRouter(newTestHub(t, testProbs, nil))

	rr := postFile(t, router, "/analyze", "bottle.png", testJPEG(t, 64, 64), map[string]string{"country": "France"})
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "Global Tips")
	assert.NotContains(t, rr.Body.String(), "Kenya Green Solutions")
}

// TestAnalyzeBadUploads checks rejected uploads
func TestAnalyzeBadUploads(t *testing.T) {
	initTestConfig(t)
	Config.Role = RoleWeb
	router := webRouter(newTestHub(t, testProbs, nil))

	rr := postFile(t, router, "/analyze", "notes.txt", testJPEG(t, 32, 32), nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "is not supported")

	rr = postFile(t, router, "/analyze", "fake.png", []byte("plain text"), nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "unable to decode image")
}

// TestAnalyzeRemote checks remote inference front-end against inference service
func TestAnalyzeRemote(t *testing.T) {
	initTestConfig(t)
	service := httptest.NewServer(serviceRouter(newTestHub(t, testProbs, nil)))
	defer service.Close()

	Config.Role = RoleWeb
	hub := &Hub{backend: NewRemoteBackend(service.URL, 0)}
	router := webRouter(hub)

	rr := postFile(t, router, "/analyze", "bottle.jpg", testJPEG(t, 120, 80), map[string]string{"country": "India"})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	body := rr.Body.String()
	assert.Contains(t, body, "Detected Material Predictions")
	assert.Contains(t, body, "<b>Plastic</b> (50.00% confidence)")
	assert.Contains(t, body, "<b>Metal</b> (20.00% confidence)")
	assert.Contains(t, body, "<b>Paper</b> (20.00% confidence)")
	assert.Contains(t, body, "India Eco Actions")
}

// TestAnalyzeRemoteAPIError checks that non 200 response is rendered as message
func TestAnalyzeRemoteAPIError(t *testing.T) {
	initTestConfig(t)
	service := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		io.WriteString(w, "boom")
	}))
	defer service.Close()

	Config.Role = RoleWeb
	router := webRouter(&Hub{backend: NewRemoteBackend(service.URL, 0)})
	rr := postFile(t, router, "/analyze", "bottle.jpg", testJPEG(t, 40, 40), nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "API error — received 500.")
	assert.Contains(t, rr.Body.String(), `data-stage="Failed"`)
}

// TestAnalyzeRemoteUnreachable checks that unreachable service is rendered as message
func TestAnalyzeRemoteUnreachable(t *testing.T) {
	initTestConfig(t)
	service := httptest.NewServer(http.NotFoundHandler())
	uri := service.URL
	service.Close()

	Config.Role = RoleWeb
	router := webRouter(&Hub{backend: NewRemoteBackend(uri, 0)})
	rr := postFile(t, router, "/analyze", "bottle.jpg", testJPEG(t, 40, 40), nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "Connection error:")
	assert.Contains(t, rr.Body.String(), `data-stage="Failed"`)
}

// TestMapsHandler checks map search link
func TestMapsHandler(t *testing.T) {
	initTestConfig(t)
	Config.Role = RoleWeb
	router := webRouter(newTestHub(t, testProbs, nil))

	rr := getPath(t, router, "/maps?country=Egypt", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `href="https://www.google.com/maps/search/recycling+centers+in+Egypt"`)

	rr = getPath(t, router, "/maps?country=South+Africa", nil)
	assert.Contains(t, rr.Body.String(), `href="https://www.google.com/maps/search/recycling+centers+in+South+Africa"`)
}

// TestResourcesHandler checks resource blocks
func TestResourcesHandler(t *testing.T) {
	initTestConfig(t)
	Config.Role = RoleWeb
	router := webRouter(newTestHub(t, testProbs, nil))

	md := map[string]string{"Accept": "text/markdown"}
	rr := getPath(t, router, "/resources?country=Kenya", md)
	assert.Equal(t, catalog.Resources("Kenya"), rr.Body.String())

	rr = getPath(t, router, "/resources?country=Narnia", md)
	assert.Equal(t, catalog.Resources("Other"), rr.Body.String())

	rr = getPath(t, router, "/resources?country=UAE", nil)
	assert.Contains(t, rr.Body.String(), `href="https://beeah.ae"`)
	assert.Contains(t, rr.Body.String(), "<li>")
}

// recordingBackend keeps image it receives from front-end
type recordingBackend struct {
	img   image.Image
	calls int
}

func (b *recordingBackend) Predict(ctx context.Context, fname string, img image.Image) ([]PredictionRecord, error) {
	b.calls++
	b.img = img
	return []PredictionRecord{{Label: "cardboard", Confidence: 0.9, Recommendations: catalog.Recommendations("cardboard")}}, nil
}

func (b *recordingBackend) Name() string {
	return BackendRemote
}

// TestAnalyzeDecodedImage checks that backend receives image decoded by front-end
func TestAnalyzeDecodedImage(t *testing.T) {
	initTestConfig(t)
	Config.Role = RoleWeb
	backend := &recordingBackend{}
	router := webRouter(&Hub{backend: backend})

	rr := postFile(t, router, "/analyze", "box.jpg", testJPEG(t, 70, 20), map[string]string{"country": "Egypt"})
	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, 1, backend.calls)
	require.NotNil(t, backend.img)
	assert.Equal(t, 70, backend.img.Bounds().Dx())
	assert.Equal(t, 20, backend.img.Bounds().Dy())
	assert.Contains(t, rr.Body.String(), "<b>Cardboard</b> (90.00% confidence)")

	// rejected uploads never reach backend
	postFile(t, router, "/analyze", "box.png", []byte("plain text"), nil)
	assert.Equal(t, 1, backend.calls)
}
