package main

// handlers module holds all HTTP handlers functions
//
// Copyright (c) 2025 - Valentin Kuznetsov <vkuznet@gmail.com>
//

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/vkuznet/recyclehub/catalog"
	"github.com/vkuznet/recyclehub/imaging"
	"github.com/vkuznet/recyclehub/inference"
)

// HTTPError represents HTTP error record
type HTTPError struct {
	Method    string `json:"method"`     // HTTP method
	HTTPCode  int    `json:"http_code"`  // HTTP error code
	Code      int    `json:"code"`       // server status code
	Timestamp string `json:"timestamp"`  // timestamp of the error
	Path      string `json:"path"`       // URL path
	UserAgent string `json:"user_agent"` // http user-agent field
	RequestID string `json:"request_id"` // request id
	Reason    string `json:"reason"`     // error code reason
	Error     string `json:"error"`      // error message
}

// Hub holds dependencies of HTTP handlers
type Hub struct {
	predictor *inference.Predictor // in-process predictor, nil for remote front-end
	backend   Backend              // front-end inference backend
}

// NewHub creates hub for configured server role and backend. Classifier
// artifact is loaded here, any failure should stop the server.
func NewHub() (*Hub, error) {
	if Config.Role == RoleWeb && Config.Backend == BackendRemote {
		timeout := time.Duration(Config.ClientTimeout) * time.Second
		return &Hub{backend: NewRemoteBackend(Config.InferenceURL, timeout)}, nil
	}
	predictor, err := loadPredictor()
	if err != nil {
		return nil, err
	}
	return newLocalHub(predictor), nil
}

// helper function to create hub with in-process predictor
func newLocalHub(predictor *inference.Predictor) *Hub {
	return &Hub{
		predictor: predictor,
		backend:   &LocalBackend{Predictor: predictor, K: 1},
	}
}

// Close releases hub resources
func (h *Hub) Close() error {
	if h.predictor != nil {
		return h.predictor.Close()
	}
	return nil
}

// helper function to write JSON response
func writeJSON(w http.ResponseWriter, httpCode int, rec any) {
	data, err := json.Marshal(rec)
	if err != nil {
		httpCode = http.StatusInternalServerError
		data, _ = json.Marshal(HTTPError{HTTPCode: httpCode, Code: JsonMarshal, Reason: errorMessage(JsonMarshal), Error: err.Error()})
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(httpCode)
	w.Write(data)
}

// helper function to provide standard JSON error reply
func apiError(w http.ResponseWriter, r *http.Request, code int, err error, httpCode int) {
	hrec := HTTPError{
		Method:    r.Method,
		Path:      r.RequestURI,
		UserAgent: r.Header.Get("User-agent"),
		RequestID: w.Header().Get(requestIDHeader),
		Timestamp: time.Now().String(),
		Code:      code,
		Reason:    errorMessage(code),
		HTTPCode:  httpCode,
		Error:     err.Error(),
	}
	if Config.Verbose > 0 {
		log.Printf("HTTPError: %+v", hrec)
	}
	writeJSON(w, httpCode, hrec)
}

// helper function to make initial template struct
func makeTmpl(title string) TmplRecord {
	tmpl := make(TmplRecord)
	tmpl["Title"] = title
	tmpl["Base"] = Config.Base
	tmpl["ServerInfo"] = info()
	tmpl["Backend"] = Config.Backend
	tmpl["Countries"] = catalog.Countries()
	tmpl["Country"] = catalog.Countries()[0]
	tmpl["Extensions"] = strings.Join(imaging.Extensions, ",")
	tmpl["Stage"] = StageIdle
	tmpl["StartTime"] = time.Now().Unix()
	return tmpl
}

// helper function to generate HTML response
func httpResponse(w http.ResponseWriter, r *http.Request, tmpl TmplRecord) {
	tmpl["ElapsedTime"] = time.Since(time.Unix(int64(tmpl.GetInt("StartTime")), 0)).String()
	var page strings.Builder
	for _, name := range []string{"top.tmpl", tmpl.GetString("Template"), "bottom.tmpl"} {
		html, err := renderTemplate(name, tmpl)
		if err != nil {
			log.Printf("unable to render %s for %s %s, error %v", name, r.Method, r.RequestURI, err)
			http.Error(w, errorMessage(GenericError), http.StatusInternalServerError)
			return
		}
		page.WriteString(html)
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if httpCode := tmpl.GetInt("HttpCode"); httpCode != 0 {
		w.WriteHeader(httpCode)
	}
	w.Write([]byte(page.String()))
}

// helper function to provide standard HTML error reply
func httpError(w http.ResponseWriter, r *http.Request, tmpl TmplRecord, code int, err error, httpCode int) {
	if Config.Verbose > 0 {
		log.Printf("ERROR: %s %s code=%d error=%v", r.Method, r.RequestURI, code, err)
	}
	tmpl["Code"] = code
	tmpl["Reason"] = errorMessage(code)
	tmpl["Error"] = err
	tmpl["HttpCode"] = httpCode
	tmpl["Content"] = err.Error()
	tmpl["Template"] = "error.tmpl"
	httpResponse(w, r, tmpl)
}

// helper function to read uploaded file from multipart form
func uploadedFile(w http.ResponseWriter, r *http.Request, key string) ([]byte, string, error) {
	r.Body = http.MaxBytesReader(w, r.Body, Config.MaxUpload<<20)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		return nil, "", err
	}
	file, header, err := r.FormFile(key)
	if err != nil {
		return nil, "", fmt.Errorf("no image file provided, use '%s' as the form field name: %w", key, err)
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		return nil, "", err
	}
	if Config.Verbose > 0 {
		log.Printf("received file %s, size %d bytes", header.Filename, len(data))
	}
	return data, header.Filename, nil
}

// helper function to move front-end flow to next stage, transitions which
// are not allowed keep current stage
func nextStage(r *http.Request, stage Stage, e Event) Stage {
	next, err := stage.Next(e)
	if err != nil && Config.Verbose > 0 {
		log.Printf("%s %s stage transition error: %v", r.Method, r.RequestURI, err)
	}
	return next
}

// helper function to classify upload errors
func uploadErrorCode(err error) (int, int) {
	var mbe *http.MaxBytesError
	if errors.As(err, &mbe) {
		return TooLarge, http.StatusRequestEntityTooLarge
	}
	return BadRequest, http.StatusBadRequest
}

//
// inference service handlers
//

// StatusHandler provides liveness probe
func (h *Hub) StatusHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, StatusResponse{Status: "ok"})
}

// PredictHandler classifies uploaded image and returns top predictions
func (h *Hub) PredictHandler(w http.ResponseWriter, r *http.Request) {
	data, _, err := uploadedFile(w, r, "file")
	if err != nil {
		code, httpCode := uploadErrorCode(err)
		apiError(w, r, code, err, httpCode)
		return
	}
	records, err := classify(r.Context(), h.predictor, data, Config.TopK)
	if err != nil {
		if errors.Is(err, imaging.ErrDecode) {
			apiError(w, r, DecodeError, err, http.StatusBadRequest)
			return
		}
		log.Printf("Prediction error: %v", err)
		apiError(w, r, InferenceError, err, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, PredictResponse{TopPredictions: records})
}

//
// front-end handlers
//

// IndexHandler provides upload page
func (h *Hub) IndexHandler(w http.ResponseWriter, r *http.Request) {
	tmpl := makeTmpl("AI for Circular Resource Intelligence")
	tmpl["Template"] = "index.tmpl"
	httpResponse(w, r, tmpl)
}

// AnalyzeHandler classifies uploaded image and renders results page
func (h *Hub) AnalyzeHandler(w http.ResponseWriter, r *http.Request) {
	tmpl := makeTmpl("AI for Circular Resource Intelligence")
	stage := StageIdle

	data, fname, err := uploadedFile(w, r, "file")
	if err != nil {
		code, httpCode := uploadErrorCode(err)
		httpError(w, r, tmpl, code, err, httpCode)
		return
	}
	if !imaging.AllowedFile(fname) {
		err := fmt.Errorf("file %s is not supported, please upload one of %s", fname, strings.Join(imaging.Extensions, ", "))
		httpError(w, r, tmpl, BadRequest, err, http.StatusBadRequest)
		return
	}
	img, format, err := imaging.Decode(data)
	if err != nil {
		httpError(w, r, tmpl, DecodeError, err, http.StatusBadRequest)
		return
	}
	stage = nextStage(r, stage, EventUpload)
	country := r.FormValue("country")
	if country == "" {
		country = catalog.DefaultCountry
	}
	tmpl["Country"] = country
	tmpl["FileName"] = fname
	tmpl["Width"] = img.Bounds().Dx()
	tmpl["Height"] = img.Bounds().Dy()
	tmpl["Image"] = template.URL(fmt.Sprintf("data:image/%s;base64,%s", format, base64.StdEncoding.EncodeToString(data)))

	stage = nextStage(r, stage, EventAnalyze)
	preds, err := h.backend.Predict(r.Context(), fname, img)
	if err != nil {
		var apiErr *APIError
		var connErr *ConnectionError
		if errors.As(err, &apiErr) || errors.As(err, &connErr) {
			stage = nextStage(r, stage, EventFailure)
			tmpl["Stage"] = stage
			tmpl["Message"] = err.Error()
			tmpl["Template"] = "results.tmpl"
			httpResponse(w, r, tmpl)
			return
		}
		code := InferenceError
		if h.backend.Name() == BackendRemote {
			code = BackendError
		}
		httpError(w, r, tmpl, code, err, http.StatusInternalServerError)
		return
	}
	stage = nextStage(r, stage, EventResults)
	tmpl["Stage"] = stage
	tmpl["Predictions"] = preds
	tmpl["Resources"] = template.HTML(mdToHTML(catalog.Resources(country)))
	tmpl["Template"] = "results.tmpl"
	httpResponse(w, r, tmpl)
}

// MapsHandler provides map search link for recycling centers
func (h *Hub) MapsHandler(w http.ResponseWriter, r *http.Request) {
	tmpl := makeTmpl("Find Nearest Recycling Center")
	country := r.FormValue("country")
	if country == "" {
		country = catalog.DefaultCountry
	}
	tmpl["Country"] = country
	tmpl["MapURL"] = catalog.MapSearchURL(country)
	tmpl["Resources"] = template.HTML(mdToHTML(catalog.Resources(country)))
	tmpl["Template"] = "maps.tmpl"
	httpResponse(w, r, tmpl)
}

// ResourcesHandler provides country resource block either as markdown or HTML
func (h *Hub) ResourcesHandler(w http.ResponseWriter, r *http.Request) {
	block := catalog.Resources(r.FormValue("country"))
	if strings.Contains(r.Header.Get("Accept"), "text/markdown") {
		w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
		w.Write([]byte(block))
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(mdToHTML(block)))
}
