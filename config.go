package main

// config module
//
// Copyright (c) 2025 - Valentin Kuznetsov <vkuznet@gmail.com>
//

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/vkuznet/recyclehub/imaging"
)

// server roles
const (
	RoleService = "service" // HTTP inference service
	RoleWeb     = "web"     // interactive front-end
)

// front-end backends
const (
	BackendLocal  = "local"  // in-process classifier
	BackendRemote = "remote" // HTTP inference service
)

// Configuration stores server configuration parameters
type Configuration struct {
	// web server parts
	Role    string `json:"role"`     // server role: service or web
	Base    string `json:"base"`     // base URL
	LogFile string `json:"log_file"` // server log file
	Port    int    `json:"port"`     // server port number
	Verbose int    `json:"verbose"`  // verbose output

	// server parts
	RootCAs       string   `json:"rootCAs"`      // server Root CAs path
	ServerCrt     string   `json:"server_cert"`  // server certificate
	ServerKey     string   `json:"server_key"`   // server certificate
	DomainNames   []string `json:"domain_names"` // LetsEncrypt domain names
	LimiterPeriod string   `json:"rate"`         // limiter rate value
	MaxUpload     int64    `json:"max_upload"`   // max upload size in MB
	MaxPixels     int64    `json:"max_pixels"`   // max width*height of uploaded images

	// model parts
	ModelFile        string `json:"model_file"`        // ONNX model file
	ModelMetadata    string `json:"model_metadata"`    // model metadata JSON file
	OnnxLibrary      string `json:"onnx_library"`      // onnxruntime shared library
	InputName        string `json:"input_name"`        // model input name
	OutputName       string `json:"output_name"`       // model output name
	ApplySoftmax     bool   `json:"apply_softmax"`     // apply softmax to model outputs
	Threads          int    `json:"threads"`           // number of inference threads
	TopK             int    `json:"top_k"`             // number of predictions returned by service
	InferenceTimeout int    `json:"inference_timeout"` // inference timeout in seconds

	// front-end parts
	Backend       string `json:"backend"`        // local or remote inference
	InferenceURL  string `json:"inference_url"`  // inference service URL
	ClientTimeout int    `json:"client_timeout"` // HTTP client timeout in seconds
}

// Config variable represents configuration object
var Config Configuration

// helper function to parse server configuration file
func parseConfig(configFile string) error {
	if configFile != "" {
		data, err := os.ReadFile(filepath.Clean(configFile))
		if err != nil {
			log.Println("Unable to read", err)
			return err
		}
		err = json.Unmarshal(data, &Config)
		if err != nil {
			log.Println("Unable to parse", err)
			return err
		}
	}
	return setDefaults()
}

// helper function to set default values of configuration
func setDefaults() error {
	if Config.Role == "" {
		Config.Role = RoleService
	}
	if !InList(Config.Role, []string{RoleService, RoleWeb}) {
		return fmt.Errorf("unsupported role %q, should be %s or %s", Config.Role, RoleService, RoleWeb)
	}
	if Config.Backend == "" {
		Config.Backend = BackendLocal
	}
	if !InList(Config.Backend, []string{BackendLocal, BackendRemote}) {
		return fmt.Errorf("unsupported backend %q, should be %s or %s", Config.Backend, BackendLocal, BackendRemote)
	}
	if Config.Port == 0 {
		Config.Port = 8000
		if Config.Role == RoleWeb {
			Config.Port = 8501
		}
	}
	if Config.LimiterPeriod == "" {
		Config.LimiterPeriod = "100-S"
	}
	if Config.MaxUpload == 0 {
		Config.MaxUpload = 32
	}
	if Config.MaxPixels == 0 {
		Config.MaxPixels = imaging.DefaultMaxPixels
	}
	imaging.MaxPixels = Config.MaxPixels
	if Config.ModelFile == "" {
		Config.ModelFile = "my_model.onnx"
	}
	if Config.TopK == 0 {
		Config.TopK = 3
	}
	if Config.InferenceURL == "" {
		Config.InferenceURL = "http://localhost:8000"
	}
	Config.InferenceURL = strings.TrimSuffix(Config.InferenceURL, "/")
	if Config.ClientTimeout == 0 {
		Config.ClientTimeout = 10
	}
	return nil
}
