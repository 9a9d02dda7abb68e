package inference

// onnx module provides ONNX Runtime based classifier
//
// Copyright (c) 2025 - Valentin Kuznetsov <vkuznet@gmail.com>
//

import (
	"context"
	"log"
	"os"
	"sync"

	"github.com/pkg/errors"
	"github.com/vkuznet/recyclehub/imaging"
	ort "github.com/yalue/onnxruntime_go"
)

// Config represents ONNX classifier configuration
type Config struct {
	ModelPath    string // path to ONNX model file
	LibraryPath  string // path to onnxruntime shared library
	InputName    string // model input name, discovered from model if empty
	OutputName   string // model output name, discovered from model if empty
	NumClasses   int    // number of classes model predicts
	ApplySoftmax bool   // apply softmax to model outputs (models emitting logits)
	Threads      int    // intra op threads, 0 means onnxruntime default
	Verbose      int    // verbosity level
}

// ONNXClassifier implements Classifier interface using ONNX Runtime session.
// The session and its tensors are allocated once, Predict calls are
// serialized since they share input and output tensors.
type ONNXClassifier struct {
	config  Config
	mu      sync.Mutex
	session *ort.AdvancedSession
	input   *ort.Tensor[float32]
	output  *ort.Tensor[float32]
}

// NewONNXClassifier loads ONNX model and prepares inference session
func NewONNXClassifier(config Config) (*ONNXClassifier, error) {
	if config.NumClasses <= 0 {
		return nil, errors.Errorf("invalid number of classes %d", config.NumClasses)
	}
	if _, err := os.Stat(config.ModelPath); err != nil {
		return nil, errors.Wrapf(err, "model file %s", config.ModelPath)
	}
	if config.LibraryPath != "" {
		ort.SetSharedLibraryPath(config.LibraryPath)
	}
	if !ort.IsInitialized() {
		if err := ort.InitializeEnvironment(); err != nil {
			return nil, errors.Wrap(err, "failed to initialize ONNX environment")
		}
	}

	if config.InputName == "" || config.OutputName == "" {
		if err := discoverNames(&config); err != nil {
			return nil, err
		}
	}
	if config.Verbose > 0 {
		log.Printf("ONNX model %s input=%s output=%s", config.ModelPath, config.InputName, config.OutputName)
	}

	inputShape := ort.NewShape(1, imaging.Height, imaging.Width, imaging.Channels)
	input, err := ort.NewEmptyTensor[float32](inputShape)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create input tensor")
	}
	outputShape := ort.NewShape(1, int64(config.NumClasses))
	output, err := ort.NewEmptyTensor[float32](outputShape)
	if err != nil {
		input.Destroy()
		return nil, errors.Wrap(err, "failed to create output tensor")
	}

	options, err := ort.NewSessionOptions()
	if err != nil {
		input.Destroy()
		output.Destroy()
		return nil, errors.Wrap(err, "failed to create session options")
	}
	defer options.Destroy()
	if config.Threads > 0 {
		if err := options.SetIntraOpNumThreads(config.Threads); err != nil {
			log.Println("unable to set number of threads", err)
		}
	}

	session, err := ort.NewAdvancedSession(config.ModelPath,
		[]string{config.InputName}, []string{config.OutputName},
		[]ort.ArbitraryTensor{input}, []ort.ArbitraryTensor{output},
		options)
	if err != nil {
		input.Destroy()
		output.Destroy()
		return nil, errors.Wrap(err, "failed to create ONNX session")
	}
	return &ONNXClassifier{
		config:  config,
		session: session,
		input:   input,
		output:  output,
	}, nil
}

// helper function to obtain input and output names from the model file
func discoverNames(config *Config) error {
	inputs, outputs, err := ort.GetInputOutputInfo(config.ModelPath)
	if err != nil {
		return errors.Wrap(err, "failed to read model inputs and outputs")
	}
	if len(inputs) != 1 || len(outputs) != 1 {
		return errors.Errorf("model should have single input and output, got %d and %d", len(inputs), len(outputs))
	}
	dims := outputs[0].Dimensions
	if n := len(dims); n > 0 && dims[n-1] > 0 && dims[n-1] != int64(config.NumClasses) {
		return errors.Errorf("model output has %d classes, expect %d", dims[n-1], config.NumClasses)
	}
	if config.InputName == "" {
		config.InputName = inputs[0].Name
	}
	if config.OutputName == "" {
		config.OutputName = outputs[0].Name
	}
	return nil
}

// Predict runs inference for given tensor and returns probability vector
func (c *ONNXClassifier) Predict(ctx context.Context, tensor *imaging.Tensor) ([]float32, error) {
	if err := tensor.Validate(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c.mu.Lock()
	copy(c.input.GetData(), tensor.Data)
	if err := c.session.Run(); err != nil {
		c.mu.Unlock()
		return nil, errors.Wrap(err, "inference failed")
	}
	out := make([]float32, c.config.NumClasses)
	copy(out, c.output.GetData())
	c.mu.Unlock()

	if c.config.ApplySoftmax {
		out = Softmax(out)
	}
	return out, nil
}

// Close releases ONNX session, tensors and environment
func (c *ONNXClassifier) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.input != nil {
		c.input.Destroy()
		c.input = nil
	}
	if c.output != nil {
		c.output.Destroy()
		c.output = nil
	}
	if c.session != nil {
		c.session.Destroy()
		c.session = nil
	}
	return ort.DestroyEnvironment()
}
