package model

import (
	"fmt"
	"sync"

	"github.com/pkg/errors"
	ort "github.com/yalue/onnxruntime_go"
)

const (
	InputHeight   = 224
	InputWidth    = 224
	InputChannels = 3

	// InputSize is the flat tensor length the bundled model expects.
	InputSize = InputHeight * InputWidth * InputChannels

	// NumClasses includes the background class at index 0.
	NumClasses = 1001
)

// Session wraps an ONNX Runtime session for the bundled classifier.
// Input and output tensors are allocated once at load time and reused for
// every call; Invoke serializes access so only one inference runs at a time.
type Session struct {
	mu           sync.Mutex
	session      *ort.AdvancedSession
	inputTensor  *ort.Tensor[float32]
	outputTensor *ort.Tensor[float32]
}

// Load reads the serialized graph at modelPath and builds a session
// configured for plain CPU execution.
func Load(modelPath string) (*Session, error) {
	if err := ort.InitializeEnvironment(); err != nil {
		return nil, &LoadError{Asset: modelPath, Err: errors.Wrap(err, "onnx environment")}
	}

	inputShape := ort.NewShape(1, InputHeight, InputWidth, InputChannels)
	outputShape := ort.NewShape(1, NumClasses)

	inputTensor, err := ort.NewEmptyTensor[float32](inputShape)
	if err != nil {
		return nil, &LoadError{Asset: modelPath, Err: errors.Wrap(err, "input tensor")}
	}

	outputTensor, err := ort.NewEmptyTensor[float32](outputShape)
	if err != nil {
		inputTensor.Destroy()
		return nil, &LoadError{Asset: modelPath, Err: errors.Wrap(err, "output tensor")}
	}

	session, err := ort.NewAdvancedSession(modelPath,
		[]string{"input"}, []string{"output"},
		[]ort.ArbitraryTensor{inputTensor}, []ort.ArbitraryTensor{outputTensor},
		nil)
	if err != nil {
		inputTensor.Destroy()
		outputTensor.Destroy()
		return nil, &LoadError{Asset: modelPath, Err: errors.Wrap(err, "onnx session")}
	}

	return &Session{
		session:      session,
		inputTensor:  inputTensor,
		outputTensor: outputTensor,
	}, nil
}

func (s *Session) Invoke(tensor []float32) ([]float32, error) {
	if len(tensor) != InputSize {
		return nil, &InferenceError{
			Reason: fmt.Sprintf("tensor has %d values, model expects %d", len(tensor), InputSize),
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	copy(s.inputTensor.GetData(), tensor)

	if err := s.session.Run(); err != nil {
		return nil, &InferenceError{Reason: "run", Err: err}
	}

	// Copy out so the caller's scores survive the next Invoke.
	out := s.outputTensor.GetData()
	scores := make([]float32, len(out))
	copy(scores, out)
	return scores, nil
}

func (s *Session) InputSize() int { return InputSize }

func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.inputTensor != nil {
		s.inputTensor.Destroy()
		s.inputTensor = nil
	}
	if s.outputTensor != nil {
		s.outputTensor.Destroy()
		s.outputTensor = nil
	}
	if s.session != nil {
		s.session.Destroy()
		s.session = nil
	}
	ort.DestroyEnvironment()
	return nil
}
