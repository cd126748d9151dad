package model

import (
	"runtime"
	"sync"

	"github.com/pkg/errors"
	ort "github.com/yalue/onnxruntime_go"
)

var ortInitOnce sync.Once

func initORT() error {
	var err error
	ortInitOnce.Do(func() {
		libPath := "/usr/lib/libonnxruntime.so"
		if runtime.GOOS == "windows" {
			libPath = "onnxruntime.dll"
		} else if runtime.GOOS == "darwin" {
			libPath = "libonnxruntime.dylib"
		}
		ort.SetSharedLibraryPath(libPath)
		err = ort.InitializeEnvironment()
	})
	return err
}

// ONNXPredictor runs the trained LSTM through onnxruntime. Input is a window
// of sequenceLength scaled prices shaped [1, sequenceLength, 1]; output is a
// single scaled prediction.
type ONNXPredictor struct {
	sequenceLength int
	session        *ort.AdvancedSession
	input          *ort.Tensor[float32]
	output         *ort.Tensor[float32]
}

// NewONNXPredictor loads the model at modelPath expecting windows of
// sequenceLength prices.
func NewONNXPredictor(modelPath string, sequenceLength int) (*ONNXPredictor, error) {
	if err := initORT(); err != nil {
		return nil, errors.Wrap(err, "model: initializing onnxruntime")
	}

	inputShape := ort.NewShape(1, int64(sequenceLength), 1)
	inputTensor, err := ort.NewTensor(inputShape, make([]float32, sequenceLength))
	if err != nil {
		return nil, errors.Wrap(err, "model: creating input tensor")
	}

	outputShape := ort.NewShape(1, 1)
	outputTensor, err := ort.NewEmptyTensor[float32](outputShape)
	if err != nil {
		inputTensor.Destroy()
		return nil, errors.Wrap(err, "model: creating output tensor")
	}

	session, err := ort.NewAdvancedSession(modelPath,
		[]string{"input"}, []string{"output"},
		[]ort.Value{inputTensor}, []ort.Value{outputTensor}, nil)
	if err != nil {
		inputTensor.Destroy()
		outputTensor.Destroy()
		return nil, errors.Wrap(err, "model: creating session")
	}

	return &ONNXPredictor{
		sequenceLength: sequenceLength,
		session:        session,
		input:          inputTensor,
		output:         outputTensor,
	}, nil
}

// Predict runs one inference over a scaled window.
func (p *ONNXPredictor) Predict(window []float32) (float32, error) {
	if len(window) != p.sequenceLength {
		return 0, errors.Errorf("model: window must hold exactly %d prices, got %d", p.sequenceLength, len(window))
	}
	copy(p.input.GetData(), window)
	if err := p.session.Run(); err != nil {
		return 0, errors.Wrap(err, "model: inference failed")
	}
	out := p.output.GetData()
	if len(out) == 0 {
		return 0, errors.New("model: inference produced no output")
	}
	return out[0], nil
}

// Close releases the session and its tensors.
func (p *ONNXPredictor) Close() {
	if p.session != nil {
		p.session.Destroy()
	}
	if p.input != nil {
		p.input.Destroy()
	}
	if p.output != nil {
		p.output.Destroy()
	}
}
