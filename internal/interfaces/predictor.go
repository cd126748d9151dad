package interfaces

// Predictor maps a fixed-length, scaled price window to a predicted scaled
// value. The forecasting model behind it is opaque to the trading pipeline.
type Predictor interface {
	Predict(window []float32) (float32, error)
}
