package identify

import "errors"

// Prediction is the classifier's answer for one coin image.
type Prediction struct {
	PredictedClass string  `json:"predicted_class"`
	Probability    float64 `json:"probability"`
}

// ErrInvalidImage is returned when the upload cannot be decoded as an image.
var ErrInvalidImage = errors.New("cannot identify image file")

// ErrUnavailable is returned by a nil Classifier.
var ErrUnavailable = errors.New("AI model is not available")
