package ocr

import "errors"

var (
	// ErrEngineInit means no worker could be started.
	ErrEngineInit = errors.New("ocr engine init failed")
	// ErrRecognition means a started worker failed to recognize the image.
	ErrRecognition = errors.New("ocr recognition failed")
)
