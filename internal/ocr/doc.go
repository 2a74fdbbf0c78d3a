// Package ocr turns text-recognition output into text elements.
//
// The pipeline talks to recognition engines through the Recognizer
// interface. An engine reports each recognized line as a quadrilateral with
// floating-point corners, the recognized string and a confidence score;
// Adapt converts those into text elements with integer boxes clamped to the
// image.
//
// # Engines
//
// The shipped engine is Tesseract, wrapped through gosseract/v2. It needs
// CGO and the Tesseract libraries at build time, and language data at run
// time:
//   - Ubuntu/Debian: apt-get install tesseract-ocr libtesseract-dev
//   - macOS: brew install tesseract
//
// Language data files are required for each language:
//   - Ubuntu/Debian: apt-get install tesseract-ocr-eng (for English)
//   - Other languages: tesseract-ocr-<lang> packages
//
// Builds without CGO get a stub whose constructor always reports
// ErrDetectorUnavailable; contour detection still works in those builds.
//
// # Lifecycle
//
// Engines are expensive to start. Lazy wraps a constructor and builds the
// engine on first use, exactly once, even when several goroutines ask at
// the same time. A failed construction is reported and retried on the next
// call. The owner of a Lazy closes it to release the engine.
//
// # Error Handling
//
// Construction and recognition failures wrap ErrDetectorUnavailable. An
// image without text is not an error: Recognize returns an empty slice.
package ocr
