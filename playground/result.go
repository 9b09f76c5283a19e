package playground

import "strings"

// ImagePrefix marks an engine return value as an image data URI.
const ImagePrefix = "data:"

// Result is the classified outcome of one engine invocation. It is either
// an Image or a Failure.
type Result interface {
	isResult()
}

// Image holds a data URI suitable as an image source.
type Image struct {
	Data string
}

// Failure holds the engine's message verbatim.
type Failure struct {
	Message string
}

func (Image) isResult()   {}
func (Failure) isResult() {}

// Classify converts a raw engine return value into a Result. It is the only
// place raw engine strings are inspected.
func Classify(raw string) Result {
	if strings.HasPrefix(raw, ImagePrefix) {
		return Image{Data: raw}
	}
	return Failure{Message: raw}
}
