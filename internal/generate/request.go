package generate

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dmorgan81/fluxgen/internal/model"
)

const (
	MinSteps     = 1
	MaxSteps     = 20
	DefaultSteps = 10
	MinCount     = 1
	MaxCount     = 10
	DefaultCount = 4
)

var ErrInvalidRequest = errors.New("invalid generation request")

type Request struct {
	Prompt string
	Model  model.Label
	Steps  int
	Count  int
}

func NewRequest(prompt string, label model.Label, steps, count int) (Request, error) {
	req := Request{Prompt: prompt, Model: label, Steps: steps, Count: count}
	if err := req.Validate(); err != nil {
		return Request{}, err
	}
	return req, nil
}

func (r Request) Validate() error {
	switch {
	case strings.TrimSpace(r.Prompt) == "":
		return fmt.Errorf("%w: prompt is required", ErrInvalidRequest)
	case r.Model == "":
		return fmt.Errorf("%w: model is required", ErrInvalidRequest)
	case r.Steps < MinSteps || r.Steps > MaxSteps:
		return fmt.Errorf("%w: steps must be between %d and %d, got %d", ErrInvalidRequest, MinSteps, MaxSteps, r.Steps)
	case r.Count < MinCount || r.Count > MaxCount:
		return fmt.Errorf("%w: count must be between %d and %d, got %d", ErrInvalidRequest, MinCount, MaxCount, r.Count)
	}
	return nil
}
