package image

import "context"

type Params struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Steps  int    `json:"steps"`
	N      int    `json:"n"`
}

// Descriptor is one entry of a generation response. URL may be empty.
type Descriptor struct {
	Index int
	URL   string
}

type Generator interface {
	Generate(context.Context, Params) ([]Descriptor, error)
}

// GeneratorFactory builds a Generator for a single run from the caller's API key.
type GeneratorFactory func(apiKey string) (Generator, error)
