package http

import "github.com/aretw0/sinew/internal/dto"

// EvaluateRequest is the body of POST /assets/{name}/evaluate.
// Delta is the default time step; a frame may override it.
type EvaluateRequest struct {
	Delta   float64        `json:"delta"`
	Frames  []FrameRequest `json:"frames"`
	Outputs []string       `json:"outputs,omitempty"`
}

// FrameRequest sets graph inputs before a frame is stepped. Event queue
// inputs take a list of event names.
type FrameRequest struct {
	Inputs map[string]any `json:"inputs,omitempty"`
	Delta  *float64       `json:"delta,omitempty"`
}

type EvaluateResponse struct {
	Instance string      `json:"instance"`
	Frames   []dto.Frame `json:"frames"`
}

type ValidateResponse struct {
	Valid  bool              `json:"valid"`
	Errors map[string]string `json:"errors,omitempty"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
