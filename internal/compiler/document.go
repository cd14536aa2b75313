package compiler

import (
	"bytes"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/aretw0/sinew/pkg/graph"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Document kinds.
const (
	KindGraph   = "graph"
	KindMachine = "machine"
)

// Document is the YAML form of a graph or a state machine asset.
type Document struct {
	Kind        string `yaml:"kind" validate:"required,oneof=graph machine"`
	Name        string `yaml:"name" validate:"required"`
	Description string `yaml:"description,omitempty"`

	Inputs     []InputDoc     `yaml:"inputs,omitempty" validate:"dive"`
	TimeInputs []TimeInputDoc `yaml:"time_inputs,omitempty" validate:"dive"`

	// Graph documents.
	Outputs []OutputDoc `yaml:"outputs,omitempty" validate:"dive"`
	Pose    string      `yaml:"pose,omitempty"`
	Nodes   []NodeDoc   `yaml:"nodes,omitempty" validate:"dive"`

	// Machine documents.
	Start       string          `yaml:"start,omitempty" validate:"required_if=Kind machine"`
	States      []StateDoc      `yaml:"states,omitempty" validate:"required_if=Kind machine,dive"`
	Transitions []TransitionDoc `yaml:"transitions,omitempty" validate:"dive"`
}

// InputDoc declares a data input. Default is optional.
type InputDoc struct {
	Name    string `yaml:"name" validate:"required"`
	Type    string `yaml:"type" validate:"required"`
	Default any    `yaml:"default,omitempty"`
}

type TimeInputDoc struct {
	Name  string `yaml:"name" validate:"required"`
	Space string `yaml:"space,omitempty" validate:"omitempty,oneof=any local character"`
}

// OutputDoc declares a data output fed by From, a source pin address.
type OutputDoc struct {
	Name string `yaml:"name" validate:"required"`
	Type string `yaml:"type" validate:"required"`
	From string `yaml:"from" validate:"required"`
}

// NodeDoc is one node. Inputs maps the node's input pins to source addresses.
type NodeDoc struct {
	ID       string            `yaml:"id" validate:"required,excludesall=.@"`
	Kind     string            `yaml:"kind" validate:"required"`
	Debug    bool              `yaml:"debug,omitempty"`
	Position *graph.Position   `yaml:"position,omitempty"`
	Params   map[string]any    `yaml:"params,omitempty"`
	Inputs   map[string]string `yaml:"inputs,omitempty"`
}

type StateDoc struct {
	ID    string `yaml:"id" validate:"required"`
	Graph string `yaml:"graph" validate:"required"`
}

// TransitionDoc is an immediate transition, or a blended one when Blend names
// a transition graph.
type TransitionDoc struct {
	ID       string  `yaml:"id,omitempty"`
	From     string  `yaml:"from" validate:"required"`
	To       string  `yaml:"to" validate:"required"`
	Event    string  `yaml:"event,omitempty"`
	Blend    string  `yaml:"blend,omitempty"`
	Duration float64 `yaml:"duration,omitempty" validate:"gte=0"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

func init() {
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("yaml"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}

// Parse decodes and validates a document. Unknown fields are rejected.
func Parse(data []byte) (*Document, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var doc Document
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to parse document: %w", err)
	}
	if err := validate.Struct(&doc); err != nil {
		return nil, translate(err)
	}
	return &doc, nil
}

func translate(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	out := &DocumentError{}
	for _, fe := range verrs {
		key := strings.TrimPrefix(fe.Namespace(), "Document.")
		reason := fe.Tag()
		if fe.Param() != "" {
			reason += "=" + fe.Param()
		}
		var value any
		if fe.Tag() != "required" && fe.Tag() != "required_if" {
			value = fe.Value()
		}
		out.Errors = append(out.Errors, &ValidationError{Key: key, Reason: "failed " + reason, Value: value})
	}
	return out
}
