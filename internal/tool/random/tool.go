package random

import (
	"fmt"
	"strings"

	"github.com/Cyclone1070/storyloop/internal/tool"
)

// -- Random Integer --

// IntegerRequest is the random_integer tool input. Bounds are pointers so a
// missing bound is not mistaken for zero.
type IntegerRequest struct {
	Min *int64 `mapstructure:"min" json:"min"`
	Max *int64 `mapstructure:"max" json:"max"`
}

func (r *IntegerRequest) Validate() error {
	if r.Min == nil || r.Max == nil {
		return ErrBoundRequired
	}
	return nil
}

func (r *IntegerRequest) String() string {
	if r.Min == nil || r.Max == nil {
		return "?"
	}
	return fmt.Sprintf("%d..%d", *r.Min, *r.Max)
}

// IntegerDeclaration returns the contract advertised to the model.
func IntegerDeclaration() tool.Declaration {
	return tool.Declaration{
		Name: string(tool.KindRandomInteger),
		Description: "Returns a uniformly random integer between min and max, both inclusive. " +
			"Use it for dice rolls and any other chance outcome instead of inventing a number.",
		Parameters: &tool.Schema{
			Type: tool.TypeObject,
			Properties: map[string]*tool.Schema{
				"min": {Type: tool.TypeInteger, Description: "Smallest possible result."},
				"max": {Type: tool.TypeInteger, Description: "Largest possible result. Must be >= min."},
			},
			Required: []string{"min", "max"},
		},
	}
}

// RunInteger validates the request and draws from src.
func RunInteger(src Source, req *IntegerRequest) (int64, error) {
	if err := req.Validate(); err != nil {
		return 0, err
	}
	return Integer(src, *req.Min, *req.Max)
}

// -- Weighted Choice --

// ChoiceRequest is the weighted_choice tool input.
type ChoiceRequest struct {
	Choices []string  `mapstructure:"choices" json:"choices"`
	Weights []float64 `mapstructure:"weights" json:"weights,omitempty"`
}

func (r *ChoiceRequest) String() string {
	return strings.Join(r.Choices, " | ")
}

// ChoiceDeclaration returns the contract advertised to the model.
func ChoiceDeclaration() tool.Declaration {
	return tool.Declaration{
		Name: string(tool.KindWeightedChoice),
		Description: "Picks one entry from choices. Without weights every choice is equally likely. " +
			"With weights, give one non-negative weight per choice; the weights must sum to 1.",
		Parameters: &tool.Schema{
			Type: tool.TypeObject,
			Properties: map[string]*tool.Schema{
				"choices": {
					Type:        tool.TypeArray,
					Description: "Possible outcomes.",
					Items:       &tool.Schema{Type: tool.TypeString},
				},
				"weights": {
					Type:        tool.TypeArray,
					Description: "Optional probability for each choice, in the same order. Must sum to 1.",
					Items:       &tool.Schema{Type: tool.TypeNumber},
				},
			},
			Required: []string{"choices"},
		},
	}
}

// RunChoice draws one choice from src.
func RunChoice(src Source, req *ChoiceRequest) (string, error) {
	return Choose(src, req.Choices, req.Weights)
}
