package calculator

import (
	"fmt"

	"github.com/Cyclone1070/storyloop/internal/tool"
)

// Request is the calculator tool input. Expression is a pointer so a missing
// argument is told apart from an empty one.
type Request struct {
	Expression *string `mapstructure:"expression" json:"expression"`
}

func (r *Request) Validate() error {
	if r.Expression == nil {
		return ErrExpressionRequired
	}
	return nil
}

func (r *Request) String() string {
	if r.Expression == nil {
		return "?"
	}
	return *r.Expression
}

// Declaration returns the contract advertised to the model.
func Declaration() tool.Declaration {
	return tool.Declaration{
		Name: string(tool.KindCalculator),
		Description: "Evaluates an arithmetic expression and returns the exact numeric result. " +
			"Use it for every in-game calculation (damage, prices, stats) instead of doing math yourself. " +
			"Supports + - * / % ^ (or **) and parentheses. Exponents chain left to right.",
		Parameters: &tool.Schema{
			Type: tool.TypeObject,
			Properties: map[string]*tool.Schema{
				"expression": {
					Type:        tool.TypeString,
					Description: `Arithmetic expression, e.g. "(10 + 5) * 2 ^ 2".`,
				},
			},
			Required: []string{"expression"},
		},
	}
}

// Run validates the request and evaluates it.
func Run(req *Request) (float64, error) {
	if err := req.Validate(); err != nil {
		return 0, err
	}
	v, err := Evaluate(*req.Expression)
	if err != nil {
		return 0, fmt.Errorf("evaluate %q: %w", *req.Expression, err)
	}
	return v, nil
}
