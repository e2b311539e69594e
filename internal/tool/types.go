package tool

import "fmt"

// Type represents JSON Schema types.
type Type string

const (
	TypeString  Type = "string"
	TypeNumber  Type = "number"
	TypeInteger Type = "integer"
	TypeBoolean Type = "boolean"
	TypeArray   Type = "array"
	TypeObject  Type = "object"
)

// Schema represents a JSON Schema for tool parameters.
type Schema struct {
	Type        Type               `json:"type"`
	Description string             `json:"description,omitempty"`
	Properties  map[string]*Schema `json:"properties,omitempty"`
	Required    []string           `json:"required,omitempty"`
	Items       *Schema            `json:"items,omitempty"`
	Enum        []string           `json:"enum,omitempty"`
}

// Declaration declares a tool's function signature for the LLM.
type Declaration struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Parameters  *Schema `json:"parameters,omitempty"`
}

// Kind identifies one of the built-in tools. The set is closed.
type Kind string

const (
	KindCalculator     Kind = "calculator"
	KindRandomInteger  Kind = "random_integer"
	KindWeightedChoice Kind = "weighted_choice"
)

// Kinds lists every tool kind in name order.
func Kinds() []Kind {
	return []Kind{KindCalculator, KindRandomInteger, KindWeightedChoice}
}

// ParseKind maps a model-supplied tool name onto a Kind.
func ParseKind(name string) (Kind, error) {
	switch k := Kind(name); k {
	case KindCalculator, KindRandomInteger, KindWeightedChoice:
		return k, nil
	default:
		return "", &UnknownToolError{Name: name}
	}
}

// UnknownToolError is returned when a model asks for a tool outside the closed set.
type UnknownToolError struct {
	Name string
}

func (e *UnknownToolError) Error() string {
	return fmt.Sprintf("unknown tool %q", e.Name)
}
