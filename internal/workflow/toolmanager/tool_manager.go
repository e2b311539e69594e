package toolmanager

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"strings"

	"github.com/mitchellh/mapstructure"
	"go.uber.org/zap"

	"github.com/Cyclone1070/storyloop/internal/provider"
	"github.com/Cyclone1070/storyloop/internal/tool"
	"github.com/Cyclone1070/storyloop/internal/tool/calculator"
	"github.com/Cyclone1070/storyloop/internal/tool/random"
)

// ToolManager dispatches model tool calls to the built-in tools.
// The tool set is fixed; there is no registration API.
type ToolManager struct {
	source random.Source
	logger *zap.Logger
}

// Option configures a ToolManager.
type Option func(*ToolManager)

// WithLogger sets the logger used for dispatch diagnostics.
func WithLogger(l *zap.Logger) Option {
	return func(m *ToolManager) {
		if l != nil {
			m.logger = l
		}
	}
}

// NewToolManager creates a manager whose random tools draw from src.
func NewToolManager(src random.Source, opts ...Option) *ToolManager {
	m := &ToolManager{source: src, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Declarations returns the tool contracts sorted by name.
func (m *ToolManager) Declarations() []tool.Declaration {
	decls := make([]tool.Declaration, 0, len(tool.Kinds()))
	for _, k := range tool.Kinds() {
		decls = append(decls, declaration(k))
	}
	return decls
}

func declaration(k tool.Kind) tool.Declaration {
	switch k {
	case tool.KindCalculator:
		return calculator.Declaration()
	case tool.KindRandomInteger:
		return random.IntegerDeclaration()
	case tool.KindWeightedChoice:
		return random.ChoiceDeclaration()
	}
	panic("toolmanager: no declaration for " + string(k))
}

// Execute runs one tool call. It never fails: unknown tools, bad arguments,
// tool errors and panics all come back as a failed Result the model can read.
func (m *ToolManager) Execute(tc provider.ToolCall) (res Result) {
	log := m.logger.With(zap.String("tool", tc.Name), zap.String("call_id", tc.ID))

	defer func() {
		if r := recover(); r != nil {
			log.Error("tool panicked", zap.Any("panic", r))
			res = failure(tc.ID, tc.Name, ReasonInternalError, fmt.Sprintf("tool %q failed unexpectedly", tc.Name))
		}
	}()

	kind, err := tool.ParseKind(tc.Name)
	if err != nil {
		log.Warn("unknown tool requested")
		return failure(tc.ID, tc.Name, ReasonUnknownTool,
			fmt.Sprintf("%v; available tools: %s", err, strings.Join(kindNames(), ", ")))
	}

	var value any
	switch kind {
	case tool.KindCalculator:
		var req calculator.Request
		if err := decodeArgs(tc.Arguments, &req); err != nil {
			return m.invalidArgs(tc, err)
		}
		if err := req.Validate(); err != nil {
			return m.invalidArgs(tc, err)
		}
		value, err = calculator.Run(&req)
	case tool.KindRandomInteger:
		var req random.IntegerRequest
		if err := decodeArgs(tc.Arguments, &req); err != nil {
			return m.invalidArgs(tc, err)
		}
		if err := req.Validate(); err != nil {
			return m.invalidArgs(tc, err)
		}
		value, err = random.RunInteger(m.source, &req)
	case tool.KindWeightedChoice:
		var req random.ChoiceRequest
		if err := decodeArgs(tc.Arguments, &req); err != nil {
			return m.invalidArgs(tc, err)
		}
		value, err = random.RunChoice(m.source, &req)
	}

	if err != nil {
		reason := reasonFor(err)
		log.Debug("tool returned error", zap.String("reason", string(reason)), zap.Error(err))
		return failure(tc.ID, tc.Name, reason, err.Error())
	}

	log.Debug("tool succeeded", zap.Any("result", value))
	return success(tc.ID, tc.Name, value)
}

func (m *ToolManager) invalidArgs(tc provider.ToolCall, err error) Result {
	m.logger.Debug("invalid tool arguments", zap.String("tool", tc.Name), zap.Error(err))
	return failure(tc.ID, tc.Name, ReasonInvalidArguments,
		fmt.Sprintf("invalid arguments for tool %q: %v", tc.Name, err))
}

func kindNames() []string {
	kinds := tool.Kinds()
	names := make([]string, len(kinds))
	for i, k := range kinds {
		names[i] = string(k)
	}
	return names
}

// reasonCodes is checked in order; the first matching sentinel wins.
var reasonCodes = []struct {
	err    error
	reason Reason
}{
	{calculator.ErrInvalidCharacter, ReasonInvalidCharacter},
	{calculator.ErrSyntax, ReasonSyntaxError},
	{calculator.ErrDivisionByZero, ReasonDivisionByZero},
	{calculator.ErrNonFiniteResult, ReasonNonFiniteResult},
	{random.ErrInvalidRange, ReasonInvalidRange},
	{random.ErrEmptyChoiceSet, ReasonEmptyChoiceSet},
	{random.ErrLengthMismatch, ReasonLengthMismatch},
	{random.ErrNegativeWeight, ReasonNegativeWeight},
	{random.ErrWeightSumInvalid, ReasonWeightSumInvalid},
	{random.ErrBoundRequired, ReasonInvalidArguments},
	{calculator.ErrExpressionRequired, ReasonInvalidArguments},
}

func reasonFor(err error) Reason {
	for _, rc := range reasonCodes {
		if errors.Is(err, rc.err) {
			return rc.reason
		}
	}
	return ReasonInternalError
}

// decodeArgs maps model-supplied arguments onto a typed request. Unknown keys
// are rejected, and JSON numbers only land in integer fields when whole.
func decodeArgs(args map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:      out,
		TagName:     "mapstructure",
		ErrorUnused: true,
		DecodeHook:  wholeNumberHook,
	})
	if err != nil {
		return err
	}
	return dec.Decode(args)
}

func wholeNumberHook(from, to reflect.Type, data any) (any, error) {
	if to.Kind() != reflect.Int64 {
		return data, nil
	}
	switch from.Kind() {
	case reflect.Float32, reflect.Float64:
		f := reflect.ValueOf(data).Float()
		if f != math.Trunc(f) || math.IsInf(f, 0) || math.IsNaN(f) {
			return nil, fmt.Errorf("expected an integer, got %v", f)
		}
		if f < math.MinInt64 || f >= math.MaxInt64 {
			return nil, fmt.Errorf("integer %v out of range", f)
		}
		return int64(f), nil
	}
	return data, nil
}
