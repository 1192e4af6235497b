package tools

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/dop251/goja"
)

const DefaultCalculatorTimeout = time.Second

var ErrInvalidExpression = errors.New("calculator: expression may only contain numbers and arithmetic operators")

// Calculator evaluates arithmetic expressions in a goja sandbox. Input is
// restricted to digits, operators, parentheses and whitespace, and the
// evaluation is interrupted on context cancellation or timeout.
type Calculator struct {
	Timeout time.Duration
}

var _ Tool = Calculator{}

func (Calculator) Name() string { return "calculator" }

func (Calculator) Description() string {
	return "Useful for arithmetic. Input is a single expression such as (3 + 4) * 2.5 or 2 ** 10."
}

func (c Calculator) Call(ctx context.Context, input string) (string, error) {
	expr := strings.TrimSpace(input)
	if expr == "" {
		return "", ErrEmptyInput
	}
	if strings.IndexFunc(expr, func(r rune) bool { return !strings.ContainsRune("0123456789.+-*/%() \t", r) }) >= 0 {
		return "", ErrInvalidExpression
	}

	if err := ctx.Err(); err != nil {
		return "", err
	}

	timeout := c.Timeout
	if timeout <= 0 {
		timeout = DefaultCalculatorTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	vm := goja.New()
	stop := context.AfterFunc(ctx, func() {
		vm.Interrupt(ctx.Err())
	})
	defer stop()

	value, err := vm.RunString(expr)
	if err != nil {
		var interrupted *goja.InterruptedError
		if errors.As(err, &interrupted) {
			return "", fmt.Errorf("calculator: evaluation interrupted: %w", ctx.Err())
		}
		return "", fmt.Errorf("calculator: %w", err)
	}

	result := value.ToFloat()
	if math.IsNaN(result) || math.IsInf(result, 0) {
		return "", fmt.Errorf("calculator: result of %q is not a finite number", expr)
	}
	return strconv.FormatFloat(result, 'f', -1, 64), nil
}
