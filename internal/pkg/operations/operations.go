package operations

import (
	"errors"
	"fmt"
)

const (
	Add      = "add"
	Subtract = "subtract"
	Multiply = "multiply"
	Divide   = "divide"
)

var (
	ErrDivisionByZero   = errors.New("division by zero is not allowed")
	ErrUnknownOperation = errors.New("unknown operation type")
)

// All lists the supported operation types in a stable order.
func All() []string {
	return []string{Add, Subtract, Multiply, Divide}
}

// Valid reports whether op names a supported operation type.
func Valid(op string) bool {
	switch op {
	case Add, Subtract, Multiply, Divide:
		return true
	}
	return false
}

// Calculate applies op to a and b. Division by zero and unknown
// operation types are reported as sentinel errors.
func Calculate(a, b float64, op string) (float64, error) {
	switch op {
	case Add:
		return a + b, nil
	case Subtract:
		return a - b, nil
	case Multiply:
		return a * b, nil
	case Divide:
		if b == 0 {
			return 0, ErrDivisionByZero
		}
		return a / b, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownOperation, op)
	}
}
