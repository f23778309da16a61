package genome

import "errors"

var (
	// ErrUninitializedRule indicates a rule or rule set with unset fields.
	ErrUninitializedRule = errors.New("genome: mutation rule not initialized")

	// ErrMissingParameter indicates a rule for a parameter the genome lacks.
	ErrMissingParameter = errors.New("genome: missing parameter")

	// ErrInvalidRule indicates a rule with min > max or a rate outside [0, 1].
	ErrInvalidRule = errors.New("genome: invalid mutation rule")

	// ErrRuleNotFound indicates a lookup of a parameter without a rule.
	ErrRuleNotFound = errors.New("genome: rule not found")
)
