// Package rules evaluates voteorders against delegator rulesets.
package rules

import (
	"fmt"

	"github.com/goodnatureofminers/wisedelegator-backend/internal/wise/model"
)

// Input is what every rule of a ruleset sees.
type Input struct {
	Voteorder model.Voteorder
	Post      model.Post
}

// Failure is a validation failure: the voteorder is not permitted.
type Failure struct {
	Rule   string
	Reason string
}

func (f *Failure) Error() string {
	if f.Rule == "" {
		return f.Reason
	}
	return f.Rule + ": " + f.Reason
}

func fail(rule, format string, args ...any) *Failure {
	return &Failure{Rule: rule, Reason: fmt.Sprintf(format, args...)}
}

// Mode selects how a rule compares its parameters with the ledger state.
type Mode string

const (
	ModeAllow   Mode = "allow"
	ModeDeny    Mode = "deny"
	ModeRequire Mode = "require"
	ModeAny     Mode = "any"

	ModeEqual Mode = "equal"
	ModeMore  Mode = "more"
	ModeLess  Mode = "less"
)

func compareMode(rule string, mode Mode, actual, value float64) error {
	switch mode {
	case ModeEqual:
		if actual != value {
			return fail(rule, "%v is not equal to %v", actual, value)
		}
	case ModeMore:
		if actual <= value {
			return fail(rule, "%v is not more than %v", actual, value)
		}
	case ModeLess:
		if actual >= value {
			return fail(rule, "%v is not less than %v", actual, value)
		}
	default:
		return fail(rule, "unknown mode %q", mode)
	}
	return nil
}
