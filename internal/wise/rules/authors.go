package rules

import (
	"context"
	"fmt"
	"slices"
)

// KindAuthors tags the Authors rule.
const KindAuthors = "authors"

// Authors allows or denies voting on posts of the listed authors.
type Authors struct {
	Mode    Mode     `json:"mode"`
	Authors []string `json:"authors"`
}

// Kind returns KindAuthors.
func (r *Authors) Kind() string { return KindAuthors }

func (r *Authors) check() error {
	if r.Mode != ModeAllow && r.Mode != ModeDeny {
		return fmt.Errorf("unsupported mode %q", r.Mode)
	}
	return nil
}

// Validate checks the post author against the allow or deny list.
func (r *Authors) Validate(_ context.Context, in Input, _ Context) error {
	listed := slices.Contains(r.Authors, in.Voteorder.Author)
	switch r.Mode {
	case ModeAllow:
		if !listed {
			return fail(KindAuthors, "author not on allow list")
		}
	case ModeDeny:
		if listed {
			return fail(KindAuthors, "author is on deny list")
		}
	default:
		return fail(KindAuthors, "unknown mode %q", r.Mode)
	}
	return nil
}
