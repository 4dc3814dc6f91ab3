package rules

import (
	"context"
	"fmt"
	"slices"
)

// KindTags tags the Tags rule.
const KindTags = "tags"

// Tags constrains the tags of the voted post.
//
//	allow:   every post tag is on the list
//	deny:    no post tag is on the list
//	require: every listed tag is on the post
//	any:     at least one listed tag is on the post
type Tags struct {
	Mode Mode     `json:"mode"`
	Tags []string `json:"tags"`
}

// Kind returns KindTags.
func (r *Tags) Kind() string { return KindTags }

func (r *Tags) check() error {
	switch r.Mode {
	case ModeAllow, ModeDeny, ModeRequire, ModeAny:
		return nil
	}
	return fmt.Errorf("unsupported mode %q", r.Mode)
}

// Validate checks the post tags against the configured mode.
func (r *Tags) Validate(_ context.Context, in Input, _ Context) error {
	postTags := in.Post.Tags
	switch r.Mode {
	case ModeAllow:
		for _, tag := range postTags {
			if !slices.Contains(r.Tags, tag) {
				return fail(KindTags, "tag %q is not allowed", tag)
			}
		}
	case ModeDeny:
		for _, tag := range postTags {
			if slices.Contains(r.Tags, tag) {
				return fail(KindTags, "tag %q is denied", tag)
			}
		}
	case ModeRequire:
		for _, tag := range r.Tags {
			if !slices.Contains(postTags, tag) {
				return fail(KindTags, "post is missing required tag %q", tag)
			}
		}
	case ModeAny:
		for _, tag := range r.Tags {
			if slices.Contains(postTags, tag) {
				return nil
			}
		}
		return fail(KindTags, "post has none of the tags %v", r.Tags)
	default:
		return fail(KindTags, "unknown mode %q", r.Mode)
	}
	return nil
}
