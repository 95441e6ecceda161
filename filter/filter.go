// Package filter compiles boolean expressions over post fields, used by the
// CLI to narrow search and download results client-side.
package filter

import (
	"fmt"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/esix-go/esix/e621"
)

// CompilationError describes an expression that failed to compile
type CompilationError struct {
	Expression string
	Reason     string
	Err        error
}

// Error implements the error interface
func (e *CompilationError) Error() string {
	return fmt.Sprintf("invalid filter %q: %s", e.Expression, e.Reason)
}

// Unwrap returns the underlying compiler error
func (e *CompilationError) Unwrap() error {
	return e.Err
}

// Filter is a compiled post predicate
type Filter struct {
	expression string
	program    *vm.Program
}

// Compile compiles an expression into a reusable Filter. Expressions see the
// fields listed by Environment plus a has_tag helper:
//
//	rating == "s" && score > 100 && has_tag("canine")
func Compile(expression string) (*Filter, error) {
	expression = strings.TrimSpace(expression)
	if expression == "" {
		return nil, &CompilationError{Expression: expression, Reason: "empty expression"}
	}

	program, err := expr.Compile(expression,
		expr.AllowUndefinedVariables(),
		expr.AsBool(),
	)
	if err != nil {
		return nil, &CompilationError{
			Expression: expression,
			Reason:     "failed to compile expression",
			Err:        err,
		}
	}

	return &Filter{expression: expression, program: program}, nil
}

// Expression returns the source expression
func (f *Filter) Expression() string {
	return f.expression
}

// Match evaluates the filter against a post
func (f *Filter) Match(post *e621.Post) (bool, error) {
	result, err := expr.Run(f.program, Environment(post))
	if err != nil {
		return false, fmt.Errorf("failed to evaluate filter: %w", err)
	}
	matched, ok := result.(bool)
	if !ok {
		return false, fmt.Errorf("filter %q did not evaluate to a boolean", f.expression)
	}
	return matched, nil
}

// Environment builds the expression environment for a post
func Environment(post *e621.Post) map[string]any {
	var tags []string
	for _, group := range post.Tags {
		tags = append(tags, group...)
	}
	tagSet := make(map[string]bool, len(tags))
	for _, t := range tags {
		tagSet[t] = true
	}

	return map[string]any{
		"id":            post.ID,
		"rating":        string(post.Rating),
		"score":         post.Score.Total,
		"up":            post.Score.Up,
		"down":          post.Score.Down,
		"fav_count":     post.FavCount,
		"comment_count": post.CommentCount,
		"description":   post.Description,
		"width":         post.File.Width,
		"height":        post.File.Height,
		"ext":           post.File.Ext,
		"tags":          tags,
		"tag_count":     len(tags),
		"pools":         post.Pools,
		"has_tag": func(tag string) bool {
			return tagSet[tag]
		},
	}
}
