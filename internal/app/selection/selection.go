// Package selection parses episode selection expressions such as
// "1,3-5,S1-2" and matches them against padded episode ids.
package selection

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/sa6mwa/funidl/internal/app/episodeid"
)

// All is the expression that selects every episode.
const All = "all"

var rangeRe = regexp.MustCompile(`(?i)^([A-Z0-9]*[A-Z])?(\d+)-([A-Z0-9]*[A-Z])?(\d+)$`)

type token struct {
	prefix   string
	from, to int
	// literal is set for bare ids that do not parse into a key.
	literal string
}

// Filter holds the parsed tokens of an expression. The zero value
// selects nothing.
type Filter struct {
	all    bool
	tokens []token
}

// Parse parses expr. Invalid tokens are reported in the returned
// error, the filter is still usable and contains the valid ones.
func Parse(expr string) (*Filter, error) {
	f := &Filter{}
	expr = strings.Join(strings.Fields(expr), "")
	if strings.EqualFold(expr, All) {
		f.all = true
		return f, nil
	}
	var errs []error
	for _, raw := range strings.Split(expr, ",") {
		if raw == "" {
			continue
		}
		t, err := parseToken(raw)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		f.tokens = append(f.tokens, t)
	}
	return f, errors.Join(errs...)
}

// NewAll returns a filter that includes everything.
func NewAll() *Filter {
	return &Filter{all: true}
}

func parseToken(raw string) (token, error) {
	if m := rangeRe.FindStringSubmatch(raw); m != nil {
		prefix, endPrefix := strings.ToUpper(m[1]), strings.ToUpper(m[3])
		if endPrefix != "" && endPrefix != prefix {
			return token{}, fmt.Errorf("range %q mixes prefixes %q and %q", raw, prefix, endPrefix)
		}
		from, err1 := strconv.Atoi(m[2])
		to, err2 := strconv.Atoi(m[4])
		if err := errors.Join(err1, err2); err != nil {
			return token{}, fmt.Errorf("range %q: %w", raw, err)
		}
		if from > to {
			return token{}, fmt.Errorf("range %q is reversed", raw)
		}
		return token{prefix: prefix, from: from, to: to}, nil
	}
	if strings.Contains(raw, "-") {
		return token{}, fmt.Errorf("invalid range %q", raw)
	}
	if key, ok := episodeid.Parse(raw); ok {
		return token{prefix: key.Prefix, from: key.Number, to: key.Number}, nil
	}
	return token{literal: strings.ToUpper(raw)}, nil
}

// IsAll reports whether the filter bypasses matching.
func (f *Filter) IsAll() bool {
	return f.all
}

// Empty reports whether nothing can ever be selected.
func (f *Filter) Empty() bool {
	return !f.all && len(f.tokens) == 0
}

// Includes reports whether the padded selection id is matched by any
// token.
func (f *Filter) Includes(selectionID string) bool {
	if f.all {
		return true
	}
	key, ok := episodeid.Parse(selectionID)
	for _, t := range f.tokens {
		if t.literal != "" {
			if strings.EqualFold(t.literal, selectionID) {
				return true
			}
			continue
		}
		if ok && key.Prefix == t.prefix && key.Number >= t.from && key.Number <= t.to {
			return true
		}
	}
	return false
}
