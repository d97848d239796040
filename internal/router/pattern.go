package router

import "strings"

// WildcardParam is the parameter name bound by a trailing /* in a path
// template. Only one wildcard is allowed, and only at the end.
const WildcardParam = "wildcard"

// Params holds the parameter values extracted from a matched path.
type Params map[string]string

// Pattern is a compiled path template. Patterns are compiled once per
// distinct template and shared by every route registered under it.
type Pattern struct {
	template   string
	segments   []segment
	wildcard   bool
	paramNames []string
}

type segment struct {
	literal string
	param   string // set for :name segments
}

// Compile parses a path template into a matchable pattern. Literal segments
// match verbatim, a :name segment captures exactly one path segment, and a
// trailing /* captures the remainder of the path (possibly empty) under
// WildcardParam.
func Compile(template string) *Pattern {
	p := &Pattern{template: template}

	rest := template
	if strings.HasSuffix(rest, "/*") {
		p.wildcard = true
		rest = strings.TrimSuffix(rest, "/*")
	}

	rest = strings.Trim(rest, "/")
	if rest != "" {
		parts := strings.Split(rest, "/")
		p.segments = make([]segment, len(parts))
		for i, part := range parts {
			if strings.HasPrefix(part, ":") {
				name := part[1:]
				p.segments[i] = segment{param: name}
				p.paramNames = append(p.paramNames, name)
			} else {
				p.segments[i] = segment{literal: part}
			}
		}
	}

	if p.wildcard {
		p.paramNames = append(p.paramNames, WildcardParam)
	}

	return p
}

// Template returns the template the pattern was compiled from.
func (p *Pattern) Template() string { return p.template }

// ParamNames returns the capture names in template order. The wildcard, if
// present, is always last.
func (p *Pattern) ParamNames() []string { return p.paramNames }

// Match tests a concrete request path against the pattern. Matching is
// anchored: the whole path must be consumed. Templates without a wildcard
// also accept their path with one trailing slash. On success the returned
// Params holds exactly the pattern's capture names; an unmatched wildcard
// binds the empty string.
func (p *Pattern) Match(path string) (Params, bool) {
	trimmed := strings.TrimPrefix(path, "/")
	if !p.wildcard {
		trimmed = strings.TrimSuffix(trimmed, "/")
	}

	var parts []string
	if trimmed != "" {
		parts = strings.Split(trimmed, "/")
	}

	if !p.wildcard && len(parts) != len(p.segments) {
		return nil, false
	}
	// The wildcard itself may be empty, but every fixed segment before it
	// must be present.
	if p.wildcard && len(parts) < len(p.segments) {
		return nil, false
	}

	params := make(Params, len(p.paramNames))

	for i, seg := range p.segments {
		part := parts[i]
		if seg.param != "" {
			if part == "" {
				return nil, false
			}
			params[seg.param] = part
			continue
		}
		if part != seg.literal {
			return nil, false
		}
	}

	if p.wildcard {
		remainder := strings.Join(parts[len(p.segments):], "/")
		params[WildcardParam] = remainder
		return params, true
	}

	return params, true
}
