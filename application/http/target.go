package http

import (
	"strings"

	"http-conn/application/util/rule"

	"github.com/pkg/errors"
)

var ErrMalformedQuery = errors.New("query is malformed")

// splitTarget splits request target on the first '?'.
// hasQuery reports whether '?' was present at all.
func splitTarget(target string) (path, query string, hasQuery bool) {
	return strings.Cut(target, string(rule.QueryMark))
}

// parseQuery parses "k1=v1&k2=v2". Values are kept escaped.
// Every pair needs a '=' with something on both sides of it.
func parseQuery(query string) (map[string]string, error) {
	params := make(map[string]string)
	for _, pair := range strings.Split(query, string(rule.PairSep)) {
		key, value, found := strings.Cut(pair, string(rule.KeyValueSep))
		if !found {
			return nil, errors.Wrapf(ErrMalformedQuery, "missing %q in %q", rule.KeyValueSep, pair)
		}
		if len(key) == 0 || len(value) == 0 {
			return nil, errors.Wrapf(ErrMalformedQuery, "empty key or value in %q", pair)
		}

		params[key] = value
	}

	return params, nil
}
