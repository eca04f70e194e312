package main

import (
	"fmt"
	"strings"

	"hoard-go/internal/model"
)

// parseKeyValues turns KEY=VALUE arguments into a map.
func parseKeyValues(pairs []string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	out := make(map[string]string, len(pairs))
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		if !ok || strings.TrimSpace(k) == "" {
			return nil, fmt.Errorf("%w: expected KEY=VALUE, got %q", model.ErrInvalidMetadata, p)
		}
		out[strings.TrimSpace(k)] = v
	}
	return out, nil
}

// filterOps in match order: two character operators first.
var filterOps = []string{">=", "<=", "!=", "=", "<", ">"}

// parseMetadataFilter parses "KEY OP VALUE", e.g. "fps>=24" or "status=final".
func parseMetadataFilter(s string) (model.MetadataFilter, error) {
	pos, op := -1, ""
	for _, candidate := range filterOps {
		i := strings.Index(s, candidate)
		if i < 0 {
			continue
		}
		if pos < 0 || i < pos || (i == pos && len(candidate) > len(op)) {
			pos, op = i, candidate
		}
	}
	if pos <= 0 {
		return model.MetadataFilter{}, fmt.Errorf("%w: expected KEY OP VALUE, got %q", model.ErrInvalidQuery, s)
	}
	return model.MetadataFilter{
		Key:   strings.TrimSpace(s[:pos]),
		Op:    op,
		Value: strings.TrimSpace(s[pos+len(op):]),
	}, nil
}
