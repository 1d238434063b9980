package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"crossmap/internal/table"
)

// parseTableSpec reads "alias=path[:role]" or a bare path.
func parseTableSpec(s string) (table.Spec, error) {
	var spec table.Spec

	rest := strings.TrimSpace(s)
	if alias, path, ok := strings.Cut(rest, "="); ok {
		spec.Alias = strings.TrimSpace(alias)
		rest = strings.TrimSpace(path)

		if spec.Alias == "" {
			return spec, fmt.Errorf("table %q: empty alias", s)
		}
	}

	if i := strings.LastIndexByte(rest, ':'); i > 0 && !strings.ContainsAny(rest[i+1:], `/\.`) {
		spec.Role = rest[i+1:]
		rest = rest[:i]
	}

	if rest == "" {
		return spec, fmt.Errorf("table %q: empty path", s)
	}

	spec.Path = rest

	return spec.WithDefaults(), nil
}

func parseTableSpecs(values []string) ([]table.Spec, error) {
	if len(values) == 0 {
		return nil, fmt.Errorf("at least one --table is required")
	}

	specs := make([]table.Spec, 0, len(values))

	for _, v := range values {
		spec, err := parseTableSpec(v)
		if err != nil {
			return nil, err
		}

		specs = append(specs, spec)
	}

	return specs, nil
}

// parseFilters reads repeated "column=value" flags.
func parseFilters(values []string) (map[string]string, error) {
	if len(values) == 0 {
		return nil, nil
	}

	out := make(map[string]string, len(values))

	for _, v := range values {
		col, val, ok := strings.Cut(v, "=")
		if !ok || strings.TrimSpace(col) == "" {
			return nil, fmt.Errorf("filter %q: want column=value", v)
		}

		out[strings.TrimSpace(col)] = val
	}

	return out, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	return enc.Encode(v)
}
