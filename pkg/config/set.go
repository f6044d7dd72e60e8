package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/iancoleman/strcase"
	yamlv3 "gopkg.in/yaml.v3"

	"github.com/macropower/draftkit/pkg/drafterrors"
)

// freeFormKeys are map-typed fields whose keys are user data.
var freeFormKeys = map[string]bool{
	"paper_sizes":    true,
	"catalog_styles": true,
	"border_styles":  true,
	"attribute_map":  true,
	"layout_replace": true,
}

// Set assigns value to a dotted key such as "plot.print_path" or
// "paper_sizes.A0". Key segments may be given in any case style; they are
// converted to snake_case unless they name user data. The value is parsed
// as a YAML scalar or flow collection, falling back to the raw string.
func (c *Config) Set(key, value string) error {
	if strings.TrimSpace(key) == "" {
		return fmt.Errorf("%w: empty key", drafterrors.ErrInvalidArguments)
	}

	js, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("%w: %w", drafterrors.ErrJSONMarshal, err)
	}

	root := map[string]any{}
	if err := json.Unmarshal(js, &root); err != nil {
		return fmt.Errorf("%w: %w", drafterrors.ErrJSONMarshal, err)
	}

	var v any
	if err := yamlv3.Unmarshal([]byte(value), &v); err != nil {
		v = value
	}

	segs := strings.Split(key, ".")
	m := root
	parent := ""
	for i, seg := range segs {
		k := segKey(m, seg, parent)
		if i == len(segs)-1 {
			m[k] = v

			break
		}

		next, ok := m[k].(map[string]any)
		if !ok {
			if m[k] != nil {
				return fmt.Errorf("%w: %q is not a section", ErrUnknownKey, strings.Join(segs[:i+1], "."))
			}

			next = map[string]any{}
			m[k] = next
		}

		m = next
		parent = k
	}

	out, err := decodeStrict(root)
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		if _, isString := v.(string); !isString {
			// A value such as "2024" for a string field.
			m[segKey(m, segs[len(segs)-1], parent)] = value
			out, err = decodeStrict(root)
		}
	}
	if err != nil {
		if strings.Contains(err.Error(), "unknown field") {
			return fmt.Errorf("%w: %q", ErrUnknownKey, key)
		}

		return fmt.Errorf("%w: %s=%q: %w", drafterrors.ErrInvalidArguments, key, value, err)
	}

	*c = *out

	return nil
}

func decodeStrict(root map[string]any) (*Config, error) {
	js, err := json.Marshal(root)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", drafterrors.ErrJSONMarshal, err)
	}

	out := &Config{}
	dec := json.NewDecoder(bytes.NewReader(js))
	dec.DisallowUnknownFields()
	if err := dec.Decode(out); err != nil {
		return nil, err
	}

	return out, nil
}

func segKey(m map[string]any, seg, parent string) string {
	return resolveKey(m, seg, freeFormKeys[parent])
}

func resolveKey(m map[string]any, seg string, freeForm bool) string {
	if _, ok := m[seg]; ok || freeForm {
		return seg
	}

	return strcase.ToSnake(seg)
}
