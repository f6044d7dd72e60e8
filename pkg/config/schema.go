package config

import (
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
	"sigs.k8s.io/yaml"

	"github.com/macropower/draftkit/pkg/drafterrors"
)

// Schema returns the JSON Schema of [Config] in JSON or YAML, with the
// values of [Default] as defaults.
func Schema(format Format) ([]byte, error) {
	r := &jsonschema.Reflector{
		DoNotReference:             true,
		ExpandedStruct:             true,
		RequiredFromJSONSchemaTags: true,
	}
	js := r.Reflect(&Config{})
	js.Title = "draftkit configuration"

	b, err := json.Marshal(Default())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", drafterrors.ErrJSONMarshal, err)
	}

	defaults := map[string]any{}
	if err := json.Unmarshal(b, &defaults); err != nil {
		return nil, fmt.Errorf("%w: %w", drafterrors.ErrJSONMarshal, err)
	}

	applyDefaults(js, defaults)

	out, err := json.MarshalIndent(js, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("%w: %w", drafterrors.ErrJSONMarshal, err)
	}

	switch format {
	case FormatJSON:
		return append(out, '\n'), nil
	case FormatYAML:
		y, err := yaml.JSONToYAML(out)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", drafterrors.ErrYAMLMarshal, err)
		}

		return y, nil
	}

	return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
}

func applyDefaults(s *jsonschema.Schema, defaults map[string]any) {
	if s.Properties == nil {
		return
	}

	for pair := s.Properties.Oldest(); pair != nil; pair = pair.Next() {
		dv, ok := defaults[pair.Key]
		if !ok {
			continue
		}

		nested, isMap := dv.(map[string]any)
		if isMap && pair.Value.Properties != nil && pair.Value.Properties.Len() > 0 {
			applyDefaults(pair.Value, nested)

			continue
		}

		pair.Value.Default = dv
	}
}
