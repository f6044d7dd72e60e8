package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	yamlv3 "gopkg.in/yaml.v3"
	"sigs.k8s.io/yaml"

	"github.com/macropower/draftkit/pkg/drafterrors"
)

// Format is a configuration file format.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
	FormatJSON Format = "json"
)

// ErrUnsupportedFormat indicates a file extension or format name that is
// not YAML, TOML or JSON.
var ErrUnsupportedFormat = fmt.Errorf("%w: unsupported config format", drafterrors.ErrInvalidFormat)

// FormatOf returns the format implied by a file extension.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".toml":
		return FormatTOML, nil
	case ".json":
		return FormatJSON, nil
	}

	return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, path)
}

// Load reads path on top of [Default]. Keys not present in the file keep
// their default values; unknown keys are an error.
func Load(path string) (*Config, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}

	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", drafterrors.ErrFileNotFound, path)
		}

		return nil, fmt.Errorf("read config: %w", err)
	}

	c := Default()
	if err := c.Decode(b, format); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return c, nil
}

// Decode merges data in the given format into c.
func (c *Config) Decode(data []byte, format Format) error {
	var js []byte

	switch format {
	case FormatYAML:
		var err error

		js, err = yaml.YAMLToJSON(data)
		if err != nil {
			return fmt.Errorf("%w: %w", drafterrors.ErrInvalidFormat, err)
		}
	case FormatTOML:
		m := map[string]any{}
		if _, err := toml.Decode(string(data), &m); err != nil {
			return fmt.Errorf("%w: %w", drafterrors.ErrInvalidFormat, err)
		}

		var err error

		js, err = json.Marshal(m)
		if err != nil {
			return fmt.Errorf("%w: %w", drafterrors.ErrJSONMarshal, err)
		}
	case FormatJSON:
		js = data
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}

	if len(bytes.TrimSpace(js)) == 0 || bytes.Equal(bytes.TrimSpace(js), []byte("null")) {
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(js))
	dec.DisallowUnknownFields()
	if err := dec.Decode(c); err != nil {
		return fmt.Errorf("%w: %w", drafterrors.ErrInvalidFormat, err)
	}

	return nil
}

// Marshal encodes c in the given format.
func (c *Config) Marshal(format Format) ([]byte, error) {
	js, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("%w: %w", drafterrors.ErrJSONMarshal, err)
	}

	switch format {
	case FormatJSON:
		return append(js, '\n'), nil
	case FormatYAML:
		y, err := yaml.JSONToYAML(js)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", drafterrors.ErrYAMLMarshal, err)
		}

		return y, nil
	case FormatTOML:
		// Going through YAML keeps integers as integers.
		y, err := yaml.JSONToYAML(js)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", drafterrors.ErrYAMLMarshal, err)
		}

		m := map[string]any{}
		if err := yamlv3.Unmarshal(y, &m); err != nil {
			return nil, fmt.Errorf("%w: %w", drafterrors.ErrInvalidFormat, err)
		}

		var buf bytes.Buffer
		if err := toml.NewEncoder(&buf).Encode(m); err != nil {
			return nil, fmt.Errorf("encode toml: %w", err)
		}

		return buf.Bytes(), nil
	}

	return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
}

// Save writes c to path in the format implied by its extension.
func (c *Config) Save(path string) error {
	format, err := FormatOf(path)
	if err != nil {
		return err
	}

	b, err := c.Marshal(format)
	if err != nil {
		return err
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("%w: %w", drafterrors.ErrWriteFile, err)
		}
	}

	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("%w: %w", drafterrors.ErrWriteFile, err)
	}

	return nil
}
