package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/matzehuels/doublediamond/pkg/errors"
)

// Supported configuration file formats.
const (
	FormatTOML = "toml"
	FormatYAML = "yaml"
	FormatJSON = "json"
)

// ValidFormats is the set of supported configuration file formats.
var ValidFormats = map[string]bool{
	FormatTOML: true,
	FormatYAML: true,
	FormatJSON: true,
}

// FormatFromPath infers the file format from the extension of path.
func FormatFromPath(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return FormatTOML, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	}
	return "", errors.New(errors.ErrCodeInvalidFormat, "unsupported config file %q (use .toml, .yaml or .json)", filepath.Base(path))
}

// Load reads a configuration file into form state. Only the fields present in
// the file are set; merge the result onto [DefaultInput] for a full form.
func Load(path string) (Input, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "config file %s", path)
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Decode(bytes.NewReader(data), format)
}

// Decode parses a configuration document in the given format.
//
// Values of any scalar type are accepted and converted to text, so numeric
// fields go through the same lenient parsing as form input. Phases may be
// given as flat keys (p1_label, p1Color, ...) or as a "phases" list of
// {label, color} tables. Unknown keys are rejected.
func Decode(r io.Reader, format string) (Input, error) {
	raw := map[string]any{}
	var err error
	switch format {
	case FormatTOML:
		_, err = toml.NewDecoder(r).Decode(&raw)
	case FormatYAML:
		err = yaml.NewDecoder(r).Decode(&raw)
		if err == io.EOF {
			err = nil
		}
	case FormatJSON:
		err = json.NewDecoder(r).Decode(&raw)
	default:
		return nil, errors.New(errors.ErrCodeInvalidFormat, "unsupported config format %q", format)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse %s config", format)
	}
	return fromRaw(raw)
}

func fromRaw(raw map[string]any) (Input, error) {
	in := Input{}
	for key, v := range raw {
		if key == "phases" {
			if err := in.setPhases(v); err != nil {
				return nil, err
			}
			continue
		}
		s, err := scalar(key, v)
		if err != nil {
			return nil, err
		}
		if err := in.Set(key, s); err != nil {
			return nil, err
		}
	}
	return in, nil
}

func (in Input) setPhases(v any) error {
	list, ok := v.([]any)
	if !ok {
		// TOML decodes arrays of tables as []map[string]any.
		if maps, isMaps := v.([]map[string]any); isMaps {
			for _, m := range maps {
				list = append(list, m)
			}
			ok = true
		}
	}
	if !ok {
		return errors.New(errors.ErrCodeInvalidConfig, "phases must be a list")
	}
	if len(list) > PhaseCount {
		return errors.New(errors.ErrCodeInvalidConfig, "phases has %d entries, at most %d allowed", len(list), PhaseCount)
	}
	for i, item := range list {
		m, ok := item.(map[string]any)
		if !ok {
			return errors.New(errors.ErrCodeInvalidConfig, "phases[%d] must be a table with label and color", i)
		}
		for k, val := range m {
			s, err := scalar(fmt.Sprintf("phases[%d].%s", i, k), val)
			if err != nil {
				return err
			}
			switch k {
			case "label":
				in[PhaseLabelKey(i)] = s
			case "color":
				in[PhaseColorKey(i)] = s
			default:
				return errors.New(errors.ErrCodeInvalidConfig, "unknown field %q in phases[%d]", k, i)
			}
		}
	}
	return nil
}

func scalar(key string, v any) (string, error) {
	switch t := v.(type) {
	case nil:
		return "", nil
	case string:
		return t, nil
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), nil
	case map[string]any, []any, []map[string]any:
		return "", errors.New(errors.ErrCodeInvalidConfig, "field %q must be a single value", key)
	default:
		return fmt.Sprint(t), nil
	}
}

// Encode writes cfg as a configuration document in the given format.
// The output loads back to an identical configuration.
func Encode(w io.Writer, cfg Config, format string) error {
	switch format {
	case FormatTOML:
		return toml.NewEncoder(w).Encode(cfg)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(cfg); err != nil {
			return err
		}
		return enc.Close()
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(cfg)
	}
	return errors.New(errors.ErrCodeInvalidFormat, "unsupported config format %q", format)
}
