package transform

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/tidwall/gjson"
	"sigs.k8s.io/yaml"
)

// wireConfig is the serialized form of a Config.
type wireConfig struct {
	ID       Kind            `json:"id"`
	Name     string          `json:"name"`
	Enabled  bool            `json:"enabled"`
	Settings json.RawMessage `json:"settings"`
}

type decodeSettings func(raw json.RawMessage) (Stage, error)

// settingsDecoders builds the typed stage of each kind from its raw settings.
var settingsDecoders = map[Kind]decodeSettings{
	KindHideUsers: func(raw json.RawMessage) (Stage, error) {
		var s HideUsers
		if err := strictUnmarshal(raw, &s); err != nil {
			return nil, err
		}
		if s.HiddenUserIDs == nil {
			s.HiddenUserIDs = []int{}
		}
		return s, nil
	},
	KindHighlightLong: func(raw json.RawMessage) (Stage, error) {
		var s struct {
			MinLength *int `json:"minLength"`
		}
		if err := strictUnmarshal(raw, &s); err != nil {
			return nil, err
		}
		if s.MinLength == nil {
			return HighlightLong{MinLength: DefaultMinLength}, nil
		}
		return HighlightLong{MinLength: *s.MinLength}, nil
	},
	KindSortByComments: func(raw json.RawMessage) (Stage, error) {
		var s SortByComments
		return s, strictUnmarshal(raw, &s)
	},
	KindGroupByUser: func(raw json.RawMessage) (Stage, error) {
		var s GroupByUser
		return s, strictUnmarshal(raw, &s)
	},
}

// strictUnmarshal decodes raw into v, rejecting unknown fields. Empty or null settings
// leave v at its zero value.
func strictUnmarshal(raw json.RawMessage, v any) error {
	if len(raw) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func (c Config) MarshalJSON() ([]byte, error) {
	if c.Stage == nil {
		return nil, fmt.Errorf("%w: config %q has no stage", ErrUnknownStage, c.Name)
	}

	stage := c.Stage
	if s, ok := stage.(HideUsers); ok && s.HiddenUserIDs == nil {
		stage = HideUsers{HiddenUserIDs: []int{}}
	}

	settings, err := json.Marshal(stage)
	if err != nil {
		return nil, err
	}

	return json.Marshal(wireConfig{
		ID:       c.ID(),
		Name:     c.Name,
		Enabled:  c.Enabled,
		Settings: settings,
	})
}

// UnmarshalJSON picks the stage type from the "id" field before decoding the settings
// into it.
func (c *Config) UnmarshalJSON(data []byte) error {
	id := gjson.GetBytes(data, "id")
	if !id.Exists() || id.Type != gjson.String {
		return fmt.Errorf("%w: missing id", ErrUnknownStage)
	}

	decode, ok := settingsDecoders[Kind(id.Str)]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownStage, id.Str)
	}

	var wire wireConfig
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}

	stage, err := decode(wire.Settings)
	if err != nil {
		return fmt.Errorf("invalid settings for %q: %w", id.Str, err)
	}

	*c = Config{
		Name:    wire.Name,
		Enabled: wire.Enabled,
		Stage:   stage,
	}
	return nil
}

// ParsePipeline decodes and validates a pipeline in JSON or YAML.
func ParsePipeline(data []byte) (Pipeline, error) {
	// JSON is a subset of YAML, so both go through the same conversion.
	raw, err := yaml.YAMLToJSON(data)
	if err != nil {
		return nil, err
	}

	var p Pipeline
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, err
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// ReadPipelineFile reads a pipeline from a JSON or YAML file.
func ReadPipelineFile(path string) (Pipeline, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	p, err := ParsePipeline(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse pipeline file %s: %w", path, err)
	}
	return p, nil
}

// YAML renders the pipeline in the form ReadPipelineFile accepts.
func (p Pipeline) YAML() ([]byte, error) {
	return yaml.Marshal(p)
}
