package bundle

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Codec serializes a bundle document. Documents are rewritten whole on every
// change, so codecs only need full marshal/unmarshal, and the output should
// stay friendly to hand edits.
type Codec interface {
	// Ext returns the file extension used for bundle documents, without the dot.
	Ext() string
	Marshal(doc map[string]string) ([]byte, error)
	Unmarshal(data []byte, doc *map[string]string) error
}

// JSONCodec stores bundle documents as indented JSON objects.
type JSONCodec struct{}

func (JSONCodec) Ext() string { return "json" }

func (JSONCodec) Marshal(doc map[string]string) ([]byte, error) {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("bundle: encode json document: %w", err)
	}
	return append(data, '\n'), nil
}

func (JSONCodec) Unmarshal(data []byte, doc *map[string]string) error {
	if err := json.Unmarshal(data, doc); err != nil {
		return fmt.Errorf("bundle: decode json document: %w", err)
	}
	return nil
}

// YAMLCodec stores bundle documents as YAML mappings.
type YAMLCodec struct{}

func (YAMLCodec) Ext() string { return "yaml" }

func (YAMLCodec) Marshal(doc map[string]string) ([]byte, error) {
	data, err := yaml.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("bundle: encode yaml document: %w", err)
	}
	return data, nil
}

func (YAMLCodec) Unmarshal(data []byte, doc *map[string]string) error {
	if err := yaml.Unmarshal(data, doc); err != nil {
		return fmt.Errorf("bundle: decode yaml document: %w", err)
	}
	return nil
}

// CodecForFormat maps a configured format name to its codec.
func CodecForFormat(format string) (Codec, error) {
	switch format {
	case "", "json":
		return JSONCodec{}, nil
	case "yaml", "yml":
		return YAMLCodec{}, nil
	default:
		return nil, fmt.Errorf("bundle: unsupported document format %q", format)
	}
}
