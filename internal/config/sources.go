package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/cryptovalleyjobs/jobfeed/internal/model"
)

// LoadSources reads a source registry file. Files ending in .json are decoded
// as JSON, anything else as YAML. The document is a list of sources, optionally
// wrapped in a top-level "sources" key.
func LoadSources(path string) ([]model.SourceConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read sources: %w", err)
	}

	sources, err := parseSources(data, strings.EqualFold(filepath.Ext(path), ".json"))
	if err != nil {
		return nil, fmt.Errorf("parse sources %s: %w", path, err)
	}
	return sources, nil
}

func parseSources(data []byte, isJSON bool) ([]model.SourceConfig, error) {
	var wrapped struct {
		Sources []model.SourceConfig `yaml:"sources" json:"sources"`
	}
	var list []model.SourceConfig

	unmarshal := yaml.Unmarshal
	if isJSON {
		unmarshal = json.Unmarshal
	}

	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, "[") || strings.HasPrefix(trimmed, "-") {
		if err := unmarshal(data, &list); err != nil {
			return nil, err
		}
		return list, nil
	}
	if err := unmarshal(data, &wrapped); err != nil {
		return nil, err
	}
	return wrapped.Sources, nil
}
