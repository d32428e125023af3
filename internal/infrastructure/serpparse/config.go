// Package serpparse normalizes Google-style SERP payloads. SERP scraping
// providers return structurally similar JSON but disagree on key names and
// on whether an explicit rank is present, so each provider contributes a
// small Config and shares one parser.
package serpparse

import (
	"os"

	"gopkg.in/yaml.v3"

	"search-hub/internal/domain/search"
)

// Config describes where one provider keeps its organic results and which
// field names to try for each normalized value.
type Config struct {
	// ResultsKey is a dot-separated path to the organic results array.
	ResultsKey string `yaml:"results_key"`

	// URLKeys and DescriptionKeys are tried in order, first present
	// non-empty string wins.
	URLKeys         []string `yaml:"url_keys"`
	DescriptionKeys []string `yaml:"description_keys"`

	// PositionKey names the 1-based rank field used for position
	// scoring when UsePositionScoring is set.
	PositionKey        string `yaml:"position_key"`
	UsePositionScoring bool   `yaml:"use_position_scoring"`
}

// Defaults returns the built-in per-provider configs.
func Defaults() map[string]Config {
	return map[string]Config{
		"brightdata": {
			ResultsKey:         "organic",
			URLKeys:            []string{"link", "url"},
			DescriptionKeys:    []string{"description", "snippet"},
			PositionKey:        "rank",
			UsePositionScoring: true,
		},
		"scrapeless": {
			ResultsKey:         "organic_results",
			URLKeys:            []string{"link", "redirect_link"},
			DescriptionKeys:    []string{"snippet", "description"},
			PositionKey:        "position",
			UsePositionScoring: true,
		},
	}
}

// Load returns the built-in configs with overrides from the given YAML file
// merged on top. The file is keyed by provider name; an empty path means
// defaults only. An unreadable or malformed file is a configuration error.
func Load(path string) (map[string]Config, error) {
	configs := Defaults()
	if path == "" {
		return configs, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, search.WrapError(search.KindConfiguration, "", err, "reading SERP field map %s", path)
	}
	var overrides map[string]Config
	if err := yaml.Unmarshal(data, &overrides); err != nil {
		return nil, search.WrapError(search.KindConfiguration, "", err, "parsing SERP field map %s", path)
	}
	for provider, cfg := range overrides {
		configs[provider] = cfg
	}
	return configs, nil
}
