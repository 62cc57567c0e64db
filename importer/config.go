package importer

import (
	"os"

	"gopkg.in/yaml.v3"
)

// FileConfig is the YAML configuration surface. CLI flags override any of
// these in cmd/health-importer.
type FileConfig struct {
	// DB is the archive database path.
	DB string `yaml:"db"`
	// XML is the export file to import.
	XML string `yaml:"xml"`

	BatchSize   int  `yaml:"batch_size"`
	CommitEvery int  `yaml:"commit_every"`
	Debug       bool `yaml:"debug"`
}

func LoadConfig(path string) (*FileConfig, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg FileConfig
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
