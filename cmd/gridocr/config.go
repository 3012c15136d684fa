package main

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/gardar/gridocr/pkg/gdocai"
	"github.com/gardar/gridocr/pkg/ocr"
	"github.com/gardar/gridocr/pkg/pipeline"
	"github.com/gardar/gridocr/pkg/raster"
)

// yamlConfig is the layout of the -config file. Every key is optional:
//
//	engine: tesseract
//	dpi: 300
//	tesseract:
//	  tesseract_path: /usr/local/bin/tesseract
//	  languages: [eng, deu]
//	  whitelist: "0123456789.,-"
//	documentai:
//	  project_id: "your-gcp-project-id"
//	  location: "us"
//	  processor_id: "your-processor-id"
//	pipeline:
//	  method: all
//	  preprocess:
//	    threshold: adaptive
//	  locate:
//	    row_tolerance: 25
//	  extract:
//	    upscale_factor: 4
type yamlConfig struct {
	Engine     string          `yaml:"engine"`
	DPI        int             `yaml:"dpi"`
	Tesseract  ocr.Config      `yaml:"tesseract"`
	DocumentAI gdocai.Config   `yaml:"documentai"`
	Pipeline   pipeline.Config `yaml:"pipeline"`
}

func defaultConfig() yamlConfig {
	return yamlConfig{
		Engine:    "tesseract",
		DPI:       raster.DefaultDPI,
		Tesseract: ocr.DefaultConfig(),
		Pipeline:  pipeline.DefaultConfig(),
	}
}

// loadConfig reads a YAML file over the defaults. An empty path yields the
// defaults.
func loadConfig(path string) (yamlConfig, error) {
	cfg := defaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}
	cfg.Engine = strings.ToLower(cfg.Engine)
	return cfg, nil
}
