package config

import (
	"encoding/json"
	"log"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v2"

	"github.com/exaybachay-ak/CISA-KEV-Notifications/utils"
)

// Config holds the operator's match intent. A record is in scope when any
// vendor term matches any of its text fields, unless any exclusion term
// matches first.
type Config struct {
	VendorTerms    []string `json:"vendorTerms" yaml:"vendorTerms"`
	ExclusionTerms []string `json:"exclusionTerms" yaml:"exclusionTerms"`
}

// Load reads match terms from a JSON or YAML file. A missing or malformed
// file degrades to an empty config: with no vendor terms nothing is
// classified in scope, and a bad config never aborts a run.
func Load(path string) Config {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			log.Printf("config %s not found, using empty match config", path)
		} else {
			log.Printf("unable to read config %s, using empty match config: %s", path, err)
		}
		return Config{}
	}

	var cfg Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(b, &cfg)
	default:
		err = json.Unmarshal(b, &cfg)
	}
	if err != nil {
		log.Printf("malformed config %s, using empty match config: %s", path, err)
		return Config{}
	}

	cfg.VendorTerms = trimAll(cfg.VendorTerms)
	cfg.ExclusionTerms = trimAll(cfg.ExclusionTerms)
	return cfg
}

func trimAll(terms []string) []string {
	for i, t := range terms {
		terms[i] = utils.TrimSpaceNewline(t)
	}
	return terms
}
