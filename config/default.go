package config

import _ "embed"

// DefaultConfigYAML is the configuration compiled into the binary.
//
//go:embed config.yaml
var DefaultConfigYAML []byte
