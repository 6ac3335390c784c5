package main

import _ "embed"

// embeddedConfig holds the YAML configuration embedded at build time.
// The embed_config.yaml file is a staging file that packaging scripts may
// overwrite with site defaults before compiling.
//
//go:embed embed_config.yaml
var embeddedConfig []byte
