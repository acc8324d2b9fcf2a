// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package theme

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type themesFile struct {
	Themes []Definition `yaml:"themes"`
}

// LoadFile returns the built-in themes overlaid with the themes in a YAML
// file. An empty path or a missing file yields the built-ins. A theme whose
// key matches a built-in replaces it.
//
//	themes:
//	  - key: ocean
//	    name: Ocean
//	    colors: {background: "#001f3f", surface: "#00264d", ...}
func LoadFile(path string) (*Table, error) {
	if path == "" {
		return Builtin(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Builtin(), nil
		}
		return nil, fmt.Errorf("read themes file: %w", err)
	}

	var f themesFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse themes file: %w", err)
	}

	t, err := newTable(builtinDefinitions(), f.Themes)
	if err != nil {
		return nil, fmt.Errorf("themes file %s: %w", path, err)
	}
	return t, nil
}
