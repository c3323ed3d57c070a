// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of lifesim.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package config

import (
	"embed"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schema/config.schema.json
var schemaFiles embed.FS

var (
	schemaOnce   sync.Once
	schemaCached *jsonschema.Schema
	schemaErr    error
)

func compiledSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		raw, err := schemaFiles.ReadFile("schema/config.schema.json")
		if err != nil {
			schemaErr = fmt.Errorf("config: read embedded schema: %w", err)
			return
		}

		schemaCached, schemaErr = jsonschema.CompileString("config.schema.json", string(raw))
		if schemaErr != nil {
			schemaErr = fmt.Errorf("config: compile schema: %w", schemaErr)
		}
	})

	return schemaCached, schemaErr
}

// Validate checks instance (raw JSON config file contents) against the
// embedded config schema, the same compile-then-validate shape as the
// teacher's own config validation.
func Validate(instance json.RawMessage) error {
	sch, err := compiledSchema()
	if err != nil {
		return err
	}

	var v any
	if err := json.Unmarshal(instance, &v); err != nil {
		return fmt.Errorf("config: decode for validation: %w", err)
	}

	if err := sch.Validate(v); err != nil {
		return fmt.Errorf("config: schema validation failed: %w", err)
	}

	return nil
}
