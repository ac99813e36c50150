// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/hashicorp/go-multierror"
	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"
	"github.com/zclconf/go-cty/cty/function/stdlib"
)

var (
	// ErrInvalidYaml is returned when a YAML document cannot be decoded.
	ErrInvalidYaml = errors.New("invalid YAML")
	// ErrInvalidHcl is returned when an HCL document cannot be parsed or decoded.
	ErrInvalidHcl = errors.New("invalid HCL")
)

// DecodeYAML strictly decodes src into v. Unknown fields are errors.
func DecodeYAML(src []byte, v any) error {
	if err := yaml.UnmarshalWithOptions(src, v, yaml.Strict()); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidYaml, err) //nolint:errorlint
	}

	return nil
}

// DecodeHCL parses src as native HCL syntax and decodes it into v.
// Expressions can refer to environment variables as env.NAME and call a
// small set of string functions.
func DecodeHCL(filename string, src []byte, v any) error {
	file, diags := hclparse.NewParser().ParseHCL(src, filename)
	if diags.HasErrors() {
		return errors.Join(ErrInvalidHcl, diagErrors(diags))
	}

	if diags := gohcl.DecodeBody(file.Body, EvalContext(), v); diags.HasErrors() {
		return errors.Join(ErrInvalidHcl, diagErrors(diags))
	}

	return nil
}

// EvalContext returns the HCL evaluation context used for config and manifest files.
func EvalContext() *hcl.EvalContext {
	return &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"env": envObject(os.Environ()),
		},
		Functions: map[string]function.Function{
			"upper":     stdlib.UpperFunc,
			"lower":     stdlib.LowerFunc,
			"join":      stdlib.JoinFunc,
			"trimspace": stdlib.TrimSpaceFunc,
			"format":    stdlib.FormatFunc,
			"coalesce":  stdlib.CoalesceFunc,
		},
	}
}

func envObject(environ []string) cty.Value {
	vals := make(map[string]cty.Value, len(environ))

	for _, kv := range environ {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || k == "" {
			continue
		}

		vals[k] = cty.StringVal(v)
	}

	if len(vals) == 0 {
		return cty.EmptyObjectVal
	}

	return cty.ObjectVal(vals)
}

func diagErrors(diags hcl.Diagnostics) error {
	var err error

	err = multierror.Append(err, diags.Errs()...)

	return err
}
