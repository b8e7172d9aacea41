// Package contract checks advertised tool metadata against a declarative
// contract file.
package contract

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"widgetd/internal/domain"
	"widgetd/internal/infra/mcpcodec"
)

// Expectation is the expected metadata of one tool.
type Expectation struct {
	ReadOnlyHint           bool     `yaml:"readOnlyHint" toml:"readOnlyHint"`
	WidgetAccessible       bool     `yaml:"widgetAccessible" toml:"widgetAccessible"`
	Visibility             string   `yaml:"visibility" toml:"visibility"`
	OutputTemplateIncludes string   `yaml:"outputTemplateIncludes" toml:"outputTemplateIncludes"`
	GoldenPrompts          []string `yaml:"goldenPrompts" toml:"goldenPrompts"`
}

// Oracle maps tool names to expectations.
type Oracle map[string]Expectation

// Names returns the tool names sorted.
func (o Oracle) Names() []string {
	names := make([]string, 0, len(o))
	for name := range o {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Load reads a contract file. Files ending in .toml are decoded as TOML,
// everything else as YAML.
func Load(path string) (Oracle, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("contract path is required")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read contract: %w", err)
	}
	parse := Parse
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		parse = ParseTOML
	}
	oracle, err := parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse contract %s: %w", path, err)
	}
	return oracle, nil
}

// Parse decodes and validates contract YAML.
func Parse(data []byte) (Oracle, error) {
	var oracle Oracle
	if err := yaml.Unmarshal(data, &oracle); err != nil {
		return nil, err
	}
	return validate(oracle)
}

// ParseTOML decodes and validates a contract written as TOML tables.
func ParseTOML(data []byte) (Oracle, error) {
	var oracle Oracle
	if err := toml.Unmarshal(data, &oracle); err != nil {
		return nil, err
	}
	return validate(oracle)
}

func validate(oracle Oracle) (Oracle, error) {
	if len(oracle) == 0 {
		return nil, errors.New("contract declares no tools")
	}
	var errs []string
	for _, name := range oracle.Names() {
		exp := oracle[name]
		switch domain.Visibility(exp.Visibility) {
		case domain.VisibilityPublic, domain.VisibilityPrivate:
		default:
			errs = append(errs, fmt.Sprintf("%s: visibility %q must be public or private", name, exp.Visibility))
		}
		if strings.TrimSpace(exp.OutputTemplateIncludes) == "" {
			errs = append(errs, fmt.Sprintf("%s: outputTemplateIncludes is required", name))
		}
	}
	if len(errs) > 0 {
		return nil, errors.New(strings.Join(errs, "; "))
	}
	return oracle, nil
}

// Violation is one mismatch between the contract and the registry.
type Violation struct {
	Tool     string
	Field    string
	Expected string
	Actual   string
}

func (v Violation) String() string {
	return fmt.Sprintf("%s: %s: expected %s, got %s", v.Tool, v.Field, v.Expected, v.Actual)
}

// Check compares tools with the oracle. Coverage is symmetric except that
// preview tools are exempt from the exact match.
func Check(oracle Oracle, tools []*mcp.Tool) []Violation {
	var out []Violation
	byName := make(map[string]*mcp.Tool, len(tools))
	for _, tool := range tools {
		if tool != nil {
			byName[tool.Name] = tool
		}
	}

	for _, name := range oracle.Names() {
		if _, ok := byName[name]; !ok {
			out = append(out, Violation{Tool: name, Field: "registration", Expected: "registered", Actual: "missing"})
		}
	}

	names := make([]string, 0, len(byName))
	for name := range byName {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		tool := byName[name]
		meta := mcpcodec.ToolMetaFromMCP(tool.Meta)
		if len(meta.SecuritySchemes) == 0 {
			out = append(out, Violation{Tool: name, Field: domain.MetaSecuritySchemes, Expected: "non-empty", Actual: "empty"})
		}

		if strings.HasPrefix(name, domain.PreviewToolPrefix) {
			if !strings.Contains(meta.OutputTemplate, domain.WidgetURIPrefix) {
				out = append(out, Violation{Tool: name, Field: domain.MetaOutputTemplate, Expected: "contains " + domain.WidgetURIPrefix, Actual: quote(meta.OutputTemplate)})
			}
			continue
		}

		exp, ok := oracle[name]
		if !ok {
			out = append(out, Violation{Tool: name, Field: "registration", Expected: "declared in contract", Actual: "undeclared"})
			continue
		}
		readOnly := tool.Annotations != nil && tool.Annotations.ReadOnlyHint
		if readOnly != exp.ReadOnlyHint {
			out = append(out, Violation{Tool: name, Field: "readOnlyHint", Expected: fmt.Sprint(exp.ReadOnlyHint), Actual: fmt.Sprint(readOnly)})
		}
		if meta.WidgetAccessible != exp.WidgetAccessible {
			out = append(out, Violation{Tool: name, Field: domain.MetaWidgetAccessible, Expected: fmt.Sprint(exp.WidgetAccessible), Actual: fmt.Sprint(meta.WidgetAccessible)})
		}
		if string(meta.Visibility) != exp.Visibility {
			out = append(out, Violation{Tool: name, Field: domain.MetaVisibility, Expected: quote(exp.Visibility), Actual: quote(string(meta.Visibility))})
		}
		if !strings.Contains(meta.OutputTemplate, exp.OutputTemplateIncludes) {
			out = append(out, Violation{Tool: name, Field: domain.MetaOutputTemplate, Expected: "contains " + quote(exp.OutputTemplateIncludes), Actual: quote(meta.OutputTemplate)})
		}
	}
	return out
}

func quote(s string) string {
	return fmt.Sprintf("%q", s)
}
