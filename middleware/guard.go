package middleware

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// SchemaGuard rejects tool calls whose arguments do not satisfy a
// registered JSON Schema. Tools without a registered schema pass
// through untouched. The guard never overrides a result; an invalid
// call fails with an error instead of reaching the tool.
type SchemaGuard struct {
	schemas map[string]string
}

// NewSchemaGuard returns a guard with no schemas registered.
func NewSchemaGuard() *SchemaGuard {
	return &SchemaGuard{schemas: make(map[string]string)}
}

// Schema registers schemaJSON for tool and returns the guard for
// chaining. Registering again replaces the previous schema.
func (g *SchemaGuard) Schema(tool, schemaJSON string) *SchemaGuard {
	g.schemas[tool] = schemaJSON
	return g
}

// BeforeTool validates args against the schema registered for tool.
func (g *SchemaGuard) BeforeTool(_ context.Context, _ *Invocation, tool string, args map[string]any) (map[string]any, error) {
	schemaJSON, ok := g.schemas[tool]
	if !ok {
		return nil, nil
	}

	schemaLoader := gojsonschema.NewStringLoader(schemaJSON)
	documentLoader := gojsonschema.NewGoLoader(args)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return nil, fmt.Errorf("validate %s arguments: %w", tool, err)
	}
	if result.Valid() {
		return nil, nil
	}

	errs := make([]string, 0, len(result.Errors()))
	for _, schemaErr := range result.Errors() {
		errs = append(errs, schemaErr.String())
	}
	sort.Strings(errs)

	return nil, fmt.Errorf("tool %s arguments invalid: %s", tool, strings.Join(errs, "; "))
}
