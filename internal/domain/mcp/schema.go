package mcp

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/xeipuuv/gojsonschema"

	platformerrors "tts-mcp-go/internal/platform/errors"
)

// argumentValidator checks call arguments against the tool's advertised input schema.
type argumentValidator struct {
	schema *gojsonschema.Schema
}

func newArgumentValidator(tool mcp.Tool) (*argumentValidator, error) {
	data, err := json.Marshal(tool.InputSchema)
	if err != nil {
		return nil, platformerrors.Wrap(platformerrors.KindConfig, "mcp:schema", "failed to encode input schema", err)
	}
	schema, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return nil, platformerrors.Wrap(platformerrors.KindConfig, "mcp:schema", "failed to compile input schema", err)
	}
	return &argumentValidator{schema: schema}, nil
}

func (v *argumentValidator) validate(args map[string]any) error {
	if args == nil {
		args = map[string]any{}
	}

	result, err := v.schema.Validate(gojsonschema.NewGoLoader(args))
	if err != nil {
		return platformerrors.Wrap(platformerrors.KindValidation, "mcp:args", "arguments could not be read", err)
	}
	if result.Valid() {
		return nil
	}

	problems := make([]string, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		problems = append(problems, fmt.Sprintf("%s: %s", e.Field(), e.Description()))
	}
	return platformerrors.New(platformerrors.KindValidation, "mcp:args",
		"invalid arguments ("+strings.Join(problems, "; ")+")")
}
