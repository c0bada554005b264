package safety

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/pscheid92/sitewatch-ai/internal/domain"
	"github.com/santhosh-tekuri/jsonschema/v6"
)

// wasteLogSchemaJSON accepts any object whose text fields are strings or null.
// Quantity is deliberately unconstrained: unusable values become 0.
const wasteLogSchemaJSON = `{
	"type": "object",
	"properties": {
		"materialType":   {"type": ["string", "null"]},
		"disposalMethod": {"type": ["string", "null"]}
	}
}`

var wasteLogSchema = mustCompileSchema("urn:sitewatch:wastelog", wasteLogSchemaJSON)

func mustCompileSchema(name, source string) *jsonschema.Schema {
	doc, err := jsonschema.UnmarshalJSON(strings.NewReader(source))
	if err != nil {
		panic(fmt.Sprintf("schema %s: %v", name, err))
	}

	c := jsonschema.NewCompiler()
	if err := c.AddResource(name, doc); err != nil {
		panic(fmt.Sprintf("schema %s: %v", name, err))
	}
	sch, err := c.Compile(name)
	if err != nil {
		panic(fmt.Sprintf("schema %s: %v", name, err))
	}
	return sch
}

// ParseWasteLog decodes a waste-log request body. Only a body that is not a
// JSON object of the expected shape is rejected; an absent or unparsable
// quantity becomes 0.
func ParseWasteLog(body []byte) (domain.WasteLogInput, error) {
	// Numbers stay json.Number so out-of-range quantities reach coerceQuantity.
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(body))
	if err != nil {
		return domain.WasteLogInput{}, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	if err := wasteLogSchema.Validate(doc); err != nil {
		return domain.WasteLogInput{}, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}

	fields := doc.(map[string]any)
	return domain.WasteLogInput{
		MaterialType:   stringField(fields, "materialType"),
		DisposalMethod: stringField(fields, "disposalMethod"),
		Quantity:       coerceQuantity(fields["quantity"]),
	}, nil
}

func stringField(fields map[string]any, key string) string {
	s, _ := fields[key].(string)
	return s
}

func coerceQuantity(raw any) float64 {
	switch v := raw.(type) {
	case json.Number:
		return parseQuantity(v.String())
	case string:
		return parseQuantity(strings.TrimSpace(v))
	default:
		return 0
	}
}

func parseQuantity(s string) float64 {
	q, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(q) || math.IsInf(q, 0) {
		return 0
	}
	return q
}
