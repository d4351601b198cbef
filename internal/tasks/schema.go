package tasks

import "strings"

// JSON schema fragments shared by the task parameter schemas.
const (
	connectionProps = `
		"apiToken": {"type": "string", "minLength": 1, "description": "Pipedrive API token"},
		"apiUrl": {"type": "string", "pattern": "^https?://", "description": "API root, defaults to https://api.pipedrive.com/api/v2"}`

	idProp       = `{"type": ["integer", "string"], "minimum": 1, "pattern": "^[1-9][0-9]*$"}`
	optIntProp   = `{"type": ["integer", "string", "null"], "pattern": "^[0-9]+$"}`
	decimalProp  = `{"type": ["number", "string"], "pattern": "^-?[0-9]+(\\.[0-9]+)?$"}`
	stringProp   = `{"type": "string"}`
	boolProp     = `{"type": "boolean"}`
	objectProp   = `{"type": "object"}`
	contactsProp = `{
		"type": "array",
		"items": {
			"type": "object",
			"required": ["value"],
			"additionalProperties": false,
			"properties": {
				"value": {"type": "string", "minLength": 1},
				"primary": {"type": "boolean"},
				"label": {"type": "string"}
			}
		}
	}`
	dealStatusProp = `{"type": "string", "enum": ["open", "won", "lost", "deleted"]}`
	fetchTypeProp  = `{"type": "string", "enum": ["FETCH_ONE", "FETCH", "STORE"]}`
)

type prop struct {
	name   string
	schema string
}

// paramsSchema builds a closed object schema with the connection parameters,
// props, and the given required names.
func paramsSchema(required []string, props ...prop) string {
	var b strings.Builder
	b.WriteString(`{"$schema": "https://json-schema.org/draft/2020-12/schema", "type": "object", "additionalProperties": false, "required": [`)
	for i, name := range append([]string{"apiToken"}, required...) {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(`"` + name + `"`)
	}
	b.WriteString(`], "properties": {`)
	b.WriteString(connectionProps)
	for _, p := range props {
		b.WriteString(",\n\t\t\"" + p.name + `": ` + p.schema)
	}
	b.WriteString("}}")
	return b.String()
}
