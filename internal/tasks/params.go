package tasks

import (
	"bytes"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/tidwall/gjson"
)

var paramValidator = validator.New(validator.WithRequiredStructEnabled())

func init() {
	// report parameter names the way step files spell them
	paramValidator.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("mapstructure"), ",")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
}

// compileSchema compiles an inline JSON schema. It panics on an invalid
// schema since schemas are package constants.
func compileSchema(id, schema string) *jsonschema.Schema {
	if !gjson.Valid(schema) {
		panic("invalid JSON schema for " + id)
	}
	url := "inline://" + id
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(url, bytes.NewReader([]byte(schema))); err != nil {
		panic(fmt.Sprintf("unable to add schema %s: %v", id, err))
	}
	compiled, err := compiler.Compile(url)
	if err != nil {
		panic(fmt.Sprintf("unable to compile schema %s: %v", id, err))
	}
	return compiled
}

// normalize converts values decoded from YAML into the generic JSON shapes
// (map[string]any, []any, float64) the schema validator understands.
func normalize(params map[string]any) (map[string]any, error) {
	if params == nil {
		return map[string]any{}, nil
	}
	b, err := json.Marshal(params)
	if err != nil {
		return nil, ErrInvalidParameters.MsgErr("parameters are not representable as JSON", err)
	}
	var out map[string]any
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, ErrInvalidParameters.MsgErr("parameters are not a JSON object", err)
	}
	return out, nil
}

// decodeParams validates params against schema, decodes them into P and runs
// struct validation.
func decodeParams[P any](schema *jsonschema.Schema, params map[string]any) (*P, error) {
	norm, err := normalize(params)
	if err != nil {
		return nil, err
	}
	if err := schema.Validate(norm); err != nil {
		var ve *jsonschema.ValidationError
		if errors.As(err, &ve) {
			return nil, ErrInvalidParameters.Msg(schemaErrorMessage(ve))
		}
		return nil, ErrInvalidParameters.MsgErr("schema validation failed", err)
	}

	var p P
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &p,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		Squash:           true,
	})
	if err != nil {
		return nil, ErrInvalidParameters.MsgErr("unable to create decoder", err)
	}
	if err := dec.Decode(norm); err != nil {
		return nil, ErrInvalidParameters.MsgErr("unable to decode parameters", err)
	}

	if err := paramValidator.Struct(&p); err != nil {
		return nil, validationError(err)
	}
	return &p, nil
}

func schemaErrorMessage(ve *jsonschema.ValidationError) string {
	leaf := ve
	for len(leaf.Causes) > 0 {
		leaf = leaf.Causes[0]
	}
	loc := strings.TrimPrefix(leaf.InstanceLocation, "/")
	if loc == "" {
		return leaf.Message
	}
	return strings.ReplaceAll(loc, "/", ".") + ": " + leaf.Message
}

func validationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return ErrInvalidParameters.MsgErr("validation failed", err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, e := range verrs {
		_, field, ok := strings.Cut(e.Namespace(), ".")
		if !ok {
			field = e.Field()
		}
		field = strings.TrimPrefix(field, "Connection.")
		switch e.Tag() {
		case "required":
			msgs = append(msgs, field+" is required")
		case "required_without_all":
			msgs = append(msgs, field+" is required unless one of "+e.Param()+" is set")
		case "oneof":
			msgs = append(msgs, fmt.Sprintf("%s must be one of [%s], got %v", field, e.Param(), e.Value()))
		case "min", "gte":
			msgs = append(msgs, fmt.Sprintf("%s must be at least %s", field, e.Param()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s failed %s validation", field, e.Tag()))
		}
	}
	return ErrInvalidParameters.Msg(strings.Join(msgs, "; "))
}

// requireChanges rejects an update body with no field set.
func requireChanges(body any) error {
	b, err := json.Marshal(body)
	if err != nil {
		return ErrInvalidParameters.MsgErr("unable to encode update", err)
	}
	if len(gjson.ParseBytes(b).Map()) == 0 {
		return ErrInvalidParameters.Msg("at least one field to update is required")
	}
	return nil
}
