// Package validation checks task payloads against the task JSON Schema and
// turns them into normalized tasks.
package validation

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"

	"tasks-api/internal/models"
)

// MaxDescriptionLength matches maxLength in task.schema.json.
const MaxDescriptionLength = 1000

//go:embed task.schema.json
var taskSchema []byte

const (
	fullSchemaURL    = "https://tasks-api.local/schema/task.json"
	partialSchemaURL = "https://tasks-api.local/schema/task-partial.json"
)

// Only these spellings are accepted; mixed case like "tRuE" is not.
var (
	trueValues = map[string]bool{
		"t": true, "T": true, "y": true, "Y": true,
		"yes": true, "Yes": true, "YES": true,
		"true": true, "True": true, "TRUE": true,
		"on": true, "On": true, "ON": true,
		"1": true,
	}
	falseValues = map[string]bool{
		"f": true, "F": true, "n": true, "N": true,
		"no": true, "No": true, "NO": true,
		"false": true, "False": true, "FALSE": true,
		"off": true, "Off": true, "OFF": true,
		"0": true,
	}
)

// TaskValidator validates raw task input. It is safe for concurrent use.
type TaskValidator struct {
	full     *jsonschema.Schema
	partial  *jsonschema.Schema
	required []string
}

func NewTaskValidator() (*TaskValidator, error) {
	var doc map[string]any
	if err := json.Unmarshal(taskSchema, &doc); err != nil {
		return nil, fmt.Errorf("parse task schema: %w", err)
	}

	var required []string
	if list, ok := doc["required"].([]any); ok {
		for _, name := range list {
			required = append(required, fmt.Sprint(name))
		}
	}

	full, err := compile(fullSchemaURL, doc)
	if err != nil {
		return nil, err
	}

	delete(doc, "required")
	partial, err := compile(partialSchemaURL, doc)
	if err != nil {
		return nil, err
	}

	return &TaskValidator{full: full, partial: partial, required: required}, nil
}

func compile(url string, doc map[string]any) (*jsonschema.Schema, error) {
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}

	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020
	if err := compiler.AddResource(url, bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("add schema resource: %w", err)
	}

	schema, err := compiler.Compile(url)
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return schema, nil
}

// Validate checks input and applies it on top of existing (nil on create).
// In partial mode only the supplied fields are validated; in either mode
// fields that are absent keep the value of existing or their default.
// A failure is always returned as *Error.
func (v *TaskValidator) Validate(input any, existing *models.Task, partial bool) (models.Task, error) {
	raw, ok := input.(map[string]any)
	if !ok {
		verr := &Error{}
		verr.add(NonFieldErrors, fmt.Sprintf("Invalid data. Expected a dictionary, but got %s.", typeName(input)))
		return models.Task{}, verr
	}

	doc := normalize(raw)

	schema := v.full
	if partial {
		schema = v.partial
	}

	if err := schema.Validate(doc); err != nil {
		return models.Task{}, v.translate(doc, err)
	}

	var task models.Task
	if existing != nil {
		task = *existing
	}
	if desc, ok := doc["description"].(string); ok {
		task.Description = desc
	}
	if completed, ok := doc["completed"].(bool); ok {
		task.Completed = completed
	}
	return task, nil
}

// normalize keeps the writable fields, trims the description and coerces
// boolean-like literals for completed. Values it cannot coerce are left for
// the schema to reject.
func normalize(raw map[string]any) map[string]any {
	doc := make(map[string]any, 2)

	if val, ok := raw["description"]; ok {
		if s, isString := numberText(val); isString {
			val = s
		}
		if s, isString := val.(string); isString {
			val = strings.TrimSpace(s)
		}
		doc["description"] = val
	}

	if val, ok := raw["completed"]; ok {
		if b, coerced := coerceBool(val); coerced {
			val = b
		}
		doc["completed"] = val
	}

	return doc
}

// numberText renders a JSON number as the text a string field stores for it.
func numberText(val any) (string, bool) {
	switch v := val.(type) {
	case json.Number:
		return v.String(), true
	case float64:
		if v == math.Trunc(v) && math.Abs(v) < 1e21 {
			return strconv.FormatFloat(v, 'f', -1, 64), true
		}
		return strconv.FormatFloat(v, 'g', -1, 64), true
	}
	return "", false
}

func coerceBool(val any) (bool, bool) {
	switch v := val.(type) {
	case bool:
		return v, true
	case string:
		if trueValues[v] {
			return true, true
		}
		if falseValues[v] {
			return false, true
		}
	case float64:
		switch v {
		case 1:
			return true, true
		case 0:
			return false, true
		}
	case json.Number:
		switch v.String() {
		case "1":
			return true, true
		case "0":
			return false, true
		}
	}
	return false, false
}

func (v *TaskValidator) translate(doc map[string]any, err error) error {
	verr := &Error{}

	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		verr.add(NonFieldErrors, err.Error())
		return verr
	}

	v.collect(doc, ve, verr)
	if verr.empty() {
		verr.add(NonFieldErrors, ve.Error())
	}
	return verr
}

func (v *TaskValidator) collect(doc map[string]any, ve *jsonschema.ValidationError, verr *Error) {
	if len(ve.Causes) > 0 {
		for _, cause := range ve.Causes {
			v.collect(doc, cause, verr)
		}
		return
	}

	field := strings.TrimPrefix(ve.InstanceLocation, "/")
	if i := strings.Index(field, "/"); i >= 0 {
		field = field[:i]
	}

	keyword := ve.KeywordLocation
	if i := strings.LastIndex(keyword, "/"); i >= 0 {
		keyword = keyword[i+1:]
	}

	switch keyword {
	case "required":
		for _, name := range v.required {
			if _, ok := doc[name]; !ok {
				verr.add(name, msgRequired)
			}
		}
	case "type":
		switch {
		case doc[field] == nil:
			verr.add(field, msgNull)
		case field == "completed":
			verr.add(field, msgBoolean)
		default:
			verr.add(field, msgString)
		}
	case "minLength":
		verr.add(field, msgBlank)
	case "maxLength":
		verr.add(field, fmt.Sprintf("Ensure this field has no more than %d characters.", MaxDescriptionLength))
	default:
		if field == "" {
			field = NonFieldErrors
		}
		verr.add(field, ve.Message)
	}
}

func typeName(v any) string {
	switch val := v.(type) {
	case nil:
		return "NoneType"
	case []any:
		return "list"
	case string:
		return "str"
	case bool:
		return "bool"
	case float64:
		if val == math.Trunc(val) {
			return "int"
		}
		return "float"
	default:
		return fmt.Sprintf("%T", v)
	}
}
