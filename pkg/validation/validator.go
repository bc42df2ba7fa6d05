package validation

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"github.com/jetmock/jetmock/pkg/flow"
)

// Reserved step keys that are not element attributes.
const (
	KeyElementName = "elementName"
	KeyElementType = "elementType"
	KeyOrderNumber = "orderNumber"
)

// Step is one flat step definition as submitted by a client.
type Step map[string]any

// Type returns the step's element type name.
func (s Step) Type() flow.ElementType {
	v, ok := s[KeyElementName]
	if !ok || v == nil {
		return ""
	}
	return flow.ElementType(fmt.Sprint(v))
}

// OrderNumber returns the step's order number, or false when it is missing
// or not an integer.
func (s Step) OrderNumber() (int, bool) {
	v, ok := s[KeyOrderNumber]
	if !ok || v == nil {
		return 0, false
	}
	return flow.AsInt(v)
}

// ValidateSteps validates every step and collects all violations.
func ValidateSteps(steps []Step) *Result {
	result := &Result{}
	seen := make(map[int]bool, len(steps))
	for _, step := range steps {
		result.Merge(ValidateStep(step))
		if order, ok := step.OrderNumber(); ok {
			if seen[order] {
				result.Add(KeyOrderNumber, fmt.Sprintf("duplicate order number %d", order))
			}
			seen[order] = true
		}
	}
	return result
}

// ValidateStep validates a single step against its element schema.
func ValidateStep(step Step) *Result {
	result := &Result{}

	raw, ok := step[KeyElementName]
	if !ok || raw == nil {
		result.Add(KeyElementName, MsgNotNull)
		return result
	}
	name := fmt.Sprint(raw)

	if v, ok := step[KeyOrderNumber]; !ok || v == nil {
		result.Add(name+"."+KeyOrderNumber, MsgNotNull)
	} else if _, isInt := flow.AsInt(v); !isInt {
		result.Add(name+"."+KeyOrderNumber, "data type must be INTEGER")
	}

	schema, ok := flow.SchemaFor(flow.ElementType(name))
	if !ok {
		result.Add(KeyElementName, fmt.Sprintf("unknown element type %s", name))
		return result
	}

	for _, field := range schema.Fields() {
		validateField(result, name, field, schema[field], step[field])
	}

	keys := make([]string, 0, len(step))
	for k := range step {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		if k == KeyElementName || k == KeyElementType || k == KeyOrderNumber {
			continue
		}
		if _, declared := schema[k]; !declared {
			result.Add(k, fmt.Sprintf("Field '%s' is not allowed for element type %s", k, name))
		}
	}
	return result
}

func validateField(result *Result, elementName, field string, rule flow.FieldRule, value any) {
	qualified := elementName + "." + field

	if rule.Required && value == nil {
		result.Add(qualified, MsgNotNull)
		return
	}
	if rule.NotBlank && (value == nil || strings.TrimSpace(flow.Stringify(value)) == "") {
		result.Add(qualified, MsgNotBlank)
		return
	}
	if value == nil {
		return
	}
	if !matchesType(value, rule.Type) {
		result.Add(qualified, fmt.Sprintf("data type must be %s", rule.Type))
	}
}

func matchesType(value any, t flow.DataType) bool {
	switch t {
	case flow.DataString, flow.DataText:
		_, ok := value.(string)
		return ok
	case flow.DataInteger:
		switch value.(type) {
		case int, int32, int64, float64, json.Number:
			_, ok := flow.AsInt(value)
			return ok
		}
		return false
	}
	return false
}

// Build validates steps and converts them into flow elements. Each element
// gets an id from newID and one attribute per schema field present in the
// step, typed as the schema declares. Elements are returned in ascending
// order number.
func Build(steps []Step, newID func() string) ([]flow.Element, error) {
	if result := ValidateSteps(steps); !result.Valid() {
		return nil, result
	}

	elements := make([]flow.Element, 0, len(steps))
	for _, step := range steps {
		typ := step.Type()
		schema, _ := flow.SchemaFor(typ)
		order, _ := step.OrderNumber()

		attrs := make(flow.Attributes, 0, len(schema))
		for _, field := range schema.Fields() {
			v, ok := step[field]
			if !ok || v == nil {
				continue
			}
			rule := schema[field]
			if rule.Type == flow.DataInteger {
				v, _ = flow.AsInt(v)
			}
			attrs = append(attrs, flow.Attribute{Name: field, DataType: rule.Type, Value: v})
		}

		elements = append(elements, flow.Element{
			ID:          newID(),
			Type:        typ,
			OrderNumber: order,
			Attributes:  attrs,
		})
	}

	slices.SortStableFunc(elements, func(a, b flow.Element) int {
		return a.OrderNumber - b.OrderNumber
	})
	return elements, nil
}

// Steps flattens elements back into step definitions, sorted by order
// number.
func Steps(elements []flow.Element) []Step {
	sorted := slices.Clone(elements)
	slices.SortStableFunc(sorted, func(a, b flow.Element) int {
		return a.OrderNumber - b.OrderNumber
	})

	out := make([]Step, 0, len(sorted))
	for _, e := range sorted {
		step := Step{
			KeyElementName: string(e.Type),
			KeyOrderNumber: e.OrderNumber,
		}
		for _, a := range e.Attributes {
			step[a.Name] = a.Value
		}
		out = append(out, step)
	}
	return out
}
