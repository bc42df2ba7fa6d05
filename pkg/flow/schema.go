package flow

import "slices"

// DataType is the declared type of an element attribute.
type DataType string

const (
	DataString  DataType = "STRING"
	DataInteger DataType = "INTEGER"
	// DataText is represented like DataString but may hold large or
	// unstructured text such as JSON documents and templates.
	DataText DataType = "TEXT"
)

// FieldRule constrains one attribute of an element type.
type FieldRule struct {
	Type     DataType
	Required bool
	NotBlank bool
}

// Schema maps attribute names to their rules for one element type.
type Schema map[string]FieldRule

// Fields returns the schema's attribute names in sorted order.
func (s Schema) Fields() []string {
	out := make([]string, 0, len(s))
	for k := range s {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}

var (
	notBlankString = FieldRule{Type: DataString, NotBlank: true}
	notBlankText   = FieldRule{Type: DataText, NotBlank: true}
	requiredInt    = FieldRule{Type: DataInteger, Required: true}
)

var schemas = map[ElementType]Schema{
	TypeCondition: {
		"expression": notBlankString,
	},
	TypeAPITriggerRequest: {
		"method": notBlankString,
		"path":   notBlankString,
	},
	TypeAPIResponse: {
		"status":  requiredInt,
		"latency": requiredInt,
		"header":  notBlankText,
		"body":    notBlankText,
	},
	TypeKafkaTrigger: {
		"topic":  notBlankString,
		"broker": notBlankString,
	},
	TypeCallbackAPI: {
		"path":    notBlankString,
		"method":  notBlankString,
		"latency": requiredInt,
		"header":  notBlankText,
		"param":   notBlankText,
		"body":    notBlankText,
	},
	TypeKafkaPublisher: {
		"topic":  notBlankString,
		"broker": notBlankString,
		"body":   notBlankText,
	},
	TypeGlobalVariable: {
		"variable": notBlankText,
	},
}

// SchemaFor returns a copy of the schema registered for t.
func SchemaFor(t ElementType) (Schema, bool) {
	s, ok := schemas[t]
	if !ok {
		return nil, false
	}
	out := make(Schema, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out, true
}

// KnownTypes returns every registered element type in sorted order.
func KnownTypes() []ElementType {
	out := make([]ElementType, 0, len(schemas))
	for t := range schemas {
		out = append(out, t)
	}
	slices.Sort(out)
	return out
}
