package inference

import (
	"strconv"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// CoerceArgs rebuilds a Proposal's string-only argument map into a
// JSON object, coercing each value to the type its args_schema
// declares (number, boolean, array/object parsed as embedded JSON),
// falling back to a JSON string for anything else or on parse
// failure. The wire format only ever gives us strings; the schema is
// what tells us what they actually mean.
//
// schemaJSON is the tool's args_schema (JSON-schema subset, spec
// §4.8): {"properties":{"name":{"type":"string"},...}}.
func CoerceArgs(args map[string]string, schemaJSON string) (string, error) {
	doc := "{}"
	var err error
	for key, value := range args {
		typ := gjson.Get(schemaJSON, "properties."+key+".type").String()
		switch typ {
		case "number", "integer":
			if n, perr := strconv.ParseFloat(value, 64); perr == nil {
				doc, err = sjson.Set(doc, key, n)
			} else {
				doc, err = sjson.Set(doc, key, value)
			}
		case "boolean":
			if b, perr := strconv.ParseBool(value); perr == nil {
				doc, err = sjson.Set(doc, key, b)
			} else {
				doc, err = sjson.Set(doc, key, value)
			}
		case "array", "object":
			if gjson.Valid(value) {
				doc, err = sjson.SetRaw(doc, key, value)
			} else {
				doc, err = sjson.Set(doc, key, value)
			}
		default:
			doc, err = sjson.Set(doc, key, value)
		}
		if err != nil {
			return "", err
		}
	}
	return doc, nil
}
