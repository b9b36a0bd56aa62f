// README: Decoder for the provider's typed attribute encoding (S/N/BOOL/M/L wrappers).
package catalog

import (
	"encoding/json"
	"strconv"
	"strings"
)

// decodeAttrMap turns a typed attribute document, e.g.
//
//	{"Name":{"S":"Carbone"},"Rating":{"N":"4.5"},"Open":{"BOOL":true}}
//
// into plain Go values. Numbers without a decimal point decode as int,
// others as float64. Nested M and L wrappers decode recursively. Unknown
// wrapper types are kept as raw JSON so callers can inspect them.
func decodeAttrMap(doc map[string]json.RawMessage) map[string]any {
	out := make(map[string]any, len(doc))
	for k, raw := range doc {
		out[k] = decodeAttr(raw)
	}
	return out
}

// DocKey extracts the business ID and normalized cuisine from a raw provider
// document. Cuisine falls back to the CuisineTerm attribute when the primary
// one is absent.
func DocKey(doc map[string]json.RawMessage) (id, cuisine string, ok bool) {
	attrs := decodeAttrMap(doc)
	id, _ = attrs["BusinessId"].(string)
	if id == "" {
		return "", "", false
	}
	if v, _ := attrs["Cuisine"].(string); v != "" {
		cuisine = v
	} else if v, _ := attrs["CuisineTerm"].(string); v != "" {
		cuisine = v
	}
	cuisine = strings.ToLower(strings.TrimSpace(cuisine))
	return id, cuisine, cuisine != ""
}

func decodeAttr(raw json.RawMessage) any {
	var wrapper map[string]json.RawMessage
	if err := json.Unmarshal(raw, &wrapper); err != nil || len(wrapper) != 1 {
		return raw
	}

	for typ, val := range wrapper {
		switch typ {
		case "S":
			var s string
			if err := json.Unmarshal(val, &s); err == nil {
				return s
			}
		case "N":
			var s string
			if err := json.Unmarshal(val, &s); err == nil {
				if strings.Contains(s, ".") {
					if f, err := strconv.ParseFloat(s, 64); err == nil {
						return f
					}
				} else if n, err := strconv.Atoi(s); err == nil {
					return n
				}
				return s
			}
		case "BOOL":
			var b bool
			if err := json.Unmarshal(val, &b); err == nil {
				return b
			}
		case "M":
			var m map[string]json.RawMessage
			if err := json.Unmarshal(val, &m); err == nil {
				return decodeAttrMap(m)
			}
		case "L":
			var l []json.RawMessage
			if err := json.Unmarshal(val, &l); err == nil {
				items := make([]any, len(l))
				for i, item := range l {
					items[i] = decodeAttr(item)
				}
				return items
			}
		}
	}
	return raw
}
