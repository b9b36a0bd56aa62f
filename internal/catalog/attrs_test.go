// README: Typed attribute decoder tests.
package catalog

import (
	"encoding/json"
	"reflect"
	"testing"
)

func mustDoc(t *testing.T, raw string) map[string]json.RawMessage {
	t.Helper()
	var doc map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		t.Fatalf("bad test doc: %v", err)
	}
	return doc
}

func TestDecodeAttrMapScalars(t *testing.T) {
	doc := mustDoc(t, `{
		"Name": {"S": "Carbone"},
		"Rating": {"N": "4.5"},
		"NumberOfReviews": {"N": "1287"},
		"Open": {"BOOL": true}
	}`)

	got := decodeAttrMap(doc)
	want := map[string]any{
		"Name":            "Carbone",
		"Rating":          4.5,
		"NumberOfReviews": 1287,
		"Open":            true,
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %#v, want %#v", got, want)
	}
}

func TestDecodeAttrMapNested(t *testing.T) {
	doc := mustDoc(t, `{
		"Coordinates": {"M": {"Lat": {"N": "40.72"}, "Lng": {"N": "-73.99"}}},
		"Tags": {"L": [{"S": "ramen"}, {"S": "late-night"}]}
	}`)

	got := decodeAttrMap(doc)

	coords, ok := got["Coordinates"].(map[string]any)
	if !ok || coords["Lat"] != 40.72 || coords["Lng"] != -73.99 {
		t.Fatalf("coordinates = %#v", got["Coordinates"])
	}
	tags, ok := got["Tags"].([]any)
	if !ok || len(tags) != 2 || tags[0] != "ramen" {
		t.Fatalf("tags = %#v", got["Tags"])
	}
}

func TestDecodeAttrUnknownWrapperKeptRaw(t *testing.T) {
	doc := mustDoc(t, `{"Blob": {"B": "aGVsbG8="}}`)
	got := decodeAttrMap(doc)
	if _, ok := got["Blob"].(json.RawMessage); !ok {
		t.Fatalf("unknown wrapper decoded as %T", got["Blob"])
	}
}

func TestFromAttrsDefaults(t *testing.T) {
	r := fromAttrs("biz-1", map[string]any{})
	if r.BusinessID != "biz-1" || r.Name != "Unknown" || r.Address != "N/A" {
		t.Fatalf("r = %+v", r)
	}
}

func TestFromAttrsFullRecord(t *testing.T) {
	r := fromAttrs("biz-2", map[string]any{
		"Name":            "Carbone",
		"Address":         "181 Thompson St",
		"Cuisine":         "italian",
		"Rating":          4.5,
		"NumberOfReviews": 1287,
	})
	if r.Name != "Carbone" || r.Address != "181 Thompson St" || r.Cuisine != "italian" {
		t.Fatalf("r = %+v", r)
	}
	if r.Rating != 4.5 || r.NumberOfReviews != 1287 {
		t.Fatalf("r = %+v", r)
	}
}

func TestDocKey(t *testing.T) {
	doc := mustDoc(t, `{"BusinessId": {"S": "biz-3"}, "Cuisine": {"S": " Japanese "}}`)
	id, cuisine, ok := DocKey(doc)
	if !ok || id != "biz-3" || cuisine != "japanese" {
		t.Fatalf("id=%q cuisine=%q ok=%v", id, cuisine, ok)
	}

	// CuisineTerm fallback.
	doc = mustDoc(t, `{"BusinessId": {"S": "biz-4"}, "CuisineTerm": {"S": "Chinese"}}`)
	if _, cuisine, ok := DocKey(doc); !ok || cuisine != "chinese" {
		t.Fatalf("cuisine=%q ok=%v", cuisine, ok)
	}

	// No ID means the document is unusable.
	doc = mustDoc(t, `{"Cuisine": {"S": "Chinese"}}`)
	if _, _, ok := DocKey(doc); ok {
		t.Fatal("expected ok=false without BusinessId")
	}
}
