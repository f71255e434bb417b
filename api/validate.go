package api

import (
	"bytes"
	"encoding/json"
	"io"
	"math"
	"net/http"

	"github.com/raushankrgupta/fitly-api/models"
)

const maxBodyBytes = 1 << 20

// requestBody is a decoded JSON object whose values are checked before
// being bound to a typed request.
type requestBody struct {
	fields map[string]json.RawMessage
}

// readBody reads a JSON object from r. ok is false when the body is not a
// JSON object.
func readBody(r *http.Request) (requestBody, bool) {
	raw, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return requestBody{}, false
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil || fields == nil {
		return requestBody{}, false
	}
	return requestBody{fields: fields}, true
}

// bind decodes the fields named by rules into v. Only call it after
// check has passed with the same rules. Keys are matched exactly, so a
// differently cased duplicate can never override a checked value.
func (b requestBody) bind(rules []rule, v any) error {
	names := make([]string, 0, len(rules))
	for _, ru := range rules {
		names = append(names, ru.field)
	}
	return decodeExact(b.fields, names, v)
}

// decodeExact decodes only the named keys of fields into v.
func decodeExact(fields map[string]json.RawMessage, names []string, v any) error {
	picked := make(map[string]json.RawMessage, len(names))
	for _, n := range names {
		if raw, ok := fields[n]; ok {
			picked[n] = raw
		}
	}
	raw, err := json.Marshal(picked)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, v)
}

var itemFields = []string{"retailer", "productId"}

// decodeItems reads a list already accepted by isItemList. Only retailer
// and productId are kept.
func decodeItems(v json.RawMessage) ([]models.ItemRef, error) {
	var objs []map[string]json.RawMessage
	if err := json.Unmarshal(v, &objs); err != nil {
		return nil, err
	}
	items := make([]models.ItemRef, 0, len(objs))
	for _, o := range objs {
		var it models.ItemRef
		if err := decodeExact(o, itemFields, &it); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, nil
}

// rule checks one field. Rules run in order and the first violation wins.
type rule struct {
	field    string
	optional bool
	valid    func(json.RawMessage) bool
	invalid  apiError
	// missing overrides the MISSING_FIELD default when set.
	missing *apiError
}

type violation struct {
	err   apiError
	field string
}

func (b requestBody) check(rules []rule) *violation {
	for _, ru := range rules {
		v, ok := b.fields[ru.field]
		if !ok {
			if ru.optional {
				continue
			}
			if ru.missing != nil {
				return &violation{*ru.missing, ru.field}
			}
			return &violation{missingField(ru.field), ru.field}
		}
		if ru.valid != nil && !ru.valid(v) {
			return &violation{ru.invalid, ru.field}
		}
	}
	return nil
}

func reject(w http.ResponseWriter, r *http.Request, v *violation) {
	fail(w, r, v.err, fieldDetails(v.field))
}

func isNull(v json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(v), []byte("null"))
}

func isString(v json.RawMessage) bool {
	var s string
	return !isNull(v) && json.Unmarshal(v, &s) == nil
}

func isNumber(v json.RawMessage) (float64, bool) {
	var f float64
	if isNull(v) || json.Unmarshal(v, &f) != nil {
		return 0, false
	}
	return f, true
}

func isMeasurement(v json.RawMessage) bool {
	f, ok := isNumber(v)
	return ok && f > models.MinMeasurement && f <= models.MaxMeasurement
}

// maxMinorUnits is the largest amount a float64 holds exactly.
const maxMinorUnits = 1 << 53

// isMinorUnits accepts whole, non-negative amounts. 1999.0 and 1e3 are
// whole; 19.99 is not, since amounts are already in minor units.
func isMinorUnits(v json.RawMessage) bool {
	f, ok := isNumber(v)
	return ok && f >= 0 && f <= maxMinorUnits && f == math.Trunc(f)
}

func isArray(v json.RawMessage) bool {
	t := bytes.TrimSpace(v)
	return len(t) > 0 && t[0] == '['
}

func isMode(v json.RawMessage) bool {
	var m models.FitMode
	return isString(v) && json.Unmarshal(v, &m) == nil && m.Valid()
}

// isItemList accepts a non-empty list of objects that each carry string
// retailer and productId fields.
func isItemList(v json.RawMessage) bool {
	var items []map[string]json.RawMessage
	if json.Unmarshal(v, &items) != nil || len(items) == 0 {
		return false
	}
	for _, it := range items {
		if it == nil {
			return false
		}
		for _, f := range []string{"retailer", "productId"} {
			raw, ok := it[f]
			if !ok || !isString(raw) {
				return false
			}
		}
	}
	return true
}

func stringRule(field string) rule {
	return rule{field: field, valid: isString, invalid: invalidValue(field + " must be a string")}
}

func optionalStringRule(field string) rule {
	r := stringRule(field)
	r.optional = true
	return r
}
