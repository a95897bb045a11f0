package handlers

import (
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// detectedBodyKeys are the request body fields that may carry detected
// ingredient ids, either as plain ids or as objects with ingredient_id
var detectedBodyKeys = []string{"detected_ids", "detected", "candidates", "items"}

// DetectedIDsFromQuery reads detected_ids=1,2 3. Invalid tokens are skipped.
func DetectedIDsFromQuery(values url.Values) []uint {
	var ids []uint
	for _, raw := range values["detected_ids"] {
		ids = append(ids, splitIDs(raw)...)
	}
	return ids
}

// DetectedIDsFromBody reads the detected id keys of a decoded JSON body
func DetectedIDsFromBody(body map[string]interface{}) []uint {
	var ids []uint
	for _, key := range detectedBodyKeys {
		switch v := body[key].(type) {
		case []interface{}:
			for _, item := range v {
				if id, ok := itemID(item); ok {
					ids = append(ids, id)
				}
			}
		case string:
			ids = append(ids, splitIDs(v)...)
		case nil:
		default:
			if id, ok := itemID(v); ok {
				ids = append(ids, id)
			}
		}
	}
	return ids
}

func itemID(item interface{}) (uint, bool) {
	switch v := item.(type) {
	case map[string]interface{}:
		return itemID(v["ingredient_id"])
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return positiveID(float64(n))
		}
		f, err := v.Float64()
		if err != nil {
			return 0, false
		}
		return positiveID(math.Trunc(f))
	case float64:
		return positiveID(math.Trunc(v))
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return 0, false
		}
		return positiveID(float64(n))
	default:
		return 0, false
	}
}

func positiveID(f float64) (uint, bool) {
	if f < 1 || f > math.MaxUint32 {
		return 0, false
	}
	return uint(f), true
}

func splitIDs(raw string) []uint {
	fields := strings.Fields(strings.ReplaceAll(raw, ",", " "))
	ids := make([]uint, 0, len(fields))
	for _, field := range fields {
		if id, ok := itemID(field); ok {
			ids = append(ids, id)
		}
	}
	return ids
}

// decodeBody decodes an optional JSON object body. An empty or non JSON
// body yields an empty map; form posts are folded in as strings.
func decodeBody(r *http.Request) (map[string]interface{}, error) {
	body := map[string]interface{}{}
	if r.Body == nil || r.Body == http.NoBody {
		return body, nil
	}

	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/x-www-form-urlencoded") {
		if err := r.ParseForm(); err != nil {
			return nil, err
		}
		for key, values := range r.PostForm {
			if len(values) > 0 {
				body[key] = strings.Join(values, ",")
			}
		}
		return body, nil
	}

	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	if err := dec.Decode(&body); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return nil, err
		}
		return map[string]interface{}{}, nil
	}
	return body, nil
}

func queryInt(values url.Values, key string) int {
	n, err := strconv.Atoi(strings.TrimSpace(values.Get(key)))
	if err != nil {
		return 0
	}
	return n
}

func queryIntPtr(values url.Values, key string) *int {
	n, err := strconv.Atoi(strings.TrimSpace(values.Get(key)))
	if err != nil {
		return nil
	}
	return &n
}

func queryFloatPtr(values url.Values, key string) *float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(values.Get(key)), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}

// queryBoolPtr is tri-state: absent or unrecognized values yield nil
func queryBoolPtr(values url.Values, key string) *bool {
	var b bool
	switch strings.ToLower(strings.TrimSpace(values.Get(key))) {
	case "1", "t", "true", "yes", "y", "on":
		b = true
	case "0", "f", "false", "no", "n", "off":
		b = false
	default:
		return nil
	}
	return &b
}

var timeLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02 15:04:05", "2006-01-02"}

// parseTimestamp accepts RFC 3339 and zone-less ISO forms, read as UTC
func parseTimestamp(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

func parseDate(raw string) (time.Time, bool) {
	t, err := time.Parse("2006-01-02", strings.TrimSpace(raw))
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
