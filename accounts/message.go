package accounts

import (
	"encoding/json"
	"sort"
	"strings"
)

var messageKeys = []string{"error", "detail", "message", "non_field_errors"}

// ErrorMessage extracts the human readable message from an account service
// error body. It looks at the well known keys first, then at the first field
// error in key order. An empty string means nothing usable was found.
func ErrorMessage(body []byte) string {
	var doc map[string]any
	if err := json.Unmarshal(body, &doc); err != nil {
		return ""
	}

	for _, key := range messageKeys {
		if msg := firstText(doc[key]); msg != "" {
			return msg
		}
	}

	keys := make([]string, 0, len(doc))
	for k := range doc {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		if msg := firstText(doc[k]); msg != "" {
			return msg
		}
	}
	return ""
}

func firstText(v any) string {
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val)
	case []any:
		for _, item := range val {
			if msg := firstText(item); msg != "" {
				return msg
			}
		}
	}
	return ""
}
