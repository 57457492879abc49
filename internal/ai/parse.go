package ai

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNoJSONArray       = errors.New("model response contains no JSON array")
	ErrAmbiguousJSON     = errors.New("model response contains more than one JSON array")
	ErrMalformedResponse = errors.New("model response is not a JSON array of strings")
)

// ParseSubtasks extracts the subtask list from free-form model output.
//
// Code fences are stripped first. Text that starts with [ is tried as a
// strict JSON array of strings; if that fails, exactly one top-level [...]
// region must be present in the text and is parsed on its own. Null
// elements are rejected.
func ParseSubtasks(raw string) ([]string, error) {
	text := strings.ReplaceAll(raw, "```json", "")
	text = strings.ReplaceAll(text, "```", "")
	text = strings.TrimSpace(text)

	if strings.HasPrefix(text, "[") {
		if steps, err := decodeStrings(text); err == nil {
			return steps, nil
		}
	}

	regions := topLevelArrays(text)
	switch len(regions) {
	case 0:
		return nil, ErrNoJSONArray
	case 1:
	default:
		return nil, fmt.Errorf("%w (%d found)", ErrAmbiguousJSON, len(regions))
	}

	return decodeStrings(regions[0])
}

func decodeStrings(region string) ([]string, error) {
	var items []*string
	if err := json.Unmarshal([]byte(region), &items); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if items == nil {
		return nil, ErrMalformedResponse
	}

	steps := make([]string, len(items))
	for i, item := range items {
		if item == nil {
			return nil, fmt.Errorf("%w: element %d is null", ErrMalformedResponse, i)
		}
		steps[i] = *item
	}
	return steps, nil
}

// topLevelArrays returns every balanced [...] region that is not nested in
// another one. Brackets inside JSON strings are ignored once an array is open.
func topLevelArrays(s string) []string {
	var (
		out      []string
		depth    int
		start    = -1
		inString bool
		escaped  bool
	)

	for i := 0; i < len(s); i++ {
		ch := s[i]

		if depth > 0 && inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}

		switch ch {
		case '"':
			if depth > 0 {
				inString = true
			}
		case '[':
			if depth == 0 {
				start = i
			}
			depth++
		case ']':
			if depth == 0 {
				continue
			}
			depth--
			if depth == 0 {
				out = append(out, s[start:i+1])
				start = -1
			}
		}
	}

	return out
}
