package ai

import (
	"encoding/json"
	"errors"
	"regexp"
	"strconv"
	"strings"

	"hallyu-journalist/internal/failure"
)

var (
	thinkRe = regexp.MustCompile(`(?is)<think>.*?</think>`)
	fenceRe = regexp.MustCompile("(?s)```(?:json|JSON)?\\s*(.*?)```")
)

// ExtractJSON recovers a JSON object or array from model output that may
// carry reasoning blocks, markdown fences or surrounding prose.
func ExtractJSON(raw string) (string, error) {
	s := thinkRe.ReplaceAllString(raw, "")
	// An unterminated reasoning block swallows everything before the answer.
	if i := strings.LastIndex(strings.ToLower(s), "</think>"); i >= 0 {
		s = s[i+len("</think>"):]
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return "", failure.Malformed("ai: extract json", errors.New("empty response"))
	}
	if json.Valid([]byte(s)) {
		return s, nil
	}
	for _, m := range fenceRe.FindAllStringSubmatch(s, -1) {
		inner := strings.TrimSpace(m[1])
		if json.Valid([]byte(inner)) {
			return inner, nil
		}
		if out, ok := outermost(inner); ok {
			return out, nil
		}
	}
	if out, ok := outermost(s); ok {
		return out, nil
	}
	return "", failure.Malformed("ai: extract json", errors.New("no JSON value found"))
}

// outermost scans for the first balanced {...} or [...] that parses.
func outermost(s string) (string, bool) {
	for start := 0; start < len(s); start++ {
		if s[start] != '{' && s[start] != '[' {
			continue
		}
		if end, ok := matchClose(s, start); ok {
			cand := s[start : end+1]
			if json.Valid([]byte(cand)) {
				return cand, true
			}
		}
	}
	return "", false
}

func matchClose(s string, start int) (int, bool) {
	depth := 0
	inStr := false
	esc := false
	for i := start; i < len(s); i++ {
		ch := s[i]
		if inStr {
			switch {
			case esc:
				esc = false
			case ch == '\\':
				esc = true
			case ch == '"':
				inStr = false
			}
			continue
		}
		switch ch {
		case '"':
			inStr = true
		case '{', '[':
			depth++
		case '}', ']':
			depth--
			if depth == 0 {
				return i, true
			}
		}
	}
	return 0, false
}

// DecodeJSON extracts and unmarshals model output into v.
func DecodeJSON(raw string, v any) error {
	s, err := ExtractJSON(raw)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(s), v); err != nil {
		return failure.Malformed("ai: decode json", err)
	}
	return nil
}

// Number accepts a JSON number or a numeric string; models emit both.
type Number float64

func (n *Number) UnmarshalJSON(b []byte) error {
	s := strings.Trim(strings.TrimSpace(string(b)), `"`)
	if s == "" || s == "null" {
		*n = 0
		return nil
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return err
	}
	*n = Number(f)
	return nil
}
