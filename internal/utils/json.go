package utils

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// Repairs for the syntax slips models make most often.
var (
	trailingCommaRegex = regexp.MustCompile(`,\s*([}\]])`)
	missingCommaRegex  = regexp.MustCompile(`("|\d|true|false|null|[}\]])\s*\n\s*("[\w][^"]*"\s*:)`)
	singleQuoteKey     = regexp.MustCompile(`([{,]\s*)'(\w+)'(\s*:)`)
)

// ExtractAndParseJSON pulls the first JSON value out of a model answer and
// decodes it into T. Code fences and trailing prose are ignored; a repaired
// copy is tried when the first decode fails.
func ExtractAndParseJSON[T any](response string) (T, error) {
	var result T

	cleaned := StripCodeFence(response)
	if cleaned == "" {
		return result, fmt.Errorf("no JSON found in response")
	}

	idx := strings.IndexAny(cleaned, "{[")
	if idx == -1 {
		var inner string
		if err := json.Unmarshal([]byte(cleaned), &inner); err == nil && inner != cleaned {
			return ExtractAndParseJSON[T](inner)
		}
		return result, fmt.Errorf("no JSON start ({ or [) found")
	}

	jsonPart := cleaned[idx:]
	err := json.NewDecoder(strings.NewReader(jsonPart)).Decode(&result)
	if err == nil {
		return result, nil
	}

	repaired := repairJSON(jsonPart)
	if repaired != jsonPart {
		var second T
		if err2 := json.NewDecoder(strings.NewReader(repaired)).Decode(&second); err2 == nil {
			return second, nil
		}
	}
	return result, fmt.Errorf("parse JSON: %w", err)
}

// StripCodeFence removes a surrounding markdown fence, if any.
func StripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```")
		if nl := strings.IndexByte(s, '\n'); nl >= 0 && !strings.ContainsAny(s[:nl], "{[") {
			s = s[nl+1:]
		}
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

func repairJSON(input string) string {
	out := escapeControlChars(input)
	out = missingCommaRegex.ReplaceAllString(out, `$1, $2`)
	out = trailingCommaRegex.ReplaceAllString(out, `$1`)
	out = singleQuoteKey.ReplaceAllString(out, `$1"$2"$3`)
	return closeTruncated(out)
}

// escapeControlChars escapes raw newlines and tabs that appear inside strings.
func escapeControlChars(input string) string {
	var sb strings.Builder
	sb.Grow(len(input))

	inString, escaped := false, false
	for i := 0; i < len(input); i++ {
		c := input[i]
		switch {
		case escaped:
			escaped = false
		case c == '\\' && inString:
			escaped = true
		case c == '"':
			inString = !inString
		case inString && c == '\n':
			sb.WriteString(`\n`)
			continue
		case inString && c == '\r':
			sb.WriteString(`\r`)
			continue
		case inString && c == '\t':
			sb.WriteString(`\t`)
			continue
		case inString && c < 0x20:
			fmt.Fprintf(&sb, `\u%04x`, c)
			continue
		}
		sb.WriteByte(c)
	}
	return sb.String()
}

// closeTruncated balances an answer that was cut off mid-value.
func closeTruncated(input string) string {
	quotes, escaped := 0, false
	for _, c := range input {
		switch {
		case escaped:
			escaped = false
		case c == '\\':
			escaped = true
		case c == '"':
			quotes++
		}
	}
	if quotes%2 != 0 {
		input += `"`
	}
	input += strings.Repeat("]", max(0, strings.Count(input, "[")-strings.Count(input, "]")))
	input += strings.Repeat("}", max(0, strings.Count(input, "{")-strings.Count(input, "}")))
	return input
}
