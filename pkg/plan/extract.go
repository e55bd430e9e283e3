package plan

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// ErrNoPlan is returned when no subgoal lines can be found in agent output.
var ErrNoPlan = errors.New("no subgoal plan found in output")

// outputKeys are the object keys that may hold the subgoal list, in order of
// preference.
var outputKeys = []string{"output", "subgoals", "plan"}

var (
	fencePattern      = regexp.MustCompile("(?s)```(?:json|JSON)?\\s*(.*?)```")
	halfOutputPattern = regexp.MustCompile(`(?s)"(?:output|subgoals|plan)"\s*:\s*\[(.*?)\]`)
	stringLitPattern  = regexp.MustCompile(`"((?:[^"\\]|\\.)*)"`)
	bulletPattern     = regexp.MustCompile(`^\s*(?:[-*•]|\d+[.)])\s+`)
)

// ExtractLines pulls the subgoal lines out of raw agent output. Well-formed
// JSON (an object with an "output" list, or a bare list) is preferred; then
// a half-JSON scan for the "output" list; then plain text, one subgoal per
// line.
func ExtractLines(raw string) ([]string, error) {
	text := strings.TrimSpace(raw)
	if m := fencePattern.FindStringSubmatch(text); m != nil {
		text = strings.TrimSpace(m[1])
	}
	if text == "" {
		return nil, ErrNoPlan
	}

	if obj, ok := jsonObject(text); ok {
		lines, err := fromJSONObject(obj)
		if err != nil {
			return nil, err
		}
		return nonEmpty(lines)
	}
	if lines, ok := fromJSONArray(text); ok {
		return nonEmpty(lines)
	}
	if lines, ok := fromHalfJSON(text); ok {
		return nonEmpty(lines)
	}
	if strings.HasPrefix(text, "{") || strings.HasPrefix(text, "[") {
		return nil, ErrNoPlan
	}
	return nonEmpty(fromText(text))
}

func jsonObject(text string) (map[string]json.RawMessage, bool) {
	start, end := strings.Index(text, "{"), strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return nil, false
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal([]byte(text[start:end+1]), &obj); err != nil {
		return nil, false
	}
	return obj, true
}

// fromJSONObject reads the subgoal list of a parsed object. Other arrays in
// the object are never taken for the plan.
func fromJSONObject(obj map[string]json.RawMessage) ([]string, error) {
	for _, key := range outputKeys {
		rawList, ok := obj[key]
		if !ok {
			continue
		}
		var lines []string
		if err := json.Unmarshal(rawList, &lines); err != nil {
			return nil, fmt.Errorf("%w: %q is not a list of strings", ErrNoPlan, key)
		}
		return lines, nil
	}
	return nil, ErrNoPlan
}

func fromJSONArray(text string) ([]string, bool) {
	start, end := strings.Index(text, "["), strings.LastIndex(text, "]")
	if start < 0 || end <= start {
		return nil, false
	}
	var lines []string
	if err := json.Unmarshal([]byte(text[start:end+1]), &lines); err != nil {
		return nil, false
	}
	return lines, true
}

// fromHalfJSON recovers the subgoal list from output that looks like JSON
// but does not parse, e.g. with trailing commas or unquoted keys elsewhere.
func fromHalfJSON(text string) ([]string, bool) {
	m := halfOutputPattern.FindStringSubmatch(text)
	if m == nil {
		return nil, false
	}
	var lines []string
	for _, lit := range stringLitPattern.FindAllStringSubmatch(m[1], -1) {
		s, err := strconv.Unquote(`"` + lit[1] + `"`)
		if err != nil {
			s = lit[1]
		}
		lines = append(lines, s)
	}
	return lines, true
}

func fromText(text string) []string {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		lines = append(lines, bulletPattern.ReplaceAllString(line, ""))
	}
	return lines
}

func nonEmpty(lines []string) ([]string, error) {
	out := make([]string, 0, len(lines))
	for _, l := range lines {
		if l = strings.TrimSpace(l); l != "" {
			out = append(out, l)
		}
	}
	if len(out) == 0 {
		return nil, ErrNoPlan
	}
	return out, nil
}
