package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/neilberkman/lectern/internal/core/models"
)

var fencedJSON = regexp.MustCompile("(?s)```(?:json)?\\s*(\\{.*?\\})\\s*```")

// insightKeys lists accepted spellings for each insight field
var insightKeys = map[string][]string{
	"most_important": {"most_important", "mostImportant", "key_points", "important"},
	"small_details":  {"small_details", "smallDetails", "details"},
	"action_items":   {"action_items", "actionItems", "todo", "todos"},
	"questions":      {"questions", "open_questions", "openQuestions"},
}

// ParseInsights decodes a model response into Insights. It accepts the raw
// object, a fenced ```json block, or the outermost {...} in the text.
// List values become "- " bullet lines.
func ParseInsights(text string) (*models.Insights, error) {
	raw, err := decodeObject(text)
	if err != nil {
		return nil, err
	}

	field := func(name string) string {
		for _, k := range insightKeys[name] {
			if v, ok := raw[k]; ok {
				return flatten(v)
			}
		}
		return ""
	}

	ins := &models.Insights{
		MostImportant: field("most_important"),
		SmallDetails:  field("small_details"),
		ActionItems:   field("action_items"),
		Questions:     field("questions"),
	}
	if ins.Empty() {
		return nil, errors.New("insights response has no recognised fields")
	}
	return ins, nil
}

func decodeObject(text string) (map[string]interface{}, error) {
	text = strings.TrimSpace(text)
	candidates := []string{text}
	if m := fencedJSON.FindStringSubmatch(text); m != nil {
		candidates = append(candidates, m[1])
	}
	if start, end := strings.Index(text, "{"), strings.LastIndex(text, "}"); start >= 0 && end > start {
		candidates = append(candidates, text[start:end+1])
	}

	var lastErr error
	for _, c := range candidates {
		var out map[string]interface{}
		if err := json.Unmarshal([]byte(c), &out); err != nil {
			lastErr = err
			continue
		}
		return out, nil
	}
	if lastErr == nil {
		lastErr = errors.New("empty response")
	}
	return nil, fmt.Errorf("parse insights: %w", lastErr)
}

func flatten(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case []interface{}:
		var lines []string
		for _, item := range t {
			if s := flatten(item); s != "" {
				lines = append(lines, "- "+s)
			}
		}
		return strings.Join(lines, "\n")
	case map[string]interface{}:
		b, _ := json.Marshal(t)
		return string(b)
	default:
		return strings.TrimSpace(fmt.Sprint(t))
	}
}
