package adverity

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	jmespath "github.com/jmespath-community/go-jmespath"
)

// Evaluator abstracts JMESPath evaluation for testability.
type Evaluator interface {
	Evaluate(expr string, data any) (any, error)
}

type jmespathEvaluator struct{}

func (jmespathEvaluator) Evaluate(expr string, data any) (any, error) {
	return jmespath.Search(expr, data)
}

// Extraction strategies are tried in order; the first non-empty match wins.
var (
	jobIDStrategies       = []string{"jobs[0].id", "id", "job_id"}
	statusLabelStrategies = []string{"status", "state_label"}
)

const operationTimeoutMarker = "operation_timeout"

// DecodeDocument decodes a vendor response body. Numbers stay json.Number so large
// numeric job ids keep every digit.
func DecodeDocument(raw []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// ExtractJobID returns the first job id found in a decoded trigger response.
// String and numeric ids are accepted.
func ExtractJobID(doc any) string {
	return extractJobID(jmespathEvaluator{}, doc)
}

func extractJobID(ev Evaluator, doc any) string {
	for _, expr := range jobIDStrategies {
		v, err := ev.Evaluate(expr, doc)
		if err != nil {
			continue
		}
		if id := scalarString(v); id != "" {
			return id
		}
	}
	return ""
}

// ExtractStatusLabel returns the normalised vendor state label of a decoded status response.
func ExtractStatusLabel(doc any) string {
	return extractStatusLabel(jmespathEvaluator{}, doc)
}

func extractStatusLabel(ev Evaluator, doc any) string {
	for _, expr := range statusLabelStrategies {
		v, err := ev.Evaluate(expr, doc)
		if err != nil {
			continue
		}
		s, ok := v.(string)
		if !ok {
			continue
		}
		if label := strings.ToLower(strings.TrimSpace(s)); label != "" {
			return label
		}
	}
	return ""
}

// hasOperationTimeout reports whether the vendor flagged a soft timeout,
// either as a top-level key or anywhere in the raw body.
func hasOperationTimeout(doc any, raw []byte) bool {
	if m, ok := doc.(map[string]any); ok {
		if _, found := m[operationTimeoutMarker]; found {
			return true
		}
	}
	return strings.Contains(string(raw), operationTimeoutMarker)
}

func scalarString(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case json.Number:
		return t.String()
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	default:
		return ""
	}
}
