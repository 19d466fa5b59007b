package batch

import (
	"encoding/json"
	"fmt"
)

// Result is the outcome of one item in a batch operation.
type Result struct {
	ID     string `json:"id"`
	Status string `json:"status"` // "success" or "error"
	Result string `json:"result,omitempty"`
	Error  string `json:"error,omitempty"`
}

// BatchResult aggregates the per-item outcomes of a batch operation.
type BatchResult struct {
	Total      int      `json:"total"`
	Successful int      `json:"successful"`
	Failed     int      `json:"failed"`
	Results    []Result `json:"results"`
}

// JSON renders the batch result as indented JSON for tool output.
func (br BatchResult) JSON() string {
	out, _ := json.MarshalIndent(br, "", "  ")
	return string(out)
}

// ParseStringOrArray accepts a tool argument that may be a single string or
// an array of strings and normalizes it to a non-empty slice.
func ParseStringOrArray(param any, paramName string) ([]string, error) {
	if param == nil {
		return nil, fmt.Errorf("%s is required", paramName)
	}

	switch v := param.(type) {
	case string:
		if v == "" {
			return nil, fmt.Errorf("%s cannot be empty", paramName)
		}
		return []string{v}, nil
	case []any:
		if len(v) == 0 {
			return nil, fmt.Errorf("%s cannot be empty", paramName)
		}
		items := make([]string, 0, len(v))
		for i, item := range v {
			str, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("%s[%d] must be a string", paramName, i)
			}
			if str == "" {
				return nil, fmt.Errorf("%s[%d] cannot be empty", paramName, i)
			}
			items = append(items, str)
		}
		return items, nil
	default:
		return nil, fmt.Errorf("%s must be a string or array of strings", paramName)
	}
}

// Run executes fn for every id, collecting per-item success or failure. One
// failing item never aborts the rest of the batch.
func Run(ids []string, fn func(id string) (string, error)) BatchResult {
	br := BatchResult{Total: len(ids), Results: make([]Result, 0, len(ids))}
	for _, id := range ids {
		res, err := fn(id)
		if err != nil {
			br.Failed++
			br.Results = append(br.Results, Result{ID: id, Status: "error", Error: err.Error()})
			continue
		}
		br.Successful++
		br.Results = append(br.Results, Result{ID: id, Status: "success", Result: res})
	}
	return br
}
