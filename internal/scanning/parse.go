package scanning

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrScanTimeout reports that the model call exceeded its deadline.
var ErrScanTimeout = errors.New("bill scan timed out")

// ExtractionError reports a model reply that could not be parsed into
// BillData. RawReply carries the full reply text so it can be shown to the
// user for manual inspection.
type ExtractionError struct {
	RawReply string
	Err      error
}

func (e *ExtractionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("extracting bill data from reply: %v", e.Err)
	}
	return "extracting bill data from reply: no JSON object found"
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// parseBillJSON parses the model's reply into BillData. Strict JSON is
// tried first; replies that wrap the JSON in prose or markdown fences fall
// back to the substring between the first '{' and the last '}'.
func parseBillJSON(reply string) (*BillData, error) {
	text := strings.TrimSpace(reply)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	text = strings.TrimSpace(text)

	var data BillData
	if err := json.Unmarshal([]byte(text), &data); err == nil {
		return &data, nil
	}

	startIdx := strings.Index(text, "{")
	endIdx := strings.LastIndex(text, "}")
	if startIdx == -1 || endIdx < startIdx {
		return nil, &ExtractionError{RawReply: reply}
	}

	if err := json.Unmarshal([]byte(text[startIdx:endIdx+1]), &data); err != nil {
		return nil, &ExtractionError{RawReply: reply, Err: err}
	}
	return &data, nil
}
