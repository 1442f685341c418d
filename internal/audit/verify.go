package audit

import (
	"encoding/json"
	"errors"
	"fmt"
)

// VerifyResult is the outcome of walking a journal's hash chain.
type VerifyResult struct {
	Valid     bool           `json:"valid"`
	Lines     int            `json:"lines"`
	Events    map[string]int `json:"events,omitempty"`
	Error     string         `json:"error,omitempty"`
	ErrorLine int            `json:"error_line,omitempty"`
}

// Verify checks that every entry links to the hash of the line before it,
// starting from GenesisHash. The first broken line is reported.
func Verify(path string) VerifyResult {
	res := VerifyResult{Events: make(map[string]int)}
	want := GenesisHash

	err := eachLine(path, func(n int, line []byte) error {
		var entry Entry
		if err := json.Unmarshal(line, &entry); err != nil {
			return &lineError{line: n, msg: fmt.Sprintf("parse error: %v", err)}
		}
		if entry.PrevHash != want {
			if n == 1 {
				return &lineError{line: n, msg: fmt.Sprintf("first entry prev_hash is %q, expected genesis hash", entry.PrevHash)}
			}
			return &lineError{line: n, msg: fmt.Sprintf("hash mismatch: expected %s, got %s", want, entry.PrevHash)}
		}
		want = HashLine(line)
		res.Lines = n
		res.Events[entry.Event]++
		return nil
	})

	var le *lineError
	switch {
	case errors.As(err, &le):
		return VerifyResult{Error: le.msg, ErrorLine: le.line}
	case err != nil:
		return VerifyResult{Error: fmt.Sprintf("read journal: %v", err)}
	}
	res.Valid = true
	if len(res.Events) == 0 {
		res.Events = nil
	}
	return res
}
