package mcp

import (
	"context"
	"fmt"
	"time"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/ppiankov/contentguard/internal/audit"
	"github.com/ppiankov/contentguard/internal/classify"
	"github.com/ppiankov/contentguard/internal/server"
)

// CheckURLInput defines parameters for contentguard_check_url.
type CheckURLInput struct {
	URL string `json:"url" jsonschema:"URL to classify"`
	Log bool   `json:"log,omitempty" jsonschema:"record the attempt when blocked"`
}

// CheckTextInput defines parameters for contentguard_check_text.
type CheckTextInput struct {
	Text string `json:"text" jsonschema:"text to scan for blocked keywords"`
	Log  bool   `json:"log,omitempty" jsonschema:"record the matched keyword when blocked"`
}

// CheckOutput is the classification result.
type CheckOutput struct {
	Blocked        bool   `json:"blocked"`
	Reason         string `json:"reason,omitempty"`
	MatchedKeyword string `json:"matched_keyword,omitempty"`
	Stage          string `json:"stage,omitempty"`
	Logged         bool   `json:"logged,omitempty"`
}

// StatusInput takes no parameters.
type StatusInput struct{}

// HistoryInput defines parameters for contentguard_history.
type HistoryInput struct {
	Window string `json:"window,omitempty" jsonschema:"all, today or week (default all)"`
	Limit  int    `json:"limit,omitempty" jsonschema:"maximum entries to return"`
}

// HistoryOutput lists blocked attempts.
type HistoryOutput struct {
	Total    int           `json:"total"`
	Attempts []HistoryItem `json:"attempts"`
}

// HistoryItem is one blocked attempt.
type HistoryItem struct {
	ID        string `json:"id"`
	Timestamp string `json:"timestamp"`
	Kind      string `json:"kind"`
	Content   string `json:"content"`
	Reason    string `json:"reason"`
	Level     string `json:"protection_level"`
}

func (s *Server) handleCheckURL(ctx context.Context, req *mcpsdk.CallToolRequest, input CheckURLInput) (*mcpsdk.CallToolResult, CheckOutput, error) {
	if input.URL == "" {
		return nil, CheckOutput{}, fmt.Errorf("url is required")
	}
	if !input.Log {
		return nil, checkOutput(s.store.CheckURL(input.URL), false), nil
	}
	r, err := s.store.Guard(ctx, input.URL)
	if err != nil {
		s.logger.Warn("block not recorded", "url", input.URL, "error", err)
	}
	return nil, checkOutput(r, r.Blocked && err == nil), nil
}

func (s *Server) handleCheckText(ctx context.Context, req *mcpsdk.CallToolRequest, input CheckTextInput) (*mcpsdk.CallToolResult, CheckOutput, error) {
	if !input.Log {
		return nil, checkOutput(s.store.CheckText(input.Text), false), nil
	}
	r, err := s.store.GuardText(ctx, input.Text)
	if err != nil {
		s.logger.Warn("block not recorded", "error", err)
	}
	return nil, checkOutput(r, r.Blocked && err == nil), nil
}

func (s *Server) handleStatus(ctx context.Context, req *mcpsdk.CallToolRequest, input StatusInput) (*mcpsdk.CallToolResult, server.Status, error) {
	return nil, server.StatusOf(s.store.Settings()), nil
}

func (s *Server) handleHistory(ctx context.Context, req *mcpsdk.CallToolRequest, input HistoryInput) (*mcpsdk.CallToolResult, HistoryOutput, error) {
	window, err := audit.ParseWindow(input.Window)
	if err != nil {
		return nil, HistoryOutput{}, err
	}
	history := audit.FilterByWindow(s.store.Settings().BlockHistory, window, time.Now())

	out := HistoryOutput{Total: len(history), Attempts: []HistoryItem{}}
	for i, a := range history {
		if input.Limit > 0 && i >= input.Limit {
			break
		}
		out.Attempts = append(out.Attempts, HistoryItem{
			ID:        a.ID,
			Timestamp: a.Timestamp.UTC().Format(audit.TimestampFormat),
			Kind:      a.Kind(),
			Content:   a.Content(),
			Reason:    a.Reason,
			Level:     string(a.ProtectionLevel),
		})
	}
	return nil, out, nil
}

func checkOutput(r classify.Result, logged bool) CheckOutput {
	return CheckOutput{
		Blocked:        r.Blocked,
		Reason:         r.Reason,
		MatchedKeyword: r.MatchedKeyword,
		Stage:          string(r.Stage),
		Logged:         logged,
	}
}
