package client

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/ppiankov/contentguard/internal/classify"
	"github.com/ppiankov/contentguard/internal/model"
	"github.com/ppiankov/contentguard/internal/server"
)

// StageUnreachable marks a block produced because the server could not be
// asked.
const StageUnreachable classify.Stage = "unreachable"

const callTimeout = 5 * time.Second

// Client connects to a contentguard protection server.
type Client struct {
	conn *grpc.ClientConn
}

// New creates a client for addr. The connection is lazy: an unreachable
// server surfaces on the first call.
func New(addr string) (*Client, error) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("client: connect to protection server: %w", err)
	}
	return &Client{conn: conn}, nil
}

// CheckURL asks the server to classify url, recording a block when log is
// set. Fail-closed: any RPC error yields a block.
func (c *Client) CheckURL(ctx context.Context, url string, log bool) classify.Result {
	out, err := c.call(ctx, server.MethodCheckURL, map[string]any{"url": url, "log": log})
	if err != nil {
		return unreachable(err)
	}
	return server.ResultFrom(out)
}

// CheckText asks the server to scan text. Fail-closed like CheckURL.
func (c *Client) CheckText(ctx context.Context, text string, log bool) classify.Result {
	out, err := c.call(ctx, server.MethodCheckText, map[string]any{"text": text, "log": log})
	if err != nil {
		return unreachable(err)
	}
	return server.ResultFrom(out)
}

// LogBlocked records a block on the server and returns the stored attempt.
func (c *Client) LogBlocked(ctx context.Context, url, keyword, reason string) (model.BlockedAttempt, error) {
	out, err := c.call(ctx, server.MethodLogBlocked, map[string]any{
		"url":     url,
		"keyword": keyword,
		"reason":  reason,
	})
	if err != nil {
		return model.BlockedAttempt{}, err
	}
	ts, _ := time.Parse("2006-01-02T15:04:05.000Z", server.String(out, "timestamp"))
	return model.BlockedAttempt{
		ID:              server.String(out, "id"),
		Timestamp:       ts,
		URL:             server.String(out, "url"),
		Keyword:         server.String(out, "keyword"),
		Reason:          server.String(out, "reason"),
		ProtectionLevel: model.ProtectionLevel(server.String(out, "protection_level")),
	}, nil
}

// Status returns the settings the server enforces.
func (c *Client) Status(ctx context.Context) (server.Status, error) {
	out, err := c.call(ctx, server.MethodStatus, nil)
	if err != nil {
		return server.Status{}, err
	}
	return server.StatusFrom(out), nil
}

// SetLevel changes the level on the server. pin is required for downgrades
// when a PIN is set.
func (c *Client) SetLevel(ctx context.Context, level model.ProtectionLevel, pin string) (server.Status, error) {
	out, err := c.call(ctx, server.MethodSetLevel, map[string]any{"level": string(level), "pin": pin})
	if err != nil {
		return server.Status{}, err
	}
	return server.StatusFrom(out), nil
}

// Close closes the connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

func (c *Client) call(ctx context.Context, method string, in map[string]any) (*structpb.Struct, error) {
	ctx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()

	req, err := structpb.NewStruct(in)
	if err != nil {
		return nil, fmt.Errorf("client: encode %s: %w", method, err)
	}
	out := new(structpb.Struct)
	if err := c.conn.Invoke(ctx, server.FullMethod(method), req, out); err != nil {
		return nil, err
	}
	return out, nil
}

func unreachable(err error) classify.Result {
	return classify.Result{
		Blocked: true,
		Reason:  fmt.Sprintf("protection server unreachable: %v", err),
		Stage:   StageUnreachable,
	}
}
