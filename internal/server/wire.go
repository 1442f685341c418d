package server

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/ppiankov/contentguard/internal/classify"
	"github.com/ppiankov/contentguard/internal/model"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "contentguard.v1.ProtectionService"

// Method names of ProtectionService.
const (
	MethodCheckURL   = "CheckURL"
	MethodCheckText  = "CheckText"
	MethodLogBlocked = "LogBlocked"
	MethodStatus     = "Status"
	MethodSetLevel   = "SetLevel"
)

// FullMethod returns the path a client invokes for method.
func FullMethod(method string) string {
	return "/" + ServiceName + "/" + method
}

// ProtectionServer is implemented by the gRPC service. Every method takes
// and returns a structpb.Struct.
type ProtectionServer interface {
	CheckURL(context.Context, *structpb.Struct) (*structpb.Struct, error)
	CheckText(context.Context, *structpb.Struct) (*structpb.Struct, error)
	LogBlocked(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Status(context.Context, *structpb.Struct) (*structpb.Struct, error)
	SetLevel(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type call func(ProtectionServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

// ServiceDesc registers ProtectionServer with a grpc.Server.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*ProtectionServer)(nil),
	Methods: []grpc.MethodDesc{
		unary(MethodCheckURL, ProtectionServer.CheckURL),
		unary(MethodCheckText, ProtectionServer.CheckText),
		unary(MethodLogBlocked, ProtectionServer.LogBlocked),
		unary(MethodStatus, ProtectionServer.Status),
		unary(MethodSetLevel, ProtectionServer.SetLevel),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "contentguard/v1/protection.proto",
}

func unary(method string, fn call) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: method,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return fn(srv.(ProtectionServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: FullMethod(method)}
			handler := func(ctx context.Context, req any) (any, error) {
				return fn(srv.(ProtectionServer), ctx, req.(*structpb.Struct))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

// Status summarizes the settings a server enforces. The PIN itself is never
// sent, only whether one is set.
type Status struct {
	Enabled        bool   `json:"enabled"`
	Level          string `json:"protection_level"`
	Vital          bool   `json:"vital_blocking_enabled"`
	HasPin         bool   `json:"has_pin"`
	CustomDomains  int    `json:"custom_domains"`
	CustomKeywords int    `json:"custom_keywords"`
	HistoryCount   int    `json:"history_count"`
	LastModified   string `json:"last_modified"`
}

// StatusOf builds a Status from settings.
func StatusOf(s model.Settings) Status {
	return Status{
		Enabled:        s.Enabled,
		Level:          string(s.ProtectionLevel),
		Vital:          s.VitalBlockingEnabled,
		HasPin:         s.HasPin(),
		CustomDomains:  len(s.CustomBlockedDomains),
		CustomKeywords: len(s.CustomBlockedKeywords),
		HistoryCount:   len(s.BlockHistory),
		LastModified:   s.LastModified.UTC().Format("2006-01-02T15:04:05.000Z"),
	}
}

// StatusStruct encodes st for the wire.
func StatusStruct(st Status) (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]any{
		"enabled":                st.Enabled,
		"protection_level":       st.Level,
		"vital_blocking_enabled": st.Vital,
		"has_pin":                st.HasPin,
		"custom_domains":         st.CustomDomains,
		"custom_keywords":        st.CustomKeywords,
		"history_count":          st.HistoryCount,
		"last_modified":          st.LastModified,
	})
}

// StatusFrom decodes a Status. Missing fields are zero.
func StatusFrom(s *structpb.Struct) Status {
	return Status{
		Enabled:        Bool(s, "enabled"),
		Level:          String(s, "protection_level"),
		Vital:          Bool(s, "vital_blocking_enabled"),
		HasPin:         Bool(s, "has_pin"),
		CustomDomains:  Int(s, "custom_domains"),
		CustomKeywords: Int(s, "custom_keywords"),
		HistoryCount:   Int(s, "history_count"),
		LastModified:   String(s, "last_modified"),
	}
}

// ResultStruct encodes a classification result for the wire.
func ResultStruct(r classify.Result) (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]any{
		"blocked":         r.Blocked,
		"reason":          r.Reason,
		"matched_keyword": r.MatchedKeyword,
		"stage":           string(r.Stage),
	})
}

// ResultFrom decodes a classification result.
func ResultFrom(s *structpb.Struct) classify.Result {
	return classify.Result{
		Blocked:        Bool(s, "blocked"),
		Reason:         String(s, "reason"),
		MatchedKeyword: String(s, "matched_keyword"),
		Stage:          classify.Stage(String(s, "stage")),
	}
}

// AttemptStruct encodes a logged attempt for the wire.
func AttemptStruct(a model.BlockedAttempt) (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]any{
		"id":               a.ID,
		"timestamp":        a.Timestamp.UTC().Format("2006-01-02T15:04:05.000Z"),
		"url":              a.URL,
		"keyword":          a.Keyword,
		"reason":           a.Reason,
		"protection_level": string(a.ProtectionLevel),
	})
}

// String returns the string field key of s, or "".
func String(s *structpb.Struct, key string) string {
	return s.GetFields()[key].GetStringValue()
}

// Bool returns the bool field key of s, or false.
func Bool(s *structpb.Struct, key string) bool {
	return s.GetFields()[key].GetBoolValue()
}

// Int returns the numeric field key of s truncated to int, or 0.
func Int(s *structpb.Struct, key string) int {
	return int(s.GetFields()[key].GetNumberValue())
}
