package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/ppiankov/contentguard/internal/classify"
	"github.com/ppiankov/contentguard/internal/denylist"
	"github.com/ppiankov/contentguard/internal/gate"
	"github.com/ppiankov/contentguard/internal/model"
	"github.com/ppiankov/contentguard/internal/settings"
)

// Config holds gRPC server configuration.
type Config struct {
	Addr         string
	DenylistPath string
}

// Server serves ProtectionService over gRPC against a settings store.
type Server struct {
	store      *settings.Store
	cfg        Config
	logger     *slog.Logger
	grpcServer *grpc.Server
}

// New creates a server for store. The lattice is loaded from
// cfg.DenylistPath so a reload sees the same file.
func New(store *settings.Store, cfg Config, logger *slog.Logger) (*Server, error) {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{store: store, cfg: cfg, logger: logger}

	if err := s.loadDenylist(); err != nil {
		return nil, err
	}

	s.grpcServer = grpc.NewServer(grpc.UnaryInterceptor(s.logCalls))
	s.grpcServer.RegisterService(&ServiceDesc, s)
	return s, nil
}

// Serve listens on the configured address. Blocks until stopped.
func (s *Server) Serve() error {
	lis, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("server: listen on %s: %w", s.cfg.Addr, err)
	}
	return s.grpcServer.Serve(lis)
}

// ServeOn serves on an existing listener.
func (s *Server) ServeOn(lis net.Listener) error {
	return s.grpcServer.Serve(lis)
}

// GracefulStop waits for in-flight calls and stops the server.
func (s *Server) GracefulStop() {
	s.grpcServer.GracefulStop()
	s.store.Wait()
}

// Reload re-reads the denylist and the settings document. Called by the
// Reloader when either file changes.
func (s *Server) Reload() error {
	if err := s.loadDenylist(); err != nil {
		return err
	}
	if err := s.store.Refresh(); err != nil {
		return fmt.Errorf("server: refresh settings: %w", err)
	}
	return nil
}

func (s *Server) loadDenylist() error {
	lat, err := denylist.Load(s.cfg.DenylistPath)
	if err != nil {
		return fmt.Errorf("server: load denylist: %w", err)
	}
	s.store.SetClassifier(classify.New(lat))
	return nil
}

// CheckURL classifies {url}. With {log: true} a block is also recorded.
func (s *Server) CheckURL(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	url := String(req, "url")
	if url == "" {
		return nil, status.Error(codes.InvalidArgument, "url is required")
	}
	var r classify.Result
	if Bool(req, "log") {
		var err error
		if r, err = s.store.Guard(ctx, url); err != nil {
			s.logger.Warn("block not recorded", "url", url, "error", err)
		}
	} else {
		r = s.store.CheckURL(url)
	}
	return ResultStruct(r)
}

// CheckText scans {text}. With {log: true} a block is also recorded.
func (s *Server) CheckText(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	text := String(req, "text")
	var r classify.Result
	if Bool(req, "log") {
		var err error
		if r, err = s.store.GuardText(ctx, text); err != nil {
			s.logger.Warn("block not recorded", "error", err)
		}
	} else {
		r = s.store.CheckText(text)
	}
	return ResultStruct(r)
}

// LogBlocked records {url | keyword, reason} in the block history.
func (s *Server) LogBlocked(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	at, err := s.store.LogBlockedAttempt(ctx, String(req, "url"), String(req, "keyword"), String(req, "reason"))
	if err != nil {
		return nil, toStatus(err)
	}
	return AttemptStruct(at)
}

// Status reports the enforced settings.
func (s *Server) Status(_ context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	return StatusStruct(StatusOf(s.store.Settings()))
}

// SetLevel commits {level, pin}. Guarded changes need the PIN in the same
// call; there is no pending state across RPCs.
func (s *Server) SetLevel(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	level, err := model.ParseLevel(String(req, "level"))
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	if err := s.store.Commit(ctx, settings.SetLevel(level), String(req, "pin")); err != nil {
		return nil, toStatus(err)
	}
	return StatusStruct(StatusOf(s.store.Settings()))
}

func toStatus(err error) error {
	switch {
	case errors.Is(err, gate.ErrPinRequired), errors.Is(err, gate.ErrIncorrectPin):
		return status.Error(codes.PermissionDenied, err.Error())
	case errors.Is(err, settings.ErrInvalidInput), errors.Is(err, gate.ErrInvalidPin):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}

func (s *Server) logCalls(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	start := time.Now()
	resp, err := handler(ctx, req)
	s.logger.Debug("rpc",
		"method", info.FullMethod,
		"duration", time.Since(start),
		"code", status.Code(err).String(),
	)
	return resp, err
}
