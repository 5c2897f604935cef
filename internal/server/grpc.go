package server

import (
	"fmt"
	"net"

	"go.uber.org/zap"
	"google.golang.org/grpc"
)

// GRPCService serves a grpc.Server on a TCP address as a lifecycle Service.
type GRPCService struct {
	addr   string
	srv    *grpc.Server
	logger *zap.Logger

	lis net.Listener
}

// NewGRPCService binds addr immediately so that callers learn about port
// conflicts before Run.
//
// Precondition: srv and logger must be non-nil.
func NewGRPCService(addr string, srv *grpc.Server, logger *zap.Logger) (*GRPCService, error) {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listening on %s: %w", addr, err)
	}
	return &GRPCService{addr: addr, srv: srv, logger: logger, lis: lis}, nil
}

// Addr returns the bound listen address, useful when addr used port 0.
func (g *GRPCService) Addr() string { return g.lis.Addr().String() }

// Start serves until Stop is called.
func (g *GRPCService) Start() error {
	g.logger.Info("grpc listening", zap.String("addr", g.Addr()))
	if err := g.srv.Serve(g.lis); err != nil && err != grpc.ErrServerStopped {
		return err
	}
	return nil
}

// Stop drains in-flight RPCs and stops the server.
func (g *GRPCService) Stop() { g.srv.GracefulStop() }
