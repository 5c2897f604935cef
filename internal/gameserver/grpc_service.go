package gameserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/cory-johannsen/buttonmen/internal/game/engine"
	"github.com/cory-johannsen/buttonmen/internal/gameserver/gamev1"
	"github.com/cory-johannsen/buttonmen/internal/storage"
)

// ServiceName is the fully-qualified gRPC service name.
var ServiceName = gamev1.GameService_ServiceDesc.ServiceName

// GRPCServer implements gamev1.GameServiceServer over a Service. Every
// request and response body is a google.protobuf.Struct holding the JSON
// form of the corresponding Go request and response types.
type GRPCServer struct {
	gamev1.UnimplementedGameServiceServer

	svc    *Service
	logger *zap.Logger
}

var _ gamev1.GameServiceServer = (*GRPCServer)(nil)

// NewGRPCServer wraps svc.
//
// Precondition: svc and logger must be non-nil.
func NewGRPCServer(svc *Service, logger *zap.Logger) *GRPCServer {
	return &GRPCServer{svc: svc, logger: logger}
}

// Register adds the game service to s.
func (g *GRPCServer) Register(s grpc.ServiceRegistrar) {
	gamev1.RegisterGameServiceServer(s, g)
}

// GetGameRequest names the game and the viewer.
type GetGameRequest struct {
	GameID   string `json:"gameId"`
	PlayerID string `json:"playerId"`
}

// ListGamesRequest names the player whose games are listed.
type ListGamesRequest struct {
	PlayerID string `json:"playerId"`
}

// GameSummary is one entry of a ListGames response.
type GameSummary struct {
	GameID         string   `json:"gameId"`
	Status         string   `json:"status"`
	State          string   `json:"state"`
	PlayerIDs      []string `json:"playerIds"`
	LastActionTime string   `json:"lastActionTime"`
}

// ButtonInfo is one entry of a ListButtons response.
type ButtonInfo struct {
	Name   string `json:"name"`
	Recipe string `json:"recipe"`
	Set    string `json:"set,omitempty"`
	Flavor string `json:"flavor,omitempty"`
}

type method func(g *GRPCServer, ctx context.Context, in *structpb.Struct) (any, error)

// unary adapts fn to decode its request body into Req.
func unary[Req any](fn func(g *GRPCServer, ctx context.Context, req Req) (any, error)) method {
	return func(g *GRPCServer, ctx context.Context, in *structpb.Struct) (any, error) {
		var req Req
		if err := decodeStruct(in, &req); err != nil {
			return nil, status.Errorf(codes.InvalidArgument, "decoding request: %v", err)
		}
		return fn(g, ctx, req)
	}
}

var methods = map[string]method{
	"CreateGame": unary(func(g *GRPCServer, ctx context.Context, req CreateGameRequest) (any, error) {
		return g.svc.CreateGame(ctx, req)
	}),
	"GetGame": unary(func(g *GRPCServer, ctx context.Context, req GetGameRequest) (any, error) {
		return g.svc.GetGame(ctx, req.GameID, req.PlayerID)
	}),
	"ListGames": unary(func(g *GRPCServer, ctx context.Context, req ListGamesRequest) (any, error) {
		sums, err := g.svc.ListGames(ctx, req.PlayerID)
		if err != nil {
			return nil, err
		}
		out := make([]GameSummary, len(sums))
		for i, s := range sums {
			out[i] = GameSummary{
				GameID:         s.ID,
				Status:         string(s.Status),
				State:          s.State.String(),
				PlayerIDs:      s.PlayerIDs,
				LastActionTime: s.LastActionTime.Format("2006-01-02T15:04:05.000000Z07:00"),
			}
		}
		return map[string]any{"games": out}, nil
	}),
	"ListButtons": unary(func(g *GRPCServer, ctx context.Context, _ struct{}) (any, error) {
		defs := g.svc.ListButtons()
		out := make([]ButtonInfo, len(defs))
		for i, d := range defs {
			out[i] = ButtonInfo{Name: d.Name, Recipe: d.Recipe, Set: d.Set, Flavor: d.Flavor}
		}
		return map[string]any{"buttons": out}, nil
	}),
	"ChooseButton": unary(func(g *GRPCServer, ctx context.Context, req ChooseButtonRequest) (any, error) {
		return g.svc.ChooseButton(ctx, req)
	}),
	"SubmitSwingValues": unary(func(g *GRPCServer, ctx context.Context, req SwingRequest) (any, error) {
		return g.svc.SubmitSwingValues(ctx, req)
	}),
	"SubmitTurn": unary(func(g *GRPCServer, ctx context.Context, req TurnRequest) (any, error) {
		return g.svc.SubmitTurn(ctx, req)
	}),
	"ReactToInitiative": unary(func(g *GRPCServer, ctx context.Context, req InitiativeRequest) (any, error) {
		return g.svc.ReactToInitiative(ctx, req)
	}),
	"ReactToAuxiliary": unary(func(g *GRPCServer, ctx context.Context, req AuxiliaryRequest) (any, error) {
		return g.svc.ReactToAuxiliary(ctx, req)
	}),
	"ReactToReserve": unary(func(g *GRPCServer, ctx context.Context, req ReserveRequest) (any, error) {
		return g.svc.ReactToReserve(ctx, req)
	}),
	"SetAutopass": unary(func(g *GRPCServer, ctx context.Context, req AutopassRequest) (any, error) {
		return g.svc.SetAutopass(ctx, req)
	}),
}

// CreateGame implements gamev1.GameServiceServer.
func (g *GRPCServer) CreateGame(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	return g.dispatch(ctx, "CreateGame", in)
}

func (g *GRPCServer) GetGame(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	return g.dispatch(ctx, "GetGame", in)
}

func (g *GRPCServer) ListGames(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	return g.dispatch(ctx, "ListGames", in)
}

func (g *GRPCServer) ListButtons(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	return g.dispatch(ctx, "ListButtons", in)
}

func (g *GRPCServer) ChooseButton(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	return g.dispatch(ctx, "ChooseButton", in)
}

func (g *GRPCServer) SubmitSwingValues(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	return g.dispatch(ctx, "SubmitSwingValues", in)
}

func (g *GRPCServer) SubmitTurn(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	return g.dispatch(ctx, "SubmitTurn", in)
}

func (g *GRPCServer) ReactToInitiative(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	return g.dispatch(ctx, "ReactToInitiative", in)
}

func (g *GRPCServer) ReactToAuxiliary(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	return g.dispatch(ctx, "ReactToAuxiliary", in)
}

func (g *GRPCServer) ReactToReserve(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	return g.dispatch(ctx, "ReactToReserve", in)
}

func (g *GRPCServer) SetAutopass(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	return g.dispatch(ctx, "SetAutopass", in)
}

func (g *GRPCServer) dispatch(ctx context.Context, name string, in *structpb.Struct) (*structpb.Struct, error) {
	m, ok := methods[name]
	if !ok {
		return nil, status.Errorf(codes.Unimplemented, "method %s not implemented", name)
	}
	resp, err := m(g, ctx, in)
	if err != nil {
		return nil, g.toStatus(name, err)
	}
	out, err := encodeStruct(resp)
	if err != nil {
		g.logger.Error("encoding response", zap.String("method", name), zap.Error(err))
		return nil, status.Error(codes.Internal, "encoding response")
	}
	return out, nil
}

// toStatus maps service and engine errors onto gRPC codes.
func (g *GRPCServer) toStatus(name string, err error) error {
	if _, ok := status.FromError(err); ok {
		return err
	}
	var ie *engine.InputError
	switch {
	case errors.As(err, &ie):
		return status.Error(codes.InvalidArgument, ie.Reason)
	case errors.Is(err, ErrBadRequest):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, storage.ErrGameNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, storage.ErrGameExists):
		return status.Error(codes.AlreadyExists, err.Error())
	case errors.Is(err, storage.ErrStaleGame), errors.Is(err, ErrActionNotCurrent):
		return status.Error(codes.Aborted, err.Error())
	case errors.Is(err, ErrNotParticipant):
		return status.Error(codes.PermissionDenied, err.Error())
	case errors.Is(err, ErrNotAwaited), errors.Is(err, engine.ErrWrongState):
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	}
	g.logger.Error("request failed", zap.String("method", name), zap.Error(err))
	return status.Error(codes.Internal, err.Error())
}

func decodeStruct(in *structpb.Struct, v any) error {
	raw, err := protojson.Marshal(in)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, v)
}

func encodeStruct(v any) (*structpb.Struct, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	out := &structpb.Struct{}
	if err := protojson.Unmarshal(raw, out); err != nil {
		return nil, fmt.Errorf("response is not a JSON object: %w", err)
	}
	return out, nil
}

// Client calls a remote GameService.
type Client struct {
	conn grpc.ClientConnInterface
}

// NewClient wraps conn.
func NewClient(conn grpc.ClientConnInterface) *Client {
	return &Client{conn: conn}
}

// Call invokes method with req and decodes the response into resp, which may
// be nil.
func (c *Client) Call(ctx context.Context, method string, req, resp any) error {
	in, err := encodeStruct(req)
	if err != nil {
		return fmt.Errorf("encoding %s request: %w", method, err)
	}
	out := new(structpb.Struct)
	if err := c.conn.Invoke(ctx, "/"+ServiceName+"/"+method, in, out); err != nil {
		return err
	}
	if resp == nil {
		return nil
	}
	return decodeStruct(out, resp)
}
