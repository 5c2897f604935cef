// Package gamev1 holds the gRPC stubs for buttonmen.v1.GameService.
package gamev1

//go:generate protoc -I ../../../api/proto --go-grpc_out=. --go-grpc_opt=paths=source_relative buttonmen/v1/game_service.proto
