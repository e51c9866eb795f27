//go:build protogen

package grpcserver

import (
	"context"

	"github.com/md-rashed-zaman/slotbook/libs/db"
	registryv1 "github.com/md-rashed-zaman/slotbook/protos/gen/registry/v1"
	"github.com/md-rashed-zaman/slotbook/services/registry-service/internal/storage"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/timestamppb"
)

type server struct {
	registryv1.UnimplementedRegistryServiceServer
	pool *db.Pool
	repo *storage.Repository
}

func Register(grpcServer *grpc.Server, pool *db.Pool, repo *storage.Repository) {
	registryv1.RegisterRegistryServiceServer(grpcServer, &server{pool: pool, repo: repo})
}

func (s *server) GetResource(ctx context.Context, req *registryv1.GetResourceRequest) (*registryv1.GetResourceResponse, error) {
	if req.GetResourceId() == "" {
		return nil, status.Error(codes.InvalidArgument, "resource_id is required")
	}
	res, err := s.repo.GetResource(ctx, req.GetResourceId())
	if err != nil {
		if storage.IsNotFound(err) {
			return nil, status.Error(codes.NotFound, "resource not found")
		}
		return nil, status.Error(codes.Internal, "failed to load resource")
	}
	return &registryv1.GetResourceResponse{
		ResourceId: res.ID,
		Name:       res.Name,
		Active:     res.Active,
		CreatedAt:  timestamppb.New(res.CreatedAt),
	}, nil
}

func (s *server) GetWeeklyTemplate(ctx context.Context, req *registryv1.GetWeeklyTemplateRequest) (*registryv1.GetWeeklyTemplateResponse, error) {
	if req.GetResourceId() == "" {
		return nil, status.Error(codes.InvalidArgument, "resource_id is required")
	}
	week, err := s.repo.ListHours(ctx, req.GetResourceId())
	if err != nil {
		if storage.IsNotFound(err) {
			return nil, status.Error(codes.NotFound, "resource not found")
		}
		return nil, status.Error(codes.Internal, "failed to load working hours")
	}

	resp := &registryv1.GetWeeklyTemplateResponse{
		ResourceId:  req.GetResourceId(),
		WorkingDays: make([]bool, 7),
	}
	seen := false
	for i, dh := range week {
		resp.WorkingDays[i] = dh.IsWorking
		if dh.IsWorking && !seen {
			resp.StartMinute = int32(dh.StartMinute)
			resp.EndMinute = int32(dh.EndMinute)
			seen = true
		}
	}
	return resp, nil
}
