//go:build protogen

package registry

import (
	"context"
	"log/slog"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/md-rashed-zaman/slotbook/libs/grpcx"
	registryv1 "github.com/md-rashed-zaman/slotbook/protos/gen/registry/v1"
	"github.com/md-rashed-zaman/slotbook/services/booking-service/internal/model"
)

const templateCacheTTL = 30 * time.Second

type grpcProvider struct {
	client registryv1.RegistryServiceClient
}

// NewRegistryProvider dials the registry service and wraps the client in a
// short-lived cache. An empty address or a failed dial falls back to the
// supplied provider so a partially configured deployment still boots.
func NewRegistryProvider(logger *slog.Logger, fallback Provider, addr string) (Provider, error) {
	if addr == "" {
		return fallback, nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, err := grpcx.Dial(ctx, addr, grpcx.DialOptions{Timeout: 5 * time.Second})
	if err != nil {
		logger.Warn("registry grpc unavailable, using fallback", "err", err)
		return fallback, nil
	}

	logger.Info("registry grpc provider enabled", "addr", addr)
	return NewCached(&grpcProvider{client: registryv1.NewRegistryServiceClient(conn)}, templateCacheTTL), nil
}

func (p *grpcProvider) Exists(ctx context.Context, resourceID string) (bool, error) {
	_, err := p.client.GetResource(ctx, &registryv1.GetResourceRequest{ResourceId: resourceID})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (p *grpcProvider) WeeklyTemplate(ctx context.Context, resourceID string) (model.WeeklyTemplate, error) {
	resp, err := p.client.GetWeeklyTemplate(ctx, &registryv1.GetWeeklyTemplateRequest{ResourceId: resourceID})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return model.WeeklyTemplate{}, ErrUnknownResource
		}
		return model.WeeklyTemplate{}, err
	}

	tpl := model.WeeklyTemplate{
		StartMinute: int(resp.GetStartMinute()),
		EndMinute:   int(resp.GetEndMinute()),
	}
	for i, working := range resp.GetWorkingDays() {
		if i > 6 {
			break
		}
		tpl.Days[i] = working
	}
	return tpl, nil
}
