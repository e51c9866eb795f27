//go:build !protogen

package registry

import "log/slog"

// NewRegistryProvider returns the fallback when built without generated
// gRPC stubs. Build with -tags protogen after running protoc to enable the
// registry-service client.
func NewRegistryProvider(_ *slog.Logger, fallback Provider, _ string) (Provider, error) {
	return fallback, nil
}
