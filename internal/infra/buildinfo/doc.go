// Package buildinfo exposes version information injected at link time:
//
//	go build -ldflags "-X github.com/yndnr/timi-go/internal/infra/buildinfo.Version=v0.3.0 \
//	  -X github.com/yndnr/timi-go/internal/infra/buildinfo.Commit=$(git rev-parse --short HEAD)"
package buildinfo
