// Package vectorutils is the vector utility package
package vectorutils

import (
	"context"
	"fmt"
	"net"
	"strconv"

	"go.uber.org/zap"

	"github.com/neehanthreddym/ragbot/pkg/vector"
	"github.com/neehanthreddym/ragbot/pkg/vector/qdrantvec"
	"github.com/neehanthreddym/ragbot/pkg/vector/sqlitevec"
)

// defaultQdrantPort is qdrant's gRPC port, used when the target has no port.
const defaultQdrantPort = 6334

type NewVectorDriverOpts struct {
	ProviderType string

	// Target is the store location: a file path for sqlite, or a
	// host or host:port for qdrant.
	Target string

	Collection string
	Dimensions uint
	Logger     *zap.Logger
}

func NewVectorDriver(ctx context.Context, o *NewVectorDriverOpts) (vector.Driver, error) {
	switch o.ProviderType {
	case "sqlite":
		return sqlitevec.NewDriver(sqlitevec.Config{
			DBPath:     o.Target,
			Dimensions: o.Dimensions,
		}, o.Logger)
	case "qdrant":
		host, port, err := splitTarget(o.Target)
		if err != nil {
			return nil, err
		}
		return qdrantvec.NewDriver(ctx, qdrantvec.Config{
			Host:       host,
			Port:       port,
			Collection: o.Collection,
			Dimensions: o.Dimensions,
		}, o.Logger)
	default:
		return nil, fmt.Errorf("unsupported vector store provider: %s", o.ProviderType)
	}
}

func splitTarget(target string) (string, int, error) {
	host, portStr, err := net.SplitHostPort(target)
	if err != nil {
		return target, defaultQdrantPort, nil
	}

	port, err := strconv.Atoi(portStr)
	if err != nil {
		return "", 0, fmt.Errorf("invalid qdrant port in target %q: %w", target, err)
	}

	return host, port, nil
}
