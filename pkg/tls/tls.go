package tls

import (
	"context"
	"crypto/tls"
	"fmt"
	"time"

	"github.com/spiffe/go-spiffe/v2/spiffetls/tlsconfig"
	"github.com/spiffe/go-spiffe/v2/workloadapi"
	"go.uber.org/zap"
)

const certificateCheckInterval = 30 * time.Second

// ServerTLS holds the SPIRE X509 source backing the HTTP server's mTLS
// config. A nil *ServerTLS means TLS is disabled.
type ServerTLS struct {
	source *workloadapi.X509Source
	logger *zap.Logger
}

// Load connects to the SPIRE agent socket. When enabled is false it returns
// (nil, nil, nil) and the server runs plain HTTP.
func Load(ctx context.Context, enabled bool, socketPath string, logger *zap.Logger) (*ServerTLS, *tls.Config, error) {
	if !enabled {
		logger.Info("TLS is disabled")
		return nil, nil, nil
	}

	// SPIRE Workload API를 통해 X509 소스 생성
	source, err := workloadapi.NewX509Source(
		ctx,
		workloadapi.WithClientOptions(
			workloadapi.WithAddr(socketPath),
		),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("unable to create X509Source: %w", err)
	}

	tlsConfig := tlsconfig.MTLSServerConfig(source, source, tlsconfig.AuthorizeAny())
	tlsConfig.MinVersion = tls.VersionTLS12

	logger.Info("SPIRE TLS configuration loaded",
		zap.String("socket_path", socketPath),
		zap.Bool("mtls_enabled", true))

	return &ServerTLS{source: source, logger: logger}, tlsConfig, nil
}

// Watch logs the current SVID until ctx is done. SPIRE rotates the
// certificate itself; this only reports expiry.
func (s *ServerTLS) Watch(ctx context.Context) {
	if s == nil {
		return
	}

	ticker := time.NewTicker(certificateCheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			svid, err := s.source.GetX509SVID()
			if err != nil {
				s.logger.Error("Failed to get X509 SVID", zap.Error(err))
				continue
			}

			s.logger.Info("Certificate status",
				zap.String("spiffe_id", svid.ID.String()),
				zap.Time("expiry", svid.Certificates[0].NotAfter),
				zap.Duration("ttl", time.Until(svid.Certificates[0].NotAfter)))
		}
	}
}

func (s *ServerTLS) Close() error {
	if s == nil {
		return nil
	}
	return s.source.Close()
}
