// Package server constructs the listening side of the engine. It is the only
// component aware of transport setup and certificate material; everything
// above it sees a plain http.Handler.
package server

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"golang.org/x/net/http2"

	"github.com/minigate/minigate/internal/config"
)

// Lifecycle owns the listening socket. The hosting application wires
// Shutdown to whatever signal mechanism its platform offers.
type Lifecycle struct {
	srv    *http.Server
	cfg    config.ServerConfig
	logger *slog.Logger
}

// New builds the server for the configured transport without opening any
// socket. Requesting TLS or HTTP/2 without both certificate and key paths is
// a fatal configuration fault, raised here; certificate material is also
// loaded here so bad files fail at construction rather than at first accept.
func New(cfg *config.Config, handler http.Handler) (*Lifecycle, error) {
	sc := cfg.Server

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", sc.Host, sc.Port),
		Handler:      handler,
		ReadTimeout:  sc.ReadTimeout,
		WriteTimeout: sc.WriteTimeout,
	}

	if sc.TLS() {
		if sc.SSLCert == "" || sc.SSLKey == "" {
			return nil, fmt.Errorf("https/http2 requires both certificate and key paths")
		}
		tlsCfg, err := buildTLSConfig(sc)
		if err != nil {
			return nil, err
		}
		srv.TLSConfig = tlsCfg

		if sc.UseHTTP2 {
			if err := http2.ConfigureServer(srv, &http2.Server{}); err != nil {
				return nil, fmt.Errorf("failed to configure http2: %w", err)
			}
		}
	}

	return &Lifecycle{srv: srv, cfg: sc, logger: slog.Default()}, nil
}

func buildTLSConfig(sc config.ServerConfig) (*tls.Config, error) {
	cert, err := tls.LoadX509KeyPair(sc.SSLCert, sc.SSLKey)
	if err != nil {
		return nil, fmt.Errorf("failed to load TLS key pair: %w", err)
	}

	tlsCfg := &tls.Config{
		Certificates: []tls.Certificate{cert},
		MinVersion:   tls.VersionTLS12,
	}

	if sc.SSLCA != "" {
		pem, err := os.ReadFile(sc.SSLCA)
		if err != nil {
			return nil, fmt.Errorf("failed to read CA file: %w", err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(pem) {
			return nil, fmt.Errorf("no certificates found in CA file %s", sc.SSLCA)
		}
		tlsCfg.ClientCAs = pool
		tlsCfg.ClientAuth = tls.VerifyClientCertIfGiven
	}

	return tlsCfg, nil
}

// Addr returns the configured listen address.
func (l *Lifecycle) Addr() string { return l.srv.Addr }

// Start opens the listening socket and serves until Shutdown is called or
// the listener fails. It blocks; run it in its own goroutine.
func (l *Lifecycle) Start() error {
	if l.cfg.TLS() {
		l.logger.Info("server listening", "addr", l.srv.Addr, "tls", true, "http2", l.cfg.UseHTTP2)
		return l.srv.ListenAndServeTLS("", "")
	}
	l.logger.Info("server listening", "addr", l.srv.Addr)
	return l.srv.ListenAndServe()
}

// Shutdown stops accepting new connections and lets in-flight requests
// finish, up to the context deadline.
func (l *Lifecycle) Shutdown(ctx context.Context) error {
	return l.srv.Shutdown(ctx)
}
