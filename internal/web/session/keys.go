package session

import (
	"context"
	"log/slog"
	"time"

	"github.com/econest/web/pkg/jwtx"
)

// KeySource publishes the project's JWKS; *supabase.Client implements it.
type KeySource interface {
	FetchJWKS(ctx context.Context) (jwtx.JWKS, error)
}

// KeyRefresher keeps a KeySet in step with the project's published keys.
type KeyRefresher struct {
	Source   KeySource
	Keys     *jwtx.KeySet
	Logger   *slog.Logger
	Interval time.Duration
	Timeout  time.Duration

	stopCh chan struct{}
	doneCh chan struct{}
}

// NewKeyRefresher defaults interval to 10 minutes.
func NewKeyRefresher(src KeySource, keys *jwtx.KeySet, logger *slog.Logger, interval time.Duration) *KeyRefresher {
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	return &KeyRefresher{
		Source:   src,
		Keys:     keys,
		Logger:   logger,
		Interval: interval,
		Timeout:  10 * time.Second,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start launches the background loop. Stop must be called to release it.
func (k *KeyRefresher) Start() {
	go k.run()
	k.Logger.Info("jwks refresher started", "interval", k.Interval)
}

// Stop blocks until an in-flight fetch has finished.
func (k *KeyRefresher) Stop() {
	close(k.stopCh)
	<-k.doneCh
	k.Logger.Info("jwks refresher stopped")
}

func (k *KeyRefresher) run() {
	defer close(k.doneCh)

	ticker := time.NewTicker(k.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			_ = k.Refresh(context.Background())
		case <-k.stopCh:
			return
		}
	}
}

// Refresh fetches once. On failure the previous keys stay in place.
func (k *KeyRefresher) Refresh(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, k.Timeout)
	defer cancel()

	jwks, err := k.Source.FetchJWKS(ctx)
	if err != nil {
		k.Logger.Error("jwks fetch failed", "error", err)
		return err
	}
	skipped, err := k.Keys.ResetFromJWKS(jwks)
	if err != nil {
		k.Logger.Error("jwks unusable", "error", err, "skipped", skipped)
		return err
	}
	k.Logger.Debug("jwks refreshed", "keys", len(jwks.Keys)-skipped, "skipped", skipped)
	return nil
}
