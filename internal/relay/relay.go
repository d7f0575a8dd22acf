// Emberforge - Event-Driven Idle RPG Game Backend
// Copyright 2026 Solaireshen97
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Solaireshen97/emberforge

//go:build nats

package relay

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	wmNats "github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	natsgo "github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/rs/zerolog"

	"github.com/Solaireshen97/emberforge/internal/event"
	"github.com/Solaireshen97/emberforge/internal/logging"
	"github.com/Solaireshen97/emberforge/internal/metrics"
)

// Relay forwards completed dispatch frames to NATS JetStream.
//
// One message per frame: the payload is the frame's batch wire encoding
// and the NATS message ID is derived from the frame number, so JetStream
// deduplication makes repeated forwards of the same frame idempotent.
type Relay struct {
	publisher message.Publisher
	nc        *natsgo.Conn
	server    *EmbeddedServer
	config    Config
	clientURL string
	logger    zerolog.Logger

	mu     sync.RWMutex
	closed bool
}

// New creates a relay per cfg. With cfg.EmbeddedServer it starts an
// in-process NATS server first; otherwise it connects to cfg.URL. The
// JetStream stream is provisioned before the publisher starts.
func New(cfg Config, wmLogger watermill.LoggerAdapter) (*Relay, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid relay config: %w", err)
	}
	if wmLogger == nil {
		wmLogger = watermill.NewStdLogger(false, false)
	}

	logger := logging.WithComponent("relay")

	r := &Relay{
		config: cfg,
		logger: logger,
	}

	url := cfg.URL
	if cfg.EmbeddedServer {
		srv, err := NewEmbeddedServer(cfg)
		if err != nil {
			return nil, fmt.Errorf("start embedded NATS server: %w", err)
		}
		r.server = srv
		url = srv.ClientURL()
	}
	r.clientURL = url

	// NATS connection options with reconnection handling
	natsOpts := []natsgo.Option{
		natsgo.RetryOnFailedConnect(true),
		natsgo.MaxReconnects(cfg.MaxReconnects),
		natsgo.ReconnectWait(cfg.ReconnectWait),
		natsgo.ReconnectBufSize(cfg.ReconnectBuffer),
		natsgo.DisconnectErrHandler(func(nc *natsgo.Conn, err error) {
			if err != nil {
				logger.Error().Err(err).Msg("NATS disconnected")
			}
		}),
		natsgo.ReconnectHandler(func(nc *natsgo.Conn) {
			logger.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
	}

	nc, err := natsgo.Connect(url, natsOpts...)
	if err != nil {
		r.shutdownServer()
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}
	r.nc = nc

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := r.ensureStream(ctx); err != nil {
		nc.Close()
		r.shutdownServer()
		return nil, err
	}

	wmConfig := wmNats.PublisherConfig{
		URL:         url,
		NatsOptions: natsOpts,
		Marshaler:   &wmNats.NATSMarshaler{},
		JetStream: wmNats.JetStreamConfig{
			Disabled:      false,
			AutoProvision: false, // Stream is provisioned by ensureStream
			TrackMsgId:    true,  // Frame-number dedup
			PublishOptions: []natsgo.PubOpt{
				natsgo.RetryAttempts(3),
				natsgo.RetryWait(100 * time.Millisecond),
			},
		},
	}

	pub, err := wmNats.NewPublisher(wmConfig, wmLogger)
	if err != nil {
		nc.Close()
		r.shutdownServer()
		return nil, fmt.Errorf("create watermill publisher: %w", err)
	}
	r.publisher = pub

	logger.Info().
		Str("url", url).
		Str("stream", cfg.StreamName).
		Str("subject", cfg.Subject).
		Bool("embedded", cfg.EmbeddedServer).
		Msg("Frame relay started")
	return r, nil
}

// ensureStream creates or updates the frame stream, idempotently.
func (r *Relay) ensureStream(ctx context.Context) error {
	js, err := jetstream.New(r.nc)
	if err != nil {
		return fmt.Errorf("create JetStream context: %w", err)
	}

	streamCfg := jetstream.StreamConfig{
		Name:        r.config.StreamName,
		Subjects:    []string{r.config.Subject},
		Retention:   jetstream.LimitsPolicy,
		MaxAge:      r.config.StreamMaxAge,
		MaxBytes:    r.config.StreamMaxBytes,
		MaxMsgs:     r.config.StreamMaxMsgs,
		Duplicates:  r.config.DuplicateWindow,
		Replicas:    r.config.Replicas,
		Storage:     jetstream.FileStorage,
		AllowDirect: true,
		Discard:     jetstream.DiscardOld,
	}

	_, err = js.Stream(ctx, r.config.StreamName)
	if err == nil {
		if _, err := js.UpdateStream(ctx, streamCfg); err != nil {
			return fmt.Errorf("update stream %s: %w", r.config.StreamName, err)
		}
		return nil
	}
	if errors.Is(err, jetstream.ErrStreamNotFound) {
		if _, err := js.CreateStream(ctx, streamCfg); err != nil {
			return fmt.Errorf("create stream %s: %w", r.config.StreamName, err)
		}
		return nil
	}
	return fmt.Errorf("check stream %s: %w", r.config.StreamName, err)
}

// ForwardFrame publishes one completed frame. The frame number becomes
// the NATS message ID, so forwarding the same frame twice inside the
// duplicate window stores it once.
func (r *Relay) ForwardFrame(ctx context.Context, frame uint64, events []event.UnifiedEvent) error {
	r.mu.RLock()
	if r.closed {
		r.mu.RUnlock()
		return ErrRelayClosed
	}
	r.mu.RUnlock()

	data := event.EncodeBatch(events)
	msg := message.NewMessage(watermill.NewUUID(), data)
	msg.Metadata.Set(natsgo.MsgIdHdr, "frame-"+strconv.FormatUint(frame, 10))
	msg.Metadata.Set("frame", strconv.FormatUint(frame, 10))
	msg.Metadata.Set("events", strconv.Itoa(len(events)))

	err := r.publisher.Publish(r.config.Subject, msg)
	metrics.RecordRelayPublish(err)
	if err != nil {
		r.logger.Error().
			Err(err).
			Uint64("frame", frame).
			Int("events", len(events)).
			Msg("Frame forward failed")
		return fmt.Errorf("forward frame %d: %w", frame, err)
	}
	return nil
}

// Serve blocks until ctx is cancelled, then shuts the relay down. It
// exists so the relay slots into the supervision tree and is torn down
// in order with the other services.
func (r *Relay) Serve(ctx context.Context) error {
	<-ctx.Done()
	if err := r.Close(); err != nil {
		r.logger.Error().Err(err).Msg("Relay shutdown error")
	}
	return ctx.Err()
}

// Healthy reports whether the NATS connection is up.
func (r *Relay) Healthy() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return !r.closed && r.nc != nil && r.nc.IsConnected()
}

// ClientURL returns the effective NATS URL (the embedded server's URL
// when one is running).
func (r *Relay) ClientURL() string {
	return r.clientURL
}

// Close shuts down the publisher, the connection and the embedded
// server if one was started.
func (r *Relay) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	r.mu.Unlock()

	var errs []error
	if r.publisher != nil {
		if err := r.publisher.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close publisher: %w", err))
		}
	}
	if r.nc != nil {
		r.nc.Close()
	}
	r.shutdownServer()

	r.logger.Info().Msg("Frame relay closed")
	return errors.Join(errs...)
}

// shutdownServer stops the embedded server if one was started.
func (r *Relay) shutdownServer() {
	if r.server == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := r.server.Shutdown(ctx); err != nil {
		r.logger.Warn().Err(err).Msg("Embedded NATS shutdown timed out")
	}
	r.server = nil
}
