// Emberforge - Event-Driven Idle RPG Game Backend
// Copyright 2026 Solaireshen97
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Solaireshen97/emberforge

package dispatch

import (
	"context"
	"errors"

	"github.com/Solaireshen97/emberforge/internal/event"
)

// SinkFunc adapts a plain function to the FrameSink interface, the same
// way http.HandlerFunc adapts handlers.
type SinkFunc func(ctx context.Context, frame uint64, events []event.UnifiedEvent) error

// PersistFrame calls f.
func (f SinkFunc) PersistFrame(ctx context.Context, frame uint64, events []event.UnifiedEvent) error {
	return f(ctx, frame, events)
}

// MultiSink fans each completed frame out to every given sink. Nil
// entries are skipped so optional consumers can be passed unconditionally.
// Every sink sees every frame even when an earlier one fails; the
// failures are joined into one error.
func MultiSink(sinks ...FrameSink) FrameSink {
	kept := make([]FrameSink, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			kept = append(kept, s)
		}
	}
	switch len(kept) {
	case 0:
		return nil
	case 1:
		return kept[0]
	default:
		return multiSink(kept)
	}
}

type multiSink []FrameSink

func (m multiSink) PersistFrame(ctx context.Context, frame uint64, events []event.UnifiedEvent) error {
	var errs []error
	for _, s := range m {
		if err := s.PersistFrame(ctx, frame, events); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
