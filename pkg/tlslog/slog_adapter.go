package tlslog

import (
	"context"
	"log/slog"
)

// SlogAdapter writes trial events to an slog.Logger.
// Useful for development when you want to watch trials in the console.
type SlogAdapter struct {
	logger *slog.Logger
}

// NewSlogAdapter creates a new SlogAdapter that writes to the given slog.Logger.
func NewSlogAdapter(logger *slog.Logger) *SlogAdapter {
	return &SlogAdapter{logger: logger}
}

// Log writes the event to the slog logger at Debug level.
func (a *SlogAdapter) Log(event Event) {
	attrs := []slog.Attr{
		slog.String("run_id", event.RunID),
	}
	if event.Group != "" {
		attrs = append(attrs, slog.String("group", event.Group))
	}
	if event.Target != "" {
		attrs = append(attrs, slog.String("target", event.Target))
	}

	switch {
	case event.Trial != nil:
		attrs = append(attrs,
			slog.Int("seq", event.Trial.Seq),
			slog.String("phase", event.Trial.Phase.String()),
			slog.Bool("success", event.Trial.Success),
		)
		if event.Trial.Success {
			attrs = append(attrs, slog.Duration("elapsed", event.Trial.Elapsed))
		} else {
			attrs = append(attrs, slog.String("reason", event.Trial.Reason))
			if event.Trial.Detail != "" {
				attrs = append(attrs, slog.String("detail", event.Trial.Detail))
			}
		}
		a.logger.LogAttrs(context.Background(), slog.LevelDebug, "trial", attrs...)

	case event.Campaign != nil:
		attrs = append(attrs,
			slog.String("old_state", event.Campaign.OldState),
			slog.String("new_state", event.Campaign.NewState),
		)
		if event.Campaign.Reason != "" {
			attrs = append(attrs, slog.String("reason", event.Campaign.Reason))
		}
		a.logger.LogAttrs(context.Background(), slog.LevelDebug, "campaign", attrs...)

	case event.Error != nil:
		attrs = append(attrs, slog.String("error", event.Error.Message))
		a.logger.LogAttrs(context.Background(), slog.LevelDebug, "error", attrs...)

	default:
		a.logger.LogAttrs(context.Background(), slog.LevelDebug, "event", attrs...)
	}
}

// Compile-time interface satisfaction check.
var _ Logger = (*SlogAdapter)(nil)
