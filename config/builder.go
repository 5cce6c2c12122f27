package config

import (
	"github.com/jpalmerr/toastboard"
)

// BuildOptions converts parsed configuration into SDK options.
//
// The returned options set the port, the title when one is configured, and
// any dismiss delays present in the file. Logging is left to the caller.
func BuildOptions(cfg *Config) []toastboard.Option {
	opts := []toastboard.Option{
		toastboard.WithPort(cfg.Port),
	}

	if cfg.Title != "" {
		opts = append(opts, toastboard.WithTitle(cfg.Title))
	}

	dismiss := []struct {
		kind toastboard.Kind
		d    *Duration
	}{
		{toastboard.KindNeutral, cfg.Dismiss.Default},
		{toastboard.KindSuccess, cfg.Dismiss.Success},
		{toastboard.KindInfo, cfg.Dismiss.Info},
		{toastboard.KindError, cfg.Dismiss.Error},
	}
	for _, entry := range dismiss {
		if entry.d != nil {
			opts = append(opts, toastboard.WithDismissAfter(entry.kind, entry.d.Duration()))
		}
	}

	return opts
}

// BuildToasts converts the configured startup toasts into SDK inputs,
// preserving their order.
func BuildToasts(cfg *Config) []toastboard.Input {
	inputs := make([]toastboard.Input, 0, len(cfg.Toasts))
	for _, tc := range cfg.Toasts {
		inputs = append(inputs, toastboard.Input{
			Kind:        toastboard.Kind(tc.Kind),
			Title:       tc.Title,
			Description: tc.Description,
		})
	}
	return inputs
}
