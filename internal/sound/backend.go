package sound

import (
	"fmt"

	"github.com/zjrosen/pitchplay/internal/bank/application"
)

// Backend kinds accepted by NewBackend.
const (
	BackendBeep    = "beep"
	BackendCommand = "command"
	BackendNull    = "null"
)

// BackendConfig selects and configures a Backend.
type BackendConfig struct {
	Kind       string
	Command    string // CommandBackend argv prefix
	SampleRate int    // BeepBackend output rate
}

// NewBackend builds the backend named by cfg.Kind.
func NewBackend(cfg BackendConfig, fetcher application.Fetcher) (Backend, error) {
	switch cfg.Kind {
	case BackendBeep, "":
		return NewBeepBackend(fetcher, cfg.SampleRate), nil
	case BackendCommand:
		return NewCommandBackend(fetcher, cfg.Command), nil
	case BackendNull:
		return NewNullBackend(), nil
	default:
		return nil, fmt.Errorf("unknown audio backend %q (valid: %s, %s, %s)", cfg.Kind, BackendBeep, BackendCommand, BackendNull)
	}
}
