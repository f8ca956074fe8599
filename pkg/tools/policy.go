package tools

import (
	"time"

	gocontext "github.com/lokutor-ai/gibberish/pkg/context"
)

// Config centralizes the policy values governing dispatch — cooldown,
// cache TTL, and chaining confidence — grounded on
// original_source/plugins/tools/src/policy.rs's PolicyConfig, whose
// Default() literal values are carried over unchanged.
type Config struct {
	ToolCooldown         time.Duration
	CacheTTL             time.Duration
	MinConfidence        float64
	FirstAttemptConfidence float64
	RepairAttemptConfidence float64
	AutoRunReadOnly      bool
}

// DefaultConfig mirrors policy.rs's PolicyConfig::default().
func DefaultConfig() Config {
	return Config{
		ToolCooldown:            45 * time.Second,
		CacheTTL:                15 * time.Minute,
		MinConfidence:           0.35,
		FirstAttemptConfidence:  0.85,
		RepairAttemptConfidence: 0.55,
		AutoRunReadOnly:         true,
	}
}

// modeAllowed reports whether tool may run under mode — an empty
// Modes() list means the tool applies everywhere.
func modeAllowed(tool Tool, mode gocontext.Mode) bool {
	modes := tool.Modes()
	if len(modes) == 0 {
		return true
	}
	for _, m := range modes {
		if m == mode {
			return true
		}
	}
	return false
}

// requiresConfirmation reports whether a tool needs out-of-band user
// confirmation before running. Read-only tools run automatically when
// cfg.AutoRunReadOnly is set (the default, per policy.rs's
// RouterState::auto_run_read_only); tools with side effects always
// require confirmation — auto_run_read_only only ever widens the
// read-only fast path, it never covers mutating tools.
func requiresConfirmation(tool Tool, cfg Config) bool {
	if tool.IsReadOnly() {
		return !cfg.AutoRunReadOnly
	}
	return true
}
