// Package context resolves the user's semantic activity mode (Meeting,
// Dev, Writer, Global) used to scope which tools are eligible to run.
// Grounded on original_source/crates/context/src/mode.rs's
// resolve_mode — pure domain logic, no platform I/O.
package context

// Mode is the user's current activity context.
type Mode string

const (
	ModeMeeting Mode = "meeting"
	ModeDev     Mode = "dev"
	ModeWriter  Mode = "writer"
	ModeGlobal  Mode = "global"
)

// String returns the human-readable label.
func (m Mode) String() string {
	switch m {
	case ModeMeeting:
		return "Meeting"
	case ModeDev:
		return "Dev"
	case ModeWriter:
		return "Writer"
	default:
		return "Global"
	}
}

// DevModeApps are bundle/process identifiers that trigger Dev mode.
var DevModeApps = []string{
	"com.microsoft.VSCode",
	"com.microsoft.VSCodeInsiders",
	"dev.zed.Zed",
	"com.jetbrains.intellij",
	"com.jetbrains.intellij.ce",
	"com.jetbrains.WebStorm",
	"com.jetbrains.pycharm",
	"com.jetbrains.CLion",
	"com.jetbrains.goland",
	"com.jetbrains.rustrover",
	"com.sublimetext.4",
	"com.apple.dt.Xcode",
	"org.vim.MacVim",
	"com.googlecode.iterm2",
	"com.apple.Terminal",
	"io.alacritty",
	"com.github.wez.wezterm",
}

// WriterModeApps are bundle/process identifiers that trigger Writer mode.
var WriterModeApps = []string{
	"md.obsidian",
	"notion.id",
	"com.apple.Notes",
	"com.ulysses.mac",
	"com.multimarkdown.composer2",
	"com.microsoft.Word",
	"com.google.Chrome.app.Docs",
	"com.apple.iWork.Pages",
	"net.ia.iawriter",
	"co.noteplan.NotePlan3",
}

// ResolveMode implements the priority order: Meeting > Dev > Writer >
// Global. Meeting trumps everything when the mic is active and a
// meeting app is in the foreground, regardless of which app that is.
func ResolveMode(activeAppBundleID string, isMicActive, meetingAppDetected bool) Mode {
	if isMicActive && meetingAppDetected {
		return ModeMeeting
	}
	if activeAppBundleID != "" {
		for _, app := range DevModeApps {
			if app == activeAppBundleID {
				return ModeDev
			}
		}
		for _, app := range WriterModeApps {
			if app == activeAppBundleID {
				return ModeWriter
			}
		}
	}
	return ModeGlobal
}

// ChangedEvent describes a transition between two resolved modes. This
// package does not publish it; Tracker.Update only reports whether the
// mode changed.
type ChangedEvent struct {
	Previous Mode
	Current  Mode
}

// Tracker remembers the last resolved mode so callers can detect
// transitions and emit ChangedEvent only on change.
type Tracker struct {
	current Mode
}

// NewTracker starts in Global mode.
func NewTracker() *Tracker {
	return &Tracker{current: ModeGlobal}
}

// Resolve runs ResolveMode and reports the new mode plus whether it
// changed from the previously resolved one.
func (t *Tracker) Resolve(activeAppBundleID string, isMicActive, meetingAppDetected bool) (Mode, bool) {
	next := ResolveMode(activeAppBundleID, isMicActive, meetingAppDetected)
	changed := next != t.current
	t.current = next
	return next, changed
}

// Current returns the last resolved mode.
func (t *Tracker) Current() Mode {
	return t.current
}
