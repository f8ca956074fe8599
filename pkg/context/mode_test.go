package context

import "testing"

func TestMeetingModePriority(t *testing.T) {
	if got := ResolveMode("com.microsoft.VSCode", true, true); got != ModeMeeting {
		t.Fatalf("expected meeting mode, got %v", got)
	}
}

func TestDevMode(t *testing.T) {
	if got := ResolveMode("com.microsoft.VSCode", false, false); got != ModeDev {
		t.Fatalf("expected dev mode, got %v", got)
	}
}

func TestWriterMode(t *testing.T) {
	if got := ResolveMode("md.obsidian", false, false); got != ModeWriter {
		t.Fatalf("expected writer mode, got %v", got)
	}
}

func TestGlobalFallback(t *testing.T) {
	if got := ResolveMode("com.apple.Safari", false, false); got != ModeGlobal {
		t.Fatalf("expected global mode, got %v", got)
	}
}

func TestDevModeWithoutMeeting(t *testing.T) {
	if got := ResolveMode("com.microsoft.VSCode", true, false); got != ModeDev {
		t.Fatalf("expected dev mode when mic active but no meeting app, got %v", got)
	}
}

func TestTrackerReportsChangeOnlyOnTransition(t *testing.T) {
	tr := NewTracker()
	if _, changed := tr.Resolve("com.apple.Safari", false, false); changed {
		t.Fatal("expected no change: global -> global")
	}
	mode, changed := tr.Resolve("md.obsidian", false, false)
	if !changed || mode != ModeWriter {
		t.Fatalf("expected change to writer, got mode=%v changed=%v", mode, changed)
	}
	if _, changed := tr.Resolve("md.obsidian", false, false); changed {
		t.Fatal("expected no change: writer -> writer")
	}
}
