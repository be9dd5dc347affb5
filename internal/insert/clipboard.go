package insert

import (
	"context"
	"fmt"
)

// insertViaClipboard snapshots the current clipboard, replaces it with text,
// sends a paste chord to the focused window, then restores the snapshot.
// Restore failures are logged, never returned: the text already landed.
func (i *inserter) insertViaClipboard(ctx context.Context, text string) error {
	if err := i.runner.lookPath("wl-copy"); err != nil {
		return &Error{Class: ClassClipboardUnavailable, Err: fmt.Errorf("wl-copy not found: %w", err)}
	}

	original, hadSnapshot := i.snapshotClipboard(ctx)

	if _, err := i.runner.run(ctx, i.config.ClipboardTimeout, text, "wl-copy"); err != nil {
		return &Error{Class: ClassClipboardUnavailable, Err: fmt.Errorf("setting clipboard: %w", err)}
	}

	if err := i.pasteChord(ctx); err != nil {
		// Still restore: the user's clipboard should not keep our text
		// just because the paste failed.
		i.restoreClipboard(ctx, original, hadSnapshot)
		return &Error{Class: ClassSimulationFailed, Err: err}
	}

	// Give the focused app time to read the selection before we clobber it.
	sleepCtx(ctx, i.config.GraceDelay)

	i.restoreClipboard(ctx, original, hadSnapshot)
	return nil
}

// snapshotClipboard reads the current clipboard contents. An empty clipboard
// reports hadSnapshot=true with an empty string so restore puts emptiness
// back; a read failure reports false and skips the restore entirely.
func (i *inserter) snapshotClipboard(ctx context.Context) (string, bool) {
	if err := i.runner.lookPath("wl-paste"); err != nil {
		return "", false
	}
	out, err := i.runner.run(ctx, i.config.ClipboardTimeout, "", "wl-paste", "--no-newline")
	if err != nil {
		// wl-paste exits nonzero when the clipboard is empty.
		return "", true
	}
	return out, true
}

func (i *inserter) restoreClipboard(ctx context.Context, original string, hadSnapshot bool) {
	if !i.config.RestoreClipboard || !hadSnapshot {
		return
	}
	var err error
	if original == "" {
		_, err = i.runner.run(ctx, i.config.ClipboardTimeout, "", "wl-copy", "--clear")
	} else {
		_, err = i.runner.run(ctx, i.config.ClipboardTimeout, original, "wl-copy")
	}
	if err != nil {
		logRestoreFailure(err)
	}
}

// pasteChord presses ctrl+v in the focused window.
func (i *inserter) pasteChord(ctx context.Context) error {
	if err := i.runner.lookPath("wtype"); err == nil {
		if _, err := i.runner.run(ctx, i.config.TypeTimeout, "", "wtype", "-M", "ctrl", "-k", "v", "-m", "ctrl"); err == nil {
			return nil
		} else {
			return fmt.Errorf("wtype paste chord: %w", err)
		}
	}
	if err := i.runner.lookPath("ydotool"); err == nil {
		// 29 = KEY_LEFTCTRL, 47 = KEY_V
		if _, err := i.runner.run(ctx, i.config.TypeTimeout, "", "ydotool", "key", "29:1", "47:1", "47:0", "29:0"); err == nil {
			return nil
		} else {
			return fmt.Errorf("ydotool paste chord: %w", err)
		}
	}
	return fmt.Errorf("no paste tool available (install wtype or ydotool)")
}
