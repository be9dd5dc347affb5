package insert

import (
	"context"
	"fmt"
)

// insertViaKeypress types the text as synthetic keystrokes. The clipboard is
// never touched, at the cost of being slower for long transcripts.
func (i *inserter) insertViaKeypress(ctx context.Context, text string) error {
	var lastErr error

	if err := i.runner.lookPath("wtype"); err == nil {
		if _, err := i.runner.run(ctx, i.config.TypeTimeout, "", "wtype", "--", text); err == nil {
			return nil
		} else {
			lastErr = fmt.Errorf("wtype: %w", err)
		}
	}

	if err := i.runner.lookPath("ydotool"); err == nil {
		if _, err := i.runner.run(ctx, i.config.TypeTimeout, "", "ydotool", "type", "--", text); err == nil {
			return nil
		} else {
			lastErr = fmt.Errorf("ydotool: %w", err)
		}
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("no typing tool available (install wtype or ydotool)")
	}
	return &Error{Class: ClassSimulationFailed, Err: lastErr}
}
