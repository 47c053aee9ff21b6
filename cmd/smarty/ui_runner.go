package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"smarty/internal/ui"
)

func shouldUseTUI(mode string) bool {
	switch strings.TrimSpace(strings.ToLower(mode)) {
	case "on":
		return true
	case "off":
		return false
	}
	return isTerminal(os.Stdout)
}

// runWithProgress drives work under a Bubble Tea progress display. work
// must emit one terminal event per file and return once all files are
// settled; the channel is closed for it.
func runWithProgress(ctx context.Context, title string, files []string, work func(context.Context, chan<- ui.Event) error) error {
	events := make(chan ui.Event, 256)
	outcome := make(chan error, 1)

	go func() {
		outcome <- work(ctx, events)
		close(events)
	}()

	model := ui.NewProgressModel(title, files, events)
	program := tea.NewProgram(model, tea.WithOutput(os.Stderr))
	_, uiErr := program.Run()
	workErr := <-outcome
	if uiErr != nil {
		return fmt.Errorf("progress display: %w", uiErr)
	}
	return workErr
}
