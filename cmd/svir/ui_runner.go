package main

import (
	"context"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"svir/internal/driver"
	"svir/internal/ui"
)

type lowerOutcome struct {
	result *driver.Result
	err    error
}

// runLowerWithUI runs LowerDesign in the background and shows its progress
// events until the run finishes.
func runLowerWithUI(ctx context.Context, title, path string, opts driver.LowerOptions) (*driver.Result, error) {
	events := make(chan driver.Event, 256)
	outcomeCh := make(chan lowerOutcome, 1)

	go func() {
		optsCopy := opts
		optsCopy.Progress = driver.ChannelSink{Ch: events}
		res, err := driver.LowerDesign(ctx, path, optsCopy)
		outcomeCh <- lowerOutcome{result: res, err: err}
		close(events)
	}()

	model := ui.NewProgressModel(title, events)
	program := tea.NewProgram(model, tea.WithOutput(os.Stdout))
	_, uiErr := program.Run()
	// модель могла выйти раньше (ctrl+c), дочитываем канал
	go func() {
		for range events {
		}
	}()
	outcome := <-outcomeCh
	if uiErr != nil && outcome.err == nil {
		return outcome.result, uiErr
	}
	return outcome.result, outcome.err
}
