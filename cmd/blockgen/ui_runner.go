package main

import (
	"context"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"blockgen/internal/codegen"
	"blockgen/internal/ui"
)

type generateOutcome struct {
	results []codegen.Result
	err     error
}

// runGenerateWithUI runs the passes while a Bubble Tea view renders their
// progress events.
func runGenerateWithUI(ctx context.Context, title string, reqs []codegen.Request, jobs int) ([]codegen.Result, error) {
	events := make(chan codegen.Event, 256)
	outcomeCh := make(chan generateOutcome, 1)

	files := make([]string, len(reqs))
	withSink := make([]codegen.Request, len(reqs))
	for i, req := range reqs {
		files[i] = req.Name
		req.Progress = codegen.ChannelSink{Ch: events}
		withSink[i] = req
	}

	go func() {
		results, err := codegen.GenerateAll(ctx, withSink, jobs)
		outcomeCh <- generateOutcome{results: results, err: err}
		close(events)
	}()

	model := ui.NewProgressModel(title, files, events)
	program := tea.NewProgram(model, tea.WithOutput(os.Stdout))
	_, uiErr := program.Run()
	if uiErr != nil {
		// keep the producer from blocking on a full channel
		go func() {
			for range events {
			}
		}()
	}
	outcome := <-outcomeCh
	if uiErr != nil {
		return outcome.results, uiErr
	}
	return outcome.results, outcome.err
}
