// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func discardLogger() *slog.Logger { return slog.New(slog.DiscardHandler) }

func TestCommand_Execute_DispatchesToSubcommand(t *testing.T) {
	var called string

	root := &Command{
		Name:   "lifeboard",
		Logger: discardLogger(),
		Subcommands: []*Command{
			{
				Name: "version",
				Run: func(_ context.Context, args []string, _ *slog.Logger) error {
					called = "version"
					return nil
				},
			},
			{
				Name: "list",
				Run: func(_ context.Context, args []string, _ *slog.Logger) error {
					called = "list"
					return nil
				},
			},
		},
	}

	if err := root.Execute(context.Background(), []string{"list"}); err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if called != "list" {
		t.Errorf("dispatched to %q, want %q", called, "list")
	}
}

func TestCommand_Execute_ParamsFlags(t *testing.T) {
	type createParams struct {
		JSONOutput
		Dimensions string `flag:"dimensions,d" desc:"board size"`
		X          int    `flag:"x" desc:"column"`
	}
	var params createParams
	var receivedArgs []string

	root := &Command{
		Name:   "lifeboard",
		Logger: discardLogger(),
		Subcommands: []*Command{
			{
				Name:   "create",
				Params: func() any { return &params },
				Run: func(_ context.Context, args []string, _ *slog.Logger) error {
					receivedArgs = args
					return nil
				},
			},
		},
	}

	err := root.Execute(context.Background(), []string{"create", "-d", "10x12", "--x", "3", "--json", "my board"})
	if err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if params.Dimensions != "10x12" || params.X != 3 || !params.OutputJSON {
		t.Errorf("params = %+v", params)
	}
	if len(receivedArgs) != 1 || receivedArgs[0] != "my board" {
		t.Errorf("args = %v, want [my board]", receivedArgs)
	}
}

func TestCommand_Execute_UnknownCommandSuggestion(t *testing.T) {
	root := &Command{
		Name: "lifeboard",
		Subcommands: []*Command{
			{Name: "create", Run: func(context.Context, []string, *slog.Logger) error { return nil }},
			{Name: "delete", Run: func(context.Context, []string, *slog.Logger) error { return nil }},
		},
	}

	err := root.Execute(context.Background(), []string{"craete"})
	if err == nil {
		t.Fatal("expected error for unknown command")
	}
	if !strings.Contains(err.Error(), `did you mean "create"`) {
		t.Errorf("error = %q, want a suggestion for create", err)
	}
	var toolError *ToolError
	if !errors.As(err, &toolError) || toolError.Category != CategoryValidation {
		t.Errorf("error = %#v, want a validation ToolError", err)
	}
}

func TestCommand_Execute_UnknownFlagSuggestion(t *testing.T) {
	type params struct {
		Running bool   `flag:"running" desc:"start running"`
		Rules   string `flag:"rules" desc:"rule set"`
	}
	var p params
	command := &Command{
		Name:   "create",
		Params: func() any { return &p },
		Run:    func(context.Context, []string, *slog.Logger) error { return nil },
	}

	err := command.Execute(context.Background(), []string{"--rulse", "B3/S23"})
	if err == nil {
		t.Fatal("expected error for unknown flag")
	}
	if !strings.Contains(err.Error(), "did you mean --rules?") {
		t.Errorf("error = %q, want a suggestion for --rules", err)
	}
	if !strings.Contains(err.Error(), "Run 'create --help' for usage.") {
		t.Errorf("error = %q, want the help pointer", err)
	}
}

func TestCommand_Execute_SubcommandRequired(t *testing.T) {
	var help bytes.Buffer
	root := &Command{
		Name:       "lifeboard",
		HelpOutput: &help,
		Subcommands: []*Command{
			{Name: "list", Summary: "List boards"},
		},
	}

	err := root.Execute(context.Background(), nil)
	if err == nil || !strings.Contains(err.Error(), "subcommand required") {
		t.Errorf("Execute() error = %v, want subcommand required", err)
	}
	if !strings.Contains(help.String(), "list") || !strings.Contains(help.String(), "List boards") {
		t.Errorf("help output missing the command listing:\n%s", help.String())
	}
}

func TestCommand_PrintHelp(t *testing.T) {
	type params struct {
		Pattern string `flag:"pattern,p" desc:"pattern to stamp"`
	}
	var p params
	var help bytes.Buffer
	root := &Command{
		Name:       "lifeboard",
		HelpOutput: &help,
		Subcommands: []*Command{
			{
				Name:        "create",
				Summary:     "Create a board",
				Description: "Create a board with a name.",
				Usage:       "lifeboard create <name> [flags]",
				Params:      func() any { return &p },
				Examples: []Example{
					{Description: "A glider board", Command: "lifeboard create demo --pattern glider"},
				},
				Run: func(context.Context, []string, *slog.Logger) error { return nil },
			},
		},
	}

	if err := root.Execute(context.Background(), []string{"create", "--help"}); err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	output := help.String()
	for _, want := range []string{
		"Create a board with a name.",
		"lifeboard create <name> [flags]",
		"--pattern",
		"pattern to stamp",
		"# A glider board",
		"lifeboard create demo --pattern glider",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("help output missing %q:\n%s", want, output)
		}
	}
}

func TestCommand_Execute_PassesLoggerAndContext(t *testing.T) {
	logger := discardLogger()
	type contextKey struct{}
	ctx := context.WithValue(context.Background(), contextKey{}, "value")

	root := &Command{
		Name:   "lifeboard",
		Logger: logger,
		Subcommands: []*Command{
			{
				Name: "status",
				Run: func(ctx context.Context, _ []string, received *slog.Logger) error {
					if received != logger {
						t.Error("Run received a different logger")
					}
					if ctx.Value(contextKey{}) != "value" {
						t.Error("Run received a different context")
					}
					return nil
				},
			},
		},
	}
	if err := root.Execute(ctx, []string{"status"}); err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
}
