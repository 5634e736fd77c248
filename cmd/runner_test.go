package main

import (
	"bytes"
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/tracklab/internal/models"
	"github.com/desertthunder/tracklab/internal/shared"
	tu "github.com/desertthunder/tracklab/internal/testing"
	"github.com/urfave/cli/v3"
)

func TestRunner(t *testing.T) {
	t.Run("NewRunner", func(t *testing.T) {
		t.Run("with all dependencies provided", func(t *testing.T) {
			config := shared.DefaultConfig()
			logger := shared.NewLogger(nil)
			output := &bytes.Buffer{}
			catalog := &tu.MockCatalog{}

			runner := NewRunner(RunnerOpts{
				Config:  config,
				Logger:  logger,
				Output:  output,
				Catalog: catalog,
			})

			if runner.config != config {
				t.Error("expected config to be set")
			}
			if runner.logger != logger {
				t.Error("expected logger to be set")
			}
			if runner.output != output {
				t.Error("expected output to be set")
			}
			if runner.catalog != catalog {
				t.Error("expected catalog to be set")
			}
		})

		t.Run("with nil config uses defaults", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})
			if runner.config == nil {
				t.Error("expected default config to be set")
			}
			if runner.config.Cache.TTLHours != 24 {
				t.Errorf("unexpected default TTL: %d", runner.config.Cache.TTLHours)
			}
		})

		t.Run("with nil logger uses default", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})
			if runner.logger == nil {
				t.Error("expected default logger to be set")
			}
		})

		t.Run("with nil output uses stdout", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})
			if runner.output != os.Stdout {
				t.Error("expected stdout output")
			}
		})
	})

	t.Run("writeJSON", func(t *testing.T) {
		t.Run("writes formatted JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writeJSON(map[string]string{"key": "value"}, true); err != nil {
				t.Fatalf("writeJSON failed: %v", err)
			}
			if !strings.Contains(output.String(), "\"key\": \"value\"") {
				t.Errorf("unexpected output: %s", output.String())
			}
		})

		t.Run("writes compact JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writeJSON(map[string]string{"key": "value"}, false); err != nil {
				t.Fatalf("writeJSON failed: %v", err)
			}
			if output.String() != "{\"key\":\"value\"}\n" {
				t.Errorf("unexpected output: %q", output.String())
			}
		})

		t.Run("handles marshal error with non-serializable data", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &bytes.Buffer{}})
			if err := runner.writeJSON(make(chan int), false); err == nil {
				t.Error("expected marshal error")
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})
			if err := runner.writeJSON("data", false); err == nil {
				t.Error("expected write error")
			}
		})
	})

	t.Run("writePlain", func(t *testing.T) {
		t.Run("writes formatted text", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writePlain("count: %d\n", 3); err != nil {
				t.Fatalf("writePlain failed: %v", err)
			}
			if output.String() != "count: 3\n" {
				t.Errorf("unexpected output: %q", output.String())
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})
			if err := runner.writePlain("text"); err == nil {
				t.Error("expected write error")
			}
		})
	})

	t.Run("register", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{})
		commands := runner.register()

		if len(commands) != 6 {
			t.Fatalf("expected 6 commands, got %d", len(commands))
		}

		names := make(map[string]bool)
		for _, command := range commands {
			names[command.Name] = true
		}
		for _, want := range []string{"setup", "auth", "analyze", "recommend", "cache", "tui"} {
			if !names[want] {
				t.Errorf("missing command %s", want)
			}
		}
	})

	t.Run("bulk accepts variadic ids", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{})
		analyze := analyzeCommand(runner)

		var bulk *cli.Command
		for _, command := range analyze.Commands {
			if command.Name == "bulk" {
				bulk = command
			}
		}
		if bulk == nil {
			t.Fatal("missing bulk subcommand")
		}

		ids, ok := bulk.Arguments[0].(*cli.StringArgs)
		if !ok {
			t.Fatalf("expected *cli.StringArgs, got %T", bulk.Arguments[0])
		}
		if ids.Name != "ids" || ids.Max != -1 {
			t.Errorf("unexpected ids argument: name=%s max=%d", ids.Name, ids.Max)
		}
	})

	t.Run("printReportSummary", func(t *testing.T) {
		output := &bytes.Buffer{}
		runner := NewRunner(RunnerOpts{Output: output})

		invalid := models.NewTrackRecord(models.Track{ID: "t1", Name: "Broken"})
		invalid.AddErrors("missing preview")
		invalid.Finalize()

		report := &models.PlaylistReport{
			Name:        "Summary Test",
			Owner:       "owner",
			Tracks:      []*models.TrackRecord{invalid},
			Analytics:   models.NewPlaylistAnalytics(),
			GeneratedAt: time.Now(),
		}
		report.Analytics.TotalTracks = 1
		report.Analytics.InvalidPreviews = 1
		report.Analytics.GenreDistribution = map[string]int{"indie": 1}

		runner.printReportSummary(report)
		text := output.String()

		for _, want := range []string{"Summary Test", "Invalid previews: 1", "indie (1 tracks)", "✗ Broken", "missing preview"} {
			if !strings.Contains(text, want) {
				t.Errorf("summary missing %q in:\n%s", want, text)
			}
		}
	})

	t.Run("Close runs teardown in reverse order", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{})

		var order []int
		runner.teardown = append(runner.teardown,
			func() { order = append(order, 1) },
			func() { order = append(order, 2) })

		runner.Close()
		if len(order) != 2 || order[0] != 2 || order[1] != 1 {
			t.Errorf("unexpected teardown order: %v", order)
		}
		if runner.teardown != nil {
			t.Error("expected teardown list cleared")
		}
	})
}

func TestAuthVerify(t *testing.T) {
	t.Run("uses injected catalog", func(t *testing.T) {
		output := &bytes.Buffer{}
		runner := NewRunner(RunnerOpts{
			Output:  output,
			Catalog: &tu.MockCatalog{},
		})

		if err := runner.AuthVerify(context.Background(), authCommand(runner).Commands[0]); err != nil {
			t.Fatalf("verify failed: %v", err)
		}
		if !strings.Contains(output.String(), "mock") {
			t.Errorf("unexpected output: %s", output.String())
		}
	})

	t.Run("missing credentials", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{Output: &bytes.Buffer{}})

		err := runner.AuthVerify(context.Background(), authCommand(runner).Commands[0])
		if err == nil {
			t.Fatal("expected error without credentials")
		}
	})
}
