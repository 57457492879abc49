package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"nextstep-backend/internal/tasks"
)

func demoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "demo",
		Short: "Interactive terminal demo of the decision engine",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := bootstrap(false)
			if err != nil {
				return err
			}
			defer a.close()

			gw := a.gateway()
			if gw.Err() != nil {
				fmt.Fprintln(cmd.OutOrStdout(), "WARNING: No GROQ_API_KEY found. Engine will fail.")
			}

			engine := tasks.NewEngine(gw, a.recorder, a.logger.Named("engine"))
			return runDemo(cmd.Context(), engine, os.Stdin, cmd.OutOrStdout())
		},
	}
}

type suggester interface {
	GetAdaptiveSubtask(ctx context.Context, taskText, taskType string) (tasks.Suggestion, error)
}

func runDemo(ctx context.Context, engine suggester, in io.Reader, out io.Writer) error {
	fmt.Fprintln(out, "=== Adaptive Procrastination Agent (Terminal Demo) ===")

	sc := bufio.NewScanner(in)
	read := func(prompt string) (string, bool) {
		fmt.Fprint(out, prompt)
		if !sc.Scan() {
			return "", false
		}
		return strings.TrimSpace(sc.Text()), true
	}

	for {
		task, ok := read("\nEnter your task (or 'q' to quit): ")
		if !ok || strings.EqualFold(task, "q") {
			return sc.Err()
		}
		if task == "" {
			continue
		}

		taskType, ok := read("Task Type (work/study/chores) [default: general]: ")
		if !ok {
			return sc.Err()
		}

		fmt.Fprintln(out, "\nThinking...")
		s, err := engine.GetAdaptiveSubtask(ctx, task, taskType)
		if err != nil {
			fmt.Fprintf(out, "Error: %v\n", err)
			continue
		}

		fmt.Fprintf(out, "\n>>> SUGGESTION (%s): %s\n", s.Size, s.Subtask)
		fmt.Fprintf(out, "    (Derived from: %s)\n", s.OriginalSubtask)
	}
}
