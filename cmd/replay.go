package cmd

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/LieutenantJoseph/flashfungi/internal/events"
)

var replayCmd = &cobra.Command{
	Use:   "replay [file]",
	Short: "Feed JSON-lines event envelopes through the achievement engine",
	Long: "Read one JSON event envelope per line from a file (or stdin) and apply " +
		"them. Envelopes already applied are skipped, so replaying a file twice is safe.",
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		var in io.Reader = cmd.InOrStdin()
		if len(args) == 1 && args[0] != "-" {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("open events: %w", err)
			}
			defer f.Close()
			in = f
		}

		envs, err := readEnvelopes(in)
		if err != nil {
			return err
		}

		rt, err := openDeps(ctx, cmd)
		if err != nil {
			return err
		}
		defer rt.close()

		awards, err := rt.service.ProcessBatch(ctx, envs)
		printAwards(cmd.OutOrStdout(), awards)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Applied %d events, %d new achievements\n", len(envs), len(awards))
		return nil
	},
}

func readEnvelopes(r io.Reader) ([]events.Envelope, error) {
	var envs []events.Envelope
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	line := 0
	for sc.Scan() {
		line++
		b := sc.Bytes()
		if len(b) == 0 {
			continue
		}
		var env events.Envelope
		if err := json.Unmarshal(b, &env); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if err := env.Validate(); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		envs = append(envs, env)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read events: %w", err)
	}
	return envs, nil
}
