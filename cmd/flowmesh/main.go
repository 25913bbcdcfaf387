// Command flowmesh validates and runs workflow manifests from the shell.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/hupe1980/flowmesh"
	"github.com/hupe1980/flowmesh/handler"
	"github.com/hupe1980/flowmesh/locator"
	"github.com/hupe1980/flowmesh/logging"
)

func main() {
	root := &cobra.Command{
		Use:   "flowmesh",
		Short: "Run and validate declarative flowmesh workflow manifests",
	}

	root.AddCommand(newValidateCommand())
	root.AddCommand(newRunCommand())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func newValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <manifest.yaml>",
		Short: "Parse and validate a manifest without executing it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e := flowmesh.New()
			m, err := e.Load(args[0])
			if err != nil {
				return err
			}
			fmt.Printf("%s: valid (%d steps)\n", m.Metadata.Name, len(m.Workflow))
			return nil
		},
	}
}

func newRunCommand() *cobra.Command {
	var (
		inputJSON  string
		agentsDir  string
		verbose    bool
		timeoutSec int
	)

	cmd := &cobra.Command{
		Use:   "run <manifest.yaml>",
		Short: "Execute a manifest against an optional JSON input payload",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var input any
			if inputJSON != "" {
				if err := json.Unmarshal([]byte(inputJSON), &input); err != nil {
					return fmt.Errorf("parsing --input: %w", err)
				}
			}

			opts := []flowmesh.Option{}
			if verbose {
				opts = append(opts, flowmesh.WithLogger(logging.NewSlogLogger(logging.LogLevelInfo, "text", false)))
			}
			if agentsDir != "" {
				opts = append(opts, flowmesh.WithLocator(locator.NewDirectory(agentsDir)))
			}
			e := flowmesh.New(opts...)

			ctx, cancel := context.WithTimeout(context.Background(), time.Duration(timeoutSec)*time.Second)
			defer cancel()

			out, err := e.RunFile(ctx, args[0], input)
			if err != nil {
				return err
			}

			if streamOut, ok := out.(handler.Output); ok && streamOut.IsStream() {
				return printStream(streamOut)
			}
			return printJSON(out)
		},
	}

	cmd.Flags().StringVar(&inputJSON, "input", "", "JSON-encoded input payload for $input references")
	cmd.Flags().StringVar(&agentsDir, "agents-dir", "", "directory of sibling manifests resolved by call-agent")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "enable structured step logging")
	cmd.Flags().IntVar(&timeoutSec, "timeout", 120, "execution timeout in seconds")
	return cmd
}

func printStream(out handler.Output) error {
	for chunk := range out.StreamValue().Chunks {
		if chunk.TextDelta != "" {
			fmt.Print(chunk.TextDelta)
		}
		if chunk.Err != nil {
			return chunk.Err
		}
		if chunk.Finished {
			fmt.Println()
			return printJSON(chunk.FinalRecord)
		}
	}
	return nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
