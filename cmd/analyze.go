package main

import (
	"encoding/json"
	"io"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/pitchscore/internal/api"
	"github.com/sells-group/pitchscore/internal/scoring"
)

var (
	analyzeFile   string
	analyzePretty bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Score a submission JSON and print the analysis",
	Long:  "Reads a submission ({\"form\": {...}} or a bare submission) from --file or stdin and prints the analysis as JSON.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		engine, err := initEngine(cfg.Scoring)
		if err != nil {
			return err
		}

		in, err := openInput(analyzeFile, cmd.InOrStdin())
		if err != nil {
			return err
		}
		defer in.Close() //nolint:errcheck

		return runAnalyze(in, cmd.OutOrStdout(), engine, analyzePretty)
	},
}

// openInput opens path, or wraps stdin when path is empty or "-".
func openInput(path string, stdin io.Reader) (io.ReadCloser, error) {
	if path == "" || path == "-" {
		return io.NopCloser(stdin), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "open %s", path)
	}
	return f, nil
}

func runAnalyze(in io.Reader, out io.Writer, engine *scoring.Engine, pretty bool) error {
	data, err := io.ReadAll(in)
	if err != nil {
		return eris.Wrap(err, "read submission")
	}
	sub, err := api.DecodeSubmission(data)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(out)
	if pretty {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(engine.Analyze(sub))
}

func init() {
	analyzeCmd.Flags().StringVar(&analyzeFile, "file", "-", "submission JSON path, or - for stdin")
	analyzeCmd.Flags().BoolVar(&analyzePretty, "pretty", false, "indent the JSON output")
	rootCmd.AddCommand(analyzeCmd)
}
