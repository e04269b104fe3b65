package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/pitchscore/internal/api"
	"github.com/sells-group/pitchscore/internal/export"
	"github.com/sells-group/pitchscore/internal/model"
	"github.com/sells-group/pitchscore/internal/notify"
	"github.com/sells-group/pitchscore/internal/store"
)

var recordsCmd = &cobra.Command{
	Use:   "records",
	Short: "Inspect and manage founder records",
	Long:  "Commands for listing, viewing, exporting, publishing, and importing founder records.",
}

// filterFlags maps CLI flag names to list query parameters.
var filterFlags = []struct {
	flag, param, usage string
}{
	{"sort", "sort", "sort key (created_at, ai_score)"},
	{"order", "order", "sort order (asc, desc)"},
	{"min-revenue", "min_revenue", "minimum revenue"},
	{"max-revenue", "max_revenue", "maximum revenue"},
	{"min-ai", "min_ai", "minimum ai score"},
	{"max-ai", "max_ai", "maximum ai score"},
	{"min-margin", "min_margin", "minimum gross margin (percent)"},
	{"max-margin", "max_margin", "maximum gross margin (percent)"},
	{"min-ope-margin", "min_ope_margin", "minimum operating margin (percent)"},
	{"max-ope-margin", "max_ope_margin", "maximum operating margin (percent)"},
	{"tags", "tags", "comma-separated tags; records must carry all"},
	{"status", "status", "comma-separated statuses (draft, current, review, public)"},
}

func addFilterFlags(cmd *cobra.Command) {
	for _, f := range filterFlags {
		cmd.Flags().String(f.flag, "", f.usage)
	}
}

// filterFromFlags parses the filter flags with the same rules as the API.
func filterFromFlags(cmd *cobra.Command) (store.RecordFilter, error) {
	q := url.Values{}
	for _, f := range filterFlags {
		if v, _ := cmd.Flags().GetString(f.flag); v != "" {
			q.Set(f.param, v)
		}
	}
	if fl := cmd.Flags().Lookup("page"); fl != nil {
		q.Set("page", fl.Value.String())
	}
	if fl := cmd.Flags().Lookup("page-size"); fl != nil {
		q.Set("pageSize", fl.Value.String())
	}
	f, err := api.ParseFilter(q)
	if err != nil {
		return store.RecordFilter{}, eris.Wrap(err, "invalid filter")
	}
	return f, nil
}

// -- records list --

var recordsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List founder records",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		f, err := filterFromFlags(cmd)
		if err != nil {
			return err
		}

		st, err := openStore(ctx, cfg)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		page, err := st.ListRecords(ctx, f)
		if err != nil {
			return eris.Wrap(err, "records list")
		}
		if len(page.Data) == 0 {
			fmt.Fprintln(cmd.ErrOrStderr(), "No records found.")
			return nil
		}
		formatRecordsList(cmd.OutOrStdout(), page)
		return nil
	},
}

// -- records show --

var recordsShowCmd = &cobra.Command{
	Use:   "show <record-id>",
	Short: "Show full details of a record",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := openStore(ctx, cfg)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		rec, err := st.GetRecord(ctx, args[0])
		if err != nil {
			return eris.Wrap(err, "records show")
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(rec)
	},
}

// -- records export --

var (
	recordsExportOut    string
	recordsExportFormat string
)

var recordsExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export matching records as CSV or XLSX",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		format, err := exportFormat(recordsExportFormat, recordsExportOut)
		if err != nil {
			return err
		}
		f, err := filterFromFlags(cmd)
		if err != nil {
			return err
		}

		st, err := openStore(ctx, cfg)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		out := cmd.OutOrStdout()
		if recordsExportOut != "" && recordsExportOut != "-" {
			file, err := os.Create(recordsExportOut)
			if err != nil {
				return eris.Wrapf(err, "create %s", recordsExportOut)
			}
			defer file.Close() //nolint:errcheck
			out = file
		}

		n, err := exportRecords(ctx, st, f, format, out)
		if err != nil {
			return err
		}
		zap.L().Info("export complete",
			zap.Int("records", n),
			zap.String("format", string(format)),
			zap.String("out", recordsExportOut),
		)
		return nil
	},
}

// exportFormat picks the --format value, or xlsx when it is unset and the
// output file ends in .xlsx.
func exportFormat(flag, out string) (export.Format, error) {
	if flag == "" && strings.EqualFold(filepath.Ext(out), ".xlsx") {
		return export.FormatXLSX, nil
	}
	return export.ParseFormat(flag)
}

func exportRecords(ctx context.Context, st export.Lister, f store.RecordFilter, format export.Format, out io.Writer) (int, error) {
	records, err := export.Collect(ctx, st, f)
	if err != nil {
		return 0, eris.Wrap(err, "records export")
	}
	if err := export.Write(out, format, records); err != nil {
		return 0, err
	}
	return len(records), nil
}

// -- records publish --

var recordsPublishCmd = &cobra.Command{
	Use:   "publish <record-id>",
	Short: "Submit a record for review",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := openStore(ctx, cfg)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		notifier, err := initNotifier(ctx, cfg.Notify)
		if err != nil {
			return err
		}

		rec, err := publishRecord(ctx, st, notifier, args[0], time.Now().UTC())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s is now %s (submitted %s)\n",
			rec.ID, rec.Status, rec.SubmittedAt.Format(time.RFC3339))
		return nil
	},
}

func publishRecord(ctx context.Context, st store.Store, n notify.Notifier, id string, at time.Time) (*model.Record, error) {
	rec, err := st.RequestPublish(ctx, id, at)
	if err != nil {
		return nil, eris.Wrap(err, "records publish")
	}
	if err := n.PublishRequested(ctx, *rec); err != nil {
		zap.L().Warn("publish notification failed", zap.String("id", id), zap.Error(err))
	}
	return rec, nil
}

// -- records import --

var recordsImportFile string

var recordsImportCmd = &cobra.Command{
	Use:   "import",
	Short: "Bulk-load records from a JSON array",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		in, err := openInput(recordsImportFile, cmd.InOrStdin())
		if err != nil {
			return err
		}
		defer in.Close() //nolint:errcheck

		st, err := openStore(ctx, cfg)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		n, err := importRecords(ctx, st, in)
		if err != nil {
			return err
		}
		zap.L().Info("import complete",
			zap.Int64("records", n),
			zap.String("file", recordsImportFile),
		)
		return nil
	},
}

func importRecords(ctx context.Context, st store.Store, in io.Reader) (int64, error) {
	var inputs []model.RecordInput
	if err := json.NewDecoder(in).Decode(&inputs); err != nil {
		return 0, eris.Wrap(err, "decode records")
	}
	if len(inputs) == 0 {
		return 0, nil
	}
	n, err := st.ImportRecords(ctx, inputs)
	if err != nil {
		return 0, eris.Wrap(err, "records import")
	}
	return n, nil
}

func init() {
	recordsListCmd.Flags().Int("page", 1, "page number")
	recordsListCmd.Flags().Int("page-size", 10, "records per page (max 100)")
	addFilterFlags(recordsListCmd)
	addFilterFlags(recordsExportCmd)

	recordsExportCmd.Flags().StringVar(&recordsExportOut, "out", "", "output path (default stdout)")
	recordsExportCmd.Flags().StringVar(&recordsExportFormat, "format", "", "csv or xlsx (default csv, or xlsx for a .xlsx --out)")
	recordsImportCmd.Flags().StringVar(&recordsImportFile, "file", "", "JSON array of records (required)")
	_ = recordsImportCmd.MarkFlagRequired("file")

	recordsCmd.AddCommand(recordsListCmd)
	recordsCmd.AddCommand(recordsShowCmd)
	recordsCmd.AddCommand(recordsExportCmd)
	recordsCmd.AddCommand(recordsPublishCmd)
	recordsCmd.AddCommand(recordsImportCmd)
	rootCmd.AddCommand(recordsCmd)
}

// formatRecordsList writes a tabular page of records to w.
func formatRecordsList(out io.Writer, page *store.RecordPage) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tCOMPANY\tSTATUS\tAI_SCORE\tREVENUE\tGROSS_MARGIN\tCREATED")
	_, _ = fmt.Fprintln(w, "--\t-------\t------\t--------\t-------\t------------\t-------")

	for _, r := range page.Data {
		company := r.CompanyName
		if company == "" {
			company = r.Title
		}
		if runes := []rune(company); len(runes) > 40 {
			company = string(runes[:37]) + "..."
		}

		score := "-"
		if r.AIScore != nil {
			score = strconv.Itoa(*r.AIScore)
		}
		revenue := "-"
		if r.Revenue != nil {
			revenue = strconv.FormatFloat(*r.Revenue, 'f', -1, 64)
		}
		margin := "-"
		if r.GrossMargin != nil {
			margin = fmt.Sprintf("%.1f%%", *r.GrossMargin)
		}

		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			r.ID, company, r.Status, score, revenue, margin, r.CreatedAt.Format("2006-01-02 15:04"))
	}
	_ = w.Flush()
	_, _ = fmt.Fprintf(out, "\npage %d/%d (%d records)\n", page.Page, page.TotalPages, page.Total)
}
