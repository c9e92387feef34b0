package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"lead-reconciliation/internal/export"
	"lead-reconciliation/internal/report"
)

type runFunc func(ctx context.Context, a *app, args []string) error

// withApp wires the application for one subcommand run and tears it down after.
func withApp(opts *rootOptions, run runFunc) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := newApp(ctx, opts)
		if err != nil {
			return err
		}
		defer a.Close()
		return run(ctx, a, args)
	}
}

func newTemplateCmd(opts *rootOptions) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "template",
		Short: "Build the account-issuance workbook for the current lead batch",
		RunE: withApp(opts, func(ctx context.Context, a *app, _ []string) error {
			leads, err := a.uc.FetchLeads(ctx)
			if err != nil {
				return err
			}
			res, err := a.uc.Template(ctx, leads)
			if err != nil {
				return err
			}

			path := output
			if path == "" {
				path = fmt.Sprintf("template-export-%s.xlsx", today())
			}
			if err := writeFile(path, func(w io.Writer) error {
				return export.RenderXLSX(w, res.Document)
			}); err != nil {
				return err
			}

			a.logger.Info("template written",
				zap.String("run_id", res.RunID),
				zap.String("path", path),
				zap.Int("issued", len(res.Assignments)),
				zap.Int("excluded", res.Excluded))
			return nil
		}),
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output workbook (default: template-export-<date>.xlsx)")
	return cmd
}

func newExportCmd(opts *rootOptions) *cobra.Command {
	var (
		format  string
		output  string
		exp     export.Options
		filters filterFlags
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export summary, deals and duplicate sheets",
		RunE: withApp(opts, func(ctx context.Context, a *app, _ []string) error {
			f, ok := export.ParseFormat(format)
			if !ok {
				return fmt.Errorf("invalid --format %q: must be xlsx, csv or json", format)
			}
			filter, err := filters.build()
			if err != nil {
				return err
			}

			leads, err := a.uc.FetchLeads(ctx)
			if err != nil {
				return err
			}
			bundle, err := a.uc.Export(filter.Apply(leads), exp)
			if err != nil {
				return err
			}

			out := export.OutputFor(bundle, f)
			path := output
			switch {
			case path == "":
				path = export.FileName(exp, out.Ext, time.Now())
			case filepath.Ext(path) == "":
				path += out.Ext
			}
			if err := writeFile(path, func(w io.Writer) error {
				return export.Render(w, bundle, f)
			}); err != nil {
				return err
			}

			a.logger.Info("export written",
				zap.String("path", path),
				zap.String("format", string(f)),
				zap.Strings("sections", exp.Sections()))
			return nil
		}),
	}
	cmd.Flags().StringVar(&format, "format", string(export.FormatXLSX), "Output format: xlsx, csv or json")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file; the extension is added when missing")
	cmd.Flags().BoolVar(&exp.Summary, "summary", false, "Include the school-ward summary")
	cmd.Flags().BoolVar(&exp.Deals, "deals", false, "Include every deal")
	cmd.Flags().BoolVar(&exp.Duplicates, "duplicates", false, "Include duplicate groups")
	cmd.Flags().BoolVar(&exp.Flat, "flat", false, "List duplicates one per row instead of grouped")
	filters.register(cmd)
	return cmd
}

func newReportCmd(opts *rootOptions) *cobra.Command {
	var filters filterFlags

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print analytics, school-ward statistics and duplicate groups as JSON",
		RunE: withApp(opts, func(ctx context.Context, a *app, _ []string) error {
			filter, err := filters.build()
			if err != nil {
				return err
			}
			leads, err := a.uc.FetchLeads(ctx)
			if err != nil {
				return err
			}
			res, err := a.uc.Analyze(filter.Apply(leads))
			if err != nil {
				return err
			}
			return writeJSON(os.Stdout, res)
		}),
	}
	filters.register(cmd)
	return cmd
}

func newSalesCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "sales",
		Short: "Print issued accounts against registrations per school as JSON",
		RunE: withApp(opts, func(ctx context.Context, a *app, _ []string) error {
			res, err := a.uc.SalesReport(ctx)
			if err != nil {
				return err
			}
			return writeJSON(os.Stdout, res)
		}),
	}
}

func newDisableCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "disable <lead-id>",
		Short: "Soft-disable one lead in the CRM",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(opts, func(ctx context.Context, a *app, args []string) error {
			return a.uc.DisableLead(ctx, args[0])
		}),
	}
}

func newDedupeDisableCmd(opts *rootOptions) *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "dedupe-disable",
		Short: "Soft-disable the later record of every exact duplicate pair",
		RunE: withApp(opts, func(ctx context.Context, a *app, _ []string) error {
			leads, err := a.uc.FetchLeads(ctx)
			if err != nil {
				return err
			}
			res, err := a.uc.DisableExactDuplicates(ctx, leads, dryRun)
			if err != nil {
				return err
			}
			if err := writeJSON(os.Stdout, res); err != nil {
				return err
			}
			if len(res.Failed) > 0 {
				return fmt.Errorf("%d of %d leads could not be disabled", len(res.Failed), len(res.Failed)+len(res.Disabled))
			}
			return nil
		}),
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Report what would be disabled without touching the CRM")
	return cmd
}

// filterFlags binds report.Filter to command-line flags.
type filterFlags struct {
	filter      report.Filter
	email       string
	schoolState string
	from        string
	to          string
}

func (f *filterFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVar(&f.filter.Query, "query", "", "Match student, parent, email or phone")
	fs.StringVar(&f.filter.Grade, "grade", "", "Only this grade")
	fs.StringVar(&f.filter.School, "school", "", "Only this school")
	fs.StringVar(&f.filter.Ward, "ward", "", "Only this ward")
	fs.StringVar(&f.filter.SchoolWardPair, "school-ward", "", `Only this "school - ward" pair`)
	fs.BoolVar(&f.filter.DuplicateEmail, "duplicate-email", false, "Only leads whose email appears more than once")
	fs.StringVar(&f.email, "email", "", "Email validity: valid or invalid")
	fs.StringVar(&f.schoolState, "school-state", "", "School validity: valid or invalid_empty")
	fs.StringVar(&f.from, "from", "", "Created on or after this date (YYYY-MM-DD)")
	fs.StringVar(&f.to, "to", "", "Created on or before this date (YYYY-MM-DD)")
}

func (f *filterFlags) build() (report.Filter, error) {
	filter := f.filter

	switch v := report.EmailValidity(strings.ToLower(f.email)); v {
	case report.EmailAny, report.EmailValid, report.EmailInvalid:
		filter.Email = v
	default:
		return report.Filter{}, fmt.Errorf("invalid --email %q: must be valid or invalid", f.email)
	}
	switch v := report.SchoolValidity(strings.ToLower(f.schoolState)); v {
	case report.SchoolAny, report.SchoolValid, report.SchoolEmpty:
		filter.SchoolState = v
	default:
		return report.Filter{}, fmt.Errorf("invalid --school-state %q: must be valid or invalid_empty", f.schoolState)
	}

	var err error
	if filter.Start, err = parseDay("from", f.from); err != nil {
		return report.Filter{}, err
	}
	if filter.End, err = parseDay("to", f.to); err != nil {
		return report.Filter{}, err
	}
	return filter, nil
}

func parseDay(flag, s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.ParseInLocation(time.DateOnly, s, report.Location)
	if err != nil {
		return nil, fmt.Errorf("invalid --%s %q: %w", flag, s, err)
	}
	return &t, nil
}

func today() string {
	return time.Now().In(report.Location).Format(time.DateOnly)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// writeFile renders into path, removing the partial file on failure.
func writeFile(path string, render func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := render(f); err != nil {
		f.Close()
		os.Remove(path)
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
