package main

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/target/adverity-fetchbot/internal/domain/command"
	"github.com/target/adverity-fetchbot/internal/domain/model"
	apperrors "github.com/target/adverity-fetchbot/internal/errors"
)

func newParseCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "parse <stream> <DD.MM.-DD.MM.YY>",
		Short: "Parse slash command text without triggering a job",
		Long: `Parse runs the /fetch parser against the configured stream catalog and
prints the resolved datastream id and ISO date range.

Examples:
  fetchbot-admin parse meta 01.06.-02.06.25
  fetchbot-admin parse "google 30.12.24-02.01.25"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			parser := command.NewParser(command.ParserOptions{
				Streams:     a.cfg.Adverity.Streams,
				CommandName: a.cfg.Slack.CommandName,
			})
			parsed, err := parser.Parse(strings.Join(args, " "))
			if err != nil {
				if hint := apperrors.GetHint(err); hint != "" {
					return fmt.Errorf("%w (%s)", err, hint)
				}
				return err
			}
			out := cmd.OutOrStdout()
			_, err = fmt.Fprintf(out, "stream: %s (%s)\nstart:  %s\nend:    %s\n",
				parsed.StreamName, parsed.StreamID, parsed.Start, parsed.End)
			return err
		},
	}
}

func newStatusCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status <job-id>",
		Short: "Show the current Adverity state of a job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.services(cmd.Context())
			if err != nil {
				return err
			}
			if svc.Adverity == nil {
				return apperrors.ConfigurationMissing(a.cfg.Adverity.MissingKeys()...)
			}
			res, err := svc.Adverity.JobStatus(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			status, terminal := res.Classify()
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "job %s: %s (%s, terminal=%t)\n%s\n",
				res.JobID, res.Label, status, terminal, svc.Adverity.JobURL(res.JobID))
			return err
		},
	}
}

func newCheckOpenCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "check-open",
		Short: "Poll every open job in the audit log once and notify finished ones",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := a.services(cmd.Context())
			if err != nil {
				return err
			}
			if svc.Resume == nil {
				return apperrors.ConfigurationMissing(a.cfg.Adverity.MissingKeys()...)
			}
			sum, err := svc.Resume.CheckOpen(cmd.Context())
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(sum)
		},
	}
}

func newListOpenCmd(a *app) *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "list-open",
		Short: "List audit rows that are still running or were never notified",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := a.services(cmd.Context())
			if err != nil {
				return err
			}
			rows, err := svc.Audit.Rows(cmd.Context())
			if err != nil {
				return err
			}
			return printRows(cmd, rows, all)
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "include finished and notified rows")
	return cmd
}

func printRows(cmd *cobra.Command, rows []model.AuditRow, all bool) error {
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	if _, err := fmt.Fprintln(tw, "ROW\tJOB\tSTATUS\tSTREAM\tRANGE\tREQUESTER\tNOTIFIED"); err != nil {
		return err
	}
	for _, row := range rows {
		if !all && !row.Open() && !row.NeedsNotification() {
			continue
		}
		notified := row.NotifiedAt
		if notified == "" {
			notified = "-"
		}
		if _, err := fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s..%s\t%s\t%s\n",
			row.Position, row.JobID, row.Status, row.Stream, row.Start, row.End, row.UserID, notified); err != nil {
			return err
		}
	}
	return tw.Flush()
}

func newSheetInitCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "sheet-init",
		Short: "Write the audit log header row",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := a.services(cmd.Context())
			if err != nil {
				return err
			}
			if svc.Sheets == nil {
				return apperrors.ConfigurationMissing("GOOGLE_SHEET_ID", "GOOGLE_CREDENTIALS_FILE or GOOGLE_CREDENTIALS_JSON")
			}
			if err := svc.Sheets.WriteHeader(cmd.Context()); err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "header written to %s\n", a.cfg.Sheets.Tab)
			return err
		},
	}
}
