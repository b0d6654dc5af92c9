package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"opdclaims/internal/claims/handler"
	"opdclaims/internal/claims/models"
	"opdclaims/internal/claims/service"
)

var adjudicateFlags struct {
	file   string
	json   bool
	noSeed bool
	trail  bool
}

var adjudicateCmd = &cobra.Command{
	Use:   "adjudicate",
	Short: "Adjudicate a claim submission file",
	Long:  "Reads a submission in the POST /claims JSON shape and runs it through validation and decision.\nUse '-' to read from stdin.",
	RunE:  runAdjudicate,
}

func init() {
	f := adjudicateCmd.Flags()
	f.StringVarP(&adjudicateFlags.file, "file", "f", "", "submission JSON file (required)")
	f.BoolVar(&adjudicateFlags.json, "json", false, "print the full decision as JSON")
	f.BoolVar(&adjudicateFlags.noSeed, "no-seed", false, "do not seed the demo members first")
	f.BoolVar(&adjudicateFlags.trail, "trail", false, "also print the audit events recorded for the claim")
	_ = adjudicateCmd.MarkFlagRequired("file")
}

func readSubmission(path string) (models.Submission, error) {
	var r io.Reader = os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return models.Submission{}, err
		}
		defer f.Close()
		r = f
	}
	var req handler.SubmitClaimRequest
	if err := json.NewDecoder(r).Decode(&req); err != nil {
		return models.Submission{}, fmt.Errorf("decode submission: %w", err)
	}
	if err := req.Validate(); err != nil {
		return models.Submission{}, err
	}
	return req.Submission(), nil
}

func runAdjudicate(cmd *cobra.Command, _ []string) error {
	sub, err := readSubmission(adjudicateFlags.file)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	a, err := openApp(ctx, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer a.Close()

	if !adjudicateFlags.noSeed {
		if _, err := a.svc.SeedMembers(ctx); err != nil {
			return err
		}
	}

	adj, err := a.svc.Adjudicate(ctx, sub)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if adjudicateFlags.json {
		return writeJSON(out, struct {
			*service.Adjudication
			Decision   models.DecisionOutcome   `json:"decision"`
			Validation *models.ValidationResult `json:"validation"`
		}{adj, adj.Outcome, adj.Result})
	}
	renderAdjudication(out, adj)
	if !adjudicateFlags.trail {
		return nil
	}
	events, err := a.audit.List(ctx, adj.ClaimID)
	if err != nil {
		return err
	}
	t := newTable(out, "Time", "Action", "Category")
	for _, e := range events {
		t.AppendRow(table.Row{e.Timestamp.Format(time.TimeOnly), e.Action, e.Category})
	}
	t.Render()
	return nil
}

func renderAdjudication(out io.Writer, adj *service.Adjudication) {
	o := adj.Outcome
	t := newTable(out, "Field", "Value")
	t.AppendRows([]table.Row{
		{"Claim", adj.ClaimID},
		{"Decision", o.Decision},
		{"Approved", rupees(o.ApprovedAmount)},
		{"Rejected", rupees(o.RejectedAmount)},
		{"Confidence", fmt.Sprintf("%.2f", o.ConfidenceScore)},
		{"Reasons", joinOrDash(codes(o.RejectionReasons))},
		{"Flags", joinOrDash(o.Flags)},
		{"Next steps", o.NextSteps},
	})
	t.Render()

	if len(o.Deductions) > 0 {
		d := newTable(out, "Deduction", "Amount")
		for name, amount := range o.Deductions {
			d.AppendRow(table.Row{name, rupees(amount)})
		}
		d.SortBy([]table.SortBy{{Number: 1}})
		rightAlign(d, 2)
		d.Render()
	}

	if adj.Result != nil && len(adj.Result.Failed)+len(adj.Result.Warnings) > 0 {
		it := newTable(out, "Kind", "Code", "Message")
		for _, is := range adj.Result.Failed {
			it.AppendRow(table.Row{"failed", is.Code, is.Message})
		}
		for _, is := range adj.Result.Warnings {
			it.AppendRow(table.Row{"warning", is.Code, is.Message})
		}
		it.Render()
	}
}

func codes(cs []models.Code) []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = string(c)
	}
	return out
}
