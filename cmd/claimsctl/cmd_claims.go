package main

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"opdclaims/internal/claims/models"
)

var claimsFlags struct {
	member string
	status string
	skip   int
	limit  int
}

var claimsCmd = &cobra.Command{
	Use:   "claims",
	Short: "Inspect adjudicated claims",
}

var claimsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List claims, newest first",
	RunE:  runClaimsList,
}

func init() {
	f := claimsListCmd.Flags()
	f.StringVar(&claimsFlags.member, "member", "", "only claims of this member")
	f.StringVar(&claimsFlags.status, "status", "", "only claims in this status")
	f.IntVar(&claimsFlags.skip, "skip", 0, "claims to skip")
	f.IntVar(&claimsFlags.limit, "limit", models.DefaultListLimit, "maximum claims to list")
	claimsCmd.AddCommand(claimsListCmd)
}

func runClaimsList(cmd *cobra.Command, _ []string) error {
	filter := models.ClaimFilter{
		MemberID: claimsFlags.member,
		Skip:     claimsFlags.skip,
		Limit:    claimsFlags.limit,
	}
	if claimsFlags.status != "" {
		status, err := models.ParseClaimStatus(claimsFlags.status)
		if err != nil {
			return err
		}
		filter.Status = status
	}

	ctx := cmd.Context()
	a, err := openApp(ctx, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer a.Close()

	claims, err := a.svc.ListClaims(ctx, filter)
	if err != nil {
		return err
	}
	t := newTable(cmd.OutOrStdout(), "Claim", "Member", "Treatment", "Status", "Category", "Total", "Approved")
	for _, c := range claims {
		approved := "-"
		if c.ApprovedAmount != nil {
			approved = rupees(*c.ApprovedAmount)
		}
		t.AppendRow(table.Row{
			c.ID, c.MemberID, c.TreatmentDate.Format("2006-01-02"),
			c.Status, c.Category, rupees(c.TotalAmount), approved,
		})
	}
	rightAlign(t, 6, 7)
	t.Render()
	return nil
}
