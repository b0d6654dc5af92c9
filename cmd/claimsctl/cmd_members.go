package main

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var membersCmd = &cobra.Command{
	Use:   "members",
	Short: "List or seed members in the ledger",
}

var membersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List members with their annual limit usage",
	RunE:  runMembersList,
}

var membersSeedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Add the demo members EMP001 to EMP010 if missing",
	RunE:  runMembersSeed,
}

func init() {
	membersCmd.AddCommand(membersListCmd)
	membersCmd.AddCommand(membersSeedCmd)
}

func runMembersList(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	a, err := openApp(ctx, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer a.Close()

	members, err := a.svc.ListMembers(ctx)
	if err != nil {
		return err
	}
	t := newTable(cmd.OutOrStdout(), "ID", "Name", "Policy", "Joined", "Gender", "Limit used")
	for _, m := range members {
		t.AppendRow(table.Row{m.ID, m.Name, m.PolicyID, m.JoinDate.Format("2006-01-02"), m.Gender, rupees(m.AnnualLimitUsed)})
	}
	rightAlign(t, 6)
	t.AppendFooter(table.Row{"", "", "", "", "Total", len(members)})
	t.Render()
	return nil
}

func runMembersSeed(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	a, err := openApp(ctx, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer a.Close()

	added, err := a.svc.SeedMembers(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d member(s) into %s\n", added, globalFlags.ledger)
	return nil
}
