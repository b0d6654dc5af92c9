package main

import (
	"fmt"
	"slices"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"opdclaims/internal/claims/policy"
)

var policyCmd = &cobra.Command{
	Use:   "policy",
	Short: "Show or validate policy terms",
}

var policyShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the active policy terms",
	RunE:  runPolicyShow,
}

var policyValidateCmd = &cobra.Command{
	Use:   "validate FILE",
	Short: "Check that a policy terms file parses and is complete",
	Args:  cobra.ExactArgs(1),
	RunE:  runPolicyValidate,
}

func init() {
	policyCmd.AddCommand(policyShowCmd)
	policyCmd.AddCommand(policyValidateCmd)
}

func runPolicyShow(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	terms, err := policy.LoadOrDefault(cfg.PolicyFile)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	t := newTable(out, "Field", "Value")
	t.AppendRows([]table.Row{
		{"Policy", fmt.Sprintf("%s (%s)", terms.PolicyName, terms.PolicyID)},
		{"Effective", terms.EffectiveDate},
		{"Hash", terms.Hash()},
		{"Annual limit", rupees(terms.Coverage.AnnualLimit)},
		{"Per-claim limit", rupees(terms.Coverage.PerClaimLimit)},
		{"Minimum claim", rupees(terms.ClaimRequirements.MinimumClaimAmount)},
		{"Initial waiting", fmt.Sprintf("%d days", terms.WaitingPeriods.InitialWaiting)},
		{"Network hospitals", len(terms.NetworkHospitals)},
		{"Exclusions", len(terms.Exclusions)},
	})
	t.Render()

	names := make([]string, 0, len(terms.Coverage.Categories))
	for name := range terms.Coverage.Categories {
		names = append(names, name)
	}
	slices.Sort(names)

	ct := newTable(out, "Category", "Covered", "Sub-limit", "Copay %", "Network discount %", "Pre-auth")
	for _, name := range names {
		c := terms.Coverage.Categories[name]
		sub := "-"
		if c.SubLimit != nil {
			sub = rupees(*c.SubLimit)
		}
		ct.AppendRow(table.Row{name, c.Covered, sub, c.CopayPercentage, c.NetworkDiscount, c.PreAuthorizationRequired})
	}
	rightAlign(ct, 3, 4, 5)
	ct.Render()
	return nil
}

func runPolicyValidate(cmd *cobra.Command, args []string) error {
	terms, err := policy.Load(args[0])
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s: ok (%s, hash %s)\n", args[0], terms.PolicyID, terms.Hash())
	return nil
}
