// Command claimsctl adjudicates claims against a local SQLite ledger and
// inspects members, claims and policy terms.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"opdclaims/internal/platform/config"
)

var version = "dev"

var globalFlags struct {
	ledger string
	policy string
}

var rootCmd = &cobra.Command{
	Use:   "claimsctl",
	Short: "Adjudicate OPD claims from the command line",
	Long:  "claimsctl runs the claim adjudication service against a local SQLite ledger.\nConfiguration is read from the environment and an optional .env file.",
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
	SilenceUsage: true,
}

// v carries environment configuration with flag overrides bound to the
// same keys.
var v = viper.New()

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&globalFlags.ledger, "ledger", "claims.db", "SQLite ledger path")
	pf.StringVar(&globalFlags.policy, "policy", "", "policy terms YAML (defaults to the embedded policy)")
	_ = v.BindPFlag("POLICY_FILE", pf.Lookup("policy"))

	v.SetConfigFile(".env")
	v.SetConfigType("env")
	config.Bind(v)
	_ = v.ReadInConfig()

	rootCmd.AddCommand(adjudicateCmd)
	rootCmd.AddCommand(membersCmd)
	rootCmd.AddCommand(claimsCmd)
	rootCmd.AddCommand(policyCmd)
	rootCmd.AddCommand(tokenCmd)
	rootCmd.Version = version
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
