package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/Sentinel-Gate/permkit/internal/adapter/outbound/fileconf"
	"github.com/Sentinel-Gate/permkit/internal/adapter/outbound/memory"
	"github.com/Sentinel-Gate/permkit/internal/enforcer"
)

var (
	enforceModelPath  string
	enforcePolicyPath string
)

var enforceCmd = &cobra.Command{
	Use:   "enforce <request-value>...",
	Short: "Evaluate one request against a model and policy file",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runEnforce,
}

func init() {
	enforceCmd.Flags().StringVar(&enforceModelPath, "model", "model.conf", "path to the PERM model file")
	enforceCmd.Flags().StringVar(&enforcePolicyPath, "policy", "policy.csv", "path to the policy file")
	rootCmd.AddCommand(enforceCmd)
}

func runEnforce(cmd *cobra.Command, args []string) error {
	m, err := fileconf.LoadModelFile(enforceModelPath)
	if err != nil {
		return fmt.Errorf("loading model: %w", err)
	}
	if err := fileconf.LoadPolicyFile(enforcePolicyPath, m); err != nil {
		return fmt.Errorf("loading policy: %w", err)
	}

	store := memory.NewPolicyStore(m)
	rm := memory.NewRoleManager(0)
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	enf, err := enforcer.New(m, store, rm, enforcer.WithLogger(logger))
	if err != nil {
		return fmt.Errorf("building enforcer: %w", err)
	}

	rvals := make([]any, len(args))
	for i, a := range args {
		rvals[i] = a
	}

	allowed, err := enf.Enforce(rvals...)
	if err != nil {
		return fmt.Errorf("enforce: %w", err)
	}

	result := "deny"
	if allowed {
		result = "allow"
	}
	fmt.Fprintln(cmd.OutOrStdout(), result)
	if !allowed {
		os.Exit(1)
	}
	return nil
}
