package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Sentinel-Gate/permkit/internal/adapter/outbound/fileconf"
	"github.com/Sentinel-Gate/permkit/internal/adapter/outbound/memory"
	"github.com/Sentinel-Gate/permkit/internal/enforcer"
)

var policyCmd = &cobra.Command{
	Use:   "policy",
	Short: "Inspect and mutate the policy store",
}

var policyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List every rule in the default policy",
	Args:  cobra.NoArgs,
	RunE:  runPolicyList,
}

var policyAddCmd = &cobra.Command{
	Use:   "add <v1> <v2> ...",
	Short: "Add a policy rule and persist it back to the policy file",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runPolicyAdd,
}

func init() {
	policyCmd.PersistentFlags().StringVar(&enforceModelPath, "model", "model.conf", "path to the PERM model file")
	policyCmd.PersistentFlags().StringVar(&enforcePolicyPath, "policy", "policy.csv", "path to the policy file")
	policyCmd.AddCommand(policyListCmd, policyAddCmd)
	rootCmd.AddCommand(policyCmd)
}

func buildEnforcerFromFiles() (*enforcer.Enforcer, error) {
	m, err := fileconf.LoadModelFile(enforceModelPath)
	if err != nil {
		return nil, fmt.Errorf("loading model: %w", err)
	}
	if err := fileconf.LoadPolicyFile(enforcePolicyPath, m); err != nil {
		return nil, fmt.Errorf("loading policy: %w", err)
	}
	store := memory.NewPolicyStore(m)
	rm := memory.NewRoleManager(0)
	return enforcer.New(m, store, rm)
}

func runPolicyList(cmd *cobra.Command, _ []string) error {
	enf, err := buildEnforcerFromFiles()
	if err != nil {
		return err
	}
	for _, rule := range enf.GetPolicy() {
		fmt.Fprintln(cmd.OutOrStdout(), rule)
	}
	return nil
}

func runPolicyAdd(cmd *cobra.Command, args []string) error {
	enf, err := buildEnforcerFromFiles()
	if err != nil {
		return err
	}
	added, err := enf.AddPolicy(args...)
	if err != nil {
		return fmt.Errorf("add policy: %w", err)
	}
	if !added {
		fmt.Fprintln(cmd.OutOrStdout(), "rule already present")
		return nil
	}
	if err := fileconf.SavePolicyFile(enforcePolicyPath, enf.Model()); err != nil {
		return fmt.Errorf("saving policy: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), "added")
	return nil
}
