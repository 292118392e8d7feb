package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Sentinel-Gate/permkit/internal/adapter/outbound/fileconf"
)

var roleDomain string

var roleCmd = &cobra.Command{
	Use:   "role",
	Short: "Inspect and mutate role-grouping rules",
}

var roleGrantCmd = &cobra.Command{
	Use:   "grant <user> <role>",
	Short: "Grant role to user, persisting the grouping rule back to the policy file",
	Args:  cobra.ExactArgs(2),
	RunE:  runRoleGrant,
}

var roleListCmd = &cobra.Command{
	Use:   "list <user>",
	Short: "List the roles user directly inherits",
	Args:  cobra.ExactArgs(1),
	RunE:  runRoleList,
}

func init() {
	roleCmd.PersistentFlags().StringVar(&enforceModelPath, "model", "model.conf", "path to the PERM model file")
	roleCmd.PersistentFlags().StringVar(&enforcePolicyPath, "policy", "policy.csv", "path to the policy file")
	roleCmd.PersistentFlags().StringVar(&roleDomain, "domain", "", "optional role domain")
	roleCmd.AddCommand(roleGrantCmd, roleListCmd)
	rootCmd.AddCommand(roleCmd)
}

func runRoleGrant(cmd *cobra.Command, args []string) error {
	enf, err := buildEnforcerFromFiles()
	if err != nil {
		return err
	}
	var domain []string
	if roleDomain != "" {
		domain = []string{roleDomain}
	}
	added, err := enf.AddRoleForUser(args[0], args[1], domain...)
	if err != nil {
		return fmt.Errorf("grant role: %w", err)
	}
	if !added {
		fmt.Fprintln(cmd.OutOrStdout(), "role already granted")
		return nil
	}
	if err := fileconf.SavePolicyFile(enforcePolicyPath, enf.Model()); err != nil {
		return fmt.Errorf("saving policy: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), "granted")
	return nil
}

func runRoleList(cmd *cobra.Command, args []string) error {
	enf, err := buildEnforcerFromFiles()
	if err != nil {
		return err
	}
	var domain []string
	if roleDomain != "" {
		domain = []string{roleDomain}
	}
	for _, role := range enf.GetRolesForUser(args[0], domain...) {
		fmt.Fprintln(cmd.OutOrStdout(), role)
	}
	return nil
}
