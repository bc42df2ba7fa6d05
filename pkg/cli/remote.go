package cli

import (
	"fmt"

	"github.com/jetmock/jetmock/pkg/cli/internal/output"
	"github.com/jetmock/jetmock/pkg/engine"
	"github.com/jetmock/jetmock/pkg/flow"
	"github.com/spf13/cobra"
)

var listGroupID string

var mocksCmd = &cobra.Command{
	Use:   "mocks",
	Short: "Inspect flows on a running server",
}

var mocksListCmd = &cobra.Command{
	Use:   "list",
	Short: "List flows",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		mocks, err := NewAdminClient(adminURL).ListMocks(listGroupID)
		if err != nil {
			return err
		}
		if jsonOutput {
			return output.JSON(cmd.OutOrStdout(), mocks)
		}

		tw := output.Table(cmd.OutOrStdout())
		fmt.Fprintln(tw, "ID\tGROUP\tTRIGGER\tSTEPS")
		for _, m := range mocks {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%d\n", m.ID, m.GroupID, describeTrigger(m), len(m.FlowSteps))
		}
		return tw.Flush()
	},
}

var mocksGetCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Show a flow",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := NewAdminClient(adminURL).GetMock(args[0])
		if err != nil {
			return err
		}
		return output.JSON(cmd.OutOrStdout(), m)
	},
}

var mocksDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a flow",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := NewAdminClient(adminURL).DeleteMock(args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted flow %s\n", args[0])
		return nil
	},
}

var groupsCmd = &cobra.Command{
	Use:   "groups",
	Short: "List groups on a running server",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		groups, err := NewAdminClient(adminURL).ListGroups()
		if err != nil {
			return err
		}
		if jsonOutput {
			return output.JSON(cmd.OutOrStdout(), groups)
		}

		tw := output.Table(cmd.OutOrStdout())
		fmt.Fprintln(tw, "ID\tNAME\tMOCKS\tACTIVE")
		for _, g := range groups {
			fmt.Fprintf(tw, "%s\t%s\t%d\t%t\n", g.ID, g.Name, g.MockCount, g.IsActive)
		}
		return tw.Flush()
	},
}

var listenersCmd = &cobra.Command{
	Use:   "listeners",
	Short: "List active Kafka listeners on a running server",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		active, err := NewAdminClient(adminURL).ListListeners()
		if err != nil {
			return err
		}
		if jsonOutput {
			return output.JSON(cmd.OutOrStdout(), active)
		}

		tw := output.Table(cmd.OutOrStdout())
		fmt.Fprintln(tw, "BROKER\tTOPIC\tCONSUMER GROUP\tRUNNING")
		for _, l := range active {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%t\n", l.BrokerURL, l.Topic, l.GroupID, l.Running)
		}
		return tw.Flush()
	},
}

// describeTrigger renders a flow's trigger as "METHOD path" or "kafka:topic".
func describeTrigger(m *engine.MockDetail) string {
	for _, s := range m.FlowSteps {
		switch s.Type() {
		case flow.TypeAPITriggerRequest:
			return fmt.Sprintf("%v %v", s["method"], s["path"])
		case flow.TypeKafkaTrigger:
			return fmt.Sprintf("kafka:%v", s["topic"])
		}
	}
	return "-"
}

func init() {
	mocksListCmd.Flags().StringVarP(&listGroupID, "group", "g", "", "Only list flows of this group id")
	mocksCmd.AddCommand(mocksListCmd, mocksGetCmd, mocksDeleteCmd)
	rootCmd.AddCommand(mocksCmd, groupsCmd, listenersCmd)
}
