package main

import (
	"fmt"
	"text/tabwriter"

	"scribe/internal/repository"
	"scribe/internal/service"

	"github.com/spf13/cobra"
)

var (
	groupTitle       string
	groupSlug        string
	groupDescription string
)

var groupCmd = &cobra.Command{
	Use:   "group",
	Short: "Manage groups",
}

var groupCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a group",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		rt, err := openRuntime(cmd.Context())
		if err != nil {
			return err
		}
		defer rt.close()

		group, err := service.NewGroupService(repository.NewGroupRepository(rt.db)).Create(cmd.Context(), service.CreateGroupInput{
			Title:       groupTitle,
			Slug:        groupSlug,
			Description: groupDescription,
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "created group %d %s\n", group.ID, group.Slug)
		return nil
	},
}

var groupListCmd = &cobra.Command{
	Use:   "list",
	Short: "List groups",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		rt, err := openRuntime(cmd.Context())
		if err != nil {
			return err
		}
		defer rt.close()

		groups, err := service.NewGroupService(repository.NewGroupRepository(rt.db)).List(cmd.Context())
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tSLUG\tTITLE")
		for _, g := range groups {
			fmt.Fprintf(w, "%d\t%s\t%s\n", g.ID, g.Slug, g.Title)
		}
		return w.Flush()
	},
}

var groupDeleteCmd = &cobra.Command{
	Use:   "delete <slug>",
	Short: "Delete a group; its posts stay without a group",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := openRuntime(cmd.Context())
		if err != nil {
			return err
		}
		defer rt.close()

		group, err := service.NewGroupService(repository.NewGroupRepository(rt.db)).Delete(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "deleted group %s\n", group.Slug)
		return nil
	},
}

func init() {
	groupCreateCmd.Flags().StringVar(&groupTitle, "title", "", "Group title")
	groupCreateCmd.Flags().StringVar(&groupSlug, "slug", "", "URL slug")
	groupCreateCmd.Flags().StringVar(&groupDescription, "description", "", "Description shown on the group page")
	_ = groupCreateCmd.MarkFlagRequired("title")
	_ = groupCreateCmd.MarkFlagRequired("slug")

	groupCmd.AddCommand(groupCreateCmd, groupListCmd, groupDeleteCmd)
	rootCmd.AddCommand(groupCmd)
}
