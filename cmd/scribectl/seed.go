package main

import (
	"fmt"
	"os"

	"scribe/internal/seed"

	"github.com/spf13/cobra"
)

var (
	seedUsers  int
	seedPosts  int
	seedDryRun bool
	seedGroups string
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Fill the database with demo groups, authors and posts",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		rt, err := openRuntime(cmd.Context())
		if err != nil {
			return err
		}
		defer rt.close()

		seeder := seed.NewSeeder(rt.db, seed.Options{DryRun: seedDryRun})
		if seedGroups != "" {
			f, err := os.Open(seedGroups)
			if err != nil {
				return err
			}
			fixtures, err := seed.LoadGroups(f)
			_ = f.Close()
			if err != nil {
				return err
			}
			seeder.WithGroups(fixtures)
		}

		sum, err := seeder.Run(cmd.Context(), seedUsers, seedPosts)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%d groups, %d users, %d posts, %d comments, %d follows\n",
			sum.Groups, sum.Users, sum.Posts, sum.Comments, sum.Follows)
		fmt.Fprintf(cmd.OutOrStdout(), "every seeded account has the password %q\n", seed.DefaultPassword)
		return nil
	},
}

func init() {
	seedCmd.Flags().IntVar(&seedUsers, "users", 10, "Number of users to create")
	seedCmd.Flags().IntVar(&seedPosts, "posts", 50, "Number of posts to create")
	seedCmd.Flags().BoolVar(&seedDryRun, "dry-run", false, "Build everything without writing")
	seedCmd.Flags().StringVar(&seedGroups, "groups", "", "YAML file with group fixtures (default: bundled set)")
	rootCmd.AddCommand(seedCmd)
}
