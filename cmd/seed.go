package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/coursehub/coursehub-api/internal/api"
	mongostore "github.com/coursehub/coursehub-api/internal/infrastructure/db/mongo"
	"github.com/coursehub/coursehub-api/internal/infrastructure/seed"
)

var seedFile string

// seedCmd represents the seed command
var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Upsert the course catalog",
	Long: `Upserts courses by title. Existing courses keep their enrolled students
and reviews. Without --file the built-in catalog is used.

This is the operator path for seeding: POST /api/seed-courses requires an
admin account, and the API never grants the admin role.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		courses, err := seed.DefaultCourses()
		if seedFile != "" {
			courses, err = seed.LoadFile(seedFile)
		}
		if err != nil {
			return err
		}

		s, err := connect(ctx)
		if err != nil {
			return err
		}
		defer s.Close()

		if err := mongostore.EnsureIndexes(ctx, s.db); err != nil {
			return err
		}

		svcs := api.BuildServices(s.db, s.redis, s.cfg, s.log)
		n, err := svcs.Catalog.Seed(ctx, courses)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "seeded %d courses\n", n)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(seedCmd)
	seedCmd.Flags().StringVarP(&seedFile, "file", "f", "", "YAML catalog to load instead of the built-in one")
}
