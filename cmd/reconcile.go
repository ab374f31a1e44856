package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/coursehub/coursehub-api/internal/api"
	"github.com/coursehub/coursehub-api/internal/infrastructure/queue"
)

var reconcileWorkers int

// reconcileCmd represents the reconcile command
var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Complete enrollments recorded on only one side",
	Long: `Scans users and courses for enrollment edges that were written to one
collection but not the other, and adds the missing half.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		s, err := connect(ctx)
		if err != nil {
			return err
		}
		defer s.Close()

		workers := s.cfg.Catalog.ReconcileWorkers
		if reconcileWorkers > 0 {
			workers = reconcileWorkers
		}

		svcs := api.BuildServices(s.db, s.redis, s.cfg, s.log)
		report, err := queue.Reconcile(ctx, svcs.Enrollment, workers, s.log)
		fmt.Fprintf(cmd.OutOrStdout(), "scanned %d, repaired %d, failed %d\n", report.Scanned, report.Repaired, report.Failed)
		if err != nil {
			return err
		}
		if report.Failed > 0 {
			return fmt.Errorf("%d repairs failed", report.Failed)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(reconcileCmd)
	reconcileCmd.Flags().IntVarP(&reconcileWorkers, "workers", "w", 0, "number of repair workers (default RECONCILE_WORKERS)")
}
