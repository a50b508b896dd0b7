// Package commands provides CLI commands for the admin tool
package commands

import (
	"context"
	"database/sql"
	"fmt"
	"io"

	"directed/internal/observability"
	contextutils "directed/internal/utils"

	"github.com/spf13/cobra"
)

// DatabaseCommands returns the profile database commands. db is nil with the memory store.
func DatabaseCommands(logger *observability.Logger, db *sql.DB, databaseURL string) *cobra.Command {
	dbCmd := &cobra.Command{
		Use:   "db",
		Short: "Profile database commands",
		Long: `Profile database commands.

Available commands:
  stats     - Show learner and topic counts
  info      - Show the connected database`,
	}

	dbCmd.AddCommand(statsCmd(logger, db))
	dbCmd.AddCommand(infoCmd(db, databaseURL))

	return dbCmd
}

func statsCmd(logger *observability.Logger, db *sql.DB) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show learner and topic counts",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if db == nil {
				return contextutils.ErrorWithContextf("profile_store.driver is not postgres")
			}
			stats, err := profileStats(cmd.Context(), db)
			if err != nil {
				logger.Error(cmd.Context(), "Failed to get profile statistics", err)
				return err
			}
			return printStats(cmd.OutOrStdout(), stats)
		},
	}
}

func infoCmd(db *sql.DB, databaseURL string) *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Show the connected database",
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "url: %s\nstatus: %s\n", maskDatabaseURL(databaseURL), getDatabaseInfo(cmd.Context(), db))
			return err
		},
	}
}

// ProfileStats summarizes the profile tables
type ProfileStats struct {
	Learners   int `json:"learners"`
	Completed  int `json:"completed"`
	Struggling int `json:"struggling"`
}

func profileStats(ctx context.Context, db *sql.DB) (ProfileStats, error) {
	var s ProfileStats
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM learning_profiles`).Scan(&s.Learners); err != nil {
		return s, contextutils.WrapErrorf(contextutils.ErrDatabaseQuery, "failed to count learners: %w", err)
	}

	err := db.QueryRowContext(ctx, `
		SELECT
			COUNT(*) FILTER (WHERE kind = 'completed'),
			COUNT(*) FILTER (WHERE kind = 'struggling')
		FROM profile_topics`).Scan(&s.Completed, &s.Struggling)
	if err != nil {
		return s, contextutils.WrapErrorf(contextutils.ErrDatabaseQuery, "failed to count topics: %w", err)
	}
	return s, nil
}

func printStats(w io.Writer, s ProfileStats) error {
	_, err := fmt.Fprintf(w, "learners:   %d\ncompleted:  %d\nstruggling: %d\n", s.Learners, s.Completed, s.Struggling)
	return err
}
