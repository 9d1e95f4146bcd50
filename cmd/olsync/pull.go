package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/olsync/olsync/internal/state"
	"github.com/olsync/olsync/internal/sync"
)

func init() {
	rootCmd.AddCommand(newPullCmd())
}

func newPullCmd() *cobra.Command {
	var opts sync.PullOptions

	cmd := &cobra.Command{
		Use:   "pull",
		Short: "Replace local state with the remote project",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			root, err := requireProjectRoot()
			if err != nil {
				return err
			}

			session, err := loadSession()
			if err != nil {
				return err
			}

			result, err := newSyncer(session).Pull(cmd.Context(), root, opts)
			if err != nil {
				if errors.Is(err, sync.ErrCancelled) {
					fmt.Println("Pull cancelled.")
					return nil
				}
				return err
			}

			if len(result.Downloaded) == 0 && len(result.Deleted) == 0 {
				fmt.Println(green("Already up to date."))
				return nil
			}

			for _, path := range result.Downloaded {
				fmt.Printf("  updated %s\n", path)
			}
			for _, path := range result.Deleted {
				fmt.Printf("  deleted %s\n", path)
			}
			if result.BackupDir != "" {
				fmt.Printf("Local backup saved in %s.\n", cyan(result.BackupDir))
			}
			fmt.Printf("%s (%d files, %s)\n", green("Pulled current project state."),
				len(result.Downloaded), humanize.Bytes(uint64(result.Bytes)))
			return nil
		},
	}

	cmd.Flags().BoolVar(&opts.NoBackup, "no-backup", false, "Skip backing up local files before overwriting")
	cmd.Flags().BoolVar(&opts.Force, "force", false, "Skip the confirmation prompt")

	return cmd
}

// requireProjectRoot resolves the enclosing cloned project, from the current
// directory or any parent.
func requireProjectRoot() (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}

	root, err := state.FindRoot(cwd)
	if err != nil {
		return "", errors.New("not an olsync project; run " + cyan("olsync clone") + " first")
	}
	return root, nil
}
