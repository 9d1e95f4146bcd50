package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/olsync/olsync/internal/sync"
)

func init() {
	rootCmd.AddCommand(newPushCmd())
}

func newPushCmd() *cobra.Command {
	var opts sync.PushOptions

	cmd := &cobra.Command{
		Use:   "push <files>...",
		Short: "Push local files to the remote project",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root, err := requireProjectRoot()
			if err != nil {
				return err
			}

			session, err := loadSession()
			if err != nil {
				return err
			}

			result, err := newSyncer(session).Push(cmd.Context(), root, args, opts)
			if err != nil && errors.Is(err, sync.ErrCancelled) {
				fmt.Println("Push cancelled.")
				return nil
			}

			if result != nil {
				for _, path := range result.Unchanged {
					fmt.Printf("  unchanged %s\n", path)
				}
				for _, path := range result.Pushed {
					fmt.Printf("  pushed %s\n", path)
				}
				for _, conflict := range result.Conflicts {
					fmt.Printf("  %s %s\n", red("conflict"), conflict.Path)
				}
			}

			if err != nil {
				return err
			}
			if result != nil && len(result.Conflicts) > 0 {
				return errors.New("some files conflict with remote changes; pull first")
			}

			fmt.Println(green("Pushed all files."))
			return nil
		},
	}

	cmd.Flags().BoolVar(&opts.Force, "force", false, "Skip the confirmation prompt")

	return cmd
}
