package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/olsync/olsync/internal/overleaf"
	"github.com/olsync/olsync/internal/state"
)

func init() {
	rootCmd.AddCommand(newCloneCmd())
}

func newCloneCmd() *cobra.Command {
	var projectName string
	var projectID string

	cmd := &cobra.Command{
		Use:   "clone",
		Short: "Clone a remote project into a new directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cwd, err := os.Getwd()
			if err != nil {
				return err
			}

			if _, err := state.FindRoot(cwd); err == nil {
				return errors.New("a project has already been cloned here; " +
					"remove the " + state.ControlDir + " directory before cloning another one")
			}

			session, err := loadSession()
			if err != nil {
				return err
			}

			if projectName == "" && projectID == "" {
				directory := overleaf.NewDirectory(session, viper.GetString("server_url"))
				projects, err := directory.List(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Println("Available projects:")
				for _, project := range projects {
					fmt.Printf("  %s  %s\n", cyan(project.Id), project.Name)
				}
				return errors.New("specify a project with --name or --id")
			}

			if projectID == "" {
				directory := overleaf.NewDirectory(session, viper.GetString("server_url"))
				project, err := directory.FindByName(cmd.Context(), projectName)
				if err != nil {
					return err
				}
				projectID = project.Id
			}

			result, err := newSyncer(session).Clone(cmd.Context(), projectID, cwd)
			if err != nil {
				return err
			}

			fmt.Printf("Cloned project %s into %s (%d files, %s).\n",
				green(result.Project.Name), cyan(result.Root),
				len(result.Files), humanize.Bytes(uint64(result.Bytes)))
			return nil
		},
	}

	cmd.Flags().StringVarP(&projectName, "name", "n", "", "Project name")
	cmd.Flags().StringVarP(&projectID, "id", "i", "", "Project id")
	cmd.MarkFlagsMutuallyExclusive("name", "id")

	return cmd
}
