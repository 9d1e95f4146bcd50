package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/olsync/olsync/internal/overleaf"
)

func init() {
	rootCmd.AddCommand(newProjectsCmd())
}

func newProjectsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "projects",
		Short: "List remote projects",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := loadSession()
			if err != nil {
				return err
			}

			directory := overleaf.NewDirectory(session, viper.GetString("server_url"))
			projects, err := directory.List(cmd.Context())
			if err != nil {
				return err
			}

			if len(projects) == 0 {
				fmt.Println("No remote projects.")
				return nil
			}

			for _, project := range projects {
				fmt.Printf("%s  %s\n", cyan(project.Id), project.Name)
			}
			return nil
		},
	}
}
