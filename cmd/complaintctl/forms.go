package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newFormsCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "forms",
		Short: "List the loaded form definitions and their issue types",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			reg, err := loadRegistry(g.formsDir)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, id := range reg.IDs() {
				fd, _ := reg.Get(id)
				cat := fd.Catalog()
				gate := "no"
				if cat.RequireToken {
					gate = "yes"
				}
				fmt.Fprintf(out, "%s\t%s\tplatform=%s\ttoken=%s\n", id, fd.Title, cat.Platform, gate)
				for _, it := range cat.IssueTypes {
					fmt.Fprintf(out, "  - %s\n", it)
				}
			}
			return nil
		},
	}
}
