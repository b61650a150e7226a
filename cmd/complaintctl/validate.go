package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yanizio/complaintdesk/internal/complaint"
)

type validateFlags struct {
	file    string
	variant string
	today   string
}

func newValidateCmd(g *globalFlags) *cobra.Command {
	f := &validateFlags{}
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check a complaint file against the form rules",
		Long: `Applies every field of the JSON file the way the web form would
(phone numbers are sanitized, platform is fixed by the variant) and prints
each failing field.  No network calls are made.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runValidate(cmd, g, f)
		},
	}
	cmd.Flags().StringVarP(&f.file, "file", "f", "", "complaint JSON file, - for stdin")
	cmd.Flags().StringVar(&f.variant, "variant", "v2", "form variant (v1, v2, or a full definition id)")
	cmd.Flags().StringVar(&f.today, "today", "", "treat this YYYY-MM-DD as today")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func runValidate(cmd *cobra.Command, g *globalFlags, f *validateFlags) error {
	reg, err := loadRegistry(g.formsDir)
	if err != nil {
		return err
	}
	fd, err := lookupVariant(reg, f.variant)
	if err != nil {
		return err
	}
	now, err := clock(f.today)
	if err != nil {
		return err
	}
	fields, err := readFields(f.file, cmd.InOrStdin())
	if err != nil {
		return err
	}

	cat := fd.Catalog()
	form := complaint.NewForm(cat)
	err = applyFields(fields, func(name, value string) error {
		var aerr error
		form, aerr = complaint.ApplyInput(form, name, value)
		return aerr
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	errs := complaint.Validate(form, cat, now())
	if len(errs) > 0 {
		fmt.Fprintf(out, "%s: %d field error(s)\n", cat.ID, len(errs))
		printErrors(out, errs)
		return errInvalid
	}
	fmt.Fprintf(out, "%s: ok\n", cat.ID)
	return nil
}
