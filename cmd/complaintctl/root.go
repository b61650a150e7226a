package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/yanizio/complaintdesk/internal/complaint"
	"github.com/yanizio/complaintdesk/internal/config"
	"github.com/yanizio/complaintdesk/internal/form"
	"github.com/yanizio/complaintdesk/internal/logger"
)

// errInvalid is returned after the field errors have been printed.
var errInvalid = errors.New("complaint has field errors")

// globalFlags are shared by every subcommand.
type globalFlags struct {
	formsDir string
	debug    bool
}

func newRootCmd() *cobra.Command {
	g := &globalFlags{}
	root := &cobra.Command{
		Use:           "complaintctl",
		Short:         "Validate and submit customer complaints",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			logger.Bootstrap(g.debug)
		},
	}
	root.PersistentFlags().StringVar(&g.formsDir, "forms-dir", "", "extra directory of form definition YAML files")
	root.PersistentFlags().BoolVar(&g.debug, "debug", false, "verbose logging to stderr")

	root.AddCommand(
		newValidateCmd(g),
		newSubmitCmd(g),
		newFormsCmd(g),
	)
	return root
}

// execute runs root and prints any error except errInvalid, whose details
// are already on stdout.
func execute(root *cobra.Command) error {
	err := root.Execute()
	if err != nil && !errors.Is(err, errInvalid) {
		root.PrintErrln("Error:", err)
	}
	return err
}

// loadRegistry returns the built-in definitions plus any found in dir.
func loadRegistry(dir string) (*form.Registry, error) {
	reg := form.NewRegistry()
	if err := reg.LoadDefaults(); err != nil {
		return nil, err
	}
	if dir != "" {
		if err := reg.LoadDir(dir); err != nil {
			return nil, err
		}
	}
	return reg, nil
}

// lookupVariant accepts "v1" as shorthand for "complaint/v1".
func lookupVariant(reg *form.Registry, variant string) (*form.FormDef, error) {
	id := config.Form{Variant: variant}.VariantID()
	fd, ok := reg.Get(id)
	if !ok {
		return nil, fmt.Errorf("unknown form variant %q (have %v)", id, reg.IDs())
	}
	return fd, nil
}

// readFields decodes the complaint file.  "-" reads stdin.
func readFields(path string, stdin io.Reader) (map[string]string, error) {
	var r io.Reader = stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}
	var fields map[string]string
	if err := json.NewDecoder(r).Decode(&fields); err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return fields, nil
}

// applyFields feeds fields through apply in a stable order.
func applyFields(fields map[string]string, apply func(field, value string) error) error {
	names := make([]string, 0, len(fields))
	for k := range fields {
		names = append(names, k)
	}
	slices.Sort(names)
	for _, k := range names {
		if err := apply(k, fields[k]); err != nil {
			return err
		}
	}
	return nil
}

// clock returns time.Now, or a fixed local noon on day when set.
func clock(day string) (func() time.Time, error) {
	if day == "" {
		return time.Now, nil
	}
	t, err := time.ParseInLocation(complaint.DateLayout, day, time.Local)
	if err != nil {
		return nil, fmt.Errorf("--today: %w", err)
	}
	t = t.Add(12 * time.Hour)
	return func() time.Time { return t }, nil
}

// printErrors writes one "field: message" line per error, sorted.
func printErrors(w io.Writer, errs map[string]string) {
	for _, f := range complaint.Errors(errs).Fields() {
		fmt.Fprintf(w, "  %s: %s\n", f, errs[f])
	}
	zap.S().Debugw("field errors printed", "count", len(errs))
}
