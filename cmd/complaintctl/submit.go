package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/yanizio/complaintdesk/internal/backend"
	"github.com/yanizio/complaintdesk/internal/session"
)

type submitFlags struct {
	file        string
	variant     string
	baseURL     string
	timeout     time.Duration
	gateTimeout time.Duration
}

func newSubmitCmd(g *globalFlags) *cobra.Command {
	f := &submitFlags{}
	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Validate a complaint file and send it to the backend",
		Long: `Runs the same sequence as the web form: the security handshake for
variants that require it, local validation, then one send.  On success the
backend's reference number is printed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSubmit(cmd, g, f)
		},
	}
	cmd.Flags().StringVarP(&f.file, "file", "f", "", "complaint JSON file, - for stdin")
	cmd.Flags().StringVar(&f.variant, "variant", "v2", "form variant (v1, v2, or a full definition id)")
	cmd.Flags().StringVar(&f.baseURL, "base-url", backend.DefaultBaseURL, "backend base URL")
	cmd.Flags().DurationVar(&f.timeout, "timeout", 0, "whole-request timeout for the send, 0 waits indefinitely")
	cmd.Flags().DurationVar(&f.gateTimeout, "gate-timeout", 30*time.Second, "how long to wait for the security handshake")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func runSubmit(cmd *cobra.Command, g *globalFlags, f *submitFlags) error {
	reg, err := loadRegistry(g.formsDir)
	if err != nil {
		return err
	}
	fd, err := lookupVariant(reg, f.variant)
	if err != nil {
		return err
	}
	fields, err := readFields(f.file, cmd.InOrStdin())
	if err != nil {
		return err
	}

	client, err := backend.New(f.baseURL, backend.WithTimeout(f.timeout))
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cat := fd.Catalog()
	gate := session.OpenGate()
	if cat.RequireToken {
		gate = session.NewGate(client)
		gate.Start(ctx)
		wctx, cancel := context.WithTimeout(ctx, f.gateTimeout)
		state := gate.Wait(wctx)
		cancel()
		if state != session.GateReady {
			if err := gate.Err(); err != nil {
				return fmt.Errorf("security handshake: %w", err)
			}
			return fmt.Errorf("security handshake: %s after %s", state, f.gateTimeout)
		}
	}

	hold := session.NewHolder(cat, client, gate, session.WithLogger(zap.S()))
	if err := applyFields(fields, hold.Apply); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	res := hold.Submit(ctx)
	snap := hold.Snapshot()
	switch res.Kind {
	case session.KindSuccess:
		fmt.Fprintf(out, "reference: %s\n", res.Reference)
		return nil
	case session.KindInvalid, session.KindRejected:
		fmt.Fprintf(out, "%s: %d field error(s)\n", cat.ID, len(snap.Errors))
		printErrors(out, snap.Errors)
		return errInvalid
	case session.KindFailed:
		return fmt.Errorf("%s: %w", snap.Banner, res.Err)
	default:
		return fmt.Errorf("%s: %w", res.Kind, res.Err)
	}
}
