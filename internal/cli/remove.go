package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/outshift-open/hax-cli/internal/exitcodes"
	"github.com/outshift-open/hax-cli/internal/installer"
	"github.com/outshift-open/hax-cli/internal/ui"
)

func (a *App) newRemoveCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "remove <component>",
		Short: "Remove a component from this project",
		Long:  "Removes the component from hax.yml and deletes its directory. Registry dependencies it pulled in are left in place.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runRemove(cmd.Context(), args[0], force)
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "do not ask for confirmation")
	return cmd
}

func (a *App) runRemove(ctx context.Context, name string, force bool) error {
	if err := a.RequireProject(); err != nil {
		return err
	}

	in, err := installer.New(a.projectDir, a.config, nil, installer.WithLogger(a.logger))
	if err != nil {
		return err
	}

	opts := installer.RemoveOptions{Force: force}
	if !ui.IsCI() {
		opts.Confirm = a.confirm
	}

	res, err := in.Remove(ctx, name, opts)
	switch {
	case errors.Is(err, installer.ErrNotInstalled):
		return &ExitError{Code: exitcodes.NotFound, Message: "component " + name + " is not installed"}
	case errors.Is(err, installer.ErrCancelled):
		a.output.Info("Cancelled")
		return nil
	case err != nil:
		return err
	}

	switch {
	case res.Kept:
		a.output.Info("Kept %s, it is shared with other installed adapters", res.Dir)
	case res.DeleteErr != nil:
		a.output.Warning("Could not delete %s: %v", res.Dir, res.DeleteErr)
	}
	a.output.Success("Removed %s from %s", name, res.Kind)
	return nil
}
