// Package overrides implements the overrides command group.
package overrides

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/agentstation/staymap/cmd/application"
	"github.com/agentstation/staymap/internal/cmd/emoji"
	"github.com/agentstation/staymap/internal/cmd/output"
	"github.com/agentstation/staymap/internal/cmd/table"
	source "github.com/agentstation/staymap/internal/sources/overrides"
	"github.com/agentstation/staymap/pkg/errors"
	"github.com/agentstation/staymap/pkg/overrides"
	"github.com/agentstation/staymap/pkg/store"
	"github.com/agentstation/staymap/pkg/units"
)

// now is replaced in tests.
var now = time.Now

// NewCommand creates the overrides command with its subcommands.
func NewCommand(app application.Application) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "overrides",
		Aliases: []string{"override"},
		GroupID: "core",
		Short:   "List and edit manual unit overrides",
		Long: `Manage the manual status overrides kept in the overrides table.

An override with status blocked forces a unit to Blocked until it is
cleared, whatever its reservations say. Overrides never expire on their
own.`,
	}

	cmd.AddCommand(newListCommand(app))
	cmd.AddCommand(newSetCommand(app))
	cmd.AddCommand(newClearCommand(app))

	return cmd
}

func newListCommand(app application.Application) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List every override",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			st, err := app.Store()
			if err != nil {
				return err
			}

			list, err := source.New(st, app.OverridesTable()).Overrides(cmd.Context())
			if err != nil {
				return err
			}
			sort.SliceStable(list, func(i, j int) bool {
				return list[i].UnitID < list[j].UnitID
			})

			format := output.DetectFormat(app.OutputFormat())
			return output.Print(cmd.OutOrStdout(), format, list, table.Overrides(list))
		},
	}
}

func newSetCommand(app application.Application) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set <unit-id> <status>",
		Short: "Set the manual status of a unit",
		Long: `Set the manual status of a unit. The latest override for the unit is
updated in place; a new row is created when the unit has none.`,
		Example: `  staymap overrides set 1042 blocked --reason "deep clean"
  staymap overrides set 1042 available`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			status, err := units.ParseStatus(args[1])
			if err != nil {
				return errors.NewValidationError("status", args[1], "must be available, reserved or blocked")
			}
			reason, _ := cmd.Flags().GetString("reason")
			name, _ := cmd.Flags().GetString("name")

			st, err := app.Store()
			if err != nil {
				return err
			}

			o := overrides.Override{
				UnitID:       units.ID(args[0]),
				UnitName:     name,
				ManualStatus: status,
				Reason:       reason,
			}
			created, err := setOverride(cmd.Context(), st, app.OverridesTable(), o)
			if err != nil {
				return err
			}

			verb := "Updated"
			if created {
				verb = "Created"
			}
			app.Logger().Info().Str("unit_id", args[0]).Str("status", status.String()).Msg("Override set")
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s override for unit %s: %s\n", emoji.Success, verb, args[0], status)
			return nil
		},
	}

	cmd.Flags().String("reason", "", "why the status is set")
	cmd.Flags().String("name", "", "unit display name")

	return cmd
}

func newClearCommand(app application.Application) *cobra.Command {
	return &cobra.Command{
		Use:   "clear <unit-id>",
		Short: "Remove every override of a unit",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := app.Store()
			if err != nil {
				return err
			}

			n, err := clearOverrides(cmd.Context(), st, app.OverridesTable(), units.ID(args[0]))
			if err != nil {
				return err
			}
			if n == 0 {
				return errors.NewNotFoundError("override", args[0])
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s Cleared %d override(s) for unit %s\n", emoji.Success, n, args[0])
			return nil
		},
	}
}

// setOverride writes o over the unit's latest override, or creates a row. It
// reports whether a row was created.
func setOverride(ctx context.Context, st store.Store, table string, o overrides.Override) (bool, error) {
	list, err := source.New(st, table).Overrides(ctx)
	if err != nil {
		return false, err
	}

	ts := now().UTC()
	o.UpdatedAt = ts

	var mine []overrides.Override
	for _, existing := range list {
		if existing.UnitID == o.UnitID {
			mine = append(mine, existing)
		}
	}

	if latest := overrides.Latest(mine).For(units.Unit{ID: o.UnitID}); latest != nil {
		o.CreatedAt = latest.CreatedAt
		if o.UnitName == "" {
			o.UnitName = latest.UnitName
		}
		if _, err := st.Update(ctx, table, latest.RecordID, source.ToFields(o)); err != nil {
			return false, errors.WrapResource("update", "override", latest.RecordID, err)
		}
		return false, nil
	}

	o.CreatedAt = ts
	if _, err := st.Create(ctx, table, source.ToFields(o)); err != nil {
		return false, errors.WrapResource("create", "override", o.UnitID.String(), err)
	}
	return true, nil
}

// clearOverrides deletes every override row of the unit.
func clearOverrides(ctx context.Context, st store.Store, table string, id units.ID) (int, error) {
	list, err := source.New(st, table).Overrides(ctx)
	if err != nil {
		return 0, err
	}

	n := 0
	for _, o := range list {
		if o.UnitID != id {
			continue
		}
		if err := st.Delete(ctx, table, o.RecordID); err != nil {
			return n, errors.WrapResource("delete", "override", o.RecordID, err)
		}
		n++
	}
	return n, nil
}
