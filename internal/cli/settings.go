package cli

import (
	"fmt"
	"slices"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"
)

func newSettingsCmd(rt *runtime) *cobra.Command {
	settingsCmd := &cobra.Command{
		Use:   "settings",
		Short: "Read and change user settings",
	}

	settingsCmd.AddCommand(&cobra.Command{
		Use:   "get [KEY]",
		Short: "Print one setting, or all of them",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m := rt.settings()
			out := cmd.OutOrStdout()

			if len(args) == 1 {
				v := m.Get(args[0], nil)
				if v == nil {
					return fmt.Errorf("setting %q is not set", args[0])
				}
				data, err := json.Marshal(v)
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintln(out, string(data))
				return nil
			}

			all := m.All()
			keys := make([]string, 0, len(all))
			for k := range all {
				keys = append(keys, k)
			}
			slices.Sort(keys)
			for _, k := range keys {
				data, err := json.Marshal(all[k])
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(out, "%s=%s\n", k, data)
			}
			return nil
		},
	})

	// set stores VALUE as JSON when it parses, otherwise as a string
	settingsCmd.AddCommand(&cobra.Command{
		Use:   "set KEY VALUE",
		Short: "Change a setting",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var value any
			if err := json.Unmarshal([]byte(args[1]), &value); err != nil {
				value = args[1]
			}
			if err := rt.settings().Set(args[0], value); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Set %s\n", args[0])
			return nil
		},
	})

	settingsCmd.AddCommand(&cobra.Command{
		Use:   "reset",
		Short: "Remove every setting",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := rt.settings().Reset(); err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Settings reset")
			return nil
		},
	})

	return settingsCmd
}
