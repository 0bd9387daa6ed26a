package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/MrSnakeDoc/hrtlog/internal/domain"
	"github.com/MrSnakeDoc/hrtlog/internal/sources/seed"
)

func newResourcesCmd(rt *runtime) *cobra.Command {
	resourcesCmd := &cobra.Command{
		Use:   "resources",
		Short: "Manage the resource list",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List resources",
		RunE: func(cmd *cobra.Command, args []string) error {
			items, err := rt.store.LoadResources()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(items) == 0 {
				_, _ = fmt.Fprintln(out, "No resources yet.")
				return nil
			}
			for i, r := range items {
				line := fmt.Sprintf("%d. %s", i+1, r.Name)
				if r.Link != "" {
					line += " <" + r.Link + ">"
				}
				if len(r.Tags) > 0 {
					line += " [" + strings.Join(r.Tags, ", ") + "]"
				}
				_, _ = fmt.Fprintln(out, line)
				if r.Description != "" {
					_, _ = fmt.Fprintln(out, "   "+r.Description)
				}
			}
			return nil
		},
	}
	resourcesCmd.AddCommand(listCmd)

	var (
		link, desc string
		tags       []string
	)
	addCmd := &cobra.Command{
		Use:   "add NAME",
		Short: "Add a resource",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := rt.store.AddResource(domain.Resource{
				Name:        args[0],
				Link:        link,
				Description: desc,
				Tags:        tags,
			})
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Added %s\n", r.Name)
			return nil
		},
	}
	addCmd.Flags().StringVar(&link, "link", "", "URL")
	addCmd.Flags().StringVar(&desc, "desc", "", "Description")
	addCmd.Flags().StringSliceVarP(&tags, "tag", "t", nil, "Tag, repeatable or comma separated")
	resourcesCmd.AddCommand(addCmd)

	// remove takes the 1-based position printed by list
	removeCmd := &cobra.Command{
		Use:   "remove POSITION",
		Short: "Remove the resource at POSITION",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pos, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid position %q", args[0])
			}
			ok, err := rt.store.RemoveResource(pos - 1)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("no resource at position %d", pos)
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Removed resource %d\n", pos)
			return nil
		},
	}
	resourcesCmd.AddCommand(removeCmd)

	seedCmd := &cobra.Command{
		Use:   "seed FILE",
		Short: "Merge resources from a YAML seed file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			config, err := seed.NewLoader(args[0]).Load()
			if err != nil {
				return err
			}
			resources, err := seed.NewMapper().MapResources(config)
			if err != nil {
				return err
			}
			added, err := rt.store.MergeResources(resources)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d of %d resources\n", added, len(resources))
			return nil
		},
	}
	resourcesCmd.AddCommand(seedCmd)

	return resourcesCmd
}
