package main

import (
	"github.com/spf13/cobra"

	domainauth "github.com/viveconecta/admin-ui/internal/domain/auth"
	"github.com/viveconecta/admin-ui/internal/domain/navigation"
)

func newNavCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "nav",
		Short: "Inspect the sidebar catalog",
	}

	var role, file string
	show := &cobra.Command{
		Use:   "show",
		Short: "Print the sidebar a role would see",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if file == "" {
				file = a.cfg.Navigation.CatalogFile
			}
			catalog, err := loadCatalog(file)
			if err != nil {
				return err
			}
			return printSidebar(cmd, catalog.Filter(domainauth.Role(role)), role)
		},
	}
	show.Flags().StringVar(&role, "role", "", "role label to filter by")
	show.Flags().StringVar(&file, "file", "", "catalog file (defaults to NAV_CATALOG_FILE, then the embedded catalog)")
	_ = show.MarkFlagRequired("role")
	cmd.AddCommand(show)
	return cmd
}

func loadCatalog(file string) (navigation.Catalog, error) {
	if file == "" {
		return navigation.Default()
	}
	return navigation.LoadFile(file)
}

func printSidebar(cmd *cobra.Command, cats []navigation.Category, role string) error {
	out := cmd.OutOrStdout()
	if len(cats) == 0 {
		return writef(out, "no entries visible to %q\n", role)
	}
	for _, c := range cats {
		if err := writef(out, "%s\n", c.Title); err != nil {
			return err
		}
		for _, e := range c.Entries {
			if err := writef(out, "  %-16s %s\n", e.Name, e.Path); err != nil {
				return err
			}
		}
	}
	return nil
}
