package main

import (
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"jobscrape-engine/internal/domain"
	"jobscrape-engine/internal/registry"
)

var sitesCmd = &cobra.Command{
	Use:   "sites",
	Short: "Manage configured sites",
}

var sitesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List sites in registry order",
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := openRegistry()
		if err != nil {
			return err
		}
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "INDEX\tNAME\tBASE URL\tKEYWORDS\tSCRAPABLE")
		for i, s := range reg.List() {
			fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%t\n", i, s.Name, s.BaseURL, strings.Join(s.Keywords, ","), s.Scrapable())
		}
		return tw.Flush()
	},
}

var newSite domain.Site

var sitesAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Append a site",
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := openRegistry()
		if err != nil {
			return err
		}
		added, err := reg.Add(newSite)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "added %s at index %d\n", added.Name, reg.Len()-1)
		return nil
	},
}

var sitesDeleteCmd = &cobra.Command{
	Use:   "delete <index>",
	Short: "Remove the site at index",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		i, err := strconv.Atoi(args[0])
		if err != nil {
			return eris.Errorf("index must be an integer: %q", args[0])
		}
		reg, err := openRegistry()
		if err != nil {
			return err
		}
		removed, err := reg.Delete(i)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", removed.Name)
		return nil
	},
}

// openRegistry works on the sites file alone; no store or fetcher is needed.
func openRegistry() (*registry.Registry, error) {
	path := cfg.SitesPath()
	if _, err := registry.EnsureUserSites(path, cfg.App.DefaultSites); err != nil {
		return nil, err
	}
	return registry.Open(registry.NewFileSource(path), zap.L().Named("registry")), nil
}

func init() {
	f := sitesAddCmd.Flags()
	f.StringVar(&newSite.Name, "name", "", "unique site name")
	f.StringVar(&newSite.BaseURL, "base-url", "", "search URL the keyword is appended to")
	f.StringSliceVar(&newSite.Keywords, "keywords", nil, "comma-separated search keywords")
	f.StringVar(&newSite.Selectors.Container, "container", "", "CSS selector for one posting")
	f.StringVar(&newSite.Selectors.Title, "title", "", "CSS selector for the title inside a posting")
	f.StringVar(&newSite.Selectors.Company, "company", "", "CSS selector for the company inside a posting")
	f.StringVar(&newSite.Selectors.Location, "location", "", "CSS selector for the location inside a posting")
	f.StringVar(&newSite.Selectors.Link, "link", "", "CSS selector for the link inside a posting")

	sitesCmd.AddCommand(sitesListCmd, sitesAddCmd, sitesDeleteCmd)
	rootCmd.AddCommand(sitesCmd)
}
