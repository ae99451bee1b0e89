package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"jobscrape-engine/internal/service"
	"jobscrape-engine/internal/store"
)

var (
	jobsFilter service.JobFilter
	jobsJSON   bool
)

var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "Print stored jobs, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := store.Open(cmd.Context(), cfg, zap.L().Named("store"))
		if err != nil {
			return err
		}
		defer st.Close()

		svc := service.New(service.Deps{Store: st, Log: zap.L()})
		jobs, err := svc.Jobs(cmd.Context(), jobsFilter)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if jobsJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(jobs)
		}
		tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "DISCOVERED\tSOURCE\tTITLE\tCOMPANY\tLOCATION\tLINK")
		for _, j := range jobs {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
				j.DiscoveredAt.Local().Format(time.DateTime), j.Source, j.Title, j.Company, j.Location, j.Link)
		}
		return tw.Flush()
	},
}

func init() {
	jobsCmd.Flags().IntVar(&jobsFilter.Limit, "limit", 50, "max jobs to print (0 for all)")
	jobsCmd.Flags().StringVar(&jobsFilter.Source, "source", "", "only jobs from this site")
	jobsCmd.Flags().StringVar(&jobsFilter.Keyword, "keyword", "", "only jobs found by this keyword")
	jobsCmd.Flags().BoolVar(&jobsJSON, "json", false, "print JSON instead of a table")
	rootCmd.AddCommand(jobsCmd)
}
