package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var providersCmd = &cobra.Command{
	Use:   "providers",
	Short: "List the registered provider adapters and their capabilities",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		registry, err := buildRegistry(cfg)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tTERMS\tCLASS\tDATES\tCITATIONS\tRATE\tRANK")
		for _, a := range registry.All() {
			c := a.Capability()
			fmt.Fprintf(w, "%s\t%v\t%v\t%v\t%v\t%.2f/s\t%d\n",
				a.Name(), c.TermSearch, c.ClassificationFilter, c.DateFilter,
				c.CitationData, c.RateLimit, c.QualityRank)
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(providersCmd)
}
