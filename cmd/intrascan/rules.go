package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/marketlens/intrascan/internal/config"
	"github.com/marketlens/intrascan/internal/scan/pipeline"
)

func newRulesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Inspect strategy rule sets",
	}
	cmd.AddCommand(&cobra.Command{
		Use:       "list <strategy>",
		Short:     "Print a strategy's rules with weights and conditions",
		Args:      cobra.ExactArgs(1),
		ValidArgs: pipeline.Strategies,
		RunE:      runRulesList,
	})
	return cmd
}

func runRulesList(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	set, err := config.LoadRuleSet(cfg.RulesDir, args[0])
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "RULE\tENABLED\tWEIGHT\tCONDITIONS")
	for _, rule := range set.Rules {
		conditions := ""
		for i, c := range rule.Conditions {
			if i > 0 {
				conditions += " AND "
			}
			conditions += fmt.Sprintf("%s %s %g", c.Field, c.Op, c.Threshold)
		}
		fmt.Fprintf(tw, "%s\t%t\t%g\t%s\n", rule.Name, rule.Enabled, rule.Weight, conditions)
	}
	return tw.Flush()
}
