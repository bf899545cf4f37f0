package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"ph-studio/internal/config"
	"ph-studio/internal/quote"
)

func selfTestCommand() *cobra.Command {
	var (
		pricingFile string
		strict      bool
	)

	cmd := &cobra.Command{
		Use:   "selftest",
		Short: "Runs the calculator sanity checks against the pricing table",
		RunE: func(cmd *cobra.Command, args []string) error {
			catalog, err := config.LoadCatalog(pricingFile)
			if err != nil {
				return err
			}

			report := quote.RunSelfTests(catalog)
			out := cmd.OutOrStdout()
			for _, r := range report.Results {
				mark := "PASS"
				if !r.Pass {
					mark = "FAIL"
				}
				fmt.Fprintf(out, "%s  %s", mark, r.Name)
				if r.Details != "" {
					fmt.Fprintf(out, " (%s)", r.Details)
				}
				fmt.Fprintln(out)
			}
			fmt.Fprintf(out, "%d passed, %d failed\n", report.Passed, report.Failed)

			if strict && report.Failed > 0 {
				return fmt.Errorf("selftest: %d checks failed", report.Failed)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&pricingFile, "pricing", "p", "", "pricing table file (defaults to the built-in table)")
	cmd.Flags().BoolVar(&strict, "strict", false, "exit non-zero when any check fails")

	return cmd
}
