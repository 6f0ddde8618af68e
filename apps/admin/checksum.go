package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/trezcool/masomo-guard/apps"
	"github.com/trezcool/masomo-guard/core/checksum"
)

func (cli *commandLine) checksumCmd() *cobra.Command {
	var order string
	var complete bool
	cmd := &cobra.Command{
		Use:   "checksum ID...",
		Short: "Check the Verhoeff check digit of national ids",
		Long: `Check the Verhoeff check digit of 12 digit national ids, under one digit order or both.
With --complete, the arguments are 11 digit prefixes and the complete ids are printed.
Exits with status 2 when an id is invalid under every checked order.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			orders := []checksum.Order{checksum.Reversed, checksum.AsProvided}
			if order != "" {
				o, err := checksum.ParseOrder(order)
				if err != nil {
					return apps.NewArgumentError("order", "%v", err)
				}
				orders = []checksum.Order{o}
			}

			w := cmd.OutOrStdout()
			var invalid bool
			for _, id := range args {
				if complete {
					for _, o := range orders {
						full, err := checksum.Complete(id, o)
						if err != nil {
							return err
						}
						fmt.Fprintf(w, "%s  %s\n", full, o)
					}
					continue
				}

				results := make([]string, 0, len(orders))
				var valid bool
				for _, o := range orders {
					state := "invalid"
					if checksum.Valid(id, o) {
						state = "valid"
						valid = true
					}
					results = append(results, o.String()+"="+state)
				}
				invalid = invalid || !valid
				fmt.Fprintf(w, "%s  %s\n", id, strings.Join(results, "  "))
			}
			if invalid {
				return errInvalidChecksum
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&order, "order", "", "digit order: reversed or as_provided (both when empty)")
	cmd.Flags().BoolVar(&complete, "complete", false, "append the check digit to 11 digit prefixes")
	return cmd
}
