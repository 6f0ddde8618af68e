package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/trezcool/masomo-guard/core"
	"github.com/trezcool/masomo-guard/core/school"
)

func (cli *commandLine) rulesCmd() *cobra.Command {
	var kind string
	var verbose bool
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "List the rule sets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts, err := school.OptionsFromConfig(cli.conf)
			if err != nil {
				return err
			}
			reg, err := school.NewRegistry(opts)
			if err != nil {
				return err
			}

			kind = core.CleanString(kind, true)
			w := cmd.OutOrStdout()
			for _, key := range reg.Keys() {
				if kind != "" && string(key.Kind) != kind {
					continue
				}
				rs, _ := reg.Lookup(key)
				audited := ""
				if rs.Audited {
					audited = " [audited]"
				}
				fmt.Fprintf(w, "%-20s %s%s\n", key, rs.Description, audited)
				if !verbose {
					continue
				}
				fields := make([]string, 0, len(rs.Fields))
				for _, fr := range rs.Fields {
					name := fr.Field
					if fr.Required {
						name += "*"
					}
					fields = append(fields, name)
				}
				fmt.Fprintf(w, "    fields: %s\n", strings.Join(fields, ", "))
				for _, name := range rs.RuleNames() {
					fmt.Fprintf(w, "    - %s\n", name)
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&kind, "kind", "", "only list the rule sets of this kind")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "list the fields and rules of every rule set")
	return cmd
}
