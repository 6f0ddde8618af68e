package main

import (
	"context"
	"io"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/trezcool/masomo-guard/core"
	"github.com/trezcool/masomo-guard/core/engine"
)

var (
	errRejected        = errors.New("candidate record rejected")
	errInvalidChecksum = errors.New("invalid check digit")
)

type commandLine struct {
	conf *core.Config
	in   io.Reader
	out  io.Writer
	err  io.Writer
	// openProvider connects to the configured database; mockable
	openProvider func(ctx context.Context, conf *core.Config) (engine.DataProvider, io.Closer, error)
}

func (cli *commandLine) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "admin",
		Short: "Masomo Guard administration",
		Long: `Administration commands of Masomo Guard, the business rule checker of the school
operations: validate candidate records, list the rule sets, check national ids and issue API
tokens.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetIn(cli.in)
	root.SetOut(cli.out)
	root.SetErr(cli.err)

	root.AddCommand(
		cli.validateCmd(),
		cli.rulesCmd(),
		cli.checksumCmd(),
		cli.tokenCmd(),
	)
	return root
}

// run executes the command line; args[0] is the program name.
func (cli *commandLine) run(args []string) error {
	root := cli.rootCmd()
	if len(args) > 0 {
		args = args[1:]
	}
	root.SetArgs(args)
	return root.Execute()
}
