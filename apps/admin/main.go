package main

import (
	"context"
	"io"
	"log"
	"os"

	"github.com/pkg/errors"

	"github.com/trezcool/masomo-guard/apps"
	"github.com/trezcool/masomo-guard/core"
	"github.com/trezcool/masomo-guard/core/engine"
)

var logger *log.Logger

func main() {
	logger = log.New(os.Stderr, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)

	conf, err := core.NewConfig()
	if err != nil {
		logger.Fatal(err)
	}

	cli := commandLine{
		conf:         conf,
		in:           os.Stdin,
		out:          os.Stdout,
		err:          os.Stderr,
		openProvider: openProvider,
	}
	if err := cli.run(os.Args); err != nil {
		switch errors.Cause(err) {
		case errRejected, errInvalidChecksum:
			os.Exit(2)
		default:
			logger.Printf("error: %s\n", err)
			os.Exit(1)
		}
	}
}

func openProvider(ctx context.Context, conf *core.Config) (engine.DataProvider, io.Closer, error) {
	provider, db, err := apps.OpenProvider(ctx, conf)
	if err != nil {
		return nil, nil, err
	}
	return provider, db, nil
}
