// Command domaincheck verifies that email domains can receive mail.
//
//	domaincheck [flags] <email-or-domain>...
//
// One JSON result is printed per input, in input order.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/optimode/domaincheck"
)

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "domaincheck [flags] <email-or-domain>...",
		Short:         "Verify that email domains can receive mail",
		Long:          `Checks the MX records of each domain and, depending on the policy flags, whether a candidate mail host accepts TCP connections on an SMTP port (25, 465, 587, 2525).`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd.Flags())
			if err != nil {
				return err
			}

			logger := zerolog.New(stderr).With().Timestamp().Logger().Level(cfg.LogLevel)
			v := domaincheck.New().WithLogger(logger)

			results, verr := v.VerifyMany(cmd.Context(), args, cfg.Options, domaincheck.ConcurrencyOptions{Workers: cfg.Workers})
			return printResults(stdout, args, results, verr)
		},
	}
	registerFlags(cmd.Flags())
	return cmd
}

type output struct {
	Input string `json:"input"`
	domaincheck.Result
}

func printResults(w io.Writer, inputs []string, results []domaincheck.Result, verr error) error {
	enc := json.NewEncoder(w)
	for i, r := range results {
		if err := enc.Encode(output{Input: inputs[i], Result: r}); err != nil {
			return err
		}
	}
	return verr
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCmd(os.Stdout, os.Stderr).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "domaincheck:", err)
		os.Exit(1)
	}
}
