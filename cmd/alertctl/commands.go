package main

import (
	"context"
	"fmt"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"setup_scanner/internal/models"
	"setup_scanner/internal/modules/dedup"
	dedupsvc "setup_scanner/internal/modules/dedup/service"
	indicators "setup_scanner/internal/modules/indicators/service"
	okx "setup_scanner/internal/modules/okx_client/service"
	setups "setup_scanner/internal/modules/setups/service"
)

var now = time.Now

func openDeduper(ctx context.Context, opts *options) (*dedupsvc.Deduper, error) {
	store, err := dedup.NewStore(opts.cfg, zap.NewNop())
	if err != nil {
		return nil, errors.Wrapf(err, "open %s store", opts.cfg.Dedup.Backend)
	}
	d := dedupsvc.NewDeduper(store, opts.cfg.Dedup.Cooldown, zap.NewNop()).WithTimeout(opts.cfg.Dedup.Timeout)
	if err := d.Load(ctx); err != nil {
		_ = d.Close()
		return nil, err
	}
	return d, nil
}

func parseSetup(raw string) (models.Setup, error) {
	id, err := strconv.Atoi(raw)
	if err != nil {
		return models.Setup{}, errors.Errorf("setup %q: want a number 1..6", raw)
	}
	s, ok := models.Setups[models.SetupID(id)]
	if !ok {
		return models.Setup{}, errors.Errorf("unknown setup %d", id)
	}
	return s, nil
}

func newListCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List alert records with time left until the next allowed send",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			d, err := openDeduper(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer d.Close()

			at := now().UTC()
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "SYMBOL\tSETUP\tLAST SENT (UTC)\tNEXT IN")
			for _, r := range d.Records() {
				next := "now"
				if left := d.Remaining(r.Key, at); left > 0 {
					next = left.Truncate(time.Second).String()
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
					r.Key.Symbol, r.Key.Setup, r.LastSentAt.UTC().Format(time.DateTime), next)
			}
			return w.Flush()
		},
	}
}

func newCheckCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "check SYMBOL SETUP_ID",
		Short: "Tell whether an alert for the pair would pass the cooldown now",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			setup, err := parseSetup(args[1])
			if err != nil {
				return err
			}
			d, err := openDeduper(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer d.Close()

			key := models.AlertKey{Symbol: args[0], Setup: setup.Label}
			if left := d.Remaining(key, now().UTC()); left > 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "%s: suppressed for %s\n", key, left.Truncate(time.Second))
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: eligible\n", key)
			return nil
		},
	}
}

func newResetCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "reset SYMBOL [SETUP_ID]",
		Short: "Forget cooldown records for a symbol (all setups unless SETUP_ID is given)",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var only *models.Setup
			if len(args) == 2 {
				s, err := parseSetup(args[1])
				if err != nil {
					return err
				}
				only = &s
			}

			d, err := openDeduper(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer d.Close()

			removed := 0
			for _, r := range d.Records() {
				if r.Key.Symbol != args[0] || (only != nil && r.Key.Setup != only.Label) {
					continue
				}
				d.Forget(cmd.Context(), r.Key)
				removed++
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed %d record(s) for %s\n", removed, args[0])
			return nil
		},
	}
}

func newExplainCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "explain SYMBOL",
		Short: "Fetch live candles and show every setup condition for the last bar",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := opts.cfg
			client := okx.NewClient(cfg)

			cs, err := client.FetchSeries(cmd.Context(), args[0], cfg.Scanner.Timeframe, cfg.Scanner.CandleLimit)
			if err != nil {
				return errors.Wrap(err, "fetch candles")
			}
			series, snap, err := indicators.NewPipeline(cfg).Compute(cs)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s %s close=%g rsi=%.2f adx=%.2f atr=%.4f\n",
				args[0], cfg.Scanner.Timeframe, snap.Close, snap.RSI, snap.ADX, snap.ATR)

			engine := setups.NewEngine(cfg)
			if res, ok := engine.Evaluate(snap, series); ok {
				fmt.Fprintf(out, "fires: %s\n", res.Setup.Label)
			} else {
				fmt.Fprintln(out, "fires: none")
			}

			for _, v := range engine.Explain(snap, series) {
				mark := "-"
				if v.Matched {
					mark = "+"
				}
				fmt.Fprintf(out, "\n[%s] %s\n", mark, v.Setup.Label)
				for _, c := range v.Conditions {
					ok := "no"
					if c.OK {
						ok = "yes"
					}
					fmt.Fprintf(out, "    %-28s %s\n", c.Name, ok)
				}
			}
			return nil
		},
	}
}
