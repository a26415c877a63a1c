package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"typehide/internal/typespan"
)

var toggleCmd = &cobra.Command{
	Use:       "toggle [on|off]",
	Short:     "Flip or set the persisted hidden mode",
	Long:      "Without an argument the mode flips. \"on\" hides type-level spans, \"off\" shows them.",
	Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{"on", "off", "hide", "show"},
	RunE:      runToggle,
}

var kindsCmd = &cobra.Command{
	Use:   "kinds",
	Short: "List span kinds",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ignored, err := sess.cfg.IgnoredKinds()
		if err != nil {
			return err
		}
		skip := make(map[typespan.Kind]bool, len(ignored))
		for _, k := range ignored {
			skip[k] = true
		}
		out := cmd.OutOrStdout()
		for _, k := range typespan.Kinds() {
			if skip[k] {
				fmt.Fprintf(out, "%s (ignored)\n", k)
				continue
			}
			fmt.Fprintln(out, k)
		}
		return nil
	},
}

func runToggle(cmd *cobra.Command, args []string) error {
	st, err := sess.openStore()
	if err != nil {
		return err
	}

	hidden, ok, err := st.LoadHidden()
	if err != nil {
		return err
	}
	if !ok {
		hidden = sess.cfg.Hidden
	}

	if len(args) == 0 {
		hidden = !hidden
	} else {
		switch strings.ToLower(args[0]) {
		case "on", "hide":
			hidden = true
		case "off", "show":
			hidden = false
		}
	}

	if err := st.SaveHidden(hidden); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), statusLabel(hidden))
	return nil
}

// statusLabel is the mode indicator shown in the viewer footer.
func statusLabel(hidden bool) string {
	if hidden {
		return "TH on"
	}
	return "TH off"
}
