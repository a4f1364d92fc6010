package main

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lingualoop/learning-api/internal/language"
	"github.com/spf13/cobra"
)

func newLanguagesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "languages",
		Short: "List supported languages with their locale and voice",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%-4s %-12s %-7s %s\n", "CODE", "NAME", "LOCALE", "VOICE")
			for _, code := range language.Codes() {
				name, _ := language.DisplayName(code)
				locale, _ := language.ProviderLocale(code)
				voice := "-"
				if v, err := language.SpeechVoice(code); err == nil {
					voice = fmt.Sprintf("%s (%s)", v.ID, v.Locale)
				}
				fmt.Fprintf(out, "%-4s %-12s %-7s %s\n", code, name, locale, voice)
			}
			return nil
		},
	}
}

func newResolveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "resolve USER_ID",
		Short: "Resolve a user's language pair from the users table and print it as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := ctx.resolver(cmd.Context())
			if err != nil {
				return err
			}
			rc, err := r.ResolveForUser(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("resolve %s: %w", args[0], err)
			}

			if rc.SameLanguage() {
				fmt.Fprintln(cmd.ErrOrStderr(), "warning: native and target language are the same; translation is unavailable")
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(rc)
		},
	}
}

func newInvalidateCommand(ctx *commandContext) *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "invalidate [USER_ID]",
		Short: "Drop cached language pairs from the shared cache",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if all == (len(args) == 1) {
				return errors.New("pass exactly one of USER_ID or --all")
			}
			cache, err := ctx.cache()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if all {
				n, err := cache.Purge(cmd.Context())
				if err != nil {
					return fmt.Errorf("purge language cache: %w", err)
				}
				fmt.Fprintf(out, "Removed %d cached language pairs\n", n)
				return nil
			}
			n, err := cache.Delete(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("invalidate %s: %w", args[0], err)
			}
			if n == 0 {
				fmt.Fprintf(out, "Invalidated %s (no cached pair)\n", args[0])
				return nil
			}
			fmt.Fprintf(out, "Invalidated %s\n", args[0])
			return nil
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "Drop every cached pair")
	return cmd
}
