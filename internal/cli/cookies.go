package cli

import (
	"fmt"

	"siteshell/internal/cookiejar"
	"siteshell/internal/storage/db"
	"siteshell/internal/storage/repo"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newCookiesCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cookies",
		Short: "Inspect the saved site cookies",
		Long: `Inspect the cookies saved between sessions:
  show  - Print the saved cookies, one per line
  clear - Remove the saved cookies`,
	}

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Print the saved cookies",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, gdb, err := openStore(v)
			if err != nil {
				return err
			}
			defer func() { _ = db.Close(gdb) }()

			header, ok, err := repo.NewPreferenceRepo(gdb).GetString(cmd.Context(), cfg.Cookies.Prefs, cfg.Cookies.Key)
			if err != nil {
				return fmt.Errorf("read cookies: %w", err)
			}
			out := cmd.OutOrStdout()
			if !ok || header == "" {
				fmt.Fprintln(out, "No saved cookies.")
				return nil
			}
			for _, c := range cookiejar.Split(header) {
				fmt.Fprintln(out, c)
			}
			return nil
		},
	}

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove the saved cookies",
		Long:  `Remove the saved cookies. The next launch starts signed out.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, gdb, err := openStore(v)
			if err != nil {
				return err
			}
			defer func() { _ = db.Close(gdb) }()

			if err := repo.NewPreferenceRepo(gdb).Remove(cmd.Context(), cfg.Cookies.Prefs, cfg.Cookies.Key); err != nil {
				return fmt.Errorf("clear cookies: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Saved cookies cleared.")
			return nil
		},
	}

	cmd.AddCommand(showCmd)
	cmd.AddCommand(clearCmd)
	return cmd
}
