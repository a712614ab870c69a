package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/goliatone/go-portal/config"
	"github.com/spf13/cobra"
)

type cfgKey struct{}

func newRootCmd() *cobra.Command {
	var (
		configPath string
		baseURL    string
		storeKind  string
		logLevel   string
	)

	root := &cobra.Command{
		Use:   "campus",
		Short: "Campus portal session client",
		Long: `campus signs you in to the campus portal and reports what the portal
would show for a given view.

The session token is kept in a local store (file, sqlite or memory) and is
verified against the account service every time a command starts.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if baseURL != "" {
				cfg.API.BaseURL = strings.TrimRight(baseURL, "/")
			}
			if storeKind != "" && storeKind != cfg.Store.Driver {
				cfg.Store.Driver = storeKind
				cfg.Store.Path = config.DefaultStorePath(storeKind)
			}
			if logLevel != "" {
				cfg.Log.Level = logLevel
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			cmd.SetContext(context.WithValue(cmd.Context(), cfgKey{}, cfg))
			return nil
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&configPath, "config", "", "config file (default campus.yaml)")
	flags.StringVar(&baseURL, "base-url", "", "account service base URL")
	flags.StringVar(&storeKind, "store", "", "token store driver: file, sqlite or memory")
	flags.StringVar(&logLevel, "log-level", "", "log level: debug, info or error")

	root.AddCommand(
		newLoginCmd(),
		newRegisterCmd(),
		newLogoutCmd(),
		newWhoamiCmd(),
		newProfileCmd(),
		newPasswdCmd(),
		newOpenCmd(),
		newRolesCmd(),
		newSimulatorCmd(),
	)

	return root
}

func configFrom(cmd *cobra.Command) (*config.Config, error) {
	cfg, ok := cmd.Context().Value(cfgKey{}).(*config.Config)
	if !ok || cfg == nil {
		return nil, fmt.Errorf("configuration not loaded")
	}
	return cfg, nil
}

// withApp builds the session for the command and always closes the store
func withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app) error) error {
	cfg, err := configFrom(cmd)
	if err != nil {
		return err
	}

	a, err := newApp(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := a.Close(); cerr != nil {
			a.logger.Error("failed to close token store: %v", cerr)
		}
	}()

	return fn(cmd.Context(), a)
}
