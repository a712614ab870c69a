package main

import (
	"context"
	"os"

	"github.com/goliatone/go-portal/accountsim"
	"github.com/spf13/cobra"
)

func newSimulatorCmd() *cobra.Command {
	sim := &cobra.Command{
		Use:   "simulator",
		Short: "Local account service for development",
	}

	var addr string
	serve := &cobra.Command{
		Use:   "serve",
		Short: "Serve the account endpoints from memory",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := configFrom(cmd)
			if err != nil {
				return err
			}
			if addr == "" {
				addr = cfg.Simulator.Addr
			}

			logger := newLogger(os.Stderr, cfg.Log.Level)
			service := accountsim.New(accountsim.Config{
				SigningKey: []byte(cfg.Simulator.SigningKey),
				TokenTTL:   cfg.Simulator.TokenTTL,
				Logger:     logger,
			})

			if cfg.Simulator.Seed {
				for _, reg := range accountsim.DemoUsers() {
					if _, err := service.AddUser(reg); err != nil {
						return err
					}
					logger.Info("seeded %s / %s", reg.Email, accountsim.DemoPassword)
				}
			}

			return serveUntilDone(cmd.Context(), service, addr)
		},
	}
	serve.Flags().StringVar(&addr, "addr", "", "listen address (default from config)")

	sim.AddCommand(serve)
	return sim
}

func serveUntilDone(ctx context.Context, service *accountsim.Simulator, addr string) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- service.Listen(addr)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		if err := service.Shutdown(); err != nil {
			return err
		}
		return <-errCh
	}
}
