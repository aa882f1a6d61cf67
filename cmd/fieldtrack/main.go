package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	attendance "fieldtrack/internal/attendance/bootstrap"
	live "fieldtrack/internal/live/bootstrap"
	"fieldtrack/internal/shared/auth"
	"fieldtrack/internal/shared/config"
	"fieldtrack/internal/shared/logger"
	"fieldtrack/internal/simulator"
)

func main() {
	// .env is optional; real deployments set the environment directly
	_ = godotenv.Load()

	root := &cobra.Command{
		Use:           "fieldtrack",
		Short:         "Field employee attendance and live GPS tracking",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(serveCmd(), simulateCmd(), tokenCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func serveCmd() *cobra.Command {
	var service string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the attendance and/or live service",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			ctx, stop := signalContext()
			defer stop()

			var wg sync.WaitGroup
			runAttendance := service == "attendance" || service == "all"
			runLive := service == "live" || service == "all"
			if !runAttendance && !runLive {
				return fmt.Errorf("unknown service %q (want attendance, live or all)", service)
			}

			if runAttendance {
				wg.Add(1)
				go func() {
					defer wg.Done()
					attendance.Run(ctx, cfg, logger.NewLogger("attendance-service"))
				}()
			}
			if runLive {
				wg.Add(1)
				go func() {
					defer wg.Done()
					live.Run(ctx, cfg, logger.NewLogger("live-service"))
				}()
			}

			wg.Wait()
			return nil
		},
	}

	cmd.Flags().StringVar(&service, "service", "all", "which service to run: attendance, live or all")
	return cmd
}

func simulateCmd() *cobra.Command {
	var workers int
	var cycle time.Duration
	var seed int64

	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Drive synthetic workers through attendance cycles",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			ctx, stop := signalContext()
			defer stop()

			opts := simulator.Options{Workers: workers, CycleDuration: cycle, Seed: seed}
			return simulator.Run(ctx, cfg, opts, logger.NewLogger("simulator"))
		},
	}

	cmd.Flags().IntVar(&workers, "workers", 5, "number of synthetic workers")
	cmd.Flags().DurationVar(&cycle, "cycle", 2*time.Minute, "approximate checkin-to-checkout duration")
	cmd.Flags().Int64Var(&seed, "seed", 0, "random seed (0 uses the clock)")
	return cmd
}

func tokenCmd() *cobra.Command {
	var userID, name, role string

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Generate a JWT for local testing",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if userID == "" {
				return fmt.Errorf("--user-id is required")
			}
			if role != auth.RoleEmployee && role != auth.RoleOperator {
				return fmt.Errorf("--role must be %s or %s", auth.RoleEmployee, auth.RoleOperator)
			}

			token, err := auth.NewJWTService(cfg.JWT).GenerateToken(userID, name, role)
			if err != nil {
				return fmt.Errorf("generate token: %w", err)
			}
			fmt.Println(token)
			return nil
		},
	}

	cmd.Flags().StringVar(&userID, "user-id", "", "subject user id")
	cmd.Flags().StringVar(&name, "name", "", "display name")
	cmd.Flags().StringVar(&role, "role", auth.RoleEmployee, "employee or operator")
	return cmd
}
