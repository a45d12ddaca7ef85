package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"mahabharata-landing/internal/config"
	"mahabharata-landing/internal/gateway"
	"mahabharata-landing/internal/model"
	"mahabharata-landing/internal/repository"
	"mahabharata-landing/internal/service"
	"mahabharata-landing/internal/waitlist"
	"mahabharata-landing/pkg/logger"
)

// app holds what every subcommand needs once configuration is loaded
type app struct {
	cfg    *config.Config
	logger *logger.Logger
	repo   *repository.OrderRepository
	out    io.Writer
}

func newRootCommand(out io.Writer) *cobra.Command {
	a := &app{out: out}

	root := &cobra.Command{
		Use:           "contribctl",
		Short:         "Operate contribution orders and the waitlist from the terminal",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			a.cfg = cfg
			a.logger = logger.New(cfg.Server.LogLevel)
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if a.repo != nil {
				return a.repo.Close()
			}
			return nil
		},
	}
	root.SetOut(out)

	root.AddCommand(a.createCommand(), a.statusCommand(), a.waitlistCommand())
	return root
}

func (a *app) openStore() (*repository.OrderRepository, error) {
	if a.repo == nil {
		repo, err := repository.NewOrderRepository(a.cfg.Storage.OrderDBPath)
		if err != nil {
			return nil, err
		}
		a.repo = repo
	}
	return a.repo, nil
}

func (a *app) printJSON(v any) error {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (a *app) createCommand() *cobra.Command {
	var req model.ContributionRequest
	var amount string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a payment order and print its payment link",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.openStore()
			if err != nil {
				return err
			}
			orders := gateway.NewOrderClient(a.cfg.Gateway.CreateOrderURL, gateway.WithTimeout(a.cfg.Gateway.Timeout))
			svc := service.NewContributionService(orders, store, a.cfg, a.logger)

			req.Amount = model.Amount(amount)
			contribution, err := svc.CreateContribution(cmd.Context(), req)
			if err != nil {
				return err
			}
			return a.printJSON(contribution)
		},
	}

	cmd.Flags().StringVar(&amount, "amount", "", "amount in whole rupees (default from config)")
	cmd.Flags().StringVar(&req.CustomerMobile, "mobile", "", "customer mobile number")
	cmd.Flags().StringVar(&req.RedirectURL, "redirect", "", "URL the gateway returns to after payment")
	cmd.Flags().StringVar(&req.Remark1, "remark1", "", "first remark")
	cmd.Flags().StringVar(&req.Remark2, "remark2", "", "second remark")
	return cmd
}

func (a *app) statusCommand() *cobra.Command {
	var wait time.Duration

	cmd := &cobra.Command{
		Use:   "status ORDER_ID",
		Short: "Check an order's payment status, optionally waiting for completion",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			orderID := args[0]
			store, err := a.openStore()
			if err != nil {
				return err
			}
			statuses := gateway.NewStatusClient(a.cfg.Gateway.StatusURL, gateway.WithTimeout(a.cfg.Gateway.Timeout))
			poller := service.NewStatusPoller(statuses, store, nil, a.cfg, a.logger)

			var res model.StatusResult
			if wait > 0 {
				res, err = poller.WaitForCompletion(cmd.Context(), orderID, wait)
			} else {
				res, err = poller.CheckOnce(cmd.Context(), orderID)
			}

			switch {
			case errors.Is(err, service.ErrOrderNotFound):
				// Orders created elsewhere are only known to the gateway
				res = statuses.CheckStatus(cmd.Context(), model.StatusQuery{
					UserToken: a.cfg.Gateway.UserToken,
					OrderID:   orderID,
				})
			case errors.Is(err, service.ErrPollTimeout):
				fmt.Fprintf(cmd.ErrOrStderr(), "still not completed after %s\n", wait)
			case err != nil:
				return err
			}
			if res.Err != nil {
				return res.Err
			}

			return a.printJSON(model.StatusResponse{
				OrderID:       orderID,
				Completed:     res.Completed(),
				GatewayStatus: res.GatewayStatus,
				Result:        res.Payload,
				Reason:        res.Reason,
			})
		},
	}

	cmd.Flags().DurationVar(&wait, "wait", 0, "keep polling up to this long, e.g. 2m")
	return cmd
}

func (a *app) waitlistCommand() *cobra.Command {
	var entry model.WaitlistEntry

	cmd := &cobra.Command{
		Use:   "waitlist",
		Short: "Add someone to the waitlist",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := waitlist.NewClient(a.cfg.Waitlist.URL, a.cfg.Waitlist.Timeout, nil)
			svc := service.NewWaitlistService(client, nil, a.logger)

			ctx, cancel := context.WithTimeout(cmd.Context(), a.cfg.Waitlist.Timeout+5*time.Second)
			defer cancel()
			if err := svc.Join(ctx, entry); err != nil {
				return err
			}
			fmt.Fprintln(a.out, "added to waitlist")
			return nil
		},
	}

	cmd.Flags().StringVar(&entry.FirstName, "first", "", "first name")
	cmd.Flags().StringVar(&entry.LastName, "last", "", "last name")
	cmd.Flags().StringVar(&entry.Email, "email", "", "email address")
	_ = cmd.MarkFlagRequired("first")
	_ = cmd.MarkFlagRequired("last")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}
