package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/sikka-software/Tanad-sub009/internal/infrastructure/billing"
	"github.com/sikka-software/Tanad-sub009/internal/infrastructure/config"
	"github.com/sikka-software/Tanad-sub009/internal/infrastructure/logger"
	"go.uber.org/zap"
)

func main() {
	var (
		limit       int
		customerID  string
		immediately bool
		confirm     bool
		logLevel    string
	)

	flag.IntVar(&limit, "limit", 0, "Maximum number of customers to list (0 = all)")
	flag.StringVar(&customerID, "customer", "", "Stripe customer id for cancel-subscriptions")
	flag.BoolVar(&immediately, "immediately", false, "Cancel now instead of at period end")
	flag.BoolVar(&confirm, "confirm", false, "Required to cancel subscriptions in live mode")
	flag.StringVar(&logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:      logLevel,
		Format:     "console",
		Output:     "stderr",
		TimeFormat: "2006-01-02 15:04:05",
		Service:    "tanad-billingctl",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = log.Sync()
	}()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration", zap.Error(err))
	}
	if !cfg.Stripe.Enabled() {
		log.Fatal("STRIPE_SECRET_KEY is not set")
	}

	adapter, err := billing.NewStripeAdapter(billing.FromConfig(cfg.Stripe), log)
	if err != nil {
		log.Fatal("Failed to initialize Stripe", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	switch args[0] {
	case "list-customers":
		customers, err := adapter.ListCustomers(ctx, limit)
		if err != nil {
			log.Fatal("Failed to list customers", zap.Error(err))
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "CUSTOMER\tEMAIL\tNAME\tPROFILE\tCREATED")
		for _, c := range customers {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
				c.CustomerID, c.Email, c.Name, c.ProfileID, c.CreatedAt.Format(time.DateOnly))
		}
		_ = w.Flush()

	case "cancel-subscriptions":
		if customerID == "" {
			log.Fatal("Customer required. Usage: billingctl -customer <id> cancel-subscriptions")
		}
		if !cfg.Stripe.IsTestMode() && !confirm {
			log.Fatal("Refusing to cancel live subscriptions without -confirm")
		}
		subs, err := adapter.ListSubscriptions(ctx, customerID)
		if err != nil {
			log.Fatal("Failed to list subscriptions", zap.Error(err))
		}
		canceled := 0
		for _, sub := range subs {
			if sub.Status == billing.SubscriptionStatusCanceled ||
				sub.Status == billing.SubscriptionStatusIncompleteExpired {
				continue
			}
			out, err := adapter.CancelSubscription(ctx, billing.CancelSubscriptionInput{
				SubscriptionID:    sub.SubscriptionID,
				CancelAtPeriodEnd: !immediately,
				Reason:            "canceled by billingctl",
			})
			if err != nil {
				log.Error("Failed to cancel subscription",
					zap.String("subscription_id", sub.SubscriptionID),
					zap.Error(err))
				continue
			}
			canceled++
			fmt.Printf("%s\t%s\n", out.SubscriptionID, out.Status)
		}
		fmt.Printf("canceled %d of %d subscriptions\n", canceled, len(subs))

	default:
		log.Error("Unknown command", zap.String("command", args[0]))
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`Tanad billing operations

Usage:
  billingctl [flags] <command>

Commands:
  list-customers          List Stripe customers
  cancel-subscriptions    Cancel the open subscriptions of a customer

Flags:
  -limit int              Maximum number of customers to list (default: all)
  -customer string        Stripe customer id (cancel-subscriptions)
  -immediately            Cancel now instead of at period end
  -confirm                Required in live mode
  -log-level string       Log level (default: warn)

Environment Variables:
  STRIPE_SECRET_KEY (or TANAD_STRIPE_SECRET_KEY)`)
}
