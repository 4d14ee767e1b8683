package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"flyerflix/internal/infra"
	"flyerflix/internal/infra/credentials"
)

func main() {
	var (
		keyFlag      string
		providerFlag string
	)
	flag.StringVar(&keyFlag, "key", "", "secret for the selected provider (fallbacks to environment)")
	flag.StringVar(&providerFlag, "provider", credentials.ProviderCheckout, "billing secret to configure (checkout or checkout_webhook)")
	flag.Parse()

	provider := strings.TrimSpace(strings.ToLower(providerFlag))
	switch provider {
	case credentials.ProviderCheckout, credentials.ProviderCheckoutWebhook:
	case "":
		provider = credentials.ProviderCheckout
	default:
		fmt.Fprintf(os.Stderr, "unsupported provider %q\n", providerFlag)
		os.Exit(1)
	}

	key := strings.TrimSpace(keyFlag)
	if key == "" {
		switch provider {
		case credentials.ProviderCheckoutWebhook:
			key = strings.TrimSpace(os.Getenv("CHECKOUT_WEBHOOK_SECRET"))
		default:
			key = strings.TrimSpace(os.Getenv("CHECKOUT_API_KEY"))
		}
	}
	if key == "" {
		fmt.Fprintf(os.Stderr, "%s secret is required via -key or environment\n", provider)
		os.Exit(1)
	}

	dbURL := strings.TrimSpace(os.Getenv("DATABASE_URL"))
	if dbURL == "" {
		fmt.Fprintln(os.Stderr, "DATABASE_URL is required")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create pool: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()

	logger := infra.NewLogger("cli").With().Str("cmd", "billingkey").Str("provider", provider).Logger()
	store := credentials.NewStore(infra.NewSQLRunner(pool, logger))

	execCtx, cancelExec := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelExec()
	var persistErr error
	switch provider {
	case credentials.ProviderCheckoutWebhook:
		persistErr = store.SetWebhookSecret(execCtx, key)
	default:
		persistErr = store.SetCheckoutAPIKey(execCtx, key)
	}
	if persistErr != nil {
		fmt.Fprintf(os.Stderr, "failed to persist %s secret: %v\n", provider, persistErr)
		os.Exit(1)
	}

	fmt.Printf("%s secret stored\n", provider)
}
