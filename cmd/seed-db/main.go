// Command seed-db loads demo partners into the database. Existing partners
// are left untouched, so re-running is safe.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"os/signal"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/xenking/b2b-orders/internal/domain/partner"
	"github.com/xenking/b2b-orders/internal/storage/postgres"
)

type partnerJSON struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	CreditLimit decimal.Decimal `json:"creditLimit"`
}

func main() {
	var (
		databaseURL  string
		partnersFile string
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&partnersFile, "partners-file", "db/seed/partners.json", "path to partners JSON file")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, partnersFile); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, databaseURL, partnersFile string) error {
	slog.Info("connecting to database")

	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	slog.Info("running migrations")

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	return seedPartners(ctx, postgres.NewPartnerRepository(pool), partnersFile)
}

func seedPartners(ctx context.Context, repo *postgres.PartnerRepository, partnersFile string) error {
	slog.Info("reading partners file", slog.String("path", partnersFile))

	data, err := os.ReadFile(partnersFile)
	if err != nil {
		return errors.Wrap(err, "read partners file")
	}

	var records []partnerJSON
	if err := json.Unmarshal(data, &records); err != nil {
		return errors.Wrap(err, "parse partners JSON")
	}

	svc := partner.NewService(repo, noopNotifier{}, zap.NewNop())

	slog.Info("seeding partners", slog.Int("count", len(records)))

	for _, rec := range records {
		_, err := svc.Create(ctx, partner.CreateParams{
			ID:          rec.ID,
			Name:        rec.Name,
			CreditLimit: rec.CreditLimit,
		})

		var dup *partner.DuplicateError
		switch {
		case err == nil:
			slog.Info("created partner", slog.String("id", rec.ID), slog.String("name", rec.Name))
		case errors.As(err, &dup):
			slog.Info("partner exists, skipping", slog.String("id", rec.ID))
		default:
			return errors.Wrapf(err, "create partner %s", rec.ID)
		}
	}

	return nil
}

type noopNotifier struct{}

func (noopNotifier) Send(context.Context, string, string) bool { return true }
