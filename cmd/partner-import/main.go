// Command partner-import bulk-loads partners from gzip-compressed CSV
// files. Each line holds "id,name,credit_limit". Files are decompressed and
// parsed concurrently; rows for partners that already exist are skipped so
// the import can be re-run on overlapping exports.
package main

import (
	"bufio"
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"sync/atomic"

	"github.com/go-faster/errors"
	pgzip "github.com/klauspost/pgzip"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/b2b-orders/internal/domain/partner"
	"github.com/xenking/b2b-orders/internal/storage/postgres"
)

const (
	numWorkers    = 8
	progressEvery = 10_000
)

type record struct {
	id          string
	name        string
	creditLimit decimal.Decimal
}

func main() {
	var databaseURL string

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}
	if flag.NArg() == 0 {
		slog.Error("usage: partner-import [flags] <file.csv.gz>...")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, flag.Args()); err != nil {
		slog.Error("partner import failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("partner import completed successfully")
}

func run(ctx context.Context, databaseURL string, files []string) error {
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			return errors.Wrapf(err, "check file %s", f)
		}
	}

	slog.Info("connecting to database")

	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	repo := postgres.NewPartnerRepository(pool)

	var created, skipped, failed atomic.Int64

	g, ctx := errgroup.WithContext(ctx)
	records := make(chan record, 1024)

	for range numWorkers {
		g.Go(func() error {
			for rec := range records {
				p, err := partner.New(rec.id, rec.name, rec.creditLimit)
				if err != nil {
					failed.Add(1)
					slog.Warn("invalid partner row, skipping",
						slog.String("id", rec.id),
						slog.String("error", err.Error()),
					)
					continue
				}

				err = repo.Create(ctx, p)
				var dup *partner.DuplicateError
				switch {
				case err == nil:
					if n := created.Add(1); n%progressEvery == 0 {
						slog.Info("import progress", slog.Int64("created", n))
					}
				case errors.As(err, &dup):
					skipped.Add(1)
				default:
					return errors.Wrapf(err, "create partner %s", rec.id)
				}
			}
			return nil
		})
	}

	g.Go(func() error {
		defer close(records)
		for _, f := range files {
			if err := streamGzFile(ctx, f, records); err != nil {
				return err
			}
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}

	slog.Info("import summary",
		slog.Int64("created", created.Load()),
		slog.Int64("skipped", skipped.Load()),
		slog.Int64("invalid", failed.Load()),
	)
	return nil
}

// streamGzFile decompresses one file and sends a record per CSV line.
// Blank lines and a leading "id,name,credit_limit" header are ignored.
func streamGzFile(ctx context.Context, path string, out chan<- record) error {
	slog.Info("reading file", slog.String("path", path))

	f, err := os.Open(path)
	if err != nil {
		return errors.Wrapf(err, "open %s", path)
	}
	defer func() { _ = f.Close() }()

	gz, err := pgzip.NewReader(f)
	if err != nil {
		return errors.Wrapf(err, "create gzip reader for %s", path)
	}
	defer func() { _ = gz.Close() }()

	scanner := bufio.NewScanner(gz)
	var lineNo int
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		lineNo++

		line := strings.TrimSpace(scanner.Text())
		if line == "" || (lineNo == 1 && strings.HasPrefix(line, "id,")) {
			continue
		}

		rec, err := parseLine(line)
		if err != nil {
			return errors.Wrapf(err, "%s:%d", path, lineNo)
		}

		select {
		case out <- rec:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	if err := scanner.Err(); err != nil {
		return errors.Wrapf(err, "scan %s", path)
	}
	return nil
}

func parseLine(line string) (record, error) {
	parts := strings.SplitN(line, ",", 3)
	if len(parts) != 3 {
		return record{}, errors.Errorf("expected 3 fields, got %d", len(parts))
	}

	limit, err := decimal.NewFromString(strings.TrimSpace(parts[2]))
	if err != nil {
		return record{}, errors.Wrap(err, "parse credit limit")
	}

	return record{
		id:          strings.TrimSpace(parts[0]),
		name:        strings.TrimSpace(parts[1]),
		creditLimit: limit,
	}, nil
}
