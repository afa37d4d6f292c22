package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/storefront/internal/domain/coupon"
	"github.com/xenking/storefront/internal/promoimport"
	"github.com/xenking/storefront/internal/storage/postgres"
)

type flags struct {
	databaseURL  string
	pattern      string
	quorum       int
	discountType string
	value        string
	minItems     int
	maxUses      int
	validDays    int
	description  string
	dryRun       bool
}

func main() {
	var f flags

	flag.StringVar(&f.databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&f.pattern, "files", "data/*.gz", "glob of gzip partner code lists")
	flag.IntVar(&f.quorum, "quorum", 2, "number of lists a code must appear in")
	flag.StringVar(&f.discountType, "discount-type", string(coupon.DiscountPercentage), "percentage, fixed or free_lowest")
	flag.StringVar(&f.value, "value", "10", "discount value")
	flag.IntVar(&f.minItems, "min-items", 0, "minimum bag quantity")
	flag.IntVar(&f.maxUses, "max-uses", 1, "redemptions per code (0 is unlimited)")
	flag.IntVar(&f.validDays, "valid-days", 30, "days the codes stay valid (0 never expires)")
	flag.StringVar(&f.description, "description", "Partner promo: 10% off", "description shown at checkout")
	flag.BoolVar(&f.dryRun, "dry-run", false, "scan and report without writing")
	flag.Parse()

	if f.databaseURL == "" {
		f.databaseURL = os.Getenv("DATABASE_URL")
	}
	if f.databaseURL == "" && !f.dryRun {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, f); err != nil {
		slog.Error("coupon ingest failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("coupon ingest completed successfully")
}

func (f flags) template(now time.Time) (coupon.Rule, error) {
	value, err := decimal.NewFromString(f.value)
	if err != nil {
		return coupon.Rule{}, errors.Wrapf(err, "parse value %q", f.value)
	}
	rule := coupon.Rule{
		DiscountType: coupon.DiscountType(f.discountType),
		Value:        value,
		MinItems:     f.minItems,
		Description:  f.description,
		MaxUses:      f.maxUses,
	}
	if !rule.DiscountType.Valid() {
		return coupon.Rule{}, errors.Errorf("unknown discount type %q", f.discountType)
	}
	if f.validDays > 0 {
		until := now.AddDate(0, 0, f.validDays)
		rule.ValidUntil = &until
	}
	return rule, nil
}

func run(ctx context.Context, f flags) error {
	tmpl, err := f.template(time.Now().UTC())
	if err != nil {
		return err
	}

	files, err := filepath.Glob(f.pattern)
	if err != nil {
		return errors.Wrap(err, "match files")
	}
	slog.Info("scanning partner lists", slog.Int("files", len(files)), slog.Int("quorum", f.quorum))

	codes, err := promoimport.Scan(ctx, files, promoimport.Options{
		Quorum:        f.quorum,
		Capacity:      120_000_000,
		ProgressEvery: 10_000_000,
	})
	if err != nil {
		return errors.Wrap(err, "scan")
	}

	slog.Info("accepted codes", slog.Int("count", len(codes)))

	if len(codes) == 0 || f.dryRun {
		return nil
	}

	slog.Info("connecting to database")

	pool, err := postgres.NewPool(ctx, f.databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	repo := postgres.NewCouponRepository(pool)
	rules := promoimport.Rules(codes, tmpl)
	for i, rule := range rules {
		if err := repo.Upsert(ctx, rule); err != nil {
			return err
		}
		if (i+1)%100 == 0 || i+1 == len(rules) {
			slog.Info("write progress", slog.Int("written", i+1), slog.Int("total", len(rules)))
		}
	}

	return nil
}
