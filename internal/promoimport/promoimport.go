// Package promoimport extracts promo codes from partner code lists.
//
// Each partner ships a gzip file with one code per line. A code is accepted
// when it appears in at least Quorum of the files. The scan runs in two
// passes: a bloom filter per file, then an exact count per code of the files
// that contain it, limited to codes some other file's filter may hold.
package promoimport

import (
	"bufio"
	"context"
	"log/slog"
	"math/bits"
	"os"
	"slices"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/go-faster/errors"
	pgzip "github.com/klauspost/pgzip"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/storefront/internal/domain/coupon"
)

// Options tunes a scan.
type Options struct {
	// Quorum is the number of files a code must appear in. Defaults to 2.
	Quorum int
	MinLen int
	MaxLen int
	// Capacity and FPR size each file's bloom filter.
	Capacity uint
	FPR      float64
	// ProgressEvery logs progress every n codes per file. Zero disables it.
	ProgressEvery uint64
	Logger        *slog.Logger
}

func (o *Options) setDefaults() {
	if o.Quorum <= 0 {
		o.Quorum = 2
	}
	if o.MinLen <= 0 {
		o.MinLen = 4
	}
	if o.MaxLen <= 0 {
		o.MaxLen = 32
	}
	if o.Capacity == 0 {
		o.Capacity = 1_000_000
	}
	if o.FPR <= 0 {
		o.FPR = 0.001
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
}

// Scan returns the normalized codes that appear in at least Quorum files,
// sorted.
func Scan(ctx context.Context, files []string, opts Options) ([]string, error) {
	opts.setDefaults()
	switch {
	case len(files) == 0:
		return nil, errors.New("no input files")
	case len(files) > bits.UintSize:
		return nil, errors.Errorf("at most %d input files are supported", bits.UintSize)
	case opts.Quorum < 2 || opts.Quorum > len(files):
		return nil, errors.Errorf("quorum %d must be between 2 and %d", opts.Quorum, len(files))
	}

	opts.Logger.Info("pass 1: building bloom filters", slog.Int("files", len(files)))
	filters, err := buildFilters(ctx, files, opts)
	if err != nil {
		return nil, errors.Wrap(err, "build bloom filters")
	}

	opts.Logger.Info("pass 2: counting shared codes")
	masks, err := findShared(ctx, files, filters, opts)
	if err != nil {
		return nil, errors.Wrap(err, "find shared codes")
	}

	var out []string
	for code, mask := range masks {
		if bits.OnesCount(mask) >= opts.Quorum {
			out = append(out, code)
		}
	}
	slices.Sort(out)
	return out, nil
}

// Rules turns accepted codes into coupon rules that share tmpl's terms.
func Rules(codes []string, tmpl coupon.Rule) []coupon.Rule {
	out := make([]coupon.Rule, len(codes))
	for i, code := range codes {
		r := tmpl
		r.Code = code
		r.Uses = 0
		out[i] = r
	}
	return out
}

func buildFilters(ctx context.Context, files []string, opts Options) ([]*bloom.BloomFilter, error) {
	filters := make([]*bloom.BloomFilter, len(files))

	g, ctx := errgroup.WithContext(ctx)
	for i, path := range files {
		g.Go(func() error {
			filter := bloom.NewWithEstimates(opts.Capacity, opts.FPR)
			n, err := streamCodes(ctx, path, opts, func(code string) {
				filter.AddString(code)
			})
			if err != nil {
				return errors.Wrapf(err, "file %d", i+1)
			}
			opts.Logger.Info("pass 1 complete", slog.Int("file", i+1), slog.Uint64("codes", n))
			filters[i] = filter
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return filters, nil
}

// findShared returns, per candidate code, a bitmask of the files that contain
// it. A file sets its own bit only, so the mask counts real occurrences and
// bloom false positives cannot inflate it.
func findShared(ctx context.Context, files []string, filters []*bloom.BloomFilter, opts Options) (map[string]uint, error) {
	results := make([]map[string]uint, len(files))

	g, ctx := errgroup.WithContext(ctx)
	for i, path := range files {
		g.Go(func() error {
			candidates := make(map[string]uint)
			bit := uint(1) << uint(i)
			n, err := streamCodes(ctx, path, opts, func(code string) {
				for j, f := range filters {
					if j != i && f.TestString(code) {
						candidates[code] |= bit
						return
					}
				}
			})
			if err != nil {
				return errors.Wrapf(err, "file %d", i+1)
			}
			opts.Logger.Info("pass 2 complete",
				slog.Int("file", i+1),
				slog.Uint64("codes", n),
				slog.Int("candidates", len(candidates)),
			)
			results[i] = candidates
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	merged := make(map[string]uint)
	for _, r := range results {
		for code, mask := range r {
			merged[code] |= mask
		}
	}
	return merged, nil
}

// streamCodes calls fn for every normalized code of acceptable length in the
// gzip file at path and returns how many it passed.
func streamCodes(ctx context.Context, path string, opts Options, fn func(code string)) (uint64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, errors.Wrapf(err, "open %s", path)
	}
	defer func() { _ = f.Close() }()

	gz, err := pgzip.NewReader(f)
	if err != nil {
		return 0, errors.Wrapf(err, "create gzip reader for %s", path)
	}
	defer func() { _ = gz.Close() }()

	var n uint64
	scanner := bufio.NewScanner(gz)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return n, err
		}
		code := coupon.Normalize(scanner.Text())
		if len(code) < opts.MinLen || len(code) > opts.MaxLen {
			continue
		}
		fn(code)
		n++
		if opts.ProgressEvery > 0 && n%opts.ProgressEvery == 0 {
			opts.Logger.Info("scan progress", slog.String("file", path), slog.Uint64("codes", n))
		}
	}
	if err := scanner.Err(); err != nil {
		return n, errors.Wrapf(err, "scan %s", path)
	}
	return n, nil
}
