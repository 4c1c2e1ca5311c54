// Command seed-catalog loads products from a JSON catalog file (optionally
// gzip-compressed) into the database. Existing products are updated in place.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/go-faster/errors"
	pgzip "github.com/klauspost/pgzip"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/evoloop/storefront/internal/domain/product"
	"github.com/evoloop/storefront/internal/repository"
)

const seedWorkers = 4

type productJSON struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Image       string          `json:"image"`
	IsFeatured  bool            `json:"isFeatured"`
	Stock       int             `json:"stock"`
	Category    string          `json:"category"`
}

func main() {
	var (
		databaseURL string
		catalogFile string
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&catalogFile, "catalog-file", "db/seed/catalog.json", "path to catalog JSON file (.json or .json.gz)")
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

	if err := run(ctx, databaseURL, catalogFile); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, databaseURL, catalogFile string) error {
	products, err := readCatalog(catalogFile)
	if err != nil {
		return errors.Wrap(err, "read catalog")
	}
	for _, p := range products {
		if p.ID == "" || p.Name == "" {
			return errors.Errorf("catalog entry missing id or name: %+v", p)
		}
		if !product.ValidCategory(p.Category) {
			return errors.Errorf("product %s has invalid category %q", p.ID, p.Category)
		}
	}

	slog.Info("connecting to database")

	pool, err := repository.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	slog.Info("running migrations")

	if err := repository.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	return seedProducts(ctx, repository.NewProductRepository(pool), products)
}

// readCatalog parses the catalog file, transparently decompressing .gz input.
func readCatalog(path string) ([]productJSON, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", path)
	}
	defer func() { _ = f.Close() }()

	var r io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		gz, err := pgzip.NewReader(f)
		if err != nil {
			return nil, errors.Wrapf(err, "create gzip reader for %s", path)
		}
		defer func() { _ = gz.Close() }()
		r = gz
	}

	var products []productJSON
	if err := json.NewDecoder(r).Decode(&products); err != nil {
		return nil, errors.Wrapf(err, "parse %s", path)
	}
	return products, nil
}

// seedProducts upserts the catalog concurrently. Each product is created, or
// updated when it already exists.
func seedProducts(ctx context.Context, repo *repository.ProductRepository, products []productJSON) error {
	slog.Info("upserting products", slog.Int("count", len(products)))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(seedWorkers)

	for _, pj := range products {
		g.Go(func() error {
			p := &product.Product{
				ID:          pj.ID,
				Name:        pj.Name,
				Description: pj.Description,
				Price:       pj.Price.Round(2),
				Image:       pj.Image,
				IsFeatured:  pj.IsFeatured,
				Stock:       pj.Stock,
				Category:    pj.Category,
			}

			if err := repo.Update(ctx, p); err == nil {
				slog.Info("updated product", slog.String("id", p.ID), slog.String("name", p.Name))
				return nil
			} else if !errors.Is(err, product.ErrNotFound) {
				return errors.Wrapf(err, "update product %s", p.ID)
			}

			if err := repo.Create(ctx, p); err != nil {
				return errors.Wrapf(err, "create product %s", p.ID)
			}
			slog.Info("created product", slog.String("id", p.ID), slog.String("name", p.Name))
			return nil
		})
	}

	return g.Wait()
}
