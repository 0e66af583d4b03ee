package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"storefront/internal/config"
	"storefront/internal/database"
	"storefront/internal/domain"
	"storefront/internal/repository"
	"storefront/internal/service"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
)

// backend opens what the commands operate on. Each command closes what it opened.
type backend interface {
	Migrate(status bool) error
	Catalog() (service.ProductService, func() error, error)
}

type postgresBackend struct {
	cfg    *config.Config
	logger *zap.Logger
}

func newPostgresBackend(cfg *config.Config, logger *zap.Logger) *postgresBackend {
	return &postgresBackend{cfg: cfg, logger: logger}
}

func (b *postgresBackend) Migrate(status bool) error {
	dbService, err := database.New(b.cfg.Database)
	if err != nil {
		return err
	}
	defer dbService.Close()

	if status {
		return database.GetMigrationStatus(dbService.DB())
	}
	return database.RunMigrations(dbService.DB(), b.logger)
}

func (b *postgresBackend) Catalog() (service.ProductService, func() error, error) {
	dbService, err := database.New(b.cfg.Database)
	if err != nil {
		return nil, nil, err
	}
	return service.NewProductService(repository.NewProductRepository(dbService.DB())), dbService.Close, nil
}

func newApp(b backend) *cli.App {
	return &cli.App{
		Name:  "storectl",
		Usage: "manage the storefront database and catalog",
		Commands: []*cli.Command{
			migrateCommand(b),
			seedCommand(b),
			productsCommand(b),
		},
	}
}

func migrateCommand(b backend) *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "apply pending schema migrations",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "status", Usage: "print migration status instead of migrating"},
		},
		Action: func(c *cli.Context) error {
			return b.Migrate(c.Bool("status"))
		},
	}
}

func seedCommand(b backend) *cli.Command {
	return &cli.Command{
		Name:  "seed",
		Usage: "insert products from a JSON array of {name, price, description, image}",
		Flags: []cli.Flag{
			&cli.PathFlag{Name: "file", Aliases: []string{"f"}, Required: true, Usage: "products JSON file"},
		},
		Action: func(c *cli.Context) error {
			products, err := readProducts(c.Path("file"))
			if err != nil {
				return err
			}

			catalog, closeFn, err := b.Catalog()
			if err != nil {
				return err
			}
			defer closeFn()

			imported, err := catalog.Import(c.Context, products)
			fmt.Fprintf(c.App.Writer, "imported %d of %d products\n", imported, len(products))
			return err
		},
	}
}

func productsCommand(b backend) *cli.Command {
	return &cli.Command{
		Name:  "products",
		Usage: "list catalog products ordered by name",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "limit", Value: 50, Usage: "maximum number of products"},
		},
		Action: func(c *cli.Context) error {
			catalog, closeFn, err := b.Catalog()
			if err != nil {
				return err
			}
			defer closeFn()

			products, err := catalog.List(c.Context, c.Int("limit"))
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(c.App.Writer, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tPRICE")
			for _, p := range products {
				fmt.Fprintf(tw, "%s\t%s\t%.2f\n", p.ID, p.Name, p.Price)
			}
			return tw.Flush()
		},
	}
}

func readProducts(path string) ([]*domain.Product, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var products []*domain.Product
	if err := json.Unmarshal(raw, &products); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return products, nil
}
