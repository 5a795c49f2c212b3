// Command seed fills an empty database with an admin, a demo seller and a
// handful of categories and products for local development.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"marketly.com/app/internal/config"
	"marketly.com/app/internal/db"
	"marketly.com/app/internal/modules/products"
	"marketly.com/app/internal/modules/shops"
	"marketly.com/app/internal/modules/users"
	"marketly.com/app/internal/modules/vouchers"
	"marketly.com/app/internal/shared/apperr"
	"marketly.com/app/internal/storage"
)

type seedProduct struct {
	name     string
	category string
	cents    int64
	stock    int
}

var (
	categories = []string{"Ceramics", "Home & Garden", "Prints", "Textiles"}
	catalog    = []seedProduct{
		{"Glazed Stoneware Mug", "Ceramics", 1850, 24},
		{"Speckled Serving Bowl", "Ceramics", 4200, 6},
		{"Linen Tea Towel", "Textiles", 1400, 40},
		{"Botanical Risograph Print", "Prints", 2500, 15},
		{"Terracotta Herb Planter", "Home & Garden", 3100, 0},
	}
)

func main() {
	var cfgPath, password string
	cmd := &cobra.Command{
		Use:          "seed",
		Short:        "Load demo accounts, a shop and products into a development database",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.OutOrStdout(), cfgPath, password)
		},
	}
	cmd.Flags().StringVarP(&cfgPath, "config", "c", "configs/config.yaml", "config file")
	cmd.Flags().StringVar(&password, "password", "marketly-dev", "password for seeded accounts")

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(out io.Writer, cfgPath, password string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}
	if cfg.IsProduction() {
		return fmt.Errorf("refusing to seed a production database")
	}
	logger := config.InitLogger(cfg.AppEnv)

	gdb, err := db.Open(cfg.Database, logger)
	if err != nil {
		return err
	}
	defer db.Close(gdb)

	ctx := context.Background()
	usersSvc := users.NewService(gdb)

	admin, err := registerOrFind(ctx, gdb, usersSvc, "admin@marketly.test", "Marketly Admin", password)
	if err != nil {
		return err
	}
	if _, err := usersSvc.SetRole(ctx, admin.ID, users.RoleAdmin); err != nil {
		return err
	}

	seller, err := registerOrFind(ctx, gdb, usersSvc, "studio@marketly.test", "Clay Studio", password)
	if err != nil {
		return err
	}
	customer, err := registerOrFind(ctx, gdb, usersSvc, "customer@marketly.test", "Demo Customer", password)
	if err != nil {
		return err
	}

	shopsSvc := shops.NewService(gdb)
	shop, err := shopsSvc.ForOwner(ctx, seller.ID)
	if err != nil {
		if !errors.Is(err, shops.ErrNoShop) {
			return err
		}
		if shop, err = shopsSvc.Create(ctx, seller.ID, shops.CreateInput{
			Name:        "Clay Studio",
			Description: "Small batch stoneware and prints.",
		}); err != nil {
			return err
		}
		logger.Info("shop created", "slug", shop.Slug)
	}

	productsSvc := products.NewService(gdb, storage.NewLocal(cfg.Storage.LocalDir, cfg.Storage.LocalURLPrefix))
	catIDs := map[string]string{}
	existing, err := productsSvc.Categories(ctx)
	if err != nil {
		return err
	}
	for _, c := range existing {
		catIDs[c.Name] = c.ID
	}
	for _, name := range categories {
		if _, ok := catIDs[name]; ok {
			continue
		}
		c, err := productsSvc.CreateCategory(ctx, name)
		if err != nil {
			return err
		}
		catIDs[name] = c.ID
	}

	var count int64
	if err := gdb.WithContext(ctx).Model(&products.Product{}).Where("shop_id = ?", shop.ID).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		for _, sp := range catalog {
			catID := catIDs[sp.category]
			if _, err := productsSvc.Create(ctx, shop, products.Input{
				Name:       sp.name,
				CategoryID: &catID,
				PriceCents: sp.cents,
				Stock:      sp.stock,
				Status:     products.StatusActive,
			}); err != nil {
				return err
			}
		}
		logger.Info("products created", "count", len(catalog))
	}

	_, err = vouchers.NewService(gdb).Create(ctx, shop.ID, vouchers.CreateInput{
		Code:  "WELCOME10",
		Kind:  vouchers.KindPercent,
		Value: 10,
	})
	if err != nil && !apperr.IsKind(err, apperr.Conflict) {
		return err
	}

	logger.Info("seed complete", "shop", shop.Slug)

	tw := tablewriter.NewWriter(out)
	tw.SetHeader([]string{"Role", "Email", "Password"})
	tw.Append([]string{string(users.RoleAdmin), admin.Email, password})
	tw.Append([]string{string(users.RoleSeller), seller.Email, password})
	tw.Append([]string{string(users.RoleCustomer), customer.Email, password})
	tw.Render()
	return nil
}

func registerOrFind(ctx context.Context, gdb *gorm.DB, svc *users.Service, email, name, password string) (users.User, error) {
	u, err := svc.Register(ctx, users.RegisterInput{Email: email, Name: name, Password: password})
	if err == nil {
		return u, nil
	}
	if !apperr.IsKind(err, apperr.Conflict) {
		return users.User{}, err
	}
	err = gdb.WithContext(ctx).Where("email = ?", email).First(&u).Error
	return u, err
}
