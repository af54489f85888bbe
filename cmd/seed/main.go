package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"swapscribe/internal/config"
	"swapscribe/internal/domain"
	"swapscribe/internal/domain/model"
	"swapscribe/internal/domain/ports/repository"
	"swapscribe/internal/infra/api"
	pg "swapscribe/internal/infra/db/postgres"
)

// demoMerchantID is stable so reseeding updates the same merchant.
var demoMerchantID = uuid.NewSHA1(uuid.NameSpaceURL, []byte("swapscribe:demo-merchant")).String()

func main() {
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	settleAddress := flag.String("settle-address", "0x000000000000000000000000000000000000dEaD", "merchant payout address")
	flag.Parse()

	cfg, err := config.Load(*cfgPath, true)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pg.NewPool(ctx, cfg.Database)
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}
	defer pool.Close()

	merchants := pg.NewMerchantRepo(pool)
	plans := pg.NewPlanRepo(pool)

	if err := merchants.Save(ctx, repository.NoTX, &model.Merchant{
		ID:    demoMerchantID,
		Email: "demo@swapscribe.local",
		Name:  "Demo Merchant",
	}); err != nil {
		log.Fatalf("save merchant: %v", err)
	}
	if err := merchants.SaveSettings(ctx, repository.NoTX, &model.MerchantSettings{
		MerchantID:    demoMerchantID,
		DisplayName:   "Demo Merchant",
		SettleAddress: *settleAddress,
		SettleCoin:    "usdc",
		SettleNetwork: "ethereum",
	}); err != nil {
		log.Fatalf("save merchant settings: %v", err)
	}
	fmt.Printf("merchant: %s\n", demoMerchantID)

	seed := []struct {
		Name     string
		Slug     string
		Price    string
		Interval model.BillingInterval
	}{
		{"Pro Monthly", "demo-pro-monthly", "10", model.BillingMonthly},
		{"Pro Yearly", "demo-pro-yearly", "100", model.BillingYearly},
	}
	for _, s := range seed {
		if existing, err := plans.FindBySlug(ctx, repository.NoTX, s.Slug); err == nil {
			fmt.Printf("exists: %s (id=%s, slug=%s)\n", existing.Name, existing.ID, existing.PublicSlug)
			continue
		} else if !errors.Is(err, domain.ErrNotFound) {
			log.Fatalf("find plan %q: %v", s.Slug, err)
		}
		p, err := model.NewPlan("", demoMerchantID, s.Name, s.Slug, decimal.RequireFromString(s.Price), s.Interval, "usdc", "ethereum")
		if err != nil {
			log.Fatalf("build plan %q: %v", s.Name, err)
		}
		if err := plans.Save(ctx, repository.NoTX, p); err != nil {
			log.Fatalf("save plan %q: %v", s.Name, err)
		}
		fmt.Printf("seeded: %s (id=%s, slug=%s, price=%s USD/%s)\n", p.Name, p.ID, p.PublicSlug, p.PriceUSD, p.BillingInterval)
	}

	if cfg.Security.JWTSecret != "" {
		tok, err := api.NewSessionManager(cfg.Security.JWTSecret, 7*24*time.Hour).Mint(demoMerchantID)
		if err != nil {
			log.Fatalf("mint session: %v", err)
		}
		fmt.Printf("dashboard session (cookie %q): %s\n", api.SessionCookie, tok)
	}
	fmt.Println("seeding complete")
}
