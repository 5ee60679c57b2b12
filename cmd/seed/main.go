package main

import (
	"fmt"

	"github.com/sofahub/sofahub-api/internal/config"
	"github.com/sofahub/sofahub-api/internal/logger"
	"github.com/sofahub/sofahub-api/internal/models"

	"github.com/shopspring/decimal"
)

func main() {
	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	stdLog := logger.StdLogger()
	if err := models.InitDB(cfg.Database.Driver, cfg.Database.DSN, models.DBPoolConfig{
		MaxOpenConns:           cfg.Database.Pool.MaxOpenConns,
		MaxIdleConns:           cfg.Database.Pool.MaxIdleConns,
		ConnMaxLifetimeSeconds: cfg.Database.Pool.ConnMaxLifetimeSeconds,
		ConnMaxIdleTimeSeconds: cfg.Database.Pool.ConnMaxIdleTimeSeconds,
	}); err != nil {
		stdLog.Fatalf("Failed to connect database: %v", err)
	}

	if err := models.AutoMigrate(); err != nil {
		stdLog.Fatalf("Failed to migrate database: %v", err)
	}

	// Room categories
	roomCategories := []models.RoomCategory{
		{Slug: "living-room", Name: "Living Room", Description: "Sofas, coffee tables and TV stands for the living room.", IsActive: true, SortOrder: 300},
		{Slug: "bedroom", Name: "Bedroom", Description: "Beds, wardrobes and dressers.", IsActive: true, SortOrder: 200},
		{Slug: "dining", Name: "Dining", Description: "Dining sets, tables and chairs.", IsActive: true, SortOrder: 100},
	}
	for _, cat := range roomCategories {
		var existing models.RoomCategory
		if err := models.DB.Where("slug = ?", cat.Slug).First(&existing).Error; err != nil {
			if err := models.DB.Create(&cat).Error; err != nil {
				stdLog.Printf("Failed to create room category %s: %v", cat.Slug, err)
			} else {
				stdLog.Printf("Created room category: %s", cat.Slug)
			}
		} else {
			stdLog.Printf("Room category already exists: %s", cat.Slug)
		}
	}

	// Product types
	productTypes := []models.ProductType{
		{Slug: "sofas", Name: "Sofas", Description: "Two to seven seater sofas and sectionals.", IsActive: true, SortOrder: 400},
		{Slug: "beds", Name: "Beds", Description: "Bed frames in all standard sizes.", IsActive: true, SortOrder: 300},
		{Slug: "tables", Name: "Tables", Description: "Coffee, dining and console tables.", IsActive: true, SortOrder: 200},
		{Slug: "chairs", Name: "Chairs", Description: "Dining chairs, accent chairs and recliners.", IsActive: true, SortOrder: 100},
	}
	for _, pt := range productTypes {
		var existing models.ProductType
		if err := models.DB.Where("slug = ?", pt.Slug).First(&existing).Error; err != nil {
			if err := models.DB.Create(&pt).Error; err != nil {
				stdLog.Printf("Failed to create product type %s: %v", pt.Slug, err)
			} else {
				stdLog.Printf("Created product type: %s", pt.Slug)
			}
		} else {
			stdLog.Printf("Product type already exists: %s", pt.Slug)
		}
	}

	// Tags
	tags := []models.Tag{
		{Slug: "new-arrival", Name: "New Arrival", ColorCode: "#2e7d32"},
		{Slug: "clearance", Name: "Clearance", ColorCode: "#c62828"},
		{Slug: "handmade", Name: "Handmade", ColorCode: "#6d4c41"},
	}
	for _, tag := range tags {
		var existing models.Tag
		if err := models.DB.Where("slug = ?", tag.Slug).First(&existing).Error; err != nil {
			if err := models.DB.Create(&tag).Error; err != nil {
				stdLog.Printf("Failed to create tag %s: %v", tag.Slug, err)
			} else {
				stdLog.Printf("Created tag: %s", tag.Slug)
			}
		} else {
			stdLog.Printf("Tag already exists: %s", tag.Slug)
		}
	}

	lookupRoom := func(slug string) []models.RoomCategory {
		var cat models.RoomCategory
		if err := models.DB.Where("slug = ?", slug).First(&cat).Error; err != nil {
			return nil
		}
		return []models.RoomCategory{cat}
	}
	lookupType := func(slug string) []models.ProductType {
		var pt models.ProductType
		if err := models.DB.Where("slug = ?", slug).First(&pt).Error; err != nil {
			return nil
		}
		return []models.ProductType{pt}
	}
	lookupTags := func(slugs ...string) []models.Tag {
		var list []models.Tag
		if err := models.DB.Where("slug IN ?", slugs).Find(&list).Error; err != nil {
			return nil
		}
		return list
	}

	// Products with variations. Prices are KES.
	salePrice := models.NewMoneyFromDecimal(decimal.NewFromInt(68000))
	products := []models.Product{
		{
			Slug:        "nairobi-3-seater-sofa",
			Name:        "Nairobi 3-Seater Sofa",
			Description: "Hardwood frame three seater with high-density foam cushions. Upholstered to order.",
			BasePrice:   models.NewMoneyFromDecimal(decimal.NewFromInt(75000)),
			IsActive:    true,
			RoomCategories: lookupRoom("living-room"),
			ProductTypes:   lookupType("sofas"),
			Tags:           lookupTags("new-arrival"),
			Variations: []models.Variation{
				{
					SKU:           "NRB-SOFA-3S-GRY-FAB",
					Attributes:    models.VariationAttributes{Color: "Grey", Material: "Fabric"},
					StockQuantity: 6,
					PriceModifier: models.NewMoneyFromDecimal(decimal.Zero),
					IsActive:      true,
				},
				{
					SKU:           "NRB-SOFA-3S-TAN-LTH",
					Attributes:    models.VariationAttributes{Color: "Tan", Material: "Leather"},
					StockQuantity: 3,
					PriceModifier: models.NewMoneyFromDecimal(decimal.NewFromInt(15000)),
					IsActive:      true,
				},
			},
		},
		{
			Slug:        "mombasa-l-shaped-sectional",
			Name:        "Mombasa L-Shaped Sectional",
			Description: "Five seater sectional with reversible chaise and removable covers.",
			BasePrice:   models.NewMoneyFromDecimal(decimal.NewFromInt(120000)),
			SalePrice:   &salePrice,
			IsActive:    true,
			RoomCategories: lookupRoom("living-room"),
			ProductTypes:   lookupType("sofas"),
			Tags:           lookupTags("clearance"),
			Variations: []models.Variation{
				{
					SKU:           "MSA-SECT-5S-BLU-FAB",
					Attributes:    models.VariationAttributes{Color: "Navy Blue", Material: "Fabric"},
					StockQuantity: 2,
					PriceModifier: models.NewMoneyFromDecimal(decimal.Zero),
					IsActive:      true,
				},
			},
		},
		{
			Slug:        "kisumu-queen-bed",
			Name:        "Kisumu Queen Bed",
			Description: "Solid mahogany queen bed frame with upholstered headboard.",
			BasePrice:   models.NewMoneyFromDecimal(decimal.NewFromInt(58000)),
			IsActive:    true,
			RoomCategories: lookupRoom("bedroom"),
			ProductTypes:   lookupType("beds"),
			Tags:           lookupTags("handmade"),
			Variations: []models.Variation{
				{
					SKU:           "KSM-BED-Q-MAH",
					Attributes:    models.VariationAttributes{Material: "Mahogany", Size: "Queen"},
					StockQuantity: 4,
					PriceModifier: models.NewMoneyFromDecimal(decimal.Zero),
					IsActive:      true,
				},
				{
					SKU:           "KSM-BED-K-MAH",
					Attributes:    models.VariationAttributes{Material: "Mahogany", Size: "King"},
					StockQuantity: 2,
					PriceModifier: models.NewMoneyFromDecimal(decimal.NewFromInt(12000)),
					IsActive:      true,
				},
			},
		},
		{
			Slug:        "nakuru-6-seater-dining-set",
			Name:        "Nakuru 6-Seater Dining Set",
			Description: "Mvule dining table with six matching chairs. Seats finished in faux leather.",
			BasePrice:   models.NewMoneyFromDecimal(decimal.NewFromInt(95000)),
			IsActive:    true,
			RoomCategories: lookupRoom("dining"),
			ProductTypes:   lookupType("tables"),
			Tags:           lookupTags("handmade", "new-arrival"),
			Variations: []models.Variation{
				{
					SKU:           "NKR-DIN-6S-MVL",
					Attributes:    models.VariationAttributes{Material: "Mvule", Size: "6-Seater"},
					StockQuantity: 3,
					PriceModifier: models.NewMoneyFromDecimal(decimal.Zero),
					IsActive:      true,
				},
			},
		},
		{
			Slug:        "eldoret-accent-chair",
			Name:        "Eldoret Accent Chair",
			Description: "Mid-century accent chair with solid oak legs.",
			BasePrice:   models.NewMoneyFromDecimal(decimal.NewFromInt(18500)),
			IsActive:    true,
			RoomCategories: lookupRoom("living-room"),
			ProductTypes:   lookupType("chairs"),
			Variations: []models.Variation{
				{
					SKU:           "ELD-CHR-ACC-GRN",
					Attributes:    models.VariationAttributes{Color: "Emerald Green", Material: "Velvet"},
					StockQuantity: 10,
					PriceModifier: models.NewMoneyFromDecimal(decimal.Zero),
					IsActive:      true,
				},
				{
					SKU:           "ELD-CHR-ACC-MUS",
					Attributes:    models.VariationAttributes{Color: "Mustard", Material: "Velvet"},
					StockQuantity: 0,
					PriceModifier: models.NewMoneyFromDecimal(decimal.Zero),
					IsActive:      true,
				},
			},
		},
	}

	for _, prod := range products {
		var existing models.Product
		if err := models.DB.Where("slug = ?", prod.Slug).First(&existing).Error; err != nil {
			if err := models.DB.Create(&prod).Error; err != nil {
				stdLog.Printf("Failed to create product %s: %v", prod.Slug, err)
			} else {
				stdLog.Printf("Created product: %s", prod.Slug)
			}
		} else {
			stdLog.Printf("Product already exists: %s", prod.Slug)
		}
	}

	// Redirects for retired storefront paths
	redirects := []models.Redirect{
		{OldPath: "/sofas", NewPath: "/products?product_type=sofas", IsPermanent: true},
		{OldPath: "/sale", NewPath: "/products?tag=clearance", IsPermanent: false},
	}
	for _, rd := range redirects {
		var existing models.Redirect
		if err := models.DB.Where("old_path = ?", rd.OldPath).First(&existing).Error; err != nil {
			if err := models.DB.Create(&rd).Error; err != nil {
				stdLog.Printf("Failed to create redirect %s: %v", rd.OldPath, err)
			} else {
				stdLog.Printf("Created redirect: %s -> %s", rd.OldPath, rd.NewPath)
			}
		} else {
			stdLog.Printf("Redirect already exists: %s", rd.OldPath)
		}
	}

	fmt.Println("\nSeed data created successfully!")
	fmt.Println("Summary:")
	fmt.Println("- 3 Room categories")
	fmt.Println("- 4 Product types")
	fmt.Println("- 3 Tags")
	fmt.Println("- 5 Products with variations")
	fmt.Println("- 2 Redirects")
}
