package main

import (
	"context"

	"github.com/stylehub/commerce-backend/internal/domain/entity"
	"github.com/stylehub/commerce-backend/internal/domain/repository"
)

// seedCatalog gives an in-memory store a few variants so the API can be
// exercised locally without a database.
func seedCatalog(ctx context.Context, store repository.Store) error {
	variants := []*entity.ProductVariant{
		{ID: "var-ankara-m", ProductID: "prod-ankara", ProductName: "Ankara Wrap Dress", SKU: "ANK-WRP-M", Size: "M", Color: "indigo", Price: entity.MustMoney("18500", "NGN"), StockQuantity: 25, IsActive: true},
		{ID: "var-ankara-l", ProductID: "prod-ankara", ProductName: "Ankara Wrap Dress", SKU: "ANK-WRP-L", Size: "L", Color: "indigo", Price: entity.MustMoney("18500", "NGN"), StockQuantity: 10, IsActive: true},
		{ID: "var-agbada-xl", ProductID: "prod-agbada", ProductName: "Embroidered Agbada", SKU: "AGB-EMB-XL", Size: "XL", Color: "white", Price: entity.MustMoney("65000", "NGN"), StockQuantity: 4, IsActive: true},
		{ID: "var-gele-os", ProductID: "prod-gele", ProductName: "Aso Oke Gele", SKU: "GEL-ASO-OS", Size: "OS", Color: "gold", Price: entity.MustMoney("7500", "NGN"), StockQuantity: 40, IsActive: true},
	}
	repo := store.Repositories().Variants
	for _, v := range variants {
		if err := repo.Save(ctx, v); err != nil {
			return err
		}
	}
	return nil
}
