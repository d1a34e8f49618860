package ledger

import (
	"context"

	"gorm.io/gorm"

	"farmflow/internal/models"
	"farmflow/internal/repository"

	"go.uber.org/zap"
)

type seedCrop struct {
	name      string
	basePrice int64
	stock     int64
}

// Bootstrap fixture. Seeding runs once against an empty catalog and is not a
// general provisioning mechanism.
var seedCrops = []seedCrop{
	{name: "Apple", basePrice: 120, stock: 100},
	{name: "Tomato", basePrice: 80, stock: 150},
	{name: "Potato", basePrice: 60, stock: 200},
}

// Seed pre-populates the three initial crops, owned by the configured
// bootstrap identity. It is a no-op when any crop already exists.
func (s *Service) Seed(ctx context.Context) error {
	if !s.cfg.SeedCrops {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	total, err := s.repo.CountCrops(ctx, repository.ListCropsParams{})
	if err != nil {
		return err
	}
	if total > 0 {
		return nil
	}

	err = s.repo.InTx(ctx, func(tx *gorm.DB) error {
		for _, sc := range seedCrops {
			crop := models.Crop{
				Name:            sc.name,
				BasePrice:       sc.basePrice,
				CurrentPrice:    sc.basePrice,
				Stock:           sc.stock,
				Owner:           s.cfg.BootstrapOwner,
				LastPriceUpdate: s.now(),
				Active:          true,
			}
			if err := s.repo.CreateCropTx(tx, &crop); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.log().Info("catalog seeded",
		zap.Int("crops", len(seedCrops)),
		zap.String("owner", s.cfg.BootstrapOwner),
	)
	return nil
}
