package catalog

import (
	"context"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"
	"go.yaml.in/yaml/v3"

	"kms/internal/domain"
)

const defaultMaxBulkSize = 10

type Seed struct {
	Canteens []SeedCanteen `yaml:"canteens"`
}

type SeedCanteen struct {
	ID                    string         `yaml:"id"`
	Name                  string         `yaml:"name"`
	Location              string         `yaml:"location"`
	IsOpen                bool           `yaml:"isOpen"`
	IsOnlineOrdersEnabled *bool          `yaml:"isOnlineOrdersEnabled"`
	MaxBulkSize           int            `yaml:"maxBulkSize"`
	Menu                  []SeedMenuItem `yaml:"menu"`
}

type SeedMenuItem struct {
	ID          string  `yaml:"id"`
	Name        string  `yaml:"name"`
	Category    string  `yaml:"category"`
	Price       float64 `yaml:"price"`
	IsAvailable *bool   `yaml:"isAvailable"`
}

type Writer interface {
	SaveCanteen(ctx context.Context, c *domain.Canteen) error
	SaveMenuItem(ctx context.Context, m *domain.MenuItem) error
}

func LoadSeed(path string) (*Seed, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading seed file: %w", err)
	}

	var seed Seed
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("parsing seed file: %w", err)
	}

	for i, c := range seed.Canteens {
		if c.ID == "" || c.Name == "" {
			return nil, fmt.Errorf("seed canteen #%d: id and name are required", i)
		}
		for j, m := range c.Menu {
			if m.ID == "" || m.Name == "" {
				return nil, fmt.Errorf("seed canteen %s menu item #%d: id and name are required", c.ID, j)
			}
			if m.Price < 0 {
				return nil, fmt.Errorf("seed menu item %s: price must be non-negative", m.ID)
			}
		}
	}

	return &seed, nil
}

// Apply upserts every canteen and menu item of the seed.
func (s *Seed) Apply(ctx context.Context, w Writer, now time.Time, logger *zap.Logger) error {
	now = now.UTC()
	items := 0

	for _, sc := range s.Canteens {
		canteen := &domain.Canteen{
			ID:                    sc.ID,
			Name:                  sc.Name,
			Location:              sc.Location,
			IsOpen:                sc.IsOpen,
			IsOnlineOrdersEnabled: boolOr(sc.IsOnlineOrdersEnabled, true),
			MaxBulkSize:           sc.MaxBulkSize,
			CreatedAt:             now,
			UpdatedAt:             now,
		}
		if canteen.MaxBulkSize <= 0 {
			canteen.MaxBulkSize = defaultMaxBulkSize
		}
		if err := w.SaveCanteen(ctx, canteen); err != nil {
			return err
		}

		for _, sm := range sc.Menu {
			err := w.SaveMenuItem(ctx, &domain.MenuItem{
				ID:          sm.ID,
				CanteenID:   sc.ID,
				Name:        sm.Name,
				Category:    sm.Category,
				Price:       sm.Price,
				IsAvailable: boolOr(sm.IsAvailable, true),
				CreatedAt:   now,
				UpdatedAt:   now,
			})
			if err != nil {
				return err
			}
			items++
		}
	}

	logger.Info("catalog seeded", zap.Int("canteens", len(s.Canteens)), zap.Int("menuItems", items))
	return nil
}

func boolOr(v *bool, def bool) bool {
	if v == nil {
		return def
	}
	return *v
}
