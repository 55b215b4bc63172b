package service

import (
	"context"
	"sync/atomic"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/loyalty/internal/clock"
	"github.com/smallbiznis/loyalty/internal/config"
	"github.com/smallbiznis/loyalty/internal/tier/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	GenID   *snowflake.Node
	Clock   clock.Clock
	Repo    domain.Repository
	TierCfg *config.TierConfigHolder
}

// Service keeps the tier catalog in an atomically swapped snapshot so
// readers never observe a half-updated ladder.
type Service struct {
	db      *gorm.DB
	log     *zap.Logger
	genID   *snowflake.Node
	clock   clock.Clock
	repo    domain.Repository
	tierCfg *config.TierConfigHolder

	snapshot atomic.Value // holds domain.Catalog
}

func New(p Params) domain.Service {
	s := &Service{
		db:      p.DB,
		log:     p.Log.Named("tier.service"),
		genID:   p.GenID,
		clock:   p.Clock,
		repo:    p.Repo,
		tierCfg: p.TierCfg,
	}

	if s.tierCfg != nil {
		s.tierCfg.OnReload(func(cfg config.TierConfig) {
			ctx := context.Background()
			if err := s.seed(ctx, cfg); err != nil {
				s.log.Error("tier config reseed failed", zap.Error(err))
				return
			}
			if _, err := s.Reload(ctx); err != nil {
				s.log.Error("tier catalog reload failed", zap.Error(err))
			}
		})
	}

	return s
}

// Bootstrap seeds tier definitions and loads the first snapshot. An empty
// or baseline-less catalog is a fatal misconfiguration and fails startup.
func (s *Service) Bootstrap(ctx context.Context) error {
	if s.tierCfg != nil {
		if err := s.seed(ctx, s.tierCfg.Get()); err != nil {
			return err
		}
	}
	_, err := s.Reload(ctx)
	return err
}

func (s *Service) Snapshot() domain.Catalog {
	catalog, _ := s.snapshot.Load().(domain.Catalog)
	return catalog
}

func (s *Service) Reload(ctx context.Context) (domain.Catalog, error) {
	tiers, err := s.repo.ListAll(ctx, s.db)
	if err != nil {
		return domain.Catalog{}, err
	}

	catalog, err := domain.NewCatalog(tiers)
	if err != nil {
		return domain.Catalog{}, err
	}

	s.snapshot.Store(catalog)
	s.log.Info("tier catalog loaded", zap.Int("tiers", catalog.Len()))
	return catalog, nil
}

func (s *Service) seed(ctx context.Context, cfg config.TierConfig) error {
	now := s.clock.Now()
	return s.db.Transaction(func(tx *gorm.DB) error {
		for _, def := range cfg.Tiers {
			benefits := datatypes.JSONMap{}
			for k, v := range def.Benefits {
				benefits[k] = v
			}
			tier := domain.Tier{
				ID:                  s.genID.Generate(),
				Name:                def.Name,
				QualifyingThreshold: def.Threshold,
				Rank:                def.Rank,
				Benefits:            benefits,
				CreatedAt:           now,
				UpdatedAt:           now,
			}
			if err := s.repo.Upsert(ctx, tx, &tier); err != nil {
				return err
			}
		}
		return nil
	})
}

var _ domain.Service = (*Service)(nil)
