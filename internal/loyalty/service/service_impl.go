package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/loyalty/internal/clock"
	"github.com/smallbiznis/loyalty/internal/events"
	ledgerdomain "github.com/smallbiznis/loyalty/internal/ledger/domain"
	"github.com/smallbiznis/loyalty/internal/loyalty/domain"
	"github.com/smallbiznis/loyalty/internal/observability/metrics"
	tierdomain "github.com/smallbiznis/loyalty/internal/tier/domain"
	"github.com/smallbiznis/loyalty/pkg/db"
	"github.com/smallbiznis/loyalty/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	GenID   *snowflake.Node
	Clock   clock.Clock
	Repo    domain.Repository
	Ledger  ledgerdomain.Repository
	Tiers   tierdomain.Service
	Events  *events.Publisher
	Metrics *metrics.EngineMetrics `optional:"true"`
}

// Service is the loyalty engine. Every mutation runs inside one durable
// transaction: the ledger append and the user_loyalty update commit or
// roll back together, under a row lock that serializes the user.
type Service struct {
	db      *gorm.DB
	log     *zap.Logger
	genID   *snowflake.Node
	clock   clock.Clock
	repo    domain.Repository
	ledger  ledgerdomain.Repository
	tiers   tierdomain.Service
	events  *events.Publisher
	metrics *metrics.EngineMetrics
}

func New(p Params) domain.Service {
	return &Service{
		db:      p.DB,
		log:     p.Log.Named("loyalty.service"),
		genID:   p.GenID,
		clock:   p.Clock,
		repo:    p.Repo,
		ledger:  p.Ledger,
		tiers:   p.Tiers,
		events:  p.Events,
		metrics: p.Metrics,
	}
}

// mutation carries the committed state out of the transaction closure so
// events and metrics fire only after a successful commit.
type mutation struct {
	row          domain.UserLoyalty
	entry        *ledgerdomain.PointsTransaction
	duplicate    bool
	previousTier tierdomain.Tier
	newTier      tierdomain.Tier
	tierChanged  bool
}

func (s *Service) Award(ctx context.Context, req domain.AwardRequest) (domain.Summary, error) {
	userID, err := s.parseUserID(req.UserID)
	if err != nil {
		return domain.Summary{}, err
	}

	txType := req.Type
	if txType == "" {
		txType = ledgerdomain.TypeEarn
	}
	if txType != ledgerdomain.TypeEarn && txType != ledgerdomain.TypeBonus {
		return domain.Summary{}, domain.ErrInvalidType
	}
	if req.Amount <= 0 {
		return domain.Summary{}, domain.ErrInvalidAmount
	}

	catalog := s.tiers.Snapshot()
	if catalog.Len() == 0 {
		return domain.Summary{}, tierdomain.ErrCatalogEmpty
	}

	var res mutation
	err = s.db.Transaction(func(tx *gorm.DB) error {
		now := s.clock.Now()
		baseline := catalog.Baseline()
		if err := s.repo.EnsureRow(ctx, tx, &domain.UserLoyalty{
			UserID:          userID,
			CurrentTierID:   baseline.ID,
			TierQualifiedAt: now,
			CreatedAt:       now,
			UpdatedAt:       now,
		}); err != nil {
			return err
		}

		row, err := s.repo.FindForUpdate(ctx, tx, userID)
		if err != nil {
			return err
		}
		if row == nil {
			return domain.ErrUserNotFound
		}

		if strings.TrimSpace(req.ReferenceID) != "" {
			existing, err := s.ledger.FindByReference(ctx, tx, userID, req.ReferenceID, txType)
			if err != nil {
				return err
			}
			if existing != nil {
				res.row = *row
				res.duplicate = true
				return nil
			}
		}

		return s.apply(ctx, tx, row, applyInput{
			txType:      txType,
			amount:      req.Amount,
			referenceID: req.ReferenceID,
			reason:      req.Reason,
			now:         now,
		}, catalog, &res)
	})
	if err != nil {
		return domain.Summary{}, err
	}

	if res.duplicate {
		s.metrics.RecordDuplicateAward()
		s.log.Info("duplicate award absorbed",
			zap.String("user_id", userID.String()),
			zap.String("reference_id", req.ReferenceID),
		)
		return s.summarize(res.row, catalog), nil
	}

	s.metrics.RecordAward(string(txType), req.Amount)
	s.publishMutation(events.KindPointsAwarded, res)

	return s.summarize(res.row, catalog), nil
}

func (s *Service) Redeem(ctx context.Context, req domain.RedeemRequest) (domain.Summary, error) {
	userID, err := s.parseUserID(req.UserID)
	if err != nil {
		return domain.Summary{}, err
	}
	if req.Amount <= 0 {
		return domain.Summary{}, domain.ErrInvalidAmount
	}

	catalog := s.tiers.Snapshot()
	if catalog.Len() == 0 {
		return domain.Summary{}, tierdomain.ErrCatalogEmpty
	}

	var res mutation
	err = s.db.Transaction(func(tx *gorm.DB) error {
		row, err := s.repo.FindForUpdate(ctx, tx, userID)
		if err != nil {
			return err
		}
		if row == nil {
			return domain.ErrUserNotFound
		}

		// The balance check and the debit share the row lock, so a
		// concurrent redeem cannot observe the same balance.
		if req.Amount > row.CurrentPointsBalance {
			return domain.ErrInsufficientBalance
		}

		return s.apply(ctx, tx, row, applyInput{
			txType:      ledgerdomain.TypeRedeem,
			amount:      -req.Amount,
			referenceID: req.ReferenceID,
			reason:      req.Reason,
			now:         s.clock.Now(),
		}, catalog, &res)
	})
	if err != nil {
		return domain.Summary{}, err
	}

	s.metrics.RecordRedeem(req.Amount)
	s.publishMutation(events.KindPointsRedeemed, res)

	return s.summarize(res.row, catalog), nil
}

func (s *Service) Adjust(ctx context.Context, req domain.AdjustRequest) (domain.Summary, error) {
	userID, err := s.parseUserID(req.UserID)
	if err != nil {
		return domain.Summary{}, err
	}
	if req.Delta == 0 {
		return domain.Summary{}, domain.ErrInvalidAmount
	}

	catalog := s.tiers.Snapshot()
	if catalog.Len() == 0 {
		return domain.Summary{}, tierdomain.ErrCatalogEmpty
	}

	var res mutation
	err = s.db.Transaction(func(tx *gorm.DB) error {
		row, err := s.repo.FindForUpdate(ctx, tx, userID)
		if err != nil {
			return err
		}
		if row == nil {
			return domain.ErrUserNotFound
		}

		if row.CurrentPointsBalance+req.Delta < 0 {
			return domain.ErrInsufficientBalance
		}

		return s.apply(ctx, tx, row, applyInput{
			txType:  ledgerdomain.TypeAdjustment,
			amount:  req.Delta,
			reason:  req.Reason,
			actorID: req.ActorID,
			now:     s.clock.Now(),
		}, catalog, &res)
	})
	if err != nil {
		return domain.Summary{}, err
	}

	s.publishMutation(events.KindPointsAdjusted, res)

	return s.summarize(res.row, catalog), nil
}

func (s *Service) RecordStay(ctx context.Context, req domain.RecordStayRequest) (domain.Summary, error) {
	userID, err := s.parseUserID(req.UserID)
	if err != nil {
		return domain.Summary{}, err
	}
	if req.Nights <= 0 {
		return domain.Summary{}, domain.ErrInvalidNights
	}

	catalog := s.tiers.Snapshot()
	if catalog.Len() == 0 {
		return domain.Summary{}, tierdomain.ErrCatalogEmpty
	}

	var updated domain.UserLoyalty
	err = s.db.Transaction(func(tx *gorm.DB) error {
		row, err := s.repo.FindForUpdate(ctx, tx, userID)
		if err != nil {
			return err
		}
		if row == nil {
			return domain.ErrUserNotFound
		}

		row.NightsCount += req.Nights
		row.UpdatedAt = s.clock.Now()
		if err := s.repo.Update(ctx, tx, row); err != nil {
			return err
		}
		updated = *row
		return nil
	})
	if err != nil {
		return domain.Summary{}, err
	}

	return s.summarize(updated, catalog), nil
}

func (s *Service) RecalculateTier(ctx context.Context, req domain.RecalculateTierRequest) (domain.TierRecalculationResult, error) {
	userID, err := s.parseUserID(req.UserID)
	if err != nil {
		return domain.TierRecalculationResult{}, err
	}

	catalog := s.tiers.Snapshot()
	if catalog.Len() == 0 {
		return domain.TierRecalculationResult{}, tierdomain.ErrCatalogEmpty
	}

	var res mutation
	err = s.db.Transaction(func(tx *gorm.DB) error {
		row, err := s.repo.FindForUpdate(ctx, tx, userID)
		if err != nil {
			return err
		}
		if row == nil {
			return domain.ErrUserNotFound
		}

		fold, err := s.ledger.Fold(ctx, tx, userID)
		if err != nil {
			return err
		}

		previous, ok := catalog.FindByID(row.CurrentTierID)
		if !ok {
			previous = catalog.Baseline()
		}
		eval := catalog.Evaluate(fold.Earned)

		now := s.clock.Now()
		row.CurrentPointsBalance = fold.Balance
		row.LifetimePointsEarned = fold.Earned
		row.LifetimePointsRedeemed = fold.Redeemed
		if eval.Tier.ID != previous.ID {
			row.CurrentTierID = eval.Tier.ID
			row.TierQualifiedAt = now
		}
		row.UpdatedAt = now
		if err := s.repo.Update(ctx, tx, row); err != nil {
			return err
		}

		res.row = *row
		res.previousTier = previous
		res.newTier = eval.Tier
		res.tierChanged = eval.Tier.ID != previous.ID
		return nil
	})
	if err != nil {
		return domain.TierRecalculationResult{}, err
	}

	if res.tierChanged {
		s.recordTierChange(res)
	}

	return domain.TierRecalculationResult{
		PreviousTier: res.previousTier,
		NewTier:      res.newTier,
		Changed:      res.tierChanged,
	}, nil
}

func (s *Service) GetSummary(ctx context.Context, req domain.GetSummaryRequest) (domain.Summary, error) {
	userID, err := s.parseUserID(req.UserID)
	if err != nil {
		return domain.Summary{}, err
	}

	catalog := s.tiers.Snapshot()
	if catalog.Len() == 0 {
		return domain.Summary{}, tierdomain.ErrCatalogEmpty
	}

	row, err := s.repo.FindByID(ctx, s.db, userID)
	if err != nil {
		return domain.Summary{}, err
	}
	if row == nil {
		return domain.Summary{}, domain.ErrUserNotFound
	}

	return s.summarize(*row, catalog), nil
}

func (s *Service) ListTransactions(ctx context.Context, req domain.ListTransactionsRequest) (domain.ListTransactionsResponse, error) {
	userID, err := s.parseUserID(req.UserID)
	if err != nil {
		return domain.ListTransactionsResponse{}, err
	}

	filter := ledgerdomain.ListFilter{
		CreatedFrom: req.CreatedFrom,
		CreatedTo:   req.CreatedTo,
	}
	if t := strings.TrimSpace(req.Type); t != "" {
		txType := ledgerdomain.TransactionType(t)
		if !txType.Valid() {
			return domain.ListTransactionsResponse{}, domain.ErrInvalidType
		}
		filter.Type = txType
	}

	pageSize := req.PageSize
	if pageSize <= 0 {
		pageSize = 50
	}

	items, err := s.ledger.List(ctx, s.db, userID, filter, pagination.Pagination{
		PageToken: req.PageToken,
		PageSize:  int(pageSize),
	})
	if err != nil {
		return domain.ListTransactionsResponse{}, err
	}

	pageInfo := pagination.BuildCursorPageInfo(items, pageSize, func(entry *ledgerdomain.PointsTransaction) string {
		token, err := pagination.EncodeCursor(pagination.Cursor{
			ID:        entry.ID.String(),
			CreatedAt: entry.CreatedAt.Format(time.RFC3339Nano),
		})
		if err != nil {
			return ""
		}
		return token
	})
	if pageInfo != nil && pageInfo.HasMore && len(items) > int(pageSize) {
		items = items[:pageSize]
	}

	transactions := make([]ledgerdomain.PointsTransaction, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		transactions = append(transactions, *item)
	}

	resp := domain.ListTransactionsResponse{Transactions: transactions}
	if pageInfo != nil {
		resp.PageInfo = *pageInfo
	}

	return resp, nil
}

type applyInput struct {
	txType      ledgerdomain.TransactionType
	amount      int64
	referenceID string
	reason      string
	actorID     string
	now         time.Time
}

// apply appends the ledger entry and rolls the summary row forward in one
// place, enforcing the non-negative balance invariant and the tier
// direction permitted by the transaction type.
func (s *Service) apply(ctx context.Context, tx *gorm.DB, row *domain.UserLoyalty, in applyInput, catalog tierdomain.Catalog, res *mutation) error {
	newBalance := row.CurrentPointsBalance + in.amount
	if newBalance < 0 {
		return domain.ErrInsufficientBalance
	}

	entry := &ledgerdomain.PointsTransaction{
		ID:           s.genID.Generate(),
		UserID:       row.UserID,
		Type:         in.txType,
		Amount:       in.amount,
		BalanceAfter: newBalance,
		ReferenceID:  in.referenceID,
		Reason:       in.reason,
		ActorID:      in.actorID,
		CreatedAt:    in.now,
	}
	if err := s.ledger.Insert(ctx, tx, entry); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return domain.ErrConcurrentModification
		}
		return err
	}

	row.CurrentPointsBalance = newBalance
	switch in.txType.Bucket() {
	case ledgerdomain.BucketEarned:
		row.LifetimePointsEarned += in.amount
	case ledgerdomain.BucketRedeemed:
		row.LifetimePointsRedeemed += -in.amount
	}

	previous, ok := catalog.FindByID(row.CurrentTierID)
	if !ok {
		previous = catalog.Baseline()
	}

	next := previous
	switch in.txType.TierDirection() {
	case ledgerdomain.TierHold:
		// Redeem and expiration leave the qualifying metric untouched.
	case ledgerdomain.TierRiseOnly:
		if eval := catalog.Evaluate(row.LifetimePointsEarned); eval.Tier.Rank > previous.Rank {
			next = eval.Tier
		}
	case ledgerdomain.TierRiseOrFall:
		next = catalog.Evaluate(row.LifetimePointsEarned).Tier
	}

	if next.ID != previous.ID {
		row.CurrentTierID = next.ID
		row.TierQualifiedAt = in.now
	}
	row.UpdatedAt = in.now

	if err := s.repo.Update(ctx, tx, row); err != nil {
		return err
	}

	res.row = *row
	res.entry = entry
	res.previousTier = previous
	res.newTier = next
	res.tierChanged = next.ID != previous.ID
	return nil
}

func (s *Service) summarize(row domain.UserLoyalty, catalog tierdomain.Catalog) domain.Summary {
	eval := catalog.Evaluate(row.LifetimePointsEarned)
	return domain.Summary{
		UserLoyalty:  row,
		Tier:         eval.Tier,
		NextTier:     eval.NextTier,
		PointsToNext: eval.PointsToNext,
	}
}

func (s *Service) publishMutation(kind events.Kind, res mutation) {
	if s.events == nil || res.entry == nil {
		return
	}

	s.events.Publish(events.Event{
		Kind:       kind,
		UserID:     res.row.UserID,
		OccurredAt: res.entry.CreatedAt,
		Payload: events.PointsChanged{
			TransactionID: res.entry.ID,
			Type:          string(res.entry.Type),
			Amount:        res.entry.Amount,
			BalanceAfter:  res.entry.BalanceAfter,
			ReferenceID:   res.entry.ReferenceID,
		},
	})

	if res.tierChanged {
		s.recordTierChange(res)
	}
}

func (s *Service) recordTierChange(res mutation) {
	direction := "up"
	if res.newTier.Rank < res.previousTier.Rank {
		direction = "down"
	}
	s.metrics.RecordTierChange(direction)

	if s.events != nil {
		s.events.Publish(events.Event{
			Kind:       events.KindTierChanged,
			UserID:     res.row.UserID,
			OccurredAt: res.row.UpdatedAt,
			Payload: events.TierChanged{
				PreviousTierID: res.previousTier.ID,
				PreviousTier:   res.previousTier.Name,
				NewTierID:      res.newTier.ID,
				NewTier:        res.newTier.Name,
			},
		})
	}

	s.log.Info("tier changed",
		zap.String("user_id", res.row.UserID.String()),
		zap.String("previous", res.previousTier.Name),
		zap.String("new", res.newTier.Name),
	)
}

func (s *Service) parseUserID(value string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id == 0 {
		return 0, domain.ErrInvalidUserID
	}
	return id, nil
}
