package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"bazar/models"
	"bazar/offers"
)

type storeOptions struct {
	logger *slog.Logger
}

type StoreOption func(*storeOptions)

// WithStoreLogger 設置日誌記錄器
func WithStoreLogger(logger *slog.Logger) StoreOption {
	return func(o *storeOptions) {
		o.logger = logger
	}
}

// Store 以 GORM 實作報價服務的持久層閘道
// 所有查詢都透過 WithContext 綁定呼叫端的 context
type Store struct {
	db     *gorm.DB
	logger *slog.Logger
}

// NewStore 建立持久層閘道
func NewStore(db *gorm.DB, opts ...StoreOption) (*Store, error) {
	if db == nil {
		return nil, errors.New("db cannot be nil")
	}

	// 默認選項
	options := storeOptions{
		logger: slog.Default(),
	}

	// 應用自定義選項
	for _, opt := range opts {
		opt(&options)
	}

	return &Store{
		db:     db,
		logger: options.logger.With(slog.String("caller", "PostgresStore")),
	}, nil
}

// InTransaction 在單一資料庫交易中執行 fn
// fn 收到的 Store 綁定交易連線，fn 回傳錯誤時整筆交易回滾
func (s *Store) InTransaction(ctx context.Context, fn func(offers.Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Store{db: tx, logger: s.logger})
	})
}

// notExist 將 GORM 的查無資料錯誤轉換成持久層中立的 ErrNotExist
func notExist(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return offers.ErrNotExist
	}
	return err
}

func (s *Store) BuyAd(ctx context.Context, id uuid.UUID) (*models.BuyAd, error) {
	ad := models.BuyAd{ID: id}
	if result := s.db.WithContext(ctx).First(&ad); result.Error != nil {
		return nil, notExist(result.Error)
	}
	return &ad, nil
}

func (s *Store) SaveBuyAd(ctx context.Context, ad *models.BuyAd) error {
	return s.db.WithContext(ctx).Save(ad).Error
}

func (s *Store) RecountBuyAdOffers(ctx context.Context, buyAdID uuid.UUID, at time.Time) error {
	count := s.db.Model(&models.Offer{}).Where("buy_ad_id = ?", buyAdID).Select("count(*)")
	return s.db.WithContext(ctx).
		Model(&models.BuyAd{}).
		Where("id = ?", buyAdID).
		Updates(map[string]any{
			"total_offers":  count,
			"last_offer_at": at,
		}).Error
}

func (s *Store) User(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user := models.User{ID: id}
	if result := s.db.WithContext(ctx).First(&user); result.Error != nil {
		return nil, notExist(result.Error)
	}
	return &user, nil
}

func (s *Store) Account(ctx context.Context, id uuid.UUID) (*models.Account, error) {
	account := models.Account{ID: id}
	if result := s.db.WithContext(ctx).First(&account); result.Error != nil {
		return nil, notExist(result.Error)
	}
	return &account, nil
}

func (s *Store) IsAccountMember(ctx context.Context, accountID, userID uuid.UUID) (bool, error) {
	var count int64
	result := s.db.WithContext(ctx).
		Model(&models.AccountMember{}).
		Where("account_id = ? AND user_id = ?", accountID, userID).
		Count(&count)
	if result.Error != nil {
		return false, result.Error
	}
	return count > 0, nil
}

func (s *Store) Offer(ctx context.Context, id uuid.UUID) (*models.Offer, error) {
	offer := models.Offer{ID: id}
	if result := s.db.WithContext(ctx).Preload("Contents").First(&offer); result.Error != nil {
		return nil, notExist(result.Error)
	}
	return &offer, nil
}

func (s *Store) OfferWithChain(ctx context.Context, id uuid.UUID) (*models.Offer, error) {
	offer := models.Offer{ID: id}
	result := s.db.WithContext(ctx).
		Preload("Contents").
		Preload("ChildOffers").
		First(&offer)
	if result.Error != nil {
		return nil, notExist(result.Error)
	}
	return &offer, nil
}

func (s *Store) CreateOffer(ctx context.Context, offer *models.Offer) error {
	return s.db.WithContext(ctx).Create(offer).Error
}

func (s *Store) SaveOffer(ctx context.Context, offer *models.Offer) error {
	return s.db.WithContext(ctx).Omit("Contents").Save(offer).Error
}

func (s *Store) DeleteOffer(ctx context.Context, offer *models.Offer) error {
	return s.db.WithContext(ctx).Delete(offer).Error
}

func (s *Store) ListOffers(ctx context.Context, filter offers.ListFilter) ([]models.Offer, int64, error) {
	const op = "PostgresStore.ListOffers"
	query := s.db.WithContext(ctx).Model(&models.Offer{})

	if filter.SellerID != nil {
		query = query.Where("seller_id = ?", *filter.SellerID)
	}
	if filter.AccountID != nil {
		query = query.Where("account_id = ?", *filter.AccountID)
	}
	if filter.BuyAdID != nil {
		query = query.Where("buy_ad_id = ?", *filter.BuyAdID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.Type != nil {
		query = query.Where("type = ?", *filter.Type)
	}
	if filter.PublicOnly {
		query = query.Where(
			"buy_ad_id IN (?)",
			s.db.Model(&models.BuyAd{}).Where("allow_public_offers").Select("id"),
		)
	}

	var total int64
	if result := query.Count(&total); result.Error != nil {
		return nil, 0, fmt.Errorf("[%s] Fail to count offers, err=%w", op, result.Error)
	}

	var items []models.Offer
	result := query.
		Order(orderClause(filter.Sort)).
		Offset((filter.Page - 1) * filter.Limit).
		Limit(filter.Limit).
		Preload("Contents").
		Preload("Seller").
		Find(&items)
	if result.Error != nil {
		return nil, 0, fmt.Errorf("[%s] Fail to list offers, err=%w", op, result.Error)
	}
	return items, total, nil
}

func orderClause(sort offers.SortKey) string {
	switch sort {
	case offers.SortOldest:
		return "created_at ASC"
	case offers.SortPriceLow:
		return "proposed_price ASC"
	case offers.SortPriceHigh:
		return "proposed_price DESC"
	case offers.SortDeliveryFast:
		return "delivery_days ASC"
	default:
		return "created_at DESC"
	}
}

func (s *Store) CountActiveBySeller(ctx context.Context, buyAdID, sellerID uuid.UUID) (int64, error) {
	var count int64
	result := s.db.WithContext(ctx).
		Model(&models.Offer{}).
		Where("buy_ad_id = ? AND seller_id = ?", buyAdID, sellerID).
		Where("status IN ?", []models.OfferStatus{models.OfferStatusPending, models.OfferStatusCountered}).
		Count(&count)
	return count, result.Error
}

func (s *Store) Siblings(ctx context.Context, buyAdID, excludeOfferID uuid.UUID, onlyActive bool) ([]models.Offer, error) {
	query := s.db.WithContext(ctx).
		Where("buy_ad_id = ? AND id <> ?", buyAdID, excludeOfferID)
	if onlyActive {
		query = query.Where("status IN ?", []models.OfferStatus{models.OfferStatusPending, models.OfferStatusCountered})
	}
	var siblings []models.Offer
	result := query.Find(&siblings)
	return siblings, result.Error
}

func (s *Store) UpdateStatuses(ctx context.Context, ids []uuid.UUID, status models.OfferStatus) error {
	if len(ids) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).
		Model(&models.Offer{}).
		Where("id IN ?", ids).
		Update("status", status).Error
}

func (s *Store) StaleOffers(ctx context.Context, now time.Time, limit int) ([]models.Offer, error) {
	var stale []models.Offer
	result := s.db.WithContext(ctx).
		Where("status = ?", models.OfferStatusPending).
		Where("expires_at IS NOT NULL AND expires_at < ?", now).
		Order("expires_at ASC").
		Limit(limit).
		Find(&stale)
	return stale, result.Error
}

func (s *Store) UpsertContents(ctx context.Context, offerID uuid.UUID, contents []models.OfferContent) error {
	if len(contents) == 0 {
		return nil
	}
	for i := range contents {
		contents[i].OfferID = offerID
	}
	// (offer_id, language) 的唯一索引是 deleted_at IS NULL 的部分索引，
	// ON CONFLICT 需要指定相同的條件才能命中
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:     []clause.Column{{Name: "offer_id"}, {Name: "language"}},
			TargetWhere: clause.Where{Exprs: []clause.Expression{clause.Expr{SQL: "deleted_at IS NULL"}}},
			DoUpdates:   clause.AssignmentColumns([]string{"description", "packaging_details", "updated_at"}),
		}).
		Create(&contents).Error
}

func (s *Store) CreateConversation(ctx context.Context, conversation *models.Conversation) error {
	return s.db.WithContext(ctx).Create(conversation).Error
}

func (s *Store) CreateMessage(ctx context.Context, message *models.Message) error {
	return s.db.WithContext(ctx).Create(message).Error
}

func (s *Store) SellerOfferCounts(ctx context.Context, sellerID uuid.UUID) (int64, int64, error) {
	const op = "PostgresStore.SellerOfferCounts"
	base := func() *gorm.DB {
		return s.db.WithContext(ctx).
			Model(&models.Offer{}).
			Where("seller_id = ? AND type <> ?", sellerID, models.OfferTypeCounterOffer)
	}

	var total int64
	if result := base().Count(&total); result.Error != nil {
		return 0, 0, fmt.Errorf("[%s] Fail to count offers, err=%w", op, result.Error)
	}
	var accepted int64
	if result := base().Where("status = ?", models.OfferStatusAccepted).Count(&accepted); result.Error != nil {
		return 0, 0, fmt.Errorf("[%s] Fail to count accepted offers, err=%w", op, result.Error)
	}
	return total, accepted, nil
}

func (s *Store) CountsByStatus(ctx context.Context, since time.Time) ([]offers.StatusCount, error) {
	var counts []offers.StatusCount
	result := s.db.WithContext(ctx).
		Model(&models.Offer{}).
		Select("status, count(*) as count").
		Where("created_at >= ?", since).
		Group("status").
		Scan(&counts)
	return counts, result.Error
}

func (s *Store) CountsByType(ctx context.Context, since time.Time) ([]offers.TypeCount, error) {
	var counts []offers.TypeCount
	result := s.db.WithContext(ctx).
		Model(&models.Offer{}).
		Select("type, count(*) as count").
		Where("created_at >= ?", since).
		Group("type").
		Scan(&counts)
	return counts, result.Error
}
