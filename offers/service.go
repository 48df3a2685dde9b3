package offers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"bazar/models"
)

type serviceOptions struct {
	logger    *slog.Logger
	events    IPublisher
	cache     IInvalidator
	sanitize  func(string) string
	now       func() time.Time
	seedBody  string
	batchSize int
}

type ServiceOption func(*serviceOptions)

// WithServiceLogger 設置日誌記錄器
func WithServiceLogger(logger *slog.Logger) ServiceOption {
	return func(o *serviceOptions) {
		o.logger = logger
	}
}

// WithServiceEventPublisher 設置報價事件的發布器
func WithServiceEventPublisher(events IPublisher) ServiceOption {
	return func(o *serviceOptions) {
		o.events = events
	}
}

// WithServiceCacheInvalidator 設置快取失效器
func WithServiceCacheInvalidator(cache IInvalidator) ServiceOption {
	return func(o *serviceOptions) {
		o.cache = cache
	}
}

// WithServiceSanitizer 設置自由文字欄位的淨化函數
func WithServiceSanitizer(fn func(string) string) ServiceOption {
	return func(o *serviceOptions) {
		o.sanitize = fn
	}
}

// WithServiceClock 設置時間來源，測試時用來固定時間
func WithServiceClock(now func() time.Time) ServiceOption {
	return func(o *serviceOptions) {
		o.now = now
	}
}

// WithServiceSweepBatchSize 設置過期掃描單批處理的報價數量
func WithServiceSweepBatchSize(size int) ServiceOption {
	return func(o *serviceOptions) {
		o.batchSize = size
	}
}

// Service 擁有報價的狀態機
// 所有多步驟的狀態轉移都在持久層閘道提供的單一交易中執行，
// 快取失效與事件發布則是交易提交後的 best-effort 動作
type Service struct {
	store   Store
	logger  *slog.Logger
	options serviceOptions
}

// NewService 建立報價生命週期服務
func NewService(store Store, opts ...ServiceOption) (*Service, error) {
	if store == nil {
		return nil, errors.New("store cannot be nil")
	}

	// 默認選項
	options := serviceOptions{
		logger:    slog.Default(),
		sanitize:  func(s string) string { return s },
		now:       time.Now,
		seedBody:  "Offer accepted. You can discuss the details here.",
		batchSize: 200,
	}

	// 應用自定義選項
	for _, opt := range opts {
		opt(&options)
	}

	return &Service{
		store:   store,
		logger:  options.logger.With(slog.String("caller", "OfferService")),
		options: options,
	}, nil
}

// ContentInput 是單一語言的報價內容
type ContentInput struct {
	Language         string
	Description      string
	PackagingDetails string
}

// CreateInput 是建立報價的輸入
type CreateInput struct {
	BuyAdID        uuid.UUID
	AccountID      uuid.UUID
	Type           models.OfferType
	Priority       int
	ProposedPrice  uint64
	ProposedAmount uint64
	Unit           string
	DeliveryDays   int
	ShippingCost   uint64
	ShippingDays   int
	WarrantyMonths int
	Certifications []string
	ValidityHours  *int
	Contents       []ContentInput
}

// Create 建立一筆新的報價，初始狀態為 PENDING
//
// 前置條件:
//   - 採購需求存在且為 APPROVED
//   - 呼叫者不是採購需求的擁有者
//   - 呼叫者對指定的企業帳戶有存取權
//   - 呼叫者在該採購需求底下沒有其他活躍報價
//   - 驗證引擎通過
func (s *Service) Create(ctx context.Context, sellerID uuid.UUID, in CreateInput) (*models.Offer, error) {
	const op = "OfferService.Create"
	var created *models.Offer

	err := s.store.InTransaction(ctx, func(tx Store) error {
		ad, err := tx.BuyAd(ctx, in.BuyAdID)
		if errors.Is(err, ErrNotExist) {
			return &NotFoundError{Entity: "buy ad"}
		}
		if err != nil {
			return fmt.Errorf("[%s] Fail to load buy ad, err=%w", op, err)
		}
		if ad.Status != models.BuyAdStatusApproved {
			return &ConflictError{Reason: "buy ad is not open for offers"}
		}
		if ad.UserID == sellerID {
			return &ForbiddenError{Reason: "cannot submit an offer on your own buy ad"}
		}

		if err := s.checkAccountAccess(ctx, tx, in.AccountID, sellerID); err != nil {
			return err
		}

		active, err := tx.CountActiveBySeller(ctx, ad.ID, sellerID)
		if err != nil {
			return fmt.Errorf("[%s] Fail to count active offers, err=%w", op, err)
		}
		if active > 0 {
			return &ConflictError{Reason: "seller already has an active offer on this buy ad"}
		}

		seller, err := tx.User(ctx, sellerID)
		if errors.Is(err, ErrNotExist) {
			return &NotFoundError{Entity: "seller"}
		}
		if err != nil {
			return fmt.Errorf("[%s] Fail to load seller, err=%w", op, err)
		}

		offer := &models.Offer{
			SellerID:       sellerID,
			AccountID:      in.AccountID,
			BuyAdID:        ad.ID,
			Status:         models.OfferStatusPending,
			Type:           in.Type,
			Priority:       in.Priority,
			ProposedPrice:  in.ProposedPrice,
			ProposedAmount: in.ProposedAmount,
			Unit:           in.Unit,
			DeliveryDays:   in.DeliveryDays,
			ShippingCost:   in.ShippingCost,
			ShippingDays:   in.ShippingDays,
			WarrantyMonths: in.WarrantyMonths,
			Certifications: in.Certifications,
			ValidityHours:  in.ValidityHours,
		}
		if offer.Type == "" {
			offer.Type = DefaultOfferType(ad.Type)
		}
		if offer.Certifications == nil {
			offer.Certifications = []string{}
		}
		if err := s.validateAgainst(ad, offer, seller.Rating); err != nil {
			return err
		}
		offer.ExpiresAt = s.deriveExpiry(offer.ValidityHours)

		if err := tx.CreateOffer(ctx, offer); err != nil {
			return fmt.Errorf("[%s] Fail to create offer, err=%w", op, err)
		}
		if err := tx.UpsertContents(ctx, offer.ID, s.buildContents(offer.ID, in.Contents)); err != nil {
			return fmt.Errorf("[%s] Fail to create offer contents, err=%w", op, err)
		}
		if err := tx.RecountBuyAdOffers(ctx, ad.ID, s.options.now()); err != nil {
			return fmt.Errorf("[%s] Fail to recount buy ad offers, err=%w", op, err)
		}
		created = offer
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.afterMutation(ctx, created, EventCreated)
	return created, nil
}

// UpdateInput 是更新報價的輸入，nil 欄位代表不變更
type UpdateInput struct {
	Priority       *int
	ProposedPrice  *uint64
	ProposedAmount *uint64
	DeliveryDays   *int
	ShippingCost   *uint64
	ShippingDays   *int
	WarrantyMonths *int
	Certifications []string
	ValidityHours  *int
	Contents       []ContentInput
}

// Update 讓賣家修改自己仍為 PENDING 的報價
// 競標出價 (AUCTION_BID) 不可修改
func (s *Service) Update(ctx context.Context, sellerID, offerID uuid.UUID, in UpdateInput) (*models.Offer, error) {
	const op = "OfferService.Update"
	var updated *models.Offer

	err := s.store.InTransaction(ctx, func(tx Store) error {
		offer, err := tx.Offer(ctx, offerID)
		if errors.Is(err, ErrNotExist) {
			return &NotFoundError{Entity: "offer"}
		}
		if err != nil {
			return fmt.Errorf("[%s] Fail to load offer, err=%w", op, err)
		}
		if offer.SellerID != sellerID {
			return &ForbiddenError{Reason: "only the seller can edit the offer"}
		}
		if offer.Status != models.OfferStatusPending {
			return &ConflictError{Reason: "offer is not editable"}
		}
		if offer.Type == models.OfferTypeAuctionBid {
			return &ConflictError{Reason: "auction bids are not editable"}
		}

		if in.Priority != nil {
			offer.Priority = *in.Priority
		}
		if in.ProposedPrice != nil {
			offer.ProposedPrice = *in.ProposedPrice
		}
		if in.ProposedAmount != nil {
			offer.ProposedAmount = *in.ProposedAmount
		}
		if in.DeliveryDays != nil {
			offer.DeliveryDays = *in.DeliveryDays
		}
		if in.ShippingCost != nil {
			offer.ShippingCost = *in.ShippingCost
		}
		if in.ShippingDays != nil {
			offer.ShippingDays = *in.ShippingDays
		}
		if in.WarrantyMonths != nil {
			offer.WarrantyMonths = *in.WarrantyMonths
		}
		if in.Certifications != nil {
			offer.Certifications = in.Certifications
		}
		if in.ValidityHours != nil {
			offer.ValidityHours = in.ValidityHours
			offer.ExpiresAt = s.deriveExpiry(in.ValidityHours)
		}

		if err := tx.SaveOffer(ctx, offer); err != nil {
			return fmt.Errorf("[%s] Fail to save offer, err=%w", op, err)
		}
		if len(in.Contents) > 0 {
			if err := tx.UpsertContents(ctx, offer.ID, s.buildContents(offer.ID, in.Contents)); err != nil {
				return fmt.Errorf("[%s] Fail to upsert offer contents, err=%w", op, err)
			}
		}
		updated = offer
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, updated)
	return updated, nil
}

// Withdraw 讓賣家撤回自己仍為 PENDING 的報價
// 如果被撤回的是還價，母報價會回復成 PENDING
func (s *Service) Withdraw(ctx context.Context, sellerID, offerID uuid.UUID) error {
	const op = "OfferService.Withdraw"
	var withdrawn *models.Offer

	err := s.store.InTransaction(ctx, func(tx Store) error {
		offer, err := tx.Offer(ctx, offerID)
		if errors.Is(err, ErrNotExist) {
			return &NotFoundError{Entity: "offer"}
		}
		if err != nil {
			return fmt.Errorf("[%s] Fail to load offer, err=%w", op, err)
		}
		if offer.SellerID != sellerID {
			return &ForbiddenError{Reason: "only the seller can withdraw the offer"}
		}
		if offer.Status != models.OfferStatusPending {
			return &ConflictError{Reason: "only pending offers can be withdrawn"}
		}

		if offer.ParentOfferID != nil {
			parent, err := tx.Offer(ctx, *offer.ParentOfferID)
			if err != nil && !errors.Is(err, ErrNotExist) {
				return fmt.Errorf("[%s] Fail to load parent offer, err=%w", op, err)
			}
			if parent != nil {
				parent.Status = models.OfferStatusPending
				if err := tx.SaveOffer(ctx, parent); err != nil {
					return fmt.Errorf("[%s] Fail to revert parent offer, err=%w", op, err)
				}
			}
		}

		if err := tx.DeleteOffer(ctx, offer); err != nil {
			return fmt.Errorf("[%s] Fail to delete offer, err=%w", op, err)
		}
		if err := tx.RecountBuyAdOffers(ctx, offer.BuyAdID, s.options.now()); err != nil {
			return fmt.Errorf("[%s] Fail to recount buy ad offers, err=%w", op, err)
		}
		withdrawn = offer
		return nil
	})
	if err != nil {
		return err
	}

	s.afterMutation(ctx, withdrawn, EventWithdrawn)
	return nil
}

// Accept 讓採購需求的擁有者接受一筆 PENDING 報價
//
// 同一個採購需求只能有一筆 ACCEPTED 報價；接受時其他報價會被
// 連帶拒絕，範圍依議價模式而定:
//   - AUCTION/TENDER: 需求底下所有其他報價
//   - 其他: 只有仍在 PENDING/COUNTERED 的報價
//
// 接受的同時會建立買賣雙方的對話與第一則訊息，並將採購需求
// 標記為 FULFILLED
func (s *Service) Accept(ctx context.Context, buyerID, offerID uuid.UUID) (*models.Offer, error) {
	const op = "OfferService.Accept"
	var accepted *models.Offer

	err := s.store.InTransaction(ctx, func(tx Store) error {
		offer, err := tx.Offer(ctx, offerID)
		if errors.Is(err, ErrNotExist) {
			return &NotFoundError{Entity: "offer"}
		}
		if err != nil {
			return fmt.Errorf("[%s] Fail to load offer, err=%w", op, err)
		}
		ad, err := tx.BuyAd(ctx, offer.BuyAdID)
		if errors.Is(err, ErrNotExist) {
			return &NotFoundError{Entity: "buy ad"}
		}
		if err != nil {
			return fmt.Errorf("[%s] Fail to load buy ad, err=%w", op, err)
		}
		if ad.UserID != buyerID {
			return &ForbiddenError{Reason: "only the buy ad owner can accept an offer"}
		}
		// 重新讀取後的樂觀檢查: 並行的接受請求中，後提交者會在這裡
		// 看到已經不是 PENDING 的狀態
		if offer.Status != models.OfferStatusPending {
			return &ConflictError{Reason: "offer is not pending"}
		}

		onlyActive := ad.Type != models.BuyAdTypeAuction && ad.Type != models.BuyAdTypeTender
		siblings, err := tx.Siblings(ctx, ad.ID, offer.ID, onlyActive)
		if err != nil {
			return fmt.Errorf("[%s] Fail to load sibling offers, err=%w", op, err)
		}
		if len(siblings) > 0 {
			ids := lo.Map(siblings, func(o models.Offer, _ int) uuid.UUID { return o.ID })
			if err := tx.UpdateStatuses(ctx, ids, models.OfferStatusRejected); err != nil {
				return fmt.Errorf("[%s] Fail to reject sibling offers, err=%w", op, err)
			}
		}

		now := s.options.now()
		conversation := &models.Conversation{
			OfferID:       offer.ID,
			BuyerID:       buyerID,
			SellerID:      offer.SellerID,
			LastMessageAt: &now,
		}
		if err := tx.CreateConversation(ctx, conversation); err != nil {
			return fmt.Errorf("[%s] Fail to create conversation, err=%w", op, err)
		}
		if err := tx.CreateMessage(ctx, &models.Message{
			ConversationID: conversation.ID,
			SenderID:       buyerID,
			Body:           s.options.seedBody,
		}); err != nil {
			return fmt.Errorf("[%s] Fail to create seed message, err=%w", op, err)
		}

		offer.Status = models.OfferStatusAccepted
		offer.ConversationID = &conversation.ID
		if err := tx.SaveOffer(ctx, offer); err != nil {
			return fmt.Errorf("[%s] Fail to save offer, err=%w", op, err)
		}

		ad.Status = models.BuyAdStatusFulfilled
		ad.FulfilledAt = &now
		if err := tx.SaveBuyAd(ctx, ad); err != nil {
			return fmt.Errorf("[%s] Fail to save buy ad, err=%w", op, err)
		}
		accepted = offer
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.afterMutation(ctx, accepted, EventAccepted)
	return accepted, nil
}

// Reject 讓採購需求的擁有者拒絕一筆 PENDING 報價
// reason 不為空時會附加到報價的各語言描述之後
func (s *Service) Reject(ctx context.Context, buyerID, offerID uuid.UUID, reason string) (*models.Offer, error) {
	const op = "OfferService.Reject"
	var rejected *models.Offer

	err := s.store.InTransaction(ctx, func(tx Store) error {
		offer, err := tx.Offer(ctx, offerID)
		if errors.Is(err, ErrNotExist) {
			return &NotFoundError{Entity: "offer"}
		}
		if err != nil {
			return fmt.Errorf("[%s] Fail to load offer, err=%w", op, err)
		}
		ad, err := tx.BuyAd(ctx, offer.BuyAdID)
		if errors.Is(err, ErrNotExist) {
			return &NotFoundError{Entity: "buy ad"}
		}
		if err != nil {
			return fmt.Errorf("[%s] Fail to load buy ad, err=%w", op, err)
		}
		if ad.UserID != buyerID {
			return &ForbiddenError{Reason: "only the buy ad owner can reject an offer"}
		}
		if offer.Status != models.OfferStatusPending {
			return &ConflictError{Reason: "offer is not pending"}
		}

		offer.Status = models.OfferStatusRejected
		if err := tx.SaveOffer(ctx, offer); err != nil {
			return fmt.Errorf("[%s] Fail to save offer, err=%w", op, err)
		}
		if reason = s.options.sanitize(reason); reason != "" {
			contents := make([]models.OfferContent, len(offer.Contents))
			for i, content := range offer.Contents {
				content.Description = content.Description + "\n\nRejection reason: " + reason
				contents[i] = content
			}
			if err := tx.UpsertContents(ctx, offer.ID, contents); err != nil {
				return fmt.Errorf("[%s] Fail to append rejection reason, err=%w", op, err)
			}
		}
		rejected = offer
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.afterMutation(ctx, rejected, EventRejected)
	return rejected, nil
}

// CounterInput 是還價的輸入，nil 欄位會繼承原報價的值
type CounterInput struct {
	ProposedPrice  *uint64
	ProposedAmount *uint64
	DeliveryDays   *int
	ShippingCost   *uint64
	ShippingDays   *int
	WarrantyMonths *int
	ValidityHours  *int
	Contents       []ContentInput
}

// Counter 讓採購需求的擁有者針對 PENDING 報價提出還價
// AUCTION 與 TENDER 需求不允許還價
//
// 還價會以 COUNTER_OFFER 的形式建立一筆新報價，沿用原報價的
// 賣家、帳戶與單位並鏈上 parent_offer_id；原報價維持 PENDING。
// 還價同樣會經過驗證引擎，避免繞過採購需求的限制
func (s *Service) Counter(ctx context.Context, buyerID, offerID uuid.UUID, in CounterInput) (*models.Offer, error) {
	const op = "OfferService.Counter"
	var counter *models.Offer

	err := s.store.InTransaction(ctx, func(tx Store) error {
		original, err := tx.Offer(ctx, offerID)
		if errors.Is(err, ErrNotExist) {
			return &NotFoundError{Entity: "offer"}
		}
		if err != nil {
			return fmt.Errorf("[%s] Fail to load offer, err=%w", op, err)
		}
		ad, err := tx.BuyAd(ctx, original.BuyAdID)
		if errors.Is(err, ErrNotExist) {
			return &NotFoundError{Entity: "buy ad"}
		}
		if err != nil {
			return fmt.Errorf("[%s] Fail to load buy ad, err=%w", op, err)
		}
		if ad.UserID != buyerID {
			return &ForbiddenError{Reason: "only the buy ad owner can counter an offer"}
		}
		if original.Status != models.OfferStatusPending {
			return &ConflictError{Reason: "offer is not pending"}
		}
		if ad.Type == models.BuyAdTypeAuction || ad.Type == models.BuyAdTypeTender {
			return &ConflictError{Reason: "counter offers are not allowed on auction or tender buy ads"}
		}

		seller, err := tx.User(ctx, original.SellerID)
		if errors.Is(err, ErrNotExist) {
			return &NotFoundError{Entity: "seller"}
		}
		if err != nil {
			return fmt.Errorf("[%s] Fail to load seller, err=%w", op, err)
		}

		child := &models.Offer{
			SellerID:       original.SellerID,
			AccountID:      original.AccountID,
			BuyAdID:        ad.ID,
			Status:         models.OfferStatusCountered,
			Type:           models.OfferTypeCounterOffer,
			Priority:       original.Priority,
			ProposedPrice:  lo.FromPtrOr(in.ProposedPrice, original.ProposedPrice),
			ProposedAmount: lo.FromPtrOr(in.ProposedAmount, original.ProposedAmount),
			Unit:           original.Unit,
			DeliveryDays:   lo.FromPtrOr(in.DeliveryDays, original.DeliveryDays),
			ShippingCost:   lo.FromPtrOr(in.ShippingCost, original.ShippingCost),
			ShippingDays:   lo.FromPtrOr(in.ShippingDays, original.ShippingDays),
			WarrantyMonths: lo.FromPtrOr(in.WarrantyMonths, original.WarrantyMonths),
			Certifications: original.Certifications,
			ValidityHours:  original.ValidityHours,
			ParentOfferID:  &original.ID,
		}
		if in.ValidityHours != nil {
			child.ValidityHours = in.ValidityHours
		}
		child.ExpiresAt = s.deriveExpiry(child.ValidityHours)
		if err := s.validateAgainst(ad, child, seller.Rating); err != nil {
			return err
		}

		if err := tx.CreateOffer(ctx, child); err != nil {
			return fmt.Errorf("[%s] Fail to create counter offer, err=%w", op, err)
		}
		if len(in.Contents) > 0 {
			if err := tx.UpsertContents(ctx, child.ID, s.buildContents(child.ID, in.Contents)); err != nil {
				return fmt.Errorf("[%s] Fail to create counter offer contents, err=%w", op, err)
			}
		}

		original.Status = models.OfferStatusPending
		if err := tx.SaveOffer(ctx, original); err != nil {
			return fmt.Errorf("[%s] Fail to save original offer, err=%w", op, err)
		}
		if err := tx.RecountBuyAdOffers(ctx, ad.ID, s.options.now()); err != nil {
			return fmt.Errorf("[%s] Fail to recount buy ad offers, err=%w", op, err)
		}
		counter = child
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.afterMutation(ctx, counter, EventCountered)
	return counter, nil
}

// MarkSeen 將報價標記為買家已讀
// is_seen_by_buyer 只會從 false 變成 true，重複呼叫是冪等的
func (s *Service) MarkSeen(ctx context.Context, buyerID, offerID uuid.UUID) error {
	const op = "OfferService.MarkSeen"
	var seen *models.Offer

	err := s.store.InTransaction(ctx, func(tx Store) error {
		offer, err := tx.Offer(ctx, offerID)
		if errors.Is(err, ErrNotExist) {
			return &NotFoundError{Entity: "offer"}
		}
		if err != nil {
			return fmt.Errorf("[%s] Fail to load offer, err=%w", op, err)
		}
		ad, err := tx.BuyAd(ctx, offer.BuyAdID)
		if errors.Is(err, ErrNotExist) {
			return &NotFoundError{Entity: "buy ad"}
		}
		if err != nil {
			return fmt.Errorf("[%s] Fail to load buy ad, err=%w", op, err)
		}
		if ad.UserID != buyerID {
			return &ForbiddenError{Reason: "only the buy ad owner can mark an offer as seen"}
		}
		if offer.IsSeenByBuyer {
			return nil
		}

		now := s.options.now()
		offer.IsSeenByBuyer = true
		offer.SeenByBuyerAt = &now
		if err := tx.SaveOffer(ctx, offer); err != nil {
			return fmt.Errorf("[%s] Fail to save offer, err=%w", op, err)
		}
		seen = offer
		return nil
	})
	if err != nil {
		return err
	}

	if seen != nil {
		s.invalidate(ctx, seen)
	}
	return nil
}

// ExpireStale 將所有已過期但仍為 PENDING 的報價轉為 EXPIRED
//
// 過期時間以每筆報價自己的 expires_at 為準 (由 validity_hours 在
// 建立或還價時推導)，沒有設定 validity_hours 的報價不會過期。
// 查詢只會命中 PENDING 的報價，所以重複執行是冪等的
func (s *Service) ExpireStale(ctx context.Context) (int, error) {
	const op = "OfferService.ExpireStale"
	total := 0

	for {
		var batch []models.Offer
		err := s.store.InTransaction(ctx, func(tx Store) error {
			var err error
			batch, err = tx.StaleOffers(ctx, s.options.now(), s.options.batchSize)
			if err != nil {
				return fmt.Errorf("[%s] Fail to load stale offers, err=%w", op, err)
			}
			if len(batch) == 0 {
				return nil
			}
			ids := lo.Map(batch, func(o models.Offer, _ int) uuid.UUID { return o.ID })
			if err := tx.UpdateStatuses(ctx, ids, models.OfferStatusExpired); err != nil {
				return fmt.Errorf("[%s] Fail to expire offers, err=%w", op, err)
			}
			now := s.options.now()
			for _, buyAdID := range lo.Uniq(lo.Map(batch, func(o models.Offer, _ int) uuid.UUID { return o.BuyAdID })) {
				if err := tx.RecountBuyAdOffers(ctx, buyAdID, now); err != nil {
					return fmt.Errorf("[%s] Fail to recount buy ad offers, err=%w", op, err)
				}
			}
			return nil
		})
		if err != nil {
			return total, err
		}
		if len(batch) == 0 {
			return total, nil
		}
		total += len(batch)
		for i := range batch {
			offer := batch[i]
			offer.Status = models.OfferStatusExpired
			s.afterMutation(ctx, &offer, EventExpired)
		}
		if len(batch) < s.options.batchSize {
			return total, nil
		}
	}
}

// Get 讀取單筆報價
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*models.Offer, error) {
	const op = "OfferService.Get"
	offer, err := s.store.Offer(ctx, id)
	if errors.Is(err, ErrNotExist) {
		return nil, &NotFoundError{Entity: "offer"}
	}
	if err != nil {
		return nil, fmt.Errorf("[%s] Fail to load offer, err=%w", op, err)
	}
	return offer, nil
}

// List 依過濾條件列出報價
func (s *Service) List(ctx context.Context, filter ListFilter) ([]models.Offer, int64, error) {
	const op = "OfferService.List"
	if filter.Limit <= 0 {
		filter.Limit = 20
	}
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.Sort == "" {
		filter.Sort = SortNewest
	}
	items, count, err := s.store.ListOffers(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("[%s] Fail to list offers, err=%w", op, err)
	}
	return items, count, nil
}

// ListForBuyAd 讓採購需求的擁有者列出需求底下的報價
func (s *Service) ListForBuyAd(ctx context.Context, buyerID, buyAdID uuid.UUID, filter ListFilter) ([]models.Offer, int64, error) {
	const op = "OfferService.ListForBuyAd"
	ad, err := s.store.BuyAd(ctx, buyAdID)
	if errors.Is(err, ErrNotExist) {
		return nil, 0, &NotFoundError{Entity: "buy ad"}
	}
	if err != nil {
		return nil, 0, fmt.Errorf("[%s] Fail to load buy ad, err=%w", op, err)
	}
	if ad.UserID != buyerID {
		return nil, 0, &ForbiddenError{Reason: "only the buy ad owner can view its offers"}
	}
	filter.BuyAdID = &buyAdID
	return s.List(ctx, filter)
}

func (s *Service) checkAccountAccess(ctx context.Context, tx Store, accountID, userID uuid.UUID) error {
	const op = "OfferService.checkAccountAccess"
	account, err := tx.Account(ctx, accountID)
	if errors.Is(err, ErrNotExist) {
		return &NotFoundError{Entity: "account"}
	}
	if err != nil {
		return fmt.Errorf("[%s] Fail to load account, err=%w", op, err)
	}
	if account.OwnerID == userID {
		return nil
	}
	member, err := tx.IsAccountMember(ctx, accountID, userID)
	if err != nil {
		return fmt.Errorf("[%s] Fail to check account membership, err=%w", op, err)
	}
	if !member {
		return &ForbiddenError{Reason: "no access to the acting account"}
	}
	return nil
}

func (s *Service) validateAgainst(ad *models.BuyAd, offer *models.Offer, sellerRating float32) error {
	cond, err := ParseConditions(ad)
	if err != nil {
		return err
	}
	if violations := Validate(offer, ad, cond, sellerRating); len(violations) > 0 {
		return &ValidationError{Violations: violations}
	}
	return nil
}

func (s *Service) deriveExpiry(validityHours *int) *time.Time {
	if validityHours == nil || *validityHours <= 0 {
		return nil
	}
	expiresAt := s.options.now().Add(time.Duration(*validityHours) * time.Hour)
	return &expiresAt
}

func (s *Service) buildContents(offerID uuid.UUID, inputs []ContentInput) []models.OfferContent {
	contents := make([]models.OfferContent, 0, len(inputs))
	for _, in := range inputs {
		contents = append(contents, models.OfferContent{
			OfferID:          offerID,
			Language:         in.Language,
			Description:      s.options.sanitize(in.Description),
			PackagingDetails: s.options.sanitize(in.PackagingDetails),
		})
	}
	return contents
}

// afterMutation 在交易提交後做快取失效與事件發布
// 兩者都是 best-effort，失敗只記錄日誌
func (s *Service) afterMutation(ctx context.Context, offer *models.Offer, kind EventKind) {
	if offer == nil {
		return
	}
	s.invalidate(ctx, offer)
	if s.options.events == nil {
		return
	}
	err := s.options.events.Publish(Event{
		Kind:          kind,
		OfferID:       offer.ID,
		BuyAdID:       offer.BuyAdID,
		SellerID:      offer.SellerID,
		Status:        offer.Status,
		ProposedPrice: offer.ProposedPrice,
		At:            s.options.now(),
	})
	if err != nil {
		s.logger.Warn("Fail to publish offer event", slog.String("kind", string(kind)), slog.String("offerID", offer.ID.String()), slog.Any("error", err))
	}
}

func (s *Service) invalidate(ctx context.Context, offer *models.Offer) {
	if s.options.cache == nil {
		return
	}
	tags := []string{OfferTag(offer.ID), BuyAdOffersTag(offer.BuyAdID), UserOffersTag(offer.SellerID)}
	if err := s.options.cache.InvalidateTags(ctx, tags...); err != nil {
		s.logger.Warn("Fail to invalidate offer cache", slog.String("offerID", offer.ID.String()), slog.Any("error", err))
	}
}
