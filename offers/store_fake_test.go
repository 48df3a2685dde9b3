package offers_test

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"bazar/models"
	"bazar/offers"
)

// fakeStore 是測試用的記憶體持久層
// InTransaction 在進入時對所有資料表做快照，fn 失敗時還原，
// 模擬真實交易的回滾語意
type fakeStore struct {
	users         map[uuid.UUID]models.User
	accounts      map[uuid.UUID]models.Account
	members       map[uuid.UUID]map[uuid.UUID]bool
	buyAds        map[uuid.UUID]models.BuyAd
	offers        map[uuid.UUID]models.Offer
	contents      map[uuid.UUID][]models.OfferContent
	conversations map[uuid.UUID]models.Conversation
	messages      []models.Message

	clock time.Time
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:         map[uuid.UUID]models.User{},
		accounts:      map[uuid.UUID]models.Account{},
		members:       map[uuid.UUID]map[uuid.UUID]bool{},
		buyAds:        map[uuid.UUID]models.BuyAd{},
		offers:        map[uuid.UUID]models.Offer{},
		contents:      map[uuid.UUID][]models.OfferContent{},
		conversations: map[uuid.UUID]models.Conversation{},
		clock:         time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
}

func (f *fakeStore) tick() time.Time {
	f.clock = f.clock.Add(time.Second)
	return f.clock
}

func (f *fakeStore) addUser(rating float32) uuid.UUID {
	id := uuid.Must(uuid.NewV7())
	f.users[id] = models.User{ID: id, Username: id.String()[:8], Rating: rating}
	return id
}

func (f *fakeStore) addAccount(ownerID uuid.UUID) uuid.UUID {
	id := uuid.Must(uuid.NewV7())
	f.accounts[id] = models.Account{ID: id, Name: "acct", OwnerID: ownerID}
	return id
}

func (f *fakeStore) addBuyAd(ad models.BuyAd) uuid.UUID {
	if ad.ID == uuid.Nil {
		ad.ID = uuid.Must(uuid.NewV7())
	}
	if ad.Status == "" {
		ad.Status = models.BuyAdStatusApproved
	}
	f.buyAds[ad.ID] = ad
	return ad.ID
}

func (f *fakeStore) addOffer(offer models.Offer) uuid.UUID {
	if offer.ID == uuid.Nil {
		offer.ID = uuid.Must(uuid.NewV7())
	}
	offer.CreatedAt = f.tick()
	f.offers[offer.ID] = offer
	return offer.ID
}

func (f *fakeStore) InTransaction(_ context.Context, fn func(offers.Store) error) error {
	snapshot := f.snapshot()
	if err := fn(f); err != nil {
		f.restore(snapshot)
		return err
	}
	return nil
}

type fakeSnapshot struct {
	buyAds        map[uuid.UUID]models.BuyAd
	offers        map[uuid.UUID]models.Offer
	contents      map[uuid.UUID][]models.OfferContent
	conversations map[uuid.UUID]models.Conversation
	messages      []models.Message
}

func (f *fakeStore) snapshot() fakeSnapshot {
	s := fakeSnapshot{
		buyAds:        map[uuid.UUID]models.BuyAd{},
		offers:        map[uuid.UUID]models.Offer{},
		contents:      map[uuid.UUID][]models.OfferContent{},
		conversations: map[uuid.UUID]models.Conversation{},
		messages:      append([]models.Message{}, f.messages...),
	}
	for k, v := range f.buyAds {
		s.buyAds[k] = v
	}
	for k, v := range f.offers {
		s.offers[k] = v
	}
	for k, v := range f.contents {
		s.contents[k] = append([]models.OfferContent{}, v...)
	}
	for k, v := range f.conversations {
		s.conversations[k] = v
	}
	return s
}

func (f *fakeStore) restore(s fakeSnapshot) {
	f.buyAds = s.buyAds
	f.offers = s.offers
	f.contents = s.contents
	f.conversations = s.conversations
	f.messages = s.messages
}

func (f *fakeStore) BuyAd(_ context.Context, id uuid.UUID) (*models.BuyAd, error) {
	ad, ok := f.buyAds[id]
	if !ok {
		return nil, offers.ErrNotExist
	}
	return &ad, nil
}

func (f *fakeStore) SaveBuyAd(_ context.Context, ad *models.BuyAd) error {
	f.buyAds[ad.ID] = *ad
	return nil
}

func (f *fakeStore) RecountBuyAdOffers(_ context.Context, buyAdID uuid.UUID, at time.Time) error {
	ad, ok := f.buyAds[buyAdID]
	if !ok {
		return offers.ErrNotExist
	}
	var count int64
	for _, o := range f.offers {
		if o.BuyAdID == buyAdID {
			count++
		}
	}
	ad.TotalOffers = count
	ad.LastOfferAt = &at
	f.buyAds[buyAdID] = ad
	return nil
}

func (f *fakeStore) User(_ context.Context, id uuid.UUID) (*models.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, offers.ErrNotExist
	}
	return &u, nil
}

func (f *fakeStore) Account(_ context.Context, id uuid.UUID) (*models.Account, error) {
	a, ok := f.accounts[id]
	if !ok {
		return nil, offers.ErrNotExist
	}
	return &a, nil
}

func (f *fakeStore) IsAccountMember(_ context.Context, accountID, userID uuid.UUID) (bool, error) {
	return f.members[accountID][userID], nil
}

func (f *fakeStore) Offer(_ context.Context, id uuid.UUID) (*models.Offer, error) {
	o, ok := f.offers[id]
	if !ok {
		return nil, offers.ErrNotExist
	}
	o.Contents = append([]models.OfferContent{}, f.contents[id]...)
	return &o, nil
}

func (f *fakeStore) OfferWithChain(ctx context.Context, id uuid.UUID) (*models.Offer, error) {
	o, err := f.Offer(ctx, id)
	if err != nil {
		return nil, err
	}
	for _, candidate := range f.offers {
		if candidate.ParentOfferID != nil && *candidate.ParentOfferID == id {
			o.ChildOffers = append(o.ChildOffers, candidate)
		}
	}
	return o, nil
}

func (f *fakeStore) CreateOffer(_ context.Context, offer *models.Offer) error {
	offer.ID = uuid.Must(uuid.NewV7())
	offer.CreatedAt = f.tick()
	f.offers[offer.ID] = *offer
	return nil
}

func (f *fakeStore) SaveOffer(_ context.Context, offer *models.Offer) error {
	if _, ok := f.offers[offer.ID]; !ok {
		return offers.ErrNotExist
	}
	stored := *offer
	stored.Contents = nil
	f.offers[offer.ID] = stored
	return nil
}

func (f *fakeStore) DeleteOffer(_ context.Context, offer *models.Offer) error {
	delete(f.offers, offer.ID)
	delete(f.contents, offer.ID)
	return nil
}

func (f *fakeStore) ListOffers(_ context.Context, filter offers.ListFilter) ([]models.Offer, int64, error) {
	var matched []models.Offer
	for _, o := range f.offers {
		if filter.SellerID != nil && o.SellerID != *filter.SellerID {
			continue
		}
		if filter.AccountID != nil && o.AccountID != *filter.AccountID {
			continue
		}
		if filter.BuyAdID != nil && o.BuyAdID != *filter.BuyAdID {
			continue
		}
		if filter.Status != nil && o.Status != *filter.Status {
			continue
		}
		if filter.Type != nil && o.Type != *filter.Type {
			continue
		}
		if filter.PublicOnly {
			if ad, ok := f.buyAds[o.BuyAdID]; !ok || !ad.AllowPublicOffers {
				continue
			}
		}
		matched = append(matched, o)
	}
	sort.Slice(matched, func(i, j int) bool {
		switch filter.Sort {
		case offers.SortOldest:
			return matched[i].CreatedAt.Before(matched[j].CreatedAt)
		case offers.SortPriceLow:
			return matched[i].ProposedPrice < matched[j].ProposedPrice
		case offers.SortPriceHigh:
			return matched[i].ProposedPrice > matched[j].ProposedPrice
		case offers.SortDeliveryFast:
			return matched[i].DeliveryDays < matched[j].DeliveryDays
		default:
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
	})
	total := int64(len(matched))
	start := (filter.Page - 1) * filter.Limit
	if start >= len(matched) {
		return []models.Offer{}, total, nil
	}
	end := start + filter.Limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], total, nil
}

func (f *fakeStore) CountActiveBySeller(_ context.Context, buyAdID, sellerID uuid.UUID) (int64, error) {
	var count int64
	for _, o := range f.offers {
		if o.BuyAdID == buyAdID && o.SellerID == sellerID && o.Status.Active() {
			count++
		}
	}
	return count, nil
}

func (f *fakeStore) Siblings(_ context.Context, buyAdID, excludeOfferID uuid.UUID, onlyActive bool) ([]models.Offer, error) {
	var siblings []models.Offer
	for _, o := range f.offers {
		if o.BuyAdID != buyAdID || o.ID == excludeOfferID {
			continue
		}
		if onlyActive && !o.Status.Active() {
			continue
		}
		siblings = append(siblings, o)
	}
	return siblings, nil
}

func (f *fakeStore) UpdateStatuses(_ context.Context, ids []uuid.UUID, status models.OfferStatus) error {
	for _, id := range ids {
		if o, ok := f.offers[id]; ok {
			o.Status = status
			f.offers[id] = o
		}
	}
	return nil
}

func (f *fakeStore) StaleOffers(_ context.Context, now time.Time, limit int) ([]models.Offer, error) {
	var stale []models.Offer
	for _, o := range f.offers {
		if o.Status == models.OfferStatusPending && o.ExpiresAt != nil && o.ExpiresAt.Before(now) {
			stale = append(stale, o)
		}
		if len(stale) >= limit {
			break
		}
	}
	return stale, nil
}

func (f *fakeStore) UpsertContents(_ context.Context, offerID uuid.UUID, contents []models.OfferContent) error {
	existing := f.contents[offerID]
	for _, incoming := range contents {
		replaced := false
		for i, current := range existing {
			if current.Language == incoming.Language {
				existing[i] = incoming
				replaced = true
				break
			}
		}
		if !replaced {
			if incoming.ID == uuid.Nil {
				incoming.ID = uuid.Must(uuid.NewV7())
			}
			existing = append(existing, incoming)
		}
	}
	f.contents[offerID] = existing
	return nil
}

func (f *fakeStore) CreateConversation(_ context.Context, conversation *models.Conversation) error {
	conversation.ID = uuid.Must(uuid.NewV7())
	f.conversations[conversation.ID] = *conversation
	return nil
}

func (f *fakeStore) CreateMessage(_ context.Context, message *models.Message) error {
	message.ID = uuid.Must(uuid.NewV7())
	f.messages = append(f.messages, *message)
	return nil
}

func (f *fakeStore) SellerOfferCounts(_ context.Context, sellerID uuid.UUID) (int64, int64, error) {
	var total, accepted int64
	for _, o := range f.offers {
		if o.SellerID != sellerID || o.Type == models.OfferTypeCounterOffer {
			continue
		}
		total++
		if o.Status == models.OfferStatusAccepted {
			accepted++
		}
	}
	return total, accepted, nil
}

func (f *fakeStore) CountsByStatus(_ context.Context, since time.Time) ([]offers.StatusCount, error) {
	counts := map[models.OfferStatus]int64{}
	for _, o := range f.offers {
		if o.CreatedAt.Before(since) {
			continue
		}
		counts[o.Status]++
	}
	var result []offers.StatusCount
	for status, count := range counts {
		result = append(result, offers.StatusCount{Status: status, Count: count})
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Status < result[j].Status })
	return result, nil
}

func (f *fakeStore) CountsByType(_ context.Context, since time.Time) ([]offers.TypeCount, error) {
	counts := map[models.OfferType]int64{}
	for _, o := range f.offers {
		if o.CreatedAt.Before(since) {
			continue
		}
		counts[o.Type]++
	}
	var result []offers.TypeCount
	for offerType, count := range counts {
		result = append(result, offers.TypeCount{Type: offerType, Count: count})
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Type < result[j].Type })
	return result, nil
}

// fakePublisher 收集發布的事件
type fakePublisher struct {
	events []offers.Event
}

func (p *fakePublisher) Publish(event offers.Event) error {
	p.events = append(p.events, event)
	return nil
}

// fakeInvalidator 收集失效的快取標籤
type fakeInvalidator struct {
	tags []string
}

func (i *fakeInvalidator) InvalidateTags(_ context.Context, tags ...string) error {
	i.tags = append(i.tags, tags...)
	return nil
}
