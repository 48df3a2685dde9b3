package offers

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"bazar/models"
)

// StatsWindow 是管理端統計的觀察區間
type StatsWindow string

const (
	Window7Days  StatsWindow = "7d"
	Window30Days StatsWindow = "30d"
	Window90Days StatsWindow = "90d"
	Window1Year  StatsWindow = "1y"
)

// Duration 回傳觀察區間的長度，未知值一律視為 30 天
func (w StatsWindow) Duration() time.Duration {
	switch w {
	case Window7Days:
		return 7 * 24 * time.Hour
	case Window90Days:
		return 90 * 24 * time.Hour
	case Window1Year:
		return 365 * 24 * time.Hour
	default:
		return 30 * 24 * time.Hour
	}
}

// SellerStats 是單一賣家的報價統計
// SuccessRate 是四捨五入到整數的百分比 (0~100)
type SellerStats struct {
	SellerID    uuid.UUID `json:"seller_id"`
	Total       int64     `json:"total"`
	Accepted    int64     `json:"accepted"`
	SuccessRate float64   `json:"success_rate"`
}

// AdminStats 是管理端的全站報價統計
type AdminStats struct {
	Window   StatsWindow   `json:"window"`
	Since    time.Time     `json:"since"`
	ByStatus []StatusCount `json:"by_status"`
	ByType   []TypeCount   `json:"by_type"`
}

// ChainNode 是議價鏈上的一個節點，按時間由舊到新排列
type ChainNode struct {
	Offer models.Offer `json:"offer"`
	Depth int          `json:"depth"`
}

// StatsReader 提供報價的唯讀統計視圖
// 與生命週期服務共用同一個持久層閘道，但不開啟交易
type StatsReader struct {
	store Store
	now   func() time.Time
}

// NewStatsReader 建立統計讀取器
func NewStatsReader(store Store, opts ...StatsReaderOption) (*StatsReader, error) {
	if store == nil {
		return nil, errors.New("store cannot be nil")
	}
	reader := &StatsReader{
		store: store,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(reader)
	}
	return reader, nil
}

type StatsReaderOption func(*StatsReader)

// WithStatsClock 設置時間來源，測試時用來固定時間
func WithStatsClock(now func() time.Time) StatsReaderOption {
	return func(r *StatsReader) {
		r.now = now
	}
}

// SellerSuccessRate 計算賣家的成交率百分比 (接受數 / 總報價數)
// 還價不計入分母，沒有任何報價時成交率為 0
func (r *StatsReader) SellerSuccessRate(ctx context.Context, sellerID uuid.UUID) (SellerStats, error) {
	const op = "StatsReader.SellerSuccessRate"
	total, accepted, err := r.store.SellerOfferCounts(ctx, sellerID)
	if err != nil {
		return SellerStats{}, fmt.Errorf("[%s] Fail to count seller offers, err=%w", op, err)
	}
	stats := SellerStats{
		SellerID: sellerID,
		Total:    total,
		Accepted: accepted,
	}
	if total > 0 {
		stats.SuccessRate = math.Round(float64(accepted) / float64(total) * 100)
	}
	return stats, nil
}

// NegotiationChain 重建一筆報價所在的完整議價鏈
// 先沿著 parent_offer_id 走到鏈的根，再沿著子報價往下收集，
// 結果按建立時間由舊到新排列。鏈的深度上限防止資料異常造成的環
func (r *StatsReader) NegotiationChain(ctx context.Context, offerID uuid.UUID) ([]ChainNode, error) {
	const op = "StatsReader.NegotiationChain"
	const maxDepth = 64

	offer, err := r.store.Offer(ctx, offerID)
	if errors.Is(err, ErrNotExist) {
		return nil, &NotFoundError{Entity: "offer"}
	}
	if err != nil {
		return nil, fmt.Errorf("[%s] Fail to load offer, err=%w", op, err)
	}

	// 往上走到根
	root := offer
	for depth := 0; root.ParentOfferID != nil; depth++ {
		if depth >= maxDepth {
			return nil, fmt.Errorf("[%s] Negotiation chain exceeds max depth %d", op, maxDepth)
		}
		parent, err := r.store.Offer(ctx, *root.ParentOfferID)
		if errors.Is(err, ErrNotExist) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("[%s] Fail to load parent offer, err=%w", op, err)
		}
		root = parent
	}

	// 從根往下收集
	var chain []ChainNode
	current, err := r.store.OfferWithChain(ctx, root.ID)
	if err != nil {
		return nil, fmt.Errorf("[%s] Fail to load chain root, err=%w", op, err)
	}
	for depth := 0; current != nil; depth++ {
		if depth >= maxDepth {
			return nil, fmt.Errorf("[%s] Negotiation chain exceeds max depth %d", op, maxDepth)
		}
		chain = append(chain, ChainNode{Offer: *current, Depth: depth})
		if len(current.ChildOffers) == 0 {
			break
		}
		// 同一層有多筆子報價時取最新的一筆延伸主鏈
		next := current.ChildOffers[0]
		for _, child := range current.ChildOffers[1:] {
			if child.CreatedAt.After(next.CreatedAt) {
				next = child
			}
		}
		current, err = r.store.OfferWithChain(ctx, next.ID)
		if err != nil {
			return nil, fmt.Errorf("[%s] Fail to load chain node, err=%w", op, err)
		}
	}
	return chain, nil
}

// AdminBreakdown 回傳觀察區間內依狀態與種類分組的報價數量
func (r *StatsReader) AdminBreakdown(ctx context.Context, window StatsWindow) (AdminStats, error) {
	const op = "StatsReader.AdminBreakdown"
	since := r.now().Add(-window.Duration())

	byStatus, err := r.store.CountsByStatus(ctx, since)
	if err != nil {
		return AdminStats{}, fmt.Errorf("[%s] Fail to count offers by status, err=%w", op, err)
	}
	byType, err := r.store.CountsByType(ctx, since)
	if err != nil {
		return AdminStats{}, fmt.Errorf("[%s] Fail to count offers by type, err=%w", op, err)
	}
	return AdminStats{
		Window:   window,
		Since:    since,
		ByStatus: byStatus,
		ByType:   byType,
	}, nil
}
