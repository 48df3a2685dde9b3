package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"bazar/adapters/cache"
	"bazar/models"
	"bazar/offers"
)

// PlanView 是點數方案的對外表示
type PlanView struct {
	ID           uuid.UUID `json:"id"`
	Code         string    `json:"code"`
	CreditAmount int64     `json:"credit_amount"`
	Price        uint64    `json:"price"`
	DurationDays int       `json:"duration_days"`
}

// List purchasable credit plans
// (GET /plans)
func (impl *ServerImpl) ListPlans(c *gin.Context) {
	views, err := cache.Remember(c.Request.Context(), impl.cache, "plans:all", []string{"plans"}, func() ([]PlanView, error) {
		var plans []models.Plan
		if err := impl.db.WithContext(c.Request.Context()).Order("price asc").Find(&plans).Error; err != nil {
			return nil, err
		}
		views := make([]PlanView, 0, len(plans))
		for _, plan := range plans {
			views = append(views, PlanView{
				ID:           plan.ID,
				Code:         plan.Code,
				CreditAmount: plan.CreditAmount,
				Price:        plan.Price,
				DurationDays: plan.DurationDays,
			})
		}
		return views, nil
	})
	if err != nil {
		impl.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": views})
}

// CreatePlanRequest 是管理員建立點數方案的請求
type CreatePlanRequest struct {
	Code         string `json:"code" binding:"required,max=64"`
	CreditAmount int64  `json:"credit_amount" binding:"required,gt=0"`
	Price        uint64 `json:"price" binding:"required"`
	DurationDays int    `json:"duration_days"`
}

// Create a credit plan
// (POST /admin/plans)
func (impl *ServerImpl) CreatePlan(c *gin.Context) {
	var request CreatePlanRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: err.Error()})
		return
	}
	if request.DurationDays <= 0 {
		request.DurationDays = 30
	}

	plan := models.Plan{
		Code:         request.Code,
		CreditAmount: request.CreditAmount,
		Price:        request.Price,
		DurationDays: request.DurationDays,
	}
	if err := impl.db.WithContext(c.Request.Context()).Create(&plan).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			impl.respondError(c, &offers.ConflictError{Reason: "plan code already exists"})
			return
		}
		impl.respondError(c, err)
		return
	}
	if err := impl.cache.InvalidateTags(c.Request.Context(), "plans"); err != nil {
		impl.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, PlanView{
		ID:           plan.ID,
		Code:         plan.Code,
		CreditAmount: plan.CreditAmount,
		Price:        plan.Price,
		DurationDays: plan.DurationDays,
	})
}

// TransactionView 是點數異動紀錄的對外表示
type TransactionView struct {
	ID        uuid.UUID `json:"id"`
	Activity  string    `json:"activity"`
	Amount    int64     `json:"amount"`
	Balance   int64     `json:"balance"`
	Reference string    `json:"reference,omitempty"`
	CreatedAt string    `json:"created_at"`
}

// List credit transactions of an account
// (GET /accounts/{accountID}/transactions)
func (impl *ServerImpl) ListCreditTransactions(c *gin.Context) {
	accountID, err := uuid.Parse(c.Param("accountID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "invalid account id"})
		return
	}
	db := impl.db.WithContext(c.Request.Context())
	if _, ok := impl.accountMembership(c, db, accountID, currentUserID(c)); !ok {
		return
	}

	var transactions []models.CreditTransaction
	if err := db.Where("account_id = ?", accountID).
		Order("created_at desc").
		Limit(100).
		Find(&transactions).Error; err != nil {
		impl.respondError(c, err)
		return
	}

	views := make([]TransactionView, 0, len(transactions))
	for _, transaction := range transactions {
		views = append(views, TransactionView{
			ID:        transaction.ID,
			Activity:  transaction.Activity,
			Amount:    transaction.Amount,
			Balance:   transaction.Balance,
			Reference: transaction.Reference,
			CreatedAt: transaction.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		})
	}
	c.JSON(http.StatusOK, gin.H{"items": views})
}

// ChargeAccountRequest 是扣款請求，活動的點數價格由價格表決定
type ChargeAccountRequest struct {
	Activity  string `json:"activity" binding:"required,max=64"`
	Reference string `json:"reference"`
}

// Charge an account for an activity
// (POST /accounts/{accountID}/charge)
func (impl *ServerImpl) ChargeAccount(c *gin.Context) {
	accountID, err := uuid.Parse(c.Param("accountID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "invalid account id"})
		return
	}
	var request ChargeAccountRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: err.Error()})
		return
	}
	price, ok := impl.config.CreditPrices[request.Activity]
	if !ok {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "unknown activity"})
		return
	}

	var transaction models.CreditTransaction
	err = impl.db.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		// 鎖住帳戶列避免並發扣款造成餘額錯誤
		var account models.Account
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&account, "id = ?", accountID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return &offers.NotFoundError{Entity: "account"}
			}
			return err
		}
		if ok, err := impl.isAccountMember(tx, accountID, currentUserID(c), account.OwnerID); err != nil {
			return err
		} else if !ok {
			return &offers.ForbiddenError{Reason: "not a member of this account"}
		}
		if account.Credit < price {
			return errInsufficientCredit
		}

		account.Credit -= price
		if err := tx.Model(&models.Account{}).Where("id = ?", accountID).
			Update("credit", account.Credit).Error; err != nil {
			return err
		}
		transaction = models.CreditTransaction{
			AccountID: accountID,
			UserID:    currentUserID(c),
			Activity:  request.Activity,
			Amount:    -price,
			Balance:   account.Credit,
			Reference: request.Reference,
		}
		return tx.Create(&transaction).Error
	})
	if errors.Is(err, errInsufficientCredit) {
		c.JSON(http.StatusPaymentRequired, ErrorResponse{
			Message: impl.translator.Localize(requestLanguage(c), "ErrorInsufficientCredit", nil),
		})
		return
	}
	if err != nil {
		impl.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"id":      transaction.ID,
		"amount":  transaction.Amount,
		"balance": transaction.Balance,
	})
}

// PurchasePlanRequest 是購買點數方案的請求
type PurchasePlanRequest struct {
	PlanCode string `json:"plan_code" binding:"required"`
}

// Purchase a credit plan for an account
// (POST /accounts/{accountID}/purchase)
func (impl *ServerImpl) PurchasePlan(c *gin.Context) {
	accountID, err := uuid.Parse(c.Param("accountID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "invalid account id"})
		return
	}
	var request PurchasePlanRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: err.Error()})
		return
	}

	var transaction models.CreditTransaction
	err = impl.db.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		var plan models.Plan
		if err := tx.First(&plan, "code = ?", request.PlanCode).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return &offers.NotFoundError{Entity: "plan"}
			}
			return err
		}
		var account models.Account
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&account, "id = ?", accountID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return &offers.NotFoundError{Entity: "account"}
			}
			return err
		}
		if ok, err := impl.isAccountMember(tx, accountID, currentUserID(c), account.OwnerID); err != nil {
			return err
		} else if !ok {
			return &offers.ForbiddenError{Reason: "not a member of this account"}
		}

		account.Credit += plan.CreditAmount
		if err := tx.Model(&models.Account{}).Where("id = ?", accountID).
			Update("credit", account.Credit).Error; err != nil {
			return err
		}
		transaction = models.CreditTransaction{
			AccountID: accountID,
			UserID:    currentUserID(c),
			Activity:  "plan_purchase",
			Amount:    plan.CreditAmount,
			Balance:   account.Credit,
			Reference: plan.Code,
		}
		return tx.Create(&transaction).Error
	})
	if err != nil {
		impl.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"id":      transaction.ID,
		"amount":  transaction.Amount,
		"balance": transaction.Balance,
	})
}

var errInsufficientCredit = errors.New("insufficient account credit")

// isAccountMember 在交易內檢查使用者是否可動用帳戶
func (impl *ServerImpl) isAccountMember(tx *gorm.DB, accountID, userID, ownerID uuid.UUID) (bool, error) {
	if ownerID == userID {
		return true, nil
	}
	var count int64
	err := tx.Model(&models.AccountMember{}).
		Where("account_id = ? AND user_id = ?", accountID, userID).
		Count(&count).Error
	return count > 0, err
}
