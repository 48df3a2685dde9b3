package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"bazar/models"
	"bazar/offers"
)

// UserView 是使用者的對外表示
type UserView struct {
	ID          uuid.UUID `json:"id"`
	Username    string    `json:"username"`
	DisplayName string    `json:"display_name"`
	Language    string    `json:"language"`
	Rating      float32   `json:"rating"`
	IsAdmin     bool      `json:"is_admin"`
}

// AccountView 是企業帳戶的對外表示
type AccountView struct {
	ID      uuid.UUID `json:"id"`
	Name    string    `json:"name"`
	OwnerID uuid.UUID `json:"owner_id"`
	Credit  int64     `json:"credit"`
}

// Get the caller's profile and accounts
// (GET /me)
func (impl *ServerImpl) GetMe(c *gin.Context) {
	userID := currentUserID(c)

	var user models.User
	if err := impl.db.WithContext(c.Request.Context()).First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			impl.respondError(c, &offers.NotFoundError{Entity: "user"})
			return
		}
		impl.respondError(c, err)
		return
	}

	// 擁有的帳戶加上作為成員加入的帳戶
	var accounts []models.Account
	err := impl.db.WithContext(c.Request.Context()).
		Where("owner_id = ?", userID).
		Or("id IN (?)", impl.db.Model(&models.AccountMember{}).Where("user_id = ?", userID).Select("account_id")).
		Find(&accounts).Error
	if err != nil {
		impl.respondError(c, err)
		return
	}

	accountViews := make([]AccountView, 0, len(accounts))
	for _, account := range accounts {
		accountViews = append(accountViews, AccountView{
			ID:      account.ID,
			Name:    account.Name,
			OwnerID: account.OwnerID,
			Credit:  account.Credit,
		})
	}
	c.JSON(http.StatusOK, gin.H{
		"user": UserView{
			ID:          user.ID,
			Username:    user.Username,
			DisplayName: user.DisplayName,
			Language:    user.Language,
			Rating:      user.Rating,
			IsAdmin:     user.IsAdmin,
		},
		"accounts": accountViews,
	})
}

// CreateAccountRequest 是建立企業帳戶的請求
type CreateAccountRequest struct {
	Name string `json:"name" binding:"required,max=255"`
}

// Create a business account owned by the caller
// (POST /accounts)
func (impl *ServerImpl) CreateAccount(c *gin.Context) {
	var request CreateAccountRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: err.Error()})
		return
	}

	account := models.Account{
		Name:    request.Name,
		OwnerID: currentUserID(c),
	}
	// 擁有者同時也是帳戶的第一個成員
	err := impl.db.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&account).Error; err != nil {
			return err
		}
		return tx.Create(&models.AccountMember{
			AccountID: account.ID,
			UserID:    account.OwnerID,
			Role:      "owner",
		}).Error
	})
	if err != nil {
		impl.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, AccountView{
		ID:      account.ID,
		Name:    account.Name,
		OwnerID: account.OwnerID,
		Credit:  account.Credit,
	})
}

// AddAccountMemberRequest 是新增帳戶成員的請求
type AddAccountMemberRequest struct {
	UserID uuid.UUID `json:"user_id" binding:"required"`
	Role   string    `json:"role"`
}

// Add a member to a business account
// (POST /accounts/{accountID}/members)
func (impl *ServerImpl) AddAccountMember(c *gin.Context) {
	accountID, err := uuid.Parse(c.Param("accountID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "invalid account id"})
		return
	}
	var request AddAccountMemberRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: err.Error()})
		return
	}
	if request.Role == "" {
		request.Role = "member"
	}

	// 只有擁有者可以新增成員
	var account models.Account
	if err := impl.db.WithContext(c.Request.Context()).First(&account, "id = ?", accountID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			impl.respondError(c, &offers.NotFoundError{Entity: "account"})
			return
		}
		impl.respondError(c, err)
		return
	}
	if account.OwnerID != currentUserID(c) {
		impl.respondForbidden(c)
		return
	}

	var user models.User
	if err := impl.db.WithContext(c.Request.Context()).First(&user, "id = ?", request.UserID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			impl.respondError(c, &offers.NotFoundError{Entity: "user"})
			return
		}
		impl.respondError(c, err)
		return
	}

	member := models.AccountMember{
		AccountID: accountID,
		UserID:    request.UserID,
		Role:      request.Role,
	}
	if err := impl.db.WithContext(c.Request.Context()).Create(&member).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			impl.respondError(c, &offers.ConflictError{Reason: "user is already a member"})
			return
		}
		impl.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"id":         member.ID,
		"account_id": member.AccountID,
		"user_id":    member.UserID,
		"role":       member.Role,
	})
}

// accountMembership 檢查使用者是否為帳戶的擁有者或成員
func (impl *ServerImpl) accountMembership(c *gin.Context, tx *gorm.DB, accountID, userID uuid.UUID) (*models.Account, bool) {
	var account models.Account
	if err := tx.First(&account, "id = ?", accountID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			impl.respondError(c, &offers.NotFoundError{Entity: "account"})
			return nil, false
		}
		impl.respondError(c, err)
		return nil, false
	}
	if account.OwnerID == userID {
		return &account, true
	}
	var count int64
	if err := tx.Model(&models.AccountMember{}).
		Where("account_id = ? AND user_id = ?", accountID, userID).
		Count(&count).Error; err != nil {
		impl.respondError(c, err)
		return nil, false
	}
	if count == 0 {
		impl.respondForbidden(c)
		return nil, false
	}
	return &account, true
}
