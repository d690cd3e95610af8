package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"stagecast/internal/core/domain"
	"stagecast/internal/core/ports"
	"stagecast/internal/infrastructure/middleware"
	"stagecast/pkg/validation"
)

type WalletHandler struct {
	ledger ports.LedgerService
}

func NewWalletHandler(ledger ports.LedgerService) *WalletHandler {
	return &WalletHandler{ledger: ledger}
}

func (h *WalletHandler) RegisterRoutes(rg *gin.RouterGroup, requireAuth gin.HandlerFunc) {
	rg.POST("/donations", requireAuth, h.Donate)

	wallet := rg.Group("/wallet", requireAuth)
	{
		wallet.GET("/balance", h.GetBalance)
		wallet.GET("/history", h.GetHistory)
		wallet.GET("/earnings", h.GetEarnings)
		wallet.POST("/withdraw", h.Withdraw)
	}
}

type donateRequest struct {
	StreamID    string `json:"stream_id"`
	ReceiverID  string `json:"receiver_id" binding:"required"`
	AmountCents int64  `json:"amount_cents" binding:"required"`
	Method      string `json:"method" binding:"required"`
}

func (h *WalletHandler) Donate(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	var req donateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "receiver_id, amount_cents and method are required"})
		return
	}
	if err := validation.ValidateAmountCents(req.AmountCents); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	receipt, err := h.ledger.ProcessDonation(c.Request.Context(), ports.DonationRequest{
		StreamID:   domain.StreamID(req.StreamID),
		SenderID:   userID,
		ReceiverID: domain.UserID(req.ReceiverID),
		Amount:     domain.Money(req.AmountCents),
		Method:     domain.PaymentMethod(req.Method),
	})
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, receipt)
}

type withdrawRequest struct {
	AmountCents int64 `json:"amount_cents" binding:"required"`
}

func (h *WalletHandler) Withdraw(c *gin.Context) {
	userID, _ := middleware.UserID(c)

	var req withdrawRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "amount_cents is required"})
		return
	}
	if err := validation.ValidateAmountCents(req.AmountCents); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	newBalance, err := h.ledger.Withdraw(c.Request.Context(), userID, domain.Money(req.AmountCents))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"balance_cents": int64(newBalance),
		"balance":       newBalance.String(),
	})
}

func (h *WalletHandler) GetBalance(c *gin.Context) {
	userID, _ := middleware.UserID(c)

	balance, err := h.ledger.GetBalance(c.Request.Context(), userID)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"balance_cents": int64(balance),
		"balance":       balance.String(),
	})
}

func (h *WalletHandler) GetHistory(c *gin.Context) {
	userID, _ := middleware.UserID(c)

	history, err := h.ledger.GetTransactionHistory(c.Request.Context(), userID, queryLimit(c, 50))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, history)
}

func (h *WalletHandler) GetEarnings(c *gin.Context) {
	userID, _ := middleware.UserID(c)

	earnings, err := h.ledger.GetEarnings(c.Request.Context(), userID, queryLimit(c, 20))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, earnings)
}

func queryLimit(c *gin.Context, fallback int) int {
	if raw := c.Query("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			return parsed
		}
	}
	return fallback
}
