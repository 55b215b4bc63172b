package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	ledgerdomain "github.com/smallbiznis/loyalty/internal/ledger/domain"
	loyaltydomain "github.com/smallbiznis/loyalty/internal/loyalty/domain"
)

type awardPointsRequest struct {
	Amount      int64  `json:"amount"`
	Type        string `json:"type"`
	ReferenceID string `json:"reference_id"`
	Reason      string `json:"reason"`
}

func (s *Server) AwardPoints(c *gin.Context) {
	var req awardPointsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.loyaltySvc.Award(c.Request.Context(), loyaltydomain.AwardRequest{
		UserID:      c.Param("user_id"),
		Amount:      req.Amount,
		Type:        ledgerdomain.TransactionType(strings.TrimSpace(req.Type)),
		ReferenceID: strings.TrimSpace(req.ReferenceID),
		Reason:      strings.TrimSpace(req.Reason),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

type redeemPointsRequest struct {
	Amount      int64  `json:"amount"`
	ReferenceID string `json:"reference_id"`
	Reason      string `json:"reason"`
}

func (s *Server) RedeemPoints(c *gin.Context) {
	var req redeemPointsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.loyaltySvc.Redeem(c.Request.Context(), loyaltydomain.RedeemRequest{
		UserID:      c.Param("user_id"),
		Amount:      req.Amount,
		ReferenceID: strings.TrimSpace(req.ReferenceID),
		Reason:      strings.TrimSpace(req.Reason),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

type adjustPointsRequest struct {
	Delta   int64  `json:"delta"`
	Reason  string `json:"reason"`
	ActorID string `json:"actor_id"`
}

func (s *Server) AdjustPoints(c *gin.Context) {
	var req adjustPointsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.loyaltySvc.Adjust(c.Request.Context(), loyaltydomain.AdjustRequest{
		UserID:  c.Param("user_id"),
		Delta:   req.Delta,
		Reason:  strings.TrimSpace(req.Reason),
		ActorID: strings.TrimSpace(req.ActorID),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

type recordStayRequest struct {
	Nights int64 `json:"nights"`
}

func (s *Server) RecordStay(c *gin.Context) {
	var req recordStayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.loyaltySvc.RecordStay(c.Request.Context(), loyaltydomain.RecordStayRequest{
		UserID: c.Param("user_id"),
		Nights: req.Nights,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) RecalculateTier(c *gin.Context) {
	resp, err := s.loyaltySvc.RecalculateTier(c.Request.Context(), loyaltydomain.RecalculateTierRequest{
		UserID: c.Param("user_id"),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetLoyaltySummary(c *gin.Context) {
	resp, err := s.loyaltySvc.GetSummary(c.Request.Context(), loyaltydomain.GetSummaryRequest{
		UserID: c.Param("user_id"),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListPointsTransactions(c *gin.Context) {
	req := loyaltydomain.ListTransactionsRequest{
		UserID:    c.Param("user_id"),
		Type:      strings.TrimSpace(c.Query("type")),
		PageToken: strings.TrimSpace(c.Query("page_token")),
	}

	if raw := strings.TrimSpace(c.Query("page_size")); raw != "" {
		if size, err := parseInt32(raw); err == nil {
			req.PageSize = size
		}
	}
	if raw := strings.TrimSpace(c.Query("created_from")); raw != "" {
		ts, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			AbortWithError(c, invalidRequestError())
			return
		}
		req.CreatedFrom = &ts
	}
	if raw := strings.TrimSpace(c.Query("created_to")); raw != "" {
		ts, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			AbortWithError(c, invalidRequestError())
			return
		}
		req.CreatedTo = &ts
	}

	resp, err := s.loyaltySvc.ListTransactions(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
