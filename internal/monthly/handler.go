package monthly

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/patrickrooney09/tiba-update-user/internal/auth"
	"github.com/patrickrooney09/tiba-update-user/internal/smartpark"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// ListAccessProfiles godoc
// @Summary      List access profiles
// @Description  Returns the facility's access profiles from the parking provider.
// @Tags         smartpark
// @Security     BearerAuth
// @Produce      json
// @Success      200  {array}   smartpark.AccessProfile
// @Failure      401  {object}  gin.H
// @Failure      500  {object}  gin.H
// @Router       /api/smartpark/access-profiles [get]
func (h *Handler) ListAccessProfiles(c *gin.Context) {
	profiles, err := h.service.ListAccessProfiles(c.Request.Context())
	if err != nil {
		respondUpstreamError(c, err)
		return
	}

	c.JSON(http.StatusOK, profiles)
}

// GetDetails godoc
// @Summary      Fetch monthly account
// @Description  Fetches one monthly account record from the parking provider.
// @Tags         smartpark
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        request  body      DetailsRequest  true  "Account id"
// @Success      200      {object}  smartpark.Monthly
// @Failure      400      {object}  gin.H
// @Failure      401      {object}  gin.H
// @Failure      500      {object}  gin.H
// @Router       /api/smartpark/monthly-details [post]
func (h *Handler) GetDetails(c *gin.Context) {
	var req DetailsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	record, err := h.service.GetDetails(c.Request.Context(), req.MonthlyID)
	if err != nil {
		if errors.Is(err, ErrMissingMonthlyID) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		respondUpstreamError(c, err)
		return
	}

	c.JSON(http.StatusOK, record)
}

// Update godoc
// @Summary      Replace monthly account
// @Description  Submits a full replacement record for a monthly account and audits the change.
// @Tags         smartpark
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        request  body      UpdateRequest  true  "Full replacement record"
// @Success      200      {object}  UpdateResponse
// @Failure      400      {object}  gin.H
// @Failure      401      {object}  gin.H
// @Failure      500      {object}  gin.H
// @Router       /api/smartpark/update-monthly [put]
func (h *Handler) Update(c *gin.Context) {
	performedBy, ok := auth.GetUserEmail(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	record, err := h.service.Update(c.Request.Context(), performedBy, req)
	if err != nil {
		if isValidationError(err) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		respondUpstreamError(c, err)
		return
	}

	c.JSON(http.StatusOK, UpdateResponse{
		Success: true,
		Message: "monthly account updated",
		Record:  record,
	})
}

// ApplyDiscount godoc
// @Summary      Apply wallet discount
// @Description  Credits a bounded discount onto the account's prepaid wallet.
// @Tags         smartpark
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        request  body      DiscountRequest  true  "Discount"
// @Success      200      {object}  UpdateResponse
// @Failure      400      {object}  gin.H
// @Failure      401      {object}  gin.H
// @Failure      500      {object}  gin.H
// @Router       /api/smartpark/monthly/discount [post]
func (h *Handler) ApplyDiscount(c *gin.Context) {
	performedBy, ok := auth.GetUserEmail(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	var req DiscountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	record, err := h.service.ApplyDiscount(c.Request.Context(), performedBy, req)
	if err != nil {
		if isValidationError(err) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		respondUpstreamError(c, err)
		return
	}

	c.JSON(http.StatusOK, UpdateResponse{
		Success: true,
		Message: "discount applied",
		Record:  record,
	})
}

func isValidationError(err error) bool {
	return errors.Is(err, ErrMissingMonthlyID) ||
		errors.Is(err, ErrInvalidPlate) ||
		errors.Is(err, ErrTooManyPlates) ||
		errors.Is(err, ErrDiscountBounds)
}

// respondUpstreamError keeps the provider's own description visible to the
// operator when the provider rejected the call; transport failures get a
// generic message.
func respondUpstreamError(c *gin.Context, err error) {
	if apiErr, ok := smartpark.IsAPIError(err); ok {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":       "parking provider rejected the request",
			"description": apiErr.Description,
		})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": "parking provider unavailable"})
}
