package audit

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	store Store
}

func NewHandler(store Store) *Handler {
	return &Handler{store: store}
}

// List godoc
// @Summary      Query audit log
// @Description  Returns audit entries newest-first, narrowed by the supplied filters. Admin only.
// @Tags         admin
// @Security     BearerAuth
// @Produce      json
// @Param        monthlyId    query     string  false  "Monthly account id"
// @Param        actionType   query     string  false  "USER_UPDATE, WALLET_UPDATE or ACCESS_PROFILE_UPDATE"
// @Param        performedBy  query     string  false  "Acting staff email"
// @Param        from         query     string  false  "RFC3339 lower bound"
// @Param        to           query     string  false  "RFC3339 upper bound"
// @Param        limit        query     int     false  "Max entries, default 50"
// @Success      200  {array}   Entry
// @Failure      400  {object}  gin.H
// @Failure      401  {object}  gin.H
// @Failure      500  {object}  gin.H
// @Router       /admin/audit-logs [get]
func (h *Handler) List(c *gin.Context) {
	filters := Filters{
		MonthlyID:   c.Query("monthlyId"),
		ActionType:  ActionType(c.Query("actionType")),
		PerformedBy: c.Query("performedBy"),
	}

	if raw := c.Query("from"); raw != "" {
		from, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "from must be RFC3339"})
			return
		}
		filters.From = from
	}

	if raw := c.Query("to"); raw != "" {
		to, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "to must be RFC3339"})
			return
		}
		filters.To = to
	}

	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a non-negative integer"})
			return
		}
		filters.Limit = limit
	}

	entries, err := h.store.Query(c.Request.Context(), filters)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to query audit log"})
		return
	}

	c.JSON(http.StatusOK, entries)
}
