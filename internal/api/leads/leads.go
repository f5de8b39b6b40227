// Package leads implements the HTTP handlers for listing and capturing sales
// leads. Every query is scoped to one organization; the listing endpoint
// refuses to run without an organization id.
package leads

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"

	"github.com/leadpocket/leadpocket/internal/db/models"
	"github.com/leadpocket/leadpocket/internal/db/repositories"
	"github.com/leadpocket/leadpocket/internal/telemetry"
)

// createLeadRequest is the capture payload. Status is accepted but ignored;
// stored leads always start as "new".
type createLeadRequest struct {
	Name           string  `json:"name"`
	Email          string  `json:"email"`
	Phone          string  `json:"phone"`
	ProductType    string  `json:"product_type"`
	JobValue       float64 `json:"job_value"`
	Status         string  `json:"status"`
	OrganizationID string  `json:"organizationId"`
	CreatedBy      string  `json:"createdBy"`
}

// @Summary      List leads for an organization
// @Description  Returns the organization's leads ordered newest first. An organization with no leads gets an empty array, never null.
// @Tags         Leads
// @Produce      json
// @Param        organizationId  query  string  true  "Organization ID"
// @Success      200  {array}   models.Lead
// @Failure      400  {object}  map[string]interface{}  "Organization ID required"
// @Failure      500  {object}  map[string]interface{}
// @Router       /api/leads [get]
// ListHandler handles GET /api/leads?organizationId=<uuid>
func ListHandler(db *sqlx.DB) gin.HandlerFunc {
	leadRepo := repositories.NewLeadRepository(db)

	return func(c *gin.Context) {
		organizationID := c.Query("organizationId")
		if organizationID == "" {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Organization ID required",
			})
			return
		}

		leads, err := leadRepo.ListByOrganization(c.Request.Context(), organizationID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": err.Error(),
			})
			return
		}

		c.JSON(http.StatusOK, leads)
	}
}

// @Summary      Capture a lead
// @Description  Inserts a new lead for an organization. The stored status is always "new" regardless of the payload.
// @Tags         Leads
// @Accept       json
// @Produce      json
// @Param        lead  body  createLeadRequest  true  "Lead payload"
// @Success      200  {object}  models.Lead
// @Failure      500  {object}  map[string]interface{}
// @Router       /api/leads [post]
// CreateHandler handles POST /api/leads
func CreateHandler(db *sqlx.DB) gin.HandlerFunc {
	leadRepo := repositories.NewLeadRepository(db)

	return func(c *gin.Context) {
		var req createLeadRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Internal server error",
			})
			return
		}

		lead := &models.Lead{
			Name:           req.Name,
			Email:          req.Email,
			Phone:          req.Phone,
			ProductType:    req.ProductType,
			JobValue:       req.JobValue,
			Status:         req.Status,
			OrganizationID: req.OrganizationID,
			CreatedBy:      req.CreatedBy,
		}

		if err := leadRepo.Create(c.Request.Context(), lead); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": err.Error(),
			})
			return
		}

		telemetry.LeadsCreatedTotal.WithLabelValues(lead.ProductType).Inc()

		c.JSON(http.StatusOK, lead)
	}
}
