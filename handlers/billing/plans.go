package billing

import (
	"net/http"

	"github.com/Mamungithube/AJAXX-PRIVACY-WEB-BACKEND/db"
	"github.com/Mamungithube/AJAXX-PRIVACY-WEB-BACKEND/models"
	"github.com/Mamungithube/AJAXX-PRIVACY-WEB-BACKEND/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// GetPlans lists the purchasable plans.
// @Summary List plans
// @Tags plans
// @Produce json
// @Success 200 {object} utils.Response
// @Router /plans [get]
func GetPlans(c *gin.Context) {
	var plans []models.Plan
	if err := db.DB.Order("price ASC").Find(&plans).Error; err != nil {
		utils.LogError(err, "Error fetching plans in GetPlans")
		utils.SendError(c, http.StatusInternalServerError, "Error fetching plans")
		return
	}
	utils.SendSuccess(c, http.StatusOK, "Plans retrieved successfully", plans)
}

// GetPlan returns one plan.
// @Summary Plan details
// @Tags plans
// @Produce json
// @Param planId path string true "ID of the plan"
// @Success 200 {object} utils.Response
// @Failure 404 {object} utils.Response "error: Plan not found"
// @Router /plans/{planId} [get]
func GetPlan(c *gin.Context) {
	planID := c.Param("planId")
	if _, err := uuid.Parse(planID); err != nil {
		utils.SendError(c, http.StatusBadRequest, "Invalid plan ID")
		return
	}

	var plan models.Plan
	if err := db.DB.First(&plan, "id = ?", planID).Error; err != nil {
		utils.SendError(c, http.StatusNotFound, "Plan not found")
		return
	}
	utils.SendSuccess(c, http.StatusOK, "Plan retrieved successfully", plan)
}

type planInput struct {
	Title                string              `json:"title" binding:"required"`
	Description          string              `json:"description"`
	Price                float64             `json:"price" binding:"required"`
	BillingCycle         models.BillingCycle `json:"billingCycle" binding:"required,oneof=monthly yearly"`
	IdentitiesLimit      int                 `json:"identitiesLimit"`
	ScansPerMonth        int                 `json:"scansPerMonth"`
	AutomatedDataRemoval bool                `json:"automatedDataRemoval"`
	PdfExportLimit       *int                `json:"pdfExportLimit"`
	SupportHours         string              `json:"supportHours"`
}

// CreatePlan creates a plan (admin only).
// @Summary Create a plan
// @Tags plans
// @Accept json
// @Produce json
// @Security BearerAuth
// @Success 201 {object} utils.Response
// @Router /plans [post]
func CreatePlan(c *gin.Context) {
	var input planInput
	if !utils.ValidateRequestBody(c, &input) {
		return
	}

	plan := models.Plan{
		Title:                input.Title,
		Description:          input.Description,
		Price:                input.Price,
		BillingCycle:         input.BillingCycle,
		IdentitiesLimit:      input.IdentitiesLimit,
		ScansPerMonth:        input.ScansPerMonth,
		AutomatedDataRemoval: input.AutomatedDataRemoval,
		PdfExportLimit:       input.PdfExportLimit,
		SupportHours:         input.SupportHours,
	}
	if err := db.DB.Create(&plan).Error; err != nil {
		utils.LogError(err, "Error creating plan in CreatePlan")
		utils.SendError(c, http.StatusInternalServerError, "Error creating plan")
		return
	}
	utils.SendSuccess(c, http.StatusCreated, "Plan created successfully", plan)
}

// UpdatePlan updates a plan's descriptive fields (admin only). Billing
// fields are left alone once a Stripe price exists for the plan.
// @Summary Update a plan
// @Tags plans
// @Accept json
// @Produce json
// @Param planId path string true "ID of the plan"
// @Security BearerAuth
// @Success 200 {object} utils.Response
// @Failure 404 {object} utils.Response "error: Plan not found"
// @Router /plans/{planId} [put]
func UpdatePlan(c *gin.Context) {
	planID := c.Param("planId")

	var plan models.Plan
	if err := db.DB.First(&plan, "id = ?", planID).Error; err != nil {
		utils.SendError(c, http.StatusNotFound, "Plan not found")
		return
	}

	var input planInput
	if !utils.ValidateRequestBody(c, &input) {
		return
	}

	updates := map[string]interface{}{
		"title":                  input.Title,
		"description":            input.Description,
		"identities_limit":       input.IdentitiesLimit,
		"scans_per_month":        input.ScansPerMonth,
		"automated_data_removal": input.AutomatedDataRemoval,
		"pdf_export_limit":       input.PdfExportLimit,
		"support_hours":          input.SupportHours,
	}
	// price and cycle stay immutable once the plan is live on Stripe
	if plan.StripePriceId == "" {
		updates["price"] = input.Price
		updates["billing_cycle"] = input.BillingCycle
	}

	if err := db.DB.Model(&plan).Updates(updates).Error; err != nil {
		utils.LogError(err, "Error updating plan in UpdatePlan")
		utils.SendError(c, http.StatusInternalServerError, "Error updating plan")
		return
	}
	utils.SendSuccess(c, http.StatusOK, "Plan updated successfully", plan)
}

// DeletePlan removes a plan (admin only).
// @Summary Delete a plan
// @Tags plans
// @Produce json
// @Param planId path string true "ID of the plan"
// @Security BearerAuth
// @Success 200 {object} utils.Response
// @Failure 404 {object} utils.Response "error: Plan not found"
// @Router /plans/{planId} [delete]
func DeletePlan(c *gin.Context) {
	planID := c.Param("planId")

	var plan models.Plan
	if err := db.DB.First(&plan, "id = ?", planID).Error; err != nil {
		utils.SendError(c, http.StatusNotFound, "Plan not found")
		return
	}

	if err := db.DB.Delete(&plan).Error; err != nil {
		utils.LogError(err, "Error deleting plan in DeletePlan")
		utils.SendError(c, http.StatusInternalServerError, "Error deleting plan")
		return
	}
	utils.SendSuccess(c, http.StatusOK, "Plan \""+plan.Title+"\" deleted successfully", nil)
}
