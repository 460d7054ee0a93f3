package scans

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Mamungithube/AJAXX-PRIVACY-WEB-BACKEND/db"
	"github.com/Mamungithube/AJAXX-PRIVACY-WEB-BACKEND/models"
	"github.com/Mamungithube/AJAXX-PRIVACY-WEB-BACKEND/optery"
	"github.com/Mamungithube/AJAXX-PRIVACY-WEB-BACKEND/tasks"
	"github.com/Mamungithube/AJAXX-PRIVACY-WEB-BACKEND/utils"

	"github.com/gin-gonic/gin"
)

// Handler serves the data-scan surface: enqueueing background scan fetches,
// polling their status, and proxying member/removal operations to the scan
// provider.
type Handler struct {
	queue  *tasks.Queue
	client *optery.Client
}

func NewHandler(queue *tasks.Queue, client *optery.Client) *Handler {
	return &Handler{queue: queue, client: client}
}

type dataScanRequest struct {
	MemberUUID string `json:"member_uuid" binding:"required"`
	Email      string `json:"email"`
}

// EnqueueDataScan queues a background scan fetch and returns the task id to
// poll with. The request never blocks on the provider.
// @Summary Enqueue a data scan fetch
// @Description Queue a background job that fetches the member's scans and screenshots from the data broker opt-out provider.
// @Tags scans
// @Accept json
// @Produce json
// @Security BearerAuth
// @Success 202 {object} utils.Response "data: task_id, status"
// @Failure 400 {object} utils.Response "error: member_uuid required"
// @Router /optery/data-scans [post]
func (h *Handler) EnqueueDataScan(c *gin.Context) {
	userID, exists := c.Get("user_id")
	if !exists {
		utils.SendError(c, http.StatusUnauthorized, "User not authenticated")
		return
	}

	var req dataScanRequest
	if !utils.ValidateRequestBody(c, &req) {
		return
	}

	taskID, err := h.queue.Enqueue(c.Request.Context(), req.MemberUUID, req.Email)
	if err != nil {
		utils.LogErrorWithUser(userID, err, "Failed to enqueue scan task in EnqueueDataScan")
		utils.SendError(c, http.StatusInternalServerError, "Failed to enqueue scan task")
		return
	}

	utils.LogSuccessWithUser(userID, "Scan task enqueued in EnqueueDataScan")
	utils.SendSuccess(c, http.StatusAccepted, "Scan fetch queued", gin.H{
		"task_id": taskID,
		"status":  tasks.StateProcessing,
	})
}

// GetDataScanStatus polls a previously enqueued scan task.
// @Summary Poll a data scan task
// @Description Returns processing while the task runs, the result payload on success, or the error detail on failure.
// @Tags scans
// @Produce json
// @Param task_id query string true "Task ID returned by the enqueue call"
// @Security BearerAuth
// @Success 200 {object} utils.Response
// @Failure 404 {object} utils.Response "error: Task not found"
// @Router /optery/data-scans [get]
func (h *Handler) GetDataScanStatus(c *gin.Context) {
	taskID := c.Query("task_id")
	if taskID == "" {
		utils.SendError(c, http.StatusBadRequest, "task_id is required")
		return
	}

	status, err := h.queue.Status(c.Request.Context(), taskID)
	if err != nil {
		if errors.Is(err, tasks.ErrTaskNotFound) {
			utils.SendError(c, http.StatusNotFound, "Task not found")
			return
		}
		utils.LogError(err, "Task status lookup failed in GetDataScanStatus")
		utils.SendError(c, http.StatusInternalServerError, "Error fetching task status")
		return
	}

	switch status.State {
	case tasks.StateSucceeded:
		utils.SendSuccess(c, http.StatusOK, "Data fetched successfully", status.Result)
	case tasks.StateFailed:
		c.JSON(http.StatusOK, utils.Response{
			Success: false,
			Message: "Scan fetch failed",
			Error:   status.Error,
		})
	default:
		utils.SendSuccess(c, http.StatusOK, "Task is still processing", gin.H{
			"task_id": status.TaskID,
			"status":  status.State,
		})
	}
}

// GetScanHistory lists persisted scan fetches for a member, newest first.
// @Summary Scan history
// @Tags scans
// @Produce json
// @Param member_uuid query string true "Member UUID"
// @Security BearerAuth
// @Success 200 {object} utils.Response
// @Router /optery/history [get]
func (h *Handler) GetScanHistory(c *gin.Context) {
	memberUUID := c.Query("member_uuid")
	if memberUUID == "" {
		utils.SendError(c, http.StatusBadRequest, "member_uuid is required")
		return
	}

	var records []models.ScanHistoryRecord
	if err := db.DB.Where("member_uuid = ?", memberUUID).
		Order("created_at DESC").Find(&records).Error; err != nil {
		utils.LogError(err, "Error fetching scan history in GetScanHistory")
		utils.SendError(c, http.StatusInternalServerError, "Error fetching scan history")
		return
	}
	utils.SendSuccess(c, http.StatusOK, "Scan history retrieved successfully", records)
}

type memberRequest struct {
	FirstName     string `json:"first_name" binding:"required"`
	MiddleName    string `json:"middle_name"`
	LastName      string `json:"last_name" binding:"required"`
	City          string `json:"city" binding:"required"`
	State         string `json:"state" binding:"required"`
	Country       string `json:"country" binding:"required"`
	BirthdayDay   int    `json:"birthday_day" binding:"required,min=1,max=31"`
	BirthdayMonth int    `json:"birthday_month" binding:"required,min=1,max=12"`
	BirthdayYear  int    `json:"birthday_year" binding:"required"`
	Plan          string `json:"plan"`
	PostponeScan  bool   `json:"postpone_scan"`
	GroupTag      string `json:"group_tag"`
	AddressLine1  string `json:"address_line1" binding:"required"`
	AddressLine2  string `json:"address_line2"`
	ZipCode       string `json:"zip_code" binding:"required"`
}

// CreateMember registers an identity with the scan provider and keeps a
// local copy of the profile.
// @Summary Register a member for scanning
// @Tags scans
// @Accept json
// @Produce json
// @Security BearerAuth
// @Success 201 {object} utils.Response
// @Failure 502 {object} utils.Response "error: provider error"
// @Router /optery/members [post]
func (h *Handler) CreateMember(c *gin.Context) {
	userID, exists := c.Get("user_id")
	if !exists {
		utils.SendError(c, http.StatusUnauthorized, "User not authenticated")
		return
	}

	var req memberRequest
	if !utils.ValidateRequestBody(c, &req) {
		return
	}

	raw, err := h.client.CreateMember(c.Request.Context(), optery.MemberInput{
		FirstName:     req.FirstName,
		MiddleName:    req.MiddleName,
		LastName:      req.LastName,
		City:          req.City,
		State:         req.State,
		Country:       req.Country,
		BirthdayDay:   req.BirthdayDay,
		BirthdayMonth: req.BirthdayMonth,
		BirthdayYear:  req.BirthdayYear,
		Plan:          req.Plan,
		PostponeScan:  req.PostponeScan,
		GroupTag:      req.GroupTag,
		AddressLine1:  req.AddressLine1,
		AddressLine2:  req.AddressLine2,
		ZipCode:       req.ZipCode,
	})
	if err != nil {
		utils.LogErrorWithUser(userID, err, "Provider member creation failed in CreateMember")
		utils.SendError(c, http.StatusBadGateway, "Failed to register member with the scan provider")
		return
	}

	var providerResp struct {
		MemberUUID string `json:"member_uuid"`
		UUID       string `json:"uuid"`
	}
	_ = json.Unmarshal(raw, &providerResp)
	memberUUID := providerResp.MemberUUID
	if memberUUID == "" {
		memberUUID = providerResp.UUID
	}

	member := models.OpteryMember{
		FirstName:     req.FirstName,
		MiddleName:    req.MiddleName,
		LastName:      req.LastName,
		City:          req.City,
		State:         req.State,
		Country:       req.Country,
		BirthdayDay:   req.BirthdayDay,
		BirthdayMonth: req.BirthdayMonth,
		BirthdayYear:  req.BirthdayYear,
		Plan:          req.Plan,
		PostponeScan:  req.PostponeScan,
		GroupTag:      req.GroupTag,
		AddressLine1:  req.AddressLine1,
		AddressLine2:  req.AddressLine2,
		ZipCode:       req.ZipCode,
		MemberUUID:    memberUUID,
	}
	if err := db.DB.Create(&member).Error; err != nil {
		utils.LogErrorWithUser(userID, err, "Error saving member in CreateMember")
		utils.SendError(c, http.StatusInternalServerError, "Error saving member")
		return
	}

	utils.LogSuccessWithUser(userID, "Member registered in CreateMember")
	utils.SendSuccess(c, http.StatusCreated, "Member registered successfully", member)
}

// SubmitCustomRemoval forwards a manual opt-out request, with its evidence
// document, to the scan provider as multipart form data.
// @Summary Submit a custom removal request
// @Tags scans
// @Accept multipart/form-data
// @Produce json
// @Param email formData string true "Contact email"
// @Param broker_url formData string true "URL of the exposing broker page"
// @Param details formData string false "Extra context for the removal team"
// @Param file formData file false "Evidence document"
// @Security BearerAuth
// @Success 200 {object} utils.Response
// @Failure 502 {object} utils.Response "error: provider error"
// @Router /optery/custom-removal [post]
func (h *Handler) SubmitCustomRemoval(c *gin.Context) {
	userID, exists := c.Get("user_id")
	if !exists {
		utils.SendError(c, http.StatusUnauthorized, "User not authenticated")
		return
	}

	email := c.PostForm("email")
	brokerURL := c.PostForm("broker_url")
	if email == "" || brokerURL == "" {
		utils.SendError(c, http.StatusBadRequest, "email and broker_url are required")
		return
	}

	input := optery.CustomRemovalInput{
		Email:     email,
		BrokerURL: brokerURL,
		Details:   c.PostForm("details"),
	}

	if fileHeader, err := c.FormFile("file"); err == nil {
		file, err := fileHeader.Open()
		if err != nil {
			utils.SendError(c, http.StatusBadRequest, "Could not read uploaded file")
			return
		}
		defer file.Close()
		input.FileName = fileHeader.Filename
		input.File = file
	}

	raw, err := h.client.SubmitCustomRemoval(c.Request.Context(), input)
	if err != nil {
		utils.LogErrorWithUser(userID, err, "Custom removal submission failed in SubmitCustomRemoval")
		utils.SendError(c, http.StatusBadGateway, "Failed to submit custom removal")
		return
	}

	utils.LogSuccessWithUser(userID, "Custom removal submitted in SubmitCustomRemoval")
	utils.SendSuccess(c, http.StatusOK, "Custom removal submitted successfully", raw)
}

// GetDataBrokers proxies the provider's broker catalog.
// @Summary List known data brokers
// @Tags scans
// @Produce json
// @Security BearerAuth
// @Success 200 {object} utils.Response
// @Failure 502 {object} utils.Response "error: provider error"
// @Router /optery/databrokers [get]
func (h *Handler) GetDataBrokers(c *gin.Context) {
	raw, err := h.client.ListDataBrokers(c.Request.Context())
	if err != nil {
		utils.LogError(err, "Broker list fetch failed in GetDataBrokers")
		utils.SendError(c, http.StatusBadGateway, "Failed to fetch data broker list")
		return
	}
	utils.SendSuccess(c, http.StatusOK, "Data brokers retrieved successfully", raw)
}
