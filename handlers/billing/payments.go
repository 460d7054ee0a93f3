package billing

import (
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/Mamungithube/AJAXX-PRIVACY-WEB-BACKEND/db"
	"github.com/Mamungithube/AJAXX-PRIVACY-WEB-BACKEND/models"
	"github.com/Mamungithube/AJAXX-PRIVACY-WEB-BACKEND/utils"

	"github.com/gin-gonic/gin"
)

// GetUserPayments lists the caller's payment history, newest first.
// @Summary List the user's payments
// @Tags payments
// @Produce json
// @Security BearerAuth
// @Success 200 {object} utils.Response
// @Router /payments [get]
func GetUserPayments(c *gin.Context) {
	userID, exists := c.Get("user_id")
	if !exists {
		utils.SendError(c, http.StatusUnauthorized, "User not authenticated")
		return
	}

	var payments []models.Payment
	if err := db.DB.Where("user_id = ?", userID).Order("created_at DESC").Find(&payments).Error; err != nil {
		utils.LogErrorWithUser(userID, err, "Error fetching payments in GetUserPayments")
		utils.SendError(c, http.StatusInternalServerError, "Error fetching payments")
		return
	}
	utils.SendSuccess(c, http.StatusOK, "Payments retrieved successfully", payments)
}

func sumPayments(where string, args ...interface{}) (float64, error) {
	var total float64
	err := db.DB.Model(&models.Payment{}).
		Where("status = ?", models.PaymentSucceeded).
		Where(where, args...).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&total).Error
	return total, err
}

// TotalEarnings returns the all-time succeeded payment total (admin only).
// @Summary Total earnings
// @Tags payments
// @Produce json
// @Security BearerAuth
// @Success 200 {object} utils.Response
// @Router /payments/total-earnings [get]
func TotalEarnings(c *gin.Context) {
	total, err := sumPayments("1 = 1")
	if err != nil {
		utils.LogError(err, "Error computing total earnings in TotalEarnings")
		utils.SendError(c, http.StatusInternalServerError, "Error fetching earnings")
		return
	}
	utils.SendSuccess(c, http.StatusOK, "Total earnings fetched successfully", gin.H{"total": total})
}

// TodaysEarnings returns today's succeeded payment total (admin only).
// @Summary Today's earnings
// @Tags payments
// @Produce json
// @Security BearerAuth
// @Success 200 {object} utils.Response
// @Router /payments/todays-earnings [get]
func TodaysEarnings(c *gin.Context) {
	now := time.Now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	tomorrow := today.AddDate(0, 0, 1)

	total, err := sumPayments("payment_date >= ? AND payment_date < ?", today, tomorrow)
	if err != nil {
		utils.LogError(err, "Error computing today's earnings in TodaysEarnings")
		utils.SendError(c, http.StatusInternalServerError, "Error fetching earnings")
		return
	}
	utils.SendSuccess(c, http.StatusOK, "Today's earnings fetched successfully", gin.H{"total": total})
}

// MonthlyStats compares this month's earnings to last month's. The growth
// rules are product-defined: a zero prior month with any current earnings
// reports 100% growth.
// @Summary Monthly earnings stats
// @Tags payments
// @Produce json
// @Security BearerAuth
// @Success 200 {object} utils.Response
// @Router /payments/monthly-stats [get]
func MonthlyStats(c *gin.Context) {
	now := time.Now()
	currentMonthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	previousMonthStart := currentMonthStart.AddDate(0, -1, 0)

	currentEarnings, err := sumPayments("payment_date >= ?", currentMonthStart)
	if err != nil {
		utils.SendError(c, http.StatusInternalServerError, "Error fetching earnings")
		return
	}
	previousEarnings, err := sumPayments("payment_date >= ? AND payment_date < ?", previousMonthStart, currentMonthStart)
	if err != nil {
		utils.SendError(c, http.StatusInternalServerError, "Error fetching earnings")
		return
	}

	difference := currentEarnings - previousEarnings
	var percentageChange float64
	switch {
	case previousEarnings > 0:
		percentageChange = (difference / previousEarnings) * 100
	case currentEarnings > 0:
		percentageChange = 100
	}

	trend := "up"
	if percentageChange < 0 {
		trend = "down"
	}

	utils.SendSuccess(c, http.StatusOK, "Monthly earnings stats fetched successfully", gin.H{
		"current_earnings":  currentEarnings,
		"previous_earnings": previousEarnings,
		"percentage_change": math.Round(percentageChange*100) / 100,
		"trend":             trend,
	})
}

// EarningsOverview returns a rolling 12-month earnings series. Growth
// compares first and last month with the same product-defined zero guard
// as MonthlyStats.
// @Summary 12-month earnings overview
// @Tags payments
// @Produce json
// @Param year query string false "Anchor year (defaults to a rolling window ending now)"
// @Security BearerAuth
// @Success 200 {object} utils.Response
// @Router /payments/earnings-overview [get]
func EarningsOverview(c *gin.Context) {
	baseDate := time.Now()
	if year := c.Query("year"); year != "" {
		y, err := strconv.Atoi(year)
		if err != nil {
			utils.SendError(c, http.StatusBadRequest, "Invalid year format")
			return
		}
		baseDate = time.Date(y, time.December, 31, 0, 0, 0, 0, time.UTC)
	}

	startDate := time.Date(baseDate.Year(), baseDate.Month(), 1, 0, 0, 0, 0, baseDate.Location()).
		AddDate(0, -11, 0)

	type monthEarnings struct {
		Month string  `json:"month"`
		Year  int     `json:"year"`
		Total float64 `json:"total"`
	}

	earnings := make([]monthEarnings, 0, 12)
	for i := 0; i < 12; i++ {
		monthStart := startDate.AddDate(0, i, 0)
		nextMonth := monthStart.AddDate(0, 1, 0)

		total, err := sumPayments("payment_date >= ? AND payment_date < ?", monthStart, nextMonth)
		if err != nil {
			utils.SendError(c, http.StatusInternalServerError, "Error fetching earnings")
			return
		}
		earnings = append(earnings, monthEarnings{
			Month: monthStart.Format("Jan"),
			Year:  monthStart.Year(),
			Total: total,
		})
	}

	firstMonth := earnings[0].Total
	lastMonth := earnings[len(earnings)-1].Total
	difference := lastMonth - firstMonth

	var growthPercentage float64
	switch {
	case firstMonth > 0:
		growthPercentage = (difference / firstMonth) * 100
	case lastMonth > 0:
		growthPercentage = 100
	}

	trend := "up"
	if growthPercentage < 0 {
		trend = "down"
	}

	utils.SendSuccess(c, http.StatusOK, "12-month earnings overview fetched successfully", gin.H{
		"earnings":          earnings,
		"growth_percentage": math.Round(growthPercentage*100) / 100,
		"trend":             trend,
	})
}
