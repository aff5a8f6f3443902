package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/tavrezsi/tavrezsi-api/config"
	"github.com/tavrezsi/tavrezsi-api/services"
	"github.com/tavrezsi/tavrezsi-api/utils"
)

type reportQuery struct {
	propertyID uint
	from, to   *time.Time
}

func parseReportQuery(c *gin.Context) (*reportQuery, error) {
	propertyID, err := utils.ParseID("propertyId", c.Query("propertyId"))
	if err != nil {
		return nil, err
	}
	from, err := utils.ParseOptionalTime("from", c.Query("from"))
	if err != nil {
		return nil, err
	}
	to, err := utils.ParseOptionalEndTime("to", c.Query("to"))
	if err != nil {
		return nil, err
	}
	return &reportQuery{propertyID: propertyID, from: from, to: to}, nil
}

// GetConsumptionReport handles GET /api/reports/consumption?propertyId=&from=&to=
func GetConsumptionReport(c *gin.Context) {
	caller, ok := currentCaller(c)
	if !ok {
		return
	}
	q, err := parseReportQuery(c)
	if err != nil {
		respondError(c, err)
		return
	}

	report, err := services.NewReportService(config.GetDB(), services.GetStorage()).
		Consumption(c.Request.Context(), caller, q.propertyID, q.from, q.to)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, report)
}

// ExportConsumptionReport handles POST /api/reports/consumption/export
func ExportConsumptionReport(c *gin.Context) {
	caller, ok := currentCaller(c)
	if !ok {
		return
	}
	q, err := parseReportQuery(c)
	if err != nil {
		respondError(c, err)
		return
	}

	export, err := services.NewReportService(config.GetDB(), services.GetStorage()).
		Export(c.Request.Context(), caller, q.propertyID, q.from, q.to)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusCreated, export)
}
