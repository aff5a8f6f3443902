package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/tavrezsi/tavrezsi-api/logger"
	"github.com/tavrezsi/tavrezsi-api/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ExportLinkTTL is how long an exported report can be downloaded
const ExportLinkTTL = time.Hour

// ReadingPoint is a single reading value at an instant
type ReadingPoint struct {
	Value     int64     `json:"value"`
	Timestamp time.Time `json:"timestamp"`
}

// MeterConsumption summarises one meter over the report window
type MeterConsumption struct {
	MeterID      uint          `json:"meterId"`
	Identifier   string        `json:"identifier"`
	Name         string        `json:"name"`
	Type         string        `json:"type"`
	Unit         string        `json:"unit"`
	ReadingCount int64         `json:"readingCount"`
	First        *ReadingPoint `json:"first"`
	Last         *ReadingPoint `json:"last"`
	Consumption  int64         `json:"consumption"`
}

// ConsumptionReport is the consumption of every meter of a property
type ConsumptionReport struct {
	PropertyID   uint               `json:"propertyId"`
	PropertyName string             `json:"propertyName"`
	From         *time.Time         `json:"from"`
	To           *time.Time         `json:"to"`
	Meters       []MeterConsumption `json:"meters"`
	TotalsByType map[string]int64   `json:"totalsByType"`
}

// ReportExport is an uploaded report and its temporary download link
type ReportExport struct {
	Key       string    `json:"key"`
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// ReportService builds consumption reports for visible properties
type ReportService struct {
	db      *gorm.DB
	storage ObjectStorage
	now     func() time.Time
}

// NewReportService creates a report service. storage may be nil when exports are disabled.
func NewReportService(db *gorm.DB, storage ObjectStorage) *ReportService {
	return &ReportService{db: db, storage: storage, now: utcNow}
}

// Consumption reports the first and last reading of each meter of a
// property inside [from, to] and the difference between them
func (s *ReportService) Consumption(ctx context.Context, caller Caller, propertyID uint, from, to *time.Time) (*ConsumptionReport, error) {
	if propertyID == 0 {
		return nil, invalid("propertyId", "propertyId is required")
	}
	if from != nil && to != nil && to.Before(*from) {
		return nil, invalid("to", "to must not be before from")
	}
	// timestamps are stored in UTC and sqlite compares them as text
	from, to = inUTC(from), inUTC(to)

	property, err := findProperty(ctx, s.db, propertyID)
	if err != nil {
		return nil, err
	}
	scope, err := ScopeFor(ctx, s.db, caller)
	if err != nil {
		return nil, err
	}
	if !scope.Contains(property.ID) {
		return nil, forbidden("you do not have access to this property")
	}

	var meters []models.Meter
	if err := s.db.WithContext(ctx).Where("property_id = ?", property.ID).
		Order("id ASC").Find(&meters).Error; err != nil {
		return nil, fmt.Errorf("failed to load meters: %w", err)
	}

	report := &ConsumptionReport{
		PropertyID:   property.ID,
		PropertyName: property.Name,
		From:         from,
		To:           to,
		Meters:       make([]MeterConsumption, 0, len(meters)),
		TotalsByType: map[string]int64{},
	}

	for _, meter := range meters {
		line, err := s.meterConsumption(ctx, meter, from, to)
		if err != nil {
			return nil, err
		}
		report.Meters = append(report.Meters, *line)
		report.TotalsByType[meter.Type] += line.Consumption
	}
	return report, nil
}

func (s *ReportService) meterConsumption(ctx context.Context, meter models.Meter, from, to *time.Time) (*MeterConsumption, error) {
	window := func() *gorm.DB {
		q := s.db.WithContext(ctx).Model(&models.Reading{}).Where("readings.meter_id = ?", meter.ID)
		if from != nil {
			q = q.Where("readings.timestamp >= ?", *from)
		}
		if to != nil {
			q = q.Where("readings.timestamp <= ?", *to)
		}
		return q
	}

	line := &MeterConsumption{
		MeterID:    meter.ID,
		Identifier: meter.Identifier,
		Name:       meter.Name,
		Type:       meter.Type,
		Unit:       meter.Unit,
	}
	if err := window().Count(&line.ReadingCount).Error; err != nil {
		return nil, fmt.Errorf("failed to count readings: %w", err)
	}
	if line.ReadingCount == 0 {
		return line, nil
	}

	var first, last models.Reading
	if err := window().Order("readings.timestamp ASC").Order("readings.id ASC").Take(&first).Error; err != nil {
		return nil, fmt.Errorf("failed to load first reading: %w", err)
	}
	if err := window().Order("readings.timestamp DESC").Order("readings.id DESC").Take(&last).Error; err != nil {
		return nil, fmt.Errorf("failed to load last reading: %w", err)
	}

	line.First = &ReadingPoint{Value: first.Reading, Timestamp: first.Timestamp}
	line.Last = &ReadingPoint{Value: last.Reading, Timestamp: last.Timestamp}
	line.Consumption = last.Reading - first.Reading
	return line, nil
}

// Export renders the consumption report as CSV, uploads it and returns a
// presigned download link
func (s *ReportService) Export(ctx context.Context, caller Caller, propertyID uint, from, to *time.Time) (*ReportExport, error) {
	report, err := s.Consumption(ctx, caller, propertyID, from, to)
	if err != nil {
		return nil, err
	}
	if s.storage == nil {
		return nil, &DependencyError{Dependency: "object storage", Err: errors.New("report storage is not configured")}
	}

	body, err := RenderConsumptionCSV(report)
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("reports/%d/%s.csv", report.PropertyID, uuid.NewString())
	if err := s.storage.PutObject(ctx, key, body, "text/csv"); err != nil {
		return nil, &DependencyError{Dependency: "object storage", Err: err}
	}
	url, err := s.storage.PresignGet(ctx, key, ExportLinkTTL)
	if err != nil {
		return nil, &DependencyError{Dependency: "object storage", Err: err}
	}

	logger.Named("reports").Info("consumption report exported",
		zap.Uint("property_id", report.PropertyID),
		zap.String("key", key),
		zap.Uint("caller_id", caller.ID))

	return &ReportExport{Key: key, URL: url, ExpiresAt: s.now().Add(ExportLinkTTL)}, nil
}

// RenderConsumptionCSV writes one row per meter
func RenderConsumptionCSV(report *ConsumptionReport) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	rows := [][]string{{
		"meter_id", "identifier", "name", "type", "unit",
		"readings", "first_value", "first_timestamp", "last_value", "last_timestamp", "consumption",
	}}
	for _, m := range report.Meters {
		row := []string{
			strconv.FormatUint(uint64(m.MeterID), 10), m.Identifier, m.Name, m.Type, m.Unit,
			strconv.FormatInt(m.ReadingCount, 10), "", "", "", "",
			strconv.FormatInt(m.Consumption, 10),
		}
		if m.First != nil {
			row[6] = strconv.FormatInt(m.First.Value, 10)
			row[7] = m.First.Timestamp.UTC().Format(time.RFC3339)
		}
		if m.Last != nil {
			row[8] = strconv.FormatInt(m.Last.Value, 10)
			row[9] = m.Last.Timestamp.UTC().Format(time.RFC3339)
		}
		rows = append(rows, row)
	}

	if err := w.WriteAll(rows); err != nil {
		return nil, fmt.Errorf("failed to render report: %w", err)
	}
	return buf.Bytes(), nil
}

func inUTC(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
