package service

import (
	"context"

	"github.com/JakeFAU/bible-atlas-api/internal/apperr"
	"github.com/JakeFAU/bible-atlas-api/internal/store"
)

const (
	reportNotFound      = "Report does not exist."
	placeReportNotFound = "Place report does not exist."
)

// ReportService manages app feedback.
type ReportService struct {
	reports store.ReportRepository
}

// NewReportService builds a ReportService.
func NewReportService(reports store.ReportRepository) *ReportService {
	return &ReportService{reports: reports}
}

// Create files feedback. creatorID is nil for anonymous reports.
func (s *ReportService) Create(ctx context.Context, r store.Report, creatorID *int64) (store.Report, error) {
	r.CreatorID = creatorID
	return s.reports.CreateReport(ctx, r)
}

// FindAll pages through feedback, newest first.
func (s *ReportService) FindAll(ctx context.Context, page store.Page) (store.PageResult[store.Report], error) {
	page = page.Normalize()
	list, total, err := s.reports.ListReports(ctx, page)
	if err != nil {
		return store.PageResult[store.Report]{}, err
	}
	return store.NewPageResult(list, total, page), nil
}

// FindOne returns one report.
func (s *ReportService) FindOne(ctx context.Context, id int64) (store.Report, error) {
	r, err := s.reports.GetReport(ctx, id)
	return r, translate(err, reportNotFound)
}

// Update changes a report.
func (s *ReportService) Update(ctx context.Context, id int64, upd store.ReportUpdate) (store.Report, error) {
	r, err := s.reports.UpdateReport(ctx, id, upd)
	return r, translate(err, reportNotFound)
}

// Remove deletes a report.
func (s *ReportService) Remove(ctx context.Context, id int64) (Deleted[int64], error) {
	if err := s.reports.DeleteReport(ctx, id); err != nil {
		return Deleted[int64]{}, translate(err, reportNotFound)
	}
	return Deleted[int64]{ID: id}, nil
}

// PlaceReportService manages reports against places.
type PlaceReportService struct {
	reports store.PlaceReportRepository
	places  store.PlaceRepository
}

// NewPlaceReportService builds a PlaceReportService.
func NewPlaceReportService(reports store.PlaceReportRepository, places store.PlaceRepository) *PlaceReportService {
	return &PlaceReportService{reports: reports, places: places}
}

// Create flags a place. creatorID is nil for anonymous reports.
func (s *PlaceReportService) Create(ctx context.Context, r store.PlaceReport, creatorID *int64) (store.PlaceReport, error) {
	ok, err := s.places.PlaceExists(ctx, r.PlaceID)
	if err != nil {
		return store.PlaceReport{}, err
	}
	if !ok {
		return store.PlaceReport{}, apperr.NotFound(placeNotFound)
	}
	r.CreatorID = creatorID
	return s.reports.CreatePlaceReport(ctx, r)
}

// FindAll pages through place reports, newest first.
func (s *PlaceReportService) FindAll(ctx context.Context, page store.Page) (store.PageResult[store.PlaceReport], error) {
	page = page.Normalize()
	list, total, err := s.reports.ListPlaceReports(ctx, page)
	if err != nil {
		return store.PageResult[store.PlaceReport]{}, err
	}
	return store.NewPageResult(list, total, page), nil
}

// FindOne returns one place report.
func (s *PlaceReportService) FindOne(ctx context.Context, id int64) (store.PlaceReport, error) {
	r, err := s.reports.GetPlaceReport(ctx, id)
	return r, translate(err, placeReportNotFound)
}

// Update changes a place report.
func (s *PlaceReportService) Update(ctx context.Context, id int64, upd store.PlaceReportUpdate) (store.PlaceReport, error) {
	r, err := s.reports.UpdatePlaceReport(ctx, id, upd)
	return r, translate(err, placeReportNotFound)
}

// Remove deletes a place report.
func (s *PlaceReportService) Remove(ctx context.Context, id int64) (Deleted[int64], error) {
	if err := s.reports.DeletePlaceReport(ctx, id); err != nil {
		return Deleted[int64]{}, translate(err, placeReportNotFound)
	}
	return Deleted[int64]{ID: id}, nil
}
