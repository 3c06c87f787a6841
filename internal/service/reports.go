package service

import (
	"errors"
	"time"

	"github.com/dustin/go-humanize"
	"gorm.io/gorm"

	"github.com/goleaf/tribal-clone-sub002/internal/game"
)

// ReportView is an inbox entry with a human-friendly age attached.
type ReportView struct {
	ID      uint            `json:"id"`
	Kind    game.ReportKind `json:"kind"`
	Title   string          `json:"title"`
	Payload string          `json:"payload,omitempty"`
	Created time.Time       `json:"created_at"`
	Age     string          `json:"age"`
}

func toReportView(r *game.Report) *ReportView {
	return &ReportView{
		ID:      r.ID,
		Kind:    r.Kind,
		Title:   r.Title,
		Payload: r.Payload,
		Created: r.CreatedAt,
		Age:     humanize.Time(r.CreatedAt),
	}
}

// GetReport fetches one inbox entry. Reports are private to the user
// they were filed for.
func (s *Service) GetReport(reportID, userID uint) (*ReportView, error) {
	r, err := s.repo.GetReportByID(reportID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrReportNotFound
		}
		return nil, err
	}
	if r.UserID != userID {
		return nil, ErrReportAccess
	}
	return toReportView(r), nil
}

// ListReports returns the user's inbox, newest first.
func (s *Service) ListReports(userID uint, limit int) ([]ReportView, error) {
	rows, err := s.repo.GetReportsByUser(userID, limit)
	if err != nil {
		return nil, err
	}
	views := make([]ReportView, 0, len(rows))
	for i := range rows {
		views = append(views, *toReportView(&rows[i]))
	}
	return views, nil
}

// ListOperations returns the user's pending outbound operations.
func (s *Service) ListOperations(userID uint) ([]game.Operation, error) {
	villages, err := s.repo.GetVillagesByUserID(userID)
	if err != nil {
		return nil, err
	}
	ids := make([]uint, 0, len(villages))
	for _, v := range villages {
		ids = append(ids, v.ID)
	}
	if len(ids) == 0 {
		return []game.Operation{}, nil
	}
	return s.repo.FindPendingOperationsBySource(ids)
}
