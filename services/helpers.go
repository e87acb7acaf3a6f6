package services

import (
	"fmt"
	"time"

	"github.com/Dosada05/raffle-system/models"
	"github.com/Dosada05/raffle-system/storage"
)

const competitionDateLayout = time.RFC3339

// --- Общие хелперы ---

func parseCompetitionDates(startsAt, endsAt string) (time.Time, time.Time, error) {
	start, err := time.Parse(competitionDateLayout, startsAt)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: invalid starts_at %q", ErrValidationFailed, startsAt)
	}
	end, err := time.Parse(competitionDateLayout, endsAt)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: invalid ends_at %q", ErrValidationFailed, endsAt)
	}
	if !start.Before(end) {
		return time.Time{}, time.Time{}, ErrCompetitionInvalidDates
	}
	return start, end, nil
}

func derefInt(v *int) int {
	if v == nil {
		return 0
	}
	return *v
}

func isValidStatusTransition(current, next models.CompetitionStatus) bool {
	if current == next {
		return true
	}
	allowedTransitions := map[models.CompetitionStatus][]models.CompetitionStatus{
		models.CompetitionStatusDraft:     {models.CompetitionStatusActive, models.CompetitionStatusCancelled},
		models.CompetitionStatusActive:    {models.CompetitionStatusEnded, models.CompetitionStatusCancelled},
		models.CompetitionStatusEnded:     {},
		models.CompetitionStatusCancelled: {},
	}
	for _, allowedNextStatus := range allowedTransitions[current] {
		if next == allowedNextStatus {
			return true
		}
	}
	return false
}

// --- Хелперы для подстановки публичных URL картинок ---

func populateCompetitionImageURL(c *models.Competition, uploader storage.FileUploader) {
	if c == nil || c.ImageKey == nil || uploader == nil {
		return
	}
	url := uploader.GetPublicURL(*c.ImageKey)
	if url != "" {
		c.ImageURL = &url
	}
}

func populateProductImageURL(p *models.Product, uploader storage.FileUploader) {
	if p == nil || p.ImageKey == nil || uploader == nil {
		return
	}
	url := uploader.GetPublicURL(*p.ImageKey)
	if url != "" {
		p.ImageURL = &url
	}
}
