package service

import (
	"context"
	"time"

	"agenda-service/internal/models"
	"agenda-service/internal/repository"
	"agenda-service/internal/schedule"
)

// maxSuggestions bounds the alternatives returned with a conflict.
const maxSuggestions = 5

// SuggestionService proposes free slots or free places when a booking hits a
// conflict. Advisory only: it never mutates state and guarantees no ordering
// beyond "first N found".
type SuggestionService struct {
	DB    repository.DB
	Appts repository.AppointmentRepository
	Refs  repository.ReferenceRepository
}

func NewSuggestionService(db repository.DB, appts repository.AppointmentRepository, refs repository.ReferenceRepository) *SuggestionService {
	return &SuggestionService{DB: db, Appts: appts, Refs: refs}
}

// SuggestAlternatives probes other start times at the same place within the
// operating window, then the same time at other active places. Probe errors
// skip the candidate rather than failing the response.
func (s *SuggestionService) SuggestAlternatives(ctx context.Context, placeID string, date, start time.Time, end *time.Time) []models.Suggestion {
	duration := time.Hour
	if end != nil {
		duration = end.Sub(start)
	}

	var out []models.Suggestion

	placeName := ""
	if place, err := s.Refs.GetPlace(ctx, s.DB, placeID); err == nil && place != nil {
		placeName = place.Name
	}

	for _, candidate := range schedule.CandidateStarts(date, duration) {
		if len(out) >= maxSuggestions {
			return out
		}
		if candidate.Equal(start) {
			continue
		}
		candidateEnd := candidate.Add(duration)
		ap, err := s.Appts.FindPlaceConflict(ctx, s.DB, placeID, date, candidate, &candidateEnd, repository.Exclude{})
		if err != nil || ap != nil {
			continue
		}
		out = append(out, makeSuggestion(placeID, placeName, date, candidate, candidateEnd))
	}

	places, err := s.Refs.ListActivePlaces(ctx, s.DB)
	if err != nil {
		return out
	}
	requestedEnd := start.Add(duration)
	for _, place := range places {
		if len(out) >= maxSuggestions {
			return out
		}
		if place.ID == placeID {
			continue
		}
		ap, err := s.Appts.FindPlaceConflict(ctx, s.DB, place.ID, date, start, &requestedEnd, repository.Exclude{})
		if err != nil || ap != nil {
			continue
		}
		out = append(out, makeSuggestion(place.ID, place.Name, date, start, requestedEnd))
	}
	return out
}

func makeSuggestion(placeID, placeName string, date, start, end time.Time) models.Suggestion {
	return models.Suggestion{
		PlaceID:   placeID,
		PlaceName: placeName,
		Date:      date.Format("2006-01-02"),
		StartTime: start.Format("15:04"),
		EndTime:   end.Format("15:04"),
	}
}
