package service

import (
	"context" // Request-scoped cancellation
	"fmt"     // Error wrapping

	"tutor_market/internal/domain" // Domain types
)

// Meeting providers
const (
	ProviderZoom       = "zoom"
	ProviderGoogleMeet = "google_meet"
)

// Meeting is a templated pair of session links
type Meeting struct {
	BookingID string `json:"bookingId"`
	Provider  string `json:"provider"`
	JoinURL   string `json:"joinUrl"`
	HostURL   string `json:"hostUrl"`
}

// MeetingService hands out placeholder meeting links until a provider is integrated
type MeetingService struct {
	bookings *BookingService
	baseURL  string
}

// NewMeetingService builds a MeetingService
func NewMeetingService(bookings *BookingService, baseURL string) *MeetingService {
	if baseURL == "" {
		baseURL = "https://example.com"
	}
	return &MeetingService{bookings: bookings, baseURL: baseURL}
}

// Create returns links for a booking the actor participates in
func (s *MeetingService) Create(ctx context.Context, actor domain.Actor, bookingID, provider string) (*Meeting, error) {
	if provider == "" {
		provider = ProviderZoom
	}
	if provider != ProviderZoom && provider != ProviderGoogleMeet {
		return nil, domain.Validation("provider must be one of zoom, google_meet")
	}
	if err := checkID("bookingId", bookingID); err != nil {
		return nil, err
	}
	b, err := s.bookings.GetByID(ctx, actor, bookingID)
	if err != nil {
		return nil, err
	}
	return &Meeting{
		BookingID: b.ID,
		Provider:  provider,
		JoinURL:   fmt.Sprintf("%s/meet/%s/%s", s.baseURL, provider, b.ID),
		HostURL:   fmt.Sprintf("%s/host/%s/%s", s.baseURL, provider, b.ID),
	}, nil
}
