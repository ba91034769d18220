package scheduler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"berth/config"
	"berth/infras/otel"
	"berth/shared/constant"
)

const (
	requestHeaderAPIVersion = "X-API-Version"

	otelAttrReservationID = "provider_reservation_id"
)

// Error carries the status and best-effort message of a failed provider
// call. Network failures carry a zero StatusCode.
type Error struct {
	StatusCode int
	Message    string
}

func (e *Error) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("scheduler: %s", e.Message)
	}

	return fmt.Sprintf("scheduler: status %d: %s", e.StatusCode, e.Message)
}

func IsNotFound(err error) bool {
	provErr, ok := err.(*Error)

	return ok && provErr.StatusCode == http.StatusNotFound
}

type Attendee struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	TimeZone string `json:"timeZone,omitempty"`
}

// Metadata is the closed set of extra fields forwarded to the provider.
// Arbitrary pass-through keys are deliberately not supported.
type Metadata struct {
	Source          string `json:"source,omitempty"`
	SlotID          string `json:"slotId,omitempty"`
	RegistrantID    string `json:"registrantId,omitempty"`
	WaitlistEntryID string `json:"waitlistEntryId,omitempty"`
}

type CreateReservationRequest struct {
	EventTypeID string     `json:"eventTypeId"`
	Start       time.Time  `json:"start"`
	End         *time.Time `json:"end,omitempty"`
	Attendee    Attendee   `json:"attendee"`
	TimeZone    string     `json:"timeZone,omitempty"`
	Metadata    *Metadata  `json:"metadata,omitempty"`
}

type Reservation struct {
	ID        string     `json:"id"`
	UID       string     `json:"uid"`
	Status    string     `json:"status"`
	StartTime *time.Time `json:"startTime"`
	EndTime   *time.Time `json:"endTime"`
	Attendees []Attendee `json:"attendees"`
}

// ExternalID prefers the provider's uid when both identifiers are present.
func (r *Reservation) ExternalID() string {
	if r.UID != "" {
		return r.UID
	}

	return r.ID
}

// Scheduler is the typed client to the external scheduling provider. The
// provider owns the authoritative reservation record; calls are not retried
// here, reconciliation happens through its webhook deliveries.
type Scheduler interface {
	CreateReservation(ctx context.Context, request CreateReservationRequest) (*Reservation, error)
	ConfirmReservation(ctx context.Context, providerReservationID string) error
	DeclineReservation(ctx context.Context, providerReservationID, reason string) error
	CancelReservation(ctx context.Context, providerReservationID, reason string) error
	GetReservation(ctx context.Context, providerReservationID string) (*Reservation, error)
}

type schedulerImpl struct {
	baseURL    string
	apiKey     string
	apiVersion string
	httpClient *http.Client
	otel       otel.Otel
}

func New(conf *config.Config, otl otel.Otel) Scheduler {
	timeout := time.Duration(conf.External.Scheduler.TimeoutSeconds) * time.Second

	return &schedulerImpl{
		baseURL:    strings.TrimRight(conf.External.Scheduler.BaseURL, "/"),
		apiKey:     conf.External.Scheduler.APIKey,
		apiVersion: conf.External.Scheduler.APIVersion,
		httpClient: &http.Client{Timeout: timeout},
		otel:       otl,
	}
}

func (s *schedulerImpl) CreateReservation(ctx context.Context, request CreateReservationRequest) (reservation *Reservation, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelExternalScopeName, "Scheduler.CreateReservation")
	defer scope.End()
	defer scope.TraceIfError(err)

	reservation = &Reservation{}

	err = s.do(ctx, http.MethodPost, "/reservations", request, reservation)
	if err != nil {
		log.Error().Err(err).Str("event_type_id", request.EventTypeID).Msg("[CreateReservation] Provider call failed")

		return nil, err
	}

	return reservation, nil
}

func (s *schedulerImpl) ConfirmReservation(ctx context.Context, providerReservationID string) (err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelExternalScopeName, "Scheduler.ConfirmReservation")
	defer scope.End()
	defer scope.TraceIfError(err)

	scope.SetAttribute(otelAttrReservationID, providerReservationID)

	err = s.do(ctx, http.MethodPost, "/reservations/"+providerReservationID+"/confirm", nil, nil)
	if err != nil {
		log.Error().Err(err).Str("provider_reservation_id", providerReservationID).Msg("[ConfirmReservation] Provider call failed")

		return err
	}

	return nil
}

func (s *schedulerImpl) DeclineReservation(ctx context.Context, providerReservationID, reason string) (err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelExternalScopeName, "Scheduler.DeclineReservation")
	defer scope.End()
	defer scope.TraceIfError(err)

	scope.SetAttribute(otelAttrReservationID, providerReservationID)

	err = s.do(ctx, http.MethodPost, "/reservations/"+providerReservationID+"/decline", reasonBody(reason), nil)
	if err != nil {
		log.Error().Err(err).Str("provider_reservation_id", providerReservationID).Msg("[DeclineReservation] Provider call failed")

		return err
	}

	return nil
}

func (s *schedulerImpl) CancelReservation(ctx context.Context, providerReservationID, reason string) (err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelExternalScopeName, "Scheduler.CancelReservation")
	defer scope.End()
	defer scope.TraceIfError(err)

	scope.SetAttribute(otelAttrReservationID, providerReservationID)

	err = s.do(ctx, http.MethodPost, "/reservations/"+providerReservationID+"/cancel", reasonBody(reason), nil)
	if err != nil {
		log.Error().Err(err).Str("provider_reservation_id", providerReservationID).Msg("[CancelReservation] Provider call failed")

		return err
	}

	return nil
}

func (s *schedulerImpl) GetReservation(ctx context.Context, providerReservationID string) (reservation *Reservation, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelExternalScopeName, "Scheduler.GetReservation")
	defer scope.End()
	defer scope.TraceIfError(err)

	scope.SetAttribute(otelAttrReservationID, providerReservationID)

	reservation = &Reservation{}

	err = s.do(ctx, http.MethodGet, "/reservations/"+providerReservationID, nil, reservation)
	if err != nil {
		log.Error().Err(err).Str("provider_reservation_id", providerReservationID).Msg("[GetReservation] Provider call failed")

		return nil, err
	}

	return reservation, nil
}

func reasonBody(reason string) any {
	if reason == "" {
		return nil
	}

	return map[string]string{"reason": reason}
}

func (s *schedulerImpl) do(ctx context.Context, method, path string, body, out any) error {
	var reqBody io.Reader

	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return &Error{Message: fmt.Sprintf("encoding request body: %v", err)}
		}

		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, reqBody)
	if err != nil {
		return &Error{Message: fmt.Sprintf("building request: %v", err)}
	}

	req.Header.Set(constant.RequestHeaderAuthorization, "Bearer "+s.apiKey)
	req.Header.Set(requestHeaderAPIVersion, s.apiVersion)
	req.Header.Set(constant.RequestHeaderContentType, constant.ContentTypeJSON)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return &Error{Message: err.Error()}
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return &Error{StatusCode: resp.StatusCode, Message: err.Error()}
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return &Error{StatusCode: resp.StatusCode, Message: extractErrorMessage(respBody, resp.Status)}
	}

	if out != nil && len(respBody) > 0 {
		if err := decodePayload(respBody, out); err != nil {
			return &Error{StatusCode: resp.StatusCode, Message: fmt.Sprintf("decoding response body: %v", err)}
		}
	}

	return nil
}

// decodePayload accepts both the bare object and the `{"data": ...}` wrapper
// the provider uses on some endpoints.
func decodePayload(body []byte, out any) error {
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}

	if err := json.Unmarshal(body, &envelope); err == nil && len(envelope.Data) > 0 {
		body = envelope.Data
	}

	return json.Unmarshal(body, out)
}

// extractErrorMessage unwraps the provider's error envelope. Both flat and
// nested message shapes are seen in the wild; anything else falls back to the
// HTTP status text.
func extractErrorMessage(body []byte, fallback string) string {
	var envelope struct {
		Message string `json:"message"`
		Error   struct {
			Message string `json:"message"`
		} `json:"error"`
	}

	if err := json.Unmarshal(body, &envelope); err == nil {
		if envelope.Message != "" {
			return envelope.Message
		}

		if envelope.Error.Message != "" {
			return envelope.Error.Message
		}
	}

	if trimmed := strings.TrimSpace(string(body)); trimmed != "" && len(trimmed) <= 256 {
		return trimmed
	}

	return fallback
}
