package alerts

import (
	"context"
	"strings"
	"time"

	"github.com/carelink/clinic-alerts/pkg/interfaces"
	"github.com/carelink/clinic-alerts/pkg/logger"
	"github.com/carelink/clinic-alerts/pkg/monitoring"
	"github.com/carelink/clinic-alerts/pkg/types"
)

// Generic message shown when the registry rejects a call without
// supplying its own error message
const genericRequestFailure = "request failed, please try again"

// Service implements the alert mutation handlers. Every mutation
// validates its input before touching the network, never mutates local
// state on failure, and reconciles the store on success — holds and
// precautions by full reload (the create payload does not carry the
// patient display name), facility alerts by merging the registry's
// returned record.
type Service struct {
	registry interfaces.Registry
	patients interfaces.PatientDirectory
	store    *Store
	logger   *logger.Logger
	metrics  *monitoring.MetricsCollector
}

// NewService creates a new alerts service
func NewService(
	registry interfaces.Registry,
	patients interfaces.PatientDirectory,
	store *Store,
	log *logger.Logger,
	metrics *monitoring.MetricsCollector,
) *Service {
	return &Service{
		registry: registry,
		patients: patients,
		store:    store,
		logger:   log,
		metrics:  metrics,
	}
}

// Store exposes the backing store for read paths and health checks
func (s *Service) Store() *Store {
	return s.store
}

// CreateHold creates a dosing hold on behalf of the acting user.
// Requires a patient id and a non-empty reason. On success the hold
// collection is fully reloaded from the registry.
func (s *Service) CreateHold(ctx context.Context, input *types.HoldInput, actor types.Actor) (*types.DosingHold, error) {
	if strings.TrimSpace(input.PatientID) == "" {
		return nil, types.NewValidationError("patient_id", "patient is required")
	}
	if strings.TrimSpace(input.Reason) == "" {
		return nil, types.NewValidationError("reason", "reason is required")
	}

	hold := &types.DosingHold{
		PatientID:             input.PatientID,
		HoldType:              input.HoldType,
		Reason:                input.Reason,
		CreatedBy:             actor.Name,
		CreatedByRole:         actor.Role,
		CreatedAt:             time.Now(),
		RequiresClearanceFrom: input.RequiresClearanceFrom,
		ClearedBy:             []types.Clearance{},
		Status:                types.HoldStatusActive,
		Severity:              input.Severity,
		Notes:                 input.Notes,
	}
	if hold.HoldType == "" {
		hold.HoldType = types.HoldTypeCounselorRequired
	}
	if hold.Severity == "" {
		hold.Severity = types.SeverityMedium
	}

	created, err := s.registry.CreateHold(ctx, hold)
	if err != nil {
		s.metrics.RecordMutation("create_hold", "failure")
		s.logger.WithOperation("create_hold").WithError(err).Error("Failed to create dosing hold")
		s.logger.Audit(actor.ID, "create_dosing_hold", input.PatientID, false, nil)
		return nil, requestError(err)
	}

	if err := s.reloadHolds(ctx); err != nil {
		// The hold exists at the registry; surface the reload failure
		// so the caller knows the local view may lag.
		s.metrics.RecordMutation("create_hold", "reload_failure")
		s.logger.WithOperation("create_hold").WithError(err).Warn("Hold created but reload failed")
		return created, err
	}

	s.metrics.RecordMutation("create_hold", "success")
	s.metrics.SetActiveHolds(s.store.ActiveHoldCount())
	s.logger.ClinicalSafety("dosing_hold_created", created.PatientID, created.ID, map[string]interface{}{
		"hold_type": created.HoldType,
		"severity":  created.Severity,
		"requires":  created.RequiresClearanceFrom,
	})
	s.logger.Audit(actor.ID, "create_dosing_hold", created.ID, true, map[string]interface{}{
		"patient_id": created.PatientID,
	})
	return created, nil
}

// ClearHold records one staff member's clearance on a hold. The record
// is appended registry-side via an update; there is no optimistic local
// append. The registry decides any status transition.
func (s *Service) ClearHold(ctx context.Context, holdID string, clearance types.Clearance) (*types.DosingHold, error) {
	if strings.TrimSpace(holdID) == "" {
		return nil, types.NewValidationError("hold_id", "hold id is required")
	}
	if clearance.Role == "" && strings.TrimSpace(clearance.Label) == "" {
		return nil, types.NewValidationError("clearance", "a role or label is required")
	}

	if clearance.Label == "" {
		clearance.Label = types.Actor{Name: clearance.Actor, Role: clearance.Role}.Label()
	}
	if clearance.ClearedAt.IsZero() {
		clearance.ClearedAt = time.Now()
	}

	update := &types.HoldUpdate{ClearedBy: []types.Clearance{clearance}}
	updated, err := s.registry.UpdateHold(ctx, holdID, update)
	if err != nil {
		s.metrics.RecordMutation("clear_hold", "failure")
		s.logger.WithOperation("clear_hold").WithError(err).Error("Failed to submit clearance")
		s.logger.Audit(clearance.Actor, "clear_dosing_hold", holdID, false, nil)
		return nil, requestError(err)
	}

	if err := s.reloadHolds(ctx); err != nil {
		s.metrics.RecordMutation("clear_hold", "reload_failure")
		s.logger.WithOperation("clear_hold").WithError(err).Warn("Clearance recorded but reload failed")
		return updated, err
	}

	s.metrics.RecordMutation("clear_hold", "success")
	s.metrics.SetActiveHolds(s.store.ActiveHoldCount())
	s.logger.ClinicalSafety("dosing_hold_cleared_by", updated.PatientID, updated.ID, map[string]interface{}{
		"clearance":     clearance.Label,
		"fully_cleared": FullyCleared(updated),
	})
	s.logger.Audit(clearance.Actor, "clear_dosing_hold", holdID, true, map[string]interface{}{
		"label": clearance.Label,
	})
	return updated, nil
}

// CreatePrecaution creates a patient precaution. Icon and color are
// denormalized from the catalog unless the input supplies its own. On
// success the precaution collection is fully reloaded.
func (s *Service) CreatePrecaution(ctx context.Context, input *types.PrecautionInput, actor types.Actor) (*types.PatientPrecaution, error) {
	if strings.TrimSpace(input.PatientID) == "" {
		return nil, types.NewValidationError("patient_id", "patient is required")
	}
	if input.PrecautionType == "" {
		return nil, types.NewValidationError("precaution_type", "precaution type is required")
	}

	entry := LookupCatalog(input.PrecautionType)
	icon, color := entry.Icon, entry.Color
	if input.Icon != "" {
		icon = input.Icon
	}
	if input.Color != "" {
		color = input.Color
	}

	now := time.Now()
	precaution := &types.PatientPrecaution{
		PatientID:      input.PatientID,
		PrecautionType: input.PrecautionType,
		Details:        input.Details,
		Icon:           icon,
		Color:          color,
		CreatedBy:      actor.Name,
		Active:         true,
		DisplayOnChart: input.DisplayOnChart,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	created, err := s.registry.CreatePrecaution(ctx, precaution)
	if err != nil {
		s.metrics.RecordMutation("create_precaution", "failure")
		s.logger.WithOperation("create_precaution").WithError(err).Error("Failed to create precaution")
		s.logger.Audit(actor.ID, "create_precaution", input.PatientID, false, nil)
		return nil, requestError(err)
	}

	if err := s.reloadPrecautions(ctx); err != nil {
		s.metrics.RecordMutation("create_precaution", "reload_failure")
		s.logger.WithOperation("create_precaution").WithError(err).Warn("Precaution created but reload failed")
		return created, err
	}

	s.metrics.RecordMutation("create_precaution", "success")
	s.logger.Audit(actor.ID, "create_precaution", created.ID, true, map[string]interface{}{
		"patient_id":      created.PatientID,
		"precaution_type": created.PrecautionType,
	})
	return created, nil
}

// CreateFacilityAlert creates a facility-scoped broadcast alert and
// merges the registry's returned record into the store
func (s *Service) CreateFacilityAlert(ctx context.Context, input *types.FacilityAlertInput, actor types.Actor) (*types.FacilityAlert, error) {
	if input.AlertType == "" {
		return nil, types.NewValidationError("alert_type", "alert type is required")
	}
	if strings.TrimSpace(input.Message) == "" {
		return nil, types.NewValidationError("message", "message is required")
	}

	alert := &types.FacilityAlert{
		AlertType:     input.AlertType,
		Message:       input.Message,
		Priority:      input.Priority,
		AffectedAreas: input.AffectedAreas,
		CreatedBy:     actor.Name,
		Active:        true,
		CreatedAt:     time.Now(),
	}
	if alert.Priority == "" {
		alert.Priority = types.SeverityMedium
	}

	created, err := s.registry.CreateFacilityAlert(ctx, alert)
	if err != nil {
		s.metrics.RecordMutation("create_facility_alert", "failure")
		s.logger.WithOperation("create_facility_alert").WithError(err).Error("Failed to create facility alert")
		s.logger.Audit(actor.ID, "create_facility_alert", "", false, nil)
		return nil, requestError(err)
	}

	s.store.MergeFacilityAlert(created)
	s.metrics.RecordMutation("create_facility_alert", "success")
	s.logger.Audit(actor.ID, "create_facility_alert", created.ID, true, map[string]interface{}{
		"alert_type": created.AlertType,
		"priority":   created.Priority,
	})
	return created, nil
}

// UpdateFacilityAlert replaces the editable fields of a facility alert
// and merges the registry's returned record into the store
func (s *Service) UpdateFacilityAlert(ctx context.Context, alertID string, input *types.FacilityAlertInput, actor types.Actor) (*types.FacilityAlert, error) {
	if strings.TrimSpace(alertID) == "" {
		return nil, types.NewValidationError("alert_id", "alert id is required")
	}
	if input.AlertType == "" {
		return nil, types.NewValidationError("alert_type", "alert type is required")
	}
	if strings.TrimSpace(input.Message) == "" {
		return nil, types.NewValidationError("message", "message is required")
	}

	updated, err := s.registry.UpdateFacilityAlert(ctx, alertID, input)
	if err != nil {
		s.metrics.RecordMutation("update_facility_alert", "failure")
		s.logger.WithOperation("update_facility_alert").WithError(err).Error("Failed to update facility alert")
		s.logger.Audit(actor.ID, "update_facility_alert", alertID, false, nil)
		return nil, requestError(err)
	}

	s.store.MergeFacilityAlert(updated)
	s.metrics.RecordMutation("update_facility_alert", "success")
	s.logger.Audit(actor.ID, "update_facility_alert", alertID, true, nil)
	return updated, nil
}

// DismissFacilityAlert deactivates a facility alert. The record stays
// in the collection with Active false; it is never removed.
func (s *Service) DismissFacilityAlert(ctx context.Context, alertID string, actor types.Actor) (*types.FacilityAlert, error) {
	if strings.TrimSpace(alertID) == "" {
		return nil, types.NewValidationError("alert_id", "alert id is required")
	}

	dismissed, err := s.registry.DismissFacilityAlert(ctx, alertID)
	if err != nil {
		s.metrics.RecordMutation("dismiss_facility_alert", "failure")
		s.logger.WithOperation("dismiss_facility_alert").WithError(err).Error("Failed to dismiss facility alert")
		s.logger.Audit(actor.ID, "dismiss_facility_alert", alertID, false, nil)
		return nil, requestError(err)
	}

	s.store.MergeFacilityAlert(dismissed)
	s.metrics.RecordMutation("dismiss_facility_alert", "success")
	s.logger.Audit(actor.ID, "dismiss_facility_alert", alertID, true, nil)
	return dismissed, nil
}

// ReloadAll refreshes all three collections from the registry. Each
// collection fails or succeeds independently; a failed fetch leaves
// that collection untouched and is reported to the caller. There is no
// fallback data: the caller decides how to present a failed reload.
func (s *Service) ReloadAll(ctx context.Context) error {
	var firstErr error

	if err := s.reloadHolds(ctx); err != nil {
		firstErr = err
	}
	if err := s.reloadPrecautions(ctx); err != nil && firstErr == nil {
		firstErr = err
	}
	if err := s.reloadFacilityAlerts(ctx); err != nil && firstErr == nil {
		firstErr = err
	}

	s.metrics.SetActiveHolds(s.store.ActiveHoldCount())
	return firstErr
}

// HoldViews returns the hold collection annotated with the clearance
// gate's evaluation
func (s *Service) HoldViews() []HoldView {
	holds := s.store.Holds()
	views := make([]HoldView, len(holds))
	for i, h := range holds {
		views[i] = NewHoldView(h)
	}
	return views
}

// ListPatients fetches the patient directory for selection dropdowns
func (s *Service) ListPatients(ctx context.Context) ([]*types.Patient, error) {
	patients, err := s.patients.ListPatients(ctx)
	if err != nil {
		s.logger.WithOperation("list_patients").WithError(err).Error("Failed to fetch patient directory")
		return nil, requestError(err)
	}
	return patients, nil
}

func (s *Service) reloadHolds(ctx context.Context) error {
	gen := s.store.BeginHoldReload()
	holds, err := s.registry.ListHolds(ctx)
	if err != nil {
		s.metrics.RecordReload("holds", "failure")
		return requestError(err)
	}
	if !s.store.ReplaceHolds(holds, gen) {
		s.metrics.RecordStaleReload("holds")
		return nil
	}
	s.metrics.RecordReload("holds", "success")
	return nil
}

func (s *Service) reloadPrecautions(ctx context.Context) error {
	gen := s.store.BeginPrecautionReload()
	precautions, err := s.registry.ListPrecautions(ctx)
	if err != nil {
		s.metrics.RecordReload("precautions", "failure")
		return requestError(err)
	}
	if !s.store.ReplacePrecautions(precautions, gen) {
		s.metrics.RecordStaleReload("precautions")
		return nil
	}
	s.metrics.RecordReload("precautions", "success")
	return nil
}

func (s *Service) reloadFacilityAlerts(ctx context.Context) error {
	gen := s.store.BeginFacilityReload()
	alerts, err := s.registry.ListFacilityAlerts(ctx)
	if err != nil {
		s.metrics.RecordReload("facility_alerts", "failure")
		return requestError(err)
	}
	if !s.store.ReplaceFacilityAlerts(alerts, gen) {
		s.metrics.RecordStaleReload("facility_alerts")
		return nil
	}
	s.metrics.RecordReload("facility_alerts", "success")
	return nil
}

// requestError surfaces the collaborator's message verbatim when it
// supplied one, otherwise a generic fallback
func requestError(err error) error {
	if types.IsRequestFailure(err) {
		return err
	}
	msg := genericRequestFailure
	if err != nil && err.Error() != "" {
		msg = err.Error()
	}
	return types.NewRequestError(msg, err)
}
