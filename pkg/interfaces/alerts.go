package interfaces

import (
	"context"

	"github.com/carelink/clinic-alerts/pkg/types"
)

// Registry is the persistence collaborator that owns alert records.
// This service calls it over HTTP; it never implements it. Status
// transitions on dosing holds (active to cleared/expired) are the
// registry's responsibility and become visible here only on reload.
type Registry interface {
	// Dosing holds
	ListHolds(ctx context.Context) ([]*types.DosingHold, error)
	CreateHold(ctx context.Context, hold *types.DosingHold) (*types.DosingHold, error)
	UpdateHold(ctx context.Context, holdID string, update *types.HoldUpdate) (*types.DosingHold, error)

	// Patient precautions
	ListPrecautions(ctx context.Context) ([]*types.PatientPrecaution, error)
	CreatePrecaution(ctx context.Context, precaution *types.PatientPrecaution) (*types.PatientPrecaution, error)

	// Facility alerts
	ListFacilityAlerts(ctx context.Context) ([]*types.FacilityAlert, error)
	CreateFacilityAlert(ctx context.Context, alert *types.FacilityAlert) (*types.FacilityAlert, error)
	UpdateFacilityAlert(ctx context.Context, alertID string, input *types.FacilityAlertInput) (*types.FacilityAlert, error)
	DismissFacilityAlert(ctx context.Context, alertID string) (*types.FacilityAlert, error)
}

// PatientDirectory is the read-only collaborator that owns patient
// demographics, consumed to populate selection dropdowns
type PatientDirectory interface {
	ListPatients(ctx context.Context) ([]*types.Patient, error)
}
