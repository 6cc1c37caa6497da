package types

import (
	"strings"
	"time"
)

// HoldType categorizes a dosing hold by the kind of review it demands
type HoldType string

const (
	HoldTypeCounselorRequired HoldType = "counselor-required"
	HoldTypeNurseRequired     HoldType = "nurse-required"
	HoldTypeDoctorRequired    HoldType = "doctor-required"
	HoldTypeComplianceReview  HoldType = "compliance-review"
)

// HoldStatus is the authoritative lifecycle state of a dosing hold.
// Transitions to cleared/expired are decided by the registry, never locally.
type HoldStatus string

const (
	HoldStatusActive  HoldStatus = "active"
	HoldStatusCleared HoldStatus = "cleared"
	HoldStatusExpired HoldStatus = "expired"
)

// Severity levels for dosing holds and facility alerts
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Role identifies a staff role that can be required to clear a hold
type Role string

const (
	RoleCounselor  Role = "Counselor"
	RoleNurse      Role = "Nurse"
	RoleDoctor     Role = "Doctor"
	RoleCompliance Role = "Compliance"
)

// Equal compares roles case-insensitively
func (r Role) Equal(other Role) bool {
	return strings.EqualFold(string(r), string(other))
}

// Clearance records one staff member's sign-off on a dosing hold.
// Legacy records carry only a free-text Label ("Jane Doe (Counselor)");
// newer records carry a structured Role as well.
type Clearance struct {
	Actor     string    `json:"actor,omitempty"`
	Role      Role      `json:"role,omitempty"`
	Label     string    `json:"label"`
	ClearedAt time.Time `json:"cleared_at,omitempty"`
}

// Matches reports whether this clearance satisfies the given required
// role. Structured records match by case-insensitive role equality;
// free-text records match when the role name appears case-insensitively
// as a substring of the label.
func (c Clearance) Matches(role Role) bool {
	if c.Role != "" {
		return c.Role.Equal(role)
	}
	return strings.Contains(strings.ToLower(c.Label), strings.ToLower(string(role)))
}

// DosingHold blocks a patient from receiving a scheduled dose until
// every required role has cleared it
type DosingHold struct {
	ID                    string      `json:"id"`
	PatientID             string      `json:"patient_id"`
	PatientName           string      `json:"patient_name,omitempty"`
	HoldType              HoldType    `json:"hold_type"`
	Reason                string      `json:"reason"`
	CreatedBy             string      `json:"created_by"`
	CreatedByRole         Role        `json:"created_by_role"`
	CreatedAt             time.Time   `json:"created_at"`
	RequiresClearanceFrom []Role      `json:"requires_clearance_from"`
	ClearedBy             []Clearance `json:"cleared_by"`
	Status                HoldStatus  `json:"status"`
	Severity              Severity    `json:"severity"`
	Notes                 string      `json:"notes,omitempty"`
}

// HoldInput is the creation payload for a dosing hold
type HoldInput struct {
	PatientID             string   `json:"patient_id"`
	HoldType              HoldType `json:"hold_type"`
	Reason                string   `json:"reason"`
	RequiresClearanceFrom []Role   `json:"requires_clearance_from"`
	Severity              Severity `json:"severity,omitempty"`
	Notes                 string   `json:"notes,omitempty"`
}

// HoldUpdate is the update payload for a dosing hold. Clearing a hold
// appends to ClearedBy; the registry decides any status transition.
type HoldUpdate struct {
	ClearedBy []Clearance `json:"cleared_by,omitempty"`
	Notes     *string     `json:"notes,omitempty"`
}

// PrecautionType enumerates the fixed precaution catalog
type PrecautionType string

const (
	PrecautionWaterOff        PrecautionType = "water_off"
	PrecautionElectricOff     PrecautionType = "electric_off"
	PrecautionNeedsAssistance PrecautionType = "needs_assistance"
	PrecautionFallRisk        PrecautionType = "fall_risk"
	PrecautionWheelchair      PrecautionType = "wheelchair"
	PrecautionHearingImpaired PrecautionType = "hearing_impaired"
	PrecautionVisionImpaired  PrecautionType = "vision_impaired"
	PrecautionCognitive       PrecautionType = "cognitive"
	PrecautionCardiac         PrecautionType = "cardiac"
	PrecautionCustom          PrecautionType = "custom"
)

// PatientPrecaution is a persistent advisory note on a patient's record.
// Icon and Color are denormalized from the catalog at creation time.
type PatientPrecaution struct {
	ID             string         `json:"id"`
	PatientID      string         `json:"patient_id"`
	PatientName    string         `json:"patient_name,omitempty"`
	PrecautionType PrecautionType `json:"precaution_type"`
	Details        string         `json:"details,omitempty"`
	Icon           string         `json:"icon"`
	Color          string         `json:"color"`
	CreatedBy      string         `json:"created_by"`
	Active         bool           `json:"active"`
	DisplayOnChart bool           `json:"display_on_chart"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// PrecautionInput is the creation payload for a patient precaution
type PrecautionInput struct {
	PatientID      string         `json:"patient_id"`
	PrecautionType PrecautionType `json:"precaution_type"`
	Details        string         `json:"details,omitempty"`
	Icon           string         `json:"icon,omitempty"`
	Color          string         `json:"color,omitempty"`
	DisplayOnChart bool           `json:"display_on_chart"`
}

// FacilityAlertType enumerates facility-scoped broadcast notices
type FacilityAlertType string

const (
	FacilityAlertMaintenance FacilityAlertType = "maintenance"
	FacilityAlertSafety      FacilityAlertType = "safety"
	FacilityAlertWeather     FacilityAlertType = "weather"
	FacilityAlertSecurity    FacilityAlertType = "security"
	FacilityAlertGeneral     FacilityAlertType = "general"
)

// FacilityAlert is a broadcast notice not tied to any patient.
// Dismissal flips Active to false; alerts are never hard-deleted.
type FacilityAlert struct {
	ID            string            `json:"id"`
	AlertType     FacilityAlertType `json:"alert_type"`
	Message       string            `json:"message"`
	Priority      Severity          `json:"priority"`
	AffectedAreas []string          `json:"affected_areas,omitempty"`
	CreatedBy     string            `json:"created_by"`
	Active        bool              `json:"active"`
	CreatedAt     time.Time         `json:"created_at"`
}

// FacilityAlertInput is the create/update payload for a facility alert
type FacilityAlertInput struct {
	AlertType     FacilityAlertType `json:"alert_type"`
	Message       string            `json:"message"`
	Priority      Severity          `json:"priority,omitempty"`
	AffectedAreas []string          `json:"affected_areas,omitempty"`
}

// Actor identifies the staff member performing a mutation
type Actor struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Role Role   `json:"role"`
}

// Label renders the actor in the legacy "Name (Role)" clearance format
func (a Actor) Label() string {
	if a.Role == "" {
		return a.Name
	}
	if a.Name == "" {
		return string(a.Role)
	}
	return a.Name + " (" + string(a.Role) + ")"
}
