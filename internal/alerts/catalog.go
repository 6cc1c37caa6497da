package alerts

import "github.com/carelink/clinic-alerts/pkg/types"

// CatalogEntry pairs a precaution type with its chart display hints
type CatalogEntry struct {
	Type  types.PrecautionType `json:"type"`
	Label string               `json:"label"`
	Icon  string               `json:"icon"`
	Color string               `json:"color"`
}

// Fallback display hints for custom or unrecognized precaution types
const (
	fallbackIcon  = "FileText"
	fallbackColor = "#64748b"
)

// precautionCatalog is the fixed set of precaution types. Icon and
// color are copied onto each precaution at creation time and never
// recomputed, so existing records keep their chart appearance even if
// the catalog changes.
var precautionCatalog = []CatalogEntry{
	{Type: types.PrecautionWaterOff, Label: "Water Off", Icon: "Droplets", Color: "#0ea5e9"},
	{Type: types.PrecautionElectricOff, Label: "Electric Off", Icon: "Zap", Color: "#eab308"},
	{Type: types.PrecautionNeedsAssistance, Label: "Needs Assistance", Icon: "Users", Color: "#8b5cf6"},
	{Type: types.PrecautionFallRisk, Label: "Fall Risk", Icon: "AlertTriangle", Color: "#ef4444"},
	{Type: types.PrecautionWheelchair, Label: "Wheelchair", Icon: "Accessibility", Color: "#06b6d4"},
	{Type: types.PrecautionHearingImpaired, Label: "Hearing Impaired", Icon: "EarOff", Color: "#f97316"},
	{Type: types.PrecautionVisionImpaired, Label: "Vision Impaired", Icon: "EyeOff", Color: "#6366f1"},
	{Type: types.PrecautionCognitive, Label: "Cognitive", Icon: "Brain", Color: "#ec4899"},
	{Type: types.PrecautionCardiac, Label: "Cardiac", Icon: "Heart", Color: "#dc2626"},
	{Type: types.PrecautionCustom, Label: "Custom", Icon: fallbackIcon, Color: fallbackColor},
}

// Catalog returns a copy of the precaution catalog for pickers
func Catalog() []CatalogEntry {
	out := make([]CatalogEntry, len(precautionCatalog))
	copy(out, precautionCatalog)
	return out
}

// LookupCatalog resolves display hints for a precaution type. Unknown
// types fall back to the generic icon and color.
func LookupCatalog(pt types.PrecautionType) CatalogEntry {
	for _, entry := range precautionCatalog {
		if entry.Type == pt {
			return entry
		}
	}
	return CatalogEntry{Type: pt, Label: string(pt), Icon: fallbackIcon, Color: fallbackColor}
}
