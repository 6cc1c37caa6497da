package types

// Patient is the read-only directory entry consumed for selection
// dropdowns. The directory is owned by a separate collaborator.
type Patient struct {
	ID        string `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	MRN       string `json:"mrn,omitempty"` // Medical Record Number
}

// DisplayName renders the patient's full name for hold and precaution views
func (p Patient) DisplayName() string {
	if p.FirstName == "" {
		return p.LastName
	}
	if p.LastName == "" {
		return p.FirstName
	}
	return p.FirstName + " " + p.LastName
}
