package models

import "time"

// Patient is the monitored subject registered from the dashboard
type Patient struct {
	ID                string    `json:"id"`
	Name              string    `json:"name"`
	Age               int       `json:"age"`
	Gender            string    `json:"gender"`
	Contact           string    `json:"contact"`
	EmergencyContact  string    `json:"emergencyContact"`
	MedicalConditions string    `json:"medicalConditions"`
	RegisteredAt      time.Time `json:"registeredAt"`
}

// PatientRegistration is the body of POST /api/register-patient
type PatientRegistration struct {
	Name              string `json:"name"`
	Age               int    `json:"age"`
	Gender            string `json:"gender"`
	Contact           string `json:"contact"`
	EmergencyContact  string `json:"emergencyContact"`
	MedicalConditions string `json:"medicalConditions"`
}

// PatientSummary is the subset of patient data sent to dashboard observers
type PatientSummary struct {
	Name   string `json:"name"`
	Age    int    `json:"age"`
	Gender string `json:"gender"`
}

// Summary returns the dashboard view of the patient
func (p Patient) Summary() PatientSummary {
	return PatientSummary{Name: p.Name, Age: p.Age, Gender: p.Gender}
}
