// internal/workers/garage/diagnose-vehicle/models.go
package diagnosevehicle

import "garage-advisor/internal/models"

type Input = models.DiagnosisRequest

type Output struct {
	Diagnosis string                    `json:"diagnosis"`
	Sections  []models.DiagnosisSection `json:"sections"`
}
