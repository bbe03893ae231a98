package dto

import "github.com/campushub/admissions-agent-api/internal/models"

// RankingApplicant is one inline classification input entry.
type RankingApplicant struct {
	ID       string  `json:"id"`
	Name     string  `json:"name" binding:"required"`
	APSScore float64 `json:"apsScore"`
}

// RankingRequest captures POST /rankings/classify.
type RankingRequest struct {
	Applicants  []RankingApplicant `json:"applicants" binding:"required"`
	IntakeLimit int                `json:"intakeLimit" binding:"required"`
	CutoffAPS   *float64           `json:"cutoffAps,omitempty"`
}

// Models converts the request entries into the internal applicant shape.
func (r RankingRequest) Models() []models.Applicant {
	out := make([]models.Applicant, 0, len(r.Applicants))
	for _, a := range r.Applicants {
		out = append(out, models.Applicant{ID: a.ID, Name: a.Name, APSScore: a.APSScore})
	}
	return out
}
