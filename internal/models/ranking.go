package models

// Applicant is one ranking input entry.
type Applicant struct {
	ID       string  `db:"id" json:"id"`
	Name     string  `db:"name" json:"name"`
	APSScore float64 `db:"aps_score" json:"apsScore"`
}

// AdmissionTier names one of the four disjoint outcome buckets.
type AdmissionTier string

const (
	TierAutoAccept  AdmissionTier = "auto_accept"
	TierConditional AdmissionTier = "conditional"
	TierWaitlist    AdmissionTier = "waitlist"
	TierRejected    AdmissionTier = "rejected"
)

// RankedApplicant is one classified output entry. Rank is the 1-based
// position after sorting, contiguous across the whole output, never reset
// per tier.
type RankedApplicant struct {
	Rank          int     `json:"rank"`
	ApplicantName string  `json:"applicantName"`
	APSScore      float64 `json:"apsScore"`
}

// RankingResult partitions the full input set into four disjoint,
// rank-ordered tiers.
type RankingResult struct {
	AutoAccept  []RankedApplicant `json:"autoAccept"`
	Conditional []RankedApplicant `json:"conditional"`
	Waitlist    []RankedApplicant `json:"waitlist"`
	Rejected    []RankedApplicant `json:"rejected"`
	CutoffAPS   float64           `json:"cutoffAps"`
	IntakeLimit int               `json:"intakeLimit"`
}

// Size returns the total number of classified applicants across all tiers.
func (r RankingResult) Size() int {
	return len(r.AutoAccept) + len(r.Conditional) + len(r.Waitlist) + len(r.Rejected)
}
