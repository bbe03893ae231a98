package service

import (
	"fmt"
	"sort"

	"github.com/campushub/admissions-agent-api/internal/models"
	appErrors "github.com/campushub/admissions-agent-api/pkg/errors"
)

// RankingInput carries everything the classifier needs. CutoffAPS, when set,
// overrides the derived cutoff score.
type RankingInput struct {
	Applicants  []models.Applicant
	IntakeLimit int
	CutoffAPS   *float64
}

// ClassifyApplicants partitions applicants into admission tiers against the
// intake limit. Pure function: no state, no I/O.
//
// Applicants are stable-sorted by APS score descending, so equal scores keep
// their input order; that tie-break is a documented policy, not an accident.
// Ranks run 1..N across the whole output regardless of tier. The cutoff is
// the explicit override when given, otherwise the score at rank L (the
// lowest score still inside the intake limit). With fewer applicants than
// the limit there is no cutoff applicant and everyone is auto-accepted.
func ClassifyApplicants(input RankingInput) (*models.RankingResult, error) {
	if input.IntakeLimit <= 0 {
		return nil, appErrors.Clone(appErrors.ErrInvalidArgument, "intake limit must be positive")
	}

	ranked := append([]models.Applicant(nil), input.Applicants...)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].APSScore > ranked[j].APSScore
	})

	limit := input.IntakeLimit
	result := &models.RankingResult{
		AutoAccept:  []models.RankedApplicant{},
		Conditional: []models.RankedApplicant{},
		Waitlist:    []models.RankedApplicant{},
		Rejected:    []models.RankedApplicant{},
		IntakeLimit: limit,
	}

	if len(ranked) == 0 {
		return result, nil
	}

	var cutoff float64
	hasCutoff := false
	switch {
	case input.CutoffAPS != nil:
		cutoff = *input.CutoffAPS
		hasCutoff = true
	case len(ranked) >= limit:
		cutoff = ranked[limit-1].APSScore
		hasCutoff = true
	}
	result.CutoffAPS = cutoff

	for i, applicant := range ranked {
		rank := i + 1
		entry := models.RankedApplicant{
			Rank:          rank,
			ApplicantName: applicant.Name,
			APSScore:      applicant.APSScore,
		}
		switch {
		case !hasCutoff:
			// Fewer applicants than seats: everyone is admitted outright.
			result.AutoAccept = append(result.AutoAccept, entry)
		case rank <= limit && applicant.APSScore >= cutoff:
			result.AutoAccept = append(result.AutoAccept, entry)
		case rank <= limit:
			// Inside the limit but under an explicit, stricter cutoff.
			result.Conditional = append(result.Conditional, entry)
		case applicant.APSScore >= cutoff:
			result.Waitlist = append(result.Waitlist, entry)
		default:
			result.Rejected = append(result.Rejected, entry)
		}
	}

	if err := checkPartition(result, len(ranked), limit); err != nil {
		return nil, err
	}
	return result, nil
}

// checkPartition asserts the output integrity the callers rely on: the tiers
// are a cardinality-preserving partition of the input and auto-accept never
// exceeds the intake limit.
func checkPartition(result *models.RankingResult, total, limit int) error {
	if result.Size() != total {
		return appErrors.Wrap(
			fmt.Errorf("classified %d of %d applicants", result.Size(), total),
			appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "ranking partition incomplete")
	}
	if len(result.AutoAccept) > limit {
		return appErrors.Wrap(
			fmt.Errorf("auto-accept %d exceeds intake %d", len(result.AutoAccept), limit),
			appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "ranking partition overflow")
	}
	return nil
}
