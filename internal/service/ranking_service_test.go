package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campushub/admissions-agent-api/internal/models"
	appErrors "github.com/campushub/admissions-agent-api/pkg/errors"
)

func applicants(pairs ...interface{}) []models.Applicant {
	out := make([]models.Applicant, 0, len(pairs)/2)
	for i := 0; i < len(pairs); i += 2 {
		out = append(out, models.Applicant{
			ID:       pairs[i].(string),
			Name:     pairs[i].(string),
			APSScore: pairs[i+1].(float64),
		})
	}
	return out
}

func names(entries []models.RankedApplicant) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.ApplicantName
	}
	return out
}

func TestClassifyBasicPartition(t *testing.T) {
	result, err := ClassifyApplicants(RankingInput{
		Applicants:  applicants("A", 90.0, "B", 80.0, "C", 80.0, "D", 70.0),
		IntakeLimit: 2,
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"A", "B"}, names(result.AutoAccept))
	assert.Empty(t, result.Conditional)
	assert.Equal(t, []string{"C"}, names(result.Waitlist), "C ties the cutoff but sits outside the limit")
	assert.Equal(t, []string{"D"}, names(result.Rejected))
	assert.Equal(t, 80.0, result.CutoffAPS)
}

func TestClassifyRanksAreContiguousAcrossTiers(t *testing.T) {
	result, err := ClassifyApplicants(RankingInput{
		Applicants:  applicants("A", 90.0, "B", 80.0, "C", 80.0, "D", 70.0),
		IntakeLimit: 2,
	})
	require.NoError(t, err)

	all := map[int]string{}
	for _, tier := range [][]models.RankedApplicant{result.AutoAccept, result.Conditional, result.Waitlist, result.Rejected} {
		for _, e := range tier {
			all[e.Rank] = e.ApplicantName
		}
	}
	require.Len(t, all, 4)
	for rank := 1; rank <= 4; rank++ {
		assert.Contains(t, all, rank, "rank %d missing", rank)
	}
}

func TestClassifyFewerApplicantsThanSeats(t *testing.T) {
	result, err := ClassifyApplicants(RankingInput{
		Applicants:  applicants("A", 50.0, "B", 40.0, "C", 30.0),
		IntakeLimit: 5,
	})
	require.NoError(t, err)

	assert.Len(t, result.AutoAccept, 3, "everyone is admitted when seats outnumber applicants")
	assert.Empty(t, result.Waitlist)
	assert.Empty(t, result.Rejected)
	assert.Equal(t, 0.0, result.CutoffAPS)
}

func TestClassifyEmptyInput(t *testing.T) {
	result, err := ClassifyApplicants(RankingInput{IntakeLimit: 10})
	require.NoError(t, err)

	assert.NotNil(t, result.AutoAccept)
	assert.NotNil(t, result.Conditional)
	assert.NotNil(t, result.Waitlist)
	assert.NotNil(t, result.Rejected)
	assert.Zero(t, result.Size())
}

func TestClassifyInvalidIntakeLimit(t *testing.T) {
	for _, limit := range []int{0, -3} {
		_, err := ClassifyApplicants(RankingInput{
			Applicants:  applicants("A", 90.0),
			IntakeLimit: limit,
		})
		require.Error(t, err)
		appErr := appErrors.FromError(err)
		assert.Equal(t, appErrors.ErrInvalidArgument.Code, appErr.Code)
	}
}

func TestClassifyTieBreakIsInputOrder(t *testing.T) {
	// Three identical scores around the cutoff: the stable sort must keep
	// input order, making the outcome deterministic.
	result, err := ClassifyApplicants(RankingInput{
		Applicants:  applicants("first", 80.0, "second", 80.0, "third", 80.0),
		IntakeLimit: 2,
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"first", "second"}, names(result.AutoAccept))
	assert.Equal(t, []string{"third"}, names(result.Waitlist))

	again, err := ClassifyApplicants(RankingInput{
		Applicants:  applicants("first", 80.0, "second", 80.0, "third", 80.0),
		IntakeLimit: 2,
	})
	require.NoError(t, err)
	assert.Equal(t, result, again)
}

func TestClassifyExplicitStricterCutoff(t *testing.T) {
	cutoff := 85.0
	result, err := ClassifyApplicants(RankingInput{
		Applicants:  applicants("A", 90.0, "B", 80.0, "C", 70.0),
		IntakeLimit: 2,
		CutoffAPS:   &cutoff,
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"A"}, names(result.AutoAccept))
	assert.Equal(t, []string{"B"}, names(result.Conditional), "inside the limit but under the explicit cutoff")
	assert.Equal(t, []string{"C"}, names(result.Rejected))
	assert.Equal(t, cutoff, result.CutoffAPS)
}

func TestClassifyExplicitLooserCutoff(t *testing.T) {
	cutoff := 60.0
	result, err := ClassifyApplicants(RankingInput{
		Applicants:  applicants("A", 90.0, "B", 80.0, "C", 70.0, "D", 50.0),
		IntakeLimit: 2,
		CutoffAPS:   &cutoff,
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"A", "B"}, names(result.AutoAccept))
	assert.Equal(t, []string{"C"}, names(result.Waitlist), "above cutoff but outside the limit")
	assert.Equal(t, []string{"D"}, names(result.Rejected))
}

func TestClassifyPartitionLaw(t *testing.T) {
	in := applicants("A", 91.5, "B", 88.0, "C", 88.0, "D", 76.25, "E", 76.25, "F", 12.0, "G", 99.0)
	for _, limit := range []int{1, 2, 3, 6, 7, 50} {
		result, err := ClassifyApplicants(RankingInput{Applicants: in, IntakeLimit: limit})
		require.NoError(t, err, "limit %d", limit)
		assert.Equal(t, len(in), result.Size(), "tiers must partition the input at limit %d", limit)
		assert.LessOrEqual(t, len(result.AutoAccept), limit)
	}
}

func TestClassifyDoesNotMutateInput(t *testing.T) {
	in := applicants("low", 10.0, "high", 90.0)
	_, err := ClassifyApplicants(RankingInput{Applicants: in, IntakeLimit: 1})
	require.NoError(t, err)
	assert.Equal(t, "low", in[0].Name, "caller slice must keep its order")
}
