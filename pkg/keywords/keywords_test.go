package keywords

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestApprovalMatchesWholeWords(t *testing.T) {
	assert.True(t, Approval.Matches("APPROVE"))
	assert.True(t, Approval.Matches("yes, go ahead"))
	assert.True(t, Approval.Matches("I think this is VALID."))
	assert.True(t, Approval.Matches("ok"))
}

func TestBoundarySafety(t *testing.T) {
	// "DISAPPROVE" must never satisfy the approval check.
	assert.False(t, Approval.Matches("DISAPPROVE"))
	assert.False(t, Approval.Matches("I strongly disapprove of this"))

	// "KNOW" must never satisfy the rejection check via "NO".
	assert.False(t, Rejection.Matches("KNOW"))
	assert.False(t, Rejection.Matches("I know this already"))
	assert.True(t, Rejection.Matches("no, stop"))
}

func TestUnderscoreIsWordCharacter(t *testing.T) {
	// Compound keywords do not leak their parts.
	assert.False(t, Contains("ACCEPT_PARTIAL", "ACCEPT"))
	assert.False(t, Contains("SKIP_STAGE", "SKIP"))
	assert.True(t, Contains("ACCEPT_PARTIAL", "ACCEPT_PARTIAL"))
}

func TestMatchingIsCaseInsensitive(t *testing.T) {
	assert.True(t, Contains("please retry", "RETRY"))
	assert.True(t, Contains("TRUNCATE it", "truncate"))
}

func TestEmptyInputs(t *testing.T) {
	assert.False(t, Approval.Matches(""))
	assert.False(t, Contains("", "STOP"))
	assert.False(t, Contains("STOP", ""))
}

func TestFirstMatchOrderIsPrecedence(t *testing.T) {
	rules := []Rule{
		{Name: "rejection", Set: Rejection},
		{Name: "approval", Set: Approval},
	}

	// Both kinds present: the earlier rule wins.
	assert.Equal(t, "rejection", FirstMatch("APPROVE but also REJECT", rules))
	assert.Equal(t, "approval", FirstMatch("APPROVE", rules))
	assert.Equal(t, "", FirstMatch("maybe later", rules))
}

func TestLastResponse(t *testing.T) {
	assert.Equal(t, "", LastResponse(nil))
	assert.Equal(t, "", LastResponse([]ResponseEntry{}))

	responses := []ResponseEntry{
		{Question: "q1", Text: "first"},
		{Question: "q2", Text: "  second  "},
	}
	assert.Equal(t, "second", LastResponse(responses))
}
