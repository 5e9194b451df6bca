package user

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitName(t *testing.T) {
	f, l := SplitName("  Ann  Marie Lee ")
	assert.Equal(t, "Ann", f)
	assert.Equal(t, "Marie Lee", l)

	f, l = SplitName("Cher")
	assert.Equal(t, "Cher", f)
	assert.Empty(t, l)
}

func TestNamePatch_Fields(t *testing.T) {
	first, blank := " Ann ", "  "

	fields, err := NamePatch{FirstName: &first}.Fields()
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"firstName": "Ann"}, fields)

	_, err = NamePatch{FirstName: &blank}.Fields()
	assert.ErrorIs(t, err, ErrInvalidFirstName)

	fields, err = NamePatch{LastName: &blank}.Fields()
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"lastName": ""}, fields)
}

func TestAdminEmails(t *testing.T) {
	a := ParseAdminEmails(" Owner@Example.com, ,ops@example.com")
	assert.True(t, a.Contains("owner@example.com"))
	assert.True(t, a.Contains("OPS@example.com "))
	assert.False(t, a.Contains("someone@example.com"))
}

func TestProfile_DisplayName(t *testing.T) {
	assert.Equal(t, "Ann Lee", Profile{FirstName: "Ann", LastName: "Lee"}.DisplayName())
	assert.Equal(t, "a@b.c", Profile{Email: "a@b.c"}.DisplayName())
}
