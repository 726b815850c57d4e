// AngelaMos | 2026
// seed_test.go

package seed

import (
	"net/http"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/thesis-archive/internal/department"
)

func TestDepartmentsAreValidAndUnique(t *testing.T) {
	v := validator.New(validator.WithRequiredStructEnabled())
	seen := map[string]bool{}

	for _, d := range Departments {
		require.NoError(t, v.Struct(d), d.Code)
		assert.Equal(t, department.NormalizeCode(d.Code), d.Code)
		assert.False(t, seen[d.Code], "duplicate code %s", d.Code)
		seen[d.Code] = true
	}
}

func TestMinimalPDFPassesSniffing(t *testing.T) {
	assert.Equal(t, "application/pdf", http.DetectContentType(minimalPDF))
}
