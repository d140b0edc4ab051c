package steps

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dbpkg "github.com/jonathan/seo-content-machine/internal/db"
)

func TestStepRegistry(t *testing.T) {
	require.Len(t, StepRegistry, len(Order))
	for _, stepName := range Order {
		def, ok := StepRegistry[stepName]
		require.True(t, ok, "Step %s should be in registry", stepName)
		assert.Equal(t, stepName, def.Name)
		assert.NotEmpty(t, def.Category)
	}
}

func TestStepRegistryCategories(t *testing.T) {
	categories := map[string][]string{
		dbpkg.CategoryResearch: {dbpkg.StepSERP, dbpkg.StepCompetitors},
		dbpkg.CategoryContent:  {dbpkg.StepOutline, dbpkg.StepDraft, dbpkg.StepHTML},
		dbpkg.CategoryReview:   {dbpkg.StepAudit, dbpkg.StepRewrite},
	}

	for category, stepNames := range categories {
		for _, stepName := range stepNames {
			assert.Equal(t, category, Category(stepName), "Step %s should be in category %s", stepName, category)
		}
	}
	assert.Empty(t, Category("unknown"))
}

func TestDependenciesPrecedeInOrder(t *testing.T) {
	position := map[string]int{}
	for i, name := range Order {
		position[name] = i
	}
	for name, def := range StepRegistry {
		for _, dep := range append(def.Dependencies, def.Optional...) {
			assert.Less(t, position[dep], position[name], "%s must come before %s", dep, name)
		}
	}
}

func TestDependencyError(t *testing.T) {
	err := &DependencyError{
		Step:                "test_step",
		MissingDependencies: []string{"dep1", "dep2"},
	}

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "missing dependencies")
	assert.Equal(t, "test_step", err.Step)
	assert.Equal(t, []string{"dep1", "dep2"}, err.MissingDependencies)
}

func TestValidateDependencies(t *testing.T) {
	err := ValidateDependencies(nil, "unknown_step")
	assert.ErrorContains(t, err, "unknown step")

	assert.NoError(t, ValidateDependencies(nil, dbpkg.StepOutline))

	err = ValidateDependencies(map[string]bool{dbpkg.StepOutline: true}, dbpkg.StepHTML)
	var depErr *DependencyError
	require.ErrorAs(t, err, &depErr)
	assert.Equal(t, []string{dbpkg.StepDraft}, depErr.MissingDependencies)
}

func TestAvailableAndBlockedSteps(t *testing.T) {
	completed := Completed([]dbpkg.ArtifactSummary{
		{Step: dbpkg.StepSERP},
		{Step: dbpkg.StepCompetitors},
		{Step: dbpkg.StepOutline},
	})

	assert.Equal(t, []string{dbpkg.StepDraft}, GetAvailableSteps(completed))
	assert.Equal(t, []string{dbpkg.StepHTML, dbpkg.StepAudit, dbpkg.StepRewrite}, GetBlockedSteps(completed))

	assert.Equal(t, []string{dbpkg.StepSERP, dbpkg.StepOutline}, GetAvailableSteps(nil))
}
