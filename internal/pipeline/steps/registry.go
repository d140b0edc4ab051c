// Package steps describes the article pipeline's steps and the order their
// dependencies impose.
package steps

import (
	"fmt"

	dbpkg "github.com/jonathan/seo-content-machine/internal/db"
)

// StepDefinition defines metadata for a pipeline step
type StepDefinition struct {
	Name         string
	Category     string
	Dependencies []string
	Optional     []string
}

// Order lists the steps in execution order.
var Order = []string{
	dbpkg.StepSERP,
	dbpkg.StepCompetitors,
	dbpkg.StepOutline,
	dbpkg.StepDraft,
	dbpkg.StepHTML,
	dbpkg.StepAudit,
	dbpkg.StepRewrite,
}

// StepRegistry holds all step definitions
var StepRegistry = map[string]StepDefinition{
	dbpkg.StepSERP: {
		Name:         dbpkg.StepSERP,
		Category:     dbpkg.CategoryResearch,
		Dependencies: []string{},
	},
	dbpkg.StepCompetitors: {
		Name:         dbpkg.StepCompetitors,
		Category:     dbpkg.CategoryResearch,
		Dependencies: []string{dbpkg.StepSERP},
	},
	// A supplied outline skips research entirely.
	dbpkg.StepOutline: {
		Name:         dbpkg.StepOutline,
		Category:     dbpkg.CategoryContent,
		Dependencies: []string{},
		Optional:     []string{dbpkg.StepSERP, dbpkg.StepCompetitors},
	},
	dbpkg.StepDraft: {
		Name:         dbpkg.StepDraft,
		Category:     dbpkg.CategoryContent,
		Dependencies: []string{dbpkg.StepOutline},
	},
	dbpkg.StepHTML: {
		Name:         dbpkg.StepHTML,
		Category:     dbpkg.CategoryContent,
		Dependencies: []string{dbpkg.StepDraft},
	},
	dbpkg.StepAudit: {
		Name:         dbpkg.StepAudit,
		Category:     dbpkg.CategoryReview,
		Dependencies: []string{dbpkg.StepHTML},
	},
	dbpkg.StepRewrite: {
		Name:         dbpkg.StepRewrite,
		Category:     dbpkg.CategoryReview,
		Dependencies: []string{dbpkg.StepAudit},
	},
}

// Category returns the category of a step, or "" for an unknown step.
func Category(step string) string {
	return StepRegistry[step].Category
}

// DependencyError represents a dependency validation error
type DependencyError struct {
	Step                string
	MissingDependencies []string
}

func (e *DependencyError) Error() string {
	return fmt.Sprintf("step %s has missing dependencies: %v", e.Step, e.MissingDependencies)
}

// ValidateDependencies checks that every required dependency of stepName is
// in completed.
func ValidateDependencies(completed map[string]bool, stepName string) error {
	def, ok := StepRegistry[stepName]
	if !ok {
		return fmt.Errorf("unknown step: %s", stepName)
	}

	var missing []string
	for _, dep := range def.Dependencies {
		if !completed[dep] {
			missing = append(missing, dep)
		}
	}
	if len(missing) > 0 {
		return &DependencyError{Step: stepName, MissingDependencies: missing}
	}
	return nil
}

// Completed builds the completed-step set from a run's artifacts.
func Completed(artifacts []dbpkg.ArtifactSummary) map[string]bool {
	completed := make(map[string]bool, len(artifacts))
	for _, a := range artifacts {
		completed[a.Step] = true
	}
	return completed
}

// GetAvailableSteps returns steps not yet completed whose dependencies are met, in Order.
func GetAvailableSteps(completed map[string]bool) []string {
	available := []string{}
	for _, name := range Order {
		if completed[name] {
			continue
		}
		if ValidateDependencies(completed, name) == nil {
			available = append(available, name)
		}
	}
	return available
}

// GetBlockedSteps returns steps not yet completed whose dependencies are missing, in Order.
func GetBlockedSteps(completed map[string]bool) []string {
	blocked := []string{}
	for _, name := range Order {
		if completed[name] {
			continue
		}
		if ValidateDependencies(completed, name) != nil {
			blocked = append(blocked, name)
		}
	}
	return blocked
}
