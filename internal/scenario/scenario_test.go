package scenario

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuildPromptIncludesRoleComplianceSuffix(t *testing.T) {
	prompt := BuildPrompt(AngryExistingCustomer, "Intermediate")
	require.Contains(t, prompt, RoleComplianceSuffix)
	require.Contains(t, prompt, DifficultyModifiers["Intermediate"])
}

func TestBuildPromptWithNoDifficultyOmitsModifier(t *testing.T) {
	prompt := BuildPrompt(ColdUninterestedProspect, "")
	for _, m := range DifficultyModifiers {
		require.False(t, strings.Contains(prompt, m))
	}
}

func TestBuildPromptUnknownScenarioFallsBackToDefault(t *testing.T) {
	prompt := BuildPrompt(ID("not-a-real-scenario"), "")
	def, _ := Lookup(Default)
	require.Contains(t, prompt, def.Addendum)
}

func TestAllFourBuiltinsResolve(t *testing.T) {
	for _, id := range []ID{
		PriceSensitiveSmallBusiness,
		EnterpriseProcurementOfficer,
		AngryExistingCustomer,
		ColdUninterestedProspect,
	} {
		_, ok := Lookup(id)
		require.True(t, ok, "scenario %s should resolve", id)
	}
}
