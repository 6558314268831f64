// Package scenario holds the four built-in trainee scenarios (spec.md §6)
// and assembles the persona prompt: base prompt + scenario addendum +
// role-compliance suffix + optional difficulty modifier (spec.md §3, §9
// glossary "Persona prompt").
package scenario

import "fmt"

// ID identifies one of the built-in scenarios.
type ID string

const (
	PriceSensitiveSmallBusiness  ID = "price_sensitive_small_business"
	EnterpriseProcurementOfficer ID = "enterprise_procurement_officer"
	AngryExistingCustomer        ID = "angry_existing_customer"
	ColdUninterestedProspect     ID = "cold_uninterested_prospect"

	// Default is used when the trainee never calls scenario.select before
	// locking (spec.md §4.1 resolves scenario at user.audio.start).
	Default = PriceSensitiveSmallBusiness
)

// Persona describes one built-in scenario.
type Persona struct {
	ID                ID
	Addendum          string
	FirstResponseNote string
}

var personas = map[ID]Persona{
	PriceSensitiveSmallBusiness: {
		ID: PriceSensitiveSmallBusiness,
		Addendum: "You run a small business on a tight budget. You are interested but every feature " +
			"has to justify its cost, and you compare everything to what you currently pay.",
		FirstResponseNote: "Open by asking about pricing or mentioning your budget constraints.",
	},
	EnterpriseProcurementOfficer: {
		ID: EnterpriseProcurementOfficer,
		Addendum: "You evaluate vendors for a large enterprise. You care about security reviews, " +
			"SLAs, procurement process, and multi-stakeholder sign-off more than the product itself.",
		FirstResponseNote: "Open by asking about the procurement process or compliance requirements.",
	},
	AngryExistingCustomer: {
		ID: AngryExistingCustomer,
		Addendum: "You are an existing customer who has had a bad experience recently (an outage or " +
			"billing error). You are frustrated and skeptical of anything the rep says at first.",
		FirstResponseNote: "Open with a complaint about the recent problem before anything else.",
	},
	ColdUninterestedProspect: {
		ID: ColdUninterestedProspect,
		Addendum: "You did not ask for this call. You are busy, mildly annoyed at being contacted, " +
			"and need to be given a clear reason to keep listening within the first exchange.",
		FirstResponseNote: "Open with a dismissive or hurried remark, testing whether the rep can hook you.",
	},
}

// BasePrompt is the shared instruction preamble for every scenario.
const BasePrompt = "You are roleplaying as a customer in a sales training call. " +
	"Respond in character as the customer only; never break character to coach or assist the trainee."

// RoleComplianceSuffix is appended to every scenario prompt to keep the LLM
// from slipping into agent/support-rep behavior (spec.md §6).
const RoleComplianceSuffix = "Stay strictly in the customer role for the entire conversation. " +
	"Do not offer to help, do not give sales advice, and do not narrate stage directions — " +
	"speak only as the customer would."

// DifficultyModifiers are concatenated onto the persona prompt once a
// difficulty level is resolved (spec.md §4.9).
var DifficultyModifiers = map[string]string{
	"Beginner":     "Be relatively easy to persuade and raise only the most obvious objections.",
	"Intermediate": "Raise realistic objections and push back at a moderate pace.",
	"Advanced":     "Be demanding: raise multiple layered objections and concede nothing without a strong argument.",
}

// Lookup returns the persona for id and whether id is a built-in scenario.
// It does not fall back: an unknown id returns ok=false (scenario.select on
// an unknown id is treated as a no-op per spec.md §4.1). BuildPrompt is the
// one that falls back to Default.
func Lookup(id ID) (Persona, bool) {
	p, ok := personas[id]
	return p, ok
}

// BuildPrompt assembles the full persona prompt for the given scenario and
// resolved difficulty level. difficultyLevel may be empty (autoDifficulty
// disabled produces no modifier per spec.md §8 boundary behavior).
func BuildPrompt(id ID, difficultyLevel string) string {
	p, ok := Lookup(id)
	if !ok {
		p = personas[Default]
	}
	prompt := fmt.Sprintf("%s %s %s", BasePrompt, p.Addendum, p.FirstResponseNote)
	prompt = prompt + " " + RoleComplianceSuffix
	if modifier, ok := DifficultyModifiers[difficultyLevel]; ok && difficultyLevel != "" {
		prompt = prompt + " " + modifier
	}
	return prompt
}
