package composition

import "strings"

// Plan is a subscription tier controlling per-type media asset quotas.
type Plan string

const (
	PlanFree     Plan = "free"
	PlanStandard Plan = "standard"
	PlanPremium  Plan = "premium"
)

var planQuotas = map[Plan]map[MediaType]int{
	PlanFree: {
		MediaImage: 2,
		MediaVideo: 0,
		MediaAudio: 0,
	},
	PlanStandard: {
		MediaImage: 6,
		MediaVideo: 1,
		MediaAudio: 1,
	},
	PlanPremium: {
		MediaImage: 12,
		MediaVideo: 3,
		MediaAudio: 3,
	},
}

// ParsePlan maps a configuration string to a plan tier, defaulting to free.
func ParsePlan(value string) Plan {
	switch Plan(strings.ToLower(strings.TrimSpace(value))) {
	case PlanStandard:
		return PlanStandard
	case PlanPremium:
		return PlanPremium
	default:
		return PlanFree
	}
}

// Quota returns the number of assets of the given type the plan allows.
func (p Plan) Quota(t MediaType) int {
	quotas, ok := planQuotas[p]
	if !ok {
		quotas = planQuotas[PlanFree]
	}
	return quotas[t]
}
