package assessment

// ResourceType groups support resources in the catalog.
type ResourceType string

const (
	ResourceCrisis       ResourceType = "crisis"
	ResourceTherapy      ResourceType = "therapy"
	ResourceSupportGroup ResourceType = "support_group"
	ResourceSelfHelp     ResourceType = "self_help"
)

// SupportResource is a single entry of the fixed support catalog.
type SupportResource struct {
	Type        ResourceType `json:"type"`
	Name        string       `json:"name"`
	Description string       `json:"description"`
	Contact     string       `json:"contact"`
	URL         string       `json:"url,omitempty"`
}

var catalog = []SupportResource{
	{
		Type:        ResourceCrisis,
		Name:        "National Suicide Prevention Lifeline",
		Description: "24/7 crisis support and suicide prevention",
		Contact:     "988",
		URL:         "https://suicidepreventionlifeline.org",
	},
	{
		Type:        ResourceCrisis,
		Name:        "Crisis Text Line",
		Description: "Text-based crisis support",
		Contact:     "Text HOME to 741741",
	},
	{
		Type:        ResourceTherapy,
		Name:        "Psychology Today",
		Description: "Find licensed therapists in your area",
		Contact:     "Online directory",
		URL:         "https://www.psychologytoday.com",
	},
	{
		Type:        ResourceTherapy,
		Name:        "SAMHSA National Helpline",
		Description: "Treatment referral and information service",
		Contact:     "1-800-662-4357",
		URL:         "https://www.samhsa.gov/find-help/national-helpline",
	},
	{
		Type:        ResourceSupportGroup,
		Name:        "NAMI Support Groups",
		Description: "Peer support groups for mental health",
		Contact:     "Local chapters available",
		URL:         "https://www.nami.org/Support-Education/Support-Groups",
	},
	{
		Type:        ResourceSelfHelp,
		Name:        "MindTools Stress Management",
		Description: "Self-help resources for stress and anxiety",
		Contact:     "Online resources",
		URL:         "https://www.mindtools.com/stress-management",
	},
}

// Catalog returns a copy of the full support catalog in its fixed order.
func Catalog() []SupportResource {
	return append([]SupportResource(nil), catalog...)
}

// resourcesOfType returns every catalog entry of type t, in catalog order.
func resourcesOfType(t ResourceType) []SupportResource {
	var out []SupportResource
	for _, r := range catalog {
		if r.Type == t {
			out = append(out, r)
		}
	}
	return out
}
