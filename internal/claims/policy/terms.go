// Package policy holds the static OPD policy terms the adjudication core is
// constructed with. Terms are loaded once, validated, and then only read.
package policy

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"

	pstrings "opdclaims/pkg/platform/strings"
)

const dateLayout = "2006-01-02"

// Terms is a complete policy definition.
type Terms struct {
	PolicyID          string            `yaml:"policy_id" json:"policy_id"`
	PolicyName        string            `yaml:"policy_name" json:"policy_name"`
	EffectiveDate     string            `yaml:"effective_date" json:"effective_date"`
	WaitingPeriods    WaitingPeriods    `yaml:"waiting_periods" json:"waiting_periods"`
	Exclusions        []string          `yaml:"exclusions" json:"exclusions"`
	NetworkHospitals  []string          `yaml:"network_hospitals" json:"network_hospitals"`
	Coverage          CoverageDetails   `yaml:"coverage_details" json:"coverage_details"`
	ClaimRequirements ClaimRequirements `yaml:"claim_requirements" json:"claim_requirements"`

	// derived by prepare
	effective        time.Time
	exclusionTerms   []string
	networkHospitals map[string]struct{}
	hash             string
}

type WaitingPeriods struct {
	InitialWaiting   int      `yaml:"initial_waiting" json:"initial_waiting"`
	SpecificAilments Ailments `yaml:"specific_ailments" json:"specific_ailments"`
}

// AilmentWait is a condition-specific waiting period in days.
type AilmentWait struct {
	Condition string `yaml:"condition" json:"condition"`
	Days      int    `yaml:"days" json:"days"`
}

// Ailments keeps declaration order, which decides which ailment is reported
// when a diagnosis mentions several.
type Ailments []AilmentWait

// UnmarshalYAML accepts either a `condition: days` mapping or a list of
// {condition, days} entries.
func (a *Ailments) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.MappingNode:
		out := make(Ailments, 0, len(node.Content)/2)
		for i := 0; i+1 < len(node.Content); i += 2 {
			var days int
			if err := node.Content[i+1].Decode(&days); err != nil {
				return fmt.Errorf("specific_ailments.%s: %w", node.Content[i].Value, err)
			}
			out = append(out, AilmentWait{Condition: node.Content[i].Value, Days: days})
		}
		*a = out
	case yaml.SequenceNode:
		var list []AilmentWait
		if err := node.Decode(&list); err != nil {
			return err
		}
		*a = list
	default:
		return fmt.Errorf("specific_ailments must be a mapping or a list")
	}
	return nil
}

// CoverageDetails holds the policy-wide limits and the per-category terms.
// In documents the categories sit next to the limits, keyed by category
// name; a nested `categories` mapping is also accepted.
type CoverageDetails struct {
	AnnualLimit   float64                  `yaml:"annual_limit" json:"annual_limit"`
	PerClaimLimit float64                  `yaml:"per_claim_limit" json:"per_claim_limit"`
	Categories    map[string]CategoryTerms `yaml:"categories" json:"categories"`
}

func (c *CoverageDetails) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("coverage_details must be a mapping")
	}
	out := CoverageDetails{Categories: make(map[string]CategoryTerms)}
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, value := node.Content[i].Value, node.Content[i+1]
		var err error
		switch key {
		case "annual_limit":
			err = value.Decode(&out.AnnualLimit)
		case "per_claim_limit":
			err = value.Decode(&out.PerClaimLimit)
		case "categories":
			err = out.decodeCategories(value)
		default:
			err = out.decodeCategory(key, value)
		}
		if err != nil {
			return fmt.Errorf("coverage_details.%s: %w", key, err)
		}
	}
	*c = out
	return nil
}

func (c *CoverageDetails) decodeCategories(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("must be a mapping of category terms")
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		if err := c.decodeCategory(node.Content[i].Value, node.Content[i+1]); err != nil {
			return fmt.Errorf("%s: %w", node.Content[i].Value, err)
		}
	}
	return nil
}

// categoryFields are the keys a category entry may carry. Strict decoding
// does not reach into custom unmarshalers.
var categoryFields = map[string]bool{
	"covered":                    true,
	"sub_limit":                  true,
	"copay_percentage":           true,
	"network_discount":           true,
	"pre_authorization_required": true,
}

func (c *CoverageDetails) decodeCategory(key string, node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("category terms must be a mapping")
	}
	if _, dup := c.Categories[key]; dup {
		return fmt.Errorf("category %s declared twice", key)
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		if field := node.Content[i].Value; !categoryFields[field] {
			return fmt.Errorf("field %s not found in category terms", field)
		}
	}
	var ct CategoryTerms
	if err := node.Decode(&ct); err != nil {
		return err
	}
	c.Categories[key] = ct
	return nil
}

// CategoryTerms are the per-category coverage rules. A nil SubLimit means
// the category is only bounded by the per-claim and annual limits.
type CategoryTerms struct {
	Covered                  bool     `yaml:"covered" json:"covered"`
	SubLimit                 *float64 `yaml:"sub_limit" json:"sub_limit,omitempty"`
	CopayPercentage          float64  `yaml:"copay_percentage" json:"copay_percentage"`
	NetworkDiscount          float64  `yaml:"network_discount" json:"network_discount"`
	PreAuthorizationRequired bool     `yaml:"pre_authorization_required" json:"pre_authorization_required"`
}

type ClaimRequirements struct {
	MinimumClaimAmount float64 `yaml:"minimum_claim_amount" json:"minimum_claim_amount"`
}

// EffectiveFrom is the first day treatment is covered.
func (t *Terms) EffectiveFrom() time.Time {
	return t.effective
}

// Category returns the terms for a category key such as "dental".
func (t *Terms) Category(key string) (CategoryTerms, bool) {
	ct, ok := t.Coverage.Categories[key]
	return ct, ok
}

// ExclusionTerms returns the folded exclusion list in policy order.
func (t *Terms) ExclusionTerms() []string {
	return t.exclusionTerms
}

// IsNetworkHospital matches the hospital name case-insensitively and exactly.
func (t *Terms) IsNetworkHospital(name string) bool {
	folded := pstrings.Fold(name)
	if folded == "" {
		return false
	}
	_, ok := t.networkHospitals[folded]
	return ok
}

// Hash is the SHA-256 digest of the source document, prefixed "sha256:".
func (t *Terms) Hash() string {
	return t.hash
}

// prepare checks structural rules and derives the lookup fields.
func (t *Terms) prepare() error {
	if t.EffectiveDate == "" {
		return fmt.Errorf("effective_date is required")
	}
	effective, err := time.Parse(dateLayout, t.EffectiveDate)
	if err != nil {
		return fmt.Errorf("effective_date must be YYYY-MM-DD: %w", err)
	}
	if t.WaitingPeriods.InitialWaiting < 0 {
		return fmt.Errorf("waiting_periods.initial_waiting must not be negative")
	}
	for _, a := range t.WaitingPeriods.SpecificAilments {
		if pstrings.Fold(a.Condition) == "" {
			return fmt.Errorf("waiting_periods.specific_ailments has an empty condition")
		}
		if a.Days < 0 {
			return fmt.Errorf("waiting period for %q must not be negative", a.Condition)
		}
	}
	if t.Coverage.AnnualLimit <= 0 {
		return fmt.Errorf("coverage_details.annual_limit must be positive")
	}
	if t.Coverage.PerClaimLimit <= 0 {
		return fmt.Errorf("coverage_details.per_claim_limit must be positive")
	}
	if len(t.Coverage.Categories) == 0 {
		return fmt.Errorf("coverage_details must define at least one category")
	}
	for key, ct := range t.Coverage.Categories {
		if ct.CopayPercentage < 0 || ct.CopayPercentage > 100 {
			return fmt.Errorf("category %s: copay_percentage must be within 0-100", key)
		}
		if ct.NetworkDiscount < 0 || ct.NetworkDiscount > 100 {
			return fmt.Errorf("category %s: network_discount must be within 0-100", key)
		}
		if ct.SubLimit != nil && *ct.SubLimit < 0 {
			return fmt.Errorf("category %s: sub_limit must not be negative", key)
		}
	}
	if t.ClaimRequirements.MinimumClaimAmount < 0 {
		return fmt.Errorf("claim_requirements.minimum_claim_amount must not be negative")
	}

	t.effective = effective
	t.exclusionTerms = pstrings.DedupeAndFold(t.Exclusions)
	t.networkHospitals = make(map[string]struct{}, len(t.NetworkHospitals))
	for _, h := range pstrings.DedupeAndFold(t.NetworkHospitals) {
		t.networkHospitals[h] = struct{}{}
	}
	return nil
}
