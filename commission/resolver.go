/*
resolver.go - Selects the single applicable commission rule for a sale

PURPOSE:
  Maps a sale's classification attributes to exactly one Rule, or to a
  sentinel outcome meaning "manual" or "no rule". The caller treats both
  sentinels as "cannot auto-calculate" and falls back to manual entry.

ALGORITHM:
  1. Fetch settings for (operator, partner). None → no_rule/no_setting.
  2. Pick the setting: exact partner match, else operator-wide, else first.
  3. Manual setting → manual outcome. Rules are not even loaded.
  4. Fetch rules. None → no_rule/no_rules.
  5. Classify the NIF (only when the setting differentiates by NIF).
  6. Keep rules matching sale type, NIF class, loyalty symmetry and the
     optional category / client-type / portfolio filters.
  7. Order the matches by specificity, then Position, then ID; take the first.
  8. No match → fallback: the catch-all rule of the sale type (NIF "all",
     loyalty-independent, every optional filter at its default).

SPECIFICITY:
  A matching rule scores one weight per non-wildcard predicate. Higher
  weights dominate every combination of lower ones:

    client category  16
    NIF class         8
    loyalty term      4
    client type       2
    portfolio         1

  So a category-specific rule always beats a category-general one, and a
  5xx rule beats an "all" rule for a 5xx client.

CONCURRENCY:
  Resolver holds no mutable state; it is safe for concurrent use.
*/
package commission

import (
	"context"
	"sort"

	"github.com/hugoalbmartins/Leiritrix-sub000/metrics"
)

// =============================================================================
// QUERY & RESOLUTION
// =============================================================================

// Query carries the sale attributes used for rule resolution.
type Query struct {
	OperatorID    string
	PartnerID     string // empty = no partner
	SaleType      SaleType
	ClientNIF     string
	LoyaltyMonths int

	// Extended matching; zero values mean "not supplied".
	ClientCategoryID *string
	ClientType       ClientType
	PortfolioStatus  string
}

// Validate rejects queries that cannot be resolved meaningfully.
func (q Query) Validate() error {
	if q.OperatorID == "" {
		return &ValidationError{Field: "operator_id", Message: "is required"}
	}
	if !q.SaleType.Valid() {
		return &ValidationError{Field: "sale_type", Message: "unknown sale type " + string(q.SaleType)}
	}
	if q.LoyaltyMonths < 0 {
		return &ValidationError{Field: "loyalty_months", Message: "must not be negative"}
	}
	return nil
}

// Outcome is the tri-state result of a resolution.
type Outcome string

const (
	OutcomeMatched Outcome = "matched"
	OutcomeManual  Outcome = "manual"
	OutcomeNoRule  Outcome = "no_rule"
)

// Reason explains an OutcomeNoRule.
type Reason string

const (
	ReasonNone      Reason = ""
	ReasonNoSetting Reason = "no_setting"
	ReasonNoRules   Reason = "no_rules"
	ReasonNoMatch   Reason = "no_match"
)

// Resolution is the result of resolving a Query.
type Resolution struct {
	Outcome  Outcome
	Reason   Reason
	Setting  *Setting // nil when no setting was found
	Rule     *Rule    // set only for OutcomeMatched
	NifType  NifType
	Fallback bool // the rule came from the fallback search
}

// CanCalculate reports whether the resolution carries a rule to calculate with.
func (r Resolution) CanCalculate() bool {
	return r.Outcome == OutcomeMatched && r.Rule != nil
}

func noRule(setting *Setting, reason Reason) Resolution {
	return Resolution{Outcome: OutcomeNoRule, Reason: reason, Setting: setting, NifType: NifAll}
}

// =============================================================================
// RESOLVER
// =============================================================================

// Resolver selects rules through a RuleReader.
type Resolver struct {
	Rules   RuleReader
	Metrics *metrics.Metrics
}

// NewResolver creates a Resolver. m may be nil.
func NewResolver(rules RuleReader, m *metrics.Metrics) *Resolver {
	return &Resolver{Rules: rules, Metrics: m}
}

// Resolve runs the full algorithm: settings lookup, setting choice, rule match.
func (r *Resolver) Resolve(ctx context.Context, q Query) (Resolution, error) {
	if err := q.Validate(); err != nil {
		return Resolution{}, err
	}

	settings, err := r.Rules.GetSettings(ctx, q.OperatorID, q.PartnerID)
	if err != nil {
		return Resolution{}, storeErr("get settings", err)
	}
	return r.ResolveWithSettings(ctx, settings, q)
}

// ResolveWithSettings resolves against a caller-supplied candidate setting
// list. The recalculation job uses it with automatic settings only.
func (r *Resolver) ResolveWithSettings(ctx context.Context, settings []Setting, q Query) (Resolution, error) {
	if err := q.Validate(); err != nil {
		return Resolution{}, err
	}

	res, err := r.resolve(ctx, settings, q)
	if err == nil {
		r.Metrics.IncrementResolution(string(res.Outcome), string(res.Reason))
	}
	return res, err
}

func (r *Resolver) resolve(ctx context.Context, settings []Setting, q Query) (Resolution, error) {
	setting, ok := SelectSetting(settings, q.PartnerID)
	if !ok {
		return noRule(nil, ReasonNoSetting), nil
	}

	if setting.CommissionType == CommissionManual {
		return Resolution{Outcome: OutcomeManual, Setting: &setting, NifType: NifAll}, nil
	}

	rules, err := r.Rules.GetRules(ctx, setting.ID)
	if err != nil {
		return Resolution{}, storeErr("get rules", err)
	}
	if len(rules) == 0 {
		return noRule(&setting, ReasonNoRules), nil
	}

	nifType := effectiveNifType(setting, q.ClientNIF)
	rule, fallback := MatchRule(rules, q, nifType)
	if rule == nil {
		res := noRule(&setting, ReasonNoMatch)
		res.NifType = nifType
		return res, nil
	}

	return Resolution{
		Outcome:  OutcomeMatched,
		Setting:  &setting,
		Rule:     rule,
		NifType:  nifType,
		Fallback: fallback,
	}, nil
}

// =============================================================================
// SETTING SELECTION
// =============================================================================

// SelectSetting picks the setting for partnerID: the exact partner match,
// else the operator-wide one, else the first. Candidates are put into
// partner-scoped-first, then ID order so duplicates resolve deterministically.
func SelectSetting(settings []Setting, partnerID string) (Setting, bool) {
	if len(settings) == 0 {
		return Setting{}, false
	}

	ordered := make([]Setting, len(settings))
	copy(ordered, settings)
	SortSettings(ordered)

	for _, s := range ordered {
		if samePartner(s.PartnerID, partnerID) {
			return s, true
		}
	}
	for _, s := range ordered {
		if !s.IsPartnerScoped() {
			return s, true
		}
	}
	return ordered[0], true
}

// SortSettings orders settings partner-scoped first, then by ID.
func SortSettings(settings []Setting) {
	sort.SliceStable(settings, func(i, j int) bool {
		a, b := settings[i], settings[j]
		if a.IsPartnerScoped() != b.IsPartnerScoped() {
			return a.IsPartnerScoped()
		}
		return a.ID < b.ID
	})
}

func samePartner(settingPartner *string, partnerID string) bool {
	if settingPartner == nil {
		return partnerID == ""
	}
	return *settingPartner == partnerID
}

// =============================================================================
// RULE MATCHING
// =============================================================================

// MatchRule returns the best rule for q among rules, and whether it came
// from the fallback search. nifType must already reflect the setting's NIF
// differentiation switch.
func MatchRule(rules []Rule, q Query, nifType NifType) (*Rule, bool) {
	var matches []Rule
	for _, rule := range rules {
		if ruleMatches(rule, q, nifType) {
			matches = append(matches, rule)
		}
	}
	if len(matches) > 0 {
		sort.SliceStable(matches, func(i, j int) bool {
			si, sj := Specificity(matches[i]), Specificity(matches[j])
			if si != sj {
				return si > sj
			}
			return ruleLess(matches[i], matches[j])
		})
		return &matches[0], false
	}

	var fallbacks []Rule
	for _, rule := range rules {
		if isFallbackFor(rule, q.SaleType) {
			fallbacks = append(fallbacks, rule)
		}
	}
	if len(fallbacks) == 0 {
		return nil, false
	}
	sort.SliceStable(fallbacks, func(i, j int) bool { return ruleLess(fallbacks[i], fallbacks[j]) })
	return &fallbacks[0], true
}

func ruleMatches(rule Rule, q Query, nifType NifType) bool {
	if rule.SaleType != q.SaleType {
		return false
	}
	if rule.NifType != NifAll && rule.NifType != nifType {
		return false
	}

	// Loyalty symmetry: a loyalty-dependent rule needs the exact term, a
	// loyalty-independent rule must carry no term at all.
	if rule.DependsOnLoyalty {
		if rule.LoyaltyMonths == nil || *rule.LoyaltyMonths != q.LoyaltyMonths {
			return false
		}
	} else if rule.LoyaltyMonths != nil {
		return false
	}

	if !isWildcard(rule.ClientTypeFilter) && rule.ClientTypeFilter != string(q.ClientType) {
		return false
	}

	// Portfolio filters only ever apply to business clients.
	if !isWildcard(rule.PortfolioFilter) {
		if q.ClientType != ClientEmpresarial || rule.PortfolioFilter != q.PortfolioStatus {
			return false
		}
	}

	if rule.ClientCategoryID != nil {
		if q.ClientCategoryID == nil || *rule.ClientCategoryID != *q.ClientCategoryID {
			return false
		}
	}
	return true
}

func isFallbackFor(rule Rule, saleType SaleType) bool {
	return rule.SaleType == saleType &&
		rule.NifType == NifAll &&
		!rule.DependsOnLoyalty &&
		rule.ClientCategoryID == nil &&
		isWildcard(rule.ClientTypeFilter) &&
		isWildcard(rule.PortfolioFilter)
}

// Specificity scores how narrowly a rule is targeted.
func Specificity(rule Rule) int {
	score := 0
	if rule.ClientCategoryID != nil {
		score += 16
	}
	if rule.NifType != NifAll {
		score += 8
	}
	if rule.DependsOnLoyalty {
		score += 4
	}
	if !isWildcard(rule.ClientTypeFilter) {
		score += 2
	}
	if !isWildcard(rule.PortfolioFilter) {
		score++
	}
	return score
}

// SortRules orders rules by Position, then ID.
func SortRules(rules []Rule) {
	sort.SliceStable(rules, func(i, j int) bool { return ruleLess(rules[i], rules[j]) })
}

func ruleLess(a, b Rule) bool {
	if a.Position != b.Position {
		return a.Position < b.Position
	}
	return a.ID < b.ID
}

func isWildcard(filter string) bool {
	return filter == "" || filter == FilterAll
}
