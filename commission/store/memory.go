// Package store provides an in-memory commission.Repository.
package store

import (
	"context"
	"sort"
	"sync"

	"github.com/hugoalbmartins/Leiritrix-sub000/commission"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu       sync.RWMutex
	settings map[string]commission.Setting
	rules    map[string][]commission.Rule // by setting ID
	brackets map[string][]commission.PowerBracket
	sales    map[string]commission.Sale
	runs     map[string]commission.Run
}

var _ commission.Repository = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{
		settings: make(map[string]commission.Setting),
		rules:    make(map[string][]commission.Rule),
		brackets: make(map[string][]commission.PowerBracket),
		sales:    make(map[string]commission.Sale),
		runs:     make(map[string]commission.Run),
	}
}

// =============================================================================
// SETTINGS & RULES
// =============================================================================

// GetSettings returns the operator's settings, partner-scoped first.
func (m *Memory) GetSettings(_ context.Context, operatorID, partnerID string) ([]commission.Setting, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []commission.Setting
	for _, s := range m.settings {
		if s.OperatorID != operatorID {
			continue
		}
		if partnerID != "" && !s.AppliesTo(partnerID) {
			continue
		}
		out = append(out, cloneSetting(s))
	}
	commission.SortSettings(out)
	return out, nil
}

func (m *Memory) GetRules(_ context.Context, settingID string) ([]commission.Rule, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := append([]commission.Rule(nil), m.rules[settingID]...)
	commission.SortRules(out)
	return out, nil
}

func (m *Memory) GetSetting(_ context.Context, id string) (*commission.Setting, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.settings[id]
	if !ok {
		return nil, commission.ErrSettingNotFound
	}
	s = cloneSetting(s)
	return &s, nil
}

// ListSettings returns every setting grouped by operator.
func (m *Memory) ListSettings(_ context.Context) ([]commission.Setting, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]commission.Setting, 0, len(m.settings))
	for _, s := range m.settings {
		out = append(out, cloneSetting(s))
	}
	commission.SortSettings(out)
	sort.SliceStable(out, func(i, j int) bool { return out[i].OperatorID < out[j].OperatorID })
	return out, nil
}

// SaveSetting inserts or replaces a setting.
func (m *Memory) SaveSetting(_ context.Context, s commission.Setting) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.settings[s.ID] = cloneSetting(s)
	return nil
}

// ReplaceRules swaps the whole rule set of a setting, brackets included.
func (m *Memory) ReplaceRules(_ context.Context, settingID string, rules []commission.Rule, brackets []commission.PowerBracket) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.settings[settingID]; !ok {
		return commission.ErrSettingNotFound
	}
	m.replaceRulesLocked(settingID, rules, brackets)
	return nil
}

// SaveSettingWithRules stores a setting and its rule set under one lock.
func (m *Memory) SaveSettingWithRules(_ context.Context, s commission.Setting, rules []commission.Rule, brackets []commission.PowerBracket) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.settings[s.ID] = cloneSetting(s)
	m.replaceRulesLocked(s.ID, rules, brackets)
	return nil
}

func (m *Memory) replaceRulesLocked(settingID string, rules []commission.Rule, brackets []commission.PowerBracket) {
	m.dropRulesLocked(settingID)

	stored := make([]commission.Rule, len(rules))
	for i, r := range rules {
		r.SettingID = settingID
		stored[i] = r
	}
	m.rules[settingID] = stored
	for _, b := range brackets {
		m.brackets[b.RuleID] = append(m.brackets[b.RuleID], b)
	}
}

// DeleteSetting removes a setting with its rules and brackets.
func (m *Memory) DeleteSetting(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.settings[id]; !ok {
		return commission.ErrSettingNotFound
	}
	m.dropRulesLocked(id)
	delete(m.settings, id)
	return nil
}

func (m *Memory) dropRulesLocked(settingID string) {
	for _, r := range m.rules[settingID] {
		delete(m.brackets, r.ID)
	}
	delete(m.rules, settingID)
}

// =============================================================================
// POWER BRACKETS
// =============================================================================

func (m *Memory) PowerBracket(_ context.Context, ruleID, power string) (*commission.PowerBracket, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, b := range m.brackets[ruleID] {
		if b.Power == power {
			b := b
			return &b, nil
		}
	}
	return nil, nil
}

func (m *Memory) PowerBrackets(_ context.Context, ruleID string) ([]commission.PowerBracket, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]commission.PowerBracket(nil), m.brackets[ruleID]...), nil
}

// =============================================================================
// SALES
// =============================================================================

func (m *Memory) CreateSale(_ context.Context, s commission.Sale) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sales[s.ID] = s
	return nil
}

func (m *Memory) GetSale(_ context.Context, id string) (*commission.Sale, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.sales[id]
	if !ok {
		return nil, commission.ErrSaleNotFound
	}
	return &s, nil
}

// ListZeroCommissionSales returns recalculation candidates ordered by ID.
func (m *Memory) ListZeroCommissionSales(_ context.Context) ([]commission.Sale, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []commission.Sale
	for _, s := range m.sales {
		if s.HasZeroCommissions() && s.SaleType != "" && s.OperatorID != "" && s.PartnerID != "" {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *Memory) ListAutomaticSettings(_ context.Context) ([]commission.Setting, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []commission.Setting
	for _, s := range m.settings {
		if s.CommissionType == commission.CommissionAutomatic {
			out = append(out, cloneSetting(s))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *Memory) UpdateCommissions(_ context.Context, saleID string, c commission.Commission) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sales[saleID]
	if !ok {
		return commission.ErrSaleNotFound
	}
	s.CommissionSeller = c.Seller
	s.CommissionPartner = c.Partner
	m.sales[saleID] = s
	return nil
}

// =============================================================================
// RUNS
// =============================================================================

func (m *Memory) SaveRun(_ context.Context, run commission.Run) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs[run.ID] = run
	return nil
}

// ListRuns returns the most recent runs first. limit <= 0 returns all.
func (m *Memory) ListRuns(_ context.Context, limit int) ([]commission.Run, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]commission.Run, 0, len(m.runs))
	for _, r := range m.runs {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartedAt.After(out[j].StartedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func cloneSetting(s commission.Setting) commission.Setting {
	s.AllowedSaleTypes = append([]commission.SaleType(nil), s.AllowedSaleTypes...)
	return s
}
