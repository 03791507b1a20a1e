package models

import (
	"strings"
	"testing"
)

func TestDefaultChartCoversEverySystemAccount(t *testing.T) {
	want := []SystemDefaultCode{
		SystemAccountAccountsReceivable,
		SystemAccountAccountsPayable,
		SystemAccountSalesRevenue,
		SystemAccountInventory,
		SystemAccountCostOfGoodsSold,
		SystemAccountOpeningBalanceAdj,
	}

	seen := map[SystemDefaultCode]int{}
	for _, g := range defaultChart() {
		for _, s := range g.Subgroups {
			for _, a := range s.Accounts {
				if a.SystemCode != "" {
					seen[a.SystemCode]++
				}
			}
		}
	}

	for _, code := range want {
		if seen[code] != 1 {
			t.Errorf("system account %s seeded %d times, want exactly once", code, seen[code])
		}
	}
	if len(seen) != len(want) {
		t.Errorf("chart seeds %d system accounts, want %d", len(seen), len(want))
	}
}

func TestDefaultChartStructure(t *testing.T) {
	groups := defaultChart()
	if len(groups) == 0 {
		t.Fatal("default chart is empty")
	}

	codes := map[string]bool{}
	for i, g := range groups {
		if g.DisplayOrder != i+1 {
			t.Errorf("group %s display order = %d, want %d", g.Code, g.DisplayOrder, i+1)
		}
		if _, err := ParseAccountType(string(g.Type)); err != nil {
			t.Errorf("group %s has invalid type %q", g.Code, g.Type)
		}
		if codes[g.Code] {
			t.Errorf("duplicate main group code %q", g.Code)
		}
		codes[g.Code] = true
		for _, s := range g.Subgroups {
			if !strings.HasPrefix(s.Code, g.Code) {
				t.Errorf("subgroup %s not prefixed by group code %s", s.Code, g.Code)
			}
		}
	}
}
