package plan

import "testing"

func TestService_List_ReturnsAllPlans(t *testing.T) {
	s := NewService()

	plans := s.List()
	if len(plans) != 4 {
		t.Fatalf("プラン数 = %d, want 4", len(plans))
	}

	// 最低投資額の昇順
	for i := 1; i < len(plans); i++ {
		if plans[i-1].MinimumAmount > plans[i].MinimumAmount {
			t.Errorf("プランが最低投資額の昇順でない: %v > %v", plans[i-1].MinimumAmount, plans[i].MinimumAmount)
		}
	}
}

func TestService_List_ReturnsCopy(t *testing.T) {
	s := NewService()

	plans := s.List()
	plans[0].Name = "改ざん"

	if s.List()[0].Name == "改ざん" {
		t.Error("返り値の変更がカタログに波及している")
	}
}

func TestService_Find(t *testing.T) {
	s := NewService()

	p, ok := s.Find("gold")
	if !ok {
		t.Fatal("goldプランが見つからない")
	}
	if p.Tier != "gold" || p.MinimumAmount != 5000 {
		t.Errorf("プラン = %+v, want tier=gold minimum=5000", p)
	}

	if _, ok := s.Find("diamond"); ok {
		t.Error("存在しないプランIDでtrueを返してはならない")
	}
}
