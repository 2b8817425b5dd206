package resolver

import (
	"reflect"
	"testing"

	"github.com/ruitoque/fronteras/internal/models"
)

func TestResolvePriority(t *testing.T) {
	tests := []struct {
		name     string
		files    []string
		feed     models.Feed
		expected []string
	}{
		{
			name:     "tier 1 wins over everything",
			files:    []string{"aenc0101.Tx2", "aenc0101.TxF", "aenc0102.TxR", "aenc0102.TxF"},
			feed:     models.FeedAENC,
			expected: []string{"aenc0101.TxF", "aenc0102.TxF"},
		},
		{
			name:     "only tier 2 and tier 3 returns tier 2",
			files:    []string{"aenc0101.Tx2", "aenc0101.TxR", "aenc0102.Tx2", "aenc0103.TxR"},
			feed:     models.FeedAENC,
			expected: []string{"aenc0101.TxR", "aenc0103.TxR"},
		},
		{
			name:     "only tier 3",
			files:    []string{"tfroc0101.Tx2", "aenc0101.TxF"},
			feed:     models.FeedTFROC,
			expected: []string{"tfroc0101.Tx2"},
		},
		{
			name:     "no match for prefix",
			files:    []string{"aenc0101.TxF", "readme.txt"},
			feed:     models.FeedTFROC,
			expected: []string{},
		},
		{
			name:     "empty input",
			files:    nil,
			feed:     models.FeedAENC,
			expected: []string{},
		},
		{
			name:     "unknown feed",
			files:    []string{"aenc0101.TxF"},
			feed:     models.Feed("xyz"),
			expected: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ResolvePriority(tt.files, tt.feed)
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("Expected %v, got %v", tt.expected, got)
			}
		})
	}
}

func TestResolvePriorityNeverMixesTiers(t *testing.T) {
	files := []string{"aenc0101.TxF", "aenc0102.TxR", "aenc0103.Tx2"}
	got := ResolvePriority(files, models.FeedAENC)
	for _, name := range got {
		c, ok := Parse(name)
		if !ok {
			t.Fatalf("Expected %s to parse", name)
		}
		if c.Tier != models.Tier1 {
			t.Errorf("Expected only tier 1 names, got %s", name)
		}
	}
}

func TestParse(t *testing.T) {
	c, ok := Parse("tfroc0115.TxR")
	if !ok {
		t.Fatal("Expected tfroc0115.TxR to parse")
	}
	if c.Feed != models.FeedTFROC || c.Month != 1 || c.Day != 15 || c.Tier != models.Tier2 {
		t.Errorf("Unexpected candidate %+v", c)
	}
	if c.DayKey() != "0115" {
		t.Errorf("Expected day key 0115, got %s", c.DayKey())
	}

	for _, bad := range []string{"aenc115.TxF", "aenc0132.TxF", "aenc1301.TxF", "aenc0101.csv", "consumos_01_2025.csv", "AENC0101.TxF"} {
		if _, ok := Parse(bad); ok {
			t.Errorf("Expected %s to be rejected", bad)
		}
	}
}

func TestBestPerDayAndSuperseded(t *testing.T) {
	names := []string{"aenc0101.Tx2", "aenc0101.TxF", "aenc0102.TxR", "aenc0102.Tx2", "tfroc0101.TxR"}
	var cands []models.Candidate
	for _, n := range names {
		c, _ := Parse(n)
		cands = append(cands, c)
	}

	best := BestPerDay(cands)
	var got []string
	for _, c := range best {
		got = append(got, c.Name)
	}
	expected := []string{"aenc0101.TxF", "tfroc0101.TxR", "aenc0102.TxR"}
	if !reflect.DeepEqual(got, expected) {
		t.Errorf("Expected %v, got %v", expected, got)
	}

	losers := Superseded(cands)
	expectedLosers := []string{"aenc0101.Tx2", "aenc0102.Tx2"}
	if !reflect.DeepEqual(losers, expectedLosers) {
		t.Errorf("Expected %v, got %v", expectedLosers, losers)
	}
}

func TestHasTier(t *testing.T) {
	names := []string{"aenc0101.Tx2", "tfroc0101.TxF"}
	if HasTier(names, models.FeedAENC, models.Tier1) {
		t.Error("Expected no AENC tier 1")
	}
	if !HasTier(names, models.FeedTFROC, models.Tier1) {
		t.Error("Expected TFROC tier 1")
	}
}
