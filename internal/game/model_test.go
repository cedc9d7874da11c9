package game

import "testing"

func TestValidateUsername(t *testing.T) {
	valid := []string{"abc", "  brickboss  ", "fifteen_chars15"}
	for _, s := range valid {
		if _, err := ValidateUsername(s); err != nil {
			t.Fatalf("expected username %q to be valid: %v", s, err)
		}
	}

	invalid := []string{"", "ab", "   ", "sixteen_chars_16"}
	for _, s := range invalid {
		if _, err := ValidateUsername(s); err == nil {
			t.Fatalf("expected username %q to fail", s)
		}
	}
}

func TestUpgradeCost(t *testing.T) {
	tests := []struct {
		base  int64
		level int
		want  int64
	}{
		{base: 15, level: 0, want: 15},
		{base: 15, level: 1, want: 22},
		{base: 15, level: 2, want: 33},
		{base: 100, level: 3, want: 337},
	}
	for _, tc := range tests {
		if got := UpgradeCost(tc.base, tc.level); got != tc.want {
			t.Fatalf("base=%d level=%d got=%d want=%d", tc.base, tc.level, got, tc.want)
		}
	}
}

func TestUpgradeIncome(t *testing.T) {
	tests := []struct {
		base  int64
		level int
		want  int64
	}{
		{base: 1, level: 0, want: 0},
		{base: 1, level: 3, want: 1},
		{base: 5, level: 2, want: 6},
		{base: 450, level: 1, want: 450},
	}
	for _, tc := range tests {
		if got := UpgradeIncome(tc.base, tc.level); got != tc.want {
			t.Fatalf("base=%d level=%d got=%d want=%d", tc.base, tc.level, got, tc.want)
		}
	}
}

func TestComputeIncomeSingleUpgrade(t *testing.T) {
	s := DefaultState(fixedNow)
	s.UpgradeLevels[1] = 3
	if got := ComputeIncome(s); got != 1 {
		t.Fatalf("got %d want 1", got)
	}
}

func TestComputeIncomeFollowersStaffAndClout(t *testing.T) {
	s := DefaultState(fixedNow)
	s.Followers = 1000
	s.UpgradeLevels[SpecialUpgradeID] = 1
	s.OwnedStaff["intern"] = true
	s.OwnedStaff["quant"] = true

	// 5 from the upgrade, 10 from followers, 1 click/s at click value 6.
	if got := ComputeIncome(s); got != 21 {
		t.Fatalf("got %d want 21", got)
	}
	s.CloutLevel = 2
	if got := ComputeIncome(s); got != 42 {
		t.Fatalf("got %d want 42", got)
	}
}

func TestComputeClickValue(t *testing.T) {
	s := DefaultState(fixedNow)
	s.Followers = 200
	s.CloutLevel = 1
	if got := ComputeClickValue(s); got != 3 {
		t.Fatalf("got %d want 3", got)
	}

	s = DefaultState(fixedNow)
	s.OwnedAssets["rolex"] = true
	if got := ComputeClickValue(s); got != 100 {
		t.Fatalf("got %d want 100", got)
	}
}

func TestFormatBux(t *testing.T) {
	tests := map[int64]string{
		999:           "999",
		1500:          "1.5k",
		2_500_000:     "2.50M",
		7_000_000_000: "7.00B",
	}
	for n, want := range tests {
		if got := FormatBux(n); got != want {
			t.Fatalf("n=%d got=%q want=%q", n, got, want)
		}
	}
}
