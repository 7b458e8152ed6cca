package wire

import "testing"

func TestIsBitSet(t *testing.T) {
	if !IsBitSet(2, 0b100) {
		t.Error("IsBitSet(2, 0b100) = false, want true")
	}
	if IsBitSet(2, 0b011) {
		t.Error("IsBitSet(2, 0b011) = true, want false")
	}

	// High bits must not sign-extend; bit 31 behaves like any other.
	values := []uint32{0, 1, 0x80000000, 0xffffffff, 0x12345678, 0x55555555}
	for _, v := range values {
		for bit := 0; bit < 32; bit++ {
			want := v&(1<<uint(bit)) != 0
			if got := IsBitSet(bit, v); got != want {
				t.Errorf("IsBitSet(%d, %#x) = %v, want %v", bit, v, got, want)
			}
		}
	}
}

func TestParseFlagPair(t *testing.T) {
	tests := []struct {
		in         string
		role, tier uint32
	}{
		{"4|262144", 4, 262144},
		{"268435456|0", 268435456, 0},
		{"1024", 1024, 0},
		{"", 0, 0},
		{"x|y", 0, 0},
		{"4294967295|4294967295", 0xffffffff, 0xffffffff},
	}

	for _, tt := range tests {
		role, tier := ParseFlagPair(tt.in)
		if role != tt.role || tier != tt.tier {
			t.Errorf("ParseFlagPair(%q) = (%d, %d), want (%d, %d)", tt.in, role, tier, tt.role, tt.tier)
		}
	}
}

func TestDiffFlags(t *testing.T) {
	// HOST bit cleared.
	changes := DiffFlags(0b100, 0, 0, 0)
	if len(changes) != 1 {
		t.Fatalf("expected 1 change, got %d: %+v", len(changes), changes)
	}
	if changes[0].Name != "HOST" || !changes[0].Before || changes[0].After {
		t.Fatalf("unexpected change: %+v", changes[0])
	}
}

func TestDiffFlagsOrderAndTier(t *testing.T) {
	// Grant FANCLUB and MANAGER_B roles plus a tier 1 subscription in
	// one update; output must follow table declaration order with the
	// tier table last.
	afterRole := uint32(1<<BitFanclub | 1<<BitManagerB)
	afterTier := uint32(1 << BitTier1)

	changes := DiffFlags(0, 0, afterRole, afterTier)
	want := []string{"FANCLUB", "MANAGER_B", "SUBSCRIPTION_TIER1"}
	if len(changes) != len(want) {
		t.Fatalf("expected %d changes, got %+v", len(want), changes)
	}
	for i, name := range want {
		if changes[i].Name != name {
			t.Errorf("change %d = %s, want %s", i, changes[i].Name, name)
		}
		if changes[i].Before || !changes[i].After {
			t.Errorf("change %d state = (%v, %v), want (false, true)", i, changes[i].Before, changes[i].After)
		}
	}
}

func TestDiffFlagsNoChange(t *testing.T) {
	if changes := DiffFlags(0b100, 5, 0b100, 5); len(changes) != 0 {
		t.Fatalf("expected no changes, got %+v", changes)
	}
}

func TestSetRoleFlags(t *testing.T) {
	value := uint32(1<<BitHost | 1<<BitFollower)
	names := SetRoleFlags(value)
	if len(names) != 2 || names[0] != "HOST" || names[1] != "FOLLOWER" {
		t.Fatalf("SetRoleFlags = %v", names)
	}
}

func TestFreezeLabels(t *testing.T) {
	value := uint32(1<<BitFreezeFanclub | 1<<BitFreezeManager)
	labels := FreezeLabels(value)
	if len(labels) != 2 || labels[0] != "fan club" || labels[1] != "manager" {
		t.Fatalf("FreezeLabels = %v", labels)
	}
}
