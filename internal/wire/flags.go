package wire

import "strconv"

// Role flag bits, first half of a user's flag field.
const (
	BitHost         = 2
	BitFanclub      = 5
	BitManagerA     = 6
	BitManagerB     = 8
	BitFemale       = 9
	BitSpamTimeoutA = 11
	BitSpamTimeoutB = 12
	BitMobile       = 14
	BitTopFan       = 15
	BitDMBlocked    = 17
	BitQuickview    = 19
	BitMobileWeb    = 23
	BitSpamTimeoutC = 24
	BitFollower     = 28
)

// Subscription tier bits, second half of a user's flag field.
const (
	BitTier1 = 18
	BitTier2 = 19
	BitTier3 = 20
)

// Freeze-mode eligibility bits.
const (
	BitFreezeFanclub      = 5
	BitFreezeSupporter    = 6
	BitFreezeTopFan       = 7
	BitFreezeSubscription = 8
	BitFreezeManager      = 9
)

// Flag is one named bit of a flag family. Families are declared as
// static ordered tables and iterated directly.
type Flag struct {
	Name string
	Bit  int
}

// RoleFlags lists the role bits in declaration order.
var RoleFlags = []Flag{
	{"HOST", BitHost},
	{"FANCLUB", BitFanclub},
	{"MANAGER_A", BitManagerA},
	{"MANAGER_B", BitManagerB},
	{"FEMALE", BitFemale},
	{"SPAM_TIMEOUT_A", BitSpamTimeoutA},
	{"SPAM_TIMEOUT_B", BitSpamTimeoutB},
	{"SPAM_TIMEOUT_C", BitSpamTimeoutC},
	{"MOBILE", BitMobile},
	{"TOPFAN", BitTopFan},
	{"DM_BLOCKED", BitDMBlocked},
	{"QUICKVIEW", BitQuickview},
	{"MOBILE_WEB", BitMobileWeb},
	{"FOLLOWER", BitFollower},
}

// TierFlags lists the subscription tier bits.
var TierFlags = []Flag{
	{"SUBSCRIPTION_TIER1", BitTier1},
	{"SUBSCRIPTION_TIER2", BitTier2},
	{"SUBSCRIPTION_TIER3", BitTier3},
}

// FreezeFlag is a freeze-mode eligibility bit with its display label.
type FreezeFlag struct {
	Name  string
	Bit   int
	Label string
}

// FreezeFlags lists the freeze-mode eligibility bits.
var FreezeFlags = []FreezeFlag{
	{"FANCLUB", BitFreezeFanclub, "fan club"},
	{"SUPPORTER", BitFreezeSupporter, "supporter"},
	{"TOPFAN", BitFreezeTopFan, "top fan"},
	{"SUBSCRIPTION", BitFreezeSubscription, "subscriber"},
	{"MANAGER", BitFreezeManager, "manager"},
}

// IsBitSet reports whether the given bit of value is set. value is
// unsigned so high bits never sign-extend.
func IsBitSet(bit int, value uint32) bool {
	return (value>>uint(bit))&1 == 1
}

// ParseFlagPair splits a "role|tier" flag field into its two packed
// integers. Absent or non-numeric halves read as zero.
func ParseFlagPair(s string) (uint32, uint32) {
	var role, tier uint32
	for i := 0; i < len(s); i++ {
		if s[i] == '|' {
			role = parseFlag(s[:i])
			tier = parseFlag(s[i+1:])
			return role, tier
		}
	}
	return parseFlag(s), 0
}

func parseFlag(s string) uint32 {
	n, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0
	}
	return uint32(n)
}

// FlagChange records one named bit whose state differs between two
// flag snapshots.
type FlagChange struct {
	Name   string
	Before bool
	After  bool
}

// DiffFlags compares a before/after role+tier pair and returns the
// named bits that changed, preserving table declaration order. Used
// for diagnostic reporting only.
func DiffFlags(beforeRole, beforeTier, afterRole, afterTier uint32) []FlagChange {
	var changes []FlagChange
	for _, f := range RoleFlags {
		b, a := IsBitSet(f.Bit, beforeRole), IsBitSet(f.Bit, afterRole)
		if b != a {
			changes = append(changes, FlagChange{Name: f.Name, Before: b, After: a})
		}
	}
	for _, f := range TierFlags {
		b, a := IsBitSet(f.Bit, beforeTier), IsBitSet(f.Bit, afterTier)
		if b != a {
			changes = append(changes, FlagChange{Name: f.Name, Before: b, After: a})
		}
	}
	return changes
}

// SetRoleFlags returns the names of all role bits set in value, in
// table order.
func SetRoleFlags(value uint32) []string {
	return setNames(RoleFlags, value)
}

// SetTierFlags returns the names of all tier bits set in value.
func SetTierFlags(value uint32) []string {
	return setNames(TierFlags, value)
}

func setNames(table []Flag, value uint32) []string {
	var names []string
	for _, f := range table {
		if IsBitSet(f.Bit, value) {
			names = append(names, f.Name)
		}
	}
	return names
}

// FreezeLabels returns the display labels of all eligibility bits set
// in value, in table order.
func FreezeLabels(value uint32) []string {
	var labels []string
	for _, f := range FreezeFlags {
		if IsBitSet(f.Bit, value) {
			labels = append(labels, f.Label)
		}
	}
	return labels
}
