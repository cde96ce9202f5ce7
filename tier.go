package aksjeradar

// Tier is the access level of a request. Demo is what unauthenticated
// visitors get: listing pages and analysis for the sample symbols only.
// Registered users get personal data (watchlist, favorites, portfolio),
// subscribers additionally get the pro features (arming price alerts,
// AI sentiment, forum posting).
type Tier int

const (
	TierDemo Tier = iota
	TierRegistered
	TierSubscriber
)

func (t Tier) String() string {
	switch t {
	case TierDemo:
		return "demo"
	case TierRegistered:
		return "registered"
	case TierSubscriber:
		return "subscriber"
	default:
		return "unknown"
	}
}

// AtLeast reports whether the tier grants at least the given level.
func (t Tier) AtLeast(min Tier) bool { return t >= min }
