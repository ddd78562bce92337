package zeen

import "time"

// LastSeenResolution is how stale last_seen may get before a request
// writes it again.
const LastSeenResolution = time.Minute

// SeenWithin reports whether t falls inside the window ending now.
// Times in the future count as seen.
func SeenWithin(t time.Time, window time.Duration) bool {
	return t.After(time.Now().Add(-window))
}

// NeedsPing reports whether the user's last_seen is older than
// LastSeenResolution
func NeedsPing(user *User) bool {
	if user == nil {
		return false
	}
	return !SeenWithin(user.LastSeen, LastSeenResolution)
}
