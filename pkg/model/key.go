package model

// LatestStateKey is the storage key of the last accepted snapshot.
func LatestStateKey() []byte {
	return []byte("latest-state")
}
