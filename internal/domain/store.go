package domain

// Store is the durable key-value persistence for playlists, watch history and the
// API credential. Reads report false on a miss.
type Store interface {
	// === Playlists ===
	GetPlaylists() ([]Playlist, bool)
	SavePlaylists(playlists []Playlist) error

	// === History ===
	GetHistory() ([]HistoryEntry, bool)
	SaveHistory(entries []HistoryEntry) error

	// === Credentials ===
	GetAPIKey() (string, bool)
	SaveAPIKey(key string) error

	Close() error
}
