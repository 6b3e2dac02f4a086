package models

// Stats holds the conversion counters of one playlist sync.
type Stats struct {
	Success  int `json:"success"`
	Attempts int `json:"attempts"`
}

// Rate returns Success/Attempts, or 1 when nothing was attempted.
func (s Stats) Rate() float64 {
	if s.Attempts == 0 {
		return 1.0
	}
	return float64(s.Success) / float64(s.Attempts)
}

// PlaylistReport is emitted once per playlist per run.
//
// DestinationID is empty when a dry run would have created the destination playlist.
type PlaylistReport struct {
	Name          string  `json:"name"`
	SourceID      string  `json:"source_id"`
	DestinationID string  `json:"destination_id"`
	Created       bool    `json:"created"`
	Stats         Stats   `json:"stats"`
	New           []Track `json:"new"`
	Missing       []Track `json:"missing"`
	NoAlbum       []Track `json:"no_album"`
	Duplicates    int     `json:"duplicates"`
}

// Rate is a shortcut for r.Stats.Rate().
func (r PlaylistReport) Rate() float64 {
	return r.Stats.Rate()
}
