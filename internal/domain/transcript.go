package domain

// TurnRecord is a persisted audit entry for one completed turn.
type TurnRecord struct {
	PK        string
	SK        string
	SessionID string
	Turn      int
	UserText  string
	Reply     string
	Failed    bool
	Model     string
	TTL       int64
}

// SessionMeta stores aggregate session state for the transcript table.
type SessionMeta struct {
	PK           string
	SK           string
	SessionID    string
	LastActivity string
	EndedAt      string
	Turns        int
	TTL          int64
}
