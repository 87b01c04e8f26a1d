package models

import "time"

type SessionStatus string

const (
	Waiting    SessionStatus = "WAITING"
	InProgress SessionStatus = "IN_PROGRESS"
	Finished   SessionStatus = "FINISHED"
)

type Session struct {
	tableName struct{} `pg:"sessions,alias:session"`

	ID        string        `pg:"id,pk" json:"id"`
	Code      string        `pg:"code,unique" json:"session_code"`
	HostName  string        `pg:"host_name" json:"host_name"`
	Status    SessionStatus `pg:"status" json:"status"`
	EventSeq  uint64        `pg:"event_seq,use_zero" json:"-"`
	Version   int           `pg:"version,use_zero" json:"-"`
	CreatedAt time.Time     `pg:"created_at" json:"created_at"`
}

// SessionView is what the session collaborator hands to callers.
type SessionView struct {
	Session
	Players []PlayerSnapshot `json:"players"`
}

type SessionCreateDto struct {
	HostName string `json:"host_name"`
}

type JoinSessionDto struct {
	PlayerName string `json:"player_name"`
	Color      Color  `json:"color"`
}
