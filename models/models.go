package models

import "encoding/json"

type User struct {
	Id      string `json:"id"`
	Name    string `json:"name"`
	Created int64  `json:"created"`
}

type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Stroke is the atomic drawing unit. Ids are client-assigned on first
// submission; redo reinserts get a fresh server-generated id.
type Stroke struct {
	Id        string  `json:"id"`
	UserId    string  `json:"userId"`
	Color     string  `json:"color"`
	Width     float64 `json:"width"`
	Points    []Point `json:"points"`
	IsSegment bool    `json:"isSegment,omitempty"`
}

// Event is a committed room mutation (or an ephemeral relay) on its way to
// the broadcast layer. Origin is the connection id excluded from fan-out;
// empty means deliver to every room member.
type Event struct {
	Room   string
	Type   string
	Origin string
	Data   any
}

// Envelope is the wire form published on a room's pub/sub channel. Payload
// is the client-facing message; Origin lets the hub skip the sender when
// fanning out.
type Envelope struct {
	Origin  string          `json:"origin,omitempty"`
	Payload json.RawMessage `json:"payload"`
}

type StrokeRemovedData struct {
	StrokeId string `json:"strokeId"`
	UserId   string `json:"userId"`
}

type CanvasClearedData struct {
	Room string `json:"room"`
}

type RoomInfo struct {
	Name      string   `json:"name"`
	UserCount int      `json:"userCount"`
	Users     []string `json:"users"`
}

// RoomStats reports drawing-state numbers for one room. TotalStrokes counts
// tombstoned slots too; LiveStrokes does not.
type RoomStats struct {
	Room           string         `json:"room"`
	TotalStrokes   int            `json:"totalStrokes"`
	LiveStrokes    int            `json:"liveStrokes"`
	UniqueUsers    int            `json:"uniqueUsers"`
	StrokesPerUser map[string]int `json:"strokesPerUser"`
	LastModified   int64          `json:"lastModified"`
}

type BoardStats struct {
	TotalRooms   int         `json:"totalRooms"`
	TotalStrokes int         `json:"totalStrokes"`
	LiveStrokes  int         `json:"liveStrokes"`
	TotalUsers   int         `json:"totalUsers"`
	Rooms        []RoomStats `json:"rooms"`
}
