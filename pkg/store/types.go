package store

import "time"

// Position is a point on the project canvas. Coordinates are unbounded;
// the UI clamps to the visible canvas.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Project is the container for one diagram and its entities.
type Project struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Icon        string    `json:"icon,omitempty"`
	Description string    `json:"description,omitempty"`
	OwnerID     string    `json:"ownerId,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Actor is a node on the canvas. Mutable by any session joined to its
// project; last writer wins, no version vector.
type Actor struct {
	ID          string    `json:"id"`
	ProjectID   string    `json:"projectId"`
	Name        string    `json:"name"`
	Emoji       string    `json:"emoji,omitempty"`
	Description string    `json:"description,omitempty"`
	Position    Position  `json:"position"`
	Color       string    `json:"color,omitempty"`
	// Size is a display size bucket, "1" (smallest) through "5".
	Size      string    `json:"size,omitempty"`
	Groups    []string  `json:"groups,omitempty"`
	CreatedBy string    `json:"createdBy,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Relation is an edge between two actors of the same project.
type Relation struct {
	ID          string    `json:"id"`
	ProjectID   string    `json:"projectId"`
	SourceID    string    `json:"sourceId"`
	TargetID    string    `json:"targetId"`
	Name        string    `json:"name,omitempty"`
	Description string    `json:"description,omitempty"`
	Color       string    `json:"color,omitempty"`
	Width       int       `json:"width,omitempty"`
	StartStyle  string    `json:"startStyle,omitempty"` // none, arrow, circle
	EndStyle    string    `json:"endStyle,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Group is a named bucket actors can belong to.
type Group struct {
	ID        string    `json:"id"`
	ProjectID string    `json:"projectId"`
	Name      string    `json:"name"`
	Color     string    `json:"color,omitempty"`
	Emoji     string    `json:"emoji,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Comment is a positioned text note on the canvas.
type Comment struct {
	ID        string    `json:"id"`
	ProjectID string    `json:"projectId"`
	Text      string    `json:"text"`
	Position  Position  `json:"position"`
	CreatedBy string    `json:"createdBy,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Star is a positioned marker on the canvas.
type Star struct {
	ID        string    `json:"id"`
	ProjectID string    `json:"projectId"`
	Position  Position  `json:"position"`
	CreatedBy string    `json:"createdBy,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}
