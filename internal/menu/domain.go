package menu

import "time"

// RootID marks the parent of top-level menus.
const RootID int64 = 0

// rootComponent is the layout component assigned to top-level route nodes.
const rootComponent = "BasicLayout"

// Menu is a hierarchical navigation node. Permission doubles as the
// authorization token this node represents and must be globally unique.
type Menu struct {
	ID         int64     `json:"id"`
	ParentID   int64     `json:"parent_id"`
	Title      string    `json:"title"`
	Path       string    `json:"path"`
	Permission string    `json:"permission"`
	Icon       string    `json:"icon"`
	Link       string    `json:"link"`
	Sort       int       `json:"sort"`
	Hidden     bool      `json:"hidden"`
	IsSystem   bool      `json:"is_system"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// RouteMeta carries presentation metadata for a route node.
type RouteMeta struct {
	Title string `json:"title"`
	Icon  string `json:"icon,omitempty"`
}

// RouteNode is the UI-navigation shape of a menu node. Name equals the node's
// permission string so the frontend can address routes by it.
type RouteNode struct {
	Component string      `json:"component"`
	Meta      RouteMeta   `json:"meta"`
	Name      string      `json:"name"`
	Path      string      `json:"path"`
	Children  []RouteNode `json:"children,omitempty"`
}

// RawNode is the storage shape of a menu node with its children attached.
type RawNode struct {
	Menu
	Children []RawNode `json:"children,omitempty"`
}
