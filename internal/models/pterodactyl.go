package models

import "encoding/json"

// Pterodactyl application API shapes. Only the fields this service reads are mapped;
// raw payloads stay available to callers that need more.

type PteroList[T any] struct {
	Object string           `json:"object"`
	Data   []PteroObject[T] `json:"data"`
	Meta   struct {
		Pagination PteroPagination `json:"pagination"`
	} `json:"meta"`
}

type PteroPagination struct {
	Total       int `json:"total"`
	Count       int `json:"count"`
	PerPage     int `json:"per_page"`
	CurrentPage int `json:"current_page"`
	TotalPages  int `json:"total_pages"`
}

type PteroObject[T any] struct {
	Object     string `json:"object"`
	Attributes T      `json:"attributes"`
}

type ServerLimits struct {
	Memory int64 `json:"memory"`
	Swap   int64 `json:"swap"`
	Disk   int64 `json:"disk"`
	IO     int64 `json:"io"`
	CPU    int64 `json:"cpu"`
}

type FeatureLimits struct {
	Databases   int `json:"databases"`
	Allocations int `json:"allocations"`
	Backups     int `json:"backups"`
}

type Server struct {
	ID            int                        `json:"id"`
	ExternalID    *string                    `json:"external_id"`
	UUID          string                     `json:"uuid"`
	Identifier    string                     `json:"identifier"`
	Name          string                     `json:"name"`
	Description   string                     `json:"description"`
	Suspended     bool                       `json:"suspended"`
	Limits        ServerLimits               `json:"limits"`
	FeatureLimits FeatureLimits              `json:"feature_limits"`
	User          int                        `json:"user"`
	Node          int                        `json:"node"`
	Allocation    int                        `json:"allocation"`
	Nest          int                        `json:"nest"`
	Egg           int                        `json:"egg"`
	Relationships map[string]json.RawMessage `json:"relationships,omitempty"`
}

type User struct {
	ID            int    `json:"id"`
	ExternalID    string `json:"external_id"`
	UUID          string `json:"uuid"`
	Username      string `json:"username"`
	Email         string `json:"email"`
	FirstName     string `json:"first_name"`
	LastName      string `json:"last_name"`
	RootAdmin     bool   `json:"root_admin"`
	Relationships struct {
		Servers *PteroList[Server] `json:"servers,omitempty"`
	} `json:"relationships"`
}

// ListOptions filters a paginated list call
type ListOptions struct {
	Page    int
	PerPage int
	Filters map[string]string // filter[name]=value
	Include []string
}

// CreateServerRequest is the body of POST /api/application/servers
type CreateServerRequest struct {
	Name          string            `json:"name" validate:"required,max=191"`
	User          int               `json:"user"`
	Egg           int               `json:"egg" validate:"required"`
	DockerImage   string            `json:"docker_image" validate:"required"`
	Startup       string            `json:"startup" validate:"required"`
	Environment   map[string]string `json:"environment"`
	Limits        ServerLimits      `json:"limits"`
	FeatureLimits FeatureLimits     `json:"feature_limits"`
	Deploy        *struct {
		Locations   []int    `json:"locations"`
		DedicatedIP bool     `json:"dedicated_ip"`
		PortRange   []string `json:"port_range"`
	} `json:"deploy,omitempty"`
	Allocation *struct {
		Default int `json:"default"`
	} `json:"allocation,omitempty"`
}

// BuildPatch is the body of PATCH /servers/{id}/build
type BuildPatch struct {
	Allocation    int           `json:"allocation"`
	Memory        int64         `json:"memory"`
	Swap          int64         `json:"swap"`
	Disk          int64         `json:"disk"`
	IO            int64         `json:"io"`
	CPU           int64         `json:"cpu"`
	Threads       *string       `json:"threads"`
	FeatureLimits FeatureLimits `json:"feature_limits"`
}

// DetailsPatch is the body of PATCH /servers/{id}/details
type DetailsPatch struct {
	Name        string  `json:"name"`
	User        int     `json:"user"`
	ExternalID  *string `json:"external_id,omitempty"`
	Description string  `json:"description,omitempty"`
}
