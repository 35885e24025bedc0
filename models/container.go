package models

import "time"

// ContainerState is the part of a runtime inspect result the agent relies on.
type ContainerState struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Image     string    `json:"image"`
	Status    string    `json:"status"`
	Running   bool      `json:"running"`
	Health    string    `json:"health,omitempty"`
	StartedAt time.Time `json:"startedAt,omitempty"`
}

type ContainerSummary struct {
	ID     string            `json:"id"`
	Name   string            `json:"name"`
	Image  string            `json:"image"`
	State  string            `json:"state"`
	Status string            `json:"status"`
	Labels map[string]string `json:"labels,omitempty"`
}

type RuntimeVersion struct {
	Version    string `json:"version"`
	APIVersion string `json:"apiVersion"`
	Os         string `json:"os"`
	Arch       string `json:"arch"`
}
