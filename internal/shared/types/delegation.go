package types

// Artifact describes a workspace file exchanged with a delegated task
type Artifact struct {
	Path        string `json:"path"`
	Description string `json:"description,omitempty"`
	LastUpdated string `json:"lastUpdated,omitempty"`
}

// DelegateTaskInput is one sub-task handed to a child agent
type DelegateTaskInput struct {
	Task             string     `json:"task"`
	ContextArtifacts []Artifact `json:"contextArtifacts,omitempty"`
	MaxIterations    int        `json:"maxIterations,omitempty"`
}

// DelegateTaskResult is the child's final response
type DelegateTaskResult struct {
	Success   bool       `json:"success"`
	Summary   string     `json:"summary"`
	Artifacts []Artifact `json:"artifacts"`
}

// ToMap converts the result to the shape handed back to the guest
func (r DelegateTaskResult) ToMap() map[string]any {
	artifacts := make([]any, 0, len(r.Artifacts))
	for _, a := range r.Artifacts {
		artifacts = append(artifacts, a.ToMap())
	}
	return map[string]any{
		"success":   r.Success,
		"summary":   r.Summary,
		"artifacts": artifacts,
	}
}

// ToMap converts the artifact, omitting empty optional fields
func (a Artifact) ToMap() map[string]any {
	m := map[string]any{"path": a.Path}
	if a.Description != "" {
		m["description"] = a.Description
	}
	if a.LastUpdated != "" {
		m["lastUpdated"] = a.LastUpdated
	}
	return m
}
