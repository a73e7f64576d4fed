package types

// ExecuteRequest represents a script execution request
type ExecuteRequest struct {
	Script    string `json:"script" binding:"required"`
	TimeoutMs int64  `json:"timeoutMs,omitempty" binding:"omitempty,gte=0"`
}
