// Package id generates prefixed ULIDs for executions, delegations and API requests.
//
// ULIDs sort by creation time, so log lines and metrics for one agent run
// line up without a separate timestamp. Prefixes make the kind of an ID
// obvious in logs (exec_*, dlg_*, req_*, sess_*).
package id

import (
	"crypto/rand"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// ExecutionID identifies one sandbox execution
type ExecutionID string

// DelegationID identifies one delegated sub-agent task
type DelegationID string

// SessionID identifies one agent session
type SessionID string

// RequestID identifies an API request
type RequestID string

const (
	ExecutionPrefix  = "exec"
	DelegationPrefix = "dlg"
	SessionPrefix    = "sess"
	RequestPrefix    = "req"
)

// Generator generates ULIDs with optional prefixes
type Generator struct {
	entropy   io.Reader
	entropyMu sync.Mutex
}

var (
	defaultGenerator *Generator
	once             sync.Once
)

// Default returns the process-wide generator
func Default() *Generator {
	once.Do(func() {
		defaultGenerator = NewGenerator()
	})
	return defaultGenerator
}

// NewGenerator creates a generator backed by crypto/rand
func NewGenerator() *Generator {
	return &Generator{entropy: rand.Reader}
}

// NewGeneratorWithEntropy creates a generator with a custom entropy source.
// Useful for deterministic tests.
func NewGeneratorWithEntropy(entropy io.Reader) *Generator {
	return &Generator{entropy: entropy}
}

// Generate creates a new ULID
func (g *Generator) Generate() ulid.ULID {
	g.entropyMu.Lock()
	defer g.entropyMu.Unlock()

	return ulid.MustNew(ulid.Timestamp(time.Now()), g.entropy)
}

// GenerateWithPrefix creates a "prefix_ULID" string
func (g *Generator) GenerateWithPrefix(prefix string) string {
	return fmt.Sprintf("%s_%s", prefix, g.Generate().String())
}

// NewExecutionID generates a new execution ID
func NewExecutionID() ExecutionID {
	return ExecutionID(Default().GenerateWithPrefix(ExecutionPrefix))
}

// NewDelegationID generates a new delegation ID
func NewDelegationID() DelegationID {
	return DelegationID(Default().GenerateWithPrefix(DelegationPrefix))
}

// NewSessionID generates a new session ID
func NewSessionID() SessionID {
	return SessionID(Default().GenerateWithPrefix(SessionPrefix))
}

// NewRequestID generates a new request ID
func NewRequestID() RequestID {
	return RequestID(Default().GenerateWithPrefix(RequestPrefix))
}

func (id ExecutionID) String() string  { return string(id) }
func (id DelegationID) String() string { return string(id) }
func (id SessionID) String() string    { return string(id) }
func (id RequestID) String() string    { return string(id) }

// IsValid checks whether s is a ULID, with or without a prefix
func IsValid(s string) bool {
	_, err := Parse(s)
	return err == nil
}

// Parse parses a ULID, stripping a "prefix_" if present
func Parse(s string) (ulid.ULID, error) {
	if i := strings.LastIndexByte(s, '_'); i >= 0 {
		s = s[i+1:]
	}
	return ulid.Parse(s)
}

// Timestamp extracts the creation time from an ID
func Timestamp(s string) (time.Time, error) {
	parsed, err := Parse(s)
	if err != nil {
		return time.Time{}, err
	}
	return ulid.Time(parsed.Time()), nil
}
