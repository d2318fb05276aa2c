package core

import (
	"strings"
	"time"
)

// AddressField selects which envelope field a folder scan extracts.
type AddressField string

const (
	// FieldFrom extracts the sender address of each message
	FieldFrom AddressField = "from"
	// FieldTo extracts the first recipient address of each message
	FieldTo AddressField = "to"
)

// MessageView is the read-only projection of one mailbox message that
// the classifier evaluates. Missing or malformed header data degrades
// to empty/false fields; construction never fails.
type MessageView struct {
	FromAddress         string
	FromDomain          string
	HasAuthHeader       bool
	HasSuspiciousHeader bool
}

// RuleContext bundles the identity rules for one classification run.
// All keys are normalized (lower-cased, trimmed) addresses or domains.
// It is built once per run and never mutated afterwards.
type RuleContext struct {
	AllowedAddresses  map[string]struct{}
	AllowedDomains    map[string]struct{}
	ListDomains       map[string]struct{}
	ListDomainFolders map[string]string
	SenderFolders     map[string]string
	DefaultListFolder string
}

// NewRuleContext returns an empty rule context with all collections
// allocated.
func NewRuleContext(defaultListFolder string) *RuleContext {
	return &RuleContext{
		AllowedAddresses:  make(map[string]struct{}),
		AllowedDomains:    make(map[string]struct{}),
		ListDomains:       make(map[string]struct{}),
		ListDomainFolders: make(map[string]string),
		SenderFolders:     make(map[string]string),
		DefaultListFolder: defaultListFolder,
	}
}

// ListFolderFor returns the destination folder for a list domain,
// falling back to the default list folder when the domain is unmapped.
func (rc *RuleContext) ListFolderFor(domain string) string {
	if folder, ok := rc.ListDomainFolders[domain]; ok && folder != "" {
		return folder
	}
	return rc.DefaultListFolder
}

// Action enumerates the classifier outcomes.
type Action int

const (
	// ActionKeep leaves the message where it is
	ActionKeep Action = iota
	// ActionMove moves the message to the decision's folder
	ActionMove
	// ActionJunk moves the message to the junk folder
	ActionJunk
)

// String returns a human-readable name for the action
func (a Action) String() string {
	switch a {
	case ActionKeep:
		return "keep"
	case ActionMove:
		return "move"
	case ActionJunk:
		return "junk"
	default:
		return "unknown"
	}
}

// Decision is the terminal classification outcome for one message.
// Folder is set only when Action is ActionMove.
type Decision struct {
	Action Action
	Folder string
}

// Keep returns a keep decision
func Keep() Decision {
	return Decision{Action: ActionKeep}
}

// MoveTo returns a move decision targeting the given folder
func MoveTo(folder string) Decision {
	return Decision{Action: ActionMove, Folder: folder}
}

// Junk returns a junk decision
func Junk() Decision {
	return Decision{Action: ActionJunk}
}

// Fingerprint identifies the state of a folder at scan time. Two scans
// of an unchanged folder produce equal fingerprints; any of the three
// fields moving invalidates a cached address list.
type Fingerprint struct {
	MessageCount uint32
	NextUID      uint32
	UIDValidity  uint32
}

// FolderCacheEntry is the persisted address list for one folder,
// together with the fingerprint it was scanned under.
type FolderCacheEntry struct {
	FolderName  string
	Addresses   []string
	Fingerprint Fingerprint
	CachedAt    time.Time
}

// MessageRecord is one fetched message: envelope addresses plus the
// raw header block.
type MessageRecord struct {
	UID       uint32
	From      []string
	To        []string
	RawHeader []byte
}

// SearchCriteria bounds a folder search. Deleted messages are always
// excluded.
type SearchCriteria struct {
	Since      time.Time
	UnseenOnly bool
	SeenOnly   bool
}

// NormalizeAddress lower-cases and trims an address or domain so that
// rule lookups and cached address lists agree on a single form.
func NormalizeAddress(addr string) string {
	return strings.ToLower(strings.TrimSpace(addr))
}

// DomainOf extracts the domain part of an address, or "" when the
// address does not look like local@domain.
func DomainOf(addr string) string {
	parts := strings.Split(addr, "@")
	if len(parts) != 2 || parts[1] == "" {
		return ""
	}
	return parts[1]
}
