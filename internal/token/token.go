// ABOUTME: Codec for workflow tokens carried inside component custom IDs.
// ABOUTME: Tokens are the sole state carrier between interaction round trips.

package token

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Codec errors
var (
	// ErrEncoding means the token could not be encoded (reserved delimiter
	// inside a field, wrong field count, or length overflow).
	ErrEncoding = errors.New("cannot encode token")

	// ErrDecoding means the string is not a valid token for any known
	// workflow kind and step.
	ErrDecoding = errors.New("cannot decode token")
)

// Delimiter separates kind, step, and fields in the encoded token.
// It is reserved: no field value may contain it.
const Delimiter = ":"

// MaxLength is the platform's component custom-id size limit. Encoded
// tokens must stay under it; payload growth is checked before encoding.
const MaxLength = 100

// Kind identifies a workflow.
type Kind string

// Workflow kinds
const (
	KindSetup            Kind = "setup"
	KindStreamerRequest  Kind = "streamreq"
	KindStreamerApproval Kind = "streamapp"
)

// Step identifies a position within a workflow. Steps are scoped to a Kind.
type Step string

// Setup wizard steps
const (
	StepChannel Step = "channel" // awaiting announcement channel selection
	StepAvatar  Step = "avatar"  // awaiting avatar channel selection
	StepSkip    Step = "skip"    // skip avatar channel, finish setup
)

// Streamer request steps
const (
	StepPlatforms Step = "platforms" // awaiting platform multi-select
	StepUsernames Step = "usernames" // awaiting username modal submission
)

// Approval record steps
const (
	StepApprove  Step = "approve"  // moderator approve button
	StepDeny     Step = "deny"     // moderator deny button
	StepChannels Step = "channels" // awaiting announcement channel multi-select
)

// arity fixes the exact field count per (kind, step). Every step handler
// parses fields by position, so the counts here are load-bearing: a token
// whose field count does not match is rejected at decode time.
var arity = map[Kind]map[Step]int{
	KindSetup: {
		StepChannel: 1, // [initiator]
		StepAvatar:  2, // [initiator, channelID]
		StepSkip:    2, // [initiator, channelID]
	},
	KindStreamerRequest: {
		StepPlatforms: 2, // [initiator, requestsChannelID]
		StepUsernames: 3, // [initiator, requestsChannelID, platformsJoined]
	},
	KindStreamerApproval: {
		StepApprove:  4, // [requesterID, requestsChannelID, messageID, mapping]
		StepDeny:     4,
		StepChannels: 4,
	},
}

// Arity returns the required field count for a (kind, step) pair and
// whether the pair is known.
func Arity(kind Kind, step Step) (int, bool) {
	steps, ok := arity[kind]
	if !ok {
		return 0, false
	}
	n, ok := steps[step]
	return n, ok
}

// Token is the decoded form of a component custom ID. It is reconstructed
// fresh on every interaction and never persisted.
type Token struct {
	Kind   Kind
	Step   Step
	Fields []string
}

// Initiator returns the user who started the workflow. By convention this
// is always the first field. For approval tokens it identifies the original
// requester and is kept for display only; it no longer authorizes.
func (t *Token) Initiator() string {
	if len(t.Fields) == 0 {
		return ""
	}
	return t.Fields[0]
}

// Encode joins kind, step, and fields into a component custom ID.
// Fails with ErrEncoding if the (kind, step) pair is unknown, the field
// count does not match the pair's arity, any field contains the reserved
// delimiter, or the joined result exceeds MaxLength.
func Encode(kind Kind, step Step, fields []string) (string, error) {
	want, ok := Arity(kind, step)
	if !ok {
		return "", fmt.Errorf("%w: unknown step %s/%s", ErrEncoding, kind, step)
	}
	if len(fields) != want {
		return "", fmt.Errorf("%w: %s/%s requires %d fields, got %d",
			ErrEncoding, kind, step, want, len(fields))
	}

	for i, f := range fields {
		if strings.Contains(f, Delimiter) {
			return "", fmt.Errorf("%w: field %d contains reserved delimiter", ErrEncoding, i)
		}
	}

	parts := make([]string, 0, 2+len(fields))
	parts = append(parts, string(kind), string(step))
	parts = append(parts, fields...)
	encoded := strings.Join(parts, Delimiter)

	if len(encoded) > MaxLength {
		return "", fmt.Errorf("%w: encoded length %d exceeds limit %d",
			ErrEncoding, len(encoded), MaxLength)
	}

	return encoded, nil
}

// Decode splits a custom ID back into a Token. It is total and
// side-effect-free: it never consults external state. Fails with
// ErrDecoding if the prefix is not a known kind, the step is not known for
// that kind, or the field count does not match the step's arity.
func Decode(s string) (*Token, error) {
	parts := strings.Split(s, Delimiter)
	if len(parts) < 2 {
		return nil, fmt.Errorf("%w: missing kind or step", ErrDecoding)
	}

	kind := Kind(parts[0])
	step := Step(parts[1])
	fields := parts[2:]

	want, ok := Arity(kind, step)
	if !ok {
		return nil, fmt.Errorf("%w: unknown step %s/%s", ErrDecoding, kind, step)
	}
	if len(fields) != want {
		return nil, fmt.Errorf("%w: %s/%s requires %d fields, got %d",
			ErrDecoding, kind, step, want, len(fields))
	}

	return &Token{Kind: kind, Step: step, Fields: fields}, nil
}

// Mapping sub-delimiters. The serialized platform→username map rides inside
// a single token field, so it uses its own separators, which are likewise
// forbidden inside keys and values.
const (
	pairSep  = ","
	valueSep = "="
)

// FormatMapping serializes a platform→username map into a single token
// field. Keys are sorted so the same map always encodes to the same field.
// Fails with ErrEncoding if a key or value contains a reserved separator
// or the token delimiter.
func FormatMapping(m map[string]string) (string, error) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		v := m[k]
		for _, s := range []string{Delimiter, pairSep, valueSep} {
			if strings.Contains(k, s) || strings.Contains(v, s) {
				return "", fmt.Errorf("%w: mapping entry %q contains reserved separator", ErrEncoding, k)
			}
		}
		pairs = append(pairs, k+valueSep+v)
	}
	return strings.Join(pairs, pairSep), nil
}

// ParseMapping reverses FormatMapping.
func ParseMapping(s string) (map[string]string, error) {
	m := make(map[string]string)
	if s == "" {
		return m, nil
	}
	for _, pair := range strings.Split(s, pairSep) {
		k, v, ok := strings.Cut(pair, valueSep)
		if !ok || k == "" {
			return nil, fmt.Errorf("%w: malformed mapping pair %q", ErrDecoding, pair)
		}
		m[k] = v
	}
	return m, nil
}
