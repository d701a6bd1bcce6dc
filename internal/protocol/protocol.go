// Package protocol is the wire form of mechanic events: one Envelope per
// event, as JSON, for journals and hosts in other processes.
package protocol

import (
	"encoding/json"
	"fmt"
)

const Version = "1.0"

// Families with events.
const (
	FamilyCombat         = "combat"
	FamilyEvolution      = "evolution"
	FamilyReputation     = "reputation"
	FamilyEntropy        = "entropy"
	FamilyGeneration     = "generation"
	FamilyPropagation    = "propagation"
	FamilyContagion      = "contagion"
	FamilySpatial        = "spatial"
	FamilySecuritization = "securitization"
	FamilyRights         = "rights"
	FamilyInventory      = "inventory"
	FamilyEconomy        = "economy"
	FamilyLoot           = "loot"
	FamilyOutbreak       = "outbreak"
)

var knownFamilies = map[string]struct{}{
	FamilyCombat: {}, FamilyEvolution: {}, FamilyReputation: {}, FamilyEntropy: {},
	FamilyGeneration: {}, FamilyPropagation: {}, FamilyContagion: {}, FamilySpatial: {},
	FamilySecuritization: {}, FamilyRights: {}, FamilyInventory: {}, FamilyEconomy: {},
	FamilyLoot: {}, FamilyOutbreak: {},
}

func IsKnownFamily(f string) bool {
	_, ok := knownFamilies[f]
	return ok
}

// Event is anything with a stable kind string; every mechanic event is one.
type Event interface {
	Kind() string
}

type Envelope struct {
	ProtocolVersion string `json:"protocol_version"`
	Run             string `json:"run"`
	Tick            uint64 `json:"tick"`
	// Seq orders envelopes within a run.
	Seq     uint64          `json:"seq"`
	Family  string          `json:"family"`
	Entity  string          `json:"entity,omitempty"`
	Kind    string          `json:"kind"`
	Payload json.RawMessage `json:"payload"`
}

// Wrap marshals ev into an envelope. Seq is left for the writer to assign.
func Wrap(run string, tick uint64, family, entity string, ev Event) (Envelope, error) {
	payload, err := json.Marshal(ev)
	if err != nil {
		return Envelope{}, fmt.Errorf("%s %s: %w", family, ev.Kind(), err)
	}
	return Envelope{
		ProtocolVersion: Version,
		Run:             run,
		Tick:            tick,
		Family:          family,
		Entity:          entity,
		Kind:            ev.Kind(),
		Payload:         payload,
	}, nil
}

// Decode parses and checks one envelope.
func Decode(b []byte) (Envelope, error) {
	var e Envelope
	if err := json.Unmarshal(b, &e); err != nil {
		return Envelope{}, &Error{Code: ErrBadEnvelope, Message: err.Error()}
	}
	if err := e.Check(); err != nil {
		return Envelope{}, err
	}
	return e, nil
}

func (e Envelope) Check() error {
	switch {
	case e.ProtocolVersion != Version:
		return &Error{Code: ErrVersion, Message: fmt.Sprintf("protocol_version %q", e.ProtocolVersion)}
	case e.Run == "" || e.Kind == "":
		return &Error{Code: ErrBadEnvelope, Message: "run and kind are required"}
	case !IsKnownFamily(e.Family):
		return &Error{Code: ErrUnknownFamily, Message: fmt.Sprintf("family %q", e.Family)}
	case len(e.Payload) == 0:
		return &Error{Code: ErrBadEnvelope, Message: "payload is required"}
	}
	return nil
}

// Into decodes the payload into v.
func (e Envelope) Into(v any) error {
	if err := json.Unmarshal(e.Payload, v); err != nil {
		return fmt.Errorf("%s %s payload: %w", e.Family, e.Kind, err)
	}
	return nil
}
