package broker

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/npezzotti/go-classroom/internal/events"
	"gopkg.in/yaml.v3"
)

// EntityFilter maps entity type -> event type -> property names that may be
// sent to other services. Keys are lower case.
type EntityFilter map[string]map[string][]string

// LoadEntityFilter reads a filter from a YAML file such as
//
//	room:
//	  afterpatch: [id, rev, ownerId]
//
// An empty path yields an empty filter.
func LoadEntityFilter(path string) (EntityFilter, error) {
	if path == "" {
		return EntityFilter{}, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read event filter: %w", err)
	}

	return ParseEntityFilter(raw)
}

func ParseEntityFilter(raw []byte) (EntityFilter, error) {
	var f EntityFilter
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse event filter: %w", err)
	}

	out := make(EntityFilter, len(f))
	for entity, evs := range f {
		lowered := make(map[string][]string, len(evs))
		for ev, props := range evs {
			lowered[strings.ToLower(ev)] = props
		}
		out[strings.ToLower(entity)] = lowered
	}

	return out, nil
}

// Properties returns the allowed properties of an (entity type, event type)
// pair and whether the pair is configured at all.
func (f EntityFilter) Properties(entityType, eventType string) ([]string, bool) {
	evs, ok := f[strings.ToLower(entityType)]
	if !ok {
		return nil, false
	}
	props, ok := evs[strings.ToLower(eventType)]
	return props, ok
}

// EntitySerializer builds cross-service entity events, keeping only the
// properties the filter allows. Pairs missing from the filter are sent in
// full.
type EntitySerializer struct {
	filter EntityFilter
}

func NewEntitySerializer(f EntityFilter) *EntitySerializer {
	return &EntitySerializer{filter: f}
}

func (s *EntitySerializer) Event(kind events.Kind, entityType, eventType, roomId string, entity any) (events.Event, error) {
	raw, err := json.Marshal(entity)
	if err != nil {
		return events.Event{}, fmt.Errorf("encode %s entity: %w", entityType, err)
	}

	var props map[string]any
	if err := json.Unmarshal(raw, &props); err != nil {
		return events.Event{}, fmt.Errorf("%s entity is not an object: %w", entityType, err)
	}

	if allowed, ok := s.filter.Properties(entityType, eventType); ok {
		keep := make(map[string]struct{}, len(allowed))
		for _, p := range allowed {
			keep[p] = struct{}{}
		}
		for k := range props {
			if _, ok := keep[k]; !ok {
				delete(props, k)
			}
		}
	}

	return events.New(kind, roomId, props), nil
}
