// Package registry loads the persisted entity, device, and area registry
// snapshots that references are resolved against.
//
// A snapshot is loaded once per validation run and is read-only thereafter.
// A missing registry file degrades that kind to "empty, unknown" so the
// resolver can suppress unknown-reference errors for it; a file that exists
// but fails to parse is fatal for the whole run.
package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	valerrors "github.com/conneroisu/halint/internal/errors"
)

// RefKind identifies which registry table a reference resolves against.
type RefKind string

const (
	RefEntity RefKind = "entity"
	RefDevice RefKind = "device"
	RefArea   RefKind = "area"
)

// Storage file names, as written by the upstream system.
const (
	EntityRegistryFile = "core.entity_registry"
	DeviceRegistryFile = "core.device_registry"
	AreaRegistryFile   = "core.area_registry"
)

// Entity is one entity registry record.
type Entity struct {
	EntityID   string `json:"entity_id"`
	Platform   string `json:"platform"`
	DisabledBy string `json:"disabled_by"`
	AreaID     string `json:"area_id"`
	DeviceID   string `json:"device_id"`
}

// Domain returns the part of the entity id before the dot.
func (e Entity) Domain() string {
	if i := strings.IndexByte(e.EntityID, '.'); i > 0 {
		return e.EntityID[:i]
	}

	return e.EntityID
}

// Disabled reports whether the registry marks the entity disabled.
func (e Entity) Disabled() bool {
	return e.DisabledBy != ""
}

// Device is one device registry record.
type Device struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	AreaID string `json:"area_id"`
}

// Area is one area registry record.
type Area struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Snapshot holds the three registry tables for one validation run. All
// accessors are read-only; nothing mutates a snapshot after Load returns.
type Snapshot struct {
	entities map[string]Entity
	devices  map[string]Device
	areas    map[string]Area
	loaded   map[RefKind]bool
}

type entityRegistryFile struct {
	Data struct {
		Entities []Entity `json:"entities"`
	} `json:"data"`
}

type deviceRegistryFile struct {
	Data struct {
		Devices []Device `json:"devices"`
	} `json:"data"`
}

type areaRegistryFile struct {
	Data struct {
		Areas []Area `json:"areas"`
	} `json:"data"`
}

// Load reads the registry snapshots from a storage directory.
func Load(storageDir string) (*Snapshot, error) {
	snapshot := &Snapshot{
		entities: make(map[string]Entity),
		devices:  make(map[string]Device),
		areas:    make(map[string]Area),
		loaded:   make(map[RefKind]bool),
	}

	if err := loadRegistryFile(storageDir, EntityRegistryFile, func(data []byte) error {
		var file entityRegistryFile
		if err := json.Unmarshal(data, &file); err != nil {
			return err
		}
		for _, entity := range file.Data.Entities {
			snapshot.entities[entity.EntityID] = entity
		}
		snapshot.loaded[RefEntity] = true

		return nil
	}); err != nil {
		return nil, err
	}

	if err := loadRegistryFile(storageDir, DeviceRegistryFile, func(data []byte) error {
		var file deviceRegistryFile
		if err := json.Unmarshal(data, &file); err != nil {
			return err
		}
		for _, device := range file.Data.Devices {
			snapshot.devices[device.ID] = device
		}
		snapshot.loaded[RefDevice] = true

		return nil
	}); err != nil {
		return nil, err
	}

	if err := loadRegistryFile(storageDir, AreaRegistryFile, func(data []byte) error {
		var file areaRegistryFile
		if err := json.Unmarshal(data, &file); err != nil {
			return err
		}
		for _, area := range file.Data.Areas {
			snapshot.areas[area.ID] = area
		}
		snapshot.loaded[RefArea] = true

		return nil
	}); err != nil {
		return nil, err
	}

	return snapshot, nil
}

// loadRegistryFile reads one storage file. Absence is not an error; corrupt
// content is fatal for the run.
func loadRegistryFile(storageDir, name string, parse func([]byte) error) error {
	path := filepath.Join(storageDir, name)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}

		return valerrors.NewRegistryCorruptError(
			fmt.Sprintf("cannot read registry file %s", name), err,
		).WithLocation(path, 0, 0)
	}

	if err := parse(data); err != nil {
		return valerrors.NewRegistryCorruptError(
			fmt.Sprintf("registry file %s is not valid JSON", name), err,
		).WithLocation(path, 0, 0)
	}

	return nil
}

// Loaded reports whether the registry file for a kind was present. When
// false, unknown-reference checks for that kind are suppressed.
func (s *Snapshot) Loaded(kind RefKind) bool {
	return s.loaded[kind]
}

// Entity looks up an entity by exact id.
func (s *Snapshot) Entity(id string) (Entity, bool) {
	entity, ok := s.entities[id]

	return entity, ok
}

// Device looks up a device by exact id.
func (s *Snapshot) Device(id string) (Device, bool) {
	device, ok := s.devices[id]

	return device, ok
}

// Area looks up an area by exact id.
func (s *Snapshot) Area(id string) (Area, bool) {
	area, ok := s.areas[id]

	return area, ok
}

// Count returns the number of records for a kind.
func (s *Snapshot) Count(kind RefKind) int {
	switch kind {
	case RefEntity:
		return len(s.entities)
	case RefDevice:
		return len(s.devices)
	case RefArea:
		return len(s.areas)
	default:
		return 0
	}
}

// DomainSummary aggregates entity counts for one domain.
type DomainSummary struct {
	Domain   string   `json:"domain"`
	Count    int      `json:"count"`
	Enabled  int      `json:"enabled"`
	Disabled int      `json:"disabled"`
	Examples []string `json:"examples"`
}

// Summarize groups entities by domain with enabled/disabled counts and a
// few example ids per domain, sorted for stable output.
func (s *Snapshot) Summarize() []DomainSummary {
	byDomain := make(map[string]*DomainSummary)

	ids := make([]string, 0, len(s.entities))
	for id := range s.entities {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		entity := s.entities[id]
		domain := entity.Domain()

		summary, ok := byDomain[domain]
		if !ok {
			summary = &DomainSummary{Domain: domain}
			byDomain[domain] = summary
		}

		summary.Count++
		if entity.Disabled() {
			summary.Disabled++
		} else {
			summary.Enabled++
		}
		if len(summary.Examples) < 3 {
			summary.Examples = append(summary.Examples, id)
		}
	}

	domains := make([]string, 0, len(byDomain))
	for domain := range byDomain {
		domains = append(domains, domain)
	}
	sort.Strings(domains)

	summaries := make([]DomainSummary, 0, len(domains))
	for _, domain := range domains {
		summaries = append(summaries, *byDomain[domain])
	}

	return summaries
}
