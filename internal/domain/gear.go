package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// UnknownBrandName is the brand assigned to gear whose maker is not known.
const UnknownBrandName = "Unknown"

// Brand is a gear manufacturer.
type Brand struct {
	CreatedAt time.Time `json:"created_at"`
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Country   string    `json:"country,omitempty"`
	Website   string    `json:"website,omitempty"`
}

// IsUnknown reports whether this is the placeholder brand.
func (b *Brand) IsUnknown() bool {
	return b != nil && b.Name == UnknownBrandName
}

// GearCategory names the variant of a GearKind.
type GearCategory string

// Gear categories.
const (
	CategoryGuitar    GearCategory = "guitar"
	CategoryAmplifier GearCategory = "amplifier"
	CategoryPedal     GearCategory = "pedal"
)

// Valid returns true if the category is a recognized value.
func (c GearCategory) Valid() bool {
	switch c {
	case CategoryGuitar, CategoryAmplifier, CategoryPedal:
		return true
	default:
		return false
	}
}

// GearKind is the closed set of gear variants. Exactly one variant describes
// a piece of gear; the interface cannot be implemented outside this package.
type GearKind interface {
	Category() GearCategory
	isGearKind()
}

// Guitar describes an electric, acoustic, or bass guitar.
type Guitar struct {
	GuitarType   string `json:"guitar_type"` // electric, acoustic, bass, classical
	NumStrings   int    `json:"num_strings"`
	PickupConfig string `json:"pickup_config,omitempty"` // e.g. HH, SSS, HSS
}

// Amplifier describes an amp head, combo, or modeller.
type Amplifier struct {
	AmpType           string   `json:"amp_type"` // tube, solid_state, modeling, hybrid
	Wattage           int      `json:"wattage,omitempty"`
	HasEffectsLoop    bool     `json:"has_effects_loop"`
	AvailableControls []string `json:"available_controls,omitempty"`
}

// Pedal describes a stompbox or multi-effect unit.
type Pedal struct {
	PedalType         string   `json:"pedal_type"` // overdrive, delay, reverb, ...
	AvailableControls []string `json:"available_controls,omitempty"`
	DefaultSettings   Settings `json:"default_settings,omitempty"`
}

// Category implements GearKind.
func (Guitar) Category() GearCategory { return CategoryGuitar }

// Category implements GearKind.
func (Amplifier) Category() GearCategory { return CategoryAmplifier }

// Category implements GearKind.
func (Pedal) Category() GearCategory { return CategoryPedal }

func (Guitar) isGearKind()    {}
func (Amplifier) isGearKind() {}
func (Pedal) isGearKind()     {}

// Controls returns the knob names the gear exposes, if any.
func Controls(k GearKind) []string {
	switch v := k.(type) {
	case Amplifier:
		return v.AvailableControls
	case Pedal:
		return v.AvailableControls
	default:
		return nil
	}
}

// EncodeGearKind serializes a variant for storage.
func EncodeGearKind(k GearKind) (GearCategory, []byte, error) {
	if k == nil {
		return "", nil, fmt.Errorf("gear kind is required")
	}
	data, err := json.Marshal(k)
	if err != nil {
		return "", nil, fmt.Errorf("encode %s: %w", k.Category(), err)
	}
	return k.Category(), data, nil
}

// DecodeGearKind restores a variant previously written by EncodeGearKind.
func DecodeGearKind(category GearCategory, data []byte) (GearKind, error) {
	if len(data) == 0 {
		data = []byte("{}")
	}
	switch category {
	case CategoryGuitar:
		var g Guitar
		if err := json.Unmarshal(data, &g); err != nil {
			return nil, fmt.Errorf("decode guitar: %w", err)
		}
		return g, nil
	case CategoryAmplifier:
		var a Amplifier
		if err := json.Unmarshal(data, &a); err != nil {
			return nil, fmt.Errorf("decode amplifier: %w", err)
		}
		return a, nil
	case CategoryPedal:
		var p Pedal
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, fmt.Errorf("decode pedal: %w", err)
		}
		return p, nil
	default:
		return nil, fmt.Errorf("unknown gear category %q", category)
	}
}

// Gear is a catalogue entry: a model of guitar, amp, or pedal that many
// users may own.
type Gear struct {
	CreatedAt   time.Time `json:"created_at"`
	Kind        GearKind  `json:"-"`
	Brand       *Brand    `json:"brand,omitempty"` // populated on read
	ID          string    `json:"id"`
	BrandID     string    `json:"brand_id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
}

// Category returns the variant category, or "" when Kind is unset.
func (g *Gear) Category() GearCategory {
	if g.Kind == nil {
		return ""
	}
	return g.Kind.Category()
}

// DisplayName renders "Brand Name", dropping the placeholder brand.
func (g *Gear) DisplayName() string {
	if g.Brand == nil || g.Brand.IsUnknown() {
		return g.Name
	}
	return g.Brand.Name + " " + g.Name
}

// OwnedGear is a user's claim on a catalogue item.
type OwnedGear struct {
	CreatedAt    time.Time  `json:"created_at"`
	AcquiredAt   *time.Time `json:"acquired_at,omitempty"`
	Gear         *Gear      `json:"gear,omitempty"` // populated on read
	ID           string     `json:"id"`
	OwnerID      string     `json:"owner_id"`
	GearID       string     `json:"gear_id"`
	Nickname     string     `json:"nickname,omitempty"`
	SerialNumber string     `json:"serial_number,omitempty"`
	Notes        string     `json:"notes,omitempty"`
	IsFavorite   bool       `json:"is_favorite"`
}

// Label is the nickname when set, otherwise the gear's display name.
func (o *OwnedGear) Label() string {
	if o.Nickname != "" {
		return o.Nickname
	}
	if o.Gear != nil {
		return o.Gear.DisplayName()
	}
	return o.GearID
}

// Category returns the category of the underlying gear, or "" if not loaded.
func (o *OwnedGear) Category() GearCategory {
	if o.Gear == nil {
		return ""
	}
	return o.Gear.Category()
}

// MarshalJSON adds the variant as "category" and "spec".
func (g Gear) MarshalJSON() ([]byte, error) {
	type plain Gear
	return json.Marshal(struct {
		plain
		Category GearCategory `json:"category"`
		Spec     GearKind     `json:"spec"`
	}{plain: plain(g), Category: g.Category(), Spec: g.Kind})
}

// UnmarshalJSON restores the variant written by MarshalJSON.
func (g *Gear) UnmarshalJSON(data []byte) error {
	type plain Gear
	var aux struct {
		plain
		Category GearCategory    `json:"category"`
		Spec     json.RawMessage `json:"spec"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*g = Gear(aux.plain)
	if aux.Category == "" {
		return nil
	}
	kind, err := DecodeGearKind(aux.Category, aux.Spec)
	if err != nil {
		return err
	}
	g.Kind = kind
	return nil
}
