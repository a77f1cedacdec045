package audio

import (
	"fmt"

	"podo/internal/services"
)

// Role is the part a descriptor plays inside its group.
type Role string

const (
	RoleStimulus Role = "STIMULUS"
	RoleRef      Role = "REF"
	RoleMeta     Role = "META"
)

// Metadata is what a Prober extracts from an audio file.
type Metadata struct {
	Channels   int
	SampleRate int
	DurationMS int64
}

// Placement positions a descriptor inside the session. GroupID is empty for
// ungrouped (single-stimulus) files.
type Placement struct {
	RemoteKey string
	GroupID   string
	Role      Role
	Order     int
}

// Descriptor is an immutable description of one file in an evaluation
// session, plus the upload start and finish timestamps which are set once.
type Descriptor struct {
	path         string
	name         string
	remoteKey    string
	meta         Metadata
	tags         []string
	script       string
	modelTag     string
	isRef        bool
	groupID      string
	role         Role
	order        int
	uploadStart  string
	uploadFinish string
}

// NewDescriptor builds a descriptor from caller input, probed metadata, and
// its placement.
func NewDescriptor(file File, meta Metadata, place Placement) Descriptor {
	return Descriptor{
		path:      file.Path,
		name:      file.Name(),
		remoteKey: place.RemoteKey,
		meta:      meta,
		tags:      cloneStrings(file.Tags),
		script:    file.Script,
		modelTag:  file.ModelTag,
		isRef:     file.IsRef,
		groupID:   place.GroupID,
		role:      place.Role,
		order:     place.Order,
	}
}

func (d Descriptor) Path() string       { return d.path }
func (d Descriptor) Name() string       { return d.name }
func (d Descriptor) RemoteKey() string  { return d.remoteKey }
func (d Descriptor) Metadata() Metadata { return d.meta }
func (d Descriptor) Script() string     { return d.script }
func (d Descriptor) ModelTag() string   { return d.modelTag }
func (d Descriptor) IsRef() bool        { return d.isRef }
func (d Descriptor) Role() Role         { return d.role }
func (d Descriptor) Order() int         { return d.order }

// Tags returns a copy of the descriptor tags.
func (d Descriptor) Tags() []string { return cloneStrings(d.tags) }

// GroupID returns the group id and whether the descriptor belongs to a group.
func (d Descriptor) GroupID() (string, bool) {
	return d.groupID, d.groupID != ""
}

// UploadTimes returns the recorded start and finish timestamps and whether
// they have been set.
func (d Descriptor) UploadTimes() (start, finish string, ok bool) {
	return d.uploadStart, d.uploadFinish, d.uploadStart != ""
}

// SetUploadTimes records the upload timestamps. It fails when either value
// is empty or the timestamps were already set.
func (d *Descriptor) SetUploadTimes(start, finish string) error {
	if start == "" || finish == "" {
		return services.Wrap(services.ErrValidation, "audio", "set upload times",
			fmt.Sprintf("empty timestamp for %s", d.remoteKey), nil)
	}
	if d.uploadStart != "" {
		return services.Wrap(services.ErrState, "audio", "set upload times",
			fmt.Sprintf("upload times already set for %s", d.remoteKey), nil)
	}
	d.uploadStart = start
	d.uploadFinish = finish
	return nil
}
