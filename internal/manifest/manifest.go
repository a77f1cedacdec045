package manifest

import (
	"encoding/json"
	"fmt"

	"podo/internal/audio"
	"podo/internal/evaluation"
	"podo/internal/services"
)

// File is the manifest entry of one uploaded file.
type File struct {
	Name           string   `json:"name"`
	RemoteName     string   `json:"remote_name"`
	NChannels      int      `json:"nchannels"`
	Framerate      int      `json:"framerate"`
	DurationMS     int64    `json:"duration_in_ms"`
	UploadStartAt  string   `json:"upload_start_at"`
	UploadFinishAt string   `json:"upload_finish_at"`
	ModelTag       string   `json:"model_tag"`
	IsRef          bool     `json:"is_ref"`
	Tag            []string `json:"tag"`
	Type           string   `json:"type"`
	Script         *string  `json:"script"`
	Group          *string  `json:"group"`
	OrderInGroup   int      `json:"order_in_group"`
}

// Document is the full session manifest.
type Document struct {
	evaluation.ManifestFields
	Query *evaluation.Query `json:"query"`
	Files [][]File          `json:"files"`
}

// FileFor converts a descriptor into its manifest entry. The descriptor must
// carry upload timestamps.
func FileFor(d audio.Descriptor) (File, error) {
	start, finish, ok := d.UploadTimes()
	if !ok {
		return File{}, services.Wrap(services.ErrState, "manifest", "build",
			fmt.Sprintf("%s has no upload timestamps", d.RemoteKey()), nil)
	}
	meta := d.Metadata()
	entry := File{
		Name:           d.Name(),
		RemoteName:     d.RemoteKey(),
		NChannels:      meta.Channels,
		Framerate:      meta.SampleRate,
		DurationMS:     meta.DurationMS,
		UploadStartAt:  start,
		UploadFinishAt: finish,
		ModelTag:       d.ModelTag(),
		IsRef:          d.IsRef(),
		Tag:            d.Tags(),
		Type:           string(d.Role()),
		OrderInGroup:   d.Order(),
	}
	if script := d.Script(); script != "" {
		entry.Script = &script
	}
	if group, ok := d.GroupID(); ok {
		entry.Group = &group
	}
	return entry, nil
}

// Build assembles a manifest from the session settings and the descriptor
// groups in add order.
func Build(fields evaluation.ManifestFields, query *evaluation.Query, groups [][]audio.Descriptor) (Document, error) {
	doc := Document{
		ManifestFields: fields,
		Query:          query,
		Files:          make([][]File, 0, len(groups)),
	}
	for _, group := range groups {
		entries := make([]File, 0, len(group))
		for _, d := range group {
			entry, err := FileFor(d)
			if err != nil {
				return Document{}, err
			}
			entries = append(entries, entry)
		}
		doc.Files = append(doc.Files, entries)
	}
	return doc, nil
}

// Encode marshals the document and validates the result.
func (d Document) Encode() ([]byte, error) {
	data, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "manifest", "encode", "marshal", err)
	}
	if err := Validate(data); err != nil {
		return nil, err
	}
	return data, nil
}

// Decode validates and unmarshals manifest bytes.
func Decode(data []byte) (Document, error) {
	if err := Validate(data); err != nil {
		return Document{}, err
	}
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return Document{}, services.Wrap(services.ErrValidation, "manifest", "decode", "unmarshal", err)
	}
	return doc, nil
}

// FileCount returns the number of file entries across all groups.
func (d Document) FileCount() int {
	n := 0
	for _, group := range d.Files {
		n += len(group)
	}
	return n
}
