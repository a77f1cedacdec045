package backend

import (
	"time"

	"podo/internal/audio"
)

// Evaluation is the backend record of one evaluation session.
type Evaluation struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	InternalName string    `json:"internal_name"`
	Description  string    `json:"description"`
	Status       string    `json:"status"`
	CreatedTime  time.Time `json:"created_time"`
	UpdatedTime  time.Time `json:"updated_time"`
}

// StatsFile identifies one file that contributed to a stimulus statistic.
type StatsFile struct {
	Name string   `json:"name"`
	Tags []string `json:"tags"`
	Type string   `json:"type"`
}

// StimulusStats holds the rating statistics of one stimulus.
type StimulusStats struct {
	StimulusName string      `json:"stimulus_name"`
	Files        []StatsFile `json:"files"`
	Mean         float64     `json:"mean"`
	Median       float64     `json:"median"`
	Std          float64     `json:"std"`
	CI90         float64     `json:"ci_90"`
	CI95         float64     `json:"ci_95"`
	CI99         float64     `json:"ci_99"`
}

// FileRegistration is the per-file metadata registered with the backend
// when an evaluation closes.
type FileRegistration struct {
	OriginalURI  string   `json:"original_uri"`
	ProcessedURI string   `json:"processed_uri"`
	Duration     int64    `json:"duration"`
	ModelTag     string   `json:"model_tag"`
	IsRef        bool     `json:"is_ref"`
	Tags         []string `json:"tags"`
	Type         string   `json:"type"`
	Script       *string  `json:"script"`
	Group        *string  `json:"group"`
	OrderInGroup int      `json:"order_in_group"`
}

// RegistrationFor builds the registration record of a descriptor.
func RegistrationFor(d audio.Descriptor) FileRegistration {
	reg := FileRegistration{
		OriginalURI:  d.Path(),
		ProcessedURI: d.RemoteKey(),
		Duration:     d.Metadata().DurationMS,
		ModelTag:     d.ModelTag(),
		IsRef:        d.IsRef(),
		Tags:         d.Tags(),
		Type:         string(d.Role()),
		OrderInGroup: d.Order(),
	}
	if script := d.Script(); script != "" {
		reg.Script = &script
	}
	if group, ok := d.GroupID(); ok {
		reg.Group = &group
	}
	return reg
}

type uploadURLRequest struct {
	ProcessedURI string `json:"processed_uri"`
}

type registerFilesRequest struct {
	Files []FileRegistration `json:"files"`
}
