package models

import (
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Stage is one of the six fixed construction phases. The order is a display
// convention, not an enforced progression.
type Stage string

const (
	StageDemolicion    Stage = "Demolicion"
	StageCimentacion   Stage = "Cimentacion"
	StageEstructura    Stage = "Estructura"
	StageInstalaciones Stage = "Instalaciones"
	StageAcabados      Stage = "Acabados"
	StageEntrega       Stage = "Entrega"
)

var Stages = []Stage{
	StageDemolicion,
	StageCimentacion,
	StageEstructura,
	StageInstalaciones,
	StageAcabados,
	StageEntrega,
}

func ParseStage(s string) (Stage, error) {
	for _, stage := range Stages {
		if string(stage) == s {
			return stage, nil
		}
	}
	return "", fmt.Errorf("unknown stage: %q", s)
}

const (
	AttachmentKindImage = "image"
	AttachmentKindFile  = "file"
)

// Attachment is one uploaded evidence file. Kind is classified once when the
// attachment is written, so readers never re-infer it from the URL.
type Attachment struct {
	URL  string `json:"url"`
	Kind string `json:"kind"`
}

var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".webp": true,
	".gif":  true,
	".bmp":  true,
	".svg":  true,
}

// ClassifyAttachment tags a URL as image or generic file by extension.
// Misclassification only affects which preview widget a client shows.
func ClassifyAttachment(url string) Attachment {
	ext := strings.ToLower(path.Ext(strings.SplitN(url, "?", 2)[0]))
	kind := AttachmentKindFile
	if imageExtensions[ext] {
		kind = AttachmentKindImage
	}
	return Attachment{URL: url, Kind: kind}
}

// DefaultResponsableID is the placeholder author until a real user system
// exists.
const DefaultResponsableID = "demo-user"

type ProgressUpdate struct {
	ID            uuid.UUID
	ProjectID     uuid.UUID
	Title         string
	Description   string
	Date          time.Time
	Stage         Stage
	Attachments   []Attachment
	ResponsableID string
	CreatedAt     time.Time
}
