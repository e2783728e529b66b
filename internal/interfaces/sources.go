// Package interfaces defines the seams between the core QC engine and its
// external collaborators: the raw-survey document reader, the rules store,
// and the issues sink. Mirrors the teacher's internal/interfaces.InputSource
// shape (Parse/Metadata) generalized to this domain's three collaborators.
package interfaces

import (
	"katapultqc/internal/config"
	"katapultqc/pkg/types"
)

// SourceMetadata describes where a parsed Job came from.
type SourceMetadata struct {
	Path     string
	Format   string
	RowCount int
}

// JobDocumentReader parses a raw survey document into the normalized Job
// model. The real, proprietary spreadsheet/export parser is the external
// collaborator; this package only defines the seam plus a default reader
// for documents already in the normalized §3 shape.
type JobDocumentReader interface {
	Parse() (*types.Job, error)
	Metadata() SourceMetadata
}

// RuleStore loads and persists a Rules document. A networked or
// database-backed store is the external collaborator; this package ships
// only a local-file implementation.
type RuleStore interface {
	Load() (config.Rules, error)
	Save(config.Rules) error
}

// IssueSink is the seam a CSV exporter or issues-list UI implements to
// consume the engine's output issue list.
type IssueSink interface {
	Write(issues []types.Issue) error
}
