package documents

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Kind enumerates the five registry book variants.
type Kind string

const (
	KindIncoming     Kind = "incoming"
	KindOutgoing     Kind = "outgoing"
	KindOrder        Kind = "order"
	KindMemo         Kind = "memo"
	KindAnnouncement Kind = "announcement"
)

// Urgency enumerates the four ordered urgency levels, most severe first.
type Urgency string

const (
	UrgencyMostUrgent Urgency = "most_urgent"
	UrgencyVeryUrgent Urgency = "very_urgent"
	UrgencyUrgent     Urgency = "urgent"
	UrgencyNormal     Urgency = "normal"
)

// DocumentType tags outgoing documents as external or internal correspondence.
type DocumentType string

const (
	DocumentTypeExternal DocumentType = "external"
	DocumentTypeInternal DocumentType = "internal"
)

const (
	maxIdentifierLength = 190
	maxSubjectLength    = 512
	documentDateLayout  = "2006-01-02"
)

var (
	// ErrInvalidKind indicates an unknown document variant.
	ErrInvalidKind = errors.New("documents: invalid document kind")
	// ErrInvalidUrgency indicates an urgency outside the four known levels.
	ErrInvalidUrgency = errors.New("documents: invalid urgency level")
	// ErrInvalidDocumentType indicates an unknown outgoing document type tag.
	ErrInvalidDocumentType = errors.New("documents: invalid document type")
	// ErrInvalidSubject indicates an empty or oversized subject.
	ErrInvalidSubject = errors.New("documents: invalid subject")
	// ErrInvalidDocumentDate indicates a document date not in YYYY-MM-DD form.
	ErrInvalidDocumentDate = errors.New("documents: invalid document date")
	// ErrMissingField indicates a field the variant requires was left empty.
	ErrMissingField = errors.New("documents: missing required field")
	// ErrFieldNotAllowed indicates a field the variant does not carry was set.
	ErrFieldNotAllowed = errors.New("documents: field not allowed for variant")
)

// ParseKind validates raw input and returns a Kind.
func ParseKind(rawInput string) (Kind, error) {
	kind := Kind(strings.ToLower(strings.TrimSpace(rawInput)))
	switch kind {
	case KindIncoming, KindOutgoing, KindOrder, KindMemo, KindAnnouncement:
		return kind, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidKind, rawInput)
	}
}

// Kinds returns all document variants in registry order.
func Kinds() []Kind {
	return []Kind{KindIncoming, KindOutgoing, KindOrder, KindMemo, KindAnnouncement}
}

// ParseUrgency validates raw input and returns an Urgency.
func ParseUrgency(rawInput string) (Urgency, error) {
	urgency := Urgency(strings.ToLower(strings.TrimSpace(rawInput)))
	switch urgency {
	case UrgencyMostUrgent, UrgencyVeryUrgent, UrgencyUrgent, UrgencyNormal:
		return urgency, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidUrgency, rawInput)
	}
}

// Urgencies returns the four urgency levels ordered most severe first.
func Urgencies() []Urgency {
	return []Urgency{UrgencyMostUrgent, UrgencyVeryUrgent, UrgencyUrgent, UrgencyNormal}
}

// ParseDocumentType validates raw input and returns a DocumentType.
func ParseDocumentType(rawInput string) (DocumentType, error) {
	documentType := DocumentType(strings.ToLower(strings.TrimSpace(rawInput)))
	switch documentType {
	case DocumentTypeExternal, DocumentTypeInternal:
		return documentType, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidDocumentType, rawInput)
	}
}

// KindSpec declares the field shape of one variant. All variants share the
// registry core (number, subject, urgency, document date, notes, file);
// the flags mark the variant-specific columns.
type KindSpec struct {
	Kind              Kind
	HasDocumentNumber bool
	HasFromOffice     bool
	HasRecipient      bool
	HasDocumentType   bool
}

var kindSpecs = map[Kind]KindSpec{
	KindIncoming:     {Kind: KindIncoming, HasDocumentNumber: true, HasFromOffice: true, HasRecipient: true},
	KindOutgoing:     {Kind: KindOutgoing, HasRecipient: true, HasDocumentType: true},
	KindOrder:        {Kind: KindOrder},
	KindMemo:         {Kind: KindMemo, HasRecipient: true},
	KindAnnouncement: {Kind: KindAnnouncement},
}

// SpecFor returns the field shape for a variant.
func SpecFor(kind Kind) (KindSpec, error) {
	spec, ok := kindSpecs[kind]
	if !ok {
		return KindSpec{}, fmt.Errorf("%w: %q", ErrInvalidKind, kind)
	}
	return spec, nil
}

// Document models one registry entry. All five variants share the table;
// Number is the per-variant running number assigned at insert and immutable
// afterwards.
type Document struct {
	ID             string    `gorm:"column:id;primaryKey;size:190;not null" json:"id"`
	Kind           Kind      `gorm:"column:kind;size:32;not null;index:idx_documents_kind_created,priority:1;uniqueIndex:idx_documents_kind_number,priority:1" json:"kind"`
	Number         int64     `gorm:"column:number;not null;uniqueIndex:idx_documents_kind_number,priority:2" json:"number"`
	DocumentNumber string    `gorm:"column:document_number;size:190" json:"document_number,omitempty"`
	FromOffice     string    `gorm:"column:from_office;size:320" json:"from_office,omitempty"`
	ToPerson       string    `gorm:"column:to_person;size:320" json:"to_person,omitempty"`
	DocumentType   string    `gorm:"column:document_type;size:32" json:"document_type,omitempty"`
	Subject        string    `gorm:"column:subject;size:512;not null" json:"subject"`
	Urgency        Urgency   `gorm:"column:urgency;size:32;not null" json:"urgency"`
	DocumentDate   string    `gorm:"column:document_date;size:10;not null" json:"document_date"`
	Notes          string    `gorm:"column:notes;type:text" json:"notes,omitempty"`
	FileURL        string    `gorm:"column:file_url;size:512" json:"file_url,omitempty"`
	IssuedAt       time.Time `gorm:"column:issued_at;not null" json:"issued_at"`
	CreatedAt      time.Time `gorm:"column:created_at;not null;index:idx_documents_kind_created,priority:2" json:"created_at"`
	UpdatedAt      time.Time `gorm:"column:updated_at;not null" json:"updated_at"`
}

// TableName provides the explicit table binding for GORM.
func (Document) TableName() string {
	return "documents"
}

// ChangeOp enumerates audited registry operations.
type ChangeOp string

const (
	ChangeOpCreate ChangeOp = "create"
	ChangeOpUpdate ChangeOp = "update"
	ChangeOpDelete ChangeOp = "delete"
)

// DocumentChange captures an append-only audit trail for registry mutations.
type DocumentChange struct {
	ChangeID         string   `gorm:"column:change_id;primaryKey;size:190;not null" json:"change_id"`
	DocumentID       string   `gorm:"column:document_id;size:190;not null;index:idx_document_changes_doc" json:"document_id"`
	Kind             Kind     `gorm:"column:kind;size:32;not null" json:"kind"`
	Operation        ChangeOp `gorm:"column:op;size:16;not null" json:"op"`
	Actor            string   `gorm:"column:actor;size:190" json:"actor"`
	AppliedAtSeconds int64    `gorm:"column:applied_at_s;not null" json:"applied_at_s"`
}

// TableName provides the explicit table binding for GORM.
func (DocumentChange) TableName() string {
	return "document_changes"
}

// CreateInput carries caller-supplied fields for a new registry entry. The
// server assigns id, number, issued_at and the row timestamps.
type CreateInput struct {
	DocumentNumber string
	FromOffice     string
	ToPerson       string
	DocumentType   string
	Subject        string
	Urgency        string
	DocumentDate   string
	Notes          string
	FileURL        string
}

// Validate checks the input against the variant's field shape.
func (in CreateInput) Validate(spec KindSpec) error {
	subject := strings.TrimSpace(in.Subject)
	if subject == "" || len(subject) > maxSubjectLength {
		return ErrInvalidSubject
	}
	if _, err := ParseUrgency(in.Urgency); err != nil {
		return err
	}
	if _, err := time.Parse(documentDateLayout, strings.TrimSpace(in.DocumentDate)); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidDocumentDate, in.DocumentDate)
	}

	if spec.HasDocumentNumber && strings.TrimSpace(in.DocumentNumber) == "" {
		return fmt.Errorf("%w: document_number", ErrMissingField)
	}
	if !spec.HasDocumentNumber && strings.TrimSpace(in.DocumentNumber) != "" {
		return fmt.Errorf("%w: document_number", ErrFieldNotAllowed)
	}
	if spec.HasFromOffice && strings.TrimSpace(in.FromOffice) == "" {
		return fmt.Errorf("%w: from_office", ErrMissingField)
	}
	if !spec.HasFromOffice && strings.TrimSpace(in.FromOffice) != "" {
		return fmt.Errorf("%w: from_office", ErrFieldNotAllowed)
	}
	if spec.HasRecipient && strings.TrimSpace(in.ToPerson) == "" {
		return fmt.Errorf("%w: to_person", ErrMissingField)
	}
	if !spec.HasRecipient && strings.TrimSpace(in.ToPerson) != "" {
		return fmt.Errorf("%w: to_person", ErrFieldNotAllowed)
	}
	if spec.HasDocumentType {
		if _, err := ParseDocumentType(in.DocumentType); err != nil {
			return err
		}
	} else if strings.TrimSpace(in.DocumentType) != "" {
		return fmt.Errorf("%w: document_type", ErrFieldNotAllowed)
	}

	return nil
}

// UpdateInput carries a partial edit. Nil fields are left untouched; id,
// number and the row timestamps are never editable.
type UpdateInput struct {
	DocumentNumber *string
	FromOffice     *string
	ToPerson       *string
	DocumentType   *string
	Subject        *string
	Urgency        *string
	DocumentDate   *string
	Notes          *string
	FileURL        *string
}

// Validate checks the populated fields against the variant's field shape and
// reports whether the input changes anything at all.
func (in UpdateInput) Validate(spec KindSpec) error {
	if in.Subject != nil {
		subject := strings.TrimSpace(*in.Subject)
		if subject == "" || len(subject) > maxSubjectLength {
			return ErrInvalidSubject
		}
	}
	if in.Urgency != nil {
		if _, err := ParseUrgency(*in.Urgency); err != nil {
			return err
		}
	}
	if in.DocumentDate != nil {
		if _, err := time.Parse(documentDateLayout, strings.TrimSpace(*in.DocumentDate)); err != nil {
			return fmt.Errorf("%w: %q", ErrInvalidDocumentDate, *in.DocumentDate)
		}
	}
	if in.DocumentNumber != nil && !spec.HasDocumentNumber {
		return fmt.Errorf("%w: document_number", ErrFieldNotAllowed)
	}
	if in.FromOffice != nil && !spec.HasFromOffice {
		return fmt.Errorf("%w: from_office", ErrFieldNotAllowed)
	}
	if in.ToPerson != nil && !spec.HasRecipient {
		return fmt.Errorf("%w: to_person", ErrFieldNotAllowed)
	}
	if in.DocumentType != nil {
		if !spec.HasDocumentType {
			return fmt.Errorf("%w: document_type", ErrFieldNotAllowed)
		}
		if _, err := ParseDocumentType(*in.DocumentType); err != nil {
			return err
		}
	}
	return nil
}

func (in UpdateInput) isEmpty() bool {
	return in.DocumentNumber == nil && in.FromOffice == nil && in.ToPerson == nil &&
		in.DocumentType == nil && in.Subject == nil && in.Urgency == nil &&
		in.DocumentDate == nil && in.Notes == nil && in.FileURL == nil
}
