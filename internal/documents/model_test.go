package documents

import (
	"errors"
	"testing"
)

func TestParseKindAcceptsAllVariants(t *testing.T) {
	for _, kind := range Kinds() {
		parsed, err := ParseKind(string(kind))
		if err != nil {
			t.Fatalf("unexpected error for %q: %v", kind, err)
		}
		if parsed != kind {
			t.Fatalf("expected %q, got %q", kind, parsed)
		}
	}
}

func TestParseKindRejectsUnknownVariant(t *testing.T) {
	if _, err := ParseKind("invoice"); !errors.Is(err, ErrInvalidKind) {
		t.Fatalf("expected ErrInvalidKind, got %v", err)
	}
}

func TestParseUrgencyCoversFourLevels(t *testing.T) {
	levels := Urgencies()
	if len(levels) != 4 {
		t.Fatalf("expected 4 urgency levels, got %d", len(levels))
	}
	for _, level := range levels {
		if _, err := ParseUrgency(string(level)); err != nil {
			t.Fatalf("unexpected error for %q: %v", level, err)
		}
	}
	if _, err := ParseUrgency("critical"); !errors.Is(err, ErrInvalidUrgency) {
		t.Fatalf("expected ErrInvalidUrgency, got %v", err)
	}
}

func TestCreateInputValidation(t *testing.T) {
	tests := []struct {
		name     string
		kind     Kind
		mutate   func(*CreateInput)
		expected error
	}{
		{
			name:   "incoming requires document number",
			kind:   KindIncoming,
			mutate: func(in *CreateInput) { in.DocumentNumber = "" },
			expected: ErrMissingField,
		},
		{
			name:   "incoming requires sender office",
			kind:   KindIncoming,
			mutate: func(in *CreateInput) { in.FromOffice = "" },
			expected: ErrMissingField,
		},
		{
			name:   "subject cannot be blank",
			kind:   KindIncoming,
			mutate: func(in *CreateInput) { in.Subject = "   " },
			expected: ErrInvalidSubject,
		},
		{
			name:   "urgency must be known",
			kind:   KindIncoming,
			mutate: func(in *CreateInput) { in.Urgency = "asap" },
			expected: ErrInvalidUrgency,
		},
		{
			name:   "document date must be a calendar date",
			kind:   KindIncoming,
			mutate: func(in *CreateInput) { in.DocumentDate = "20/08/2026" },
			expected: ErrInvalidDocumentDate,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			input := validIncomingInput()
			test.mutate(&input)
			spec, err := SpecFor(test.kind)
			if err != nil {
				t.Fatalf("unexpected spec error: %v", err)
			}
			if err := input.Validate(spec); !errors.Is(err, test.expected) {
				t.Fatalf("expected %v, got %v", test.expected, err)
			}
		})
	}
}

func TestCreateInputRejectsFieldsOutsideVariantShape(t *testing.T) {
	input := validOrderInput()
	input.ToPerson = "หัวหน้าฝ่าย"

	spec, err := SpecFor(KindOrder)
	if err != nil {
		t.Fatalf("unexpected spec error: %v", err)
	}
	if err := input.Validate(spec); !errors.Is(err, ErrFieldNotAllowed) {
		t.Fatalf("expected ErrFieldNotAllowed, got %v", err)
	}
}

func TestCreateInputOutgoingRequiresDocumentType(t *testing.T) {
	input := CreateInput{
		ToPerson:     "นายอำเภอ",
		Subject:      "ส่งรายงานประจำเดือน",
		Urgency:      string(UrgencyVeryUrgent),
		DocumentDate: "2026-08-22",
	}

	spec, err := SpecFor(KindOutgoing)
	if err != nil {
		t.Fatalf("unexpected spec error: %v", err)
	}
	if err := input.Validate(spec); !errors.Is(err, ErrInvalidDocumentType) {
		t.Fatalf("expected ErrInvalidDocumentType, got %v", err)
	}

	input.DocumentType = string(DocumentTypeExternal)
	if err := input.Validate(spec); err != nil {
		t.Fatalf("unexpected validation error: %v", err)
	}
}

func TestUpdateInputValidatesPopulatedFieldsOnly(t *testing.T) {
	spec, err := SpecFor(KindAnnouncement)
	if err != nil {
		t.Fatalf("unexpected spec error: %v", err)
	}

	subject := "ประกาศวันหยุดราชการ"
	if err := (UpdateInput{Subject: &subject}).Validate(spec); err != nil {
		t.Fatalf("unexpected validation error: %v", err)
	}

	recipient := "ทุกฝ่าย"
	if err := (UpdateInput{ToPerson: &recipient}).Validate(spec); !errors.Is(err, ErrFieldNotAllowed) {
		t.Fatalf("expected ErrFieldNotAllowed, got %v", err)
	}
}
