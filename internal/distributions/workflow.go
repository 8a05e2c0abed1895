package distributions

import "errors"

// WorkflowStep names one state of the send dialog flow.
type WorkflowStep string

const (
	StepSelectDocuments WorkflowStep = "select-documents"
	StepSelectRooms     WorkflowStep = "select-rooms"
	StepConfirm         WorkflowStep = "confirm"
	StepPrintReport     WorkflowStep = "print-report"
)

var (
	// ErrNoDocumentsSelected blocks leaving select-documents with nothing picked.
	ErrNoDocumentsSelected = errors.New("distributions: no documents selected")
	// ErrNoRoomsSelected blocks sending with no destination rooms.
	ErrNoRoomsSelected = errors.New("distributions: no rooms selected")
	// ErrInvalidTransition indicates a step change the workflow does not allow.
	ErrInvalidTransition = errors.New("distributions: invalid workflow transition")
)

// SendWorkflow is the explicit state machine behind the multi-step send
// dialog: select-documents -> select-rooms -> confirm -> print-report.
// It is never persisted; every dialog opening starts a fresh workflow with
// empty selections.
type SendWorkflow struct {
	step        WorkflowStep
	documentIDs []string
	roomIDs     []string
	printIDs    []string
}

// NewSendWorkflow starts a workflow at document selection with nothing picked.
func NewSendWorkflow() *SendWorkflow {
	return &SendWorkflow{step: StepSelectDocuments}
}

// Step reports the current workflow state.
func (w *SendWorkflow) Step() WorkflowStep {
	return w.step
}

// SelectDocuments records the picked documents and advances to room
// selection. At least one document is required.
func (w *SendWorkflow) SelectDocuments(documentIDs []string) error {
	if w.step != StepSelectDocuments {
		return ErrInvalidTransition
	}
	deduped := dedupe(documentIDs)
	if len(deduped) == 0 {
		return ErrNoDocumentsSelected
	}
	w.documentIDs = deduped
	w.step = StepSelectRooms
	return nil
}

// SelectRooms records the picked rooms and advances to the confirm step.
// At least one room is required.
func (w *SendWorkflow) SelectRooms(roomIDs []string) error {
	if w.step != StepSelectRooms {
		return ErrInvalidTransition
	}
	deduped := dedupe(roomIDs)
	if len(deduped) == 0 {
		return ErrNoRoomsSelected
	}
	w.roomIDs = deduped
	w.step = StepConfirm
	return nil
}

// Back returns from room selection to document selection, keeping the
// document picks so the user can adjust them.
func (w *SendWorkflow) Back() error {
	if w.step != StepSelectRooms {
		return ErrInvalidTransition
	}
	w.step = StepSelectDocuments
	return nil
}

// Pairs expands the confirmed selection into the document x room cross
// product to be sent as one batch.
func (w *SendWorkflow) Pairs() []Pair {
	if w.step != StepConfirm {
		return nil
	}
	pairs := make([]Pair, 0, len(w.documentIDs)*len(w.roomIDs))
	for _, documentID := range w.documentIDs {
		for _, roomID := range w.roomIDs {
			pairs = append(pairs, Pair{IncomingDocumentID: documentID, RoomID: roomID})
		}
	}
	return pairs
}

// CompleteSend moves a confirmed workflow to the print step with every just
// sent document preselected for printing.
func (w *SendWorkflow) CompleteSend() error {
	if w.step != StepConfirm {
		return ErrInvalidTransition
	}
	w.printIDs = append([]string(nil), w.documentIDs...)
	w.step = StepPrintReport
	return nil
}

// FailSend returns a confirmed workflow to room selection after a rejected
// batch so the user can retry without losing either selection.
func (w *SendWorkflow) FailSend() error {
	if w.step != StepConfirm {
		return ErrInvalidTransition
	}
	w.step = StepSelectRooms
	return nil
}

// PrintSelection reports the documents preselected on the print step.
func (w *SendWorkflow) PrintSelection() []string {
	return append([]string(nil), w.printIDs...)
}

// Reset abandons the workflow and starts over with empty selections.
func (w *SendWorkflow) Reset() {
	*w = SendWorkflow{step: StepSelectDocuments}
}

func dedupe(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	result := make([]string, 0, len(values))
	for _, value := range values {
		if value == "" {
			continue
		}
		if _, ok := seen[value]; ok {
			continue
		}
		seen[value] = struct{}{}
		result = append(result, value)
	}
	return result
}
