package domain

// ChangeOp names the kind of mutation applied to a document.
type ChangeOp string

const (
	ChangeNone             ChangeOp = "none"
	ChangeFolderAdded      ChangeOp = "folder-added"
	ChangeFolderDeleted    ChangeOp = "folder-deleted"
	ChangeFolderEdited     ChangeOp = "folder-edited"
	ChangeFolderLayout     ChangeOp = "folder-layout"
	ChangeQuestionAdded    ChangeOp = "question-added"
	ChangeQuestionEdited   ChangeOp = "question-edited"
	ChangeQuestionImage    ChangeOp = "question-image"
	ChangeQuestionAlign    ChangeOp = "question-align"
	ChangeQuestionOptions  ChangeOp = "question-options"
	ChangeQuestionDeleted  ChangeOp = "question-deleted"
	ChangeQuestionMoved    ChangeOp = "question-moved"
	ChangePreferences      ChangeOp = "preferences"
	ChangeDocumentReplaced ChangeOp = "document-replaced"
	ChangeDocumentReset    ChangeOp = "document-reset"
)

// Change describes what a mutation did so a presentation layer can decide
// what to redraw. Indexes are -1 when not applicable.
type Change struct {
	Op       ChangeOp `json:"op"`
	Folder   int      `json:"folder"`
	Question int      `json:"question"`
	To       int      `json:"to"`
}

// NoChange is returned by operations that were rejected as no-ops.
var NoChange = Change{Op: ChangeNone, Folder: -1, Question: -1, To: -1}

// Changed reports whether the change actually modified the document.
func (c Change) Changed() bool {
	return c.Op != ChangeNone && c.Op != ""
}

func FolderChange(op ChangeOp, folder int) Change {
	return Change{Op: op, Folder: folder, Question: -1, To: -1}
}

func QuestionChange(op ChangeOp, folder, question int) Change {
	return Change{Op: op, Folder: folder, Question: question, To: -1}
}
