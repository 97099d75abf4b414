package app

import (
	"encoding/base64"
	"fmt"
	"strings"

	"arafiles/internal/domain"
)

// ============================================================
// Document
// ============================================================

func (a *App) GetDocument() (*domain.Document, error) {
	ws, err := a.ready()
	if err != nil {
		return nil, err
	}
	return ws.Docs.Snapshot(), nil
}

func (a *App) SetTheme(theme string) (domain.Change, error) {
	ws, err := a.ready()
	if err != nil {
		return domain.NoChange, err
	}
	return ws.Docs.SetTheme(a.ctx, theme)
}

func (a *App) SetBackground(background string) (domain.Change, error) {
	ws, err := a.ready()
	if err != nil {
		return domain.NoChange, err
	}
	return ws.Docs.SetBackground(a.ctx, background)
}

// ResetAll drops every folder and every stored image.
func (a *App) ResetAll() (domain.Change, error) {
	ws, err := a.ready()
	if err != nil {
		return domain.NoChange, err
	}
	return ws.Docs.Reset(a.ctx)
}

// ============================================================
// Folders
// ============================================================

func (a *App) AddFolder(name, desc string) (domain.Change, error) {
	ws, err := a.ready()
	if err != nil {
		return domain.NoChange, err
	}
	return ws.Docs.AddFolder(a.ctx, name, desc)
}

func (a *App) EditFolder(index int, name, desc, color string) (domain.Change, error) {
	ws, err := a.ready()
	if err != nil {
		return domain.NoChange, err
	}
	return ws.Docs.EditFolder(a.ctx, index, name, desc, color)
}

func (a *App) SetFolderLayout(index, perPage int, numberAlign string) (domain.Change, error) {
	ws, err := a.ready()
	if err != nil {
		return domain.NoChange, err
	}
	return ws.Docs.SetFolderLayout(a.ctx, index, perPage, domain.Alignment(numberAlign))
}

func (a *App) DeleteFolder(index int) (domain.Change, error) {
	ws, err := a.ready()
	if err != nil {
		return domain.NoChange, err
	}
	return ws.Docs.DeleteFolder(a.ctx, index)
}

// ============================================================
// Questions
// ============================================================

func (a *App) AddTextQuestion(folder int, text string) (domain.Change, error) {
	ws, err := a.ready()
	if err != nil {
		return domain.NoChange, err
	}
	return ws.Docs.AddTextQuestion(a.ctx, folder, text)
}

// CaptureImageQuestion stores a pasted or dropped image (base64 or data URL)
// and appends it as a new question.
func (a *App) CaptureImageQuestion(folder int, payload string) (domain.Change, error) {
	ws, err := a.ready()
	if err != nil {
		return domain.NoChange, err
	}
	data, err := decodeImagePayload(payload)
	if err != nil {
		return domain.NoChange, err
	}
	return ws.Docs.CaptureImageQuestion(a.ctx, folder, data)
}

func (a *App) EditQuestionText(folder, question int, text string) (domain.Change, error) {
	ws, err := a.ready()
	if err != nil {
		return domain.NoChange, err
	}
	return ws.Docs.EditQuestionText(a.ctx, folder, question, text)
}

// ReplaceQuestionImage swaps a question's image for the given payload.
func (a *App) ReplaceQuestionImage(folder, question int, payload string) (domain.Change, error) {
	ws, err := a.ready()
	if err != nil {
		return domain.NoChange, err
	}
	data, err := decodeImagePayload(payload)
	if err != nil {
		return domain.NoChange, err
	}
	return ws.Docs.EditQuestionImage(a.ctx, folder, question, data)
}

func (a *App) SetQuestionAlign(folder, question int, align string) (domain.Change, error) {
	ws, err := a.ready()
	if err != nil {
		return domain.NoChange, err
	}
	return ws.Docs.EditQuestionAlign(a.ctx, folder, question, domain.Alignment(align))
}

func (a *App) CycleQuestionAlign(folder, question int) (domain.Change, error) {
	ws, err := a.ready()
	if err != nil {
		return domain.NoChange, err
	}
	return ws.Docs.CycleQuestionAlign(a.ctx, folder, question)
}

func (a *App) MoveQuestion(folder, from, to int) (domain.Change, error) {
	ws, err := a.ready()
	if err != nil {
		return domain.NoChange, err
	}
	return ws.Docs.MoveQuestion(a.ctx, folder, from, to)
}

func (a *App) DeleteQuestion(folder, question int) (domain.Change, error) {
	ws, err := a.ready()
	if err != nil {
		return domain.NoChange, err
	}
	return ws.Docs.DeleteQuestion(a.ctx, folder, question)
}

func (a *App) SetQuestionOptions(folder, question int, options []string) (domain.Change, error) {
	ws, err := a.ready()
	if err != nil {
		return domain.NoChange, err
	}
	return ws.Docs.EditQuestionOptions(a.ctx, folder, question, options)
}

func (a *App) AddOption(folder, question int) (domain.Change, error) {
	ws, err := a.ready()
	if err != nil {
		return domain.NoChange, err
	}
	return ws.Docs.AddOption(a.ctx, folder, question)
}

func (a *App) SetOption(folder, question, option int, text string) (domain.Change, error) {
	ws, err := a.ready()
	if err != nil {
		return domain.NoChange, err
	}
	return ws.Docs.SetOption(a.ctx, folder, question, option, text)
}

func (a *App) RemoveOption(folder, question, option int) (domain.Change, error) {
	ws, err := a.ready()
	if err != nil {
		return domain.NoChange, err
	}
	return ws.Docs.RemoveOption(a.ctx, folder, question, option)
}

// GetQuestionImage returns the question's image as a data URL, or
// ErrNoImage when it has none or its blob is gone.
func (a *App) GetQuestionImage(folder, question int) (string, error) {
	ws, err := a.ready()
	if err != nil {
		return "", err
	}
	img, err := ws.Docs.QuestionImage(a.ctx, folder, question)
	if err != nil {
		return "", err
	}
	if img == nil {
		return "", domain.ErrNoImage
	}
	return "data:" + img.MimeType + ";base64," + base64.StdEncoding.EncodeToString(img.Bytes), nil
}

// decodeImagePayload accepts raw base64 or a "data:<mime>;base64," URL.
func decodeImagePayload(payload string) ([]byte, error) {
	if rest, ok := strings.CutPrefix(payload, "data:"); ok {
		_, b64, found := strings.Cut(rest, ",")
		if !found {
			return nil, fmt.Errorf("malformed data URL: %w", domain.ErrUnsupportedImage)
		}
		payload = b64
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return data, nil
}
