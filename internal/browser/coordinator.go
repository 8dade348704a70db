package browser

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"catalog-admin/internal/catalogtypes"
)

// Toaster shows transient notifications.
type Toaster interface {
	Success(message string)
	Error(message string)
}

// Confirmer asks the user a yes/no question, e.g. before deleting an image.
type Confirmer interface {
	Confirm(message string) bool
}

// Result is the outcome of one mutation. The page shows Toast (as an error toast when
// Err is set) and issues one reload when Reload is true.
type Result struct {
	Op     Op
	Reload bool
	Toast  string
	Err    error
}

var errNothingToConfirm = errors.New("delete folder: nothing to confirm")

func failed(op Op, err error) Result {
	err = asOpError(op, err)
	return Result{Op: op, Toast: UserMessage(err), Err: err}
}

// Selection is the state of a file picker. It is cleared after every upload attempt so
// the same file can be picked again.
type Selection struct {
	Files []File
}

// Clear empties the selection.
func (s *Selection) Clear() {
	if s != nil {
		s.Files = nil
	}
}

// ModalPhase is the phase of the delete-folder modal.
type ModalPhase int

const (
	ModalClosed ModalPhase = iota
	ModalConfirm
	ModalInProgress
	ModalSuccess
)

func (p ModalPhase) String() string {
	switch p {
	case ModalConfirm:
		return "confirm"
	case ModalInProgress:
		return "in-progress"
	case ModalSuccess:
		return "success"
	default:
		return "closed"
	}
}

// DeleteModal is the three-phase confirmation dialog for folder deletion.
// Success does not close it; the user dismisses it.
type DeleteModal struct {
	Phase  ModalPhase
	Target catalogtypes.Category
}

// Open moves the modal to the confirm phase for category.
func (m *DeleteModal) Open(category catalogtypes.Category) {
	m.Phase = ModalConfirm
	m.Target = category
}

// Dismiss closes the modal from any phase except in-progress.
func (m *DeleteModal) Dismiss() bool {
	if m.Phase == ModalInProgress {
		return false
	}
	*m = DeleteModal{}
	return true
}

// Coordinator runs the four catalog mutations against a FilesAPI. It never reloads by
// itself; each call returns a Result and the caller decides.
type Coordinator struct {
	api     FilesAPI
	confirm Confirmer
}

// NewCoordinator creates a Coordinator. A nil confirmer approves everything.
func NewCoordinator(api FilesAPI, confirm Confirmer) *Coordinator {
	return &Coordinator{api: api, confirm: confirm}
}

// CreateFolder validates name before any request is issued.
func (c *Coordinator) CreateFolder(ctx context.Context, dir, name string) Result {
	name = strings.TrimSpace(name)
	if name == "" {
		err := &ValidationError{Field: "folderName", Message: "Folder name is required"}
		return Result{Op: OpCreateFolder, Toast: err.Message, Err: err}
	}
	if err := c.api.CreateFolder(ctx, catalogtypes.NormalizeDir(dir), name); err != nil {
		return failed(OpCreateFolder, err)
	}
	return Result{Op: OpCreateFolder, Reload: true, Toast: fmt.Sprintf("Folder %q created", name)}
}

// Upload sends the first selected file; the rest are ignored. An empty selection
// issues no request. The selection is cleared in every case.
func (c *Coordinator) Upload(ctx context.Context, dir string, sel *Selection) Result {
	defer sel.Clear()
	if sel == nil || len(sel.Files) == 0 {
		return Result{Op: OpUpload}
	}
	file := sel.Files[0]
	if err := c.api.Upload(ctx, catalogtypes.NormalizeDir(dir), file); err != nil {
		return failed(OpUpload, err)
	}
	return Result{Op: OpUpload, Reload: true, Toast: fmt.Sprintf("File %q uploaded", file.Name)}
}

// DeleteFolder runs the confirmed deletion held by modal. The modal must be in the
// confirm phase. On success it moves to success and stays open; on failure it closes.
func (c *Coordinator) DeleteFolder(ctx context.Context, dir string, modal *DeleteModal) Result {
	if modal == nil || modal.Phase != ModalConfirm {
		return Result{Op: OpDeleteFolder, Err: errNothingToConfirm}
	}
	modal.Phase = ModalInProgress
	name := modal.Target.Name

	if err := c.api.Delete(ctx, catalogtypes.NormalizeDir(dir), name); err != nil {
		*modal = DeleteModal{}
		return failed(OpDeleteFolder, err)
	}
	modal.Phase = ModalSuccess
	return Result{Op: OpDeleteFolder, Reload: true}
}

// DeleteImage asks the Confirmer first. Declining issues no request.
func (c *Coordinator) DeleteImage(ctx context.Context, dir string, image catalogtypes.Image) Result {
	if c.confirm != nil && !c.confirm.Confirm(fmt.Sprintf("Delete image %q?", image.Name)) {
		return Result{Op: OpDeleteImage}
	}
	if err := c.api.Delete(ctx, catalogtypes.NormalizeDir(dir), image.Name); err != nil {
		return failed(OpDeleteImage, err)
	}
	return Result{Op: OpDeleteImage, Reload: true, Toast: fmt.Sprintf("Image %q deleted", image.Name)}
}
