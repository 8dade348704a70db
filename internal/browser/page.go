package browser

import (
	"context"
	"errors"
	"sync"

	"catalog-admin/internal/catalogtypes"
)

// FolderDialog is the create-folder dialog.
type FolderDialog struct {
	Open  bool
	Name  string
	Error string
}

// PageOptions configures a Page. Nil collaborators are replaced by no-ops.
type PageOptions struct {
	Toaster   Toaster
	Confirmer Confirmer
	// StartDir is the initial Current Directory.
	StartDir string
}

type nopToaster struct{}

func (nopToaster) Success(string) {}
func (nopToaster) Error(string)   {}

// Page ties the directory state, the listing and the mutations together behind the
// session gate.
//
// Loads carry a monotonic generation; a response whose generation is no longer the
// latest is dropped, so the last navigation wins regardless of arrival order. State
// is guarded by mu and no network call runs under it.
type Page struct {
	api     FilesAPI
	gate    *Gate
	coord   *Coordinator
	toaster Toaster

	mu       sync.Mutex
	dir      *Directory
	gen      uint64
	epoch    uint64 // 每次登出加一，用于丢弃跨越登出的变更结果
	inFlight int
	resp     *catalogtypes.FilesResponse
	loadErr  error
	query    string
	dialog   FolderDialog
	modal    DeleteModal
}

// NewPage creates a Page.
func NewPage(api FilesAPI, gate *Gate, opts PageOptions) *Page {
	toaster := opts.Toaster
	if toaster == nil {
		toaster = nopToaster{}
	}
	return &Page{
		api:     api,
		gate:    gate,
		coord:   NewCoordinator(api, opts.Confirmer),
		toaster: toaster,
		dir:     NewDirectory(opts.StartDir),
	}
}

// Login opens the gate and loads the Current Directory.
func (p *Page) Login(ctx context.Context, password string) error {
	if err := p.gate.Login(ctx, password); err != nil {
		p.toaster.Error(UserMessage(err))
		return err
	}
	return p.Load(ctx)
}

// Logout closes the gate and forgets the listing.
func (p *Page) Logout(ctx context.Context) error {
	err := p.gate.Logout(ctx)
	p.mu.Lock()
	p.gen++
	p.epoch++
	p.resp = nil
	p.loadErr = nil
	p.dialog = FolderDialog{}
	p.modal = DeleteModal{}
	p.mu.Unlock()
	if err != nil {
		p.toaster.Error(UserMessage(err))
	}
	return err
}

// Authenticated reports whether the gate is open.
func (p *Page) Authenticated() bool {
	return p.gate.Authenticated()
}

func (p *Page) begin() {
	p.mu.Lock()
	p.inFlight++
	p.mu.Unlock()
}

func (p *Page) end() {
	p.mu.Lock()
	p.inFlight--
	p.mu.Unlock()
}

// Loading reports whether any request is in flight. One flag covers the whole page.
func (p *Page) Loading() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.inFlight > 0
}

// Load fetches the Current Directory. A superseded response is discarded.
func (p *Page) Load(ctx context.Context) error {
	if !p.gate.Authenticated() {
		return ErrNotAuthenticated
	}

	p.mu.Lock()
	p.gen++
	gen := p.gen
	dir := p.dir.Current()
	p.inFlight++
	p.mu.Unlock()

	resp, err := p.api.List(ctx, dir)

	p.mu.Lock()
	p.inFlight--
	if gen != p.gen {
		p.mu.Unlock()
		return nil
	}
	if err != nil {
		err = asOpError(OpLoad, err)
		p.resp = nil
		p.loadErr = err
	} else {
		p.resp = resp
		p.loadErr = nil
	}
	p.mu.Unlock()

	if err != nil {
		p.toaster.Error(UserMessage(err))
	}
	return err
}

// NavigateTo changes the Current Directory and issues one load.
func (p *Page) NavigateTo(ctx context.Context, path string) error {
	if !p.gate.Authenticated() {
		return ErrNotAuthenticated
	}
	p.mu.Lock()
	p.dir.NavigateTo(path)
	p.mu.Unlock()
	return p.Load(ctx)
}

// NavigateUp moves to the parent directory. At root nothing happens and nothing is fetched.
func (p *Page) NavigateUp(ctx context.Context) error {
	if !p.gate.Authenticated() {
		return ErrNotAuthenticated
	}
	p.mu.Lock()
	moved := p.dir.NavigateUp()
	p.mu.Unlock()
	if !moved {
		return nil
	}
	return p.Load(ctx)
}

// CurrentDir returns the Current Directory.
func (p *Page) CurrentDir() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.dir.Current()
}

// Breadcrumbs returns the trail for the Current Directory.
func (p *Page) Breadcrumbs() []Breadcrumb {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.dir.Breadcrumbs()
}

// SetQuery sets the folder name filter.
func (p *Page) SetQuery(q string) {
	p.mu.Lock()
	p.query = q
	p.mu.Unlock()
}

// View renders the last accepted response.
func (p *Page) View() View {
	p.mu.Lock()
	defer p.mu.Unlock()
	return BuildView(p.resp, p.dir.Current(), p.query)
}

// LoadError returns the error of the last accepted load, if any.
func (p *Page) LoadError() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.loadErr
}

// OpenFolderDialog opens the create-folder dialog with an empty name.
func (p *Page) OpenFolderDialog() {
	p.mu.Lock()
	p.dialog = FolderDialog{Open: true}
	p.mu.Unlock()
}

// SetFolderName updates the dialog input.
func (p *Page) SetFolderName(name string) {
	p.mu.Lock()
	p.dialog.Name = name
	p.mu.Unlock()
}

// FolderDialog returns the dialog state.
func (p *Page) FolderDialog() FolderDialog {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.dialog
}

// SubmitFolder creates the folder named in the dialog. Success closes and clears the
// dialog; failure keeps it open with the error.
func (p *Page) SubmitFolder(ctx context.Context) Result {
	if !p.gate.Authenticated() {
		return Result{Op: OpCreateFolder, Err: ErrNotAuthenticated}
	}
	p.mu.Lock()
	name := p.dialog.Name
	dir := p.dir.Current()
	p.mu.Unlock()

	p.begin()
	res := p.coord.CreateFolder(ctx, dir, name)
	p.end()

	p.mu.Lock()
	if res.Err == nil {
		p.dialog = FolderDialog{}
	} else {
		p.dialog.Open = true
		p.dialog.Error = res.Toast
	}
	p.mu.Unlock()

	return p.apply(ctx, res)
}

// Upload sends the first selected file to the Current Directory.
func (p *Page) Upload(ctx context.Context, sel *Selection) Result {
	if !p.gate.Authenticated() {
		sel.Clear()
		return Result{Op: OpUpload, Err: ErrNotAuthenticated}
	}
	dir := p.CurrentDir()
	p.begin()
	res := p.coord.Upload(ctx, dir, sel)
	p.end()
	return p.apply(ctx, res)
}

// RequestDeleteFolder opens the delete modal for category.
func (p *Page) RequestDeleteFolder(category catalogtypes.Category) {
	p.mu.Lock()
	p.modal.Open(category)
	p.mu.Unlock()
}

// DeleteModal returns the delete modal state.
func (p *Page) DeleteModal() DeleteModal {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.modal
}

// DismissDeleteModal closes the delete modal unless a deletion is in progress.
func (p *Page) DismissDeleteModal() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.modal.Dismiss()
}

// ConfirmDeleteFolder runs the deletion the modal is asking about.
func (p *Page) ConfirmDeleteFolder(ctx context.Context) Result {
	if !p.gate.Authenticated() {
		return Result{Op: OpDeleteFolder, Err: ErrNotAuthenticated}
	}
	p.mu.Lock()
	if p.modal.Phase != ModalConfirm {
		p.mu.Unlock()
		return Result{Op: OpDeleteFolder, Err: errNothingToConfirm}
	}
	modal := p.modal
	p.modal.Phase = ModalInProgress
	dir := p.dir.Current()
	epoch := p.epoch
	p.mu.Unlock()

	p.begin()
	res := p.coord.DeleteFolder(ctx, dir, &modal)
	p.end()

	p.mu.Lock()
	if epoch != p.epoch {
		// 请求期间已登出：页面已重置，不恢复弹窗也不重新加载
		p.mu.Unlock()
		return res
	}
	p.modal = modal
	p.mu.Unlock()
	return p.apply(ctx, res)
}

// DeleteImage deletes image from the Current Directory after confirmation.
func (p *Page) DeleteImage(ctx context.Context, image catalogtypes.Image) Result {
	if !p.gate.Authenticated() {
		return Result{Op: OpDeleteImage, Err: ErrNotAuthenticated}
	}
	dir := p.CurrentDir()
	p.begin()
	res := p.coord.DeleteImage(ctx, dir, image)
	p.end()
	return p.apply(ctx, res)
}

// apply shows the toast and performs the one reload a successful mutation asks for.
// Validation failures are shown inline, not as a toast.
func (p *Page) apply(ctx context.Context, res Result) Result {
	var ve *ValidationError
	switch {
	case errors.As(res.Err, &ve):
	case res.Err != nil:
		p.toaster.Error(res.Toast)
	case res.Toast != "":
		p.toaster.Success(res.Toast)
	}
	if res.Reload {
		// 重新加载失败已经通过 toast 提示，不覆盖变更本身的结果
		_ = p.Load(ctx)
	}
	return res
}

// HandleEvent reloads when a catalog event touches the Current Directory.
func (p *Page) HandleEvent(ctx context.Context, event catalogtypes.Event) bool {
	if !event.IsCatalogChange() || !p.gate.Authenticated() {
		return false
	}
	if catalogtypes.NormalizeDir(event.Dir) != p.CurrentDir() {
		return false
	}
	_ = p.Load(ctx)
	return true
}
