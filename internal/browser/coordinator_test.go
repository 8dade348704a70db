package browser

import (
	"context"
	"errors"
	"strings"
	"testing"

	"catalog-admin/internal/catalogtypes"
)

func TestCreateFolderValidation(t *testing.T) {
	api := newFakeAPI()
	c := NewCoordinator(api, nil)

	for _, name := range []string{"", "   "} {
		res := c.CreateFolder(context.Background(), "", name)
		var ve *ValidationError
		if !errors.As(res.Err, &ve) {
			t.Errorf("CreateFolder(%q): expected ValidationError, got %v", name, res.Err)
		}
		if res.Reload {
			t.Errorf("CreateFolder(%q): expected no reload", name)
		}
	}
	if n := len(api.calls); n != 0 {
		t.Errorf("Expected no requests, got %d", n)
	}

	res := c.CreateFolder(context.Background(), "files/Shoes", " Boots ")
	if res.Err != nil || !res.Reload {
		t.Fatalf("Expected success with reload, got %+v", res)
	}
	if got := api.last(); got != (call{Op: "createFolder", Dir: "Shoes", Name: "Boots"}) {
		t.Errorf("Unexpected request %+v", got)
	}
}

func TestCreateFolderBackendError(t *testing.T) {
	api := newFakeAPI()
	api.setErr(&BackendError{Op: OpLoad, Status: 409, Message: "同名文件夹已存在"})
	res := NewCoordinator(api, nil).CreateFolder(context.Background(), "", "Shoes")

	var be *BackendError
	if !errors.As(res.Err, &be) || be.Op != OpCreateFolder {
		t.Fatalf("Expected BackendError labeled createFolder, got %#v", res.Err)
	}
	if res.Toast != "同名文件夹已存在" || res.Reload {
		t.Errorf("Unexpected result %+v", res)
	}
}

func TestUploadSelection(t *testing.T) {
	api := newFakeAPI()
	c := NewCoordinator(api, nil)

	empty := &Selection{}
	if res := c.Upload(context.Background(), "Shoes", empty); res.Err != nil || res.Reload {
		t.Errorf("Expected no-op for empty selection, got %+v", res)
	}
	if len(api.calls) != 0 {
		t.Fatalf("Expected no request for empty selection, got %d", len(api.calls))
	}

	sel := &Selection{Files: []File{
		{Name: "A1.jpg", Reader: strings.NewReader("a")},
		{Name: "A2.jpg", Reader: strings.NewReader("b")},
	}}
	res := c.Upload(context.Background(), "files/Shoes", sel)
	if res.Err != nil || !res.Reload {
		t.Fatalf("Expected success, got %+v", res)
	}
	if api.count("upload") != 1 || api.last() != (call{Op: "upload", Dir: "Shoes", Name: "A1.jpg"}) {
		t.Errorf("Expected only the first file to be sent, got %+v", api.calls)
	}
	if len(sel.Files) != 0 {
		t.Error("Expected selection to be cleared after success")
	}

	api.setErr(errors.New("connection refused"))
	sel = &Selection{Files: []File{{Name: "A1.jpg", Reader: strings.NewReader("a")}}}
	res = c.Upload(context.Background(), "Shoes", sel)
	var ue *UnexpectedError
	if !errors.As(res.Err, &ue) || res.Toast != "Could not upload file" {
		t.Errorf("Expected generic UnexpectedError, got %+v", res)
	}
	if len(sel.Files) != 0 {
		t.Error("Expected selection to be cleared after failure")
	}
}

func TestDeleteFolderModal(t *testing.T) {
	api := newFakeAPI()
	c := NewCoordinator(api, nil)
	var modal DeleteModal

	if res := c.DeleteFolder(context.Background(), "", &modal); res.Err == nil {
		t.Error("Expected error when the modal is not confirming")
	}

	modal.Open(catalogtypes.Category{Name: "Shoes"})
	res := c.DeleteFolder(context.Background(), "", &modal)
	if res.Err != nil || !res.Reload {
		t.Fatalf("Expected success with reload, got %+v", res)
	}
	if modal.Phase != ModalSuccess {
		t.Errorf("Expected success phase, got %v", modal.Phase)
	}
	if api.last() != (call{Op: "delete", Dir: "", Name: "Shoes"}) {
		t.Errorf("Unexpected request %+v", api.last())
	}
	if !modal.Dismiss() || modal.Phase != ModalClosed {
		t.Error("Expected modal to close on dismiss")
	}

	api.setErr(&BackendError{Status: 404, Message: "not found"})
	modal.Open(catalogtypes.Category{Name: "Ghost"})
	res = c.DeleteFolder(context.Background(), "", &modal)
	if res.Err == nil || res.Reload {
		t.Fatalf("Expected failure without reload, got %+v", res)
	}
	if modal.Phase != ModalClosed {
		t.Errorf("Expected modal closed after failure, got %v", modal.Phase)
	}
}

func TestDeleteImageConfirmation(t *testing.T) {
	api := newFakeAPI()
	img := catalogtypes.Image{Name: "A1.jpg"}

	declined := NewCoordinator(api, confirmFunc(func(string) bool { return false }))
	if res := declined.DeleteImage(context.Background(), "Shoes", img); res.Reload || res.Err != nil {
		t.Errorf("Expected no-op when declined, got %+v", res)
	}
	if len(api.calls) != 0 {
		t.Fatal("Expected no request when declined")
	}

	var asked string
	accepted := NewCoordinator(api, confirmFunc(func(msg string) bool { asked = msg; return true }))
	res := accepted.DeleteImage(context.Background(), "Shoes", img)
	if res.Err != nil || !res.Reload || res.Toast == "" {
		t.Fatalf("Expected success toast and reload, got %+v", res)
	}
	if !strings.Contains(asked, "A1.jpg") {
		t.Errorf("Expected confirmation to name the image, got %q", asked)
	}
	if api.last() != (call{Op: "delete", Dir: "Shoes", Name: "A1.jpg"}) {
		t.Errorf("Unexpected request %+v", api.last())
	}

	api.setErr(&BackendError{Status: 500, Message: "boom"})
	res = accepted.DeleteImage(context.Background(), "Shoes", img)
	if res.Err == nil || res.Reload || res.Toast != "boom" {
		t.Errorf("Expected failure toast only, got %+v", res)
	}
}
