package browser

import (
	"encoding/json"
	"testing"

	"catalog-admin/internal/catalogtypes"
)

func TestBuildViewScenario(t *testing.T) {
	payload := `{"categories":[{"id":"1","name":"Shoes","slug":"shoes","images":[]}],"pagination":{"total":1,"page":1,"limit":50,"totalPages":1}}`
	var resp catalogtypes.FilesResponse
	if err := json.Unmarshal([]byte(payload), &resp); err != nil {
		t.Fatal(err)
	}

	v := BuildView(&resp, "", "")
	if v.Kind != ViewFolders || len(v.Folders) != 1 || v.Folders[0].Name != "Shoes" {
		t.Fatalf("Expected one folder tile Shoes, got %+v", v)
	}
	if v.Title != "Root folder contents" || v.ShowParent {
		t.Errorf("Unexpected root header: %q %v", v.Title, v.ShowParent)
	}

	if v := BuildView(&resp, "", "sho"); len(v.Folders) != 1 {
		t.Errorf("Expected filter 'sho' to keep Shoes, got %+v", v.Folders)
	}
	if v := BuildView(&resp, "", "SHO"); len(v.Folders) != 1 {
		t.Errorf("Expected case-insensitive filter, got %+v", v.Folders)
	}
	v = BuildView(&resp, "", "xyz")
	if v.Kind != ViewFolders || len(v.Folders) != 0 || v.TotalFolders != 1 {
		t.Errorf("Expected filter 'xyz' to remove Shoes, got %+v", v)
	}
}

func TestBuildViewBranches(t *testing.T) {
	img := catalogtypes.Image{Name: "A1.jpg", Code: "A1", URL: "/files/cat1/A1.jpg", Category: "cat1"}
	imagesOnly := &catalogtypes.FilesResponse{Categories: []catalogtypes.Category{}, Images: []catalogtypes.Image{img}}

	if v := BuildView(imagesOnly, "", ""); v.Kind != ViewEmpty {
		t.Errorf("Expected empty view at root, got %v", v.Kind)
	}
	v := BuildView(imagesOnly, "cat1", "")
	if v.Kind != ViewImages || len(v.Images) != 1 {
		t.Errorf("Expected image grid in cat1, got %+v", v)
	}
	if v.Title != "Contents of: cat1" || !v.ShowParent {
		t.Errorf("Unexpected header: %q %v", v.Title, v.ShowParent)
	}

	both := &catalogtypes.FilesResponse{
		Categories: []catalogtypes.Category{{Name: "Sub"}},
		Images:     []catalogtypes.Image{img},
	}
	if v := BuildView(both, "cat1", ""); v.Kind != ViewFolders || v.Images != nil {
		t.Errorf("Expected categories to win, got %+v", v)
	}

	if v := BuildView(&catalogtypes.FilesResponse{}, "cat1", ""); v.Kind != ViewEmpty {
		t.Errorf("Expected empty view, got %v", v.Kind)
	}
	if v := BuildView(nil, "", ""); v.Kind != ViewEmpty {
		t.Errorf("Expected empty view for nil response, got %v", v.Kind)
	}
}

func TestFilterFoldersKeepsOrder(t *testing.T) {
	cats := []catalogtypes.Category{{Name: "Zeta shoes"}, {Name: "alpha"}, {Name: "Shoes"}}
	got := FilterFolders(cats, "shoes")
	if len(got) != 2 || got[0].Name != "Zeta shoes" || got[1].Name != "Shoes" {
		t.Errorf("Expected backend order preserved, got %+v", got)
	}
}

func TestFilterFoldersKeepsSpacesInQuery(t *testing.T) {
	cats := []catalogtypes.Category{{Name: "Shoes"}, {Name: "Running shoes"}}
	got := FilterFolders(cats, "sho ")
	if len(got) != 0 {
		t.Errorf("Expected \"sho \" to match nothing, got %+v", got)
	}
	got = FilterFolders(cats, " SHO")
	if len(got) != 1 || got[0].Name != "Running shoes" {
		t.Errorf("Expected \" SHO\" to match only Running shoes, got %+v", got)
	}
}
