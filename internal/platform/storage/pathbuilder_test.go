package storage

import "testing"

func TestBuildProductImagePath(t *testing.T) {
	path, err := BuildProductImagePath("cd-ejemplo", "camiseta", "dorsal-10.png")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if path != "cd-ejemplo/camiseta/dorsal-10.png" {
		t.Fatalf("unexpected path: %s", path)
	}
}

func TestBuildProductImagePathRejectsTraversal(t *testing.T) {
	cases := []struct {
		club, category, file string
	}{
		{"", "camiseta", "a.png"},
		{"cd", "", "a.png"},
		{"cd", "camiseta", ""},
		{"cd/../x", "camiseta", "a.png"},
		{"cd", "camiseta", "..\\a.png"},
		{"cd", "cam/iseta", "a.png"},
	}
	for _, tc := range cases {
		if _, err := BuildProductImagePath(tc.club, tc.category, tc.file); err == nil {
			t.Fatalf("expected error for %+v", tc)
		}
	}
}

func TestBuildExportPath(t *testing.T) {
	path, err := BuildExportPath("cd-ejemplo", "7", "pedidos.csv")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if path != "exports/cd-ejemplo/7/pedidos.csv" {
		t.Fatalf("unexpected path: %s", path)
	}
}
